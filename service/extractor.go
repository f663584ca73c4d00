package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/contractmind/backend/config"
)

// TextExtractor turns a stored document into plain text. Implementations
// must fail loudly on unreadable input and never return an empty success.
type TextExtractor interface {
	ExtractText(ctx context.Context, documentURL, fileType string) (string, error)
}

// ExtractorService calls the external text-extraction API: it submits an
// extraction task for a document URL and polls until the task finishes.
type ExtractorService struct {
	cfg          *config.ExtractorConfig
	httpClient   *http.Client
	pollInterval time.Duration
}

type extractTaskRequest struct {
	URL      string `json:"url"`
	FileType string `json:"file_type,omitempty"`
}

type extractTaskResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
}

type extractStatusResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		TaskID   string `json:"task_id"`
		State    string `json:"state"` // pending, running, done, failed
		Text     string `json:"text,omitempty"`
		ErrorMsg string `json:"err_msg,omitempty"`
	} `json:"data"`
}

func NewExtractorService(cfg *config.ExtractorConfig) *ExtractorService {
	return &ExtractorService{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		pollInterval: time.Duration(cfg.PollIntervalSecs) * time.Second,
	}
}

// ExtractText submits the document and blocks until the extraction task
// completes, the poll budget runs out, or ctx is cancelled.
func (s *ExtractorService) ExtractText(ctx context.Context, documentURL, fileType string) (string, error) {
	taskID, err := s.createTask(ctx, documentURL, fileType)
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < s.cfg.MaxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.pollInterval):
		}

		status, err := s.getTaskStatus(ctx, taskID)
		if err != nil {
			// Transient poll failures are retried within the budget.
			continue
		}

		switch status.Data.State {
		case "done":
			text := strings.TrimSpace(status.Data.Text)
			if text == "" {
				return "", fmt.Errorf("extraction task %s finished with empty text", taskID)
			}
			return text, nil
		case "failed":
			return "", fmt.Errorf("extraction task %s failed: %s", taskID, status.Data.ErrorMsg)
		}
	}

	return "", fmt.Errorf("extraction task %s did not finish within poll budget", taskID)
}

func (s *ExtractorService) createTask(ctx context.Context, documentURL, fileType string) (string, error) {
	jsonData, err := json.Marshal(extractTaskRequest{URL: documentURL, FileType: fileType})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL+"/extract/task", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result extractTaskResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}
	if result.Code != 0 {
		return "", fmt.Errorf("extractor API error: %s", result.Message)
	}

	return result.Data.TaskID, nil
}

func (s *ExtractorService) getTaskStatus(ctx context.Context, taskID string) (*extractStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/extract/task/%s", s.cfg.APIURL, taskID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result extractStatusResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("extractor API error: %s", result.Message)
	}

	return &result, nil
}
