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

// ChatMessage is one role-tagged turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions overrides per-request sampling parameters. Zero values fall
// back to the configured defaults. The pipeline never streams.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// TokenUsage is the upstream token accounting for one completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResult carries the assistant text and usage for a successful call.
type ChatResult struct {
	Content string
	Usage   TokenUsage
}

// ChatCompleter is the LLM capability consumed by the analysis pipeline.
type ChatCompleter interface {
	SendMessage(ctx context.Context, message string, history []ChatMessage, opts *ChatOptions) (*ChatResult, error)
}

// DeepSeekService wraps the DeepSeek chat-completion endpoint. It performs
// no retries; retry policy belongs to callers.
type DeepSeekService struct {
	cfg        *config.DeepSeekConfig
	httpClient *http.Client
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Usage TokenUsage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewDeepSeekService builds the client. A missing API key is a fatal
// configuration error: the process must not start without it.
func NewDeepSeekService(cfg *config.DeepSeekConfig) (*DeepSeekService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("DeepSeek API key is not configured, set DEEPSEEK_API_KEY")
	}

	return &DeepSeekService{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
		},
	}, nil
}

// SendMessage appends message to history and posts the conversation to the
// chat-completion endpoint, returning the assistant text plus token usage.
// Failures are reported as *AIServiceError.
func (s *DeepSeekService) SendMessage(ctx context.Context, message string, history []ChatMessage, opts *ChatOptions) (*ChatResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, &AIServiceError{Message: "empty prompt"}
	}

	reqBody := chatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    append(append([]ChatMessage{}, history...), ChatMessage{Role: "user", Content: message}),
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		TopP:        s.cfg.TopP,
		Stream:      false,
	}
	if opts != nil {
		if opts.MaxTokens > 0 {
			reqBody.MaxTokens = opts.MaxTokens
		}
		if opts.Temperature > 0 {
			reqBody.Temperature = opts.Temperature
		}
		if opts.TopP > 0 {
			reqBody.TopP = opts.TopP
		}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &AIServiceError{Message: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, &AIServiceError{Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &AIServiceError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AIServiceError{Status: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	var result chatCompletionResponse
	if resp.StatusCode >= http.StatusBadRequest {
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &result) == nil && result.Error != nil {
			msg = result.Error.Message
		}
		return nil, &AIServiceError{Status: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &AIServiceError{Status: resp.StatusCode, Message: fmt.Sprintf("failed to parse response: %v", err)}
	}
	if len(result.Choices) == 0 {
		return nil, &AIServiceError{Status: resp.StatusCode, Message: "response contains no choices"}
	}

	return &ChatResult{
		Content: result.Choices[0].Message.Content,
		Usage:   result.Usage,
	}, nil
}
