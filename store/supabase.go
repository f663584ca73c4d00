package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/contractmind/backend/config"
)

// SupabaseClient implements Store against the Supabase REST API
// (PostgREST wire format). All requests authenticate with the service key.
type SupabaseClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewSupabaseClient(cfg *config.SupabaseConfig) (*SupabaseClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is not configured")
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("supabase service key is not configured")
	}

	return &SupabaseClient{
		baseURL:    strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (c *SupabaseClient) Insert(ctx context.Context, table string, record, dest any) error {
	return c.writeRequest(ctx, http.MethodPost, table, nil, "return=representation", record, dest)
}

func (c *SupabaseClient) Select(ctx context.Context, table string, filter Filter, opts *QueryOptions, dest any) error {
	query := url.Values{}
	query.Set("select", "*")
	for col, val := range filter {
		query.Set(col, "eq."+val)
	}
	if opts != nil {
		if opts.Limit > 0 {
			query.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			query.Set("offset", strconv.Itoa(opts.Offset))
		}
		if opts.OrderBy != "" {
			direction := "asc"
			if opts.Descending {
				direction = "desc"
			}
			query.Set("order", opts.OrderBy+"."+direction)
		}
	}

	body, status, err := c.do(ctx, http.MethodGet, table, query, "", nil)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return c.apiError(table, status, body)
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode %s rows: %w", table, err)
	}
	return nil
}

func (c *SupabaseClient) Update(ctx context.Context, table, id string, patch, dest any) error {
	query := url.Values{}
	query.Set("id", "eq."+id)
	return c.writeRequest(ctx, http.MethodPatch, table, query, "return=representation", patch, dest)
}

func (c *SupabaseClient) Delete(ctx context.Context, table, id string) error {
	query := url.Values{}
	query.Set("id", "eq."+id)

	body, status, err := c.do(ctx, http.MethodDelete, table, query, "", nil)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return c.apiError(table, status, body)
	}
	return nil
}

func (c *SupabaseClient) Upsert(ctx context.Context, table, conflictColumn string, record, dest any) error {
	query := url.Values{}
	query.Set("on_conflict", conflictColumn)
	prefer := "return=representation,resolution=merge-duplicates"
	return c.writeRequest(ctx, http.MethodPost, table, query, prefer, record, dest)
}

// writeRequest performs a mutating request and decodes the first returned
// row into dest. PostgREST always wraps representation responses in an array.
func (c *SupabaseClient) writeRequest(ctx context.Context, method, table string, query url.Values, prefer string, payload, dest any) error {
	body, status, err := c.do(ctx, method, table, query, prefer, payload)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return c.apiError(table, status, body)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", table, err)
	}
	if len(rows) == 0 {
		if method == http.MethodPatch {
			return ErrNoRows
		}
		return fmt.Errorf("%s: empty representation returned", table)
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(rows[0], dest); err != nil {
		return fmt.Errorf("failed to decode %s row: %w", table, err)
	}
	return nil
}

func (c *SupabaseClient) do(ctx context.Context, method, table string, query url.Values, prefer string, payload any) ([]byte, int, error) {
	endpoint := c.baseURL + "/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal %s payload: %w", table, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("store request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

func (c *SupabaseClient) apiError(table string, status int, body []byte) error {
	var detail struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &detail)
	if detail.Message != "" {
		return fmt.Errorf("%s: store error %d: %s", table, status, detail.Message)
	}
	return fmt.Errorf("%s: store error %d", table, status)
}
