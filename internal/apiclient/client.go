// Package apiclient is the web frontend's typed client for the API
// service. The base address is injected so the dependency stays
// configurable and fakeable in tests.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Row is one product row in column order: id, name, price, description,
// stock.
type Row []any

// Client is the API surface the frontend depends on.
type Client interface {
	SelectAll(ctx context.Context) ([]Row, error)
	Select(ctx context.Context, conds map[string]string) ([]Row, error)
	Insert(ctx context.Context, record map[string]any) error
	Update(ctx context.Context, record map[string]any, conds map[string]any) error
	Delete(ctx context.Context, conds map[string]any) error
}

// HTTPClient implements Client over HTTP with a configurable base URL
// and per-request timeout.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// New creates a client for the API service at baseURL. A zero timeout
// defaults to 30 seconds.
func New(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPClient) SelectAll(ctx context.Context) ([]Row, error) {
	return c.fetchRows(ctx, "/select_all")
}

func (c *HTTPClient) Select(ctx context.Context, conds map[string]string) ([]Row, error) {
	query := url.Values{}
	for key, val := range conds {
		query.Set(key, val)
	}
	path := "/select"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return c.fetchRows(ctx, path)
}

func (c *HTTPClient) Insert(ctx context.Context, record map[string]any) error {
	return c.mutate(ctx, http.MethodPost, "/insert", record)
}

// Update sends the record with the condition set under the reserved
// "conditions" key, per the API's update contract.
func (c *HTTPClient) Update(ctx context.Context, record map[string]any, conds map[string]any) error {
	payload := make(map[string]any, len(record)+1)
	for key, val := range record {
		payload[key] = val
	}
	payload["conditions"] = conds
	return c.mutate(ctx, http.MethodPut, "/update", payload)
}

func (c *HTTPClient) Delete(ctx context.Context, conds map[string]any) error {
	return c.mutate(ctx, http.MethodDelete, "/delete", conds)
}

func (c *HTTPClient) fetchRows(ctx context.Context, path string) ([]Row, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Products []Row `json:"products"`
	}
	if err := decodeResponse(resp, &payload); err != nil {
		return nil, err
	}
	return payload.Products, nil
}

func (c *HTTPClient) mutate(ctx context.Context, method, path string, body any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// decodeResponse reads a JSON response into target. Error statuses are
// surfaced with the API's error message when one is present.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("api error (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
