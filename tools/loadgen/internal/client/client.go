// Package client provides the HTTP client the load generator drives the POS
// API with. It decodes the {success, data, error} response envelope.
package client

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

	"github.com/retailpos/tools/loadgen/internal/config"
)

// Result describes one completed request.
type Result struct {
	Method     string
	Path       string
	StatusCode int
	// ErrorCode is the business error code of a failed response
	ErrorCode string
	Message   string
	Duration  time.Duration
	BytesRead int
}

// Success reports whether the server answered with a 2xx status.
func (r Result) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Result Result
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s: %s", e.Result.Method, e.Result.Path, e.Result.StatusCode, e.Result.ErrorCode, e.Result.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client is the HTTP client for the load generator.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
}

// New creates a client for the target.
func New(cfg config.TargetConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}

	c := &Client{
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
			"User-Agent":   "POS-LoadGen/1.0",
		},
	}
	if cfg.TenantID != "" {
		c.headers["X-Tenant-ID"] = cfg.TenantID
	}
	if cfg.Token != "" {
		c.headers["Authorization"] = "Bearer " + cfg.Token
	}
	return c, nil
}

// Do sends a request and decodes the data of a successful response into out,
// which may be nil. Non-2xx responses return an *APIError alongside the Result.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (Result, error) {
	result := Result{Method: method, Path: path}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return result, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return result, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Duration = time.Since(start)
		return result, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	result.Duration = time.Since(start)
	result.StatusCode = resp.StatusCode
	result.BytesRead = len(raw)
	if err != nil {
		return result, fmt.Errorf("reading response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && result.Success() {
			return result, fmt.Errorf("decoding response: %w", err)
		}
	}

	if !result.Success() {
		if env.Error != nil {
			result.ErrorCode = env.Error.Code
			result.Message = env.Error.Message
		}
		return result, &APIError{Result: result}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return result, fmt.Errorf("decoding data: %w", err)
		}
	}
	return result, nil
}
