package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/require"
)

// APIClient sends requests straight into an http.Handler as one tenant
type APIClient struct {
	Handler  http.Handler
	TenantID uuid.UUID
	// Token is sent as a bearer token when set
	Token string
}

// Envelope is the decoded form of dto.Response with the data left raw
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

// APIResponse is a recorded response
type APIResponse struct {
	Code   int
	Header http.Header
	Body   []byte
}

// Do sends a request. body is JSON encoded unless it is nil; headers are
// key, value pairs.
func (c *APIClient) Do(t *testing.T, method, path string, body any, headers ...string) *APIResponse {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.TenantID != uuid.Nil {
		req.Header.Set("X-Tenant-ID", c.TenantID.String())
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, req)
	return &APIResponse{Code: w.Code, Header: w.Header(), Body: w.Body.Bytes()}
}

// Envelope decodes the standard response envelope
func (r *APIResponse) Envelope(t *testing.T) Envelope {
	t.Helper()

	var env Envelope
	require.NoError(t, json.Unmarshal(r.Body, &env), "Failed to parse response: %s", string(r.Body))
	return env
}

// RequireStatus fails the test with the body when the status differs
func (r *APIResponse) RequireStatus(t *testing.T, code int) {
	t.Helper()
	require.Equal(t, code, r.Code, "Unexpected status, body: %s", string(r.Body))
}

// ErrorCode returns the error code of a failed response
func (r *APIResponse) ErrorCode(t *testing.T) string {
	t.Helper()

	env := r.Envelope(t)
	require.False(t, env.Success, "Expected an error response")
	require.NotNil(t, env.Error, "Expected an error object")
	return env.Error.Code
}

// DecodeData decodes the data field of a successful response into T
func DecodeData[T any](t *testing.T, r *APIResponse) T {
	t.Helper()

	env := r.Envelope(t)
	require.True(t, env.Success, "Expected a success response: %s", string(r.Body))

	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), "Failed to decode data")
	return out
}
