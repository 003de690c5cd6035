package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// setAuthContext simulates what the JWT and tenant middleware leave behind
func setAuthContext(c *gin.Context, tenantID, userID uuid.UUID) {
	if tenantID != uuid.Nil {
		c.Set(middleware.TenantIDKey, tenantID.String())
	}
	if userID != uuid.Nil {
		c.Set(middleware.JWTUserIDKey, userID.String())
	}
}

// newTestRouter returns an engine whose requests carry the given tenant and user
func newTestRouter(tenantID, userID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.RequestIDContextKey, "test-request-id")
		setAuthContext(c, tenantID, userID)
		c.Next()
	})
	return r
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func performRequest(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name:       "from context",
			setup:      func(c *gin.Context) { c.Set(middleware.RequestIDContextKey, "ctx-id") },
			expectedID: "ctx-id",
		},
		{
			name:       "from header when context empty",
			setup:      func(c *gin.Context) { c.Request.Header.Set(middleware.RequestIDKey, "header-id") },
			expectedID: "header-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(middleware.RequestIDContextKey, "ctx-id")
				c.Request.Header.Set(middleware.RequestIDKey, "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"already open", pos.ErrAlreadyOpen, http.StatusConflict, "ALREADY_OPEN"},
		{"already settled", pos.ErrAlreadySettled, http.StatusConflict, "ALREADY_SETTLED"},
		{"request in progress", pos.ErrRequestInProgress, http.StatusConflict, "REQUEST_IN_PROGRESS"},
		{"insufficient stock", pos.NewInsufficientStockError("SKU-1", dec("5"), dec("2")), http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
		{"customer required", pos.ErrCustomerRequired, http.StatusUnprocessableEntity, "CUSTOMER_REQUIRED"},
		{"invalid input", shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive"), http.StatusBadRequest, "INVALID_QUANTITY"},
		{"wrapped domain error", errors.Join(errors.New("outer"), pos.ErrNoOpenSession), http.StatusUnprocessableEntity, "NO_OPEN_SESSION"},
		{"unexpected error", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(middleware.RequestIDContextKey, "req-1")

			h := &BaseHandler{}
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			assert.Equal(t, tt.expectedCode, c.GetString(middleware.ErrorCodeContextKey))
		})
	}
}

func TestBaseHandler_HandleErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h := &BaseHandler{}
	h.HandleError(c, errors.New("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password")
}

func TestBaseHandler_TenantRequired(t *testing.T) {
	r := newTestRouter(uuid.Nil, uuid.Nil)
	h := &BaseHandler{}
	r.GET("/t", func(c *gin.Context) {
		if _, ok := h.tenant(c); ok {
			h.Success(c, "ok")
		}
	})

	w := performRequest(r, http.MethodGet, "/t", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, decodeResponse(t, w).Error.Code)
}

func TestBaseHandler_UUIDParam(t *testing.T) {
	r := newTestRouter(uuid.New(), uuid.Nil)
	h := &BaseHandler{}
	r.GET("/items/:id", func(c *gin.Context) {
		if id, ok := h.uuidParam(c, "id"); ok {
			h.Success(c, id.String())
		}
	})

	id := uuid.New()
	w := performRequest(r, http.MethodGet, "/items/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), decodeResponse(t, w).Data)

	w = performRequest(r, http.MethodGet, "/items/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid id format", decodeResponse(t, w).Error.Message)
}

func TestPageOrDefault(t *testing.T) {
	page, size := pageOrDefault(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = pageOrDefault(3, 50)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, size)
}
