package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("shop-1"), NewTestUUID("shop-1"))
	assert.NotEqual(t, NewTestUUID("shop-1"), NewTestUUID("shop-2"))
}

func TestEventRecorder(t *testing.T) {
	recorder := NewEventRecorder("SaleCreated")
	assert.Equal(t, []string{"SaleCreated"}, recorder.EventTypes())

	tenantID := uuid.New()
	require.NoError(t, recorder.Handle(context.Background(), NewTestEvent("SaleCreated", tenantID)))
	require.NoError(t, recorder.Handle(context.Background(), NewTestEvent("SaleCancelled", tenantID)))

	assert.Equal(t, 2, recorder.Count())
	assert.Len(t, recorder.OfType("SaleCreated"), 1)
	assert.Equal(t, tenantID, recorder.Handled()[0].TenantID())

	recorder.SetError(assert.AnError)
	assert.ErrorIs(t, recorder.Handle(context.Background(), NewTestEvent("SaleCreated", tenantID)), assert.AnError)

	recorder.Reset()
	assert.Zero(t, recorder.Count())
}

func TestWaitForEvent(t *testing.T) {
	recorder := NewEventRecorder()
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = recorder.Handle(context.Background(), NewTestEvent("SaleCreated", uuid.New()))
	}()

	assert.True(t, WaitForEvent(t, recorder, "SaleCreated", 1, time.Second))
	assert.False(t, WaitForEvent(t, recorder, "SaleCancelled", 1, 30*time.Millisecond))
}

func TestAPIClient(t *testing.T) {
	tenantID := uuid.New()
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		_ = c.ShouldBindJSON(&body)
		c.JSON(http.StatusCreated, dto.NewSuccessResponse(gin.H{
			"tenant": c.GetHeader("X-Tenant-ID"),
			"auth":   c.GetHeader("Authorization"),
			"key":    c.GetHeader("Idempotency-Key"),
			"name":   body["name"],
		}))
	})
	engine.GET("/fail", func(c *gin.Context) {
		c.JSON(http.StatusConflict, dto.NewErrorResponse("ALREADY_OPEN", "open"))
	})

	client := &APIClient{Handler: engine, TenantID: tenantID, Token: "tok"}

	resp := client.Do(t, http.MethodPost, "/echo", map[string]string{"name": "till"}, "Idempotency-Key", "k1")
	resp.RequireStatus(t, http.StatusCreated)
	data := DecodeData[map[string]string](t, resp)
	assert.Equal(t, tenantID.String(), data["tenant"])
	assert.Equal(t, "Bearer tok", data["auth"])
	assert.Equal(t, "k1", data["key"])
	assert.Equal(t, "till", data["name"])

	resp = client.Do(t, http.MethodGet, "/fail", nil)
	resp.RequireStatus(t, http.StatusConflict)
	assert.Equal(t, "ALREADY_OPEN", resp.ErrorCode(t))
}
