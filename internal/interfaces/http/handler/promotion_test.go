package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	posapp "github.com/retailpos/backend/internal/application/pos"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPromotionService struct {
	mock.Mock
}

func (m *MockPromotionService) Create(ctx context.Context, tenantID uuid.UUID, req posapp.CreatePromotionRequest) (*posapp.PromotionResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posapp.PromotionResponse), args.Error(1)
}

func (m *MockPromotionService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*posapp.PromotionResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posapp.PromotionResponse), args.Error(1)
}

func (m *MockPromotionService) List(ctx context.Context, tenantID uuid.UUID, filter posapp.PromotionListFilter) ([]posapp.PromotionResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]posapp.PromotionResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockPromotionService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) (*posapp.PromotionResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posapp.PromotionResponse), args.Error(1)
}

func TestPromotionHandler(t *testing.T) {
	tenantID := uuid.New()
	promotionID := uuid.New()
	startsAt := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	endsAt := startsAt.AddDate(0, 1, 0)

	svc := new(MockPromotionService)
	h := NewPromotionHandler(svc)
	r := newTestRouter(tenantID, uuid.New())
	r.POST("/pos/promotions", h.Create)
	r.GET("/pos/promotions", h.List)
	r.GET("/pos/promotions/:id", h.GetByID)
	r.POST("/pos/promotions/:id/deactivate", h.Deactivate)

	t.Run("create", func(t *testing.T) {
		svc.On("Create", mock.Anything, tenantID, mock.MatchedBy(func(req posapp.CreatePromotionRequest) bool {
			return req.Type == "PERCENTAGE" && req.Value.Equal(dec("10")) && req.StartsAt.Equal(startsAt)
		})).Return(&posapp.PromotionResponse{ID: promotionID}, nil).Once()

		w := performRequest(r, http.MethodPost, "/pos/promotions", map[string]any{
			"name":        "Autumn",
			"type":        "PERCENTAGE",
			"value":       "10",
			"starts_at":   startsAt,
			"ends_at":     endsAt,
			"product_ids": []uuid.UUID{uuid.New()},
		})

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("create rejects unknown type", func(t *testing.T) {
		w := performRequest(r, http.MethodPost, "/pos/promotions", map[string]any{
			"name": "Odd", "type": "BOGO", "value": "1", "starts_at": startsAt, "ends_at": endsAt,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("create surfaces domain validation", func(t *testing.T) {
		svc.On("Create", mock.Anything, tenantID, mock.MatchedBy(func(req posapp.CreatePromotionRequest) bool {
			return req.Value.Equal(dec("150"))
		})).Return(nil, shared.NewDomainError("INVALID_PROMOTION_VALUE", "Percentage cannot exceed 100")).Once()

		w := performRequest(r, http.MethodPost, "/pos/promotions", map[string]any{
			"name": "Too much", "type": "PERCENTAGE", "value": "150", "starts_at": startsAt, "ends_at": endsAt,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_PROMOTION_VALUE", decodeResponse(t, w).Error.Code)
	})

	t.Run("list active", func(t *testing.T) {
		active := true
		svc.On("List", mock.Anything, tenantID, posapp.PromotionListFilter{IsActive: &active}).
			Return([]posapp.PromotionResponse{{ID: promotionID}}, int64(1), nil).Once()

		w := performRequest(r, http.MethodGet, "/pos/promotions?is_active=true", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(1), decodeResponse(t, w).Meta.Total)
	})

	t.Run("get and deactivate", func(t *testing.T) {
		svc.On("GetByID", mock.Anything, tenantID, promotionID).Return(&posapp.PromotionResponse{ID: promotionID}, nil).Once()
		svc.On("Deactivate", mock.Anything, tenantID, promotionID).
			Return(nil, shared.NewDomainError("INVALID_STATE", "Promotion is already inactive")).Once()

		w := performRequest(r, http.MethodGet, "/pos/promotions/"+promotionID.String(), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = performRequest(r, http.MethodPost, "/pos/promotions/"+promotionID.String()+"/deactivate", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	svc.AssertExpectations(t)
}
