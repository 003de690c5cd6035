package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	posapp "github.com/retailpos/backend/internal/application/pos"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSaleService struct {
	mock.Mock
}

func (m *MockSaleService) CreateSale(ctx context.Context, tenantID uuid.UUID, req posapp.CreateSaleRequest) (*posapp.SaleResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posapp.SaleResponse), args.Error(1)
}

func (m *MockSaleService) ProcessCreditPayment(ctx context.Context, tenantID, saleID uuid.UUID, req posapp.CreditPaymentRequest) (*posapp.SaleResponse, error) {
	args := m.Called(ctx, tenantID, saleID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posapp.SaleResponse), args.Error(1)
}

func (m *MockSaleService) CancelSale(ctx context.Context, tenantID, saleID uuid.UUID, req posapp.CancelSaleRequest) (*posapp.SaleResponse, error) {
	args := m.Called(ctx, tenantID, saleID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posapp.SaleResponse), args.Error(1)
}

func (m *MockSaleService) VerifySale(ctx context.Context, token string) (*posapp.SaleVerificationResponse, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posapp.SaleVerificationResponse), args.Error(1)
}

func (m *MockSaleService) GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*posapp.SaleResponse, error) {
	args := m.Called(ctx, tenantID, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posapp.SaleResponse), args.Error(1)
}

func (m *MockSaleService) ListSales(ctx context.Context, tenantID uuid.UUID, filter posapp.SaleListFilter) ([]posapp.SaleListResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]posapp.SaleListResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockSaleService) GetReceipt(ctx context.Context, tenantID, saleID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID, saleID)
	return args.String(0), args.Error(1)
}

func setupSaleRouter(svc SaleService, tenantID uuid.UUID) *gin.Engine {
	r := newTestRouter(tenantID, uuid.New())
	h := NewSaleHandler(svc)
	r.POST("/pos/sales", h.Create)
	r.GET("/pos/sales", h.List)
	r.GET("/pos/sales/:id", h.GetByID)
	r.POST("/pos/sales/:id/payments", h.AddPayment)
	r.POST("/pos/sales/:id/cancel", h.Cancel)
	r.GET("/pos/sales/:id/receipt", h.Receipt)
	r.GET("/public/sales/verify/:token", h.Verify)
	return r
}

func saleBody(sessionID, productID uuid.UUID) map[string]any {
	return map[string]any{
		"session_id": sessionID,
		"items": []map[string]any{
			{"product_id": productID, "quantity": "2"},
		},
		"payments": []map[string]any{
			{"method": "CASH", "amount": "20"},
		},
	}
}

func TestSaleHandler_Create(t *testing.T) {
	tenantID, sessionID, productID := uuid.New(), uuid.New(), uuid.New()

	t.Run("new sale returns 201", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("CreateSale", mock.Anything, tenantID, mock.MatchedBy(func(req posapp.CreateSaleRequest) bool {
			return req.SessionID == sessionID && len(req.Items) == 1 && req.Items[0].Quantity.Equal(dec("2"))
		})).Return(&posapp.SaleResponse{ID: uuid.New(), Status: "COMPLETED", Total: dec("20")}, nil)

		w := performRequest(setupSaleRouter(svc, tenantID), http.MethodPost, "/pos/sales", saleBody(sessionID, productID))

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("idempotency key becomes the client reference", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("CreateSale", mock.Anything, tenantID, mock.MatchedBy(func(req posapp.CreateSaleRequest) bool {
			return req.ClientRef == "till-7-0001"
		})).Return(&posapp.SaleResponse{ID: uuid.New(), ClientRef: "till-7-0001", Replayed: true}, nil)

		w := performRequest(setupSaleRouter(svc, tenantID), http.MethodPost, "/pos/sales",
			saleBody(sessionID, productID), IdempotencyKeyHeader, "till-7-0001")

		assert.Equal(t, http.StatusOK, w.Code, "replayed sale answers 200")
		svc.AssertExpectations(t)
	})

	t.Run("header conflicting with client_ref", func(t *testing.T) {
		svc := new(MockSaleService)
		body := saleBody(sessionID, productID)
		body["client_ref"] = "a"

		w := performRequest(setupSaleRouter(svc, tenantID), http.MethodPost, "/pos/sales", body, IdempotencyKeyHeader, "b")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CreateSale", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("oversized idempotency key", func(t *testing.T) {
		svc := new(MockSaleService)
		w := performRequest(setupSaleRouter(svc, tenantID), http.MethodPost, "/pos/sales",
			saleBody(sessionID, productID), IdempotencyKeyHeader, strings.Repeat("k", 101))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty cart fails validation", func(t *testing.T) {
		svc := new(MockSaleService)
		body := saleBody(sessionID, productID)
		body["items"] = []map[string]any{}

		w := performRequest(setupSaleRouter(svc, tenantID), http.MethodPost, "/pos/sales", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeResponse(t, w).Error.Code)
	})

	t.Run("unknown tender method fails validation", func(t *testing.T) {
		svc := new(MockSaleService)
		body := saleBody(sessionID, productID)
		body["payments"] = []map[string]any{{"method": "CHEQUE", "amount": "20"}}

		w := performRequest(setupSaleRouter(svc, tenantID), http.MethodPost, "/pos/sales", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("domain failures map to their status", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
		}{
			{pos.NewInsufficientStockError("SKU-1", dec("2"), dec("1")), http.StatusUnprocessableEntity},
			{pos.ErrNoOpenSession, http.StatusUnprocessableEntity},
			{pos.ErrCustomerRequired, http.StatusUnprocessableEntity},
			{pos.NewInsufficientCreditError(dec("0"), dec("5")), http.StatusUnprocessableEntity},
			{pos.NewInvalidPromotionError("Summer", "expired"), http.StatusUnprocessableEntity},
			{pos.ErrRequestInProgress, http.StatusConflict},
			{shared.ErrNotFound, http.StatusNotFound},
		}
		for _, tc := range cases {
			svc := new(MockSaleService)
			svc.On("CreateSale", mock.Anything, tenantID, mock.Anything).Return(nil, tc.err)

			w := performRequest(setupSaleRouter(svc, tenantID), http.MethodPost, "/pos/sales", saleBody(sessionID, productID))

			assert.Equal(t, tc.status, w.Code, tc.err.Error())
		}
	})
}

func TestSaleHandler_AddPayment(t *testing.T) {
	tenantID, saleID, sessionID := uuid.New(), uuid.New(), uuid.New()
	path := "/pos/sales/" + saleID.String() + "/payments"

	t.Run("settles amount due", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("ProcessCreditPayment", mock.Anything, tenantID, saleID, mock.MatchedBy(func(req posapp.CreditPaymentRequest) bool {
			return req.Method == "MOBILE_MONEY" && req.Amount.Equal(dec("15"))
		})).Return(&posapp.SaleResponse{ID: saleID, Status: "COMPLETED"}, nil)

		w := performRequest(setupSaleRouter(svc, tenantID), http.MethodPost, path, map[string]any{
			"session_id": sessionID, "method": "MOBILE_MONEY", "amount": "15",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("zero amount fails validation", func(t *testing.T) {
		svc := new(MockSaleService)
		w := performRequest(setupSaleRouter(svc, tenantID), http.MethodPost, path, map[string]any{
			"session_id": sessionID, "method": "CASH", "amount": "0",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("settled sale is a conflict", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("ProcessCreditPayment", mock.Anything, tenantID, saleID, mock.Anything).Return(nil, pos.ErrAlreadySettled)

		w := performRequest(setupSaleRouter(svc, tenantID), http.MethodPost, path, map[string]any{
			"session_id": sessionID, "method": "CASH", "amount": "5",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, pos.CodeAlreadySettled, decodeResponse(t, w).Error.Code)
	})
}

func TestSaleHandler_Cancel(t *testing.T) {
	tenantID, saleID := uuid.New(), uuid.New()
	svc := new(MockSaleService)
	svc.On("CancelSale", mock.Anything, tenantID, saleID, posapp.CancelSaleRequest{Reason: "wrong item"}).
		Return(&posapp.SaleResponse{ID: saleID, Status: "CANCELLED"}, nil).Once()
	svc.On("CancelSale", mock.Anything, tenantID, saleID, posapp.CancelSaleRequest{}).
		Return(nil, pos.ErrSaleCancelled).Once()

	r := setupSaleRouter(svc, tenantID)
	path := "/pos/sales/" + saleID.String() + "/cancel"

	w := performRequest(r, http.MethodPost, path, map[string]any{"reason": "wrong item"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(r, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	svc.AssertExpectations(t)
}

func TestSaleHandler_Receipt(t *testing.T) {
	tenantID, saleID := uuid.New(), uuid.New()
	path := "/pos/sales/" + saleID.String() + "/receipt"
	text := "CORNER SHOP\nTOTAL 20.00\n"

	t.Run("plain text by default", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("GetReceipt", mock.Anything, tenantID, saleID).Return(text, nil)

		w := performRequest(setupSaleRouter(svc, tenantID), http.MethodGet, path, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
		assert.Equal(t, text, w.Body.String())
	})

	t.Run("json when asked for", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("GetReceipt", mock.Anything, tenantID, saleID).Return(text, nil)

		w := performRequest(setupSaleRouter(svc, tenantID), http.MethodGet, path, nil, "Accept", "application/json")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, text, data["content"])
	})

	t.Run("renderer not configured", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("GetReceipt", mock.Anything, tenantID, saleID).
			Return("", shared.NewDomainError("NOT_CONFIGURED", "Receipt rendering is not configured"))

		w := performRequest(setupSaleRouter(svc, tenantID), http.MethodGet, path, nil)

		assert.Equal(t, http.StatusNotImplemented, w.Code)
	})
}

func TestSaleHandler_Verify(t *testing.T) {
	token := uuid.NewString()

	t.Run("found without a tenant", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("VerifySale", mock.Anything, token).Return(&posapp.SaleVerificationResponse{
			Reference: "POS-20261019-0001", Status: "COMPLETED", Total: dec("20"),
		}, nil)

		w := performRequest(setupSaleRouter(svc, uuid.Nil), http.MethodGet, "/public/sales/verify/"+token, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "POS-20261019-0001", data["reference"])
		_, leaked := data["tenant_id"]
		assert.False(t, leaked)
	})

	t.Run("unknown token", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("VerifySale", mock.Anything, "nope").Return(nil, shared.ErrNotFound)

		w := performRequest(setupSaleRouter(svc, uuid.Nil), http.MethodGet, "/public/sales/verify/nope", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("overlong token never reaches the service", func(t *testing.T) {
		svc := new(MockSaleService)
		w := performRequest(setupSaleRouter(svc, uuid.Nil), http.MethodGet, "/public/sales/verify/"+strings.Repeat("a", 65), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		svc.AssertNotCalled(t, "VerifySale", mock.Anything, mock.Anything)
	})
}

func TestSaleHandler_GetAndList(t *testing.T) {
	tenantID, saleID, sessionID := uuid.New(), uuid.New(), uuid.New()
	svc := new(MockSaleService)
	svc.On("GetSale", mock.Anything, tenantID, saleID).Return(&posapp.SaleResponse{ID: saleID}, nil)
	svc.On("ListSales", mock.Anything, tenantID, posapp.SaleListFilter{SessionID: sessionID.String(), Page: 2, PageSize: 5}).
		Return([]posapp.SaleListResponse{{ID: saleID}}, int64(6), nil)

	r := setupSaleRouter(svc, tenantID)

	w := performRequest(r, http.MethodGet, "/pos/sales/"+saleID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(r, http.MethodGet, "/pos/sales?session_id="+sessionID.String()+"&page=2&page_size=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.TotalPages)
	svc.AssertExpectations(t)
}
