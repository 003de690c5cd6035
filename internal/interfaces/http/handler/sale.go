package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	posapp "github.com/retailpos/backend/internal/application/pos"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader carries the client reference of a sale submission
const IdempotencyKeyHeader = "Idempotency-Key"

// SaleService is the sale use case surface
type SaleService interface {
	CreateSale(ctx context.Context, tenantID uuid.UUID, req posapp.CreateSaleRequest) (*posapp.SaleResponse, error)
	ProcessCreditPayment(ctx context.Context, tenantID, saleID uuid.UUID, req posapp.CreditPaymentRequest) (*posapp.SaleResponse, error)
	CancelSale(ctx context.Context, tenantID, saleID uuid.UUID, req posapp.CancelSaleRequest) (*posapp.SaleResponse, error)
	VerifySale(ctx context.Context, token string) (*posapp.SaleVerificationResponse, error)
	GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*posapp.SaleResponse, error)
	ListSales(ctx context.Context, tenantID uuid.UUID, filter posapp.SaleListFilter) ([]posapp.SaleListResponse, int64, error)
	GetReceipt(ctx context.Context, tenantID, saleID uuid.UUID) (string, error)
}

// SaleHandler handles sale endpoints
type SaleHandler struct {
	BaseHandler
	saleService SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// Create godoc
// @ID           createPOSSale
// @Summary      Ring up a sale
// @Description  Atomically checks and decrements stock, applies promotions, records the
// @Description  tenders, computes change and books any unpaid amount on the customer's
// @Description  credit. Repeating an Idempotency-Key (or client_ref) returns the sale created
// @Description  by the first request with status 200.
// @Tags         pos-sales
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client reference of this submission"
// @Param        request body posapp.CreateSaleRequest true "Sale"
// @Success      201 {object} APIResponse[posapp.SaleResponse]
// @Success      200 {object} APIResponse[posapp.SaleResponse] "Replayed submission"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "REQUEST_IN_PROGRESS"
// @Failure      422 {object} ErrorResponse "INSUFFICIENT_STOCK, NO_OPEN_SESSION, CUSTOMER_REQUIRED, INSUFFICIENT_CREDIT, INVALID_PROMOTION"
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pos/sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req posapp.CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if key := c.GetHeader(IdempotencyKeyHeader); key != "" {
		if len(key) > 100 {
			h.BadRequest(c, "Idempotency-Key must be at most 100 characters")
			return
		}
		if req.ClientRef != "" && req.ClientRef != key {
			h.BadRequest(c, "Idempotency-Key does not match client_ref")
			return
		}
		req.ClientRef = key
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if sale.Replayed {
		h.Success(c, sale)
		return
	}
	h.Created(c, sale)
}

// GetByID godoc
// @ID           getPOSSale
// @Summary      Get a sale
// @Tags         pos-sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[posapp.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pos/sales/{id} [get]
func (h *SaleHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	saleID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// List godoc
// @ID           listPOSSales
// @Summary      List sales
// @Tags         pos-sales
// @Produce      json
// @Param        session_id query string false "Session ID" format(uuid)
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        status query string false "Status" Enums(COMPLETED, PARTIALLY_PAID, UNPAID, CANCELLED)
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]posapp.SaleListResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pos/sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter posapp.SaleListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	sales, total, err := h.saleService.ListSales(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, sales, total, page, pageSize)
}

// AddPayment godoc
// @ID           payPOSSaleCredit
// @Summary      Settle an amount due
// @Description  Records a later payment against a sale with an amount due. The payment
// @Description  counts towards the session it is taken in and reduces the customer's credit.
// @Tags         pos-sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body posapp.CreditPaymentRequest true "Payment"
// @Success      200 {object} APIResponse[posapp.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "ALREADY_SETTLED, SALE_CANCELLED"
// @Failure      422 {object} ErrorResponse "PAYMENT_MISMATCH, NO_OPEN_SESSION"
// @Security     BearerAuth
// @Router       /pos/sales/{id}/payments [post]
func (h *SaleHandler) AddPayment(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	saleID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req posapp.CreditPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.ProcessCreditPayment(c.Request.Context(), tenantID, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Cancel godoc
// @ID           cancelPOSSale
// @Summary      Cancel a sale
// @Description  Voids a sale of a still open session: restores stock, reverses session totals and customer credit.
// @Tags         pos-sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body posapp.CancelSaleRequest false "Cancellation reason"
// @Success      200 {object} APIResponse[posapp.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "SALE_CANCELLED, ALREADY_CLOSED"
// @Security     BearerAuth
// @Router       /pos/sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	saleID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req posapp.CancelSaleRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.CancelSale(c.Request.Context(), tenantID, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Receipt godoc
// @ID           getPOSSaleReceipt
// @Summary      Render the receipt of a sale
// @Description  Plain text by default; JSON when the client only accepts application/json.
// @Tags         pos-sales
// @Produce      plain
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {string} string "Receipt text"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      501 {object} ErrorResponse "NOT_CONFIGURED"
// @Security     BearerAuth
// @Router       /pos/sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	saleID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	text, err := h.saleService.GetReceipt(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if c.NegotiateFormat(gin.MIMEPlain, gin.MIMEJSON) == gin.MIMEJSON {
		h.Success(c, ReceiptData{Content: text})
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// Verify godoc
// @ID           verifyPOSSale
// @Summary      Verify a receipt
// @Description  Public lookup of a sale by the verification token printed on its receipt.
// @Tags         public
// @Produce      json
// @Param        token path string true "Verification token"
// @Success      200 {object} APIResponse[posapp.SaleVerificationResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /public/sales/verify/{token} [get]
func (h *SaleHandler) Verify(c *gin.Context) {
	token := c.Param("token")
	if token == "" || len(token) > 64 {
		h.ErrorWithCode(c, dto.ErrCodeNotFound, "Sale not found")
		return
	}

	sale, err := h.saleService.VerifySale(c.Request.Context(), token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}
