package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/retailpos/backend/internal/application/inventory"
)

// StockService is the stock maintenance use case surface
type StockService interface {
	Receive(ctx context.Context, tenantID uuid.UUID, req inventoryapp.ReceiveStockRequest) (*inventoryapp.ShopStockResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter inventoryapp.StockListFilter) ([]inventoryapp.ShopStockResponse, int64, error)
}

// StockHandler handles shop stock endpoints
type StockHandler struct {
	BaseHandler
	stockService StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// Receive godoc
// @ID           receiveStock
// @Summary      Receive goods into a shop
// @Description  Adds quantity to the shop's stock of a product, creating the row on first delivery.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.ReceiveStockRequest true "Delivery"
// @Success      200 {object} APIResponse[inventoryapp.ShopStockResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/stock/receive [post]
func (h *StockHandler) Receive(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req inventoryapp.ReceiveStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	stock, err := h.stockService.Receive(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stock)
}

// List godoc
// @ID           listStock
// @Summary      List shop stock
// @Tags         inventory
// @Produce      json
// @Param        shop_id query string false "Shop ID" format(uuid)
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        below_minimum query bool false "Only rows at or below their minimum"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]inventoryapp.ShopStockResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/stock [get]
func (h *StockHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter inventoryapp.StockListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	stocks, total, err := h.stockService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, stocks, total, page, pageSize)
}
