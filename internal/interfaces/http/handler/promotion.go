package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	posapp "github.com/retailpos/backend/internal/application/pos"
)

// PromotionService is the promotion use case surface
type PromotionService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req posapp.CreatePromotionRequest) (*posapp.PromotionResponse, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*posapp.PromotionResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter posapp.PromotionListFilter) ([]posapp.PromotionResponse, int64, error)
	Deactivate(ctx context.Context, tenantID, id uuid.UUID) (*posapp.PromotionResponse, error)
}

// PromotionHandler handles promotion endpoints
type PromotionHandler struct {
	BaseHandler
	promotionService PromotionService
}

// NewPromotionHandler creates a new PromotionHandler
func NewPromotionHandler(promotionService PromotionService) *PromotionHandler {
	return &PromotionHandler{promotionService: promotionService}
}

// Create godoc
// @ID           createPOSPromotion
// @Summary      Create a promotion
// @Description  PERCENTAGE values are 0-100, FIXED_AMOUNT values are per unit. An empty product_ids applies to no product.
// @Tags         pos-promotions
// @Accept       json
// @Produce      json
// @Param        request body posapp.CreatePromotionRequest true "Promotion"
// @Success      201 {object} APIResponse[posapp.PromotionResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pos/promotions [post]
func (h *PromotionHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req posapp.CreatePromotionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	promotion, err := h.promotionService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, promotion)
}

// GetByID godoc
// @ID           getPOSPromotion
// @Summary      Get a promotion
// @Tags         pos-promotions
// @Produce      json
// @Param        id path string true "Promotion ID" format(uuid)
// @Success      200 {object} APIResponse[posapp.PromotionResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pos/promotions/{id} [get]
func (h *PromotionHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	promotion, err := h.promotionService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, promotion)
}

// List godoc
// @ID           listPOSPromotions
// @Summary      List promotions
// @Tags         pos-promotions
// @Produce      json
// @Param        shop_id query string false "Shop ID" format(uuid)
// @Param        is_active query bool false "Active flag"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]posapp.PromotionResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pos/promotions [get]
func (h *PromotionHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter posapp.PromotionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	promotions, total, err := h.promotionService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, promotions, total, page, pageSize)
}

// Deactivate godoc
// @ID           deactivatePOSPromotion
// @Summary      Deactivate a promotion
// @Tags         pos-promotions
// @Produce      json
// @Param        id path string true "Promotion ID" format(uuid)
// @Success      200 {object} APIResponse[posapp.PromotionResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pos/promotions/{id}/deactivate [post]
func (h *PromotionHandler) Deactivate(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	promotion, err := h.promotionService.Deactivate(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, promotion)
}
