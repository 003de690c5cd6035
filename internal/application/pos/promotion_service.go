package pos

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/retailpos/backend/internal/domain/shared"
)

// PromotionService manages promotions
type PromotionService struct {
	promotionRepo pos.PromotionRepository
}

// NewPromotionService creates a new PromotionService
func NewPromotionService(promotionRepo pos.PromotionRepository) *PromotionService {
	return &PromotionService{promotionRepo: promotionRepo}
}

// Create creates a new promotion
func (s *PromotionService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePromotionRequest) (*PromotionResponse, error) {
	promotion, err := pos.NewPromotion(tenantID, req.Name, pos.PromotionType(req.Type), req.Value, req.StartsAt, req.EndsAt, req.ShopID, req.ProductIDs)
	if err != nil {
		return nil, err
	}
	if err := s.promotionRepo.Save(ctx, promotion); err != nil {
		return nil, err
	}

	response := ToPromotionResponse(promotion)
	return &response, nil
}

// GetByID retrieves a promotion by ID
func (s *PromotionService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*PromotionResponse, error) {
	promotion, err := s.promotionRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToPromotionResponse(promotion)
	return &response, nil
}

// List lists promotions with filtering and pagination
func (s *PromotionService) List(ctx context.Context, tenantID uuid.UUID, filter PromotionListFilter) ([]PromotionResponse, int64, error) {
	page, pageSize := pageDefaults(filter.Page, filter.PageSize)
	domainFilter := shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  "starts_at",
		OrderDir: "desc",
		Filters:  make(map[string]any),
	}
	if filter.ShopID != "" {
		domainFilter.Filters["shop_id"] = filter.ShopID
	}
	if filter.IsActive != nil {
		domainFilter.Filters["is_active"] = *filter.IsActive
	}

	promotions, err := s.promotionRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.promotionRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToPromotionResponses(promotions), total, nil
}

// Deactivate switches a promotion off. Sales already made keep their discount.
func (s *PromotionService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) (*PromotionResponse, error) {
	promotion, err := s.promotionRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := promotion.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.promotionRepo.Save(ctx, promotion); err != nil {
		return nil, err
	}

	response := ToPromotionResponse(promotion)
	return &response, nil
}
