package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPromotionRepository implements PromotionRepository using GORM
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewGormPromotionRepository creates a new GormPromotionRepository
func NewGormPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

// FindByIDForTenant finds a promotion with its product restrictions
func (r *GormPromotionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*pos.Promotion, error) {
	var model models.PromotionModel
	if err := r.db.WithContext(ctx).
		Preload("Products").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds promotions for a tenant
func (r *GormPromotionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]pos.Promotion, error) {
	var promotionModels []models.PromotionModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PromotionModel{}).Where("tenant_id = ?", tenantID), filter)
	query = promotionSort.apply(query.Preload("Products"), filter)

	if err := query.Find(&promotionModels).Error; err != nil {
		return nil, err
	}

	promotions := make([]pos.Promotion, len(promotionModels))
	for i := range promotionModels {
		promotions[i] = *promotionModels[i].ToDomain()
	}
	return promotions, nil
}

// CountForTenant counts promotions for a tenant
func (r *GormPromotionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PromotionModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a promotion. The product list is written on creation
// and left untouched afterwards.
func (r *GormPromotionRepository) Save(ctx context.Context, promotion *pos.Promotion) error {
	model := models.PromotionModelFromDomain(promotion)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PromotionModel{}).Where("id = ?", model.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return tx.Create(model).Error
		}
		return tx.Omit("Products").Save(model).Error
	})
}

// applyFilter applies filter options to the query
func (r *GormPromotionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}

	for key, value := range filter.Filters {
		switch key {
		case "is_active":
			query = query.Where("is_active = ?", value)
		case "shop_id":
			query = query.Where("(shop_id = ? OR shop_id IS NULL)", value)
		}
	}
	return query
}

// Ensure GormPromotionRepository implements PromotionRepository
var _ pos.PromotionRepository = (*GormPromotionRepository)(nil)
