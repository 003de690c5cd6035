package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormShopStockRepository implements ShopStockRepository using GORM
type GormShopStockRepository struct {
	db *gorm.DB
}

// NewGormShopStockRepository creates a new GormShopStockRepository
func NewGormShopStockRepository(db *gorm.DB) *GormShopStockRepository {
	return &GormShopStockRepository{db: db}
}

// FindByShopAndProduct finds the stock row of a shop-product combination
func (r *GormShopStockRepository) FindByShopAndProduct(ctx context.Context, tenantID, shopID, productID uuid.UUID) (*inventory.ShopStock, error) {
	var model models.ShopStockModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND shop_id = ? AND product_id = ?", tenantID, shopID, productID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindForUpdate loads the stock rows of several products with SELECT ... FOR UPDATE.
// Locks are taken in product_id order.
func (r *GormShopStockRepository) FindForUpdate(ctx context.Context, tenantID, shopID uuid.UUID, productIDs []uuid.UUID) ([]inventory.ShopStock, error) {
	if len(productIDs) == 0 {
		return []inventory.ShopStock{}, nil
	}

	var stockModels []models.ShopStockModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND shop_id = ? AND product_id IN ?", tenantID, shopID, productIDs).
		Order("product_id ASC").
		Find(&stockModels).Error; err != nil {
		return nil, err
	}

	stocks := make([]inventory.ShopStock, len(stockModels))
	for i := range stockModels {
		stocks[i] = *stockModels[i].ToDomain()
	}
	return stocks, nil
}

// FindAllForTenant finds stock rows for a tenant
func (r *GormShopStockRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.ShopStock, error) {
	var stockModels []models.ShopStockModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ShopStockModel{}).Where("tenant_id = ?", tenantID), filter)
	query = shopStockSort.apply(query, filter)

	if err := query.Find(&stockModels).Error; err != nil {
		return nil, err
	}

	stocks := make([]inventory.ShopStock, len(stockModels))
	for i := range stockModels {
		stocks[i] = *stockModels[i].ToDomain()
	}
	return stocks, nil
}

// CountForTenant counts stock rows for a tenant
func (r *GormShopStockRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ShopStockModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a stock row
func (r *GormShopStockRepository) Save(ctx context.Context, stock *inventory.ShopStock) error {
	return r.db.WithContext(ctx).Save(models.ShopStockModelFromDomain(stock)).Error
}

// applyFilter applies filter options to the query
func (r *GormShopStockRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "shop_id":
			query = query.Where("shop_id = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "below_minimum":
			if value == true {
				query = query.Where("min_quantity > 0 AND quantity < min_quantity")
			}
		}
	}
	return query
}

// Ensure GormShopStockRepository implements ShopStockRepository
var _ inventory.ShopStockRepository = (*GormShopStockRepository)(nil)

// GormStockMovementRepository implements StockMovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create appends movements in one batch insert
func (r *GormStockMovementRepository) Create(ctx context.Context, movements ...inventory.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	rows := make([]*models.StockMovementModel, len(movements))
	for i := range movements {
		rows[i] = models.StockMovementModelFromDomain(movements[i])
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// Ensure GormStockMovementRepository implements StockMovementRepository
var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
