package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockMetricsProvider implements StockMetricsProvider using GORM.
// It queries the shop_stocks and pos_sessions tables directly.
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a new GormStockMetricsProvider.
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

// GetLowStockCountByShop returns per shop the number of products below their minimum.
func (p *GormStockMetricsProvider) GetLowStockCountByShop(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]int64, error) {
	type result struct {
		ShopID uuid.UUID `gorm:"column:shop_id"`
		Count  int64     `gorm:"column:low_count"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("shop_stocks").
		Select("shop_id, COUNT(*) as low_count").
		Where("tenant_id = ?", tenantID).
		Where("min_quantity > 0 AND quantity < min_quantity").
		Group("shop_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	m := make(map[uuid.UUID]int64, len(results))
	for _, r := range results {
		m[r.ShopID] = r.Count
	}
	return m, nil
}

// GetOpenSessionCount returns the number of open cash register sessions for a tenant.
func (p *GormStockMetricsProvider) GetOpenSessionCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("pos_sessions").
		Where("tenant_id = ? AND status = ?", tenantID, "OPEN").
		Count(&count).Error
	return count, err
}

// GormTenantProvider implements TenantProvider using GORM.
// A tenant counts as active once it holds stock at any shop.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns the IDs of tenants with stock rows.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("shop_stocks").
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}
