package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// ShopStockRepository persists per-shop stock rows
type ShopStockRepository interface {
	// FindByShopAndProduct returns the stock row or shared.ErrNotFound
	FindByShopAndProduct(ctx context.Context, tenantID, shopID, productID uuid.UUID) (*ShopStock, error)

	// FindForUpdate loads and row-locks the stock of several products at a shop.
	// Rows are locked in product ID order; products without a row are absent.
	FindForUpdate(ctx context.Context, tenantID, shopID uuid.UUID, productIDs []uuid.UUID) ([]ShopStock, error)

	// FindAllForTenant lists stock rows; supports shop_id, product_id and below_minimum filters
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ShopStock, error)

	// CountForTenant counts stock rows matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates a stock row
	Save(ctx context.Context, stock *ShopStock) error
}

// StockMovementRepository appends stock movements
type StockMovementRepository interface {
	Create(ctx context.Context, movements ...StockMovement) error
}
