package inventory

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeShopStock is the aggregate type for ShopStock
const AggregateTypeShopStock = "ShopStock"

// EventTypeStockBelowMinimum is raised when a sale takes a shop's stock under its threshold
const EventTypeStockBelowMinimum = "StockBelowMinimum"

// StockBelowMinimumEvent carries the stock level after the crossing deduction
type StockBelowMinimumEvent struct {
	shared.BaseDomainEvent
	ShopID      uuid.UUID       `json:"shop_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
}

// NewStockBelowMinimumEvent creates a StockBelowMinimumEvent
func NewStockBelowMinimumEvent(s *ShopStock) *StockBelowMinimumEvent {
	return &StockBelowMinimumEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowMinimum, AggregateTypeShopStock, s.ID, s.TenantID),
		ShopID:          s.ShopID,
		ProductID:       s.ProductID,
		Quantity:        s.Quantity,
		MinQuantity:     s.MinQuantity,
	}
}
