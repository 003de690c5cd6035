package inventory

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ShopStock is the quantity of one product available at one shop.
// The composite identifier is ShopID + ProductID; Quantity never goes negative.
type ShopStock struct {
	shared.TenantAggregateRoot
	ShopID      uuid.UUID
	ProductID   uuid.UUID
	Quantity    decimal.Decimal
	MinQuantity decimal.Decimal
}

// NewShopStock creates an empty stock row for a shop-product combination
func NewShopStock(tenantID, shopID, productID uuid.UUID) (*ShopStock, error) {
	if shopID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHOP", "Shop ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	return &ShopStock{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ShopID:              shopID,
		ProductID:           productID,
		Quantity:            decimal.Zero,
		MinQuantity:         decimal.Zero,
	}, nil
}

// CanFulfill reports whether quantity units can be taken
func (s *ShopStock) CanFulfill(quantity decimal.Decimal) bool {
	return s.Quantity.GreaterThanOrEqual(quantity)
}

// Receive adds delivered units
func (s *ShopStock) Receive(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	s.Quantity = s.Quantity.Add(quantity)
	s.IncrementVersion()
	return nil
}

// Deduct removes sold units. It fails without side effects when the shop
// does not hold enough. Crossing the minimum raises StockBelowMinimumEvent.
func (s *ShopStock) Deduct(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !s.CanFulfill(quantity) {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	}
	wasBelow := s.IsBelowMinimum()
	s.Quantity = s.Quantity.Sub(quantity)
	s.IncrementVersion()
	if !wasBelow && s.IsBelowMinimum() {
		s.AddDomainEvent(NewStockBelowMinimumEvent(s))
	}
	return nil
}

// Restore puts back units from a voided sale
func (s *ShopStock) Restore(quantity decimal.Decimal) error {
	return s.Receive(quantity)
}

// SetMinQuantity sets the low-stock threshold
func (s *ShopStock) SetMinQuantity(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Minimum quantity cannot be negative")
	}
	s.MinQuantity = quantity
	return nil
}

// IsBelowMinimum reports whether the stock fell under its threshold
func (s *ShopStock) IsBelowMinimum() bool {
	return s.MinQuantity.IsPositive() && s.Quantity.LessThan(s.MinQuantity)
}
