package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType explains why a stock quantity changed
type MovementType string

const (
	MovementTypeReceive MovementType = "RECEIVE"
	MovementTypeSale    MovementType = "SALE"
	MovementTypeVoid    MovementType = "SALE_VOID"
)

// StockMovement is an append-only record of one stock change
type StockMovement struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	ShopID       uuid.UUID
	ProductID    uuid.UUID
	Type         MovementType
	Quantity     decimal.Decimal // signed: negative when stock leaves the shop
	BalanceAfter decimal.Decimal
	SourceID     *uuid.UUID
	SourceRef    string
	CreatedAt    time.Time
}

// NewStockMovement records the change just applied to stock
func NewStockMovement(stock *ShopStock, movementType MovementType, delta decimal.Decimal, sourceID *uuid.UUID, sourceRef string) StockMovement {
	return StockMovement{
		ID:           uuid.New(),
		TenantID:     stock.TenantID,
		ShopID:       stock.ShopID,
		ProductID:    stock.ProductID,
		Type:         movementType,
		Quantity:     delta,
		BalanceAfter: stock.Quantity,
		SourceID:     sourceID,
		SourceRef:    sourceRef,
		CreatedAt:    time.Now(),
	}
}
