package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// ShopStockModel is the persistence model for the ShopStock aggregate root.
type ShopStockModel struct {
	TenantRoot
	ShopID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_shop_stock_shop_product,priority:1"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_shop_stock_shop_product,priority:2"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ShopStockModel) TableName() string {
	return "shop_stocks"
}

// ToDomain converts the persistence model to a domain ShopStock entity.
func (m *ShopStockModel) ToDomain() *inventory.ShopStock {
	stock := &inventory.ShopStock{
		ShopID:      m.ShopID,
		ProductID:   m.ProductID,
		Quantity:    m.Quantity,
		MinQuantity: m.MinQuantity,
	}
	m.ApplyTo(&stock.TenantAggregateRoot)
	return stock
}

// FromDomain populates the persistence model from a domain ShopStock entity.
func (m *ShopStockModel) FromDomain(s *inventory.ShopStock) {
	m.CopyFrom(s.TenantAggregateRoot)
	m.ShopID = s.ShopID
	m.ProductID = s.ProductID
	m.Quantity = s.Quantity
	m.MinQuantity = s.MinQuantity
}

// ShopStockModelFromDomain creates a new persistence model from a domain ShopStock entity.
func ShopStockModelFromDomain(s *inventory.ShopStock) *ShopStockModel {
	m := &ShopStockModel{}
	m.FromDomain(s)
	return m
}

// StockMovementModel is the persistence model for the append-only stock ledger.
type StockMovementModel struct {
	ID           uuid.UUID              `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID              `gorm:"type:uuid;not null;index:idx_stock_movement_tenant_product,priority:1"`
	ShopID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID              `gorm:"type:uuid;not null;index:idx_stock_movement_tenant_product,priority:2"`
	Type         inventory.MovementType `gorm:"type:varchar(20);not null"`
	Quantity     decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	BalanceAfter decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	SourceID     *uuid.UUID             `gorm:"type:uuid;index"`
	SourceRef    string                 `gorm:"type:varchar(100)"`
	CreatedAt    time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() inventory.StockMovement {
	return inventory.StockMovement{
		ID:           m.ID,
		TenantID:     m.TenantID,
		ShopID:       m.ShopID,
		ProductID:    m.ProductID,
		Type:         m.Type,
		Quantity:     m.Quantity,
		BalanceAfter: m.BalanceAfter,
		SourceID:     m.SourceID,
		SourceRef:    m.SourceRef,
		CreatedAt:    m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a new persistence model from a domain StockMovement.
func StockMovementModelFromDomain(mv inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:           mv.ID,
		TenantID:     mv.TenantID,
		ShopID:       mv.ShopID,
		ProductID:    mv.ProductID,
		Type:         mv.Type,
		Quantity:     mv.Quantity,
		BalanceAfter: mv.BalanceAfter,
		SourceID:     mv.SourceID,
		SourceRef:    mv.SourceRef,
		CreatedAt:    mv.CreatedAt,
	}
}
