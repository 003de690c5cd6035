package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/shopspring/decimal"
)

// CashRegisterSessionModel is the persistence model for the CashRegisterSession aggregate root.
// At most one OPEN row may exist per cashier (partial unique index).
type CashRegisterSessionModel struct {
	TenantRoot
	ShopID            uuid.UUID         `gorm:"type:uuid;not null;index"`
	CashierID         uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_pos_session_open_cashier,where:status = 'OPEN'"`
	Status            pos.SessionStatus `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	OpeningAmount     decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	ClosingAmount     decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	CountedCash       *decimal.Decimal  `gorm:"type:decimal(18,2)"`
	CashDifference    *decimal.Decimal  `gorm:"type:decimal(18,2)"`
	Notes             string            `gorm:"type:text"`
	ClosingNotes      string            `gorm:"type:text"`
	SalesCount        int               `gorm:"not null;default:0"`
	TotalSales        decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	TotalCash         decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	TotalMobileMoney  decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	TotalBankCard     decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	TotalBankTransfer decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	TotalCredit       decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	OpenedAt          time.Time         `gorm:"not null"`
	ClosedAt          *time.Time
}

// TableName returns the table name for GORM
func (CashRegisterSessionModel) TableName() string {
	return "pos_sessions"
}

// ToDomain converts the persistence model to a domain CashRegisterSession.
func (m *CashRegisterSessionModel) ToDomain() *pos.CashRegisterSession {
	session := &pos.CashRegisterSession{
		ShopID:            m.ShopID,
		CashierID:         m.CashierID,
		Status:            m.Status,
		OpeningAmount:     m.OpeningAmount,
		ClosingAmount:     m.ClosingAmount,
		CountedCash:       m.CountedCash,
		CashDifference:    m.CashDifference,
		Notes:             m.Notes,
		ClosingNotes:      m.ClosingNotes,
		SalesCount:        m.SalesCount,
		TotalSales:        m.TotalSales,
		TotalCash:         m.TotalCash,
		TotalMobileMoney:  m.TotalMobileMoney,
		TotalBankCard:     m.TotalBankCard,
		TotalBankTransfer: m.TotalBankTransfer,
		TotalCredit:       m.TotalCredit,
		OpenedAt:          m.OpenedAt,
		ClosedAt:          m.ClosedAt,
	}
	m.ApplyTo(&session.TenantAggregateRoot)
	return session
}

// FromDomain populates the persistence model from a domain CashRegisterSession.
func (m *CashRegisterSessionModel) FromDomain(s *pos.CashRegisterSession) {
	m.CopyFrom(s.TenantAggregateRoot)
	m.ShopID = s.ShopID
	m.CashierID = s.CashierID
	m.Status = s.Status
	m.OpeningAmount = s.OpeningAmount
	m.ClosingAmount = s.ClosingAmount
	m.CountedCash = s.CountedCash
	m.CashDifference = s.CashDifference
	m.Notes = s.Notes
	m.ClosingNotes = s.ClosingNotes
	m.SalesCount = s.SalesCount
	m.TotalSales = s.TotalSales
	m.TotalCash = s.TotalCash
	m.TotalMobileMoney = s.TotalMobileMoney
	m.TotalBankCard = s.TotalBankCard
	m.TotalBankTransfer = s.TotalBankTransfer
	m.TotalCredit = s.TotalCredit
	m.OpenedAt = s.OpenedAt
	m.ClosedAt = s.ClosedAt
}

// CashRegisterSessionModelFromDomain creates a new persistence model from a domain CashRegisterSession.
func CashRegisterSessionModelFromDomain(s *pos.CashRegisterSession) *CashRegisterSessionModel {
	m := &CashRegisterSessionModel{}
	m.FromDomain(s)
	return m
}

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	TenantRoot
	Reference         string           `gorm:"type:varchar(50);not null;index"`
	Status            pos.SaleStatus   `gorm:"type:varchar(20);not null;index"`
	SessionID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	ShopID            uuid.UUID        `gorm:"type:uuid;not null;index"`
	CashierID         uuid.UUID        `gorm:"type:uuid;not null"`
	CustomerID        *uuid.UUID       `gorm:"type:uuid;index"`
	Subtotal          decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	DiscountTotal     decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	Total             decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	AmountPaid        decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	AmountDue         decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	AmountGiven       *decimal.Decimal `gorm:"type:decimal(18,2)"`
	ChangeGiven       decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	ChangeResidue     decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	ChangeAction      pos.ChangeAction `gorm:"type:varchar(10);not null;default:'RETURN'"`
	VerificationToken string           `gorm:"type:varchar(64);not null;uniqueIndex"`
	ClientRef         string           `gorm:"type:varchar(100);index"`
	Notes             string           `gorm:"type:text"`
	CancelledAt       *time.Time
	CancelReason      string `gorm:"type:varchar(500)"`
	// Associations
	Items    []SaleItemModel    `gorm:"foreignKey:SaleID;references:ID"`
	Payments []SalePaymentModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "pos_sales"
}

// ToDomain converts the persistence model to a domain Sale, including items and payments.
func (m *SaleModel) ToDomain() *pos.Sale {
	sale := &pos.Sale{
		Reference:         m.Reference,
		Status:            m.Status,
		SessionID:         m.SessionID,
		ShopID:            m.ShopID,
		CashierID:         m.CashierID,
		CustomerID:        m.CustomerID,
		Subtotal:          m.Subtotal,
		DiscountTotal:     m.DiscountTotal,
		Total:             m.Total,
		AmountPaid:        m.AmountPaid,
		AmountDue:         m.AmountDue,
		AmountGiven:       m.AmountGiven,
		ChangeGiven:       m.ChangeGiven,
		ChangeResidue:     m.ChangeResidue,
		ChangeAction:      m.ChangeAction,
		VerificationToken: m.VerificationToken,
		ClientRef:         m.ClientRef,
		Notes:             m.Notes,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		Items:             make([]pos.SaleItem, len(m.Items)),
		Payments:          make([]pos.SalePayment, len(m.Payments)),
	}
	m.ApplyTo(&sale.TenantAggregateRoot)
	for i := range m.Items {
		sale.Items[i] = m.Items[i].ToDomain()
	}
	for i := range m.Payments {
		sale.Payments[i] = m.Payments[i].ToDomain()
	}
	return sale
}

// FromDomain populates the persistence model from a domain Sale.
func (m *SaleModel) FromDomain(s *pos.Sale) {
	m.CopyFrom(s.TenantAggregateRoot)
	m.Reference = s.Reference
	m.Status = s.Status
	m.SessionID = s.SessionID
	m.ShopID = s.ShopID
	m.CashierID = s.CashierID
	m.CustomerID = s.CustomerID
	m.Subtotal = s.Subtotal
	m.DiscountTotal = s.DiscountTotal
	m.Total = s.Total
	m.AmountPaid = s.AmountPaid
	m.AmountDue = s.AmountDue
	m.AmountGiven = s.AmountGiven
	m.ChangeGiven = s.ChangeGiven
	m.ChangeResidue = s.ChangeResidue
	m.ChangeAction = s.ChangeAction
	m.VerificationToken = s.VerificationToken
	m.ClientRef = s.ClientRef
	m.Notes = s.Notes
	m.CancelledAt = s.CancelledAt
	m.CancelReason = s.CancelReason
	m.Items = make([]SaleItemModel, len(s.Items))
	for i := range s.Items {
		m.Items[i] = SaleItemModelFromDomain(s.Items[i])
		m.Items[i].Position = i + 1
	}
	m.Payments = make([]SalePaymentModel, len(s.Payments))
	for i := range s.Payments {
		m.Payments[i] = SalePaymentModelFromDomain(s.Payments[i])
		m.Payments[i].TenantID = s.TenantID
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(s *pos.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// SaleItemModel is the persistence model for one sale line.
type SaleItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null;default:0"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductCode string          `gorm:"type:varchar(50);not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	PromotionID *uuid.UUID      `gorm:"type:uuid;index"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "pos_sale_items"
}

// ToDomain converts the persistence model to a domain SaleItem.
func (m *SaleItemModel) ToDomain() pos.SaleItem {
	return pos.SaleItem{
		ID:          m.ID,
		SaleID:      m.SaleID,
		ProductID:   m.ProductID,
		ProductCode: m.ProductCode,
		ProductName: m.ProductName,
		PromotionID: m.PromotionID,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Discount:    m.Discount,
		Subtotal:    m.Subtotal,
	}
}

// SaleItemModelFromDomain creates a new persistence model from a domain SaleItem.
func SaleItemModelFromDomain(i pos.SaleItem) SaleItemModel {
	return SaleItemModel{
		ID:          i.ID,
		SaleID:      i.SaleID,
		ProductID:   i.ProductID,
		ProductCode: i.ProductCode,
		ProductName: i.ProductName,
		PromotionID: i.PromotionID,
		Quantity:    i.Quantity,
		UnitPrice:   i.UnitPrice,
		Discount:    i.Discount,
		Subtotal:    i.Subtotal,
	}
}

// SalePaymentModel is the persistence model for one tender applied to a sale.
type SalePaymentModel struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID         `gorm:"type:uuid;not null;index:idx_sale_payment_session,priority:1"`
	SaleID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	SessionID uuid.UUID         `gorm:"type:uuid;not null;index:idx_sale_payment_session,priority:2"`
	Method    pos.PaymentMethod `gorm:"type:varchar(20);not null"`
	Amount    decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	Reference string            `gorm:"type:varchar(100)"`
	PaidAt    time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SalePaymentModel) TableName() string {
	return "pos_sale_payments"
}

// ToDomain converts the persistence model to a domain SalePayment.
func (m *SalePaymentModel) ToDomain() pos.SalePayment {
	return pos.SalePayment{
		ID:        m.ID,
		SaleID:    m.SaleID,
		SessionID: m.SessionID,
		Method:    m.Method,
		Amount:    m.Amount,
		Reference: m.Reference,
		PaidAt:    m.PaidAt,
	}
}

// SalePaymentModelFromDomain creates a new persistence model from a domain SalePayment.
// TenantID is copied from the owning sale.
func SalePaymentModelFromDomain(p pos.SalePayment) SalePaymentModel {
	return SalePaymentModel{
		ID:        p.ID,
		SaleID:    p.SaleID,
		SessionID: p.SessionID,
		Method:    p.Method,
		Amount:    p.Amount,
		Reference: p.Reference,
		PaidAt:    p.PaidAt,
	}
}

// PromotionModel is the persistence model for the Promotion aggregate root.
type PromotionModel struct {
	TenantRoot
	Name     string            `gorm:"type:varchar(200);not null"`
	Type     pos.PromotionType `gorm:"type:varchar(20);not null"`
	Value    decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	StartsAt time.Time         `gorm:"not null;index"`
	EndsAt   time.Time         `gorm:"not null"`
	IsActive bool              `gorm:"not null;default:true;index"`
	ShopID   *uuid.UUID        `gorm:"type:uuid;index"`
	// Associations
	Products []PromotionProductModel `gorm:"foreignKey:PromotionID;references:ID"`
}

// TableName returns the table name for GORM
func (PromotionModel) TableName() string {
	return "pos_promotions"
}

// ToDomain converts the persistence model to a domain Promotion.
func (m *PromotionModel) ToDomain() *pos.Promotion {
	promotion := &pos.Promotion{
		Name:     m.Name,
		Type:     m.Type,
		Value:    m.Value,
		StartsAt: m.StartsAt,
		EndsAt:   m.EndsAt,
		IsActive: m.IsActive,
		ShopID:   m.ShopID,
	}
	m.ApplyTo(&promotion.TenantAggregateRoot)
	if len(m.Products) > 0 {
		promotion.ProductIDs = make([]uuid.UUID, len(m.Products))
		for i := range m.Products {
			promotion.ProductIDs[i] = m.Products[i].ProductID
		}
	}
	return promotion
}

// FromDomain populates the persistence model from a domain Promotion.
func (m *PromotionModel) FromDomain(p *pos.Promotion) {
	m.CopyFrom(p.TenantAggregateRoot)
	m.Name = p.Name
	m.Type = p.Type
	m.Value = p.Value
	m.StartsAt = p.StartsAt
	m.EndsAt = p.EndsAt
	m.IsActive = p.IsActive
	m.ShopID = p.ShopID
	m.Products = make([]PromotionProductModel, len(p.ProductIDs))
	for i, productID := range p.ProductIDs {
		m.Products[i] = PromotionProductModel{PromotionID: p.ID, ProductID: productID}
	}
}

// PromotionModelFromDomain creates a new persistence model from a domain Promotion.
func PromotionModelFromDomain(p *pos.Promotion) *PromotionModel {
	m := &PromotionModel{}
	m.FromDomain(p)
	return m
}

// PromotionProductModel restricts a promotion to a product
type PromotionProductModel struct {
	PromotionID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (PromotionProductModel) TableName() string {
	return "pos_promotion_products"
}

// ReferenceCounterModel holds the last sequence number issued per tenant and scope
// (prefix plus business day).
type ReferenceCounterModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Scope     string    `gorm:"type:varchar(60);primaryKey"`
	LastValue int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ReferenceCounterModel) TableName() string {
	return "pos_reference_counters"
}
