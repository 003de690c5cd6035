package pos

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeSale = "Sale"

// Event type constants
const (
	EventTypeSaleCreated               = "SaleCreated"
	EventTypeSaleCreditPaymentReceived = "SaleCreditPaymentReceived"
	EventTypeSaleCancelled             = "SaleCancelled"
)

// SaleItemInfo is the item data carried by sale events
type SaleItemInfo struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleCreatedEvent is raised when a sale is rung up
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID                         `json:"sale_id"`
	Reference  string                            `json:"reference"`
	SessionID  uuid.UUID                         `json:"session_id"`
	ShopID     uuid.UUID                         `json:"shop_id"`
	CustomerID *uuid.UUID                        `json:"customer_id,omitempty"`
	Status     SaleStatus                        `json:"status"`
	Total      decimal.Decimal                   `json:"total"`
	AmountPaid decimal.Decimal                   `json:"amount_paid"`
	AmountDue  decimal.Decimal                   `json:"amount_due"`
	Payments   map[PaymentMethod]decimal.Decimal `json:"payments"`
	Items      []SaleItemInfo                    `json:"items"`
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	items := make([]SaleItemInfo, len(s.Items))
	for i, item := range s.Items {
		items[i] = SaleItemInfo{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		}
	}
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		Reference:       s.Reference,
		SessionID:       s.SessionID,
		ShopID:          s.ShopID,
		CustomerID:      s.CustomerID,
		Status:          s.Status,
		Total:           s.Total,
		AmountPaid:      s.AmountPaid,
		AmountDue:       s.AmountDue,
		Payments:        SumPayments(s.Payments),
		Items:           items,
	}
}

// SaleCreditPaymentReceivedEvent is raised when an outstanding amount is (partly) settled
type SaleCreditPaymentReceivedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID       `json:"sale_id"`
	Reference  string          `json:"reference"`
	SessionID  uuid.UUID       `json:"session_id"`
	CustomerID *uuid.UUID      `json:"customer_id,omitempty"`
	Method     PaymentMethod   `json:"method"`
	Amount     decimal.Decimal `json:"amount"`
	AmountDue  decimal.Decimal `json:"amount_due"`
	Status     SaleStatus      `json:"status"`
}

// NewSaleCreditPaymentReceivedEvent creates a new SaleCreditPaymentReceivedEvent
func NewSaleCreditPaymentReceivedEvent(s *Sale, payment SalePayment) *SaleCreditPaymentReceivedEvent {
	return &SaleCreditPaymentReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreditPaymentReceived, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		Reference:       s.Reference,
		SessionID:       payment.SessionID,
		CustomerID:      s.CustomerID,
		Method:          payment.Method,
		Amount:          payment.Amount,
		AmountDue:       s.AmountDue,
		Status:          s.Status,
	}
}

// SaleCancelledEvent is raised when a sale is voided
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	SaleID    uuid.UUID       `json:"sale_id"`
	Reference string          `json:"reference"`
	SessionID uuid.UUID       `json:"session_id"`
	Total     decimal.Decimal `json:"total"`
	Reason    string          `json:"reason"`
}

// NewSaleCancelledEvent creates a new SaleCancelledEvent
func NewSaleCancelledEvent(s *Sale) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		Reference:       s.Reference,
		SessionID:       s.SessionID,
		Total:           s.Total,
		Reason:          s.CancelReason,
	}
}
