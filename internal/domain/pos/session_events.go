package pos

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeSession = "CashRegisterSession"

// Event type constants
const (
	EventTypeSessionOpened = "CashRegisterSessionOpened"
	EventTypeSessionClosed = "CashRegisterSessionClosed"
)

// SessionOpenedEvent is raised when a cashier opens a drawer
type SessionOpenedEvent struct {
	shared.BaseDomainEvent
	SessionID     uuid.UUID       `json:"session_id"`
	ShopID        uuid.UUID       `json:"shop_id"`
	CashierID     uuid.UUID       `json:"cashier_id"`
	OpeningAmount decimal.Decimal `json:"opening_amount"`
}

// NewSessionOpenedEvent creates a new SessionOpenedEvent
func NewSessionOpenedEvent(s *CashRegisterSession) *SessionOpenedEvent {
	return &SessionOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionOpened, AggregateTypeSession, s.ID, s.TenantID),
		SessionID:       s.ID,
		ShopID:          s.ShopID,
		CashierID:       s.CashierID,
		OpeningAmount:   s.OpeningAmount,
	}
}

// SessionClosedEvent is raised when a session is closed
type SessionClosedEvent struct {
	shared.BaseDomainEvent
	SessionID      uuid.UUID        `json:"session_id"`
	ShopID         uuid.UUID        `json:"shop_id"`
	CashierID      uuid.UUID        `json:"cashier_id"`
	SalesCount     int              `json:"sales_count"`
	TotalSales     decimal.Decimal  `json:"total_sales"`
	ClosingAmount  decimal.Decimal  `json:"closing_amount"`
	CashDifference *decimal.Decimal `json:"cash_difference,omitempty"`
}

// NewSessionClosedEvent creates a new SessionClosedEvent
func NewSessionClosedEvent(s *CashRegisterSession) *SessionClosedEvent {
	return &SessionClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionClosed, AggregateTypeSession, s.ID, s.TenantID),
		SessionID:       s.ID,
		ShopID:          s.ShopID,
		CashierID:       s.CashierID,
		SalesCount:      s.SalesCount,
		TotalSales:      s.TotalSales,
		ClosingAmount:   s.ClosingAmount,
		CashDifference:  s.CashDifference,
	}
}
