package partner

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeCustomer = "Customer"

	EventTypeCustomerCreated       = "CustomerCreated"
	EventTypeCustomerCreditChanged = "CustomerCreditChanged"
)

// CustomerCreatedEvent is raised when a customer is registered
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
}

// NewCustomerCreatedEvent creates a CustomerCreatedEvent
func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, AggregateTypeCustomer, c.ID, c.TenantID),
		CustomerID:      c.ID,
		Code:            c.Code,
		Name:            c.Name,
	}
}

// CustomerCreditChangedEvent is raised on every credit balance movement
type CustomerCreditChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID      uuid.UUID             `json:"customer_id"`
	TransactionType CreditTransactionType `json:"transaction_type"`
	Amount          decimal.Decimal       `json:"amount"`
	BalanceAfter    decimal.Decimal       `json:"balance_after"`
}

// NewCustomerCreditChangedEvent creates a CustomerCreditChangedEvent
func NewCustomerCreditChangedEvent(c *Customer, tx *CreditTransaction) *CustomerCreditChangedEvent {
	return &CustomerCreditChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreditChanged, AggregateTypeCustomer, c.ID, c.TenantID),
		CustomerID:      c.ID,
		TransactionType: tx.Type,
		Amount:          tx.Amount,
		BalanceAfter:    tx.BalanceAfter,
	}
}
