package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditTransactionType is the kind of movement on a customer's credit balance
type CreditTransactionType string

const (
	// CreditTransactionExtended: a sale left an amount due
	CreditTransactionExtended CreditTransactionType = "CREDIT_EXTENDED"
	// CreditTransactionConsumed: customer credit used as a payment method
	CreditTransactionConsumed CreditTransactionType = "CREDIT_CONSUMED"
	// CreditTransactionSettled: money received against an amount due
	CreditTransactionSettled CreditTransactionType = "CREDIT_SETTLED"
	// CreditTransactionRefunded: credit payment returned by a cancelled sale
	CreditTransactionRefunded CreditTransactionType = "CREDIT_REFUNDED"
	// CreditTransactionWrittenOff: amount due dropped by a cancelled sale
	CreditTransactionWrittenOff CreditTransactionType = "CREDIT_WRITTEN_OFF"
)

// IsValid returns true if the transaction type is valid
func (t CreditTransactionType) IsValid() bool {
	switch t {
	case CreditTransactionExtended, CreditTransactionConsumed, CreditTransactionSettled,
		CreditTransactionRefunded, CreditTransactionWrittenOff:
		return true
	}
	return false
}

// IsIncrease returns true if this type raises the balance
func (t CreditTransactionType) IsIncrease() bool {
	return t == CreditTransactionExtended || t == CreditTransactionRefunded
}

// CreditSource identifies the document behind a credit movement
type CreditSource struct {
	SaleID     *uuid.UUID
	Reference  string
	OperatorID *uuid.UUID
}

// CreditTransaction is an immutable ledger row; corrections are new rows
type CreditTransaction struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	CustomerID      uuid.UUID
	Type            CreditTransactionType
	Amount          decimal.Decimal // always positive, direction comes from Type
	BalanceBefore   decimal.Decimal
	BalanceAfter    decimal.Decimal
	SaleID          *uuid.UUID
	Reference       string
	OperatorID      *uuid.UUID
	TransactionDate time.Time
}

func newCreditTransaction(c *Customer, txType CreditTransactionType, amount, before decimal.Decimal, source CreditSource) *CreditTransaction {
	return &CreditTransaction{
		ID:              uuid.New(),
		TenantID:        c.TenantID,
		CustomerID:      c.ID,
		Type:            txType,
		Amount:          amount,
		BalanceBefore:   before,
		BalanceAfter:    c.CreditBalance,
		SaleID:          source.SaleID,
		Reference:       source.Reference,
		OperatorID:      source.OperatorID,
		TransactionDate: time.Now(),
	}
}

// SignedAmount returns the amount with the sign of its effect on the balance
func (t *CreditTransaction) SignedAmount() decimal.Decimal {
	if t.Type.IsIncrease() {
		return t.Amount
	}
	return t.Amount.Neg()
}
