package pos

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle state of a cash register session
type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "OPEN"
	SessionStatusClosed SessionStatus = "CLOSED"
)

// IsValid checks if the status is a valid SessionStatus
func (s SessionStatus) IsValid() bool {
	return s == SessionStatusOpen || s == SessionStatusClosed
}

// String returns the string representation of SessionStatus
func (s SessionStatus) String() string {
	return string(s)
}

// CashRegisterSession is a cashier's open drawer period at a shop.
// Running totals are accumulated while the session is open; a closed
// session is read-only.
type CashRegisterSession struct {
	shared.TenantAggregateRoot
	ShopID            uuid.UUID
	CashierID         uuid.UUID
	Status            SessionStatus
	OpeningAmount     decimal.Decimal
	ClosingAmount     decimal.Decimal
	CountedCash       *decimal.Decimal
	CashDifference    *decimal.Decimal
	Notes             string
	ClosingNotes      string
	SalesCount        int
	TotalSales        decimal.Decimal
	TotalCash         decimal.Decimal
	TotalMobileMoney  decimal.Decimal
	TotalBankCard     decimal.Decimal
	TotalBankTransfer decimal.Decimal
	TotalCredit       decimal.Decimal
	OpenedAt          time.Time
	ClosedAt          *time.Time
}

// OpenSession starts a session with every running total at zero
func OpenSession(tenantID, shopID, cashierID uuid.UUID, openingAmount decimal.Decimal, notes string) (*CashRegisterSession, error) {
	if shopID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHOP", "Shop ID cannot be empty")
	}
	if cashierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CASHIER", "Cashier ID cannot be empty")
	}
	if openingAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Opening amount cannot be negative")
	}
	if len(notes) > 500 {
		return nil, shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 500 characters")
	}

	session := &CashRegisterSession{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ShopID:              shopID,
		CashierID:           cashierID,
		Status:              SessionStatusOpen,
		OpeningAmount:       valueobject.RoundAmount(openingAmount),
		ClosingAmount:       decimal.Zero,
		Notes:               notes,
		TotalSales:          decimal.Zero,
		TotalCash:           decimal.Zero,
		TotalMobileMoney:    decimal.Zero,
		TotalBankCard:       decimal.Zero,
		TotalBankTransfer:   decimal.Zero,
		TotalCredit:         decimal.Zero,
		OpenedAt:            time.Now(),
	}
	session.AddDomainEvent(NewSessionOpenedEvent(session))
	return session, nil
}

// IsOpen reports whether the session accepts sales and payments
func (s *CashRegisterSession) IsOpen() bool {
	return s.Status == SessionStatusOpen
}

// Close ends the session. closing_amount is the sum of the computed totals of
// money actually received; countedCash, when given, yields the drawer difference.
func (s *CashRegisterSession) Close(closingNotes string, countedCash *decimal.Decimal) error {
	if !s.IsOpen() {
		return ErrAlreadyClosed
	}
	if countedCash != nil && countedCash.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Counted cash cannot be negative")
	}

	now := time.Now()
	s.ClosingAmount = s.ComputedClosingAmount()
	s.ClosingNotes = closingNotes
	if countedCash != nil {
		counted := valueobject.RoundAmount(*countedCash)
		diff := counted.Sub(s.ExpectedCash())
		s.CountedCash = &counted
		s.CashDifference = &diff
	}
	s.Status = SessionStatusClosed
	s.ClosedAt = &now
	s.IncrementVersion()

	s.AddDomainEvent(NewSessionClosedEvent(s))
	return nil
}

// ExpectedCash is the cash that should be in the drawer
func (s *CashRegisterSession) ExpectedCash() decimal.Decimal {
	return s.OpeningAmount.Add(s.TotalCash)
}

// ComputedClosingAmount is the opening float plus every tender that moved money.
// Store credit consumption is excluded.
func (s *CashRegisterSession) ComputedClosingAmount() decimal.Decimal {
	return valueobject.Sum(
		s.OpeningAmount,
		s.TotalCash,
		s.TotalMobileMoney,
		s.TotalBankCard,
		s.TotalBankTransfer,
	)
}

// RecordSale counts a new sale against the session
func (s *CashRegisterSession) RecordSale(total decimal.Decimal) error {
	if !s.IsOpen() {
		return ErrNoOpenSession
	}
	s.SalesCount++
	s.TotalSales = s.TotalSales.Add(total)
	s.IncrementVersion()
	return nil
}

// RecordPayment adds a received payment to the matching running total
func (s *CashRegisterSession) RecordPayment(method PaymentMethod, amount decimal.Decimal) error {
	if !s.IsOpen() {
		return ErrNoOpenSession
	}
	if !method.IsValid() {
		return ErrInvalidPaymentMethod
	}
	s.addToMethod(method, amount)
	s.IncrementVersion()
	return nil
}

// ReverseSale removes a cancelled sale and the payments it received in this
// session from the running totals
func (s *CashRegisterSession) ReverseSale(total decimal.Decimal, payments []SalePayment) error {
	if !s.IsOpen() {
		return ErrAlreadyClosed
	}
	s.SalesCount--
	s.TotalSales = s.TotalSales.Sub(total)
	for _, p := range payments {
		if p.SessionID != s.ID {
			continue
		}
		s.addToMethod(p.Method, p.Amount.Neg())
	}
	s.IncrementVersion()
	return nil
}

// TotalFor returns the running total of a payment method
func (s *CashRegisterSession) TotalFor(method PaymentMethod) decimal.Decimal {
	switch method {
	case PaymentMethodCash:
		return s.TotalCash
	case PaymentMethodMobileMoney:
		return s.TotalMobileMoney
	case PaymentMethodBankCard:
		return s.TotalBankCard
	case PaymentMethodBankTransfer:
		return s.TotalBankTransfer
	case PaymentMethodCustomerCredit:
		return s.TotalCredit
	}
	return decimal.Zero
}

func (s *CashRegisterSession) addToMethod(method PaymentMethod, amount decimal.Decimal) {
	switch method {
	case PaymentMethodCash:
		s.TotalCash = s.TotalCash.Add(amount)
	case PaymentMethodMobileMoney:
		s.TotalMobileMoney = s.TotalMobileMoney.Add(amount)
	case PaymentMethodBankCard:
		s.TotalBankCard = s.TotalBankCard.Add(amount)
	case PaymentMethodBankTransfer:
		s.TotalBankTransfer = s.TotalBankTransfer.Add(amount)
	case PaymentMethodCustomerCredit:
		s.TotalCredit = s.TotalCredit.Add(amount)
	}
}
