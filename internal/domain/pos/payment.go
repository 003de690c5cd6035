package pos

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentMethod is the tender used for a payment
type PaymentMethod string

const (
	PaymentMethodCash           PaymentMethod = "CASH"
	PaymentMethodMobileMoney    PaymentMethod = "MOBILE_MONEY"
	PaymentMethodBankCard       PaymentMethod = "BANK_CARD"
	PaymentMethodBankTransfer   PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCustomerCredit PaymentMethod = "CUSTOMER_CREDIT"
)

// AllPaymentMethods lists the tenders in display order
var AllPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodMobileMoney,
	PaymentMethodBankCard,
	PaymentMethodBankTransfer,
	PaymentMethodCustomerCredit,
}

// IsValid checks if the method is a known PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodMobileMoney, PaymentMethodBankCard,
		PaymentMethodBankTransfer, PaymentMethodCustomerCredit:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// IsMoneyReceived is false for store credit, which moves no money into the drawer
func (m PaymentMethod) IsMoneyReceived() bool {
	return m != PaymentMethodCustomerCredit
}

// SalePayment is one tender applied to a sale. Payments are append-only.
type SalePayment struct {
	ID        uuid.UUID
	SaleID    uuid.UUID
	SessionID uuid.UUID
	Method    PaymentMethod
	Amount    decimal.Decimal
	Reference string
	PaidAt    time.Time
}

// PaymentInput is a requested tender before it is attached to a sale
type PaymentInput struct {
	Method    PaymentMethod
	Amount    decimal.Decimal
	Reference string
}

// Validate checks the method and amount of a requested tender
func (p PaymentInput) Validate() error {
	if !p.Method.IsValid() {
		return shared.NewDomainError(CodeInvalidPaymentMethod, "Unknown payment method: "+string(p.Method))
	}
	if p.Amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot be negative")
	}
	return nil
}

func newSalePayment(saleID, sessionID uuid.UUID, in PaymentInput, paidAt time.Time) SalePayment {
	return SalePayment{
		ID:        uuid.New(),
		SaleID:    saleID,
		SessionID: sessionID,
		Method:    in.Method,
		Amount:    valueobject.RoundAmount(in.Amount),
		Reference: in.Reference,
		PaidAt:    paidAt,
	}
}

// PaymentTotals sums amounts per method
type PaymentTotals map[PaymentMethod]decimal.Decimal

// SumPayments groups payment amounts by method
func SumPayments(payments []SalePayment) PaymentTotals {
	totals := make(PaymentTotals)
	for _, p := range payments {
		totals[p.Method] = totals.Get(p.Method).Add(p.Amount)
	}
	return totals
}

// Get returns the total for a method, zero when absent
func (t PaymentTotals) Get(m PaymentMethod) decimal.Decimal {
	if v, ok := t[m]; ok {
		return v
	}
	return decimal.Zero
}

// Total returns the sum over all methods
func (t PaymentTotals) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range t {
		total = total.Add(v)
	}
	return total
}
