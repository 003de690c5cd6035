package partner

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
)

// Customer is a shop customer that may buy on credit.
// CreditBalance is the store credit figure the point of sale moves: sales left
// unpaid raise it, credit payments and settlements lower it. It is never negative.
type Customer struct {
	shared.TenantAggregateRoot
	Code          string
	Name          string
	Phone         string
	Email         string
	Status        CustomerStatus
	CreditBalance decimal.Decimal
	Notes         string
}

// NewCustomer creates a new active customer with a zero balance
func NewCustomer(tenantID uuid.UUID, code, name string) (*Customer, error) {
	if err := validateCustomerCode(code); err != nil {
		return nil, err
	}
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}

	customer := &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.ToUpper(code),
		Name:                name,
		Status:              CustomerStatusActive,
		CreditBalance:       decimal.Zero,
	}
	customer.AddDomainEvent(NewCustomerCreatedEvent(customer))
	return customer, nil
}

// SetContact sets phone and email
func (c *Customer) SetContact(phone, email string) error {
	if phone != "" && !phonePattern.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	if email != "" && !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	c.Phone = phone
	c.Email = email
	c.Touch()
	return nil
}

// SetNotes sets free-form notes
func (c *Customer) SetNotes(notes string) {
	c.Notes = notes
	c.Touch()
}

// Deactivate marks the customer inactive
func (c *Customer) Deactivate() error {
	if c.Status == CustomerStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Customer is already inactive")
	}
	c.Status = CustomerStatusInactive
	c.IncrementVersion()
	return nil
}

// IsActive returns true if the customer is active
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

// ExtendCredit raises the balance by the amount a sale left unpaid
func (c *Customer) ExtendCredit(amount decimal.Decimal, source CreditSource) (*CreditTransaction, error) {
	return c.apply(CreditTransactionExtended, amount, source)
}

// ConsumeCredit lowers the balance for a sale paid with customer credit
func (c *Customer) ConsumeCredit(amount decimal.Decimal, source CreditSource) (*CreditTransaction, error) {
	amount = valueobject.RoundAmount(amount)
	if c.CreditBalance.LessThan(amount) {
		return nil, shared.NewDomainError("INSUFFICIENT_CREDIT", "Customer credit balance "+
			c.CreditBalance.StringFixed(2)+" is less than "+amount.StringFixed(2))
	}
	return c.apply(CreditTransactionConsumed, amount, source)
}

// SettleCredit lowers the balance by a settlement received for a credit sale.
// The balance bottoms out at zero; the returned entry records what was actually removed.
func (c *Customer) SettleCredit(amount decimal.Decimal, source CreditSource) (*CreditTransaction, error) {
	return c.apply(CreditTransactionSettled, valueobject.MinAmount(amount, c.CreditBalance), source)
}

// RefundCredit puts back credit spent on a sale that was cancelled
func (c *Customer) RefundCredit(amount decimal.Decimal, source CreditSource) (*CreditTransaction, error) {
	return c.apply(CreditTransactionRefunded, amount, source)
}

// WriteOffCredit removes the amount due of a cancelled sale, floored at zero
func (c *Customer) WriteOffCredit(amount decimal.Decimal, source CreditSource) (*CreditTransaction, error) {
	return c.apply(CreditTransactionWrittenOff, valueobject.MinAmount(amount, c.CreditBalance), source)
}

// apply moves the balance and returns the ledger entry. A zero amount is a
// no-op and yields a nil entry.
func (c *Customer) apply(txType CreditTransactionType, amount decimal.Decimal, source CreditSource) (*CreditTransaction, error) {
	amount = valueobject.RoundAmount(amount)
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount cannot be negative")
	}
	if amount.IsZero() {
		return nil, nil
	}

	before := c.CreditBalance
	if txType.IsIncrease() {
		c.CreditBalance = before.Add(amount)
	} else {
		c.CreditBalance = before.Sub(amount)
	}
	c.IncrementVersion()

	entry := newCreditTransaction(c, txType, amount, before, source)
	c.AddDomainEvent(NewCustomerCreditChangedEvent(c, entry))
	return entry, nil
}

var (
	codePattern  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	phonePattern = regexp.MustCompile(`^[+0-9 ()-]{5,30}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func validateCustomerCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Customer code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Customer code cannot exceed 50 characters")
	}
	if !codePattern.MatchString(code) {
		return shared.NewDomainError("INVALID_CODE", "Customer code can only contain letters, numbers, underscores, and hyphens")
	}
	return nil
}

func validateCustomerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	return nil
}
