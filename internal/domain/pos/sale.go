package pos

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the payment state of a sale
type SaleStatus string

const (
	SaleStatusCompleted     SaleStatus = "COMPLETED"
	SaleStatusPartiallyPaid SaleStatus = "PARTIALLY_PAID"
	SaleStatusUnpaid        SaleStatus = "UNPAID"
	SaleStatusCancelled     SaleStatus = "CANCELLED"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusCompleted, SaleStatusPartiallyPaid, SaleStatusUnpaid, SaleStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// ChangeAction decides what happens to cash handed over beyond the cash payment
type ChangeAction string

const (
	// ChangeActionReturn gives all of it back to the customer
	ChangeActionReturn ChangeAction = "RETURN"
	// ChangeActionKeep leaves all of it with the shop
	ChangeActionKeep ChangeAction = "KEEP"
	// ChangeActionRound gives back the part payable in the smallest cash unit and keeps the rest
	ChangeActionRound ChangeAction = "ROUND"
)

// IsValid checks if the action is a valid ChangeAction
func (a ChangeAction) IsValid() bool {
	switch a {
	case ChangeActionReturn, ChangeActionKeep, ChangeActionRound:
		return true
	}
	return false
}

// SaleItem is one immutable line of a sale
type SaleItem struct {
	ID          uuid.UUID
	SaleID      uuid.UUID
	ProductID   uuid.UUID
	ProductCode string
	ProductName string
	PromotionID *uuid.UUID
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Subtotal    decimal.Decimal // Quantity * UnitPrice - Discount
}

// Gross returns the line amount before discount
func (i SaleItem) Gross() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// RoundedGross is the line amount at currency precision
func (i SaleItem) RoundedGross() decimal.Decimal {
	return valueobject.RoundAmount(i.Gross())
}

// SaleLine is a line whose price and promotion have already been resolved
type SaleLine struct {
	ProductID   uuid.UUID
	ProductCode string
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Promotion   *Promotion
}

// SaleDraft collects everything needed to ring up a sale
type SaleDraft struct {
	TenantID           uuid.UUID
	SessionID          uuid.UUID
	ShopID             uuid.UUID
	CashierID          uuid.UUID
	CustomerID         *uuid.UUID
	Reference          string
	Lines              []SaleLine
	Payments           []PaymentInput
	AmountGiven        *decimal.Decimal
	ChangeAction       ChangeAction
	ChangeRoundingUnit decimal.Decimal
	Notes              string
	ClientRef          string
}

// Sale is one point-of-sale transaction.
// total = subtotal - discount_total and amount_due = max(total - amount_paid, 0)
// hold after every mutation.
type Sale struct {
	shared.TenantAggregateRoot
	Reference         string
	Status            SaleStatus
	SessionID         uuid.UUID
	ShopID            uuid.UUID
	CashierID         uuid.UUID
	CustomerID        *uuid.UUID
	Subtotal          decimal.Decimal
	DiscountTotal     decimal.Decimal
	Total             decimal.Decimal
	AmountPaid        decimal.Decimal
	AmountDue         decimal.Decimal
	AmountGiven       *decimal.Decimal
	ChangeGiven       decimal.Decimal
	ChangeResidue     decimal.Decimal
	ChangeAction      ChangeAction
	VerificationToken string
	ClientRef         string
	Notes             string
	Items             []SaleItem
	Payments          []SalePayment
	CancelledAt       *time.Time
	CancelReason      string
}

// NewSale prices the lines, applies the payments and resolves the status and change
func NewSale(d SaleDraft) (*Sale, error) {
	if d.SessionID == uuid.Nil {
		return nil, ErrNoOpenSession
	}
	if d.Reference == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Sale reference cannot be empty")
	}
	if len(d.Lines) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Sale must have at least one item")
	}
	if len(d.Notes) > 1000 {
		return nil, shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 1000 characters")
	}

	action := d.ChangeAction
	if action == "" {
		action = ChangeActionReturn
	}
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANGE_ACTION", "Unknown change action: "+string(action))
	}

	sale := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(d.TenantID),
		Reference:           d.Reference,
		SessionID:           d.SessionID,
		ShopID:              d.ShopID,
		CashierID:           d.CashierID,
		CustomerID:          d.CustomerID,
		ChangeAction:        action,
		VerificationToken:   uuid.NewString(),
		ClientRef:           d.ClientRef,
		Notes:               d.Notes,
		ChangeGiven:         decimal.Zero,
		ChangeResidue:       decimal.Zero,
	}
	sale.SetCreatedBy(d.CashierID)

	for _, line := range d.Lines {
		item, err := newSaleItem(sale.ID, line)
		if err != nil {
			return nil, err
		}
		sale.Items = append(sale.Items, item)
	}

	paidAt := time.Now()
	for _, in := range d.Payments {
		if err := in.Validate(); err != nil {
			return nil, err
		}
		if in.Amount.IsZero() {
			continue
		}
		sale.Payments = append(sale.Payments, newSalePayment(sale.ID, d.SessionID, in, paidAt))
	}

	sale.recalculateTotals()

	if sale.AmountPaid.GreaterThan(sale.Total) {
		return nil, NewPaymentMismatchError("Payments exceed the sale total; report the cash handed over as amount_given")
	}
	// A partly paid sale may stay anonymous; its balance is only booked as
	// credit when a customer is attached
	if sale.Status == SaleStatusUnpaid && sale.CustomerID == nil {
		return nil, ErrCustomerRequired
	}
	if sale.PaidWith(PaymentMethodCustomerCredit).IsPositive() && sale.CustomerID == nil {
		return nil, ErrCustomerRequired
	}

	if d.AmountGiven != nil {
		given, residue, err := ComputeChange(*d.AmountGiven, sale.PaidWith(PaymentMethodCash), action, d.ChangeRoundingUnit)
		if err != nil {
			return nil, err
		}
		amountGiven := valueobject.RoundAmount(*d.AmountGiven)
		sale.AmountGiven = &amountGiven
		sale.ChangeGiven = given
		sale.ChangeResidue = residue
	}

	sale.AddDomainEvent(NewSaleCreatedEvent(sale))
	return sale, nil
}

func newSaleItem(saleID uuid.UUID, line SaleLine) (SaleItem, error) {
	if line.ProductID == uuid.Nil {
		return SaleItem{}, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !line.Quantity.IsPositive() {
		return SaleItem{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if line.UnitPrice.IsNegative() {
		return SaleItem{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	item := SaleItem{
		ID:          uuid.New(),
		SaleID:      saleID,
		ProductID:   line.ProductID,
		ProductCode: line.ProductCode,
		ProductName: line.ProductName,
		Quantity:    line.Quantity,
		UnitPrice:   line.UnitPrice,
		Discount:    decimal.Zero,
	}
	if line.Promotion != nil {
		promotionID := line.Promotion.ID
		item.PromotionID = &promotionID
		item.Discount = valueobject.MinAmount(line.Promotion.LineDiscount(line.UnitPrice, line.Quantity), item.RoundedGross())
	}
	item.Subtotal = item.RoundedGross().Sub(item.Discount)
	return item, nil
}

// ComputeChange splits the cash handed over beyond the cash payment into the
// part returned to the customer and the part kept by the shop.
// The two parts always add up to amountGiven - cashTendered.
func ComputeChange(amountGiven, cashTendered decimal.Decimal, action ChangeAction, roundingUnit decimal.Decimal) (given, residue decimal.Decimal, err error) {
	if !cashTendered.IsPositive() {
		return decimal.Zero, decimal.Zero, NewPaymentMismatchError("amount_given requires a cash payment")
	}
	if amountGiven.LessThan(cashTendered) {
		return decimal.Zero, decimal.Zero, NewPaymentMismatchError("amount_given is less than the cash payment")
	}

	change := valueobject.RoundAmount(amountGiven.Sub(cashTendered))
	switch action {
	case ChangeActionKeep:
		return decimal.Zero, change, nil
	case ChangeActionRound:
		given = valueobject.FloorToUnit(change, roundingUnit)
		return given, change.Sub(given), nil
	default:
		return change, decimal.Zero, nil
	}
}

// recalculateTotals derives every computed amount and the status from items and payments
func (s *Sale) recalculateTotals() {
	subtotal := decimal.Zero
	discount := decimal.Zero
	// Sums of rounded line amounts, so the lines always add up to the sale
	for _, item := range s.Items {
		subtotal = subtotal.Add(item.RoundedGross())
		discount = discount.Add(item.Discount)
	}
	s.Subtotal = subtotal
	s.DiscountTotal = discount
	s.Total = valueobject.NonNegative(s.Subtotal.Sub(s.DiscountTotal))

	paid := decimal.Zero
	for _, p := range s.Payments {
		paid = paid.Add(p.Amount)
	}
	s.AmountPaid = paid
	s.AmountDue = valueobject.NonNegative(s.Total.Sub(s.AmountPaid))

	if s.Status != SaleStatusCancelled {
		s.Status = resolveStatus(s.Total, s.AmountPaid)
	}
}

func resolveStatus(total, paid decimal.Decimal) SaleStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return SaleStatusCompleted
	case paid.IsPositive():
		return SaleStatusPartiallyPaid
	default:
		return SaleStatusUnpaid
	}
}

// ApplyCreditPayment settles part or all of the amount due with a payment
// received in sessionID, which need not be the session the sale was made in
func (s *Sale) ApplyCreditPayment(sessionID uuid.UUID, in PaymentInput) (*SalePayment, error) {
	if s.Status == SaleStatusCancelled {
		return nil, ErrSaleCancelled
	}
	if !s.AmountDue.IsPositive() {
		return nil, ErrAlreadySettled
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Method == PaymentMethodCustomerCredit {
		return nil, shared.NewDomainError(CodeInvalidPaymentMethod, "A credit balance cannot be settled with store credit")
	}
	if !in.Amount.IsPositive() {
		return nil, NewPaymentMismatchError("Payment amount must be positive")
	}
	if in.Amount.GreaterThan(s.AmountDue) {
		return nil, NewPaymentMismatchError("Payment amount " + in.Amount.StringFixed(2) + " exceeds amount due " + s.AmountDue.StringFixed(2))
	}

	payment := newSalePayment(s.ID, sessionID, in, time.Now())
	s.Payments = append(s.Payments, payment)
	s.recalculateTotals()
	s.IncrementVersion()

	s.AddDomainEvent(NewSaleCreditPaymentReceivedEvent(s, payment))
	return &payment, nil
}

// Cancel voids the sale. Amounts are left as they were so that callers can
// reverse their effects.
func (s *Sale) Cancel(reason string) error {
	if s.Status == SaleStatusCancelled {
		return ErrSaleCancelled
	}
	if len(reason) > 500 {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason cannot exceed 500 characters")
	}
	now := time.Now()
	s.Status = SaleStatusCancelled
	s.CancelledAt = &now
	s.CancelReason = reason
	s.IncrementVersion()

	s.AddDomainEvent(NewSaleCancelledEvent(s))
	return nil
}

// IsSettled reports whether nothing is owed on the sale
func (s *Sale) IsSettled() bool {
	return !s.AmountDue.IsPositive()
}

// PaidWith sums the payments made with method
func (s *Sale) PaidWith(method PaymentMethod) decimal.Decimal {
	return SumPayments(s.Payments).Get(method)
}

// PaymentsInSession returns the payments received in a given session
func (s *Sale) PaymentsInSession(sessionID uuid.UUID) []SalePayment {
	var out []SalePayment
	for _, p := range s.Payments {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out
}

// ProductQuantity is the total quantity of one product across the sale's lines
type ProductQuantity struct {
	ProductID   uuid.UUID
	ProductCode string
	Quantity    decimal.Decimal
}

// QuantitiesByProduct aggregates line quantities per product, ordered by product ID
func (s *Sale) QuantitiesByProduct() []ProductQuantity {
	return AggregateQuantities(s.Items)
}

// AggregateQuantities sums item quantities per product. The result is sorted
// by product ID so that stock rows are always locked in the same order.
func AggregateQuantities(items []SaleItem) []ProductQuantity {
	index := make(map[uuid.UUID]int)
	var out []ProductQuantity
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity = out[i].Quantity.Add(item.Quantity)
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, ProductQuantity{
			ProductID:   item.ProductID,
			ProductCode: item.ProductCode,
			Quantity:    item.Quantity,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out
}
