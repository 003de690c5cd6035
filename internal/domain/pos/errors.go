package pos

import (
	"fmt"

	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Error codes raised by the point-of-sale core
const (
	CodeAlreadyOpen          = "ALREADY_OPEN"
	CodeAlreadyClosed        = "ALREADY_CLOSED"
	CodeNoOpenSession        = "NO_OPEN_SESSION"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeInvalidPromotion     = "INVALID_PROMOTION"
	CodeInsufficientCredit   = "INSUFFICIENT_CREDIT"
	CodeAlreadySettled       = "ALREADY_SETTLED"
	CodeSaleCancelled        = "SALE_CANCELLED"
	CodePaymentMismatch      = "PAYMENT_MISMATCH"
	CodeCustomerRequired     = "CUSTOMER_REQUIRED"
	CodeInvalidPaymentMethod = "INVALID_PAYMENT_METHOD"
	CodeRequestInProgress    = "REQUEST_IN_PROGRESS"
)

var (
	ErrAlreadyOpen          = shared.NewDomainError(CodeAlreadyOpen, "Cashier already has an open cash register session")
	ErrAlreadyClosed        = shared.NewDomainError(CodeAlreadyClosed, "Cash register session is already closed")
	ErrNoOpenSession        = shared.NewDomainError(CodeNoOpenSession, "No open cash register session")
	ErrInsufficientStock    = shared.NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInvalidPromotion     = shared.NewDomainError(CodeInvalidPromotion, "Promotion is not applicable")
	ErrInsufficientCredit   = shared.NewDomainError(CodeInsufficientCredit, "Customer credit balance is insufficient")
	ErrAlreadySettled       = shared.NewDomainError(CodeAlreadySettled, "Sale has no amount due")
	ErrSaleCancelled        = shared.NewDomainError(CodeSaleCancelled, "Sale is cancelled")
	ErrPaymentMismatch      = shared.NewDomainError(CodePaymentMismatch, "Payments do not match the sale")
	ErrCustomerRequired     = shared.NewDomainError(CodeCustomerRequired, "A customer is required for a sale with nothing paid")
	ErrInvalidPaymentMethod = shared.NewDomainError(CodeInvalidPaymentMethod, "Payment method is not allowed here")
	ErrRequestInProgress    = shared.NewDomainError(CodeRequestInProgress, "An identical request is still being processed")
)

// NewInsufficientStockError names the product and the missing quantity
func NewInsufficientStockError(productCode string, requested, available decimal.Decimal) *shared.DomainError {
	shortfall := requested.Sub(available)
	return shared.NewDomainError(CodeInsufficientStock,
		fmt.Sprintf("Insufficient stock for product %s: requested %s, available %s, short by %s",
			productCode, requested.String(), available.String(), shortfall.String()))
}

// NewInvalidPromotionError explains why a promotion was rejected
func NewInvalidPromotionError(promotionName, reason string) *shared.DomainError {
	return shared.NewDomainError(CodeInvalidPromotion,
		fmt.Sprintf("Promotion %q cannot be applied: %s", promotionName, reason))
}

// NewInsufficientCreditError reports the available and required credit
func NewInsufficientCreditError(available, required decimal.Decimal) *shared.DomainError {
	return shared.NewDomainError(CodeInsufficientCredit,
		fmt.Sprintf("Customer credit balance %s is less than %s", available.StringFixed(2), required.StringFixed(2)))
}

// NewPaymentMismatchError wraps a payment validation failure
func NewPaymentMismatchError(detail string) *shared.DomainError {
	return shared.NewDomainError(CodePaymentMismatch, detail)
}
