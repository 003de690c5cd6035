package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Customer DTOs
// =============================================================================

// CreateCustomerRequest represents a request to create a new customer
type CreateCustomerRequest struct {
	Code  string `json:"code" binding:"required,min=1,max=50"`
	Name  string `json:"name" binding:"required,min=1,max=200"`
	Phone string `json:"phone" binding:"max=30"`
	Email string `json:"email" binding:"omitempty,email,max=200"`
	Notes string `json:"notes" binding:"max=1000"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone,omitempty"`
	Email         string          `json:"email,omitempty"`
	Status        string          `json:"status"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// CustomerListFilter represents filter options for customer list
type CustomerListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=code name credit_balance created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CreditTransactionResponse represents one credit ledger row
type CreditTransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	SignedAmount    decimal.Decimal `json:"signed_amount"`
	BalanceBefore   decimal.Decimal `json:"balance_before"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	SaleID          *uuid.UUID      `json:"sale_id,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	OperatorID      *uuid.UUID      `json:"operator_id,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// CreditTransactionListFilter represents pagination for the credit ledger
type CreditTransactionListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:            c.ID,
		TenantID:      c.TenantID,
		Code:          c.Code,
		Name:          c.Name,
		Phone:         c.Phone,
		Email:         c.Email,
		Status:        string(c.Status),
		CreditBalance: c.CreditBalance,
		Notes:         c.Notes,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		Version:       c.Version,
	}
}

// ToCustomerResponses converts a slice of domain Customers
func ToCustomerResponses(customers []partner.Customer) []CustomerResponse {
	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = ToCustomerResponse(&customers[i])
	}
	return responses
}

// ToCreditTransactionResponse converts a ledger row
func ToCreditTransactionResponse(t *partner.CreditTransaction) CreditTransactionResponse {
	return CreditTransactionResponse{
		ID:              t.ID,
		CustomerID:      t.CustomerID,
		Type:            string(t.Type),
		Amount:          t.Amount,
		SignedAmount:    t.SignedAmount(),
		BalanceBefore:   t.BalanceBefore,
		BalanceAfter:    t.BalanceAfter,
		SaleID:          t.SaleID,
		Reference:       t.Reference,
		OperatorID:      t.OperatorID,
		TransactionDate: t.TransactionDate,
	}
}

// ToCreditTransactionResponses converts a slice of ledger rows
func ToCreditTransactionResponses(entries []partner.CreditTransaction) []CreditTransactionResponse {
	responses := make([]CreditTransactionResponse, len(entries))
	for i := range entries {
		responses[i] = ToCreditTransactionResponse(&entries[i])
	}
	return responses
}
