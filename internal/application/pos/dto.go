package pos

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/shopspring/decimal"
)

// ==================== Session DTOs ====================

// OpenSessionRequest represents a request to open a cash register session
type OpenSessionRequest struct {
	ShopID        uuid.UUID       `json:"shop_id" binding:"required"`
	CashierID     uuid.UUID       `json:"cashier_id"` // Defaults to the authenticated user
	OpeningAmount decimal.Decimal `json:"opening_amount"`
	Notes         string          `json:"notes" binding:"max=500"`
}

// CloseSessionRequest represents a request to close a session
type CloseSessionRequest struct {
	ClosingNotes string           `json:"closing_notes" binding:"max=500"`
	CountedCash  *decimal.Decimal `json:"counted_cash"`
}

// SessionListFilter represents filter options for listing sessions
type SessionListFilter struct {
	ShopID    string `form:"shop_id" binding:"omitempty,uuid"`
	CashierID string `form:"cashier_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=OPEN CLOSED"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SessionResponse represents a cash register session in API responses
type SessionResponse struct {
	ID                uuid.UUID        `json:"id"`
	TenantID          uuid.UUID        `json:"tenant_id"`
	ShopID            uuid.UUID        `json:"shop_id"`
	CashierID         uuid.UUID        `json:"cashier_id"`
	Status            string           `json:"status"`
	OpeningAmount     decimal.Decimal  `json:"opening_amount"`
	ClosingAmount     decimal.Decimal  `json:"closing_amount"`
	CountedCash       *decimal.Decimal `json:"counted_cash,omitempty"`
	CashDifference    *decimal.Decimal `json:"cash_difference,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	ClosingNotes      string           `json:"closing_notes,omitempty"`
	SalesCount        int              `json:"sales_count"`
	TotalSales        decimal.Decimal  `json:"total_sales"`
	TotalCash         decimal.Decimal  `json:"total_cash"`
	TotalMobileMoney  decimal.Decimal  `json:"total_mobile_money"`
	TotalBankCard     decimal.Decimal  `json:"total_bank_card"`
	TotalBankTransfer decimal.Decimal  `json:"total_bank_transfer"`
	TotalCredit       decimal.Decimal  `json:"total_credit"`
	OpenedAt          time.Time        `json:"opened_at"`
	ClosedAt          *time.Time       `json:"closed_at,omitempty"`
	Version           int              `json:"version"`
}

// MethodTotal is the amount received with one payment method
type MethodTotal struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// SessionSummaryResponse is the reconciliation view of a session
type SessionSummaryResponse struct {
	Session      SessionResponse `json:"session"`
	Payments     []MethodTotal   `json:"payments"`
	MoneyTotal   decimal.Decimal `json:"money_total"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
	SalesCount   int             `json:"sales_count"`
}

// ToSessionResponse converts a domain session to SessionResponse
func ToSessionResponse(s *pos.CashRegisterSession) SessionResponse {
	return SessionResponse{
		ID:                s.ID,
		TenantID:          s.TenantID,
		ShopID:            s.ShopID,
		CashierID:         s.CashierID,
		Status:            string(s.Status),
		OpeningAmount:     s.OpeningAmount,
		ClosingAmount:     s.ClosingAmount,
		CountedCash:       s.CountedCash,
		CashDifference:    s.CashDifference,
		Notes:             s.Notes,
		ClosingNotes:      s.ClosingNotes,
		SalesCount:        s.SalesCount,
		TotalSales:        s.TotalSales,
		TotalCash:         s.TotalCash,
		TotalMobileMoney:  s.TotalMobileMoney,
		TotalBankCard:     s.TotalBankCard,
		TotalBankTransfer: s.TotalBankTransfer,
		TotalCredit:       s.TotalCredit,
		OpenedAt:          s.OpenedAt,
		ClosedAt:          s.ClosedAt,
		Version:           s.Version,
	}
}

// ToSessionResponses converts a slice of sessions
func ToSessionResponses(sessions []pos.CashRegisterSession) []SessionResponse {
	out := make([]SessionResponse, len(sessions))
	for i := range sessions {
		out[i] = ToSessionResponse(&sessions[i])
	}
	return out
}

// ==================== Sale DTOs ====================

// SaleItemInput is one requested line
type SaleItemInput struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	PromotionID *uuid.UUID      `json:"promotion_id"`
}

// PaymentRequest is one requested tender
type PaymentRequest struct {
	Method    string          `json:"method" binding:"required,oneof=CASH MOBILE_MONEY BANK_CARD BANK_TRANSFER CUSTOMER_CREDIT"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" binding:"max=100"`
}

// CreateSaleRequest represents a request to ring up a sale
type CreateSaleRequest struct {
	SessionID    uuid.UUID        `json:"session_id" binding:"required"`
	CustomerID   *uuid.UUID       `json:"customer_id"`
	Items        []SaleItemInput  `json:"items" binding:"required,min=1,dive"`
	Payments     []PaymentRequest `json:"payments" binding:"dive"`
	AmountGiven  *decimal.Decimal `json:"amount_given"`
	ChangeAction string           `json:"change_action" binding:"omitempty,oneof=RETURN KEEP ROUND"`
	Notes        string           `json:"notes" binding:"max=1000"`
	ClientRef    string           `json:"client_ref" binding:"max=100"`
}

// CreditPaymentRequest represents a settlement of an amount due
type CreditPaymentRequest struct {
	SessionID uuid.UUID       `json:"session_id" binding:"required"`
	Method    string          `json:"method" binding:"required,oneof=CASH MOBILE_MONEY BANK_CARD BANK_TRANSFER CUSTOMER_CREDIT"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference" binding:"max=100"`
}

// CancelSaleRequest represents a request to void a sale
type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// SaleListFilter represents filter options for listing sales
type SaleListFilter struct {
	SessionID  string `form:"session_id" binding:"omitempty,uuid"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=COMPLETED PARTIALLY_PAID UNPAID CANCELLED"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SaleItemResponse represents a sale line in API responses
type SaleItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	PromotionID *uuid.UUID      `json:"promotion_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SalePaymentResponse represents a payment in API responses
type SalePaymentResponse struct {
	ID        uuid.UUID       `json:"id"`
	SessionID uuid.UUID       `json:"session_id"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
	PaidAt    time.Time       `json:"paid_at"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID                uuid.UUID             `json:"id"`
	TenantID          uuid.UUID             `json:"tenant_id"`
	Reference         string                `json:"reference"`
	Status            string                `json:"status"`
	SessionID         uuid.UUID             `json:"session_id"`
	ShopID            uuid.UUID             `json:"shop_id"`
	CashierID         uuid.UUID             `json:"cashier_id"`
	CustomerID        *uuid.UUID            `json:"customer_id,omitempty"`
	Subtotal          decimal.Decimal       `json:"subtotal"`
	DiscountTotal     decimal.Decimal       `json:"discount_total"`
	Total             decimal.Decimal       `json:"total"`
	AmountPaid        decimal.Decimal       `json:"amount_paid"`
	AmountDue         decimal.Decimal       `json:"amount_due"`
	AmountGiven       *decimal.Decimal      `json:"amount_given,omitempty"`
	ChangeGiven       decimal.Decimal       `json:"change_given"`
	ChangeResidue     decimal.Decimal       `json:"change_residue"`
	ChangeAction      string                `json:"change_action"`
	VerificationToken string                `json:"verification_token"`
	ClientRef         string                `json:"client_ref,omitempty"`
	Notes             string                `json:"notes,omitempty"`
	Items             []SaleItemResponse    `json:"items"`
	Payments          []SalePaymentResponse `json:"payments"`
	CreatedAt         time.Time             `json:"created_at"`
	CancelledAt       *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason      string                `json:"cancel_reason,omitempty"`
	Version           int                   `json:"version"`
	Replayed          bool                  `json:"replayed,omitempty"` // Returned for a repeated client_ref
}

// SaleListResponse is the compact form used in lists
type SaleListResponse struct {
	ID         uuid.UUID       `json:"id"`
	Reference  string          `json:"reference"`
	Status     string          `json:"status"`
	SessionID  uuid.UUID       `json:"session_id"`
	CustomerID *uuid.UUID      `json:"customer_id,omitempty"`
	Total      decimal.Decimal `json:"total"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	AmountDue  decimal.Decimal `json:"amount_due"`
	ItemCount  int             `json:"item_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

// VerifiedItem is a line as shown to anyone holding the receipt token
type VerifiedItem struct {
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleVerificationResponse is the public projection of a sale
type SaleVerificationResponse struct {
	Reference     string          `json:"reference"`
	Status        string          `json:"status"`
	ShopID        uuid.UUID       `json:"shop_id"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	Total         decimal.Decimal `json:"total"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	Items         []VerifiedItem  `json:"items"`
	SoldAt        time.Time       `json:"sold_at"`
}

// ToSaleResponse converts a domain sale to SaleResponse
func ToSaleResponse(s *pos.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = SaleItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			PromotionID: item.PromotionID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			Subtotal:    item.Subtotal,
		}
	}
	payments := make([]SalePaymentResponse, len(s.Payments))
	for i, p := range s.Payments {
		payments[i] = SalePaymentResponse{
			ID:        p.ID,
			SessionID: p.SessionID,
			Method:    string(p.Method),
			Amount:    p.Amount,
			Reference: p.Reference,
			PaidAt:    p.PaidAt,
		}
	}
	return SaleResponse{
		ID:                s.ID,
		TenantID:          s.TenantID,
		Reference:         s.Reference,
		Status:            string(s.Status),
		SessionID:         s.SessionID,
		ShopID:            s.ShopID,
		CashierID:         s.CashierID,
		CustomerID:        s.CustomerID,
		Subtotal:          s.Subtotal,
		DiscountTotal:     s.DiscountTotal,
		Total:             s.Total,
		AmountPaid:        s.AmountPaid,
		AmountDue:         s.AmountDue,
		AmountGiven:       s.AmountGiven,
		ChangeGiven:       s.ChangeGiven,
		ChangeResidue:     s.ChangeResidue,
		ChangeAction:      string(s.ChangeAction),
		VerificationToken: s.VerificationToken,
		ClientRef:         s.ClientRef,
		Notes:             s.Notes,
		Items:             items,
		Payments:          payments,
		CreatedAt:         s.CreatedAt,
		CancelledAt:       s.CancelledAt,
		CancelReason:      s.CancelReason,
		Version:           s.Version,
	}
}

// ToSaleListResponses converts sales to their list form
func ToSaleListResponses(sales []pos.Sale) []SaleListResponse {
	out := make([]SaleListResponse, len(sales))
	for i, s := range sales {
		out[i] = SaleListResponse{
			ID:         s.ID,
			Reference:  s.Reference,
			Status:     string(s.Status),
			SessionID:  s.SessionID,
			CustomerID: s.CustomerID,
			Total:      s.Total,
			AmountPaid: s.AmountPaid,
			AmountDue:  s.AmountDue,
			ItemCount:  len(s.Items),
			CreatedAt:  s.CreatedAt,
		}
	}
	return out
}

// ToSaleVerificationResponse builds the public projection
func ToSaleVerificationResponse(s *pos.Sale) SaleVerificationResponse {
	items := make([]VerifiedItem, len(s.Items))
	for i, item := range s.Items {
		items[i] = VerifiedItem{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			Subtotal:    item.Subtotal,
		}
	}
	return SaleVerificationResponse{
		Reference:     s.Reference,
		Status:        string(s.Status),
		ShopID:        s.ShopID,
		Subtotal:      s.Subtotal,
		DiscountTotal: s.DiscountTotal,
		Total:         s.Total,
		AmountPaid:    s.AmountPaid,
		AmountDue:     s.AmountDue,
		Items:         items,
		SoldAt:        s.CreatedAt,
	}
}

// ==================== Promotion DTOs ====================

// CreatePromotionRequest represents a request to create a promotion
type CreatePromotionRequest struct {
	Name       string          `json:"name" binding:"required,min=1,max=200"`
	Type       string          `json:"type" binding:"required,oneof=PERCENTAGE FIXED_AMOUNT"`
	Value      decimal.Decimal `json:"value" binding:"required"`
	StartsAt   time.Time       `json:"starts_at" binding:"required"`
	EndsAt     time.Time       `json:"ends_at" binding:"required"`
	ShopID     *uuid.UUID      `json:"shop_id"`
	ProductIDs []uuid.UUID     `json:"product_ids"`
}

// PromotionListFilter represents filter options for listing promotions
type PromotionListFilter struct {
	ShopID   string `form:"shop_id" binding:"omitempty,uuid"`
	IsActive *bool  `form:"is_active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PromotionResponse represents a promotion in API responses
type PromotionResponse struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Value      decimal.Decimal `json:"value"`
	StartsAt   time.Time       `json:"starts_at"`
	EndsAt     time.Time       `json:"ends_at"`
	IsActive   bool            `json:"is_active"`
	ShopID     *uuid.UUID      `json:"shop_id,omitempty"`
	ProductIDs []uuid.UUID     `json:"product_ids"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ToPromotionResponse converts a domain promotion to PromotionResponse
func ToPromotionResponse(p *pos.Promotion) PromotionResponse {
	productIDs := p.ProductIDs
	if productIDs == nil {
		productIDs = []uuid.UUID{}
	}
	return PromotionResponse{
		ID:         p.ID,
		TenantID:   p.TenantID,
		Name:       p.Name,
		Type:       string(p.Type),
		Value:      p.Value,
		StartsAt:   p.StartsAt,
		EndsAt:     p.EndsAt,
		IsActive:   p.IsActive,
		ShopID:     p.ShopID,
		ProductIDs: productIDs,
		CreatedAt:  p.CreatedAt,
	}
}

// ToPromotionResponses converts a slice of promotions
func ToPromotionResponses(promotions []pos.Promotion) []PromotionResponse {
	out := make([]PromotionResponse, len(promotions))
	for i := range promotions {
		out[i] = ToPromotionResponse(&promotions[i])
	}
	return out
}

func pageDefaults(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return page, pageSize
}
