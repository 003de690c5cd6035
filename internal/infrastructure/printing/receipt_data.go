package printing

import (
	"time"

	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/shopspring/decimal"
)

// ReceiptData is the view of a sale bound to the receipt template
type ReceiptData struct {
	StoreName         string
	Reference         string
	Status            string
	Cancelled         bool
	CancelReason      string
	CashierID         string
	CustomerID        string
	TransactedAt      time.Time
	Items             []ReceiptItemData
	Subtotal          decimal.Decimal
	DiscountTotal     decimal.Decimal
	Total             decimal.Decimal
	Payments          []ReceiptPaymentData
	AmountPaid        decimal.Decimal
	AmountDue         decimal.Decimal
	AmountGiven       *decimal.Decimal
	ChangeGiven       decimal.Decimal
	ChangeAction      string
	Notes             string
	VerificationToken string
	VerifyURL         string
}

// ReceiptItemData is one line of the receipt
type ReceiptItemData struct {
	Index       int
	ProductCode string
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Subtotal    decimal.Decimal
}

// ReceiptPaymentData is one tender on the receipt
type ReceiptPaymentData struct {
	Method    string
	Amount    decimal.Decimal
	Reference string
}

// NewReceiptData maps a sale onto the template view
func NewReceiptData(sale *pos.Sale, storeName, verifyBaseURL string) *ReceiptData {
	data := &ReceiptData{
		StoreName:         storeName,
		Reference:         sale.Reference,
		Status:            string(sale.Status),
		Cancelled:         sale.Status == pos.SaleStatusCancelled,
		CancelReason:      sale.CancelReason,
		CashierID:         shortID(sale.CashierID.String()),
		TransactedAt:      sale.CreatedAt,
		Subtotal:          sale.Subtotal,
		DiscountTotal:     sale.DiscountTotal,
		Total:             sale.Total,
		AmountPaid:        sale.AmountPaid,
		AmountDue:         sale.AmountDue,
		AmountGiven:       sale.AmountGiven,
		ChangeGiven:       sale.ChangeGiven,
		ChangeAction:      string(sale.ChangeAction),
		Notes:             sale.Notes,
		VerificationToken: sale.VerificationToken,
	}
	if sale.CustomerID != nil {
		data.CustomerID = shortID(sale.CustomerID.String())
	}
	if verifyBaseURL != "" && sale.VerificationToken != "" {
		data.VerifyURL = verifyBaseURL + sale.VerificationToken
	}

	for i, item := range sale.Items {
		data.Items = append(data.Items, ReceiptItemData{
			Index:       i + 1,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			Subtotal:    item.Subtotal,
		})
	}
	for _, p := range sale.Payments {
		data.Payments = append(data.Payments, ReceiptPaymentData{
			Method:    string(p.Method),
			Amount:    p.Amount,
			Reference: p.Reference,
		})
	}
	return data
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
