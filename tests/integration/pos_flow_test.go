package integration

import (
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	partnerapp "github.com/retailpos/backend/internal/application/partner"
	posapp "github.com/retailpos/backend/internal/application/pos"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/retailpos/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

func TestPOSFlow_CashSaleWithChange(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	h := newPOSHarness(t, NewSharedTestDB(t))
	tenantID := uuid.New()
	c := h.client(tenantID)
	cashierID := uuid.New()

	soap := h.createProduct(t, c, "SOAP", "2.50")
	rice := h.createProduct(t, c, "RICE", "12.00")
	h.receiveStock(t, c, soap.ID, "10", "")
	h.receiveStock(t, c, rice.ID, "3", "2")

	session := h.openSession(t, c, cashierID, "50")
	assert.Equal(t, "OPEN", session.Status)

	resp := c.Do(t, http.MethodPost, "/api/v1/pos/sales", map[string]any{
		"session_id": session.ID,
		"items": []map[string]any{
			{"product_id": soap.ID, "quantity": "2"},
			{"product_id": rice.ID, "quantity": "2"},
		},
		"payments":      []map[string]any{{"method": "CASH", "amount": "29"}},
		"amount_given":  "50",
		"change_action": "RETURN",
	})
	resp.RequireStatus(t, http.StatusCreated)
	sale := testutil.DecodeData[posapp.SaleResponse](t, resp)

	assert.Equal(t, "COMPLETED", sale.Status)
	assert.True(t, dec("29").Equal(sale.Total), "total %s", sale.Total)
	assert.True(t, dec("21").Equal(sale.ChangeGiven), "change %s", sale.ChangeGiven)
	assert.True(t, sale.AmountDue.IsZero())
	assert.NotEmpty(t, sale.VerificationToken)
	assert.True(t, strings.HasPrefix(sale.Reference, "POS"), sale.Reference)
	require.Len(t, sale.Items, 2)

	t.Run("stock is decremented with a movement per product", func(t *testing.T) {
		assert.True(t, dec("8").Equal(h.stockQuantity(t, tenantID, soap.ID)))
		assert.True(t, dec("1").Equal(h.stockQuantity(t, tenantID, rice.ID)))
		assert.Equal(t, int64(2), h.DB.CountRows("stock_movements", "source_id = ?", sale.ID))
	})

	t.Run("events are published and the receipt archived", func(t *testing.T) {
		assert.Len(t, h.Events.OfType(pos.EventTypeSaleCreated), 1)
		// RICE went from 3 to 1, below its minimum of 2
		assert.Len(t, h.Events.OfType(inventory.EventTypeStockBelowMinimum), 1)

		var archived bool
		for _, key := range h.ReceiptStore.Keys() {
			if strings.HasSuffix(key, sale.Reference+".txt") {
				archived = true
			}
		}
		assert.True(t, archived, "receipt for %s not archived: %v", sale.Reference, h.ReceiptStore.Keys())
	})

	t.Run("receipt renders as text", func(t *testing.T) {
		resp := c.Do(t, http.MethodGet, "/api/v1/pos/sales/"+sale.ID.String()+"/receipt", nil)
		resp.RequireStatus(t, http.StatusOK)
		assert.Contains(t, string(resp.Body), sale.Reference)
		assert.Contains(t, string(resp.Body), "Test Shop")
	})

	t.Run("public verification needs no tenant", func(t *testing.T) {
		anonymous := &testutil.APIClient{Handler: h.Engine}
		resp := anonymous.Do(t, http.MethodGet, "/api/v1/public/sales/verify/"+sale.VerificationToken, nil)
		resp.RequireStatus(t, http.StatusOK)
		verified := testutil.DecodeData[posapp.SaleVerificationResponse](t, resp)
		assert.Equal(t, sale.Reference, verified.Reference)
		assert.True(t, sale.Total.Equal(verified.Total))

		resp = anonymous.Do(t, http.MethodGet, "/api/v1/public/sales/verify/"+uuid.NewString(), nil)
		resp.RequireStatus(t, http.StatusNotFound)
	})

	t.Run("session summary and close", func(t *testing.T) {
		resp := c.Do(t, http.MethodGet, "/api/v1/pos/sessions/"+session.ID.String()+"/summary", nil)
		resp.RequireStatus(t, http.StatusOK)
		summary := testutil.DecodeData[posapp.SessionSummaryResponse](t, resp)
		assert.Equal(t, 1, summary.SalesCount)
		assert.True(t, dec("79").Equal(summary.ExpectedCash), "expected cash %s", summary.ExpectedCash)

		resp = c.Do(t, http.MethodPost, "/api/v1/pos/sessions/"+session.ID.String()+"/close", map[string]any{
			"counted_cash": "78",
		})
		resp.RequireStatus(t, http.StatusOK)
		closed := testutil.DecodeData[posapp.SessionResponse](t, resp)
		assert.Equal(t, "CLOSED", closed.Status)
		require.NotNil(t, closed.CashDifference)
		assert.True(t, dec("-1").Equal(*closed.CashDifference))

		resp = c.Do(t, http.MethodPost, "/api/v1/pos/sessions/"+session.ID.String()+"/close", nil)
		resp.RequireStatus(t, http.StatusConflict)
		assert.Equal(t, pos.CodeAlreadyClosed, resp.ErrorCode(t))
	})

	t.Run("a closed session takes no sales", func(t *testing.T) {
		resp := c.Do(t, http.MethodPost, "/api/v1/pos/sales", map[string]any{
			"session_id": session.ID,
			"items":      []map[string]any{{"product_id": soap.ID, "quantity": "1"}},
			"payments":   []map[string]any{{"method": "CASH", "amount": "2.50"}},
		})
		resp.RequireStatus(t, http.StatusUnprocessableEntity)
		assert.Equal(t, pos.CodeNoOpenSession, resp.ErrorCode(t))
	})
}

func TestPOSFlow_SecondOpenSessionRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	h := newPOSHarness(t, NewSharedTestDB(t))
	c := h.client(uuid.New())
	cashierID := uuid.New()

	h.openSession(t, c, cashierID, "0")

	resp := c.Do(t, http.MethodPost, "/api/v1/pos/sessions", map[string]any{
		"shop_id":    uuid.New(),
		"cashier_id": cashierID,
	})
	resp.RequireStatus(t, http.StatusConflict)
	assert.Equal(t, pos.CodeAlreadyOpen, resp.ErrorCode(t))

	resp = c.Do(t, http.MethodGet, "/api/v1/pos/sessions/current?cashier_id="+cashierID.String(), nil)
	resp.RequireStatus(t, http.StatusOK)
}

func TestPOSFlow_CreditSaleAndSettlement(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	h := newPOSHarness(t, NewSharedTestDB(t))
	tenantID := uuid.New()
	c := h.client(tenantID)

	oil := h.createProduct(t, c, "OIL", "20.00")
	h.receiveStock(t, c, oil.ID, "5", "")
	customer := h.createCustomer(t, c, "C001")
	session := h.openSession(t, c, uuid.New(), "0")

	t.Run("an unpaid sale needs a customer", func(t *testing.T) {
		resp := c.Do(t, http.MethodPost, "/api/v1/pos/sales", map[string]any{
			"session_id": session.ID,
			"items":      []map[string]any{{"product_id": oil.ID, "quantity": "1"}},
		})
		resp.RequireStatus(t, http.StatusUnprocessableEntity)
		assert.Equal(t, pos.CodeCustomerRequired, resp.ErrorCode(t))
		assert.True(t, dec("5").Equal(h.stockQuantity(t, tenantID, oil.ID)), "rejected sale must not touch stock")
	})

	resp := c.Do(t, http.MethodPost, "/api/v1/pos/sales", map[string]any{
		"session_id":  session.ID,
		"customer_id": customer.ID,
		"items":       []map[string]any{{"product_id": oil.ID, "quantity": "2"}},
		"payments":    []map[string]any{{"method": "MOBILE_MONEY", "amount": "15", "reference": "MM-77"}},
	})
	resp.RequireStatus(t, http.StatusCreated)
	sale := testutil.DecodeData[posapp.SaleResponse](t, resp)
	assert.Equal(t, "PARTIALLY_PAID", sale.Status)
	assert.True(t, dec("25").Equal(sale.AmountDue), "due %s", sale.AmountDue)

	resp = c.Do(t, http.MethodGet, "/api/v1/customers/"+customer.ID.String(), nil)
	resp.RequireStatus(t, http.StatusOK)
	assert.True(t, dec("25").Equal(testutil.DecodeData[partnerapp.CustomerResponse](t, resp).CreditBalance))

	t.Run("overpaying the amount due is rejected", func(t *testing.T) {
		resp := c.Do(t, http.MethodPost, "/api/v1/pos/sales/"+sale.ID.String()+"/payments", map[string]any{
			"session_id": session.ID,
			"method":     "CASH",
			"amount":     "30",
		})
		resp.RequireStatus(t, http.StatusUnprocessableEntity)
		assert.Equal(t, pos.CodePaymentMismatch, resp.ErrorCode(t))
	})

	resp = c.Do(t, http.MethodPost, "/api/v1/pos/sales/"+sale.ID.String()+"/payments", map[string]any{
		"session_id": session.ID,
		"method":     "CASH",
		"amount":     "25",
	})
	resp.RequireStatus(t, http.StatusOK)
	settled := testutil.DecodeData[posapp.SaleResponse](t, resp)
	assert.Equal(t, "COMPLETED", settled.Status)
	assert.True(t, settled.AmountDue.IsZero())
	assert.Len(t, h.Events.OfType(pos.EventTypeSaleCreditPaymentReceived), 1)

	resp = c.Do(t, http.MethodPost, "/api/v1/pos/sales/"+sale.ID.String()+"/payments", map[string]any{
		"session_id": session.ID,
		"method":     "CASH",
		"amount":     "1",
	})
	resp.RequireStatus(t, http.StatusConflict)
	assert.Equal(t, pos.CodeAlreadySettled, resp.ErrorCode(t))

	resp = c.Do(t, http.MethodGet, "/api/v1/customers/"+customer.ID.String()+"/credit-transactions", nil)
	resp.RequireStatus(t, http.StatusOK)
	entries := testutil.DecodeData[[]partnerapp.CreditTransactionResponse](t, resp)
	assert.Len(t, entries, 2)

	resp = c.Do(t, http.MethodGet, "/api/v1/customers/"+customer.ID.String(), nil)
	assert.True(t, testutil.DecodeData[partnerapp.CustomerResponse](t, resp).CreditBalance.IsZero())
}

func TestPOSFlow_CancelRestoresStock(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	h := newPOSHarness(t, NewSharedTestDB(t))
	tenantID := uuid.New()
	c := h.client(tenantID)

	milk := h.createProduct(t, c, "MILK", "1.20")
	h.receiveStock(t, c, milk.ID, "10", "")
	session := h.openSession(t, c, uuid.New(), "0")

	resp := c.Do(t, http.MethodPost, "/api/v1/pos/sales", map[string]any{
		"session_id": session.ID,
		"items":      []map[string]any{{"product_id": milk.ID, "quantity": "4"}},
		"payments":   []map[string]any{{"method": "BANK_CARD", "amount": "4.80"}},
	})
	resp.RequireStatus(t, http.StatusCreated)
	sale := testutil.DecodeData[posapp.SaleResponse](t, resp)
	assert.True(t, dec("6").Equal(h.stockQuantity(t, tenantID, milk.ID)))

	resp = c.Do(t, http.MethodPost, "/api/v1/pos/sales/"+sale.ID.String()+"/cancel", map[string]any{"reason": "wrong item"})
	resp.RequireStatus(t, http.StatusOK)
	assert.Equal(t, "CANCELLED", testutil.DecodeData[posapp.SaleResponse](t, resp).Status)
	assert.True(t, dec("10").Equal(h.stockQuantity(t, tenantID, milk.ID)))

	resp = c.Do(t, http.MethodGet, "/api/v1/pos/sessions/"+session.ID.String(), nil)
	reverted := testutil.DecodeData[posapp.SessionResponse](t, resp)
	assert.Zero(t, reverted.SalesCount)
	assert.True(t, reverted.TotalBankCard.IsZero())

	resp = c.Do(t, http.MethodPost, "/api/v1/pos/sales/"+sale.ID.String()+"/cancel", nil)
	resp.RequireStatus(t, http.StatusConflict)
	assert.Equal(t, pos.CodeSaleCancelled, resp.ErrorCode(t))
}

func TestPOSFlow_PromotionDiscount(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	h := newPOSHarness(t, NewSharedTestDB(t))
	tenantID := uuid.New()
	c := h.client(tenantID)

	tea := h.createProduct(t, c, "TEA", "10.00")
	coffee := h.createProduct(t, c, "COFFEE", "10.00")
	h.receiveStock(t, c, tea.ID, "10", "")
	h.receiveStock(t, c, coffee.ID, "10", "")
	session := h.openSession(t, c, uuid.New(), "0")

	resp := c.Do(t, http.MethodPost, "/api/v1/pos/promotions", map[string]any{
		"name":        "Tea week",
		"type":        "PERCENTAGE",
		"value":       "10",
		"starts_at":   "2020-01-01T00:00:00Z",
		"ends_at":     "2099-01-01T00:00:00Z",
		"product_ids": []uuid.UUID{tea.ID},
	})
	resp.RequireStatus(t, http.StatusCreated)
	promo := testutil.DecodeData[posapp.PromotionResponse](t, resp)

	resp = c.Do(t, http.MethodPost, "/api/v1/pos/sales", map[string]any{
		"session_id": session.ID,
		"items":      []map[string]any{{"product_id": tea.ID, "quantity": "2", "promotion_id": promo.ID}},
		"payments":   []map[string]any{{"method": "CASH", "amount": "18"}},
	})
	resp.RequireStatus(t, http.StatusCreated)
	sale := testutil.DecodeData[posapp.SaleResponse](t, resp)
	assert.True(t, dec("2").Equal(sale.DiscountTotal), "discount %s", sale.DiscountTotal)
	assert.True(t, dec("18").Equal(sale.Total))

	t.Run("promotion does not cover the product", func(t *testing.T) {
		resp := c.Do(t, http.MethodPost, "/api/v1/pos/sales", map[string]any{
			"session_id": session.ID,
			"items":      []map[string]any{{"product_id": coffee.ID, "quantity": "1", "promotion_id": promo.ID}},
			"payments":   []map[string]any{{"method": "CASH", "amount": "9"}},
		})
		resp.RequireStatus(t, http.StatusUnprocessableEntity)
		assert.Equal(t, pos.CodeInvalidPromotion, resp.ErrorCode(t))
	})

	t.Run("deactivated promotion is rejected", func(t *testing.T) {
		resp := c.Do(t, http.MethodPost, "/api/v1/pos/promotions/"+promo.ID.String()+"/deactivate", nil)
		resp.RequireStatus(t, http.StatusOK)

		resp = c.Do(t, http.MethodPost, "/api/v1/pos/sales", map[string]any{
			"session_id": session.ID,
			"items":      []map[string]any{{"product_id": tea.ID, "quantity": "1", "promotion_id": promo.ID}},
			"payments":   []map[string]any{{"method": "CASH", "amount": "9"}},
		})
		resp.RequireStatus(t, http.StatusUnprocessableEntity)
		assert.Equal(t, pos.CodeInvalidPromotion, resp.ErrorCode(t))
	})
}

func TestPOSFlow_IdempotentSubmission(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	h := newPOSHarness(t, NewSharedTestDB(t))
	tenantID := uuid.New()
	c := h.client(tenantID)

	bread := h.createProduct(t, c, "BREAD", "1.00")
	h.receiveStock(t, c, bread.ID, "10", "")
	session := h.openSession(t, c, uuid.New(), "0")

	body := map[string]any{
		"session_id": session.ID,
		"items":      []map[string]any{{"product_id": bread.ID, "quantity": "3"}},
		"payments":   []map[string]any{{"method": "CASH", "amount": "3"}},
	}

	first := c.Do(t, http.MethodPost, "/api/v1/pos/sales", body, "Idempotency-Key", "till-1-0001")
	first.RequireStatus(t, http.StatusCreated)
	second := c.Do(t, http.MethodPost, "/api/v1/pos/sales", body, "Idempotency-Key", "till-1-0001")
	second.RequireStatus(t, http.StatusOK)

	original := testutil.DecodeData[posapp.SaleResponse](t, first)
	replayed := testutil.DecodeData[posapp.SaleResponse](t, second)
	assert.Equal(t, original.ID, replayed.ID)
	assert.True(t, replayed.Replayed)
	assert.True(t, dec("7").Equal(h.stockQuantity(t, tenantID, bread.ID)), "stock must be taken once")
	assert.Equal(t, int64(1), h.DB.CountRows("pos_sales", "tenant_id = ?", tenantID))
}
