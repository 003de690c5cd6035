package pos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

type saleFixture struct {
	tenantID  uuid.UUID
	session   *pos.CashRegisterSession
	product   *catalog.Product
	stocks    []inventory.ShopStock
	repos     *testRepos
	svc       *SaleService
	publisher *MockEventPublisher
}

// newSaleFixture sets up an open session and one product priced 1000 with
// the given stock at the session's shop
func newSaleFixture(t *testing.T, stockQty int64) *saleFixture {
	t.Helper()
	tenantID := uuid.New()
	session, err := pos.OpenSession(tenantID, uuid.New(), uuid.New(), dec(100), "")
	require.NoError(t, err)
	product, err := catalog.NewProduct(tenantID, "SOAP-01", "Soap bar", "pcs", dec(1000))
	require.NoError(t, err)
	stock, err := inventory.NewShopStock(tenantID, session.ShopID, product.ID)
	require.NoError(t, err)
	if stockQty > 0 {
		require.NoError(t, stock.Receive(dec(stockQty)))
	}

	repos := newTestRepos()
	svc := NewSaleService(repos.scope(), repos.sales, SaleServiceConfig{})
	publisher := NewMockEventPublisher()
	svc.SetEventPublisher(publisher)

	return &saleFixture{
		tenantID:  tenantID,
		session:   session,
		product:   product,
		stocks:    []inventory.ShopStock{*stock},
		repos:     repos,
		svc:       svc,
		publisher: publisher,
	}
}

// expectLookups wires the locked reads of the create pipeline
func (f *saleFixture) expectLookups() {
	f.repos.sessions.On("FindByIDForUpdate", mock.Anything, f.tenantID, f.session.ID).Return(f.session, nil)
	f.repos.stocks.On("FindForUpdate", mock.Anything, f.tenantID, f.session.ShopID, []uuid.UUID{f.product.ID}).Return(f.stocks, nil)
	f.repos.products.On("FindByIDs", mock.Anything, f.tenantID, []uuid.UUID{f.product.ID}).Return([]catalog.Product{*f.product}, nil)
}

// expectWrites wires every write of a successful create
func (f *saleFixture) expectWrites() {
	f.repos.sales.On("GenerateReference", mock.Anything, f.tenantID, "POS").Return("POS-20261019-00001", nil)
	f.repos.sales.On("Create", mock.Anything, mock.AnythingOfType("*pos.Sale")).Return(nil)
	f.repos.stocks.On("Save", mock.Anything, mock.AnythingOfType("*inventory.ShopStock")).Return(nil)
	f.repos.movements.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.repos.sessions.On("Save", mock.Anything, f.session).Return(nil)
}

func (f *saleFixture) request(qty int64, payments ...PaymentRequest) CreateSaleRequest {
	return CreateSaleRequest{
		SessionID: f.session.ID,
		Items:     []SaleItemInput{{ProductID: f.product.ID, Quantity: dec(qty)}},
		Payments:  payments,
	}
}

func cash(amount int64) PaymentRequest {
	return PaymentRequest{Method: "CASH", Amount: dec(amount)}
}

func TestSaleService_CreateSale_CashSale(t *testing.T) {
	f := newSaleFixture(t, 10)
	f.expectLookups()
	f.expectWrites()

	resp, err := f.svc.CreateSale(context.Background(), f.tenantID, f.request(2, cash(2000)))
	require.NoError(t, err)

	assert.Equal(t, "COMPLETED", resp.Status)
	assert.Equal(t, "POS-20261019-00001", resp.Reference)
	assert.True(t, resp.Total.Equal(dec(2000)))
	assert.True(t, resp.AmountDue.IsZero())
	assert.NotEmpty(t, resp.VerificationToken)
	assert.False(t, resp.Replayed)

	assert.True(t, f.stocks[0].Quantity.Equal(dec(8)), "stock should be decremented, got %s", f.stocks[0].Quantity)
	require.Len(t, f.repos.movements.Calls, 1)
	movements := f.repos.movements.Calls[0].Arguments.Get(1).([]inventory.StockMovement)
	require.Len(t, movements, 1)
	assert.Equal(t, inventory.MovementTypeSale, movements[0].Type)
	assert.True(t, movements[0].Quantity.Equal(dec(-2)))

	assert.Equal(t, 1, f.session.SalesCount)
	assert.True(t, f.session.TotalSales.Equal(dec(2000)))
	assert.True(t, f.session.TotalCash.Equal(dec(2000)))

	assert.Len(t, f.publisher.GetEventsByType(pos.EventTypeSaleCreated), 1)
	f.repos.sales.AssertExpectations(t)
	f.repos.stocks.AssertExpectations(t)
	f.repos.sessions.AssertExpectations(t)
}

func TestSaleService_CreateSale_InsufficientStock(t *testing.T) {
	t.Run("not enough units", func(t *testing.T) {
		f := newSaleFixture(t, 1)
		f.expectLookups()

		_, err := f.svc.CreateSale(context.Background(), f.tenantID, f.request(2, cash(2000)))
		assert.ErrorIs(t, err, pos.ErrInsufficientStock)
		assert.Contains(t, err.Error(), "SOAP-01")
		assert.True(t, f.stocks[0].Quantity.Equal(dec(1)))
		f.repos.sales.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.repos.sessions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("no stock row at the shop", func(t *testing.T) {
		f := newSaleFixture(t, 0)
		f.stocks = []inventory.ShopStock{}
		f.expectLookups()

		_, err := f.svc.CreateSale(context.Background(), f.tenantID, f.request(1, cash(1000)))
		assert.ErrorIs(t, err, pos.ErrInsufficientStock)
	})

	t.Run("quantities of repeated lines are summed", func(t *testing.T) {
		f := newSaleFixture(t, 3)
		f.expectLookups()
		req := f.request(2, cash(4000))
		req.Items = append(req.Items, SaleItemInput{ProductID: f.product.ID, Quantity: dec(2)})

		_, err := f.svc.CreateSale(context.Background(), f.tenantID, req)
		assert.ErrorIs(t, err, pos.ErrInsufficientStock)
	})
}

func TestSaleService_CreateSale_SessionChecks(t *testing.T) {
	t.Run("closed session", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		require.NoError(t, f.session.Close("", nil))
		f.repos.sessions.On("FindByIDForUpdate", mock.Anything, f.tenantID, f.session.ID).Return(f.session, nil)

		_, err := f.svc.CreateSale(context.Background(), f.tenantID, f.request(1, cash(1000)))
		assert.ErrorIs(t, err, pos.ErrNoOpenSession)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		f.repos.sessions.On("FindByIDForUpdate", mock.Anything, f.tenantID, f.session.ID).Return(nil, shared.ErrNotFound)

		_, err := f.svc.CreateSale(context.Background(), f.tenantID, f.request(1, cash(1000)))
		assert.ErrorIs(t, err, pos.ErrNoOpenSession)
	})
}

func TestSaleService_CreateSale_PartialPaymentWithCustomer(t *testing.T) {
	f := newSaleFixture(t, 10)
	f.expectLookups()
	f.expectWrites()
	customer, err := partner.NewCustomer(f.tenantID, "C001", "Amina")
	require.NoError(t, err)
	customer.ClearDomainEvents()
	f.repos.customers.On("FindByIDForUpdate", mock.Anything, f.tenantID, customer.ID).Return(customer, nil)
	f.repos.customers.On("Save", mock.Anything, customer).Return(nil)
	f.repos.credits.On("Create", mock.Anything, mock.Anything).Return(nil)

	req := f.request(1, cash(600))
	req.CustomerID = &customer.ID
	resp, err := f.svc.CreateSale(context.Background(), f.tenantID, req)
	require.NoError(t, err)

	assert.Equal(t, "PARTIALLY_PAID", resp.Status)
	assert.True(t, resp.AmountDue.Equal(dec(400)))
	assert.True(t, customer.CreditBalance.Equal(dec(400)))
	assert.Len(t, f.publisher.GetEventsByType(partner.EventTypeCustomerCreditChanged), 1)
	f.repos.credits.AssertExpectations(t)
}

func TestSaleService_CreateSale_AnonymousPartialPayment(t *testing.T) {
	f := newSaleFixture(t, 10)
	f.expectLookups()
	f.expectWrites()

	resp, err := f.svc.CreateSale(context.Background(), f.tenantID, f.request(1, cash(600)))
	require.NoError(t, err)

	assert.Equal(t, "PARTIALLY_PAID", resp.Status)
	assert.Nil(t, resp.CustomerID)
	assert.True(t, resp.AmountDue.Equal(dec(400)))
	f.repos.customers.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything, mock.Anything)
	f.repos.credits.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSaleService_CreateSale_CustomerCredit(t *testing.T) {
	t.Run("consumes the balance", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		f.expectLookups()
		f.expectWrites()
		customer, err := partner.NewCustomer(f.tenantID, "C002", "Baraka")
		require.NoError(t, err)
		customer.CreditBalance = dec(1500)
		f.repos.customers.On("FindByIDForUpdate", mock.Anything, f.tenantID, customer.ID).Return(customer, nil)
		f.repos.customers.On("Save", mock.Anything, customer).Return(nil)
		f.repos.credits.On("Create", mock.Anything, mock.Anything).Return(nil)

		req := f.request(1, PaymentRequest{Method: "CUSTOMER_CREDIT", Amount: dec(1000)})
		req.CustomerID = &customer.ID
		resp, err := f.svc.CreateSale(context.Background(), f.tenantID, req)
		require.NoError(t, err)

		assert.Equal(t, "COMPLETED", resp.Status)
		assert.True(t, customer.CreditBalance.Equal(dec(500)))
		assert.True(t, f.session.TotalCredit.Equal(dec(1000)))
		assert.True(t, f.session.TotalCash.IsZero())
	})

	t.Run("insufficient balance", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		f.expectLookups()
		f.repos.sales.On("GenerateReference", mock.Anything, f.tenantID, "POS").Return("POS-20261019-00002", nil)
		f.repos.sales.On("Create", mock.Anything, mock.Anything).Return(nil)
		customer, err := partner.NewCustomer(f.tenantID, "C003", "Chausiku")
		require.NoError(t, err)
		f.repos.customers.On("FindByIDForUpdate", mock.Anything, f.tenantID, customer.ID).Return(customer, nil)

		req := f.request(1, PaymentRequest{Method: "CUSTOMER_CREDIT", Amount: dec(1000)})
		req.CustomerID = &customer.ID
		_, err = f.svc.CreateSale(context.Background(), f.tenantID, req)
		assert.ErrorIs(t, err, pos.ErrInsufficientCredit)
		assert.True(t, f.stocks[0].Quantity.Equal(dec(10)))
		f.repos.customers.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestSaleService_CreateSale_Promotions(t *testing.T) {
	now := time.Now()

	t.Run("applies an active promotion", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		f.expectLookups()
		f.expectWrites()
		promotion, err := pos.NewPromotion(f.tenantID, "Ten off", pos.PromotionTypePercentage, dec(10), now.Add(-time.Hour), now.Add(time.Hour), nil, nil)
		require.NoError(t, err)
		f.repos.promotions.On("FindByIDForTenant", mock.Anything, f.tenantID, promotion.ID).Return(promotion, nil)

		req := f.request(2, cash(1800))
		req.Items[0].PromotionID = &promotion.ID
		resp, err := f.svc.CreateSale(context.Background(), f.tenantID, req)
		require.NoError(t, err)
		assert.True(t, resp.DiscountTotal.Equal(dec(200)))
		assert.True(t, resp.Total.Equal(dec(1800)))
		assert.Equal(t, "COMPLETED", resp.Status)
	})

	t.Run("rejects an expired promotion", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		f.expectLookups()
		promotion, err := pos.NewPromotion(f.tenantID, "Last week", pos.PromotionTypeFixedAmount, dec(100), now.Add(-48*time.Hour), now.Add(-24*time.Hour), nil, nil)
		require.NoError(t, err)
		f.repos.promotions.On("FindByIDForTenant", mock.Anything, f.tenantID, promotion.ID).Return(promotion, nil)

		req := f.request(1, cash(900))
		req.Items[0].PromotionID = &promotion.ID
		_, err = f.svc.CreateSale(context.Background(), f.tenantID, req)
		assert.ErrorIs(t, err, pos.ErrInvalidPromotion)
	})

	t.Run("unknown promotion", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		f.expectLookups()
		id := uuid.New()
		f.repos.promotions.On("FindByIDForTenant", mock.Anything, f.tenantID, id).Return(nil, shared.ErrNotFound)

		req := f.request(1, cash(1000))
		req.Items[0].PromotionID = &id
		_, err := f.svc.CreateSale(context.Background(), f.tenantID, req)
		assert.ErrorIs(t, err, pos.ErrInvalidPromotion)
	})
}

func TestSaleService_CreateSale_Idempotency(t *testing.T) {
	t.Run("replays a committed sale", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		existing, err := pos.NewSale(pos.SaleDraft{
			TenantID:  f.tenantID,
			SessionID: f.session.ID,
			ShopID:    f.session.ShopID,
			CashierID: f.session.CashierID,
			Reference: "POS-20261019-00007",
			Lines: []pos.SaleLine{{
				ProductID: f.product.ID, ProductCode: f.product.Code, ProductName: f.product.Name,
				Quantity: dec(1), UnitPrice: dec(1000),
			}},
			Payments:  []pos.PaymentInput{{Method: pos.PaymentMethodCash, Amount: dec(1000)}},
			ClientRef: "till-1-0042",
		})
		require.NoError(t, err)
		f.repos.sales.On("FindByClientRef", mock.Anything, f.tenantID, "till-1-0042").Return(existing, nil)

		req := f.request(1, cash(1000))
		req.ClientRef = "till-1-0042"
		resp, err := f.svc.CreateSale(context.Background(), f.tenantID, req)
		require.NoError(t, err)
		assert.True(t, resp.Replayed)
		assert.Equal(t, existing.ID, resp.ID)
		f.repos.sessions.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("concurrent duplicate is rejected", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		store := new(MockIdempotencyStore)
		f.svc.SetIdempotencyStore(store)
		f.repos.sales.On("FindByClientRef", mock.Anything, f.tenantID, "till-1-0043").Return(nil, shared.ErrNotFound)
		store.On("MarkProcessed", mock.Anything, idempotencyKey(f.tenantID, "till-1-0043"), 30*time.Second).Return(false, nil)

		req := f.request(1, cash(1000))
		req.ClientRef = "till-1-0043"
		_, err := f.svc.CreateSale(context.Background(), f.tenantID, req)
		assert.ErrorIs(t, err, pos.ErrRequestInProgress)
	})

	t.Run("releases the claim when the sale fails", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		store := new(MockIdempotencyStore)
		f.svc.SetIdempotencyStore(store)
		key := idempotencyKey(f.tenantID, "till-1-0044")
		f.repos.sales.On("FindByClientRef", mock.Anything, f.tenantID, "till-1-0044").Return(nil, shared.ErrNotFound)
		store.On("MarkProcessed", mock.Anything, key, 30*time.Second).Return(true, nil)
		store.On("Release", mock.Anything, key).Return(nil)
		f.repos.sessions.On("FindByIDForUpdate", mock.Anything, f.tenantID, f.session.ID).Return(nil, shared.ErrNotFound)

		req := f.request(1, cash(1000))
		req.ClientRef = "till-1-0044"
		_, err := f.svc.CreateSale(context.Background(), f.tenantID, req)
		assert.ErrorIs(t, err, pos.ErrNoOpenSession)
		store.AssertExpectations(t)
	})

	t.Run("claim lives only as long as the configured window", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		f.svc = NewSaleService(f.repos.scope(), f.repos.sales, SaleServiceConfig{ClaimTTL: 5 * time.Second})
		f.expectLookups()
		f.expectWrites()
		store := new(MockIdempotencyStore)
		f.svc.SetIdempotencyStore(store)
		key := idempotencyKey(f.tenantID, "till-1-0045")
		f.repos.sales.On("FindByClientRef", mock.Anything, f.tenantID, "till-1-0045").Return(nil, shared.ErrNotFound)
		store.On("MarkProcessed", mock.Anything, key, 5*time.Second).Return(true, nil)

		req := f.request(1, cash(1000))
		req.ClientRef = "till-1-0045"
		_, err := f.svc.CreateSale(context.Background(), f.tenantID, req)
		require.NoError(t, err)
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	})
}

func TestDefaultSaleServiceConfig_ShortClaim(t *testing.T) {
	cfg := DefaultSaleServiceConfig()
	assert.Equal(t, 30*time.Second, cfg.ClaimTTL)
	assert.Less(t, cfg.ClaimTTL, time.Minute, "a crashed request must not block retries for long")
}

// newCreditSale builds a 1000 sale paid 600 in cash, leaving 400 due
func newCreditSale(t *testing.T, f *saleFixture, customer *partner.Customer) *pos.Sale {
	t.Helper()
	sale, err := pos.NewSale(pos.SaleDraft{
		TenantID:   f.tenantID,
		SessionID:  f.session.ID,
		ShopID:     f.session.ShopID,
		CashierID:  f.session.CashierID,
		CustomerID: &customer.ID,
		Reference:  "POS-20261019-00010",
		Lines: []pos.SaleLine{{
			ProductID: f.product.ID, ProductCode: f.product.Code, ProductName: f.product.Name,
			Quantity: dec(1), UnitPrice: dec(1000),
		}},
		Payments: []pos.PaymentInput{{Method: pos.PaymentMethodCash, Amount: dec(600)}},
	})
	require.NoError(t, err)
	sale.ClearDomainEvents()
	return sale
}

func TestSaleService_ProcessCreditPayment(t *testing.T) {
	t.Run("settles the amount due", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		customer, err := partner.NewCustomer(f.tenantID, "C010", "Daudi")
		require.NoError(t, err)
		customer.CreditBalance = dec(400)
		sale := newCreditSale(t, f, customer)

		// Settlement taken at another till the next day
		other, err := pos.OpenSession(f.tenantID, f.session.ShopID, uuid.New(), dec(0), "")
		require.NoError(t, err)

		f.repos.sales.On("FindByIDForUpdate", mock.Anything, f.tenantID, sale.ID).Return(sale, nil)
		f.repos.sessions.On("FindByIDForUpdate", mock.Anything, f.tenantID, other.ID).Return(other, nil)
		f.repos.customers.On("FindByIDForUpdate", mock.Anything, f.tenantID, customer.ID).Return(customer, nil)
		f.repos.customers.On("Save", mock.Anything, customer).Return(nil)
		f.repos.credits.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.repos.sales.On("Update", mock.Anything, sale).Return(nil)
		f.repos.sessions.On("Save", mock.Anything, other).Return(nil)

		resp, err := f.svc.ProcessCreditPayment(context.Background(), f.tenantID, sale.ID, CreditPaymentRequest{
			SessionID: other.ID,
			Method:    "MOBILE_MONEY",
			Amount:    dec(400),
		})
		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", resp.Status)
		assert.True(t, resp.AmountDue.IsZero())
		assert.Len(t, resp.Payments, 2)
		assert.True(t, other.TotalMobileMoney.Equal(dec(400)))
		assert.True(t, customer.CreditBalance.IsZero())
		assert.Len(t, f.publisher.GetEventsByType(pos.EventTypeSaleCreditPaymentReceived), 1)
	})

	t.Run("overpayment is a mismatch", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		customer, err := partner.NewCustomer(f.tenantID, "C011", "Eliya")
		require.NoError(t, err)
		sale := newCreditSale(t, f, customer)
		f.repos.sales.On("FindByIDForUpdate", mock.Anything, f.tenantID, sale.ID).Return(sale, nil)
		f.repos.sessions.On("FindByIDForUpdate", mock.Anything, f.tenantID, f.session.ID).Return(f.session, nil)

		_, err = f.svc.ProcessCreditPayment(context.Background(), f.tenantID, sale.ID, CreditPaymentRequest{
			SessionID: f.session.ID,
			Method:    "CASH",
			Amount:    dec(500),
		})
		assert.ErrorIs(t, err, pos.ErrPaymentMismatch)
		f.repos.sales.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("cancelled sale", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		customer, err := partner.NewCustomer(f.tenantID, "C012", "Faraji")
		require.NoError(t, err)
		sale := newCreditSale(t, f, customer)
		require.NoError(t, sale.Cancel("wrong customer"))
		f.repos.sales.On("FindByIDForUpdate", mock.Anything, f.tenantID, sale.ID).Return(sale, nil)

		_, err = f.svc.ProcessCreditPayment(context.Background(), f.tenantID, sale.ID, CreditPaymentRequest{
			SessionID: f.session.ID,
			Method:    "CASH",
			Amount:    dec(100),
		})
		assert.ErrorIs(t, err, pos.ErrSaleCancelled)
	})

	t.Run("settlement session must be open", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		customer, err := partner.NewCustomer(f.tenantID, "C013", "Gift")
		require.NoError(t, err)
		sale := newCreditSale(t, f, customer)
		require.NoError(t, f.session.Close("", nil))
		f.repos.sales.On("FindByIDForUpdate", mock.Anything, f.tenantID, sale.ID).Return(sale, nil)
		f.repos.sessions.On("FindByIDForUpdate", mock.Anything, f.tenantID, f.session.ID).Return(f.session, nil)

		_, err = f.svc.ProcessCreditPayment(context.Background(), f.tenantID, sale.ID, CreditPaymentRequest{
			SessionID: f.session.ID,
			Method:    "CASH",
			Amount:    dec(100),
		})
		assert.ErrorIs(t, err, pos.ErrNoOpenSession)
	})
}

func TestSaleService_CancelSale(t *testing.T) {
	t.Run("restores stock, totals and credit", func(t *testing.T) {
		f := newSaleFixture(t, 9)
		customer, err := partner.NewCustomer(f.tenantID, "C020", "Halima")
		require.NoError(t, err)
		customer.CreditBalance = dec(400)
		sale := newCreditSale(t, f, customer)
		require.NoError(t, f.session.RecordSale(sale.Total))
		require.NoError(t, f.session.RecordPayment(pos.PaymentMethodCash, dec(600)))

		f.repos.sales.On("FindByIDForUpdate", mock.Anything, f.tenantID, sale.ID).Return(sale, nil)
		f.repos.sessions.On("FindByIDForUpdate", mock.Anything, f.tenantID, f.session.ID).Return(f.session, nil)
		f.repos.stocks.On("FindForUpdate", mock.Anything, f.tenantID, f.session.ShopID, []uuid.UUID{f.product.ID}).Return(f.stocks, nil)
		f.repos.stocks.On("Save", mock.Anything, mock.AnythingOfType("*inventory.ShopStock")).Return(nil)
		f.repos.movements.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.repos.customers.On("FindByIDForUpdate", mock.Anything, f.tenantID, customer.ID).Return(customer, nil)
		f.repos.customers.On("Save", mock.Anything, customer).Return(nil)
		f.repos.credits.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.repos.sales.On("Update", mock.Anything, sale).Return(nil)
		f.repos.sessions.On("Save", mock.Anything, f.session).Return(nil)

		resp, err := f.svc.CancelSale(context.Background(), f.tenantID, sale.ID, CancelSaleRequest{Reason: "customer changed mind"})
		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", resp.Status)
		assert.True(t, f.stocks[0].Quantity.Equal(dec(10)))
		assert.Equal(t, 0, f.session.SalesCount)
		assert.True(t, f.session.TotalCash.IsZero())
		assert.True(t, customer.CreditBalance.IsZero())
		assert.Len(t, f.publisher.GetEventsByType(pos.EventTypeSaleCancelled), 1)
	})

	t.Run("session already closed", func(t *testing.T) {
		f := newSaleFixture(t, 9)
		customer, err := partner.NewCustomer(f.tenantID, "C021", "Issa")
		require.NoError(t, err)
		sale := newCreditSale(t, f, customer)
		require.NoError(t, f.session.Close("", nil))
		f.repos.sales.On("FindByIDForUpdate", mock.Anything, f.tenantID, sale.ID).Return(sale, nil)
		f.repos.sessions.On("FindByIDForUpdate", mock.Anything, f.tenantID, f.session.ID).Return(f.session, nil)

		_, err = f.svc.CancelSale(context.Background(), f.tenantID, sale.ID, CancelSaleRequest{})
		assert.ErrorIs(t, err, pos.ErrAlreadyClosed)
		assert.Equal(t, pos.SaleStatusPartiallyPaid, sale.Status)
	})

	t.Run("already cancelled", func(t *testing.T) {
		f := newSaleFixture(t, 9)
		customer, err := partner.NewCustomer(f.tenantID, "C022", "Jabari")
		require.NoError(t, err)
		sale := newCreditSale(t, f, customer)
		require.NoError(t, sale.Cancel(""))
		f.repos.sales.On("FindByIDForUpdate", mock.Anything, f.tenantID, sale.ID).Return(sale, nil)

		_, err = f.svc.CancelSale(context.Background(), f.tenantID, sale.ID, CancelSaleRequest{})
		assert.ErrorIs(t, err, pos.ErrSaleCancelled)
	})
}

func TestSaleService_VerifySale(t *testing.T) {
	f := newSaleFixture(t, 10)
	customer, err := partner.NewCustomer(f.tenantID, "C030", "Kito")
	require.NoError(t, err)
	sale := newCreditSale(t, f, customer)

	t.Run("found", func(t *testing.T) {
		f.repos.sales.On("FindByVerificationToken", mock.Anything, sale.VerificationToken).Return(sale, nil)

		resp, err := f.svc.VerifySale(context.Background(), sale.VerificationToken)
		require.NoError(t, err)
		assert.Equal(t, sale.Reference, resp.Reference)
		assert.Equal(t, "PARTIALLY_PAID", resp.Status)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "Soap bar", resp.Items[0].ProductName)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := f.svc.VerifySale(context.Background(), "not-a-token")
		assert.ErrorIs(t, err, shared.ErrNotFound)
		f.repos.sales.AssertNotCalled(t, "FindByVerificationToken", mock.Anything, "not-a-token")
	})
}

type stubRenderer struct{}

func (stubRenderer) Render(sale *pos.Sale) (string, error) {
	return "RECEIPT " + sale.Reference, nil
}

func TestSaleService_GetReceipt(t *testing.T) {
	f := newSaleFixture(t, 10)
	customer, err := partner.NewCustomer(f.tenantID, "C040", "Lulu")
	require.NoError(t, err)
	sale := newCreditSale(t, f, customer)
	f.repos.sales.On("FindByIDForTenant", mock.Anything, f.tenantID, sale.ID).Return(sale, nil)

	_, err = f.svc.GetReceipt(context.Background(), f.tenantID, sale.ID)
	assert.Error(t, err, "renderer not configured")

	f.svc.SetReceiptRenderer(stubRenderer{})
	receipt, err := f.svc.GetReceipt(context.Background(), f.tenantID, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "RECEIPT POS-20261019-00010", receipt)
}
