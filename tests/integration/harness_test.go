package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	catalogapp "github.com/retailpos/backend/internal/application/catalog"
	inventoryapp "github.com/retailpos/backend/internal/application/inventory"
	partnerapp "github.com/retailpos/backend/internal/application/partner"
	posapp "github.com/retailpos/backend/internal/application/pos"
	"github.com/retailpos/backend/internal/infrastructure/cache"
	"github.com/retailpos/backend/internal/infrastructure/event"
	"github.com/retailpos/backend/internal/infrastructure/persistence"
	"github.com/retailpos/backend/internal/infrastructure/printing"
	"github.com/retailpos/backend/internal/infrastructure/storage"
	"github.com/retailpos/backend/internal/interfaces/http/handler"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
	"github.com/retailpos/backend/internal/interfaces/http/router"
	"github.com/retailpos/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// posHarness wires the production services over a real database and serves
// them through the full gin engine
type posHarness struct {
	DB           *TestDB
	Engine       http.Handler
	SaleService  *posapp.SaleService
	Sessions     *posapp.SessionService
	Events       *testutil.EventRecorder
	ReceiptStore *storage.MemoryReceiptStore
	ShopID       uuid.UUID
}

func newPOSHarness(t *testing.T, testDB *TestDB) *posHarness {
	t.Helper()

	middleware.SetupValidator()
	log := zap.NewNop()
	db := testDB.DB

	productRepo := persistence.NewGormProductRepository(db)
	customerRepo := persistence.NewGormCustomerRepository(db)
	creditRepo := persistence.NewGormCreditTransactionRepository(db)
	saleRepo := persistence.NewGormSaleRepository(db)
	posTxScope := persistence.NewGormPOSTransactionScope(db)

	renderer, err := printing.NewTextReceiptRenderer(printing.ReceiptConfig{
		StoreName:     "Test Shop",
		Currency:      "USD",
		Locale:        "en-US",
		VerifyBaseURL: "https://pos.example.com/verify/",
	})
	require.NoError(t, err)

	idempotency := cache.NewInMemoryIdempotencyStore()

	productService := catalogapp.NewProductService(productRepo)
	stockService := inventoryapp.NewStockService(persistence.NewGormInventoryTransactionScope(db),
		persistence.NewGormShopStockRepository(db), productRepo)
	customerService := partnerapp.NewCustomerService(customerRepo, creditRepo)
	promotionService := posapp.NewPromotionService(persistence.NewGormPromotionRepository(db))

	saleService := posapp.NewSaleService(posTxScope, saleRepo, posapp.DefaultSaleServiceConfig())
	saleService.SetIdempotencyStore(idempotency)
	saleService.SetReceiptRenderer(renderer)
	sessionService := posapp.NewSessionService(posTxScope, persistence.NewGormSessionRepository(db), saleRepo)

	recorder := testutil.NewEventRecorder()
	receiptStore := storage.NewMemoryReceiptStore()
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(recorder)
	bus.Subscribe(event.NewIdempotentHandler("receipt-archive",
		posapp.NewReceiptArchiveHandler(saleRepo, renderer, receiptStore, log), idempotency, 0, log))
	bus.Subscribe(event.NewIdempotentHandler("stock-alert",
		inventoryapp.NewStockBelowMinimumHandler(log), idempotency, 0, log))

	productService.SetEventPublisher(bus)
	customerService.SetEventPublisher(bus)
	saleService.SetEventPublisher(bus)
	sessionService.SetEventPublisher(bus)

	sqlDB := testDB.SqlDB
	engine := router.NewEngine(router.Options{
		Logger:      log,
		CORS:        middleware.DefaultCORSConfig(),
		Security:    middleware.DefaultSecurityConfig(),
		MaxBodySize: 1 << 20,
	}, router.Handlers{
		Session:   handler.NewSessionHandler(sessionService),
		Sale:      handler.NewSaleHandler(saleService),
		Promotion: handler.NewPromotionHandler(promotionService),
		Product:   handler.NewProductHandler(productService),
		Stock:     handler.NewStockHandler(stockService),
		Customer:  handler.NewCustomerHandler(customerService),
		System:    handler.NewSystemHandler("pos-backend", "test", sqlDB),
	})

	return &posHarness{
		DB:           testDB,
		Engine:       engine,
		SaleService:  saleService,
		Sessions:     sessionService,
		Events:       recorder,
		ReceiptStore: receiptStore,
		ShopID:       uuid.New(),
	}
}

// client returns an API client acting for tenantID
func (h *posHarness) client(tenantID uuid.UUID) *testutil.APIClient {
	return &testutil.APIClient{Handler: h.Engine, TenantID: tenantID}
}

func (h *posHarness) createProduct(t *testing.T, c *testutil.APIClient, code, price string) catalogapp.ProductResponse {
	t.Helper()

	resp := c.Do(t, http.MethodPost, "/api/v1/catalog/products", map[string]any{
		"code":          code,
		"name":          "Product " + code,
		"unit":          "pcs",
		"selling_price": price,
	})
	resp.RequireStatus(t, http.StatusCreated)
	return testutil.DecodeData[catalogapp.ProductResponse](t, resp)
}

func (h *posHarness) receiveStock(t *testing.T, c *testutil.APIClient, productID uuid.UUID, qty, minQty string) {
	t.Helper()

	body := map[string]any{
		"shop_id":    h.ShopID,
		"product_id": productID,
		"quantity":   qty,
		"reference":  "DELIVERY-1",
	}
	if minQty != "" {
		body["min_quantity"] = minQty
	}
	resp := c.Do(t, http.MethodPost, "/api/v1/inventory/stock/receive", body)
	resp.RequireStatus(t, http.StatusOK)
}

func (h *posHarness) createCustomer(t *testing.T, c *testutil.APIClient, code string) partnerapp.CustomerResponse {
	t.Helper()

	resp := c.Do(t, http.MethodPost, "/api/v1/customers", map[string]any{
		"code": code,
		"name": "Customer " + code,
	})
	resp.RequireStatus(t, http.StatusCreated)
	return testutil.DecodeData[partnerapp.CustomerResponse](t, resp)
}

func (h *posHarness) openSession(t *testing.T, c *testutil.APIClient, cashierID uuid.UUID, opening string) posapp.SessionResponse {
	t.Helper()

	resp := c.Do(t, http.MethodPost, "/api/v1/pos/sessions", map[string]any{
		"shop_id":        h.ShopID,
		"cashier_id":     cashierID,
		"opening_amount": opening,
	})
	resp.RequireStatus(t, http.StatusCreated)
	return testutil.DecodeData[posapp.SessionResponse](t, resp)
}

func (h *posHarness) stockQuantity(t *testing.T, tenantID, productID uuid.UUID) decimal.Decimal {
	t.Helper()

	var qty decimal.Decimal
	err := h.DB.DB.Raw(`SELECT quantity FROM shop_stocks WHERE tenant_id = ? AND shop_id = ? AND product_id = ?`,
		tenantID, h.ShopID, productID).Row().Scan(&qty)
	require.NoError(t, err)
	return qty
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
