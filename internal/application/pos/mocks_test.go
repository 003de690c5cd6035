package pos

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher collects published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []shared.DomainEvent
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return nil
}

// MockSessionRepository is a mock implementation of pos.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*pos.CashRegisterSession, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.CashRegisterSession), args.Error(1)
}

func (m *MockSessionRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*pos.CashRegisterSession, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.CashRegisterSession), args.Error(1)
}

func (m *MockSessionRepository) FindOpenByCashier(ctx context.Context, tenantID, cashierID uuid.UUID) (*pos.CashRegisterSession, error) {
	args := m.Called(ctx, tenantID, cashierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.CashRegisterSession), args.Error(1)
}

func (m *MockSessionRepository) FindOpenByCashierForUpdate(ctx context.Context, tenantID, cashierID uuid.UUID) (*pos.CashRegisterSession, error) {
	args := m.Called(ctx, tenantID, cashierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.CashRegisterSession), args.Error(1)
}

func (m *MockSessionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]pos.CashRegisterSession, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]pos.CashRegisterSession), args.Error(1)
}

func (m *MockSessionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) Save(ctx context.Context, session *pos.CashRegisterSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

// MockSaleRepository is a mock implementation of pos.SaleRepository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*pos.Sale, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*pos.Sale, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByVerificationToken(ctx context.Context, token string) (*pos.Sale, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByClientRef(ctx context.Context, tenantID uuid.UUID, clientRef string) (*pos.Sale, error) {
	args := m.Called(ctx, tenantID, clientRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]pos.Sale, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]pos.Sale), args.Error(1)
}

func (m *MockSaleRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSaleRepository) Create(ctx context.Context, sale *pos.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) Update(ctx context.Context, sale *pos.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) GenerateReference(ctx context.Context, tenantID uuid.UUID, prefix string) (string, error) {
	args := m.Called(ctx, tenantID, prefix)
	return args.String(0), args.Error(1)
}

func (m *MockSaleRepository) SumPaymentsBySession(ctx context.Context, tenantID, sessionID uuid.UUID) (pos.PaymentTotals, error) {
	args := m.Called(ctx, tenantID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pos.PaymentTotals), args.Error(1)
}

// MockPromotionRepository is a mock implementation of pos.PromotionRepository
type MockPromotionRepository struct {
	mock.Mock
}

func (m *MockPromotionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*pos.Promotion, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.Promotion), args.Error(1)
}

func (m *MockPromotionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]pos.Promotion, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]pos.Promotion), args.Error(1)
}

func (m *MockPromotionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPromotionRepository) Save(ctx context.Context, promotion *pos.Promotion) error {
	args := m.Called(ctx, promotion)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

// MockShopStockRepository is a mock implementation of inventory.ShopStockRepository
type MockShopStockRepository struct {
	mock.Mock
}

func (m *MockShopStockRepository) FindByShopAndProduct(ctx context.Context, tenantID, shopID, productID uuid.UUID) (*inventory.ShopStock, error) {
	args := m.Called(ctx, tenantID, shopID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.ShopStock), args.Error(1)
}

func (m *MockShopStockRepository) FindForUpdate(ctx context.Context, tenantID, shopID uuid.UUID, productIDs []uuid.UUID) ([]inventory.ShopStock, error) {
	args := m.Called(ctx, tenantID, shopID, productIDs)
	return args.Get(0).([]inventory.ShopStock), args.Error(1)
}

func (m *MockShopStockRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.ShopStock, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]inventory.ShopStock), args.Error(1)
}

func (m *MockShopStockRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShopStockRepository) Save(ctx context.Context, stock *inventory.ShopStock) error {
	args := m.Called(ctx, stock)
	return args.Error(0)
}

// MockStockMovementRepository is a mock implementation of inventory.StockMovementRepository
type MockStockMovementRepository struct {
	mock.Mock
}

func (m *MockStockMovementRepository) Create(ctx context.Context, movements ...inventory.StockMovement) error {
	args := m.Called(ctx, movements)
	return args.Error(0)
}

// MockCustomerRepository is a mock implementation of partner.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]partner.Customer, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

// MockCreditTransactionRepository is a mock implementation of partner.CreditTransactionRepository
type MockCreditTransactionRepository struct {
	mock.Mock
}

func (m *MockCreditTransactionRepository) Create(ctx context.Context, entries ...*partner.CreditTransaction) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockCreditTransactionRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]partner.CreditTransaction, error) {
	args := m.Called(ctx, tenantID, customerID, filter)
	return args.Get(0).([]partner.CreditTransaction), args.Error(1)
}

func (m *MockCreditTransactionRepository) CountByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, customerID)
	return args.Get(0).(int64), args.Error(1)
}

// testRepos bundles every mock repository behind a NoOpTransactionScope
type testRepos struct {
	sessions   *MockSessionRepository
	sales      *MockSaleRepository
	promotions *MockPromotionRepository
	products   *MockProductRepository
	stocks     *MockShopStockRepository
	movements  *MockStockMovementRepository
	customers  *MockCustomerRepository
	credits    *MockCreditTransactionRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		sessions:   new(MockSessionRepository),
		sales:      new(MockSaleRepository),
		promotions: new(MockPromotionRepository),
		products:   new(MockProductRepository),
		stocks:     new(MockShopStockRepository),
		movements:  new(MockStockMovementRepository),
		customers:  new(MockCustomerRepository),
		credits:    new(MockCreditTransactionRepository),
	}
}

func (r *testRepos) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(Repositories{
		Sessions:   r.sessions,
		Sales:      r.sales,
		Promotions: r.promotions,
		Products:   r.products,
		Stocks:     r.stocks,
		Movements:  r.movements,
		Customers:  r.customers,
		Credits:    r.credits,
	})
}
