package pos

import (
	"context"

	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/pos"
)

// TransactionScope runs a unit of work in one database transaction.
// If fn returns an error the transaction is rolled back, otherwise it is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to every repository the point of
// sale touches, all bound to the same transaction.
//
// Row locks taken through the ...ForUpdate methods are held until the
// transaction ends. Stock rows are always locked in product ID order.
type TransactionalRepositories interface {
	SessionRepo() pos.SessionRepository
	SaleRepo() pos.SaleRepository
	PromotionRepo() pos.PromotionRepository
	ProductRepo() catalog.ProductRepository
	StockRepo() inventory.ShopStockRepository
	MovementRepo() inventory.StockMovementRepository
	CustomerRepo() partner.CustomerRepository
	CreditRepo() partner.CreditTransactionRepository
}

// Repositories is a plain set of repositories
type Repositories struct {
	Sessions   pos.SessionRepository
	Sales      pos.SaleRepository
	Promotions pos.PromotionRepository
	Products   catalog.ProductRepository
	Stocks     inventory.ShopStockRepository
	Movements  inventory.StockMovementRepository
	Customers  partner.CustomerRepository
	Credits    partner.CreditTransactionRepository
}

// NoOpTransactionScope runs the function against Repositories without a transaction.
// It is useful for tests.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) SessionRepo() pos.SessionRepository       { return s.repos.Sessions }
func (s *NoOpTransactionScope) SaleRepo() pos.SaleRepository             { return s.repos.Sales }
func (s *NoOpTransactionScope) PromotionRepo() pos.PromotionRepository   { return s.repos.Promotions }
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository   { return s.repos.Products }
func (s *NoOpTransactionScope) StockRepo() inventory.ShopStockRepository { return s.repos.Stocks }
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository {
	return s.repos.Movements
}
func (s *NoOpTransactionScope) CustomerRepo() partner.CustomerRepository { return s.repos.Customers }
func (s *NoOpTransactionScope) CreditRepo() partner.CreditTransactionRepository {
	return s.repos.Credits
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
