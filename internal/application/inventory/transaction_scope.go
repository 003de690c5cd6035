package inventory

import (
	"context"

	"github.com/retailpos/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to stock repositories.
// If fn returns an error the transaction is rolled back, otherwise it is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the stock repositories bound to one transaction.
// StockRepo is the aggregate repository; MovementRepo is the append-only audit trail.
type TransactionalRepositories interface {
	StockRepo() inventory.ShopStockRepository
	MovementRepo() inventory.StockMovementRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing.
type NoOpTransactionScope struct {
	stockRepo    inventory.ShopStockRepository
	movementRepo inventory.StockMovementRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(stockRepo inventory.ShopStockRepository, movementRepo inventory.StockMovementRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockRepo returns the shop stock repository
func (s *NoOpTransactionScope) StockRepo() inventory.ShopStockRepository {
	return s.stockRepo
}

// MovementRepo returns the stock movement repository
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository {
	return s.movementRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
