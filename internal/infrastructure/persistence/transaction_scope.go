package persistence

import (
	"context"
	"errors"
	"fmt"

	appinv "github.com/retailpos/backend/internal/application/inventory"
	apppos "github.com/retailpos/backend/internal/application/pos"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/retailpos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormPOSTransactionScope implements the point-of-sale TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormPOSTransactionScope struct {
	db *gorm.DB
}

// NewGormPOSTransactionScope creates a new GormPOSTransactionScope.
func NewGormPOSTransactionScope(db *gorm.DB) *GormPOSTransactionScope {
	return &GormPOSTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormPOSTransactionScope) Execute(ctx context.Context, fn func(repos apppos.TransactionalRepositories) error) error {
	return translateLockError(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	}))
}

// GormInventoryTransactionScope implements the stock maintenance TransactionScope using GORM transactions.
type GormInventoryTransactionScope struct {
	db *gorm.DB
}

// NewGormInventoryTransactionScope creates a new GormInventoryTransactionScope.
func NewGormInventoryTransactionScope(db *gorm.DB) *GormInventoryTransactionScope {
	return &GormInventoryTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *GormInventoryTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return translateLockError(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	}))
}

// sqlStateLockNotAvailable is raised when lock_timeout expires
const sqlStateLockNotAvailable = "55P03"

// translateLockError turns a lock wait timeout into a retryable conflict.
// Driver errors expose their SQLSTATE through SQLState().
func translateLockError(err error) error {
	var state interface{ SQLState() string }
	if err != nil && errors.As(err, &state) && state.SQLState() == sqlStateLockNotAvailable {
		return fmt.Errorf("%w: %v", shared.NewDomainError(shared.ErrConcurrencyConflict.Code,
			"Stock or session is locked by another sale, retry the request"), err)
	}
	return err
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// SessionRepo returns the session repository scoped to the current transaction.
func (r *gormTransactionalRepositories) SessionRepo() pos.SessionRepository {
	return NewGormSessionRepository(r.tx)
}

// SaleRepo returns the sale repository scoped to the current transaction.
func (r *gormTransactionalRepositories) SaleRepo() pos.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

// PromotionRepo returns the promotion repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PromotionRepo() pos.PromotionRepository {
	return NewGormPromotionRepository(r.tx)
}

// ProductRepo returns the product repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// StockRepo returns the shop stock repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StockRepo() inventory.ShopStockRepository {
	return NewGormShopStockRepository(r.tx)
}

// MovementRepo returns the stock movement repository scoped to the current transaction.
func (r *gormTransactionalRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// CustomerRepo returns the customer repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CustomerRepo() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// CreditRepo returns the credit ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CreditRepo() partner.CreditTransactionRepository {
	return NewGormCreditTransactionRepository(r.tx)
}

// Ensure the scopes implement their TransactionScope interfaces
var (
	_ apppos.TransactionScope = (*GormPOSTransactionScope)(nil)
	_ appinv.TransactionScope = (*GormInventoryTransactionScope)(nil)
)

// Ensure gormTransactionalRepositories implements both TransactionalRepositories
var (
	_ apppos.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
	_ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
