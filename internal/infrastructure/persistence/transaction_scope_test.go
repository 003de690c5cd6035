package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	appinv "github.com/retailpos/backend/internal/application/inventory"
	apppos "github.com/retailpos/backend/internal/application/pos"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPOSTransactionScope(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		db := setupTestDB(t)
		scope := NewGormPOSTransactionScope(db)
		tenantID, cashierID := uuid.New(), uuid.New()

		session, err := pos.OpenSession(tenantID, uuid.New(), cashierID, dec("50"), "")
		require.NoError(t, err)

		err = scope.Execute(ctx, func(repos apppos.TransactionalRepositories) error {
			return repos.SessionRepo().Save(ctx, session)
		})
		require.NoError(t, err)

		_, err = NewGormSessionRepository(db).FindOpenByCashier(ctx, tenantID, cashierID)
		assert.NoError(t, err)
	})

	t.Run("rolls back every repository on error", func(t *testing.T) {
		db := setupTestDB(t)
		scope := NewGormPOSTransactionScope(db)
		tenantID, cashierID, shopID, productID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
		boom := errors.New("boom")

		err := scope.Execute(ctx, func(repos apppos.TransactionalRepositories) error {
			session, err := pos.OpenSession(tenantID, shopID, cashierID, dec("50"), "")
			require.NoError(t, err)
			require.NoError(t, repos.SessionRepo().Save(ctx, session))

			stock, err := inventory.NewShopStock(tenantID, shopID, productID)
			require.NoError(t, err)
			require.NoError(t, stock.Receive(dec("5")))
			require.NoError(t, repos.StockRepo().Save(ctx, stock))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = NewGormSessionRepository(db).FindOpenByCashier(ctx, tenantID, cashierID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = NewGormShopStockRepository(db).FindByShopAndProduct(ctx, tenantID, shopID, productID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormInventoryTransactionScope(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	scope := NewGormInventoryTransactionScope(db)
	tenantID, shopID, productID := uuid.New(), uuid.New(), uuid.New()

	err := scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		stock, err := inventory.NewShopStock(tenantID, shopID, productID)
		if err != nil {
			return err
		}
		if err := stock.Receive(dec("8")); err != nil {
			return err
		}
		if err := repos.StockRepo().Save(ctx, stock); err != nil {
			return err
		}
		return repos.MovementRepo().Create(ctx, inventory.NewStockMovement(stock, inventory.MovementTypeReceive, dec("8"), nil, "GRN-1"))
	})
	require.NoError(t, err)

	stock, err := NewGormShopStockRepository(db).FindByShopAndProduct(ctx, tenantID, shopID, productID)
	require.NoError(t, err)
	assertAmount(t, "8", stock.Quantity)
}

type sqlStateError string

func (e sqlStateError) Error() string    { return "pq: canceling statement due to lock timeout" }
func (e sqlStateError) SQLState() string { return string(e) }

func TestTranslateLockError(t *testing.T) {
	assert.NoError(t, translateLockError(nil))

	other := errors.New("boom")
	assert.Same(t, other, translateLockError(other))

	unique := sqlStateError("23505")
	assert.Equal(t, error(unique), translateLockError(unique))

	err := translateLockError(fmt.Errorf("lock stock: %w", sqlStateError("55P03")))
	require.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "CONCURRENCY_CONFLICT", de.Code)
}
