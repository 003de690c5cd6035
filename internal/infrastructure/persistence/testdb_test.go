package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// tenantUniqueIndexes mirrors the tenant-scoped unique constraints of the SQL migrations
var tenantUniqueIndexes = []string{
	`CREATE UNIQUE INDEX uq_products_tenant_code ON products (tenant_id, code)`,
	`CREATE UNIQUE INDEX uq_customers_tenant_code ON customers (tenant_id, code)`,
	`CREATE UNIQUE INDEX uq_pos_sales_tenant_reference ON pos_sales (tenant_id, reference)`,
	`CREATE UNIQUE INDEX uq_pos_sales_tenant_client_ref ON pos_sales (tenant_id, client_ref) WHERE client_ref <> ''`,
}

// setupTestDB creates an in-memory SQLite database with the POS schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&models.ProductModel{},
		&models.ShopStockModel{},
		&models.StockMovementModel{},
		&models.CustomerModel{},
		&models.CreditTransactionModel{},
		&models.CashRegisterSessionModel{},
		&models.SaleModel{},
		&models.SaleItemModel{},
		&models.SalePaymentModel{},
		&models.PromotionModel{},
		&models.PromotionProductModel{},
		&models.ReferenceCounterModel{},
	)
	require.NoError(t, err)

	for _, stmt := range tenantUniqueIndexes {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// newMockGormDB creates a GORM connection backed by sqlmock using the postgres dialect
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}
