package telemetry

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeStockProvider struct {
	lowByShop map[uuid.UUID]int64
	open      int64
}

func (f *fakeStockProvider) GetLowStockCountByShop(context.Context, uuid.UUID) (map[uuid.UUID]int64, error) {
	return f.lowByShop, nil
}

func (f *fakeStockProvider) GetOpenSessionCount(context.Context, uuid.UUID) (int64, error) {
	return f.open, nil
}

type fakeTenantProvider struct {
	ids []uuid.UUID
}

func (f *fakeTenantProvider) GetActiveTenantIDs(context.Context) ([]uuid.UUID, error) {
	return f.ids, nil
}

func TestNewPOSMetrics_RequiresMeter(t *testing.T) {
	_, err := NewPOSMetrics(POSMetricsConfig{})
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestPOSMetrics_RecordSaleAndPayments(t *testing.T) {
	meter, reader := newTestMeter(t)
	pm, err := NewPOSMetrics(POSMetricsConfig{Meter: meter})
	require.NoError(t, err)

	ctx := context.Background()
	tenantID, shopID := uuid.New(), uuid.New()

	pm.RecordSale(ctx, tenantID, shopID, "COMPLETED", decimal.RequireFromString("12.345"), 3)
	pm.RecordSale(ctx, tenantID, shopID, "PARTIALLY_PAID", decimal.RequireFromString("7.50"), 1)
	pm.RecordPayment(ctx, tenantID, "CASH", PaymentKindSale, decimal.RequireFromString("10"))
	pm.RecordPayment(ctx, tenantID, "CARD", PaymentKindSettlement, decimal.RequireFromString("2.25"))
	pm.RecordSaleCancelled(ctx, tenantID)
	pm.RecordStockRejection(ctx, tenantID, shopID)
	pm.RecordSessionOpened(ctx, tenantID, shopID)
	pm.RecordSessionClosed(ctx, tenantID, shopID)

	got := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["pos_sale_created_total"]))
	// 12.345 rounds to 1235 cents
	assert.Equal(t, int64(1235+750), sumOf(t, got["pos_sale_amount_total"]))
	assert.Equal(t, int64(2), sumOf(t, got["pos_payment_total"]))
	assert.Equal(t, int64(1225), sumOf(t, got["pos_payment_amount_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["pos_sale_cancelled_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["pos_stock_rejected_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["pos_session_opened_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["pos_session_closed_total"]))

	hist, ok := got["pos_sale_items"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, 4.0, hist.DataPoints[0].Sum)
}

func TestPOSMetrics_CollectGauges(t *testing.T) {
	meter, reader := newTestMeter(t)
	shopA, shopB := uuid.New(), uuid.New()
	pm, err := NewPOSMetrics(POSMetricsConfig{
		Meter:         meter,
		StockProvider: &fakeStockProvider{lowByShop: map[uuid.UUID]int64{shopA: 3, shopB: 1}, open: 2},
	})
	require.NoError(t, err)

	pm.collect(context.Background(), &fakeTenantProvider{ids: []uuid.UUID{uuid.New()}})

	got := collectMetrics(t, reader)
	low, ok := got["pos_low_stock_count"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Len(t, low.DataPoints, 2)

	open, ok := got["pos_open_session_count"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, open.DataPoints, 1)
	assert.Equal(t, int64(2), open.DataPoints[0].Value)
}

func TestPOSMetrics_StopIsIdempotent(t *testing.T) {
	meter, _ := newTestMeter(t)
	pm, err := NewPOSMetrics(POSMetricsConfig{Meter: meter})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pm.StartPeriodicCollection(ctx, &fakeTenantProvider{}, 0)
	pm.Stop()
	pm.Stop()
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestGormStockMetricsProvider(t *testing.T) {
	db, mock := newMockDB(t)
	p := NewGormStockMetricsProvider(db)
	tenantID, shopID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT shop_id, COUNT\(\*\) as low_count FROM "shop_stocks" WHERE tenant_id = \$1 AND .*min_quantity > 0 AND quantity < min_quantity.* GROUP BY .*shop_id`).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"shop_id", "low_count"}).AddRow(shopID.String(), 4))

	low, err := p.GetLowStockCountByShop(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{shopID: 4}, low)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "pos_sessions" WHERE tenant_id = $1 AND status = $2`)).
		WithArgs(tenantID, "OPEN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	open, err := p.GetOpenSessionCount(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), open)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTenantProvider(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT DISTINCT "?tenant_id"? FROM "shop_stocks"`).
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}).AddRow(id.String()))

	ids, err := NewGormTenantProvider(db).GetActiveTenantIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, ids)
}
