package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// POSMetrics tracks point-of-sale activity: sales, tenders, sessions and stock health.
type POSMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	saleCreatedTotal   *Counter
	saleAmountTotal    *Counter
	saleCancelledTotal *Counter
	saleItems          *Histogram
	paymentTotal       *Counter
	paymentAmountTotal *Counter
	sessionOpenedTotal *Counter
	sessionClosedTotal *Counter
	stockRejectedTotal *Counter

	lowStockCount    *Gauge
	openSessionCount *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	stockProvider StockMetricsProvider
}

// StockMetricsProvider supplies the point-in-time figures behind the gauges.
// It lets telemetry query state without depending on domain packages.
type StockMetricsProvider interface {
	// GetLowStockCountByShop returns per shop the number of products under their threshold
	GetLowStockCountByShop(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]int64, error)

	// GetOpenSessionCount returns the number of open cash register sessions
	GetOpenSessionCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// POSMetricsConfig holds configuration for POS metrics.
type POSMetricsConfig struct {
	Meter         metric.Meter
	Logger        *zap.Logger
	StockProvider StockMetricsProvider
}

// PaymentKind separates tenders taken at the counter from later settlements.
type PaymentKind string

const (
	PaymentKindSale       PaymentKind = "sale"
	PaymentKindSettlement PaymentKind = "settlement"
)

// NewPOSMetrics creates the POS instruments on the given meter.
func NewPOSMetrics(cfg POSMetricsConfig) (*POSMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &POSMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stockProvider: cfg.StockProvider,
	}

	counters := []struct {
		dst              **Counter
		name, desc, unit string
	}{
		{&pm.saleCreatedTotal, "pos_sale_created_total", "Total number of sales rung up", "{sales}"},
		{&pm.saleAmountTotal, "pos_sale_amount_total", "Total sale amount in minor currency units", "{cents}"},
		{&pm.saleCancelledTotal, "pos_sale_cancelled_total", "Total number of cancelled sales", "{sales}"},
		{&pm.paymentTotal, "pos_payment_total", "Total number of tenders received", "{payments}"},
		{&pm.paymentAmountTotal, "pos_payment_amount_total", "Total tendered amount in minor currency units", "{cents}"},
		{&pm.sessionOpenedTotal, "pos_session_opened_total", "Total number of cash register sessions opened", "{sessions}"},
		{&pm.sessionClosedTotal, "pos_session_closed_total", "Total number of cash register sessions closed", "{sessions}"},
		{&pm.stockRejectedTotal, "pos_stock_rejected_total", "Sales rejected for insufficient stock", "{sales}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	pm.saleItems, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "pos_sale_items",
		Description: "Number of lines per sale",
		Unit:        "{items}",
		Boundaries:  []float64{1, 2, 3, 5, 10, 20, 50},
	})
	if err != nil {
		return nil, err
	}

	pm.lowStockCount, err = NewGauge(cfg.Meter, "pos_low_stock_count", "Number of products below their shop threshold", "{products}")
	if err != nil {
		return nil, err
	}
	pm.openSessionCount, err = NewGauge(cfg.Meter, "pos_open_session_count", "Number of open cash register sessions", "{sessions}")
	if err != nil {
		return nil, err
	}

	return pm, nil
}

// RecordSale records a sale with its status, amount and line count.
func (pm *POSMetrics) RecordSale(ctx context.Context, tenantID, shopID uuid.UUID, status string, total decimal.Decimal, items int) {
	pm.saleCreatedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrShopID.String(shopID.String()),
		AttrSaleStatus.String(status),
	)
	pm.saleAmountTotal.Add(ctx, toMinorUnits(total),
		AttrTenantID.String(tenantID.String()),
		AttrShopID.String(shopID.String()),
	)
	pm.saleItems.Record(ctx, float64(items), AttrTenantID.String(tenantID.String()))
}

// RecordPayment records a tender by method.
func (pm *POSMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, method string, kind PaymentKind, amount decimal.Decimal) {
	pm.paymentTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrPaymentMethod.String(method),
		AttrPaymentKind.String(string(kind)),
	)
	pm.paymentAmountTotal.Add(ctx, toMinorUnits(amount),
		AttrTenantID.String(tenantID.String()),
		AttrPaymentMethod.String(method),
		AttrPaymentKind.String(string(kind)),
	)
}

// RecordSaleCancelled counts a voided sale.
func (pm *POSMetrics) RecordSaleCancelled(ctx context.Context, tenantID uuid.UUID) {
	pm.saleCancelledTotal.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// RecordSessionOpened counts an opened session.
func (pm *POSMetrics) RecordSessionOpened(ctx context.Context, tenantID, shopID uuid.UUID) {
	pm.sessionOpenedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrShopID.String(shopID.String()),
	)
}

// RecordSessionClosed counts a closed session.
func (pm *POSMetrics) RecordSessionClosed(ctx context.Context, tenantID, shopID uuid.UUID) {
	pm.sessionClosedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrShopID.String(shopID.String()),
	)
}

// RecordStockRejection counts a sale refused because a shop ran out of a product.
func (pm *POSMetrics) RecordStockRejection(ctx context.Context, tenantID, shopID uuid.UUID) {
	pm.stockRejectedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrShopID.String(shopID.String()),
	)
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// StartPeriodicCollection refreshes the gauges every interval (default: 5 minutes)
// until Stop is called or ctx is cancelled.
func (pm *POSMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	pm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go pm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

func (pm *POSMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pm.collect(ctx, tenantProvider)

	for {
		select {
		case <-pm.stopChan:
			pm.logger.Info("Stopping periodic POS metrics collection")
			return
		case <-ctx.Done():
			pm.logger.Info("Context cancelled, stopping periodic POS metrics collection")
			return
		case <-ticker.C:
			pm.collect(ctx, tenantProvider)
		}
	}
}

func (pm *POSMetrics) collect(ctx context.Context, tenantProvider TenantProvider) {
	if pm.stockProvider == nil {
		pm.logger.Debug("No stock provider configured, skipping gauge collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		pm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		lowByShop, err := pm.stockProvider.GetLowStockCountByShop(ctx, tenantID)
		if err != nil {
			pm.logger.Warn("Failed to get low stock count",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		} else {
			for shopID, count := range lowByShop {
				pm.lowStockCount.Record(ctx, count,
					AttrTenantID.String(tenantID.String()),
					AttrShopID.String(shopID.String()),
				)
			}
		}

		open, err := pm.stockProvider.GetOpenSessionCount(ctx, tenantID)
		if err != nil {
			pm.logger.Warn("Failed to get open session count",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		pm.openSessionCount.Record(ctx, open, AttrTenantID.String(tenantID.String()))
	}
}

// Stop stops the periodic collection.
func (pm *POSMetrics) Stop() {
	pm.stopOnce.Do(func() {
		close(pm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewPOSMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
