package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig controls database instrumentation.
type DBConfig struct {
	Tracing            bool
	DBSystem           string // e.g. "postgresql"
	LogFullSQL         bool   // include bind variables in spans
	SlowQueryThreshold time.Duration
}

const dbStartKey = "telemetry:start"

// DBInstrumentation records query spans, query metrics and pool stats for a gorm DB.
type DBInstrumentation struct {
	cfg    DBConfig
	logger *zap.Logger

	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
	poolGauge      metric.Int64ObservableGauge
	registration   metric.Registration
}

// InstrumentDB registers otelgorm (when tracing is on) and the metric callbacks on db.
func InstrumentDB(db *gorm.DB, meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBInstrumentation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	in := &DBInstrumentation{cfg: cfg, logger: logger}

	if cfg.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, fmt.Errorf("register otelgorm: %w", err)
		}
	}

	var err error
	if in.queryTotal, err = NewCounter(meter, "db_query_total", "Total number of database queries", "{queries}"); err != nil {
		return nil, err
	}
	if in.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Queries slower than the slow query threshold", "{queries}"); err != nil {
		return nil, err
	}
	in.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query duration",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	if err := in.registerCallbacks(db); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if err := in.observePool(meter, sqlDB); err != nil {
		return nil, err
	}

	logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", cfg.Tracing),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
	)
	return in, nil
}

func (in *DBInstrumentation) registerCallbacks(db *gorm.DB) error {
	before := func(tx *gorm.DB) { tx.InstanceSet(dbStartKey, time.Now()) }
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) { in.record(tx, op) }
	}

	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("telemetry:before_create", before),
		cb.Create().After("gorm:create").Register("telemetry:after_create", after("insert")),
		cb.Query().Before("gorm:query").Register("telemetry:before_query", before),
		cb.Query().After("gorm:query").Register("telemetry:after_query", after("select")),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", before),
		cb.Update().After("gorm:update").Register("telemetry:after_update", after("update")),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", before),
		cb.Delete().After("gorm:delete").Register("telemetry:after_delete", after("delete")),
		cb.Row().Before("gorm:row").Register("telemetry:before_row", before),
		cb.Row().After("gorm:row").Register("telemetry:after_row", after("row")),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", before),
		cb.Raw().After("gorm:raw").Register("telemetry:after_raw", after("raw")),
	)
}

func (in *DBInstrumentation) record(tx *gorm.DB, op string) {
	v, ok := tx.InstanceGet(dbStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)

	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	attrs := AttrDBOperation.String(op)
	table := AttrDBTable.String(tx.Statement.Table)

	in.queryTotal.Inc(ctx, attrs, table)
	in.queryDuration.RecordDuration(ctx, elapsed, attrs, table)

	if elapsed < in.cfg.SlowQueryThreshold {
		return
	}
	in.slowQueryTotal.Inc(ctx, attrs, table)

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("table", tx.Statement.Table),
		zap.Duration("duration", elapsed),
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
	}
	if in.cfg.LogFullSQL {
		fields = append(fields, zap.String("sql", tx.Statement.SQL.String()))
	}
	in.logger.Warn("Slow query", fields...)
}

func (in *DBInstrumentation) observePool(meter metric.Meter, sqlDB *sql.DB) error {
	gauge, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Database pool connections by state"),
		metric.WithUnit("{connections}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create pool gauge: %w", err)
	}
	in.poolGauge = gauge

	in.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(gauge, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(gauge, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(gauge, int64(stats.MaxOpenConnections), metric.WithAttributes(AttrDBState.String("max")))
		return nil
	}, gauge)
	if err != nil {
		return fmt.Errorf("failed to register pool callback: %w", err)
	}
	return nil
}

// Stop unregisters the pool callback.
func (in *DBInstrumentation) Stop() error {
	if in.registration == nil {
		return nil
	}
	return in.registration.Unregister()
}
