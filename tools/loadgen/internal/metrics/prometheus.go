// Package metrics exports load generator results as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/retailpos/tools/loadgen/internal/client"
)

// Exporter owns a private registry with the load generator metrics.
type Exporter struct {
	registry *prometheus.Registry
	server   *http.Server

	requestsTotal          *prometheus.CounterVec
	requestDurationSeconds *prometheus.HistogramVec
	businessErrorsTotal    *prometheus.CounterVec
	activeCashiers         prometheus.Gauge
	poolSize               *prometheus.GaugeVec
}

// NewExporter creates an exporter with the given namespace.
func NewExporter(namespace string) *Exporter {
	if namespace == "" {
		namespace = "pos_loadgen"
	}

	e := &Exporter{registry: prometheus.NewRegistry()}

	e.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of requests made by the load generator.",
		},
		[]string{"action", "status"},
	)
	e.requestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"action"},
	)
	e.businessErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "business_errors_total",
			Help:      "Error responses by business error code.",
		},
		[]string{"action", "code"},
	)
	e.activeCashiers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_cashiers",
			Help:      "Cashiers currently ringing up sales.",
		},
	)
	e.poolSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_size",
			Help:      "Identifiers held per kind.",
		},
		[]string{"kind"},
	)

	e.registry.MustRegister(
		e.requestsTotal,
		e.requestDurationSeconds,
		e.businessErrorsTotal,
		e.activeCashiers,
		e.poolSize,
	)
	return e
}

// RecordRequest records one completed request.
func (e *Exporter) RecordRequest(action string, result client.Result) {
	status := "error"
	if result.StatusCode > 0 {
		status = strconv.Itoa(result.StatusCode)
	}
	e.requestsTotal.WithLabelValues(action, status).Inc()
	e.requestDurationSeconds.WithLabelValues(action).Observe(result.Duration.Seconds())
	if result.ErrorCode != "" {
		e.businessErrorsTotal.WithLabelValues(action, result.ErrorCode).Inc()
	}
}

// SetActiveCashiers updates the active cashier gauge.
func (e *Exporter) SetActiveCashiers(n int) {
	e.activeCashiers.Set(float64(n))
}

// SetPoolSize updates the pool size gauge of kind.
func (e *Exporter) SetPoolSize(kind string, n int) {
	e.poolSize.WithLabelValues(kind).Set(float64(n))
}

// Registry returns the exporter's registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns the HTTP handler serving the metrics.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Start serves /metrics on addr in the background.
func (e *Exporter) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	e.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = ln.Close()
		}
	}()
	return nil
}

// Stop shuts the metrics server down.
func (e *Exporter) Stop(ctx context.Context) error {
	if e.server == nil {
		return nil
	}
	return e.server.Shutdown(ctx)
}
