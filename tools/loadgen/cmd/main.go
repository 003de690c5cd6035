// Package main provides the CLI entry point for the POS load generator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/retailpos/tools/loadgen/internal/client"
	"github.com/retailpos/tools/loadgen/internal/config"
	"github.com/retailpos/tools/loadgen/internal/metrics"
	"github.com/retailpos/tools/loadgen/internal/pool"
	"github.com/retailpos/tools/loadgen/internal/runner"
	"github.com/retailpos/tools/loadgen/internal/scenario"
)

// Version information (populated at build time)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// CLI flags
var (
	configPath     string
	baseURL        string
	duration       time.Duration
	concurrency    int
	qps            float64
	validate       bool
	showVersion    bool
	prometheusAddr string
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to the YAML configuration file")
	flag.StringVar(&configPath, "c", "", "Path to the YAML configuration file (shorthand)")

	flag.StringVar(&baseURL, "url", "", "Override target base URL")
	flag.DurationVar(&duration, "duration", 0, "Override test duration (e.g., 5m, 1h)")
	flag.DurationVar(&duration, "d", 0, "Override test duration (shorthand)")
	flag.IntVar(&concurrency, "concurrency", 0, "Override the number of cashiers")
	flag.Float64Var(&qps, "qps", 0, "Override the request rate cap")

	flag.BoolVar(&validate, "validate", false, "Validate configuration and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.StringVar(&prometheusAddr, "prometheus", "", "Prometheus metrics endpoint (e.g., :9091)")

	flag.Usage = printUsage
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Load Generator - POS Load Testing Tool

USAGE:
    loadgen [-config <path>] [options]

DESCRIPTION:
    Seeds a tenant with products, stock and credit customers, then runs
    concurrent cashiers, each with its own register session, that ring up
    cash and credit sales, settle amounts due, verify receipts and void sales.
    Without -config the defaults target http://localhost:8080.

OPTIONS:
    -config, -c <path>    Path to the YAML configuration file
    -url <url>            Override target base URL
    -duration, -d <dur>   Override test duration (e.g., "5m")
    -concurrency <n>      Override the number of cashiers
    -qps <n>              Override the request rate cap
    -prometheus <addr>    Enable Prometheus metrics endpoint (e.g., :9091)
    -validate             Validate configuration and exit
    -version              Show version information

EXAMPLES:
    loadgen -config configs/pos.yaml
    loadgen -url http://localhost:8080 -duration 2m -concurrency 8 -qps 40
`)
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("loadgen %s (built %s, commit %s)\n", version, buildTime, gitCommit)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if validate {
		fmt.Println("Configuration is valid")
		return
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if baseURL != "" {
		cfg.Target.BaseURL = baseURL
	}
	if duration > 0 {
		cfg.Duration = duration
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	if qps > 0 {
		cfg.QPS = qps
	}
	if prometheusAddr != "" {
		cfg.Prometheus.Addr = prometheusAddr
	}
	return cfg, cfg.Validate()
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := client.New(cfg.Target)
	if err != nil {
		return err
	}

	ids := pool.New(cfg.PoolSize)
	defer ids.Close()

	var exporter *metrics.Exporter
	var recorder runner.Recorder
	if cfg.Prometheus.Addr != "" {
		exporter = metrics.NewExporter("pos_loadgen")
		if err := exporter.Start(cfg.Prometheus.Addr); err != nil {
			return fmt.Errorf("starting metrics endpoint: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = exporter.Stop(shutdownCtx)
		}()
		recorder = exporter
		go reportPoolSizes(ctx, ids, exporter)
	}

	fmt.Printf("Seeding tenant %s (shop %s) at %s\n", cfg.Target.TenantID, cfg.Seed.ShopID, cfg.Target.BaseURL)
	shop := scenario.New(api, ids, cfg)
	if err := shop.Seed(ctx); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}

	r, err := runner.New(runner.Config{
		Duration:    cfg.Duration,
		Concurrency: cfg.Concurrency,
		QPS:         cfg.QPS,
		Burst:       cfg.Burst,
	}, workload{shop}, recorder)
	if err != nil {
		return err
	}

	fmt.Printf("Running %q: %d cashiers for %s\n", cfg.Name, cfg.Concurrency, cfg.Duration)
	summary, err := r.Run(ctx)
	if err != nil {
		return err
	}
	summary.Print(os.Stdout)

	stats := ids.Stats()
	fmt.Printf("\nPool: %d ids added, hit rate %.1f%%\n", stats.Adds, stats.HitRate())
	return nil
}

// workload adapts the scenario to the runner.
type workload struct {
	shop *scenario.Scenario
}

func (w workload) NewCashier(ctx context.Context, n int) (runner.Cashier, error) {
	cashier, err := w.shop.OpenCashier(ctx, n)
	if err != nil {
		return nil, err
	}
	return cashier, nil
}

func reportPoolSizes(ctx context.Context, ids *pool.Pool, exporter *metrics.Exporter) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for kind, n := range ids.Stats().Sizes {
				exporter.SetPoolSize(string(kind), n)
			}
		}
	}
}
