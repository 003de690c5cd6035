// Package config provides the YAML configuration of the POS load generator.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Errors returned by the config package.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("config: invalid configuration")
	// ErrConfigNotFound is returned when the config file is not found.
	ErrConfigNotFound = errors.New("config: configuration file not found")
)

// Config is the root configuration structure for the load generator.
type Config struct {
	// Name is a descriptive name for this run.
	Name string `yaml:"name"`

	Target TargetConfig `yaml:"target"`

	// Duration is the total duration of the load test.
	// Default: 1m
	Duration time.Duration `yaml:"duration"`

	// Concurrency is the number of cashiers ringing up sales in parallel.
	// Each one opens its own register session.
	// Default: 4
	Concurrency int `yaml:"concurrency"`

	// QPS caps the request rate across all cashiers (0 means unlimited).
	QPS float64 `yaml:"qps"`

	// Burst is the rate limiter burst size.
	// Default: 1
	Burst int `yaml:"burst"`

	Seed SeedConfig `yaml:"seed"`

	// Mix weights the actions a cashier picks at each step.
	Mix MixConfig `yaml:"mix"`

	// PoolSize bounds the identifiers kept per kind.
	// Default: 1000
	PoolSize int `yaml:"poolSize"`

	Prometheus PrometheusConfig `yaml:"prometheus,omitempty"`
}

// TargetConfig describes the POS API under load.
type TargetConfig struct {
	// BaseURL is the server address, e.g. http://localhost:8080.
	BaseURL string `yaml:"baseURL"`

	// TenantID is sent as X-Tenant-ID. A random tenant is used when empty,
	// which keeps successive runs apart.
	TenantID string `yaml:"tenantID,omitempty"`

	// Token is sent as a Bearer token when set.
	Token string `yaml:"token,omitempty"`

	// Timeout is the per-request timeout.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// SeedConfig describes the catalog created before the run.
type SeedConfig struct {
	// ShopID is the shop the sessions and stock belong to. Random when empty.
	ShopID string `yaml:"shopID,omitempty"`

	// Products is the number of products created.
	// Default: 20
	Products int `yaml:"products"`

	// StockPerProduct is the quantity received for each product.
	// Default: 1000
	StockPerProduct int `yaml:"stockPerProduct"`

	// Customers is the number of credit customers created.
	// Default: 5
	Customers int `yaml:"customers"`

	// MaxLines is the maximum number of lines per sale.
	// Default: 3
	MaxLines int `yaml:"maxLines"`
}

// MixConfig weights the cashier actions. Zero disables an action.
type MixConfig struct {
	CashSale   int `yaml:"cashSale"`
	CreditSale int `yaml:"creditSale"`
	Settle     int `yaml:"settle"`
	Verify     int `yaml:"verify"`
	Cancel     int `yaml:"cancel"`
}

// Total returns the sum of the weights.
func (m MixConfig) Total() int {
	return m.CashSale + m.CreditSale + m.Settle + m.Verify + m.Cancel
}

// PrometheusConfig enables the metrics endpoint of the load generator.
type PrometheusConfig struct {
	// Addr is the listen address, e.g. ":9091". Disabled when empty.
	Addr string `yaml:"addr"`
}

// Default returns a configuration usable against a local server.
func Default() *Config {
	cfg := &Config{
		Name:   "pos-load",
		Target: TargetConfig{BaseURL: "http://localhost:8080"},
		Mix: MixConfig{
			CashSale:   60,
			CreditSale: 10,
			Settle:     10,
			Verify:     15,
			Cancel:     5,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Mix.Total() == 0 {
		cfg.Mix = Default().Mix
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Duration <= 0 {
		c.Duration = time.Minute
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 1000
	}
	if c.Target.Timeout <= 0 {
		c.Target.Timeout = 10 * time.Second
	}
	if c.Target.TenantID == "" {
		c.Target.TenantID = uuid.NewString()
	}
	if c.Seed.ShopID == "" {
		c.Seed.ShopID = uuid.NewString()
	}
	if c.Seed.Products <= 0 {
		c.Seed.Products = 20
	}
	if c.Seed.StockPerProduct <= 0 {
		c.Seed.StockPerProduct = 1000
	}
	if c.Seed.Customers <= 0 {
		c.Seed.Customers = 5
	}
	if c.Seed.MaxLines <= 0 {
		c.Seed.MaxLines = 3
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Target.BaseURL == "" {
		return fmt.Errorf("%w: target.baseURL is required", ErrInvalidConfig)
	}
	if _, err := uuid.Parse(c.Target.TenantID); err != nil {
		return fmt.Errorf("%w: target.tenantID must be a UUID", ErrInvalidConfig)
	}
	if _, err := uuid.Parse(c.Seed.ShopID); err != nil {
		return fmt.Errorf("%w: seed.shopID must be a UUID", ErrInvalidConfig)
	}
	if c.QPS < 0 {
		return fmt.Errorf("%w: qps must not be negative", ErrInvalidConfig)
	}
	m := c.Mix
	if m.CashSale < 0 || m.CreditSale < 0 || m.Settle < 0 || m.Verify < 0 || m.Cancel < 0 {
		return fmt.Errorf("%w: mix weights must not be negative", ErrInvalidConfig)
	}
	if m.Total() == 0 {
		return fmt.Errorf("%w: at least one mix weight must be positive", ErrInvalidConfig)
	}
	return nil
}
