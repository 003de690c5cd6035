// Package scenario models a shop floor: it seeds a catalog with stock and
// credit customers, then lets each cashier ring up, settle, verify and void
// sales against the POS API.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/retailpos/tools/loadgen/internal/client"
	"github.com/retailpos/tools/loadgen/internal/config"
	"github.com/retailpos/tools/loadgen/internal/pool"
	"github.com/shopspring/decimal"
)

// Actions a cashier performs.
const (
	ActionCashSale   = "cash_sale"
	ActionCreditSale = "credit_sale"
	ActionSettle     = "settle"
	ActionVerify     = "verify"
	ActionCancel     = "cancel"
)

// Doer sends one API request. *client.Client implements it.
type Doer interface {
	Do(ctx context.Context, method, path string, body, out any) (client.Result, error)
}

type idResponse struct {
	ID string `json:"id"`
}

type saleResponse struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	AmountDue         decimal.Decimal `json:"amount_due"`
	VerificationToken string          `json:"verification_token"`
}

// Scenario holds the seeded catalog shared by all cashiers.
type Scenario struct {
	api    Doer
	pool   *pool.Pool
	cfg    *config.Config
	shopID string

	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// New creates a scenario over api. Identifiers are kept in p.
func New(api Doer, p *pool.Pool, cfg *config.Config) *Scenario {
	return &Scenario{
		api:    api,
		pool:   p,
		cfg:    cfg,
		shopID: cfg.Seed.ShopID,
		prices: make(map[string]decimal.Decimal),
	}
}

// Seed creates the products, receives their stock and creates the credit
// customers.
func (s *Scenario) Seed(ctx context.Context) error {
	faker := gofakeit.New(0)
	run := strings.ToUpper(faker.LetterN(4))

	for i := 0; i < s.cfg.Seed.Products; i++ {
		price := decimal.NewFromFloat(faker.Price(0.5, 50)).Round(2)
		var product idResponse
		if _, err := s.api.Do(ctx, http.MethodPost, "/api/v1/catalog/products", map[string]any{
			"code":          fmt.Sprintf("LG-%s-%04d", run, i),
			"name":          faker.ProductName(),
			"unit":          "pcs",
			"selling_price": price.String(),
		}, &product); err != nil {
			return fmt.Errorf("creating product: %w", err)
		}

		if _, err := s.api.Do(ctx, http.MethodPost, "/api/v1/inventory/stock/receive", map[string]any{
			"shop_id":      s.shopID,
			"product_id":   product.ID,
			"quantity":     strconv.Itoa(s.cfg.Seed.StockPerProduct),
			"min_quantity": "10",
			"reference":    "LOADGEN-" + run,
		}, nil); err != nil {
			return fmt.Errorf("receiving stock: %w", err)
		}

		s.mu.Lock()
		s.prices[product.ID] = price
		s.mu.Unlock()
		if _, err := s.pool.Add(pool.KindProduct, product.ID); err != nil {
			return err
		}
	}

	for i := 0; i < s.cfg.Seed.Customers; i++ {
		var customer idResponse
		if _, err := s.api.Do(ctx, http.MethodPost, "/api/v1/customers", map[string]any{
			"code":  fmt.Sprintf("LG-%s-C%03d", run, i),
			"name":  faker.Name(),
			"phone": faker.Phone(),
		}, &customer); err != nil {
			return fmt.Errorf("creating customer: %w", err)
		}
		if _, err := s.pool.Add(pool.KindCustomer, customer.ID); err != nil {
			return err
		}
	}
	return nil
}

// Cashier is one register session driven by a single goroutine.
type Cashier struct {
	scenario  *Scenario
	sessionID string
	rng       *rand.Rand
}

// OpenCashier opens a register session for a new cashier.
func (s *Scenario) OpenCashier(ctx context.Context, n int) (*Cashier, error) {
	var session idResponse
	if _, err := s.api.Do(ctx, http.MethodPost, "/api/v1/pos/sessions", map[string]any{
		"shop_id":        s.shopID,
		"cashier_id":     uuid.NewString(),
		"opening_amount": "100",
		"notes":          fmt.Sprintf("loadgen cashier %d", n),
	}, &session); err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	return &Cashier{
		scenario:  s,
		sessionID: session.ID,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano() + int64(n))),
	}, nil
}

// SessionID returns the cashier's register session.
func (c *Cashier) SessionID() string {
	return c.sessionID
}

// Close closes the cashier's session without a cash count.
func (c *Cashier) Close(ctx context.Context) error {
	_, err := c.scenario.api.Do(ctx, http.MethodPost, "/api/v1/pos/sessions/"+c.sessionID+"/close", map[string]any{
		"closing_notes": "loadgen run finished",
	}, nil)
	return err
}

// Step performs one weighted random action. Actions that need an entity the
// pool does not hold yet fall back to a cash sale.
func (c *Cashier) Step(ctx context.Context) (string, client.Result, error) {
	switch c.pick() {
	case ActionCreditSale:
		if customerID, err := c.scenario.pool.Random(pool.KindCustomer); err == nil {
			result, err := c.creditSale(ctx, customerID)
			return ActionCreditSale, result, err
		}
	case ActionSettle:
		if due, err := c.scenario.pool.Take(pool.KindDueSale); err == nil {
			result, err := c.settle(ctx, due)
			return ActionSettle, result, err
		}
	case ActionVerify:
		if token, err := c.scenario.pool.Random(pool.KindToken); err == nil {
			result, err := c.scenario.api.Do(ctx, http.MethodGet, "/api/v1/public/sales/verify/"+token, nil, nil)
			return ActionVerify, result, err
		}
	case ActionCancel:
		if saleID, err := c.scenario.pool.Take(pool.KindOpenSale); err == nil {
			result, err := c.scenario.api.Do(ctx, http.MethodPost, "/api/v1/pos/sales/"+saleID+"/cancel", map[string]any{
				"reason": "loadgen void",
			}, nil)
			return ActionCancel, result, err
		}
	}
	result, err := c.cashSale(ctx)
	return ActionCashSale, result, err
}

func (c *Cashier) pick() string {
	mix := c.scenario.cfg.Mix
	n := c.rng.Intn(mix.Total())
	for _, w := range []struct {
		action string
		weight int
	}{
		{ActionCashSale, mix.CashSale},
		{ActionCreditSale, mix.CreditSale},
		{ActionSettle, mix.Settle},
		{ActionVerify, mix.Verify},
		{ActionCancel, mix.Cancel},
	} {
		if n < w.weight {
			return w.action
		}
		n -= w.weight
	}
	return ActionCashSale
}

// basket picks up to MaxLines distinct products and returns the lines with
// their total.
func (c *Cashier) basket() ([]map[string]any, decimal.Decimal, error) {
	lines := c.rng.Intn(c.scenario.cfg.Seed.MaxLines) + 1
	seen := make(map[string]bool, lines)
	items := make([]map[string]any, 0, lines)
	total := decimal.Zero

	for i := 0; i < lines; i++ {
		productID, err := c.scenario.pool.Random(pool.KindProduct)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if seen[productID] {
			continue
		}
		seen[productID] = true

		qty := c.rng.Intn(3) + 1
		c.scenario.mu.RLock()
		price := c.scenario.prices[productID]
		c.scenario.mu.RUnlock()

		total = total.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		items = append(items, map[string]any{
			"product_id": productID,
			"quantity":   strconv.Itoa(qty),
		})
	}
	return items, total, nil
}

// cashSale tenders a rounded-up cash amount so that change is given.
func (c *Cashier) cashSale(ctx context.Context) (client.Result, error) {
	items, total, err := c.basket()
	if err != nil {
		return client.Result{}, err
	}
	tendered := total.Div(decimal.NewFromInt(10)).Ceil().Mul(decimal.NewFromInt(10))
	if tendered.Equal(total) {
		tendered = tendered.Add(decimal.NewFromInt(10))
	}

	var sale saleResponse
	result, err := c.scenario.api.Do(ctx, http.MethodPost, "/api/v1/pos/sales", map[string]any{
		"session_id": c.sessionID,
		"items":      items,
		"payments":   []map[string]any{{"method": "CASH", "amount": tendered.String()}},
		"client_ref": "LG-" + uuid.NewString(),
	}, &sale)
	if err != nil {
		return result, err
	}
	c.keep(pool.KindOpenSale, sale.ID)
	c.keep(pool.KindToken, sale.VerificationToken)
	return result, nil
}

// creditSale pays half by mobile money and leaves the rest on the customer's
// account.
func (c *Cashier) creditSale(ctx context.Context, customerID string) (client.Result, error) {
	items, total, err := c.basket()
	if err != nil {
		return client.Result{}, err
	}
	paid := total.Div(decimal.NewFromInt(2)).RoundFloor(2)

	var sale saleResponse
	result, err := c.scenario.api.Do(ctx, http.MethodPost, "/api/v1/pos/sales", map[string]any{
		"session_id":  c.sessionID,
		"customer_id": customerID,
		"items":       items,
		"payments":    []map[string]any{{"method": "MOBILE_MONEY", "amount": paid.String(), "reference": "MM-" + uuid.NewString()[:8]}},
		"client_ref":  "LG-" + uuid.NewString(),
	}, &sale)
	if err != nil {
		return result, err
	}
	c.keep(pool.KindToken, sale.VerificationToken)
	if sale.AmountDue.IsPositive() {
		c.keep(pool.KindDueSale, sale.ID+"|"+sale.AmountDue.String())
	}
	return result, nil
}

// settle pays the full amount due of a sale taken from the pool.
func (c *Cashier) settle(ctx context.Context, entry string) (client.Result, error) {
	saleID, due, ok := strings.Cut(entry, "|")
	if !ok {
		return client.Result{}, errors.New("malformed due sale entry")
	}
	return c.scenario.api.Do(ctx, http.MethodPost, "/api/v1/pos/sales/"+saleID+"/payments", map[string]any{
		"session_id": c.sessionID,
		"method":     "CASH",
		"amount":     due,
	}, nil)
}

func (c *Cashier) keep(kind pool.Kind, value string) {
	if value != "" {
		_, _ = c.scenario.pool.Add(kind, value)
	}
}
