package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/retailpos/tools/loadgen/internal/client"
	"github.com/retailpos/tools/loadgen/internal/config"
	"github.com/retailpos/tools/loadgen/internal/pool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	path   string
	body   map[string]any
}

// fakeAPI answers every request with a new id; sales get a token and, when a
// customer is set, an amount due.
type fakeAPI struct {
	mu    sync.Mutex
	calls []call
	next  int
	fail  map[string]string
}

func (f *fakeAPI) Do(_ context.Context, method, path string, body, out any) (client.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var m map[string]any
	if body != nil {
		raw, _ := json.Marshal(body)
		_ = json.Unmarshal(raw, &m)
	}
	f.calls = append(f.calls, call{method: method, path: path, body: m})

	if code, ok := f.fail[path]; ok {
		result := client.Result{Method: method, Path: path, StatusCode: http.StatusUnprocessableEntity, ErrorCode: code}
		return result, &client.APIError{Result: result}
	}

	f.next++
	data := map[string]any{"id": fmt.Sprintf("id-%d", f.next)}
	if path == "/api/v1/pos/sales" {
		data["verification_token"] = fmt.Sprintf("tok-%d", f.next)
		data["amount_due"] = "0"
		if m["customer_id"] != nil {
			data["amount_due"] = "7.5"
		}
	}
	if out != nil {
		raw, _ := json.Marshal(data)
		_ = json.Unmarshal(raw, out)
	}
	return client.Result{Method: method, Path: path, StatusCode: http.StatusCreated}, nil
}

func (f *fakeAPI) callsTo(path string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.path == path {
			out = append(out, c)
		}
	}
	return out
}

func newTestScenario(t *testing.T, mix config.MixConfig) (*Scenario, *fakeAPI, *pool.Pool) {
	t.Helper()

	cfg := config.Default()
	cfg.Seed.Products = 3
	cfg.Seed.Customers = 2
	cfg.Mix = mix

	api := &fakeAPI{}
	p := pool.New(100)
	s := New(api, p, cfg)
	require.NoError(t, s.Seed(context.Background()))
	return s, api, p
}

func TestScenario_Seed(t *testing.T) {
	s, api, p := newTestScenario(t, config.MixConfig{CashSale: 1})

	assert.Len(t, api.callsTo("/api/v1/catalog/products"), 3)
	receipts := api.callsTo("/api/v1/inventory/stock/receive")
	require.Len(t, receipts, 3)
	assert.Equal(t, s.shopID, receipts[0].body["shop_id"])
	assert.Equal(t, "1000", receipts[0].body["quantity"])
	assert.Len(t, api.callsTo("/api/v1/customers"), 2)

	assert.Equal(t, 3, p.Count(pool.KindProduct))
	assert.Equal(t, 2, p.Count(pool.KindCustomer))
}

func TestScenario_SeedStopsOnError(t *testing.T) {
	cfg := config.Default()
	api := &fakeAPI{fail: map[string]string{"/api/v1/inventory/stock/receive": "INVALID_QUANTITY"}}
	s := New(api, pool.New(0), cfg)

	err := s.Seed(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "receiving stock")
}

func TestCashier_CashSaleTendersMoreThanTotal(t *testing.T) {
	s, api, p := newTestScenario(t, config.MixConfig{CashSale: 1})
	cashier, err := s.OpenCashier(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, cashier.SessionID())

	action, result, err := cashier.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ActionCashSale, action)
	assert.True(t, result.Success())

	sales := api.callsTo("/api/v1/pos/sales")
	require.Len(t, sales, 1)
	body := sales[0].body
	assert.Equal(t, cashier.SessionID(), body["session_id"])
	assert.True(t, strings.HasPrefix(body["client_ref"].(string), "LG-"))

	total := decimal.Zero
	for _, item := range body["items"].([]any) {
		line := item.(map[string]any)
		qty := decimal.RequireFromString(line["quantity"].(string))
		total = total.Add(s.prices[line["product_id"].(string)].Mul(qty))
	}
	payment := body["payments"].([]any)[0].(map[string]any)
	assert.Equal(t, "CASH", payment["method"])
	assert.True(t, decimal.RequireFromString(payment["amount"].(string)).GreaterThan(total))

	assert.Equal(t, 1, p.Count(pool.KindOpenSale))
	assert.Equal(t, 1, p.Count(pool.KindToken))
}

func TestCashier_CreditSaleThenSettle(t *testing.T) {
	s, api, p := newTestScenario(t, config.MixConfig{CreditSale: 1})
	cashier, err := s.OpenCashier(context.Background(), 1)
	require.NoError(t, err)

	action, _, err := cashier.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ActionCreditSale, action)
	require.Equal(t, 1, p.Count(pool.KindDueSale))

	s.cfg.Mix = config.MixConfig{Settle: 1}
	action, _, err = cashier.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ActionSettle, action)
	assert.Zero(t, p.Count(pool.KindDueSale))

	var settlements []call
	for _, c := range api.calls {
		if strings.HasSuffix(c.path, "/payments") {
			settlements = append(settlements, c)
		}
	}
	require.Len(t, settlements, 1)
	assert.Equal(t, "7.5", settlements[0].body["amount"])
	assert.Equal(t, cashier.SessionID(), settlements[0].body["session_id"])
}

func TestCashier_FallsBackToCashSaleWhenPoolIsEmpty(t *testing.T) {
	s, _, _ := newTestScenario(t, config.MixConfig{Cancel: 1, Verify: 1, Settle: 1})
	cashier, err := s.OpenCashier(context.Background(), 1)
	require.NoError(t, err)

	action, _, err := cashier.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ActionCashSale, action)
}

func TestCashier_CancelAndVerifyUsePooledSales(t *testing.T) {
	s, api, p := newTestScenario(t, config.MixConfig{CashSale: 1})
	cashier, err := s.OpenCashier(context.Background(), 1)
	require.NoError(t, err)
	_, _, err = cashier.Step(context.Background())
	require.NoError(t, err)

	s.cfg.Mix = config.MixConfig{Verify: 1}
	action, _, err := cashier.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ActionVerify, action)
	assert.Equal(t, 1, p.Count(pool.KindToken))

	s.cfg.Mix = config.MixConfig{Cancel: 1}
	action, _, err = cashier.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ActionCancel, action)
	assert.Zero(t, p.Count(pool.KindOpenSale))

	var paths []string
	for _, c := range api.calls {
		paths = append(paths, c.path)
	}
	assert.Contains(t, strings.Join(paths, " "), "/api/v1/public/sales/verify/tok-")
	assert.Contains(t, strings.Join(paths, " "), "/cancel")
}

func TestCashier_Close(t *testing.T) {
	s, api, _ := newTestScenario(t, config.MixConfig{CashSale: 1})
	cashier, err := s.OpenCashier(context.Background(), 1)
	require.NoError(t, err)

	require.NoError(t, cashier.Close(context.Background()))
	assert.Len(t, api.callsTo("/api/v1/pos/sessions/"+cashier.SessionID()+"/close"), 1)
}
