package runner

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/retailpos/tools/loadgen/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCashier struct {
	steps  atomic.Int64
	closed atomic.Bool
	fail   bool
}

func (c *fakeCashier) Step(ctx context.Context) (string, client.Result, error) {
	n := c.steps.Add(1)
	if c.fail && n%2 == 0 {
		result := client.Result{StatusCode: http.StatusUnprocessableEntity, ErrorCode: "INSUFFICIENT_STOCK", Duration: time.Millisecond}
		return "cash_sale", result, &client.APIError{Result: result}
	}
	return "cash_sale", client.Result{StatusCode: http.StatusCreated, Duration: time.Millisecond}, nil
}

func (c *fakeCashier) Close(context.Context) error {
	c.closed.Store(true)
	return nil
}

type fakeWorkload struct {
	mu       sync.Mutex
	cashiers []*fakeCashier
	failAt   int
	fail     bool
}

func (w *fakeWorkload) NewCashier(_ context.Context, n int) (Cashier, error) {
	if w.failAt > 0 && n == w.failAt {
		return nil, errors.New("ALREADY_OPEN")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	c := &fakeCashier{fail: w.fail}
	w.cashiers = append(w.cashiers, c)
	return c, nil
}

type countingRecorder struct {
	requests atomic.Int64
	active   atomic.Int64
}

func (r *countingRecorder) RecordRequest(string, client.Result) { r.requests.Add(1) }
func (r *countingRecorder) SetActiveCashiers(n int)             { r.active.Store(int64(n)) }

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Duration: time.Second, Concurrency: 1}, nil, nil)
	assert.Error(t, err)
	_, err = New(Config{Duration: time.Second}, &fakeWorkload{}, nil)
	assert.Error(t, err)
	_, err = New(Config{Concurrency: 1}, &fakeWorkload{}, nil)
	assert.Error(t, err)
}

func TestRunner_Run(t *testing.T) {
	workload := &fakeWorkload{fail: true}
	recorder := &countingRecorder{}
	r, err := New(Config{Duration: 100 * time.Millisecond, Concurrency: 3, QPS: 200, Burst: 1}, workload, recorder)
	require.NoError(t, err)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, workload.cashiers, 3)
	for _, c := range workload.cashiers {
		assert.True(t, c.closed.Load())
	}
	assert.Positive(t, summary.Total)
	assert.Equal(t, summary.Total, summary.Succeeded+summary.Failed)
	assert.Equal(t, summary.Failed, summary.ErrorCodes["INSUFFICIENT_STOCK"])
	assert.Equal(t, summary.Total, recorder.requests.Load())
	assert.Zero(t, recorder.active.Load())
	// 200 QPS for 100ms leaves room for about 21 requests
	assert.LessOrEqual(t, summary.Total, int64(30))

	var out bytes.Buffer
	summary.Print(&out)
	assert.Contains(t, out.String(), "cash_sale")
	assert.Contains(t, out.String(), "INSUFFICIENT_STOCK")
}

func TestRunner_StartFailureClosesOpenedCashiers(t *testing.T) {
	workload := &fakeWorkload{failAt: 2}
	r, err := New(Config{Duration: time.Second, Concurrency: 4}, workload, nil)
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.Error(t, err)
	require.Len(t, workload.cashiers, 2)
	for _, c := range workload.cashiers {
		assert.True(t, c.closed.Load())
	}
}

func TestRunner_StopsOnContextCancel(t *testing.T) {
	workload := &fakeWorkload{}
	r, err := New(Config{Duration: time.Hour, Concurrency: 2, QPS: 1000}, workload, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_, _ = r.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
}

func TestSummary_Record(t *testing.T) {
	s := newSummary()
	s.record("verify", client.Result{StatusCode: 200, Duration: 2 * time.Millisecond}, nil)
	s.record("verify", client.Result{StatusCode: 404, Duration: 4 * time.Millisecond}, errors.New("not found"))
	s.record("verify", client.Result{}, errors.New("connection refused"))

	assert.Equal(t, int64(3), s.Total)
	assert.Equal(t, int64(1), s.Succeeded)
	assert.Equal(t, int64(1), s.ErrorCodes["HTTP_404"])
	assert.Equal(t, int64(1), s.ErrorCodes["TRANSPORT"])
	assert.Equal(t, 4*time.Millisecond, s.Actions["verify"].MaxDuration)
	assert.Equal(t, 2*time.Millisecond, s.Actions["verify"].AvgDuration())
}
