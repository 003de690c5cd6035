// Package runner drives concurrent cashiers for a fixed duration, paced by a
// shared rate limiter, and summarises the results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/retailpos/tools/loadgen/internal/client"
	"golang.org/x/time/rate"
)

// Cashier performs actions until the run ends.
type Cashier interface {
	Step(ctx context.Context) (action string, result client.Result, err error)
	Close(ctx context.Context) error
}

// Workload creates the cashiers of a run.
type Workload interface {
	NewCashier(ctx context.Context, n int) (Cashier, error)
}

// Recorder receives every step result, e.g. a Prometheus exporter.
type Recorder interface {
	RecordRequest(action string, result client.Result)
	SetActiveCashiers(n int)
}

// Config controls a run.
type Config struct {
	Duration    time.Duration
	Concurrency int
	// QPS caps the total request rate; 0 means unlimited
	QPS   float64
	Burst int
}

// Runner executes a workload.
type Runner struct {
	cfg      Config
	workload Workload
	limiter  *rate.Limiter
	recorder Recorder
	summary  *Summary
}

// New creates a runner. recorder may be nil.
func New(cfg Config, workload Workload, recorder Recorder) (*Runner, error) {
	if workload == nil {
		return nil, errors.New("runner: workload is required")
	}
	if cfg.Concurrency <= 0 {
		return nil, errors.New("runner: concurrency must be positive")
	}
	if cfg.Duration <= 0 {
		return nil, errors.New("runner: duration must be positive")
	}

	limit := rate.Inf
	if cfg.QPS > 0 {
		limit = rate.Limit(cfg.QPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Runner{
		cfg:      cfg,
		workload: workload,
		limiter:  rate.NewLimiter(limit, burst),
		recorder: recorder,
		summary:  newSummary(),
	}, nil
}

// Run opens the cashiers, lets them work until the duration elapses or ctx is
// cancelled, then closes their sessions.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	cashiers := make([]Cashier, 0, r.cfg.Concurrency)
	for i := 0; i < r.cfg.Concurrency; i++ {
		cashier, err := r.workload.NewCashier(ctx, i)
		if err != nil {
			r.closeAll(cashiers)
			return nil, fmt.Errorf("starting cashier %d: %w", i, err)
		}
		cashiers = append(cashiers, cashier)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	r.setActive(len(cashiers))
	for _, cashier := range cashiers {
		wg.Add(1)
		go func(c Cashier) {
			defer wg.Done()
			r.work(runCtx, c)
		}(cashier)
	}
	wg.Wait()
	r.summary.Elapsed = time.Since(start)
	r.setActive(0)

	r.closeAll(cashiers)
	return r.summary, nil
}

func (r *Runner) work(ctx context.Context, cashier Cashier) {
	for {
		if err := r.limiter.Wait(ctx); err != nil {
			return
		}
		action, result, err := cashier.Step(ctx)
		if ctx.Err() != nil && result.StatusCode == 0 {
			// Interrupted by the end of the run
			return
		}
		r.summary.record(action, result, err)
		if r.recorder != nil {
			r.recorder.RecordRequest(action, result)
		}
	}
}

func (r *Runner) closeAll(cashiers []Cashier) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, c := range cashiers {
		if err := c.Close(ctx); err != nil {
			r.summary.recordCloseError()
		}
	}
}

func (r *Runner) setActive(n int) {
	if r.recorder != nil {
		r.recorder.SetActiveCashiers(n)
	}
}

// ActionStats aggregates the results of one action.
type ActionStats struct {
	Count         int64
	Errors        int64
	TotalDuration time.Duration
	MaxDuration   time.Duration
}

// AvgDuration returns the mean request duration.
func (s ActionStats) AvgDuration() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Count)
}

// Summary is the outcome of a run.
type Summary struct {
	mu          sync.Mutex
	Total       int64
	Succeeded   int64
	Failed      int64
	CloseErrors int64
	Elapsed     time.Duration
	Actions     map[string]*ActionStats
	ErrorCodes  map[string]int64
}

func newSummary() *Summary {
	return &Summary{
		Actions:    make(map[string]*ActionStats),
		ErrorCodes: make(map[string]int64),
	}
}

func (s *Summary) record(action string, result client.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Total++
	stats, ok := s.Actions[action]
	if !ok {
		stats = &ActionStats{}
		s.Actions[action] = stats
	}
	stats.Count++
	stats.TotalDuration += result.Duration
	if result.Duration > stats.MaxDuration {
		stats.MaxDuration = result.Duration
	}

	if err == nil && result.Success() {
		s.Succeeded++
		return
	}
	s.Failed++
	stats.Errors++
	code := result.ErrorCode
	if code == "" {
		if result.StatusCode > 0 {
			code = fmt.Sprintf("HTTP_%d", result.StatusCode)
		} else {
			code = "TRANSPORT"
		}
	}
	s.ErrorCodes[code]++
}

func (s *Summary) recordCloseError() {
	s.mu.Lock()
	s.CloseErrors++
	s.mu.Unlock()
}

// QPS returns the achieved request rate.
func (s *Summary) QPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Total) / s.Elapsed.Seconds()
}

// Print writes a console report.
func (s *Summary) Print(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(w, "\nRequests: %d  succeeded: %d  failed: %d  elapsed: %s  qps: %.1f\n",
		s.Total, s.Succeeded, s.Failed, s.Elapsed.Round(time.Millisecond), s.QPS())

	actions := make([]string, 0, len(s.Actions))
	for a := range s.Actions {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	fmt.Fprintf(w, "\n%-14s %8s %8s %10s %10s\n", "ACTION", "COUNT", "ERRORS", "AVG", "MAX")
	for _, a := range actions {
		st := s.Actions[a]
		fmt.Fprintf(w, "%-14s %8d %8d %10s %10s\n", a, st.Count, st.Errors,
			st.AvgDuration().Round(time.Microsecond), st.MaxDuration.Round(time.Microsecond))
	}

	if len(s.ErrorCodes) > 0 {
		codes := make([]string, 0, len(s.ErrorCodes))
		for c := range s.ErrorCodes {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		fmt.Fprintln(w, "\nErrors:")
		for _, c := range codes {
			fmt.Fprintf(w, "  %-24s %d\n", c, s.ErrorCodes[c])
		}
	}
	if s.CloseErrors > 0 {
		fmt.Fprintf(w, "\nSessions failed to close: %d\n", s.CloseErrors)
	}
}
