// Package pool keeps the identifiers harvested from API responses so that
// later requests can reference entities created earlier in the run.
package pool

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// Kind names a family of identifiers.
type Kind string

const (
	KindProduct  Kind = "product"
	KindCustomer Kind = "customer"
	// KindOpenSale holds completed sales that can still be cancelled
	KindOpenSale Kind = "open_sale"
	// KindDueSale holds partially paid sales awaiting settlement
	KindDueSale Kind = "due_sale"
	// KindToken holds receipt verification tokens
	KindToken Kind = "token"
)

// Stats represents statistics about the pool.
type Stats struct {
	Adds      int64
	Hits      int64
	Misses    int64
	Evictions int64
	Sizes     map[Kind]int
}

// HitRate returns the hit rate as a percentage (0-100).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Pool is a thread-safe set of identifiers per kind. When a kind reaches
// MaxPerKind values the oldest one is evicted.
type Pool struct {
	mu         sync.Mutex
	values     map[Kind][]string
	maxPerKind int
	rng        *rand.Rand
	closed     atomic.Bool

	adds      atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New creates a pool. maxPerKind <= 0 means unlimited.
func New(maxPerKind int) *Pool {
	return &Pool{
		values:     make(map[Kind][]string),
		maxPerKind: maxPerKind,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Add stores a value and returns the number of values evicted to make room.
func (p *Pool) Add(kind Kind, value string) (int, error) {
	if p.closed.Load() {
		return 0, ErrPoolClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.adds.Add(1)
	evicted := 0
	values := p.values[kind]
	if p.maxPerKind > 0 && len(values) >= p.maxPerKind {
		// FIFO eviction
		values = values[1:]
		evicted = 1
		p.evictions.Add(1)
	}
	p.values[kind] = append(values, value)
	return evicted, nil
}

// Random returns a random value of kind and leaves it in the pool.
func (p *Pool) Random(kind Kind) (string, error) {
	if p.closed.Load() {
		return "", ErrPoolClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	values := p.values[kind]
	if len(values) == 0 {
		p.misses.Add(1)
		return "", ErrEmpty
	}
	p.hits.Add(1)
	return values[p.rng.Intn(len(values))], nil
}

// Take removes and returns a random value of kind. Used for entities that
// can only be acted on once, such as a sale to cancel.
func (p *Pool) Take(kind Kind) (string, error) {
	if p.closed.Load() {
		return "", ErrPoolClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	values := p.values[kind]
	if len(values) == 0 {
		p.misses.Add(1)
		return "", ErrEmpty
	}
	p.hits.Add(1)
	i := p.rng.Intn(len(values))
	value := values[i]
	values[i] = values[len(values)-1]
	p.values[kind] = values[:len(values)-1]
	return value, nil
}

// Count returns the number of values of kind.
func (p *Pool) Count(kind Kind) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.values[kind])
}

// Stats returns statistics about the pool.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	sizes := make(map[Kind]int, len(p.values))
	for kind, values := range p.values {
		sizes[kind] = len(values)
	}
	p.mu.Unlock()

	return Stats{
		Adds:      p.adds.Load(),
		Hits:      p.hits.Load(),
		Misses:    p.misses.Load(),
		Evictions: p.evictions.Load(),
		Sizes:     sizes,
	}
}

// Close releases the stored values. Further operations return ErrPoolClosed.
func (p *Pool) Close() {
	if p.closed.Swap(true) {
		return
	}
	p.mu.Lock()
	p.values = make(map[Kind][]string)
	p.mu.Unlock()
}
