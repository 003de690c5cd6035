package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AsyncHandlerConfig sizes the background queue of an AsyncHandler
type AsyncHandlerConfig struct {
	Workers   int
	QueueSize int
}

// DefaultAsyncHandlerConfig returns default configuration
func DefaultAsyncHandlerConfig() AsyncHandlerConfig {
	return AsyncHandlerConfig{
		Workers:   2,
		QueueSize: 256,
	}
}

type queuedEvent struct {
	ctx   context.Context
	event shared.DomainEvent
}

// AsyncHandler moves a slow handler off the publishing goroutine. Events are
// queued and handled by a small worker pool. When the queue is full the event
// is handled inline, so nothing is dropped under load.
type AsyncHandler struct {
	name    string
	handler shared.EventHandler
	config  AsyncHandlerConfig
	logger  *zap.Logger

	mu      sync.RWMutex
	queue   chan queuedEvent
	running bool
	wg      sync.WaitGroup
}

// NewAsyncHandler wraps handler. Until Start is called events are handled inline.
func NewAsyncHandler(name string, handler shared.EventHandler, config AsyncHandlerConfig, logger *zap.Logger) *AsyncHandler {
	defaults := DefaultAsyncHandlerConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	return &AsyncHandler{name: name, handler: handler, config: config, logger: logger}
}

func (h *AsyncHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle queues the event and returns. The request context is detached from
// cancellation because the caller has usually responded by the time it runs.
func (h *AsyncHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.running {
		select {
		case h.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
			return nil
		default:
			h.logger.Warn("Async handler queue full, handling inline",
				zap.String("handler", h.name),
				zap.String("event_id", event.EventID().String()),
			)
		}
	}
	return h.handler.Handle(ctx, event)
}

// Start launches the workers
func (h *AsyncHandler) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return nil
	}

	h.queue = make(chan queuedEvent, h.config.QueueSize)
	h.running = true
	for range h.config.Workers {
		h.wg.Add(1)
		go h.work(h.queue)
	}
	h.logger.Info("Async handler started",
		zap.String("handler", h.name),
		zap.Int("workers", h.config.Workers),
		zap.Int("queue_size", h.config.QueueSize),
	)
	return nil
}

// Stop closes the queue and waits for the workers to drain it
func (h *AsyncHandler) Stop(ctx context.Context) error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = false
	close(h.queue)
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("Async handler stopped", zap.String("handler", h.name))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *AsyncHandler) work(queue <-chan queuedEvent) {
	defer h.wg.Done()
	for q := range queue {
		if err := h.run(q); err != nil {
			h.logger.Error("Async event handler failed",
				zap.String("handler", h.name),
				zap.String("event_type", q.event.EventType()),
				zap.String("event_id", q.event.EventID().String()),
				zap.String("tenant_id", q.event.TenantID().String()),
				zap.Error(err),
			)
		}
	}
}

func (h *AsyncHandler) run(q queuedEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.handler.Handle(q.ctx, q.event)
}

var _ shared.EventHandler = (*AsyncHandler)(nil)
