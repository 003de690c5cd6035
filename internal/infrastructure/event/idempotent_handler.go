package event

import (
	"context"
	"time"

	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotentHandler runs the wrapped handler at most once per event id.
// A failed run releases its claim so a redelivery can try again.
type IdempotentHandler struct {
	name    string
	handler shared.EventHandler
	store   shared.IdempotencyStore
	ttl     time.Duration
	logger  *zap.Logger
}

// NewIdempotentHandler wraps handler. name scopes the claims so that two
// handlers can each process the same event once.
func NewIdempotentHandler(name string, handler shared.EventHandler, store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) *IdempotentHandler {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotentHandler{name: name, handler: handler, store: store, ttl: ttl, logger: logger}
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := "event:" + h.name + ":" + event.EventID().String()

	claimed, err := h.store.MarkProcessed(ctx, key, h.ttl)
	if err != nil {
		// A lost claim store must not drop events
		h.logger.Warn("Idempotency check failed, handling anyway",
			zap.String("handler", h.name),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
		return h.handler.Handle(ctx, event)
	}
	if !claimed {
		h.logger.Debug("Duplicate event skipped",
			zap.String("handler", h.name),
			zap.String("event_id", event.EventID().String()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		if relErr := h.store.Release(ctx, key); relErr != nil {
			h.logger.Warn("Failed to release idempotency claim", zap.String("key", key), zap.Error(relErr))
		}
		return err
	}
	return nil
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
