package event

import (
	"context"

	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LogHandler writes one structured line per domain event.
type LogHandler struct {
	logger *zap.Logger
}

// NewLogHandler creates a wildcard handler logging to logger
func NewLogHandler(logger *zap.Logger) *LogHandler {
	return &LogHandler{logger: logger.Named("events")}
}

// EventTypes is empty: the handler receives every event
func (h *LogHandler) EventTypes() []string {
	return nil
}

func (h *LogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.logger.Info("Domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

var _ shared.EventHandler = (*LogHandler)(nil)
