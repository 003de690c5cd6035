package inventory

import (
	"context"
	"fmt"

	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StockBelowMinimumHandler turns StockBelowMinimum events into shop alerts
type StockBelowMinimumHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// StockAlertNotifier is the interface for sending stock alerts
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert represents a stock level alert for one product at one shop
type StockAlert struct {
	TenantID        string `json:"tenant_id"`
	ShopID          string `json:"shop_id"`
	ProductID       string `json:"product_id"`
	CurrentQuantity string `json:"current_quantity"`
	MinimumQuantity string `json:"minimum_quantity"`
	AlertType       string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// NewStockBelowMinimumHandler creates a new handler for StockBelowMinimum events
func NewStockBelowMinimumHandler(logger *zap.Logger) *StockBelowMinimumHandler {
	return &StockBelowMinimumHandler{
		logger: logger,
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *StockBelowMinimumHandler) WithNotifier(notifier StockAlertNotifier) *StockBelowMinimumHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *StockBelowMinimumHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowMinimum}
}

// Handle processes a StockBelowMinimumEvent
func (h *StockBelowMinimumHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	belowEvent, ok := event.(*inventory.StockBelowMinimumEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowMinimum, event.EventType())
	}

	alertType := "low_stock"
	if belowEvent.Quantity.IsZero() {
		alertType = "out_of_stock"
	}

	h.logger.Warn("stock below minimum",
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("shop_id", belowEvent.ShopID.String()),
		zap.String("product_id", belowEvent.ProductID.String()),
		zap.String("quantity", belowEvent.Quantity.String()),
		zap.String("min_quantity", belowEvent.MinQuantity.String()),
		zap.String("alert_type", alertType),
	)

	if h.notifier == nil {
		return nil
	}
	alert := StockAlert{
		TenantID:        event.TenantID().String(),
		ShopID:          belowEvent.ShopID.String(),
		ProductID:       belowEvent.ProductID.String(),
		CurrentQuantity: belowEvent.Quantity.String(),
		MinimumQuantity: belowEvent.MinQuantity.String(),
		AlertType:       alertType,
	}
	if err := h.notifier.SendAlert(ctx, alert); err != nil {
		// Notification failure doesn't fail the event handling
		h.logger.Error("failed to send stock alert",
			zap.String("product_id", alert.ProductID),
			zap.Error(err),
		)
	}
	return nil
}

var _ shared.EventHandler = (*StockBelowMinimumHandler)(nil)

// LoggingStockAlertNotifier is a notifier that only logs alerts
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{
		logger: logger,
	}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("shop_id", alert.ShopID),
		zap.String("product_id", alert.ProductID),
		zap.String("current_qty", alert.CurrentQuantity),
		zap.String("minimum_qty", alert.MinimumQuantity),
	)
	return nil
}

var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
