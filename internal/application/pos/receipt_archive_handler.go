package pos

import (
	"context"
	"fmt"
	"path"

	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReceiptStore persists rendered receipts
type ReceiptStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

// ReceiptArchiveHandler re-renders and stores the receipt every time a sale
// changes, so the archived copy always matches the sale's latest state
type ReceiptArchiveHandler struct {
	saleRepo pos.SaleRepository
	renderer ReceiptRenderer
	store    ReceiptStore
	logger   *zap.Logger
}

// NewReceiptArchiveHandler creates a new receipt archive handler
func NewReceiptArchiveHandler(saleRepo pos.SaleRepository, renderer ReceiptRenderer, store ReceiptStore, logger *zap.Logger) *ReceiptArchiveHandler {
	return &ReceiptArchiveHandler{
		saleRepo: saleRepo,
		renderer: renderer,
		store:    store,
		logger:   logger,
	}
}

func (h *ReceiptArchiveHandler) EventTypes() []string {
	return []string{
		pos.EventTypeSaleCreated,
		pos.EventTypeSaleCreditPaymentReceived,
		pos.EventTypeSaleCancelled,
	}
}

func (h *ReceiptArchiveHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if event.AggregateType() != pos.AggregateTypeSale {
		return fmt.Errorf("unexpected aggregate type %s for %s", event.AggregateType(), event.EventType())
	}

	sale, err := h.saleRepo.FindByIDForTenant(ctx, event.TenantID(), event.AggregateID())
	if err != nil {
		return fmt.Errorf("load sale %s: %w", event.AggregateID(), err)
	}
	body, err := h.renderer.Render(sale)
	if err != nil {
		return err
	}

	key := ReceiptKey(sale)
	if err := h.store.Put(ctx, key, "text/plain; charset=utf-8", []byte(body)); err != nil {
		return err
	}

	h.logger.Info("Receipt archived",
		zap.String("tenant_id", sale.TenantID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.String("reference", sale.Reference),
		zap.String("key", key),
		zap.String("trigger", event.EventType()),
	)
	return nil
}

// ReceiptKey is the object key of a sale's receipt: tenant/yyyy/mm/dd/reference.txt
func ReceiptKey(sale *pos.Sale) string {
	day := sale.CreatedAt.UTC().Format("2006/01/02")
	return path.Join(sale.TenantID.String(), day, sale.Reference+".txt")
}

var _ shared.EventHandler = (*ReceiptArchiveHandler)(nil)
