package pos

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// SessionRepository persists cash register sessions.
// Every method is scoped to a tenant.
type SessionRepository interface {
	// FindByIDForTenant finds a session by ID
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CashRegisterSession, error)

	// FindByIDForUpdate finds a session and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*CashRegisterSession, error)

	// FindOpenByCashier returns the cashier's open session or shared.ErrNotFound
	FindOpenByCashier(ctx context.Context, tenantID, cashierID uuid.UUID) (*CashRegisterSession, error)

	// FindOpenByCashierForUpdate is FindOpenByCashier with a row lock
	FindOpenByCashierForUpdate(ctx context.Context, tenantID, cashierID uuid.UUID) (*CashRegisterSession, error)

	// FindAllForTenant lists sessions; supports shop_id, cashier_id and status filters
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]CashRegisterSession, error)

	// CountForTenant counts sessions matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates a session
	Save(ctx context.Context, session *CashRegisterSession) error
}

// SaleRepository persists sales with their items and payments
type SaleRepository interface {
	// FindByIDForTenant loads a sale with items and payments
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)

	// FindByIDForUpdate loads a sale and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)

	// FindByVerificationToken looks a sale up across tenants by its public token
	FindByVerificationToken(ctx context.Context, token string) (*Sale, error)

	// FindByClientRef finds a sale submitted with a client reference
	FindByClientRef(ctx context.Context, tenantID uuid.UUID, clientRef string) (*Sale, error)

	// FindAllForTenant lists sales; supports session_id, customer_id and status filters
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Sale, error)

	// CountForTenant counts sales matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Create inserts the sale, its items and its payments
	Create(ctx context.Context, sale *Sale) error

	// Update saves the sale header and inserts payments not yet stored
	Update(ctx context.Context, sale *Sale) error

	// GenerateReference returns the next PREFIX-YYYYMMDD-NNNNN reference for the tenant
	GenerateReference(ctx context.Context, tenantID uuid.UUID, prefix string) (string, error)

	// SumPaymentsBySession totals the payments received in a session per method
	SumPaymentsBySession(ctx context.Context, tenantID, sessionID uuid.UUID) (PaymentTotals, error)
}

// PromotionRepository persists promotions
type PromotionRepository interface {
	// FindByIDForTenant finds a promotion by ID
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Promotion, error)

	// FindAllForTenant lists promotions; supports is_active and shop_id filters
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Promotion, error)

	// CountForTenant counts promotions matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates a promotion
	Save(ctx context.Context, promotion *Promotion) error
}
