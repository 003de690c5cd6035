package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByIDForTenant finds a customer by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)

	// FindByIDForUpdate finds a customer and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)

	// FindAllForTenant finds all customers for a tenant; supports search and status filters
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Customer, error)

	// CountForTenant counts customers for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// ExistsByCode checks if a customer with the given code exists in the tenant
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error
}

// CreditTransactionRepository stores the append-only credit ledger
type CreditTransactionRepository interface {
	// Create appends ledger rows; nil entries are skipped
	Create(ctx context.Context, entries ...*CreditTransaction) error

	// FindByCustomer lists a customer's entries, newest first
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]CreditTransaction, error)

	// CountByCustomer counts a customer's entries
	CountByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (int64, error)
}
