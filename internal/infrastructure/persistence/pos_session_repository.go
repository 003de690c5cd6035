package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSessionRepository implements SessionRepository using GORM
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// FindByIDForTenant finds a session by ID within a tenant
func (r *GormSessionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*pos.CashRegisterSession, error) {
	return r.findOne(r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByIDForUpdate finds a session and locks the row until the transaction ends
func (r *GormSessionRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*pos.CashRegisterSession, error) {
	return r.findOne(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindOpenByCashier returns the cashier's open session
func (r *GormSessionRepository) FindOpenByCashier(ctx context.Context, tenantID, cashierID uuid.UUID) (*pos.CashRegisterSession, error) {
	return r.findOne(r.db.WithContext(ctx).
		Where("tenant_id = ? AND cashier_id = ? AND status = ?", tenantID, cashierID, pos.SessionStatusOpen))
}

// FindOpenByCashierForUpdate returns the cashier's open session and locks it
func (r *GormSessionRepository) FindOpenByCashierForUpdate(ctx context.Context, tenantID, cashierID uuid.UUID) (*pos.CashRegisterSession, error) {
	return r.findOne(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND cashier_id = ? AND status = ?", tenantID, cashierID, pos.SessionStatusOpen))
}

func (r *GormSessionRepository) findOne(query *gorm.DB) (*pos.CashRegisterSession, error) {
	var model models.CashRegisterSessionModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds sessions for a tenant
func (r *GormSessionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]pos.CashRegisterSession, error) {
	var sessionModels []models.CashRegisterSessionModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CashRegisterSessionModel{}).Where("tenant_id = ?", tenantID), filter)
	query = sessionSort.apply(query, filter)

	if err := query.Find(&sessionModels).Error; err != nil {
		return nil, err
	}

	sessions := make([]pos.CashRegisterSession, len(sessionModels))
	for i := range sessionModels {
		sessions[i] = *sessionModels[i].ToDomain()
	}
	return sessions, nil
}

// CountForTenant counts sessions for a tenant
func (r *GormSessionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CashRegisterSessionModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a session. A second OPEN session for the same
// cashier violates the partial unique index and is reported as ErrAlreadyOpen.
func (r *GormSessionRepository) Save(ctx context.Context, session *pos.CashRegisterSession) error {
	if err := r.db.WithContext(ctx).Save(models.CashRegisterSessionModelFromDomain(session)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pos.ErrAlreadyOpen
		}
		return err
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormSessionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "shop_id":
			query = query.Where("shop_id = ?", value)
		case "cashier_id":
			query = query.Where("cashier_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		}
	}
	return query
}

// Ensure GormSessionRepository implements SessionRepository
var _ pos.SessionRepository = (*GormSessionRepository)(nil)
