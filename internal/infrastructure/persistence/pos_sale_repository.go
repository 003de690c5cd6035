package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByIDForTenant loads a sale with its items and payments
func (r *GormSaleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*pos.Sale, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByIDForUpdate loads a sale and locks its header row until the transaction ends
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*pos.Sale, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByVerificationToken looks a sale up by its public token, across tenants
func (r *GormSaleRepository) FindByVerificationToken(ctx context.Context, token string) (*pos.Sale, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("verification_token = ?", token))
}

// FindByClientRef finds the sale submitted with a client reference
func (r *GormSaleRepository) FindByClientRef(ctx context.Context, tenantID uuid.UUID, clientRef string) (*pos.Sale, error) {
	if clientRef == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, r.db.WithContext(ctx).Where("tenant_id = ? AND client_ref = ?", tenantID, clientRef))
}

// findOne loads the header with the given query, then the lines and payments
// in separate statements so a row lock only applies to the header.
func (r *GormSaleRepository) findOne(ctx context.Context, query *gorm.DB) (*pos.Sale, error) {
	var model models.SaleModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", model.ID).
		Order("position ASC").
		Find(&model.Items).Error; err != nil {
		return nil, fmt.Errorf("load sale items: %w", err)
	}
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", model.ID).
		Order("paid_at ASC, id ASC").
		Find(&model.Payments).Error; err != nil {
		return nil, fmt.Errorf("load sale payments: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists sale headers; items and payments are not loaded
func (r *GormSaleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]pos.Sale, error) {
	var saleModels []models.SaleModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SaleModel{}).Where("tenant_id = ?", tenantID), filter)
	query = saleSort.apply(query, filter)

	if err := query.Find(&saleModels).Error; err != nil {
		return nil, err
	}

	sales := make([]pos.Sale, len(saleModels))
	for i := range saleModels {
		sales[i] = *saleModels[i].ToDomain()
	}
	return sales, nil
}

// CountForTenant counts sales for a tenant
func (r *GormSaleRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SaleModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts the sale header, its items and its payments.
// A reused client_ref or reference surfaces as shared.ErrAlreadyExists.
func (r *GormSaleRepository) Create(ctx context.Context, sale *pos.Sale) error {
	if err := r.db.WithContext(ctx).Create(models.SaleModelFromDomain(sale)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update saves the header and appends payments that are not stored yet.
// Items are immutable once the sale exists.
func (r *GormSaleRepository) Update(ctx context.Context, sale *pos.Sale) error {
	model := models.SaleModelFromDomain(sale)
	db := r.db.WithContext(ctx)

	result := db.Model(&models.SaleModel{}).
		Where("tenant_id = ? AND id = ?", sale.TenantID, sale.ID).
		Updates(map[string]interface{}{
			"status":         model.Status,
			"amount_paid":    model.AmountPaid,
			"amount_due":     model.AmountDue,
			"notes":          model.Notes,
			"cancelled_at":   model.CancelledAt,
			"cancel_reason":  model.CancelReason,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
			"change_given":   model.ChangeGiven,
			"change_residue": model.ChangeResidue,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}

	if len(model.Payments) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Payments).Error
}

// GenerateReference issues the next PREFIX-YYYYMMDD-NNNNN reference for the tenant.
// The counter row is upserted inside the caller's transaction, so concurrent
// sales of one tenant get distinct numbers.
func (r *GormSaleRepository) GenerateReference(ctx context.Context, tenantID uuid.UUID, prefix string) (string, error) {
	day := time.Now().UTC().Format("20060102")
	counter := models.ReferenceCounterModel{
		TenantID:  tenantID,
		Scope:     prefix + "-" + day,
		LastValue: 1,
	}

	if err := r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "scope"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"last_value": gorm.Expr("pos_reference_counters.last_value + 1"),
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "last_value"}}},
	).Create(&counter).Error; err != nil {
		return "", fmt.Errorf("generate sale reference: %w", err)
	}

	return fmt.Sprintf("%s-%s-%05d", prefix, day, counter.LastValue), nil
}

// SumPaymentsBySession totals the payments received in a session per method.
// Payments of cancelled sales are left out.
func (r *GormSaleRepository) SumPaymentsBySession(ctx context.Context, tenantID, sessionID uuid.UUID) (pos.PaymentTotals, error) {
	var rows []struct {
		Method pos.PaymentMethod
		Total  decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Table("pos_sale_payments AS p").
		Select("p.method AS method, COALESCE(SUM(p.amount), 0) AS total").
		Joins("JOIN pos_sales AS s ON s.id = p.sale_id").
		Where("p.tenant_id = ? AND p.session_id = ? AND s.status <> ?", tenantID, sessionID, pos.SaleStatusCancelled).
		Group("p.method").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(pos.PaymentTotals, len(rows))
	for _, row := range rows {
		totals[row.Method] = row.Total
	}
	return totals, nil
}

// applyFilter applies filter options to the query
func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(reference) LIKE ?", likePattern(filter.Search))
	}

	for key, value := range filter.Filters {
		switch key {
		case "session_id":
			query = query.Where("session_id = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "shop_id":
			query = query.Where("shop_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		}
	}
	return query
}

// Ensure GormSaleRepository implements SaleRepository
var _ pos.SaleRepository = (*GormSaleRepository)(nil)
