package pos

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PromotionType selects the discount formula
type PromotionType string

const (
	PromotionTypePercentage  PromotionType = "PERCENTAGE"
	PromotionTypeFixedAmount PromotionType = "FIXED_AMOUNT"
)

// IsValid checks if the type is a valid PromotionType
func (t PromotionType) IsValid() bool {
	return t == PromotionTypePercentage || t == PromotionTypeFixedAmount
}

// String returns the string representation of PromotionType
func (t PromotionType) String() string {
	return string(t)
}

var maxPercentage = decimal.NewFromInt(100)

// Promotion is a discount rule limited to a date window and optionally to a
// shop and a set of products
type Promotion struct {
	shared.TenantAggregateRoot
	Name       string
	Type       PromotionType
	Value      decimal.Decimal
	StartsAt   time.Time
	EndsAt     time.Time
	IsActive   bool
	ShopID     *uuid.UUID
	ProductIDs []uuid.UUID
}

// NewPromotion creates an active promotion
func NewPromotion(tenantID uuid.UUID, name string, promoType PromotionType, value decimal.Decimal, startsAt, endsAt time.Time, shopID *uuid.UUID, productIDs []uuid.UUID) (*Promotion, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Promotion name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Promotion name cannot exceed 200 characters")
	}
	if !promoType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PROMOTION_TYPE", "Unknown promotion type: "+string(promoType))
	}
	if !value.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PROMOTION_VALUE", "Promotion value must be positive")
	}
	if promoType == PromotionTypePercentage && value.GreaterThan(maxPercentage) {
		return nil, shared.NewDomainError("INVALID_PROMOTION_VALUE", "Percentage cannot exceed 100")
	}
	if endsAt.Before(startsAt) {
		return nil, shared.NewDomainError("INVALID_PROMOTION_WINDOW", "Promotion end must not be before its start")
	}

	return &Promotion{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Type:                promoType,
		Value:               value,
		StartsAt:            startsAt,
		EndsAt:              endsAt,
		IsActive:            true,
		ShopID:              shopID,
		ProductIDs:          dedupeIDs(productIDs),
	}, nil
}

// DiscountFor returns the discount on a single unit priced at price
func (p *Promotion) DiscountFor(price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	switch p.Type {
	case PromotionTypePercentage:
		return valueobject.Percentage(price, p.Value)
	case PromotionTypeFixedAmount:
		return valueobject.RoundAmount(valueobject.MinAmount(p.Value, price))
	}
	return decimal.Zero
}

// LineDiscount returns the discount for quantity units, never more than the line amount
func (p *Promotion) LineDiscount(price, quantity decimal.Decimal) decimal.Decimal {
	gross := price.Mul(quantity)
	discount := valueobject.RoundAmount(p.DiscountFor(price).Mul(quantity))
	return valueobject.MinAmount(discount, gross)
}

// CheckApplicable returns an INVALID_PROMOTION error stating why the promotion
// cannot be applied to productID sold at shopID at the given time
func (p *Promotion) CheckApplicable(shopID, productID uuid.UUID, at time.Time) error {
	if !p.IsActive {
		return NewInvalidPromotionError(p.Name, "promotion is not active")
	}
	if at.Before(p.StartsAt) {
		return NewInvalidPromotionError(p.Name, "promotion has not started")
	}
	if at.After(p.EndsAt) {
		return NewInvalidPromotionError(p.Name, "promotion has expired")
	}
	if p.ShopID != nil && *p.ShopID != shopID {
		return NewInvalidPromotionError(p.Name, "promotion does not apply to this shop")
	}
	if !p.AppliesToProduct(productID) {
		return NewInvalidPromotionError(p.Name, "promotion does not apply to this product")
	}
	return nil
}

// IsApplicable reports whether CheckApplicable passes
func (p *Promotion) IsApplicable(shopID, productID uuid.UUID, at time.Time) bool {
	return p.CheckApplicable(shopID, productID, at) == nil
}

// AppliesToProduct is true when the product set is empty or contains productID
func (p *Promotion) AppliesToProduct(productID uuid.UUID) bool {
	if len(p.ProductIDs) == 0 {
		return true
	}
	for _, id := range p.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// Deactivate disables the promotion
func (p *Promotion) Deactivate() error {
	if !p.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Promotion is already inactive")
	}
	p.IsActive = false
	p.IncrementVersion()
	return nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
