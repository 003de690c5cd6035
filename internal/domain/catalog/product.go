package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ProductStatus represents whether a product can be sold
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
)

// IsValid checks if the status is a valid ProductStatus
func (s ProductStatus) IsValid() bool {
	return s == ProductStatusActive || s == ProductStatusInactive
}

// Product is a sellable item with its current shelf price
type Product struct {
	shared.TenantAggregateRoot
	Code         string
	Name         string
	Barcode      string
	Unit         string
	SellingPrice decimal.Decimal
	Status       ProductStatus
}

// NewProduct creates an active product
func NewProduct(tenantID uuid.UUID, code, name, unit string, sellingPrice decimal.Decimal) (*Product, error) {
	if err := validateProductCode(code); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if unit == "" {
		unit = "pcs"
	}
	if len(unit) > 20 {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit cannot exceed 20 characters")
	}

	product := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.ToUpper(code),
		Name:                name,
		Unit:                unit,
		SellingPrice:        sellingPrice,
		Status:              ProductStatusActive,
	}
	if err := validateSellingPrice(sellingPrice); err != nil {
		return nil, err
	}
	product.AddDomainEvent(NewProductCreatedEvent(product))
	return product, nil
}

// SetSellingPrice changes the shelf price used by new sales
func (p *Product) SetSellingPrice(price decimal.Decimal) error {
	if err := validateSellingPrice(price); err != nil {
		return err
	}
	if price.Equal(p.SellingPrice) {
		return nil
	}
	old := p.SellingPrice
	p.SellingPrice = price
	p.IncrementVersion()
	p.AddDomainEvent(NewProductPriceChangedEvent(p, old))
	return nil
}

// SetBarcode sets the scannable barcode
func (p *Product) SetBarcode(barcode string) error {
	if len(barcode) > 50 {
		return shared.NewDomainError("INVALID_BARCODE", "Barcode cannot exceed 50 characters")
	}
	p.Barcode = barcode
	return nil
}

// Deactivate stops the product from being sold
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Product is already inactive")
	}
	p.Status = ProductStatusInactive
	p.IncrementVersion()
	return nil
}

// IsActive reports whether the product can be sold
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

func validateProductCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Product code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Product code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateSellingPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}
	if !valueobject.HasValidPrecision(price) {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot have more than 2 decimal places")
	}
	return nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
