package models

import (
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	TenantRoot
	Code         string                `gorm:"type:varchar(50);not null;index"`
	Name         string                `gorm:"type:varchar(200);not null"`
	Barcode      string                `gorm:"type:varchar(50);index"`
	Unit         string                `gorm:"type:varchar(20);not null"`
	SellingPrice decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Status       catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	product := &catalog.Product{
		Code:         m.Code,
		Name:         m.Name,
		Barcode:      m.Barcode,
		Unit:         m.Unit,
		SellingPrice: m.SellingPrice,
		Status:       m.Status,
	}
	m.ApplyTo(&product.TenantAggregateRoot)
	return product
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.CopyFrom(p.TenantAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.Barcode = p.Barcode
	m.Unit = p.Unit
	m.SellingPrice = p.SellingPrice
	m.Status = p.Status
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
