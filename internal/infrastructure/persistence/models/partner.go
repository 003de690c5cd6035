package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	TenantRoot
	Code          string                 `gorm:"type:varchar(50);not null;index"`
	Name          string                 `gorm:"type:varchar(200);not null"`
	Phone         string                 `gorm:"type:varchar(30);index"`
	Email         string                 `gorm:"type:varchar(200)"`
	Status        partner.CustomerStatus `gorm:"type:varchar(20);not null;default:'active'"`
	CreditBalance decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Notes         string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	customer := &partner.Customer{
		Code:          m.Code,
		Name:          m.Name,
		Phone:         m.Phone,
		Email:         m.Email,
		Status:        m.Status,
		CreditBalance: m.CreditBalance,
		Notes:         m.Notes,
	}
	m.ApplyTo(&customer.TenantAggregateRoot)
	return customer
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.CopyFrom(c.TenantAggregateRoot)
	m.Code = c.Code
	m.Name = c.Name
	m.Phone = c.Phone
	m.Email = c.Email
	m.Status = c.Status
	m.CreditBalance = c.CreditBalance
	m.Notes = c.Notes
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// CreditTransactionModel is the persistence model for the customer credit ledger.
type CreditTransactionModel struct {
	ID              uuid.UUID                     `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID                     `gorm:"type:uuid;not null;index:idx_credit_tx_customer,priority:1"`
	CustomerID      uuid.UUID                     `gorm:"type:uuid;not null;index:idx_credit_tx_customer,priority:2"`
	Type            partner.CreditTransactionType `gorm:"type:varchar(30);not null"`
	Amount          decimal.Decimal               `gorm:"type:decimal(18,2);not null"`
	BalanceBefore   decimal.Decimal               `gorm:"type:decimal(18,2);not null"`
	BalanceAfter    decimal.Decimal               `gorm:"type:decimal(18,2);not null"`
	SaleID          *uuid.UUID                    `gorm:"type:uuid;index"`
	Reference       string                        `gorm:"type:varchar(100)"`
	OperatorID      *uuid.UUID                    `gorm:"type:uuid"`
	TransactionDate time.Time                     `gorm:"not null;index:idx_credit_tx_customer,priority:3"`
}

// TableName returns the table name for GORM
func (CreditTransactionModel) TableName() string {
	return "customer_credit_transactions"
}

// ToDomain converts the persistence model to a domain CreditTransaction.
func (m *CreditTransactionModel) ToDomain() *partner.CreditTransaction {
	return &partner.CreditTransaction{
		ID:              m.ID,
		TenantID:        m.TenantID,
		CustomerID:      m.CustomerID,
		Type:            m.Type,
		Amount:          m.Amount,
		BalanceBefore:   m.BalanceBefore,
		BalanceAfter:    m.BalanceAfter,
		SaleID:          m.SaleID,
		Reference:       m.Reference,
		OperatorID:      m.OperatorID,
		TransactionDate: m.TransactionDate,
	}
}

// CreditTransactionModelFromDomain creates a new persistence model from a domain CreditTransaction.
func CreditTransactionModelFromDomain(t *partner.CreditTransaction) *CreditTransactionModel {
	return &CreditTransactionModel{
		ID:              t.ID,
		TenantID:        t.TenantID,
		CustomerID:      t.CustomerID,
		Type:            t.Type,
		Amount:          t.Amount,
		BalanceBefore:   t.BalanceBefore,
		BalanceAfter:    t.BalanceAfter,
		SaleID:          t.SaleID,
		Reference:       t.Reference,
		OperatorID:      t.OperatorID,
		TransactionDate: t.TransactionDate,
	}
}
