package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// TenantRoot holds the columns every tenant-owned aggregate table carries.
// Version backs the optimistic lock checked by the repositories on update.
type TenantRoot struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Version   int        `gorm:"not null;default:1"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// CopyFrom fills the row header from an aggregate about to be written
func (r *TenantRoot) CopyFrom(root shared.TenantAggregateRoot) {
	r.ID = root.ID
	r.TenantID = root.TenantID
	r.Version = root.Version
	r.CreatedBy = root.CreatedBy
	r.CreatedAt = root.CreatedAt
	r.UpdatedAt = root.UpdatedAt
}

// ApplyTo restores the aggregate header of a loaded row
func (r *TenantRoot) ApplyTo(root *shared.TenantAggregateRoot) {
	root.ID = r.ID
	root.TenantID = r.TenantID
	root.Version = r.Version
	root.CreatedBy = r.CreatedBy
	root.CreatedAt = r.CreatedAt
	root.UpdatedAt = r.UpdatedAt
}
