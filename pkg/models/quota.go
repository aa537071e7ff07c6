package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OwnerKindBusiness = "business"
	OwnerKindTown     = "town"

	ResourceNotification = "notification"
	ResourceEvent        = "event"
)

// QuotaCounter tracks monthly usage per (owner, resource) pair.
// A nil Limit means the owner is not capped for that resource.
type QuotaCounter struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_owner_resource" json:"owner_id"`
	OwnerKind    string    `gorm:"size:20;not null;uniqueIndex:idx_owner_resource" json:"owner_kind"`
	ResourceKind string    `gorm:"size:20;not null;uniqueIndex:idx_owner_resource" json:"resource_kind"`
	Used         int       `gorm:"not null;default:0" json:"used"`
	Limit        *int      `gorm:"column:quota_limit" json:"limit"`
	ResetAt      time.Time `gorm:"not null;index" json:"reset_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (q *QuotaCounter) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
