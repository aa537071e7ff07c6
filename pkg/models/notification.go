package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusDraft   = "draft"
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID *uuid.UUID `gorm:"type:uuid;index" json:"business_id,omitempty"`
	TownID     *uuid.UUID `gorm:"type:uuid;index" json:"town_id,omitempty"`
	TargetKind string     `gorm:"size:20;not null;index" json:"target_kind"`
	TargetID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"target_id"`
	Title      string     `gorm:"size:200;not null" json:"title"`
	Body       string     `gorm:"type:text" json:"body"`
	Data       []byte     `gorm:"type:jsonb" json:"data,omitempty"`
	Status     string     `gorm:"size:20;not null;default:'draft';index" json:"status"`
	SentAt     *time.Time `json:"sent_at,omitempty"`

	AudienceCount int `gorm:"not null;default:0" json:"audience_count"`
	DeliveryCount int `gorm:"not null;default:0" json:"delivery_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NotificationDelivery is one row per (notification, recipient user). A user
// with several devices still gets a single row, created on the first device
// that accepts the push.
type NotificationDelivery struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	NotificationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_notification_user" json:"notification_id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_notification_user" json:"user_id"`
	SentAt         time.Time  `gorm:"autoCreateTime" json:"sent_at"`
	ClickedAt      *time.Time `json:"clicked_at,omitempty"`

	Notification Notification `gorm:"foreignKey:NotificationID;constraint:OnDelete:CASCADE" json:"-"`
}

type DeviceToken struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Token      string    `gorm:"size:255;not null;uniqueIndex" json:"token"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Platform   string    `gorm:"size:20;not null" json:"platform"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	LastUsedAt time.Time `json:"last_used_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func (d *NotificationDelivery) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (t *DeviceToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
