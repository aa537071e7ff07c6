package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Town struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Slug      string    `gorm:"size:100;not null;uniqueIndex" json:"slug"`
	ImageURL  string    `gorm:"size:255" json:"image_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Business struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TownID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"town_id"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	PlaceID     *uuid.UUID `gorm:"type:uuid;index" json:"place_id,omitempty"`
	Name        string     `gorm:"size:150;not null;index" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	ImageURL    string     `gorm:"size:255" json:"image_url"`
	Tags        string     `gorm:"size:255" json:"tags"` // comma separated
	Plan        string     `gorm:"size:20;not null;default:'free'" json:"plan"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Town Town `gorm:"foreignKey:TownID;constraint:OnDelete:CASCADE" json:"-"`
}

type Place struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TownID    uuid.UUID `gorm:"type:uuid;not null;index" json:"town_id"`
	Name      string    `gorm:"size:150;not null;index" json:"name"`
	Category  string    `gorm:"size:50;index" json:"category"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	ImageURL  string    `gorm:"size:255" json:"image_url"`
	Tags      string    `gorm:"size:255" json:"tags"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Town Town `gorm:"foreignKey:TownID;constraint:OnDelete:CASCADE" json:"-"`
}

type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID  uuid.UUID `gorm:"type:uuid;not null;index" json:"business_id"`
	TownID      uuid.UUID `gorm:"type:uuid;not null;index" json:"town_id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	StartsAt    time.Time `gorm:"not null;index" json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	Business Business `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE" json:"-"`
}

func (t *Town) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (p *Place) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
