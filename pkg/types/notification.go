package types

import (
	"time"

	"github.com/google/uuid"
)

type CreateNotificationRequest struct {
	Title      string                 `json:"title" binding:"required"`
	Body       string                 `json:"body" binding:"required"`
	Data       map[string]interface{} `json:"data,omitempty"`
	TargetKind string                 `json:"target_kind" binding:"required"`
	TargetID   string                 `json:"target_id" binding:"required"`
}

// NotificationDispatched is the payload published to kafka after a send
// completes; the email worker consumes it.
type NotificationDispatched struct {
	NotificationID uuid.UUID  `json:"notification_id"`
	BusinessID     *uuid.UUID `json:"business_id,omitempty"`
	TownID         *uuid.UUID `json:"town_id,omitempty"`
	Title          string     `json:"title"`
	AudienceCount  int        `json:"audience_count"`
	Delivered      int        `json:"delivered"`
	Failed         int        `json:"failed"`
	SentAt         time.Time  `json:"sent_at"`
}
