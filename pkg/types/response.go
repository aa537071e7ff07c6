package types

import (
	"time"

	"github.com/google/uuid"
)

type QuotaStatus struct {
	Allowed   bool `json:"allowed"`
	Used      int  `json:"used"`
	Limit     *int `json:"limit"`
	Remaining *int `json:"remaining"`
}

type DispatchResult struct {
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

type SubscribedBusiness struct {
	SubscriptionID uuid.UUID  `json:"subscriptionId"`
	BusinessID     uuid.UUID  `json:"businessId"`
	BusinessName   string     `json:"businessName"`
	PlaceID        *uuid.UUID `json:"placeId,omitempty"`
	ImageURL       string     `json:"imageUrl,omitempty"`
	Tags           []string   `json:"tags"`
	SubscribedAt   time.Time  `json:"subscribedAt"`
}

type SubscribedPlace struct {
	SubscriptionID uuid.UUID `json:"subscriptionId"`
	PlaceID        uuid.UUID `json:"placeId"`
	PlaceName      string    `json:"placeName"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	Tags           []string  `json:"tags"`
	SubscribedAt   time.Time `json:"subscribedAt"`
}

type SubscriptionList struct {
	Businesses []SubscribedBusiness `json:"businesses"`
	Places     []SubscribedPlace    `json:"places"`
}

type InboxItem struct {
	NotificationID uuid.UUID  `json:"notification_id"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	SentAt         time.Time  `json:"sent_at"`
	ClickedAt      *time.Time `json:"clicked_at,omitempty"`
	Read           bool       `json:"read"`
}
