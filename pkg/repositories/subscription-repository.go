package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cwmaia/townhub/pkg/models"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// UpsertBusiness reactivates the existing (user, business) row or creates a
// new one. Deactivation history never produces a second row.
func (r *SubscriptionRepository) UpsertBusiness(userID, businessID uuid.UUID) (*models.BusinessSubscription, error) {
	sub := models.BusinessSubscription{
		UserID:     userID,
		BusinessID: businessID,
		IsActive:   true,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "business_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"is_active":  true,
			"updated_at": time.Now(),
		}),
	}).Create(&sub).Error
	if err != nil {
		return nil, err
	}
	var out models.BusinessSubscription
	if err := r.db.Where("user_id = ? AND business_id = ?", userID, businessID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *SubscriptionRepository) UpsertPlace(userID, placeID uuid.UUID) (*models.PlaceSubscription, error) {
	sub := models.PlaceSubscription{
		UserID:   userID,
		PlaceID:  placeID,
		IsActive: true,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "place_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"is_active":  true,
			"updated_at": time.Now(),
		}),
	}).Create(&sub).Error
	if err != nil {
		return nil, err
	}
	var out models.PlaceSubscription
	if err := r.db.Where("user_id = ? AND place_id = ?", userID, placeID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// DeactivateBusiness is a no-op when no row exists.
func (r *SubscriptionRepository) DeactivateBusiness(userID, businessID uuid.UUID) error {
	return r.db.Model(&models.BusinessSubscription{}).
		Where("user_id = ? AND business_id = ?", userID, businessID).
		Update("is_active", false).Error
}

func (r *SubscriptionRepository) DeactivatePlace(userID, placeID uuid.UUID) error {
	return r.db.Model(&models.PlaceSubscription{}).
		Where("user_id = ? AND place_id = ?", userID, placeID).
		Update("is_active", false).Error
}

func (r *SubscriptionRepository) IsSubscribedBusiness(userID, businessID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&models.BusinessSubscription{}).
		Where("user_id = ? AND business_id = ? AND is_active = ?", userID, businessID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *SubscriptionRepository) IsSubscribedPlace(userID, placeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&models.PlaceSubscription{}).
		Where("user_id = ? AND place_id = ? AND is_active = ?", userID, placeID, true).
		Count(&count).Error
	return count > 0, err
}

type BusinessSubscriptionRow struct {
	SubscriptionID uuid.UUID
	BusinessID     uuid.UUID
	BusinessName   string
	PlaceID        *uuid.UUID
	ImageURL       string
	Tags           string
	SubscribedAt   time.Time
}

type PlaceSubscriptionRow struct {
	SubscriptionID uuid.UUID
	PlaceID        uuid.UUID
	PlaceName      string
	ImageURL       string
	Tags           string
	SubscribedAt   time.Time
}

func (r *SubscriptionRepository) ListActiveBusinesses(userID uuid.UUID) ([]BusinessSubscriptionRow, error) {
	var rows []BusinessSubscriptionRow
	err := r.db.Model(&models.BusinessSubscription{}).
		Select(`business_subscriptions.id AS subscription_id,
			businesses.id AS business_id,
			businesses.name AS business_name,
			businesses.place_id,
			businesses.image_url,
			businesses.tags,
			business_subscriptions.created_at AS subscribed_at`).
		Joins("JOIN businesses ON businesses.id = business_subscriptions.business_id").
		Where("business_subscriptions.user_id = ? AND business_subscriptions.is_active = ?", userID, true).
		Order("business_subscriptions.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *SubscriptionRepository) ListActivePlaces(userID uuid.UUID) ([]PlaceSubscriptionRow, error) {
	var rows []PlaceSubscriptionRow
	err := r.db.Model(&models.PlaceSubscription{}).
		Select(`place_subscriptions.id AS subscription_id,
			places.id AS place_id,
			places.name AS place_name,
			places.image_url,
			places.tags,
			place_subscriptions.created_at AS subscribed_at`).
		Joins("JOIN places ON places.id = place_subscriptions.place_id").
		Where("place_subscriptions.user_id = ? AND place_subscriptions.is_active = ?", userID, true).
		Order("place_subscriptions.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

// ActiveUserIDs resolves the audience for a notification scope. Town scope
// unions subscribers of every business and place in the town.
func (r *SubscriptionRepository) ActiveUserIDs(targetKind string, targetID uuid.UUID) ([]uuid.UUID, error) {
	switch targetKind {
	case models.TargetKindBusiness:
		var ids []uuid.UUID
		err := r.db.Model(&models.BusinessSubscription{}).
			Where("business_id = ? AND is_active = ?", targetID, true).
			Pluck("user_id", &ids).Error
		return ids, err
	case models.TargetKindPlace:
		var ids []uuid.UUID
		err := r.db.Model(&models.PlaceSubscription{}).
			Where("place_id = ? AND is_active = ?", targetID, true).
			Pluck("user_id", &ids).Error
		return ids, err
	case models.TargetKindTown:
		var fromBusinesses []uuid.UUID
		err := r.db.Model(&models.BusinessSubscription{}).
			Joins("JOIN businesses ON businesses.id = business_subscriptions.business_id").
			Where("businesses.town_id = ? AND business_subscriptions.is_active = ?", targetID, true).
			Pluck("business_subscriptions.user_id", &fromBusinesses).Error
		if err != nil {
			return nil, err
		}
		var fromPlaces []uuid.UUID
		err = r.db.Model(&models.PlaceSubscription{}).
			Joins("JOIN places ON places.id = place_subscriptions.place_id").
			Where("places.town_id = ? AND place_subscriptions.is_active = ?", targetID, true).
			Pluck("place_subscriptions.user_id", &fromPlaces).Error
		if err != nil {
			return nil, err
		}
		seen := make(map[uuid.UUID]struct{}, len(fromBusinesses)+len(fromPlaces))
		var ids []uuid.UUID
		for _, id := range append(fromBusinesses, fromPlaces...) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		return ids, nil
	default:
		return nil, gorm.ErrRecordNotFound
	}
}
