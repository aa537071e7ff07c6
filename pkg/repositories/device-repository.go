package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cwmaia/townhub/pkg/models"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Upsert registers a token, taking ownership away from any previous user.
// A reinstalled app re-registering under a new account must steal the token.
func (r *DeviceRepository) Upsert(userID uuid.UUID, token, platform string) error {
	now := time.Now()
	device := models.DeviceToken{
		Token:      token,
		UserID:     userID,
		Platform:   platform,
		IsActive:   true,
		LastUsedAt: now,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "token"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"user_id":      userID,
			"platform":     platform,
			"is_active":    true,
			"last_used_at": now,
			"updated_at":   now,
		}),
	}).Create(&device).Error
}

func (r *DeviceRepository) Deactivate(token string) error {
	return r.db.Model(&models.DeviceToken{}).
		Where("token = ?", token).
		Update("is_active", false).Error
}

// ActiveTokensForUsers returns active delivery endpoints for the user set.
// Users without devices simply contribute nothing.
func (r *DeviceRepository) ActiveTokensForUsers(userIDs []uuid.UUID) ([]models.DeviceToken, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var tokens []models.DeviceToken
	err := r.db.Where("user_id IN ? AND is_active = ?", userIDs, true).Find(&tokens).Error
	return tokens, err
}

func (r *DeviceRepository) ListByUser(userID uuid.UUID) ([]models.DeviceToken, error) {
	var tokens []models.DeviceToken
	err := r.db.Where("user_id = ?", userID).Find(&tokens).Error
	return tokens, err
}
