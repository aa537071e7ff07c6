package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cwmaia/townhub/pkg/models"
	"github.com/cwmaia/townhub/pkg/repositories"
)

type DeviceService struct {
	repo *repositories.DeviceRepository
}

func NewDeviceService(db *gorm.DB) *DeviceService {
	return &DeviceService{repo: repositories.NewDeviceRepository(db)}
}

// Register upserts by token. A token previously registered by another user
// is reassigned and reactivated.
func (s *DeviceService) Register(userID uuid.UUID, token, platform string) error {
	if token == "" || platform == "" {
		return ErrInvalidInput
	}
	return s.repo.Upsert(userID, token, platform)
}

func (s *DeviceService) Unregister(token string) error {
	if token == "" {
		return ErrInvalidInput
	}
	return s.repo.Deactivate(token)
}

// ResolveAudience returns active tokens for the user set. Users without
// devices contribute nothing.
func (s *DeviceService) ResolveAudience(userIDs []uuid.UUID) ([]models.DeviceToken, error) {
	return s.repo.ActiveTokensForUsers(userIDs)
}

func (s *DeviceService) ListForUser(userID uuid.UUID) ([]models.DeviceToken, error) {
	return s.repo.ListByUser(userID)
}
