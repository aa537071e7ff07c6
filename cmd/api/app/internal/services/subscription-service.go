package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cwmaia/townhub/pkg/models"
	"github.com/cwmaia/townhub/pkg/repositories"
	"github.com/cwmaia/townhub/pkg/types"
)

type SubscriptionService struct {
	repo      *repositories.SubscriptionRepository
	directory *repositories.DirectoryRepository
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{
		repo:      repositories.NewSubscriptionRepository(db),
		directory: repositories.NewDirectoryRepository(db),
	}
}

func splitTags(tags string) []string {
	if tags == "" {
		return []string{}
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Subscribe is an idempotent upsert; re-subscribing reuses the original row.
func (s *SubscriptionService) Subscribe(userID, targetID uuid.UUID, targetKind string) (uuid.UUID, error) {
	switch targetKind {
	case models.TargetKindBusiness:
		if _, err := s.directory.GetBusiness(targetID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, ErrNotFound
			}
			return uuid.Nil, err
		}
		sub, err := s.repo.UpsertBusiness(userID, targetID)
		if err != nil {
			return uuid.Nil, err
		}
		return sub.ID, nil
	case models.TargetKindPlace:
		if _, err := s.directory.GetPlace(targetID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, ErrNotFound
			}
			return uuid.Nil, err
		}
		sub, err := s.repo.UpsertPlace(userID, targetID)
		if err != nil {
			return uuid.Nil, err
		}
		return sub.ID, nil
	default:
		return uuid.Nil, ErrInvalidInput
	}
}

// Unsubscribe deactivates the row if one exists; unsubscribing something
// never subscribed succeeds silently.
func (s *SubscriptionService) Unsubscribe(userID, targetID uuid.UUID, targetKind string) error {
	switch targetKind {
	case models.TargetKindBusiness:
		return s.repo.DeactivateBusiness(userID, targetID)
	case models.TargetKindPlace:
		return s.repo.DeactivatePlace(userID, targetID)
	default:
		return ErrInvalidInput
	}
}

// IsSubscribed answers false for anonymous callers rather than erroring.
func (s *SubscriptionService) IsSubscribed(userID, targetID uuid.UUID, targetKind string) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	switch targetKind {
	case models.TargetKindBusiness:
		return s.repo.IsSubscribedBusiness(userID, targetID)
	case models.TargetKindPlace:
		return s.repo.IsSubscribedPlace(userID, targetID)
	default:
		return false, ErrInvalidInput
	}
}

func (s *SubscriptionService) ListActive(userID uuid.UUID) (*types.SubscriptionList, error) {
	businessRows, err := s.repo.ListActiveBusinesses(userID)
	if err != nil {
		return nil, err
	}
	placeRows, err := s.repo.ListActivePlaces(userID)
	if err != nil {
		return nil, err
	}

	list := &types.SubscriptionList{
		Businesses: make([]types.SubscribedBusiness, 0, len(businessRows)),
		Places:     make([]types.SubscribedPlace, 0, len(placeRows)),
	}
	for _, row := range businessRows {
		list.Businesses = append(list.Businesses, types.SubscribedBusiness{
			SubscriptionID: row.SubscriptionID,
			BusinessID:     row.BusinessID,
			BusinessName:   row.BusinessName,
			PlaceID:        row.PlaceID,
			ImageURL:       row.ImageURL,
			Tags:           splitTags(row.Tags),
			SubscribedAt:   row.SubscribedAt,
		})
	}
	for _, row := range placeRows {
		list.Places = append(list.Places, types.SubscribedPlace{
			SubscriptionID: row.SubscriptionID,
			PlaceID:        row.PlaceID,
			PlaceName:      row.PlaceName,
			ImageURL:       row.ImageURL,
			Tags:           splitTags(row.Tags),
			SubscribedAt:   row.SubscribedAt,
		})
	}
	return list, nil
}
