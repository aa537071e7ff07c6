package services

import (
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cwmaia/townhub/pkg/models"
	"github.com/cwmaia/townhub/pkg/repositories"
)

type DirectoryService struct {
	repo  *repositories.DirectoryRepository
	quota *QuotaService
}

func NewDirectoryService(db *gorm.DB, log *zap.Logger) *DirectoryService {
	return &DirectoryService{
		repo:  repositories.NewDirectoryRepository(db),
		quota: NewQuotaService(db, log),
	}
}

func (s *DirectoryService) CreateTown(name, slug, imageURL string) (*models.Town, error) {
	if name == "" || slug == "" {
		return nil, ErrInvalidInput
	}
	town := &models.Town{Name: name, Slug: slug, ImageURL: imageURL}
	if err := s.repo.CreateTown(town); err != nil {
		return nil, err
	}
	return town, nil
}

func (s *DirectoryService) GetTown(id uuid.UUID) (*models.Town, error) {
	town, err := s.repo.GetTown(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return town, nil
}

func (s *DirectoryService) ListTowns() ([]models.Town, error) {
	return s.repo.ListTowns()
}

func (s *DirectoryService) CreateBusiness(business *models.Business) (*models.Business, error) {
	if business.Name == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.repo.GetTown(business.TownID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if business.Plan == "" {
		business.Plan = "free"
	}
	if err := s.repo.CreateBusiness(business); err != nil {
		return nil, err
	}
	return business, nil
}

func (s *DirectoryService) GetBusiness(id uuid.UUID) (*models.Business, error) {
	business, err := s.repo.GetBusiness(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return business, nil
}

func (s *DirectoryService) ListBusinessesByTown(townID uuid.UUID) ([]models.Business, error) {
	return s.repo.ListBusinessesByTown(townID)
}

func (s *DirectoryService) UpdateBusiness(id uuid.UUID, callerID uuid.UUID, role string, fields map[string]interface{}) error {
	business, err := s.GetBusiness(id)
	if err != nil {
		return err
	}
	if role != models.RoleSuperAdmin && business.OwnerID != callerID {
		return ErrUnauthorized
	}
	return s.repo.UpdateBusiness(id, fields)
}

func (s *DirectoryService) CreatePlace(place *models.Place) (*models.Place, error) {
	if place.Name == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.repo.GetTown(place.TownID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.repo.CreatePlace(place); err != nil {
		return nil, err
	}
	return place, nil
}

func (s *DirectoryService) GetPlace(id uuid.UUID) (*models.Place, error) {
	place, err := s.repo.GetPlace(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return place, nil
}

func (s *DirectoryService) ListPlacesByTown(townID uuid.UUID) ([]models.Place, error) {
	return s.repo.ListPlacesByTown(townID)
}

// CreateEvent is quota-gated: publishing an event consumes one unit of the
// owning business's event quota.
func (s *DirectoryService) CreateEvent(event *models.Event, callerID uuid.UUID, role string) (*models.Event, error) {
	if event.Title == "" || event.StartsAt.IsZero() {
		return nil, ErrInvalidInput
	}
	business, err := s.GetBusiness(event.BusinessID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleSuperAdmin && business.OwnerID != callerID {
		return nil, ErrUnauthorized
	}
	event.TownID = business.TownID

	if role != models.RoleSuperAdmin {
		if err := s.quota.Consume(business.ID, models.OwnerKindBusiness, models.ResourceEvent); err != nil {
			return nil, err
		}
	}
	if err := s.repo.CreateEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *DirectoryService) ListEventsByTown(townID uuid.UUID) ([]models.Event, error) {
	return s.repo.ListEventsByTown(townID)
}
