package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cwmaia/townhub/pkg/models"
)

type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) CreateTown(town *models.Town) error {
	return r.db.Create(town).Error
}

func (r *DirectoryRepository) GetTown(id uuid.UUID) (*models.Town, error) {
	var town models.Town
	if err := r.db.First(&town, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &town, nil
}

func (r *DirectoryRepository) ListTowns() ([]models.Town, error) {
	var towns []models.Town
	if err := r.db.Order("name").Find(&towns).Error; err != nil {
		return nil, err
	}
	return towns, nil
}

func (r *DirectoryRepository) CreateBusiness(business *models.Business) error {
	return r.db.Create(business).Error
}

func (r *DirectoryRepository) GetBusiness(id uuid.UUID) (*models.Business, error) {
	var business models.Business
	if err := r.db.First(&business, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *DirectoryRepository) ListBusinessesByTown(townID uuid.UUID) ([]models.Business, error) {
	var businesses []models.Business
	err := r.db.Where("town_id = ?", townID).Order("name").Find(&businesses).Error
	return businesses, err
}

func (r *DirectoryRepository) UpdateBusiness(id uuid.UUID, fields map[string]interface{}) error {
	return r.db.Model(&models.Business{}).Where("id = ?", id).Updates(fields).Error
}

func (r *DirectoryRepository) DeleteBusiness(id uuid.UUID) error {
	return r.db.Delete(&models.Business{}, "id = ?", id).Error
}

func (r *DirectoryRepository) CreatePlace(place *models.Place) error {
	return r.db.Create(place).Error
}

func (r *DirectoryRepository) GetPlace(id uuid.UUID) (*models.Place, error) {
	var place models.Place
	if err := r.db.First(&place, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &place, nil
}

func (r *DirectoryRepository) ListPlacesByTown(townID uuid.UUID) ([]models.Place, error) {
	var places []models.Place
	err := r.db.Where("town_id = ?", townID).Order("name").Find(&places).Error
	return places, err
}

func (r *DirectoryRepository) UpdatePlace(id uuid.UUID, fields map[string]interface{}) error {
	return r.db.Model(&models.Place{}).Where("id = ?", id).Updates(fields).Error
}

func (r *DirectoryRepository) DeletePlace(id uuid.UUID) error {
	return r.db.Delete(&models.Place{}, "id = ?", id).Error
}

func (r *DirectoryRepository) CreateEvent(event *models.Event) error {
	return r.db.Create(event).Error
}

func (r *DirectoryRepository) ListEventsByTown(townID uuid.UUID) ([]models.Event, error) {
	var events []models.Event
	err := r.db.Where("town_id = ?", townID).Order("starts_at").Find(&events).Error
	return events, err
}

func (r *DirectoryRepository) GetUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
