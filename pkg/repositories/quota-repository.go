package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cwmaia/townhub/pkg/models"
)

type QuotaRepository struct {
	db *gorm.DB
}

func NewQuotaRepository(db *gorm.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// GetOrCreate loads the counter for an owner/resource pair, creating it with
// the given limit and reset anchor on first use.
func (r *QuotaRepository) GetOrCreate(ownerID uuid.UUID, ownerKind, resourceKind string, limit *int, resetAt time.Time) (*models.QuotaCounter, error) {
	var counter models.QuotaCounter
	err := r.db.
		Where("owner_id = ? AND owner_kind = ? AND resource_kind = ?", ownerID, ownerKind, resourceKind).
		Attrs(models.QuotaCounter{
			OwnerID:      ownerID,
			OwnerKind:    ownerKind,
			ResourceKind: resourceKind,
			Limit:        limit,
			ResetAt:      resetAt,
		}).
		FirstOrCreate(&counter).Error
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

// ConsumeOne increments used by one as a single conditional update so two
// concurrent consumers can never both take the last unit. Returns false when
// the counter is at its limit.
func (r *QuotaRepository) ConsumeOne(ownerID uuid.UUID, ownerKind, resourceKind string) (bool, error) {
	res := r.db.Model(&models.QuotaCounter{}).
		Where("owner_id = ? AND owner_kind = ? AND resource_kind = ?", ownerID, ownerKind, resourceKind).
		Where("quota_limit IS NULL OR used < quota_limit").
		UpdateColumn("used", gorm.Expr("used + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *QuotaRepository) ListDue(now time.Time) ([]models.QuotaCounter, error) {
	var counters []models.QuotaCounter
	if err := r.db.Where("reset_at <= ?", now).Find(&counters).Error; err != nil {
		return nil, err
	}
	return counters, nil
}

// Reset zeroes usage and moves the reset anchor. The used column is
// overwritten unconditionally: a consume racing the reset lands either in the
// old period or the new one, never half-applied.
func (r *QuotaRepository) Reset(id uuid.UUID, nextReset time.Time) error {
	return r.db.Model(&models.QuotaCounter{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"used":     0,
			"reset_at": nextReset,
		}).Error
}

func (r *QuotaRepository) UpdateLimit(ownerID uuid.UUID, ownerKind, resourceKind string, limit *int) error {
	return r.db.Model(&models.QuotaCounter{}).
		Where("owner_id = ? AND owner_kind = ? AND resource_kind = ?", ownerID, ownerKind, resourceKind).
		Update("quota_limit", limit).Error
}
