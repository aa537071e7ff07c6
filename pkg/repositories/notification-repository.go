package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cwmaia/townhub/pkg/models"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *NotificationRepository) GetByID(id uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.First(&notification, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepository) ListByBusiness(businessID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("business_id = ?", businessID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepository) UpdateStatus(id uuid.UUID, status string) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *NotificationRepository) Finalize(id uuid.UUID, sentAt time.Time, audienceCount, deliveryCount int, status string) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sent_at":        sentAt,
			"audience_count": audienceCount,
			"delivery_count": deliveryCount,
			"status":         status,
		}).Error
}

func (r *NotificationRepository) AddDeliveries(id uuid.UUID, delivered int) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ?", id).
		UpdateColumn("delivery_count", gorm.Expr("delivery_count + ?", delivered)).Error
}

// CreateDelivery records one recipient, at most once per (notification, user).
func (r *NotificationRepository) CreateDelivery(notificationID, userID uuid.UUID) error {
	delivery := models.NotificationDelivery{
		NotificationID: notificationID,
		UserID:         userID,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "notification_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&delivery).Error
}

func (r *NotificationRepository) CountDeliveries(notificationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.NotificationDelivery{}).
		Where("notification_id = ?", notificationID).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) DeliveredUserIDs(notificationID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Model(&models.NotificationDelivery{}).
		Where("notification_id = ?", notificationID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// MarkClicked sets clicked_at once; later clicks keep the first timestamp.
func (r *NotificationRepository) MarkClicked(notificationID, userID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.Model(&models.NotificationDelivery{}).
		Where("notification_id = ? AND user_id = ? AND clicked_at IS NULL", notificationID, userID).
		Update("clicked_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type InboxRow struct {
	NotificationID uuid.UUID
	Title          string
	Body           string
	SentAt         time.Time
	ClickedAt      *time.Time
}

func (r *NotificationRepository) ListInbox(userID uuid.UUID, limit int) ([]InboxRow, error) {
	var rows []InboxRow
	err := r.db.Model(&models.NotificationDelivery{}).
		Select(`notification_deliveries.notification_id,
			notifications.title,
			notifications.body,
			notification_deliveries.sent_at,
			notification_deliveries.clicked_at`).
		Joins("JOIN notifications ON notifications.id = notification_deliveries.notification_id").
		Where("notification_deliveries.user_id = ?", userID).
		Order("notification_deliveries.sent_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
