package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cwmaia/townhub/pkg/models"
	"github.com/cwmaia/townhub/pkg/repositories"
	"github.com/cwmaia/townhub/pkg/types"
)

type NotificationService struct {
	repo      *repositories.NotificationRepository
	directory *repositories.DirectoryRepository
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		repo:      repositories.NewNotificationRepository(db),
		directory: repositories.NewDirectoryRepository(db),
	}
}

// Create stores a draft. The quota owner is derived from the caller: a
// business owner is capped against the business, a town admin against the
// town, a platform admin is uncapped.
func (n *NotificationService) Create(req types.CreateNotificationRequest, callerID uuid.UUID, role string, townID *uuid.UUID) (*models.Notification, error) {
	if req.Title == "" || req.TargetKind == "" {
		return nil, ErrInvalidInput
	}
	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		return nil, ErrInvalidInput
	}
	switch req.TargetKind {
	case models.TargetKindBusiness, models.TargetKindPlace, models.TargetKindTown:
	default:
		return nil, ErrInvalidInput
	}

	notification := &models.Notification{
		TargetKind: req.TargetKind,
		TargetID:   targetID,
		Title:      req.Title,
		Body:       req.Body,
		Status:     models.StatusDraft,
	}
	if req.Data != nil {
		data, err := json.Marshal(req.Data)
		if err != nil {
			return nil, ErrInvalidInput
		}
		notification.Data = data
	}

	switch role {
	case models.RoleSuperAdmin:
		// no owner, unlimited
	case models.RoleTownAdmin:
		if townID == nil {
			return nil, ErrUnauthorized
		}
		notification.TownID = townID
	default:
		if req.TargetKind != models.TargetKindBusiness {
			return nil, ErrUnauthorized
		}
		business, err := n.directory.GetBusiness(targetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if business.OwnerID != callerID {
			return nil, ErrUnauthorized
		}
		notification.BusinessID = &business.ID
	}

	if err := n.repo.Create(notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (n *NotificationService) Get(id uuid.UUID) (*models.Notification, error) {
	notification, err := n.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return notification, nil
}

func (n *NotificationService) ListByBusiness(businessID uuid.UUID) ([]models.Notification, error) {
	return n.repo.ListByBusiness(businessID)
}

// Click marks a delivery as opened; only the first click sets the timestamp.
func (n *NotificationService) Click(notificationID, userID uuid.UUID) error {
	clicked, err := n.repo.MarkClicked(notificationID, userID, time.Now())
	if err != nil {
		return err
	}
	if !clicked {
		// already clicked or never delivered; both are fine for the client
		var count int64
		count, err = n.repo.CountDeliveries(notificationID)
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}

func (n *NotificationService) Inbox(userID uuid.UUID, limit int) ([]types.InboxItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := n.repo.ListInbox(userID, limit)
	if err != nil {
		return nil, err
	}
	items := make([]types.InboxItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, types.InboxItem{
			NotificationID: row.NotificationID,
			Title:          row.Title,
			Body:           row.Body,
			SentAt:         row.SentAt,
			ClickedAt:      row.ClickedAt,
			Read:           row.ClickedAt != nil,
		})
	}
	return items, nil
}
