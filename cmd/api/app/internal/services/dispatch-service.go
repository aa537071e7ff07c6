package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cwmaia/townhub/metrics"
	"github.com/cwmaia/townhub/pkg/models"
	"github.com/cwmaia/townhub/pkg/push"
	"github.com/cwmaia/townhub/pkg/repositories"
	"github.com/cwmaia/townhub/pkg/types"
)

const (
	defaultDispatchWorkers = 8
	dispatchedTopic        = "notification.dispatched"
)

// Publisher is satisfied by the kafka producer; nil disables event emission.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type DispatchService struct {
	notifications *repositories.NotificationRepository
	subscriptions *repositories.SubscriptionRepository
	devices       *repositories.DeviceRepository
	quota         *QuotaService
	transport     push.Transport
	producer      Publisher
	log           *zap.Logger
	tracer        trace.Tracer
	workers       int
}

func NewDispatchService(db *gorm.DB, transport push.Transport, producer Publisher, log *zap.Logger) *DispatchService {
	return &DispatchService{
		notifications: repositories.NewNotificationRepository(db),
		subscriptions: repositories.NewSubscriptionRepository(db),
		devices:       repositories.NewDeviceRepository(db),
		quota:         NewQuotaService(db, log),
		transport:     transport,
		producer:      producer,
		log:           log,
		tracer:        otel.Tracer("dispatch"),
		workers:       defaultDispatchWorkers,
	}
}

// Send runs the full dispatch state machine: quota gate, audience
// resolution, concurrent per-device delivery, then finalization. A rejected
// gate leaves the notification in draft; once any delivery is attempted the
// notification always ends sent, whatever the per-device outcomes.
func (s *DispatchService) Send(ctx context.Context, notificationID uuid.UUID) (types.DispatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.send")
	defer span.End()

	notification, err := s.notifications.GetByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.DispatchResult{}, ErrNotFound
		}
		return types.DispatchResult{}, err
	}
	if notification.Status != models.StatusDraft {
		return types.DispatchResult{}, ErrInvalidInput
	}

	// Quota gate. Notifications with no owner (platform admin sends) are
	// uncapped.
	ownerID, ownerKind, hasOwner := ownerOf(notification)
	if hasOwner {
		if err := s.quota.Consume(ownerID, ownerKind, models.ResourceNotification); err != nil {
			if errors.Is(err, ErrQuotaExceeded) {
				s.log.Warn("notification blocked by quota gate",
					zap.String("notification_id", notification.ID.String()),
					zap.String("owner_kind", ownerKind),
				)
			}
			return types.DispatchResult{}, err
		}
	}

	if err := s.notifications.UpdateStatus(notification.ID, models.StatusSending); err != nil {
		return types.DispatchResult{}, err
	}

	userIDs, err := s.subscriptions.ActiveUserIDs(notification.TargetKind, notification.TargetID)
	if err != nil {
		s.failDispatch(notification.ID, "audience resolution failed", err)
		return types.DispatchResult{}, err
	}
	tokens, err := s.devices.ActiveTokensForUsers(userIDs)
	if err != nil {
		s.failDispatch(notification.ID, "device resolution failed", err)
		return types.DispatchResult{}, err
	}

	result := s.fanOut(ctx, notification, tokens)

	now := time.Now()
	if err := s.notifications.Finalize(notification.ID, now, len(userIDs), result.Delivered, models.StatusSent); err != nil {
		return result, err
	}
	metrics.NotificationsDispatchedTotal.WithLabelValues(models.StatusSent).Inc()

	s.publishDispatched(ctx, notification, len(userIDs), result, now)

	s.log.Info("notification dispatched",
		zap.String("notification_id", notification.ID.String()),
		zap.Int("audience", len(userIDs)),
		zap.Int("delivered", result.Delivered),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// Redrive re-attempts delivery for a sent notification, skipping the quota
// gate and targeting only users without a delivery row.
func (s *DispatchService) Redrive(ctx context.Context, notificationID uuid.UUID) (types.DispatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.redrive")
	defer span.End()

	notification, err := s.notifications.GetByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.DispatchResult{}, ErrNotFound
		}
		return types.DispatchResult{}, err
	}
	if notification.Status != models.StatusSent {
		return types.DispatchResult{}, ErrInvalidInput
	}

	userIDs, err := s.subscriptions.ActiveUserIDs(notification.TargetKind, notification.TargetID)
	if err != nil {
		return types.DispatchResult{}, err
	}
	delivered, err := s.notifications.DeliveredUserIDs(notification.ID)
	if err != nil {
		return types.DispatchResult{}, err
	}
	already := make(map[uuid.UUID]struct{}, len(delivered))
	for _, id := range delivered {
		already[id] = struct{}{}
	}
	var remaining []uuid.UUID
	for _, id := range userIDs {
		if _, ok := already[id]; !ok {
			remaining = append(remaining, id)
		}
	}

	tokens, err := s.devices.ActiveTokensForUsers(remaining)
	if err != nil {
		return types.DispatchResult{}, err
	}

	result := s.fanOut(ctx, notification, tokens)
	if result.Delivered > 0 {
		if err := s.notifications.AddDeliveries(notification.ID, result.Delivered); err != nil {
			return result, err
		}
	}
	return result, nil
}

// fanOut delivers to every token concurrently. Failures are counted, never
// propagated; one delivery row is written per user on their first successful
// device.
func (s *DispatchService) fanOut(ctx context.Context, notification *models.Notification, tokens []models.DeviceToken) types.DispatchResult {
	if len(tokens) == 0 {
		return types.DispatchResult{}
	}

	var data map[string]interface{}
	if len(notification.Data) > 0 {
		if err := json.Unmarshal(notification.Data, &data); err != nil {
			s.log.Warn("notification data is not valid JSON, sending without it",
				zap.String("notification_id", notification.ID.String()),
			)
		}
	}
	msg := push.NewMessage(notification.Title, notification.Body, push.WithData(data))

	workers := s.workers
	if workers > len(tokens) {
		workers = len(tokens)
	}

	var delivered, failed int64
	var recordedMu sync.Mutex
	recorded := make(map[uuid.UUID]struct{}, len(tokens))

	jobs := make(chan models.DeviceToken)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for token := range jobs {
				if err := s.transport.Send(ctx, token.Token, token.Platform, msg); err != nil {
					atomic.AddInt64(&failed, 1)
					metrics.PushDeliveriesTotal.WithLabelValues(token.Platform, "failure").Inc()
					s.log.Warn("push delivery failed",
						zap.String("notification_id", notification.ID.String()),
						zap.String("platform", token.Platform),
						zap.Error(err),
					)
					continue
				}
				atomic.AddInt64(&delivered, 1)
				metrics.PushDeliveriesTotal.WithLabelValues(token.Platform, "success").Inc()

				recordedMu.Lock()
				_, seen := recorded[token.UserID]
				if !seen {
					recorded[token.UserID] = struct{}{}
				}
				recordedMu.Unlock()
				if !seen {
					if err := s.notifications.CreateDelivery(notification.ID, token.UserID); err != nil {
						s.log.Error("failed to record delivery",
							zap.String("notification_id", notification.ID.String()),
							zap.String("user_id", token.UserID.String()),
							zap.Error(err),
						)
					}
				}
			}
		}()
	}
	for _, token := range tokens {
		jobs <- token
	}
	close(jobs)
	wg.Wait()

	return types.DispatchResult{
		Delivered: int(delivered),
		Failed:    int(failed),
	}
}

func (s *DispatchService) failDispatch(id uuid.UUID, reason string, err error) {
	s.log.Error(reason, zap.String("notification_id", id.String()), zap.Error(err))
	metrics.NotificationsDispatchedTotal.WithLabelValues(models.StatusFailed).Inc()
	if updateErr := s.notifications.UpdateStatus(id, models.StatusFailed); updateErr != nil {
		s.log.Error("failed to mark notification failed",
			zap.String("notification_id", id.String()),
			zap.Error(updateErr),
		)
	}
}

func (s *DispatchService) publishDispatched(ctx context.Context, notification *models.Notification, audience int, result types.DispatchResult, sentAt time.Time) {
	if s.producer == nil {
		return
	}
	event := types.NotificationDispatched{
		NotificationID: notification.ID,
		BusinessID:     notification.BusinessID,
		TownID:         notification.TownID,
		Title:          notification.Title,
		AudienceCount:  audience,
		Delivered:      result.Delivered,
		Failed:         result.Failed,
		SentAt:         sentAt,
	}
	value, err := json.Marshal(event)
	if err != nil {
		s.log.Error("failed to marshal dispatch event", zap.Error(err))
		return
	}
	if err := s.producer.Publish(ctx, dispatchedTopic, []byte(notification.ID.String()), value); err != nil {
		s.log.Error("failed to publish dispatch event",
			zap.String("notification_id", notification.ID.String()),
			zap.Error(err),
		)
	}
}

func ownerOf(notification *models.Notification) (uuid.UUID, string, bool) {
	if notification.BusinessID != nil {
		return *notification.BusinessID, models.OwnerKindBusiness, true
	}
	if notification.TownID != nil {
		return *notification.TownID, models.OwnerKindTown, true
	}
	return uuid.Nil, "", false
}
