package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cwmaia/townhub/pkg/models"
	"github.com/cwmaia/townhub/pkg/push"
	"github.com/cwmaia/townhub/pkg/repositories"
)

// fakeTransport records sends and fails configured tokens.
type fakeTransport struct {
	mu      sync.Mutex
	sent    []string
	failing map[string]bool
}

func newFakeTransport(failing ...string) *fakeTransport {
	f := &fakeTransport{failing: make(map[string]bool)}
	for _, token := range failing {
		f.failing[token] = true
	}
	return f
}

func (f *fakeTransport) Send(_ context.Context, token, _ string, _ push.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[token] {
		return errors.New("provider rejected token")
	}
	f.sent = append(f.sent, token)
	return nil
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func seedDraft(t *testing.T, db *gorm.DB, business *models.Business) *models.Notification {
	t.Helper()
	notification := &models.Notification{
		BusinessID: &business.ID,
		TargetKind: models.TargetKindBusiness,
		TargetID:   business.ID,
		Title:      "Fresh sourdough at noon",
		Body:       "First twenty loaves half price.",
		Status:     models.StatusDraft,
	}
	if err := db.Create(notification).Error; err != nil {
		t.Fatalf("failed to seed notification: %v", err)
	}
	return notification
}

func TestSendEmptyAudience(t *testing.T) {
	db := openTestDB(t)
	town := seedTown(t, db)
	owner := seedUser(t, db)
	business := seedBusiness(t, db, town, owner, "free")
	notification := seedDraft(t, db, business)

	transport := newFakeTransport()
	svc := NewDispatchService(db, transport, nil, zap.NewNop())

	result, err := svc.Send(context.Background(), notification.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if result.Delivered != 0 || result.Failed != 0 {
		t.Errorf("expected 0/0 for empty audience, got %d/%d", result.Delivered, result.Failed)
	}

	var reloaded models.Notification
	if err := db.First(&reloaded, "id = ?", notification.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != models.StatusSent {
		t.Errorf("empty-audience send should still end sent, got %s", reloaded.Status)
	}
	if reloaded.AudienceCount != 0 || reloaded.SentAt == nil {
		t.Errorf("expected audience_count=0 and sent_at set, got %d/%v", reloaded.AudienceCount, reloaded.SentAt)
	}
}

func TestSendPartialDelivery(t *testing.T) {
	db := openTestDB(t)
	town := seedTown(t, db)
	owner := seedUser(t, db)
	business := seedBusiness(t, db, town, owner, "premium")
	notification := seedDraft(t, db, business)

	subs := NewSubscriptionService(db)
	devices := NewDeviceService(db)
	users := make([]*models.User, 3)
	for i := range users {
		users[i] = seedUser(t, db)
		if _, err := subs.Subscribe(users[i].ID, business.ID, models.TargetKindBusiness); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
	}
	if err := devices.Register(users[0].ID, "tok-0", "ios"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := devices.Register(users[1].ID, "tok-1", "android"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := devices.Register(users[2].ID, "tok-2", "android"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	transport := newFakeTransport("tok-1")
	svc := NewDispatchService(db, transport, nil, zap.NewNop())

	result, err := svc.Send(context.Background(), notification.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if result.Delivered != 2 || result.Failed != 1 {
		t.Errorf("expected 2 delivered / 1 failed, got %d/%d", result.Delivered, result.Failed)
	}

	var reloaded models.Notification
	if err := db.First(&reloaded, "id = ?", notification.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != models.StatusSent {
		t.Errorf("partial failures must not fail the notification, got %s", reloaded.Status)
	}
	if reloaded.AudienceCount != 3 || reloaded.DeliveryCount != 2 {
		t.Errorf("expected audience=3 delivery=2, got %d/%d", reloaded.AudienceCount, reloaded.DeliveryCount)
	}

	var deliveries int64
	if err := db.Model(&models.NotificationDelivery{}).
		Where("notification_id = ?", notification.ID).
		Count(&deliveries).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if deliveries != 2 {
		t.Errorf("expected one delivery row per reached user, got %d", deliveries)
	}
}

func TestSendOneDeliveryRowPerUser(t *testing.T) {
	db := openTestDB(t)
	town := seedTown(t, db)
	owner := seedUser(t, db)
	business := seedBusiness(t, db, town, owner, "premium")
	notification := seedDraft(t, db, business)

	subs := NewSubscriptionService(db)
	devices := NewDeviceService(db)
	user := seedUser(t, db)
	if _, err := subs.Subscribe(user.ID, business.ID, models.TargetKindBusiness); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := devices.Register(user.ID, "phone", "ios"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := devices.Register(user.ID, "tablet", "ios"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	svc := NewDispatchService(db, newFakeTransport(), nil, zap.NewNop())
	result, err := svc.Send(context.Background(), notification.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if result.Delivered != 2 {
		t.Errorf("both devices should count as delivered, got %d", result.Delivered)
	}

	var deliveries int64
	if err := db.Model(&models.NotificationDelivery{}).
		Where("notification_id = ?", notification.ID).
		Count(&deliveries).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if deliveries != 1 {
		t.Errorf("a multi-device user gets one delivery row, got %d", deliveries)
	}
}

func TestSendQuotaRejectedStaysDraft(t *testing.T) {
	db := openTestDB(t)
	town := seedTown(t, db)
	owner := seedUser(t, db)
	business := seedBusiness(t, db, town, owner, "free")
	notification := seedDraft(t, db, business)

	limit := 0
	repo := repositories.NewQuotaRepository(db)
	if _, err := repo.GetOrCreate(business.ID, models.OwnerKindBusiness, models.ResourceNotification, &limit, futureReset()); err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}

	transport := newFakeTransport()
	svc := NewDispatchService(db, transport, nil, zap.NewNop())

	_, err := svc.Send(context.Background(), notification.ID)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if transport.sentCount() != 0 {
		t.Error("no deliveries should be attempted past a rejected gate")
	}

	var reloaded models.Notification
	if err := db.First(&reloaded, "id = ?", notification.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != models.StatusDraft {
		t.Errorf("a gate rejection leaves the notification editable, got %s", reloaded.Status)
	}
}

func TestSendNonDraftRejected(t *testing.T) {
	db := openTestDB(t)
	town := seedTown(t, db)
	owner := seedUser(t, db)
	business := seedBusiness(t, db, town, owner, "free")
	notification := seedDraft(t, db, business)
	if err := db.Model(notification).Update("status", models.StatusSent).Error; err != nil {
		t.Fatalf("update failed: %v", err)
	}

	svc := NewDispatchService(db, newFakeTransport(), nil, zap.NewNop())
	_, err := svc.Send(context.Background(), notification.ID)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for non-draft, got %v", err)
	}

	_, err = svc.Send(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestRedriveTargetsOnlyUndelivered(t *testing.T) {
	db := openTestDB(t)
	town := seedTown(t, db)
	owner := seedUser(t, db)
	business := seedBusiness(t, db, town, owner, "premium")
	notification := seedDraft(t, db, business)

	subs := NewSubscriptionService(db)
	devices := NewDeviceService(db)
	reached := seedUser(t, db)
	missed := seedUser(t, db)
	for _, u := range []*models.User{reached, missed} {
		if _, err := subs.Subscribe(u.ID, business.ID, models.TargetKindBusiness); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
	}
	if err := devices.Register(reached.ID, "tok-reached", "ios"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := devices.Register(missed.ID, "tok-missed", "android"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// first pass: one token down
	transport := newFakeTransport("tok-missed")
	svc := NewDispatchService(db, transport, nil, zap.NewNop())
	result, err := svc.Send(context.Background(), notification.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if result.Delivered != 1 || result.Failed != 1 {
		t.Fatalf("expected 1/1 on first pass, got %d/%d", result.Delivered, result.Failed)
	}

	// second pass: token recovered; only the missed user is retried
	transport.mu.Lock()
	transport.failing = map[string]bool{}
	transport.sent = nil
	transport.mu.Unlock()

	result, err = svc.Redrive(context.Background(), notification.ID)
	if err != nil {
		t.Fatalf("redrive failed: %v", err)
	}
	if result.Delivered != 1 || result.Failed != 0 {
		t.Errorf("expected 1/0 on redrive, got %d/%d", result.Delivered, result.Failed)
	}
	transport.mu.Lock()
	retried := append([]string(nil), transport.sent...)
	transport.mu.Unlock()
	if len(retried) != 1 || retried[0] != "tok-missed" {
		t.Errorf("redrive should touch only undelivered users, got %v", retried)
	}

	var reloaded models.Notification
	if err := db.First(&reloaded, "id = ?", notification.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.DeliveryCount != 2 {
		t.Errorf("expected delivery_count=2 after redrive, got %d", reloaded.DeliveryCount)
	}
}

func TestRedriveRequiresSent(t *testing.T) {
	db := openTestDB(t)
	town := seedTown(t, db)
	owner := seedUser(t, db)
	business := seedBusiness(t, db, town, owner, "free")
	notification := seedDraft(t, db, business)

	svc := NewDispatchService(db, newFakeTransport(), nil, zap.NewNop())
	_, err := svc.Redrive(context.Background(), notification.ID)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput redriving a draft, got %v", err)
	}
}
