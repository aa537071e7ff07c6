package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cwmaia/townhub/pkg/models"
	"github.com/cwmaia/townhub/pkg/types"
)

func TestCreateDerivesOwnerFromRole(t *testing.T) {
	db := openTestDB(t)
	town := seedTown(t, db)
	owner := seedUser(t, db)
	business := seedBusiness(t, db, town, owner, "free")
	stranger := seedUser(t, db)

	svc := NewNotificationService(db)
	req := types.CreateNotificationRequest{
		TargetKind: models.TargetKindBusiness,
		TargetID:   business.ID.String(),
		Title:      "Weekend hours",
	}

	notification, err := svc.Create(req, owner.ID, models.RoleBusiness, nil)
	if err != nil {
		t.Fatalf("owner create failed: %v", err)
	}
	if notification.BusinessID == nil || *notification.BusinessID != business.ID {
		t.Errorf("expected business owner attribution, got %v", notification.BusinessID)
	}
	if notification.Status != models.StatusDraft {
		t.Errorf("new notifications start as drafts, got %s", notification.Status)
	}

	_, err = svc.Create(req, stranger.ID, models.RoleBusiness, nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for non-owner, got %v", err)
	}

	townReq := types.CreateNotificationRequest{
		TargetKind: models.TargetKindTown,
		TargetID:   town.ID.String(),
		Title:      "Road closure Saturday",
	}
	notification, err = svc.Create(townReq, stranger.ID, models.RoleTownAdmin, &town.ID)
	if err != nil {
		t.Fatalf("town admin create failed: %v", err)
	}
	if notification.TownID == nil || *notification.TownID != town.ID {
		t.Errorf("expected town attribution, got %v", notification.TownID)
	}

	notification, err = svc.Create(townReq, stranger.ID, models.RoleSuperAdmin, nil)
	if err != nil {
		t.Fatalf("super admin create failed: %v", err)
	}
	if notification.BusinessID != nil || notification.TownID != nil {
		t.Error("platform admin sends carry no quota owner")
	}
}

func TestCreateValidatesInput(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	svc := NewNotificationService(db)

	cases := []types.CreateNotificationRequest{
		{TargetKind: models.TargetKindBusiness, TargetID: uuid.NewString()},
		{Title: "No target", TargetID: uuid.NewString()},
		{Title: "Bad id", TargetKind: models.TargetKindBusiness, TargetID: "not-a-uuid"},
		{Title: "Bad kind", TargetKind: "newsletter", TargetID: uuid.NewString()},
	}
	for i, req := range cases {
		if _, err := svc.Create(req, user.ID, models.RoleSuperAdmin, nil); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func seedDelivery(t *testing.T, db *gorm.DB, notificationID, userID uuid.UUID) {
	t.Helper()
	delivery := &models.NotificationDelivery{
		NotificationID: notificationID,
		UserID:         userID,
	}
	if err := db.Create(delivery).Error; err != nil {
		t.Fatalf("failed to seed delivery: %v", err)
	}
}

func TestClickSetsTimestampOnce(t *testing.T) {
	db := openTestDB(t)
	town := seedTown(t, db)
	owner := seedUser(t, db)
	business := seedBusiness(t, db, town, owner, "free")
	notification := seedDraft(t, db, business)
	user := seedUser(t, db)
	seedDelivery(t, db, notification.ID, user.ID)

	svc := NewNotificationService(db)
	if err := svc.Click(notification.ID, user.ID); err != nil {
		t.Fatalf("click failed: %v", err)
	}

	var delivery models.NotificationDelivery
	if err := db.First(&delivery, "notification_id = ? AND user_id = ?", notification.ID, user.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if delivery.ClickedAt == nil {
		t.Fatal("expected clicked_at set")
	}
	first := *delivery.ClickedAt

	time.Sleep(10 * time.Millisecond)
	if err := svc.Click(notification.ID, user.ID); err != nil {
		t.Fatalf("repeat click should be a no-op: %v", err)
	}
	if err := db.First(&delivery, "notification_id = ? AND user_id = ?", notification.ID, user.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !delivery.ClickedAt.Equal(first) {
		t.Errorf("repeat click must not move the timestamp: %v vs %v", first, delivery.ClickedAt)
	}
}

func TestClickWithoutDelivery(t *testing.T) {
	db := openTestDB(t)
	town := seedTown(t, db)
	owner := seedUser(t, db)
	business := seedBusiness(t, db, town, owner, "free")
	notification := seedDraft(t, db, business)
	user := seedUser(t, db)

	svc := NewNotificationService(db)
	if err := svc.Click(notification.ID, user.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound clicking an undelivered notification, got %v", err)
	}
}

func TestInboxMarksReadState(t *testing.T) {
	db := openTestDB(t)
	town := seedTown(t, db)
	owner := seedUser(t, db)
	business := seedBusiness(t, db, town, owner, "free")
	user := seedUser(t, db)

	opened := seedDraft(t, db, business)
	unopened := seedDraft(t, db, business)
	seedDelivery(t, db, opened.ID, user.ID)
	seedDelivery(t, db, unopened.ID, user.ID)

	svc := NewNotificationService(db)
	if err := svc.Click(opened.ID, user.ID); err != nil {
		t.Fatalf("click failed: %v", err)
	}

	items, err := svc.Inbox(user.ID, 10)
	if err != nil {
		t.Fatalf("inbox failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 inbox items, got %d", len(items))
	}
	readStates := map[uuid.UUID]bool{}
	for _, item := range items {
		readStates[item.NotificationID] = item.Read
	}
	if !readStates[opened.ID] || readStates[unopened.ID] {
		t.Errorf("expected only the clicked item read, got %v", readStates)
	}
}
