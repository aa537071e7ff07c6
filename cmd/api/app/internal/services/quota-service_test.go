package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cwmaia/townhub/pkg/models"
	"github.com/cwmaia/townhub/pkg/repositories"
)

func TestConsumeStopsAtLimit(t *testing.T) {
	db := openTestDB(t)
	svc := NewQuotaService(db, zap.NewNop())
	repo := repositories.NewQuotaRepository(db)

	ownerID := uuid.New()
	limit := 3
	if _, err := repo.GetOrCreate(ownerID, models.OwnerKindBusiness, models.ResourceNotification, &limit, futureReset()); err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := svc.Consume(ownerID, models.OwnerKindBusiness, models.ResourceNotification); err != nil {
			t.Fatalf("consume %d failed: %v", i, err)
		}
	}
	err := svc.Consume(ownerID, models.OwnerKindBusiness, models.ResourceNotification)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	status, err := svc.Check(ownerID, models.OwnerKindBusiness, models.ResourceNotification)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if status.Used != 3 || status.Allowed {
		t.Errorf("expected used=3 allowed=false, got used=%d allowed=%v", status.Used, status.Allowed)
	}
	if status.Remaining == nil || *status.Remaining != 0 {
		t.Errorf("expected remaining=0, got %v", status.Remaining)
	}
}

func TestConcurrentConsumeNeverOvershoots(t *testing.T) {
	db := openTestDB(t)
	svc := NewQuotaService(db, zap.NewNop())
	repo := repositories.NewQuotaRepository(db)

	ownerID := uuid.New()
	limit := 5
	if _, err := repo.GetOrCreate(ownerID, models.OwnerKindBusiness, models.ResourceNotification, &limit, futureReset()); err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	rejected := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Consume(ownerID, models.OwnerKindBusiness, models.ResourceNotification)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, ErrQuotaExceeded) {
				rejected++
			} else {
				t.Errorf("unexpected consume error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 5 || rejected != 15 {
		t.Errorf("expected 5 successes and 15 rejections, got %d/%d", succeeded, rejected)
	}

	var counter models.QuotaCounter
	if err := db.First(&counter, "owner_id = ?", ownerID).Error; err != nil {
		t.Fatalf("failed to load counter: %v", err)
	}
	if counter.Used != 5 {
		t.Errorf("expected used=5, got %d", counter.Used)
	}
}

func TestConcurrentConsumeLastUnit(t *testing.T) {
	db := openTestDB(t)
	svc := NewQuotaService(db, zap.NewNop())
	repo := repositories.NewQuotaRepository(db)

	ownerID := uuid.New()
	limit := 2
	if _, err := repo.GetOrCreate(ownerID, models.OwnerKindBusiness, models.ResourceNotification, &limit, futureReset()); err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}
	if err := svc.Consume(ownerID, models.OwnerKindBusiness, models.ResourceNotification); err != nil {
		t.Fatalf("first consume failed: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Consume(ownerID, models.OwnerKindBusiness, models.ResourceNotification)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else if !errors.Is(err, ErrQuotaExceeded) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly one consume to win the last unit, got %d", successes)
	}
}

func TestCheckUnlimited(t *testing.T) {
	db := openTestDB(t)
	town := seedTown(t, db)
	owner := seedUser(t, db)
	business := seedBusiness(t, db, town, owner, "unlimited")

	svc := NewQuotaService(db, zap.NewNop())
	status, err := svc.Check(business.ID, models.OwnerKindBusiness, models.ResourceNotification)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !status.Allowed || status.Limit != nil || status.Remaining != nil {
		t.Errorf("unlimited plan should always be allowed with nil limit, got %+v", status)
	}

	// consume should never reject an unlimited counter
	for i := 0; i < 25; i++ {
		if err := svc.Consume(business.ID, models.OwnerKindBusiness, models.ResourceNotification); err != nil {
			t.Fatalf("consume %d failed: %v", i, err)
		}
	}
}

func TestDefaultLimitFromPlan(t *testing.T) {
	db := openTestDB(t)
	town := seedTown(t, db)
	owner := seedUser(t, db)
	business := seedBusiness(t, db, town, owner, "free")

	svc := NewQuotaService(db, zap.NewNop())
	status, err := svc.Check(business.ID, models.OwnerKindBusiness, models.ResourceNotification)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if status.Limit == nil || *status.Limit != PlanQuotas["free"].NotificationsPerMonth {
		t.Errorf("expected free plan notification limit, got %v", status.Limit)
	}

	eventStatus, err := svc.Check(business.ID, models.OwnerKindBusiness, models.ResourceEvent)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if eventStatus.Limit == nil || *eventStatus.Limit != PlanQuotas["free"].EventsPerMonth {
		t.Errorf("expected free plan event limit, got %v", eventStatus.Limit)
	}
}

func TestResetDueZeroesAndAdvances(t *testing.T) {
	db := openTestDB(t)
	svc := NewQuotaService(db, zap.NewNop())
	repo := repositories.NewQuotaRepository(db)

	ownerID := uuid.New()
	limit := 10
	stale := time.Now().AddDate(0, 0, -1)
	if _, err := repo.GetOrCreate(ownerID, models.OwnerKindBusiness, models.ResourceNotification, &limit, stale); err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}
	for i := 0; i < 4; i++ {
		if err := svc.Consume(ownerID, models.OwnerKindBusiness, models.ResourceNotification); err != nil {
			t.Fatalf("consume failed: %v", err)
		}
	}

	now := time.Now()
	reset, failed := svc.ResetDue(now)
	if reset != 1 || failed != 0 {
		t.Fatalf("expected 1 reset and 0 failures, got %d/%d", reset, failed)
	}

	var counter models.QuotaCounter
	if err := db.First(&counter, "owner_id = ?", ownerID).Error; err != nil {
		t.Fatalf("failed to load counter: %v", err)
	}
	if counter.Used != 0 {
		t.Errorf("expected used reset to 0, got %d", counter.Used)
	}
	if !counter.ResetAt.After(now) {
		t.Errorf("expected reset_at in the future, got %v", counter.ResetAt)
	}
	want := stale.AddDate(0, 1, 0)
	if diff := counter.ResetAt.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expected reset_at stepped from the stale anchor (%v), got %v", want, counter.ResetAt)
	}
}

func TestResetDueIdempotent(t *testing.T) {
	db := openTestDB(t)
	svc := NewQuotaService(db, zap.NewNop())
	repo := repositories.NewQuotaRepository(db)

	ownerID := uuid.New()
	limit := 10
	if _, err := repo.GetOrCreate(ownerID, models.OwnerKindBusiness, models.ResourceNotification, &limit, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}

	now := time.Now()
	if reset, _ := svc.ResetDue(now); reset != 1 {
		t.Fatalf("expected first run to reset 1 counter, got %d", reset)
	}
	if reset, _ := svc.ResetDue(now); reset != 0 {
		t.Errorf("expected second run to reset 0 counters, got %d", reset)
	}
}

func TestResetStepsOverSkippedMonths(t *testing.T) {
	db := openTestDB(t)
	svc := NewQuotaService(db, zap.NewNop())
	repo := repositories.NewQuotaRepository(db)

	ownerID := uuid.New()
	limit := 10
	stale := time.Now().AddDate(0, -3, 0)
	if _, err := repo.GetOrCreate(ownerID, models.OwnerKindBusiness, models.ResourceNotification, &limit, stale); err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}

	now := time.Now()
	if reset, _ := svc.ResetDue(now); reset != 1 {
		t.Fatalf("expected 1 reset, got %d", reset)
	}

	var counter models.QuotaCounter
	if err := db.First(&counter, "owner_id = ?", ownerID).Error; err != nil {
		t.Fatalf("failed to load counter: %v", err)
	}
	if !counter.ResetAt.After(now) {
		t.Errorf("reset_at should land past now, got %v", counter.ResetAt)
	}
	if counter.ResetAt.After(now.AddDate(0, 1, 0)) {
		t.Errorf("reset_at should step one month at a time, got %v", counter.ResetAt)
	}
}
