package services

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cwmaia/townhub/metrics"
	"github.com/cwmaia/townhub/pkg/models"
	"github.com/cwmaia/townhub/pkg/repositories"
	"github.com/cwmaia/townhub/pkg/types"
)

// PlanQuota holds the monthly caps for a business plan. Unlimited plans get
// counters with a nil limit.
type PlanQuota struct {
	NotificationsPerMonth int
	EventsPerMonth        int
	Unlimited             bool
}

var PlanQuotas = map[string]PlanQuota{
	"free":      {NotificationsPerMonth: 10, EventsPerMonth: 5},
	"premium":   {NotificationsPerMonth: 100, EventsPerMonth: 50},
	"unlimited": {Unlimited: true},
}

// TownQuota applies to town-scoped sends regardless of plan.
var TownQuota = PlanQuota{NotificationsPerMonth: 200, EventsPerMonth: 100}

type QuotaService struct {
	repo      *repositories.QuotaRepository
	directory *repositories.DirectoryRepository
	log       *zap.Logger
}

func NewQuotaService(db *gorm.DB, log *zap.Logger) *QuotaService {
	return &QuotaService{
		repo:      repositories.NewQuotaRepository(db),
		directory: repositories.NewDirectoryRepository(db),
		log:       log,
	}
}

func (s *QuotaService) defaultLimit(ownerID uuid.UUID, ownerKind, resourceKind string) *int {
	plan := TownQuota
	if ownerKind == models.OwnerKindBusiness {
		business, err := s.directory.GetBusiness(ownerID)
		if err != nil {
			plan = PlanQuotas["free"]
		} else if p, ok := PlanQuotas[business.Plan]; ok {
			plan = p
		} else {
			plan = PlanQuotas["free"]
		}
	}
	if plan.Unlimited {
		return nil
	}
	limit := plan.NotificationsPerMonth
	if resourceKind == models.ResourceEvent {
		limit = plan.EventsPerMonth
	}
	return &limit
}

func (s *QuotaService) counter(ownerID uuid.UUID, ownerKind, resourceKind string) (*models.QuotaCounter, error) {
	return s.repo.GetOrCreate(
		ownerID, ownerKind, resourceKind,
		s.defaultLimit(ownerID, ownerKind, resourceKind),
		time.Now().AddDate(0, 1, 0),
	)
}

// Check reports current usage without consuming. A nil limit is always
// allowed with nil remaining.
func (s *QuotaService) Check(ownerID uuid.UUID, ownerKind, resourceKind string) (types.QuotaStatus, error) {
	counter, err := s.counter(ownerID, ownerKind, resourceKind)
	if err != nil {
		return types.QuotaStatus{}, err
	}
	status := types.QuotaStatus{
		Used:  counter.Used,
		Limit: counter.Limit,
	}
	if counter.Limit == nil {
		status.Allowed = true
		return status, nil
	}
	remaining := *counter.Limit - counter.Used
	if remaining < 0 {
		remaining = 0
	}
	status.Allowed = counter.Used < *counter.Limit
	status.Remaining = &remaining
	return status, nil
}

// Consume takes one unit or fails with ErrQuotaExceeded. The increment and
// the limit check happen in one conditional update; a Check earlier in the
// request is never trusted.
func (s *QuotaService) Consume(ownerID uuid.UUID, ownerKind, resourceKind string) error {
	if _, err := s.counter(ownerID, ownerKind, resourceKind); err != nil {
		return err
	}
	ok, err := s.repo.ConsumeOne(ownerID, ownerKind, resourceKind)
	if err != nil {
		return err
	}
	if !ok {
		metrics.QuotaRejectionsTotal.WithLabelValues(ownerKind, resourceKind).Inc()
		return ErrQuotaExceeded
	}
	return nil
}

// ResetDue zeroes every counter whose period has lapsed. The anchor steps
// forward whole months from the stale reset_at until it clears now, so a
// skipped run never shifts the day-of-month. Counters fail independently.
func (s *QuotaService) ResetDue(now time.Time) (reset int, failed int) {
	counters, err := s.repo.ListDue(now)
	if err != nil {
		s.log.Error("failed to scan due quota counters", zap.Error(err))
		return 0, 0
	}
	for _, counter := range counters {
		next := counter.ResetAt
		for !next.After(now) {
			next = next.AddDate(0, 1, 0)
		}
		if err := s.repo.Reset(counter.ID, next); err != nil {
			failed++
			s.log.Error("failed to reset quota counter",
				zap.String("counter_id", counter.ID.String()),
				zap.String("owner_kind", counter.OwnerKind),
				zap.Error(err),
			)
			continue
		}
		reset++
		metrics.QuotaResetsTotal.Inc()
	}
	return reset, failed
}
