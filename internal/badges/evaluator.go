package badges

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenwell/lumen-backend/internal/profiles"
	"github.com/lumenwell/lumen-backend/pkg/db/models"
	"github.com/lumenwell/lumen-backend/pkg/enums"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
	"github.com/lumenwell/lumen-backend/pkg/logger"
	"github.com/lumenwell/lumen-backend/pkg/outbox"
	"github.com/lumenwell/lumen-backend/pkg/outbox/payloads"
)

// Evaluator re-derives a user's badge set from source rows. It runs inside
// the caller's transaction so awards commit atomically with the mutation that
// triggered them.
type Evaluator struct {
	outbox    *outbox.Service
	logg      *logger.Logger
	weekStart string
	now       func() time.Time
}

// EvaluatorParams packages the evaluator dependencies.
type EvaluatorParams struct {
	Outbox    *outbox.Service
	Logger    *logger.Logger
	WeekStart string
	Now       func() time.Time
}

// NewEvaluator builds a badge evaluator.
func NewEvaluator(params EvaluatorParams) (*Evaluator, error) {
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	weekStart := params.WeekStart
	if weekStart == "" {
		weekStart = "monday"
	}
	return &Evaluator{
		outbox:    params.Outbox,
		logg:      params.Logger,
		weekStart: weekStart,
		now:       now,
	}, nil
}

// Refresh evaluates every unearned catalog badge against a fresh snapshot,
// awards matches, recounts profile totals and queues badge.earned events.
// It returns the newly earned badges.
func (e *Evaluator) Refresh(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]models.Badge, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	repo := NewRepository(tx)
	profileRepo := profiles.NewRepository(tx)

	profile, err := profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}

	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		loc = time.UTC
	}
	weekStart := WeekStart(e.now().In(loc), e.weekStart)

	snapshot, err := repo.BuildSnapshot(ctx, userID, profile, weekStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build badge snapshot")
	}

	earnedAt, err := repo.EarnedAtByBadgeID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load earned badges")
	}

	catalog, err := repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load badge catalog")
	}

	var newly []models.Badge
	for _, badge := range catalog {
		if _, already := earnedAt[badge.ID]; already {
			continue
		}
		criteria, err := DecodeCriteria(badge.Criteria)
		if err != nil {
			if e.logg != nil {
				e.logg.Warn(ctx, "skipping badge with malformed criteria: "+badge.Slug)
			}
			continue
		}
		if !criteria.Matches(snapshot) {
			continue
		}
		inserted, err := repo.InsertEarned(ctx, userID, badge.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "award badge")
		}
		if inserted {
			newly = append(newly, badge)
		}
	}

	total, err := repo.CountEarned(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count earned badges")
	}
	if err := profileRepo.UpdateCounts(ctx, userID, snapshot.EntryCount, total); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile totals")
	}

	for _, badge := range newly {
		event := outbox.DomainEvent{
			EventType:     enums.EventBadgeEarned,
			AggregateType: enums.AggregateBadge,
			AggregateID:   badge.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Version:       1,
			Data: payloads.BadgeEarnedEvent{
				UserID:    userID,
				BadgeID:   badge.ID,
				BadgeSlug: badge.Slug,
				Category:  badge.Category,
				Rarity:    badge.Rarity,
				EarnedAt:  e.now().UTC(),
			},
		}
		if err := e.outbox.Emit(ctx, tx, event); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue badge event")
		}
	}

	return newly, nil
}

// WeekStart returns midnight of the first day of the week containing local,
// in local's location. start selects monday or sunday weeks.
func WeekStart(local time.Time, start string) time.Time {
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())

	offset := int(day.Weekday()-time.Monday+7) % 7
	if start == "sunday" {
		offset = int(day.Weekday())
	}
	return day.AddDate(0, 0, -offset)
}
