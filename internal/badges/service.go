package badges

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenwell/lumen-backend/internal/profiles"
	"github.com/lumenwell/lumen-backend/pkg/db"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
)

// Service reads the badge catalog together with the user's progress.
type Service interface {
	GetProgress(ctx context.Context, userID uuid.UUID) ([]BadgeProgressDTO, error)
}

// ServiceParams packages the badge service dependencies.
type ServiceParams struct {
	DB        *db.Client
	WeekStart string
	Now       func() time.Time
}

type service struct {
	db        *db.Client
	weekStart string
	now       func() time.Time
}

// NewService builds a badge read service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	weekStart := params.WeekStart
	if weekStart == "" {
		weekStart = "monday"
	}
	return &service{db: params.DB, weekStart: weekStart, now: now}, nil
}

func (s *service) GetProgress(ctx context.Context, userID uuid.UUID) ([]BadgeProgressDTO, error) {
	conn := s.db.DB()
	repo := NewRepository(conn)

	profile, err := profiles.NewRepository(conn).FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}

	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		loc = time.UTC
	}
	weekStart := WeekStart(s.now().In(loc), s.weekStart)

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

	progress := make([]BadgeProgressDTO, 0, len(catalog))
	for _, badge := range catalog {
		dto := BadgeProgressDTO{
			ID:       badge.ID,
			Slug:     badge.Slug,
			Name:     badge.Name,
			Blurb:    badge.Blurb,
			Icon:     badge.Icon,
			Category: badge.Category,
			Rarity:   badge.Rarity,
		}
		if at, ok := earnedAt[badge.ID]; ok {
			dto.Earned = true
			earned := at
			dto.EarnedAt = &earned
		}
		if criteria, err := DecodeCriteria(badge.Criteria); err == nil {
			if current, target, ok := criteria.Progress(snapshot); ok {
				dto.Current = &current
				dto.Target = &target
			}
		}
		progress = append(progress, dto)
	}
	return progress, nil
}
