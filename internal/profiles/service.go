package profiles

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
)

// UpdateProfileRequest carries the user-editable profile settings. Nil
// fields are left untouched.
type UpdateProfileRequest struct {
	Timezone   *string `json:"timezone,omitempty"`
	WeeklyGoal *int    `json:"weekly_goal,omitempty" validate:"omitempty,min=1,max=7"`
}

// Service exposes profile reads and settings updates.
type Service interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*ProfileDTO, error)
}

// ServiceParams packages the dependencies required by the profile service.
type ServiceParams struct {
	Repo *Repository
}

type service struct {
	repo *Repository
}

// NewService builds a profile service from its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "profile repository required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) GetByUserID(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}
	return FromModel(profile), nil
}

func (s *service) UpdateSettings(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*ProfileDTO, error) {
	updates := map[string]any{}

	if req.Timezone != nil {
		timezone := strings.TrimSpace(*req.Timezone)
		if timezone == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "timezone cannot be empty")
		}
		if _, err := time.LoadLocation(timezone); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid timezone")
		}
		updates["timezone"] = timezone
	}
	if req.WeeklyGoal != nil {
		if *req.WeeklyGoal < 1 || *req.WeeklyGoal > 7 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "weekly_goal must be between 1 and 7")
		}
		updates["weekly_goal"] = *req.WeeklyGoal
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateSettings(ctx, userID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile settings")
		}
	}

	return s.GetByUserID(ctx, userID)
}
