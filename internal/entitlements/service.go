package entitlements

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenwell/lumen-backend/pkg/db/models"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
)

type profileLoader interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// UsageReport is the /usage payload: one row per gated feature.
type UsageReport struct {
	Premium  bool    `json:"premium"`
	Features []Usage `json:"features"`
}

// Service resolves the caller's profile before asking the gate, so the HTTP
// layer only deals in user ids.
type Service struct {
	gate     *Gate
	profiles profileLoader
}

// ServiceParams packages the usage service dependencies.
type ServiceParams struct {
	Gate     *Gate
	Profiles profileLoader
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Gate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "entitlement gate required")
	}
	if params.Profiles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "profile repository required")
	}
	return &Service{gate: params.Gate, profiles: params.Profiles}, nil
}

// UsageForUser reports today's remaining allowance across every gated feature.
func (s *Service) UsageForUser(ctx context.Context, userID uuid.UUID) (*UsageReport, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}

	usages, err := s.gate.RemainingAll(ctx, profile)
	if err != nil {
		return nil, err
	}
	return &UsageReport{
		Premium:  s.gate.IsPremium(profile),
		Features: usages,
	}, nil
}
