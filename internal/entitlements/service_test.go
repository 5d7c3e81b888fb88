package entitlements

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lumenwell/lumen-backend/pkg/db/models"
	"github.com/lumenwell/lumen-backend/pkg/enums"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
)

type stubProfileLoader struct {
	profile *models.Profile
	err     error
}

func (s *stubProfileLoader) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

func newUsageService(t *testing.T, loader *stubProfileLoader) *Service {
	t.Helper()
	gate := newTestGate(t, newMemoryCounterStore(), time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	svc, err := NewService(ServiceParams{Gate: gate, Profiles: loader})
	require.NoError(t, err)
	return svc
}

func TestUsageForFreeUser(t *testing.T) {
	profile := freeProfile()
	svc := newUsageService(t, &stubProfileLoader{profile: profile})

	report, err := svc.UsageForUser(context.Background(), profile.UserID)
	require.NoError(t, err)
	assert.False(t, report.Premium)
	require.Len(t, report.Features, len(enums.Features()))
	for _, usage := range report.Features {
		assert.False(t, usage.Unlimited)
		assert.Equal(t, 2, usage.Remaining)
	}
}

func TestUsageForPremiumUser(t *testing.T) {
	profile := premiumProfile()
	svc := newUsageService(t, &stubProfileLoader{profile: profile})

	report, err := svc.UsageForUser(context.Background(), profile.UserID)
	require.NoError(t, err)
	assert.True(t, report.Premium)
	for _, usage := range report.Features {
		assert.True(t, usage.Unlimited)
	}
}

func TestUsageForUnknownProfile(t *testing.T) {
	svc := newUsageService(t, &stubProfileLoader{err: gorm.ErrRecordNotFound})

	_, err := svc.UsageForUser(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
