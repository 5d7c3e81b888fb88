package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumenwell/lumen-backend/pkg/db/models"
	"github.com/lumenwell/lumen-backend/pkg/enums"
)

const defaultWeeklyGoal = 3

// ProfileDTO is the transport shape returned to clients.
type ProfileDTO struct {
	ID                 uuid.UUID                `json:"id"`
	UserID             uuid.UUID                `json:"user_id"`
	Timezone           string                   `json:"timezone"`
	WeeklyGoal         int                      `json:"weekly_goal"`
	CurrentStreak      int                      `json:"current_streak"`
	BestStreak         int                      `json:"best_streak"`
	LastEntryDate      *string                  `json:"last_entry_date,omitempty"`
	TotalEntries       int                      `json:"total_entries"`
	TotalBadgesEarned  int                      `json:"total_badges_earned"`
	SubscriptionStatus enums.SubscriptionStatus `json:"subscription_status"`
	SubscriptionTier   enums.SubscriptionTier   `json:"subscription_tier"`
	SubscriptionEndsAt *time.Time               `json:"subscription_ends_at,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// CreateProfileDTO holds the data required to persist a new profile.
type CreateProfileDTO struct {
	UserID     uuid.UUID
	Timezone   string
	WeeklyGoal int
}

func FromModel(p *models.Profile) *ProfileDTO {
	if p == nil {
		return nil
	}

	dto := &ProfileDTO{
		ID:                 p.ID,
		UserID:             p.UserID,
		Timezone:           p.Timezone,
		WeeklyGoal:         p.WeeklyGoal,
		CurrentStreak:      p.CurrentStreak,
		BestStreak:         p.BestStreak,
		TotalEntries:       p.TotalEntries,
		TotalBadgesEarned:  p.TotalBadgesEarned,
		SubscriptionStatus: p.SubscriptionStatus,
		SubscriptionTier:   p.SubscriptionTier,
		SubscriptionEndsAt: p.SubscriptionEndsAt,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if p.LastEntryDate != nil {
		formatted := p.LastEntryDate.Format("2006-01-02")
		dto.LastEntryDate = &formatted
	}
	return dto
}

func (c CreateProfileDTO) ToModel() *models.Profile {
	timezone := c.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	goal := c.WeeklyGoal
	if goal < 1 || goal > 7 {
		goal = defaultWeeklyGoal
	}

	return &models.Profile{
		UserID:             c.UserID,
		Timezone:           timezone,
		WeeklyGoal:         goal,
		SubscriptionStatus: enums.SubscriptionStatusFree,
		SubscriptionTier:   enums.SubscriptionTierFree,
	}
}
