package badges

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumenwell/lumen-backend/pkg/enums"
)

// BadgeProgressDTO combines a catalog badge with the user's standing against
// it. Current/Target are only set for criteria with a numeric target.
type BadgeProgressDTO struct {
	ID       uuid.UUID           `json:"id"`
	Slug     string              `json:"slug"`
	Name     string              `json:"name"`
	Blurb    string              `json:"blurb"`
	Icon     string              `json:"icon"`
	Category enums.BadgeCategory `json:"category"`
	Rarity   enums.BadgeRarity   `json:"rarity"`
	Earned   bool                `json:"earned"`
	EarnedAt *time.Time          `json:"earned_at,omitempty"`
	Current  *int                `json:"current,omitempty"`
	Target   *int                `json:"target,omitempty"`
}
