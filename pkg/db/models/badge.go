package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lumenwell/lumen-backend/pkg/enums"
)

// Badge is a catalog row. Criteria is a jsonb document describing the rule
// the evaluator applies; the catalog can carry criteria types the current
// binary does not recognize.
type Badge struct {
	ID       uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Slug     string              `gorm:"column:slug;not null;uniqueIndex"`
	Name     string              `gorm:"column:name;not null"`
	Blurb    string              `gorm:"column:blurb;not null"`
	Icon     string              `gorm:"column:icon;not null"`
	Category enums.BadgeCategory `gorm:"column:category;type:badge_category_enum;not null"`
	Rarity   enums.BadgeRarity   `gorm:"column:rarity;type:badge_rarity_enum;not null"`
	Criteria json.RawMessage     `gorm:"column:criteria;type:jsonb;not null"`
	IsActive bool                `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// UserBadge records a badge award. The (user_id, badge_id) pair is unique so
// re-evaluation is idempotent.
type UserBadge struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_user_badges_user_badge,priority:1"`
	BadgeID  uuid.UUID `gorm:"column:badge_id;type:uuid;not null;uniqueIndex:idx_user_badges_user_badge,priority:2"`
	EarnedAt time.Time `gorm:"column:earned_at;autoCreateTime"`

	Badge *Badge `gorm:"foreignKey:BadgeID"`
}
