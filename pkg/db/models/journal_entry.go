package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumenwell/lumen-backend/pkg/enums"
)

// JournalEntry is a single dated journal record. EntryDate is the user-local
// calendar day the entry counts toward; streaks and counters key off it, not
// off CreatedAt.
type JournalEntry struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:idx_entries_user_date,priority:1"`

	Title     *string    `gorm:"column:title;type:text"`
	Content   string     `gorm:"column:content;type:text;not null"`
	Mood      enums.Mood `gorm:"column:mood;type:mood_enum;not null"`
	EntryDate time.Time  `gorm:"column:entry_date;type:date;not null;index:idx_entries_user_date,priority:2"`
	WordCount int        `gorm:"column:word_count;not null;default:0"`

	Prompt    *string `gorm:"column:prompt"`
	PhotoPath *string `gorm:"column:photo_path"`

	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
}
