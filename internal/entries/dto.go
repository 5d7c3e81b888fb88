package entries

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumenwell/lumen-backend/pkg/db/models"
	"github.com/lumenwell/lumen-backend/pkg/enums"
)

// EntryDTO is the transport shape for a journal entry.
type EntryDTO struct {
	ID        uuid.UUID  `json:"id"`
	Title     *string    `json:"title,omitempty"`
	Content   string     `json:"content"`
	Mood      enums.Mood `json:"mood"`
	EntryDate string     `json:"entry_date"`
	WordCount int        `json:"word_count"`
	Prompt    *string    `json:"prompt,omitempty"`
	PhotoPath *string    `json:"photo_path,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateEntryRequest is the payload for writing a new entry. EntryDate
// defaults to today in the author's timezone when omitted.
type CreateEntryRequest struct {
	Title     *string `json:"title,omitempty"`
	Content   string  `json:"content" validate:"required"`
	Mood      string  `json:"mood" validate:"required"`
	EntryDate string  `json:"entry_date,omitempty"`
	Prompt    *string `json:"prompt,omitempty"`
	PhotoPath *string `json:"photo_path,omitempty"`
}

// UpdateEntryRequest carries partial edits to an entry. Nil fields are left
// untouched; the entry date itself is immutable.
type UpdateEntryRequest struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	Mood      *string `json:"mood,omitempty"`
	Prompt    *string `json:"prompt,omitempty"`
	PhotoPath *string `json:"photo_path,omitempty"`
}

// ListResult is one page of entries plus the cursor for the next page.
type ListResult struct {
	Entries    []EntryDTO `json:"entries"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func FromModel(e *models.JournalEntry) *EntryDTO {
	if e == nil {
		return nil
	}
	return &EntryDTO{
		ID:        e.ID,
		Title:     e.Title,
		Content:   e.Content,
		Mood:      e.Mood,
		EntryDate: e.EntryDate.Format("2006-01-02"),
		WordCount: e.WordCount,
		Prompt:    e.Prompt,
		PhotoPath: e.PhotoPath,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// CountWords tallies whitespace-separated tokens the way the word_count
// column expects.
func CountWords(content string) int {
	return len(strings.Fields(content))
}

// NormalizeTitle trims the optional title; a blank title stores as NULL.
func NormalizeTitle(raw *string) *string {
	if raw == nil {
		return nil
	}
	title := strings.TrimSpace(*raw)
	if title == "" {
		return nil
	}
	return &title
}
