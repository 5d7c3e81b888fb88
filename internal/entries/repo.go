package entries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenwell/lumen-backend/pkg/db/models"
	"github.com/lumenwell/lumen-backend/pkg/pagination"
)

// Repository persists journal entries. Every query is scoped to the owning
// user and excludes soft-deleted rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an entries repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, entry *models.JournalEntry) (*models.JournalEntry, error) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *Repository) FindByID(ctx context.Context, userID, entryID uuid.UUID) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND deleted_at IS NULL", entryID, userID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List pages through the user's entries newest first using a created_at+id
// cursor. It returns up to limit+1 rows so the caller can detect a next page.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.JournalEntry, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)

	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var entries []models.JournalEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *Repository) Update(ctx context.Context, userID, entryID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.JournalEntry{}).
		Where("id = ? AND user_id = ? AND deleted_at IS NULL", entryID, userID).
		Updates(updates).Error
}

// SoftDelete marks the entry deleted and reports whether a row was hit.
func (r *Repository) SoftDelete(ctx context.Context, userID, entryID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.JournalEntry{}).
		Where("id = ? AND user_id = ? AND deleted_at IS NULL", entryID, userID).
		Update("deleted_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DistinctEntryDates returns the set of calendar days the user has live
// entries on. The streak rebuild consumes this.
func (r *Repository) DistinctEntryDates(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.JournalEntry{}).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Distinct("entry_date").
		Order("entry_date ASC").
		Pluck("entry_date", &dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}
