package entries

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/lumenwell/lumen-backend/internal/badges"
	"github.com/lumenwell/lumen-backend/internal/profiles"
	"github.com/lumenwell/lumen-backend/internal/streaks"
	"github.com/lumenwell/lumen-backend/pkg/db"
	"github.com/lumenwell/lumen-backend/pkg/db/models"
	"github.com/lumenwell/lumen-backend/pkg/enums"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
	"github.com/lumenwell/lumen-backend/pkg/logger"
	"github.com/lumenwell/lumen-backend/pkg/outbox"
	"github.com/lumenwell/lumen-backend/pkg/outbox/payloads"
	"github.com/lumenwell/lumen-backend/pkg/pagination"
)

// Service covers the journal entry lifecycle. Structural mutations run the
// full pipeline: persist, rebuild streak, evaluate badges, recount, emit.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateEntryRequest) (*EntryDTO, error)
	Get(ctx context.Context, userID, entryID uuid.UUID) (*EntryDTO, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error)
	Update(ctx context.Context, userID, entryID uuid.UUID, req UpdateEntryRequest) (*EntryDTO, error)
	Delete(ctx context.Context, userID, entryID uuid.UUID) error
}

// ServiceParams packages the entry service dependencies.
type ServiceParams struct {
	DB        *db.Client
	Evaluator *badges.Evaluator
	Outbox    *outbox.Service
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	db        *db.Client
	evaluator *badges.Evaluator
	outbox    *outbox.Service
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds an entry service from its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Evaluator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "badge evaluator required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:        params.DB,
		evaluator: params.Evaluator,
		outbox:    params.Outbox,
		logg:      params.Logger,
		now:       now,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateEntryRequest) (*EntryDTO, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content is required")
	}
	mood, err := enums.ParseMood(req.Mood)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid mood")
	}

	var dto *EntryDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		profileRepo := profiles.NewRepository(tx)
		profile, err := profileRepo.FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
		}

		entryDate, err := s.resolveEntryDate(req.EntryDate, profile.Timezone)
		if err != nil {
			return err
		}

		repo := NewRepository(tx)
		entry := &models.JournalEntry{
			UserID:    userID,
			Title:     NormalizeTitle(req.Title),
			Content:   content,
			Mood:      mood,
			EntryDate: entryDate,
			WordCount: CountWords(content),
			Prompt:    req.Prompt,
			PhotoPath: req.PhotoPath,
		}
		if _, err := repo.Create(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create entry")
		}

		if err := s.rebuildStreak(ctx, tx, userID, profile); err != nil {
			return err
		}
		if _, err := s.evaluator.Refresh(ctx, tx, userID); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventEntryCreated,
			AggregateType: enums.AggregateEntry,
			AggregateID:   entry.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Version:       1,
			Data: payloads.EntryCreatedEvent{
				EntryID:   entry.ID,
				UserID:    userID,
				EntryDate: entry.EntryDate.Format("2006-01-02"),
				Mood:      entry.Mood,
				WordCount: entry.WordCount,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue entry event")
		}

		dto = FromModel(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) Get(ctx context.Context, userID, entryID uuid.UUID) (*EntryDTO, error) {
	entry, err := NewRepository(s.db.DB()).FindByID(ctx, userID, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load entry")
	}
	return FromModel(entry), nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := NewRepository(s.db.DB()).List(ctx, userID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list entries")
	}

	result := &ListResult{Entries: make([]EntryDTO, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
		rows = rows[:limit]
	}
	for i := range rows {
		result.Entries = append(result.Entries, *FromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, userID, entryID uuid.UUID, req UpdateEntryRequest) (*EntryDTO, error) {
	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = NormalizeTitle(req.Title)
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "content cannot be empty")
		}
		updates["content"] = content
		updates["word_count"] = CountWords(content)
	}
	if req.Mood != nil {
		mood, err := enums.ParseMood(*req.Mood)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid mood")
		}
		updates["mood"] = mood
	}
	if req.Prompt != nil {
		updates["prompt"] = *req.Prompt
	}
	if req.PhotoPath != nil {
		updates["photo_path"] = *req.PhotoPath
	}

	var dto *EntryDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if _, err := repo.FindByID(ctx, userID, entryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load entry")
		}
		if err := repo.Update(ctx, userID, entryID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update entry")
		}

		// word count and mood feed badge criteria
		if _, err := s.evaluator.Refresh(ctx, tx, userID); err != nil {
			return err
		}

		entry, err := repo.FindByID(ctx, userID, entryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload entry")
		}
		dto = FromModel(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	deletedAt := s.now().UTC()

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		found, err := repo.FindByID(ctx, userID, entryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load entry")
		}

		hit, err := repo.SoftDelete(ctx, userID, entryID, deletedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete entry")
		}
		if !hit {
			return pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventEntryDeleted,
			AggregateType: enums.AggregateEntry,
			AggregateID:   found.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Version:       1,
			Data: payloads.EntryDeletedEvent{
				EntryID:   found.ID,
				UserID:    userID,
				EntryDate: found.EntryDate.Format("2006-01-02"),
				DeletedAt: deletedAt,
				PhotoPath: found.PhotoPath,
			},
		}
		// an entry dies once; a replayed delete must not queue a second event
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue entry event")
		}
		return nil
	})
	if err != nil {
		return err
	}

	// the delete committed; a failed streak/badge refresh must not undo it
	if err := s.refreshAfterDelete(ctx, userID); err != nil && s.logg != nil {
		s.logg.Error(ctx, "post-delete refresh failed", err)
	}
	return nil
}

// refreshAfterDelete re-derives streaks and badges in a follow-up
// transaction. Errors are collected and surfaced to the caller for logging.
func (s *service) refreshAfterDelete(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		profile, err := profiles.NewRepository(tx).FindByUserID(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
		}

		var errs error
		if err := s.rebuildStreak(ctx, tx, userID, profile); err != nil {
			errs = multierr.Append(errs, err)
		}
		if _, err := s.evaluator.Refresh(ctx, tx, userID); err != nil {
			errs = multierr.Append(errs, err)
		}
		return errs
	})
}

// rebuildStreak recomputes the streak from the live entry-date set and emits
// a streak.changed event when the stored values move.
func (s *service) rebuildStreak(ctx context.Context, tx *gorm.DB, userID uuid.UUID, profile *models.Profile) error {
	dates, err := NewRepository(tx).DistinctEntryDates(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load entry dates")
	}

	summary := streaks.Compute(dates, profile.BestStreak)
	unchanged := summary.Current == profile.CurrentStreak &&
		summary.Best == profile.BestStreak &&
		equalDay(summary.LastEntryDate, profile.LastEntryDate)
	if unchanged {
		return nil
	}

	if err := profiles.NewRepository(tx).UpdateStreak(ctx, userID, summary.Current, summary.Best, summary.LastEntryDate); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update streak")
	}
	profile.CurrentStreak = summary.Current
	profile.BestStreak = summary.Best
	profile.LastEntryDate = summary.LastEntryDate

	payload := payloads.StreakChangedEvent{
		UserID:        userID,
		CurrentStreak: summary.Current,
		BestStreak:    summary.Best,
	}
	if summary.LastEntryDate != nil {
		payload.LastEntryDate = summary.LastEntryDate.Format("2006-01-02")
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventStreakChanged,
		AggregateType: enums.AggregateProfile,
		AggregateID:   profile.ID,
		Actor:         &outbox.ActorRef{UserID: userID},
		Version:       1,
		Data:          payload,
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue streak event")
	}
	return nil
}

func (s *service) resolveEntryDate(raw, timezone string) (time.Time, error) {
	if raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "entry_date must be YYYY-MM-DD")
		}
		return day, nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	local := s.now().In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC), nil
}

func equalDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}
