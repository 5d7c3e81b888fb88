package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenwell/lumen-backend/internal/entitlements"
	"github.com/lumenwell/lumen-backend/internal/profiles"
	"github.com/lumenwell/lumen-backend/pkg/db"
	"github.com/lumenwell/lumen-backend/pkg/db/models"
	"github.com/lumenwell/lumen-backend/pkg/enums"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
	"github.com/lumenwell/lumen-backend/pkg/logger"
)

// completer is the generation surface the service depends on. A nil completer
// means every call serves fallback content.
type completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// PromptResult is a reflection prompt, generated or built-in.
type PromptResult struct {
	Prompt   string `json:"prompt"`
	Fallback bool   `json:"fallback"`
}

// MoodAnalysisResult labels free text with one of the five moods.
type MoodAnalysisResult struct {
	Mood       enums.Mood `json:"mood"`
	Confidence float64    `json:"confidence"`
	Fallback   bool       `json:"fallback"`
}

// AffirmationResult is a short supportive statement for the user's state.
type AffirmationResult struct {
	Affirmation string `json:"affirmation"`
	Fallback    bool   `json:"fallback"`
}

// QuoteResult is an attributed quote matched to the user's mood.
type QuoteResult struct {
	Quote    string `json:"quote"`
	Author   string `json:"author"`
	Fallback bool   `json:"fallback"`
}

// Service fronts the generation features. Every operation consults the
// entitlement gate before doing any work and records the use once allowed,
// fallback or not.
type Service interface {
	GenerateReflectionPrompt(ctx context.Context, userID uuid.UUID) (*PromptResult, error)
	AnalyzeMood(ctx context.Context, userID uuid.UUID, text string) (*MoodAnalysisResult, error)
	GenerateAffirmation(ctx context.Context, userID uuid.UUID, text, mood string) (*AffirmationResult, error)
	GenerateMoodQuote(ctx context.Context, userID uuid.UUID, mood, text string) (*QuoteResult, error)
}

// ServiceParams packages the AI service dependencies. Completer may be nil
// when no API key is configured.
type ServiceParams struct {
	DB        *db.Client
	Gate      *entitlements.Gate
	Completer completer
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	db        *db.Client
	gate      *entitlements.Gate
	completer completer
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the AI proxy service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Gate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "entitlement gate required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:        params.DB,
		gate:      params.Gate,
		completer: params.Completer,
		logg:      params.Logger,
		now:       now,
	}, nil
}

func (s *service) GenerateReflectionPrompt(ctx context.Context, userID uuid.UUID) (*PromptResult, error) {
	profile, err := s.passGate(ctx, userID, enums.FeaturePromptGeneration)
	if err != nil {
		return nil, err
	}

	fallback := &PromptResult{Prompt: promptFor(s.localDay(profile)), Fallback: true}
	if s.completer == nil {
		return fallback, nil
	}

	generated, err := s.completer.Complete(ctx,
		"You are a gentle journaling companion. Offer a single open-ended reflection prompt, one sentence, no preamble.",
		"Give me a journaling prompt for today.",
	)
	if err != nil || generated == "" {
		s.logFallback(ctx, enums.FeaturePromptGeneration, err)
		return fallback, nil
	}
	return &PromptResult{Prompt: generated}, nil
}

func (s *service) AnalyzeMood(ctx context.Context, userID uuid.UUID, text string) (*MoodAnalysisResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "text is required")
	}

	if _, err := s.passGate(ctx, userID, enums.FeatureMoodAnalysis); err != nil {
		return nil, err
	}

	fallbackMood, confidence := classifyMood(text)
	fallback := &MoodAnalysisResult{Mood: fallbackMood, Confidence: confidence, Fallback: true}
	if s.completer == nil {
		return fallback, nil
	}

	generated, err := s.completer.Complete(ctx,
		`You label journal text with a mood. Respond with only a JSON object like {"mood": "good", "confidence": 0.8}. Mood must be one of: terrible, bad, okay, good, great.`,
		text,
	)
	if err != nil {
		s.logFallback(ctx, enums.FeatureMoodAnalysis, err)
		return fallback, nil
	}

	var parsed struct {
		Mood       string  `json:"mood"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(generated), &parsed); err != nil {
		s.logFallback(ctx, enums.FeatureMoodAnalysis, err)
		return fallback, nil
	}
	mood, err := enums.ParseMood(parsed.Mood)
	if err != nil {
		s.logFallback(ctx, enums.FeatureMoodAnalysis, err)
		return fallback, nil
	}
	if parsed.Confidence <= 0 || parsed.Confidence > 1 {
		parsed.Confidence = 0.5
	}
	return &MoodAnalysisResult{Mood: mood, Confidence: parsed.Confidence}, nil
}

func (s *service) GenerateAffirmation(ctx context.Context, userID uuid.UUID, text, mood string) (*AffirmationResult, error) {
	parsedMood, err := enums.ParseMood(mood)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid mood")
	}

	if _, err := s.passGate(ctx, userID, enums.FeatureAffirmation); err != nil {
		return nil, err
	}

	fallback := &AffirmationResult{Affirmation: fallbackAffirmations[parsedMood], Fallback: true}
	if s.completer == nil {
		return fallback, nil
	}

	user := fmt.Sprintf("My mood today is %s.", parsedMood)
	if text = strings.TrimSpace(text); text != "" {
		user += " I wrote: " + text
	}
	generated, err := s.completer.Complete(ctx,
		"You write short, warm affirmations for a wellness journal. One or two sentences, second person, no hashtags.",
		user,
	)
	if err != nil || generated == "" {
		s.logFallback(ctx, enums.FeatureAffirmation, err)
		return fallback, nil
	}
	return &AffirmationResult{Affirmation: generated}, nil
}

func (s *service) GenerateMoodQuote(ctx context.Context, userID uuid.UUID, mood, text string) (*QuoteResult, error) {
	parsedMood, err := enums.ParseMood(mood)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid mood")
	}

	if _, err := s.passGate(ctx, userID, enums.FeatureMoodQuote); err != nil {
		return nil, err
	}

	canned := fallbackQuotes[parsedMood]
	fallback := &QuoteResult{Quote: canned.Quote, Author: canned.Author, Fallback: true}
	if s.completer == nil {
		return fallback, nil
	}

	user := fmt.Sprintf("My mood is %s.", parsedMood)
	if text = strings.TrimSpace(text); text != "" {
		user += " Context: " + text
	}
	generated, err := s.completer.Complete(ctx,
		`You pick a real, attributed quote matching the user's mood. Respond with only a JSON object like {"quote": "...", "author": "..."}.`,
		user,
	)
	if err != nil {
		s.logFallback(ctx, enums.FeatureMoodQuote, err)
		return fallback, nil
	}

	var parsed struct {
		Quote  string `json:"quote"`
		Author string `json:"author"`
	}
	if err := json.Unmarshal([]byte(generated), &parsed); err != nil || parsed.Quote == "" {
		s.logFallback(ctx, enums.FeatureMoodQuote, err)
		return fallback, nil
	}
	return &QuoteResult{Quote: parsed.Quote, Author: parsed.Author}, nil
}

// passGate loads the profile, checks the entitlement and charges the use.
// Denials surface as QUOTA_EXCEEDED carrying the upsell message.
func (s *service) passGate(ctx context.Context, userID uuid.UUID, feature enums.Feature) (*models.Profile, error) {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	decision, err := s.gate.CanUse(ctx, profile, feature)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "daily limit reached").
			WithDetails(map[string]any{
				"feature": feature,
				"limit":   decision.Limit,
				"message": decision.Message,
			})
	}
	if err := s.gate.RecordUse(ctx, profile, feature); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *service) loadProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := profiles.NewRepository(s.db.DB()).FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}
	return profile, nil
}

func (s *service) localDay(profile *models.Profile) time.Time {
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return s.now().In(loc)
}

func (s *service) logFallback(ctx context.Context, feature enums.Feature, err error) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFeature(ctx, feature.String())
	if err != nil {
		s.logg.Error(logCtx, "generation failed, serving fallback content", err)
		return
	}
	s.logg.Warn(logCtx, "generation returned no content, serving fallback")
}
