package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	stripepkg "github.com/stripe/stripe-go/v84"

	"github.com/lumenwell/lumen-backend/internal/ai"
	"github.com/lumenwell/lumen-backend/internal/auth"
	"github.com/lumenwell/lumen-backend/internal/badges"
	"github.com/lumenwell/lumen-backend/internal/billing"
	"github.com/lumenwell/lumen-backend/internal/entries"
	"github.com/lumenwell/lumen-backend/internal/media"
	"github.com/lumenwell/lumen-backend/internal/profiles"
	pkgAuth "github.com/lumenwell/lumen-backend/pkg/auth"
	"github.com/lumenwell/lumen-backend/pkg/config"
	"github.com/lumenwell/lumen-backend/pkg/logger"
	"github.com/lumenwell/lumen-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "new-jti", "new-refresh", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubProfileService struct{}

func (stubProfileService) GetByUserID(ctx context.Context, userID uuid.UUID) (*profiles.ProfileDTO, error) {
	return &profiles.ProfileDTO{UserID: userID}, nil
}

func (stubProfileService) UpdateSettings(ctx context.Context, userID uuid.UUID, req profiles.UpdateProfileRequest) (*profiles.ProfileDTO, error) {
	return &profiles.ProfileDTO{UserID: userID}, nil
}

type stubEntriesService struct{}

func (stubEntriesService) Create(ctx context.Context, userID uuid.UUID, req entries.CreateEntryRequest) (*entries.EntryDTO, error) {
	return &entries.EntryDTO{ID: uuid.New()}, nil
}

func (stubEntriesService) Get(ctx context.Context, userID, entryID uuid.UUID) (*entries.EntryDTO, error) {
	return &entries.EntryDTO{ID: entryID}, nil
}

func (stubEntriesService) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*entries.ListResult, error) {
	return &entries.ListResult{}, nil
}

func (stubEntriesService) Update(ctx context.Context, userID, entryID uuid.UUID, req entries.UpdateEntryRequest) (*entries.EntryDTO, error) {
	return &entries.EntryDTO{ID: entryID}, nil
}

func (stubEntriesService) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	return nil
}

type stubBadgesService struct{}

func (stubBadgesService) GetProgress(ctx context.Context, userID uuid.UUID) ([]badges.BadgeProgressDTO, error) {
	return nil, nil
}

type stubAIService struct{}

func (stubAIService) GenerateReflectionPrompt(ctx context.Context, userID uuid.UUID) (*ai.PromptResult, error) {
	return &ai.PromptResult{Prompt: "What made you smile today?", Fallback: true}, nil
}

func (stubAIService) AnalyzeMood(ctx context.Context, userID uuid.UUID, text string) (*ai.MoodAnalysisResult, error) {
	return &ai.MoodAnalysisResult{}, nil
}

func (stubAIService) GenerateAffirmation(ctx context.Context, userID uuid.UUID, text, mood string) (*ai.AffirmationResult, error) {
	return &ai.AffirmationResult{}, nil
}

func (stubAIService) GenerateMoodQuote(ctx context.Context, userID uuid.UUID, mood, text string) (*ai.QuoteResult, error) {
	return &ai.QuoteResult{}, nil
}

type stubBillingService struct{}

func (stubBillingService) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, tier string) (*billing.CheckoutSessionDTO, error) {
	return &billing.CheckoutSessionDTO{SessionID: "cs_test", URL: "https://checkout.stripe.test/cs_test"}, nil
}

type stubMediaService struct{}

func (stubMediaService) PresignPhotoUpload(ctx context.Context, userID uuid.UUID, input media.PresignInput) (*media.PresignOutput, error) {
	return &media.PresignOutput{}, nil
}

type stubWebhookService struct{}

func (stubWebhookService) HandleEvent(ctx context.Context, event *stripepkg.Event) error {
	return nil
}

type stubWebhookGuard struct{}

func (stubWebhookGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	return false, nil
}

func (stubWebhookGuard) Delete(ctx context.Context, eventID string) error {
	return nil
}

type stubStripeClient struct{}

func (stubStripeClient) SigningSecret() string {
	return "whsec_test"
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config:         cfg,
		Logger:         logg,
		DBPinger:       stubPinger{},
		SessionManager: stubSessionManager{},

		AuthService:     stubAuthService{},
		RegisterService: stubRegisterService{},
		ProfileService:  stubProfileService{},
		EntriesService:  stubEntriesService{},
		BadgesService:   stubBadgesService{},
		AIService:       stubAIService{},
		BillingService:  stubBillingService{},
		MediaService:    stubMediaService{},

		StripeClient:         stubStripeClient{},
		StripeWebhookService: stubWebhookService{},
		StripeWebhookGuard:   stubWebhookGuard{},
	})
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	return token
}

func TestPublicPingNeedsNoAuth(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-Lumen-Env"); env != "test" {
		t.Fatalf("expected env header test got %q", env)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{
		"/api/v1/ping",
		"/api/v1/profile",
		"/api/v1/entries",
		"/api/v1/badges",
		"/api/v1/usage",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s without token got %d", path, resp.Code)
		}
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestProfileRoutes(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := buildToken(t, cfg)

	get := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	get.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, get)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for profile get got %d", resp.Code)
	}

	put := httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(`{"timezone":"America/New_York"}`))
	put.Header.Set("Authorization", "Bearer "+token)
	put.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, put)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for profile update got %d", resp.Code)
	}
}

func TestEntryRoutes(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := buildToken(t, cfg)
	entryID := uuid.NewString()

	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v1/entries", ""},
		{http.MethodGet, "/api/v1/entries/" + entryID, ""},
		{http.MethodPatch, "/api/v1/entries/" + entryID, `{"content":"updated"}`},
		{http.MethodDelete, "/api/v1/entries/" + entryID, ""},
	}
	for _, tc := range cases {
		var body io.Reader
		if tc.body != "" {
			body = strings.NewReader(tc.body)
		}
		req := httptest.NewRequest(tc.method, tc.path, body)
		req.Header.Set("Authorization", "Bearer "+token)
		if tc.body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s %s got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestBadgeRoute(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/badges", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for badges got %d", resp.Code)
	}
}

func TestAIRoutes(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := buildToken(t, cfg)

	cases := []struct {
		path string
		body string
	}{
		{"/api/v1/ai/prompt", ""},
		{"/api/v1/ai/analyze-mood", `{"text":"today felt heavy"}`},
		{"/api/v1/ai/affirmation", `{"mood":"low"}`},
		{"/api/v1/ai/quote", `{"mood":"good"}`},
	}
	for _, tc := range cases {
		var body io.Reader
		if tc.body != "" {
			body = strings.NewReader(tc.body)
		}
		req := httptest.NewRequest(http.MethodPost, tc.path, body)
		req.Header.Set("Authorization", "Bearer "+token)
		if tc.body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", tc.path, resp.Code)
		}
	}
}

func TestLoginRoute(t *testing.T) {
	router := newTestRouter(testConfig())
	body := strings.NewReader(`{"email":"user@example.com","password":"hunter2long"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for login got %d", resp.Code)
	}
	if resp.Header().Get("X-Lumen-Token") == "" {
		t.Fatalf("expected access token header on login")
	}
}

func TestStripeWebhookRejectsMissingSignature(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without signature got %d", resp.Code)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/does-not-exist", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, testConfig()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
