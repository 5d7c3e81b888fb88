package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/lumenwell/lumen-backend/pkg/auth"
	"github.com/lumenwell/lumen-backend/pkg/config"
	"github.com/lumenwell/lumen-backend/pkg/db/models"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
	"github.com/lumenwell/lumen-backend/pkg/security"
)

func TestServiceLoginSuccess(t *testing.T) {
	password := "correct-horse"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "mira@example.com",
		PasswordHash: mustHashPassword(t, password),
		DisplayName:  "Mira",
		IsActive:     true,
	}
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "lumen",
		ExpirationMinutes: 30,
	}

	svc, sessions := buildTestService(t, user, cfg)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Mira@Example.com",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %s, got %s", user.ID, claims.UserID)
	}
	if resp.RefreshToken == "" {
		t.Fatal("expected refresh token")
	}
	if sessions.lastAccessID != claims.ID {
		t.Fatalf("session stored under %q, token jti %q", sessions.lastAccessID, claims.ID)
	}
	if resp.User == nil || resp.User.Email != user.Email {
		t.Fatalf("expected user dto, got %+v", resp.User)
	}
	if resp.User.LastLoginAt == nil {
		t.Fatal("expected last login recorded")
	}
}

func TestServiceLoginWrongPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "mira@example.com",
		PasswordHash: mustHashPassword(t, "right"),
		IsActive:     true,
	}
	svc, _ := buildTestService(t, user, config.JWTConfig{Secret: "secret", Issuer: "lumen", ExpirationMinutes: 30})

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong"})
	assertUnauthorized(t, err)
}

func TestServiceLoginUnknownEmail(t *testing.T) {
	svc, _ := buildTestService(t, nil, config.JWTConfig{Secret: "secret", Issuer: "lumen", ExpirationMinutes: 30})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assertUnauthorized(t, err)
}

func TestServiceLoginInactiveUser(t *testing.T) {
	password := "secret-pass"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "mira@example.com",
		PasswordHash: mustHashPassword(t, password),
		IsActive:     false,
	}
	svc, _ := buildTestService(t, user, config.JWTConfig{Secret: "secret", Issuer: "lumen", ExpirationMinutes: 30})

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	assertUnauthorized(t, err)
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func buildTestService(t *testing.T, user *models.User, cfg config.JWTConfig) (Service, *stubSessionManager) {
	t.Helper()
	repo := &stubUserRepo{user: user}
	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      cfg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user *models.User
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type stubSessionManager struct {
	lastAccessID string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.lastAccessID = accessID
	return "refresh-" + accessID, nil
}
