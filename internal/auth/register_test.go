package auth

import (
	"context"
	"testing"

	"github.com/lumenwell/lumen-backend/pkg/config"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
)

func TestRegisterValidation(t *testing.T) {
	svc := &registerService{passwordCfg: config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}}

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{
			name: "missing email",
			req:  RegisterRequest{Password: "longenough", DisplayName: "Mira", AcceptTOS: true},
		},
		{
			name: "tos not accepted",
			req:  RegisterRequest{Email: "mira@example.com", Password: "longenough", DisplayName: "Mira"},
		},
		{
			name: "bogus timezone",
			req:  RegisterRequest{Email: "mira@example.com", Password: "longenough", DisplayName: "Mira", Timezone: "Mars/Olympus", AcceptTOS: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Register(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestNewRegisterServiceRequiresDB(t *testing.T) {
	if _, err := NewRegisterService(RegisterServiceParams{}); err == nil {
		t.Fatal("expected error when db is missing")
	}
}
