package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lumenwell/lumen-backend/api/middleware"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
)

// requestUserID resolves the authenticated user's id from the request
// context. The auth middleware guarantees it for protected routes.
func requestUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user identity")
	}
	return userID, nil
}
