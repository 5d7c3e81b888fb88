package controllers

import (
	"net/http"

	"github.com/lumenwell/lumen-backend/api/responses"
	"github.com/lumenwell/lumen-backend/internal/badges"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
	"github.com/lumenwell/lumen-backend/pkg/logger"
)

// BadgeList returns the full badge catalog annotated with the caller's
// earned state and numeric progress.
func BadgeList(svc badges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "badges service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		progress, err := svc.GetProgress(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"badges": progress})
	}
}
