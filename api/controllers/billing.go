package controllers

import (
	"net/http"

	"github.com/lumenwell/lumen-backend/api/responses"
	"github.com/lumenwell/lumen-backend/api/validators"
	"github.com/lumenwell/lumen-backend/internal/billing"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
	"github.com/lumenwell/lumen-backend/pkg/logger"
)

type checkoutRequest struct {
	Tier string `json:"tier" validate:"required"`
}

// BillingCheckout starts a hosted Stripe checkout for a premium tier.
func BillingCheckout(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CreateCheckoutSession(r.Context(), userID, body.Tier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}
