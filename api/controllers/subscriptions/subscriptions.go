package subscriptions

import (
	"net/http"
	"time"

	"github.com/greencredits/greencredits-backend/api/controllers"
	"github.com/greencredits/greencredits-backend/api/responses"
	"github.com/greencredits/greencredits-backend/api/validators"
	subsvc "github.com/greencredits/greencredits-backend/internal/subscriptions"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/logger"
)

type subscriptionResponse struct {
	ID                 uint                     `json:"id,omitempty"`
	Status             enums.SubscriptionStatus `json:"status"`
	PlanCode           *string                  `json:"planCode,omitempty"`
	StartDate          *time.Time               `json:"startDate,omitempty"`
	EndDate            *time.Time               `json:"endDate,omitempty"`
	CurrentPeriodStart *time.Time               `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time               `json:"currentPeriodEnd,omitempty"`
	IsActive           bool                     `json:"isActive"`
}

type activateRequest struct {
	Plan string `json:"plan" validate:"omitempty,oneof=weekly monthly yearly"`
}

func newSubscriptionResponse(sub *models.Subscription, active bool) subscriptionResponse {
	return subscriptionResponse{
		ID:                 sub.ID,
		Status:             sub.Status,
		PlanCode:           sub.PlanCode,
		StartDate:          sub.StartDate,
		EndDate:            sub.EndDate,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		IsActive:           active,
	}
}

// Fetch returns the caller's authoritative subscription and whether it currently grants booking.
func Fetch(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}
		userID, err := controllers.ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		active, err := svc.IsActive(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSubscriptionResponse(sub, active))
	}
}

// Cancel stops renewal. Access remains until the current period ends.
func Cancel(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}
		userID, err := controllers.ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Cancel(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		active, err := svc.IsActive(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSubscriptionResponse(sub, active))
	}
}

// AdminActivate starts or switches a user's plan without a payment event.
func AdminActivate(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}
		userID, err := validators.ParsePathUint(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body activateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Activate(r.Context(), userID, enums.PlanCode(body.Plan))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSubscriptionResponse(sub, true))
	}
}
