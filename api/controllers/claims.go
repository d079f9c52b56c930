package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/greencredits/greencredits-backend/api/responses"
	"github.com/greencredits/greencredits-backend/api/validators"
	"github.com/greencredits/greencredits-backend/internal/claims"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/logger"
	"github.com/greencredits/greencredits-backend/pkg/pagination"
)

type claimResponse struct {
	ID            uint              `json:"id"`
	UserID        uint              `json:"userId"`
	Description   string            `json:"description"`
	ImageURL      *string           `json:"imageUrl,omitempty"`
	Status        enums.ClaimStatus `json:"status"`
	AdminResponse *string           `json:"adminResponse,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func newClaimResponse(c *models.Claim) claimResponse {
	return claimResponse{
		ID:            c.ID,
		UserID:        c.UserID,
		Description:   c.Description,
		ImageURL:      c.ImageURL,
		Status:        c.Status,
		AdminResponse: c.AdminResponse,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func newClaimList(items []models.Claim) []claimResponse {
	out := make([]claimResponse, 0, len(items))
	for i := range items {
		out = append(out, newClaimResponse(&items[i]))
	}
	return out
}

func ClaimCreate(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claims service unavailable"))
			return
		}
		userID, err := ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body claims.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claim, err := svc.Create(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newClaimResponse(claim))
	}
}

func ClaimListMine(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claims service unavailable"))
			return
		}
		userID, err := ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListMine(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newClaimList(items))
	}
}

func AdminClaimList(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claims service unavailable"))
			return
		}
		var status *enums.ClaimStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseClaimStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pagination.Page[claimResponse]{
			Items:    newClaimList(page.Items),
			Total:    page.Total,
			Page:     page.Page,
			PageSize: page.PageSize,
		})
	}
}

func AdminClaimUpdate(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claims service unavailable"))
			return
		}
		claimID, err := validators.ParsePathUint(r, "claimId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body claims.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claim, err := svc.Update(r.Context(), claimID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newClaimResponse(claim))
	}
}
