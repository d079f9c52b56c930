package controllers

import (
	"context"
	"net/http"

	"github.com/greencredits/greencredits-backend/api/responses"
	"github.com/greencredits/greencredits-backend/api/validators"
	"github.com/greencredits/greencredits-backend/internal/returnpoints"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/logger"
	"github.com/greencredits/greencredits-backend/pkg/pagination"
)

type returnPointReader interface {
	Get(ctx context.Context, id uint) (*models.ReturnPoint, error)
	List(ctx context.Context, input returnpoints.ListInput) (pagination.Page[models.ReturnPoint], error)
}

type returnPointResponse struct {
	ID         uint    `json:"id"`
	ExternalID string  `json:"externalId"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Eircode    *string `json:"eircode,omitempty"`
	Retailer   *string `json:"retailer,omitempty"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

func newReturnPointResponse(p *models.ReturnPoint) returnPointResponse {
	return returnPointResponse{
		ID:         p.ID,
		ExternalID: p.ExternalID,
		Name:       p.Name,
		Type:       p.Type,
		Eircode:    p.Eircode,
		Retailer:   p.Retailer,
		Lat:        p.Lat,
		Lng:        p.Lng,
	}
}

// ReturnPointList supports chain, q, and lat/lng proximity ordering.
func ReturnPointList(svc returnPointReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "return points service unavailable"))
			return
		}
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lat, err := validators.ParseQueryFloat(r, "lat")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lng, err := validators.ParseQueryFloat(r, "lng")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if (lat == nil) != (lng == nil) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together"))
			return
		}

		input := returnpoints.ListInput{
			Chain:  validators.SanitizeString(r.URL.Query().Get("chain"), 64),
			Query:  validators.SanitizeString(r.URL.Query().Get("q"), 128),
			Params: params,
		}
		if lat != nil {
			input.Near = &returnpoints.Coordinates{Lat: *lat, Lng: *lng}
		}

		page, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]returnPointResponse, 0, len(page.Items))
		for i := range page.Items {
			items = append(items, newReturnPointResponse(&page.Items[i]))
		}
		responses.WriteSuccess(w, pagination.Page[returnPointResponse]{
			Items:    items,
			Total:    page.Total,
			Page:     page.Page,
			PageSize: page.PageSize,
		})
	}
}

func ReturnPointGet(svc returnPointReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "return points service unavailable"))
			return
		}
		id, err := validators.ParsePathUint(r, "returnPointId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		point, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newReturnPointResponse(point))
	}
}
