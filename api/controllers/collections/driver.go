package collections

import (
	"net/http"

	"github.com/greencredits/greencredits-backend/api/controllers"
	"github.com/greencredits/greencredits-backend/api/responses"
	"github.com/greencredits/greencredits-backend/api/validators"
	collectionsvc "github.com/greencredits/greencredits-backend/internal/collections"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/logger"
)

type markCompletedRequest struct {
	ProofURL           *string `json:"proofUrl" validate:"omitempty,max=512"`
	VoucherAmountCents int64   `json:"voucherAmountCents"`
}

// DriverList returns the collections assigned to the calling driver, soonest first.
func DriverList(svc collectionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "collections service unavailable"))
			return
		}
		userID, err := controllers.ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := parseStatusFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListForDriver(r.Context(), userID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCollectionList(items))
	}
}

func DriverMarkCollected(svc collectionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "collections service unavailable"))
			return
		}
		userID, err := controllers.ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUint(r, "collectionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := withCollection(r.Context(), logg, id)
		collection, err := svc.MarkCollected(ctx, id, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCollectionResponse(collection))
	}
}

// DriverMarkCompleted records the voucher and settles the wallet credit or donation.
func DriverMarkCompleted(svc collectionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "collections service unavailable"))
			return
		}
		userID, err := controllers.ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUint(r, "collectionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body markCompletedRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := withCollection(r.Context(), logg, id)
		collection, err := svc.MarkCompleted(ctx, id, userID, collectionsvc.MarkCompletedInput{
			ProofURL:           body.ProofURL,
			VoucherAmountCents: body.VoucherAmountCents,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCollectionResponse(collection))
	}
}
