package collections

import (
	"context"
	"net/http"
	"time"

	"github.com/greencredits/greencredits-backend/api/controllers"
	"github.com/greencredits/greencredits-backend/api/responses"
	"github.com/greencredits/greencredits-backend/api/validators"
	collectionsvc "github.com/greencredits/greencredits-backend/internal/collections"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/logger"
)

type createCollectionRequest struct {
	ScheduledAt       time.Time `json:"scheduledAt" validate:"required"`
	ReturnPointID     uint      `json:"returnPointId" validate:"required"`
	BagCount          int       `json:"bagCount" validate:"omitempty,min=1,max=100"`
	Notes             *string   `json:"notes" validate:"omitempty,max=1024"`
	PickupAddress     *string   `json:"pickupAddress" validate:"omitempty,max=512"`
	VoucherPreference string    `json:"voucherPreference" validate:"omitempty,oneof=wallet donate"`
	CharityID         *string   `json:"charityId" validate:"omitempty,max=64"`
	CollectionType    string    `json:"collectionType" validate:"omitempty,max=32"`
}

func (req createCollectionRequest) toInput() collectionsvc.CreateInput {
	input := collectionsvc.CreateInput{
		ScheduledAt:       req.ScheduledAt,
		ReturnPointID:     req.ReturnPointID,
		BagCount:          req.BagCount,
		Notes:             req.Notes,
		PickupAddress:     req.PickupAddress,
		VoucherPreference: enums.VoucherPreference(req.VoucherPreference),
		CollectionType:    req.CollectionType,
	}
	if req.CharityID != nil {
		charity := enums.Charity(*req.CharityID)
		input.CharityID = &charity
	}
	return input
}

// Create books a one-off collection for the caller.
func Create(svc collectionsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body createCollectionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		collection, err := svc.Create(r.Context(), userID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCollectionResponse(collection))
	}
}

// ListMine returns the caller's non-archived collections, newest first.
func ListMine(svc collectionsvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListMine(r.Context(), userID, status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCollectionPage(page))
	}
}

// Get returns one collection. Users only see their own.
func Get(svc collectionsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		collection, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if collection.UserID != userID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "collection not found"))
			return
		}
		responses.WriteSuccess(w, newCollectionResponse(collection))
	}
}

// Cancel cancels one of the caller's collections.
func Cancel(svc collectionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return ownedAction(svc, logg, func(ctx context.Context, id, userID uint) (*models.Collection, error) {
		return svc.Cancel(ctx, id, userID)
	})
}

// Archive hides one of the caller's canceled collections.
func Archive(svc collectionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return ownedAction(svc, logg, func(ctx context.Context, id, userID uint) (*models.Collection, error) {
		return svc.Archive(ctx, id, userID)
	})
}

func ownedAction(svc collectionsvc.Service, logg *logger.Logger, action func(ctx context.Context, id, userID uint) (*models.Collection, error)) http.HandlerFunc {
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

		collection, err := action(r.Context(), id, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCollectionResponse(collection))
	}
}
