package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/greencredits/greencredits-backend/api/responses"
	"github.com/greencredits/greencredits-backend/api/validators"
	"github.com/greencredits/greencredits-backend/internal/slots"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/logger"
)

type slotResponse struct {
	ID                     uint                `json:"id,omitempty"`
	Weekday                int                 `json:"weekday"`
	StartTime              string              `json:"startTime"`
	EndTime                string              `json:"endTime"`
	PreferredReturnPointID *uint               `json:"preferredReturnPointId,omitempty"`
	Frequency              enums.SlotFrequency `json:"frequency"`
	Status                 enums.SlotStatus    `json:"status"`
	UpdatedAt              *time.Time          `json:"updatedAt,omitempty"`
}

func newSlotResponse(slot *models.RecurringSlot) slotResponse {
	resp := slotResponse{
		ID:                     slot.ID,
		Weekday:                slot.Weekday,
		StartTime:              slot.StartTime,
		EndTime:                slot.EndTime,
		PreferredReturnPointID: slot.PreferredReturnPointID,
		Frequency:              slot.Frequency,
		Status:                 slot.Status,
	}
	if !slot.UpdatedAt.IsZero() {
		updated := slot.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

// SlotGet returns the caller's recurring slot, or the paused default when none is saved.
func SlotGet(svc slots.Service, logg *logger.Logger) http.HandlerFunc {
	return slotAction(svc, logg, func(ctx context.Context, userID uint) (*models.RecurringSlot, error) {
		return svc.GetMine(ctx, userID)
	})
}

func SlotUpsert(svc slots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "slots service unavailable"))
			return
		}
		userID, err := ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body slots.UpsertInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slot, err := svc.Upsert(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSlotResponse(slot))
	}
}

func SlotPause(svc slots.Service, logg *logger.Logger) http.HandlerFunc {
	return slotAction(svc, logg, func(ctx context.Context, userID uint) (*models.RecurringSlot, error) {
		return svc.Pause(ctx, userID)
	})
}

func SlotResume(svc slots.Service, logg *logger.Logger) http.HandlerFunc {
	return slotAction(svc, logg, func(ctx context.Context, userID uint) (*models.RecurringSlot, error) {
		return svc.Resume(ctx, userID)
	})
}

func SlotCancel(svc slots.Service, logg *logger.Logger) http.HandlerFunc {
	return slotAction(svc, logg, func(ctx context.Context, userID uint) (*models.RecurringSlot, error) {
		return svc.Cancel(ctx, userID)
	})
}

func slotAction(svc slots.Service, logg *logger.Logger, action func(ctx context.Context, userID uint) (*models.RecurringSlot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "slots service unavailable"))
			return
		}
		userID, err := ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slot, err := action(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSlotResponse(slot))
	}
}
