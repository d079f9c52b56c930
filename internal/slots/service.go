package slots

import (
	"context"
	"fmt"
	"time"

	"github.com/greencredits/greencredits-backend/pkg/db"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/timeofday"
)

type returnPointChecker interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

type upcomingChecker interface {
	HasUpcomingOneOff(ctx context.Context, userID uint, now time.Time) (bool, error)
}

// Service manages a user's recurring pickup preference.
type Service interface {
	GetMine(ctx context.Context, userID uint) (*models.RecurringSlot, error)
	Upsert(ctx context.Context, userID uint, input UpsertInput) (*models.RecurringSlot, error)
	Pause(ctx context.Context, userID uint) (*models.RecurringSlot, error)
	Resume(ctx context.Context, userID uint) (*models.RecurringSlot, error)
	Cancel(ctx context.Context, userID uint) (*models.RecurringSlot, error)
}

// UpsertInput is the full slot preference. Empty frequency and status keep
// the current values, or weekly/active for a new slot.
type UpsertInput struct {
	Weekday                int                 `json:"weekday" validate:"min=0,max=6"`
	StartTime              string              `json:"startTime" validate:"required,clock"`
	EndTime                string              `json:"endTime" validate:"required,clock"`
	PreferredReturnPointID *uint               `json:"preferredReturnPointId"`
	Frequency              enums.SlotFrequency `json:"frequency"`
	Status                 enums.SlotStatus    `json:"status"`
}

// ServiceParams wires the slot service.
type ServiceParams struct {
	Repo         *Repository
	ReturnPoints returnPointChecker
	Collections  upcomingChecker
	Window       timeofday.Window
	Now          func() time.Time
}

type service struct {
	repo         *Repository
	returnPoints returnPointChecker
	collections  upcomingChecker
	window       timeofday.Window
	now          func() time.Time
}

// NewService builds the slot service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("slot repository required")
	}
	if params.ReturnPoints == nil {
		return nil, fmt.Errorf("return point checker required")
	}
	if params.Collections == nil {
		return nil, fmt.Errorf("collection checker required")
	}
	window := params.Window
	if window == (timeofday.Window{}) {
		window = timeofday.DefaultWindow
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:         params.Repo,
		returnPoints: params.ReturnPoints,
		collections:  params.Collections,
		window:       window,
		now:          now,
	}, nil
}

// GetMine returns the stored slot or an unsaved paused default.
func (s *service) GetMine(ctx context.Context, userID uint) (*models.RecurringSlot, error) {
	slot, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load slot")
	}
	if slot == nil {
		return &models.RecurringSlot{
			UserID:    userID,
			Weekday:   0,
			StartTime: "18:00:00",
			EndTime:   "20:00:00",
			Frequency: enums.SlotFrequencyWeekly,
			Status:    enums.SlotStatusPaused,
		}, nil
	}
	return slot, nil
}

func (s *service) Upsert(ctx context.Context, userID uint, input UpsertInput) (*models.RecurringSlot, error) {
	if input.Weekday < 0 || input.Weekday > 6 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weekday must be between 0 and 6")
	}
	start, err := timeofday.Parse(input.StartTime)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid startTime")
	}
	end, err := timeofday.Parse(input.EndTime)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid endTime")
	}
	if start >= end {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "startTime must be before endTime")
	}
	if !s.window.Contains(start) || !s.window.Contains(end) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "slot must fall within service hours %s", s.window)
	}
	if input.PreferredReturnPointID != nil {
		ok, err := s.returnPoints.Exists(ctx, *input.PreferredReturnPointID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "preferredReturnPointId does not reference an existing return point")
		}
	}
	if input.Frequency != "" && !input.Frequency.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid frequency %q", input.Frequency)
	}
	if input.Status != "" && !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", input.Status)
	}

	slot, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load slot")
	}
	isNew := slot == nil
	if isNew {
		slot = &models.RecurringSlot{
			UserID:    userID,
			Frequency: enums.SlotFrequencyWeekly,
			Status:    enums.SlotStatusActive,
		}
	}
	slot.Weekday = input.Weekday
	slot.StartTime = start.String()
	slot.EndTime = end.String()
	slot.PreferredReturnPointID = input.PreferredReturnPointID
	if input.Frequency != "" {
		slot.Frequency = input.Frequency
	}
	if input.Status != "" {
		slot.Status = input.Status
	}

	if slot.Status == enums.SlotStatusActive {
		if err := s.ensureNoUpcoming(ctx, userID); err != nil {
			return nil, err
		}
	}

	if isNew {
		err = s.repo.Create(ctx, slot)
	} else {
		err = s.repo.Save(ctx, slot)
	}
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slot already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save slot")
	}
	return slot, nil
}

func (s *service) Pause(ctx context.Context, userID uint) (*models.RecurringSlot, error) {
	return s.setStatus(ctx, userID, enums.SlotStatusPaused)
}

func (s *service) Resume(ctx context.Context, userID uint) (*models.RecurringSlot, error) {
	return s.setStatus(ctx, userID, enums.SlotStatusActive)
}

func (s *service) Cancel(ctx context.Context, userID uint) (*models.RecurringSlot, error) {
	return s.setStatus(ctx, userID, enums.SlotStatusCanceled)
}

func (s *service) setStatus(ctx context.Context, userID uint, status enums.SlotStatus) (*models.RecurringSlot, error) {
	slot, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load slot")
	}
	if slot == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no recurring slot")
	}
	if slot.Status == status {
		return slot, nil
	}
	if status == enums.SlotStatusActive {
		if err := s.ensureNoUpcoming(ctx, userID); err != nil {
			return nil, err
		}
	}
	slot.Status = status
	if err := s.repo.Save(ctx, slot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update slot status")
	}
	return slot, nil
}

func (s *service) ensureNoUpcoming(ctx context.Context, userID uint) error {
	upcoming, err := s.collections.HasUpcomingOneOff(ctx, userID, s.now().UTC())
	if err != nil {
		return err
	}
	if upcoming {
		return pkgerrors.New(pkgerrors.CodeConflict, "cancel your upcoming one-off collection before activating a recurring slot")
	}
	return nil
}
