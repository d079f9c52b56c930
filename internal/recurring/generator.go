// Package recurring turns active recurring slots into scheduled collections.
package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/greencredits/greencredits-backend/internal/collections"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/logger"
	"github.com/greencredits/greencredits-backend/pkg/timeofday"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// DefaultHorizonWeeks is used when a caller asks for a non-positive horizon.
const DefaultHorizonWeeks = 4

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type slotSource interface {
	ListGeneratable(ctx context.Context) ([]models.RecurringSlot, error)
}

// ErrSlotsUnavailable marks a run that could not load any slots.
var ErrSlotsUnavailable = errors.New("recurring slots unavailable")

// Result counts what one generation pass did.
type Result struct {
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
}

// Params wires the generator.
type Params struct {
	Logger      *logger.Logger
	DB          txRunner
	Slots       slotSource
	Collections *collections.Repository
	Location    *time.Location
	Now         func() time.Time
}

// Generator materialises slot occurrences inside a rolling horizon.
type Generator struct {
	logg        *logger.Logger
	db          txRunner
	slots       slotSource
	collections *collections.Repository
	loc         *time.Location
	now         func() time.Time
}

// NewGenerator validates params.
func NewGenerator(params Params) (*Generator, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Slots == nil {
		return nil, fmt.Errorf("slot source required")
	}
	if params.Collections == nil {
		return nil, fmt.Errorf("collection repository required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{
		logg:        params.Logger,
		db:          params.DB,
		slots:       params.Slots,
		collections: params.Collections,
		loc:         loc,
		now:         now,
	}, nil
}

// Generate creates the missing collections for every generatable slot between
// today and today+7*horizonWeeks days. Slots are processed independently; the
// returned error combines every slot failure.
func (g *Generator) Generate(ctx context.Context, horizonWeeks int) (Result, error) {
	if horizonWeeks <= 0 {
		horizonWeeks = DefaultHorizonWeeks
	}
	slots, err := g.slots.ListGeneratable(ctx)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%w: %v", ErrSlotsUnavailable, err), "list recurring slots")
	}

	now := g.now().In(g.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, g.loc)
	until := today.AddDate(0, 0, 7*horizonWeeks)

	var (
		result Result
		errs   error
	)
	for i := range slots {
		slot := slots[i]
		slotResult, err := g.generateSlot(ctx, slot, now, today, until)
		if err != nil {
			g.logg.Error(g.logg.WithField(ctx, "slot_id", slot.ID), "recurring generation failed for slot", err)
			errs = multierr.Append(errs, fmt.Errorf("slot %d: %w", slot.ID, err))
			continue
		}
		result.Generated += slotResult.Generated
		result.Skipped += slotResult.Skipped
	}

	g.logg.Info(g.logg.WithFields(ctx, map[string]any{
		"slots":     len(slots),
		"generated": result.Generated,
		"skipped":   result.Skipped,
		"horizon":   horizonWeeks,
	}), "recurring generation complete")
	return result, errs
}

func (g *Generator) generateSlot(ctx context.Context, slot models.RecurringSlot, now, today, until time.Time) (Result, error) {
	start, err := timeofday.Parse(slot.StartTime)
	if err != nil {
		return Result{}, fmt.Errorf("parse start time: %w", err)
	}
	if slot.PreferredReturnPointID == nil {
		return Result{}, nil
	}

	var result Result
	err = g.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := g.collections.WithTx(tx)
		for _, day := range Occurrences(slot.Weekday, slot.Frequency, today, until) {
			at := start.On(day, g.loc)
			if at.Before(now) {
				continue
			}
			exists, err := repo.ExistsForSlotInRange(ctx, slot.ID, day, day.AddDate(0, 0, 1))
			if err != nil {
				return fmt.Errorf("check existing collection: %w", err)
			}
			if exists {
				result.Skipped++
				continue
			}
			slotID := slot.ID
			collection := &models.Collection{
				UserID:            slot.UserID,
				ReturnPointID:     *slot.PreferredReturnPointID,
				RecurringSlotID:   &slotID,
				ScheduledAt:       at.UTC(),
				Status:            enums.CollectionStatusScheduled,
				BagCount:          1,
				VoucherPreference: enums.VoucherPreferenceWallet,
				CollectionType:    "bottles",
			}
			if err := repo.Create(ctx, collection); err != nil {
				return fmt.Errorf("create collection: %w", err)
			}
			result.Generated++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// Occurrences lists the calendar days in [from, until] a slot falls on.
// weekday 0 is Monday. The first occurrence is the first matching day on or
// after from; later ones follow the frequency's step.
func Occurrences(weekday int, frequency enums.SlotFrequency, from, until time.Time) []time.Time {
	if weekday < 0 || weekday > 6 {
		return nil
	}
	current := (int(from.Weekday()) + 6) % 7
	first := from.AddDate(0, 0, (weekday-current+7)%7)
	step := frequency.StepDays()

	var days []time.Time
	for day := first; !day.After(until); day = day.AddDate(0, 0, step) {
		days = append(days, day)
	}
	return days
}
