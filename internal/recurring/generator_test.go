package recurring

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/greencredits/greencredits-backend/internal/collections"
	"github.com/greencredits/greencredits-backend/internal/slots"
	"github.com/greencredits/greencredits-backend/pkg/db/dbtest"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	"github.com/greencredits/greencredits-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Monday 2025-03-10 09:00 UTC.
var monday = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newGenerator(t *testing.T, now time.Time) (*Generator, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	gen, err := NewGenerator(Params{
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:          client,
		Slots:       slots.NewRepository(conn),
		Collections: collections.NewRepository(conn),
		Now:         func() time.Time { return now },
	})
	require.NoError(t, err)
	return gen, conn
}

func seedSlot(t *testing.T, conn *gorm.DB, userID uint, weekday int, start string, freq enums.SlotFrequency, status enums.SlotStatus, pointID *uint) *models.RecurringSlot {
	t.Helper()
	slot := &models.RecurringSlot{
		UserID:                 userID,
		Weekday:                weekday,
		StartTime:              start,
		EndTime:                "20:00:00",
		PreferredReturnPointID: pointID,
		Frequency:              freq,
		Status:                 status,
	}
	require.NoError(t, conn.Create(slot).Error)
	return slot
}

func scheduledFor(t *testing.T, conn *gorm.DB, slotID uint) []time.Time {
	t.Helper()
	var rows []models.Collection
	require.NoError(t, conn.Where("recurring_slot_id = ?", slotID).Order("scheduled_at ASC").Find(&rows).Error)
	out := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ScheduledAt.UTC())
	}
	return out
}

func TestGenerateWeeklyIsIdempotent(t *testing.T) {
	gen, conn := newGenerator(t, monday)
	point := uint(1)
	slot := seedSlot(t, conn, 1, 2, "10:00:00", enums.SlotFrequencyWeekly, enums.SlotStatusActive, &point)

	res, err := gen.Generate(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, Result{Generated: 4, Skipped: 0}, res)
	assert.Equal(t, []time.Time{
		time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 19, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 26, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC),
	}, scheduledFor(t, conn, slot.ID))

	again, err := gen.Generate(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, Result{Generated: 0, Skipped: 4}, again)
	assert.Len(t, scheduledFor(t, conn, slot.ID), 4)

	var c models.Collection
	require.NoError(t, conn.Where("recurring_slot_id = ?", slot.ID).First(&c).Error)
	assert.Equal(t, enums.CollectionStatusScheduled, c.Status)
	assert.Equal(t, 1, c.BagCount)
	assert.Nil(t, c.DriverID)
	assert.Equal(t, point, c.ReturnPointID)
}

func TestGenerateStepsAndSkipsPastTimes(t *testing.T) {
	gen, conn := newGenerator(t, monday)
	point := uint(1)
	fortnightly := seedSlot(t, conn, 1, 0, "08:00", enums.SlotFrequencyFortnightly, enums.SlotStatusActive, &point)
	monthly := seedSlot(t, conn, 2, 0, "18:00:00", enums.SlotFrequencyMonthly, enums.SlotStatusActive, &point)

	res, err := gen.Generate(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Generated)
	assert.Zero(t, res.Skipped)

	assert.Equal(t, []time.Time{
		time.Date(2025, 3, 24, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 7, 8, 0, 0, 0, time.UTC),
	}, scheduledFor(t, conn, fortnightly.ID))
	assert.Equal(t, []time.Time{
		time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 7, 18, 0, 0, 0, time.UTC),
	}, scheduledFor(t, conn, monthly.ID))
}

func TestGenerateIgnoresInactiveAndPointlessSlots(t *testing.T) {
	gen, conn := newGenerator(t, monday)
	point := uint(1)
	seedSlot(t, conn, 1, 2, "10:00", enums.SlotFrequencyWeekly, enums.SlotStatusPaused, &point)
	seedSlot(t, conn, 2, 2, "10:00", enums.SlotFrequencyWeekly, enums.SlotStatusCanceled, &point)
	seedSlot(t, conn, 3, 2, "10:00", enums.SlotFrequencyWeekly, enums.SlotStatusActive, nil)

	res, err := gen.Generate(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestGenerateCountsCanceledOccurrenceAsExisting(t *testing.T) {
	gen, conn := newGenerator(t, monday)
	point := uint(1)
	slot := seedSlot(t, conn, 1, 2, "10:00", enums.SlotFrequencyWeekly, enums.SlotStatusActive, &point)

	_, err := gen.Generate(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, conn.Model(&models.Collection{}).
		Where("recurring_slot_id = ?", slot.ID).
		Update("status", enums.CollectionStatusCanceled).Error)

	res, err := gen.Generate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 1}, res)
}

func TestGenerateIsDeterministic(t *testing.T) {
	point := uint(7)
	var runs [][]time.Time
	for i := 0; i < 2; i++ {
		gen, conn := newGenerator(t, monday)
		slot := seedSlot(t, conn, 1, 4, "12:30", enums.SlotFrequencyFortnightly, enums.SlotStatusActive, &point)
		_, err := gen.Generate(context.Background(), 6)
		require.NoError(t, err)
		runs = append(runs, scheduledFor(t, conn, slot.ID))
	}
	assert.Equal(t, runs[0], runs[1])
	assert.Len(t, runs[0], 3)
}

func TestGenerateIsolatesSlotFailures(t *testing.T) {
	gen, conn := newGenerator(t, monday)
	point := uint(1)
	broken := seedSlot(t, conn, 1, 2, "25:99", enums.SlotFrequencyWeekly, enums.SlotStatusActive, &point)
	healthy := seedSlot(t, conn, 2, 2, "10:00", enums.SlotFrequencyWeekly, enums.SlotStatusActive, &point)

	res, err := gen.Generate(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slot 1")
	assert.Equal(t, 1, res.Generated)
	assert.Empty(t, scheduledFor(t, conn, broken.ID))
	assert.Len(t, scheduledFor(t, conn, healthy.ID), 1)
}

func TestGenerateUsesConfiguredLocation(t *testing.T) {
	dublin, err := time.LoadLocation("Europe/Dublin")
	require.NoError(t, err)
	client, conn := dbtest.OpenClient(t)
	gen, err := NewGenerator(Params{
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:          client,
		Slots:       slots.NewRepository(conn),
		Collections: collections.NewRepository(conn),
		Location:    dublin,
		Now:         func() time.Time { return time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	point := uint(1)
	slot := seedSlot(t, conn, 1, 0, "09:00", enums.SlotFrequencyMonthly, enums.SlotStatusActive, &point)

	_, err = gen.Generate(context.Background(), 1)
	require.NoError(t, err)
	got := scheduledFor(t, conn, slot.ID)
	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), got[0])
}

func TestOccurrences(t *testing.T) {
	from := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC) // Thursday
	until := from.AddDate(0, 0, 14)

	weekly := Occurrences(0, enums.SlotFrequencyWeekly, from, until)
	assert.Equal(t, []time.Time{
		time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 24, 0, 0, 0, 0, time.UTC),
	}, weekly)

	sameDay := Occurrences(3, enums.SlotFrequencyWeekly, from, until)
	require.Len(t, sameDay, 3)
	assert.Equal(t, from, sameDay[0])
	assert.Equal(t, until, sameDay[2])

	assert.Len(t, Occurrences(3, enums.SlotFrequencyMonthly, from, until), 1)
	assert.Nil(t, Occurrences(7, enums.SlotFrequencyWeekly, from, until))
}
