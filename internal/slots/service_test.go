package slots

import (
	"context"
	"testing"
	"time"

	"github.com/greencredits/greencredits-backend/pkg/db/dbtest"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPoints map[uint]bool

func (s stubPoints) Exists(_ context.Context, id uint) (bool, error) {
	return s[id], nil
}

type stubUpcoming struct {
	upcoming bool
	calls    int
}

func (s *stubUpcoming) HasUpcomingOneOff(context.Context, uint, time.Time) (bool, error) {
	s.calls++
	return s.upcoming, nil
}

func newTestService(t *testing.T) (Service, *stubUpcoming) {
	t.Helper()
	upcoming := &stubUpcoming{}
	svc, err := NewService(ServiceParams{
		Repo:         NewRepository(dbtest.Open(t)),
		ReturnPoints: stubPoints{1: true},
		Collections:  upcoming,
	})
	require.NoError(t, err)
	return svc, upcoming
}

func uintPtr(v uint) *uint { return &v }

func TestGetMineDefault(t *testing.T) {
	svc, _ := newTestService(t)

	slot, err := svc.GetMine(context.Background(), 3)
	require.NoError(t, err)
	assert.Zero(t, slot.ID)
	assert.Equal(t, "18:00:00", slot.StartTime)
	assert.Equal(t, "20:00:00", slot.EndTime)
	assert.Equal(t, enums.SlotStatusPaused, slot.Status)
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Upsert(ctx, 3, UpsertInput{Weekday: 2, StartTime: "09:00", EndTime: "11:30", PreferredReturnPointID: uintPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, "09:00:00", created.StartTime)
	assert.Equal(t, enums.SlotFrequencyWeekly, created.Frequency)
	assert.Equal(t, enums.SlotStatusActive, created.Status)

	updated, err := svc.Upsert(ctx, 3, UpsertInput{Weekday: 4, StartTime: "10:00:00", EndTime: "12:00:00", Frequency: enums.SlotFrequencyFortnightly})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 4, updated.Weekday)
	assert.Equal(t, enums.SlotFrequencyFortnightly, updated.Frequency)
	assert.Nil(t, updated.PreferredReturnPointID)
}

func TestUpsertValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]UpsertInput{
		"weekday":      {Weekday: 7, StartTime: "09:00", EndTime: "10:00"},
		"bad time":     {Weekday: 1, StartTime: "9am", EndTime: "10:00"},
		"inverted":     {Weekday: 1, StartTime: "12:00", EndTime: "10:00"},
		"before open":  {Weekday: 1, StartTime: "07:30", EndTime: "10:00"},
		"after close":  {Weekday: 1, StartTime: "18:00", EndTime: "20:30"},
		"return point": {Weekday: 1, StartTime: "09:00", EndTime: "10:00", PreferredReturnPointID: uintPtr(99)},
		"frequency":    {Weekday: 1, StartTime: "09:00", EndTime: "10:00", Frequency: "daily"},
	}
	for name, input := range cases {
		_, err := svc.Upsert(ctx, 1, input)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), name)
	}

	_, err := svc.Upsert(ctx, 1, UpsertInput{Weekday: 1, StartTime: "08:00", EndTime: "20:00"})
	assert.NoError(t, err)
}

func TestActiveSlotBlockedByUpcomingOneOff(t *testing.T) {
	svc, upcoming := newTestService(t)
	ctx := context.Background()
	upcoming.upcoming = true

	_, err := svc.Upsert(ctx, 1, UpsertInput{Weekday: 1, StartTime: "09:00", EndTime: "10:00"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	paused, err := svc.Upsert(ctx, 1, UpsertInput{Weekday: 1, StartTime: "09:00", EndTime: "10:00", Status: enums.SlotStatusPaused})
	require.NoError(t, err)
	assert.Equal(t, enums.SlotStatusPaused, paused.Status)

	_, err = svc.Resume(ctx, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	upcoming.upcoming = false
	resumed, err := svc.Resume(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, enums.SlotStatusActive, resumed.Status)
}

func TestPauseCancelLifecycle(t *testing.T) {
	svc, upcoming := newTestService(t)
	ctx := context.Background()

	_, err := svc.Pause(ctx, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Upsert(ctx, 1, UpsertInput{Weekday: 1, StartTime: "09:00", EndTime: "10:00"})
	require.NoError(t, err)

	paused, err := svc.Pause(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, enums.SlotStatusPaused, paused.Status)

	calls := upcoming.calls
	again, err := svc.Pause(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, enums.SlotStatusPaused, again.Status)
	assert.Equal(t, calls, upcoming.calls)

	canceled, err := svc.Cancel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, enums.SlotStatusCanceled, canceled.Status)
}
