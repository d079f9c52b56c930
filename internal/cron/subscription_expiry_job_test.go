package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/greencredits/greencredits-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeExpiryRepo struct {
	today time.Time
	rows  int64
	err   error
}

func (f *fakeExpiryRepo) ExpireEndedPeriods(ctx context.Context, tx *gorm.DB, today time.Time) (int64, error) {
	f.today = today
	return f.rows, f.err
}

func TestSubscriptionExpiryJobTruncatesToUTCDate(t *testing.T) {
	repo := &fakeExpiryRepo{rows: 3}
	dublin, err := time.LoadLocation("Europe/Dublin")
	require.NoError(t, err)

	job, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         passthroughTx{},
		Repository: repo,
		Now:        func() time.Time { return time.Date(2026, 7, 1, 0, 30, 0, 0, dublin) },
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), repo.today)
}

func TestSubscriptionExpiryJobWrapsErrors(t *testing.T) {
	job, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         passthroughTx{},
		Repository: &fakeExpiryRepo{err: errors.New("db down")},
	})
	require.NoError(t, err)
	assert.ErrorContains(t, job.Run(context.Background()), "db down")
}
