package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/greencredits/greencredits-backend/pkg/logger"
	"gorm.io/gorm"
)

// SubscriptionExpiryJobParams configures the subscription expiry job.
type SubscriptionExpiryJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository subscriptionExpiryRepo
	Now        func() time.Time
}

type subscriptionExpiryRepo interface {
	ExpireEndedPeriods(ctx context.Context, tx *gorm.DB, today time.Time) (int64, error)
}

// NewSubscriptionExpiryJob flips subscriptions whose paid period ended before
// today to inactive, so a later payment for the same plan is applied again.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &subscriptionExpiryJob{
		logg: params.Logger,
		db:   params.DB,
		repo: params.Repository,
		now:  now,
	}, nil
}

type subscriptionExpiryJob struct {
	logg *logger.Logger
	db   txRunner
	repo subscriptionExpiryRepo
	now  func() time.Time
}

func (j *subscriptionExpiryJob) Name() string { return "subscription-expiry" }

func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var expired int64
	if err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.ExpireEndedPeriods(ctx, tx, today)
		expired = rows
		return err
	}); err != nil {
		return fmt.Errorf("expire subscriptions: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"today":   today.Format(time.DateOnly),
		"expired": expired,
	}), "subscription expiry complete")
	return nil
}
