// Package cron runs the nightly maintenance jobs of cron-worker: subscription
// expiry, recurring collection generation and notification cleanup.
package cron

import (
	"context"

	"gorm.io/gorm"
)

// Job is one named unit of nightly work. A failing job is logged and counted
// but does not stop the jobs after it.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// txRunner is satisfied by *db.Client.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
