package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists subscription rows. The newest row per user is current.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to subscription operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Latest returns the current row for userID, or nil when none exists.
func (r *Repository) Latest(ctx context.Context, userID uint) (*models.Subscription, error) {
	return r.latest(r.db.WithContext(ctx), userID)
}

// LatestForUpdate is Latest under a row lock.
func (r *Repository) LatestForUpdate(ctx context.Context, userID uint) (*models.Subscription, error) {
	return r.latest(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *Repository) latest(q *gorm.DB, userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := q.Where("user_id = ?", userID).Order("id DESC").Take(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Save inserts or updates sub.
func (r *Repository) Save(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

// ExpireEndedPeriods marks active or canceled rows whose period ended before
// today as inactive and returns how many changed.
func (r *Repository) ExpireEndedPeriods(ctx context.Context, tx *gorm.DB, today time.Time) (int64, error) {
	res := r.WithTx(tx).db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status IN ?", []enums.SubscriptionStatus{enums.SubscriptionStatusActive, enums.SubscriptionStatusCanceled}).
		Where("current_period_end IS NOT NULL AND current_period_end < ?", today).
		Update("status", enums.SubscriptionStatusInactive)
	return res.RowsAffected, res.Error
}
