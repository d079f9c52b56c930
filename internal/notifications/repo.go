package notifications

import (
	"context"
	"time"

	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes persistence helpers for notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	ListForUser(ctx context.Context, userID uint, offset, limit int) ([]models.Notification, int64, error)
	ListAll(ctx context.Context, offset, limit int) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error)
	DeleteReadOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// ListForUser returns the user's own rows plus broadcasts, newest first.
func (r *repositoryImpl) ListForUser(ctx context.Context, userID uint, offset, limit int) ([]models.Notification, int64, error) {
	scoped := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.Notification{}).
			Where("user_id = ? OR user_id IS NULL", userID)
	}
	return r.page(scoped, offset, limit)
}

func (r *repositoryImpl) ListAll(ctx context.Context, offset, limit int) ([]models.Notification, int64, error) {
	scoped := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Notification{})
	}
	return r.page(scoped, offset, limit)
}

func (r *repositoryImpl) page(scoped func() *gorm.DB, offset, limit int) ([]models.Notification, int64, error) {
	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Notification
	if err := scoped().Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// MarkRead flips is_read on a row the user can see. Rows addressed to other
// users surface as gorm.ErrRecordNotFound.
func (r *repositoryImpl) MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND (user_id = ? OR user_id IS NULL)", notificationID, userID).
		First(&notification).Error
	if err != nil {
		return nil, err
	}
	if notification.IsRead {
		return &notification, nil
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", notification.ID).
		UpdateColumn("is_read", true).Error; err != nil {
		return nil, err
	}
	notification.IsRead = true
	return &notification, nil
}

// DeleteReadOlderThan removes at most limit read notifications created before
// cutoff. A non-positive limit removes all of them.
func (r *repositoryImpl) DeleteReadOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) (int64, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	conn = conn.WithContext(ctx)
	stale := func(db *gorm.DB) *gorm.DB {
		return db.Where("is_read = ? AND created_at < ?", true, cutoff.UTC())
	}
	var result *gorm.DB
	if limit > 0 {
		ids := stale(conn.Model(&models.Notification{}).Select("id")).Order("id").Limit(limit)
		result = conn.Where("id IN (?)", ids).Delete(&models.Notification{})
	} else {
		result = stale(conn).Delete(&models.Notification{})
	}
	return result.RowsAffected, result.Error
}
