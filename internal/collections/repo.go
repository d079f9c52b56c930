package collections

import (
	"context"
	"time"

	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows admin and owner listings. Zero values mean "any".
type ListFilter struct {
	UserID     *uint
	DriverID   *uint
	Status     *enums.CollectionStatus
	Unassigned bool
	Ascending  bool
	Offset     int
	Limit      int
}

// Repository persists collections.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to collection operations.
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

func (r *Repository) Create(ctx context.Context, collection *models.Collection) error {
	return r.db.WithContext(ctx).Create(collection).Error
}

func (r *Repository) Save(ctx context.Context, collection *models.Collection) error {
	return r.db.WithContext(ctx).Save(collection).Error
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Collection, error) {
	var collection models.Collection
	if err := r.db.WithContext(ctx).First(&collection, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &collection, nil
}

// LockByID loads the collection under FOR UPDATE.
func (r *Repository) LockByID(ctx context.Context, id uint) (*models.Collection, error) {
	var collection models.Collection
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&collection).Error; err != nil {
		return nil, err
	}
	return &collection, nil
}

// List returns non-archived collections matching filter, ordered by
// scheduled_at, plus the unpaged total.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Collection, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Collection{}).Where("archived = ?", false)
		if filter.UserID != nil {
			q = q.Where("user_id = ?", *filter.UserID)
		}
		if filter.DriverID != nil {
			q = q.Where("driver_id = ?", *filter.DriverID)
		}
		if filter.Unassigned {
			q = q.Where("driver_id IS NULL")
		}
		if filter.Status != nil {
			q = q.Where("status = ?", *filter.Status)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "scheduled_at DESC"
	if filter.Ascending {
		order = "scheduled_at ASC"
	}
	q := scoped().Order(order).Order("id ASC")
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}
	var rows []models.Collection
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// LockOwner takes a row lock on the booking user so concurrent bookings for
// the same user run their weekly check one at a time.
func (r *Repository) LockOwner(ctx context.Context, userID uint) error {
	var user models.User
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", userID).
		Take(&user).Error
}

// CountOneOffInRange counts live, user-booked collections scheduled in [from, to).
func (r *Repository) CountOneOffInRange(ctx context.Context, userID uint, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Collection{}).
		Where("user_id = ?", userID).
		Where("status <> ?", enums.CollectionStatusCanceled).
		Where("archived = ?", false).
		Where("recurring_slot_id IS NULL").
		Where("scheduled_at >= ? AND scheduled_at < ?", from.UTC(), to.UTC()).
		Count(&count).Error
	return count, err
}

// HasUpcomingOneOff reports a scheduled or assigned user-booked collection at or after now.
func (r *Repository) HasUpcomingOneOff(ctx context.Context, userID uint, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Collection{}).
		Where("user_id = ?", userID).
		Where("status IN ?", []enums.CollectionStatus{enums.CollectionStatusScheduled, enums.CollectionStatusAssigned}).
		Where("archived = ?", false).
		Where("recurring_slot_id IS NULL").
		Where("scheduled_at >= ?", now.UTC()).
		Count(&count).Error
	return count > 0, err
}

// ExistsForSlotInRange reports any collection, in any status, generated from
// slotID and scheduled in [from, to).
func (r *Repository) ExistsForSlotInRange(ctx context.Context, slotID uint, from, to time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Collection{}).
		Where("recurring_slot_id = ?", slotID).
		Where("scheduled_at >= ? AND scheduled_at < ?", from.UTC(), to.UTC()).
		Count(&count).Error
	return count > 0, err
}
