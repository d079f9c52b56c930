package slots

import (
	"context"
	"errors"

	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository persists recurring slots; a user owns at most one.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to slot operations.
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

// FindByUser returns nil when the user has no slot.
func (r *Repository) FindByUser(ctx context.Context, userID uint) (*models.RecurringSlot, error) {
	var slot models.RecurringSlot
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *Repository) Create(ctx context.Context, slot *models.RecurringSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *Repository) Save(ctx context.Context, slot *models.RecurringSlot) error {
	return r.db.WithContext(ctx).Save(slot).Error
}

// HasActive reports whether userID has an active slot.
func (r *Repository) HasActive(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RecurringSlot{}).
		Where("user_id = ? AND status = ?", userID, enums.SlotStatusActive).
		Count(&count).Error
	return count > 0, err
}

// ListGeneratable returns active slots that name a return point, in id order.
func (r *Repository) ListGeneratable(ctx context.Context) ([]models.RecurringSlot, error) {
	var rows []models.RecurringSlot
	err := r.db.WithContext(ctx).
		Where("status = ? AND preferred_return_point_id IS NOT NULL", enums.SlotStatusActive).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}
