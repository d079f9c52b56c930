package drivers

import (
	"context"
	"errors"

	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists driver profiles, earnings and payouts.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to driver operations.
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

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Driver, error) {
	var driver models.Driver
	if err := r.db.WithContext(ctx).First(&driver, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *Repository) FindByUserID(ctx context.Context, userID uint) (*models.Driver, error) {
	var driver models.Driver
	if err := r.db.WithContext(ctx).First(&driver, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

// LockByID loads the driver row under FOR UPDATE.
func (r *Repository) LockByID(ctx context.Context, id uint) (*models.Driver, error) {
	var driver models.Driver
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&driver).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *Repository) List(ctx context.Context, offset, limit int) ([]models.Driver, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Driver{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Driver
	err := r.db.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

func (r *Repository) Create(ctx context.Context, driver *models.Driver) error {
	return r.db.WithContext(ctx).Create(driver).Error
}

func (r *Repository) Save(ctx context.Context, driver *models.Driver) error {
	return r.db.WithContext(ctx).Save(driver).Error
}

// InsertEarning writes earning unless one already exists for its collection.
func (r *Repository) InsertEarning(ctx context.Context, earning *models.DriverEarning) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(earning)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) EarningForCollection(ctx context.Context, collectionID uint) (*models.DriverEarning, error) {
	var earning models.DriverEarning
	err := r.db.WithContext(ctx).Where("collection_id = ?", collectionID).Take(&earning).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &earning, nil
}

func (r *Repository) InsertPayout(ctx context.Context, payout *models.DriverPayout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *Repository) SumEarnings(ctx context.Context, driverID uint) (int64, error) {
	return r.sum(ctx, &models.DriverEarning{}, driverID)
}

func (r *Repository) SumPayouts(ctx context.Context, driverID uint) (int64, error) {
	return r.sum(ctx, &models.DriverPayout{}, driverID)
}

func (r *Repository) sum(ctx context.Context, model any, driverID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(model).
		Where("driver_id = ?", driverID).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	return total, err
}

func (r *Repository) ListEarnings(ctx context.Context, driverID uint, offset, limit int) ([]models.DriverEarning, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.DriverEarning{}).Where("driver_id = ?", driverID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.DriverEarning
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *Repository) ListPayouts(ctx context.Context, driverID uint, offset, limit int) ([]models.DriverPayout, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.DriverPayout{}).Where("driver_id = ?", driverID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.DriverPayout
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	return rows, total, err
}
