package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages persistence for wallet ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Create inserts entry; inserted is false when a unique index already
	// holds an equivalent row.
	Create(ctx context.Context, entry *models.WalletTransaction) (inserted bool, err error)
	Sum(ctx context.Context, userID uint) (int64, error)
	LastEntryAt(ctx context.Context, userID uint) (*time.Time, error)
	List(ctx context.Context, userID uint, offset, limit int) ([]models.WalletTransaction, int64, error)
	FindCollectionCredit(ctx context.Context, userID, collectionID uint) (*models.WalletTransaction, error)
	ListForCollection(ctx context.Context, collectionID uint) ([]models.WalletTransaction, error)
	LockAccount(ctx context.Context, userID uint) error
	NextProofValue(ctx context.Context, kind enums.WalletTxKind, year int) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.WalletTransaction) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Sum(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) LastEntryAt(ctx context.Context, userID uint) (*time.Time, error) {
	var entry models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("ts DESC").
		Order("id DESC").
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry.Ts, nil
}

func (r *repository) List(ctx context.Context, userID uint, offset, limit int) ([]models.WalletTransaction, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).Where("user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.WalletTransaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("ts DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) FindCollectionCredit(ctx context.Context, userID, collectionID uint) (*models.WalletTransaction, error) {
	var entry models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND collection_id = ?", userID, collectionID).
		Where("kind IN ?", []enums.WalletTxKind{enums.WalletTxKindCollectionCredit, enums.WalletTxKindDonation}).
		Order("id ASC").
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListForCollection(ctx context.Context, collectionID uint) ([]models.WalletTransaction, error) {
	var rows []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// LockAccount creates the per-user account row on first use and takes a
// row lock on it for the rest of the transaction.
func (r *repository) LockAccount(ctx context.Context, userID uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WalletAccount{UserID: userID}).Error; err != nil {
		return err
	}
	var account models.WalletAccount
	return db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Take(&account).Error
}

// NextProofValue increments and returns the sequence for (kind, year) under a row lock.
func (r *repository) NextProofValue(ctx context.Context, kind enums.WalletTxKind, year int) (int64, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ProofSequence{Kind: kind, Year: year}).Error; err != nil {
		return 0, err
	}

	var seq models.ProofSequence
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("kind = ? AND year = ?", kind, year).
		Take(&seq).Error; err != nil {
		return 0, err
	}

	next := seq.LastValue + 1
	if err := db.Model(&models.ProofSequence{}).
		Where("kind = ? AND year = ?", kind, year).
		Update("last_value", next).Error; err != nil {
		return 0, err
	}
	return next, nil
}
