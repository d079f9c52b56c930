package models

import (
	"time"

	"github.com/greencredits/greencredits-backend/pkg/enums"
)

// WalletTransaction is one immutable signed ledger entry.
type WalletTransaction struct {
	ID           uint               `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       uint               `gorm:"column:user_id;not null;index;uniqueIndex:idx_wallet_tx_collection,priority:1"`
	Ts           time.Time          `gorm:"column:ts;not null;index"`
	Kind         enums.WalletTxKind `gorm:"column:kind;size:24;not null;uniqueIndex:idx_wallet_tx_collection,priority:2"`
	AmountCents  int64              `gorm:"column:amount_cents;not null"`
	Note         *string            `gorm:"column:note;size:255"`
	CollectionID *uint              `gorm:"column:collection_id;uniqueIndex:idx_wallet_tx_collection,priority:3"`
	ProofRef     *string            `gorm:"column:proof_ref;size:32;uniqueIndex"`
}

// WalletAccount is the per-user row debits lock to serialize balance checks.
type WalletAccount struct {
	UserID    uint      `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ProofSequence allocates proof references per kind and calendar year.
type ProofSequence struct {
	Kind      enums.WalletTxKind `gorm:"column:kind;size:24;primaryKey"`
	Year      int                `gorm:"column:year;primaryKey;autoIncrement:false"`
	LastValue int64              `gorm:"column:last_value;not null;default:0"`
}
