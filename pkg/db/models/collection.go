package models

import (
	"time"

	"github.com/greencredits/greencredits-backend/pkg/enums"
)

// Collection is one requested or scheduled pickup.
type Collection struct {
	ID                 uint                    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID             uint                    `gorm:"column:user_id;not null;index"`
	ReturnPointID      uint                    `gorm:"column:return_point_id;not null"`
	DriverID           *uint                   `gorm:"column:driver_id;index"`
	RecurringSlotID    *uint                   `gorm:"column:recurring_slot_id;index"`
	ScheduledAt        time.Time               `gorm:"column:scheduled_at;not null;index"`
	Status             enums.CollectionStatus  `gorm:"column:status;size:16;not null;default:'scheduled';index"`
	BagCount           int                     `gorm:"column:bag_count;not null;default:1"`
	Notes              *string                 `gorm:"column:notes;size:1024"`
	PickupAddress      *string                 `gorm:"column:pickup_address;size:512"`
	VoucherPreference  enums.VoucherPreference `gorm:"column:voucher_preference;size:16;not null;default:'wallet'"`
	CharityID          *enums.Charity          `gorm:"column:charity_id;size:64"`
	CollectionType     string                  `gorm:"column:collection_type;size:32;not null;default:'bottles'"`
	ProofURL           *string                 `gorm:"column:proof_url;size:512"`
	VoucherAmountCents *int64                  `gorm:"column:voucher_amount_cents"`
	Archived           bool                    `gorm:"column:archived;not null;default:false"`
	CreatedAt          time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// IsRecurring reports whether the generator produced this collection.
func (c *Collection) IsRecurring() bool {
	return c != nil && c.RecurringSlotID != nil
}

// IsAssignedTo reports whether driverID is the assigned driver.
func (c *Collection) IsAssignedTo(driverID uint) bool {
	return c != nil && c.DriverID != nil && *c.DriverID == driverID
}
