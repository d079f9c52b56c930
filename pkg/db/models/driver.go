package models

import "time"

// Driver is the fulfilment profile attached to a user account.
type Driver struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       uint      `gorm:"column:user_id;not null;uniqueIndex"`
	VehicleType  *string   `gorm:"column:vehicle_type;size:50"`
	VehiclePlate *string   `gorm:"column:vehicle_plate;size:20"`
	Phone        *string   `gorm:"column:phone;size:20"`
	IsAvailable  bool      `gorm:"column:is_available;not null;default:true"`
	Zone         *string   `gorm:"column:zone;size:64"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// DriverEarning is owed to a driver for one collected pickup.
type DriverEarning struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement"`
	DriverID     uint      `gorm:"column:driver_id;not null;index"`
	CollectionID uint      `gorm:"column:collection_id;not null;uniqueIndex:idx_driver_earnings_collection"`
	AmountCents  int64     `gorm:"column:amount_cents;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// DriverPayout reduces a driver's payable balance.
type DriverPayout struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement"`
	DriverID    uint      `gorm:"column:driver_id;not null;index"`
	AmountCents int64     `gorm:"column:amount_cents;not null"`
	Note        *string   `gorm:"column:note;size:255"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
