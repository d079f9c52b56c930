package models

import (
	"time"

	"github.com/greencredits/greencredits-backend/pkg/enums"
)

// RecurringSlot is a user's standing pickup preference. Weekday 0 is Monday.
type RecurringSlot struct {
	ID                     uint                `gorm:"column:id;primaryKey;autoIncrement"`
	UserID                 uint                `gorm:"column:user_id;not null;uniqueIndex"`
	Weekday                int                 `gorm:"column:weekday;not null"`
	StartTime              string              `gorm:"column:start_time;size:8;not null"`
	EndTime                string              `gorm:"column:end_time;size:8;not null"`
	PreferredReturnPointID *uint               `gorm:"column:preferred_return_point_id"`
	Frequency              enums.SlotFrequency `gorm:"column:frequency;size:16;not null;default:'weekly'"`
	Status                 enums.SlotStatus    `gorm:"column:status;size:16;not null;default:'active';index"`
	CreatedAt              time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
