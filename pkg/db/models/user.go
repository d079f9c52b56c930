package models

import (
	"time"

	"github.com/greencredits/greencredits-backend/pkg/enums"
)

// User is an account holder; role drives route access.
type User struct {
	ID        uint       `gorm:"column:id;primaryKey;autoIncrement"`
	Email     string     `gorm:"column:email;size:255;not null;uniqueIndex"`
	FullName  *string    `gorm:"column:full_name;size:255"`
	Role      enums.Role `gorm:"column:role;size:16;not null;default:'user'"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
