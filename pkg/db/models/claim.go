package models

import (
	"time"

	"github.com/greencredits/greencredits-backend/pkg/enums"
)

// Claim is a user-filed dispute handled by admins.
type Claim struct {
	ID            uint              `gorm:"column:id;primaryKey;autoIncrement"`
	UserID        uint              `gorm:"column:user_id;not null;index"`
	Description   string            `gorm:"column:description;size:2048;not null"`
	ImageURL      *string           `gorm:"column:image_url;size:512"`
	Status        enums.ClaimStatus `gorm:"column:status;size:16;not null;default:'open';index"`
	AdminResponse *string           `gorm:"column:admin_response;size:2048"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
