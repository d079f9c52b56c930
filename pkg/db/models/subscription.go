package models

import (
	"time"

	"github.com/greencredits/greencredits-backend/pkg/enums"
)

// Subscription persists a user's billing state; the newest row wins.
type Subscription struct {
	ID                     uint                     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID                 uint                     `gorm:"column:user_id;not null;index"`
	Status                 enums.SubscriptionStatus `gorm:"column:status;size:16;not null;default:'inactive'"`
	PlanCode               *string                  `gorm:"column:plan_code;size:32"`
	StartDate              *time.Time               `gorm:"column:start_date"`
	EndDate                *time.Time               `gorm:"column:end_date"`
	CurrentPeriodStart     *time.Time               `gorm:"column:current_period_start"`
	CurrentPeriodEnd       *time.Time               `gorm:"column:current_period_end"`
	ExternalCustomerID     *string                  `gorm:"column:external_customer_id;size:64"`
	ExternalSubscriptionID *string                  `gorm:"column:external_subscription_id;size:64"`
	LastInvoiceID          *string                  `gorm:"column:last_invoice_id;size:64"`
	CreatedAt              time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
