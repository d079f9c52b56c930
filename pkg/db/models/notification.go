package models

import "time"

// Notification is an in-app message; a nil UserID broadcasts to everyone.
type Notification struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    *uint     `gorm:"column:user_id;index"`
	Title     string    `gorm:"column:title;size:255;not null"`
	Body      string    `gorm:"column:body;not null"`
	IsRead    bool      `gorm:"column:is_read;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
