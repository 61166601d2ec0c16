package models

import "time"

type Notification struct {
	ID        uint      `gorm:"primaryKey"`
	AccountID uint      `gorm:"not null;index"`
	TaskID    *uint     `gorm:"index"`
	Message   string    `gorm:"not null"`
	Type      string    `gorm:"not null;size:50"`
	IsRead    bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}
