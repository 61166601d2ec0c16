package models

import "gorm.io/gorm"

type TaskComment struct {
	gorm.Model

	TaskID    uint   `gorm:"not null;index"`
	AccountID uint   `gorm:"not null;index"`
	Content   string `gorm:"not null"`
}
