package models

import "time"

type TaskPermission struct {
	ID         uint `gorm:"primaryKey"`
	TaskID     uint `gorm:"not null;uniqueIndex:idx_permission_task_account"`
	AccountID  uint `gorm:"not null;uniqueIndex:idx_permission_task_account"`
	CanView    bool `gorm:"not null"`
	CanEdit    bool `gorm:"not null"`
	CanDelete  bool `gorm:"not null"`
	CanComment bool `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
