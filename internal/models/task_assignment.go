package models

import "time"

// TaskAssignment rows are hard-deleted on reassignment so the unique pair can be reused.
type TaskAssignment struct {
	ID           uint      `gorm:"primaryKey"`
	TaskID       uint      `gorm:"not null;uniqueIndex:idx_task_account"`
	AccountID    uint      `gorm:"not null;uniqueIndex:idx_task_account;index"`
	AssignedByID uint      `gorm:"not null"`
	AssignedAt   time.Time `gorm:"not null"`
}
