package models

import "time"

type ProjectMember struct {
	ID        uint      `gorm:"primaryKey"`
	ProjectID uint      `gorm:"not null;uniqueIndex:idx_project_account"`
	AccountID uint      `gorm:"not null;uniqueIndex:idx_project_account;index"`
	Role      string    `gorm:"not null;size:50"`
	JoinedAt  time.Time `gorm:"not null"`
}
