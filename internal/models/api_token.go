package models

import "time"

// ApiToken tracks an issued session token so it can be revoked before it expires.
type ApiToken struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"uniqueIndex;not null;size:64"`
	AccountID uint      `gorm:"not null;index"`
	Revoked   bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}
