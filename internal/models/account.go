package models

import "gorm.io/gorm"

type Account struct {
	gorm.Model

	Name           string `gorm:"not null;size:100"`
	Email          string `gorm:"uniqueIndex;not null;size:100"`
	PasswordHash   string `gorm:"not null"`
	Role           string `gorm:"not null;size:50"`
	IsActive       bool   `gorm:"not null"`
	ProfilePicture *string
}

func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
