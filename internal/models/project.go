package models

import "gorm.io/gorm"

type Project struct {
	gorm.Model

	Name             string `gorm:"not null"`
	Description      string
	Status           string `gorm:"not null;size:20"`
	CreatedByID      uint   `gorm:"not null;index"`
	ProjectManagerID uint   `gorm:"not null;index"`
	ScrumMasterID    *uint  `gorm:"index"`

	// Relationships
	Members []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tasks   []Task          `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
