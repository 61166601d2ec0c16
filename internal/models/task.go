package models

import (
	"time"

	"gorm.io/gorm"
)

// Task is a node in a project's task tree. Subtasks reference their parent by id only.
type Task struct {
	gorm.Model

	ProjectID    uint   `gorm:"not null;index"`
	ParentTaskID *uint  `gorm:"index"`
	Title        string `gorm:"not null"`
	Description  string
	Status       string  `gorm:"not null;size:30"`
	Priority     *string `gorm:"size:20"`
	StoryPoints  *int
	DueDate      *time.Time `gorm:"index"`
	ReporterID   uint       `gorm:"not null;index"`

	// Relationships
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
