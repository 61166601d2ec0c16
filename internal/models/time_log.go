package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// FieldChange is one field transition recorded on an audit row.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// Descriptor renders the change the way it is shown in the audit trail.
func (c FieldChange) Descriptor() string {
	if c.Field == "Description" {
		return "Description updated"
	}
	return fmt.Sprintf("%s: %s → %s", c.Field, c.OldValue, c.NewValue)
}

type FieldChanges []FieldChange

func (cs FieldChanges) String() string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, c.Descriptor())
	}
	return strings.Join(parts, ", ")
}

// TimeLog is the append-only audit row. Rows are never updated or deleted.
type TimeLog struct {
	ID        uint   `gorm:"primaryKey"`
	TaskID    *uint  `gorm:"index"`
	ProjectID *uint  `gorm:"index"`
	AccountID uint   `gorm:"not null;index"`
	Action    string `gorm:"not null;size:50;index"`
	OldValue  *string
	NewValue  *string
	Changes   datatypes.JSONSlice[FieldChange]
	Note      string
	CreatedAt time.Time `gorm:"not null;index"`
}
