package services

import (
	"fmt"
	"time"

	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"gorm.io/gorm"
)

// ReplaceAssignments swaps the whole assignee set of taskID for accountIDs inside tx.
// Duplicate ids collapse. It returns the previous set and the applied set, both in
// their original order.
func ReplaceAssignments(tx *gorm.DB, taskID uint, accountIDs []uint, assignedBy uint) ([]uint, []uint, error) {
	applied := distinctIDs(accountIDs)
	for _, id := range applied {
		if id == 0 {
			return nil, nil, types.Validation("assignee id must be positive")
		}
	}

	previous, err := AssigneeIDs(tx, taskID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskAssignment{}).Error; err != nil {
		return nil, nil, fmt.Errorf("clear assignments of task %d: %w", taskID, err)
	}

	if len(applied) == 0 {
		return previous, applied, nil
	}

	now := time.Now()
	rows := make([]models.TaskAssignment, 0, len(applied))
	for _, id := range applied {
		rows = append(rows, models.TaskAssignment{
			TaskID:       taskID,
			AccountID:    id,
			AssignedByID: assignedBy,
			AssignedAt:   now,
		})
	}

	if err := tx.Create(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("assign task %d: %w", taskID, err)
	}

	return previous, applied, nil
}

func AssigneeIDs(tx *gorm.DB, taskID uint) ([]uint, error) {
	ids := []uint{}
	if err := tx.Model(&models.TaskAssignment{}).
		Where("task_id = ?", taskID).
		Order("id").
		Pluck("account_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load assignees of task %d: %w", taskID, err)
	}
	return ids, nil
}

func IsAssigned(tx *gorm.DB, taskID, accountID uint) (bool, error) {
	var count int64
	if err := tx.Model(&models.TaskAssignment{}).
		Where("task_id = ? AND account_id = ?", taskID, accountID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("load assignment: %w", err)
	}
	return count > 0, nil
}
