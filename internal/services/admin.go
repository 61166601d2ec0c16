package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tasktrack-dev/tasktrack/internal/authz"
	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AdminOverride holds the force paths. They skip permission resolution and always
// write a log row, even when the value did not change. The caller is trusted to be an
// Admin unless VerifyCaller is set.
type AdminOverride struct {
	store
	audit        *AuditLog
	events       TaskEvents
	VerifyCaller bool
}

func NewAdminOverride(db *gorm.DB, opTimeout time.Duration, audit *AuditLog, verifyCaller bool) *AdminOverride {
	return &AdminOverride{store: newStore(db, opTimeout), audit: audit, VerifyCaller: verifyCaller}
}

func (a *AdminOverride) SetEvents(events TaskEvents) {
	a.events = events
}

func (a *AdminOverride) check(actor *authz.Context) error {
	if a.VerifyCaller && !actor.IsAdmin() {
		return types.Forbidden("admin role required")
	}
	return nil
}

// ForceUpdateStatus sets the status without the edit check. An empty note falls back to
// the default log note.
func (a *AdminOverride) ForceUpdateStatus(ctx context.Context, actor *authz.Context, taskID uint, status, note string) error {
	if err := validateStatus(status); err != nil {
		return err
	}
	if note = strings.TrimSpace(note); note == "" {
		note = "Force updated by admin"
	}

	task, err := a.force(ctx, actor, taskID, ActionStatusChanged, note, func(task *models.Task) models.FieldChange {
		change := models.FieldChange{Field: "Status", OldValue: task.Status, NewValue: status}
		task.Status = status
		return change
	})
	if err != nil {
		return err
	}

	if a.events != nil {
		a.events.TaskStatusChanged(ctx, task, status)
	}
	return nil
}

func (a *AdminOverride) ChangePriority(ctx context.Context, actor *authz.Context, taskID uint, priority string) error {
	if err := validatePriority(priority); err != nil {
		return err
	}

	_, err := a.force(ctx, actor, taskID, ActionPriorityChanged, "Priority changed by admin", func(task *models.Task) models.FieldChange {
		change := models.FieldChange{Field: "Priority", OldValue: optional(task.Priority), NewValue: priority}
		task.Priority = ptr(priority)
		return change
	})
	return err
}

func (a *AdminOverride) UpdateDeadline(ctx context.Context, actor *authz.Context, taskID uint, due *time.Time) error {
	_, err := a.force(ctx, actor, taskID, ActionDeadlineUpdated, "Deadline updated by admin", func(task *models.Task) models.FieldChange {
		change := models.FieldChange{Field: "DueDate", OldValue: optionalTime(task.DueDate), NewValue: optionalTime(due)}
		task.DueDate = due
		return change
	})
	return err
}

func (a *AdminOverride) force(ctx context.Context, actor *authz.Context, taskID uint, action, note string, apply func(*models.Task) models.FieldChange) (models.Task, error) {
	if err := a.check(actor); err != nil {
		return models.Task{}, err
	}

	var task models.Task

	err := a.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if task, err = authz.LoadTask(tx, taskID); err != nil {
			return err
		}

		change := apply(&task)
		if err := tx.Omit(clause.Associations).Save(&task).Error; err != nil {
			return fmt.Errorf("update task %d: %w", taskID, err)
		}

		entry := taskEntry(task, actor.AccountID, action, note)
		entry.OldValue = ptr(change.OldValue)
		entry.NewValue = ptr(change.NewValue)
		entry.Changes = []models.FieldChange{change}
		return a.audit.Append(tx, entry)
	})

	return task, err
}

func (a *AdminOverride) ReassignTask(ctx context.Context, actor *authz.Context, taskID uint, accountIDs []uint) error {
	if err := a.check(actor); err != nil {
		return err
	}

	var (
		task    models.Task
		applied []uint
	)

	err := a.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if task, err = authz.LoadTask(tx, taskID); err != nil {
			return err
		}
		task, applied, err = reassign(tx, a.audit, task, accountIDs, actor.AccountID, ActionReassigned, "Task reassigned by admin")
		return err
	})
	if err != nil {
		return err
	}

	if a.events != nil && len(applied) > 0 {
		a.events.TaskAssigned(ctx, task)
	}
	return nil
}

// UpdatePermission upserts the explicit grant of one account on one task.
func (a *AdminOverride) UpdatePermission(ctx context.Context, actor *authz.Context, req types.UpdatePermissionRequest) error {
	if err := a.check(actor); err != nil {
		return err
	}
	if req.TaskID == 0 || req.AccountID == 0 {
		return types.Validation("task_id and account_id are required")
	}

	return a.transaction(ctx, func(tx *gorm.DB) error {
		task, err := authz.LoadTask(tx, req.TaskID)
		if err != nil {
			return err
		}

		grant := models.TaskPermission{
			TaskID:     req.TaskID,
			AccountID:  req.AccountID,
			CanView:    req.CanView,
			CanEdit:    req.CanEdit,
			CanDelete:  req.CanDelete,
			CanComment: req.CanComment,
		}

		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"can_view", "can_edit", "can_delete", "can_comment", "updated_at"}),
		}).Create(&grant).Error
		if err != nil {
			return fmt.Errorf("save permission: %w", err)
		}

		entry := taskEntry(task, actor.AccountID, ActionPermissionUpdated, fmt.Sprintf("Permission updated for account %d by admin", req.AccountID))
		entry.NewValue = ptr(fmt.Sprintf("view=%t, edit=%t, delete=%t, comment=%t", req.CanView, req.CanEdit, req.CanDelete, req.CanComment))
		return a.audit.Append(tx, entry)
	})
}

func (a *AdminOverride) GetTaskPermissions(ctx context.Context, actor *authz.Context, taskID uint) ([]types.PermissionResponse, error) {
	if err := a.check(actor); err != nil {
		return nil, err
	}

	var grants []models.TaskPermission

	err := a.read(ctx, func(tx *gorm.DB) error {
		if _, err := authz.LoadTask(tx, taskID); err != nil {
			return err
		}
		return tx.Where("task_id = ?", taskID).Order("account_id").Find(&grants).Error
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.PermissionResponse, 0, len(grants))
	for _, grant := range grants {
		out = append(out, types.PermissionResponse{
			TaskID:     grant.TaskID,
			AccountID:  grant.AccountID,
			CanView:    grant.CanView,
			CanEdit:    grant.CanEdit,
			CanDelete:  grant.CanDelete,
			CanComment: grant.CanComment,
		})
	}
	return out, nil
}
