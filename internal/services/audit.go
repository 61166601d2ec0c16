package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tasktrack-dev/tasktrack/internal/authz"
	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"gorm.io/gorm"
)

// Audit actions.
const (
	ActionCreated              = "Created"
	ActionUpdated              = "Updated"
	ActionStatusChanged        = "StatusChanged"
	ActionPriorityChanged      = "PriorityChanged"
	ActionDeadlineUpdated      = "DeadlineUpdated"
	ActionAssigned             = "Assigned"
	ActionReassigned           = "Reassigned"
	ActionDeleted              = "Deleted"
	ActionPermissionUpdated    = "PermissionUpdated"
	ActionCommented            = "Commented"
	ActionProjectCreated       = "ProjectCreated"
	ActionProjectStatusChanged = "ProjectStatusChanged"
	ActionProjectDeleted       = "ProjectDeleted"
	ActionMemberAdded          = "MemberAdded"
)

// AuditLog is the append-only trail of task and project mutations.
type AuditLog struct {
	store
}

func NewAuditLog(db *gorm.DB, opTimeout time.Duration) *AuditLog {
	return &AuditLog{store: newStore(db, opTimeout)}
}

// Append writes entry inside the caller's transaction.
func (a *AuditLog) Append(tx *gorm.DB, entry models.TimeLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("append %s log: %w", entry.Action, err)
	}
	return nil
}

func taskEntry(task models.Task, accountID uint, action, note string) models.TimeLog {
	return models.TimeLog{
		TaskID:    ptr(task.ID),
		ProjectID: ptr(task.ProjectID),
		AccountID: accountID,
		Action:    action,
		Note:      note,
	}
}

func projectEntry(projectID, accountID uint, action, note string) models.TimeLog {
	return models.TimeLog{
		ProjectID: ptr(projectID),
		AccountID: accountID,
		Action:    action,
		Note:      note,
	}
}

// ForTask lists the trail of one task. The caller needs view rights on it.
func (a *AuditLog) ForTask(ctx context.Context, actor *authz.Context, taskID uint) ([]types.TimeLogResponse, error) {
	var entries []models.TimeLog

	err := a.read(ctx, func(tx *gorm.DB) error {
		if _, err := authz.Require(tx, actor, taskID, authz.CanView, "view"); err != nil {
			return err
		}
		return tx.Where("task_id = ?", taskID).Order("created_at DESC, id DESC").Find(&entries).Error
	})
	if err != nil {
		return nil, err
	}

	return toLogResponses(entries), nil
}

// ForAccount lists what one account did. Accounts see their own trail; Admins see any.
func (a *AuditLog) ForAccount(ctx context.Context, actor *authz.Context, accountID uint) ([]types.TimeLogResponse, error) {
	if !actor.IsAdmin() && actor.AccountID != accountID {
		return nil, types.Forbidden("cannot read the activity of account %d", accountID)
	}

	var entries []models.TimeLog

	err := a.read(ctx, func(tx *gorm.DB) error {
		return tx.Where("account_id = ?", accountID).Order("created_at DESC, id DESC").Find(&entries).Error
	})
	if err != nil {
		return nil, err
	}

	return toLogResponses(entries), nil
}

func (a *AuditLog) All(ctx context.Context, actor *authz.Context) ([]types.TimeLogResponse, error) {
	return a.adminQuery(ctx, actor, func(q *gorm.DB) *gorm.DB { return q })
}

func (a *AuditLog) ByAction(ctx context.Context, actor *authz.Context, action string) ([]types.TimeLogResponse, error) {
	if action == "" {
		return nil, types.Validation("action is required")
	}
	return a.adminQuery(ctx, actor, func(q *gorm.DB) *gorm.DB {
		return q.Where("action = ?", action)
	})
}

// ByDateRange lists entries created in [from, to].
func (a *AuditLog) ByDateRange(ctx context.Context, actor *authz.Context, from, to time.Time) ([]types.TimeLogResponse, error) {
	if to.Before(from) {
		return nil, types.Validation("end of range is before its start")
	}
	return a.adminQuery(ctx, actor, func(q *gorm.DB) *gorm.DB {
		return q.Where("created_at >= ? AND created_at <= ?", from, to)
	})
}

func (a *AuditLog) adminQuery(ctx context.Context, actor *authz.Context, scope func(*gorm.DB) *gorm.DB) ([]types.TimeLogResponse, error) {
	if !actor.IsAdmin() {
		return nil, types.Forbidden("audit trail is restricted to admins")
	}

	var entries []models.TimeLog

	err := a.read(ctx, func(tx *gorm.DB) error {
		return scope(tx.Model(&models.TimeLog{})).Order("created_at DESC, id DESC").Find(&entries).Error
	})
	if err != nil {
		return nil, err
	}

	return toLogResponses(entries), nil
}

func toLogResponses(entries []models.TimeLog) []types.TimeLogResponse {
	out := make([]types.TimeLogResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, types.NewTimeLogResponse(entry))
	}
	return out
}
