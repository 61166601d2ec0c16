package authz

import (
	"errors"
	"fmt"

	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"gorm.io/gorm"
)

// Rights is the effective permission of one account on one task. Member is false when
// the account has no standing in the task's project at all.
type Rights struct {
	Member     bool
	CanView    bool
	CanEdit    bool
	CanDelete  bool
	CanComment bool
}

func FullRights() Rights {
	return Rights{Member: true, CanView: true, CanEdit: true, CanDelete: true, CanComment: true}
}

// Effective computes rights from a membership role, the assignment flag and an optional
// explicit grant. Explicit grants replace the computed default field by field, widening
// or narrowing it.
func Effective(role string, assigned bool, grant *models.TaskPermission) Rights {
	if models.IsManagerRole(role) {
		return FullRights()
	}

	rights := Rights{
		Member:     true,
		CanView:    assigned,
		CanComment: assigned,
	}

	if grant != nil {
		rights.CanView = grant.CanView
		rights.CanEdit = grant.CanEdit
		rights.CanDelete = grant.CanDelete
		rights.CanComment = grant.CanComment
	}

	return rights
}

// LoadTask fetches a live task whose project is live too.
func LoadTask(tx *gorm.DB, taskID uint) (models.Task, error) {
	var task models.Task

	if err := tx.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, types.NotFound("task %d not found", taskID)
		}
		return models.Task{}, fmt.Errorf("load task %d: %w", taskID, err)
	}

	if err := tx.Select("id").First(&models.Project{}, task.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, types.NotFound("task %d not found", taskID)
		}
		return models.Task{}, fmt.Errorf("load project %d: %w", task.ProjectID, err)
	}

	return task, nil
}

// Resolve returns the rights of actor on taskID. It has no side effects.
func Resolve(tx *gorm.DB, actor *Context, taskID uint) (Rights, models.Task, error) {
	task, err := LoadTask(tx, taskID)
	if err != nil {
		return Rights{}, models.Task{}, err
	}

	rights, err := ResolveTask(tx, actor, task)
	return rights, task, err
}

// ResolveTask is Resolve for a task the caller already loaded.
func ResolveTask(tx *gorm.DB, actor *Context, task models.Task) (Rights, error) {
	if actor.IsAdmin() {
		return FullRights(), nil
	}

	role, found, err := actor.MembershipRole(tx, task.ProjectID)
	if err != nil {
		return Rights{}, err
	}
	if !found {
		return Rights{}, nil
	}
	if models.IsManagerRole(role) {
		return FullRights(), nil
	}

	var assignments int64
	if err := tx.Model(&models.TaskAssignment{}).
		Where("task_id = ? AND account_id = ?", task.ID, actor.AccountID).
		Count(&assignments).Error; err != nil {
		return Rights{}, fmt.Errorf("load assignment: %w", err)
	}

	var grant models.TaskPermission
	err = tx.Where("task_id = ? AND account_id = ?", task.ID, actor.AccountID).First(&grant).Error

	switch {
	case err == nil:
		return Effective(role, assignments > 0, &grant), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Effective(role, assignments > 0, nil), nil
	default:
		return Rights{}, fmt.Errorf("load task permission: %w", err)
	}
}

// Require resolves rights and turns a missing right into a typed error.
func Require(tx *gorm.DB, actor *Context, taskID uint, allowed func(Rights) bool, action string) (models.Task, error) {
	rights, task, err := Resolve(tx, actor, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if !rights.Member {
		return models.Task{}, types.Forbidden("not a member of project %d", task.ProjectID)
	}
	if !allowed(rights) {
		return models.Task{}, types.Forbidden("not allowed to %s task %d", action, taskID)
	}
	return task, nil
}

func CanView(r Rights) bool { return r.CanView }
func CanEdit(r Rights) bool { return r.CanEdit }
func CanDelete(r Rights) bool { return r.CanDelete }
func CanComment(r Rights) bool { return r.CanComment }

// RequireMember checks that actor may act inside projectID and returns the membership
// role. Admins pass with an empty role.
func RequireMember(tx *gorm.DB, actor *Context, projectID uint) (string, error) {
	if actor.IsAdmin() {
		return "", nil
	}

	role, found, err := actor.MembershipRole(tx, projectID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", types.Forbidden("not a member of project %d", projectID)
	}
	return role, nil
}
