package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tasktrack-dev/tasktrack/internal/authz"
	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskEvents receives committed task changes. Implementations must not fail the
// operation that produced the event.
type TaskEvents interface {
	TaskAssigned(ctx context.Context, task models.Task)
	TaskStatusChanged(ctx context.Context, task models.Task, status string)
}

type TaskWorkflow struct {
	store
	audit  *AuditLog
	events TaskEvents
}

func NewTaskWorkflow(db *gorm.DB, opTimeout time.Duration, audit *AuditLog) *TaskWorkflow {
	return &TaskWorkflow{store: newStore(db, opTimeout), audit: audit}
}

func (w *TaskWorkflow) SetEvents(events TaskEvents) {
	w.events = events
}

func (w *TaskWorkflow) Create(ctx context.Context, actor *authz.Context, req types.CreateTaskRequest) (types.TaskResponse, error) {
	task, err := newTask(req)
	if err != nil {
		return types.TaskResponse{}, err
	}
	task.ReporterID = actor.AccountID

	var assignees []uint

	err = w.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Project{}, req.ProjectID).Error; err != nil {
			return notFoundOr(err, "project %d not found", req.ProjectID)
		}
		if _, err := authz.RequireMember(tx, actor, req.ProjectID); err != nil {
			return err
		}
		if task.ParentTaskID != nil {
			if err := checkParent(tx, task, *task.ParentTaskID); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Create(&task).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}

		if len(req.AssigneeIDs) > 0 {
			_, applied, err := ReplaceAssignments(tx, task.ID, req.AssigneeIDs, actor.AccountID)
			if err != nil {
				return err
			}
			assignees = applied
		}

		entry := taskEntry(task, actor.AccountID, ActionCreated, "Task created")
		entry.NewValue = ptr(task.Title)
		return w.audit.Append(tx, entry)
	})
	if err != nil {
		return types.TaskResponse{}, err
	}

	if len(assignees) > 0 {
		w.notifyAssigned(ctx, task)
	}

	return types.NewTaskResponse(task, assignees), nil
}

func newTask(req types.CreateTaskRequest) (models.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return models.Task{}, types.Validation("title is required")
	}
	if req.ProjectID == 0 {
		return models.Task{}, types.Validation("project_id is required")
	}
	if err := validateStoryPoints(req.StoryPoints); err != nil {
		return models.Task{}, err
	}

	status := req.Status
	if status == "" {
		status = models.TaskNotStarted
	}
	if err := validateStatus(status); err != nil {
		return models.Task{}, err
	}
	if req.Priority != nil {
		if err := validatePriority(*req.Priority); err != nil {
			return models.Task{}, err
		}
	}

	return models.Task{
		ProjectID:    req.ProjectID,
		ParentTaskID: req.ParentTaskID,
		Title:        title,
		Description:  req.Description,
		Status:       status,
		Priority:     req.Priority,
		StoryPoints:  req.StoryPoints,
		DueDate:      req.DueDate,
	}, nil
}

func validateStoryPoints(points *int) error {
	if points != nil && (*points < models.MinStoryPoints || *points > models.MaxStoryPoints) {
		return types.Validation("story points must be between %d and %d", models.MinStoryPoints, models.MaxStoryPoints)
	}
	return nil
}

func validateStatus(status string) error {
	if _, ok := models.ValidTaskStatuses[status]; !ok {
		return types.Validation("unknown task status %q", status)
	}
	return nil
}

func validatePriority(priority string) error {
	if _, ok := models.ValidPriorities[priority]; !ok {
		return types.Validation("unknown priority %q", priority)
	}
	return nil
}

// checkParent verifies that parentID is a live task of the same project and that making
// it the parent of task keeps the tree acyclic.
func checkParent(tx *gorm.DB, task models.Task, parentID uint) error {
	if task.ID != 0 && parentID == task.ID {
		return types.Validation("a task cannot be its own parent")
	}

	var parent models.Task
	if err := tx.First(&parent, parentID).Error; err != nil {
		return notFoundOr(err, "parent task %d not found", parentID)
	}
	if parent.ProjectID != task.ProjectID {
		return types.Validation("parent task %d belongs to another project", parentID)
	}
	if task.ID == 0 {
		return nil
	}

	seen := map[uint]struct{}{parent.ID: {}}
	next := parent.ParentTaskID
	for next != nil {
		if *next == task.ID {
			return types.Validation("parent task %d would create a cycle", parentID)
		}
		if _, ok := seen[*next]; ok {
			break
		}
		seen[*next] = struct{}{}

		var ancestor models.Task
		err := tx.Unscoped().Select("id", "parent_task_id").First(&ancestor, *next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return fmt.Errorf("walk task ancestors: %w", err)
		}
		next = ancestor.ParentTaskID
	}

	return nil
}

// Update applies every present field that differs from the stored task and records
// them in a single log row. The row is skipped when nothing changed.
func (w *TaskWorkflow) Update(ctx context.Context, actor *authz.Context, id uint, req types.UpdateTaskRequest) (types.TaskResponse, error) {
	var (
		task      models.Task
		assignees []uint
		changes   models.FieldChanges
	)

	err := w.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if task, err = authz.Require(tx, actor, id, authz.CanEdit, "edit"); err != nil {
			return err
		}

		if changes, err = applyUpdate(tx, &task, req); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Save(&task).Error; err != nil {
			return fmt.Errorf("update task %d: %w", id, err)
		}

		if assignees, err = AssigneeIDs(tx, task.ID); err != nil {
			return err
		}

		if len(changes) == 0 {
			return nil
		}

		entry := taskEntry(task, actor.AccountID, ActionUpdated, "Task updated")
		entry.NewValue = ptr(changes.String())
		entry.Changes = []models.FieldChange(changes)
		return w.audit.Append(tx, entry)
	})
	if err != nil {
		return types.TaskResponse{}, err
	}

	for _, change := range changes {
		if change.Field == "Status" {
			w.notifyStatus(ctx, task)
		}
	}

	return types.NewTaskResponse(task, assignees), nil
}

func applyUpdate(tx *gorm.DB, task *models.Task, req types.UpdateTaskRequest) (models.FieldChanges, error) {
	var changes models.FieldChanges

	if req.Title != nil && strings.TrimSpace(*req.Title) != task.Title {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, types.Validation("title is required")
		}
		changes = append(changes, models.FieldChange{Field: "Title", OldValue: task.Title, NewValue: title})
		task.Title = title
	}

	if req.Description != nil && *req.Description != task.Description {
		changes = append(changes, models.FieldChange{Field: "Description", OldValue: task.Description, NewValue: *req.Description})
		task.Description = *req.Description
	}

	if req.Status != nil && *req.Status != task.Status {
		if err := validateStatus(*req.Status); err != nil {
			return nil, err
		}
		changes = append(changes, models.FieldChange{Field: "Status", OldValue: task.Status, NewValue: *req.Status})
		task.Status = *req.Status
	}

	if req.Priority != nil && (task.Priority == nil || *req.Priority != *task.Priority) {
		if err := validatePriority(*req.Priority); err != nil {
			return nil, err
		}
		changes = append(changes, models.FieldChange{Field: "Priority", OldValue: optional(task.Priority), NewValue: *req.Priority})
		task.Priority = ptr(*req.Priority)
	}

	if req.StoryPoints != nil && (task.StoryPoints == nil || *req.StoryPoints != *task.StoryPoints) {
		if err := validateStoryPoints(req.StoryPoints); err != nil {
			return nil, err
		}
		changes = append(changes, models.FieldChange{Field: "StoryPoints", OldValue: optionalInt(task.StoryPoints), NewValue: strconv.Itoa(*req.StoryPoints)})
		task.StoryPoints = ptr(*req.StoryPoints)
	}

	if req.DueDate != nil && (task.DueDate == nil || !req.DueDate.Equal(*task.DueDate)) {
		changes = append(changes, models.FieldChange{Field: "DueDate", OldValue: optionalTime(task.DueDate), NewValue: optionalTime(req.DueDate)})
		task.DueDate = ptr(*req.DueDate)
	}

	if req.ParentTaskID != nil && (task.ParentTaskID == nil || *req.ParentTaskID != *task.ParentTaskID) {
		if err := checkParent(tx, *task, *req.ParentTaskID); err != nil {
			return nil, err
		}
		changes = append(changes, models.FieldChange{Field: "ParentTask", OldValue: optionalID(task.ParentTaskID), NewValue: strconv.FormatUint(uint64(*req.ParentTaskID), 10)})
		task.ParentTaskID = ptr(*req.ParentTaskID)
	}

	return changes, nil
}

func (w *TaskWorkflow) ChangeStatus(ctx context.Context, actor *authz.Context, id uint, status string) (types.TaskResponse, error) {
	if err := validateStatus(status); err != nil {
		return types.TaskResponse{}, err
	}

	task, assignees, changed, err := w.changeField(ctx, actor, id, ActionStatusChanged, func(task *models.Task) (models.FieldChange, bool) {
		change := models.FieldChange{Field: "Status", OldValue: task.Status, NewValue: status}
		task.Status = status
		return change, change.OldValue != change.NewValue
	})
	if err != nil {
		return types.TaskResponse{}, err
	}

	if changed {
		w.notifyStatus(ctx, task)
	}

	return types.NewTaskResponse(task, assignees), nil
}

func (w *TaskWorkflow) ChangePriority(ctx context.Context, actor *authz.Context, id uint, priority string) (types.TaskResponse, error) {
	if err := validatePriority(priority); err != nil {
		return types.TaskResponse{}, err
	}

	task, assignees, _, err := w.changeField(ctx, actor, id, ActionPriorityChanged, func(task *models.Task) (models.FieldChange, bool) {
		change := models.FieldChange{Field: "Priority", OldValue: optional(task.Priority), NewValue: priority}
		task.Priority = ptr(priority)
		return change, change.OldValue != change.NewValue
	})
	if err != nil {
		return types.TaskResponse{}, err
	}

	return types.NewTaskResponse(task, assignees), nil
}

// ChangeDeadline sets or, with a nil due date, clears the deadline.
func (w *TaskWorkflow) ChangeDeadline(ctx context.Context, actor *authz.Context, id uint, due *time.Time) (types.TaskResponse, error) {
	task, assignees, _, err := w.changeField(ctx, actor, id, ActionDeadlineUpdated, func(task *models.Task) (models.FieldChange, bool) {
		change := models.FieldChange{Field: "DueDate", OldValue: optionalTime(task.DueDate), NewValue: optionalTime(due)}
		changed := !sameTime(task.DueDate, due)
		task.DueDate = due
		return change, changed
	})
	if err != nil {
		return types.TaskResponse{}, err
	}

	return types.NewTaskResponse(task, assignees), nil
}

func (w *TaskWorkflow) changeField(ctx context.Context, actor *authz.Context, id uint, action string, apply func(*models.Task) (models.FieldChange, bool)) (models.Task, []uint, bool, error) {
	var (
		task      models.Task
		assignees []uint
		changed   bool
	)

	err := w.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if task, err = authz.Require(tx, actor, id, authz.CanEdit, "edit"); err != nil {
			return err
		}
		if assignees, err = AssigneeIDs(tx, task.ID); err != nil {
			return err
		}

		var change models.FieldChange
		if change, changed = apply(&task); !changed {
			return nil
		}

		if err := tx.Omit(clause.Associations).Save(&task).Error; err != nil {
			return fmt.Errorf("update task %d: %w", id, err)
		}

		entry := taskEntry(task, actor.AccountID, action, change.Field+" changed")
		entry.OldValue = ptr(change.OldValue)
		entry.NewValue = ptr(change.NewValue)
		entry.Changes = []models.FieldChange{change}
		return w.audit.Append(tx, entry)
	})

	return task, assignees, changed, err
}

// Reassign replaces the assignee set. Every call is logged, including one that keeps the
// set unchanged.
func (w *TaskWorkflow) Reassign(ctx context.Context, actor *authz.Context, id uint, accountIDs []uint) (types.TaskResponse, error) {
	var (
		task    models.Task
		applied []uint
	)

	err := w.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if task, err = authz.Require(tx, actor, id, authz.CanEdit, "edit"); err != nil {
			return err
		}
		if task, applied, err = reassign(tx, w.audit, task, accountIDs, actor.AccountID, ActionReassigned, "Task reassigned"); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return types.TaskResponse{}, err
	}

	if len(applied) > 0 {
		w.notifyAssigned(ctx, task)
	}

	return types.NewTaskResponse(task, applied), nil
}

func reassign(tx *gorm.DB, audit *AuditLog, task models.Task, accountIDs []uint, actorID uint, action, note string) (models.Task, []uint, error) {
	previous, applied, err := ReplaceAssignments(tx, task.ID, accountIDs, actorID)
	if err != nil {
		return task, nil, err
	}

	task.UpdatedAt = time.Now()
	if err := tx.Model(&task).UpdateColumn("updated_at", task.UpdatedAt).Error; err != nil {
		return task, nil, fmt.Errorf("touch task %d: %w", task.ID, err)
	}

	entry := taskEntry(task, actorID, action, note)
	entry.OldValue = ptr(joinIDs(previous))
	entry.NewValue = ptr(joinIDs(applied))
	entry.Changes = []models.FieldChange{{Field: "Assignees", OldValue: joinIDs(previous), NewValue: joinIDs(applied)}}
	if err := audit.Append(tx, entry); err != nil {
		return task, nil, err
	}

	return task, applied, nil
}

// Delete soft-deletes one task. Subtasks stay visible.
func (w *TaskWorkflow) Delete(ctx context.Context, actor *authz.Context, id uint) error {
	return w.transaction(ctx, func(tx *gorm.DB) error {
		task, err := authz.Require(tx, actor, id, authz.CanDelete, "delete")
		if err != nil {
			return err
		}

		if err := tx.Delete(&task).Error; err != nil {
			return fmt.Errorf("delete task %d: %w", id, err)
		}

		entry := taskEntry(task, actor.AccountID, ActionDeleted, "Task deleted")
		entry.OldValue = ptr(task.Title)
		return w.audit.Append(tx, entry)
	})
}

func (w *TaskWorkflow) Get(ctx context.Context, actor *authz.Context, id uint) (types.TaskResponse, error) {
	var response types.TaskResponse

	err := w.read(ctx, func(tx *gorm.DB) error {
		task, err := authz.Require(tx, actor, id, authz.CanView, "view")
		if err != nil {
			return err
		}

		responses, err := withAssignees(tx, []models.Task{task})
		if err != nil {
			return err
		}
		response = responses[0]
		return nil
	})

	return response, err
}

// GetAll lists every live task the actor can see across live projects.
func (w *TaskWorkflow) GetAll(ctx context.Context, actor *authz.Context) ([]types.TaskResponse, error) {
	var responses []types.TaskResponse

	err := w.read(ctx, func(tx *gorm.DB) error {
		var projectIDs []uint
		if err := tx.Model(&models.Project{}).Order("id").Pluck("id", &projectIDs).Error; err != nil {
			return fmt.Errorf("list projects: %w", err)
		}

		var tasks []models.Task
		for _, projectID := range projectIDs {
			role := ""
			if !actor.IsAdmin() {
				var found bool
				var err error
				if role, found, err = actor.MembershipRole(tx, projectID); err != nil {
					return err
				}
				if !found {
					continue
				}
			}

			visible, err := visibleTasks(tx, actor, projectID, role)
			if err != nil {
				return err
			}
			tasks = append(tasks, visible...)
		}

		var err error
		responses, err = withAssignees(tx, tasks)
		return err
	})

	return responses, err
}

// GetVisibleTasks lists the live tasks of projectID the requester may see. Admins and
// project managers or scrum masters see all of them; plain members see the tasks they
// are assigned to.
func (w *TaskWorkflow) GetVisibleTasks(ctx context.Context, actor *authz.Context, projectID uint) ([]types.TaskResponse, error) {
	var responses []types.TaskResponse

	err := w.read(ctx, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Account{}, actor.AccountID).Error; err != nil {
			return notFoundOr(err, "account %d not found", actor.AccountID)
		}
		if err := tx.Select("id").First(&models.Project{}, projectID).Error; err != nil {
			return notFoundOr(err, "project %d not found", projectID)
		}

		role, err := authz.RequireMember(tx, actor, projectID)
		if err != nil {
			return err
		}

		tasks, err := visibleTasks(tx, actor, projectID, role)
		if err != nil {
			return err
		}

		responses, err = withAssignees(tx, tasks)
		return err
	})

	return responses, err
}

func visibleTasks(tx *gorm.DB, actor *authz.Context, projectID uint, role string) ([]models.Task, error) {
	query := tx.Model(&models.Task{}).Where("tasks.project_id = ?", projectID)

	if !actor.IsAdmin() && !models.IsManagerRole(role) {
		query = query.Where("EXISTS (SELECT 1 FROM task_assignments ta WHERE ta.task_id = tasks.id AND ta.account_id = ?)", actor.AccountID)
	}

	var tasks []models.Task
	if err := query.Order("tasks.created_at DESC, tasks.id DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks of project %d: %w", projectID, err)
	}
	return tasks, nil
}

// GetSubtasks lists the live children of a task the actor can view.
func (w *TaskWorkflow) GetSubtasks(ctx context.Context, actor *authz.Context, id uint) ([]types.TaskResponse, error) {
	var responses []types.TaskResponse

	err := w.read(ctx, func(tx *gorm.DB) error {
		if _, err := authz.Require(tx, actor, id, authz.CanView, "view"); err != nil {
			return err
		}

		var children []models.Task
		if err := tx.Where("parent_task_id = ?", id).Order("created_at, id").Find(&children).Error; err != nil {
			return fmt.Errorf("list subtasks of task %d: %w", id, err)
		}

		visible := children[:0]
		for _, child := range children {
			rights, err := authz.ResolveTask(tx, actor, child)
			if err != nil {
				return err
			}
			if rights.CanView {
				visible = append(visible, child)
			}
		}

		var err error
		responses, err = withAssignees(tx, visible)
		return err
	})

	return responses, err
}

func withAssignees(tx *gorm.DB, tasks []models.Task) ([]types.TaskResponse, error) {
	responses := make([]types.TaskResponse, 0, len(tasks))
	if len(tasks) == 0 {
		return responses, nil
	}

	ids := make([]uint, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}

	var rows []models.TaskAssignment
	if err := tx.Where("task_id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load assignees: %w", err)
	}

	byTask := make(map[uint][]uint, len(tasks))
	for _, row := range rows {
		byTask[row.TaskID] = append(byTask[row.TaskID], row.AccountID)
	}

	for _, task := range tasks {
		responses = append(responses, types.NewTaskResponse(task, byTask[task.ID]))
	}
	return responses, nil
}

func (w *TaskWorkflow) notifyAssigned(ctx context.Context, task models.Task) {
	if w.events != nil {
		w.events.TaskAssigned(ctx, task)
	}
}

func (w *TaskWorkflow) notifyStatus(ctx context.Context, task models.Task) {
	if w.events != nil {
		w.events.TaskStatusChanged(ctx, task, task.Status)
	}
}

func optional(value *string) string {
	if value == nil {
		return "none"
	}
	return *value
}

func optionalInt(value *int) string {
	if value == nil {
		return "none"
	}
	return strconv.Itoa(*value)
}

func optionalID(value *uint) string {
	if value == nil {
		return "none"
	}
	return strconv.FormatUint(uint64(*value), 10)
}

func optionalTime(value *time.Time) string {
	if value == nil {
		return "none"
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
