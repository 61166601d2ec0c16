package types

import (
	"time"

	"github.com/tasktrack-dev/tasktrack/internal/models"
)

type UserResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	ProfilePicture *string   `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
}

type TaskResponse struct {
	ID           uint       `json:"id"`
	ProjectID    uint       `json:"project_id"`
	ParentTaskID *uint      `json:"parent_task_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	Priority     *string    `json:"priority"`
	StoryPoints  *int       `json:"story_points"`
	ReporterID   uint       `json:"reporter_id"`
	DueDate      *time.Time `json:"due_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	AssigneeIDs  []uint     `json:"assignee_ids"`
}

type ProjectResponse struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Status           string    `json:"status"`
	CreatedByID      uint      `json:"created_by_id"`
	ProjectManagerID uint      `json:"project_manager_id"`
	ScrumMasterID    *uint     `json:"scrum_master_id"`
	MemberIDs        []uint    `json:"member_ids"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type TimeLogResponse struct {
	ID        uint                 `json:"id"`
	TaskID    *uint                `json:"task_id"`
	ProjectID *uint                `json:"project_id"`
	AccountID uint                 `json:"account_id"`
	Action    string               `json:"action"`
	OldValue  *string              `json:"old_value"`
	NewValue  *string              `json:"new_value"`
	Changes   []models.FieldChange `json:"changes"`
	Note      string               `json:"note"`
	CreatedAt time.Time            `json:"created_at"`
}

type NotificationResponse struct {
	ID        uint      `json:"id"`
	AccountID uint      `json:"account_id"`
	TaskID    *uint     `json:"task_id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type PermissionResponse struct {
	TaskID     uint `json:"task_id"`
	AccountID  uint `json:"account_id"`
	CanView    bool `json:"can_view"`
	CanEdit    bool `json:"can_edit"`
	CanDelete  bool `json:"can_delete"`
	CanComment bool `json:"can_comment"`
}

type CommentResponse struct {
	ID        uint      `json:"id"`
	TaskID    uint      `json:"task_id"`
	AccountID uint      `json:"account_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func NewTaskResponse(task models.Task, assigneeIDs []uint) TaskResponse {
	if assigneeIDs == nil {
		assigneeIDs = []uint{}
	}
	return TaskResponse{
		ID:           task.ID,
		ProjectID:    task.ProjectID,
		ParentTaskID: task.ParentTaskID,
		Title:        task.Title,
		Description:  task.Description,
		Status:       task.Status,
		Priority:     task.Priority,
		StoryPoints:  task.StoryPoints,
		ReporterID:   task.ReporterID,
		DueDate:      task.DueDate,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
		AssigneeIDs:  assigneeIDs,
	}
}

func NewProjectResponse(project models.Project) ProjectResponse {
	memberIDs := make([]uint, 0, len(project.Members))
	for _, member := range project.Members {
		memberIDs = append(memberIDs, member.AccountID)
	}
	return ProjectResponse{
		ID:               project.ID,
		Name:             project.Name,
		Description:      project.Description,
		Status:           project.Status,
		CreatedByID:      project.CreatedByID,
		ProjectManagerID: project.ProjectManagerID,
		ScrumMasterID:    project.ScrumMasterID,
		MemberIDs:        memberIDs,
		CreatedAt:        project.CreatedAt,
		UpdatedAt:        project.UpdatedAt,
	}
}

func NewTimeLogResponse(entry models.TimeLog) TimeLogResponse {
	changes := []models.FieldChange(entry.Changes)
	if changes == nil {
		changes = []models.FieldChange{}
	}
	return TimeLogResponse{
		ID:        entry.ID,
		TaskID:    entry.TaskID,
		ProjectID: entry.ProjectID,
		AccountID: entry.AccountID,
		Action:    entry.Action,
		OldValue:  entry.OldValue,
		NewValue:  entry.NewValue,
		Changes:   changes,
		Note:      entry.Note,
		CreatedAt: entry.CreatedAt,
	}
}

func NewNotificationResponse(n models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		AccountID: n.AccountID,
		TaskID:    n.TaskID,
		Message:   n.Message,
		Type:      n.Type,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func NewUserResponse(account models.Account) UserResponse {
	return UserResponse{
		ID:             account.ID,
		Name:           account.Name,
		Email:          account.Email,
		Role:           account.Role,
		IsActive:       account.IsActive,
		ProfilePicture: account.ProfilePicture,
		CreatedAt:      account.CreatedAt,
	}
}

type NotificationSettingsResponse struct {
	AccountID               uint `json:"account_id"`
	EmailOnAssign           bool `json:"email_on_assign"`
	EmailOnStatusChange     bool `json:"email_on_status_change"`
	EmailOnDeadlineReminder bool `json:"email_on_deadline_reminder"`
	ReminderDaysBefore      int  `json:"reminder_days_before"`
}

func NewNotificationSettingsResponse(s models.NotificationSetting) NotificationSettingsResponse {
	return NotificationSettingsResponse{
		AccountID:               s.AccountID,
		EmailOnAssign:           s.EmailOnAssign,
		EmailOnStatusChange:     s.EmailOnStatusChange,
		EmailOnDeadlineReminder: s.EmailOnDeadlineReminder,
		ReminderDaysBefore:      s.ReminderDaysBefore,
	}
}
