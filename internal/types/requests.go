package types

import "time"

type CreateTaskRequest struct {
	ProjectID    uint       `json:"project_id"`
	ParentTaskID *uint      `json:"parent_task_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	Priority     *string    `json:"priority"`
	StoryPoints  *int       `json:"story_points"`
	DueDate      *time.Time `json:"due_date"`
	AssigneeIDs  []uint     `json:"assignee_ids"`
}

// UpdateTaskRequest fields left nil are not touched.
type UpdateTaskRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Status       *string    `json:"status"`
	Priority     *string    `json:"priority"`
	StoryPoints  *int       `json:"story_points"`
	DueDate      *time.Time `json:"due_date"`
	ParentTaskID *uint      `json:"parent_task_id"`
}

type AssignTaskRequest struct {
	AssigneeIDs []uint `json:"assignee_ids"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type PriorityRequest struct {
	Priority string `json:"priority" binding:"required"`
}

type DeadlineRequest struct {
	DueDate *time.Time `json:"due_date"`
}

type CreateProjectRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	ProjectManagerID  *uint  `json:"project_manager_id"`
	ScrumMasterID     *uint  `json:"scrum_master_id"`
	IsAlsoScrumMaster bool   `json:"is_also_scrum_master"`
	MemberIDs         []uint `json:"member_ids"`
}

type AddMemberRequest struct {
	AccountID uint `json:"account_id" binding:"required"`
}

type UpdatePermissionRequest struct {
	TaskID     uint `json:"task_id" binding:"required"`
	AccountID  uint `json:"account_id" binding:"required"`
	CanView    bool `json:"can_view"`
	CanEdit    bool `json:"can_edit"`
	CanDelete  bool `json:"can_delete"`
	CanComment bool `json:"can_comment"`
}

type NotificationSettingsRequest struct {
	EmailOnAssign           bool `json:"email_on_assign"`
	EmailOnStatusChange     bool `json:"email_on_status_change"`
	EmailOnDeadlineReminder bool `json:"email_on_deadline_reminder"`
	ReminderDaysBefore      int  `json:"reminder_days_before"`
}

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateAccountRequest fields left nil are not touched. Role is Admin only.
type UpdateAccountRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Password       *string `json:"password" binding:"omitempty,min=8"`
	Role           *string `json:"role"`
	IsActive       *bool   `json:"is_active"`
	ProfilePicture *string `json:"profile_picture"`
}

type CreateAccountRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}
