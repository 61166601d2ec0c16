package models

// Global account roles.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Project membership roles.
const (
	MemberRoleMember                    = "Member"
	MemberRoleScrumMaster               = "ScrumMaster"
	MemberRoleProjectManager            = "ProjectManager"
	MemberRoleProjectManagerScrumMaster = "ProjectManager-ScrumMaster"
)

// Project statuses.
const (
	ProjectActive    = "Active"
	ProjectOnHold    = "OnHold"
	ProjectCompleted = "Completed"
	ProjectCancelled = "Cancelled"
)

// Task statuses.
const (
	TaskNotStarted = "Not Started"
	TaskInProgress = "In Progress"
	TaskInReview   = "In Review"
	TaskBlocked    = "Blocked"
	TaskCompleted  = "Completed"
)

// Task priorities.
const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

// Notification types.
const (
	NotificationTaskAssigned     = "TaskAssigned"
	NotificationStatusChanged    = "StatusChanged"
	NotificationDeadlineReminder = "DeadlineReminder"
)

const (
	MinStoryPoints = 1
	MaxStoryPoints = 5
)

var ValidProjectStatuses = map[string]struct{}{
	ProjectActive:    {},
	ProjectOnHold:    {},
	ProjectCompleted: {},
	ProjectCancelled: {},
}

var ValidTaskStatuses = map[string]struct{}{
	TaskNotStarted: {},
	TaskInProgress: {},
	TaskInReview:   {},
	TaskBlocked:    {},
	TaskCompleted:  {},
}

var ValidPriorities = map[string]struct{}{
	PriorityLow:      {},
	PriorityMedium:   {},
	PriorityHigh:     {},
	PriorityCritical: {},
}

// IsManagerRole reports whether a membership role sees every task in its project.
func IsManagerRole(role string) bool {
	switch role {
	case MemberRoleProjectManager, MemberRoleScrumMaster, MemberRoleProjectManagerScrumMaster:
		return true
	}
	return false
}
