package models

import "time"

// NotificationSetting controls outbound delivery per account. In-app rows are always written.
type NotificationSetting struct {
	ID                      uint `gorm:"primaryKey"`
	AccountID               uint `gorm:"not null;uniqueIndex"`
	EmailOnAssign           bool `gorm:"not null"`
	EmailOnStatusChange     bool `gorm:"not null"`
	EmailOnDeadlineReminder bool `gorm:"not null"`
	ReminderDaysBefore      int  `gorm:"not null"`
	UpdatedAt               time.Time
}

// DefaultNotificationSetting applies when an account never saved settings.
func DefaultNotificationSetting(accountID uint) NotificationSetting {
	return NotificationSetting{
		AccountID:               accountID,
		EmailOnAssign:           true,
		EmailOnStatusChange:     true,
		EmailOnDeadlineReminder: true,
		ReminderDaysBefore:      1,
	}
}

// Allows reports whether the account wants outbound mail for a notification type.
func (s NotificationSetting) Allows(notificationType string) bool {
	switch notificationType {
	case NotificationTaskAssigned:
		return s.EmailOnAssign
	case NotificationStatusChanged:
		return s.EmailOnStatusChange
	case NotificationDeadlineReminder:
		return s.EmailOnDeadlineReminder
	}
	return true
}
