package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tasktrack-dev/tasktrack/internal/authz"
	"github.com/tasktrack-dev/tasktrack/internal/logging"
	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/notifier"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Publisher pushes a stored notification to its account's live connections.
type Publisher interface {
	Publish(accountID uint, payload any)
}

// DispatchResult counts one fan-out.
type DispatchResult struct {
	Notified  int
	Attempted int
	Failed    int
}

type NotificationDispatcher struct {
	store
	notifier  notifier.Notifier
	publisher Publisher
	now       func() time.Time
}

func NewNotificationDispatcher(db *gorm.DB, opTimeout time.Duration, n notifier.Notifier) *NotificationDispatcher {
	return &NotificationDispatcher{store: newStore(db, opTimeout), notifier: n, now: time.Now}
}

func (d *NotificationDispatcher) SetPublisher(p Publisher) {
	d.publisher = p
}

type recipient struct {
	account models.Account
	setting models.NotificationSetting
	row     models.Notification
}

func (d *NotificationDispatcher) SendTaskAssigned(ctx context.Context, taskID uint) (DispatchResult, error) {
	return d.dispatch(ctx, taskID, models.NotificationTaskAssigned, func(task models.Task) (string, notifier.Message, error) {
		return fmt.Sprintf("You have been assigned to task: %s", task.Title), notifier.TaskAssigned(task.Title, task.ID), nil
	}, nil)
}

func (d *NotificationDispatcher) SendStatusChanged(ctx context.Context, taskID uint, status string) (DispatchResult, error) {
	return d.dispatch(ctx, taskID, models.NotificationStatusChanged, func(task models.Task) (string, notifier.Message, error) {
		return fmt.Sprintf("Task '%s' status changed to: %s", task.Title, status), notifier.StatusChanged(task.Title, status), nil
	}, nil)
}

// SendDeadlineReminder reminds every assignee now, whatever their lead time.
func (d *NotificationDispatcher) SendDeadlineReminder(ctx context.Context, taskID uint) (DispatchResult, error) {
	return d.dispatch(ctx, taskID, models.NotificationDeadlineReminder, renderReminder, nil)
}

// SweepDeadlineReminder is the scheduled form of SendDeadlineReminder. An assignee is
// reminded once the task falls within their ReminderDaysBefore lead time, and at most
// once per window.
func (d *NotificationDispatcher) SweepDeadlineReminder(ctx context.Context, taskID uint, window time.Duration) (DispatchResult, error) {
	now := d.now()

	return d.dispatch(ctx, taskID, models.NotificationDeadlineReminder, renderReminder, func(tx *gorm.DB, task models.Task, recipients []recipient) ([]recipient, error) {
		var reminded []uint
		if err := tx.Model(&models.Notification{}).
			Where("task_id = ? AND type = ? AND created_at >= ?", task.ID, models.NotificationDeadlineReminder, now.Add(-window)).
			Pluck("account_id", &reminded).Error; err != nil {
			return nil, fmt.Errorf("load sent reminders: %w", err)
		}

		skip := make(map[uint]struct{}, len(reminded))
		for _, id := range reminded {
			skip[id] = struct{}{}
		}

		due := make([]recipient, 0, len(recipients))
		for _, r := range recipients {
			if _, ok := skip[r.account.ID]; ok {
				continue
			}
			if !withinLead(r.setting, *task.DueDate, now) {
				continue
			}
			due = append(due, r)
		}
		return due, nil
	})
}

func renderReminder(task models.Task) (string, notifier.Message, error) {
	if task.DueDate == nil {
		return "", notifier.Message{}, types.Validation("task %d has no due date", task.ID)
	}
	return fmt.Sprintf("Reminder: Task '%s' is due on %s", task.Title, notifier.FormatDue(*task.DueDate)), notifier.DeadlineReminder(task.Title, *task.DueDate), nil
}

// withinLead reports whether due is close enough to now for the account's lead time.
// A lead time of zero days means no limit.
func withinLead(setting models.NotificationSetting, due, now time.Time) bool {
	if setting.ReminderDaysBefore <= 0 {
		return true
	}
	return due.Sub(now) <= time.Duration(setting.ReminderDaysBefore)*24*time.Hour
}

// recipientFilter narrows the resolved assignees inside the dispatch transaction.
type recipientFilter func(tx *gorm.DB, task models.Task, recipients []recipient) ([]recipient, error)

// dispatch stores one notification per resolvable assignee, commits, and only then
// delivers. A failed delivery is logged and the loop moves on; the batch fails only
// when every attempted delivery failed.
func (d *NotificationDispatcher) dispatch(ctx context.Context, taskID uint, kind string, render func(models.Task) (string, notifier.Message, error), filter recipientFilter) (DispatchResult, error) {
	var (
		task       models.Task
		message    notifier.Message
		recipients []recipient
		result     DispatchResult
	)

	err := d.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if task, err = authz.LoadTask(tx, taskID); err != nil {
			return err
		}

		var text string
		if text, message, err = render(task); err != nil {
			return err
		}

		assignees, err := AssigneeIDs(tx, taskID)
		if err != nil {
			return err
		}
		if len(assignees) == 0 {
			if kind == models.NotificationTaskAssigned {
				return types.Validation("task %d has no assignees", taskID)
			}
			return nil
		}

		if recipients, err = loadRecipients(tx, assignees); err != nil {
			return err
		}
		if filter != nil {
			if recipients, err = filter(tx, task, recipients); err != nil {
				return err
			}
		}

		now := d.now()
		for i := range recipients {
			recipients[i].row = models.Notification{
				AccountID: recipients[i].account.ID,
				TaskID:    ptr(task.ID),
				Message:   text,
				Type:      kind,
				CreatedAt: now,
			}
			if err := tx.Create(&recipients[i].row).Error; err != nil {
				return fmt.Errorf("store notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	result.Notified = len(recipients)
	log := logging.Logger.WithFields(logrus.Fields{"task_id": taskID, "type": kind})

	for _, r := range recipients {
		if d.publisher != nil {
			d.publisher.Publish(r.account.ID, types.NewNotificationResponse(r.row))
		}

		if !r.setting.Allows(kind) {
			continue
		}

		result.Attempted++
		if err := d.notifier.Send(ctx, r.account.Email, message.Subject, message.Body); err != nil {
			result.Failed++
			log.WithField("account_id", r.account.ID).Warnf("notification delivery failed: %v", err)
		}
	}

	if result.Attempted > 0 && result.Failed == result.Attempted {
		return result, types.Unavailable(errors.New("all deliveries failed"), "notifier unavailable for task %d", taskID)
	}

	log.Debugf("notified %d accounts, %d deliveries failed", result.Notified, result.Failed)
	return result, nil
}

// loadRecipients resolves assignees to live, active accounts, keeping assignment order.
// Other ids are skipped.
func loadRecipients(tx *gorm.DB, ids []uint) ([]recipient, error) {
	var accounts []models.Account
	if err := tx.Where("id IN ? AND is_active = ?", ids, true).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("load assignee accounts: %w", err)
	}

	var settings []models.NotificationSetting
	if err := tx.Where("account_id IN ?", ids).Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("load notification settings: %w", err)
	}

	byID := make(map[uint]models.Account, len(accounts))
	for _, account := range accounts {
		byID[account.ID] = account
	}
	settingsByID := make(map[uint]models.NotificationSetting, len(settings))
	for _, setting := range settings {
		settingsByID[setting.AccountID] = setting
	}

	out := make([]recipient, 0, len(accounts))
	for _, id := range ids {
		account, ok := byID[id]
		if !ok {
			continue
		}
		setting, ok := settingsByID[id]
		if !ok {
			setting = models.DefaultNotificationSetting(id)
		}
		out = append(out, recipient{account: account, setting: setting})
	}
	return out, nil
}

// TaskAssigned implements TaskEvents.
func (d *NotificationDispatcher) TaskAssigned(ctx context.Context, task models.Task) {
	if _, err := d.SendTaskAssigned(ctx, task.ID); err != nil {
		logging.Logger.WithField("task_id", task.ID).Warnf("assignment notification failed: %v", err)
	}
}

// TaskStatusChanged implements TaskEvents.
func (d *NotificationDispatcher) TaskStatusChanged(ctx context.Context, task models.Task, status string) {
	if _, err := d.SendStatusChanged(ctx, task.ID, status); err != nil {
		logging.Logger.WithField("task_id", task.ID).Warnf("status notification failed: %v", err)
	}
}

// RemindDeadline sends a reminder on behalf of a caller who can edit the task.
func (d *NotificationDispatcher) RemindDeadline(ctx context.Context, actor *authz.Context, taskID uint) (DispatchResult, error) {
	err := d.read(ctx, func(tx *gorm.DB) error {
		_, err := authz.Require(tx, actor, taskID, authz.CanEdit, "remind on")
		return err
	})
	if err != nil {
		return DispatchResult{}, err
	}
	return d.SendDeadlineReminder(ctx, taskID)
}

// DueForReminder lists open tasks due within window from now that still have an
// assignee without a reminder during the last window.
func (d *NotificationDispatcher) DueForReminder(ctx context.Context, window time.Duration) ([]uint, error) {
	now := d.now()
	var ids []uint

	err := d.read(ctx, func(tx *gorm.DB) error {
		var live []uint
		if err := tx.Model(&models.Project{}).Pluck("id", &live).Error; err != nil {
			return fmt.Errorf("list projects: %w", err)
		}
		if len(live) == 0 {
			return nil
		}

		return tx.Model(&models.Task{}).
			Where("project_id IN ?", live).
			Where("due_date IS NOT NULL AND due_date >= ? AND due_date <= ?", now, now.Add(window)).
			Where("status <> ?", models.TaskCompleted).
			Where(`EXISTS (SELECT 1 FROM task_assignments ta WHERE ta.task_id = tasks.id AND NOT EXISTS (
				SELECT 1 FROM notifications n WHERE n.task_id = ta.task_id AND n.account_id = ta.account_id
				AND n.type = ? AND n.created_at >= ?))`, models.NotificationDeadlineReminder, now.Add(-window)).
			Order("due_date, id").
			Pluck("id", &ids).Error
	})

	return ids, err
}

func (d *NotificationDispatcher) List(ctx context.Context, actor *authz.Context, accountID uint) ([]types.NotificationResponse, error) {
	if err := requireSelf(actor, accountID); err != nil {
		return nil, err
	}

	var rows []models.Notification

	err := d.read(ctx, func(tx *gorm.DB) error {
		return tx.Where("account_id = ?", accountID).Order("created_at DESC, id DESC").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.NotificationResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.NewNotificationResponse(row))
	}
	return out, nil
}

func (d *NotificationDispatcher) MarkAsRead(ctx context.Context, actor *authz.Context, id uint) error {
	return d.transaction(ctx, func(tx *gorm.DB) error {
		var row models.Notification
		if err := tx.First(&row, id).Error; err != nil {
			return notFoundOr(err, "notification %d not found", id)
		}
		if err := requireSelf(actor, row.AccountID); err != nil {
			return err
		}
		return tx.Model(&row).Update("is_read", true).Error
	})
}

func (d *NotificationDispatcher) MarkAllAsRead(ctx context.Context, actor *authz.Context, accountID uint) (int64, error) {
	if err := requireSelf(actor, accountID); err != nil {
		return 0, err
	}

	var updated int64
	err := d.transaction(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&models.Notification{}).
			Where("account_id = ? AND is_read = ?", accountID, false).
			Update("is_read", true)
		updated = result.RowsAffected
		return result.Error
	})
	return updated, err
}

func (d *NotificationDispatcher) GetSettings(ctx context.Context, actor *authz.Context, accountID uint) (models.NotificationSetting, error) {
	if err := requireSelf(actor, accountID); err != nil {
		return models.NotificationSetting{}, err
	}

	setting := models.DefaultNotificationSetting(accountID)
	err := d.read(ctx, func(tx *gorm.DB) error {
		err := tx.Where("account_id = ?", accountID).First(&setting).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	})
	return setting, err
}

func (d *NotificationDispatcher) SaveSettings(ctx context.Context, actor *authz.Context, accountID uint, req types.NotificationSettingsRequest) (models.NotificationSetting, error) {
	if err := requireSelf(actor, accountID); err != nil {
		return models.NotificationSetting{}, err
	}
	if req.ReminderDaysBefore < 0 {
		return models.NotificationSetting{}, types.Validation("reminder_days_before cannot be negative")
	}

	setting := models.NotificationSetting{
		AccountID:               accountID,
		EmailOnAssign:           req.EmailOnAssign,
		EmailOnStatusChange:     req.EmailOnStatusChange,
		EmailOnDeadlineReminder: req.EmailOnDeadlineReminder,
		ReminderDaysBefore:      req.ReminderDaysBefore,
	}

	err := d.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Account{}, accountID).Error; err != nil {
			return notFoundOr(err, "account %d not found", accountID)
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email_on_assign", "email_on_status_change", "email_on_deadline_reminder", "reminder_days_before", "updated_at"}),
		}).Create(&setting).Error
	})
	return setting, err
}

func requireSelf(actor *authz.Context, accountID uint) error {
	if actor.IsAdmin() || actor.AccountID == accountID {
		return nil
	}
	return types.Forbidden("cannot access the notifications of account %d", accountID)
}
