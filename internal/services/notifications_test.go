package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
)

type recordingPublisher struct {
	mu       sync.Mutex
	accounts []uint
}

func (p *recordingPublisher) Publish(accountID uint, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts = append(p.accounts, accountID)
}

func TestSendTaskAssignedSkipsMissingAccounts(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, "owner", models.RoleUser)
	a := f.account(t, "a", models.RoleUser)
	projectID := f.project(t, owner, a.AccountID)
	task := f.task(t, owner, projectID, a.AccountID, 999)

	result, err := f.dispatch.SendTaskAssigned(context.Background(), task.ID)
	assertKind(t, err, nil)

	if result.Notified != 1 || result.Attempted != 1 || result.Failed != 0 {
		t.Errorf("result = %+v", result)
	}
	if n := f.count(t, &models.Notification{}, "task_id = ?", task.ID); n != 1 {
		t.Errorf("notifications = %d, want 1", n)
	}
	if f.notifier.count() != 1 || f.notifier.sent[0].to != "a@example.com" {
		t.Errorf("sent = %+v", f.notifier.sent)
	}
}

func TestSendTaskAssignedSkipsDeletedAccounts(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, "owner", models.RoleUser)
	a := f.account(t, "a", models.RoleUser)
	b := f.account(t, "b", models.RoleUser)
	projectID := f.project(t, owner, a.AccountID, b.AccountID)
	task := f.task(t, owner, projectID, a.AccountID, b.AccountID)

	f.db.Delete(&models.Account{}, b.AccountID)

	result, err := f.dispatch.SendTaskAssigned(context.Background(), task.ID)
	assertKind(t, err, nil)
	if result.Notified != 1 || f.notifier.count() != 1 {
		t.Errorf("result = %+v, sent = %d", result, f.notifier.count())
	}
}

func TestDispatchValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, "owner", models.RoleUser)
	projectID := f.project(t, owner)
	task := f.task(t, owner, projectID)

	_, err := f.dispatch.SendTaskAssigned(context.Background(), task.ID)
	assertKind(t, err, types.ErrValidation)

	_, err = f.dispatch.SendDeadlineReminder(context.Background(), task.ID)
	assertKind(t, err, types.ErrValidation)

	_, err = f.dispatch.SendStatusChanged(context.Background(), 404, models.TaskBlocked)
	assertKind(t, err, types.ErrNotFound)

	result, err := f.dispatch.SendStatusChanged(context.Background(), task.ID, models.TaskBlocked)
	assertKind(t, err, nil)
	if result.Notified != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestDispatchFailurePolicy(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, "owner", models.RoleUser)
	a := f.account(t, "a", models.RoleUser)
	b := f.account(t, "b", models.RoleUser)
	projectID := f.project(t, owner, a.AccountID, b.AccountID)
	task := f.task(t, owner, projectID, a.AccountID, b.AccountID)

	f.notifier.fail["a@example.com"] = true
	result, err := f.dispatch.SendStatusChanged(context.Background(), task.ID, models.TaskInReview)
	assertKind(t, err, nil)
	if result.Attempted != 2 || result.Failed != 1 {
		t.Errorf("partial failure result = %+v", result)
	}

	f.notifier.fail["b@example.com"] = true
	result, err = f.dispatch.SendStatusChanged(context.Background(), task.ID, models.TaskCompleted)
	assertKind(t, err, types.ErrUnavailable)
	if result.Notified != 2 || result.Failed != 2 {
		t.Errorf("total failure result = %+v", result)
	}

	if n := f.count(t, &models.Notification{}, "task_id = ? AND type = ?", task.ID, models.NotificationStatusChanged); n != 4 {
		t.Errorf("notifications = %d, want 4", n)
	}
}

func TestDispatchHonoursSettings(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, "owner", models.RoleUser)
	a := f.account(t, "a", models.RoleUser)
	b := f.account(t, "b", models.RoleUser)
	projectID := f.project(t, owner, a.AccountID, b.AccountID)
	task := f.task(t, owner, projectID, a.AccountID, b.AccountID)

	publisher := &recordingPublisher{}
	f.dispatch.SetPublisher(publisher)

	_, err := f.dispatch.SaveSettings(context.Background(), a, a.AccountID, types.NotificationSettingsRequest{
		EmailOnStatusChange:     true,
		EmailOnDeadlineReminder: true,
		ReminderDaysBefore:      2,
	})
	assertKind(t, err, nil)

	result, err := f.dispatch.SendTaskAssigned(context.Background(), task.ID)
	assertKind(t, err, nil)
	if result.Notified != 2 || result.Attempted != 1 {
		t.Errorf("result = %+v", result)
	}
	if f.notifier.sent[0].to != "b@example.com" {
		t.Errorf("sent = %+v", f.notifier.sent)
	}
	if len(publisher.accounts) != 2 {
		t.Errorf("published = %v", publisher.accounts)
	}

	setting, err := f.dispatch.GetSettings(context.Background(), a, a.AccountID)
	assertKind(t, err, nil)
	if setting.EmailOnAssign || setting.ReminderDaysBefore != 2 {
		t.Errorf("setting = %+v", setting)
	}

	defaults, err := f.dispatch.GetSettings(context.Background(), b, b.AccountID)
	assertKind(t, err, nil)
	if !defaults.EmailOnAssign || defaults.ReminderDaysBefore != 1 {
		t.Errorf("defaults = %+v", defaults)
	}

	_, err = f.dispatch.SaveSettings(context.Background(), b, a.AccountID, types.NotificationSettingsRequest{})
	assertKind(t, err, types.ErrForbidden)
}

func TestNotificationInbox(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, "owner", models.RoleUser)
	a := f.account(t, "a", models.RoleUser)
	projectID := f.project(t, owner, a.AccountID)
	first := f.task(t, owner, projectID, a.AccountID)
	second := f.task(t, owner, projectID, a.AccountID)

	for _, id := range ids(first.ID, second.ID) {
		_, err := f.dispatch.SendTaskAssigned(context.Background(), id)
		assertKind(t, err, nil)
	}

	inbox, err := f.dispatch.List(context.Background(), a, a.AccountID)
	assertKind(t, err, nil)
	if len(inbox) != 2 || *inbox[0].TaskID != second.ID {
		t.Fatalf("inbox = %+v", inbox)
	}
	if inbox[0].Message != "You have been assigned to task: Task" {
		t.Errorf("message = %q", inbox[0].Message)
	}

	_, err = f.dispatch.List(context.Background(), owner, a.AccountID)
	assertKind(t, err, types.ErrForbidden)

	assertKind(t, f.dispatch.MarkAsRead(context.Background(), owner, inbox[0].ID), types.ErrForbidden)
	assertKind(t, f.dispatch.MarkAsRead(context.Background(), a, inbox[0].ID), nil)
	assertKind(t, f.dispatch.MarkAsRead(context.Background(), a, 404), types.ErrNotFound)

	updated, err := f.dispatch.MarkAllAsRead(context.Background(), a, a.AccountID)
	assertKind(t, err, nil)
	if updated != 1 {
		t.Errorf("marked = %d, want 1", updated)
	}
	if n := f.count(t, &models.Notification{}, "account_id = ? AND is_read = ?", a.AccountID, false); n != 0 {
		t.Errorf("unread = %d, want 0", n)
	}
}

func TestDueForReminder(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2030, time.January, 10, 9, 0, 0, 0, time.UTC)
	f.dispatch.now = func() time.Time { return now }

	owner := f.account(t, "owner", models.RoleUser)
	a := f.account(t, "a", models.RoleUser)
	projectID := f.project(t, owner, a.AccountID)

	soon := f.task(t, owner, projectID, a.AccountID)
	later := f.task(t, owner, projectID, a.AccountID)
	done := f.task(t, owner, projectID, a.AccountID)

	setDue := func(id uint, due time.Time) {
		t.Helper()
		if err := f.db.Model(&models.Task{}).Where("id = ?", id).Update("due_date", due).Error; err != nil {
			t.Fatal(err)
		}
	}
	setDue(soon.ID, now.Add(6*time.Hour))
	setDue(later.ID, now.Add(72*time.Hour))
	setDue(done.ID, now.Add(2*time.Hour))
	f.db.Model(&models.Task{}).Where("id = ?", done.ID).Update("status", models.TaskCompleted)

	due, err := f.dispatch.DueForReminder(context.Background(), 24*time.Hour)
	assertKind(t, err, nil)
	if len(due) != 1 || due[0] != soon.ID {
		t.Fatalf("due = %v, want [%d]", due, soon.ID)
	}

	result, err := f.dispatch.SendDeadlineReminder(context.Background(), soon.ID)
	assertKind(t, err, nil)
	if result.Notified != 1 || result.Attempted != 1 {
		t.Errorf("result = %+v", result)
	}

	due, err = f.dispatch.DueForReminder(context.Background(), 24*time.Hour)
	assertKind(t, err, nil)
	if len(due) != 0 {
		t.Errorf("due after reminder = %v, want none", due)
	}
}

func TestDeadlineReminderIgnoresLeadTime(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, "owner", models.RoleUser)
	dev := f.account(t, "dev", models.RoleUser)
	projectID := f.project(t, owner, dev.AccountID)
	task := f.task(t, owner, projectID, dev.AccountID)

	due := time.Now().Add(72 * time.Hour)
	_, err := f.tasks.ChangeDeadline(context.Background(), owner, task.ID, &due)
	assertKind(t, err, nil)

	result, err := f.dispatch.SendDeadlineReminder(context.Background(), task.ID)
	assertKind(t, err, nil)
	if result.Notified != 1 || result.Attempted != 1 {
		t.Errorf("result = %+v, want one delivery", result)
	}
	if got := f.notifier.count(); got != 1 {
		t.Errorf("notifier calls = %d, want 1", got)
	}
}

func TestSweepDeadlineReminder(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2030, time.January, 10, 9, 0, 0, 0, time.UTC)
	f.dispatch.now = func() time.Time { return now }

	owner := f.account(t, "owner", models.RoleUser)
	a := f.account(t, "a", models.RoleUser)
	b := f.account(t, "b", models.RoleUser)
	projectID := f.project(t, owner, a.AccountID, b.AccountID)
	task := f.task(t, owner, projectID, a.AccountID, b.AccountID)

	if err := f.db.Model(&models.Task{}).Where("id = ?", task.ID).Update("due_date", now.Add(48*time.Hour)).Error; err != nil {
		t.Fatal(err)
	}

	_, err := f.dispatch.SaveSettings(context.Background(), b, b.AccountID, types.NotificationSettingsRequest{
		EmailOnDeadlineReminder: true,
		ReminderDaysBefore:      3,
	})
	assertKind(t, err, nil)

	window := 72 * time.Hour

	// b wants three days of lead time, a keeps the one day default.
	result, err := f.dispatch.SweepDeadlineReminder(context.Background(), task.ID, window)
	assertKind(t, err, nil)
	if result.Notified != 1 || f.notifier.sent[0].to != "b@example.com" {
		t.Fatalf("first sweep = %+v, sent %+v", result, f.notifier.sent)
	}

	due, err := f.dispatch.DueForReminder(context.Background(), window)
	assertKind(t, err, nil)
	if len(due) != 1 {
		t.Fatalf("due after first sweep = %v, want the task again for a", due)
	}

	now = now.Add(30 * time.Hour)
	result, err = f.dispatch.SweepDeadlineReminder(context.Background(), task.ID, window)
	assertKind(t, err, nil)
	if result.Notified != 1 || f.notifier.count() != 2 || f.notifier.sent[1].to != "a@example.com" {
		t.Fatalf("second sweep = %+v, sent %+v", result, f.notifier.sent)
	}

	result, err = f.dispatch.SweepDeadlineReminder(context.Background(), task.ID, window)
	assertKind(t, err, nil)
	if result.Notified != 0 || f.notifier.count() != 2 {
		t.Errorf("repeat sweep = %+v, want nobody reminded twice", result)
	}

	due, err = f.dispatch.DueForReminder(context.Background(), window)
	assertKind(t, err, nil)
	if len(due) != 0 {
		t.Errorf("due after everyone was reminded = %v", due)
	}
}
