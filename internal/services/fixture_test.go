package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tasktrack-dev/tasktrack/db"
	"github.com/tasktrack-dev/tasktrack/internal/authz"
	"github.com/tasktrack-dev/tasktrack/internal/config"
	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"gorm.io/gorm"
)

type sentMessage struct {
	to      string
	subject string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]bool
}

func (f *fakeNotifier) Send(_ context.Context, to, subject, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, sentMessage{to: to, subject: subject})
	if f.fail[to] {
		return errors.New("mailbox unavailable")
	}
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type recordedEvents struct {
	assigned []uint
	statuses []string
}

func (r *recordedEvents) TaskAssigned(_ context.Context, task models.Task) {
	r.assigned = append(r.assigned, task.ID)
}

func (r *recordedEvents) TaskStatusChanged(_ context.Context, _ models.Task, status string) {
	r.statuses = append(r.statuses, status)
}

type fixture struct {
	db       *gorm.DB
	audit    *AuditLog
	tasks    *TaskWorkflow
	projects *ProjectWorkflow
	admin    *AdminOverride
	dispatch *NotificationDispatcher
	comments *CommentService
	accounts *AccountService
	notifier *fakeNotifier
	events   *recordedEvents
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.ConnectDatabase(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "tasktrack.db"),
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.MigrateDatabase(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb := newTestDB(t)
	audit := NewAuditLog(gdb, 5*time.Second)
	fake := &fakeNotifier{fail: map[string]bool{}}
	events := &recordedEvents{}

	f := &fixture{
		db:       gdb,
		audit:    audit,
		tasks:    NewTaskWorkflow(gdb, 5*time.Second, audit),
		projects: NewProjectWorkflow(gdb, 5*time.Second, audit),
		admin:    NewAdminOverride(gdb, 5*time.Second, audit, false),
		dispatch: NewNotificationDispatcher(gdb, 5*time.Second, fake),
		comments: NewCommentService(gdb, 5*time.Second, audit),
		accounts: NewAccountService(gdb, 5*time.Second),
		notifier: fake,
		events:   events,
	}
	f.tasks.SetEvents(events)
	f.admin.SetEvents(events)
	return f
}

func (f *fixture) account(t *testing.T, name, role string) *authz.Context {
	t.Helper()

	account := models.Account{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	if err := f.db.Create(&account).Error; err != nil {
		t.Fatalf("create account %s: %v", name, err)
	}
	return authz.NewContext(account)
}

// project creates a project managed by owner with the given plain members.
func (f *fixture) project(t *testing.T, owner *authz.Context, memberIDs ...uint) uint {
	t.Helper()

	project, err := f.projects.Create(context.Background(), owner, types.CreateProjectRequest{
		Name:      "Project",
		MemberIDs: memberIDs,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project.ID
}

func (f *fixture) task(t *testing.T, actor *authz.Context, projectID uint, assignees ...uint) types.TaskResponse {
	t.Helper()

	task, err := f.tasks.Create(context.Background(), actor, types.CreateTaskRequest{
		ProjectID:   projectID,
		Title:       "Task",
		AssigneeIDs: assignees,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()

	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()

	if kind == nil {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want kind %v", err, kind)
	}
}

// newGhost returns a caller whose account row does not exist.
func newGhost() *authz.Context {
	return authz.NewContext(models.Account{Model: gorm.Model{ID: 999}, Role: models.RoleUser})
}

func ids(values ...uint) []uint {
	return values
}
