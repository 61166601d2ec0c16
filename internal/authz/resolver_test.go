package authz

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/tasktrack-dev/tasktrack/db"
	"github.com/tasktrack-dev/tasktrack/internal/config"
	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"gorm.io/gorm"
)

func TestEffective(t *testing.T) {
	grant := &models.TaskPermission{CanView: true, CanEdit: true}
	narrow := &models.TaskPermission{}

	tests := []struct {
		name     string
		role     string
		assigned bool
		grant    *models.TaskPermission
		want     Rights
	}{
		{"manager", models.MemberRoleProjectManager, false, nil, FullRights()},
		{"scrum master", models.MemberRoleScrumMaster, false, narrow, FullRights()},
		{"combined", models.MemberRoleProjectManagerScrumMaster, false, nil, FullRights()},
		{"unassigned member", models.MemberRoleMember, false, nil, Rights{Member: true}},
		{"assigned member", models.MemberRoleMember, true, nil, Rights{Member: true, CanView: true, CanComment: true}},
		{"widened by grant", models.MemberRoleMember, false, grant, Rights{Member: true, CanView: true, CanEdit: true}},
		{"narrowed by grant", models.MemberRoleMember, true, narrow, Rights{Member: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Effective(tt.role, tt.assigned, tt.grant); got != tt.want {
				t.Errorf("Effective() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

type world struct {
	db      *gorm.DB
	project models.Project
	task    models.Task
	seq     int
}

func newWorld(t *testing.T) *world {
	t.Helper()

	gdb, err := db.ConnectDatabase(config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "authz.db")})
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

	w := &world{db: gdb}
	w.project = models.Project{Name: "p", Status: models.ProjectActive, CreatedByID: 1, ProjectManagerID: 1}
	if err := gdb.Create(&w.project).Error; err != nil {
		t.Fatal(err)
	}
	w.task = models.Task{ProjectID: w.project.ID, Title: "t", Status: models.TaskNotStarted, ReporterID: 1}
	if err := gdb.Create(&w.task).Error; err != nil {
		t.Fatal(err)
	}
	return w
}

func (w *world) account(t *testing.T, role, memberRole string) *Context {
	t.Helper()

	w.seq++
	account := models.Account{Name: role, Email: fmt.Sprintf("account%d@example.com", w.seq), PasswordHash: "x", Role: role, IsActive: true}
	if err := w.db.Create(&account).Error; err != nil {
		t.Fatal(err)
	}
	if memberRole != "" {
		member := models.ProjectMember{ProjectID: w.project.ID, AccountID: account.ID, Role: memberRole, JoinedAt: time.Now()}
		if err := w.db.Create(&member).Error; err != nil {
			t.Fatal(err)
		}
	}

	actor, err := Load(context.Background(), w.db, account.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return actor
}

func TestResolve(t *testing.T) {
	w := newWorld(t)

	admin := w.account(t, models.RoleAdmin, "")
	manager := w.account(t, models.RoleUser, models.MemberRoleProjectManager)
	member := w.account(t, models.RoleUser, models.MemberRoleMember)
	outsider := w.account(t, models.RoleUser, "")

	tests := []struct {
		name  string
		actor *Context
		want  Rights
	}{
		{"admin", admin, FullRights()},
		{"manager", manager, FullRights()},
		{"unassigned member", member, Rights{Member: true}},
		{"outsider", outsider, Rights{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := Resolve(w.db, tt.actor, w.task.ID)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, err := Require(w.db, outsider, w.task.ID, CanView, "view"); !errors.Is(err, types.ErrForbidden) {
		t.Errorf("Require() for outsider error = %v, want forbidden", err)
	}

	assignment := models.TaskAssignment{TaskID: w.task.ID, AccountID: member.AccountID, AssignedByID: manager.AccountID, AssignedAt: time.Now()}
	if err := w.db.Create(&assignment).Error; err != nil {
		t.Fatal(err)
	}

	got, _, err := Resolve(w.db, member, w.task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.CanView || !got.CanComment || got.CanEdit || got.CanDelete {
		t.Errorf("assigned member rights = %+v", got)
	}
}

func TestResolveMissingTask(t *testing.T) {
	w := newWorld(t)
	admin := w.account(t, models.RoleAdmin, "")

	if _, _, err := Resolve(w.db, admin, 404); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("missing task error = %v, want not found", err)
	}

	if err := w.db.Delete(&w.task).Error; err != nil {
		t.Fatal(err)
	}
	if _, _, err := Resolve(w.db, admin, w.task.ID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("deleted task error = %v, want not found", err)
	}
}

func TestLoadRejectsUnusableAccounts(t *testing.T) {
	w := newWorld(t)

	inactive := w.account(t, models.RoleAdmin, "")
	if err := w.db.Model(&models.Account{}).Where("id = ?", inactive.AccountID).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}
	deleted := w.account(t, models.RoleUser, "")
	if err := w.db.Delete(&models.Account{}, deleted.AccountID).Error; err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		id   uint
		want error
	}{
		{"unknown", 404, types.ErrNotFound},
		{"soft deleted", deleted.AccountID, types.ErrNotFound},
		{"deactivated", inactive.AccountID, types.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor, err := Load(context.Background(), w.db, tt.id)
			if !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
			if actor != nil {
				t.Errorf("Load() actor = %+v, want nil", actor)
			}
		})
	}
}

func TestMembershipCache(t *testing.T) {
	w := newWorld(t)
	actor := w.account(t, models.RoleUser, "")

	if _, found, err := actor.MembershipRole(w.db, w.project.ID); err != nil || found {
		t.Fatalf("MembershipRole() = %v, %v", found, err)
	}

	member := models.ProjectMember{ProjectID: w.project.ID, AccountID: actor.AccountID, Role: models.MemberRoleMember, JoinedAt: time.Now()}
	if err := w.db.Create(&member).Error; err != nil {
		t.Fatal(err)
	}

	if _, found, _ := actor.MembershipRole(w.db, w.project.ID); found {
		t.Error("expected the cached miss before Forget")
	}

	actor.Forget(w.project.ID)
	role, found, err := actor.MembershipRole(w.db, w.project.ID)
	if err != nil || !found || role != models.MemberRoleMember {
		t.Errorf("MembershipRole() after Forget = %q, %v, %v", role, found, err)
	}
}
