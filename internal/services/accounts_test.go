package services

import (
	"context"
	"testing"
	"time"

	"github.com/tasktrack-dev/tasktrack/internal/authz"
	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"golang.org/x/crypto/bcrypt"
)

func TestAccountReads(t *testing.T) {
	f := newFixture(t)
	ada := f.account(t, "ada", models.RoleUser)
	bob := f.account(t, "bob", models.RoleUser)

	list, err := f.accounts.List(context.Background(), ada)
	assertKind(t, err, nil)
	if len(list) != 2 || list[0].ID != ada.AccountID || list[1].Email != "bob@example.com" {
		t.Errorf("list = %+v", list)
	}

	got, err := f.accounts.Get(context.Background(), ada, bob.AccountID)
	assertKind(t, err, nil)
	if got.Name != "bob" || !got.IsActive {
		t.Errorf("get = %+v", got)
	}

	_, err = f.accounts.Get(context.Background(), ada, 404)
	assertKind(t, err, types.ErrNotFound)
}

func TestAccountUpdate(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "admin", models.RoleAdmin)
	ada := f.account(t, "ada", models.RoleUser)
	bob := f.account(t, "bob", models.RoleUser)

	tests := []struct {
		name  string
		actor *authz.Context
		id    uint
		req   types.UpdateAccountRequest
		kind  error
	}{
		{"other account", bob, ada.AccountID, types.UpdateAccountRequest{Name: ptr("Bobby")}, types.ErrForbidden},
		{"self role change", ada, ada.AccountID, types.UpdateAccountRequest{Role: ptr(models.RoleAdmin)}, types.ErrForbidden},
		{"blank name", ada, ada.AccountID, types.UpdateAccountRequest{Name: ptr("  ")}, types.ErrValidation},
		{"taken email", ada, ada.AccountID, types.UpdateAccountRequest{Email: ptr("BOB@example.com")}, types.ErrConflict},
		{"short password", ada, ada.AccountID, types.UpdateAccountRequest{Password: ptr("short")}, types.ErrValidation},
		{"unknown role", admin, ada.AccountID, types.UpdateAccountRequest{Role: ptr("Root")}, types.ErrValidation},
		{"missing account", admin, 404, types.UpdateAccountRequest{Name: ptr("Ghost")}, types.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.accounts.Update(context.Background(), tt.actor, tt.id, tt.req)
			assertKind(t, err, tt.kind)
		})
	}

	updated, err := f.accounts.Update(context.Background(), ada, ada.AccountID, types.UpdateAccountRequest{
		Name:     ptr(" Ada L "),
		Email:    ptr("ADA.L@example.com"),
		Password: ptr("correct horse"),
	})
	assertKind(t, err, nil)
	if updated.Name != "Ada L" || updated.Email != "ada.l@example.com" {
		t.Errorf("updated = %+v", updated)
	}

	var stored models.Account
	if err := f.db.First(&stored, ada.AccountID).Error; err != nil {
		t.Fatal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct horse")) != nil {
		t.Error("password was not re-hashed")
	}

	promoted, err := f.accounts.Update(context.Background(), admin, bob.AccountID, types.UpdateAccountRequest{Role: ptr(models.RoleAdmin)})
	assertKind(t, err, nil)
	if promoted.Role != models.RoleAdmin {
		t.Errorf("role = %q", promoted.Role)
	}
}

func TestDeactivatedAccountLosesAccess(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "admin", models.RoleAdmin)
	ada := f.account(t, "ada", models.RoleUser)

	token := models.ApiToken{Token: "jti-1", AccountID: ada.AccountID, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	if err := f.db.Create(&token).Error; err != nil {
		t.Fatal(err)
	}

	_, err := f.accounts.Update(context.Background(), admin, ada.AccountID, types.UpdateAccountRequest{IsActive: ptr(false)})
	assertKind(t, err, nil)

	_, err = authz.Load(context.Background(), f.db, ada.AccountID)
	assertKind(t, err, types.ErrForbidden)

	if n := f.count(t, &models.ApiToken{}, "account_id = ? AND revoked = ?", ada.AccountID, false); n != 0 {
		t.Errorf("live tokens = %d, want 0", n)
	}

	_, err = f.accounts.Update(context.Background(), admin, ada.AccountID, types.UpdateAccountRequest{IsActive: ptr(true)})
	assertKind(t, err, nil)
	if _, err := authz.Load(context.Background(), f.db, ada.AccountID); err != nil {
		t.Errorf("Load() after reactivation error = %v", err)
	}
}

func TestAccountDelete(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "admin", models.RoleAdmin)
	ada := f.account(t, "ada", models.RoleUser)
	bob := f.account(t, "bob", models.RoleUser)

	assertKind(t, f.accounts.Delete(context.Background(), ada, bob.AccountID), types.ErrForbidden)
	assertKind(t, f.accounts.Delete(context.Background(), admin, admin.AccountID), types.ErrValidation)
	assertKind(t, f.accounts.Delete(context.Background(), admin, 404), types.ErrNotFound)
	assertKind(t, f.accounts.Delete(context.Background(), admin, bob.AccountID), nil)

	_, err := f.accounts.Get(context.Background(), ada, bob.AccountID)
	assertKind(t, err, types.ErrNotFound)

	_, err = authz.Load(context.Background(), f.db, bob.AccountID)
	assertKind(t, err, types.ErrNotFound)
}

func TestDispatchSkipsInactiveAccounts(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, "owner", models.RoleUser)
	a := f.account(t, "a", models.RoleUser)
	b := f.account(t, "b", models.RoleUser)
	projectID := f.project(t, owner, a.AccountID, b.AccountID)
	task := f.task(t, owner, projectID, a.AccountID, b.AccountID)

	if err := f.db.Model(&models.Account{}).Where("id = ?", b.AccountID).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}

	result, err := f.dispatch.SendTaskAssigned(context.Background(), task.ID)
	assertKind(t, err, nil)
	if result.Notified != 1 || f.notifier.count() != 1 || f.notifier.sent[0].to != "a@example.com" {
		t.Errorf("result = %+v, sent %+v", result, f.notifier.sent)
	}
}
