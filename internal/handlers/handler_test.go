package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack-dev/tasktrack/db"
	"github.com/tasktrack-dev/tasktrack/internal/authz"
	"github.com/tasktrack-dev/tasktrack/internal/config"
	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/services"
	"github.com/tasktrack-dev/tasktrack/internal/types"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", types.NotFound("task %d not found", 4), http.StatusNotFound, "task 4 not found"},
		{"forbidden", types.Forbidden("no edit permission"), http.StatusForbidden, "no edit permission"},
		{"validation", types.Validation("title is required"), http.StatusBadRequest, "title is required"},
		{"conflict", types.Conflict("email already exists"), http.StatusConflict, "email already exists"},
		{"unavailable", types.Unavailable(errors.New("dial tcp"), "database unavailable"), http.StatusServiceUnavailable, "database unavailable"},
		{"untyped", errors.New("disk full"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)

			respondError(ctx, tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["error"] != tt.message {
				t.Errorf("error = %q, want %q", body["error"], tt.message)
			}
		})
	}
}

func TestMe(t *testing.T) {
	gin.SetMode(gin.TestMode)

	gdb, err := db.ConnectDatabase(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "tasktrack.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.MigrateDatabase(gdb); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	active := models.Account{Name: "Ada", Email: "ada@example.com", PasswordHash: "x", Role: models.RoleUser, IsActive: true}
	gone := models.Account{Name: "Bob", Email: "bob@example.com", PasswordHash: "x", Role: models.RoleUser, IsActive: true}
	for _, account := range []*models.Account{&active, &gone} {
		if err := gdb.Create(account).Error; err != nil {
			t.Fatal(err)
		}
	}
	if err := gdb.Delete(&gone).Error; err != nil {
		t.Fatal(err)
	}

	h := &Handler{DB: gdb, Accounts: services.NewAccountService(gdb, 5*time.Second)}

	tests := []struct {
		name    string
		account models.Account
		status  int
	}{
		{"live account", active, http.StatusOK},
		{"deleted account", gone, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)
			ctx.Request = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			ctx.Set(types.ContextAuthKey, authz.NewContext(tt.account))

			h.Me(ctx)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}
