package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack-dev/tasktrack/internal/authz"
	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
)

func TestGetIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		value   string
		want    uint
		wantErr bool
	}{
		{"valid", "42", 42, false},
		{"missing", "", 0, true},
		{"zero", "0", 0, true},
		{"negative", "-1", 0, true},
		{"not a number", "abc", 0, true},
		{"overflow", "99999999999", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
			if tt.value != "" {
				ctx.Params = gin.Params{{Key: "task_id", Value: tt.value}}
			}

			got, err := GetIDParam(ctx, "task_id")
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetIDParam() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("GetIDParam() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetAuthContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, err := GetAuthContext(ctx); err == nil {
		t.Error("expected an error without an auth context")
	}

	ctx.Set(types.ContextAuthKey, "not a context")
	if _, err := GetAuthContext(ctx); err == nil {
		t.Error("expected an error for the wrong type")
	}

	account := models.Account{Role: models.RoleUser}
	account.ID = 7
	ctx.Set(types.ContextAuthKey, authz.NewContext(account))

	id, err := GetCurrentAccountID(ctx)
	if err != nil || id != 7 {
		t.Errorf("GetCurrentAccountID() = %d, %v", id, err)
	}
}
