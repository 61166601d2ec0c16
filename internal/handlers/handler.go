// Package handlers exposes the task tracking services over HTTP.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tasktrack-dev/tasktrack/internal/auth"
	"github.com/tasktrack-dev/tasktrack/internal/authz"
	"github.com/tasktrack-dev/tasktrack/internal/live"
	"github.com/tasktrack-dev/tasktrack/internal/logging"
	"github.com/tasktrack-dev/tasktrack/internal/services"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"github.com/tasktrack-dev/tasktrack/internal/utils"
	"gorm.io/gorm"
)

type Handler struct {
	DB            *gorm.DB
	Auth          *auth.Gateway
	Tasks         *services.TaskWorkflow
	Projects      *services.ProjectWorkflow
	Admin         *services.AdminOverride
	Notifications *services.NotificationDispatcher
	Comments      *services.CommentService
	Audit         *services.AuditLog
	Accounts      *services.AccountService
	Hub           *live.Hub

	// CookieDomain scopes the session cookie. Empty means host-only.
	CookieDomain string
}

// respondError maps service error kinds to HTTP statuses. Untyped errors are logged and hidden.
func respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, types.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, types.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	entry := logging.Logger.WithFields(logrus.Fields{
		"request_id": ctx.GetString(types.ContextRequestIDKey),
		"path":       ctx.FullPath(),
	}).WithError(err)

	if status == http.StatusInternalServerError {
		entry.Error("unhandled error")
		ctx.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	entry.Debug("request refused")
	ctx.JSON(status, gin.H{"error": types.Message(err)})
}

func bindJSON(ctx *gin.Context, body any) bool {
	if err := ctx.ShouldBindJSON(body); err != nil {
		logging.Logger.WithError(err).Debug("failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return false
	}
	return true
}

// actorAndID fetches the caller and a numeric path parameter, writing the error response on failure.
func actorAndID(ctx *gin.Context, param string) (*authz.Context, uint, bool) {
	actor, err := utils.GetAuthContext(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, 0, false
	}

	id, err := utils.GetIDParam(ctx, param)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, 0, false
	}

	return actor, id, true
}

func currentActor(ctx *gin.Context) (*authz.Context, bool) {
	actor, err := utils.GetAuthContext(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}
	return actor, true
}
