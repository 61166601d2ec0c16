package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack-dev/tasktrack/internal/types"
)

func (h *Handler) ListNotifications(ctx *gin.Context) {
	actor, accountID, ok := actorAndID(ctx, "account_id")
	if !ok {
		return
	}

	notifications, err := h.Notifications.List(ctx.Request.Context(), actor, accountID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, notifications)
}

func (h *Handler) MarkNotificationRead(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "notification_id")
	if !ok {
		return
	}

	if err := h.Notifications.MarkAsRead(ctx.Request.Context(), actor, id); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func (h *Handler) MarkAllNotificationsRead(ctx *gin.Context) {
	actor, accountID, ok := actorAndID(ctx, "account_id")
	if !ok {
		return
	}

	updated, err := h.Notifications.MarkAllAsRead(ctx.Request.Context(), actor, accountID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *Handler) GetNotificationSettings(ctx *gin.Context) {
	actor, accountID, ok := actorAndID(ctx, "account_id")
	if !ok {
		return
	}

	settings, err := h.Notifications.GetSettings(ctx.Request.Context(), actor, accountID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewNotificationSettingsResponse(settings))
}

func (h *Handler) SaveNotificationSettings(ctx *gin.Context) {
	actor, accountID, ok := actorAndID(ctx, "account_id")
	if !ok {
		return
	}

	var body types.NotificationSettingsRequest
	if !bindJSON(ctx, &body) {
		return
	}

	settings, err := h.Notifications.SaveSettings(ctx.Request.Context(), actor, accountID, body)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewNotificationSettingsResponse(settings))
}
