package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack-dev/tasktrack/internal/types"
)

func (h *Handler) ForceTaskStatus(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	var body types.StatusRequest
	if !bindJSON(ctx, &body) {
		return
	}

	if err := h.Admin.ForceUpdateStatus(ctx.Request.Context(), actor, id, body.Status, body.Note); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task status updated by admin"})
}

func (h *Handler) ForceTaskPriority(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	var body types.PriorityRequest
	if !bindJSON(ctx, &body) {
		return
	}

	if err := h.Admin.ChangePriority(ctx.Request.Context(), actor, id, body.Priority); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task priority updated by admin"})
}

func (h *Handler) ForceTaskDeadline(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	var body types.DeadlineRequest
	if !bindJSON(ctx, &body) {
		return
	}

	if err := h.Admin.UpdateDeadline(ctx.Request.Context(), actor, id, body.DueDate); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task deadline updated by admin"})
}

func (h *Handler) ForceTaskAssignees(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	var body types.AssignTaskRequest
	if !bindJSON(ctx, &body) {
		return
	}

	if err := h.Admin.ReassignTask(ctx.Request.Context(), actor, id, body.AssigneeIDs); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task reassigned by admin"})
}

func (h *Handler) UpdatePermission(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var body types.UpdatePermissionRequest
	if !bindJSON(ctx, &body) {
		return
	}

	if err := h.Admin.UpdatePermission(ctx.Request.Context(), actor, body); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Permission updated successfully"})
}

func (h *Handler) ListTaskPermissions(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	permissions, err := h.Admin.GetTaskPermissions(ctx.Request.Context(), actor, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, permissions)
}
