package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack-dev/tasktrack/internal/types"
)

func (h *Handler) CreateTask(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var body types.CreateTaskRequest
	if !bindJSON(ctx, &body) {
		return
	}

	task, err := h.Tasks.Create(ctx.Request.Context(), actor, body)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, task)
}

func (h *Handler) GetTask(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	task, err := h.Tasks.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func (h *Handler) ListTasks(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	tasks, err := h.Tasks.GetAll(ctx.Request.Context(), actor)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

func (h *Handler) ListProjectTasks(ctx *gin.Context) {
	actor, projectID, ok := actorAndID(ctx, "project_id")
	if !ok {
		return
	}

	tasks, err := h.Tasks.GetVisibleTasks(ctx.Request.Context(), actor, projectID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

func (h *Handler) ListSubtasks(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	tasks, err := h.Tasks.GetSubtasks(ctx.Request.Context(), actor, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

func (h *Handler) UpdateTask(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	var body types.UpdateTaskRequest
	if !bindJSON(ctx, &body) {
		return
	}

	task, err := h.Tasks.Update(ctx.Request.Context(), actor, id, body)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func (h *Handler) ChangeTaskStatus(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	var body types.StatusRequest
	if !bindJSON(ctx, &body) {
		return
	}

	task, err := h.Tasks.ChangeStatus(ctx.Request.Context(), actor, id, body.Status)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func (h *Handler) ChangeTaskPriority(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	var body types.PriorityRequest
	if !bindJSON(ctx, &body) {
		return
	}

	task, err := h.Tasks.ChangePriority(ctx.Request.Context(), actor, id, body.Priority)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func (h *Handler) ChangeTaskDeadline(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	var body types.DeadlineRequest
	if !bindJSON(ctx, &body) {
		return
	}

	task, err := h.Tasks.ChangeDeadline(ctx.Request.Context(), actor, id, body.DueDate)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func (h *Handler) AssignTask(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	var body types.AssignTaskRequest
	if !bindJSON(ctx, &body) {
		return
	}

	task, err := h.Tasks.Reassign(ctx.Request.Context(), actor, id, body.AssigneeIDs)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	if err := h.Tasks.Delete(ctx.Request.Context(), actor, id); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (h *Handler) RemindTask(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	result, err := h.Notifications.RemindDeadline(ctx.Request.Context(), actor, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}
