package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack-dev/tasktrack/internal/types"
)

func (h *Handler) CreateProject(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var body types.CreateProjectRequest
	if !bindJSON(ctx, &body) {
		return
	}

	project, err := h.Projects.Create(ctx.Request.Context(), actor, body)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, project)
}

func (h *Handler) GetProject(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "project_id")
	if !ok {
		return
	}

	project, err := h.Projects.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, project)
}

func (h *Handler) ListProjects(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	projects, err := h.Projects.GetAll(ctx.Request.Context(), actor)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, projects)
}

func (h *Handler) ListAccountProjects(ctx *gin.Context) {
	actor, accountID, ok := actorAndID(ctx, "account_id")
	if !ok {
		return
	}

	projects, err := h.Projects.GetMyProjects(ctx.Request.Context(), actor, accountID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, projects)
}

func (h *Handler) AddProjectMember(ctx *gin.Context) {
	actor, projectID, ok := actorAndID(ctx, "project_id")
	if !ok {
		return
	}

	var body types.AddMemberRequest
	if !bindJSON(ctx, &body) {
		return
	}

	if err := h.Projects.AddMember(ctx.Request.Context(), actor, projectID, body.AccountID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Member added successfully"})
}

func (h *Handler) UpdateProjectStatus(ctx *gin.Context) {
	actor, projectID, ok := actorAndID(ctx, "project_id")
	if !ok {
		return
	}

	var body types.StatusRequest
	if !bindJSON(ctx, &body) {
		return
	}

	if err := h.Projects.UpdateStatus(ctx.Request.Context(), actor, projectID, body.Status); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Project status updated successfully"})
}

func (h *Handler) DeleteProject(ctx *gin.Context) {
	actor, projectID, ok := actorAndID(ctx, "project_id")
	if !ok {
		return
	}

	if err := h.Projects.Delete(ctx.Request.Context(), actor, projectID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}
