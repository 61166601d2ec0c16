package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack-dev/tasktrack/internal/types"
)

func (h *Handler) AddComment(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	var body types.CommentRequest
	if !bindJSON(ctx, &body) {
		return
	}

	comment, err := h.Comments.AddComment(ctx.Request.Context(), actor, id, body.Content)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, comment)
}

func (h *Handler) ListComments(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	comments, err := h.Comments.ListComments(ctx.Request.Context(), actor, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, comments)
}
