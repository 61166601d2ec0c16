package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack-dev/tasktrack/internal/types"
)

func (h *Handler) ListTaskLogs(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "task_id")
	if !ok {
		return
	}

	logs, err := h.Audit.ForTask(ctx.Request.Context(), actor, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, logs)
}

func (h *Handler) ListAccountLogs(ctx *gin.Context) {
	actor, accountID, ok := actorAndID(ctx, "account_id")
	if !ok {
		return
	}

	logs, err := h.Audit.ForAccount(ctx.Request.Context(), actor, accountID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, logs)
}

// ListLogs filters by ?action= or by an RFC 3339 ?from=&to= range; with neither it returns everything.
func (h *Handler) ListLogs(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var (
		logs []types.TimeLogResponse
		err  error
	)

	from, to := ctx.Query("from"), ctx.Query("to")

	switch {
	case ctx.Query("action") != "":
		logs, err = h.Audit.ByAction(ctx.Request.Context(), actor, ctx.Query("action"))
	case from != "" || to != "":
		start, startErr := time.Parse(time.RFC3339, from)
		end, endErr := time.Parse(time.RFC3339, to)
		if startErr != nil || endErr != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be RFC 3339 timestamps"})
			return
		}
		logs, err = h.Audit.ByDateRange(ctx.Request.Context(), actor, start, end)
	default:
		logs, err = h.Audit.All(ctx.Request.Context(), actor)
	}

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, logs)
}
