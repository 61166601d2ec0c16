package handlers

import (
	"github.com/gin-gonic/gin"
)

// WebSocket upgrades the connection and streams the caller's notifications until it closes.
func (h *Handler) WebSocket(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	h.Hub.Serve(ctx.Writer, ctx.Request, actor.AccountID)
}
