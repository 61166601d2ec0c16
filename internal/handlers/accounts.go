package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack-dev/tasktrack/internal/types"
)

func (h *Handler) ListAccounts(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	accounts, err := h.Accounts.List(ctx.Request.Context(), actor)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, accounts)
}

func (h *Handler) GetAccount(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "account_id")
	if !ok {
		return
	}

	account, err := h.Accounts.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, account)
}

// CreateAccount lets an Admin create an account with any role.
func (h *Handler) CreateAccount(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	if !actor.IsAdmin() {
		respondError(ctx, types.Forbidden("access denied, admins only"))
		return
	}

	var body types.CreateAccountRequest
	if !bindJSON(ctx, &body) {
		return
	}

	account, err := h.Auth.Register(ctx.Request.Context(), body.Name, body.Email, body.Password, body.Role)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, types.NewUserResponse(account))
}

func (h *Handler) UpdateAccount(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "account_id")
	if !ok {
		return
	}

	var body types.UpdateAccountRequest
	if !bindJSON(ctx, &body) {
		return
	}

	account, err := h.Accounts.Update(ctx.Request.Context(), actor, id, body)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, account)
}

func (h *Handler) DeleteAccount(ctx *gin.Context) {
	actor, id, ok := actorAndID(ctx, "account_id")
	if !ok {
		return
	}

	if err := h.Accounts.Delete(ctx.Request.Context(), actor, id); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}
