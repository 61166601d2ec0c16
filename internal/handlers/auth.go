package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack-dev/tasktrack/internal/auth"
	"github.com/tasktrack-dev/tasktrack/internal/middleware"
	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
)

func (h *Handler) setTokenCookie(ctx *gin.Context, token string, maxAge int) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handler) Register(ctx *gin.Context) {
	var body types.RegisterRequest
	if !bindJSON(ctx, &body) {
		return
	}

	account, err := h.Auth.Register(ctx.Request.Context(), body.Name, body.Email, body.Password, models.RoleUser)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": types.NewUserResponse(account)})
}

func (h *Handler) Login(ctx *gin.Context) {
	var body types.LoginRequest
	if !bindJSON(ctx, &body) {
		return
	}

	session, err := h.Auth.Login(ctx.Request.Context(), body.Email, body.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		respondError(ctx, err)
		return
	}

	h.setTokenCookie(ctx, session.Token, int(session.ExpiresAt.Sub(session.CreatedAt).Seconds()))
	ctx.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *Handler) Me(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	account, err := h.Accounts.Get(ctx.Request.Context(), actor, actor.AccountID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": account})
}

func (h *Handler) Logout(ctx *gin.Context) {
	if err := h.Auth.Revoke(ctx.Request.Context(), ctx.GetString(middleware.ContextTokenKey)); err != nil && !errors.Is(err, auth.ErrInvalidToken) {
		respondError(ctx, err)
		return
	}

	h.setTokenCookie(ctx, "", -1)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
