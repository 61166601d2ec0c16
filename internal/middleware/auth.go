package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack-dev/tasktrack/internal/authz"
	"github.com/tasktrack-dev/tasktrack/internal/logging"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"gorm.io/gorm"
)

// TokenValidator resolves a session token to its account.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (uint, error)
}

const ContextTokenKey = "token"

// AuthMiddleware accepts a Bearer header, the token cookie, or a token query
// parameter (browsers cannot set headers on websocket upgrades).
func AuthMiddleware(validator TokenValidator, db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := extractToken(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is required"})
			return
		}

		accountID, err := validator.Validate(ctx.Request.Context(), tokenString)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		actor, err := authz.Load(ctx.Request.Context(), db, accountID)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrForbidden) {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account not found or deactivated"})
				return
			}
			logging.Logger.WithError(err).Error("failed to load account for token")
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		ctx.Set(types.ContextAuthKey, actor)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Next()
	}
}

func extractToken(ctx *gin.Context) (string, bool) {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if cookie, err := ctx.Cookie("token"); err == nil && cookie != "" {
		return cookie, true
	}

	if token := ctx.Query("token"); token != "" {
		return token, true
	}

	return "", false
}
