package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tasktrack-dev/tasktrack/internal/logging"
	"github.com/tasktrack-dev/tasktrack/internal/types"
)

// RequestLogger tags each request with an id (echoed in X-Request-ID) and logs it on completion.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		requestID := ctx.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Set(types.ContextRequestIDKey, requestID)
		ctx.Header("X-Request-ID", requestID)

		start := time.Now()
		ctx.Next()

		entry := logging.Logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     ctx.Request.Method,
			"path":       ctx.FullPath(),
			"status":     ctx.Writer.Status(),
			"latency":    time.Since(start).String(),
		})

		switch {
		case ctx.Writer.Status() >= 500:
			entry.Error("request failed")
		case ctx.Writer.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}
