package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PanicContext is the error log context of a recovered request panic.
const PanicContext = "http.panic"

// FailureRecorder receives caught top-level failures. core.ErrorLogService
// satisfies it; Record must not fail.
type FailureRecorder interface {
	Record(ctx context.Context, err error, context string, memberID string)
}

// RecoveryMiddleware turns a handler panic into a 500, logs it with the stack
// and, when recorder is set, appends it to the error log with the member id.
func RecoveryMiddleware(logger *zap.Logger, recorder FailureRecorder) gin.HandlerFunc {
	if logger == nil {
		panic("RecoveryMiddleware requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			requestID := c.GetString(RequestIDKey)
			var memberID string
			if member, ok := MemberFromContext(c); ok {
				memberID = member.ID
			}
			logger.Error("Panic recovered",
				zap.Any("error", recovered),
				zap.String("stacktrace", string(debug.Stack())),
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.String("memberId", memberID),
				zap.String("requestId", requestID),
			)
			if recorder != nil {
				err := fmt.Errorf("panic in %s %s (request %s): %v", c.Request.Method, c.FullPath(), requestID, recovered)
				recorder.Record(c.Request.Context(), err, PanicContext, memberID)
			}
			if !c.Writer.Written() {
				c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
			}
			c.Abort()
		}()
		c.Next()
	}
}
