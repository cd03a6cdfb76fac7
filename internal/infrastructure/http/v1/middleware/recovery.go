// Package middleware provides the gin middleware chain of the API:
// recovery, tracing, request logging, error rendering, authentication
// and permission checks.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"stockerp/internal/core/apperror"
	"stockerp/internal/infrastructure/http/v1/dto"
	"stockerp/pkg/logger"
)

// Recovery converts a handler panic into an INTERNAL_ERROR response.
// The stack goes to the log only.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				"panic", rec,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)
			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
				WithDetail("request_id", c.GetString("request_id"))
			_ = c.Error(appErr)
			// ErrorHandler was unwound by the panic, so render here.
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(appErr.HTTPStatus, dto.FromAppError(appErr))
		}()
		c.Next()
	}
}
