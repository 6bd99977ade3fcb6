// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"memorial/internal/core/apperror"
	"memorial/internal/infrastructure/http/v1/dto"
	"memorial/pkg/logger"
)

// Recovery turns a handler panic into an INTERNAL_ERROR response.
// The stack goes to the log only. It renders the body itself because the
// panic unwinds past ErrorHandler.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			logger.Error(c.Request.Context(), "panic recovered",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"panic", rec,
				"stack", string(debug.Stack()),
			)

			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", rec))
			_ = c.Error(appErr)
			c.AbortWithStatusJSON(appErr.HTTPStatus, dto.ErrorResponse{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: map[string]any{"request_id": c.GetString("request_id")},
			})
		}()
		c.Next()
	}
}
