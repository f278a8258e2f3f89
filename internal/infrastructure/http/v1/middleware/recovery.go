// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"posdesk/internal/core/apperror"
	"posdesk/pkg/logger"
)

// Recovery turns a panicking handler into a 500 response. The stack is logged
// with the route and till it happened on; the client only gets the request id.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Default()
	}
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// Terminal has run by now, so the context carries the till identity.
			log.WithContext(c.Request.Context()).Errorw("handler panicked",
				"panic", rec,
				"method", c.Request.Method,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)

			appErr := apperror.NewInternal(fmt.Errorf("panic in %s %s: %v", c.Request.Method, c.FullPath(), rec))
			_ = c.Error(appErr)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": map[string]any{
					"request_id": c.GetString("request_id"),
				},
			})
		}()
		c.Next()
	}
}
