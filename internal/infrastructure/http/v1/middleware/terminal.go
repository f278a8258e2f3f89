package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "posdesk/internal/core/context"
)

const (
	HeaderTerminalID = "X-Terminal-ID"
	HeaderCashier    = "X-Cashier"
)

// Terminal puts the till identity into the request context. The header wins
// over the configured terminal id; the cashier only comes from the header.
func Terminal(defaultID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		terminalID := c.GetHeader(HeaderTerminalID)
		if terminalID == "" {
			terminalID = defaultID
		}

		t := &appctx.Terminal{
			TerminalID: terminalID,
			Cashier:    c.GetHeader(HeaderCashier),
		}
		c.Request = c.Request.WithContext(appctx.WithTerminal(c.Request.Context(), t))
		c.Set("terminal_id", terminalID)

		c.Next()
	}
}
