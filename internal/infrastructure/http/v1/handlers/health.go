package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"posdesk/internal/domain/checkout"
	"posdesk/internal/domain/editor"
	"posdesk/internal/domain/refdata"
	"posdesk/internal/domain/session"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	store    *session.Store
	refdata  *refdata.Cache
	inbox    *editor.Inbox
	checkout *checkout.Controller
	started  time.Time
}

// NewHealthHandler creates a new health handler. Any dependency may be nil.
func NewHealthHandler(store *session.Store, cache *refdata.Cache, inbox *editor.Inbox, ctrl *checkout.Controller) *HealthHandler {
	return &HealthHandler{
		store:    store,
		refdata:  cache,
		inbox:    inbox,
		checkout: ctrl,
		started:  time.Now(),
	}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready reports whether reference data has been loaded at least once. The
// till still works without it, so the status is "degraded", not an error.
// GET /health
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := map[string]string{"session": "ok"}
	status := "ok"

	if h.refdata != nil {
		if h.refdata.Snapshot().LoadedAt.IsZero() {
			checks["refdata"] = "not loaded"
			status = "degraded"
		} else {
			checks["refdata"] = "ok"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"checks": checks,
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	info := gin.H{
		"app":    "posdesk",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	}
	if h.store != nil {
		info["drafts"] = h.store.Len()
		info["activeId"] = h.store.ActiveID()
	}
	if h.inbox != nil {
		info["pendingEditorRequests"] = h.inbox.Len()
	}
	if h.checkout != nil {
		info["checkout"] = h.checkout.Status()
	}
	if h.refdata != nil {
		info["refdataLoadedAt"] = h.refdata.Snapshot().LoadedAt
	}
	c.JSON(http.StatusOK, info)
}
