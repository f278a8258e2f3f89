package handlers

import (
	"github.com/gin-gonic/gin"

	"posdesk/internal/domain/refdata"
)

// RefDataHandler exposes the cached reference lists.
type RefDataHandler struct {
	*BaseHandler
	cache *refdata.Cache
}

// NewRefDataHandler creates a new reference data handler.
func NewRefDataHandler(base *BaseHandler, cache *refdata.Cache) *RefDataHandler {
	return &RefDataHandler{BaseHandler: base, cache: cache}
}

// Get handles GET /refdata.
func (h *RefDataHandler) Get(c *gin.Context) {
	h.OK(c, h.cache.Snapshot())
}

// Refresh handles POST /refdata/refresh. It reloads synchronously; on failure
// the previous lists stay in place and the error is returned.
func (h *RefDataHandler) Refresh(c *gin.Context) {
	if err := h.cache.Refresh(c.Request.Context()); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.cache.Snapshot())
}
