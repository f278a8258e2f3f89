package handlers

import (
	"github.com/gin-gonic/gin"

	"posdesk/internal/domain/editor"
	"posdesk/internal/domain/session"
	"posdesk/internal/infrastructure/http/v1/dto"
)

// EditorHandler accepts "edit this record" requests from other screens.
type EditorHandler struct {
	*BaseHandler
	inbox  *editor.Inbox
	bridge *editor.Bridge
	store  *session.Store
}

// NewEditorHandler creates a new editor handler.
func NewEditorHandler(base *BaseHandler, inbox *editor.Inbox, bridge *editor.Bridge, store *session.Store) *EditorHandler {
	return &EditorHandler{
		BaseHandler: base,
		inbox:       inbox,
		bridge:      bridge,
		store:       store,
	}
}

// Enqueue handles POST /editor/requests. The request is drained right away so
// the caller sees the tab it opened; a background drainer may beat us to it,
// in which case the active draft is returned.
func (h *EditorHandler) Enqueue(c *gin.Context) {
	var req editor.Request
	if !h.BindJSON(c, &req) {
		return
	}

	seq, accepted := h.inbox.Post(req)
	if !accepted {
		h.OK(c, dto.EditorResponse{Seq: seq, Duplicate: true})
		return
	}

	for _, res := range h.bridge.Drain(c.Request.Context()) {
		if res.Seq != seq {
			continue
		}
		if res.Err != nil {
			h.Error(c, res.Err)
			return
		}
		d := res.Draft
		h.OK(c, dto.EditorResponse{Seq: seq, Created: res.Created, Draft: &d})
		return
	}

	active := h.store.Active()
	h.OK(c, dto.EditorResponse{Seq: seq, Draft: &active})
}
