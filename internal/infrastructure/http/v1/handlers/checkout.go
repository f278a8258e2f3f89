package handlers

import (
	"github.com/gin-gonic/gin"

	"posdesk/internal/core/apperror"
	"posdesk/internal/domain/checkout"
	"posdesk/internal/domain/sales"
	"posdesk/internal/domain/session"
	"posdesk/internal/infrastructure/http/v1/dto"
)

// CheckoutHandler serves the save button, the payments screen and the toast feed.
type CheckoutHandler struct {
	*BaseHandler
	controller  *checkout.Controller
	store       *session.Store
	defaultMode sales.PrintMode
}

// NewCheckoutHandler creates a new checkout handler. defaultMode applies when
// a request names no print mode; empty means no receipt.
func NewCheckoutHandler(base *BaseHandler, controller *checkout.Controller, store *session.Store, defaultMode sales.PrintMode) *CheckoutHandler {
	if defaultMode == "" {
		defaultMode = sales.PrintNone
	}
	return &CheckoutHandler{
		BaseHandler: base,
		controller:  controller,
		store:       store,
		defaultMode: defaultMode,
	}
}

// Checkout handles POST /checkout.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	switch req.Print {
	case "":
		req.Print = h.defaultMode
	case sales.PrintNone, sales.PrintSilent, sales.PrintPreview:
	default:
		h.Error(c, apperror.NewValidation("invalid print mode").WithDetail("print", req.Print))
		return
	}

	out, err := h.controller.Checkout(c.Request.Context(), req.Print)
	if err != nil {
		h.Error(c, err)
		return
	}

	active := h.store.Active()
	if out.Next != nil {
		active = *out.Next
	}
	h.OK(c, dto.CheckoutResponse{
		Outcome:  out,
		Active:   active,
		ActiveID: h.store.ActiveID(),
	})
}

// State handles GET /checkout/state.
func (h *CheckoutHandler) State(c *gin.Context) {
	h.OK(c, h.controller.Status())
}

// ReceivePayment handles POST /payments.
func (h *CheckoutHandler) ReceivePayment(c *gin.Context) {
	var req checkout.ReceiveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.controller.ReceivePayment(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// Notifications handles GET /notifications. Reading empties the feed.
func (h *CheckoutHandler) Notifications(c *gin.Context) {
	items := h.controller.Feed().Drain()
	if items == nil {
		items = []checkout.Notification{}
	}
	h.OK(c, dto.NotificationsResponse{Notifications: items})
}
