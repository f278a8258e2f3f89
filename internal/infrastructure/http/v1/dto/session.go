package dto

import (
	"posdesk/internal/domain/checkout"
	"posdesk/internal/domain/draft"
	"posdesk/internal/domain/money"
	"posdesk/internal/domain/sales"
	"posdesk/internal/domain/session"
)

// --- Drafts ---

// DraftsResponse lists every open tab.
type DraftsResponse struct {
	Drafts   []draft.Draft `json:"drafts"`
	ActiveID string        `json:"activeId"`
}

// FromSnapshot creates DraftsResponse from a session snapshot.
func FromSnapshot(s session.Snapshot) DraftsResponse {
	drafts := s.Drafts
	if drafts == nil {
		drafts = []draft.Draft{}
	}
	return DraftsResponse{Drafts: drafts, ActiveID: s.ActiveID}
}

// DraftResponse is one draft with its derived totals.
type DraftResponse struct {
	Draft  draft.Draft  `json:"draft"`
	Totals money.Totals `json:"totals"`
}

// NewDraftResponse computes the totals of d.
func NewDraftResponse(d draft.Draft) DraftResponse {
	return DraftResponse{Draft: d, Totals: money.Compute(d)}
}

// AddTabRequest opens a fresh tab. All fields are optional.
type AddTabRequest struct {
	WarehouseID *int64         `json:"warehouseId"`
	SaleType    sales.SaleType `json:"saleType"`
	CustomerID  *int64         `json:"customerId"`
}

// CloseTabResponse reports whether the tab was actually closed.
type CloseTabResponse struct {
	Closed   bool   `json:"closed"`
	ActiveID string `json:"activeId"`
}

// --- Cart lines ---

// AddLineRequest adds a variant by id or by barcode.
type AddLineRequest struct {
	VariantID int64  `json:"variantId"`
	Barcode   string `json:"barcode"`
}

// UpdateLineRequest changes one cart line. Unset fields are left alone.
type UpdateLineRequest struct {
	Quantity *int    `json:"quantity"`
	Discount *string `json:"discount"`
	Price    *string `json:"price"`
}

// --- Editor requests ---

// EditorResponse is the outcome of an enqueued edit request.
type EditorResponse struct {
	Seq       uint64       `json:"seq"`
	Duplicate bool         `json:"duplicate,omitempty"`
	Created   bool         `json:"created"`
	Draft     *draft.Draft `json:"draft,omitempty"`
}

// --- Checkout ---

// CheckoutRequest starts a checkout of the active draft.
type CheckoutRequest struct {
	Print sales.PrintMode `json:"print"`
}

// CheckoutResponse carries the outcome and the draft that is now active.
type CheckoutResponse struct {
	checkout.Outcome
	Active   draft.Draft `json:"active"`
	ActiveID string      `json:"activeId"`
}

// NotificationsResponse drains the notification feed.
type NotificationsResponse struct {
	Notifications []checkout.Notification `json:"notifications"`
}
