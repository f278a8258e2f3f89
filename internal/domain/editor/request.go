package editor

import (
	"encoding/json"
	"fmt"

	"posdesk/internal/domain/sales"
)

// Kind is what an editor request opens.
type Kind string

const (
	KindSale    Kind = "sale"
	KindPayment Kind = "payment"
)

// Request asks the session to open a committed sale or payment for editing.
// Exactly one of Sale and Payment is expected, matching Kind.
type Request struct {
	// ID identifies a delivery. A request re-posted with the same ID is ignored.
	ID       string
	Kind     Kind
	Sale     *sales.Sale
	Payment  *sales.Payment
	Customer *sales.Customer
}

// wireRequest is the JSON shape: {type, transaction: {details}, customer?}.
type wireRequest struct {
	ID          string `json:"id,omitempty"`
	Type        Kind   `json:"type"`
	Transaction struct {
		Details json.RawMessage `json:"details"`
	} `json:"transaction"`
	Customer *sales.Customer `json:"customer,omitempty"`
}

// UnmarshalJSON decodes the transaction details according to the request type.
// Unusable details leave Sale/Payment nil; Validate reports that.
func (r *Request) UnmarshalJSON(data []byte) error {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode editor request: %w", err)
	}
	*r = Request{ID: w.ID, Kind: w.Type, Customer: w.Customer}

	details := w.Transaction.Details
	if len(details) == 0 || string(details) == "null" {
		return nil
	}
	switch w.Type {
	case KindSale:
		var s sales.Sale
		if json.Unmarshal(details, &s) == nil {
			r.Sale = &s
		}
	case KindPayment:
		var p sales.Payment
		if json.Unmarshal(details, &p) == nil {
			r.Payment = &p
		}
	}
	return nil
}

// MarshalJSON writes the wire shape.
func (r Request) MarshalJSON() ([]byte, error) {
	w := wireRequest{ID: r.ID, Type: r.Kind, Customer: r.Customer}
	var details any
	switch {
	case r.Sale != nil:
		details = r.Sale
	case r.Payment != nil:
		details = r.Payment
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	w.Transaction.Details = raw
	return json.Marshal(w)
}

// validate returns the reason a request cannot be opened, or "".
func (r Request) validate() string {
	switch r.Kind {
	case KindSale:
		if r.Sale == nil || r.Sale.ID <= 0 {
			return "sale request without a sale id"
		}
	case KindPayment:
		if r.Payment == nil || r.Payment.ID <= 0 {
			return "payment request without a payment id"
		}
	default:
		return fmt.Sprintf("unknown request type %q", r.Kind)
	}
	return ""
}
