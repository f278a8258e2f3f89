// Package draft provides the invoice draft: the unit of work behind one POS tab.
//
// A Draft is a tagged union. Exactly one of Sale or Payment is set; Mode reports
// which. Fields shared by both kinds (id, customer, notes, date) live on Draft.
package draft

import (
	"encoding/json"
	"time"

	"posdesk/internal/core/apperror"
	"posdesk/internal/core/types"
	"posdesk/internal/domain/sales"
)

// Mode is the editor mode of a draft.
type Mode string

const (
	ModeSale    Mode = "sale"
	ModePayment Mode = "payment"
)

// DiscountType says how the bill discount is interpreted.
type DiscountType string

const (
	DiscountValue   DiscountType = "value"
	DiscountPercent DiscountType = "percent"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountValue || t == DiscountPercent
}

// DateLayout is the wire format of invoice and payment dates.
const DateLayout = "2006-01-02"

// CartLine is one product-variant row of a sale draft.
type CartLine struct {
	VariantID   int64
	ProductID   int64
	ProductName string
	Price       types.Money
	CostPrice   types.Money
	Quantity    int

	// Variant is nil when the product has no meaningful size/color.
	Variant *VariantLabel

	// Discount is per unit.
	Discount types.Money

	// MaxQuantity bounds Quantity. For lines of an edited sale it includes the
	// quantity already sold on that sale.
	MaxQuantity int

	// Sold is the quantity of the reopened sale; it is back on the shelf once
	// the edit is committed. Zero on new sales.
	Sold int
}

// SaleBody holds the fields meaningful for a sale draft.
type SaleBody struct {
	Cart         []CartLine
	Discount     string
	DiscountType DiscountType
	PaidAmount   string
	SaleType     sales.SaleType

	// PaymentMethod is a raw method id or code, resolved at checkout.
	PaymentMethod string

	// WarehouseID nil means "all warehouses".
	WarehouseID *int64

	// SourceSaleID is set when the draft edits an existing sale.
	SourceSaleID *int64
}

// PaymentBody holds the fields meaningful for a payment-edit draft.
type PaymentBody struct {
	PaymentID     int64
	CustomerID    int64
	Amount        string
	PaymentMethod string
}

// Draft is one tab's in-progress sale or payment edit.
type Draft struct {
	ID          string
	Customer    *sales.Customer
	Notes       string
	InvoiceDate time.Time

	Sale    *SaleBody
	Payment *PaymentBody
}

// Mode reports the editor mode.
func (d Draft) Mode() Mode {
	if d.Payment != nil {
		return ModePayment
	}
	return ModeSale
}

// IsEditMode reports whether the draft edits a committed record.
func (d Draft) IsEditMode() bool {
	return d.Payment != nil || (d.Sale != nil && d.Sale.SourceSaleID != nil)
}

// SourceSaleID returns the edited sale id, if any.
func (d Draft) SourceSaleID() (int64, bool) {
	if d.Sale == nil || d.Sale.SourceSaleID == nil {
		return 0, false
	}
	return *d.Sale.SourceSaleID, true
}

// SourcePaymentID returns the edited payment id, if any.
func (d Draft) SourcePaymentID() (int64, bool) {
	if d.Payment == nil {
		return 0, false
	}
	return d.Payment.PaymentID, true
}

// Clone returns a deep copy so callers never share cart slices or pointers.
func (d Draft) Clone() Draft {
	out := d
	if d.Customer != nil {
		c := *d.Customer
		out.Customer = &c
	}
	if d.Sale != nil {
		s := *d.Sale
		s.Cart = make([]CartLine, len(d.Sale.Cart))
		for i, l := range d.Sale.Cart {
			if l.Variant != nil {
				v := *l.Variant
				l.Variant = &v
			}
			s.Cart[i] = l
		}
		s.WarehouseID = cloneInt64(d.Sale.WarehouseID)
		s.SourceSaleID = cloneInt64(d.Sale.SourceSaleID)
		out.Sale = &s
	}
	if d.Payment != nil {
		p := *d.Payment
		out.Payment = &p
	}
	return out
}

// Validate checks the structural invariants of a draft.
func (d Draft) Validate() error {
	if d.ID == "" {
		return apperror.NewValidation("draft id is required")
	}
	if (d.Sale == nil) == (d.Payment == nil) {
		return apperror.NewValidation("draft must be either a sale or a payment").
			WithDetail("draft_id", d.ID)
	}
	if d.Sale == nil {
		return nil
	}
	if !d.Sale.SaleType.Valid() {
		return apperror.NewValidation("unknown sale type").
			WithDetail("sale_type", d.Sale.SaleType)
	}
	if !d.Sale.DiscountType.Valid() {
		return apperror.NewValidation("unknown discount type").
			WithDetail("discount_type", d.Sale.DiscountType)
	}
	for i, l := range d.Sale.Cart {
		if l.Quantity < 1 {
			return apperror.NewValidation("quantity must be at least 1").
				WithDetail("line", i+1).
				WithDetail("variant_id", l.VariantID)
		}
		if l.Quantity > l.MaxQuantity {
			return apperror.NewInsufficientStock(l.VariantID, l.Quantity, l.MaxQuantity)
		}
	}
	return nil
}

// LineIndex returns the index of the line selling variantID, or -1.
func (b *SaleBody) LineIndex(variantID int64) int {
	for i, l := range b.Cart {
		if l.VariantID == variantID {
			return i
		}
	}
	return -1
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// --- JSON ---
// Drafts serialize to one flat record so the UI and the persisted snapshot see the
// same shape. Decoding goes through Factory.FromPersisted, never json.Unmarshal.

type cartLineJSON struct {
	VariantID   int64       `json:"variantId"`
	ProductID   int64       `json:"productId"`
	ProductName string      `json:"productName"`
	Price       types.Money `json:"price"`
	CostPrice   types.Money `json:"costPrice"`
	Quantity    int         `json:"quantity"`
	Size        string      `json:"size"`
	Color       string      `json:"color"`
	Discount    types.Money `json:"discount"`
	MaxQuantity int         `json:"maxQuantity"`
	Sold        int         `json:"soldQuantity,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (l CartLine) MarshalJSON() ([]byte, error) {
	out := cartLineJSON{
		VariantID:   l.VariantID,
		ProductID:   l.ProductID,
		ProductName: l.ProductName,
		Price:       l.Price,
		CostPrice:   l.CostPrice,
		Quantity:    l.Quantity,
		Discount:    l.Discount,
		MaxQuantity: l.MaxQuantity,
		Sold:        l.Sold,
	}
	if l.Variant != nil {
		out.Size = l.Variant.Size
		out.Color = l.Variant.Color
	}
	return json.Marshal(out)
}

type paymentEditJSON struct {
	PaymentID       int64  `json:"paymentId"`
	CustomerID      int64  `json:"customerId"`
	Amount          string `json:"amount"`
	PaymentDate     string `json:"paymentDate"`
	Notes           string `json:"notes"`
	PaymentMethodID string `json:"paymentMethodId"`
}

type draftJSON struct {
	ID              string           `json:"id"`
	EditorMode      Mode             `json:"editorMode"`
	Cart            []CartLine       `json:"cart"`
	Customer        *sales.Customer  `json:"customer"`
	Discount        string           `json:"discount"`
	DiscountType    DiscountType     `json:"discountType"`
	PaidAmount      string           `json:"paidAmount"`
	SaleType        sales.SaleType   `json:"saleType"`
	PaymentMethod   string           `json:"paymentMethod"`
	Notes           string           `json:"notes"`
	InvoiceDate     string           `json:"invoiceDate"`
	WarehouseID     *int64           `json:"warehouseId"`
	IsEditMode      bool             `json:"isEditMode"`
	SourceSaleID    *int64           `json:"sourceSaleId"`
	SourcePaymentID *int64           `json:"sourcePaymentId"`
	PaymentEdit     *paymentEditJSON `json:"paymentEdit,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d Draft) MarshalJSON() ([]byte, error) {
	out := draftJSON{
		ID:          d.ID,
		EditorMode:  d.Mode(),
		Cart:        []CartLine{},
		Customer:    d.Customer,
		Notes:       d.Notes,
		InvoiceDate: d.InvoiceDate.Format(DateLayout),
		IsEditMode:  d.IsEditMode(),
	}
	if d.Sale != nil {
		if d.Sale.Cart != nil {
			out.Cart = d.Sale.Cart
		}
		out.Discount = d.Sale.Discount
		out.DiscountType = d.Sale.DiscountType
		out.PaidAmount = d.Sale.PaidAmount
		out.SaleType = d.Sale.SaleType
		out.PaymentMethod = d.Sale.PaymentMethod
		out.WarehouseID = d.Sale.WarehouseID
		out.SourceSaleID = d.Sale.SourceSaleID
	}
	if d.Payment != nil {
		pid := d.Payment.PaymentID
		out.SourcePaymentID = &pid
		out.PaymentMethod = d.Payment.PaymentMethod
		out.PaymentEdit = &paymentEditJSON{
			PaymentID:       d.Payment.PaymentID,
			CustomerID:      d.Payment.CustomerID,
			Amount:          d.Payment.Amount,
			PaymentDate:     d.InvoiceDate.Format(DateLayout),
			Notes:           d.Notes,
			PaymentMethodID: d.Payment.PaymentMethod,
		}
	}
	return json.Marshal(out)
}
