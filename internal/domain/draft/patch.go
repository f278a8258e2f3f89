package draft

import (
	"time"

	"posdesk/internal/core/apperror"
	"posdesk/internal/domain/sales"
)

// Patch is a shallow update of a draft. Unset fields are left untouched.
type Patch struct {
	Customer    Field[*sales.Customer] `json:"customer"`
	Notes       Field[string]          `json:"notes"`
	InvoiceDate Field[string]          `json:"invoiceDate"`

	// Sale drafts only.
	Cart          Field[[]CartLine]      `json:"-"`
	Discount      Field[string]          `json:"discount"`
	DiscountType  Field[DiscountType]    `json:"discountType"`
	PaidAmount    Field[string]          `json:"paidAmount"`
	SaleType      Field[sales.SaleType]  `json:"saleType"`
	PaymentMethod Field[string]          `json:"paymentMethod"`
	WarehouseID   Field[*int64]          `json:"warehouseId"`

	// Payment drafts only.
	Amount Field[string] `json:"amount"`
}

func (p Patch) touchesSale() bool {
	return p.Cart.Set || p.Discount.Set || p.DiscountType.Set || p.PaidAmount.Set ||
		p.SaleType.Set || p.WarehouseID.Set
}

// Apply returns a copy of d with p merged in. d itself is never modified. The
// result is validated; on error the caller keeps d unchanged.
func Apply(d Draft, p Patch) (Draft, error) {
	next := d.Clone()

	if p.Customer.Set {
		next.Customer = p.Customer.Value
		if next.Customer != nil {
			c := *next.Customer
			next.Customer = &c
		}
	}
	if p.Notes.Set {
		next.Notes = p.Notes.Value
	}
	if p.InvoiceDate.Set {
		t, err := time.Parse(DateLayout, p.InvoiceDate.Value)
		if err != nil {
			return d, apperror.NewValidation("invalid date").
				WithDetail("field", "invoiceDate").
				WithDetail("value", p.InvoiceDate.Value)
		}
		next.InvoiceDate = t
	}

	switch next.Mode() {
	case ModeSale:
		if p.Amount.Set {
			return d, apperror.NewValidation("amount applies to payment drafts only").
				WithDetail("field", "amount")
		}
		applySale(next.Sale, p)
	case ModePayment:
		if p.touchesSale() {
			return d, apperror.NewValidation("sale fields cannot be set on a payment draft")
		}
		if p.Amount.Set {
			next.Payment.Amount = p.Amount.Value
		}
		if p.PaymentMethod.Set {
			next.Payment.PaymentMethod = p.PaymentMethod.Value
		}
		if p.Customer.Set && next.Customer != nil {
			next.Payment.CustomerID = next.Customer.ID
		}
	}

	if err := next.Validate(); err != nil {
		return d, err
	}
	return next, nil
}

func applySale(s *SaleBody, p Patch) {
	if p.Cart.Set {
		s.Cart = append([]CartLine(nil), p.Cart.Value...)
	}
	if p.Discount.Set {
		s.Discount = p.Discount.Value
	}
	if p.DiscountType.Set {
		s.DiscountType = p.DiscountType.Value
	}
	if p.PaidAmount.Set {
		s.PaidAmount = p.PaidAmount.Value
	}
	if p.SaleType.Set {
		s.SaleType = p.SaleType.Value
	}
	if p.PaymentMethod.Set {
		s.PaymentMethod = p.PaymentMethod.Value
	}
	if p.WarehouseID.Set {
		s.WarehouseID = cloneInt64(p.WarehouseID.Value)
	}
}
