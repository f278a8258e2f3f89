package checkout

import (
	"posdesk/internal/core/types"
	"posdesk/internal/domain/draft"
	"posdesk/internal/domain/money"
	"posdesk/internal/domain/sales"
)

// BuildSalePayload assembles the createSale/updateSale body from a sale draft,
// its freshly computed totals and the final sale type and method. Paid never
// exceeds the total; overpayment is change handed back at the counter.
func BuildSalePayload(d draft.Draft, t money.Totals, saleType sales.SaleType, m ResolvedMethod) sales.SalePayload {
	items := make([]sales.SaleItemPayload, 0, len(d.Sale.Cart))
	for _, l := range d.Sale.Cart {
		items = append(items, sales.SaleItemPayload{
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			Price:     types.Round(l.Price),
			CostPrice: types.Round(l.CostPrice),
			Discount:  types.Round(l.Discount),
		})
	}

	paid := t.Paid
	if paid.GreaterThan(t.Total) {
		paid = t.Total
	}

	p := sales.SalePayload{
		Items:             items,
		Total:             types.Round(t.Total),
		Paid:              types.Round(paid),
		WarehouseID:       cloneID(d.Sale.WarehouseID),
		PaymentMethodID:   cloneID(m.ID),
		PaymentMethodCode: m.Code,
		SaleType:          saleType,
		Discount:          types.Round(t.BillDiscount),
		Notes:             d.Notes,
		InvoiceDate:       d.InvoiceDate,
	}
	if d.Customer != nil {
		id := d.Customer.ID
		p.CustomerID = &id
	}
	return p
}

// BuildPaymentPayload assembles the createPayment/updatePayment body.
func BuildPaymentPayload(customerID int64, amount types.Money, m ResolvedMethod, d draft.Draft) sales.PaymentPayload {
	return sales.PaymentPayload{
		CustomerID:      customerID,
		PaymentMethodID: cloneID(m.ID),
		Amount:          types.Round(amount),
		PaymentDate:     d.InvoiceDate,
		Notes:           d.Notes,
	}
}

func cloneID(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
