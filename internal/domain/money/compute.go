// Package money derives every monetary figure of a draft. It is pure: the
// result depends on the draft alone and is never stored back on it.
package money

import (
	"github.com/shopspring/decimal"

	"posdesk/internal/core/types"
	"posdesk/internal/domain/draft"
	"posdesk/internal/domain/sales"
)

var hundred = decimal.NewFromInt(100)

// Totals are the derived figures of a draft.
type Totals struct {
	SubTotal      types.Money `json:"subTotal"`
	TotalDiscount types.Money `json:"totalDiscount"`
	BillDiscount  types.Money `json:"billDiscount"`
	Total         types.Money `json:"total"`
	Paid          types.Money `json:"paid"`
	Remaining     types.Money `json:"remaining"`
	TotalCost     types.Money `json:"totalCost"`
	Profit        types.Money `json:"profit"`
}

// Compute derives the totals of d.
//
// For payment drafts the cart is ignored: Total and Paid are the entered amount
// and everything else is zero.
func Compute(d draft.Draft) Totals {
	if d.Payment != nil {
		amount := types.MaxMoney(types.ParseAmountOrZero(d.Payment.Amount), types.Zero())
		return Totals{
			SubTotal:      types.Zero(),
			TotalDiscount: types.Zero(),
			BillDiscount:  types.Zero(),
			Total:         amount,
			Paid:          amount,
			Remaining:     types.Zero(),
			TotalCost:     types.Zero(),
			Profit:        types.Zero(),
		}
	}
	if d.Sale == nil {
		return zeroTotals()
	}
	return computeSale(d.Sale)
}

func computeSale(s *draft.SaleBody) Totals {
	subTotal := types.Zero()
	lineDiscount := types.Zero()
	cost := types.Zero()
	for _, l := range s.Cart {
		qty := decimal.NewFromInt(int64(l.Quantity))
		subTotal = subTotal.Add(l.Price.Mul(qty))
		lineDiscount = lineDiscount.Add(l.Discount.Mul(qty))
		cost = cost.Add(l.CostPrice.Mul(qty))
	}

	billDiscount := BillDiscount(s.DiscountType, types.ParseAmountOrZero(s.Discount), subTotal.Sub(lineDiscount))
	total := types.MaxMoney(subTotal.Sub(lineDiscount).Sub(billDiscount), types.Zero())

	paid, explicit := types.ParseAmount(s.PaidAmount)
	if s.SaleType == sales.SaleTypeCash && !explicit {
		paid = total
	} else {
		paid = types.MaxMoney(paid, types.Zero())
	}

	return Totals{
		SubTotal:      subTotal,
		TotalDiscount: lineDiscount,
		BillDiscount:  billDiscount,
		Total:         total,
		Paid:          paid,
		Remaining:     total.Sub(paid),
		TotalCost:     cost,
		Profit:        types.MaxMoney(total.Sub(cost), types.Zero()),
	}
}

// BillDiscount converts the bill-level discount input into an amount. A percent
// discount applies to the amount left after per-line discounts.
func BillDiscount(t draft.DiscountType, discount, base types.Money) types.Money {
	if t == draft.DiscountPercent {
		return discount.Mul(base).Div(hundred)
	}
	return discount
}

func zeroTotals() Totals {
	z := types.Zero()
	return Totals{z, z, z, z, z, z, z, z}
}
