package money

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"posdesk/internal/core/types"
	"posdesk/internal/domain/draft"
	"posdesk/internal/domain/sales"
)

func saleDraft(cart []draft.CartLine, mutate func(*draft.SaleBody)) draft.Draft {
	body := &draft.SaleBody{
		Cart:         cart,
		DiscountType: draft.DiscountValue,
		SaleType:     sales.SaleTypeCash,
	}
	if mutate != nil {
		mutate(body)
	}
	return draft.Draft{ID: "d", Sale: body}
}

func line(price string, qty int, discount string) draft.CartLine {
	return draft.CartLine{
		VariantID:   1,
		Price:       types.MustMoney(price),
		CostPrice:   types.Zero(),
		Discount:    types.MustMoney(discount),
		Quantity:    qty,
		MaxQuantity: qty,
	}
}

func eq(t *testing.T, want string, got types.Money, field string) {
	t.Helper()
	assert.True(t, got.Equal(types.MustMoney(want)), "%s: want %s, got %s", field, want, got)
}

func TestCompute_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*draft.SaleBody)
		billDisc  string
		total     string
		paid      string
		remaining string
	}{
		{
			name:      "value discount",
			mutate:    func(b *draft.SaleBody) { b.Discount = "10" },
			billDisc:  "10",
			total:     "190",
			paid:      "190",
			remaining: "0",
		},
		{
			name: "percent discount",
			mutate: func(b *draft.SaleBody) {
				b.Discount = "10"
				b.DiscountType = draft.DiscountPercent
			},
			billDisc:  "20",
			total:     "180",
			paid:      "180",
			remaining: "0",
		},
		{
			name:      "cash with explicit partial payment",
			mutate:    func(b *draft.SaleBody) { b.PaidAmount = "150" },
			billDisc:  "0",
			total:     "200",
			paid:      "150",
			remaining: "50",
		},
		{
			name:      "credit with empty paid is zero",
			mutate:    func(b *draft.SaleBody) { b.SaleType = sales.SaleTypeCredit },
			billDisc:  "0",
			total:     "200",
			paid:      "0",
			remaining: "200",
		},
		{
			name:      "overpayment gives negative remaining",
			mutate:    func(b *draft.SaleBody) { b.PaidAmount = "250" },
			billDisc:  "0",
			total:     "200",
			paid:      "250",
			remaining: "-50",
		},
		{
			name:      "negative paid is floored",
			mutate:    func(b *draft.SaleBody) { b.PaidAmount = "-20" },
			billDisc:  "0",
			total:     "200",
			paid:      "0",
			remaining: "200",
		},
		{
			name:      "discount larger than subtotal floors total",
			mutate:    func(b *draft.SaleBody) { b.Discount = "500" },
			billDisc:  "500",
			total:     "0",
			paid:      "0",
			remaining: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(saleDraft([]draft.CartLine{line("100", 2, "0")}, tt.mutate))
			eq(t, "200", got.SubTotal, "subTotal")
			eq(t, "0", got.TotalDiscount, "totalDiscount")
			eq(t, tt.billDisc, got.BillDiscount, "billDiscount")
			eq(t, tt.total, got.Total, "total")
			eq(t, tt.paid, got.Paid, "paid")
			eq(t, tt.remaining, got.Remaining, "remaining")
		})
	}
}

func TestCompute_LineDiscountAndProfit(t *testing.T) {
	l := line("100", 3, "10")
	l.CostPrice = types.MustMoney("60")
	d := saleDraft([]draft.CartLine{l}, func(b *draft.SaleBody) {
		b.Discount = "10"
		b.DiscountType = draft.DiscountPercent
	})

	got := Compute(d)
	eq(t, "300", got.SubTotal, "subTotal")
	eq(t, "30", got.TotalDiscount, "totalDiscount")
	eq(t, "27", got.BillDiscount, "billDiscount")
	eq(t, "243", got.Total, "total")
	eq(t, "180", got.TotalCost, "totalCost")
	eq(t, "63", got.Profit, "profit")
}

func TestCompute_ProfitNeverNegative(t *testing.T) {
	l := line("10", 1, "0")
	l.CostPrice = types.MustMoney("50")
	got := Compute(saleDraft([]draft.CartLine{l}, nil))
	eq(t, "0", got.Profit, "profit")
}

func TestCompute_PureAndIndependent(t *testing.T) {
	a := saleDraft([]draft.CartLine{line("100", 2, "0")}, func(b *draft.SaleBody) { b.Discount = "10" })
	b := saleDraft([]draft.CartLine{line("50", 1, "0")}, nil)

	first := Compute(a)
	b.Sale.Cart[0].Quantity = 1
	b.Sale.Discount = "40"
	second := Compute(a)

	assert.Equal(t, first, second)
}

func TestCompute_PaymentDraftIgnoresCart(t *testing.T) {
	d := draft.Draft{ID: "p", Payment: &draft.PaymentBody{PaymentID: 1, Amount: "١٢٠"}}
	got := Compute(d)
	eq(t, "120", got.Total, "total")
	eq(t, "120", got.Paid, "paid")
	eq(t, "0", got.Remaining, "remaining")
	eq(t, "0", got.SubTotal, "subTotal")
}
