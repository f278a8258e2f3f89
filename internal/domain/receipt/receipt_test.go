package receipt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posdesk/internal/core/types"
	"posdesk/internal/domain/sales"
)

func sampleSale() sales.Sale {
	return sales.Sale{
		ID: 1042,
		Items: []sales.SaleItem{
			{ProductName: "قميص", Size: "L", Color: "-", Quantity: 2, Price: types.MustMoney("100"), Discount: types.MustMoney("5")},
			{ProductName: "Cap", Size: "موحد", Quantity: 1, Price: types.MustMoney("30")},
		},
		Discount:    types.MustMoney("10"),
		Total:       types.MustMoney("210"),
		Paid:        types.MustMoney("150"),
		Remaining:   types.MustMoney("60"),
		SaleType:    sales.SaleTypeCredit,
		InvoiceDate: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestFromSale(t *testing.T) {
	r := FromSale(sampleSale(), Context{
		Header:        Header{StoreName: "Shop"},
		Customer:      &sales.Customer{ID: 5, Name: "Mona"},
		PaymentMethod: "Cash",
	})

	assert.Equal(t, "1042", r.InvoiceNo)
	assert.Equal(t, "2026-03-14 09:30", r.Date)
	assert.Equal(t, "Mona", r.Customer)
	assert.Equal(t, "Cash", r.PaymentMethod)
	require.Len(t, r.Items, 2)
	assert.Equal(t, "L", r.Items[0].Variant)
	assert.Equal(t, "190", types.FormatAmount(r.Items[0].Total))
	assert.Empty(t, r.Items[1].Variant)
	assert.Equal(t, "230", types.FormatAmount(r.SubTotal))
	assert.Equal(t, "60", types.FormatAmount(r.Remaining))
}

func TestFromSale_RecordNamesWin(t *testing.T) {
	s := sampleSale()
	s.CustomerName = "From record"
	s.PaymentMethodName = "Card"

	r := FromSale(s, Context{Customer: &sales.Customer{Name: "Snapshot"}, PaymentMethod: "Cash"})

	assert.Equal(t, "From record", r.Customer)
	assert.Equal(t, "Card", r.PaymentMethod)
}

func TestHTML(t *testing.T) {
	r := FromSale(sampleSale(), Context{Header: Header{StoreName: "<Shop>"}})

	html, err := HTML(r)
	require.NoError(t, err)

	assert.Contains(t, html, "&lt;Shop&gt;")
	assert.Contains(t, html, "#1042")
	assert.Contains(t, html, "قميص")
	assert.Contains(t, html, "Remaining")
	assert.Contains(t, html, "Credit sale")
}

type docFunc func(ctx context.Context, html string, mode sales.PrintMode) error

func (f docFunc) PrintDocument(ctx context.Context, html string, mode sales.PrintMode) error {
	return f(ctx, html, mode)
}

func TestDocumentPrinter(t *testing.T) {
	var gotMode sales.PrintMode
	var gotHTML string
	p := NewDocumentPrinter(docFunc(func(_ context.Context, html string, mode sales.PrintMode) error {
		gotHTML, gotMode = html, mode
		return nil
	}))

	require.NoError(t, p.PrintReceipt(context.Background(), FromSale(sampleSale(), Context{}), sales.PrintPreview))
	assert.Equal(t, sales.PrintPreview, gotMode)
	assert.Contains(t, gotHTML, "<!DOCTYPE html>")
}

type deviceFunc func([]byte) error

func (f deviceFunc) Print(data []byte) error { return f(data) }

func TestDevicePrinter(t *testing.T) {
	var printed []byte
	p := NewDevicePrinter(deviceFunc(func(b []byte) error {
		printed = b
		return nil
	}), func(r Receipt) []byte { return []byte(r.InvoiceNo) })

	require.NoError(t, p.PrintReceipt(context.Background(), FromSale(sampleSale(), Context{}), sales.PrintSilent))
	assert.Equal(t, "1042", string(printed))
}

func TestDevicePrinter_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	p := NewDevicePrinter(deviceFunc(func([]byte) error {
		<-release
		return nil
	}), func(Receipt) []byte { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := p.PrintReceipt(ctx, Receipt{}, sales.PrintSilent)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
