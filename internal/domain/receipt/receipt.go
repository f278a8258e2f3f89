// Package receipt composes printable receipts from committed sales and hands
// them to a printer.
package receipt

import (
	"strconv"

	"posdesk/internal/core/types"
	"posdesk/internal/domain/draft"
	"posdesk/internal/domain/sales"
)

// Header holds the store block printed at the top of a receipt.
type Header struct {
	StoreName string `json:"storeName"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Item is a single printed line.
type Item struct {
	Name      string      `json:"name"`
	Variant   string      `json:"variant,omitempty"`
	Quantity  int         `json:"quantity"`
	UnitPrice types.Money `json:"unitPrice"`
	Discount  types.Money `json:"discount"`
	Total     types.Money `json:"total"`
}

// Receipt is a value object composed from a sale at print time.
type Receipt struct {
	Header        Header         `json:"header"`
	InvoiceNo     string         `json:"invoiceNo"`
	Date          string         `json:"date"`
	Cashier       string         `json:"cashier,omitempty"`
	Customer      string         `json:"customer,omitempty"`
	PaymentMethod string         `json:"paymentMethod,omitempty"`
	SaleType      sales.SaleType `json:"saleType"`
	Items         []Item         `json:"items"`
	SubTotal      types.Money    `json:"subTotal"`
	Discount      types.Money    `json:"discount"`
	Total         types.Money    `json:"total"`
	Paid          types.Money    `json:"paid"`
	Remaining     types.Money    `json:"remaining"`
}

// Context carries the names a sale record may not include.
type Context struct {
	Header        Header
	Cashier       string
	Customer      *sales.Customer
	PaymentMethod string
}

// FromSale builds the receipt of a committed sale.
func FromSale(s sales.Sale, rc Context) Receipt {
	r := Receipt{
		Header:        rc.Header,
		InvoiceNo:     strconv.FormatInt(s.ID, 10),
		Date:          s.InvoiceDate.Format("2006-01-02 15:04"),
		Cashier:       rc.Cashier,
		Customer:      s.CustomerName,
		PaymentMethod: s.PaymentMethodName,
		SaleType:      s.SaleType,
		Discount:      s.Discount.Round(types.MoneyScale),
		Total:         s.Total.Round(types.MoneyScale),
		Paid:          s.Paid.Round(types.MoneyScale),
		Remaining:     s.Remaining.Round(types.MoneyScale),
	}
	if r.Customer == "" && rc.Customer != nil {
		r.Customer = rc.Customer.Name
	}
	if r.PaymentMethod == "" {
		r.PaymentMethod = rc.PaymentMethod
	}
	if r.PaymentMethod == "" {
		r.PaymentMethod = s.PaymentMethodCode
	}

	sub := types.Zero()
	for _, it := range s.Items {
		qty := types.NewMoneyFromInt(int64(it.Quantity))
		item := Item{
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: it.Price.Round(types.MoneyScale),
			Discount:  it.Discount.Round(types.MoneyScale),
			Total:     it.Price.Sub(it.Discount).Mul(qty).Round(types.MoneyScale),
		}
		if item.Name == "" {
			item.Name = "Product"
		}
		if v := draft.NewVariantLabel(it.Size, it.Color); v != nil {
			item.Variant = v.String()
		}
		sub = sub.Add(it.Price.Mul(qty))
		r.Items = append(r.Items, item)
	}
	r.SubTotal = sub.Round(types.MoneyScale)
	return r
}
