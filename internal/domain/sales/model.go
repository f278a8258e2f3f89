// Package sales holds the records the shop backend owns: sales, customer payments
// and the reference data the point of sale reads (variants, customers, payment
// methods, warehouses). Values here are snapshots; the backend stays the source of truth.
package sales

import (
	"time"

	"posdesk/internal/core/types"
)

// SaleType is how a sale is settled.
type SaleType string

const (
	SaleTypeCash   SaleType = "cash"
	SaleTypeCredit SaleType = "credit"
)

// Valid reports whether t is a known sale type.
func (t SaleType) Valid() bool {
	return t == SaleTypeCash || t == SaleTypeCredit
}

// Customer is a ledger customer as loaded from the backend.
type Customer struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Phone       string      `json:"phone,omitempty"`
	Balance     types.Money `json:"balance"`
	CreditLimit types.Money `json:"creditLimit"`
}

// Variant is a sellable product variant with its stock levels.
type Variant struct {
	ID          int64       `json:"id"`
	ProductID   int64       `json:"productId"`
	ProductName string      `json:"productName"`
	Size        string      `json:"size,omitempty"`
	Color       string      `json:"color,omitempty"`
	Barcode     string      `json:"barcode,omitempty"`
	Price       types.Money `json:"price"`
	CostPrice   types.Money `json:"costPrice"`

	// Quantity is the stock across all warehouses.
	Quantity int `json:"quantity"`

	// WarehouseStock maps warehouse id to quantity on hand there.
	WarehouseStock map[int64]int `json:"warehouseStock,omitempty"`
}

// StockIn returns the quantity available in warehouseID, or the total when nil.
func (v Variant) StockIn(warehouseID *int64) int {
	if warehouseID == nil {
		return v.Quantity
	}
	if v.WarehouseStock == nil {
		return 0
	}
	return v.WarehouseStock[*warehouseID]
}

// PaymentMethod is a configured way of taking money (cash, card, wallet...).
type PaymentMethod struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Warehouse is a stock location.
type Warehouse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// SaleItem is one line of a committed sale.
type SaleItem struct {
	VariantID   int64       `json:"variantId"`
	ProductID   int64       `json:"productId"`
	ProductName string      `json:"productName"`
	Size        string      `json:"size,omitempty"`
	Color       string      `json:"color,omitempty"`
	Quantity    int         `json:"quantity"`
	Price       types.Money `json:"price"`
	CostPrice   types.Money `json:"costPrice"`
	Discount    types.Money `json:"discount"`
}

// Sale is a committed sale.
type Sale struct {
	ID                int64       `json:"id"`
	CustomerID        *int64      `json:"customerId,omitempty"`
	CustomerName      string      `json:"customerName,omitempty"`
	Items             []SaleItem  `json:"items"`
	Total             types.Money `json:"total"`
	Paid              types.Money `json:"paid"`
	Remaining         types.Money `json:"remaining"`
	Discount          types.Money `json:"discount"`
	SaleType          SaleType    `json:"saleType"`
	PaymentMethodID   *int64      `json:"paymentMethodId,omitempty"`
	PaymentMethodCode string      `json:"paymentMethodCode,omitempty"`
	PaymentMethodName string      `json:"paymentMethodName,omitempty"`
	WarehouseID       *int64      `json:"warehouseId"`
	Notes             string      `json:"notes,omitempty"`
	InvoiceDate       time.Time   `json:"invoiceDate"`
}

// Payment is a committed customer payment.
type Payment struct {
	ID              int64       `json:"id"`
	CustomerID      int64       `json:"customerId"`
	Amount          types.Money `json:"amount"`
	PaymentDate     time.Time   `json:"paymentDate"`
	Notes           string      `json:"notes,omitempty"`
	PaymentMethodID *int64      `json:"paymentMethodId,omitempty"`
}

// SaleItemPayload is one submitted line.
type SaleItemPayload struct {
	VariantID int64       `json:"variantId"`
	Quantity  int         `json:"quantity"`
	Price     types.Money `json:"price"`
	CostPrice types.Money `json:"costPrice"`
	Discount  types.Money `json:"discount"`
}

// SalePayload is the body of createSale / updateSale.
type SalePayload struct {
	Items             []SaleItemPayload `json:"items"`
	CustomerID        *int64            `json:"customerId"`
	Total             types.Money       `json:"total"`
	Paid              types.Money       `json:"paid"`
	WarehouseID       *int64            `json:"warehouseId"`
	PaymentMethodID   *int64            `json:"paymentMethodId"`
	PaymentMethodCode string            `json:"paymentMethodCode"`
	SaleType          SaleType          `json:"saleType"`
	Discount          types.Money       `json:"discount"`
	Notes             string            `json:"notes"`
	InvoiceDate       time.Time         `json:"invoiceDate"`
}

// PaymentPayload is the body of createPayment / updatePayment.
type PaymentPayload struct {
	CustomerID      int64       `json:"customerId"`
	PaymentMethodID *int64      `json:"paymentMethodId"`
	Amount          types.Money `json:"amount"`
	PaymentDate     time.Time   `json:"paymentDate"`
	Notes           string      `json:"notes"`
}

// PrintMode selects how a receipt is printed.
type PrintMode string

const (
	PrintNone    PrintMode = "none"
	PrintSilent  PrintMode = "silent"
	PrintPreview PrintMode = "preview"
)

// Enabled reports whether anything should be printed.
func (m PrintMode) Enabled() bool {
	return m == PrintSilent || m == PrintPreview
}
