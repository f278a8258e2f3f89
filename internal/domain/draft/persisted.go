package draft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"posdesk/internal/core/id"
	"posdesk/internal/core/types"
	"posdesk/internal/domain/sales"
)

// FromPersisted rebuilds a draft from a stored (possibly legacy or partial)
// record. Every field is checked on its own and defaulted when unusable; only a
// record that is not a JSON object, or a payment draft with no payment id, fails.
func (f *Factory) FromPersisted(raw json.RawMessage) (Draft, error) {
	obj, ok := parseObject(raw)
	if !ok {
		return Draft{}, fmt.Errorf("persisted draft is not an object")
	}

	d := Draft{
		Customer:    parseCustomer(obj.object("customer")),
		Notes:       obj.str("notes"),
		InvoiceDate: obj.date("invoiceDate", today(f.now())),
	}

	edit := obj.object("paymentEdit")
	if Mode(obj.str("editorMode")) == ModePayment {
		paymentID := edit.int64("paymentId")
		if paymentID <= 0 {
			paymentID = obj.int64("sourcePaymentId")
		}
		if paymentID <= 0 {
			return Draft{}, fmt.Errorf("payment draft without payment id")
		}
		method := edit.str("paymentMethodId")
		if method == "" {
			method = obj.str("paymentMethod")
		}
		if method == "" {
			method = f.defaults.PaymentMethod
		}
		customerID := edit.int64("customerId")
		if customerID <= 0 && d.Customer != nil {
			customerID = d.Customer.ID
		}
		if notes := edit.str("notes"); notes != "" && d.Notes == "" {
			d.Notes = notes
		}
		if edit.has("paymentDate") {
			d.InvoiceDate = edit.date("paymentDate", d.InvoiceDate)
		}
		d.Payment = &PaymentBody{
			PaymentID:     paymentID,
			CustomerID:    customerID,
			Amount:        edit.str("amount"),
			PaymentMethod: method,
		}
		d.ID = obj.str("id")
		if id.IsNil(d.ID) {
			d.ID = id.EditPayment(paymentID, f.now())
		}
		return d, nil
	}

	body := &SaleBody{
		Cart:          parseCart(obj.array("cart")),
		Discount:      obj.str("discount"),
		DiscountType:  DiscountType(obj.str("discountType")),
		PaidAmount:    obj.str("paidAmount"),
		SaleType:      sales.SaleType(obj.str("saleType")),
		PaymentMethod: obj.str("paymentMethod"),
	}
	if !body.DiscountType.Valid() {
		body.DiscountType = DiscountValue
	}
	if !body.SaleType.Valid() {
		body.SaleType = f.defaults.SaleType
	}
	if body.PaymentMethod == "" {
		body.PaymentMethod = f.defaults.PaymentMethod
	}

	// Absent means never chosen; an explicit null means "all warehouses".
	if obj.has("warehouseId") {
		body.WarehouseID = obj.int64Ptr("warehouseId")
	} else {
		body.WarehouseID = cloneInt64(f.defaults.WarehouseID)
	}

	if saleID := obj.int64("sourceSaleId"); saleID > 0 {
		body.SourceSaleID = &saleID
	}
	d.Sale = body

	d.ID = obj.str("id")
	if id.IsNil(d.ID) {
		if body.SourceSaleID != nil {
			d.ID = id.EditSale(*body.SourceSaleID, f.now())
		} else {
			d.ID = f.newID()
		}
	}
	return d, nil
}

func parseCustomer(obj rawObject) *sales.Customer {
	if obj == nil {
		return nil
	}
	cid := obj.int64("id")
	if cid <= 0 {
		return nil
	}
	return &sales.Customer{
		ID:          cid,
		Name:        obj.str("name"),
		Phone:       obj.str("phone"),
		Balance:     obj.money("balance"),
		CreditLimit: nonNegative(obj.money("creditLimit")),
	}
}

func parseCart(items []rawObject) []CartLine {
	cart := make([]CartLine, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		variantID := it.int64("variantId")
		if variantID <= 0 || seen[variantID] {
			continue
		}
		seen[variantID] = true

		qty := int(it.int64("quantity"))
		if qty < 1 {
			qty = 1
		}
		maxQty := int(it.int64("maxQuantity"))
		if maxQty < 1 {
			maxQty = qty
		}
		if qty > maxQty {
			qty = maxQty
		}
		sold := max(int(it.int64("soldQuantity")), 0)
		price := nonNegative(it.money("price"))
		discount := nonNegative(it.money("discount"))
		if discount.GreaterThan(price) {
			discount = price
		}
		cart = append(cart, CartLine{
			VariantID:   variantID,
			ProductID:   it.int64("productId"),
			ProductName: it.str("productName"),
			Price:       price,
			CostPrice:   nonNegative(it.money("costPrice")),
			Quantity:    qty,
			Variant:     NewVariantLabel(it.str("size"), it.str("color")),
			Discount:    discount,
			MaxQuantity: maxQty,
			Sold:        sold,
		})
	}
	return cart
}

func nonNegative(m types.Money) types.Money {
	if m.IsNegative() {
		return types.Zero()
	}
	return m
}

// rawObject is a JSON object whose fields are decoded one by one.
type rawObject map[string]json.RawMessage

func parseObject(raw json.RawMessage) (rawObject, bool) {
	var obj rawObject
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func (o rawObject) has(key string) bool {
	_, ok := o[key]
	return ok
}

func (o rawObject) isNull(key string) bool {
	v, ok := o[key]
	return !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func (o rawObject) object(key string) rawObject {
	if o.isNull(key) {
		return nil
	}
	obj, _ := parseObject(o[key])
	return obj
}

func (o rawObject) array(key string) []rawObject {
	if o.isNull(key) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(o[key], &items); err != nil {
		return nil
	}
	out := make([]rawObject, 0, len(items))
	for _, it := range items {
		if obj, ok := parseObject(it); ok {
			out = append(out, obj)
		}
	}
	return out
}

// str accepts a JSON string or number.
func (o rawObject) str(key string) string {
	if o.isNull(key) {
		return ""
	}
	var s string
	if err := json.Unmarshal(o[key], &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(o[key], &n); err == nil {
		return n.String()
	}
	return ""
}

func (o rawObject) int64Ptr(key string) *int64 {
	s := strings.TrimSpace(o.str(key))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return nil
		}
		v = int64(f)
	}
	return &v
}

func (o rawObject) int64(key string) int64 {
	if p := o.int64Ptr(key); p != nil {
		return *p
	}
	return 0
}

func (o rawObject) money(key string) types.Money {
	return types.ParseAmountOrZero(o.str(key))
}

func (o rawObject) date(key string, fallback time.Time) time.Time {
	s := o.str(key)
	if s == "" {
		return fallback
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return today(t)
	}
	return fallback
}
