package draft

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posdesk/internal/core/apperror"
	"posdesk/internal/core/types"
	"posdesk/internal/domain/sales"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func int64p(v int64) *int64 { return &v }

func testFactory(opts ...Option) *Factory {
	seq := 0
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			seq++
			return "draft-" + string(rune('0'+seq))
		}),
	}
	return NewFactory(Defaults{
		SaleType:      sales.SaleTypeCash,
		WarehouseID:   int64p(3),
		PaymentMethod: "1",
	}, append(base, opts...)...)
}

func TestCreateFresh_Defaults(t *testing.T) {
	d := testFactory().CreateFresh()

	assert.Equal(t, "draft-1", d.ID)
	assert.Equal(t, ModeSale, d.Mode())
	assert.False(t, d.IsEditMode())
	require.NotNil(t, d.Sale)
	assert.Empty(t, d.Sale.Cart)
	assert.Equal(t, sales.SaleTypeCash, d.Sale.SaleType)
	assert.Equal(t, DiscountValue, d.Sale.DiscountType)
	assert.Equal(t, "1", d.Sale.PaymentMethod)
	require.NotNil(t, d.Sale.WarehouseID)
	assert.Equal(t, int64(3), *d.Sale.WarehouseID)
	assert.Equal(t, "2026-03-14", d.InvoiceDate.Format(DateLayout))
	assert.NoError(t, d.Validate())
}

func TestCreateFresh_Overrides(t *testing.T) {
	cust := &sales.Customer{ID: 9, Name: "أحمد"}
	d := testFactory().CreateFresh(FreshWarehouse(nil), FreshSaleType(sales.SaleTypeCredit), FreshCustomer(cust))

	assert.Nil(t, d.Sale.WarehouseID)
	assert.Equal(t, sales.SaleTypeCredit, d.Sale.SaleType)
	require.NotNil(t, d.Customer)
	assert.Equal(t, int64(9), d.Customer.ID)
	cust.Name = "changed"
	assert.Equal(t, "أحمد", d.Customer.Name, "customer is a snapshot")
}

func TestFromExistingSale_MaxQuantityKeepsSoldQuantity(t *testing.T) {
	stock := map[int64]int{10: 0, 11: 4}
	f := testFactory(WithStock(func(variantID int64, _ *int64) int { return stock[variantID] }))

	sale := sales.Sale{
		ID: 42,
		Items: []sales.SaleItem{
			{VariantID: 10, ProductName: "قميص", Size: "L", Color: "-", Quantity: 5, Price: types.MustMoney("100")},
			{VariantID: 11, ProductName: "Cap", Size: "موحد", Color: "", Quantity: 2, Price: types.MustMoney("30")},
		},
		Total:           types.MustMoney("560"),
		Remaining:       types.MustMoney("60"),
		Discount:        types.MustMoney("0"),
		PaymentMethodID: int64p(2),
		WarehouseID:     int64p(1),
		InvoiceDate:     time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	}
	d := f.FromExistingSale(sale, &sales.Customer{ID: 5})

	assert.Equal(t, "EDIT-SALE-42-"+itoa(fixedNow.UnixMilli()), d.ID)
	assert.True(t, d.IsEditMode())
	saleID, ok := d.SourceSaleID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), saleID)

	require.Len(t, d.Sale.Cart, 2)
	assert.Equal(t, 5, d.Sale.Cart[0].MaxQuantity)
	assert.Equal(t, 6, d.Sale.Cart[1].MaxQuantity)
	assert.Equal(t, 5, d.Sale.Cart[0].Sold)
	require.NotNil(t, d.Sale.Cart[0].Variant)
	assert.Equal(t, "L", d.Sale.Cart[0].Variant.String())
	assert.Nil(t, d.Sale.Cart[1].Variant)

	assert.Equal(t, sales.SaleTypeCredit, d.Sale.SaleType)
	assert.Equal(t, "500", d.Sale.PaidAmount)
	assert.Equal(t, "", d.Sale.Discount)
	assert.Equal(t, "2", d.Sale.PaymentMethod)
	assert.Equal(t, int64(1), *d.Sale.WarehouseID)
	assert.Equal(t, "2026-01-02", d.InvoiceDate.Format(DateLayout))
	assert.NoError(t, d.Validate())
}

func TestFromExistingSale_FullyPaidIsCash(t *testing.T) {
	d := testFactory().FromExistingSale(sales.Sale{
		ID:                7,
		Total:             types.MustMoney("90"),
		Remaining:         types.Zero(),
		PaymentMethodCode: "card",
	}, nil)
	assert.Equal(t, sales.SaleTypeCash, d.Sale.SaleType)
	assert.Equal(t, "90", d.Sale.PaidAmount)
	assert.Equal(t, "card", d.Sale.PaymentMethod)
	assert.Nil(t, d.Customer)
}

func TestFromExistingPayment(t *testing.T) {
	d := testFactory().FromExistingPayment(sales.Payment{
		ID:              77,
		CustomerID:      5,
		Amount:          types.MustMoney("250.5"),
		PaymentDate:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Notes:           "دفعة",
		PaymentMethodID: int64p(3),
	}, &sales.Customer{ID: 5, Name: "Ali"})

	assert.Equal(t, ModePayment, d.Mode())
	assert.True(t, d.IsEditMode())
	assert.Nil(t, d.Sale)
	pid, ok := d.SourcePaymentID()
	assert.True(t, ok)
	assert.Equal(t, int64(77), pid)
	assert.Equal(t, "250.5", d.Payment.Amount)
	assert.Equal(t, "3", d.Payment.PaymentMethod)
	assert.Equal(t, "دفعة", d.Notes)
	assert.Equal(t, "2026-02-01", d.InvoiceDate.Format(DateLayout))
}

func TestFromPersisted_WarehouseNullVersusAbsent(t *testing.T) {
	f := testFactory()

	explicit, err := f.FromPersisted(json.RawMessage(`{"id":"a","warehouseId":null}`))
	require.NoError(t, err)
	assert.Nil(t, explicit.Sale.WarehouseID, "explicit null means all warehouses")

	absent, err := f.FromPersisted(json.RawMessage(`{"id":"b"}`))
	require.NoError(t, err)
	require.NotNil(t, absent.Sale.WarehouseID)
	assert.Equal(t, int64(3), *absent.Sale.WarehouseID)

	set, err := f.FromPersisted(json.RawMessage(`{"id":"c","warehouseId":"8"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(8), *set.Sale.WarehouseID)
}

func TestFromPersisted_DefensiveFields(t *testing.T) {
	raw := `{
		"id": "",
		"cart": [
			{"variantId": 1, "price": "50", "quantity": 9, "maxQuantity": 3, "size": "-", "color": "red"},
			{"variantId": 0, "price": 10},
			{"variantId": 2, "price": 20, "quantity": 0, "discount": 25},
			"junk",
			{"variantId": 1, "price": 1}
		],
		"discountType": "weird",
		"saleType": 5,
		"paidAmount": 40,
		"customer": {"id": 0},
		"invoiceDate": "not a date"
	}`
	d, err := testFactory().FromPersisted(json.RawMessage(raw))
	require.NoError(t, err)

	assert.Equal(t, "draft-1", d.ID)
	require.Len(t, d.Sale.Cart, 2)
	assert.Equal(t, 3, d.Sale.Cart[0].Quantity)
	assert.Equal(t, 3, d.Sale.Cart[0].MaxQuantity)
	assert.Equal(t, &VariantLabel{Color: "red"}, d.Sale.Cart[0].Variant)
	assert.Equal(t, 1, d.Sale.Cart[1].Quantity)
	assert.Equal(t, 1, d.Sale.Cart[1].MaxQuantity)
	assert.True(t, d.Sale.Cart[1].Discount.Equal(types.MustMoney("20")))
	assert.Equal(t, DiscountValue, d.Sale.DiscountType)
	assert.Equal(t, sales.SaleTypeCash, d.Sale.SaleType)
	assert.Equal(t, "40", d.Sale.PaidAmount)
	assert.Nil(t, d.Customer)
	assert.Equal(t, "2026-03-14", d.InvoiceDate.Format(DateLayout))
	assert.NoError(t, d.Validate())
}

func TestFromPersisted_RoundTrip(t *testing.T) {
	f := testFactory()
	orig := f.FromExistingSale(sales.Sale{
		ID:          42,
		Items:       []sales.SaleItem{{VariantID: 10, ProductName: "x", Size: "M", Quantity: 2, Price: types.MustMoney("12.5")}},
		Total:       types.MustMoney("25"),
		Remaining:   types.Zero(),
		WarehouseID: nil,
	}, &sales.Customer{ID: 5, Name: "Ali", CreditLimit: types.MustMoney("1000")})

	raw, err := json.Marshal(orig)
	require.NoError(t, err)
	back, err := f.FromPersisted(raw)
	require.NoError(t, err)

	assert.Equal(t, orig.ID, back.ID)
	assert.Nil(t, back.Sale.WarehouseID)
	assert.Equal(t, int64(42), *back.Sale.SourceSaleID)
	require.Len(t, back.Sale.Cart, 1)
	assert.Equal(t, orig.Sale.Cart[0].MaxQuantity, back.Sale.Cart[0].MaxQuantity)
	assert.Equal(t, 2, back.Sale.Cart[0].Sold)
	assert.True(t, back.Sale.Cart[0].Price.Equal(types.MustMoney("12.5")))
	assert.Equal(t, "Ali", back.Customer.Name)
	assert.True(t, back.Customer.CreditLimit.Equal(types.MustMoney("1000")))
}

func TestFromPersisted_PaymentDraft(t *testing.T) {
	f := testFactory()
	d, err := f.FromPersisted(json.RawMessage(`{
		"editorMode": "payment",
		"paymentEdit": {"paymentId": 77, "customerId": 5, "amount": "10", "paymentDate": "2026-02-01", "paymentMethodId": "2"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, ModePayment, d.Mode())
	assert.Equal(t, "EDIT-PAYMENT-77-"+itoa(fixedNow.UnixMilli()), d.ID)
	assert.Equal(t, "2", d.Payment.PaymentMethod)

	_, err = f.FromPersisted(json.RawMessage(`{"editorMode":"payment"}`))
	assert.Error(t, err)

	_, err = f.FromPersisted(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

func TestApply_RejectsQuantityAboveMax(t *testing.T) {
	d := testFactory().CreateFresh()
	d.Sale.Cart = []CartLine{{VariantID: 1, Quantity: 1, MaxQuantity: 2, Price: types.MustMoney("5")}}

	p, err := SetQuantity(d, 1, 3)
	assert.Nil(t, p.Cart.Value)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	bad := []CartLine{{VariantID: 1, Quantity: 3, MaxQuantity: 2}}
	next, err := Apply(d, Patch{Cart: Value(bad)})
	assert.Error(t, err)
	assert.Equal(t, 1, next.Sale.Cart[0].Quantity, "rejected patch returns the original draft")
	assert.Equal(t, 1, d.Sale.Cart[0].Quantity)
}

func TestApply_ShallowMerge(t *testing.T) {
	d := testFactory().CreateFresh()
	next, err := Apply(d, Patch{
		Notes:        Value("hello"),
		WarehouseID:  Value[*int64](nil),
		DiscountType: Value(DiscountPercent),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", next.Notes)
	assert.Nil(t, next.Sale.WarehouseID)
	assert.Equal(t, DiscountPercent, next.Sale.DiscountType)
	assert.Equal(t, int64(3), *d.Sale.WarehouseID, "original untouched")
}

func TestApply_PaymentDraftRejectsSaleFields(t *testing.T) {
	d := testFactory().FromExistingPayment(sales.Payment{ID: 1, CustomerID: 2, Amount: types.MustMoney("5")}, nil)
	_, err := Apply(d, Patch{PaidAmount: Value("3")})
	assert.Error(t, err)

	next, err := Apply(d, Patch{Amount: Value("8"), PaymentMethod: Value("cash")})
	require.NoError(t, err)
	assert.Equal(t, "8", next.Payment.Amount)
	assert.Equal(t, "cash", next.Payment.PaymentMethod)
}

func TestPatch_UnmarshalDistinguishesNull(t *testing.T) {
	var p Patch
	require.NoError(t, json.Unmarshal([]byte(`{"warehouseId": null, "notes": "x"}`), &p))
	assert.True(t, p.WarehouseID.Set)
	assert.Nil(t, p.WarehouseID.Value)
	assert.True(t, p.Notes.Set)
	assert.False(t, p.Customer.Set)
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
