package draft

import (
	"strconv"
	"time"

	"posdesk/internal/core/id"
	"posdesk/internal/core/types"
	"posdesk/internal/domain/sales"
)

// Defaults are the configured starting values of a fresh sale draft.
type Defaults struct {
	SaleType      sales.SaleType
	WarehouseID   *int64
	PaymentMethod string
}

// StockFunc returns the current quantity of variantID in warehouseID (nil = all).
type StockFunc func(variantID int64, warehouseID *int64) int

// Factory builds complete, normalized drafts.
type Factory struct {
	defaults Defaults
	stock    StockFunc
	now      func() time.Time
	newID    func() string
}

// Option configures a Factory.
type Option func(*Factory)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Factory) { f.now = now }
}

// WithIDGenerator overrides the fresh draft id generator.
func WithIDGenerator(gen func() string) Option {
	return func(f *Factory) { f.newID = gen }
}

// WithStock sets the stock source used when reopening sales.
func WithStock(stock StockFunc) Option {
	return func(f *Factory) { f.stock = stock }
}

// NewFactory creates a draft factory.
func NewFactory(defaults Defaults, opts ...Option) *Factory {
	if !defaults.SaleType.Valid() {
		defaults.SaleType = sales.SaleTypeCash
	}
	f := &Factory{
		defaults: defaults,
		stock:    func(int64, *int64) int { return 0 },
		now:      time.Now,
		newID:    id.New,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Defaults returns the configured defaults.
func (f *Factory) Defaults() Defaults {
	d := f.defaults
	d.WarehouseID = cloneInt64(d.WarehouseID)
	return d
}

// FreshOption overrides a field of a fresh draft.
type FreshOption func(*Draft)

// FreshWarehouse sets the warehouse of a fresh draft (nil = all warehouses).
func FreshWarehouse(warehouseID *int64) FreshOption {
	return func(d *Draft) { d.Sale.WarehouseID = cloneInt64(warehouseID) }
}

// FreshSaleType sets the sale type of a fresh draft.
func FreshSaleType(t sales.SaleType) FreshOption {
	return func(d *Draft) {
		if t.Valid() {
			d.Sale.SaleType = t
		}
	}
}

// FreshCustomer attaches a customer snapshot to a fresh draft.
func FreshCustomer(c *sales.Customer) FreshOption {
	return func(d *Draft) {
		if c != nil {
			cc := *c
			d.Customer = &cc
		}
	}
}

// CreateFresh returns a new empty sale draft.
func (f *Factory) CreateFresh(opts ...FreshOption) Draft {
	d := Draft{
		ID:          f.newID(),
		InvoiceDate: today(f.now()),
		Sale: &SaleBody{
			Cart:          []CartLine{},
			DiscountType:  DiscountValue,
			SaleType:      f.defaults.SaleType,
			PaymentMethod: f.defaults.PaymentMethod,
			WarehouseID:   cloneInt64(f.defaults.WarehouseID),
		},
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// FromExistingSale reopens a committed sale as an editable draft.
func (f *Factory) FromExistingSale(sale sales.Sale, customer *sales.Customer) Draft {
	saleID := sale.ID
	cart := make([]CartLine, 0, len(sale.Items))
	for _, it := range sale.Items {
		current := f.stock(it.VariantID, sale.WarehouseID)
		cart = append(cart, CartLine{
			VariantID:   it.VariantID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       it.Price,
			CostPrice:   it.CostPrice,
			Quantity:    it.Quantity,
			Variant:     NewVariantLabel(it.Size, it.Color),
			Discount:    it.Discount,
			MaxQuantity: max(it.Quantity, current+it.Quantity),
			Sold:        it.Quantity,
		})
	}

	saleType := sales.SaleTypeCash
	if sale.Remaining.IsPositive() {
		saleType = sales.SaleTypeCredit
	}

	method := sale.PaymentMethodCode
	if sale.PaymentMethodID != nil {
		method = strconv.FormatInt(*sale.PaymentMethodID, 10)
	}
	if method == "" {
		method = f.defaults.PaymentMethod
	}

	d := Draft{
		ID:          id.EditSale(sale.ID, f.now()),
		Notes:       sale.Notes,
		InvoiceDate: dateOr(sale.InvoiceDate, f.now()),
		Sale: &SaleBody{
			Cart:          cart,
			Discount:      formatOptional(sale.Discount),
			DiscountType:  DiscountValue,
			PaidAmount:    types.FormatAmount(sale.Total.Sub(sale.Remaining)),
			SaleType:      saleType,
			PaymentMethod: method,
			WarehouseID:   cloneInt64(sale.WarehouseID),
			SourceSaleID:  &saleID,
		},
	}
	if customer != nil {
		c := *customer
		d.Customer = &c
	}
	return d
}

// FromExistingPayment reopens a committed customer payment as a payment draft.
func (f *Factory) FromExistingPayment(payment sales.Payment, customer *sales.Customer) Draft {
	method := f.defaults.PaymentMethod
	if payment.PaymentMethodID != nil {
		method = strconv.FormatInt(*payment.PaymentMethodID, 10)
	}
	d := Draft{
		ID:          id.EditPayment(payment.ID, f.now()),
		Notes:       payment.Notes,
		InvoiceDate: dateOr(payment.PaymentDate, f.now()),
		Payment: &PaymentBody{
			PaymentID:     payment.ID,
			CustomerID:    payment.CustomerID,
			Amount:        types.FormatAmount(payment.Amount),
			PaymentMethod: method,
		},
	}
	if customer != nil {
		c := *customer
		d.Customer = &c
	}
	return d
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateOr(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return today(fallback)
	}
	return today(t)
}

func formatOptional(m types.Money) string {
	if m.IsZero() {
		return ""
	}
	return types.FormatAmount(m)
}
