// Package checkout validates the active draft and commits it to the backend.
package checkout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"posdesk/internal/core/apperror"
	"posdesk/internal/core/types"
	"posdesk/internal/domain/draft"
	"posdesk/internal/domain/money"
	"posdesk/internal/domain/receipt"
	"posdesk/internal/domain/sales"
	"posdesk/internal/domain/session"
	"posdesk/pkg/logger"
)

var tracer = otel.Tracer("posdesk/checkout")

// creditThreshold is the remaining amount above which a sale is recorded on credit.
var creditThreshold = types.MustMoney("0.01")

// Backend is the part of the shop backend checkout writes to.
type Backend interface {
	CreateSale(ctx context.Context, p sales.SalePayload) (sales.Sale, error)
	UpdateSale(ctx context.Context, saleID int64, p sales.SalePayload) (sales.Sale, error)
	GetSaleByID(ctx context.Context, saleID int64) (sales.Sale, error)
	CreatePayment(ctx context.Context, p sales.PaymentPayload) (sales.Payment, error)
	UpdatePayment(ctx context.Context, paymentID int64, p sales.PaymentPayload) (sales.Payment, error)
}

// RefData is the reference data checkout reads and refreshes after a commit.
// Stock is the last loaded snapshot; no backend call is made to check it.
type RefData interface {
	PaymentMethods() []sales.PaymentMethod
	Stock(variantID int64, warehouseID *int64) int
	RefreshAsync(ctx context.Context) bool
}

// State is the phase of a checkout attempt.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateRejected   State = "rejected"
	StateSubmitting State = "submitting"
	StateCommitted  State = "committed"
	StateFailed     State = "failed"
)

// Status describes the current or last checkout attempt.
type Status struct {
	State     State     `json:"state"`
	DraftID   string    `json:"draftId,omitempty"`
	InFlight  bool      `json:"inFlight"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Outcome is the result of a completed checkout.
type Outcome struct {
	DraftID  string             `json:"draftId"`
	Mode     draft.Mode         `json:"mode"`
	Skipped  bool               `json:"skipped,omitempty"`
	SaleType sales.SaleType     `json:"saleType,omitempty"`
	Totals   money.Totals       `json:"totals"`
	Sale     *sales.Sale        `json:"sale,omitempty"`
	Payment  *sales.Payment     `json:"payment,omitempty"`
	Next     *draft.Draft       `json:"-"`
	Warning  *apperror.AppError `json:"warning,omitempty"`
}

// Config tunes the controller.
type Config struct {
	PrintTimeout  time.Duration
	ReceiptHeader receipt.Header
}

// Controller runs checkouts of the active draft. At most one checkout runs at
// a time; a second one arriving meanwhile is refused, not queued.
type Controller struct {
	store   *session.Store
	factory *draft.Factory
	backend Backend
	refdata RefData
	printer receipt.Printer
	feed    *Feed
	cfg     Config
	log     *logger.Logger

	inFlight atomic.Bool

	mu     sync.RWMutex
	status Status
	now    func() time.Time
}

// New creates a controller. printer may be nil when printing is disabled.
func New(
	store *session.Store,
	factory *draft.Factory,
	backend Backend,
	refdata RefData,
	printer receipt.Printer,
	feed *Feed,
	cfg Config,
	log *logger.Logger,
) *Controller {
	if cfg.PrintTimeout <= 0 {
		cfg.PrintTimeout = 10 * time.Second
	}
	if feed == nil {
		feed = NewFeed(0)
	}
	if log == nil {
		log = logger.Default()
	}
	c := &Controller{
		store:   store,
		factory: factory,
		backend: backend,
		refdata: refdata,
		printer: printer,
		feed:    feed,
		cfg:     cfg,
		log:     log.WithComponent("checkout"),
		now:     time.Now,
	}
	c.status = Status{State: StateIdle, UpdatedAt: c.now()}
	return c
}

// Feed returns the notification feed.
func (c *Controller) Feed() *Feed { return c.feed }

// Status returns the state of the current or last attempt.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.status
	s.InFlight = c.inFlight.Load()
	return s
}

// State returns the state machine state of the current or last attempt.
func (c *Controller) State() State { return c.Status().State }

func (c *Controller) setState(state State, draftID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = Status{State: state, DraftID: draftID, UpdatedAt: c.now()}
	if err != nil {
		c.status.Error = apperror.UserMessage(err)
	}
}

// Checkout validates and commits the active draft.
//
// Validation failures and backend errors are returned and also pushed to the
// feed; the draft is left untouched. A print failure after a successful commit
// is reported as Outcome.Warning, never as an error.
func (c *Controller) Checkout(ctx context.Context, mode sales.PrintMode) (Outcome, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.log.WithContext(ctx).Infow("checkout ignored, another one is in flight")
		return Outcome{}, apperror.NewCheckoutInProgress()
	}
	defer c.inFlight.Store(false)

	d := c.store.Active()
	ctx, span := tracer.Start(ctx, "checkout",
		trace.WithAttributes(
			attribute.String("draft.id", d.ID),
			attribute.String("draft.mode", string(d.Mode())),
			attribute.Bool("draft.edit", d.IsEditMode()),
		))
	defer span.End()

	var (
		out Outcome
		err error
	)
	if d.Mode() == draft.ModePayment {
		out, err = c.checkoutPayment(ctx, d)
	} else {
		out, err = c.checkoutSale(ctx, d, mode)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.UserMessage(err))
	}
	return out, err
}

func (c *Controller) checkoutSale(ctx context.Context, d draft.Draft, mode sales.PrintMode) (Outcome, error) {
	log := c.log.WithContext(ctx).With("draft_id", d.ID)
	c.setState(StateValidating, d.ID, nil)

	totals := money.Compute(d)
	out := Outcome{DraftID: d.ID, Mode: draft.ModeSale, Totals: totals}
	if len(d.Sale.Cart) == 0 {
		c.setState(StateIdle, d.ID, nil)
		out.Skipped = true
		return out, nil
	}

	saleType := d.Sale.SaleType
	if totals.Remaining.GreaterThan(creditThreshold) && saleType != sales.SaleTypeCredit {
		log.Infow("short payment recorded as credit sale",
			"selected", saleType,
			"remaining", types.FormatAmount(totals.Remaining),
		)
		saleType = sales.SaleTypeCredit
	}
	if !saleType.Valid() {
		saleType = sales.SaleTypeCash
	}
	out.SaleType = saleType

	if err := c.validateCredit(d, saleType, totals); err != nil {
		return out, c.reject(ctx, d.ID, err)
	}
	if c.refdata != nil {
		if err := draft.CheckStock(d, c.refdata.Stock); err != nil {
			return out, c.reject(ctx, d.ID, err)
		}
	}

	methods := c.methods()
	method := ResolveMethod(d.Sale.PaymentMethod, methods)
	if saleType == sales.SaleTypeCredit && !totals.Paid.IsPositive() {
		method = creditMethod(methods)
	}
	payload := BuildSalePayload(d, totals, saleType, method)

	c.setState(StateSubmitting, d.ID, nil)
	var (
		sale sales.Sale
		err  error
	)
	sourceID, editing := d.SourceSaleID()
	if editing {
		sale, err = c.backend.UpdateSale(ctx, sourceID, payload)
		if err == nil && sale.ID == 0 {
			sale.ID = sourceID
		}
	} else {
		sale, err = c.backend.CreateSale(ctx, payload)
	}
	if err != nil {
		return out, c.fail(ctx, d.ID, err)
	}
	out.Sale = &sale
	c.setState(StateCommitted, d.ID, nil)
	log.Infow("sale committed",
		"sale_id", sale.ID,
		"edit", editing,
		"sale_type", saleType,
		"total", types.FormatAmount(payload.Total),
		"paid", types.FormatAmount(payload.Paid),
	)

	if mode.Enabled() {
		if perr := c.print(ctx, d, sale, editing, method, mode); perr != nil {
			out.Warning = apperror.NewPrintFailed(perr)
			log.Warnw("receipt print failed", "sale_id", sale.ID, "error", perr)
		}
	}

	c.refresh(ctx)
	next := c.afterCommit(ctx, d, editing)
	out.Next = &next

	if out.Warning != nil {
		c.feed.Push(LevelWarning, out.Warning.Code, out.Warning.Message)
	} else {
		c.feed.Push(LevelSuccess, "", "Sale saved")
	}
	return out, nil
}

func (c *Controller) validateCredit(d draft.Draft, saleType sales.SaleType, t money.Totals) error {
	if saleType != sales.SaleTypeCredit {
		return nil
	}
	if d.Customer == nil {
		return apperror.NewCustomerRequired()
	}
	cu := d.Customer
	if cu.CreditLimit.IsZero() {
		return nil
	}
	if cu.Balance.Add(t.Remaining).GreaterThan(cu.CreditLimit) {
		return apperror.NewCreditLimitExceeded(cu.ID,
			types.FormatAmount(cu.Balance),
			types.FormatAmount(t.Remaining),
			types.FormatAmount(cu.CreditLimit),
		)
	}
	return nil
}

// print fetches the full record of a new sale, or uses the returned record of
// an edit, and prints it within PrintTimeout.
func (c *Controller) print(ctx context.Context, d draft.Draft, sale sales.Sale, editing bool, m ResolvedMethod, mode sales.PrintMode) error {
	if c.printer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.PrintTimeout)
	defer cancel()

	record := sale
	if !editing {
		full, err := c.backend.GetSaleByID(ctx, sale.ID)
		if err != nil {
			return err
		}
		record = full
	}
	if len(record.Items) == 0 {
		record.Items = itemsFromDraft(d)
	}
	r := receipt.FromSale(record, receipt.Context{
		Header:        c.cfg.ReceiptHeader,
		Customer:      d.Customer,
		PaymentMethod: m.Name,
	})
	return c.printer.PrintReceipt(ctx, r, mode)
}

func itemsFromDraft(d draft.Draft) []sales.SaleItem {
	items := make([]sales.SaleItem, 0, len(d.Sale.Cart))
	for _, l := range d.Sale.Cart {
		it := sales.SaleItem{
			VariantID:   l.VariantID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Price:       l.Price,
			CostPrice:   l.CostPrice,
			Discount:    l.Discount,
		}
		if l.Variant != nil {
			it.Size, it.Color = l.Variant.Size, l.Variant.Color
		}
		items = append(items, it)
	}
	return items
}

// afterCommit frees the committed draft's tab: a fresh sale takes its slot, or
// an edit tab is closed.
func (c *Controller) afterCommit(ctx context.Context, d draft.Draft, editing bool) draft.Draft {
	if editing {
		return c.store.CloseEditTabAndOpenFresh(ctx, d.ID)
	}
	var wh *int64
	if d.Sale != nil {
		wh = d.Sale.WarehouseID
	}
	fresh := c.factory.CreateFresh(draft.FreshWarehouse(wh))
	if err := c.store.Replace(ctx, d.ID, fresh); err != nil {
		// The tab was closed while the sale was in flight.
		c.log.WithContext(ctx).Debugw("committed draft no longer open", "draft_id", d.ID, "error", err)
		return c.store.Active()
	}
	return fresh
}

func (c *Controller) checkoutPayment(ctx context.Context, d draft.Draft) (Outcome, error) {
	c.setState(StateValidating, d.ID, nil)
	out := Outcome{DraftID: d.ID, Mode: draft.ModePayment, Totals: money.Compute(d)}

	amount, _ := types.ParseAmount(d.Payment.Amount)
	if !amount.IsPositive() {
		return out, c.reject(ctx, d.ID, apperror.NewInvalidAmount("amount"))
	}
	customerID := d.Payment.CustomerID
	if customerID <= 0 && d.Customer != nil {
		customerID = d.Customer.ID
	}

	method := ResolveMethod(d.Payment.PaymentMethod, c.methods())
	payload := BuildPaymentPayload(customerID, amount, method, d)

	c.setState(StateSubmitting, d.ID, nil)
	p, err := c.backend.UpdatePayment(ctx, d.Payment.PaymentID, payload)
	if err != nil {
		return out, c.fail(ctx, d.ID, err)
	}
	if p.ID == 0 {
		p.ID = d.Payment.PaymentID
	}
	out.Payment = &p
	c.setState(StateCommitted, d.ID, nil)
	c.log.WithContext(ctx).Infow("payment updated",
		"draft_id", d.ID,
		"payment_id", p.ID,
		"amount", types.FormatAmount(payload.Amount),
	)

	c.refresh(ctx)
	next := c.store.CloseEditTabAndOpenFresh(ctx, d.ID)
	out.Next = &next
	c.feed.Push(LevelSuccess, "", "Payment saved")
	return out, nil
}

// ReceiveRequest is a new customer payment taken from the ledger screen.
type ReceiveRequest struct {
	CustomerID    int64  `json:"customerId"`
	Amount        string `json:"amount"`
	PaymentMethod string `json:"paymentMethod"`
	PaymentDate   string `json:"paymentDate"`
	Notes         string `json:"notes"`
}

// ReceivePayment posts a new customer payment.
func (c *Controller) ReceivePayment(ctx context.Context, req ReceiveRequest) (sales.Payment, error) {
	ctx, span := tracer.Start(ctx, "receive_payment",
		trace.WithAttributes(attribute.Int64("customer.id", req.CustomerID)))
	defer span.End()

	amount, _ := types.ParseAmount(req.Amount)
	if !amount.IsPositive() {
		err := apperror.NewInvalidAmount("amount")
		c.feed.Push(LevelError, err.Code, err.Message)
		return sales.Payment{}, err
	}
	if req.CustomerID <= 0 {
		err := apperror.NewCustomerRequired()
		c.feed.Push(LevelError, err.Code, err.Message)
		return sales.Payment{}, err
	}

	date := c.now()
	if req.PaymentDate != "" {
		parsed, err := time.Parse(draft.DateLayout, req.PaymentDate)
		if err != nil {
			return sales.Payment{}, apperror.NewValidation("paymentDate must be YYYY-MM-DD").WithCause(err)
		}
		date = parsed
	}
	method := ResolveMethod(req.PaymentMethod, c.methods())
	payload := BuildPaymentPayload(req.CustomerID, amount, method, draft.Draft{InvoiceDate: date, Notes: req.Notes})

	p, err := c.backend.CreatePayment(ctx, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.UserMessage(err))
		c.feed.Push(LevelError, errorCode(err), apperror.UserMessage(err))
		c.log.WithContext(ctx).Warnw("receive payment failed", "customer_id", req.CustomerID, "error", err)
		return sales.Payment{}, err
	}
	c.log.WithContext(ctx).Infow("payment received",
		"customer_id", req.CustomerID,
		"payment_id", p.ID,
		"amount", types.FormatAmount(payload.Amount),
	)
	c.refresh(ctx)
	c.feed.Push(LevelSuccess, "", "Payment received")
	return p, nil
}

func (c *Controller) refresh(ctx context.Context) {
	if c.refdata != nil {
		c.refdata.RefreshAsync(ctx)
	}
}

func (c *Controller) methods() []sales.PaymentMethod {
	if c.refdata == nil {
		return nil
	}
	return c.refdata.PaymentMethods()
}

func (c *Controller) reject(ctx context.Context, draftID string, err error) error {
	c.setState(StateRejected, draftID, err)
	c.feed.Push(LevelWarning, errorCode(err), apperror.UserMessage(err))
	c.log.WithContext(ctx).Infow("checkout rejected", "draft_id", draftID, "reason", err)
	return err
}

func (c *Controller) fail(ctx context.Context, draftID string, err error) error {
	c.setState(StateFailed, draftID, err)
	c.feed.Push(LevelError, errorCode(err), apperror.UserMessage(err))
	c.log.WithContext(ctx).Warnw("checkout failed", "draft_id", draftID, "error", err)
	return err
}

func errorCode(err error) string {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}
