// Package editor turns "open this sale/payment for editing" requests into
// session tabs, keeping at most one open edit tab per source record.
package editor

import (
	"context"
	"sync"

	"posdesk/internal/core/apperror"
	"posdesk/internal/domain/draft"
	"posdesk/internal/domain/sales"
	"posdesk/internal/domain/session"
	"posdesk/pkg/logger"
)

// CustomerLookup resolves a customer snapshot by id.
type CustomerLookup func(customerID int64) (*sales.Customer, bool)

// Result is the outcome of one processed request.
type Result struct {
	Seq     uint64      `json:"seq"`
	DraftID string      `json:"draftId,omitempty"`
	Created bool        `json:"created"`
	Draft   draft.Draft `json:"-"`
	Err     error       `json:"-"`
}

// Bridge drains the inbox into the session store.
type Bridge struct {
	inbox   *Inbox
	store   *session.Store
	factory *draft.Factory
	lookup  CustomerLookup
	log     *logger.Logger

	draining sync.Mutex
}

// NewBridge creates a bridge. lookup may be nil.
func NewBridge(inbox *Inbox, store *session.Store, factory *draft.Factory, lookup CustomerLookup, log *logger.Logger) *Bridge {
	if lookup == nil {
		lookup = func(int64) (*sales.Customer, bool) { return nil, false }
	}
	if log == nil {
		log = logger.Default()
	}
	return &Bridge{
		inbox:   inbox,
		store:   store,
		factory: factory,
		lookup:  lookup,
		log:     log.WithComponent("editor"),
	}
}

// Drain processes every pending request in arrival order and acknowledges each
// one, whatever its outcome.
func (b *Bridge) Drain(ctx context.Context) []Result {
	b.draining.Lock()
	defer b.draining.Unlock()

	var results []Result
	for {
		env, ok := b.inbox.Peek()
		if !ok {
			return results
		}
		res := b.handle(ctx, env.Request)
		res.Seq = env.Seq
		b.inbox.Ack(env.Seq)
		results = append(results, res)
	}
}

// Run drains the inbox whenever a request is posted, until ctx ends.
func (b *Bridge) Run(ctx context.Context) {
	b.Drain(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.inbox.Notify():
			b.Drain(ctx)
		}
	}
}

func (b *Bridge) handle(ctx context.Context, r Request) Result {
	log := b.log.WithContext(ctx)
	if reason := r.validate(); reason != "" {
		log.Warnw("editor request rejected", "request_id", r.ID, "reason", reason)
		return Result{Err: apperror.NewInvalidEditorRequest(reason)}
	}

	candidate, match := b.build(r)
	d, created, err := b.store.AddOrActivate(ctx, candidate, match)
	if err != nil {
		log.Warnw("editor request produced an invalid draft", "request_id", r.ID, "error", err)
		return Result{Err: err}
	}
	log.Infow("editor tab opened",
		"kind", r.Kind,
		"draft_id", d.ID,
		"created", created,
	)
	return Result{DraftID: d.ID, Created: created, Draft: d}
}

func (b *Bridge) build(r Request) (draft.Draft, func(draft.Draft) bool) {
	if r.Kind == KindPayment {
		p := *r.Payment
		customer := b.customer(r.Customer, p.CustomerID)
		return b.factory.FromExistingPayment(p, customer), func(d draft.Draft) bool {
			id, ok := d.SourcePaymentID()
			return ok && d.Mode() == draft.ModePayment && id == p.ID
		}
	}

	s := *r.Sale
	var customerID int64
	if s.CustomerID != nil {
		customerID = *s.CustomerID
	}
	customer := b.customer(r.Customer, customerID)
	return b.factory.FromExistingSale(s, customer), func(d draft.Draft) bool {
		id, ok := d.SourceSaleID()
		return ok && d.Mode() == draft.ModeSale && id == s.ID
	}
}

func (b *Bridge) customer(snapshot *sales.Customer, customerID int64) *sales.Customer {
	if snapshot != nil {
		return snapshot
	}
	if customerID <= 0 {
		return nil
	}
	if c, ok := b.lookup(customerID); ok {
		return c
	}
	return nil
}
