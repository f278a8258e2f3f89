// Package refdata caches the backend's reference lists (variants with stock,
// customers, payment methods, warehouses) for the point of sale.
package refdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"posdesk/internal/domain/sales"
	"posdesk/pkg/logger"
)

// Source loads reference lists from the backend.
type Source interface {
	GetVariants(ctx context.Context) ([]sales.Variant, error)
	GetCustomers(ctx context.Context) ([]sales.Customer, error)
	GetPaymentMethods(ctx context.Context) ([]sales.PaymentMethod, error)
	GetWarehouses(ctx context.Context) ([]sales.Warehouse, error)
}

// Snapshot is a consistent copy of all reference lists.
type Snapshot struct {
	Variants       []sales.Variant       `json:"variants"`
	Customers      []sales.Customer      `json:"customers"`
	PaymentMethods []sales.PaymentMethod `json:"paymentMethods"`
	Warehouses     []sales.Warehouse     `json:"warehouses"`
	LoadedAt       time.Time             `json:"loadedAt"`
}

// Config tunes background refreshing.
type Config struct {
	// Interval between periodic refreshes. Zero disables the loop.
	Interval time.Duration
	// MinGap is the minimum time between two background refreshes.
	MinGap time.Duration
	// Timeout bounds a single refresh.
	Timeout time.Duration
}

// Cache holds the last successfully loaded reference data.
type Cache struct {
	source  Source
	cfg     Config
	limiter *rate.Limiter
	log     *logger.Logger

	mu        sync.RWMutex
	snap      Snapshot
	variants  map[int64]sales.Variant
	customers map[int64]sales.Customer

	refreshing sync.Mutex

	// Lifecycle
	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// New creates an empty cache.
func New(source Source, cfg Config, log *logger.Logger) *Cache {
	if cfg.MinGap <= 0 {
		cfg.MinGap = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.Default()
	}
	return &Cache{
		source:    source,
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Every(cfg.MinGap), 1),
		log:       log.WithComponent("refdata"),
		variants:  make(map[int64]sales.Variant),
		customers: make(map[int64]sales.Customer),
	}
}

// Start loads the reference data once and then keeps refreshing it every
// Interval until Stop. A failed initial load is logged; the cache stays empty
// and the loop retries.
func (c *Cache) Start(ctx context.Context) {
	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	if err := c.Refresh(ctx); err != nil {
		c.log.WithContext(ctx).Warnw("initial reference data load failed", "error", err)
	}
	if c.cfg.Interval <= 0 {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
					c.log.WithContext(ctx).Warnw("periodic reference data refresh failed", "error", err)
				}
			}
		}
	}()
}

// Stop ends the refresh loop and waits for in-flight background refreshes.
func (c *Cache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// Refresh fetches the four lists in parallel and swaps them in atomically.
// On error the previous data is kept.
func (c *Cache) Refresh(ctx context.Context) error {
	c.refreshing.Lock()
	defer c.refreshing.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var next Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		next.Variants, err = c.source.GetVariants(gctx)
		return wrap("variants", err)
	})
	g.Go(func() (err error) {
		next.Customers, err = c.source.GetCustomers(gctx)
		return wrap("customers", err)
	})
	g.Go(func() (err error) {
		next.PaymentMethods, err = c.source.GetPaymentMethods(gctx)
		return wrap("payment methods", err)
	})
	g.Go(func() (err error) {
		next.Warehouses, err = c.source.GetWarehouses(gctx)
		return wrap("warehouses", err)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	next.LoadedAt = time.Now()

	variants := make(map[int64]sales.Variant, len(next.Variants))
	for _, v := range next.Variants {
		variants[v.ID] = v
	}
	customers := make(map[int64]sales.Customer, len(next.Customers))
	for _, cu := range next.Customers {
		customers[cu.ID] = cu
	}

	c.mu.Lock()
	c.snap, c.variants, c.customers = next, variants, customers
	c.mu.Unlock()

	c.log.WithContext(ctx).Debugw("reference data refreshed",
		"variants", len(next.Variants),
		"customers", len(next.Customers),
		"payment_methods", len(next.PaymentMethods),
		"warehouses", len(next.Warehouses),
	)
	return nil
}

// RefreshAsync refreshes in the background. Calls closer together than MinGap
// are dropped. Failures are logged and never reported to the caller.
func (c *Cache) RefreshAsync(ctx context.Context) bool {
	if !c.limiter.Allow() {
		return false
	}
	ctx = context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.Refresh(ctx); err != nil {
			c.log.WithContext(ctx).Warnw("background reference data refresh failed", "error", err)
		}
	}()
	return true
}

// Wait blocks until background refreshes started so far have finished.
func (c *Cache) Wait() { c.wg.Wait() }

// Snapshot returns a copy of all lists.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Variants:       append([]sales.Variant(nil), c.snap.Variants...),
		Customers:      append([]sales.Customer(nil), c.snap.Customers...),
		PaymentMethods: append([]sales.PaymentMethod(nil), c.snap.PaymentMethods...),
		Warehouses:     append([]sales.Warehouse(nil), c.snap.Warehouses...),
		LoadedAt:       c.snap.LoadedAt,
	}
}

// PaymentMethods returns the known payment methods in backend order.
func (c *Cache) PaymentMethods() []sales.PaymentMethod {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]sales.PaymentMethod(nil), c.snap.PaymentMethods...)
}

// Variant looks up a variant by id.
func (c *Cache) Variant(variantID int64) (sales.Variant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.variants[variantID]
	return v, ok
}

// VariantByBarcode looks up a variant by its barcode.
func (c *Cache) VariantByBarcode(barcode string) (sales.Variant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.snap.Variants {
		if v.Barcode != "" && v.Barcode == barcode {
			return v, true
		}
	}
	return sales.Variant{}, false
}

// Customer looks up a customer by id.
func (c *Cache) Customer(customerID int64) (*sales.Customer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cu, ok := c.customers[customerID]
	if !ok {
		return nil, false
	}
	return &cu, true
}

// Stock returns the quantity of variantID on hand in warehouseID (nil = all
// warehouses). Unknown variants have no stock.
func (c *Cache) Stock(variantID int64, warehouseID *int64) int {
	v, ok := c.Variant(variantID)
	if !ok {
		return 0
	}
	return v.StockIn(warehouseID)
}

func wrap(list string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", list, err)
	}
	return nil
}
