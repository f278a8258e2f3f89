package refdata

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posdesk/internal/domain/sales"
	"posdesk/pkg/logger"
)

type fakeSource struct {
	calls          atomic.Int32
	VariantsFunc   func() ([]sales.Variant, error)
	CustomersFunc  func() ([]sales.Customer, error)
	MethodsFunc    func() ([]sales.PaymentMethod, error)
	WarehousesFunc func() ([]sales.Warehouse, error)
}

func (f *fakeSource) GetVariants(context.Context) ([]sales.Variant, error) {
	f.calls.Add(1)
	if f.VariantsFunc != nil {
		return f.VariantsFunc()
	}
	return []sales.Variant{
		{ID: 10, ProductName: "Shirt", Barcode: "111", Quantity: 7, WarehouseStock: map[int64]int{1: 3, 2: 4}},
	}, nil
}

func (f *fakeSource) GetCustomers(context.Context) ([]sales.Customer, error) {
	if f.CustomersFunc != nil {
		return f.CustomersFunc()
	}
	return []sales.Customer{{ID: 5, Name: "Mona"}}, nil
}

func (f *fakeSource) GetPaymentMethods(context.Context) ([]sales.PaymentMethod, error) {
	if f.MethodsFunc != nil {
		return f.MethodsFunc()
	}
	return []sales.PaymentMethod{{ID: 1, Name: "Cash", Code: "cash"}}, nil
}

func (f *fakeSource) GetWarehouses(context.Context) ([]sales.Warehouse, error) {
	if f.WarehousesFunc != nil {
		return f.WarehousesFunc()
	}
	return []sales.Warehouse{{ID: 1, Name: "Main", IsDefault: true}}, nil
}

func TestCache_Refresh(t *testing.T) {
	c := New(&fakeSource{}, Config{}, logger.Nop())

	require.NoError(t, c.Refresh(context.Background()))

	snap := c.Snapshot()
	assert.Len(t, snap.Variants, 1)
	assert.Len(t, snap.PaymentMethods, 1)
	assert.False(t, snap.LoadedAt.IsZero())

	cu, ok := c.Customer(5)
	require.True(t, ok)
	assert.Equal(t, "Mona", cu.Name)

	v, ok := c.VariantByBarcode("111")
	require.True(t, ok)
	assert.Equal(t, int64(10), v.ID)
}

func TestCache_Stock(t *testing.T) {
	c := New(&fakeSource{}, Config{}, logger.Nop())
	require.NoError(t, c.Refresh(context.Background()))

	one, nine := int64(1), int64(9)
	assert.Equal(t, 7, c.Stock(10, nil))
	assert.Equal(t, 3, c.Stock(10, &one))
	assert.Equal(t, 0, c.Stock(10, &nine))
	assert.Equal(t, 0, c.Stock(99, nil))
}

func TestCache_FailedRefreshKeepsPreviousData(t *testing.T) {
	src := &fakeSource{}
	c := New(src, Config{}, logger.Nop())
	require.NoError(t, c.Refresh(context.Background()))

	src.CustomersFunc = func() ([]sales.Customer, error) { return nil, errors.New("timeout") }
	err := c.Refresh(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load customers")
	_, ok := c.Customer(5)
	assert.True(t, ok)
}

func TestCache_RefreshAsyncIsThrottled(t *testing.T) {
	src := &fakeSource{}
	c := New(src, Config{MinGap: time.Hour}, logger.Nop())

	assert.True(t, c.RefreshAsync(context.Background()))
	assert.False(t, c.RefreshAsync(context.Background()))
	c.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	_, ok := c.Variant(10)
	assert.True(t, ok)
}

func TestCache_RefreshAsyncFailureIsSwallowed(t *testing.T) {
	src := &fakeSource{VariantsFunc: func() ([]sales.Variant, error) { return nil, errors.New("down") }}
	c := New(src, Config{}, logger.Nop())

	assert.True(t, c.RefreshAsync(context.Background()))
	c.Wait()

	assert.Empty(t, c.Snapshot().Variants)
}

func TestCache_StartStop(t *testing.T) {
	src := &fakeSource{}
	c := New(src, Config{Interval: 10 * time.Millisecond}, logger.Nop())

	c.Start(context.Background())
	assert.Eventually(t, func() bool { return src.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	c.Stop()

	after := src.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, src.calls.Load())
}
