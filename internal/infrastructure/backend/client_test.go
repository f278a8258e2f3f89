package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posdesk/internal/core/apperror"
	appctx "posdesk/internal/core/context"
	"posdesk/internal/core/types"
	"posdesk/internal/domain/sales"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", Timeout: time.Second, Token: "secret"})
}

func TestCreateSale(t *testing.T) {
	var got sales.SalePayload
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sales", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "till-1", r.Header.Get("X-Terminal-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"id": 501, "total": "190", "items": []}`)
	})
	ctx := appctx.WithTerminal(context.Background(), &appctx.Terminal{TerminalID: "till-1"})

	sale, err := c.CreateSale(ctx, sales.SalePayload{Total: types.MustMoney("190"), SaleType: sales.SaleTypeCash})

	require.NoError(t, err)
	assert.Equal(t, int64(501), sale.ID)
	assert.True(t, sale.Total.Equal(types.MustMoney("190")))
	assert.Equal(t, sales.SaleTypeCash, got.SaleType)
	assert.Nil(t, got.WarehouseID)
}

func TestUpdateSale_Path(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/sales/42", r.URL.Path)
		_, _ = io.WriteString(w, `{"data": {"id": 42}}`)
	})

	sale, err := c.UpdateSale(context.Background(), 42, sales.SalePayload{})

	require.NoError(t, err)
	assert.Equal(t, int64(42), sale.ID)
}

func TestBackendErrorMessageIsVerbatim(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "error object with 200", status: http.StatusOK, body: `{"error": "الكمية غير كافية"}`, want: "الكمية غير كافية"},
		{name: "error object with 400", status: http.StatusBadRequest, body: `{"error": "Customer is blocked"}`, want: "Customer is blocked"},
		{name: "plain text 500", status: http.StatusInternalServerError, body: "database is locked", want: "database is locked"},
		{name: "empty 503", status: http.StatusServiceUnavailable, body: "", want: "Service Unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.CreatePayment(context.Background(), sales.PaymentPayload{})

			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeBackend))
			assert.Equal(t, tt.want, apperror.UserMessage(err))
		})
	}
}

func TestReferenceLists(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/variants":
			_, _ = io.WriteString(w, `[{"id":1,"productName":"Shirt","quantity":4,"warehouseStock":{"2":4}}]`)
		case "/api/customers":
			_, _ = io.WriteString(w, `{"data":[{"id":5,"name":"Mona","balance":"10.5","creditLimit":"0"}]}`)
		case "/api/payment-methods":
			_, _ = io.WriteString(w, `[{"id":1,"name":"Cash","code":"cash"}]`)
		case "/api/warehouses":
			_, _ = io.WriteString(w, `[]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	variants, err := c.GetVariants(ctx)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	wh := int64(2)
	assert.Equal(t, 4, variants[0].StockIn(&wh))

	customers, err := c.GetCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.True(t, customers[0].Balance.Equal(types.MustMoney("10.5")))

	methods, err := c.GetPaymentMethods(ctx)
	require.NoError(t, err)
	assert.Len(t, methods, 1)

	warehouses, err := c.GetWarehouses(ctx)
	require.NoError(t, err)
	assert.Empty(t, warehouses)
}

func TestPrintDocument(t *testing.T) {
	var got printRequest
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/print", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"success": true}`)
	})

	require.NoError(t, c.PrintDocument(context.Background(), "<p>x</p>", sales.PrintSilent))
	assert.True(t, got.Silent)
	assert.False(t, got.Preview)
	assert.Equal(t, "<p>x</p>", got.HTML)
}

func TestPrintDocument_Failure(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success": false, "error": "No printer"}`)
	})

	err := c.PrintDocument(context.Background(), "", sales.PrintPreview)
	assert.Equal(t, "No printer", apperror.UserMessage(err))
}

func TestUnreachableServer(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})

	_, err := c.GetSaleByID(context.Background(), 1)

	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBackend))
}
