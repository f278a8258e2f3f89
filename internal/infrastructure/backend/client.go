// Package backend is the HTTP client of the shop backend API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"posdesk/internal/core/apperror"
	appctx "posdesk/internal/core/context"
	"posdesk/internal/domain/checkout"
	"posdesk/internal/domain/receipt"
	"posdesk/internal/domain/refdata"
	"posdesk/internal/domain/sales"
)

var tracer = otel.Tracer("posdesk/backend")

// maxBody bounds how much of a response is read.
const maxBody = 16 << 20

// Config configures the client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Token, when set, is sent as a bearer token.
	Token string
}

// Client talks to the backend. Every call returns either the record or an
// AppError carrying the backend's {error} message verbatim.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
	}
}

// --- Sales ---

// CreateSale implements createSale.
func (c *Client) CreateSale(ctx context.Context, p sales.SalePayload) (sales.Sale, error) {
	var out sales.Sale
	err := c.do(ctx, "createSale", http.MethodPost, "/api/sales", p, &out)
	return out, err
}

// UpdateSale implements updateSale.
func (c *Client) UpdateSale(ctx context.Context, saleID int64, p sales.SalePayload) (sales.Sale, error) {
	var out sales.Sale
	err := c.do(ctx, "updateSale", http.MethodPut, "/api/sales/"+strconv.FormatInt(saleID, 10), p, &out)
	return out, err
}

// GetSaleByID implements getSaleById.
func (c *Client) GetSaleByID(ctx context.Context, saleID int64) (sales.Sale, error) {
	var out sales.Sale
	err := c.do(ctx, "getSaleById", http.MethodGet, "/api/sales/"+strconv.FormatInt(saleID, 10), nil, &out)
	return out, err
}

// --- Payments ---

// CreatePayment implements createPayment.
func (c *Client) CreatePayment(ctx context.Context, p sales.PaymentPayload) (sales.Payment, error) {
	var out sales.Payment
	err := c.do(ctx, "createPayment", http.MethodPost, "/api/payments", p, &out)
	return out, err
}

// UpdatePayment implements updatePayment.
func (c *Client) UpdatePayment(ctx context.Context, paymentID int64, p sales.PaymentPayload) (sales.Payment, error) {
	var out sales.Payment
	err := c.do(ctx, "updatePayment", http.MethodPut, "/api/payments/"+strconv.FormatInt(paymentID, 10), p, &out)
	return out, err
}

// --- Reference data ---

func (c *Client) GetVariants(ctx context.Context) ([]sales.Variant, error) {
	var out []sales.Variant
	err := c.do(ctx, "getVariants", http.MethodGet, "/api/variants", nil, &out)
	return out, err
}

func (c *Client) GetCustomers(ctx context.Context) ([]sales.Customer, error) {
	var out []sales.Customer
	err := c.do(ctx, "getCustomers", http.MethodGet, "/api/customers", nil, &out)
	return out, err
}

func (c *Client) GetPaymentMethods(ctx context.Context) ([]sales.PaymentMethod, error) {
	var out []sales.PaymentMethod
	err := c.do(ctx, "getPaymentMethods", http.MethodGet, "/api/payment-methods", nil, &out)
	return out, err
}

func (c *Client) GetWarehouses(ctx context.Context) ([]sales.Warehouse, error) {
	var out []sales.Warehouse
	err := c.do(ctx, "getWarehouses", http.MethodGet, "/api/warehouses", nil, &out)
	return out, err
}

// --- Printing ---

type printRequest struct {
	HTML    string `json:"html"`
	Silent  bool   `json:"silent"`
	Preview bool   `json:"preview"`
}

// PrintDocument implements printDocument.
func (c *Client) PrintDocument(ctx context.Context, html string, mode sales.PrintMode) error {
	req := printRequest{
		HTML:    html,
		Silent:  mode == sales.PrintSilent,
		Preview: mode == sales.PrintPreview,
	}
	return c.do(ctx, "printDocument", http.MethodPost, "/api/print", req, nil)
}

// --- transport ---

// envelope is the loosest response shape the backend uses: an {error} object,
// a {data} wrapper, or the bare record.
type envelope struct {
	Error   *string         `json:"error"`
	Data    json.RawMessage `json:"data"`
	Success *bool           `json:"success"`
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	ctx, span := tracer.Start(ctx, "backend."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		))
	defer span.End()

	err := c.roundTrip(ctx, method, path, body, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.UserMessage(err))
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if term := appctx.GetTerminal(ctx); term != nil {
		req.Header.Set("X-Terminal-ID", term.TerminalID)
	}
	if id := appctx.GetRequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperror.NewBackend("The server did not respond in time").WithCause(err)
		}
		return apperror.NewBackend("Could not reach the server").WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return apperror.NewBackend("Could not read the server response").WithCause(err)
	}
	return decode(resp.StatusCode, raw, out)
}

func decode(status int, raw []byte, out any) error {
	raw = bytes.TrimSpace(raw)

	var env envelope
	isObject := len(raw) > 0 && raw[0] == '{'
	if isObject {
		if err := json.Unmarshal(raw, &env); err != nil {
			return apperror.NewBackend("Invalid server response").WithCause(err)
		}
		if env.Error != nil && *env.Error != "" {
			return apperror.NewBackend(*env.Error).WithDetail("status", status)
		}
	}
	if status < 200 || status >= 300 {
		msg := http.StatusText(status)
		if !isObject && len(raw) > 0 && len(raw) < 512 {
			msg = string(raw)
		}
		return apperror.NewBackend(msg).WithDetail("status", status)
	}
	if env.Success != nil && !*env.Success {
		return apperror.NewBackend("The server rejected the request")
	}
	if out == nil || len(raw) == 0 {
		return nil
	}

	payload := raw
	if isObject && len(env.Data) > 0 && string(env.Data) != "null" {
		payload = env.Data
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperror.NewBackend("Invalid server response").WithCause(err)
	}
	return nil
}

// Ensure interface compliance at compile time.
var (
	_ checkout.Backend        = (*Client)(nil)
	_ refdata.Source          = (*Client)(nil)
	_ receipt.DocumentPrinter = (*Client)(nil)
)
