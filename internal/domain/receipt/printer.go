package receipt

import (
	"context"

	"posdesk/internal/domain/sales"
)

// Printer prints a receipt in the given mode.
type Printer interface {
	PrintReceipt(ctx context.Context, r Receipt, mode sales.PrintMode) error
}

// DocumentPrinter prints an HTML document, e.g. the backend's printDocument.
type DocumentPrinter interface {
	PrintDocument(ctx context.Context, html string, mode sales.PrintMode) error
}

// Device accepts raw printer bytes.
type Device interface {
	Print(data []byte) error
}

// Encoder turns a receipt into device bytes.
type Encoder func(Receipt) []byte

// NewDocumentPrinter prints receipts as HTML through doc.
func NewDocumentPrinter(doc DocumentPrinter) Printer {
	return &documentPrinter{doc: doc}
}

type documentPrinter struct {
	doc DocumentPrinter
}

func (p *documentPrinter) PrintReceipt(ctx context.Context, r Receipt, mode sales.PrintMode) error {
	html, err := HTML(r)
	if err != nil {
		return err
	}
	return p.doc.PrintDocument(ctx, html, mode)
}

// NewDevicePrinter prints receipts on a local device. The device has no preview,
// so both print modes write to it.
func NewDevicePrinter(dev Device, encode Encoder) Printer {
	return &devicePrinter{dev: dev, encode: encode}
}

type devicePrinter struct {
	dev    Device
	encode Encoder
}

func (p *devicePrinter) PrintReceipt(ctx context.Context, r Receipt, _ sales.PrintMode) error {
	data := p.encode(r)
	done := make(chan error, 1)
	go func() { done <- p.dev.Print(data) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Func adapts a function to Printer.
type Func func(ctx context.Context, r Receipt, mode sales.PrintMode) error

// PrintReceipt calls f.
func (f Func) PrintReceipt(ctx context.Context, r Receipt, mode sales.PrintMode) error {
	return f(ctx, r, mode)
}
