package printer

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"posdesk/internal/core/types"
	"posdesk/internal/domain/receipt"
)

// ESC/POS control bytes.
const (
	esc = 0x1B
	gs  = 0x1D
	lf  = 0x0A
)

// Alignment values for ESC a.
const (
	AlignLeft   byte = 0
	AlignCenter byte = 1
	AlignRight  byte = 2
)

// Character sizes for GS !.
const (
	SizeNormal byte = 0x00
	SizeDouble byte = 0x11
)

// Paper widths in characters.
const (
	Width58mm = 32
	Width80mm = 48
)

// Document accumulates an ESC/POS job. Widths are counted in runes.
type Document struct {
	buf   bytes.Buffer
	width int
}

// NewDocument starts a job for a printer width columns wide.
func NewDocument(width int) *Document {
	if width <= 0 {
		width = Width58mm
	}
	d := &Document{width: width}
	d.buf.Write([]byte{esc, '@'})
	return d
}

func (d *Document) Align(a byte) *Document {
	d.buf.Write([]byte{esc, 'a', a})
	return d
}

func (d *Document) Bold(on bool) *Document {
	var b byte
	if on {
		b = 1
	}
	d.buf.Write([]byte{esc, 'E', b})
	return d
}

func (d *Document) Size(s byte) *Document {
	d.buf.Write([]byte{gs, '!', s})
	return d
}

// Line writes s and a line feed.
func (d *Document) Line(s string) *Document {
	d.buf.WriteString(s)
	d.buf.WriteByte(lf)
	return d
}

// Rule writes a full-width line of ch.
func (d *Document) Rule(ch rune) *Document {
	return d.Line(strings.Repeat(string(ch), d.width))
}

// Columns writes left and right on one line, right-aligned to the paper edge.
// A left part too long for the line is truncated.
func (d *Document) Columns(left, right string) *Document {
	room := d.width - utf8.RuneCountInString(right) - 1
	if room < 1 {
		return d.Line(left).Line(right)
	}
	if n := utf8.RuneCountInString(left); n > room {
		left = string([]rune(left)[:room])
	}
	pad := d.width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	return d.Line(left + strings.Repeat(" ", pad) + right)
}

func (d *Document) Feed(n int) *Document {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(lf)
	}
	return d
}

// Cut feeds and performs a partial cut.
func (d *Document) Cut() *Document {
	d.buf.Write([]byte{gs, 'V', 0x01})
	return d
}

func (d *Document) Bytes() []byte { return d.buf.Bytes() }

// Encoder returns a receipt encoder for the given paper width.
func Encoder(width int) receipt.Encoder {
	return func(r receipt.Receipt) []byte { return Format(r, width) }
}

// Format lays out a receipt as an ESC/POS job.
func Format(r receipt.Receipt, width int) []byte {
	d := NewDocument(width)

	d.Align(AlignCenter).Bold(true).Size(SizeDouble).Line(r.Header.StoreName).Size(SizeNormal).Bold(false)
	if r.Header.Address != "" {
		d.Line(r.Header.Address)
	}
	if r.Header.Phone != "" {
		d.Line(r.Header.Phone)
	}
	d.Align(AlignLeft).Rule('-')
	d.Columns("#"+r.InvoiceNo, r.Date)
	if r.Cashier != "" {
		d.Line(r.Cashier)
	}
	if r.Customer != "" {
		d.Line(r.Customer)
	}
	d.Rule('-')

	for _, it := range r.Items {
		name := it.Name
		if it.Variant != "" {
			name += " (" + it.Variant + ")"
		}
		d.Columns(strconv.Itoa(it.Quantity)+"x "+name, types.FormatAmount(it.Total))
	}
	d.Rule('-')

	d.Columns("Subtotal", types.FormatAmount(r.SubTotal))
	if r.Discount.IsPositive() {
		d.Columns("Discount", "-"+types.FormatAmount(r.Discount))
	}
	d.Bold(true).Columns("Total", types.FormatAmount(r.Total)).Bold(false)
	paid := "Paid"
	if r.PaymentMethod != "" {
		paid += " (" + r.PaymentMethod + ")"
	}
	d.Columns(paid, types.FormatAmount(r.Paid))
	if r.Remaining.IsPositive() {
		d.Columns("Remaining", types.FormatAmount(r.Remaining))
	}

	d.Feed(3).Cut()
	return d.Bytes()
}
