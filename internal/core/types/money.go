// Package types provides common type aliases and utilities.
package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits sent to the backend.
const MoneyScale int32 = 2

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromInt creates a Money value from a whole amount.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// MaxMoney returns the larger of a and b.
func MaxMoney(a, b Money) Money {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Round rounds m to MoneyScale digits.
func Round(m Money) Money {
	return m.Round(MoneyScale)
}

// ParseAmount is the single boundary between user-typed amount strings and Money.
//
// The second result reports whether the user typed anything at all: an empty or
// whitespace-only input returns (0, false) so callers can apply their own inferred
// default. Any non-empty input returns true; text that does not parse as a number
// yields zero. Arabic-Indic digits, the Arabic decimal separator, thousands
// separators and currency labels are accepted.
func ParseAmount(raw string) (Money, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(normalizeAmount(s))
	if err != nil {
		return decimal.Zero, true
	}
	return d, true
}

// ErrEmptyAmount is returned by ParseAmountStrict for blank input.
var ErrEmptyAmount = errors.New("empty amount")

// ParseAmountStrict parses input that must hold a number. Blank input and text
// without a parsable number are errors; formatting is accepted as in ParseAmount.
func ParseAmountStrict(raw string) (Money, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	d, err := decimal.NewFromString(normalizeAmount(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return d, nil
}

// ParseAmountOrZero parses raw and treats an empty input as zero.
func ParseAmountOrZero(raw string) Money {
	d, _ := ParseAmount(raw)
	return d
}

// FormatAmount renders m the way amounts are stored in draft input fields.
func FormatAmount(m Money) string {
	return m.Round(MoneyScale).String()
}

func normalizeAmount(s string) string {
	runes := []rune(s)
	neg := false
	seenDigit := false
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		if d, ok := asciiDigit(r); ok {
			b.WriteRune(d)
			seenDigit = true
			continue
		}
		switch {
		case r == '.' || r == '٫':
			// A dot inside a currency label ("ج.م") is not a decimal point.
			if i+1 < len(runes) {
				if _, ok := asciiDigit(runes[i+1]); ok {
					b.WriteRune('.')
				}
			}
		case r == '-' && !seenDigit:
			neg = true
		}
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func asciiDigit(r rune) (rune, bool) {
	switch {
	case r >= '0' && r <= '9':
		return r, true
	case r >= '٠' && r <= '٩':
		return '0' + (r - '٠'), true
	case r >= '۰' && r <= '۹':
		return '0' + (r - '۰'), true
	}
	return 0, false
}
