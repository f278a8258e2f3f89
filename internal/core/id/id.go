// Package id provides identifier generation for invoice drafts.
// Fresh drafts get a UUIDv7; edit drafts get a deterministic prefix derived
// from the record they edit so duplicate-open detection can key on the source.
package id

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	editSalePrefix    = "EDIT-SALE"
	editPaymentPrefix = "EDIT-PAYMENT"
)

// New generates a new UUIDv7 (time-ordered UUID) string.
func New() string {
	v, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		return uuid.New().String()
	}
	return v.String()
}

// EditSale returns the draft id for editing sale saleID, e.g. "EDIT-SALE-42-1700000000000".
func EditSale(saleID int64, at time.Time) string {
	return fmt.Sprintf("%s-%d-%d", editSalePrefix, saleID, at.UnixMilli())
}

// EditPayment returns the draft id for editing payment paymentID.
func EditPayment(paymentID int64, at time.Time) string {
	return fmt.Sprintf("%s-%d-%d", editPaymentPrefix, paymentID, at.UnixMilli())
}

// IsNil reports whether s is empty or the zero UUID.
func IsNil(s string) bool {
	return s == "" || s == uuid.Nil.String()
}
