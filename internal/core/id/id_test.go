package id

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Unique(t *testing.T) {
	a, b := New(), New()
	assert.NotEqual(t, a, b)
	assert.False(t, IsNil(a))
}

func TestEditIDs(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "EDIT-SALE-42-1700000000123", EditSale(42, at))
	assert.Equal(t, "EDIT-PAYMENT-7-1700000000123", EditPayment(7, at))
	assert.True(t, strings.HasPrefix(EditSale(1, time.Now()), "EDIT-SALE-1-"))
}

func TestIsNil(t *testing.T) {
	assert.True(t, IsNil(""))
	assert.True(t, IsNil("00000000-0000-0000-0000-000000000000"))
	assert.False(t, IsNil("EDIT-SALE-1-1"))
}
