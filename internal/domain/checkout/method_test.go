package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posdesk/internal/domain/sales"
)

var knownMethods = []sales.PaymentMethod{
	{ID: 4, Name: "Cash", Code: "CASH"},
	{ID: 7, Name: "Visa Card", Code: "card"},
	{ID: 9, Name: "Vodafone Cash", Code: "vodafone_cash"},
}

func TestResolveMethod(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantID int64
	}{
		{name: "numeric id", raw: "7", wantID: 7},
		{name: "numeric id with spaces", raw: " 9 ", wantID: 9},
		{name: "code case-insensitive", raw: "cash", wantID: 4},
		{name: "name with spacing", raw: "visa  card", wantID: 7},
		{name: "alias to code", raw: "Visa", wantID: 7},
		{name: "arabic alias", raw: "نقدي", wantID: 4},
		{name: "underscore and space are equivalent", raw: "Vodafone Cash", wantID: 9},
		{name: "unknown id falls back to first", raw: "99", wantID: 4},
		{name: "unknown text falls back to first", raw: "bitcoin", wantID: 4},
		{name: "empty falls back to first", raw: "", wantID: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveMethod(tt.raw, knownMethods)
			require.NotNil(t, got.ID)
			assert.Equal(t, tt.wantID, *got.ID)
		})
	}
}

func TestResolveMethod_NoKnownMethods(t *testing.T) {
	got := ResolveMethod("Visa", nil)
	assert.Nil(t, got.ID)
	assert.Equal(t, "card", got.Code)

	got = ResolveMethod("", nil)
	assert.Equal(t, "cash", got.Code)
}

func TestCreditMethod(t *testing.T) {
	got := creditMethod(knownMethods)
	assert.Nil(t, got.ID)
	assert.Equal(t, CreditMarker, got.Code)

	got = creditMethod(append(knownMethods, sales.PaymentMethod{ID: 12, Name: "آجل"}))
	require.NotNil(t, got.ID)
	assert.Equal(t, int64(12), *got.ID)
	assert.Equal(t, CreditMarker, got.Code)
}

func TestFeed_Bounded(t *testing.T) {
	f := NewFeed(2)
	f.Push(LevelSuccess, "", "one")
	f.Push(LevelWarning, "", "two")
	f.Push(LevelError, "X", "three")

	got := f.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Message)
	assert.Equal(t, uint64(3), got[1].Seq)
	assert.Zero(t, f.Len())
}
