package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatIndianGrouping(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		code   string
		want   string
	}{
		{"under a thousand", "999.50", "INR", "₹999.50"},
		{"thousands", "1234.00", "INR", "₹1,234.00"},
		{"lakhs", "123456.78", "INR", "₹1,23,456.78"},
		{"crores", "12345678.90", "INR", "₹1,23,45,678.90"},
		{"negative", "-1234567.89", "INR", "-₹12,34,567.89"},
		{"western grouping for USD", "1234567.89", "USD", "$1,234,567.89"},
		{"unknown code prefix", "1000.00", "XAU", "XAU 1,000.00"},
		{"blank code defaults to INR", "100.00", "", "₹100.00"},
		{"lowercase code normalised", "100.00", "inr", "₹100.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amt := decimal.RequireFromString(tt.amount)
			assert.Equal(t, tt.want, Format(amt, tt.code))
		})
	}
}

func TestFormatFloatRejectsNonFinite(t *testing.T) {
	assert.Equal(t, Placeholder, FormatFloat(math.NaN(), "INR"))
	assert.Equal(t, Placeholder, FormatFloat(math.Inf(1), "INR"))
	assert.Equal(t, Placeholder, FormatFloat(math.Inf(-1), "INR"))
	assert.Equal(t, "₹12.50", FormatFloat(12.5, "INR"))
}

func TestToWords(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"zero", "0", "Zero Rupees Only"},
		{"one", "1", "One Rupees Only"},
		{"teens", "14", "Fourteen Rupees Only"},
		{"hundreds", "567", "Five Hundred Sixty Seven Rupees Only"},
		{
			"lakh decomposition with paise",
			"1234567.89",
			"Twelve Lakh Thirty Four Thousand Five Hundred Sixty Seven Rupees and Eighty Nine Paise Only",
		},
		{"exact lakh", "100000", "One Lakh Rupees Only"},
		{"crore", "10000000", "One Crore Rupees Only"},
		{
			"billions stay exact",
			"1234567890.12",
			"One Hundred Twenty Three Crore Forty Five Lakh Sixty Seven Thousand Eight Hundred Ninety Rupees and Twelve Paise Only",
		},
		{"paise only", "0.05", "Five Paise Only"},
		{"negative", "-12.30", "Minus Twelve Rupees and Thirty Paise Only"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToWords(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestToWordsPaiseCarry(t *testing.T) {
	// 99.999 rounds to 10000 paise; the carry must land in the rupee part
	// rather than producing a "One Hundred Paise" clause.
	got := ToWords(decimal.RequireFromString("99.999"))
	assert.Equal(t, "One Hundred Rupees Only", got)
}

func TestToWordsFloatAvoidsBinaryArtifacts(t *testing.T) {
	// 2.675 is not representable in binary; paise must still round to 268.
	assert.Equal(t, "Two Rupees and Sixty Eight Paise Only", ToWordsFloat(2.675))
}
