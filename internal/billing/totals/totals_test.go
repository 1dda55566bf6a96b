package totals

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(desc, qty, price string) LineItem {
	return LineItem{Description: desc, Quantity: d(qty), UnitPrice: d(price)}
}

func TestComputePercentageDiscountWithTax(t *testing.T) {
	got, err := Compute(
		[]LineItem{line("consulting", "2", "50")},
		DiscountSpec{Type: DiscountPercentage, Value: d("10")},
		d("18"),
	)
	require.NoError(t, err)
	assert.True(t, got.Subtotal.Equal(d("100")), "subtotal = %s", got.Subtotal)
	assert.True(t, got.DiscountAmount.Equal(d("10")), "discount = %s", got.DiscountAmount)
	assert.True(t, got.TaxableBase.Equal(d("90")), "base = %s", got.TaxableBase)
	assert.True(t, got.TaxAmount.Equal(d("16.2")), "tax = %s", got.TaxAmount)
	assert.True(t, got.Total.Equal(d("106.2")), "total = %s", got.Total)
}

func TestComputeFixedDiscountClampedToSubtotal(t *testing.T) {
	got, err := Compute(
		[]LineItem{line("widget", "1", "100")},
		DiscountSpec{Type: DiscountFixed, Value: d("500")},
		decimal.Zero,
	)
	require.NoError(t, err)
	assert.True(t, got.DiscountAmount.Equal(d("100")), "discount = %s", got.DiscountAmount)
	assert.True(t, got.Total.IsZero(), "total = %s", got.Total)
}

func TestComputeIsDeterministic(t *testing.T) {
	lines := []LineItem{
		line("design", "3.5", "1200.75"),
		line("hosting", "12", "499.99"),
	}
	disc := DiscountSpec{Type: DiscountPercentage, Value: d("7.5")}

	first, err := Compute(lines, disc, d("18"))
	require.NoError(t, err)
	second, err := Compute(lines, disc, d("18"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeDoesNotMutateLines(t *testing.T) {
	lines := []LineItem{line("design", "2", "100")}
	snapshot := lines[0]
	_, err := Compute(lines, DiscountSpec{Type: DiscountFixed, Value: d("10")}, d("18"))
	require.NoError(t, err)
	assert.Equal(t, snapshot, lines[0])
}

func TestComputeTotalNeverNegative(t *testing.T) {
	cases := []DiscountSpec{
		{Type: DiscountFixed, Value: d("99999")},
		{Type: DiscountPercentage, Value: d("100")},
	}
	for _, disc := range cases {
		got, err := Compute([]LineItem{line("x", "1", "50")}, disc, d("18"))
		require.NoError(t, err)
		assert.False(t, got.Total.IsNegative())
		assert.False(t, got.TaxAmount.IsNegative())
		assert.True(t, got.Total.GreaterThanOrEqual(got.Subtotal.Sub(got.DiscountAmount)))
	}
}

func TestComputeRejectsMalformedLines(t *testing.T) {
	tests := []struct {
		name string
		li   LineItem
		want error
	}{
		{"missing description", line("", "1", "10"), ErrInvalidLine},
		{"zero quantity", line("x", "0", "10"), ErrInvalidLine},
		{"negative quantity", line("x", "-1", "10"), ErrInvalidLine},
		{"negative price", line("x", "1", "-10"), ErrInvalidLine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute([]LineItem{tt.li}, DiscountSpec{Type: DiscountFixed}, decimal.Zero)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestComputeRejectsBadSpecs(t *testing.T) {
	_, err := Compute([]LineItem{line("x", "1", "10")}, DiscountSpec{Type: DiscountFixed, Value: d("-5")}, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = Compute([]LineItem{line("x", "1", "10")}, DiscountSpec{Type: DiscountFixed}, d("101"))
	assert.ErrorIs(t, err, ErrInvalidTaxRate)

	_, err = Compute([]LineItem{line("x", "1", "10")}, DiscountSpec{Type: DiscountFixed}, d("-1"))
	assert.ErrorIs(t, err, ErrInvalidTaxRate)
}

func TestComputeEmptyLinesYieldZeroTotals(t *testing.T) {
	got, err := Compute(nil, DiscountSpec{Type: DiscountFixed}, d("18"))
	require.NoError(t, err)
	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.Total.IsZero())
}

func TestDisplayRateMatchesStoredRateWithoutDiscount(t *testing.T) {
	got, err := Compute([]LineItem{line("x", "1", "1000")}, DiscountSpec{Type: DiscountFixed}, d("18"))
	require.NoError(t, err)
	assert.True(t, DisplayRate(got).Equal(d("18")))

	drift, exceeded := RateDrift(got, d("18"))
	assert.False(t, exceeded, "drift = %s", drift)
}

func TestRateDriftFlagsTamperedTax(t *testing.T) {
	got, err := Compute([]LineItem{line("x", "1", "1000")}, DiscountSpec{Type: DiscountFixed}, d("18"))
	require.NoError(t, err)

	// Simulate stored amounts drifting from the stored rate.
	got.TaxAmount = d("120")
	drift, exceeded := RateDrift(got, d("18"))
	assert.True(t, exceeded)
	assert.True(t, drift.GreaterThan(d("5")))
}

func TestDisplayRateZeroWhenNoTax(t *testing.T) {
	got, err := Compute([]LineItem{line("x", "1", "1000")}, DiscountSpec{Type: DiscountFixed}, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, DisplayRate(got).IsZero())
}
