// Package totals derives document totals (subtotal, discount, tax, grand
// total) from line items. It is the single numeric source of truth for every
// renderer and report; callers must never re-implement this arithmetic.
package totals

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidLine indicates a malformed line item.
	ErrInvalidLine = errors.New("invalid line item")
	// ErrInvalidDiscount indicates a negative discount value.
	ErrInvalidDiscount = errors.New("invalid discount")
	// ErrInvalidTaxRate indicates a tax rate outside [0,100].
	ErrInvalidTaxRate = errors.New("invalid tax rate")
)

// DiscountType selects how DiscountSpec.Value is applied.
type DiscountType string

const (
	DiscountFixed      DiscountType = "FIXED"
	DiscountPercentage DiscountType = "PERCENTAGE"
)

// LineItem is one billable row. Quantity must be positive and UnitPrice
// non-negative; violations are rejected, never clamped.
type LineItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// Total returns quantity × unit price at full precision.
func (li LineItem) Total() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// DiscountSpec is applied once to the sum of line totals.
type DiscountSpec struct {
	Type  DiscountType
	Value decimal.Decimal
}

// DocumentTotals holds derived amounts at full precision. Values are rounded
// to two decimals at presentation time only.
type DocumentTotals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxableBase    decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Compute derives totals from line items, a discount spec and a tax rate
// percentage. The discount amount is clamped to [0, subtotal] so the taxable
// base never goes negative. Compute is pure: identical inputs always yield
// identical outputs and the line slice is not mutated.
func Compute(lines []LineItem, discount DiscountSpec, taxRate decimal.Decimal) (DocumentTotals, error) {
	for i, li := range lines {
		if li.Description == "" {
			return DocumentTotals{}, fmt.Errorf("%w: line %d: description required", ErrInvalidLine, i+1)
		}
		if !li.Quantity.IsPositive() {
			return DocumentTotals{}, fmt.Errorf("%w: line %d: quantity must be positive", ErrInvalidLine, i+1)
		}
		if li.UnitPrice.IsNegative() {
			return DocumentTotals{}, fmt.Errorf("%w: line %d: unit price must not be negative", ErrInvalidLine, i+1)
		}
	}
	if discount.Value.IsNegative() {
		return DocumentTotals{}, fmt.Errorf("%w: value must not be negative", ErrInvalidDiscount)
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(hundred) {
		return DocumentTotals{}, fmt.Errorf("%w: %s not in [0,100]", ErrInvalidTaxRate, taxRate)
	}

	subtotal := decimal.Zero
	for _, li := range lines {
		subtotal = subtotal.Add(li.Total())
	}

	discountAmount := discount.Value
	if discount.Type == DiscountPercentage {
		discountAmount = subtotal.Mul(discount.Value).Div(hundred)
	}
	if discountAmount.GreaterThan(subtotal) {
		discountAmount = subtotal
	}
	if discountAmount.IsNegative() {
		discountAmount = decimal.Zero
	}

	base := subtotal.Sub(discountAmount)
	tax := base.Mul(taxRate).Div(hundred)

	return DocumentTotals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxableBase:    base,
		TaxAmount:      tax,
		Total:          base.Add(tax),
	}, nil
}

// DisplayRate reverse-derives the tax rate implied by the computed amounts,
// rounded to a whole percentage point. It exists only as a consistency
// cross-check against the stored rate; renderers print the stored rate.
func DisplayRate(t DocumentTotals) decimal.Decimal {
	if !t.TaxAmount.IsPositive() || !t.TaxableBase.IsPositive() {
		return decimal.Zero
	}
	return t.TaxAmount.Div(t.TaxableBase).Mul(hundred).Round(0)
}

// RateTolerance is the permitted drift, in percentage points, between the
// stored tax rate and the rate implied by the computed amounts.
var RateTolerance = decimal.NewFromFloat(0.5)

// RateDrift reports the absolute drift between the stored rate and the
// implied rate, and whether it exceeds RateTolerance. Drift beyond tolerance
// is a data-consistency warning, never a rendering failure.
func RateDrift(t DocumentTotals, storedRate decimal.Decimal) (decimal.Decimal, bool) {
	if !t.TaxableBase.IsPositive() {
		return decimal.Zero, false
	}
	implied := t.TaxAmount.Div(t.TaxableBase).Mul(hundred)
	drift := implied.Sub(storedRate).Abs()
	return drift, drift.GreaterThan(RateTolerance)
}
