// Package money formats monetary amounts for documents: locale-aware
// currency strings and Indian-scale amount-in-words conversion.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Placeholder is rendered when an amount cannot be formatted.
const Placeholder = "—"

var symbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Format renders an amount with its currency symbol. INR amounts use Indian
// digit grouping (groups of two after the first three). Unknown currency
// codes fall back to the normalised ISO code as prefix. Format never panics.
func Format(amount decimal.Decimal, code string) string {
	code = normalizeCode(code)
	grouped := groupDigits(amount.Round(2).StringFixed(2), code == "INR")
	if sym, ok := symbols[code]; ok {
		return sym + grouped
	}
	if code == "" {
		return grouped
	}
	return code + " " + grouped
}

// Group returns the amount with digit grouping but without a currency
// symbol, for sinks that supply the currency themselves (PDF core fonts,
// spreadsheet cell formats).
func Group(amount decimal.Decimal, code string) string {
	return groupDigits(amount.Round(2).StringFixed(2), normalizeCode(code) == "INR")
}

// FormatFloat is Format for raw float inputs as received from storage DTOs.
// NaN and infinities yield the placeholder instead of garbage.
func FormatFloat(v float64, code string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Placeholder
	}
	return Format(decimal.NewFromFloat(v), code)
}

func normalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "INR"
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return code
	}
	return unit.String()
}

// groupDigits inserts thousands separators into a fixed-point decimal string.
// Indian grouping places a separator after the last three integer digits and
// then every two digits: 12,34,567.89.
func groupDigits(s string, indian bool) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(groupInt(intPart, indian))
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}

func groupInt(digits string, indian bool) string {
	if len(digits) <= 3 {
		return digits
	}
	if !indian {
		var parts []string
		for len(digits) > 3 {
			parts = append([]string{digits[len(digits)-3:]}, parts...)
			digits = digits[:len(digits)-3]
		}
		return digits + "," + strings.Join(parts, ",")
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(parts, ",") + "," + tail
}
