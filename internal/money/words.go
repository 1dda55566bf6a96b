package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var onesWords = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tensWords = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// ToWords converts a monetary amount into Indian-scale English words
// (Crore, Lakh, Thousand, Hundred) with a paise clause when the fractional
// part is nonzero. The amount is converted to integer paise before any
// decomposition, so a fraction that rounds up to a whole rupee carries into
// the rupee part instead of emitting "One Hundred Paise".
func ToWords(amount decimal.Decimal) string {
	paise := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if paise == 0 {
		return "Zero Rupees Only"
	}

	prefix := ""
	if paise < 0 {
		prefix = "Minus "
		paise = -paise
	}

	rupees := paise / 100
	frac := paise % 100

	var b strings.Builder
	b.WriteString(prefix)
	if rupees > 0 {
		b.WriteString(indianWords(rupees))
		b.WriteString(" Rupees")
		if frac > 0 {
			b.WriteString(" and ")
		}
	}
	if frac > 0 {
		b.WriteString(under100(frac))
		b.WriteString(" Paise")
	}
	b.WriteString(" Only")
	return b.String()
}

// ToWordsFloat is ToWords for raw float inputs.
func ToWordsFloat(v float64) string {
	return ToWords(decimal.NewFromFloat(v))
}

func indianWords(n int64) string {
	var parts []string
	if n >= 1_00_00_000 {
		parts = append(parts, indianWords(n/1_00_00_000)+" Crore")
		n %= 1_00_00_000
	}
	if n >= 1_00_000 {
		parts = append(parts, under100(n/1_00_000)+" Lakh")
		n %= 1_00_000
	}
	if n >= 1_000 {
		parts = append(parts, under100(n/1_000)+" Thousand")
		n %= 1_000
	}
	if n >= 100 {
		parts = append(parts, onesWords[n/100]+" Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, under100(n))
	}
	return strings.Join(parts, " ")
}

func under100(n int64) string {
	if n < 20 {
		return onesWords[n]
	}
	if n%10 == 0 {
		return tensWords[n/10]
	}
	return tensWords[n/10] + " " + onesWords[n%10]
}
