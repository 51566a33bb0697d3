package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a stored amount string into a decimal value.
//
// Amounts arrive from legacy data in two notations: US ("1,234.56") and
// Brazilian/European ("1.234,56"). Whichever of the last comma or last period
// appears later in the string is treated as the decimal separator; the other
// character is stripped as a thousands separator.
//
// Empty, blank, or unparseable input yields zero. This leniency is load-bearing:
// dirty legacy rows must never abort a balance recalculation.
func ParseAmount(value string) decimal.Decimal {
	s := strings.TrimSpace(value)
	if s == "" {
		return decimal.Zero
	}

	lastComma := strings.LastIndex(s, ",")
	lastPeriod := strings.LastIndex(s, ".")

	if lastComma > -1 && lastComma > lastPeriod {
		// Comma is the decimal separator ("1.234,56")
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		// Period is the decimal separator ("1,234.56")
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders a decimal value in the canonical storage notation:
// comma thousands separators and exactly two fraction digits, rounded
// half-away-from-zero at the second decimal.
func FormatAmount(value decimal.Decimal) string {
	fixed := value.Round(2).StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	if negative {
		fixed = fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	b.WriteByte('.')
	b.WriteString(fracPart)
	return b.String()
}

// FormatAmountPtr renders an optional amount; nil yields the empty string.
func FormatAmountPtr(value *decimal.Decimal) string {
	if value == nil {
		return ""
	}
	return FormatAmount(*value)
}
