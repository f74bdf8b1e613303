// Package money handles currency amounts. Amounts are carried as int64 cents
// everywhere; formatting to display strings happens only at the edges.
package money

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatCents renders cents as a US dollar string with grouping, e.g.
// 123456 -> "$1,234.56". Negative amounts render as "-$12.34".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	dollars := cents / 100
	rem := cents % 100
	return usPrinter.Sprintf("%s$%d.%02d", sign, dollars, rem)
}

// ParseCurrencyToCents parses a human-entered currency string into cents.
// Currency symbols, grouping separators and surrounding text are stripped;
// only digits, the decimal point and a leading minus survive. Fractions are
// rounded to the nearest cent. Returns false when nothing numeric remains.
func ParseCurrencyToCents(s string) (int64, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" {
		return 0, false
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(f * 100)), true
}
