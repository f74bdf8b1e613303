package money

import "testing"

func TestFormatCents(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{100, "$1.00"},
		{123456, "$1,234.56"},
		{500000, "$5,000.00"},
		{-2500, "-$25.00"},
		{100000000, "$1,000,000.00"},
	}
	for _, c := range cases {
		if got := FormatCents(c.cents); got != c.want {
			t.Fatalf("FormatCents(%d) = %q, want %q", c.cents, got, c.want)
		}
	}
}

func TestParseCurrencyToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"$1,234.56", 123456, true},
		{"1234.56", 123456, true},
		{"  $50 ", 5000, true},
		{"50.005", 5001, true},
		{"-$25.00", -2500, true},
		{"over $100", 10000, true},
		{"", 0, false},
		{"no digits", 0, false},
		{"$", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseCurrencyToCents(c.in)
		if ok != c.ok {
			t.Fatalf("ParseCurrencyToCents(%q) ok = %v, want %v", c.in, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("ParseCurrencyToCents(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
