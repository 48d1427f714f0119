package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"12000", "12000", true},
		{"59", "59", true},
		{"59.90", "59.9", true},
		{"59,90", "59.9", true},
		{" 1200.00 ", "1200", true},
		{"0", "0", true},
		{"-3.5", "-3.5", true},
		{"abc", "", false},
		{"", "", false},
		{"1e3", "", false},
		{"1.2.3", "", false},
		{"1.200,00", "", false},
		{"R$ 10", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestTotalsNet(t *testing.T) {
	var totals Totals
	totals.Add(Positive, decimal.RequireFromString("12000"))
	totals.Add(Negative, decimal.RequireFromString("59"))
	totals.Add(Negative, decimal.RequireFromString("1200"))
	totals.Add(Positive, decimal.RequireFromString("5400"))

	if !totals.Entries.Equal(decimal.RequireFromString("17400")) {
		t.Fatalf("entries = %s", totals.Entries)
	}
	if !totals.Expenses.Equal(decimal.RequireFromString("1259")) {
		t.Fatalf("expenses = %s", totals.Expenses)
	}
	if !totals.Net().Equal(decimal.RequireFromString("16141")) {
		t.Fatalf("net = %s", totals.Net())
	}
}

func TestTotalsExactForCents(t *testing.T) {
	var totals Totals
	for i := 0; i < 10; i++ {
		totals.Add(Positive, decimal.RequireFromString("0.1"))
	}
	totals.Add(Negative, decimal.RequireFromString("0.3"))
	if !totals.Net().Equal(decimal.RequireFromString("0.7")) {
		t.Fatalf("net = %s, want 0.7", totals.Net())
	}
}
