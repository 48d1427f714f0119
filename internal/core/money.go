// Package core provides money parsing and the totals kept by the dashboard.
//
// Amounts are decimal values end to end. Floats never enter an aggregation,
// so entries minus expenses is exact at any scale.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Totals holds the unformatted highlight figures for one load.
type Totals struct {
	Entries  decimal.Decimal
	Expenses decimal.Decimal
}

// ParseAmount converts an amount string to a decimal.
//
// It accepts a dot (12.34) or a single comma (12,34) as decimal separator.
// Grouping separators, currency symbols and non-finite values are rejected.
//
// Examples:
//
//	ParseAmount("12000")  -> 12000, nil
//	ParseAmount("59,90")  -> 59.90, nil
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	// decimal accepts exponents; stored amounts never carry one.
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// Add classifies amount by typ and accumulates it.
func (t *Totals) Add(typ TransactionType, amount decimal.Decimal) {
	if typ == Positive {
		t.Entries = t.Entries.Add(amount)
		return
	}
	t.Expenses = t.Expenses.Add(amount)
}

// Net returns entries minus expenses.
func (t Totals) Net() decimal.Decimal {
	return t.Entries.Sub(t.Expenses)
}
