// Package dashboard turns the persisted transaction list into the data shown
// on the dashboard screen: formatted transactions and the highlight totals.
package dashboard

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gofinances/internal/core"
	"gofinances/internal/format"
)

// Policy decides what happens to a record that fails validation.
type Policy string

const (
	// PolicyFail aborts the whole load on the first invalid record.
	PolicyFail Policy = "fail"
	// PolicySkip drops invalid records and aggregates the rest.
	PolicySkip Policy = "skip"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyFail, PolicySkip:
		return p, nil
	case "":
		return PolicyFail, nil
	default:
		return "", fmt.Errorf("invalid record policy %q: must be %q or %q", s, PolicyFail, PolicySkip)
	}
}

// SkippedRecord describes a record left out under PolicySkip.
type SkippedRecord struct {
	Index int
	ID    string
	Err   error
}

// Result is the output of one aggregation.
type Result struct {
	Transactions []core.FormattedTransaction
	Highlights   core.HighlightTotals
	Totals       core.Totals
	Skipped      []SkippedRecord
}

// Decode parses the stored payload. A missing value is an empty list.
func Decode(raw string, found bool) ([]core.TransactionRecord, error) {
	if !found || strings.TrimSpace(raw) == "" || strings.TrimSpace(raw) == "null" {
		return nil, nil
	}
	var records []core.TransactionRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, &LoadError{Kind: KindMalformedPayload, Index: -1, Cause: err}
	}
	return records, nil
}

// Aggregate classifies, totals and formats records in input order. It has
// no side effects: equal input yields equal output.
func Aggregate(records []core.TransactionRecord, f format.Formatter, policy Policy) (Result, error) {
	res := Result{Transactions: make([]core.FormattedTransaction, 0, len(records))}

	var lastEntry, lastExpense, newest time.Time
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			if policy == PolicySkip {
				res.Skipped = append(res.Skipped, SkippedRecord{Index: i, ID: rec.ID, Err: err})
				continue
			}
			return Result{}, &LoadError{Kind: KindInvalidRecord, Index: i, RecordID: rec.ID, Cause: err}
		}
		// Validate guarantees both parse.
		amount, _ := rec.ParsedAmount()
		date, _ := rec.ParsedDate()

		res.Totals.Add(rec.Type, amount)
		if rec.Type == core.Positive {
			lastEntry = later(lastEntry, date)
		} else {
			lastExpense = later(lastExpense, date)
		}
		newest = later(newest, date)

		res.Transactions = append(res.Transactions, core.FormattedTransaction{
			ID:       rec.ID,
			Name:     rec.DisplayName(),
			Amount:   f.Currency(amount),
			Type:     rec.Type,
			Category: rec.Category,
			Date:     f.ShortDate(date),
		})
	}

	res.Highlights = core.HighlightTotals{
		Entries: core.Highlight{
			Amount:          f.Currency(res.Totals.Entries),
			LastTransaction: caption(f, format.CaptionLastEntry, lastEntry),
		},
		Expensives: core.Highlight{
			Amount:          f.Currency(res.Totals.Expenses),
			LastTransaction: caption(f, format.CaptionLastExpense, lastExpense),
		},
		Total: core.Highlight{
			Amount:          f.Currency(res.Totals.Net()),
			LastTransaction: caption(f, format.CaptionPeriod, newest),
		},
	}
	return res, nil
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func caption(f format.Formatter, kind format.CaptionKind, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return f.Caption(kind, t)
}
