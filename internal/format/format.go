// Package format renders amounts and dates for display.
//
// Aggregation code depends only on the Formatter interface, so it stays
// locale agnostic. Locale is the production implementation, built on
// golang.org/x/text for currency symbols and number grouping.
package format

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	DefaultLocale   = "pt-BR"
	DefaultCurrency = "BRL"
)

// CaptionKind selects the caption shown under a highlight card.
type CaptionKind int

const (
	CaptionLastEntry CaptionKind = iota
	CaptionLastExpense
	CaptionPeriod
)

// Formatter turns numeric and date values into display text.
type Formatter interface {
	Currency(amount decimal.Decimal) string
	ShortDate(t time.Time) string
	LongDate(t time.Time) string
	// Caption renders the highlight caption for kind anchored at t.
	Caption(kind CaptionKind, t time.Time) string
	Locale() string
}

// Locale formats according to a BCP 47 language tag and an ISO 4217 currency.
type Locale struct {
	tag     language.Tag
	unit    currency.Unit
	scale   int
	printer *message.Printer
	symbol  string
	group   string // grouping separator; empty when the locale does not group
	decimal string
	dates   localePatterns
}

var _ Formatter = (*Locale)(nil)

// New returns a Locale for the given tag and currency code. An empty
// currency code picks the currency of the tag's region.
func New(locale, currencyCode string) (*Locale, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}

	var unit currency.Unit
	if strings.TrimSpace(currencyCode) == "" {
		u, conf := currency.FromTag(tag)
		if conf == language.No {
			return nil, fmt.Errorf("no currency known for locale %q", locale)
		}
		unit = u
	} else {
		unit, err = currency.ParseISO(strings.TrimSpace(currencyCode))
		if err != nil {
			return nil, fmt.Errorf("parse currency %q: %w", currencyCode, err)
		}
	}

	scale, _ := currency.Standard.Rounding(unit)
	printer := message.NewPrinter(tag)

	group, dec := separators(printer)

	return &Locale{
		tag:     tag,
		unit:    unit,
		scale:   scale,
		printer: printer,
		symbol:  printer.Sprint(currency.Symbol(unit)),
		group:   group,
		decimal: dec,
		dates:   patternsFor(tag),
	}, nil
}

// MustNew is New for package-level defaults and tests.
func MustNew(locale, currencyCode string) *Locale {
	l, err := New(locale, currencyCode)
	if err != nil {
		panic(err)
	}
	return l
}

// Currency renders amount with the currency symbol, locale grouping and the
// currency's standard number of fraction digits. The sign always leads.
func (l *Locale) Currency(amount decimal.Decimal) string {
	rounded := amount.Round(int32(l.scale))
	s := fmt.Sprintf(l.dates.money, l.symbol, l.digits(rounded.Abs()))
	if rounded.IsNegative() {
		return "-" + s
	}
	return s
}

// maxExactDigits is how many significant digits survive a float64 round trip.
const maxExactDigits = 15

// digits renders a non-negative amount already rounded to the currency
// scale. x/text/number only takes machine numbers, so amounts too long for a
// float64 are grouped here with the separators x/text reports for the locale.
func (l *Locale) digits(d decimal.Decimal) string {
	intPart := d.Truncate(0).String()
	if len(intPart)+l.scale <= maxExactDigits {
		return l.printer.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(l.scale)))
	}

	out := groupDigits(intPart, l.group)
	if l.scale > 0 {
		fixed := d.StringFixed(int32(l.scale))
		out += l.decimal + fixed[strings.IndexByte(fixed, '.')+1:]
	}
	return out
}

// groupDigits inserts sep between groups of three digits.
func groupDigits(s, sep string) string {
	if sep == "" || len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// separators reads the grouping and decimal separators off a sample
// rendering, since x/text does not export its symbol tables.
func separators(p *message.Printer) (group, dec string) {
	r := []rune(p.Sprint(number.Decimal(1234567.5, number.Scale(1))))
	if len(r) < 3 {
		return ",", "."
	}
	dec = string(r[len(r)-2])
	if !unicode.IsDigit(r[1]) {
		group = string(r[1])
	}
	return group, dec
}

func (l *Locale) ShortDate(t time.Time) string {
	return t.Format(l.dates.short)
}

func (l *Locale) LongDate(t time.Time) string {
	return l.dates.long(t)
}

func (l *Locale) Caption(kind CaptionKind, t time.Time) string {
	switch kind {
	case CaptionLastEntry:
		return fmt.Sprintf(l.dates.lastEntry, l.LongDate(t))
	case CaptionLastExpense:
		return fmt.Sprintf(l.dates.lastExpense, l.LongDate(t))
	case CaptionPeriod:
		return l.dates.period(t)
	default:
		return ""
	}
}

// Locale returns the canonical tag, e.g. "pt-BR".
func (l *Locale) Locale() string {
	return l.tag.String()
}

// CurrencyCode returns the ISO 4217 code in use.
func (l *Locale) CurrencyCode() string {
	return l.unit.String()
}
