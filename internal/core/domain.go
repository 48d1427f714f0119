package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Positive TransactionType = "positive"
	Negative TransactionType = "negative"
)

type (
	TransactionType string

	// NumericString is an amount as persisted by clients. Older clients wrote
	// a bare JSON number, newer ones a string; both decode to the same text.
	NumericString string

	Category struct {
		Name string `json:"name"`
		Icon string `json:"icon"`
	}

	// TransactionRecord is a transaction as it sits in storage.
	TransactionRecord struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Title    string          `json:"title,omitempty"` // legacy name field
		Amount   NumericString   `json:"amount"`
		Type     TransactionType `json:"type"`
		Category Category        `json:"category"`
		Date     string          `json:"date"`
	}

	// NewTransaction is the input accepted when recording a transaction.
	NewTransaction struct {
		Name     string          `json:"name"`
		Amount   string          `json:"amount"`
		Type     TransactionType `json:"type"`
		Category Category        `json:"category"`
		Date     string          `json:"date"`
	}
)

var (
	ErrInvalidRecord = errors.New("invalid transaction record")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyName     = errors.New("empty name")
	ErrEmptyCategory = errors.New("empty category")
	ErrNameTooLong   = errors.New("name too long (max 200 characters)")
)

// dateLayouts are tried in order. JavaScript clients persist
// Date.prototype.toISOString output, plain clients a calendar date.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func (t TransactionType) Valid() bool {
	return t == Positive || t == Negative
}

func (n *NumericString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("amount must be a string or a number: %w", err)
	}
	*n = NumericString(num.String())
	return nil
}

// DisplayName returns Name, falling back to the legacy Title field.
func (r TransactionRecord) DisplayName() string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return r.Title
}

// ParsedAmount returns the record amount as a decimal.
func (r TransactionRecord) ParsedAmount() (decimal.Decimal, error) {
	return ParseAmount(string(r.Amount))
}

// ParsedDate returns the record date.
func (r TransactionRecord) ParsedDate() (time.Time, error) {
	return ParseDate(r.Date)
}

// Validate reports the first problem that keeps the record out of the
// aggregation. Every error wraps ErrInvalidRecord.
func (r TransactionRecord) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: %w %q", ErrInvalidRecord, ErrInvalidType, r.Type)
	}
	if _, err := r.ParsedAmount(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if _, err := r.ParsedDate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

func (n NewTransaction) Validate() error {
	name := strings.TrimSpace(n.Name)
	if name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyName)
	}
	if len(name) > 200 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrNameTooLong)
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: %w %q", ErrInvalidRecord, ErrInvalidType, n.Type)
	}
	amount, err := ParseAmount(n.Amount)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %w: must be greater than zero", ErrInvalidRecord, ErrInvalidAmount)
	}
	if strings.TrimSpace(n.Category.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyCategory)
	}
	if n.Date != "" {
		if _, err := ParseDate(n.Date); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
	}
	return nil
}

// ToRecord builds the persisted form of n. A blank date means now.
func (n NewTransaction) ToRecord(id string, now time.Time) TransactionRecord {
	date := n.Date
	if date == "" {
		date = now.UTC().Format(time.RFC3339)
	}
	amount, _ := ParseAmount(n.Amount)
	return TransactionRecord{
		ID:       id,
		Name:     strings.TrimSpace(n.Name),
		Amount:   NumericString(amount.String()),
		Type:     n.Type,
		Category: Category{Name: strings.TrimSpace(n.Category.Name), Icon: strings.TrimSpace(n.Category.Icon)},
		Date:     date,
	}
}

// ParseDate parses an ISO date or date-time string.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
