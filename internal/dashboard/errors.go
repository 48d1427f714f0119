package dashboard

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a load failed.
type ErrorKind string

const (
	KindStorageUnavailable ErrorKind = "storage_unavailable"
	KindMalformedPayload   ErrorKind = "malformed_payload"
	KindInvalidRecord      ErrorKind = "invalid_record"
)

var (
	ErrStorageUnavailable = errors.New("transaction storage unavailable")
	ErrMalformedPayload   = errors.New("stored transactions are not a valid list")
	ErrInvalidRecord      = errors.New("stored transaction is invalid")
)

// LoadError is returned by every failed load. It matches the sentinel of its
// kind with errors.Is and exposes the underlying cause.
type LoadError struct {
	Kind     ErrorKind
	Index    int    // record position for invalid records, -1 otherwise
	RecordID string // id of the offending record, if any
	Cause    error
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case KindInvalidRecord:
		return fmt.Sprintf("%v: record %d (id %q): %v", e.sentinel(), e.Index, e.RecordID, e.Cause)
	default:
		return fmt.Sprintf("%v: %v", e.sentinel(), e.Cause)
	}
}

func (e *LoadError) Unwrap() []error {
	return []error{e.sentinel(), e.Cause}
}

func (e *LoadError) sentinel() error {
	switch e.Kind {
	case KindStorageUnavailable:
		return ErrStorageUnavailable
	case KindMalformedPayload:
		return ErrMalformedPayload
	default:
		return ErrInvalidRecord
	}
}

// UserMessage is the text shown on the screen for a failed load.
func (e *LoadError) UserMessage() string {
	switch e.Kind {
	case KindStorageUnavailable:
		return "Could not read your transactions. Open the dashboard again to retry."
	case KindMalformedPayload:
		return "Your saved transactions could not be read."
	default:
		return "One of your saved transactions is invalid."
	}
}

// UserMessage returns the screen text for any load error.
func UserMessage(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.UserMessage()
	}
	return "Could not load your transactions."
}
