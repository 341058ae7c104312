// Package apperr defines the error taxonomy shared by every ledger component.
package apperr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind classifies an engine failure.
type Kind string

const (
	KindUnbalancedEntry         Kind = "UnbalancedEntry"
	KindDuplicateAccountInEntry Kind = "DuplicateAccountInEntry"
	KindIncompleteLineItem      Kind = "IncompleteLineItem"
	KindInvalidCounterparty     Kind = "InvalidCounterparty"
	KindOverApplication         Kind = "OverApplication"
	KindAccountMismatch         Kind = "AccountMismatch"
	KindSessionAlreadyOpen      Kind = "SessionAlreadyOpen"
	KindSessionCompleted        Kind = "SessionCompleted"
	KindOutOfBalance            Kind = "OutOfBalance"
	KindNotFound                Kind = "NotFound"
	KindInactiveAccount         Kind = "InactiveAccount"
	KindInvalidAmount           Kind = "InvalidAmount"
	KindInvalidInput            Kind = "InvalidInput"
	KindStorageUnavailable      Kind = "StorageUnavailable"
)

// Error carries a Kind plus the structured detail a caller needs to present
// an actionable message. Zero-valued detail fields are omitted from Error().
type Error struct {
	Kind      Kind
	Message   string
	ID        string
	AccountID string
	Expected  decimal.Decimal
	Actual    decimal.Decimal
	Delta     decimal.Decimal
	Err       error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown entity id.
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id), ID: id}
}

// Storage wraps a driver or I/O failure. Nothing was committed when one of
// these is returned, so callers may retry.
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Message: op, Err: err}
}

// WithAccount sets AccountID and returns e.
func (e *Error) WithAccount(id string) *Error {
	e.AccountID = id
	return e
}

// WithAmounts sets Expected, Actual and Delta (expected − actual) and returns e.
func (e *Error) WithAmounts(expected, actual decimal.Decimal) *Error {
	e.Expected = expected
	e.Actual = actual
	e.Delta = expected.Sub(actual)
	return e
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
