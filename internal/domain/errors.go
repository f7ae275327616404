package domain

import (
	"errors"
	"fmt"
)

// ─── Coded Errors ───────────────────────────────────────────────────────────
// Engine failures carry a machine-readable code. Callers treat them as
// integrity/programming errors — never retried automatically.

// ErrorCode identifies an engine failure class.
type ErrorCode string

const (
	// CodeUnbalancedTransaction: entries missing or not summing to zero.
	CodeUnbalancedTransaction ErrorCode = "UNBALANCED_TRANSACTION"

	// CodeInvalidAmount: a non-positive transfer amount.
	CodeInvalidAmount ErrorCode = "INVALID_AMOUNT"

	// CodeCardNotFound: an unknown decision-card option identifier.
	CodeCardNotFound ErrorCode = "CARD_NOT_FOUND"
)

// Error is a coded engine error.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds a coded error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the ErrorCode from err, or "" if err carries none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
