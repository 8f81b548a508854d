// Package errors carries coded errors across the sentinel packages.
//
// Codes are grouped by the layer that raises them:
//   - General (1-99)
//   - Validation (100-199): bad parameters, lookbacks, too few bars
//   - Data (200-299): missing or unreadable price series
//   - Indicator (300-399)
//   - Strategy (400-499): signal configuration and evaluation
//   - Trading (500-599): skipped buys and sells inside a simulation
//   - Backtest (600-699): engine lifecycle and result export
//   - Market data (700-799): provider download and parsing
//   - Advisory (800-899): the external advisor gate
//   - Notification (900-999): alert delivery
//
// Callers branch on the code, not the message:
//
//	if errors.HasCode(err, errors.ErrCodeDataUnavailable) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode returns the code of the outermost *Error in err's chain,
// or ErrCodeUnknown when there is none.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientDataError reports a series that is too short for a calculation.
// It unwraps to an *Error with ErrCodeInsufficientData so HasCode works on it.
type InsufficientDataError struct {
	Required int
	Actual   int
	Symbol   string
}

func NewInsufficientDataError(required, actual int, symbol string) *InsufficientDataError {
	return &InsufficientDataError{Required: required, Actual: actual, Symbol: symbol}
}

func (e *InsufficientDataError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("insufficient data: need at least %d bars, got %d", e.Required, e.Actual)
	}

	return fmt.Sprintf("insufficient data for %s: need at least %d bars, got %d", e.Symbol, e.Required, e.Actual)
}

func (e *InsufficientDataError) Unwrap() error {
	return New(ErrCodeInsufficientData, "insufficient data")
}

func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}
