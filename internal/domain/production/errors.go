package production

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode standardizes ledger failure semantics across the floor engines.
type ErrorCode string

const (
	CodeValidation           ErrorCode = "validation"
	CodeConfiguration        ErrorCode = "configuration"
	CodeInvalidFloor         ErrorCode = "invalid_floor"
	CodeInsufficientQuantity ErrorCode = "insufficient_quantity"
	CodeQualityOverflow      ErrorCode = "quality_overflow"
	CodeInvalidTargetFloor   ErrorCode = "invalid_target_floor"
	CodeCorruptionDetected   ErrorCode = "corruption_detected"
	CodeNotFound             ErrorCode = "not_found"
	CodeConflict             ErrorCode = "conflict"
	CodeRetryable            ErrorCode = "retryable"
	CodeInternal             ErrorCode = "internal"
)

// Error is the canonical error wrapper for ledger operations.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a ledger error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Errorf builds a ledger error from a format string.
func Errorf(code ErrorCode, op, format string, args ...interface{}) error {
	return NewError(code, op, fmt.Sprintf(format, args...), nil)
}

// Wrap annotates an existing error with ledger error semantics.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or wrapped err) carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	var lerr *Error
	if !errors.As(err, &lerr) {
		return false
	}
	return lerr.Code == code
}

// CodeOf extracts the ledger error code when available.
func CodeOf(err error) ErrorCode {
	var lerr *Error
	if !errors.As(err, &lerr) {
		return ""
	}
	return lerr.Code
}
