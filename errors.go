package gridsheet

import (
	"errors"
	"fmt"
)

// ErrorCode is the short code a formula error displays as.
type ErrorCode string

const (
	ErrorCodeRef    ErrorCode = "#REF!"
	ErrorCodeName   ErrorCode = "#NAME?"
	ErrorCodeValue  ErrorCode = "#VALUE!"
	ErrorCodeDiv0   ErrorCode = "#DIV/0!"
	ErrorCodeNum    ErrorCode = "#NUM!"
	ErrorCodeNA     ErrorCode = "#N/A"
	ErrorCodeSyntax ErrorCode = "#ERROR!"
	ErrorCodeAsync  ErrorCode = "#ASYNC!"
)

// FormulaError is the error every formula evaluation failure is reported as.
type FormulaError struct {
	Code    ErrorCode
	Message string
	Err     error // cause, e.g. the rejection of an async computation
}

func (e *FormulaError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FormulaError) Unwrap() error { return e.Err }

// Is matches any FormulaError with the same code, so errors.Is works against
// values such as &FormulaError{Code: ErrorCodeRef}.
func (e *FormulaError) Is(target error) bool {
	t, ok := target.(*FormulaError)
	return ok && t.Code == e.Code
}

// NewFormulaError creates a FormulaError with the given code.
func NewFormulaError(code ErrorCode, format string, args ...any) *FormulaError {
	return &FormulaError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewRefError reports a dangling, unknown or circulating reference.
func NewRefError(format string, args ...any) *FormulaError {
	return NewFormulaError(ErrorCodeRef, format, args...)
}

// NewNameError reports an unknown function or identifier.
func NewNameError(format string, args ...any) *FormulaError {
	return NewFormulaError(ErrorCodeName, format, args...)
}

// NewValueError reports a type coercion failure.
func NewValueError(format string, args ...any) *FormulaError {
	return NewFormulaError(ErrorCodeValue, format, args...)
}

// NewDivZeroError reports a division or modulo by zero.
func NewDivZeroError(format string, args ...any) *FormulaError {
	return NewFormulaError(ErrorCodeDiv0, format, args...)
}

// NewNumError reports an out-of-domain numeric argument.
func NewNumError(format string, args ...any) *FormulaError {
	return NewFormulaError(ErrorCodeNum, format, args...)
}

// NewNAError reports an arity mismatch or a lookup miss.
func NewNAError(format string, args ...any) *FormulaError {
	return NewFormulaError(ErrorCodeNA, format, args...)
}

// NewSyntaxError reports malformed formula text.
func NewSyntaxError(format string, args ...any) *FormulaError {
	return NewFormulaError(ErrorCodeSyntax, format, args...)
}

// NewAsyncError wraps the rejection of an asynchronous computation.
func NewAsyncError(cause error) *FormulaError {
	msg := "async computation failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &FormulaError{Code: ErrorCodeAsync, Message: msg, Err: cause}
}

// AsFormulaError returns the FormulaError in err's chain, if any.
func AsFormulaError(err error) (*FormulaError, bool) {
	var fe *FormulaError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsFormulaError reports whether err carries a FormulaError with the given code.
func IsFormulaError(err error, code ErrorCode) bool {
	fe, ok := AsFormulaError(err)
	return ok && fe.Code == code
}

// errorCodeOf returns the display code of any error; unknown errors render as #ERROR!.
func errorCodeOf(err error) ErrorCode {
	if fe, ok := AsFormulaError(err); ok {
		return fe.Code
	}
	return ErrorCodeSyntax
}

// Sentinel errors for structural operations. They are logged, never returned
// from a mutation.
var (
	ErrLimitExceeded = errors.New("row or column limit exceeded")
	ErrPrevented     = errors.New("operation prevented")
)
