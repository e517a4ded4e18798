// Package apperr defines the failure kinds reported by Typewriter procedures.
//
// A procedure fails with an *Error carrying one of the Code values below. Storage
// failures are reported as CodeInternal with the original error kept as the
// cause, so callers can still inspect it with errors.Is and errors.As.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeNotFound           Code = "NOT_FOUND"
	CodeMethodNotSupported Code = "METHOD_NOT_SUPPORTED"
	CodeTooManyRequests    Code = "TOO_MANY_REQUESTS"
	CodeInternal           Code = "INTERNAL_SERVER_ERROR"
)

// HTTPStatus maps a code to the status used by the RPC transport.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotSupported:
		return http.StatusMethodNotAllowed
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

func BadRequest(message string, cause error) *Error {
	return &Error{Code: CodeBadRequest, Message: message, Cause: cause}
}

func Internal(message string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: message, Cause: cause}
}

// CodeOf reports the code of the first *Error in err's chain. Any other
// non-nil error is internal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// Wrap passes an *Error through unchanged and turns anything else into an
// internal error with the given message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return Internal(message, err)
}
