// Package errs defines the operational error taxonomy surfaced by the API.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an operational error that maps directly onto an HTTP response.
// Non-operational errors (anything that is not an *Error) must never leak
// their message to clients.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Status returns the envelope status string for the error code:
// "fail" for 4xx, "error" for everything else.
func (e *Error) Status() string {
	if e.Code >= 400 && e.Code < 500 {
		return "fail"
	}
	return "error"
}

// New creates an operational error with an explicit status code.
func New(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return New(http.StatusUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return New(http.StatusForbidden, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(http.StatusConflict, format, args...)
}

func Internal(format string, args ...interface{}) *Error {
	return New(http.StatusInternalServerError, format, args...)
}

// Gateway wraps a failed downstream plugin call. A non-positive status
// defaults to 500.
func Gateway(status int, format string, args ...interface{}) *Error {
	if status <= 0 {
		status = http.StatusInternalServerError
	}
	return New(status, format, args...)
}

// From extracts the operational error from err, or nil if err is not one.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// CodeOf returns the HTTP status carried by err, or 500 for
// non-operational errors.
func CodeOf(err error) int {
	if e := From(err); e != nil {
		return e.Code
	}
	return http.StatusInternalServerError
}
