package domain

import (
	"errors"
	"net/http"
)

// Status classes used in the response envelope.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Error is the single error currency of the service. Code is the HTTP
// status, Status the envelope class (fail for caller errors, error for
// server faults), Message a caller-safe description. Err holds the
// underlying cause and never crosses the boundary.
type Error struct {
	Code    int
	Status  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts a *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func NewValidation(message string) *Error {
	return &Error{Code: http.StatusBadRequest, Status: StatusFail, Message: message}
}

func NewConflict(message string) *Error {
	return &Error{Code: http.StatusConflict, Status: StatusFail, Message: message}
}

func NewNotFound(message string) *Error {
	return &Error{Code: http.StatusNotFound, Status: StatusFail, Message: message}
}

func NewInvalidCredentials(message string) *Error {
	return &Error{Code: http.StatusUnauthorized, Status: StatusFail, Message: message}
}

// NewInvalidOrExpired covers the reset flow: a wrong code and an expired
// one are deliberately indistinguishable to the caller.
func NewInvalidOrExpired(message string) *Error {
	return &Error{Code: http.StatusBadRequest, Status: StatusFail, Message: message}
}

func NewInvalidToken(message string) *Error {
	return &Error{Code: http.StatusUnauthorized, Status: StatusFail, Message: message}
}

func NewDelivery(message string, cause error) *Error {
	return &Error{Code: http.StatusInternalServerError, Status: StatusError, Message: message, Err: cause}
}

func NewInternal(cause error) *Error {
	return &Error{Code: http.StatusInternalServerError, Status: StatusError, Message: "internal server error", Err: cause}
}
