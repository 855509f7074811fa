package handlers

import (
	"errors"
	"net/http"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrDecode          = errors.New("decode error")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// requestError carries a client-facing message and the category used to
// pick the HTTP status.
type requestError struct {
	kind error
	msg  string
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return e.kind }

func validationError(msg string) error {
	return &requestError{kind: ErrValidation, msg: msg}
}

func decodeError(err error) error {
	return &requestError{kind: ErrDecode, msg: "Invalid image file: " + err.Error()}
}

// statusFor maps an error onto its HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrValidation), errors.Is(err, ErrDecode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
