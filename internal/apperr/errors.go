// Package apperr defines the error kinds shared across the registry access
// layer, the analysis service, and the inbound API.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrSession    = errors.New("registry session unavailable")
	ErrCaptcha    = errors.New("registry captcha challenge")
	ErrTimeout    = errors.New("registry request timed out")
	ErrUpstream   = errors.New("registry upstream error")
	ErrParse      = errors.New("registry response not recognized")
	ErrAnalysis   = errors.New("analysis failed")
)

// Error wraps a cause with the operation that failed and its kind.
// Both Kind and Err are reachable through errors.Is / errors.As.
type Error struct {
	Kind error
	Op   string
	Err  error
}

// New returns an *Error of the given kind.
func New(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation returns an ErrValidation error carrying msg.
func Validation(op, msg string) *Error {
	return &Error{Kind: ErrValidation, Op: op, Err: errors.New(msg)}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := e.Kind.Error()
	if e.Op != "" {
		base = fmt.Sprintf("%s: %s", e.Op, base)
	}
	if e.Err != nil {
		base += ": " + e.Err.Error()
	}
	return base
}

func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Message returns a human-readable description of err suitable for API
// clients. Validation errors surface their own text; everything else gets a
// fixed message per kind so internal details stay in the logs.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		var ae *Error
		if errors.As(err, &ae) && ae.Err != nil {
			return ae.Err.Error()
		}
		return ErrValidation.Error()
	case errors.Is(err, ErrSession):
		return "could not establish a session with the trademark registry"
	case errors.Is(err, ErrCaptcha):
		return "the trademark registry requested a CAPTCHA; try again later"
	case errors.Is(err, ErrTimeout):
		return "the trademark registry did not respond in time"
	case errors.Is(err, ErrParse):
		return "the trademark registry response could not be read"
	case errors.Is(err, ErrUpstream):
		return "the trademark registry returned an unexpected response"
	default:
		return "internal error"
	}
}
