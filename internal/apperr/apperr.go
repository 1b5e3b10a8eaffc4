// Package apperr carries error kinds and their HTTP status from the point
// of failure to the error page.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/api/googleapi"
)

// Kind classifies an error.
type Kind string

const (
	KindMissingParameter Kind = "MISSING_PARAMETER"
	KindInvalidParameter Kind = "INVALID_PARAMETER"
	KindInvalidBody      Kind = "INVALID_BODY"
	KindBodyTooLarge     Kind = "BODY_TOO_LARGE"
	KindHeaderMissing    Kind = "HEADER_MISSING"
	KindSheetNotFound    Kind = "SHEET_NOT_FOUND"
	KindNotFound         Kind = "NOT_FOUND"
	KindMethodNotAllowed Kind = "METHOD_NOT_ALLOWED"
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindUpstream         Kind = "UPSTREAM_ERROR"
	KindInternal         Kind = "INTERNAL_ERROR"
)

var defaultStatus = map[Kind]int{
	KindMissingParameter: http.StatusBadRequest,
	KindInvalidParameter: http.StatusBadRequest,
	KindInvalidBody:      http.StatusBadRequest,
	KindBodyTooLarge:     http.StatusRequestEntityTooLarge,
	KindHeaderMissing:    http.StatusBadRequest,
	KindSheetNotFound:    http.StatusNotFound,
	KindNotFound:         http.StatusNotFound,
	KindMethodNotAllowed: http.StatusMethodNotAllowed,
	KindUnauthorized:     http.StatusForbidden,
	KindUpstream:         http.StatusInternalServerError,
	KindInternal:         http.StatusInternalServerError,
}

// Error is an error with a kind and the HTTP status to answer with.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// StatusCode returns the HTTP status of the error.
func (e *Error) StatusCode() int { return e.Status }

// New returns an Error with the default status of kind.
func New(kind Kind, message string) *Error {
	status, ok := defaultStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &Error{Kind: kind, Message: message, Status: status}
}

// Wrap attaches cause to a new Error of kind.
func Wrap(kind Kind, message string, cause error) *Error {
	e := New(kind, message)
	e.Cause = cause
	return e
}

func MissingParameter(name string) *Error {
	return New(KindMissingParameter, "Missing "+name)
}

func InvalidParameter(format string, args ...any) *Error {
	return New(KindInvalidParameter, fmt.Sprintf(format, args...))
}

func InvalidBody(format string, args ...any) *Error {
	return New(KindInvalidBody, fmt.Sprintf(format, args...))
}

func HeaderMissing(sheet string) *Error {
	return New(KindHeaderMissing, fmt.Sprintf("Sheet %q has no header row", sheet))
}

func SheetNotFound() *Error { return New(KindSheetNotFound, "Sheet not found") }
func NotFound() *Error      { return New(KindNotFound, "Not found") }
func Unauthorized() *Error  { return New(KindUnauthorized, "Unauthorized") }

// Upstream reports a failed remote call. status <= 0 means 500.
func Upstream(message string, status int, cause error) *Error {
	e := Wrap(KindUpstream, message, cause)
	if status > 0 {
		e.Status = status
	}
	return e
}

// FromUpstream converts an error returned by a Google API call. The remote
// service's own message and code are forwarded when the error carries them.
// nil stays nil and an *Error passes through unchanged.
func FromUpstream(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = http.StatusText(gerr.Code)
		}
		return Upstream(msg, gerr.Code, err)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Upstream("Spreadsheet service unavailable", http.StatusServiceUnavailable, err)
	}
	return Upstream("Spreadsheet service error", 0, err)
}

// StatusOf returns the HTTP status for err, 500 unless err says otherwise.
func StatusOf(err error) int {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code >= 400 && code <= 599 {
			return code
		}
	}
	return http.StatusInternalServerError
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// MessageOf is the client-facing message of err, without its cause chain.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
