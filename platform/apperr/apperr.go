// Package apperr provides typed domain errors. Services return them and the
// HTTP layer turns their Kind into a status code.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindNotFound indicates a session or record does not exist (or expired).
	KindNotFound
	// KindValidation indicates user-correctable input that blocks one action.
	KindValidation
	// KindConflict indicates the session is busy or changed underneath the request.
	KindConflict
	// KindInternal indicates an unexpected internal error.
	KindInternal
	// KindUnavailable indicates the quoting provider could not be reached.
	KindUnavailable
	// KindUpstream indicates the quoting provider answered but refused the request.
	KindUpstream
)

var kindInfo = map[Kind]struct {
	name   string
	status int
}{
	KindUnknown:     {"unknown", http.StatusBadRequest},
	KindNotFound:    {"not_found", http.StatusNotFound},
	KindValidation:  {"validation", http.StatusUnprocessableEntity},
	KindConflict:    {"conflict", http.StatusConflict},
	KindInternal:    {"internal", http.StatusInternalServerError},
	KindUnavailable: {"unavailable", http.StatusServiceUnavailable},
	KindUpstream:    {"upstream", http.StatusBadGateway},
}

// String returns the log name of the kind.
func (k Kind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return kindInfo[KindUnknown].name
}

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string      // failing operation, e.g. "wizard.addAddon"
	Err     error       // cause, never shown to clients
	Details interface{} // extra response payload
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code for the error's kind.
func (e *Error) HTTPStatus() int {
	if info, ok := kindInfo[e.Kind]; ok {
		return info.status
	}
	return http.StatusBadRequest
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp returns the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails returns the error with additional details.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Conflict creates a conflict error.
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// GetKind extracts the error kind from an error chain.
// Returns KindUnknown if no *Error is found.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err carries an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
