// Package apperr defines the application error taxonomy and the rule that
// translates any error reaching the HTTP boundary into the public ErrorInfo
// envelope.
//
// Repositories and services return these kinds as plain Go errors; nothing
// between the repository and the boundary recovers from them. Only the
// boundary (handlers.fail and the recovery middleware) calls Translate.
package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

// Error kinds exposed as ErrorInfo.Type.
const (
	KindDataNotFound     = "data_not_found"
	KindDatabase         = "database_error"
	KindValidation       = "validation_error"
	KindMalformedPayload = "malformed_payload"
	KindRouteNotFound    = "route_not_found"
	KindMethodNotAllowed = "method_not_allowed"
	KindRateLimited      = "rate_limited"
	KindInternal         = "internal_error"
)

// Error is implemented by every taxonomy error. PublicMessage is the only text
// that may reach a client; Error() may carry diagnostic detail.
type Error interface {
	error
	Kind() string
	Status() int
	PublicMessage() string
}

// NotFoundError signals that a lookup by identifier matched no record.
type NotFoundError struct {
	Message string
}

// NotFound returns a NotFoundError carrying msg.
func NotFound(msg string) error { return &NotFoundError{Message: msg} }

func (e *NotFoundError) Error() string         { return e.Message }
func (e *NotFoundError) Kind() string          { return KindDataNotFound }
func (e *NotFoundError) Status() int           { return http.StatusNotFound }
func (e *NotFoundError) PublicMessage() string { return e.Message }

// DatabaseError signals an infrastructural persistence failure. Cause is kept
// for logs only.
type DatabaseError struct {
	Message string
	Cause   error
}

// Database returns a DatabaseError. A non-nil cause is annotated with the
// caller's stack so the log line points at the failing query.
func Database(msg string, cause error) error {
	return &DatabaseError{Message: msg, Cause: errors.WithStack(cause)}
}

func (e *DatabaseError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}
func (e *DatabaseError) Unwrap() error         { return e.Cause }
func (e *DatabaseError) Kind() string          { return KindDatabase }
func (e *DatabaseError) Status() int           { return http.StatusInternalServerError }
func (e *DatabaseError) PublicMessage() string { return e.Message }

// ValidationError signals input rejected before it reached persistence.
type ValidationError struct {
	Message string
}

// Validation returns a ValidationError carrying msg.
func Validation(msg string) error { return &ValidationError{Message: msg} }

func (e *ValidationError) Error() string         { return e.Message }
func (e *ValidationError) Kind() string          { return KindValidation }
func (e *ValidationError) Status() int           { return http.StatusBadRequest }
func (e *ValidationError) PublicMessage() string { return e.Message }

// HTTPError is a transport-level failure (unknown route, rate limit, malformed
// body) raised by the router or middleware rather than by a repository.
type HTTPError struct {
	Code    int
	Type    string
	Message string
}

// HTTP returns an HTTPError.
func HTTP(code int, kind, msg string) error {
	return &HTTPError{Code: code, Type: kind, Message: msg}
}

func (e *HTTPError) Error() string         { return e.Message }
func (e *HTTPError) Kind() string          { return e.Type }
func (e *HTTPError) Status() int           { return e.Code }
func (e *HTTPError) PublicMessage() string { return e.Message }

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsDatabase reports whether err is, or wraps, a DatabaseError.
func IsDatabase(err error) bool {
	var de *DatabaseError
	return errors.As(err, &de)
}
