// Package apperr defines the error taxonomy shared by the order core and
// the HTTP layer. Errors carry a string Kind for natural JSON serialization
// and a details map for caller-facing context (e.g. which fields failed).
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	// KindUnauthorized indicates the actor's role or ownership does not
	// permit the operation.
	KindUnauthorized Kind = "UNAUTHORIZED"

	// KindForbiddenTransition indicates the requested stage is not
	// reachable from the current stage for this role.
	KindForbiddenTransition Kind = "FORBIDDEN_TRANSITION"

	// KindValidation indicates malformed or missing payload fields.
	KindValidation Kind = "VALIDATION"

	// KindPreconditionFailed indicates a state-dependent gate was not
	// satisfied (missing inspiration images, pending request exists, ...).
	KindPreconditionFailed Kind = "PRECONDITION_FAILED"

	// KindNotFound indicates the referenced order, item, or file key does
	// not exist.
	KindNotFound Kind = "NOT_FOUND"

	// KindConflict indicates the operation would violate an invariant,
	// such as deleting the last remaining item.
	KindConflict Kind = "CONFLICT"

	// KindLocked indicates completion details are confirmed and may not be
	// edited without an approved update request.
	KindLocked Kind = "LOCKED"

	// KindVersionConflict indicates an optimistic-concurrency save lost
	// the race. Callers may retry the whole operation.
	KindVersionConflict Kind = "VERSION_CONFLICT"
)

type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func E(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the status code the handlers respond with.
// Unclassified errors are treated as internal faults.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthorized:
		return http.StatusForbidden
	case KindForbiddenTransition:
		return http.StatusUnprocessableEntity
	case KindValidation:
		return http.StatusBadRequest
	case KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindVersionConflict:
		return http.StatusConflict
	case KindLocked:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}
