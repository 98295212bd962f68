// Package catalogerr defines the error kinds shared across the scan,
// similarity, and delivery subsystems so callers can react by kind rather
// than by string matching, the way jobs.isTaskConflict distinguishes
// asynq's duplicate-task error in the teacher repo.
package catalogerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purpose of recovery policy selection.
type Kind int

const (
	// KindNotFound means the requested entity does not exist.
	KindNotFound Kind = iota
	// KindBadRequest means the caller supplied malformed input.
	KindBadRequest
	// KindResourceExhausted means a bounded resource (transcode slot,
	// cache entry, worker) is currently unavailable.
	KindResourceExhausted
	// KindTransient means the operation may succeed if retried; the
	// caller should log at warning level and skip, replace, or abort
	// the single unit of work rather than stop the subsystem.
	KindTransient
	// KindFatal means the subsystem itself cannot continue.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindResourceExhausted:
		return "resource_exhausted"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// NotFound, BadRequest, ResourceExhausted, Transient, and Fatal are
// shorthand constructors mirroring the five named kinds.
func NotFound(op string, err error) *Error         { return New(KindNotFound, op, err) }
func BadRequest(op string, err error) *Error        { return New(KindBadRequest, op, err) }
func ResourceExhausted(op string, err error) *Error { return New(KindResourceExhausted, op, err) }
func Transient(op string, err error) *Error         { return New(KindTransient, op, err) }
func Fatal(op string, err error) *Error             { return New(KindFatal, op, err) }

// Is reports whether the first *Error found in err's chain carries the
// given Kind; *Error values wrapped further down are not examined.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
