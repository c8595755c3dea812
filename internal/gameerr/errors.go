// Package gameerr defines the error taxonomy shared by the turn engine,
// its actions, and the adapters around it.
package gameerr

import (
	"errors"
	"fmt"
)

// Kind represents the category of error.
type Kind string

const (
	// KindValidation rejects a request before any phase runs.
	KindValidation Kind = "validation"
	// KindNotFound indicates a game, empire or record does not exist.
	KindNotFound Kind = "not_found"
	// KindConflict indicates another writer holds the game.
	KindConflict Kind = "conflict"
	// KindTransform indicates a phase invariant was violated; the turn is discarded.
	KindTransform Kind = "transform"
	// KindExternal indicates a collaborator (storage, cache) failed; retryable.
	KindExternal Kind = "external"
	// KindFatal indicates unrecoverable input such as a corrupt snapshot.
	KindFatal Kind = "fatal"
)

// Error is the base error type for engine errors.
type Error struct {
	Kind    Kind
	Phase   string // Set for transform errors
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Phase != "" {
		msg = fmt.Sprintf("phase %s: %s", e.Phase, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validationf creates a validation error with formatting.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a not found error with formatting.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflictf creates a conflict error with formatting.
func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// WrapValidation rejects a request because of a domain rule, keeping the
// rule's sentinel reachable through errors.Is.
func WrapValidation(message string, err error) error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}

// Transform wraps a phase failure.
func Transform(phase string, err error) error {
	return &Error{Kind: KindTransform, Phase: phase, Message: "turn aborted", Err: err}
}

// WrapExternal wraps a collaborator failure.
func WrapExternal(message string, err error) error {
	return &Error{Kind: KindExternal, Message: message, Err: err}
}

// WrapFatal wraps an unrecoverable failure.
func WrapFatal(message string, err error) error {
	return &Error{Kind: KindFatal, Message: message, Err: err}
}

// KindOf returns the kind of an error. Untyped errors count as external.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindExternal
}

// PhaseOf returns the failing phase of a transform error, or "".
func PhaseOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Phase
	}
	return ""
}

// IsRetryable reports whether the caller may retry the same request.
func IsRetryable(err error) bool {
	k := KindOf(err)
	return k == KindExternal || k == KindConflict
}
