package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can choose a user-facing response.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindNotFound
	KindNetwork
	KindPermissionDenied
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not found"
	case KindNetwork:
		return "network"
	case KindPermissionDenied:
		return "permission denied"
	default:
		return "internal"
	}
}

// Entity names used in errors and log attributes.
const (
	EntityList    = "list"
	EntityTask    = "task"
	EntitySubtask = "subtask"
	EntityUser    = "user"
	EntitySession = "session"
)

// Error is the uniform failure reported by gateway implementations.
type Error struct {
	Kind   Kind
	Entity string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Op, e.Entity, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error.
func E(kind Kind, entity, op string, err error) *Error {
	return &Error{Kind: kind, Entity: entity, Op: op, Err: err}
}

// Validation builds a validation error with a formatted message.
func Validation(entity, op, format string, args ...any) *Error {
	return E(KindValidation, entity, op, fmt.Errorf(format, args...))
}

// NotFound builds a not-found error for the given row ID.
func NotFound(entity, op, id string) *Error {
	return E(KindNotFound, entity, op, fmt.Errorf("%s %s not found", entity, id))
}

// ErrUnauthenticated is returned when an owned-entity mutation is attempted
// with no signed-in user.
var ErrUnauthenticated = errors.New("no signed-in user")

// KindOf reports the Kind of err. Errors that do not carry one are internal,
// except ErrUnauthenticated.
func KindOf(err error) Kind {
	var gErr *Error
	if errors.As(err, &gErr) {
		return gErr.Kind
	}
	if errors.Is(err, ErrUnauthenticated) {
		return KindUnauthenticated
	}
	return KindInternal
}

// IsValidation reports whether err (or any error in its chain) is a
// validation failure.
func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }

// IsUnauthenticated reports whether err signals a missing signed-in user.
func IsUnauthenticated(err error) bool { return err != nil && KindOf(err) == KindUnauthenticated }

// IsNotFound reports whether err signals a missing row.
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool { return err != nil && KindOf(err) == KindNetwork }

// IsPermissionDenied reports whether err is a permission failure.
func IsPermissionDenied(err error) bool { return err != nil && KindOf(err) == KindPermissionDenied }
