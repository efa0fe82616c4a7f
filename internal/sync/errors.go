package sync

import (
	"errors"
	"fmt"

	"github.com/nhle/geotask/internal/gateway"
)

// Actions reported in OperationError.
const (
	ActionFetch  = "fetch"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ErrEditInProgress is returned when a create is attempted while another
// entity is still being edited.
var ErrEditInProgress = errors.New("finish the current edit first")

// OperationError is the uniform failure the engine reports to callers. It
// names the entity and action so a front-end can phrase a message.
type OperationError struct {
	Entity string
	Action string
	Err    error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action, e.Entity, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Kind returns the gateway classification of the underlying error.
func (e *OperationError) Kind() gateway.Kind {
	if errors.Is(e.Err, ErrEditInProgress) {
		return gateway.KindValidation
	}
	return gateway.KindOf(e.Err)
}

// UserMessage returns a sentence suitable for an alert dialog.
func (e *OperationError) UserMessage() string {
	switch e.Kind() {
	case gateway.KindValidation:
		if errors.Is(e.Err, ErrEditInProgress) {
			return "Finish editing before adding another item."
		}
		return fmt.Sprintf("Please enter a name for the %s.", e.Entity)
	case gateway.KindUnauthenticated:
		return "Please sign in to continue."
	case gateway.KindNotFound:
		return fmt.Sprintf("Could not %s %s. It may have been deleted elsewhere.", e.Action, e.Entity)
	case gateway.KindNetwork:
		return fmt.Sprintf("Could not %s %s. Check your connection and try again.", e.Action, e.Entity)
	case gateway.KindPermissionDenied:
		return fmt.Sprintf("You do not have permission to %s this %s.", e.Action, e.Entity)
	default:
		return fmt.Sprintf("Could not %s %s. Please try again.", e.Action, e.Entity)
	}
}

// AsOperationError extracts an *OperationError from err.
func AsOperationError(err error) (*OperationError, bool) {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr, true
	}
	return nil, false
}
