// Package sync bridges the local collection and the gateway. Every mutation
// is issued remotely first and applied locally only once the backend
// confirms it; a failed call leaves the collection exactly as it was.
package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/nhle/geotask/internal/collection"
	"github.com/nhle/geotask/internal/editsession"
	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/session"
)

// RecommendedTimeout is a sensible value for WithOperationTimeout.
const RecommendedTimeout = 5 * time.Second

// Engine orchestrates list, task and subtask operations.
type Engine struct {
	gw       gateway.Gateway
	coll     *collection.Store
	sessions session.Provider
	edits    *editsession.Session
	logger   *slog.Logger
	timeout  time.Duration
}

var _ editsession.Committer = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithOperationTimeout bounds every gateway call. Zero means no timeout.
func WithOperationTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine writing to coll. The engine owns the edit session.
func New(gw gateway.Gateway, coll *collection.Store, sessions session.Provider, opts ...Option) *Engine {
	e := &Engine{
		gw:       gw,
		coll:     coll,
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.edits = editsession.New(e)
	return e
}

// Collection returns the store the engine writes to.
func (e *Engine) Collection() *collection.Store { return e.coll }

// Edits returns the edit session.
func (e *Engine) Edits() *editsession.Session { return e.edits }

// callCtx derives the context for one gateway call.
func (e *Engine) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}

// fail logs a failed operation and wraps it for the caller.
func (e *Engine) fail(entity, action string, err error) error {
	if _, ok := AsOperationError(err); ok {
		return err
	}
	e.logger.Warn("operation failed",
		"entity", entity,
		"action", action,
		"kind", gateway.KindOf(err).String(),
		"error", err,
	)
	return &OperationError{Entity: entity, Action: action, Err: err}
}

// CommitRename implements editsession.Committer.
func (e *Engine) CommitRename(ctx context.Context, t editsession.Target, name string) error {
	switch t.Kind {
	case editsession.KindList:
		_, err := e.RenameList(ctx, t.ID, name)
		return err
	case editsession.KindTask:
		_, err := e.RenameTask(ctx, t.ID, name)
		return err
	default:
		_, err := e.RenameSubtask(ctx, t.ID, name)
		return err
	}
}

// CommitDelete implements editsession.Committer. A list cleared to a blank
// name is not deleted: the rename is rejected and the edit stays open.
func (e *Engine) CommitDelete(ctx context.Context, t editsession.Target) error {
	switch t.Kind {
	case editsession.KindList:
		_, err := e.RenameList(ctx, t.ID, "")
		return err
	case editsession.KindTask:
		return e.DeleteTask(ctx, t.ID)
	default:
		return e.DeleteSubtask(ctx, t.ID)
	}
}

// clearEditsUnderList drops an open edit on the list or on anything inside it.
func (e *Engine) clearEditsUnderList(listID string) {
	st := e.edits.State()
	if !st.Editing {
		return
	}
	switch st.Target.Kind {
	case editsession.KindList:
		if st.Target.ID == listID {
			e.edits.Clear()
		}
	case editsession.KindTask:
		if t, ok := e.coll.Task(st.Target.ID); ok && t.ListID == listID {
			e.edits.Clear()
		}
	case editsession.KindSubtask:
		if sub, ok := e.coll.Subtask(st.Target.ID); ok {
			if t, ok := e.coll.Task(sub.TaskID); ok && t.ListID == listID {
				e.edits.Clear()
			}
		}
	}
}

// clearEditsUnderTask drops an open edit on the task or one of its subtasks.
func (e *Engine) clearEditsUnderTask(taskID string) {
	st := e.edits.State()
	if !st.Editing {
		return
	}
	switch st.Target.Kind {
	case editsession.KindTask:
		if st.Target.ID == taskID {
			e.edits.Clear()
		}
	case editsession.KindSubtask:
		if sub, ok := e.coll.Subtask(st.Target.ID); ok && sub.TaskID == taskID {
			e.edits.Clear()
		}
	}
}
