package sync

import (
	"context"
	"strings"

	"github.com/nhle/geotask/internal/collection"
	"github.com/nhle/geotask/internal/editsession"
	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
)

// FetchSubtasks replaces the subtasks of a task.
func (e *Engine) FetchSubtasks(ctx context.Context, taskID string) error {
	key := collection.SubtasksKey(taskID)
	e.coll.SetLoading(key, true)
	defer e.coll.SetLoading(key, false)

	callCtx, cancel := e.callCtx(ctx)
	subs, err := e.gw.FetchSubtasks(callCtx, taskID)
	cancel()
	if err != nil {
		e.coll.ClearSubtasks(taskID)
		e.coll.SetFetchError(key, err)
		return e.fail(gateway.EntitySubtask, ActionFetch, err)
	}

	e.coll.SetFetchError(key, nil)
	e.coll.SetSubtasks(taskID, subs)
	return nil
}

// CreateSubtask adds a named subtask to a task. Blank names are rejected
// without a remote call.
func (e *Engine) CreateSubtask(ctx context.Context, taskID, name string) (*model.Subtask, error) {
	const entity, action = gateway.EntitySubtask, ActionCreate

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, e.fail(entity, action, gateway.Validation(entity, action, "subtask name must not be empty"))
	}

	callCtx, cancel := e.callCtx(ctx)
	st, err := e.gw.CreateSubtask(callCtx, model.NewSubtask{TaskID: taskID, Name: name})
	cancel()
	if err != nil {
		return nil, e.fail(entity, action, err)
	}

	e.coll.AppendSubtask(*st)
	return st, nil
}

// RenameSubtask sets a subtask's name.
func (e *Engine) RenameSubtask(ctx context.Context, id, name string) (*model.Subtask, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, e.fail(gateway.EntitySubtask, ActionUpdate,
			gateway.Validation(gateway.EntitySubtask, ActionUpdate, "subtask name must not be empty"))
	}
	return e.updateSubtask(ctx, id, model.SubtaskPatch{Name: &name})
}

// SetSubtaskCompleted sets a subtask's completion flag. Once every subtask of
// the parent is complete, the parent task is marked complete by a follow-up
// update. Un-completing a subtask never reopens the parent.
func (e *Engine) SetSubtaskCompleted(ctx context.Context, id string, completed bool) (*model.Subtask, error) {
	st, err := e.updateSubtask(ctx, id, model.SubtaskPatch{Completed: &completed})
	if err != nil {
		return nil, err
	}
	if !completed {
		return st, nil
	}

	if err := e.propagateCompletion(ctx, st.TaskID); err != nil {
		return st, err
	}
	return st, nil
}

// ToggleSubtask flips the completion flag of a subtask in the collection.
func (e *Engine) ToggleSubtask(ctx context.Context, id string) (*model.Subtask, error) {
	st, ok := e.coll.Subtask(id)
	if !ok {
		return nil, e.fail(gateway.EntitySubtask, ActionUpdate, gateway.NotFound(gateway.EntitySubtask, ActionUpdate, id))
	}
	return e.SetSubtaskCompleted(ctx, id, !st.Completed)
}

// propagateCompletion completes the parent task when all of its subtasks
// are complete and it is not already. A task whose subtasks were never
// fetched is fetched first so unseen siblings count.
func (e *Engine) propagateCompletion(ctx context.Context, taskID string) error {
	if !e.coll.SubtasksLoaded(taskID) {
		if err := e.FetchSubtasks(ctx, taskID); err != nil {
			return err
		}
	}
	if !model.AllCompleted(e.coll.Subtasks(taskID)) {
		return nil
	}
	if t, ok := e.coll.Task(taskID); ok && t.Completed {
		return nil
	}

	e.logger.Debug("all subtasks complete, completing task", "task_id", taskID)
	_, err := e.SetTaskCompleted(ctx, taskID, true)
	return err
}

func (e *Engine) updateSubtask(ctx context.Context, id string, patch model.SubtaskPatch) (*model.Subtask, error) {
	callCtx, cancel := e.callCtx(ctx)
	st, err := e.gw.UpdateSubtask(callCtx, id, patch)
	cancel()
	if err != nil {
		return nil, e.fail(gateway.EntitySubtask, ActionUpdate, err)
	}

	e.coll.ReplaceSubtask(*st)
	return st, nil
}

// DeleteSubtask deletes a subtask.
func (e *Engine) DeleteSubtask(ctx context.Context, id string) error {
	callCtx, cancel := e.callCtx(ctx)
	err := e.gw.DeleteSubtask(callCtx, id)
	cancel()
	if err != nil {
		return e.fail(gateway.EntitySubtask, ActionDelete, err)
	}

	e.edits.ClearTarget(editsession.Target{Kind: editsession.KindSubtask, ID: id})
	e.coll.RemoveSubtask(id)
	return nil
}
