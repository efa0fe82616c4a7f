package sync

import (
	"context"
	"strings"

	"github.com/nhle/geotask/internal/collection"
	"github.com/nhle/geotask/internal/editsession"
	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
)

// FetchTasks replaces the tasks of a list. On failure the slice is cleared
// and the error recorded.
func (e *Engine) FetchTasks(ctx context.Context, listID string) error {
	key := collection.TasksKey(listID)
	e.coll.SetLoading(key, true)
	defer e.coll.SetLoading(key, false)

	callCtx, cancel := e.callCtx(ctx)
	tasks, err := e.gw.FetchTasks(callCtx, listID)
	cancel()
	if err != nil {
		e.coll.ClearTasks(listID)
		e.coll.SetFetchError(key, err)
		return e.fail(gateway.EntityTask, ActionFetch, err)
	}

	e.coll.SetFetchError(key, nil)
	e.coll.SetTasks(listID, tasks)
	return nil
}

// OpenTask loads one task and its subtasks for a detail view.
func (e *Engine) OpenTask(ctx context.Context, id string) (*model.Task, error) {
	callCtx, cancel := e.callCtx(ctx)
	t, err := e.gw.FetchTask(callCtx, id)
	cancel()
	if err != nil {
		return nil, e.fail(gateway.EntityTask, ActionFetch, err)
	}
	if t == nil {
		return nil, e.fail(gateway.EntityTask, ActionFetch, gateway.NotFound(gateway.EntityTask, ActionFetch, id))
	}

	e.coll.PutTask(*t)
	if err := e.FetchSubtasks(ctx, id); err != nil {
		return t, err
	}
	return t, nil
}

// CreateTask appends a blank task to a list and opens it for editing.
// It is refused while another edit is open.
func (e *Engine) CreateTask(ctx context.Context, listID string) (*model.Task, error) {
	const entity, action = gateway.EntityTask, ActionCreate

	if !e.edits.CanCreate() {
		return nil, e.fail(entity, action, ErrEditInProgress)
	}

	callCtx, cancel := e.callCtx(ctx)
	t, err := e.gw.CreateTask(callCtx, model.NewTask{ListID: listID})
	cancel()
	if err != nil {
		return nil, e.fail(entity, action, err)
	}

	e.coll.AppendTask(*t)
	if err := e.edits.Start(ctx, editsession.Target{Kind: editsession.KindTask, ID: t.ID}, t.Name); err != nil {
		return t, err
	}
	return t, nil
}

// RenameTask sets a task's name. Blank names are rejected; deleting on
// blank is the edit session's decision.
func (e *Engine) RenameTask(ctx context.Context, id, name string) (*model.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, e.fail(gateway.EntityTask, ActionUpdate,
			gateway.Validation(gateway.EntityTask, ActionUpdate, "task name must not be empty"))
	}
	return e.updateTask(ctx, id, model.TaskPatch{Name: &name})
}

// SetTaskCompleted sets a task's completion flag.
func (e *Engine) SetTaskCompleted(ctx context.Context, id string, completed bool) (*model.Task, error) {
	return e.updateTask(ctx, id, model.TaskPatch{Completed: &completed})
}

// ToggleTask flips the completion flag of a task in the collection.
func (e *Engine) ToggleTask(ctx context.Context, id string) (*model.Task, error) {
	t, ok := e.coll.Task(id)
	if !ok {
		return nil, e.fail(gateway.EntityTask, ActionUpdate, gateway.NotFound(gateway.EntityTask, ActionUpdate, id))
	}
	return e.SetTaskCompleted(ctx, id, !t.Completed)
}

// SetTaskLocation pins a task to point, or unpins it when point is nil.
func (e *Engine) SetTaskLocation(ctx context.Context, id string, point *model.GeoPoint) (*model.Task, error) {
	if point == nil {
		return e.updateTask(ctx, id, model.TaskPatch{ClearLocation: true})
	}
	if err := point.Validate(); err != nil {
		return nil, e.fail(gateway.EntityTask, ActionUpdate,
			gateway.E(gateway.KindValidation, gateway.EntityTask, ActionUpdate, err))
	}
	return e.updateTask(ctx, id, model.TaskPatch{Location: point})
}

func (e *Engine) updateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	callCtx, cancel := e.callCtx(ctx)
	t, err := e.gw.UpdateTask(callCtx, id, patch)
	cancel()
	if err != nil {
		return nil, e.fail(gateway.EntityTask, ActionUpdate, err)
	}

	e.coll.ReplaceTask(*t)
	return t, nil
}

// DeleteTask deletes a task and drops any edit open on it.
func (e *Engine) DeleteTask(ctx context.Context, id string) error {
	callCtx, cancel := e.callCtx(ctx)
	err := e.gw.DeleteTask(callCtx, id)
	cancel()
	if err != nil {
		return e.fail(gateway.EntityTask, ActionDelete, err)
	}

	e.clearEditsUnderTask(id)
	e.coll.RemoveTask(id)
	e.logger.Info("deleted task", "task_id", id)
	return nil
}
