package sync

import (
	"context"
	"strings"

	"github.com/nhle/geotask/internal/collection"
	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/session"
)

// FetchLists replaces the lists with those owned by the signed-in user. On
// failure the lists are cleared and the error is recorded so the front-end
// can offer a retry. When nothing is selected the first list is selected and
// its tasks are loaded.
func (e *Engine) FetchLists(ctx context.Context) error {
	const entity, action = gateway.EntityList, ActionFetch

	ownerID, err := session.RequireUser(ctx, e.sessions)
	if err != nil {
		return e.fail(entity, action, err)
	}

	e.coll.SetLoading(collection.ListsKey, true)
	defer e.coll.SetLoading(collection.ListsKey, false)

	callCtx, cancel := e.callCtx(ctx)
	lists, err := e.gw.FetchLists(callCtx, ownerID)
	cancel()
	if err != nil {
		e.coll.SetLists(nil)
		e.coll.SetFetchError(collection.ListsKey, err)
		return e.fail(entity, action, err)
	}

	e.coll.SetFetchError(collection.ListsKey, nil)
	e.coll.SetLists(lists)
	e.logger.Debug("fetched lists", "count", len(lists))

	if e.coll.SelectedID() == "" && len(lists) > 0 {
		e.coll.Select(lists[0].ID)
		// A task fetch failure is recorded on its own key.
		_ = e.FetchTasks(ctx, lists[0].ID)
	}
	return nil
}

// CreateList creates a list owned by the signed-in user, appends the
// confirmed row and selects it.
func (e *Engine) CreateList(ctx context.Context, name string) (*model.List, error) {
	const entity, action = gateway.EntityList, ActionCreate

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, e.fail(entity, action, gateway.Validation(entity, action, "list name must not be empty"))
	}
	ownerID, err := session.RequireUser(ctx, e.sessions)
	if err != nil {
		return nil, e.fail(entity, action, err)
	}
	if err := e.edits.Commit(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := e.callCtx(ctx)
	l, err := e.gw.CreateList(callCtx, model.NewList{Name: name, OwnerID: ownerID})
	cancel()
	if err != nil {
		return nil, e.fail(entity, action, err)
	}

	e.coll.AppendList(*l)
	e.coll.SetTasks(l.ID, []model.Task{})
	e.coll.Select(l.ID)
	e.logger.Info("created list", "list_id", l.ID)
	return l, nil
}

// RenameList sets a list's name.
func (e *Engine) RenameList(ctx context.Context, id, name string) (*model.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, e.fail(gateway.EntityList, ActionUpdate,
			gateway.Validation(gateway.EntityList, ActionUpdate, "list name must not be empty"))
	}
	return e.updateList(ctx, id, model.ListPatch{Name: &name})
}

// SetListLocation anchors a list at region, or removes its anchor when
// region is nil. Geofences follow through the collection's change feed.
func (e *Engine) SetListLocation(ctx context.Context, id string, region *model.GeoRegion) (*model.List, error) {
	if region == nil {
		return e.updateList(ctx, id, model.ListPatch{ClearLocation: true})
	}
	if err := region.Validate(); err != nil {
		return nil, e.fail(gateway.EntityList, ActionUpdate,
			gateway.E(gateway.KindValidation, gateway.EntityList, ActionUpdate, err))
	}
	return e.updateList(ctx, id, model.ListPatch{Location: region})
}

func (e *Engine) updateList(ctx context.Context, id string, patch model.ListPatch) (*model.List, error) {
	callCtx, cancel := e.callCtx(ctx)
	l, err := e.gw.UpdateList(callCtx, id, patch)
	cancel()
	if err != nil {
		return nil, e.fail(gateway.EntityList, ActionUpdate, err)
	}

	e.coll.ReplaceList(*l)
	return l, nil
}

// DeleteList deletes a list; the backend removes its tasks. If it was
// selected the next list is selected and its tasks are loaded.
func (e *Engine) DeleteList(ctx context.Context, id string) error {
	callCtx, cancel := e.callCtx(ctx)
	err := e.gw.DeleteList(callCtx, id)
	cancel()
	if err != nil {
		return e.fail(gateway.EntityList, ActionDelete, err)
	}

	e.clearEditsUnderList(id)
	wasSelected := e.coll.SelectedID() == id
	e.coll.RemoveList(id)
	e.logger.Info("deleted list", "list_id", id)

	if next := e.coll.SelectedID(); wasSelected && next != "" {
		_ = e.FetchTasks(ctx, next)
	}
	return nil
}

// SelectList commits any open edit, selects the list and loads its tasks.
// An empty id clears the selection.
func (e *Engine) SelectList(ctx context.Context, id string) error {
	if err := e.edits.Commit(ctx); err != nil {
		return err
	}
	if !e.coll.Select(id) {
		return e.fail(gateway.EntityList, ActionFetch, gateway.NotFound(gateway.EntityList, ActionFetch, id))
	}
	if id == "" {
		return nil
	}
	return e.FetchTasks(ctx, id)
}
