package sync

import (
	"context"
	gosync "sync"
	"testing"

	"github.com/nhle/geotask/internal/collection"
	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/session"
	"github.com/nhle/geotask/internal/store"
	"github.com/nhle/geotask/internal/testutil"
)

// faultyGateway wraps a real store and fails or blocks chosen methods.
type faultyGateway struct {
	gateway.Gateway

	mu    gosync.Mutex
	fail  map[string]error
	block map[string]bool
	calls map[string]int
}

func newFaultyGateway(gw gateway.Gateway) *faultyGateway {
	return &faultyGateway{
		Gateway: gw,
		fail:    make(map[string]error),
		block:   make(map[string]bool),
		calls:   make(map[string]int),
	}
}

func (f *faultyGateway) failWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method] = err
}

func (f *faultyGateway) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = make(map[string]error)
	f.block = make(map[string]bool)
}

func (f *faultyGateway) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *faultyGateway) check(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls[method]++
	err := f.fail[method]
	block := f.block[method]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return gateway.E(gateway.KindNetwork, "", method, ctx.Err())
	}
	return err
}

func (f *faultyGateway) CreateList(ctx context.Context, in model.NewList) (*model.List, error) {
	if err := f.check(ctx, "CreateList"); err != nil {
		return nil, err
	}
	return f.Gateway.CreateList(ctx, in)
}

func (f *faultyGateway) FetchLists(ctx context.Context, ownerID string) ([]model.List, error) {
	if err := f.check(ctx, "FetchLists"); err != nil {
		return nil, err
	}
	return f.Gateway.FetchLists(ctx, ownerID)
}

func (f *faultyGateway) UpdateList(ctx context.Context, id string, p model.ListPatch) (*model.List, error) {
	if err := f.check(ctx, "UpdateList"); err != nil {
		return nil, err
	}
	return f.Gateway.UpdateList(ctx, id, p)
}

func (f *faultyGateway) DeleteList(ctx context.Context, id string) error {
	if err := f.check(ctx, "DeleteList"); err != nil {
		return err
	}
	return f.Gateway.DeleteList(ctx, id)
}

func (f *faultyGateway) CreateTask(ctx context.Context, in model.NewTask) (*model.Task, error) {
	if err := f.check(ctx, "CreateTask"); err != nil {
		return nil, err
	}
	return f.Gateway.CreateTask(ctx, in)
}

func (f *faultyGateway) FetchTasks(ctx context.Context, listID string) ([]model.Task, error) {
	if err := f.check(ctx, "FetchTasks"); err != nil {
		return nil, err
	}
	return f.Gateway.FetchTasks(ctx, listID)
}

func (f *faultyGateway) UpdateTask(ctx context.Context, id string, p model.TaskPatch) (*model.Task, error) {
	if err := f.check(ctx, "UpdateTask"); err != nil {
		return nil, err
	}
	return f.Gateway.UpdateTask(ctx, id, p)
}

func (f *faultyGateway) DeleteTask(ctx context.Context, id string) error {
	if err := f.check(ctx, "DeleteTask"); err != nil {
		return err
	}
	return f.Gateway.DeleteTask(ctx, id)
}

func (f *faultyGateway) CreateSubtask(ctx context.Context, in model.NewSubtask) (*model.Subtask, error) {
	if err := f.check(ctx, "CreateSubtask"); err != nil {
		return nil, err
	}
	return f.Gateway.CreateSubtask(ctx, in)
}

func (f *faultyGateway) UpdateSubtask(ctx context.Context, id string, p model.SubtaskPatch) (*model.Subtask, error) {
	if err := f.check(ctx, "UpdateSubtask"); err != nil {
		return nil, err
	}
	return f.Gateway.UpdateSubtask(ctx, id, p)
}

func (f *faultyGateway) DeleteSubtask(ctx context.Context, id string) error {
	if err := f.check(ctx, "DeleteSubtask"); err != nil {
		return err
	}
	return f.Gateway.DeleteSubtask(ctx, id)
}

type fixture struct {
	store  *store.SQLStore
	gw     *faultyGateway
	coll   *collection.Store
	engine *Engine
	user   *model.User
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	s := testutil.NewTestStore(t)
	gw := newFaultyGateway(s)
	coll := collection.New()
	user := &model.User{ID: "user-1", Email: "ada@example.com"}

	return &fixture{
		store:  s,
		gw:     gw,
		coll:   coll,
		engine: New(gw, coll, &session.Static{User: user}, opts...),
		user:   user,
	}
}
