package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/geotask/internal/collection"
	"github.com/nhle/geotask/internal/credential"
	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/logging"
	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/remote"
	"github.com/nhle/geotask/internal/server"
	gsync "github.com/nhle/geotask/internal/sync"
	"github.com/nhle/geotask/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := server.New(testutil.NewTestStore(t), logging.Discard())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func newSignedInClient(t *testing.T) (*remote.Client, *credential.Memory) {
	t.Helper()
	ts := newBackend(t)
	tokens := &credential.Memory{}
	c := remote.NewClient(ts.URL, tokens, remote.WithLogger(logging.Discard()))
	_, err := c.Register(context.Background(), "ada@example.com", "correct-horse")
	require.NoError(t, err)
	return c, tokens
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	ts := newBackend(t)
	tokens := &credential.Memory{}
	c := remote.NewClient(ts.URL, tokens, remote.WithLogger(logging.Discard()))

	u, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	registered, err := c.Register(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	tok, _ := tokens.Load()
	assert.NotEmpty(t, tok)

	// A fresh client picks the persisted token up.
	again := remote.NewClient(ts.URL, tokens, remote.WithLogger(logging.Discard()))
	u, err = again.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, registered.ID, u.ID)

	require.NoError(t, again.Logout(ctx))
	tok, _ = tokens.Load()
	assert.Empty(t, tok)

	u, err = again.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	_, err = c.Login(ctx, "ada@example.com", "wrong-password")
	assert.True(t, gateway.IsUnauthenticated(err))

	u, err = c.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)
}

func TestRejectedTokenSignsOut(t *testing.T) {
	ctx := context.Background()
	ts := newBackend(t)
	tokens := &credential.Memory{}
	require.NoError(t, tokens.Save("stale-token"))

	c := remote.NewClient(ts.URL, tokens, remote.WithLogger(logging.Discard()))
	u, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	tok, _ := tokens.Load()
	assert.Empty(t, tok)
}

func TestRegisterValidatesBeforeCalling(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	c := remote.NewClient(ts.URL, &credential.Memory{})
	_, err := c.Register(context.Background(), "ada@example.com", "short")
	assert.True(t, gateway.IsValidation(err))
	assert.Zero(t, hits.Load())
}

func TestRowCRUD(t *testing.T) {
	ctx := context.Background()
	c, _ := newSignedInClient(t)
	me, err := c.CurrentUser(ctx)
	require.NoError(t, err)

	l, err := c.CreateList(ctx, model.NewList{Name: "Groceries", OwnerID: me.ID})
	require.NoError(t, err)
	assert.Equal(t, me.ID, l.OwnerID)

	lists, err := c.FetchLists(ctx, me.ID)
	require.NoError(t, err)
	assert.Len(t, lists, 1)

	task, err := c.CreateTask(ctx, model.NewTask{ListID: l.ID})
	require.NoError(t, err)

	task, err = c.UpdateTask(ctx, task.ID, model.TaskPatch{Name: ptr("Milk"), Completed: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "Milk", task.Name)
	assert.True(t, task.Completed)

	st, err := c.CreateSubtask(ctx, model.NewSubtask{TaskID: task.ID, Name: "Oat"})
	require.NoError(t, err)

	subs, err := c.FetchSubtasks(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, st.ID, subs[0].ID)

	require.NoError(t, c.DeleteList(ctx, l.ID))

	got, err := c.FetchTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = c.DeleteTask(ctx, task.ID)
	assert.True(t, gateway.IsNotFound(err))
}

func TestErrorClassification(t *testing.T) {
	ctx := context.Background()
	c, _ := newSignedInClient(t)

	_, err := c.CreateList(ctx, model.NewList{Name: "  "})
	assert.True(t, gateway.IsValidation(err), "got %v", err)

	_, err = c.UpdateList(ctx, "missing", model.ListPatch{Name: ptr("x")})
	assert.True(t, gateway.IsNotFound(err), "got %v", err)

	l, err := c.FetchList(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestTransportFailureIsNetwork(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := remote.NewClient(url, &credential.Memory{})
	_, err := c.FetchLists(context.Background(), "user-1")
	assert.True(t, gateway.IsNetwork(err), "got %v", err)
}

func TestRateLimitIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := remote.NewClient(ts.URL, &credential.Memory{}, remote.WithLogger(logging.Discard()))
	_, err := c.FetchLists(context.Background(), "user-1")
	require.Error(t, err)
	assert.True(t, gateway.IsNetwork(err), "got %v", err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestEngineOverRemote(t *testing.T) {
	ctx := context.Background()
	c, _ := newSignedInClient(t)
	engine := gsync.New(c, collection.New(), c, gsync.WithLogger(logging.Discard()))

	l, err := engine.CreateList(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, l.ID, engine.Collection().SelectedID())

	task, err := engine.CreateTask(ctx, l.ID)
	require.NoError(t, err)
	engine.Edits().SetText("Milk")
	require.NoError(t, engine.Edits().Commit(ctx))

	got, ok := engine.Collection().Task(task.ID)
	require.True(t, ok)
	assert.Equal(t, "Milk", got.Name)

	fresh := gsync.New(c, collection.New(), c, gsync.WithLogger(logging.Discard()))
	require.NoError(t, fresh.FetchLists(ctx))
	assert.Len(t, fresh.Collection().Lists(), 1)
	assert.Len(t, fresh.Collection().Tasks(l.ID), 1)
}
