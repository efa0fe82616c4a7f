package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/store"
	"github.com/nhle/geotask/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := store.Open("mysql", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := t.TempDir() + "/geotask.db"

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	testutil.MustCreateList(t, s, "u1", "Groceries")
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	lists, err := s.FetchLists(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "Groceries", lists[0].Name)
}

func TestListCRUD(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	created, err := s.CreateList(ctx, model.NewList{Name: "  Groceries ", OwnerID: "u1"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Groceries", created.Name)
	assert.Equal(t, "u1", created.OwnerID)
	assert.Nil(t, created.Location)

	testutil.MustCreateList(t, s, "u1", "Hardware")
	testutil.MustCreateList(t, s, "u2", "Someone else")

	lists, err := s.FetchLists(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "Groceries", lists[0].Name)
	assert.Equal(t, "Hardware", lists[1].Name)

	region := model.GeoRegion{Latitude: 55.6761, Longitude: 12.5683, LatitudeDelta: 0.0922, LongitudeDelta: 0.0421}
	updated, err := s.UpdateList(ctx, created.ID, model.ListPatch{Location: &region})
	require.NoError(t, err)
	require.NotNil(t, updated.Location)
	assert.Equal(t, region, *updated.Location)
	assert.Equal(t, "Groceries", updated.Name)

	updated, err = s.UpdateList(ctx, created.ID, model.ListPatch{Name: ptr("Food")})
	require.NoError(t, err)
	assert.Equal(t, "Food", updated.Name)
	require.NotNil(t, updated.Location, "rename must keep the location")

	updated, err = s.UpdateList(ctx, created.ID, model.ListPatch{ClearLocation: true})
	require.NoError(t, err)
	assert.Nil(t, updated.Location)

	require.NoError(t, s.DeleteList(ctx, created.ID))
	got, err := s.FetchList(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListValidation(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	_, err := s.CreateList(ctx, model.NewList{Name: "   ", OwnerID: "u1"})
	assert.True(t, gateway.IsValidation(err))

	_, err = s.CreateList(ctx, model.NewList{Name: "Groceries"})
	assert.True(t, gateway.IsUnauthenticated(err))

	l := testutil.MustCreateList(t, s, "u1", "Groceries")
	_, err = s.UpdateList(ctx, l.ID, model.ListPatch{Name: ptr("")})
	assert.True(t, gateway.IsValidation(err))

	_, err = s.UpdateList(ctx, l.ID, model.ListPatch{Location: &model.GeoRegion{Latitude: 91}})
	assert.True(t, gateway.IsValidation(err))
}

func TestMissingRows(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	l, err := s.FetchList(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, l)

	task, err := s.FetchTask(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, task)

	st, err := s.FetchSubtask(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, st)

	_, err = s.UpdateList(ctx, "missing", model.ListPatch{Name: ptr("x")})
	assert.True(t, gateway.IsNotFound(err))
	_, err = s.UpdateTask(ctx, "missing", model.TaskPatch{Completed: ptr(true)})
	assert.True(t, gateway.IsNotFound(err))
	_, err = s.UpdateSubtask(ctx, "missing", model.SubtaskPatch{Completed: ptr(true)})
	assert.True(t, gateway.IsNotFound(err))

	assert.True(t, gateway.IsNotFound(s.DeleteList(ctx, "missing")))
	assert.True(t, gateway.IsNotFound(s.DeleteTask(ctx, "missing")))
	assert.True(t, gateway.IsNotFound(s.DeleteSubtask(ctx, "missing")))

	_, err = s.CreateTask(ctx, model.NewTask{ListID: "missing"})
	assert.True(t, gateway.IsNotFound(err))
}

func TestTaskCRUD(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	l := testutil.MustCreateList(t, s, "u1", "Groceries")

	task, err := s.CreateTask(ctx, model.NewTask{ListID: l.ID})
	require.NoError(t, err)
	assert.Equal(t, "", task.Name, "new tasks start blank")
	assert.False(t, task.Completed)

	task, err = s.UpdateTask(ctx, task.ID, model.TaskPatch{Name: ptr("Milk")})
	require.NoError(t, err)
	assert.Equal(t, "Milk", task.Name)

	task, err = s.UpdateTask(ctx, task.ID, model.TaskPatch{
		Completed: ptr(true),
		Location:  &model.GeoPoint{Latitude: 55.6761, Longitude: 12.5683},
	})
	require.NoError(t, err)
	assert.True(t, task.Completed)
	require.NotNil(t, task.Location)
	assert.InDelta(t, 55.6761, task.Location.Latitude, 1e-9)

	tasks, err := s.FetchTasks(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, *task, tasks[0])

	require.NoError(t, s.DeleteTask(ctx, task.ID))
	tasks, err = s.FetchTasks(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSubtaskCRUD(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	l := testutil.MustCreateList(t, s, "u1", "Groceries")
	task := testutil.MustCreateTask(t, s, l.ID, "Bake")

	_, err := s.CreateSubtask(ctx, model.NewSubtask{TaskID: task.ID, Name: " "})
	assert.True(t, gateway.IsValidation(err))

	_, err = s.CreateSubtask(ctx, model.NewSubtask{TaskID: "missing", Name: "Flour"})
	assert.True(t, gateway.IsNotFound(err))

	flour := testutil.MustCreateSubtask(t, s, task.ID, "Flour")
	testutil.MustCreateSubtask(t, s, task.ID, "Eggs")

	flour2, err := s.UpdateSubtask(ctx, flour.ID, model.SubtaskPatch{Completed: ptr(true)})
	require.NoError(t, err)
	assert.True(t, flour2.Completed)
	assert.Equal(t, "Flour", flour2.Name)

	subs, err := s.FetchSubtasks(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "Flour", subs[0].Name)
	assert.Equal(t, "Eggs", subs[1].Name)

	require.NoError(t, s.DeleteSubtask(ctx, flour.ID))
	subs, err = s.FetchSubtasks(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	l := testutil.MustCreateList(t, s, "u1", "Groceries")
	task := testutil.MustCreateTask(t, s, l.ID, "Bake")
	st := testutil.MustCreateSubtask(t, s, task.ID, "Flour")

	require.NoError(t, s.DeleteTask(ctx, task.ID))
	got, err := s.FetchSubtask(ctx, st.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "subtasks go with their task")

	task = testutil.MustCreateTask(t, s, l.ID, "Bread")
	st = testutil.MustCreateSubtask(t, s, task.ID, "Yeast")

	require.NoError(t, s.DeleteList(ctx, l.ID))
	gotTask, err := s.FetchTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, gotTask)
	got, err = s.FetchSubtask(ctx, st.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOwnerLookups(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	l := testutil.MustCreateList(t, s, "u1", "Groceries")
	task := testutil.MustCreateTask(t, s, l.ID, "Bake")
	st := testutil.MustCreateSubtask(t, s, task.ID, "Flour")

	owner, err := s.ListOwner(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)

	owner, err = s.TaskOwner(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)

	owner, err = s.SubtaskOwner(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)

	owner, err = s.SubtaskOwner(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, owner)
}

func TestUsersAndSessions(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	u, err := s.CreateUser(ctx, " Ada@Example.com ", "hash")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)

	_, err = s.CreateUser(ctx, "ada@example.com", "hash")
	assert.True(t, gateway.IsValidation(err), "duplicate email")

	byEmail, err := s.UserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	sess, err := s.CreateSession(ctx, u.ID, time.Hour)
	require.NoError(t, err)

	got, err := s.SessionByToken(ctx, sess.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.UserID)
	assert.False(t, got.IsExpired())

	require.NoError(t, s.DeleteSession(ctx, sess.Token))
	got, err = s.SessionByToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	require.NoError(t, s.CreateNotification(ctx, model.Notification{
		RegionID: "Groceries",
		Title:    "Groceries",
		Message:  "You have entered the region for Groceries. Don't forget to check your list!",
	}))

	unread, err := s.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Groceries", unread[0].RegionID)

	require.NoError(t, s.MarkNotificationRead(ctx, unread[0].ID))
	unread, err = s.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, unread)

	assert.Error(t, s.MarkNotificationRead(ctx, "missing"))
}
