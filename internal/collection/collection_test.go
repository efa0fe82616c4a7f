package collection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/geotask/internal/model"
)

func lists(ids ...string) []model.List {
	out := make([]model.List, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.List{ID: id, Name: "list " + id})
	}
	return out
}

func TestRemoveSelectedListSelectsNext(t *testing.T) {
	tests := []struct {
		name     string
		lists    []string
		selected string
		remove   string
		want     string
	}{
		{"middle selects follower", []string{"a", "b", "c"}, "b", "b", "c"},
		{"last selects previous", []string{"a", "b", "c"}, "c", "c", "b"},
		{"first selects follower", []string{"a", "b"}, "a", "a", "b"},
		{"only list clears selection", []string{"a"}, "a", "a", ""},
		{"unselected keeps selection", []string{"a", "b"}, "a", "b", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.SetLists(lists(tt.lists...))
			require.True(t, s.Select(tt.selected))

			require.True(t, s.RemoveList(tt.remove))
			assert.Equal(t, tt.want, s.SelectedID())
		})
	}
}

func TestRemoveListDropsChildren(t *testing.T) {
	s := New()
	s.SetLists(lists("a"))
	s.SetTasks("a", []model.Task{{ID: "t1", ListID: "a"}})
	s.SetSubtasks("t1", []model.Subtask{{ID: "s1", TaskID: "t1"}})

	s.RemoveList("a")

	assert.Empty(t, s.Tasks("a"))
	assert.Empty(t, s.Subtasks("t1"))
	_, ok := s.Task("t1")
	assert.False(t, ok)
}

func TestSetListsClearsVanishedSelection(t *testing.T) {
	s := New()
	s.SetLists(lists("a", "b"))
	s.Select("b")

	s.SetLists(lists("a"))
	assert.Empty(t, s.SelectedID())
}

func TestSelectUnknownList(t *testing.T) {
	s := New()
	s.SetLists(lists("a"))
	assert.False(t, s.Select("zzz"))
	assert.True(t, s.Select(""))
	assert.Empty(t, s.SelectedID())
}

func TestTaskMutations(t *testing.T) {
	s := New()
	s.SetLists(lists("a"))
	s.AppendTask(model.Task{ID: "t1", ListID: "a"})
	s.AppendTask(model.Task{ID: "t2", ListID: "a", Name: "Bread"})

	assert.True(t, s.ReplaceTask(model.Task{ID: "t1", ListID: "a", Name: "Milk"}))
	assert.False(t, s.ReplaceTask(model.Task{ID: "nope", ListID: "a"}))

	got := s.Tasks("a")
	require.Len(t, got, 2)
	assert.Equal(t, "Milk", got[0].Name)

	s.PutTask(model.Task{ID: "t3", ListID: "a", Name: "Eggs"})
	assert.Len(t, s.Tasks("a"), 3)

	s.SetSubtasks("t1", []model.Subtask{{ID: "s1", TaskID: "t1"}})
	assert.True(t, s.RemoveTask("t1"))
	assert.False(t, s.RemoveTask("t1"))
	assert.Empty(t, s.Subtasks("t1"))
	assert.Len(t, s.Tasks("a"), 2)
}

func TestSubtaskMutations(t *testing.T) {
	s := New()
	s.AppendSubtask(model.Subtask{ID: "s1", TaskID: "t1", Name: "Flour"})
	s.AppendSubtask(model.Subtask{ID: "s2", TaskID: "t1", Name: "Eggs"})

	assert.True(t, s.ReplaceSubtask(model.Subtask{ID: "s1", TaskID: "t1", Name: "Flour", Completed: true}))
	st, ok := s.Subtask("s1")
	require.True(t, ok)
	assert.True(t, st.Completed)

	assert.True(t, s.RemoveSubtask("s2"))
	assert.Len(t, s.Subtasks("t1"), 1)
}

func TestSubtasksLoaded(t *testing.T) {
	s := New()
	s.AppendTask(model.Task{ID: "t1", ListID: "l1", Name: "Bake"})
	s.AppendSubtask(model.Subtask{ID: "s1", TaskID: "t1", Name: "Flour"})
	assert.False(t, s.SubtasksLoaded("t1"), "appending is not a fetch")

	s.SetSubtasks("t1", []model.Subtask{{ID: "s1", TaskID: "t1", Name: "Flour"}})
	assert.True(t, s.SubtasksLoaded("t1"))

	s.ClearSubtasks("t1")
	assert.False(t, s.SubtasksLoaded("t1"))

	s.SetSubtasks("t1", nil)
	require.True(t, s.RemoveTask("t1"))
	assert.False(t, s.SubtasksLoaded("t1"))
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := New()
	s.SetLists([]model.List{{ID: "a", Name: "Groceries", Location: &model.GeoRegion{Latitude: 1, Longitude: 2}}})
	s.SetTasks("a", []model.Task{{ID: "t1", ListID: "a", Location: &model.GeoPoint{Latitude: 3}}})

	snap := s.Snapshot()
	snap.Lists[0].Location.Latitude = 99
	snap.Tasks["a"][0].Location.Latitude = 99

	l, _ := s.List("a")
	assert.Equal(t, 1.0, l.Location.Latitude)
	task, _ := s.Task("t1")
	assert.Equal(t, 3.0, task.Location.Latitude)

	assert.Equal(t, s.Snapshot(), s.Snapshot())
}

func TestSubscribeReportsListChanges(t *testing.T) {
	s := New()
	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })

	s.SetLists(lists("a"))
	s.SetTasks("a", nil)
	s.ReplaceList(model.List{ID: "a", Name: "renamed"})

	require.Len(t, changes, 3)
	assert.True(t, changes[0].ListsChanged)
	assert.False(t, changes[1].ListsChanged)
	assert.Equal(t, ChangeTasks, changes[1].Kind)
	assert.True(t, changes[2].ListsChanged)
}

func TestFetchStatus(t *testing.T) {
	s := New()
	s.SetLoading(ListsKey, true)
	assert.True(t, s.Loading(ListsKey))
	s.SetLoading(ListsKey, false)
	assert.False(t, s.Loading(ListsKey))

	boom := errors.New("boom")
	s.SetFetchError(TasksKey("a"), boom)
	assert.Equal(t, boom, s.FetchError(TasksKey("a")))
	s.SetFetchError(TasksKey("a"), nil)
	assert.NoError(t, s.FetchError(TasksKey("a")))
}
