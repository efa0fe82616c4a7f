package board

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/geotask/internal/collection"
	"github.com/nhle/geotask/internal/editsession"
	"github.com/nhle/geotask/internal/keys"
	"github.com/nhle/geotask/internal/model"
)

type nopCommitter struct{}

func (nopCommitter) CommitRename(context.Context, editsession.Target, string) error { return nil }
func (nopCommitter) CommitDelete(context.Context, editsession.Target) error         { return nil }

func newBoard(t *testing.T) (Model, *collection.Store, *editsession.Session) {
	t.Helper()
	coll := collection.New()
	coll.SetLists([]model.List{
		{ID: "l1", Name: "Groceries"},
		{ID: "l2", Name: "Work"},
	})
	coll.Select("l1")
	coll.SetTasks("l1", []model.Task{
		{ID: "t1", ListID: "l1", Name: "Milk"},
		{ID: "t2", ListID: "l1", Name: "Eggs", Completed: true},
	})
	edits := editsession.New(nopCommitter{})
	return New(coll, edits, keys.DefaultKeyMap(), 90, 20), coll, edits
}

func press(t *testing.T, m Model, k string) (Model, tea.Msg) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	m, cmd := m.Update(msg)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestSelectListEmitsIntent(t *testing.T) {
	m, _, _ := newBoard(t)

	m, _ = press(t, m, "j")
	m, got := press(t, m, "enter")
	assert.Equal(t, SelectListMsg{ID: "l2"}, got)
	assert.Equal(t, PaneTasks, m.Focus())
}

func TestTaskPaneIntents(t *testing.T) {
	m, _, _ := newBoard(t)
	m, _ = press(t, m, "l")
	require.Equal(t, PaneTasks, m.Focus())

	m, got := press(t, m, "j")
	assert.Nil(t, got)

	_, got = press(t, m, "x")
	assert.Equal(t, ToggleMsg{Target: editsession.Target{Kind: editsession.KindTask, ID: "t2"}}, got)

	_, got = press(t, m, "e")
	assert.Equal(t, StartEditMsg{Target: editsession.Target{Kind: editsession.KindTask, ID: "t2"}, Text: "Eggs"}, got)

	_, got = press(t, m, "d")
	assert.Equal(t, DeleteMsg{Target: editsession.Target{Kind: editsession.KindTask, ID: "t2"}}, got)

	_, got = press(t, m, "enter")
	assert.Equal(t, OpenTaskMsg{ID: "t2"}, got)

	_, got = press(t, m, "n")
	assert.Equal(t, NewTaskMsg{ListID: "l1"}, got)
}

func TestListsCannotBeToggled(t *testing.T) {
	m, _, _ := newBoard(t)
	_, got := press(t, m, "x")
	assert.Nil(t, got)

	_, got = press(t, m, "L")
	assert.Equal(t, LocationMsg{ListID: "l1"}, got)
}

func TestEditingCommitsOnBlur(t *testing.T) {
	m, _, edits := newBoard(t)
	target := editsession.Target{Kind: editsession.KindTask, ID: "t1"}
	require.NoError(t, edits.Start(context.Background(), target, "Milk"))
	m.BeginEdit(target, "Milk")
	require.True(t, m.Typing())
	assert.Equal(t, PaneTasks, m.Focus())

	m, _ = press(t, m, "s")
	assert.Equal(t, "Milks", edits.State().Text)

	_, got := press(t, m, "esc")
	assert.Equal(t, CommitEditMsg{}, got)

	_, got = press(t, m, "enter")
	assert.Equal(t, CommitEditMsg{}, got)
}

func TestAddingSubtask(t *testing.T) {
	m, coll, _ := newBoard(t)
	coll.SetSubtasks("t1", nil)
	m.ShowTask("t1")

	m, _ = press(t, m, "s")
	require.True(t, m.Typing())
	for _, r := range "Oat" {
		m, _ = press(t, m, string(r))
	}
	m, got := press(t, m, "enter")
	assert.Equal(t, NewSubtaskMsg{TaskID: "t1", Name: "Oat"}, got)
	assert.False(t, m.Typing())

	m, _ = press(t, m, "s")
	_, got = press(t, m, "enter")
	assert.Nil(t, got, "blank subtask is dropped")
}

func TestRefreshClosesVanishedTask(t *testing.T) {
	m, coll, _ := newBoard(t)
	m.ShowTask("t1")
	coll.RemoveTask("t1")
	m.Refresh()
	assert.Empty(t, m.OpenTaskID())
	assert.Equal(t, PaneTasks, m.Focus())
}

func TestViewRendersColumns(t *testing.T) {
	m, _, _ := newBoard(t)
	out := m.View()
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "Milk")
	assert.Contains(t, out, "[x]")
}
