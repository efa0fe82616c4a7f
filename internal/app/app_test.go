package app

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/geotask/internal/collection"
	"github.com/nhle/geotask/internal/editsession"
	"github.com/nhle/geotask/internal/logging"
	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/session"
	"github.com/nhle/geotask/internal/store"
	appsync "github.com/nhle/geotask/internal/sync"
	"github.com/nhle/geotask/internal/testutil"
	"github.com/nhle/geotask/internal/ui/board"
	"github.com/nhle/geotask/internal/ui/forms"
)

type fixture struct {
	store    *store.SQLStore
	sessions *session.Static
	engine   *appsync.Engine
}

func newFixture(t *testing.T, signedIn bool) *fixture {
	t.Helper()
	s := testutil.NewTestStore(t)
	sessions := &session.Static{}
	if signedIn {
		sessions.User = &model.User{ID: "user-1", Email: "ada@example.com"}
	}
	eng := appsync.New(s, collection.New(), sessions, appsync.WithLogger(logging.Discard()))
	return &fixture{store: s, sessions: sessions, engine: eng}
}

func (f *fixture) model() Model {
	m := New(context.Background(), Deps{
		Engine:        f.engine,
		Sessions:      f.sessions,
		Notifications: f.store,
		Logger:        logging.Discard(),
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

// drive feeds msg and then follows the commands it produces for as long
// as they yield UI or engine messages. It stops once an input or form has
// focus, since their commands wait on blink timers.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	for i := 0; i < 10 && msg != nil; i++ {
		next, cmd := m.Update(msg)
		m = next.(Model)
		_, focused := msg.(editStartedMsg)
		if cmd == nil || focused || m.currentView == ViewForm {
			break
		}
		msg = firstKnown(cmd())
	}
	return m
}

func firstKnown(msg tea.Msg) tea.Msg {
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if got := firstKnown(c()); got != nil {
				return got
			}
		}
		return nil
	}
	switch msg.(type) {
	case sessionMsg, signedOutMsg, opDoneMsg, editStartedMsg, editCommittedMsg, taskOpenedMsg, unreadMsg,
		board.SelectListMsg, board.OpenTaskMsg, board.NewTaskMsg, board.NewSubtaskMsg,
		board.StartEditMsg, board.CommitEditMsg, board.ToggleMsg, board.DeleteMsg:
		return msg
	}
	return nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSignedOutStartOpensSignIn(t *testing.T) {
	f := newFixture(t, false)
	m := drive(t, f.model(), sessionMsg{})

	assert.Equal(t, ViewForm, m.currentView)
	assert.Equal(t, forms.KindAuth, m.forms.Kind())
}

func TestSignedInStartLoadsLists(t *testing.T) {
	f := newFixture(t, true)
	l := testutil.MustCreateList(t, f.store, "user-1", "Groceries")
	testutil.MustCreateTask(t, f.store, l.ID, "Milk")

	m := drive(t, f.model(), sessionMsg{user: f.sessions.User})

	coll := f.engine.Collection()
	assert.Equal(t, ViewBoard, m.currentView)
	assert.Equal(t, l.ID, coll.SelectedID())
	assert.Len(t, coll.Tasks(l.ID), 1)
	assert.Zero(t, m.busy)
	assert.Contains(t, m.View(), "Groceries")
}

func TestNewTaskIsNamedInline(t *testing.T) {
	f := newFixture(t, true)
	l := testutil.MustCreateList(t, f.store, "user-1", "Groceries")
	m := drive(t, f.model(), sessionMsg{user: f.sessions.User})

	m = drive(t, m, runes("n"))
	require.True(t, m.board.Typing())
	state := f.engine.Edits().State()
	require.True(t, state.Editing)

	for _, r := range "Milk" {
		next, _ := m.Update(runes(string(r)))
		m = next.(Model)
	}
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.board.Typing())
	got, ok := f.engine.Collection().Task(state.Target.ID)
	require.True(t, ok)
	assert.Equal(t, "Milk", got.Name)
	assert.Equal(t, l.ID, got.ListID)
}

func TestBlankInlineNameDeletesTask(t *testing.T) {
	f := newFixture(t, true)
	l := testutil.MustCreateList(t, f.store, "user-1", "Groceries")
	m := drive(t, f.model(), sessionMsg{user: f.sessions.User})

	m = drive(t, m, runes("n"))
	require.True(t, m.board.Typing())
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Empty(t, f.engine.Collection().Tasks(l.ID))
	remote, err := f.store.FetchTasks(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Empty(t, remote)
}

func TestLostSessionReturnsToSignIn(t *testing.T) {
	f := newFixture(t, true)
	m := drive(t, f.model(), sessionMsg{user: f.sessions.User})

	f.sessions.User = nil
	m = drive(t, m, runes("r"))

	assert.Equal(t, ViewForm, m.currentView)
	assert.Equal(t, forms.KindAuth, m.forms.Kind())
	assert.Equal(t, "Please sign in to continue.", m.errMsg)
}

func TestToggleAndUnreadCount(t *testing.T) {
	f := newFixture(t, true)
	l := testutil.MustCreateList(t, f.store, "user-1", "Groceries")
	task := testutil.MustCreateTask(t, f.store, l.ID, "Milk")
	require.NoError(t, f.store.CreateNotification(context.Background(), model.Notification{
		RegionID: "Groceries", Title: "Groceries", Message: "You are near Groceries",
	}))

	m := drive(t, f.model(), sessionMsg{user: f.sessions.User})
	m = drive(t, m, board.ToggleMsg{Target: targetTask(task.ID)})

	got, ok := f.engine.Collection().Task(task.ID)
	require.True(t, ok)
	assert.True(t, got.Completed)
	assert.Equal(t, 1, m.unread)

	m = drive(t, m, runes("c"))
	assert.Zero(t, m.unread)
}

func targetTask(id string) editsession.Target {
	return editsession.Target{Kind: editsession.KindTask, ID: id}
}
