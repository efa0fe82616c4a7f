package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/geotask/internal/editsession"
	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/session"
	appsync "github.com/nhle/geotask/internal/sync"
	"github.com/nhle/geotask/internal/ui/board"
	"github.com/nhle/geotask/internal/ui/forms"
)

// sessionMsg carries the outcome of a session check or sign-in.
type sessionMsg struct {
	user *model.User
	err  error
}

type signedOutMsg struct{}

// opDoneMsg is sent after an engine call; next runs on success.
type opDoneMsg struct {
	err  error
	next tea.Cmd
}

type editStartedMsg struct {
	target editsession.Target
	text   string
	err    error
}

type editCommittedMsg struct{ err error }

type taskOpenedMsg struct {
	id  string
	err error
}

type unreadMsg struct{ count int }

func (m Model) checkSession() tea.Cmd {
	ctx, sessions := m.ctx, m.deps.Sessions
	return func() tea.Msg {
		u, err := sessions.CurrentUser(ctx)
		return sessionMsg{user: u, err: err}
	}
}

func authenticate(ctx context.Context, sessions session.Provider, in forms.AuthSubmittedMsg) tea.Cmd {
	return func() tea.Msg {
		var (
			u   *model.User
			err error
		)
		if in.Register {
			u, err = sessions.Register(ctx, in.Email, in.Password)
		} else {
			u, err = sessions.Login(ctx, in.Email, in.Password)
		}
		return sessionMsg{user: u, err: err}
	}
}

func signOut(ctx context.Context, sessions session.Provider, eng *appsync.Engine) tea.Cmd {
	return func() tea.Msg {
		eng.Edits().Clear()
		if err := sessions.Logout(ctx); err != nil {
			return opDoneMsg{err: err}
		}
		eng.Collection().SetLists(nil)
		return signedOutMsg{}
	}
}

func fetchLists(ctx context.Context, eng *appsync.Engine) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: eng.FetchLists(ctx)}
	}
}

func selectList(ctx context.Context, eng *appsync.Engine, id string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: eng.SelectList(ctx, id)}
	}
}

func createList(ctx context.Context, eng *appsync.Engine, name string) tea.Cmd {
	return func() tea.Msg {
		_, err := eng.CreateList(ctx, name)
		return opDoneMsg{err: err}
	}
}

func setLocation(ctx context.Context, eng *appsync.Engine, in forms.LocationSubmittedMsg) tea.Cmd {
	return func() tea.Msg {
		_, err := eng.SetListLocation(ctx, in.ListID, in.Region)
		return opDoneMsg{err: err}
	}
}

func openTask(ctx context.Context, eng *appsync.Engine, id string) tea.Cmd {
	return func() tea.Msg {
		_, err := eng.OpenTask(ctx, id)
		return taskOpenedMsg{id: id, err: err}
	}
}

// createTask adds a blank task; the engine opens it for editing, so the
// board is told to focus the input.
func createTask(ctx context.Context, eng *appsync.Engine, listID string) tea.Cmd {
	return func() tea.Msg {
		t, err := eng.CreateTask(ctx, listID)
		if err != nil {
			return editStartedMsg{err: err}
		}
		return editStartedMsg{
			target: editsession.Target{Kind: editsession.KindTask, ID: t.ID},
			text:   t.Name,
		}
	}
}

func createSubtask(ctx context.Context, eng *appsync.Engine, in board.NewSubtaskMsg) tea.Cmd {
	return func() tea.Msg {
		_, err := eng.CreateSubtask(ctx, in.TaskID, in.Name)
		return opDoneMsg{err: err}
	}
}

func startEdit(ctx context.Context, eng *appsync.Engine, in board.StartEditMsg) tea.Cmd {
	return func() tea.Msg {
		err := eng.Edits().Start(ctx, in.Target, in.Text)
		return editStartedMsg{target: in.Target, text: in.Text, err: err}
	}
}

func commitEdit(ctx context.Context, eng *appsync.Engine) tea.Cmd {
	return func() tea.Msg {
		return editCommittedMsg{err: eng.Edits().Commit(ctx)}
	}
}

func toggle(ctx context.Context, eng *appsync.Engine, t editsession.Target) tea.Cmd {
	return func() tea.Msg {
		var err error
		switch t.Kind {
		case editsession.KindTask:
			_, err = eng.ToggleTask(ctx, t.ID)
		case editsession.KindSubtask:
			_, err = eng.ToggleSubtask(ctx, t.ID)
		}
		return opDoneMsg{err: err}
	}
}

func deleteEntity(ctx context.Context, eng *appsync.Engine, t editsession.Target) tea.Cmd {
	return func() tea.Msg {
		var err error
		switch t.Kind {
		case editsession.KindList:
			err = eng.DeleteList(ctx, t.ID)
		case editsession.KindTask:
			err = eng.DeleteTask(ctx, t.ID)
		case editsession.KindSubtask:
			err = eng.DeleteSubtask(ctx, t.ID)
		}
		return opDoneMsg{err: err}
	}
}

// fetchUnread counts reminders not yet seen.
func (m Model) fetchUnread() tea.Cmd {
	n := m.deps.Notifications
	if n == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		unread, err := n.GetUnreadNotifications(ctx)
		if err != nil {
			return unreadMsg{}
		}
		return unreadMsg{count: len(unread)}
	}
}

// clearReminders marks every unread reminder as seen.
func (m Model) clearReminders() tea.Cmd {
	n := m.deps.Notifications
	if n == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		unread, err := n.GetUnreadNotifications(ctx)
		if err != nil {
			return unreadMsg{}
		}
		left := len(unread)
		for _, r := range unread {
			if err := n.MarkNotificationRead(ctx, r.ID); err == nil {
				left--
			}
		}
		return unreadMsg{count: left}
	}
}
