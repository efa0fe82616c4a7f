// Package app is the root Bubble Tea model. It routes keys to the board,
// the forms and the help overlay, and runs sync engine calls as commands.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/geofence"
	"github.com/nhle/geotask/internal/keys"
	"github.com/nhle/geotask/internal/location"
	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/session"
	appsync "github.com/nhle/geotask/internal/sync"
	"github.com/nhle/geotask/internal/theme"
	"github.com/nhle/geotask/internal/ui"
	"github.com/nhle/geotask/internal/ui/board"
	"github.com/nhle/geotask/internal/ui/forms"
	helpview "github.com/nhle/geotask/internal/ui/help"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewBoard ViewState = iota
	ViewForm
	ViewHelp
)

// NotificationReader lists reminders the user has not seen yet.
type NotificationReader interface {
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// Deps are the services the UI drives. Engine and Sessions are required.
type Deps struct {
	Engine        *appsync.Engine
	Sessions      session.Provider
	Sampler       *location.Sampler
	Geofence      *geofence.Engine
	Notifications NotificationReader
	Logger        *slog.Logger
}

// ReminderMsg is sent into the program when a geofence reminder fires.
type ReminderMsg struct {
	Notification model.Notification
}

// Model is the root Bubble Tea model.
type Model struct {
	deps   Deps
	ctx    context.Context
	logger *slog.Logger

	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	board        board.Model
	forms        forms.Model
	helpView     helpview.Model

	user   *model.User
	busy   int
	status string
	errMsg string
	unread int
	ready  bool
}

// New creates the root model. ctx bounds every engine call made by the UI.
func New(ctx context.Context, deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	k := keys.DefaultKeyMap()
	eng := deps.Engine

	return Model{
		deps:     deps,
		ctx:      ctx,
		logger:   logger,
		keys:     k,
		board:    board.New(eng.Collection(), eng.Edits(), k, 80, 24),
		forms:    forms.New(80, 24),
		helpView: helpview.New(k, 80, 24),
	}
}

// Init checks for a stored session.
func (m Model) Init() tea.Cmd {
	return m.checkSession()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.board.SetSize(w, h)
		m.forms.SetSize(w, h)
		m.helpView.SetSize(w, h)
		return m.updateActiveView(msg)

	case sessionMsg:
		m.done()
		if msg.err != nil {
			m.setError(msg.err)
		}
		if msg.user == nil {
			return m, m.openForm(m.forms.StartAuth(""))
		}
		m.user = msg.user
		m.status = msg.user.Email
		return m, m.run(fetchLists(m.ctx, m.deps.Engine))

	case signedOutMsg:
		m.done()
		m.user = nil
		m.status = ""
		m.board.CloseTask()
		m.board.EndEdit()
		return m, m.openForm(m.forms.StartAuth(""))

	case opDoneMsg:
		m.done()
		m.board.Refresh()
		if msg.err != nil {
			return m, m.handleOpError(msg.err)
		}
		m.errMsg = ""
		return m, tea.Batch(msg.next, m.fetchUnread())

	case editStartedMsg:
		m.done()
		if msg.err != nil {
			m.board.Refresh()
			return m, m.handleOpError(msg.err)
		}
		m.errMsg = ""
		return m, m.board.BeginEdit(msg.target, msg.text)

	case editCommittedMsg:
		m.done()
		if msg.err != nil {
			// The edit stays open so the text can be corrected.
			return m, m.handleOpError(msg.err)
		}
		m.errMsg = ""
		m.board.EndEdit()
		return m, nil

	case taskOpenedMsg:
		m.done()
		if msg.err != nil {
			m.board.CloseTask()
			return m, m.handleOpError(msg.err)
		}
		m.board.ShowTask(msg.id)
		return m, nil

	case unreadMsg:
		m.unread = msg.count
		return m, nil

	case ReminderMsg:
		m.status = msg.Notification.Message
		return m, m.fetchUnread()

	case forms.AuthSubmittedMsg:
		m.closeForm()
		return m, m.run(authenticate(m.ctx, m.deps.Sessions, msg))

	case forms.NewListSubmittedMsg:
		m.closeForm()
		return m, m.run(createList(m.ctx, m.deps.Engine, msg.Name))

	case forms.LocationSubmittedMsg:
		m.closeForm()
		return m, m.run(setLocation(m.ctx, m.deps.Engine, msg))

	case forms.CancelledMsg:
		m.closeForm()
		if msg.Kind == forms.KindAuth && m.user == nil {
			return m, tea.Quit
		}
		return m, nil

	case board.SelectListMsg:
		return m, m.run(selectList(m.ctx, m.deps.Engine, msg.ID))

	case board.OpenTaskMsg:
		return m, m.run(openTask(m.ctx, m.deps.Engine, msg.ID))

	case board.NewListMsg:
		return m, m.openForm(m.forms.StartNewList())

	case board.NewTaskMsg:
		return m, m.run(createTask(m.ctx, m.deps.Engine, msg.ListID))

	case board.NewSubtaskMsg:
		return m, m.run(createSubtask(m.ctx, m.deps.Engine, msg))

	case board.StartEditMsg:
		return m, m.run(startEdit(m.ctx, m.deps.Engine, msg))

	case board.CommitEditMsg:
		return m, m.run(commitEdit(m.ctx, m.deps.Engine))

	case board.ToggleMsg:
		return m, m.run(toggle(m.ctx, m.deps.Engine, msg.Target))

	case board.DeleteMsg:
		return m, m.run(deleteEntity(m.ctx, m.deps.Engine, msg.Target))

	case board.LocationMsg:
		l, ok := m.deps.Engine.Collection().List(msg.ListID)
		if !ok {
			return m, nil
		}
		return m, m.openForm(m.forms.StartLocation(l, m.mapRegion()))

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work outside of forms and inline
// editing.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}
	if m.currentView == ViewForm || m.board.Typing() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
		} else {
			m.previousView = m.currentView
			m.currentView = ViewHelp
		}
		return nil, true
	case key.Matches(msg, m.keys.Refresh):
		m.errMsg = ""
		return m.run(fetchLists(m.ctx, m.deps.Engine)), true
	case key.Matches(msg, m.keys.Logout):
		return m.run(signOut(m.ctx, m.deps.Sessions, m.deps.Engine)), true
	case key.Matches(msg, m.keys.ClearReminders) && m.unread > 0:
		return m.clearReminders(), true
	}
	return nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewBoard:
		m.board, cmd = m.board.Update(msg)
	case ViewForm:
		m.forms, cmd = m.forms.Update(msg)
	case ViewHelp:
		if _, ok := msg.(tea.KeyMsg); ok {
			m.currentView = m.previousView
		}
	}
	return m, cmd
}

func (m *Model) openForm(init tea.Cmd) tea.Cmd {
	if m.currentView != ViewForm {
		m.previousView = m.currentView
	}
	m.currentView = ViewForm
	return init
}

func (m *Model) closeForm() {
	m.currentView = ViewBoard
}

// run counts an in-flight engine call.
func (m *Model) run(cmd tea.Cmd) tea.Cmd {
	m.busy++
	return cmd
}

func (m *Model) done() {
	if m.busy > 0 {
		m.busy--
	}
}

func (m *Model) setError(err error) {
	if opErr, ok := appsync.AsOperationError(err); ok {
		m.errMsg = opErr.UserMessage()
	} else {
		m.errMsg = err.Error()
	}
	m.logger.Debug("ui operation failed", "error", err)
}

// handleOpError shows the failure and sends the user to the sign-in form
// when the session is gone.
func (m *Model) handleOpError(err error) tea.Cmd {
	m.setError(err)
	if gateway.IsUnauthenticated(err) {
		m.user = nil
		return m.openForm(m.forms.StartAuth(""))
	}
	return nil
}

// mapRegion is where the location form starts when a list has no anchor.
func (m Model) mapRegion() model.GeoRegion {
	if m.deps.Sampler != nil {
		return m.deps.Sampler.InitialRegion()
	}
	return model.RegionAround(location.DefaultPoint, model.DefaultLatitudeDelta, model.DefaultLongitudeDelta)
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "GeoTask"
	if m.unread > 0 {
		title = fmt.Sprintf("GeoTask [%d new]", m.unread)
	}
	header := m.layout.RenderHeader(title, m.statusText())
	return m.layout.RenderWithFrame(header, m.renderContent(), m.layout.RenderStatusBar(m.hints()))
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewForm:
		return m.forms.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return m.board.View()
	}
}

func (m Model) statusText() string {
	s := m.status
	if m.busy > 0 {
		s = "syncing… " + s
	}
	if m.deps.Geofence != nil && m.deps.Geofence.Pending() {
		s += " | reminders off: location permission"
	}
	return s
}

func (m Model) hints() string {
	if m.errMsg != "" {
		return theme.ErrorStyle.Render(m.errMsg)
	}
	switch {
	case m.currentView == ViewForm:
		return "enter submit | esc cancel"
	case m.currentView == ViewHelp:
		return "any key to close"
	case m.board.Typing():
		return "enter/esc save (empty deletes)"
	}
	if d := m.board.Describe(); d != "" {
		return d + " | " + m.helpView.Short()
	}
	return m.helpView.Short()
}
