// Package board renders lists, tasks and the open task's subtasks side by
// side and translates keys into intents for the root model.
package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/geotask/internal/collection"
	"github.com/nhle/geotask/internal/editsession"
	"github.com/nhle/geotask/internal/keys"
	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/theme"
)

// Pane is a board column.
type Pane int

const (
	PaneLists Pane = iota
	PaneTasks
	PaneSubtasks
)

// Model is the board view.
type Model struct {
	coll  *collection.Store
	edits *editsession.Session
	keys  *keys.KeyMap

	focus      Pane
	listCursor int
	taskCursor int
	subCursor  int
	openTaskID string

	input  textinput.Model
	adding bool

	width  int
	height int
}

// New creates a board over coll.
func New(coll *collection.Store, edits *editsession.Session, k *keys.KeyMap, width, height int) Model {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.CharLimit = 200

	return Model{
		coll:   coll,
		edits:  edits,
		keys:   k,
		input:  ti,
		width:  width,
		height: height,
	}
}

// Focus returns the focused pane.
func (m Model) Focus() Pane { return m.focus }

// OpenTaskID returns the task whose subtasks are shown, if any.
func (m Model) OpenTaskID() string { return m.openTaskID }

// Typing reports whether keystrokes go to the inline input.
func (m Model) Typing() bool {
	return m.adding || m.edits.State().Editing
}

// SetSize updates the board dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// ShowTask opens the subtask column for id and focuses it.
func (m *Model) ShowTask(id string) {
	m.openTaskID = id
	m.subCursor = 0
	m.focus = PaneSubtasks
}

// CloseTask hides the subtask column.
func (m *Model) CloseTask() {
	m.openTaskID = ""
	if m.focus == PaneSubtasks {
		m.focus = PaneTasks
	}
}

// BeginEdit focuses the inline input on text. The caller has already
// started the edit session.
func (m *Model) BeginEdit(t editsession.Target, text string) tea.Cmd {
	m.adding = false
	m.input.SetValue(text)
	m.input.CursorEnd()
	m.input.Placeholder = "name"
	m.moveCursorTo(t)
	return m.input.Focus()
}

// EndEdit blurs the inline input.
func (m *Model) EndEdit() {
	m.adding = false
	m.input.Blur()
	m.input.SetValue("")
	m.clampCursors()
}

// Update handles key input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.Typing() {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.adding {
		return m.handleAddingKeys(keyMsg)
	}
	if m.edits.State().Editing {
		return m.handleEditingKeys(keyMsg)
	}
	return m.handleNormalKeys(keyMsg)
}

// handleEditingKeys commits when the input loses focus. Enter, esc and
// moving away all count as leaving the field.
func (m Model) handleEditingKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", "up", "down", "tab":
		return m, emit(CommitEditMsg{})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.edits.SetText(m.input.Value())
	return m, cmd
}

func (m Model) handleAddingKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.EndEdit()
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		taskID := m.openTaskID
		m.EndEdit()
		if name == "" {
			return m, nil
		}
		return m, emit(NewSubtaskMsg{TaskID: taskID, Name: name})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Left):
		if m.focus > PaneLists {
			m.focus--
		}
	case key.Matches(msg, m.keys.Right):
		if m.focus == PaneLists {
			m.focus = PaneTasks
		} else if m.focus == PaneTasks && m.openTaskID != "" {
			m.focus = PaneSubtasks
		}
	case key.Matches(msg, m.keys.Back):
		if m.openTaskID != "" {
			m.CloseTask()
		}
	case key.Matches(msg, m.keys.Select):
		return m, m.selectCurrent()
	case key.Matches(msg, m.keys.NewList):
		return m, emit(NewListMsg{})
	case key.Matches(msg, m.keys.NewTask):
		if id := m.coll.SelectedID(); id != "" {
			m.focus = PaneTasks
			return m, emit(NewTaskMsg{ListID: id})
		}
	case key.Matches(msg, m.keys.NewSubtask):
		if m.openTaskID != "" {
			m.focus = PaneSubtasks
			m.adding = true
			m.input.SetValue("")
			m.input.Placeholder = "new subtask"
			return m, m.input.Focus()
		}
	case key.Matches(msg, m.keys.Rename):
		if t, name, ok := m.current(); ok {
			return m, emit(StartEditMsg{Target: t, Text: name})
		}
	case key.Matches(msg, m.keys.Toggle):
		if t, _, ok := m.current(); ok && t.Kind != editsession.KindList {
			return m, emit(ToggleMsg{Target: t})
		}
	case key.Matches(msg, m.keys.Delete):
		if t, _, ok := m.current(); ok {
			return m, emit(DeleteMsg{Target: t})
		}
	case key.Matches(msg, m.keys.Location):
		if l, ok := m.cursorList(); ok {
			return m, emit(LocationMsg{ListID: l.ID})
		}
	}
	return m, nil
}

func (m *Model) selectCurrent() tea.Cmd {
	switch m.focus {
	case PaneLists:
		l, ok := m.cursorList()
		if !ok {
			return nil
		}
		m.taskCursor = 0
		m.CloseTask()
		m.focus = PaneTasks
		return emit(SelectListMsg{ID: l.ID})
	case PaneTasks:
		tasks := m.coll.Tasks(m.coll.SelectedID())
		if m.taskCursor >= len(tasks) {
			return nil
		}
		return emit(OpenTaskMsg{ID: tasks[m.taskCursor].ID})
	}
	return nil
}

// current returns the entity under the cursor in the focused pane.
func (m Model) current() (editsession.Target, string, bool) {
	switch m.focus {
	case PaneLists:
		if l, ok := m.cursorList(); ok {
			return editsession.Target{Kind: editsession.KindList, ID: l.ID}, l.Name, true
		}
	case PaneTasks:
		tasks := m.coll.Tasks(m.coll.SelectedID())
		if m.taskCursor < len(tasks) {
			t := tasks[m.taskCursor]
			return editsession.Target{Kind: editsession.KindTask, ID: t.ID}, t.Name, true
		}
	case PaneSubtasks:
		subs := m.coll.Subtasks(m.openTaskID)
		if m.subCursor < len(subs) {
			st := subs[m.subCursor]
			return editsession.Target{Kind: editsession.KindSubtask, ID: st.ID}, st.Name, true
		}
	}
	return editsession.Target{}, "", false
}

func (m Model) cursorList() (model.List, bool) {
	lists := m.coll.Lists()
	if m.listCursor < 0 || m.listCursor >= len(lists) {
		return model.List{}, false
	}
	return lists[m.listCursor], true
}

func (m *Model) moveCursor(delta int) {
	switch m.focus {
	case PaneLists:
		m.listCursor = clamp(m.listCursor+delta, len(m.coll.Lists()))
	case PaneTasks:
		m.taskCursor = clamp(m.taskCursor+delta, len(m.coll.Tasks(m.coll.SelectedID())))
	case PaneSubtasks:
		m.subCursor = clamp(m.subCursor+delta, len(m.coll.Subtasks(m.openTaskID)))
	}
}

// moveCursorTo focuses the pane holding t and points its cursor at t.
func (m *Model) moveCursorTo(t editsession.Target) {
	switch t.Kind {
	case editsession.KindList:
		m.focus = PaneLists
		for i, l := range m.coll.Lists() {
			if l.ID == t.ID {
				m.listCursor = i
			}
		}
	case editsession.KindTask:
		m.focus = PaneTasks
		for i, task := range m.coll.Tasks(m.coll.SelectedID()) {
			if task.ID == t.ID {
				m.taskCursor = i
			}
		}
	case editsession.KindSubtask:
		m.focus = PaneSubtasks
		for i, st := range m.coll.Subtasks(m.openTaskID) {
			if st.ID == t.ID {
				m.subCursor = i
			}
		}
	}
}

// clampCursors keeps every cursor inside its column after rows vanish.
func (m *Model) clampCursors() {
	m.listCursor = clamp(m.listCursor, len(m.coll.Lists()))
	m.taskCursor = clamp(m.taskCursor, len(m.coll.Tasks(m.coll.SelectedID())))
	if m.openTaskID != "" {
		if _, ok := m.coll.Task(m.openTaskID); !ok {
			m.CloseTask()
		}
	}
	m.subCursor = clamp(m.subCursor, len(m.coll.Subtasks(m.openTaskID)))
}

// Refresh re-validates cursors after the collection changed.
func (m *Model) Refresh() { m.clampCursors() }

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// View renders the board columns.
func (m Model) View() string {
	panes := []string{m.renderLists(), m.renderTasks()}
	if m.openTaskID != "" {
		panes = append(panes, m.renderSubtasks())
	}

	each := m.width / len(panes)
	rendered := make([]string, len(panes))
	for i, p := range panes {
		w := each
		if i == len(panes)-1 {
			w = m.width - each*(len(panes)-1)
		}
		rendered[i] = theme.PaneStyle(int(m.focus) == i).
			Width(max(w-2, 0)).
			Height(max(m.height-2, 0)).
			Render(p)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderLists() string {
	var b strings.Builder
	b.WriteString(theme.PaneTitleStyle.Render("Lists"))
	b.WriteString("\n")

	lists := m.coll.Lists()
	if len(lists) == 0 {
		b.WriteString(theme.DimmedStyle.Render("No lists yet. Press N."))
		return b.String()
	}

	selected := m.coll.SelectedID()
	for i, l := range lists {
		name := l.Name
		if l.ID == selected {
			name = "● " + name
		}
		if l.HasLocation() {
			name += " " + theme.LocationBadgeStyle.Render("⌖")
		}
		t := editsession.Target{Kind: editsession.KindList, ID: l.ID}
		b.WriteString(m.renderRow(t, name, m.focus == PaneLists && i == m.listCursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderTasks() string {
	var b strings.Builder
	listID := m.coll.SelectedID()
	title := "Tasks"
	if l, ok := m.coll.List(listID); ok {
		title = l.Name
	}
	b.WriteString(theme.PaneTitleStyle.Render(title))
	b.WriteString("\n")

	switch {
	case listID == "":
		b.WriteString(theme.DimmedStyle.Render("Select a list."))
		return b.String()
	case m.coll.Loading(collection.TasksKey(listID)):
		b.WriteString(theme.DimmedStyle.Render("Loading..."))
		return b.String()
	case m.coll.FetchError(collection.TasksKey(listID)) != nil:
		b.WriteString(theme.ErrorStyle.Render("Could not load tasks. Press r to retry."))
		return b.String()
	}

	tasks := m.coll.Tasks(listID)
	if len(tasks) == 0 {
		b.WriteString(theme.DimmedStyle.Render("No tasks. Press n."))
	}
	for i, task := range tasks {
		t := editsession.Target{Kind: editsession.KindTask, ID: task.ID}
		label := checkbox(task.Completed) + " " + task.Name
		if task.Completed && !m.edits.IsEditing(t) {
			label = theme.CompletedStyle.Render(label)
		}
		b.WriteString(m.renderRow(t, label, m.focus == PaneTasks && i == m.taskCursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderSubtasks() string {
	var b strings.Builder
	title := "Subtasks"
	if task, ok := m.coll.Task(m.openTaskID); ok && task.Name != "" {
		title = task.Name
	}
	b.WriteString(theme.PaneTitleStyle.Render(title))
	b.WriteString("\n")

	if m.coll.Loading(collection.SubtasksKey(m.openTaskID)) {
		b.WriteString(theme.DimmedStyle.Render("Loading..."))
		return b.String()
	}

	subs := m.coll.Subtasks(m.openTaskID)
	for i, st := range subs {
		t := editsession.Target{Kind: editsession.KindSubtask, ID: st.ID}
		label := checkbox(st.Completed) + " " + st.Name
		if st.Completed && !m.edits.IsEditing(t) {
			label = theme.CompletedStyle.Render(label)
		}
		b.WriteString(m.renderRow(t, label, m.focus == PaneSubtasks && i == m.subCursor))
		b.WriteString("\n")
	}
	if m.adding {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	} else if len(subs) == 0 {
		b.WriteString(theme.DimmedStyle.Render("No subtasks. Press s."))
	}
	return b.String()
}

// renderRow draws one entry, swapping in the inline input when the entry is
// under edit.
func (m Model) renderRow(t editsession.Target, label string, selected bool) string {
	if m.edits.IsEditing(t) {
		return m.input.View()
	}
	if selected {
		return theme.SelectedItemStyle.Render(label)
	}
	return theme.ItemStyle.Render(label)
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// Describe returns a one-line summary of the focused entry for the status
// bar.
func (m Model) Describe() string {
	t, name, ok := m.current()
	if !ok {
		return ""
	}
	if name == "" {
		name = "(untitled)"
	}
	return fmt.Sprintf("%s: %s", t.Kind, name)
}
