// Package forms holds the huh-driven dialogs: sign-in, new list and list
// location.
package forms

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/theme"
)

// Kind identifies which dialog is open.
type Kind int

const (
	KindNone Kind = iota
	KindAuth
	KindNewList
	KindLocation
)

// AuthSubmittedMsg carries sign-in or registration credentials.
type AuthSubmittedMsg struct {
	Email    string
	Password string
	Register bool
}

// NewListSubmittedMsg carries the name for a new list.
type NewListSubmittedMsg struct {
	Name string
}

// LocationSubmittedMsg carries the new anchor of a list. A nil Region
// removes the location.
type LocationSubmittedMsg struct {
	ListID string
	Region *model.GeoRegion
}

// CancelledMsg is dispatched when the user aborts a dialog.
type CancelledMsg struct {
	Kind Kind
}

const (
	modeLogin    = "login"
	modeRegister = "register"

	locationSet    = "set"
	locationRemove = "remove"
)

// bindings holds field values on the heap so that huh's Value() pointers
// stay valid across Bubble Tea model copies.
type bindings struct {
	mode     string
	email    string
	password string

	name string

	listID    string
	action    string
	latitude  string
	longitude string
	span      model.GeoRegion
}

// Model wraps whichever form is currently open.
type Model struct {
	form   *huh.Form
	kind   Kind
	fb     *bindings
	width  int
	height int
}

// New creates an idle form model.
func New(width, height int) Model {
	return Model{fb: &bindings{}, width: width, height: height}
}

// Kind returns the open dialog, or KindNone.
func (m Model) Kind() Kind { return m.kind }

// StartAuth opens the sign-in dialog.
func (m *Model) StartAuth(email string) tea.Cmd {
	*m.fb = bindings{mode: modeLogin, email: email}
	m.kind = KindAuth
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Account").
				Options(
					huh.NewOption("Sign in", modeLogin),
					huh.NewOption("Create account", modeRegister),
				).
				Value(&m.fb.mode),
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validateRequired("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
	return m.form.Init()
}

// StartNewList opens the new list dialog.
func (m *Model) StartNewList() tea.Cmd {
	*m.fb = bindings{}
	m.kind = KindNewList
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("List name").
				Placeholder("Groceries").
				Value(&m.fb.name).
				Validate(validateRequired("Name")),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// StartLocation opens the location dialog for list. The coordinate fields
// are prefilled from the list's current anchor, else from around.
func (m *Model) StartLocation(list model.List, around model.GeoRegion) tea.Cmd {
	start := around
	if list.Location != nil {
		start = *list.Location
	}
	*m.fb = bindings{
		listID:    list.ID,
		action:    locationSet,
		latitude:  formatCoord(start.Latitude),
		longitude: formatCoord(start.Longitude),
		span:      start,
	}
	m.kind = KindLocation

	actions := []huh.Option[string]{huh.NewOption("Set location", locationSet)}
	if list.HasLocation() {
		actions = append(actions, huh.NewOption("Remove location", locationRemove))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Location for %q", list.Name)).
				Options(actions...).
				Value(&m.fb.action),
			huh.NewInput().
				Title("Latitude").
				Value(&m.fb.latitude).
				Validate(validateCoord(-90, 90)),
			huh.NewInput().
				Title("Longitude").
				Value(&m.fb.longitude).
				Validate(validateCoord(-180, 180)),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// Update handles messages for the open form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		submit := m.submit()
		m.close()
		return m, submit
	case huh.StateAborted:
		kind := m.kind
		m.close()
		return m, func() tea.Msg { return CancelledMsg{Kind: kind} }
	}
	return m, cmd
}

func (m *Model) close() {
	m.form = nil
	m.kind = KindNone
}

func (m Model) submit() tea.Cmd {
	fb := *m.fb
	switch m.kind {
	case KindAuth:
		return func() tea.Msg {
			return AuthSubmittedMsg{
				Email:    strings.TrimSpace(fb.email),
				Password: fb.password,
				Register: fb.mode == modeRegister,
			}
		}
	case KindNewList:
		return func() tea.Msg { return NewListSubmittedMsg{Name: strings.TrimSpace(fb.name)} }
	case KindLocation:
		return func() tea.Msg { return locationResult(fb) }
	}
	return nil
}

func locationResult(fb bindings) LocationSubmittedMsg {
	out := LocationSubmittedMsg{ListID: fb.listID}
	if fb.action == locationRemove {
		return out
	}
	lat, _ := strconv.ParseFloat(strings.TrimSpace(fb.latitude), 64)
	lon, _ := strconv.ParseFloat(strings.TrimSpace(fb.longitude), 64)
	region := model.RegionAround(
		model.GeoPoint{Latitude: lat, Longitude: lon},
		fb.span.LatitudeDelta, fb.span.LongitudeDelta,
	)
	out.Region = &region
	return out
}

// View renders the open form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	var title string
	switch m.kind {
	case KindAuth:
		title = "Sign in"
	case KindNewList:
		title = "New List"
	case KindLocation:
		title = "List Location"
	}

	heading := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render(title)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(heading + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 80)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateCoord(lo, hi float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("enter a number")
		}
		if v < lo || v > hi {
			return fmt.Errorf("must be between %g and %g", lo, hi)
		}
		return nil
	}
}
