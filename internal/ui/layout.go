package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/geotask/internal/theme"
)

// Layout manages the terminal frame: a one-line header, the content area
// and a one-line status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height left between header and status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the title on the left and status on the right,
// padded to the full width.
func (l Layout) RenderHeader(title, status string) string {
	return fillBar(theme.HeaderStyle, l.Width, title, status)
}

// RenderStatusBar renders the bottom bar with hints.
func (l Layout) RenderStatusBar(hints string) string {
	return fillBar(theme.StatusBarStyle, l.Width, hints, "")
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// ColumnWidths splits the content width into n columns, giving any
// remainder to the last one.
func (l Layout) ColumnWidths(n int) []int {
	if n <= 0 {
		return nil
	}
	widths := make([]int, n)
	each := l.ContentWidth() / n
	for i := range widths {
		widths[i] = each
	}
	widths[n-1] += l.ContentWidth() - each*n
	return widths
}

func fillBar(style lipgloss.Style, width int, left, right string) string {
	l := style.Render(left)
	r := ""
	if right != "" {
		r = style.Render(right)
	}

	gap := width - lipgloss.Width(l) - lipgloss.Width(r)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, l, filler, r)
}
