package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yiblet/cliphist/internal/history"
)

// ListMsg represents messages that the list pane handles
type ListMsg interface {
	isListMsg()
}

type NavigateUpMsg struct{}

func (NavigateUpMsg) isListMsg() {}

type NavigateDownMsg struct {
	MaxIndex int
}

func (NavigateDownMsg) isListMsg() {}

type GoToTopMsg struct{}

func (GoToTopMsg) isListMsg() {}

type GoToBottomMsg struct {
	MaxIndex int
}

func (GoToBottomMsg) isListMsg() {}

type JumpToIndexMsg struct {
	Index    int
	MaxIndex int
}

func (JumpToIndexMsg) isListMsg() {}

type ResizeListMsg struct {
	Width  int
	Height int
}

func (ResizeListMsg) isListMsg() {}

// listChrome is the number of rows taken by the border and the header.
const listChrome = 4

// ListModel holds the state for the history list
type ListModel struct {
	Cursor int // Selected entry
	Offset int // First visible entry
	Width  int
	Height int
}

// NewListModel creates a list pane of the given size
func NewListModel(width, height int) ListModel {
	return ListModel{Width: width, Height: height}
}

// Update applies msg and keeps the cursor visible.
func (l *ListModel) Update(msg ListMsg) {
	switch m := msg.(type) {
	case NavigateUpMsg:
		if l.Cursor > 0 {
			l.Cursor--
		}
	case NavigateDownMsg:
		if l.Cursor < m.MaxIndex {
			l.Cursor++
		}
	case GoToTopMsg:
		l.Cursor = 0
	case GoToBottomMsg:
		l.Cursor = max(m.MaxIndex, 0)
	case JumpToIndexMsg:
		if m.Index >= 0 && m.Index <= m.MaxIndex {
			l.Cursor = m.Index
		}
	case ResizeListMsg:
		l.Width = m.Width
		l.Height = m.Height
	}
	l.scrollToCursor()
}

// Clamp moves the cursor back into range after the list shrank.
func (l *ListModel) Clamp(count int) {
	if l.Cursor >= count {
		l.Cursor = max(count-1, 0)
	}
	l.scrollToCursor()
}

func (l *ListModel) visibleRows() int {
	return max(l.Height-listChrome, 1)
}

func (l *ListModel) scrollToCursor() {
	rows := l.visibleRows()
	if l.Cursor < l.Offset {
		l.Offset = l.Cursor
	}
	if l.Cursor >= l.Offset+rows {
		l.Offset = l.Cursor - rows + 1
	}
}

// ListView renders the history list as a pure function
func ListView(model ListModel, items []*Item, focused bool, now time.Time, p Palette) string {
	borderColor := p.Border
	if focused {
		borderColor = p.Focus
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(model.Width - 2).
		Height(model.Height - 2)

	var content strings.Builder
	title := fmt.Sprintf("History (%d)", len(items))
	if focused {
		title = "● " + title
	}
	content.WriteString(lipgloss.NewStyle().Bold(true).Render(title) + "\n\n")

	if len(items) == 0 {
		content.WriteString(lipgloss.NewStyle().Foreground(p.Muted).Render("Nothing copied yet"))
		return style.Render(content.String())
	}

	innerWidth := max(model.Width-4, 10)
	end := min(model.Offset+model.visibleRows(), len(items))
	for i := model.Offset; i < end; i++ {
		item := items[i]
		age := FormatAge(now, item.Timestamp)
		prefix := fmt.Sprintf("%2d. ", i)

		titleWidth := max(innerWidth-len(prefix)-len(age)-1, 3)
		label := history.TruncateTitle(item.Title, titleWidth)
		gap := max(innerWidth-len(prefix)-lipgloss.Width(label)-len(age), 1)

		if i == model.Cursor {
			line := prefix + label + strings.Repeat(" ", gap) + age
			content.WriteString(lipgloss.NewStyle().
				Background(p.Selected).
				Foreground(p.SelectedFg).
				Width(innerWidth).
				Render(line) + "\n")
			continue
		}
		content.WriteString(prefix + label + strings.Repeat(" ", gap) +
			lipgloss.NewStyle().Foreground(p.Muted).Render(age) + "\n")
	}

	return style.Render(strings.TrimSuffix(content.String(), "\n"))
}
