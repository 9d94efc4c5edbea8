package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PreviewMsg represents messages that the preview pane handles
type PreviewMsg interface {
	isPreviewMsg()
}

type ScrollToTopMsg struct{}

func (ScrollToTopMsg) isPreviewMsg() {}

type ScrollToBottomMsg struct {
	MaxScroll int
}

func (ScrollToBottomMsg) isPreviewMsg() {}

type PageUpMsg struct{}

func (PageUpMsg) isPreviewMsg() {}

type PageDownMsg struct {
	MaxScroll int
}

func (PageDownMsg) isPreviewMsg() {}

type JumpMsg struct {
	Direction string // "j" for down, "k" for up
	Lines     int
	MaxScroll int
}

func (JumpMsg) isPreviewMsg() {}

type ResizePreviewMsg struct {
	Width  int
	Height int
}

func (ResizePreviewMsg) isPreviewMsg() {}

// ResetScrollMsg is sent when the selected entry changes.
type ResetScrollMsg struct{}

func (ResetScrollMsg) isPreviewMsg() {}

// previewChrome is the number of rows taken by the border and the header.
const previewChrome = 4

// PreviewModel holds the state for the preview pane
type PreviewModel struct {
	Width   int
	Height  int
	ViewPos int // First visible line
}

// NewPreviewModel creates a preview pane of the given size
func NewPreviewModel(width, height int) PreviewModel {
	return PreviewModel{Width: width, Height: height}
}

// Update applies msg to the scroll state
func (r *PreviewModel) Update(msg PreviewMsg) {
	switch m := msg.(type) {
	case ScrollToTopMsg:
		r.ViewPos = 0
	case ScrollToBottomMsg:
		r.ViewPos = m.MaxScroll
	case PageUpMsg:
		r.ViewPos = max(r.ViewPos-r.pageSize(), 0)
	case PageDownMsg:
		r.ViewPos = min(r.ViewPos+r.pageSize(), m.MaxScroll)
	case JumpMsg:
		switch m.Direction {
		case "j":
			r.ViewPos = min(r.ViewPos+m.Lines, m.MaxScroll)
		case "k":
			r.ViewPos = max(r.ViewPos-m.Lines, 0)
		}
	case ResizePreviewMsg:
		r.Width = m.Width
		r.Height = m.Height
	case ResetScrollMsg:
		r.ViewPos = 0
	}
}

// pageSize is half the visible height
func (r *PreviewModel) pageSize() int {
	return max(r.textHeight()/2, 1)
}

func (r *PreviewModel) textHeight() int {
	return max(r.Height-previewChrome, 1)
}

func (r *PreviewModel) textWidth() int {
	return max(r.Width-4, 1)
}

// getMaxScroll returns the maximum scroll position (pure function)
func getMaxScroll(model PreviewModel, item *Item) int {
	if item == nil {
		return 0
	}
	item.UpdateWrappedLines(model.textWidth())
	return max(len(item.Lines)-model.textHeight(), 0)
}

// PreviewView renders the selected entry's text as a pure function
func PreviewView(model PreviewModel, item *Item, index int, focused bool, p Palette) string {
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
	if item == nil {
		content.WriteString(lipgloss.NewStyle().Bold(true).Render("Preview") + "\n\n")
		content.WriteString(lipgloss.NewStyle().Foreground(p.Muted).Render("No entry selected"))
		return style.Render(content.String())
	}

	item.UpdateWrappedLines(model.textWidth())
	title := fmt.Sprintf("Preview [%d] %s", index, item.Timestamp.Format("2006-01-02 15:04:05"))
	if focused {
		title = "● " + title
	}

	height := model.textHeight()
	if maxScroll := getMaxScroll(model, item); maxScroll > 0 {
		bottom := min(model.ViewPos+height, len(item.Lines))
		title += fmt.Sprintf(" (%d-%d/%d)", model.ViewPos+1, bottom, len(item.Lines))
	}
	content.WriteString(lipgloss.NewStyle().Bold(true).Render(title) + "\n\n")

	end := min(model.ViewPos+height, len(item.Lines))
	for i := model.ViewPos; i < end; i++ {
		content.WriteString(item.Lines[i] + "\n")
	}

	return style.Render(strings.TrimSuffix(content.String(), "\n"))
}
