package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ModalMsg represents messages that the modal component handles
type ModalMsg interface {
	isModalMsg()
}

// Modal message implementations
type ShowModalMsg struct {
	Title   string
	Content string
	Options string
}

func (ShowModalMsg) isModalMsg() {}

type HideModalMsg struct{}

func (HideModalMsg) isModalMsg() {}

// ModalModel holds the state for modal dialogs
type ModalModel struct {
	Active  bool
	Title   string
	Content string
	Options string
	Width   int
	Height  int
	Border  lipgloss.TerminalColor
}

// NewModalModel creates a hidden modal drawn with the given border color.
func NewModalModel(border lipgloss.TerminalColor) ModalModel {
	return ModalModel{
		Width:  50,
		Height: 8,
		Border: border,
	}
}

// Update handles modal messages
func (m *ModalModel) Update(msg ModalMsg) error {
	switch msg := msg.(type) {
	case ShowModalMsg:
		m.Active = true
		m.Title = msg.Title
		m.Content = msg.Content
		m.Options = msg.Options
	case HideModalMsg:
		m.Active = false
		m.Title = ""
		m.Content = ""
		m.Options = ""
	}
	return nil
}

// ModalView renders the modal as a pure function
func ModalView(model ModalModel, backgroundView string, windowWidth, windowHeight int) string {
	if !model.Active {
		return backgroundView
	}

	// Build modal content
	modalContent := model.Title
	if model.Content != "" {
		modalContent += "\n\n" + model.Content
	}
	if model.Options != "" {
		modalContent += "\n\n" + model.Options
	}

	modalWidth := min(model.Width, windowWidth-4)
	modalHeight := min(model.Height, windowHeight-4)

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(model.Border).
		Padding(1, 2).
		Width(modalWidth).
		Height(modalHeight).
		Align(lipgloss.Center, lipgloss.Center)

	modal := modalStyle.Render(modalContent)

	backgroundLines := strings.Split(backgroundView, "\n")
	modalLines := strings.Split(modal, "\n")

	// Centered, clamped to the top-left corner.
	modalStartY := max((windowHeight-len(modalLines))/2, 0)
	modalStartX := max((windowWidth-lipgloss.Width(modalLines[0]))/2, 0)

	var result strings.Builder

	for i := 0; i < len(backgroundLines); i++ {
		if i > 0 {
			result.WriteString("\n")
		}

		modalLineIdx := i - modalStartY
		if modalLineIdx < 0 || modalLineIdx >= len(modalLines) {
			result.WriteString(backgroundLines[i])
			continue
		}

		bgLine := backgroundLines[i]
		bgWidth := lipgloss.Width(bgLine)
		modalLine := modalLines[modalLineIdx]

		if modalStartX > 0 && bgWidth > 0 {
			result.WriteString(truncateToVisualWidth(bgLine, modalStartX))
		}
		result.WriteString(modalLine)
		if endX := modalStartX + lipgloss.Width(modalLine); endX < bgWidth {
			result.WriteString(truncateFromVisualWidth(bgLine, endX))
		}
	}

	return result.String()
}

// ShowClearConfirmation creates the confirmation modal for clearing the
// whole history.
func ShowClearConfirmation(count int) ShowModalMsg {
	noun := "entries"
	if count == 1 {
		noun = "entry"
	}
	return ShowModalMsg{
		Title:   "Clear history?",
		Content: fmt.Sprintf("All %d %s will be removed.", count, noun),
		Options: "[Y] Yes, clear    [N] No, cancel",
	}
}

// truncateToVisualWidth truncates a styled string to the specified visual width
func truncateToVisualWidth(s string, targetWidth int) string {
	if targetWidth <= 0 {
		return ""
	}

	currentWidth := 0
	runes := []rune(s)
	inEscape := false
	var result strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		// Track ANSI escape sequences (they don't count toward visual width)
		if r == '\x1b' {
			inEscape = true
		}

		if inEscape {
			result.WriteRune(r)
			if r == 'm' {
				inEscape = false
			}
			continue
		}

		// Count visual width (normal characters count as 1)
		if currentWidth >= targetWidth {
			break
		}

		result.WriteRune(r)
		currentWidth++
	}

	return result.String()
}

// truncateFromVisualWidth returns the portion of a styled string starting from the specified visual position
func truncateFromVisualWidth(s string, startWidth int) string {
	if startWidth <= 0 {
		return s
	}

	currentWidth := 0
	runes := []rune(s)
	inEscape := false
	startIdx := -1
	var pendingEscapes strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		// Track ANSI escape sequences
		if r == '\x1b' {
			inEscape = true
			if startIdx < 0 {
				pendingEscapes.WriteRune(r)
			}
		} else if inEscape {
			if startIdx < 0 {
				pendingEscapes.WriteRune(r)
			}
			if r == 'm' {
				inEscape = false
			}
		} else {
			// Normal visible character
			if currentWidth >= startWidth && startIdx < 0 {
				startIdx = i
			}
			currentWidth++
		}
	}

	if startIdx < 0 {
		// Start width is beyond the string
		return ""
	}

	// Include any pending escape codes that were before the start
	return pendingEscapes.String() + string(runes[startIdx:])
}
