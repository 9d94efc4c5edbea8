package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yiblet/cliphist/internal/broadcast"
	"github.com/yiblet/cliphist/internal/history"
)

// flashDuration is how long status notifications stay visible.
const flashDuration = 2 * time.Second

// Controller is the part of the application the view drives.
type Controller interface {
	Snapshot() broadcast.Snapshot
	DeleteAt(index int)
	Clear()
	CopyBack(index int) (history.Entry, error)
}

// PaneType represents which pane is focused
type PaneType int

const (
	ListPane PaneType = iota
	PreviewPane
)

// UIMode represents the current modal state of the application
type UIMode int

const (
	NormalMode UIMode = iota
	HelpMode
	NumberInputMode
	ConfirmClearMode
)

// snapshotMsg carries a history change from the engine.
type snapshotMsg broadcast.Snapshot

// feedClosedMsg reports that the engine stopped publishing.
type feedClosedMsg struct{}

type flashExpiredMsg struct{}

// AppModel orchestrates all sub-models
type AppModel struct {
	Width       int
	Height      int
	ListWidth   int
	PreviewWidth int
	ActivePane  PaneType
	CurrentMode UIMode

	List    ListModel
	Preview PreviewModel
	Modal   ModalModel
	Items   []*Item
	Palette Palette

	// NumberBuffer accumulates digits for commands like "10j".
	NumberBuffer string

	FlashMessage string
	FlashExpiry  time.Time
	FlashIsError bool

	// Now is the clock used for ages and flash expiry.
	Now func() time.Time

	ctrl    Controller
	updates <-chan broadcast.Snapshot
}

// NewAppModel creates the model. updates may be nil, in which case the view
// only refreshes after its own actions.
func NewAppModel(ctrl Controller, updates <-chan broadcast.Snapshot, theme string) *AppModel {
	// Replaced on the first resize.
	width, height := 120, 20
	listWidth := 40
	palette := PaletteFor(theme)

	return &AppModel{
		Width:       width,
		Height:      height,
		ListWidth:   listWidth,
		PreviewWidth: width - listWidth,
		ActivePane:  ListPane,
		CurrentMode: NormalMode,
		List:        NewListModel(listWidth, height-2),
		Preview:     NewPreviewModel(width-listWidth, height-2),
		Modal:       NewModalModel(palette.Danger),
		Items:       ItemsFromSnapshot(ctrl.Snapshot()),
		Palette:     palette,
		Now:         time.Now,
		ctrl:        ctrl,
		updates:     updates,
	}
}

// Init starts listening for history changes.
func (a *AppModel) Init() tea.Cmd {
	return a.waitForSnapshot()
}

func (a *AppModel) waitForSnapshot() tea.Cmd {
	if a.updates == nil {
		return nil
	}
	updates := a.updates
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return feedClosedMsg{}
		}
		return snapshotMsg(s)
	}
}

// Update handles app-level messages and routes to sub-models
func (a *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(m.Width, m.Height)
		return a, nil
	case tea.KeyMsg:
		return a.handleKeyPress(m.String())
	case snapshotMsg:
		a.SetSnapshot(broadcast.Snapshot(m))
		return a, a.waitForSnapshot()
	case feedClosedMsg:
		a.updates = nil
		return a, nil
	case flashExpiredMsg:
		if !a.Now().Before(a.FlashExpiry) {
			a.FlashMessage = ""
			a.FlashExpiry = time.Time{}
		}
		return a, nil
	}
	return a, nil
}

// SetSnapshot replaces the displayed items. The cursor follows the selected
// text when it is still present.
func (a *AppModel) SetSnapshot(s broadcast.Snapshot) {
	var selected string
	hadSelection := a.List.Cursor < len(a.Items)
	if hadSelection {
		selected = a.Items[a.List.Cursor].Text
	}

	a.Items = ItemsFromSnapshot(s)

	if hadSelection {
		for i, it := range a.Items {
			if it.Text == selected {
				if i != a.List.Cursor {
					a.List.Update(JumpToIndexMsg{Index: i, MaxIndex: len(a.Items) - 1})
				}
				a.List.Clamp(len(a.Items))
				return
			}
		}
	}
	a.List.Clamp(len(a.Items))
	a.Preview.Update(ResetScrollMsg{})
}

func (a *AppModel) resize(width, height int) {
	a.Width = max(width, 30)
	a.Height = max(height, 8)

	// Adjacent borders, no separator.
	const minList, minPreview = 20, 20
	a.ListWidth = max(min(a.Width*2/5, 60), minList)
	a.PreviewWidth = max(a.Width-a.ListWidth, minPreview)

	paneHeight := a.Height - 2 // status line
	a.List.Update(ResizeListMsg{Width: a.ListWidth, Height: paneHeight})
	a.Preview.Update(ResizePreviewMsg{Width: a.PreviewWidth, Height: paneHeight})
	a.Preview.ViewPos = min(a.Preview.ViewPos, getMaxScroll(a.Preview, a.selected()))
}

// handleKeyPress dispatches on the current mode first.
func (a *AppModel) handleKeyPress(key string) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" {
		return a, tea.Quit
	}
	switch a.CurrentMode {
	case HelpMode:
		return a.handleHelpModeKeys(key)
	case NumberInputMode:
		return a.handleNumberInputModeKeys(key)
	case ConfirmClearMode:
		return a.handleConfirmClearKeys(key)
	default:
		return a.handleNormalModeKeys(key)
	}
}

func (a *AppModel) handleHelpModeKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "z", "?", "esc", "q":
		a.CurrentMode = NormalMode
	}
	return a, nil
}

func (a *AppModel) handleNumberInputModeKeys(key string) (tea.Model, tea.Cmd) {
	switch {
	case key == "esc":
		a.NumberBuffer = ""
		a.CurrentMode = NormalMode
		return a, nil
	case key == "backspace":
		a.NumberBuffer = a.NumberBuffer[:len(a.NumberBuffer)-1]
		if a.NumberBuffer == "" {
			a.CurrentMode = NormalMode
		}
		return a, nil
	case key >= "0" && key <= "9" && len(key) == 1:
		a.NumberBuffer += key
		return a, nil
	case isMovementCommand(key):
		count, err := strconv.Atoi(a.NumberBuffer)
		if err != nil {
			count = 0
		}
		a.NumberBuffer = ""
		a.CurrentMode = NormalMode
		return a.executeCommand(count, key)
	default:
		a.NumberBuffer = ""
		a.CurrentMode = NormalMode
		return a, nil
	}
}

func (a *AppModel) handleConfirmClearKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		count := len(a.Items)
		a.ctrl.Clear()
		a.SetSnapshot(a.ctrl.Snapshot())
		a.Modal.Update(HideModalMsg{})
		a.CurrentMode = NormalMode
		return a, a.setFlashMessage(fmt.Sprintf("Cleared %d entries", count), false)
	case "n", "N", "esc", "q":
		a.Modal.Update(HideModalMsg{})
		a.CurrentMode = NormalMode
	}
	return a, nil
}

func (a *AppModel) handleNormalModeKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc":
		return a, tea.Quit
	case "z", "?":
		a.CurrentMode = HelpMode
		return a, nil
	case "tab":
		if a.ActivePane == ListPane {
			a.ActivePane = PreviewPane
		} else {
			a.ActivePane = ListPane
		}
		return a, nil
	case "h", "left":
		a.ActivePane = ListPane
		return a, nil
	case "l", "right":
		a.ActivePane = PreviewPane
		return a, nil
	case "enter", "y":
		return a, a.copySelected()
	case "d", "delete":
		return a, a.deleteSelected()
	case "c":
		if len(a.Items) == 0 {
			return a, a.setFlashMessage("History is already empty", false)
		}
		a.Modal.Update(ShowClearConfirmation(len(a.Items)))
		a.CurrentMode = ConfirmClearMode
		return a, nil
	case "ctrl+u":
		a.Preview.Update(PageUpMsg{})
		return a, nil
	case "ctrl+d":
		a.Preview.Update(PageDownMsg{MaxScroll: getMaxScroll(a.Preview, a.selected())})
		return a, nil
	}

	// 0 starts a count only after another digit.
	if len(key) == 1 && key >= "1" && key <= "9" {
		a.NumberBuffer = key
		a.CurrentMode = NumberInputMode
		return a, nil
	}

	if isMovementCommand(key) {
		return a.executeCommand(0, key)
	}
	return a, nil
}

// isMovementCommand checks if a key is a movement command that can use multipliers
func isMovementCommand(key string) bool {
	switch key {
	case "up", "k", "down", "j", "g", "G":
		return true
	}
	return false
}

// executeCommand applies a movement key to the active pane. count is the
// typed numeric prefix, or 0 when there was none.
func (a *AppModel) executeCommand(count int, key string) (tea.Model, tea.Cmd) {
	multiplier := max(count, 1)
	if a.ActivePane == PreviewPane {
		maxScroll := getMaxScroll(a.Preview, a.selected())
		switch key {
		case "up", "k":
			a.Preview.Update(JumpMsg{Direction: "k", Lines: multiplier, MaxScroll: maxScroll})
		case "down", "j":
			a.Preview.Update(JumpMsg{Direction: "j", Lines: multiplier, MaxScroll: maxScroll})
		case "g":
			if count > 0 {
				a.Preview.ViewPos = min(count-1, maxScroll)
			} else {
				a.Preview.Update(ScrollToTopMsg{})
			}
		case "G":
			a.Preview.Update(ScrollToBottomMsg{MaxScroll: maxScroll})
		}
		return a, nil
	}

	maxIndex := len(a.Items) - 1
	before := a.List.Cursor
	switch key {
	case "up", "k":
		a.List.Update(JumpToIndexMsg{Index: max(a.List.Cursor-multiplier, 0), MaxIndex: maxIndex})
	case "down", "j":
		a.List.Update(JumpToIndexMsg{Index: min(a.List.Cursor+multiplier, maxIndex), MaxIndex: maxIndex})
	case "g":
		// Counts address entries by their displayed index.
		if count > 0 {
			a.List.Update(JumpToIndexMsg{Index: min(count, maxIndex), MaxIndex: maxIndex})
		} else {
			a.List.Update(GoToTopMsg{})
		}
	case "G":
		a.List.Update(GoToBottomMsg{MaxIndex: maxIndex})
	}
	if a.List.Cursor != before {
		a.Preview.Update(ResetScrollMsg{})
	}
	return a, nil
}

func (a *AppModel) selected() *Item {
	if a.List.Cursor < len(a.Items) {
		return a.Items[a.List.Cursor]
	}
	return nil
}

func (a *AppModel) copySelected() tea.Cmd {
	if a.selected() == nil {
		return a.setFlashMessage("No entry selected", true)
	}
	entry, err := a.ctrl.CopyBack(a.List.Cursor)
	if err != nil {
		return a.setFlashMessage(fmt.Sprintf("Copy failed: %v", err), true)
	}
	return a.setFlashMessage(fmt.Sprintf("Copied %d bytes to clipboard", len(entry.Text)), false)
}

func (a *AppModel) deleteSelected() tea.Cmd {
	if a.selected() == nil {
		return a.setFlashMessage("No entry selected", true)
	}
	a.ctrl.DeleteAt(a.List.Cursor)
	a.Items = ItemsFromSnapshot(a.ctrl.Snapshot())
	a.List.Clamp(len(a.Items))
	a.Preview.Update(ResetScrollMsg{})
	return a.setFlashMessage("Entry deleted", false)
}

// setFlashMessage shows message on the status line until it expires.
func (a *AppModel) setFlashMessage(message string, isError bool) tea.Cmd {
	a.FlashMessage = message
	a.FlashIsError = isError
	a.FlashExpiry = a.Now().Add(flashDuration)
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashExpiredMsg{}
	})
}

// View method for tea.Model compatibility
func (a *AppModel) View() string {
	return AppView(*a)
}

// AppView renders the complete application as a pure function
func AppView(model AppModel) string {
	if model.Width == 0 {
		return "Initializing..."
	}
	if model.CurrentMode == HelpMode {
		return renderHelpView(model) + "\n" + renderStatusLine(model)
	}

	now := model.Now()
	var item *Item
	if model.List.Cursor < len(model.Items) {
		item = model.Items[model.List.Cursor]
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		ListView(model.List, model.Items, model.ActivePane == ListPane, now, model.Palette),
		PreviewView(model.Preview, item, model.List.Cursor, model.ActivePane == PreviewPane, model.Palette),
	)
	view := panes + "\n" + renderStatusLine(model)

	if model.Modal.Active {
		return ModalView(model.Modal, view, model.Width, model.Height)
	}
	return view
}

// renderStatusLine renders the bottom status line (pure function)
func renderStatusLine(model AppModel) string {
	style := lipgloss.NewStyle().Width(model.Width)

	if model.FlashMessage != "" && model.Now().Before(model.FlashExpiry) {
		color := model.Palette.Flash
		if model.FlashIsError {
			color = model.Palette.Danger
		}
		return style.Foreground(color).Render(model.FlashMessage)
	}

	var status string
	switch model.CurrentMode {
	case HelpMode:
		status = "Press z to return, ctrl+c to quit"
	case NumberInputMode:
		status = model.NumberBuffer
	case ConfirmClearMode:
		status = "Confirm clear: y/n"
	default:
		status = fmt.Sprintf("%d entries | enter copy | d delete | c clear | z help | q quit", len(model.Items))
	}
	return style.Foreground(model.Palette.Muted).Render(status)
}

const helpText = `cliphist - clipboard history

NAVIGATION
  j, ↓        Next entry (preview: scroll down)
  k, ↑        Previous entry (preview: scroll up)
  g, G        First / last entry
  #g          Jump to entry #
  #j, #k      Move # entries or lines

PANES
  tab         Toggle list and preview
  h, l        Focus list / preview
  ctrl+u/d    Page the preview

HISTORY
  enter, y    Copy the selected entry back to the clipboard
  d           Delete the selected entry
  c           Clear the whole history

  Index 0 is the most recent copy. Copying an entry back does not
  add it to the history again.

OTHER
  z, ?        Toggle this help
  q, esc      Quit`

// renderHelpView renders the help content (pure function)
func renderHelpView(model AppModel) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(model.Palette.Focus).
		Padding(1).
		Width(model.Width - 4).
		Height(model.Height - 4)

	lines := strings.Split(helpText, "\n")
	if limit := model.Height - 6; limit > 0 && len(lines) > limit {
		lines = lines[:limit]
	}
	return style.Render(strings.Join(lines, "\n"))
}
