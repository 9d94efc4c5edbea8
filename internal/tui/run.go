package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yiblet/cliphist/internal/broadcast"
)

// Run shows the history browser until the user quits or ctx is done.
func Run(ctx context.Context, ctrl Controller, updates <-chan broadcast.Snapshot, theme string) error {
	model := NewAppModel(ctrl, updates, theme)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
