package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/yiblet/cliphist/internal/config"
)

// Palette holds the colors of one theme.
type Palette struct {
	Border     lipgloss.TerminalColor
	Focus      lipgloss.TerminalColor
	Selected   lipgloss.TerminalColor
	SelectedFg lipgloss.TerminalColor
	Muted      lipgloss.TerminalColor
	Flash      lipgloss.TerminalColor
	Danger     lipgloss.TerminalColor
}

// ANSI 256 color codes per palette slot, light then dark.
var paletteCodes = [7][2]string{
	{"245", "62"},  // border
	{"63", "205"},  // focus
	{"153", "62"},  // selected
	{"16", "230"},  // selected foreground
	{"244", "241"}, // muted
	{"28", "10"},   // flash
	{"160", "9"},   // danger
}

// PaletteFor returns the palette for a theme name. The system theme adapts
// to the terminal background.
func PaletteFor(theme string) Palette {
	var colors [7]lipgloss.TerminalColor
	for i, codes := range paletteCodes {
		switch theme {
		case config.ThemeLight:
			colors[i] = lipgloss.Color(codes[0])
		case config.ThemeDark:
			colors[i] = lipgloss.Color(codes[1])
		default:
			colors[i] = lipgloss.AdaptiveColor{Light: codes[0], Dark: codes[1]}
		}
	}
	return Palette{
		Border:     colors[0],
		Focus:      colors[1],
		Selected:   colors[2],
		SelectedFg: colors[3],
		Muted:      colors[4],
		Flash:      colors[5],
		Danger:     colors[6],
	}
}
