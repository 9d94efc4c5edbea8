package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yiblet/cliphist/internal/clipboard"
	"github.com/yiblet/cliphist/internal/clipboard/mockboard"
	"github.com/yiblet/cliphist/internal/history"
	"github.com/yiblet/cliphist/internal/store/memstore"
	"github.com/yiblet/cliphist/internal/tui"
)

// controller serves the live view from an engine and a mock clipboard.
type controller struct {
	*history.Engine
	board *mockboard.MockClipboard
}

func (c controller) CopyBack(index int) (history.Entry, error) {
	entries := c.List()
	if index < 0 || index >= len(entries) {
		return history.Entry{}, fmt.Errorf("index %d out of range", index)
	}
	return entries[index], clipboard.CopyBack(c.Engine, c.board, entries[index].Text)
}

func main() {
	fmt.Println("Testing TUI Border Layout")
	fmt.Println("=========================")

	engine := history.New(memstore.NewMemoryStore(), history.FixedLimit(10))
	defer engine.Shutdown()
	for _, text := range []string{
		"a short entry",
		"line one\nline two\nline three",
		strings.Repeat("a long entry that has to wrap in the preview pane ", 8),
	} {
		engine.Ingest(text)
	}

	model := tui.NewAppModel(controller{Engine: engine, board: mockboard.New()}, nil, "dark")
	model.Update(tea.WindowSizeMsg{Width: 120, Height: 20})

	view := model.View()
	lines := strings.Split(view, "\n")

	fmt.Printf("Rendered TUI view (%d lines):\n", len(lines))
	fmt.Println(strings.Repeat("=", 120))
	for i, line := range lines[:min(15, len(lines))] {
		fmt.Printf("Line %2d: %s\n", i, line)
	}
	fmt.Println(strings.Repeat("=", 120))

	// Both panes draw vertical borders on the same rows
	var borderCheckLine string
	for i, line := range lines {
		if i > 2 && i < len(lines)-3 && strings.Contains(line, "│") {
			borderCheckLine = line
			break
		}
	}
	if borderCheckLine == "" {
		fmt.Println("Could not find a line with borders to analyze")
		return
	}

	var borderPositions []int
	for i, char := range []rune(borderCheckLine) {
		if char == '│' {
			borderPositions = append(borderPositions, i)
		}
	}
	fmt.Printf("Found border characters (│) at columns: %v\n", borderPositions)
	if len(borderPositions) == 4 {
		fmt.Println("Both panes are fully bordered!")
	} else {
		fmt.Println("Unexpected border layout")
	}
	fmt.Println("\nBorder layout verification complete!")
}
