package tui

import (
	"fmt"
	"time"

	"github.com/yiblet/cliphist/internal/broadcast"
	"github.com/yiblet/cliphist/internal/history"
)

// titleLength bounds the one-line label shown in the list.
const titleLength = 80

// Item is one history entry as displayed.
type Item struct {
	Text      string
	Timestamp time.Time
	Title     string

	// Lines holds Text wrapped for the preview pane at wrapWidth.
	Lines     []string
	wrapWidth int
}

// ItemsFromSnapshot converts a broadcast snapshot into display items.
func ItemsFromSnapshot(s broadcast.Snapshot) []*Item {
	items := make([]*Item, len(s))
	for i, p := range s {
		items[i] = &Item{
			Text:      p.Text,
			Timestamp: p.Timestamp,
			Title:     history.Title(p.Text, titleLength),
		}
	}
	return items
}

// UpdateWrappedLines rewraps the text when the width changed.
func (it *Item) UpdateWrappedLines(width int) {
	if it.Lines != nil && it.wrapWidth == width {
		return
	}
	it.Lines = WrapText(it.Text, width)
	it.wrapWidth = width
}

// FormatAge renders how long ago t was, relative to now.
func FormatAge(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
