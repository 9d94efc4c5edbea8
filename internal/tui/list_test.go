package tui

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func makeItems(n int) []*Item {
	items := make([]*Item, n)
	for i := range items {
		text := fmt.Sprintf("entry %d", i)
		items[i] = &Item{Text: text, Title: text, Timestamp: time.Now()}
	}
	return items
}

func TestListModel_Navigation(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		msg      ListMsg
		expected int
	}{
		{"down", 0, NavigateDownMsg{MaxIndex: 4}, 1},
		{"down at bottom", 4, NavigateDownMsg{MaxIndex: 4}, 4},
		{"up", 2, NavigateUpMsg{}, 1},
		{"up at top", 0, NavigateUpMsg{}, 0},
		{"top", 3, GoToTopMsg{}, 0},
		{"bottom", 0, GoToBottomMsg{MaxIndex: 4}, 4},
		{"bottom of empty", 0, GoToBottomMsg{MaxIndex: -1}, 0},
		{"jump", 0, JumpToIndexMsg{Index: 3, MaxIndex: 4}, 3},
		{"jump out of range", 1, JumpToIndexMsg{Index: 9, MaxIndex: 4}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := NewListModel(30, 20)
			model.Cursor = tt.start
			model.Update(tt.msg)
			if model.Cursor != tt.expected {
				t.Errorf("Expected cursor %d, got %d", tt.expected, model.Cursor)
			}
		})
	}
}

func TestListModel_ScrollsToCursor(t *testing.T) {
	// Height 8 leaves four visible rows.
	model := NewListModel(30, 8)

	model.Update(JumpToIndexMsg{Index: 6, MaxIndex: 9})
	if model.Offset != 3 {
		t.Errorf("Expected offset 3, got %d", model.Offset)
	}

	model.Update(GoToTopMsg{})
	if model.Offset != 0 {
		t.Errorf("Expected offset 0, got %d", model.Offset)
	}
}

func TestListModel_Clamp(t *testing.T) {
	model := NewListModel(30, 20)
	model.Cursor = 5

	model.Clamp(3)
	if model.Cursor != 2 {
		t.Errorf("Expected cursor 2, got %d", model.Cursor)
	}

	model.Clamp(0)
	if model.Cursor != 0 {
		t.Errorf("Expected cursor 0, got %d", model.Cursor)
	}
}

func TestListView_ShowsIndexedTitles(t *testing.T) {
	model := NewListModel(40, 10)
	view := ListView(model, makeItems(3), true, time.Now(), PaletteFor("dark"))

	for _, want := range []string{"History (3)", " 0. entry 0", " 2. entry 2", "just now"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q, got:\n%s", want, view)
		}
	}
}

func TestListView_OnlyVisibleRows(t *testing.T) {
	model := NewListModel(40, 7)
	view := ListView(model, makeItems(10), false, time.Now(), PaletteFor("dark"))

	if !strings.Contains(view, "entry 2") {
		t.Errorf("Expected third row visible, got:\n%s", view)
	}
	if strings.Contains(view, "entry 3") {
		t.Errorf("Expected fourth row hidden, got:\n%s", view)
	}
}

func TestListView_Empty(t *testing.T) {
	view := ListView(NewListModel(40, 10), nil, true, time.Now(), PaletteFor("dark"))
	if !strings.Contains(view, "Nothing copied yet") {
		t.Errorf("Expected empty message, got:\n%s", view)
	}
}
