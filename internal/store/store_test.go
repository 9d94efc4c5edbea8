package store

import (
	"testing"
	"time"
)

// TestInterfaceCompilation verifies that the interface compiles against a
// minimal implementation.
func TestInterfaceCompilation(t *testing.T) {
	var _ HistoryStore = (*mockHistoryStore)(nil)
}

func TestCloneEntries(t *testing.T) {
	ts := time.UnixMilli(1700000000000)
	original := []Entry{{Text: "a", Timestamp: ts}, {Text: "b", Timestamp: ts}}

	clone := CloneEntries(original)
	if len(clone) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(clone))
	}

	clone[0].Text = "changed"
	if original[0].Text != "a" {
		t.Errorf("Expected original to be untouched, got %q", original[0].Text)
	}
}

func TestCloneEntries_Nil(t *testing.T) {
	clone := CloneEntries(nil)
	if clone == nil {
		t.Fatal("Expected non-nil slice for nil input")
	}
	if len(clone) != 0 {
		t.Errorf("Expected empty slice, got %d entries", len(clone))
	}
}

func TestUnixMilli(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	if got := UnixMilli(ts.UnixMilli()); !got.Equal(ts) {
		t.Errorf("Expected %v, got %v", ts, got)
	}
}

type mockHistoryStore struct{}

func (m *mockHistoryStore) Load() ([]Entry, error) {
	return nil, nil
}

func (m *mockHistoryStore) Save(entries []Entry) error {
	return nil
}

func (m *mockHistoryStore) Close() error {
	return nil
}
