package dbstore

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/yiblet/cliphist/internal/store"
)

var ts = time.UnixMilli(1700000000123)

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), FileName)

	st, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	cleanup := func() {
		st.Close()
	}

	return st, cleanup
}

// TestNewSQLiteStore tests database initialization
func TestNewSQLiteStore(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()

	var meta MetaModel
	if err := st.db.First(&meta, "key = ?", metaSchemaVersion).Error; err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	if meta.Value != "1" {
		t.Errorf("expected schema_version=1, got %s", meta.Value)
	}

	entries, err := st.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty history, got %d entries", len(entries))
	}
}

// TestSQLiteStore_SaveAndLoad tests that order and fields survive a round trip
func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()

	want := []store.Entry{
		{Text: "newest", Timestamp: ts.Add(2 * time.Second)},
		{Text: "multi\nline", Timestamp: ts.Add(time.Second)},
		{Text: "oldest", Timestamp: ts},
	}
	if err := st.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestSQLiteStore_SaveReplaces tests that each save replaces the snapshot
func TestSQLiteStore_SaveReplaces(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()

	if err := st.Save([]store.Entry{{Text: "a", Timestamp: ts}, {Text: "b", Timestamp: ts}}); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := st.Save([]store.Entry{{Text: "c", Timestamp: ts}}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 1 || got[0].Text != "c" {
		t.Errorf("expected only [c], got %v", got)
	}

	if err := st.Save(nil); err != nil {
		t.Fatalf("empty Save failed: %v", err)
	}
	got, err = st.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty history after saving nil, got %d", len(got))
	}
}

// TestSQLiteStore_Reopen tests persistence across connections
func TestSQLiteStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), FileName)

	st, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	want := []store.Entry{{Text: "persisted", Timestamp: ts}}
	if err := st.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	st.Close()

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reopen mismatch (-want +got):\n%s", diff)
	}
}

// TestSQLiteStore_LargeSnapshot tests batched inserts
func TestSQLiteStore_LargeSnapshot(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()

	var want []store.Entry
	for i := 0; i < 250; i++ {
		want = append(want, store.Entry{
			Text:      strings.Repeat("x", i+1),
			Timestamp: ts.Add(-time.Duration(i) * time.Second),
		})
	}
	if err := st.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("large snapshot mismatch (-want +got):\n%s", diff)
	}
}

// TestSQLiteStore_NewerSchemaRejected tests the version guard
func TestSQLiteStore_NewerSchemaRejected(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), FileName)

	st, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := st.db.Save(&MetaModel{Key: metaSchemaVersion, Value: "99"}).Error; err != nil {
		t.Fatalf("failed to bump schema version: %v", err)
	}
	st.Close()

	_, err = NewSQLiteStore(dbPath)
	if !errors.Is(err, store.ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestNewSQLiteStore_FileIsPrivate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	st, cleanup := setupTestDB(t)
	defer cleanup()

	info, err := os.Stat(st.Path())
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if got := info.Mode().Perm(); got != 0600 {
		t.Errorf("Expected mode 600, got %o", got)
	}
}
