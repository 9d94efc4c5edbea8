// Package filestore persists the history snapshot as a single JSON document.
//
// Layout (version 1):
//
//	{"version":1,"updated_at":"…","entries":[{"text":"…","timestamp":1700000000000}]}
//
// timestamp is Unix milliseconds. The unversioned bare array written by
// older releases ([{"text":…,"timestamp":…}]) is still readable.
package filestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yiblet/cliphist/internal/store"
)

// FileName is the snapshot file name inside the data directory.
const FileName = "history.json"

type fileEntry struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type document struct {
	Version   int         `json:"version"`
	UpdatedAt string      `json:"updated_at,omitempty"`
	Entries   []fileEntry `json:"entries"`
}

// FileStore is a store.HistoryStore backed by one JSON file.
type FileStore struct {
	path string
	now  func() time.Time
}

// New creates a FileStore at path. The file is created on first Save.
func New(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the snapshot file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the snapshot. A missing or empty file yields an empty history.
// Undecodable content is reported as store.ErrMalformed.
func (s *FileStore) Load() ([]store.Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []store.Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []store.Entry{}, nil
	}

	var raw []fileEntry
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrMalformed, err)
		}
	case '{':
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrMalformed, err)
		}
		if doc.Version != store.SchemaVersion {
			return nil, fmt.Errorf("%w: %d", store.ErrUnsupportedVersion, doc.Version)
		}
		raw = doc.Entries
	default:
		return nil, fmt.Errorf("%w: unexpected leading byte %q", store.ErrMalformed, data[0])
	}

	entries := make([]store.Entry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, store.Entry{
			Text:      e.Text,
			Timestamp: store.UnixMilli(e.Timestamp),
		})
	}
	return entries, nil
}

// Save writes the snapshot to a temporary file in the same directory and
// renames it over the previous one, so a crash mid-write never leaves a
// truncated snapshot.
func (s *FileStore) Save(entries []store.Entry) error {
	doc := document{
		Version:   store.SchemaVersion,
		UpdatedAt: s.now().UTC().Format(time.RFC3339Nano),
		Entries:   make([]fileEntry, len(entries)),
	}
	for i, e := range entries {
		doc.Entries[i] = fileEntry{Text: e.Text, Timestamp: e.Timestamp.UnixMilli()}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is not held open between operations.
func (s *FileStore) Close() error {
	return nil
}
