// Package store defines the persistence interface for cliphist's history.
// The history is always saved and loaded as one complete, ordered snapshot;
// there are no incremental writes.
package store

import "errors"

// SchemaVersion is the version written into every persisted snapshot.
const SchemaVersion = 1

var (
	// ErrMalformed reports persisted data that could not be decoded.
	ErrMalformed = errors.New("malformed history snapshot")

	// ErrUnsupportedVersion reports a snapshot written by a newer schema.
	ErrUnsupportedVersion = errors.New("unsupported history snapshot version")
)

// HistoryStore loads and saves the full history snapshot.
type HistoryStore interface {
	// Load returns the persisted entries, most recent first.
	// A store with no snapshot yet returns an empty slice and no error.
	Load() ([]Entry, error)

	// Save replaces the persisted snapshot with entries.
	// Implementations must not leave a partially written snapshot behind.
	Save(entries []Entry) error

	// Close releases any resources.
	Close() error
}
