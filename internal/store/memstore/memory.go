// Package memstore provides an in-memory implementation of store.HistoryStore.
// It is designed for fast unit testing and demos and does not persist data.
// Every save is recorded so tests can assert on write counts and contents.
package memstore

import (
	"errors"
	"sync"

	"github.com/yiblet/cliphist/internal/store"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("memstore: store is closed")

// MemoryStore is an in-memory store.HistoryStore. It is thread-safe.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot []store.Entry
	saves    [][]store.Entry
	loads    int
	loadErr  error
	saveErr  error
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith creates an in-memory store pre-seeded with entries, as
// if a previous run had saved them.
func NewMemoryStoreWith(entries []store.Entry) *MemoryStore {
	return &MemoryStore{snapshot: store.CloneEntries(entries)}
}

// Load returns a copy of the current snapshot.
func (m *MemoryStore) Load() ([]store.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loads++
	if m.closed {
		return nil, ErrClosed
	}
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return store.CloneEntries(m.snapshot), nil
}

// Save replaces the snapshot and records the write.
func (m *MemoryStore) Save(entries []store.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snapshot = store.CloneEntries(entries)
	m.saves = append(m.saves, store.CloneEntries(entries))
	return nil
}

// Close marks the store closed. Closing twice is a no-op.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// FailLoad makes subsequent Load calls return err. Pass nil to recover.
func (m *MemoryStore) FailLoad(err error) {
	m.mu.Lock()
	m.loadErr = err
	m.mu.Unlock()
}

// FailSave makes subsequent Save calls return err. Pass nil to recover.
func (m *MemoryStore) FailSave(err error) {
	m.mu.Lock()
	m.saveErr = err
	m.mu.Unlock()
}

// SaveCount returns the number of successful saves.
func (m *MemoryStore) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saves)
}

// LoadCount returns the number of Load calls, including failed ones.
func (m *MemoryStore) LoadCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads
}

// LastSave returns a copy of the most recent successful save and whether
// there was one.
func (m *MemoryStore) LastSave() ([]store.Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.saves) == 0 {
		return nil, false
	}
	return store.CloneEntries(m.saves[len(m.saves)-1]), true
}

// Snapshot returns a copy of what Load would currently return.
func (m *MemoryStore) Snapshot() []store.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return store.CloneEntries(m.snapshot)
}
