// Package mockboard provides an in-memory clipboard for tests and demos.
// Every content change, including Write, notifies all active watchers, the
// same way a real clipboard reports the application's own writes. A board
// from NewChangeOnly stays silent when the content does not change, like the
// polling backends.
package mockboard

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// WatchBuffer is the number of undelivered change signals kept per watcher.
const WatchBuffer = 64

// MockClipboard is an in-memory clipboard. It is safe for concurrent use.
type MockClipboard struct {
	mu       sync.Mutex
	data     []byte
	readErr  error
	writeErr error
	watchers map[*watcher]struct{}
	writes   int

	changeOnly bool
}

type watcher struct {
	ch     chan struct{}
	closed bool
}

// New creates a new MockClipboard instance
func New() *MockClipboard {
	return &MockClipboard{watchers: make(map[*watcher]struct{})}
}

// NewChangeOnly creates a MockClipboard that notifies watchers only when
// the stored content actually changes.
func NewChangeOnly() *MockClipboard {
	m := New()
	m.changeOnly = true
	return m
}

// Read returns the current content.
func (m *MockClipboard) Read() (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), m.data...))), nil
}

// Write replaces the content and notifies watchers.
func (m *MockClipboard) Write(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.replaceLocked(data)
	return nil
}

// Watch returns a change channel that closes when ctx is done.
func (m *MockClipboard) Watch(ctx context.Context) <-chan struct{} {
	w := &watcher{ch: make(chan struct{}, WatchBuffer)}

	m.mu.Lock()
	m.watchers[w] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, w)
		w.closed = true
		close(w.ch)
		m.mu.Unlock()
	}()

	return w.ch
}

// IsSupported always returns true for the mock clipboard
func (m *MockClipboard) IsSupported() bool {
	return true
}

// SetData simulates another application copying data.
func (m *MockClipboard) SetData(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceLocked(append([]byte(nil), data...))
}

// SetText is SetData for strings.
func (m *MockClipboard) SetText(text string) {
	m.SetData([]byte(text))
}

// Emit sends a change signal without changing the content.
func (m *MockClipboard) Emit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifyLocked()
}

// GetData returns the current clipboard data.
func (m *MockClipboard) GetData() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// Writes returns the number of successful Write calls.
func (m *MockClipboard) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Watchers returns the number of active watchers.
func (m *MockClipboard) Watchers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watchers)
}

// FailRead makes Read return err until called again with nil.
func (m *MockClipboard) FailRead(err error) {
	m.mu.Lock()
	m.readErr = err
	m.mu.Unlock()
}

// FailWrite makes Write return err until called again with nil.
func (m *MockClipboard) FailWrite(err error) {
	m.mu.Lock()
	m.writeErr = err
	m.mu.Unlock()
}

func (m *MockClipboard) replaceLocked(data []byte) {
	if m.changeOnly && bytes.Equal(m.data, data) {
		return
	}
	m.data = data
	m.notifyLocked()
}

func (m *MockClipboard) notifyLocked() {
	for w := range m.watchers {
		if w.closed {
			continue
		}
		select {
		case w.ch <- struct{}{}:
		default:
		}
	}
}
