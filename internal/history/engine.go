// Package history implements the clipboard history engine: an ordered,
// deduplicated, bounded list of captured texts with debounced persistence
// and change notifications.
//
// The Engine is the only writer of the in-memory history. Every mutation
// runs under one mutex, arms the debounced writer (or persists right away
// for deletions and clears) and publishes a preview snapshot.
//
// No operation returns an error to the clipboard pipeline. Storage and
// clipboard failures are handed to the FailureHandler and the engine keeps
// running.
package history

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/yiblet/cliphist/internal/broadcast"
	"github.com/yiblet/cliphist/internal/clock"
	"github.com/yiblet/cliphist/internal/debounce"
	"github.com/yiblet/cliphist/internal/store"
)

// Entry is one captured clipboard text.
type Entry = store.Entry

// Engine owns the clipboard history.
type Engine struct {
	mu            sync.Mutex
	entries       []Entry
	suppressNext  bool
	closed        bool
	dirty         bool // unsaved mutations since the last successful save
	previewLength int
	maxTextLength int

	// saveMu orders store writes so snapshots land in the order taken.
	saveMu sync.Mutex

	store     store.HistoryStore
	limits    Limits
	clock     clock.Clock
	delay     time.Duration
	writer    *debounce.Writer
	bcast     *broadcast.Broadcaster
	logger    *slog.Logger
	onFailure FailureHandler

	attachMu    sync.Mutex
	cancelWatch func()
	watchDone   chan struct{}

	shutdownOnce sync.Once
}

// New creates an Engine and loads the persisted history from s. A load
// failure is reported and the engine starts empty. A nil limits uses
// DefaultMaxItems.
func New(s store.HistoryStore, limits Limits, opts ...Option) *Engine {
	if limits == nil {
		limits = FixedLimit(DefaultMaxItems)
	}
	e := &Engine{
		store:         s,
		limits:        limits,
		clock:         clock.Real(),
		delay:         debounce.DefaultDelay,
		previewLength: DefaultPreviewLength,
		maxTextLength: DefaultMaxTextLength,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.onFailure == nil {
		e.onFailure = LogFailures(e.logger)
	}
	e.bcast = broadcast.New(e.logger)
	e.writer = debounce.New(e.clock, e.delay, e.flush)

	e.entries = e.load()
	return e
}

func (e *Engine) load() []Entry {
	loaded, err := e.store.Load()
	if err != nil {
		e.report(OpLoad, err)
		return []Entry{}
	}

	maxItems := e.maxItems()
	seen := make(map[string]struct{}, len(loaded))
	entries := make([]Entry, 0, min(len(loaded), maxItems))
	for _, entry := range loaded {
		if entry.Text == "" {
			continue
		}
		if _, dup := seen[entry.Text]; dup {
			continue
		}
		seen[entry.Text] = struct{}{}
		entries = append(entries, entry)
		if len(entries) == maxItems {
			break
		}
	}
	if dropped := len(loaded) - len(entries); dropped > 0 {
		e.logger.Info("normalized loaded history", "loaded", len(loaded), "kept", len(entries))
	}
	e.logger.Debug("history loaded", "entries", len(entries))
	return entries
}

// Ingest records text as the most recent entry. Surrounding whitespace is
// trimmed; empty or oversized text is ignored. An existing entry with the
// same text is moved to the front with a fresh timestamp.
func (e *Engine) Ingest(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if utf8.RuneCountInString(text) > e.maxTextLength {
		e.logger.Debug("ignoring oversized clipboard text", "limit", e.maxTextLength)
		return
	}

	now := e.clock.Now()
	if len(e.entries) > 0 && now.Before(e.entries[0].Timestamp) {
		now = e.entries[0].Timestamp
	}
	if i := e.indexLocked(text); i >= 0 {
		e.entries = slices.Delete(e.entries, i, i+1)
	}
	e.entries = slices.Insert(e.entries, 0, Entry{Text: text, Timestamp: now})

	maxItems := e.maxItems()
	for len(e.entries) > maxItems {
		e.entries = e.entries[:len(e.entries)-1]
	}
	e.dirty = true

	e.writer.Arm()
	e.publishLocked()
}

// List returns a copy of the full history, most recent first.
func (e *Engine) List() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return store.CloneEntries(e.entries)
}

// Len returns the number of entries.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// Snapshot returns the history as observers see it, with each text cut to
// the preview length.
func (e *Engine) Snapshot() broadcast.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// DeleteAt removes the entry at index. An out-of-range index is a no-op.
// A deletion is persisted before DeleteAt returns.
func (e *Engine) DeleteAt(index int) {
	e.mu.Lock()
	if e.closed || index < 0 || index >= len(e.entries) {
		e.mu.Unlock()
		return
	}
	e.entries = slices.Delete(e.entries, index, index+1)
	e.dirty = true
	e.publishLocked()
	e.mu.Unlock()

	e.writer.Cancel()
	e.persist()
}

// Clear empties the history and persists the empty snapshot before
// returning.
func (e *Engine) Clear() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.entries = []Entry{}
	e.dirty = true
	e.publishLocked()
	e.mu.Unlock()

	e.writer.Cancel()
	e.persist()
}

// MarkProgrammaticCopy suppresses the next clipboard change event. Call it
// right before the application writes to the clipboard itself.
func (e *Engine) MarkProgrammaticCopy() {
	e.mu.Lock()
	e.suppressNext = true
	e.mu.Unlock()
}

// UnmarkProgrammaticCopy withdraws a mark whose clipboard write failed.
func (e *Engine) UnmarkProgrammaticCopy() {
	e.mu.Lock()
	e.suppressNext = false
	e.mu.Unlock()
}

// HandleClipboardChange reacts to one clipboard change event. If a
// programmatic copy was marked, the event is consumed without reading.
// Otherwise read is called for the current text, which is ingested.
func (e *Engine) HandleClipboardChange(read func() (string, error)) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if e.suppressNext {
		e.suppressNext = false
		e.mu.Unlock()
		e.logger.Debug("skipped programmatic copy")
		return
	}
	e.mu.Unlock()

	text, err := read()
	if err != nil {
		e.report(OpRead, err)
		return
	}
	e.Ingest(text)
}

// Subscribe registers an observer for snapshots published after every
// mutation.
func (e *Engine) Subscribe(o broadcast.Observer) (cancel func()) {
	return e.bcast.Subscribe(o)
}

// Broadcaster exposes the change broadcaster, for channel subscriptions.
func (e *Engine) Broadcaster() *broadcast.Broadcaster {
	return e.bcast
}

// SetSaveDelay changes the debounce window for subsequent mutations.
func (e *Engine) SetSaveDelay(d time.Duration) {
	e.writer.SetDelay(d)
}

// SetPreviewLength changes the preview length of later snapshots.
func (e *Engine) SetPreviewLength(n int) {
	if n <= 0 {
		return
	}
	e.mu.Lock()
	e.previewLength = n
	e.mu.Unlock()
}

// SetMaxTextLength changes the largest accepted text.
func (e *Engine) SetMaxTextLength(n int) {
	if n <= 0 {
		return
	}
	e.mu.Lock()
	e.maxTextLength = n
	e.mu.Unlock()
}

// MaxTextLength returns the largest accepted text, in characters.
func (e *Engine) MaxTextLength() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxTextLength
}

// Shutdown stops the clipboard subscription, drops any pending debounced
// save, writes the history if it changed since the last successful save and
// closes the broadcaster. Later calls do nothing. Shutdown on a nil Engine is a no-op.
func (e *Engine) Shutdown() {
	if e == nil {
		return
	}
	e.shutdownOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		e.detach()
		e.writer.Cancel()
		e.persist()
		e.bcast.Close()
		e.logger.Debug("history engine stopped")
	})
}

// flush is the debounced save.
func (e *Engine) flush() {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return
	}
	e.persist()
}

// persist writes the current history if it has unsaved mutations. The
// snapshot is taken after saveMu is held, so a write always carries the
// newest state. A history that failed to load is left on disk until the
// user changes something.
func (e *Engine) persist() {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	if !e.dirty {
		e.mu.Unlock()
		return
	}
	snapshot := store.CloneEntries(e.entries)
	e.dirty = false
	e.mu.Unlock()

	if err := e.store.Save(snapshot); err != nil {
		e.mu.Lock()
		e.dirty = true
		e.mu.Unlock()
		e.report(OpSave, err)
		return
	}
	e.logger.Debug("history saved", "entries", len(snapshot))
}

func (e *Engine) report(op Op, err error) {
	e.onFailure(Failure{Op: op, Err: err})
}

func (e *Engine) maxItems() int {
	n := e.limits.MaxItems()
	if n < 1 {
		return DefaultMaxItems
	}
	return n
}

func (e *Engine) indexLocked(text string) int {
	return slices.IndexFunc(e.entries, func(entry Entry) bool {
		return entry.Text == text
	})
}

func (e *Engine) snapshotLocked() broadcast.Snapshot {
	snap := make(broadcast.Snapshot, len(e.entries))
	for i, entry := range e.entries {
		snap[i] = broadcast.Preview{
			Text:      Preview(entry.Text, e.previewLength),
			Timestamp: entry.Timestamp,
		}
	}
	return snap
}

// publishLocked runs under mu so observers see snapshots in mutation
// order.
func (e *Engine) publishLocked() {
	e.bcast.Publish(e.snapshotLocked())
}
