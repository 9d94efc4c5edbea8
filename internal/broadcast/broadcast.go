// Package broadcast fans history snapshots out to observer views.
//
// Delivery is fire-and-forget: there is no acknowledgement and no queue. An
// observer that falls behind sees only the latest snapshot, and an observer
// that panics is dropped without affecting the others. Views that reconnect
// must ask the engine for the current state themselves.
package broadcast

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Preview is one entry as seen by observers: the text is truncated to the
// preview length.
type Preview struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the most-recent-first list of previews delivered after every
// history mutation.
type Snapshot []Preview

// Observer receives snapshots. Notify must not block and must not call back
// into the publisher synchronously.
type Observer interface {
	Notify(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

// Notify calls f(s).
func (f ObserverFunc) Notify(s Snapshot) { f(s) }

// Broadcaster routes snapshots to registered observers.
type Broadcaster struct {
	mu        sync.RWMutex
	observers map[uint64]Observer
	nextID    uint64
	closed    bool
	logger    *slog.Logger
}

// New returns an empty Broadcaster. A nil logger means slog.Default().
func New(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		observers: make(map[uint64]Observer),
		logger:    logger,
	}
}

// Subscribe registers o and returns a function that unregisters it. The
// returned function is safe to call more than once. Subscribing to a closed
// Broadcaster registers nothing.
func (b *Broadcaster) Subscribe(o Observer) (cancel func()) {
	cancel, _ = b.subscribe(o)
	return cancel
}

func (b *Broadcaster) subscribe(o Observer) (func(), bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}, false
	}
	id := b.nextID
	b.nextID++
	b.observers[id] = o
	b.logger.Debug("observer subscribed", "observer", id, "total", len(b.observers))

	return func() { b.remove(id) }, true
}

// Len returns the number of registered observers.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers)
}

// Publish delivers s to every observer.
func (b *Broadcaster) Publish(s Snapshot) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	type target struct {
		id uint64
		o  Observer
	}
	targets := make([]target, 0, len(b.observers))
	for id, o := range b.observers {
		targets = append(targets, target{id, o})
	}
	b.mu.RUnlock()

	for _, t := range targets {
		if err := deliver(t.o, s); err != nil {
			b.logger.Warn("dropping observer", "observer", t.id, "err", err)
			b.remove(t.id)
		}
	}
}

// Close unregisters every observer and closes channel subscriptions.
// Closing twice is a no-op.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	observers := b.observers
	b.observers = make(map[uint64]Observer)
	b.mu.Unlock()

	for _, o := range observers {
		if c, ok := o.(interface{ close() }); ok {
			c.close()
		}
	}
}

func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	o, ok := b.observers[id]
	delete(b.observers, id)
	b.mu.Unlock()

	if ok {
		if c, isChan := o.(interface{ close() }); isChan {
			c.close()
		}
	}
}

// deliver isolates a single observer so a panic in one view cannot break
// delivery to the rest.
func deliver(o Observer, s Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panicked: %v", r)
		}
	}()
	o.Notify(s)
	return nil
}
