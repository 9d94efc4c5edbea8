// Package debounce provides a single-slot scheduler that coalesces bursts of
// "state changed" signals into one deferred call.
package debounce

import (
	"sync"
	"time"

	"github.com/yiblet/cliphist/internal/clock"
)

// DefaultDelay is the quiet period used when a non-positive delay is given.
const DefaultDelay = time.Second

// Writer holds at most one pending call to its fire function. Every Arm
// restarts the quiet period; only the last armed window ever fires.
type Writer struct {
	mu      sync.Mutex
	clock   clock.Clock
	delay   time.Duration
	fire    func()
	timer   *clock.Timer
	gen     uint64
	pending bool
}

// New creates a Writer that calls fire once delay has elapsed without a new
// Arm.
func New(c clock.Clock, delay time.Duration, fire func()) *Writer {
	if c == nil {
		c = clock.Real()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Writer{clock: c, delay: delay, fire: fire}
}

// Arm (re)starts the quiet period. A previously armed call is superseded.
func (w *Writer) Arm() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.gen++
	w.pending = true
	gen := w.gen
	w.timer = w.clock.AfterFunc(w.delay, func() { w.expire(gen) })
}

// Cancel drops the pending call, if any, and reports whether one was
// pending.
func (w *Writer) Cancel() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.gen++
	was := w.pending
	w.pending = false
	return was
}

// Pending reports whether a call is scheduled.
func (w *Writer) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// SetDelay changes the quiet period for subsequent Arm calls.
func (w *Writer) SetDelay(d time.Duration) {
	if d <= 0 {
		return
	}
	w.mu.Lock()
	w.delay = d
	w.mu.Unlock()
}

// expire runs on the timer goroutine. A timer that raced with Cancel or a
// newer Arm carries a stale generation and is ignored.
func (w *Writer) expire(gen uint64) {
	w.mu.Lock()
	if gen != w.gen || !w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.timer = nil
	w.mu.Unlock()

	w.fire()
}
