package history

import (
	"log/slog"
	"time"

	"github.com/yiblet/cliphist/internal/clock"
)

const (
	// DefaultMaxItems is the capacity used when the configured limit is
	// not a positive number.
	DefaultMaxItems = 30

	// DefaultPreviewLength is the number of characters of each entry
	// delivered to observers.
	DefaultPreviewLength = 1000

	// DefaultMaxTextLength is the largest clipboard text, in characters,
	// that is recorded.
	DefaultMaxTextLength = 1_000_000
)

// Limits supplies the capacity. MaxItems is consulted on every insertion,
// so a changed value applies from the next Ingest on.
type Limits interface {
	MaxItems() int
}

// FixedLimit is a constant Limits.
type FixedLimit int

// MaxItems returns the limit itself.
func (f FixedLimit) MaxItems() int { return int(f) }

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for timestamps and the debounce timer.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithDelay sets the debounce window for routine saves.
func WithDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.delay = d
		}
	}
}

// WithPreviewLength sets the preview length of broadcast snapshots.
func WithPreviewLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.previewLength = n
		}
	}
}

// WithMaxTextLength sets the largest accepted text, in characters.
func WithMaxTextLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxTextLength = n
		}
	}
}

// WithFailureHandler routes swallowed failures to h instead of the log.
func WithFailureHandler(h FailureHandler) Option {
	return func(e *Engine) {
		if h != nil {
			e.onFailure = h
		}
	}
}

// WithLogger sets the logger for diagnostics and the default failure
// handler.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
