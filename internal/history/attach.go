package history

import (
	"context"
	"errors"

	"github.com/yiblet/cliphist/internal/clipboard"
)

var (
	// ErrAttached is returned when the engine already listens to a
	// clipboard.
	ErrAttached = errors.New("history engine is already attached to a clipboard")

	// ErrShutdown is returned by Attach after Shutdown.
	ErrShutdown = errors.New("history engine is shut down")

	errWatchEnded = errors.New("clipboard watch ended unexpectedly")
)

// Attach subscribes the engine to src. Every change notification re-reads
// the clipboard as text and ingests it. The subscription ends at Shutdown.
func (e *Engine) Attach(src clipboard.Clipboard) error {
	e.attachMu.Lock()
	defer e.attachMu.Unlock()

	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrShutdown
	}
	if e.cancelWatch != nil {
		return ErrAttached
	}

	ctx, cancel := context.WithCancel(context.Background())
	changes := src.Watch(ctx)
	done := make(chan struct{})

	read := func() (string, error) {
		text, err := clipboard.ReadText(src, e.MaxTextLength())
		if errors.Is(err, clipboard.ErrTooLarge) {
			e.logger.Debug("ignoring oversized clipboard text")
			return "", nil
		}
		return text, err
	}

	go func() {
		defer close(done)
		for range changes {
			e.HandleClipboardChange(read)
		}
		if ctx.Err() == nil {
			e.report(OpWatch, errWatchEnded)
		}
	}()

	e.cancelWatch = cancel
	e.watchDone = done
	e.logger.Debug("attached to clipboard")
	return nil
}

// detach cancels the clipboard subscription and waits for the watch loop.
func (e *Engine) detach() {
	e.attachMu.Lock()
	defer e.attachMu.Unlock()

	if e.cancelWatch == nil {
		return
	}
	e.cancelWatch()
	<-e.watchDone
	e.cancelWatch = nil
}
