// Package clipboard defines the clipboard source consumed by the history
// engine and helpers shared by its backends.
//
// Backends:
//
//	nativeboard  golang.design/x/clipboard, native change notifications
//	sysboard     pbcopy/pbpaste or xclip/xsel subprocesses, polled
//	mockboard    in-memory, for tests and demos
package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrTooLarge reports clipboard text longer than the accepted limit.
var ErrTooLarge = errors.New("clipboard text exceeds size limit")

// Clipboard is a plain-text system clipboard.
type Clipboard interface {
	// Read returns the current clipboard content. The caller closes it.
	Read() (io.ReadCloser, error)

	// Write replaces the clipboard content.
	Write(r io.Reader) error

	// Watch returns a channel that receives a signal whenever the
	// clipboard content changes. The signal carries no payload; callers
	// re-read the clipboard. The channel is closed once ctx is done.
	Watch(ctx context.Context) <-chan struct{}

	// IsSupported reports whether the backend can operate on this host.
	IsSupported() bool
}

// trimSlack bounds the surrounding whitespace ReadText will read past the
// character limit before giving up.
const trimSlack = 64 << 10

// ReadText reads the clipboard and returns it with surrounding whitespace
// trimmed. Trimmed text longer than maxChars runes yields ErrTooLarge. At
// most maxChars*UTFMax+trimSlack bytes are read; content beyond that is
// rejected without being trimmed. maxChars <= 0 disables the limit.
func ReadText(c Clipboard, maxChars int) (string, error) {
	rc, err := c.Read()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	defer rc.Close()

	var r io.Reader = rc
	readCap := int64(maxChars)*utf8.UTFMax + trimSlack
	if maxChars > 0 {
		r = io.LimitReader(rc, readCap+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	if maxChars > 0 && int64(len(data)) > readCap {
		return "", ErrTooLarge
	}

	text := strings.TrimSpace(string(data))
	if maxChars > 0 && len(text) > maxChars && utf8.RuneCountInString(text) > maxChars {
		return "", ErrTooLarge
	}
	return text, nil
}

// WriteText places text on the clipboard.
func WriteText(c Clipboard, text string) error {
	if err := c.Write(bytes.NewReader([]byte(text))); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// Marker is notified before the application writes to the clipboard itself,
// so that the resulting change event is not recorded again.
type Marker interface {
	MarkProgrammaticCopy()
	UnmarkProgrammaticCopy()
}

// CopyBack places text on the clipboard as a programmatic copy. When the
// clipboard already holds text (ignoring surrounding whitespace) nothing is
// written and no mark is set, since backends only signal real changes and an
// unconsumed mark would swallow the next genuine copy. If the write fails the
// mark is withdrawn for the same reason.
func CopyBack(m Marker, c Clipboard, text string) error {
	if current, err := ReadText(c, 0); err == nil && current == strings.TrimSpace(text) {
		return nil
	}

	m.MarkProgrammaticCopy()
	if err := WriteText(c, text); err != nil {
		m.UnmarkProgrammaticCopy()
		return err
	}
	return nil
}
