// Package nativeboard implements the clipboard on top of
// golang.design/x/clipboard, which talks to the platform clipboard directly
// (NSPasteboard, Win32, X11) and reports changes natively.
package nativeboard

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"golang.design/x/clipboard"
)

// NativeClipboard is a text clipboard backed by golang.design/x/clipboard.
type NativeClipboard struct{}

// New initializes the platform clipboard. It fails on hosts without a
// display server or when built without cgo.
func New() (*NativeClipboard, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize native clipboard: %w", err)
	}
	return &NativeClipboard{}, nil
}

// Read returns the current text content.
func (n *NativeClipboard) Read() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(clipboard.Read(clipboard.FmtText))), nil
}

// Write replaces the text content.
func (n *NativeClipboard) Write(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	clipboard.Write(clipboard.FmtText, data)
	return nil
}

// Watch converts the library's content stream into bare change signals.
func (n *NativeClipboard) Watch(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)
	changes := clipboard.Watch(ctx, clipboard.FmtText)

	go func() {
		defer close(out)
		for range changes {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	return out
}

// IsSupported reports true; New already failed if the clipboard is unusable.
func (n *NativeClipboard) IsSupported() bool {
	return true
}
