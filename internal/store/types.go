package store

import "time"

// Entry is one captured clipboard text with its capture time.
type Entry struct {
	// Text is the captured clipboard text, already trimmed.
	Text string

	// Timestamp is the capture time. Persisted with millisecond precision.
	Timestamp time.Time
}

// CloneEntries returns a copy of entries that shares no backing array with
// the input. A nil input yields an empty, non-nil slice.
func CloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// UnixMilli converts a persisted millisecond timestamp back into a time.
func UnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms)
}
