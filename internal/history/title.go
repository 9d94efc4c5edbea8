package history

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Preview returns text cut to at most n characters. n <= 0 returns text
// unchanged.
func Preview(text string, n int) string {
	if n <= 0 || len(text) <= n {
		return text
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}

// Title creates a single-line label for text: its first non-empty line with
// control characters and runs of whitespace collapsed, cut to maxLen
// characters.
func Title(text string, maxLen int) string {
	for _, line := range strings.Split(text, "\n") {
		if cleaned := SanitizeTitle(line); cleaned != "" {
			return TruncateTitle(cleaned, maxLen)
		}
	}
	return "[empty]"
}

// TruncateTitle ensures title is at most maxLen characters.
// If truncation is needed, appends "..." to indicate truncation.
func TruncateTitle(title string, maxLen int) string {
	title = strings.TrimSpace(title)

	if utf8.RuneCountInString(title) <= maxLen {
		return title
	}

	// Reserve 3 characters for "..."
	if maxLen <= 3 {
		return strings.Repeat(".", max(maxLen, 0))
	}

	return Preview(title, maxLen-3) + "..."
}

// SanitizeTitle removes control characters and collapses whitespace.
// This ensures titles are safe for display in terminals.
func SanitizeTitle(title string) string {
	title = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, title)

	return strings.Join(strings.Fields(title), " ")
}
