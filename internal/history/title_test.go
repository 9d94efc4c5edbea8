package history

import "testing"

func TestPreview(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "hello"},
		{"日本語テキスト", 3, "日本語"},
		{"hello", 0, "hello"},
		{"", 3, ""},
	}

	for _, tt := range tests {
		if got := Preview(tt.text, tt.n); got != tt.want {
			t.Errorf("Preview(%q, %d) = %q, want %q", tt.text, tt.n, got, tt.want)
		}
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   string
	}{
		{"simple", "hello world", 80, "hello world"},
		{"first non-empty line", "\n\n  first line\nsecond", 80, "first line"},
		{"control characters", "tab\there\x00null", 80, "tab here null"},
		{"truncated", "abcdefghij", 8, "abcde..."},
		{"multibyte truncated", "ééééééééé", 6, "ééé..."},
		{"blank", " \n\t\n ", 80, "[empty]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.text, tt.maxLen); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTruncateTitle_Short(t *testing.T) {
	if got := TruncateTitle("abcdef", 2); got != ".." {
		t.Errorf("Expected %q, got %q", "..", got)
	}
}
