package tui

import (
	"strings"
	"testing"
	"time"
)

func TestRepeatChar(t *testing.T) {
	tests := []struct {
		char     rune
		n        int
		expected string
	}{
		{'a', 0, ""},
		{'a', -1, ""},
		{'a', 1, "a"},
		{'a', 5, "aaaaa"},
		{'─', 3, "───"},
		{' ', 4, "    "},
	}

	for _, tt := range tests {
		result := repeatChar(tt.char, tt.n)
		if result != tt.expected {
			t.Errorf("repeatChar(%q, %d) = %q, want %q", tt.char, tt.n, result, tt.expected)
		}
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		path     string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exact_len", 9, "exact_len"},
		{"/very/long/path/to/file.txt", 20, ".../path/to/file.txt"},
		{"/very/long/path/to/file.txt", 10, "...ile.txt"},
		{"/a/b", 10, "/a/b"},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"abcdef", 4, "...f"},
	}

	for _, tt := range tests {
		result := truncatePath(tt.path, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncatePath(%q, %d) = %q, want %q", tt.path, tt.maxLen, result, tt.expected)
		}
		if len(result) > tt.maxLen {
			t.Errorf("truncatePath(%q, %d) result length %d exceeds maxLen", tt.path, tt.maxLen, len(result))
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "0:00"},
		{1400 * time.Millisecond, "0:01"},
		{59 * time.Second, "0:59"},
		{61 * time.Second, "1:01"},
		{12*time.Minute + 5*time.Second, "12:05"},
	}

	for _, tt := range tests {
		result := formatDuration(tt.d)
		if result != tt.expected {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, result, tt.expected)
		}
	}
}

func TestKeyHint(t *testing.T) {
	hint := keyHint("p", "pause", "a", "abort")
	for _, want := range []string{"p", "pause", "a", "abort"} {
		if !strings.Contains(hint, want) {
			t.Errorf("keyHint() = %q, missing %q", hint, want)
		}
	}
	if keyHint() != "" {
		t.Error("keyHint() with no pairs should be empty")
	}
}

func TestRenderDivider(t *testing.T) {
	tests := []struct {
		width int
	}{
		{10},
		{20},
		{80},
	}

	for _, tt := range tests {
		result := renderDivider(tt.width)
		// The divider should contain the horizontal line character
		if !strings.Contains(result, "─") {
			t.Errorf("renderDivider(%d) should contain '─' character", tt.width)
		}
	}
}
