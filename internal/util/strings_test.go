package util

import "testing"

func TestSafeTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"shorter than max", "abc", 8, "abc"},
		{"exactly max", "abcdefgh", 8, "abcdefgh"},
		{"longer than max", "abcdefghij", 8, "abcdefgh"},
		{"zero max", "abc", 0, ""},
		{"negative max", "abc", -1, ""},
		{"empty input", "", 8, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeTruncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("SafeTruncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
