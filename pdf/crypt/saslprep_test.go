package crypt

import (
	"errors"
	"testing"
)

func TestSASLprep(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ascii", "password", "password"},
		{"space", "pass word", "pass word"},
		{"latin", "caf\u00E9", "caf\u00E9"},
		{"empty", "", ""},
		{"soft hyphen removed", "pass\u00ADword", "password"},
		{"zero width space removed", "pass\u200Bword", "password"},
		{"no-break space mapped", "pass\u00A0word", "pass word"},
		{"ideographic space mapped", "a\u3000b", "a b"},
		{"NFKC ligature", "\uFB01le", "file"},
		{"NFKC roman numeral", "\u2163", "IV"},
		{"decomposed e acute", "cafe\u0301", "caf\u00E9"},
		{"hebrew only", "\u05D0\u05D1", "\u05D0\u05D1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SASLprep(tt.input)
			if err != nil {
				t.Fatalf("SASLprep(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("SASLprep(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSASLprepRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"control character", "pass\x07word", ErrSASLprepProhibited},
		{"private use", "pass\uE000", ErrSASLprepProhibited},
		{"non-character", "pass\uFFFF", ErrSASLprepProhibited},
		{"tagging character", "pass\U000E0041", ErrSASLprepProhibited},
		{"mixed direction", "a\u05D0", ErrSASLprepBidirectional},
		{"RandAL not at end", "\u05D01", ErrSASLprepBidirectional},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SASLprep(tt.input); !errors.Is(err, tt.want) {
				t.Errorf("SASLprep(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}
