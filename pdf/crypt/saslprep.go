package crypt

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"
)

// SASLprep errors
var (
	ErrSASLprepProhibited    = errors.New("SASLprep: prohibited character")
	ErrSASLprepBidirectional = errors.New("SASLprep: failed bidirectional check")
)

// SASLprep prepares a password per RFC 4013 (query profile: unassigned code
// points are allowed). Revision 6 handlers hash the prepared UTF-8 bytes.
func SASLprep(s string) (string, error) {
	var mapped strings.Builder
	mapped.Grow(len(s))
	for _, r := range s {
		switch {
		case mappedToNothing(r):
		case nonASCIISpace(r):
			mapped.WriteByte(' ')
		default:
			mapped.WriteRune(r)
		}
	}

	out := norm.NFKC.String(mapped.String())
	if out == "" {
		return "", nil
	}

	var hasRandAL, hasL bool
	for _, r := range out {
		if prohibited(r) {
			return "", ErrSASLprepProhibited
		}
		switch p, _ := bidi.LookupRune(r); p.Class() {
		case bidi.R, bidi.AL:
			hasRandAL = true
		case bidi.L:
			hasL = true
		}
	}

	if hasRandAL {
		runes := []rune(out)
		if hasL || !isRandAL(runes[0]) || !isRandAL(runes[len(runes)-1]) {
			return "", ErrSASLprepBidirectional
		}
	}
	return out, nil
}

func isRandAL(r rune) bool {
	p, _ := bidi.LookupRune(r)
	return p.Class() == bidi.R || p.Class() == bidi.AL
}

// RFC 3454 table B.1.
func mappedToNothing(r rune) bool {
	switch {
	case r == 0x00AD, r == 0x034F, r == 0x1806, r == 0x2060, r == 0xFEFF:
		return true
	case r >= 0x180B && r <= 0x180D, r >= 0x200B && r <= 0x200D, r >= 0xFE00 && r <= 0xFE0F:
		return true
	}
	return false
}

// RFC 3454 table C.1.2.
func nonASCIISpace(r rune) bool {
	switch {
	case r == 0x00A0, r == 0x1680, r == 0x202F, r == 0x205F, r == 0x3000:
		return true
	case r >= 0x2000 && r <= 0x200B:
		return true
	}
	return false
}

// prohibited covers RFC 3454 tables C.1.2 through C.9.
func prohibited(r rune) bool {
	switch {
	case nonASCIISpace(r):
		return true
	case unicode.Is(unicode.Cc, r), unicode.Is(unicode.Co, r), unicode.Is(unicode.Cs, r):
		return true
	case r == 0x06DD, r == 0x070F, r == 0x180E, r == 0x200C, r == 0x200D, r == 0x2028, r == 0x2029:
		return true
	case r >= 0x2060 && r <= 0x2063, r >= 0x206A && r <= 0x206F, r >= 0xFFF9 && r <= 0xFFFD:
		return true
	case r >= 0x1D173 && r <= 0x1D17A:
		return true
	case r >= 0xFDD0 && r <= 0xFDEF, r&0xFFFE == 0xFFFE:
		return true
	case r >= 0x2FF0 && r <= 0x2FFB:
		return true
	case r == 0x0340, r == 0x0341, r == 0x200E, r == 0x200F, r >= 0x202A && r <= 0x202E:
		return true
	case r == 0xE0001, r >= 0xE0020 && r <= 0xE007F:
		return true
	}
	return false
}
