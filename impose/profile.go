package impose

import (
	"fmt"
	"slices"
	"strings"
)

// LargeBookThreshold is the page count from which 16-leaf signatures are used.
const LargeBookThreshold = 100

// FoldVariant selects between the fold tables for 8-leaf signatures.
type FoldVariant int

const (
	// FoldCanonical is the table the tool has always used.
	FoldCanonical FoldVariant = iota
	// FoldAlternate mirrors the canonical table within each sheet side.
	FoldAlternate
)

func (v FoldVariant) String() string {
	switch v {
	case FoldCanonical:
		return "canonical"
	case FoldAlternate:
		return "alternate"
	default:
		return fmt.Sprintf("FoldVariant(%d)", int(v))
	}
}

// ParseFoldVariant parses a variant name. The empty string selects
// FoldCanonical.
func ParseFoldVariant(s string) (FoldVariant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "canonical":
		return FoldCanonical, nil
	case "alternate":
		return FoldAlternate, nil
	}
	return 0, fmt.Errorf("unknown fold variant %q (want canonical or alternate)", s)
}

var (
	fold8Canonical = [8]int{7, 0, 5, 2, 1, 6, 3, 4}
	fold8Alternate = [8]int{0, 7, 2, 5, 6, 1, 4, 3}
	fold16         = [16]int{15, 0, 13, 2, 1, 14, 3, 12, 11, 4, 9, 6, 5, 10, 7, 8}
)

// SignatureProfile describes how pages are grouped and folded.
// FoldOrder[j] is the offset within a signature of the logical page
// printed at physical position j.
type SignatureProfile struct {
	SigSize   int
	FoldOrder []int
}

// SelectProfile picks the signature profile for a document of numPages pages.
func SelectProfile(numPages int, variant FoldVariant) (SignatureProfile, error) {
	if numPages < 1 {
		return SignatureProfile{}, fmt.Errorf("%w: %d", ErrInvalidPageCount, numPages)
	}
	if numPages >= LargeBookThreshold {
		return SignatureProfile{SigSize: 16, FoldOrder: fold16[:]}.clone(), nil
	}
	switch variant {
	case FoldCanonical:
		return SignatureProfile{SigSize: 8, FoldOrder: fold8Canonical[:]}.clone(), nil
	case FoldAlternate:
		return SignatureProfile{SigSize: 8, FoldOrder: fold8Alternate[:]}.clone(), nil
	}
	return SignatureProfile{}, fmt.Errorf("%w: unknown fold variant %s", ErrInvalidProfile, variant)
}

func (p SignatureProfile) clone() SignatureProfile {
	p.FoldOrder = slices.Clone(p.FoldOrder)
	return p
}

// Validate checks that FoldOrder is a permutation of 0..SigSize-1.
func (p SignatureProfile) Validate() error {
	if p.SigSize < 1 {
		return fmt.Errorf("%w: signature size %d", ErrInvalidProfile, p.SigSize)
	}
	if len(p.FoldOrder) != p.SigSize {
		return fmt.Errorf("%w: fold order has %d entries for signature size %d",
			ErrInvalidProfile, len(p.FoldOrder), p.SigSize)
	}
	seen := make([]bool, p.SigSize)
	for j, v := range p.FoldOrder {
		if v < 0 || v >= p.SigSize {
			return fmt.Errorf("%w: fold order[%d] = %d", ErrInvalidProfile, j, v)
		}
		if seen[v] {
			return fmt.Errorf("%w: offset %d appears twice", ErrInvalidProfile, v)
		}
		seen[v] = true
	}
	return nil
}

// SheetsPerSignature returns the number of output sheets one signature fills.
func (p SignatureProfile) SheetsPerSignature() int {
	return p.SigSize / PagesPerSheet
}
