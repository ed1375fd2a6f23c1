package impose

import (
	"fmt"
	"math"
)

// BlankIndex is the source index of a padding page.
const BlankIndex = -1

// GeometryTolerance is the largest size difference, in points, between
// pages that are treated as the same size.
const GeometryTolerance = 0.01

// Page is one logical page. Index is its 0-based position in the source
// document, or BlankIndex for padding.
type Page struct {
	Index  int
	Width  float64
	Height float64
}

// BlankPage returns a padding page of the given size.
func BlankPage(width, height float64) Page {
	return Page{Index: BlankIndex, Width: width, Height: height}
}

// IsBlank reports whether p was added as padding.
func (p Page) IsBlank() bool {
	return p.Index == BlankIndex
}

func (p Page) String() string {
	if p.IsBlank() {
		return "blank"
	}
	return fmt.Sprintf("page %d", p.Index+1)
}

// SameSize reports whether p and other match within GeometryTolerance.
func (p Page) SameSize(other Page) bool {
	return math.Abs(p.Width-other.Width) <= GeometryTolerance &&
		math.Abs(p.Height-other.Height) <= GeometryTolerance
}

// CountBlank returns the number of padding pages in seq.
func CountBlank(seq []Page) int {
	n := 0
	for _, p := range seq {
		if p.IsBlank() {
			n++
		}
	}
	return n
}
