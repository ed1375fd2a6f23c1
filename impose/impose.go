// Package impose rearranges the pages of a document into folded
// signatures and lays them out four to a sheet, so that the printed,
// folded and cut sheets read in order as a small book.
//
// The stages are pure functions over page sequences:
//
//	profile, _ := impose.SelectProfile(len(pages), impose.FoldCanonical)
//	padded, _ := impose.Pad(pages, profile.SigSize)
//	physical, _ := impose.Impose(padded, profile)
//	doc, _ := impose.Compose(physical, w, h, impose.DefaultComposeOptions())
//
// Pipeline runs them in order between a PageSource and a Sink.
package impose

import "fmt"

// Impose reorders padded into physical printing order. Each block of
// SigSize pages is permuted independently by the profile's fold order.
func Impose(padded []Page, profile SignatureProfile) ([]Page, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if len(padded) == 0 {
		return nil, fmt.Errorf("%w: nothing to impose", ErrInvalidPageCount)
	}

	out := make([]Page, 0, len(padded))
	skipped := 0
	for i := 0; i < len(padded); i += profile.SigSize {
		for _, offset := range profile.FoldOrder {
			src := i + offset
			if src >= len(padded) {
				skipped++
				continue
			}
			out = append(out, padded[src])
		}
	}
	// Only reachable when padded was not padded to a multiple of SigSize.
	if skipped > 0 {
		return nil, fmt.Errorf("%w: %d fold positions past the end of %d pages",
			ErrIndexOutOfRange, skipped, len(padded))
	}
	return out, nil
}
