package impose

import "fmt"

// PaddingFor returns how many blank pages make n a multiple of sigSize.
func PaddingFor(n, sigSize int) int {
	deficit := sigSize - n%sigSize
	if deficit == sigSize {
		return 0
	}
	return deficit
}

// Pad returns a copy of seq extended with blank pages, sized like the
// first page, up to the next multiple of sigSize.
func Pad(seq []Page, sigSize int) ([]Page, error) {
	if sigSize < 1 {
		return nil, fmt.Errorf("%w: signature size %d", ErrInvalidProfile, sigSize)
	}
	if len(seq) == 0 {
		return nil, fmt.Errorf("%w: nothing to pad", ErrInvalidPageCount)
	}

	extra := PaddingFor(len(seq), sigSize)
	out := make([]Page, len(seq), len(seq)+extra)
	copy(out, seq)
	first := seq[0]
	for range extra {
		out = append(out, BlankPage(first.Width, first.Height))
	}
	return out, nil
}
