package impose

import (
	"fmt"
	"sync"

	"github.com/georgepadayatti/littlebook/pdf/layout"
)

// PagesPerSheet is the number of pages placed on one output sheet side.
const PagesPerSheet = 4

// ComposeOptions controls sheet layout.
type ComposeOptions struct {
	// Scale is applied to every page before rotation. Zero means 1.
	Scale float64
	// Margin is the gap, in points, used by the sheet size formula.
	Margin float64
	// Workers is the number of sheets composed concurrently.
	Workers int
}

// DefaultComposeOptions returns unscaled, margin-free, sequential options.
func DefaultComposeOptions() ComposeOptions {
	return ComposeOptions{Scale: 1, Workers: 1}
}

func (o ComposeOptions) withDefaults() ComposeOptions {
	if o.Scale == 0 {
		o.Scale = 1
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	return o
}

// Placement is one page drawn onto a sheet. Transform maps the page's
// user space, with its origin at the lower-left corner, into sheet space.
type Placement struct {
	Slot      int
	Page      Page
	Transform layout.Transform
}

// Sheet is one output page. Blank placements reserve their slot and
// draw nothing.
type Sheet struct {
	Width      float64
	Height     float64
	Placements []Placement
}

// OutputDocument is the composed result handed to a Sink.
type OutputDocument struct {
	Profile    SignatureProfile
	PageWidth  float64
	PageHeight float64
	Sheets     []Sheet
}

// PageCount returns the number of placements across all sheets.
func (d *OutputDocument) PageCount() int {
	n := 0
	for _, s := range d.Sheets {
		n += len(s.Placements)
	}
	return n
}

// SheetSize returns the sheet dimensions for pages of the given size.
// Pages are turned a quarter, so the sheet is two page heights wide and
// two page widths tall.
func SheetSize(pageWidth, pageHeight, margin float64) (width, height float64) {
	return 2*pageHeight + 3*margin, 2*pageWidth + 3*margin
}

// SlotTransform returns the transform placing a page in slot 0..3.
func SlotTransform(slot int, pageWidth, pageHeight float64, opts ComposeOptions) layout.Transform {
	opts = opts.withDefaults()
	row := slot / 2
	col := slot % 2
	x := (pageHeight + opts.Margin) + float64(row)*pageHeight
	y := opts.Margin + float64(col)*pageWidth
	return layout.Translate(x, y).
		Multiply(layout.RotateDeg(90)).
		Multiply(layout.ScaleTransform(opts.Scale, opts.Scale))
}

// Compose lays physical out four pages to a sheet. Sheet k holds
// physical[4k:4k+4]; a short final chunk fills only its leading slots.
func Compose(physical []Page, pageWidth, pageHeight float64, opts ComposeOptions) (*OutputDocument, error) {
	opts = opts.withDefaults()
	if pageWidth <= 0 || pageHeight <= 0 {
		return nil, fmt.Errorf("%w: page size %gx%g", ErrInvalidGeometry, pageWidth, pageHeight)
	}
	if opts.Scale < 0 {
		return nil, fmt.Errorf("%w: scale %g", ErrInvalidGeometry, opts.Scale)
	}
	if opts.Margin < 0 {
		return nil, fmt.Errorf("%w: margin %g", ErrInvalidGeometry, opts.Margin)
	}
	if len(physical) == 0 {
		return nil, fmt.Errorf("%w: nothing to compose", ErrInvalidPageCount)
	}

	var slots [PagesPerSheet]layout.Transform
	for i := range slots {
		slots[i] = SlotTransform(i, pageWidth, pageHeight, opts)
	}
	width, height := SheetSize(pageWidth, pageHeight, opts.Margin)

	sheets := make([]Sheet, (len(physical)+PagesPerSheet-1)/PagesPerSheet)
	compose := func(k int) {
		start := k * PagesPerSheet
		end := min(start+PagesPerSheet, len(physical))
		sheet := Sheet{Width: width, Height: height, Placements: make([]Placement, 0, end-start)}
		for slot, page := range physical[start:end] {
			sheet.Placements = append(sheet.Placements, Placement{
				Slot:      slot,
				Page:      page,
				Transform: slots[slot],
			})
		}
		sheets[k] = sheet
	}

	workers := min(opts.Workers, len(sheets))
	if workers == 1 {
		for k := range sheets {
			compose(k)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := range jobs {
					compose(k)
				}
			}()
		}
		for k := range sheets {
			jobs <- k
		}
		close(jobs)
		wg.Wait()
	}

	return &OutputDocument{
		PageWidth:  pageWidth,
		PageHeight: pageHeight,
		Sheets:     sheets,
	}, nil
}
