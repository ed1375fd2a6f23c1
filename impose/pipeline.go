package impose

import (
	"fmt"
	"log/slog"
)

// PageSource provides the ordered pages of an input document.
type PageSource interface {
	PageCount() int
	PageAt(i int) (Page, error)
	FirstPageGeometry() (width, height float64)
}

// Sink persists a composed document. Discard removes anything a failed
// run left behind and is safe to call when nothing was written.
type Sink interface {
	WriteDocument(doc *OutputDocument) error
	Discard() error
}

// State is a pipeline stage.
type State int

const (
	StateInit State = iota
	StateLoaded
	StatePadded
	StateImposed
	StateComposed
	StatePersisted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateLoaded:
		return "loaded"
	case StatePadded:
		return "padded"
	case StateImposed:
		return "imposed"
	case StateComposed:
		return "composed"
	case StatePersisted:
		return "persisted"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) action() string {
	switch s {
	case StateLoaded:
		return "load"
	case StatePadded:
		return "pad"
	case StateImposed:
		return "impose"
	case StateComposed:
		return "compose"
	case StatePersisted:
		return "persist"
	default:
		return s.String()
	}
}

// Result summarizes a pipeline run.
type Result struct {
	Profile     SignatureProfile
	SourcePages int
	PaddedPages int
	BlankPages  int
	Sheets      int
	State       State
}

// Pipeline runs load, pad, impose, compose and persist in order.
type Pipeline struct {
	Variant FoldVariant
	Options ComposeOptions
	Logger  *slog.Logger
}

// NewPipeline creates a pipeline. A nil logger discards log output.
func NewPipeline(variant FoldVariant, opts ComposeOptions, logger *slog.Logger) *Pipeline {
	return &Pipeline{Variant: variant, Options: opts, Logger: logger}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// Run imposes src and writes the result to sink. On failure sink.Discard
// is called and the error is returned as a *StageError.
func (p *Pipeline) Run(src PageSource, sink Sink) (*Result, error) {
	log := p.logger()
	res := &Result{State: StateInit}

	fail := func(stage State, err error) (*Result, error) {
		res.State = StateFailed
		log.Debug("stage failed", "stage", stage.action(), "error", err)
		if derr := sink.Discard(); derr != nil {
			log.Warn("failed to discard output", "error", derr)
		}
		return res, &StageError{Stage: stage, Err: err}
	}
	advance := func(s State, args ...any) {
		res.State = s
		log.Debug("stage complete", append([]any{"state", s}, args...)...)
	}

	pages, width, height, err := load(src)
	if err != nil {
		return fail(StateLoaded, err)
	}
	res.SourcePages = len(pages)
	advance(StateLoaded, "pages", len(pages), "width", width, "height", height)

	profile, err := SelectProfile(len(pages), p.Variant)
	if err != nil {
		return fail(StatePadded, err)
	}
	res.Profile = profile
	padded, err := Pad(pages, profile.SigSize)
	if err != nil {
		return fail(StatePadded, err)
	}
	res.PaddedPages = len(padded)
	res.BlankPages = CountBlank(padded)
	advance(StatePadded, "signature", profile.SigSize, "padded", len(padded), "blank", res.BlankPages)

	physical, err := Impose(padded, profile)
	if err != nil {
		return fail(StateImposed, err)
	}
	advance(StateImposed, "signatures", len(physical)/profile.SigSize)

	doc, err := Compose(physical, width, height, p.Options)
	if err != nil {
		return fail(StateComposed, err)
	}
	doc.Profile = profile
	res.Sheets = len(doc.Sheets)
	advance(StateComposed, "sheets", len(doc.Sheets))

	if err := sink.WriteDocument(doc); err != nil {
		return fail(StatePersisted, err)
	}
	advance(StatePersisted)

	log.Info("imposed document",
		"pages", res.SourcePages,
		"blank", res.BlankPages,
		"signature", profile.SigSize,
		"sheets", res.Sheets)
	return res, nil
}

// load reads every page and checks that they share the first page's size.
func load(src PageSource) ([]Page, float64, float64, error) {
	n := src.PageCount()
	if n < 1 {
		return nil, 0, 0, fmt.Errorf("%w: document has %d pages", ErrInvalidPageCount, n)
	}
	width, height := src.FirstPageGeometry()
	if width <= 0 || height <= 0 {
		return nil, 0, 0, fmt.Errorf("%w: first page is %gx%g", ErrInvalidGeometry, width, height)
	}

	first := Page{Width: width, Height: height}
	pages := make([]Page, n)
	for i := range n {
		page, err := src.PageAt(i)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("page %d: %w", i+1, err)
		}
		if !page.SameSize(first) {
			return nil, 0, 0, fmt.Errorf("%w: page %d is %gx%g, first page is %gx%g",
				ErrHeterogeneousGeometry, i+1, page.Width, page.Height, width, height)
		}
		pages[i] = page
	}
	return pages, width, height, nil
}
