package document

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/georgepadayatti/littlebook/impose"
	"github.com/georgepadayatti/littlebook/pdf/content"
	"github.com/georgepadayatti/littlebook/pdf/generic"
	"github.com/georgepadayatti/littlebook/pdf/layout"
	"github.com/georgepadayatti/littlebook/pdf/writer"
)

// Producer is written to the /Producer entry of every output file.
const Producer = "littlebook"

// ErrOutputExists is returned when the output file exists and overwriting
// was not allowed.
var ErrOutputExists = errors.New("output file already exists")

// SinkOptions controls how output is written.
type SinkOptions struct {
	Compress     bool
	Overwrite    bool
	CreationDate time.Time
}

// FileSink writes an imposed document to a file. The document is written
// to a temporary file in the destination directory and renamed into place,
// so the output path never holds a partial file.
type FileSink struct {
	src  *Document
	path string
	opts SinkOptions

	tmp     string
	written bool
}

// NewFileSink creates a sink that draws pages from src into path.
func NewFileSink(src *Document, path string, opts SinkOptions) *FileSink {
	return &FileSink{src: src, path: path, opts: opts}
}

// Path returns the output path.
func (s *FileSink) Path() string {
	return s.path
}

// WriteDocument implements impose.Sink. All errors match
// impose.ErrPersistFailure.
func (s *FileSink) WriteDocument(doc *impose.OutputDocument) error {
	if !s.opts.Overwrite {
		if _, err := os.Stat(s.path); err == nil {
			return fmt.Errorf("%w: %w: %s", impose.ErrPersistFailure, ErrOutputExists, s.path)
		}
	}

	data, err := s.render(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", impose.ErrPersistFailure, err)
	}
	if err := s.writeFile(data); err != nil {
		return fmt.Errorf("%w: %w", impose.ErrPersistFailure, err)
	}
	return nil
}

func (s *FileSink) writeFile(data []byte) error {
	dir := filepath.Dir(s.path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	s.tmp = f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(s.tmp, 0o644); err != nil {
		return err
	}
	if err := os.Rename(s.tmp, s.path); err != nil {
		return err
	}
	s.tmp = ""
	s.written = true
	return nil
}

// Discard implements impose.Sink. It removes the temporary file and any
// output this sink wrote. A pre-existing file at the output path is left
// alone.
func (s *FileSink) Discard() error {
	var errs []error
	if s.tmp != "" {
		if err := os.Remove(s.tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
		s.tmp = ""
	}
	if s.written {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
		s.written = false
	}
	return errors.Join(errs...)
}

func (s *FileSink) render(doc *impose.OutputDocument) ([]byte, error) {
	src := s.src.reader
	w := writer.NewPdfFileWriter(writer.DefaultOutputVersion)
	w.EnsureVersion(writer.ParseVersion(src.Version))
	w.Compress = s.opts.Compress
	w.CreationDate = s.opts.CreationDate
	w.Info.Set("Producer", generic.NewTextString(Producer))
	if title := src.Title(); title != "" {
		w.Info.Set("Title", generic.NewTextString(title))
	}

	im := writer.NewImporter(src, w)
	for k, sheet := range doc.Sheets {
		xobjects := generic.NewDictionary()
		cb := content.NewContentBuilder()
		for _, pl := range sheet.Placements {
			if pl.Page.IsBlank() {
				continue
			}
			if pl.Page.Index < 0 || pl.Page.Index >= src.NumPages() {
				return nil, fmt.Errorf("sheet %d: %w: page %d of %d",
					k+1, impose.ErrIndexOutOfRange, pl.Page.Index, src.NumPages())
			}
			page, err := src.Page(pl.Page.Index)
			if err != nil {
				return nil, err
			}
			form, err := im.ImportPageAsForm(page)
			if err != nil {
				return nil, fmt.Errorf("sheet %d: %w", k+1, err)
			}

			name := fmt.Sprintf("P%d", pl.Slot)
			xobjects.Set(name, form)
			// Form space is the source page space; move its MediaBox
			// corner to the origin before placing.
			m := pl.Transform.Multiply(layout.Translate(-page.MediaBox.LLX, -page.MediaBox.LLY))
			cb.SaveState().Transform(m).PaintXObject(name).RestoreState()
		}

		resources := generic.NewDictionary()
		var contents []byte
		if xobjects.Len() > 0 {
			resources.Set("XObject", xobjects)
			contents = cb.Render()
		}
		box := &generic.Rectangle{URX: sheet.Width, URY: sheet.Height}
		if _, err := w.AddPage(box, contents, resources); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := w.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
