// Package document connects the imposition pipeline to PDF files: a
// Document reads pages from an input file and a FileSink writes the
// composed sheets to an output file.
package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/georgepadayatti/littlebook/impose"
	"github.com/georgepadayatti/littlebook/pdf/reader"
)

// Options controls how an input document is opened.
type Options struct {
	// Password opens an encrypted document. It may be the user or the
	// owner password.
	Password string

	// PasswordPrompt is called when the document needs a password and
	// Password is empty.
	PasswordPrompt func() (string, error)
}

// Document is an opened input PDF. It implements impose.PageSource.
type Document struct {
	Path   string
	reader *reader.PdfFileReader
}

// Open reads and parses the PDF at path. A missing file yields an error
// matching both impose.ErrInputNotFound and fs.ErrNotExist.
func Open(path string, opts Options) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", impose.ErrInputNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := OpenBytes(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// OpenBytes parses a PDF held in memory.
func OpenBytes(data []byte, opts Options) (*Document, error) {
	r, err := reader.NewPdfFileReaderFromBytes(data)
	if err != nil {
		return nil, err
	}
	if r.NeedsPassword() {
		if err := unlock(r, opts); err != nil {
			return nil, err
		}
	}
	return &Document{reader: r}, nil
}

func unlock(r *reader.PdfFileReader, opts Options) error {
	password := opts.Password
	if password == "" && opts.PasswordPrompt != nil {
		var err error
		if password, err = opts.PasswordPrompt(); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	if password == "" {
		return fmt.Errorf("%w: a password is required", reader.ErrEncrypted)
	}
	return r.Decrypt(password)
}

// Reader returns the underlying PDF reader.
func (d *Document) Reader() *reader.PdfFileReader {
	return d.reader
}

// Title returns the document title, or "".
func (d *Document) Title() string {
	return d.reader.Title()
}

// PageCount implements impose.PageSource.
func (d *Document) PageCount() int {
	return d.reader.NumPages()
}

// PageAt implements impose.PageSource. Page size is taken from the
// MediaBox; /Rotate is not applied.
func (d *Document) PageAt(i int) (impose.Page, error) {
	if i < 0 || i >= d.reader.NumPages() {
		return impose.Page{}, fmt.Errorf("%w: page %d of %d", impose.ErrIndexOutOfRange, i, d.reader.NumPages())
	}
	p, err := d.reader.Page(i)
	if err != nil {
		return impose.Page{}, err
	}
	return impose.Page{Index: i, Width: p.Width(), Height: p.Height()}, nil
}

// FirstPageGeometry implements impose.PageSource.
func (d *Document) FirstPageGeometry() (width, height float64) {
	p, err := d.PageAt(0)
	if err != nil {
		return 0, 0
	}
	return p.Width, p.Height
}
