// Package writer creates new PDF files and imports pages from existing ones.
package writer

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/georgepadayatti/littlebook/pdf/filters"
	"github.com/georgepadayatti/littlebook/pdf/generic"
)

// PdfFileWriter creates new PDF files. Objects are numbered in the order
// they are added and written with a classic xref table.
type PdfFileWriter struct {
	Version PDFVersion

	// Compress Flate-encodes content streams created by the writer.
	Compress bool

	// CreationDate is written to /Info when non-zero. Leaving it unset
	// makes the output byte-for-byte reproducible.
	CreationDate time.Time

	Root *generic.DictionaryObject
	Info *generic.DictionaryObject

	objects  []*generic.IndirectObject
	pages    *generic.DictionaryObject
	pagesRef generic.Reference
	pageRefs generic.ArrayObject
}

// NewPdfFileWriter creates a writer with an empty page tree.
func NewPdfFileWriter(version PDFVersion) *PdfFileWriter {
	if version == (PDFVersion{}) {
		version = DefaultOutputVersion
	}
	w := &PdfFileWriter{
		Version: version,
		Root:    generic.NewDictionary(),
		Info:    generic.NewDictionary(),
		pages:   generic.NewDictionary(),
	}

	w.Root.Set("Type", generic.NameObject("Catalog"))
	w.pages.Set("Type", generic.NameObject("Pages"))
	w.pagesRef = w.AddObject(w.pages)
	w.Root.Set("Pages", w.pagesRef)
	return w
}

// AddObject adds an object and returns its reference.
func (w *PdfFileWriter) AddObject(obj generic.PdfObject) generic.Reference {
	ref := w.Reserve()
	w.objects[ref.ObjectNumber-1].Object = obj
	return ref
}

// Reserve allocates an object number whose value is supplied later with
// SetObject. Unset reservations are written as null.
func (w *PdfFileWriter) Reserve() generic.Reference {
	num := len(w.objects) + 1
	w.objects = append(w.objects, generic.NewIndirectObject(num, 0, nil))
	return generic.NewReference(num, 0)
}

// SetObject stores the value of a reserved object.
func (w *PdfFileWriter) SetObject(ref generic.Reference, obj generic.PdfObject) error {
	if ref.ObjectNumber < 1 || ref.ObjectNumber > len(w.objects) {
		return fmt.Errorf("object %s was not allocated by this writer", ref)
	}
	w.objects[ref.ObjectNumber-1].Object = obj
	return nil
}

// NumObjects returns the number of allocated objects.
func (w *PdfFileWriter) NumObjects() int {
	return len(w.objects)
}

// NumPages returns the number of pages added so far.
func (w *PdfFileWriter) NumPages() int {
	return len(w.pageRefs)
}

// EnsureVersion raises the output version to at least v.
func (w *PdfFileWriter) EnsureVersion(v PDFVersion) {
	if w.Version.Compare(v) < 0 {
		w.Version = v
	}
}

// NewContentStream wraps content in a stream, compressing it when enabled.
func (w *PdfFileWriter) NewContentStream(dict *generic.DictionaryObject, content []byte) (*generic.StreamObject, error) {
	stream := generic.NewStream(dict, content)
	if !w.Compress || len(content) == 0 {
		return stream, nil
	}
	encoded, err := filters.FlateEncode(content)
	if err != nil {
		return nil, generic.NewPdfWriteError("failed to compress stream", err)
	}
	stream.Data = encoded
	stream.Dictionary.Set("Filter", generic.NameObject("FlateDecode"))
	return stream, nil
}

// AddPage appends a page. resources may be nil.
func (w *PdfFileWriter) AddPage(mediaBox *generic.Rectangle, contents []byte, resources *generic.DictionaryObject) (generic.Reference, error) {
	page := generic.NewDictionary()
	page.Set("Type", generic.NameObject("Page"))
	page.Set("Parent", w.pagesRef)
	page.Set("MediaBox", mediaBox.ToArray())
	if resources == nil {
		resources = generic.NewDictionary()
	}
	page.Set("Resources", resources)

	if contents != nil {
		stream, err := w.NewContentStream(nil, contents)
		if err != nil {
			return generic.Reference{}, err
		}
		page.Set("Contents", w.AddObject(stream))
	}

	ref := w.AddObject(page)
	w.pageRefs = append(w.pageRefs, ref)
	return ref, nil
}

// Write serializes the document. The /ID is a BLAKE2b digest of the body,
// so identical documents get identical identifiers.
func (w *PdfFileWriter) Write(out io.Writer) error {
	w.pages.Set("Kids", w.pageRefs)
	w.pages.Set("Count", generic.IntegerObject(len(w.pageRefs)))
	if !w.CreationDate.IsZero() {
		w.Info.Set("CreationDate", generic.NewLiteralString(formatPdfDate(w.CreationDate)))
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%s\n", w.Version)
	// Binary comment marks the file as binary.
	buf.Write([]byte{0x25, 0xE2, 0xE3, 0xCF, 0xD3, 0x0A})

	rootRef := w.AddObject(w.Root)
	infoRef := w.AddObject(w.Info)
	defer func() {
		// Root and Info are re-added on every Write.
		w.objects = w.objects[:len(w.objects)-2]
	}()

	offsets := make([]int, len(w.objects))
	for i, obj := range w.objects {
		offsets[i] = buf.Len()
		if err := obj.Write(&buf); err != nil {
			return generic.NewPdfWriteError(fmt.Sprintf("failed to write object %d", i+1), err)
		}
	}

	sum := blake2b.Sum256(buf.Bytes())
	fileID := sum[:16]

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(w.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	trailer := generic.NewDictionary()
	trailer.Set("Size", generic.IntegerObject(len(w.objects)+1))
	trailer.Set("Root", rootRef)
	trailer.Set("Info", infoRef)
	trailer.Set("ID", generic.ArrayObject{
		generic.NewHexString(fileID),
		generic.NewHexString(fileID),
	})
	buf.WriteString("trailer\n")
	if err := trailer.Write(&buf); err != nil {
		return generic.NewPdfWriteError("failed to write trailer", err)
	}
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	if _, err := out.Write(buf.Bytes()); err != nil {
		return generic.NewPdfWriteError("failed to write output", err)
	}
	return nil
}

// formatPdfDate formats a time as a PDF date string.
func formatPdfDate(t time.Time) string {
	_, offset := t.Zone()
	offsetHours := offset / 3600
	offsetMinutes := (offset % 3600) / 60

	sign := "+"
	if offset < 0 {
		sign = "-"
		offsetHours = -offsetHours
		offsetMinutes = -offsetMinutes
	}

	return fmt.Sprintf("D:%04d%02d%02d%02d%02d%02d%s%02d'%02d'",
		t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(),
		sign, offsetHours, offsetMinutes)
}
