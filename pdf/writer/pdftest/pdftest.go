// Package pdftest generates small PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/georgepadayatti/littlebook/pdf/generic"
	"github.com/georgepadayatti/littlebook/pdf/layout"
	"github.com/georgepadayatti/littlebook/pdf/writer"
)

// Document returns a PDF with one page per size. Page n (1-based) shows
// the text "Page n" in a Helvetica font shared by all pages, and carries
// the title "Fixture".
func Document(tb testing.TB, sizes ...layout.PageSize) []byte {
	tb.Helper()
	w := writer.NewPdfFileWriter(writer.PDFVersion{Major: 1, Minor: 7})
	w.Compress = true
	w.Info.Set("Title", generic.NewTextString("Fixture"))

	font := generic.NewDictionary()
	font.Set("Type", generic.NameObject("Font"))
	font.Set("Subtype", generic.NameObject("Type1"))
	font.Set("BaseFont", generic.NameObject("Helvetica"))
	fontRef := w.AddObject(font)

	for i, size := range sizes {
		fonts := generic.NewDictionary()
		fonts.Set("F1", fontRef)
		res := generic.NewDictionary()
		res.Set("Font", fonts)

		box := &generic.Rectangle{URX: size.Width, URY: size.Height}
		content := fmt.Sprintf("BT /F1 12 Tf 36 36 Td (Page %d) Tj ET", i+1)
		if _, err := w.AddPage(box, []byte(content), res); err != nil {
			tb.Fatalf("AddPage failed: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := w.Write(&buf); err != nil {
		tb.Fatalf("Write failed: %v", err)
	}
	return buf.Bytes()
}

// Uniform returns a PDF with n pages of the same size.
func Uniform(tb testing.TB, n int, size layout.PageSize) []byte {
	tb.Helper()
	sizes := make([]layout.PageSize, n)
	for i := range sizes {
		sizes[i] = size
	}
	return Document(tb, sizes...)
}

// WriteFile writes data to name inside dir and returns the path.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("failed to write fixture: %v", err)
	}
	return path
}
