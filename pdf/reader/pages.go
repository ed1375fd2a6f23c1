package reader

import (
	"bytes"
	"fmt"

	"github.com/georgepadayatti/littlebook/pdf/generic"
)

// Page is a leaf of the page tree with its inheritable attributes resolved.
type Page struct {
	Ref       generic.Reference
	Dict      *generic.DictionaryObject
	MediaBox  *generic.Rectangle
	CropBox   *generic.Rectangle // nil when absent
	Resources *generic.DictionaryObject
	Rotate    int
}

// Width returns the MediaBox width.
func (p *Page) Width() float64 { return p.MediaBox.Width() }

// Height returns the MediaBox height.
func (p *Page) Height() float64 { return p.MediaBox.Height() }

// inherited carries the attributes a /Pages node passes to its kids.
type inherited struct {
	mediaBox  generic.PdfObject
	cropBox   generic.PdfObject
	resources generic.PdfObject
	rotate    generic.PdfObject
}

func (in inherited) override(node *generic.DictionaryObject) inherited {
	if v := node.Get("MediaBox"); v != nil {
		in.mediaBox = v
	}
	if v := node.Get("CropBox"); v != nil {
		in.cropBox = v
	}
	if v := node.Get("Resources"); v != nil {
		in.resources = v
	}
	if v := node.Get("Rotate"); v != nil {
		in.rotate = v
	}
	return in
}

func (r *PdfFileReader) flattenPageTree() ([]*Page, error) {
	rootRef, ok := r.Root.Get("Pages").(generic.Reference)
	if !ok {
		return nil, fmt.Errorf("%w: catalog has no /Pages reference", ErrInvalidPDF)
	}
	var pages []*Page
	visited := make(map[int]bool)
	if err := r.walkPages(rootRef, inherited{}, visited, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

func (r *PdfFileReader) walkPages(ref generic.Reference, in inherited, visited map[int]bool, out *[]*Page) error {
	if visited[ref.ObjectNumber] {
		return fmt.Errorf("%w: page tree cycle at %s", ErrInvalidPDF, ref)
	}
	visited[ref.ObjectNumber] = true

	obj, err := r.GetObject(ref)
	if err != nil {
		return fmt.Errorf("page tree node %s: %w", ref, err)
	}
	node, ok := obj.(*generic.DictionaryObject)
	if !ok {
		return fmt.Errorf("%w: page tree node %s is not a dictionary", ErrInvalidPDF, ref)
	}
	in = in.override(node)

	if node.GetName("Type") == "Pages" || (node.GetName("Type") == "" && node.Has("Kids")) {
		kids, _ := r.Resolve(node.Get("Kids")).(generic.ArrayObject)
		for _, kid := range kids {
			kidRef, ok := kid.(generic.Reference)
			if !ok {
				return fmt.Errorf("%w: page tree kid is not a reference", ErrInvalidPDF)
			}
			if err := r.walkPages(kidRef, in, visited, out); err != nil {
				return err
			}
		}
		return nil
	}

	page, err := r.newPage(ref, node, in)
	if err != nil {
		return fmt.Errorf("page %d: %w", len(*out)+1, err)
	}
	*out = append(*out, page)
	return nil
}

func (r *PdfFileReader) newPage(ref generic.Reference, node *generic.DictionaryObject, in inherited) (*Page, error) {
	if in.mediaBox == nil {
		return nil, fmt.Errorf("%w: missing /MediaBox", ErrInvalidPDF)
	}
	mediaBox, err := r.rectangle(in.mediaBox)
	if err != nil {
		return nil, fmt.Errorf("%w: /MediaBox: %v", ErrInvalidPDF, err)
	}
	page := &Page{Ref: ref, Dict: node, MediaBox: mediaBox}

	if in.cropBox != nil {
		if box, err := r.rectangle(in.cropBox); err == nil {
			page.CropBox = box
		}
	}
	if res, ok := r.Resolve(in.resources).(*generic.DictionaryObject); ok {
		page.Resources = res
	} else {
		page.Resources = generic.NewDictionary()
	}
	if rot, ok := r.Resolve(in.rotate).(generic.IntegerObject); ok {
		page.Rotate = ((int(rot) % 360) + 360) % 360
	}
	return page, nil
}

func (r *PdfFileReader) rectangle(obj generic.PdfObject) (*generic.Rectangle, error) {
	arr, ok := r.Resolve(obj).(generic.ArrayObject)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", obj)
	}
	resolved := make(generic.ArrayObject, len(arr))
	for i, item := range arr {
		resolved[i] = r.Resolve(item)
	}
	return generic.NewRectangle(resolved)
}

// PageContent returns the decoded content of a page. Content arrays are
// joined with a newline so that operators never run together.
func (r *PdfFileReader) PageContent(p *Page) ([]byte, error) {
	var parts []generic.PdfObject
	switch c := p.Dict.Get("Contents").(type) {
	case nil:
		return nil, nil
	case generic.ArrayObject:
		parts = c
	case generic.Reference:
		if arr, ok := r.Resolve(c).(generic.ArrayObject); ok {
			parts = arr
		} else {
			parts = []generic.PdfObject{c}
		}
	default:
		parts = []generic.PdfObject{c}
	}

	var buf bytes.Buffer
	for i, part := range parts {
		stream, ok := r.Resolve(part).(*generic.StreamObject)
		if !ok {
			continue
		}
		data, err := r.StreamData(stream)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}
