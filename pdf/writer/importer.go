package writer

import (
	"errors"
	"fmt"

	"github.com/georgepadayatti/littlebook/pdf/generic"
	"github.com/georgepadayatti/littlebook/pdf/reader"
)

// Importer copies objects from a source document into a writer. Each
// source object is copied at most once; shared resources such as fonts
// stay shared in the output.
type Importer struct {
	src    *reader.PdfFileReader
	dst    *PdfFileWriter
	mapped map[int]generic.Reference
	forms  map[int]generic.Reference
}

// NewImporter creates an importer from src into dst.
func NewImporter(src *reader.PdfFileReader, dst *PdfFileWriter) *Importer {
	return &Importer{
		src:    src,
		dst:    dst,
		mapped: make(map[int]generic.Reference),
		forms:  make(map[int]generic.Reference),
	}
}

// Copy deep-copies obj, allocating output objects for every reference it
// reaches. Stream data is copied as stored. Dangling references become null.
func (im *Importer) Copy(obj generic.PdfObject) (generic.PdfObject, error) {
	switch v := obj.(type) {
	case generic.Reference:
		return im.copyReference(v)
	case generic.ArrayObject:
		out := make(generic.ArrayObject, len(v))
		for i, item := range v {
			c, err := im.Copy(item)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case *generic.DictionaryObject:
		return im.copyDict(v)
	case *generic.StreamObject:
		dict, err := im.copyDict(v.Dictionary)
		if err != nil {
			return nil, err
		}
		return &generic.StreamObject{Dictionary: dict, Data: v.Data}, nil
	case nil:
		return generic.NullObject{}, nil
	default:
		return v.Clone(), nil
	}
}

func (im *Importer) copyDict(d *generic.DictionaryObject) (*generic.DictionaryObject, error) {
	out := generic.NewDictionary()
	// Following /Parent from a page would drag in the whole source tree.
	skipParent := d.GetName("Type") == "Page" || d.GetName("Type") == "Pages"
	for _, key := range d.Keys() {
		if skipParent && key == "Parent" {
			continue
		}
		c, err := im.Copy(d.Get(key))
		if err != nil {
			return nil, err
		}
		out.Set(key, c)
	}
	return out, nil
}

func (im *Importer) copyReference(ref generic.Reference) (generic.PdfObject, error) {
	if out, ok := im.mapped[ref.ObjectNumber]; ok {
		return out, nil
	}
	obj, err := im.src.GetObject(ref)
	if errors.Is(err, reader.ErrObjectNotFound) {
		return generic.NullObject{}, nil
	}
	if err != nil {
		return nil, err
	}

	// Register before recursing so cycles terminate.
	out := im.dst.Reserve()
	im.mapped[ref.ObjectNumber] = out
	c, err := im.Copy(obj)
	if err != nil {
		return nil, err
	}
	if err := im.dst.SetObject(out, c); err != nil {
		return nil, err
	}
	return out, nil
}

// ImportPageAsForm turns a source page into a Form XObject whose BBox is
// the page MediaBox, in the page's own coordinates. Repeated calls for the
// same page return the same reference.
func (im *Importer) ImportPageAsForm(page *reader.Page) (generic.Reference, error) {
	if ref, ok := im.forms[page.Ref.ObjectNumber]; ok {
		return ref, nil
	}

	content, err := im.src.PageContent(page)
	if err != nil {
		return generic.Reference{}, fmt.Errorf("page %s content: %w", page.Ref, err)
	}
	resources, err := im.Copy(page.Resources)
	if err != nil {
		return generic.Reference{}, fmt.Errorf("page %s resources: %w", page.Ref, err)
	}

	dict := generic.NewDictionary()
	dict.Set("Type", generic.NameObject("XObject"))
	dict.Set("Subtype", generic.NameObject("Form"))
	dict.Set("FormType", generic.IntegerObject(1))
	dict.Set("BBox", page.MediaBox.ToArray())
	dict.Set("Resources", resources)
	if group := page.Dict.Get("Group"); group != nil {
		g, err := im.Copy(group)
		if err != nil {
			return generic.Reference{}, err
		}
		dict.Set("Group", g)
	}

	stream, err := im.dst.NewContentStream(dict, content)
	if err != nil {
		return generic.Reference{}, err
	}
	ref := im.dst.AddObject(stream)
	im.forms[page.Ref.ObjectNumber] = ref
	return ref, nil
}
