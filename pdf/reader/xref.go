package reader

import (
	"fmt"

	"github.com/georgepadayatti/littlebook/pdf/generic"
)

// XRefType is the kind of a cross-reference entry.
type XRefType int

const (
	XRefTypeFree XRefType = iota
	XRefTypeStandard
	XRefTypeInObjStream
)

func (t XRefType) String() string {
	switch t {
	case XRefTypeFree:
		return "free"
	case XRefTypeStandard:
		return "standard"
	case XRefTypeInObjStream:
		return "in_obj_stream"
	default:
		return "unknown"
	}
}

// XRefEntry locates one object. Standard entries carry a byte offset;
// compressed entries carry the object stream number and the index inside it.
type XRefEntry struct {
	Type          XRefType
	Offset        int64
	Generation    int
	StreamObjNum  int
	IndexInStream int
}

// XRefTable maps object numbers to their entries. Sections are read newest
// first, so the first entry recorded for an object wins.
type XRefTable map[int]XRefEntry

func (x XRefTable) add(objNum int, entry XRefEntry) {
	if _, exists := x[objNum]; !exists {
		x[objNum] = entry
	}
}

// parseXRefTable reads a classic table. The parser must be positioned just
// after the "xref" keyword; the trailer dictionary is returned.
func parseXRefTable(p *generic.Parser, table XRefTable) (*generic.TrailerDictionary, error) {
	for {
		mark := p.Pos()
		if p.ReadKeyword() == "trailer" {
			break
		}
		p.Seek(mark)

		start, err := p.ReadInt()
		if err != nil {
			return nil, fmt.Errorf("%w: subsection start: %v", ErrInvalidXRef, err)
		}
		count, err := p.ReadInt()
		if err != nil {
			return nil, fmt.Errorf("%w: subsection count: %v", ErrInvalidXRef, err)
		}

		for i := int64(0); i < count; i++ {
			offset, err := p.ReadInt()
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidXRef, start+i, err)
			}
			gen, err := p.ReadInt()
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidXRef, start+i, err)
			}
			entry := XRefEntry{Offset: offset, Generation: int(gen)}
			switch kw := p.ReadKeyword(); kw {
			case "n":
				entry.Type = XRefTypeStandard
			case "f":
				entry.Type = XRefTypeFree
			default:
				return nil, fmt.Errorf("%w: entry %d has status %q", ErrInvalidXRef, start+i, kw)
			}
			objNum := int(start + i)
			// Object 0 is the head of the free list. A few writers number
			// the first subsection from 1 while still listing it.
			if objNum == 0 && entry.Type == XRefTypeStandard {
				continue
			}
			table.add(objNum, entry)
		}
	}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("%w: trailer: %v", ErrInvalidXRef, err)
	}
	dict, ok := obj.(*generic.DictionaryObject)
	if !ok {
		return nil, fmt.Errorf("%w: trailer must be a dictionary", ErrInvalidXRef)
	}
	return &generic.TrailerDictionary{DictionaryObject: dict}, nil
}

// parseXRefStream reads the entries of a decoded cross-reference stream.
func parseXRefStream(dict *generic.DictionaryObject, data []byte, table XRefTable) error {
	wArray := dict.GetArray("W")
	if len(wArray) != 3 {
		return fmt.Errorf("%w: invalid W array", ErrInvalidXRef)
	}
	var w [3]int
	for i, v := range wArray {
		n, ok := v.(generic.IntegerObject)
		if !ok || n < 0 || n > 8 {
			return fmt.Errorf("%w: invalid W array", ErrInvalidXRef)
		}
		w[i] = int(n)
	}
	entrySize := w[0] + w[1] + w[2]
	if entrySize == 0 {
		return fmt.Errorf("%w: zero entry size", ErrInvalidXRef)
	}

	var index []int
	if arr := dict.GetArray("Index"); arr != nil {
		for _, v := range arr {
			if n, ok := v.(generic.IntegerObject); ok {
				index = append(index, int(n))
			}
		}
	} else if size, ok := dict.GetInt("Size"); ok {
		index = []int{0, int(size)}
	}
	if len(index)%2 != 0 {
		return fmt.Errorf("%w: odd Index array", ErrInvalidXRef)
	}

	pos := 0
	for i := 0; i < len(index); i += 2 {
		for j := 0; j < index[i+1]; j++ {
			if pos+entrySize > len(data) {
				return nil
			}
			row := data[pos : pos+entrySize]
			pos += entrySize

			typ := int64(1)
			if w[0] > 0 {
				typ = readField(row[:w[0]])
			}
			f2 := readField(row[w[0] : w[0]+w[1]])
			f3 := readField(row[w[0]+w[1]:])

			objNum := index[i] + j
			switch typ {
			case 0:
				table.add(objNum, XRefEntry{Type: XRefTypeFree, Generation: int(f3)})
			case 1:
				table.add(objNum, XRefEntry{Type: XRefTypeStandard, Offset: f2, Generation: int(f3)})
			case 2:
				table.add(objNum, XRefEntry{Type: XRefTypeInObjStream, StreamObjNum: int(f2), IndexInStream: int(f3)})
			}
		}
	}
	return nil
}

func readField(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// ObjectStream is a decoded /Type /ObjStm stream.
type ObjectStream struct {
	N       int
	First   int
	objNums []int
	offsets []int
	data    []byte
}

// ParseObjectStream reads the header of a decoded object stream.
func ParseObjectStream(dict *generic.DictionaryObject, data []byte) (*ObjectStream, error) {
	n, ok := dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("%w: object stream missing /N", ErrInvalidPDF)
	}
	first, ok := dict.GetInt("First")
	if !ok || first < 0 || int(first) > len(data) {
		return nil, fmt.Errorf("%w: object stream missing /First", ErrInvalidPDF)
	}

	os := &ObjectStream{N: int(n), First: int(first), data: data}
	p := generic.NewParser(data[:first])
	for i := 0; i < os.N; i++ {
		num, err := p.ReadInt()
		if err != nil {
			return nil, fmt.Errorf("%w: object stream header: %v", ErrInvalidPDF, err)
		}
		off, err := p.ReadInt()
		if err != nil {
			return nil, fmt.Errorf("%w: object stream header: %v", ErrInvalidPDF, err)
		}
		os.objNums = append(os.objNums, int(num))
		os.offsets = append(os.offsets, int(off))
	}
	return os, nil
}

// ObjectNumber returns the number of the object stored at index.
func (os *ObjectStream) ObjectNumber(index int) int {
	return os.objNums[index]
}

// GetObject parses the object stored at index.
func (os *ObjectStream) GetObject(index int) (generic.PdfObject, error) {
	if index < 0 || index >= os.N {
		return nil, fmt.Errorf("object index %d out of range [0, %d)", index, os.N)
	}
	start := os.First + os.offsets[index]
	if start >= len(os.data) {
		return nil, fmt.Errorf("%w: object data out of bounds", ErrInvalidPDF)
	}
	return generic.NewParserAt(os.data, start).ParseObject()
}
