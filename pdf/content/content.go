// Package content provides PDF content stream handling.
package content

import (
	"bytes"
	"fmt"

	"github.com/georgepadayatti/littlebook/pdf/generic"
	"github.com/georgepadayatti/littlebook/pdf/layout"
)

// Operator represents a PDF content stream operator.
type Operator string

// Operators emitted when placing pages.
const (
	OpSaveState    Operator = "q"
	OpRestoreState Operator = "Q"
	OpSetCTM       Operator = "cm"
	OpPaintXObject Operator = "Do"
)

// ContentStream represents a parsed PDF content stream.
type ContentStream struct {
	Operations []Operation
}

// Operation represents a single operation in a content stream.
type Operation struct {
	Operator Operator
	Operands []generic.PdfObject
}

// NewContentStream creates a new empty content stream.
func NewContentStream() *ContentStream {
	return &ContentStream{}
}

// AddOperation adds an operation to the content stream.
func (cs *ContentStream) AddOperation(op Operator, operands ...generic.PdfObject) {
	cs.Operations = append(cs.Operations, Operation{
		Operator: op,
		Operands: operands,
	})
}

// Render renders the content stream to bytes, one operation per line.
func (cs *ContentStream) Render() []byte {
	var buf bytes.Buffer
	for _, op := range cs.Operations {
		for _, operand := range op.Operands {
			operand.Write(&buf)
			buf.WriteByte(' ')
		}
		buf.WriteString(string(op.Operator))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Parse splits a content stream into operations. Operands are parsed with
// the object parser; inline image data is skipped.
func Parse(data []byte) (*ContentStream, error) {
	cs := NewContentStream()
	p := generic.NewParser(data)
	var operands []generic.PdfObject

	for !p.AtEOF() {
		start := p.Pos()
		if obj, err := p.ParseObject(); err == nil {
			operands = append(operands, obj)
			continue
		}
		p.Seek(start)

		kw := p.ReadKeyword()
		if kw == "" {
			return nil, fmt.Errorf("unexpected byte %q at offset %d", data[start], start)
		}
		cs.AddOperation(Operator(kw), operands...)
		operands = nil

		if kw == "ID" {
			idx := bytes.Index(data[p.Pos():], []byte("EI"))
			if idx < 0 {
				return nil, fmt.Errorf("inline image at offset %d has no EI", start)
			}
			p.Seek(p.Pos() + idx + 2)
			cs.AddOperation("EI")
		}
	}
	if len(operands) > 0 {
		return nil, fmt.Errorf("%d trailing operands without an operator", len(operands))
	}
	return cs, nil
}

// ContentBuilder provides a fluent interface for building content streams.
type ContentBuilder struct {
	stream *ContentStream
}

// NewContentBuilder creates a new content builder.
func NewContentBuilder() *ContentBuilder {
	return &ContentBuilder{
		stream: NewContentStream(),
	}
}

// SaveState saves the graphics state.
func (cb *ContentBuilder) SaveState() *ContentBuilder {
	cb.stream.AddOperation(OpSaveState)
	return cb
}

// RestoreState restores the graphics state.
func (cb *ContentBuilder) RestoreState() *ContentBuilder {
	cb.stream.AddOperation(OpRestoreState)
	return cb
}

// Transform concatenates m to the current transformation matrix.
func (cb *ContentBuilder) Transform(m layout.Transform) *ContentBuilder {
	cb.stream.AddOperation(OpSetCTM,
		generic.RealObject(m.A), generic.RealObject(m.B),
		generic.RealObject(m.C), generic.RealObject(m.D),
		generic.RealObject(m.E), generic.RealObject(m.F))
	return cb
}

// PaintXObject paints an XObject.
func (cb *ContentBuilder) PaintXObject(name string) *ContentBuilder {
	cb.stream.AddOperation(OpPaintXObject, generic.NameObject(name))
	return cb
}

// Build returns the content stream.
func (cb *ContentBuilder) Build() *ContentStream {
	return cb.stream
}

// Render renders the content stream to bytes.
func (cb *ContentBuilder) Render() []byte {
	return cb.stream.Render()
}
