package generic

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

// Common errors
var (
	ErrUnexpectedEOF     = errors.New("unexpected end of data")
	ErrInvalidObject     = errors.New("invalid PDF object")
	ErrInvalidStream     = errors.New("invalid PDF stream")
	ErrInvalidDictionary = errors.New("invalid PDF dictionary")
	ErrInvalidArray      = errors.New("invalid PDF array")
	ErrInvalidString     = errors.New("invalid PDF string")
	ErrInvalidName       = errors.New("invalid PDF name")
	ErrInvalidNumber     = errors.New("invalid PDF number")
)

// LengthResolver resolves an indirect stream /Length.
type LengthResolver func(ref Reference) (int64, bool)

// Parser reads PDF objects from an in-memory buffer.
type Parser struct {
	data []byte
	pos  int

	// ResolveLength, when set, is used for streams whose /Length is an
	// indirect reference. Without it the parser scans for "endstream".
	ResolveLength LengthResolver
}

// NewParser creates a parser positioned at the start of data.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// NewParserAt creates a parser positioned at offset.
func NewParserAt(data []byte, offset int) *Parser {
	return &Parser{data: data, pos: offset}
}

// Pos returns the current offset.
func (p *Parser) Pos() int { return p.pos }

// Seek moves to an absolute offset.
func (p *Parser) Seek(pos int) { p.pos = pos }

// AtEOF reports whether only whitespace and comments remain.
func (p *Parser) AtEOF() bool {
	p.SkipWhitespace()
	return p.pos >= len(p.data)
}

func (p *Parser) peek() (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	return p.data[p.pos], true
}

func (p *Parser) next() (byte, bool) {
	b, ok := p.peek()
	if ok {
		p.pos++
	}
	return b, ok
}

// IsWhitespace reports whether b is PDF whitespace.
func IsWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\x00', '\x0c':
		return true
	}
	return false
}

// IsDelimiter reports whether b is a PDF delimiter.
func IsDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// SkipWhitespace skips whitespace and comments.
func (p *Parser) SkipWhitespace() {
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		switch {
		case IsWhitespace(b):
			p.pos++
		case b == '%':
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
		default:
			return
		}
	}
}

// ReadKeyword reads a bare token such as "obj", "xref" or "trailer".
func (p *Parser) ReadKeyword() string {
	p.SkipWhitespace()
	start := p.pos
	for p.pos < len(p.data) && !IsWhitespace(p.data[p.pos]) && !IsDelimiter(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// ReadInt reads an unsigned or signed integer token.
func (p *Parser) ReadInt() (int64, error) {
	start := p.pos
	tok := p.ReadKeyword()
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		p.pos = start
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, tok)
	}
	return v, nil
}

// ParseObject parses the next object. "n g R" sequences become References.
func (p *Parser) ParseObject() (PdfObject, error) {
	p.SkipWhitespace()
	b, ok := p.peek()
	if !ok {
		return nil, ErrUnexpectedEOF
	}

	switch {
	case b == '(':
		return p.parseLiteralString()
	case b == '<':
		if p.pos+1 < len(p.data) && p.data[p.pos+1] == '<' {
			p.pos += 2
			return p.parseDictionary()
		}
		p.pos++
		return p.parseHexString()
	case b == '[':
		p.pos++
		return p.parseArray()
	case b == '/':
		p.pos++
		return p.parseName()
	case b >= '0' && b <= '9':
		return p.parseNumberOrReference()
	case b == '-' || b == '+' || b == '.':
		return p.parseNumber()
	}

	start := p.pos
	switch tok := p.ReadKeyword(); tok {
	case "true":
		return BooleanObject(true), nil
	case "false":
		return BooleanObject(false), nil
	case "null":
		return NullObject{}, nil
	default:
		p.pos = start
		return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrInvalidObject, tok, start)
	}
}

func (p *Parser) parseLiteralString() (*StringObject, error) {
	p.pos++ // (
	var buf bytes.Buffer
	depth := 1
	for {
		b, ok := p.next()
		if !ok {
			return nil, fmt.Errorf("%w: unterminated string", ErrInvalidString)
		}
		switch b {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return &StringObject{Value: buf.Bytes()}, nil
			}
		case '\\':
			p.parseEscape(&buf)
			continue
		}
		buf.WriteByte(b)
	}
}

func (p *Parser) parseEscape(buf *bytes.Buffer) {
	e, ok := p.next()
	if !ok {
		return
	}
	switch e {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '\r':
		if c, ok := p.peek(); ok && c == '\n' {
			p.pos++
		}
	case '\n':
	default:
		if e < '0' || e > '7' {
			buf.WriteByte(e)
			return
		}
		v := int(e - '0')
		for i := 0; i < 2; i++ {
			c, ok := p.peek()
			if !ok || c < '0' || c > '7' {
				break
			}
			p.pos++
			v = v*8 + int(c-'0')
		}
		buf.WriteByte(byte(v))
	}
}

func (p *Parser) parseHexString() (*StringObject, error) {
	end := bytes.IndexByte(p.data[p.pos:], '>')
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated hex string", ErrInvalidString)
	}
	digits := make([]byte, 0, end)
	for _, b := range p.data[p.pos : p.pos+end] {
		if !IsWhitespace(b) {
			digits = append(digits, b)
		}
	}
	p.pos += end + 1
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	data := make([]byte, len(digits)/2)
	if _, err := hex.Decode(data, digits); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidString, err)
	}
	return &StringObject{Value: data, IsHex: true}, nil
}

func (p *Parser) parseDictionary() (*DictionaryObject, error) {
	dict := NewDictionary()
	for {
		p.SkipWhitespace()
		b, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("%w: unterminated dictionary", ErrInvalidDictionary)
		}
		if b == '>' {
			if p.pos+1 >= len(p.data) || p.data[p.pos+1] != '>' {
				return nil, fmt.Errorf("%w: expected '>>'", ErrInvalidDictionary)
			}
			p.pos += 2
			return dict, nil
		}
		if b != '/' {
			return nil, fmt.Errorf("%w: key must be a name at offset %d", ErrInvalidDictionary, p.pos)
		}
		p.pos++
		key, err := p.parseName()
		if err != nil {
			return nil, err
		}
		value, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("%w: value for /%s: %v", ErrInvalidDictionary, key, err)
		}
		// A null value is equivalent to an absent key.
		if _, isNull := value.(NullObject); !isNull {
			dict.Set(string(key), value)
		}
	}
}

func (p *Parser) parseArray() (ArrayObject, error) {
	arr := ArrayObject{}
	for {
		p.SkipWhitespace()
		b, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("%w: unterminated array", ErrInvalidArray)
		}
		if b == ']' {
			p.pos++
			return arr, nil
		}
		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArray, err)
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseName() (NameObject, error) {
	var buf bytes.Buffer
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		if IsWhitespace(b) || IsDelimiter(b) {
			break
		}
		p.pos++
		if b == '#' && p.pos+1 < len(p.data) {
			v, err := strconv.ParseUint(string(p.data[p.pos:p.pos+2]), 16, 8)
			if err != nil {
				return "", fmt.Errorf("%w: bad escape", ErrInvalidName)
			}
			p.pos += 2
			b = byte(v)
		}
		buf.WriteByte(b)
	}
	return NameObject(buf.String()), nil
}

func (p *Parser) parseNumber() (PdfObject, error) {
	start := p.pos
	if b, _ := p.peek(); b == '-' || b == '+' {
		p.pos++
	}
	isReal := false
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		if b == '.' && !isReal {
			isReal = true
		} else if b < '0' || b > '9' {
			break
		}
		p.pos++
	}
	tok := string(p.data[start:p.pos])
	if isReal {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, tok)
		}
		return RealObject(v), nil
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, tok)
	}
	return IntegerObject(v), nil
}

// parseNumberOrReference looks ahead for the "n g R" pattern and otherwise
// returns the first number alone.
func (p *Parser) parseNumberOrReference() (PdfObject, error) {
	first, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	objNum, ok := first.(IntegerObject)
	if !ok {
		return first, nil
	}

	mark := p.pos
	p.SkipWhitespace()
	if b, ok := p.peek(); ok && b >= '0' && b <= '9' {
		if gen, err := p.parseNumber(); err == nil {
			if genNum, ok := gen.(IntegerObject); ok {
				p.SkipWhitespace()
				if b, ok := p.peek(); ok && b == 'R' {
					after := p.pos + 1
					if after >= len(p.data) || IsWhitespace(p.data[after]) || IsDelimiter(p.data[after]) {
						p.pos = after
						return Reference{ObjectNumber: int(objNum), GenerationNumber: int(genNum)}, nil
					}
				}
			}
		}
	}
	p.pos = mark
	return objNum, nil
}

// ParseIndirectObject parses "n g obj ... endobj", including stream bodies.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	p.SkipWhitespace()
	objNum, err := p.ReadInt()
	if err != nil {
		return nil, fmt.Errorf("%w: object number: %v", ErrInvalidObject, err)
	}
	genNum, err := p.ReadInt()
	if err != nil {
		return nil, fmt.Errorf("%w: generation number: %v", ErrInvalidObject, err)
	}
	if kw := p.ReadKeyword(); kw != "obj" {
		return nil, fmt.Errorf("%w: expected 'obj', got %q", ErrInvalidObject, kw)
	}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, err
	}

	if dict, ok := obj.(*DictionaryObject); ok {
		mark := p.pos
		if p.ReadKeyword() == "stream" {
			data, err := p.readStreamData(dict)
			if err != nil {
				return nil, fmt.Errorf("object %d: %w", objNum, err)
			}
			obj = &StreamObject{Dictionary: dict, Data: data}
		} else {
			p.pos = mark
		}
	}

	// Some writers omit endobj; tolerate it.
	mark := p.pos
	if p.ReadKeyword() != "endobj" {
		p.pos = mark
	}

	return NewIndirectObject(int(objNum), int(genNum), obj), nil
}

func (p *Parser) readStreamData(dict *DictionaryObject) ([]byte, error) {
	// The keyword is followed by CRLF or LF; a lone CR is tolerated.
	if b, ok := p.peek(); ok && b == '\r' {
		p.pos++
	}
	if b, ok := p.peek(); ok && b == '\n' {
		p.pos++
	}
	start := p.pos

	length := int64(-1)
	switch v := dict.Get("Length").(type) {
	case IntegerObject:
		length = int64(v)
	case Reference:
		if p.ResolveLength != nil {
			if n, ok := p.ResolveLength(v); ok {
				length = n
			}
		}
	}

	if length >= 0 && start+int(length) <= len(p.data) {
		end := start + int(length)
		probe := NewParserAt(p.data, end)
		if probe.ReadKeyword() == "endstream" {
			p.pos = probe.pos
			return p.data[start:end], nil
		}
	}

	// Length missing or wrong: fall back to the endstream keyword.
	idx := bytes.Index(p.data[start:], []byte("endstream"))
	if idx < 0 {
		return nil, fmt.Errorf("%w: missing endstream", ErrInvalidStream)
	}
	end := start + idx
	p.pos = end + len("endstream")
	if end > start && p.data[end-1] == '\n' {
		end--
	}
	if end > start && p.data[end-1] == '\r' {
		end--
	}
	return p.data[start:end], nil
}

// ParseRectangle parses a rectangle from an array object.
func ParseRectangle(obj PdfObject) (*Rectangle, error) {
	arr, ok := obj.(ArrayObject)
	if !ok {
		return nil, fmt.Errorf("expected array for rectangle, got %T", obj)
	}
	return NewRectangle(arr)
}
