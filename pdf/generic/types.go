// Package generic provides the PDF object model used by the reader and writer.
package generic

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// PdfObject is the base interface for all PDF objects.
type PdfObject interface {
	// Write serializes the object in PDF syntax.
	Write(w io.Writer) error
	// Clone returns a deep copy. References are copied, not followed.
	Clone() PdfObject
}

// Reference is an indirect reference ("12 0 R").
type Reference struct {
	ObjectNumber     int
	GenerationNumber int
}

// NewReference creates a new reference.
func NewReference(objNum, genNum int) Reference {
	return Reference{ObjectNumber: objNum, GenerationNumber: genNum}
}

// Write implements PdfObject.
func (r Reference) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d %d R", r.ObjectNumber, r.GenerationNumber)
	return err
}

// Clone implements PdfObject.
func (r Reference) Clone() PdfObject { return r }

func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.ObjectNumber, r.GenerationNumber)
}

// IndirectObject is a numbered object definition ("12 0 obj ... endobj").
type IndirectObject struct {
	ObjectNumber     int
	GenerationNumber int
	Object           PdfObject
}

// NewIndirectObject creates a new indirect object.
func NewIndirectObject(objNum, genNum int, obj PdfObject) *IndirectObject {
	return &IndirectObject{ObjectNumber: objNum, GenerationNumber: genNum, Object: obj}
}

// Write implements PdfObject.
func (i *IndirectObject) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%d %d obj\n", i.ObjectNumber, i.GenerationNumber); err != nil {
		return err
	}
	obj := i.Object
	if obj == nil {
		obj = NullObject{}
	}
	if err := obj.Write(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\nendobj\n")
	return err
}

// Clone implements PdfObject.
func (i *IndirectObject) Clone() PdfObject {
	c := *i
	if i.Object != nil {
		c.Object = i.Object.Clone()
	}
	return &c
}

// Reference returns a reference to this object.
func (i *IndirectObject) Reference() Reference {
	return Reference{ObjectNumber: i.ObjectNumber, GenerationNumber: i.GenerationNumber}
}

// NullObject is the PDF null value.
type NullObject struct{}

// Write implements PdfObject.
func (NullObject) Write(w io.Writer) error {
	_, err := io.WriteString(w, "null")
	return err
}

// Clone implements PdfObject.
func (NullObject) Clone() PdfObject { return NullObject{} }

// BooleanObject is a PDF boolean.
type BooleanObject bool

// Write implements PdfObject.
func (b BooleanObject) Write(w io.Writer) error {
	_, err := io.WriteString(w, strconv.FormatBool(bool(b)))
	return err
}

// Clone implements PdfObject.
func (b BooleanObject) Clone() PdfObject { return b }

// IntegerObject is a PDF integer.
type IntegerObject int64

// Write implements PdfObject.
func (i IntegerObject) Write(w io.Writer) error {
	_, err := io.WriteString(w, strconv.FormatInt(int64(i), 10))
	return err
}

// Clone implements PdfObject.
func (i IntegerObject) Clone() PdfObject { return i }

// RealObject is a PDF real number.
type RealObject float64

// Write implements PdfObject.
func (r RealObject) Write(w io.Writer) error {
	_, err := io.WriteString(w, FormatNumber(float64(r)))
	return err
}

// Clone implements PdfObject.
func (r RealObject) Clone() PdfObject { return r }

// FormatNumber renders a number the way PDF content expects: no exponent,
// at most five decimals, no trailing zeros.
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 5, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// NameObject is a PDF name, stored without the leading slash.
type NameObject string

var nameEscapeRegex = regexp.MustCompile(`[^!-~]|[#%/\[\]()<>{}]`)

// Write implements PdfObject.
func (n NameObject) Write(w io.Writer) error {
	escaped := nameEscapeRegex.ReplaceAllStringFunc(string(n), func(s string) string {
		return fmt.Sprintf("#%02X", s[0])
	})
	_, err := io.WriteString(w, "/"+escaped)
	return err
}

// Clone implements PdfObject.
func (n NameObject) Clone() PdfObject { return n }

func (n NameObject) String() string { return string(n) }

// StringObject is a PDF string. Value holds the raw bytes; IsHex only
// affects serialization.
type StringObject struct {
	Value []byte
	IsHex bool
}

// NewLiteralString creates a literal string from raw bytes.
func NewLiteralString(s string) *StringObject {
	return &StringObject{Value: []byte(s)}
}

// NewHexString creates a hex string.
func NewHexString(data []byte) *StringObject {
	return &StringObject{Value: data, IsHex: true}
}

var utf16BOM = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)

// NewTextString creates a text string. ASCII text is stored as is; anything
// else is encoded as UTF-16BE with a byte order mark.
func NewTextString(s string) *StringObject {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return &StringObject{Value: []byte(s)}
	}
	enc, err := utf16BOM.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return &StringObject{Value: []byte(s)}
	}
	return &StringObject{Value: enc}
}

// Text decodes the string as a PDF text string.
func (s *StringObject) Text() string {
	if len(s.Value) >= 2 && s.Value[0] == 0xFE && s.Value[1] == 0xFF {
		dec, err := utf16BOM.NewDecoder().Bytes(s.Value)
		if err == nil {
			return string(dec)
		}
	}
	return string(s.Value)
}

// Write implements PdfObject.
func (s *StringObject) Write(w io.Writer) error {
	if s.IsHex {
		_, err := fmt.Fprintf(w, "<%s>", hex.EncodeToString(s.Value))
		return err
	}
	var buf bytes.Buffer
	buf.WriteByte('(')
	for _, b := range s.Value {
		switch b {
		case '\\', '(', ')':
			buf.WriteByte('\\')
			buf.WriteByte(b)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if b < 32 || b > 126 {
				fmt.Fprintf(&buf, "\\%03o", b)
			} else {
				buf.WriteByte(b)
			}
		}
	}
	buf.WriteByte(')')
	_, err := w.Write(buf.Bytes())
	return err
}

// Clone implements PdfObject.
func (s *StringObject) Clone() PdfObject {
	return &StringObject{Value: bytes.Clone(s.Value), IsHex: s.IsHex}
}

// ArrayObject is a PDF array.
type ArrayObject []PdfObject

// NewArray creates a new array.
func NewArray(items ...PdfObject) ArrayObject {
	return ArrayObject(items)
}

// NumberArray builds an array of reals.
func NumberArray(values ...float64) ArrayObject {
	arr := make(ArrayObject, len(values))
	for i, v := range values {
		arr[i] = RealObject(v)
	}
	return arr
}

// Write implements PdfObject.
func (a ArrayObject) Write(w io.Writer) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	for i, item := range a {
		if i > 0 {
			if _, err := io.WriteString(w, " "); err != nil {
				return err
			}
		}
		if err := item.Write(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "]")
	return err
}

// Clone implements PdfObject.
func (a ArrayObject) Clone() PdfObject {
	result := make(ArrayObject, len(a))
	for i, item := range a {
		result[i] = item.Clone()
	}
	return result
}

// DictionaryObject is a PDF dictionary. Keys keep insertion order so output
// is stable.
type DictionaryObject struct {
	entries map[string]PdfObject
	order   []string
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *DictionaryObject {
	return &DictionaryObject{entries: make(map[string]PdfObject)}
}

// Write implements PdfObject.
func (d *DictionaryObject) Write(w io.Writer) error {
	if _, err := io.WriteString(w, "<<"); err != nil {
		return err
	}
	for _, key := range d.order {
		if _, err := io.WriteString(w, " "); err != nil {
			return err
		}
		if err := NameObject(key).Write(w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, " "); err != nil {
			return err
		}
		if err := d.entries[key].Write(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, " >>")
	return err
}

// Clone implements PdfObject.
func (d *DictionaryObject) Clone() PdfObject {
	result := NewDictionary()
	for _, key := range d.order {
		result.Set(key, d.entries[key].Clone())
	}
	return result
}

// Set sets a key. A nil value deletes it.
func (d *DictionaryObject) Set(key string, value PdfObject) {
	if value == nil {
		d.Delete(key)
		return
	}
	if _, exists := d.entries[key]; !exists {
		d.order = append(d.order, key)
	}
	d.entries[key] = value
}

// Get returns the value for a key, or nil.
func (d *DictionaryObject) Get(key string) PdfObject {
	return d.entries[key]
}

// GetName returns a name value, or "".
func (d *DictionaryObject) GetName(key string) string {
	if name, ok := d.Get(key).(NameObject); ok {
		return string(name)
	}
	return ""
}

// GetInt returns an integer value.
func (d *DictionaryObject) GetInt(key string) (int64, bool) {
	if i, ok := d.Get(key).(IntegerObject); ok {
		return int64(i), true
	}
	return 0, false
}

// GetArray returns an array value, or nil.
func (d *DictionaryObject) GetArray(key string) ArrayObject {
	if arr, ok := d.Get(key).(ArrayObject); ok {
		return arr
	}
	return nil
}

// GetDict returns a direct dictionary value, or nil.
func (d *DictionaryObject) GetDict(key string) *DictionaryObject {
	if dict, ok := d.Get(key).(*DictionaryObject); ok {
		return dict
	}
	return nil
}

// Delete removes a key.
func (d *DictionaryObject) Delete(key string) {
	if _, exists := d.entries[key]; !exists {
		return
	}
	delete(d.entries, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Has reports whether the key exists.
func (d *DictionaryObject) Has(key string) bool {
	_, exists := d.entries[key]
	return exists
}

// Keys returns the keys in insertion order.
func (d *DictionaryObject) Keys() []string {
	return append([]string(nil), d.order...)
}

// Len returns the number of entries.
func (d *DictionaryObject) Len() int {
	return len(d.entries)
}

// StreamObject is a PDF stream. Data holds the bytes as stored in the file
// (still filtered); Decoded holds the unfiltered content once known.
type StreamObject struct {
	Dictionary *DictionaryObject
	Data       []byte
	Decoded    []byte
}

// NewStream creates a stream whose stored and decoded bytes are the same.
func NewStream(dict *DictionaryObject, data []byte) *StreamObject {
	if dict == nil {
		dict = NewDictionary()
	}
	return &StreamObject{Dictionary: dict, Data: data, Decoded: data}
}

// Write implements PdfObject. Length is always rewritten to match Data.
func (s *StreamObject) Write(w io.Writer) error {
	s.Dictionary.Set("Length", IntegerObject(len(s.Data)))
	if err := s.Dictionary.Write(w); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\nstream\n"); err != nil {
		return err
	}
	if _, err := w.Write(s.Data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\nendstream")
	return err
}

// Clone implements PdfObject.
func (s *StreamObject) Clone() PdfObject {
	return &StreamObject{
		Dictionary: s.Dictionary.Clone().(*DictionaryObject),
		Data:       bytes.Clone(s.Data),
		Decoded:    bytes.Clone(s.Decoded),
	}
}

// Number extracts a numeric value from an integer or real object.
func Number(obj PdfObject) (float64, bool) {
	switch v := obj.(type) {
	case IntegerObject:
		return float64(v), true
	case RealObject:
		return float64(v), true
	}
	return 0, false
}

// Rectangle is a PDF rectangle given by two corners.
type Rectangle struct {
	LLX, LLY float64
	URX, URY float64
}

// NewRectangle creates a rectangle from a four-number array. Corners are
// normalized so that LL is the lower-left.
func NewRectangle(arr ArrayObject) (*Rectangle, error) {
	if len(arr) != 4 {
		return nil, fmt.Errorf("rectangle must have 4 elements, got %d", len(arr))
	}
	var v [4]float64
	for i, obj := range arr {
		n, ok := Number(obj)
		if !ok {
			return nil, fmt.Errorf("rectangle element %d must be numeric", i)
		}
		v[i] = n
	}
	return &Rectangle{
		LLX: min(v[0], v[2]),
		LLY: min(v[1], v[3]),
		URX: max(v[0], v[2]),
		URY: max(v[1], v[3]),
	}, nil
}

// ToArray converts the rectangle to a PDF array.
func (r *Rectangle) ToArray() ArrayObject {
	return NumberArray(r.LLX, r.LLY, r.URX, r.URY)
}

// Width returns the rectangle width.
func (r *Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the rectangle height.
func (r *Rectangle) Height() float64 { return r.URY - r.LLY }

// TrailerDictionary is the file trailer.
type TrailerDictionary struct {
	*DictionaryObject
}

// NewTrailer creates an empty trailer.
func NewTrailer() *TrailerDictionary {
	return &TrailerDictionary{DictionaryObject: NewDictionary()}
}

// Root returns the catalog reference.
func (t *TrailerDictionary) Root() (Reference, bool) {
	ref, ok := t.Get("Root").(Reference)
	return ref, ok
}

// Info returns the document information reference.
func (t *TrailerDictionary) Info() (Reference, bool) {
	ref, ok := t.Get("Info").(Reference)
	return ref, ok
}

// Prev returns the offset of the previous cross-reference section.
func (t *TrailerDictionary) Prev() (int64, bool) {
	return t.GetInt("Prev")
}
