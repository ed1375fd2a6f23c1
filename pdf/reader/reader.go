// Package reader provides PDF file reading and parsing.
package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"

	"github.com/georgepadayatti/littlebook/pdf/crypt"
	"github.com/georgepadayatti/littlebook/pdf/filters"
	"github.com/georgepadayatti/littlebook/pdf/generic"
)

// Common errors
var (
	ErrInvalidPDF     = errors.New("invalid PDF file")
	ErrNoXRef         = errors.New("no xref found")
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidXRef    = errors.New("invalid xref")
	ErrEncrypted      = errors.New("PDF is encrypted")
)

var (
	headerRegex    = regexp.MustCompile(`%PDF-(\d+\.\d+)`)
	objHeaderRegex = regexp.MustCompile(`(?m)^\s*(\d+)\s+(\d+)\s+obj\b`)
)

// PdfFileReader reads a PDF held in memory. Objects are parsed on first
// access and cached. A reader is not safe for concurrent use.
type PdfFileReader struct {
	data    []byte
	Version string
	Trailer *generic.TrailerDictionary
	XRef    XRefTable

	// Root is the document catalog, Info the document information
	// dictionary (nil when absent).
	Root *generic.DictionaryObject
	Info *generic.DictionaryObject

	// Repaired is set when the cross-reference data was unusable and the
	// object table was rebuilt by scanning the file.
	Repaired bool

	objects    map[int]generic.PdfObject
	objStreams map[int]*ObjectStream
	loading    map[int]bool

	security   *crypt.StandardSecurityHandler
	encryptNum int

	pages []*Page
}

// NewPdfFileReader reads all of r and parses it.
func NewPdfFileReader(r io.Reader) (*PdfFileReader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF data: %w", err)
	}
	return NewPdfFileReaderFromBytes(data)
}

// NewPdfFileReaderFromBytes parses a PDF. Encrypted files are opened with
// the empty user password when possible; otherwise NeedsPassword reports
// true and Decrypt must be called before pages can be read.
func NewPdfFileReaderFromBytes(data []byte) (*PdfFileReader, error) {
	r := &PdfFileReader{
		data:       data,
		XRef:       make(XRefTable),
		objects:    make(map[int]generic.PdfObject),
		objStreams: make(map[int]*ObjectStream),
		loading:    make(map[int]bool),
	}

	if err := r.parseHeader(); err != nil {
		return nil, err
	}
	if err := r.readXRef(); err != nil {
		if rerr := r.repair(); rerr != nil {
			return nil, fmt.Errorf("%w (repair: %v)", err, rerr)
		}
	}

	if r.Trailer.Has("Encrypt") {
		if err := r.setupSecurity(); err != nil {
			return nil, err
		}
		if r.security.Authenticate("") != nil {
			return r, nil
		}
	}

	if err := r.loadDocumentStructure(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PdfFileReader) parseHeader() error {
	match := headerRegex.FindSubmatch(r.data[:min(1024, len(r.data))])
	if match == nil {
		return fmt.Errorf("%w: missing PDF header", ErrInvalidPDF)
	}
	r.Version = string(match[1])
	return nil
}

// readXRef follows the startxref chain through tables, streams and hybrid
// /XRefStm sections.
func (r *PdfFileReader) readXRef() error {
	pos := bytes.LastIndex(r.data, []byte("startxref"))
	if pos < 0 {
		return ErrNoXRef
	}
	p := generic.NewParserAt(r.data, pos+len("startxref"))
	offset, err := p.ReadInt()
	if err != nil {
		return fmt.Errorf("%w: invalid startxref: %v", ErrInvalidXRef, err)
	}

	visited := make(map[int64]bool)
	for offset > 0 {
		if visited[offset] {
			break
		}
		visited[offset] = true

		trailer, err := r.readXRefSection(offset)
		if err != nil {
			return err
		}
		if r.Trailer == nil {
			r.Trailer = trailer
		}

		if stm, ok := trailer.GetInt("XRefStm"); ok && !visited[stm] {
			visited[stm] = true
			if _, err := r.readXRefSection(stm); err != nil {
				return err
			}
		}

		prev, ok := trailer.Prev()
		if !ok {
			break
		}
		offset = prev
	}

	if r.Trailer == nil {
		return ErrNoXRef
	}
	if _, ok := r.Trailer.Root(); !ok {
		return fmt.Errorf("%w: trailer has no /Root", ErrInvalidXRef)
	}
	return nil
}

func (r *PdfFileReader) readXRefSection(offset int64) (*generic.TrailerDictionary, error) {
	if offset < 0 || offset >= int64(len(r.data)) {
		return nil, fmt.Errorf("%w: offset %d out of bounds", ErrInvalidXRef, offset)
	}
	p := generic.NewParserAt(r.data, int(offset))
	mark := p.Pos()
	if p.ReadKeyword() == "xref" {
		return parseXRefTable(p, r.XRef)
	}
	p.Seek(mark)

	ind, err := p.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidXRef, err)
	}
	stream, ok := ind.Object.(*generic.StreamObject)
	if !ok || stream.Dictionary.GetName("Type") != "XRef" {
		return nil, fmt.Errorf("%w: expected xref stream at %d", ErrInvalidXRef, offset)
	}
	data, err := r.StreamData(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidXRef, err)
	}
	if err := parseXRefStream(stream.Dictionary, data, r.XRef); err != nil {
		return nil, err
	}
	return &generic.TrailerDictionary{DictionaryObject: stream.Dictionary}, nil
}

// repair rebuilds the object table by scanning for "n g obj" headers. Later
// definitions override earlier ones, as an incremental update would.
func (r *PdfFileReader) repair() error {
	r.XRef = make(XRefTable)
	r.Trailer = nil
	r.Repaired = true

	for _, m := range objHeaderRegex.FindAllSubmatchIndex(r.data, -1) {
		num, _ := strconv.Atoi(string(r.data[m[2]:m[3]]))
		gen, _ := strconv.Atoi(string(r.data[m[4]:m[5]]))
		r.XRef[num] = XRefEntry{Type: XRefTypeStandard, Offset: int64(m[2]), Generation: gen}
	}
	if len(r.XRef) == 0 {
		return fmt.Errorf("%w: no objects found", ErrInvalidPDF)
	}

	// Index compressed objects so that catalogs inside object streams are
	// still reachable.
	for _, num := range r.objectNumbers() {
		obj, err := r.GetObject(generic.NewReference(num, 0))
		if err != nil {
			continue
		}
		stream, ok := obj.(*generic.StreamObject)
		if !ok || stream.Dictionary.GetName("Type") != "ObjStm" {
			continue
		}
		os, err := r.objectStream(num)
		if err != nil {
			continue
		}
		for i := 0; i < os.N; i++ {
			r.XRef.add(os.ObjectNumber(i), XRefEntry{Type: XRefTypeInObjStream, StreamObjNum: num, IndexInStream: i})
		}
	}

	if pos := bytes.LastIndex(r.data, []byte("trailer")); pos >= 0 {
		p := generic.NewParserAt(r.data, pos+len("trailer"))
		if obj, err := p.ParseObject(); err == nil {
			if dict, ok := obj.(*generic.DictionaryObject); ok {
				r.Trailer = &generic.TrailerDictionary{DictionaryObject: dict}
			}
		}
	}
	if r.Trailer == nil {
		r.Trailer = generic.NewTrailer()
	}
	if _, ok := r.Trailer.Root(); ok {
		return nil
	}

	for _, num := range r.objectNumbers() {
		obj, err := r.GetObject(generic.NewReference(num, r.XRef[num].Generation))
		if err != nil {
			continue
		}
		if dict, ok := obj.(*generic.DictionaryObject); ok && dict.GetName("Type") == "Catalog" {
			r.Trailer.Set("Root", generic.NewReference(num, r.XRef[num].Generation))
			return nil
		}
	}
	return fmt.Errorf("%w: no document catalog", ErrInvalidPDF)
}

func (r *PdfFileReader) objectNumbers() []int {
	nums := make([]int, 0, len(r.XRef))
	for num := range r.XRef {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}

func (r *PdfFileReader) setupSecurity() error {
	encObj := r.Trailer.Get("Encrypt")
	if ref, ok := encObj.(generic.Reference); ok {
		r.encryptNum = ref.ObjectNumber
	}
	enc, ok := r.Resolve(encObj).(*generic.DictionaryObject)
	if !ok {
		return fmt.Errorf("%w: /Encrypt is not a dictionary", ErrInvalidPDF)
	}

	var fileID []byte
	if ids := r.Trailer.GetArray("ID"); len(ids) > 0 {
		if s, ok := ids[0].(*generic.StringObject); ok {
			fileID = s.Value
		}
	}

	h, err := crypt.NewStandardSecurityHandler(enc, fileID)
	if err != nil {
		return err
	}
	r.security = h

	// Objects read while locating the handler were cached undecrypted.
	for num := range r.objects {
		if num != r.encryptNum {
			delete(r.objects, num)
		}
	}
	clear(r.objStreams)
	return nil
}

// Encrypted reports whether the file has an /Encrypt dictionary.
func (r *PdfFileReader) Encrypted() bool {
	return r.security != nil
}

// NeedsPassword reports whether the document is encrypted and no password
// has opened it yet.
func (r *PdfFileReader) NeedsPassword() bool {
	return r.security != nil && !r.security.Authenticated()
}

// Decrypt authenticates with a user or owner password and loads the
// document structure.
func (r *PdfFileReader) Decrypt(password string) error {
	if r.security == nil {
		return nil
	}
	if !r.security.Authenticated() {
		if err := r.security.Authenticate(password); err != nil {
			return err
		}
	}
	if r.Root != nil {
		return nil
	}
	return r.loadDocumentStructure()
}

func (r *PdfFileReader) loadDocumentStructure() error {
	rootRef, ok := r.Trailer.Root()
	if !ok {
		return fmt.Errorf("%w: missing Root", ErrInvalidPDF)
	}
	root, err := r.GetObject(rootRef)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	r.Root, ok = root.(*generic.DictionaryObject)
	if !ok {
		return fmt.Errorf("%w: catalog is not a dictionary", ErrInvalidPDF)
	}

	if info, ok := r.Resolve(r.Trailer.Get("Info")).(*generic.DictionaryObject); ok {
		r.Info = info
	}

	pages, err := r.flattenPageTree()
	if err != nil {
		return err
	}
	r.pages = pages
	return nil
}

// GetObject returns the object a reference points to.
func (r *PdfFileReader) GetObject(ref generic.Reference) (generic.PdfObject, error) {
	num := ref.ObjectNumber
	if obj, ok := r.objects[num]; ok {
		return obj, nil
	}
	if r.NeedsPassword() && num != r.encryptNum {
		return nil, ErrEncrypted
	}

	entry, ok := r.XRef[num]
	if !ok || entry.Type == XRefTypeFree {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, ref)
	}
	if r.loading[num] {
		return nil, fmt.Errorf("%w: object %d refers to itself", ErrInvalidPDF, num)
	}
	r.loading[num] = true
	defer delete(r.loading, num)

	var obj generic.PdfObject
	var err error
	switch entry.Type {
	case XRefTypeStandard:
		obj, err = r.objectAtOffset(num, entry)
	case XRefTypeInObjStream:
		obj, err = r.objectFromStream(entry)
	}
	if err != nil {
		return nil, err
	}
	r.objects[num] = obj
	return obj, nil
}

func (r *PdfFileReader) objectAtOffset(num int, entry XRefEntry) (generic.PdfObject, error) {
	if entry.Offset < 0 || entry.Offset >= int64(len(r.data)) {
		return nil, fmt.Errorf("%w: object %d offset %d out of bounds", ErrInvalidXRef, num, entry.Offset)
	}
	p := generic.NewParserAt(r.data, int(entry.Offset))
	p.ResolveLength = r.resolveLength
	ind, err := p.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", num, err)
	}
	if ind.ObjectNumber != num {
		return nil, fmt.Errorf("%w: expected object %d at offset %d, found %d", ErrInvalidXRef, num, entry.Offset, ind.ObjectNumber)
	}

	if r.security != nil && num != r.encryptNum {
		return r.decryptObject(ind.Object, num, ind.GenerationNumber)
	}
	return ind.Object, nil
}

func (r *PdfFileReader) objectFromStream(entry XRefEntry) (generic.PdfObject, error) {
	os, err := r.objectStream(entry.StreamObjNum)
	if err != nil {
		return nil, err
	}
	return os.GetObject(entry.IndexInStream)
}

func (r *PdfFileReader) objectStream(num int) (*ObjectStream, error) {
	if os, ok := r.objStreams[num]; ok {
		return os, nil
	}
	obj, err := r.GetObject(generic.NewReference(num, 0))
	if err != nil {
		return nil, fmt.Errorf("object stream %d: %w", num, err)
	}
	stream, ok := obj.(*generic.StreamObject)
	if !ok {
		return nil, fmt.Errorf("%w: object %d is not a stream", ErrInvalidPDF, num)
	}
	data, err := r.StreamData(stream)
	if err != nil {
		return nil, fmt.Errorf("object stream %d: %w", num, err)
	}
	os, err := ParseObjectStream(stream.Dictionary, data)
	if err != nil {
		return nil, err
	}
	r.objStreams[num] = os
	return os, nil
}

func (r *PdfFileReader) resolveLength(ref generic.Reference) (int64, bool) {
	obj, err := r.GetObject(ref)
	if err != nil {
		return 0, false
	}
	n, ok := obj.(generic.IntegerObject)
	return int64(n), ok
}

// decryptObject decrypts strings and stream data in place.
func (r *PdfFileReader) decryptObject(obj generic.PdfObject, num, gen int) (generic.PdfObject, error) {
	switch v := obj.(type) {
	case *generic.StringObject:
		plain, err := r.security.DecryptString(v.Value, num, gen)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", num, err)
		}
		v.Value = plain
	case generic.ArrayObject:
		for i, item := range v {
			d, err := r.decryptObject(item, num, gen)
			if err != nil {
				return nil, err
			}
			v[i] = d
		}
	case *generic.DictionaryObject:
		for _, key := range v.Keys() {
			d, err := r.decryptObject(v.Get(key), num, gen)
			if err != nil {
				return nil, err
			}
			v.Set(key, d)
		}
	case *generic.StreamObject:
		if _, err := r.decryptObject(v.Dictionary, num, gen); err != nil {
			return nil, err
		}
		switch v.Dictionary.GetName("Type") {
		case "XRef":
			return v, nil
		case "Metadata":
			if !r.security.EncryptMetadata {
				return v, nil
			}
		}
		plain, err := r.security.DecryptStream(v.Data, num, gen)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", num, err)
		}
		v.Data = plain
	}
	return obj, nil
}

// Resolve follows references until a direct object is reached. Dangling
// references resolve to null.
func (r *PdfFileReader) Resolve(obj generic.PdfObject) generic.PdfObject {
	for range 32 {
		ref, ok := obj.(generic.Reference)
		if !ok {
			return obj
		}
		next, err := r.GetObject(ref)
		if err != nil {
			return generic.NullObject{}
		}
		obj = next
	}
	return generic.NullObject{}
}

// StreamData returns the decoded bytes of a stream, decoding on first use.
func (r *PdfFileReader) StreamData(stream *generic.StreamObject) ([]byte, error) {
	if stream.Decoded != nil {
		return stream.Decoded, nil
	}

	var names []string
	switch f := r.Resolve(stream.Dictionary.Get("Filter")).(type) {
	case generic.NameObject:
		names = []string{string(f)}
	case generic.ArrayObject:
		for _, item := range f {
			if n, ok := r.Resolve(item).(generic.NameObject); ok {
				names = append(names, string(n))
			}
		}
	}

	var params []*filters.Params
	switch dp := r.Resolve(stream.Dictionary.Get("DecodeParms")).(type) {
	case *generic.DictionaryObject:
		params = []*filters.Params{decodeParams(dp)}
	case generic.ArrayObject:
		for _, item := range dp {
			d, _ := r.Resolve(item).(*generic.DictionaryObject)
			params = append(params, decodeParams(d))
		}
	}

	// The security handler has already applied any /Crypt stage.
	kept, keptParams := names[:0:0], params[:0:0]
	for i, name := range names {
		if name == "Crypt" {
			continue
		}
		kept = append(kept, name)
		if i < len(params) {
			keptParams = append(keptParams, params[i])
		} else {
			keptParams = append(keptParams, nil)
		}
	}

	decoded, err := filters.DecodeStream(stream.Data, kept, keptParams)
	if err != nil {
		return nil, generic.NewPdfStreamError("failed to decode stream", err)
	}
	stream.Decoded = decoded
	return decoded, nil
}

func decodeParams(d *generic.DictionaryObject) *filters.Params {
	if d == nil {
		return nil
	}
	get := func(key string) int {
		v, _ := d.GetInt(key)
		return int(v)
	}
	p := &filters.Params{
		Predictor:        get("Predictor"),
		Colors:           get("Colors"),
		BitsPerComponent: get("BitsPerComponent"),
		Columns:          get("Columns"),
	}
	if ec, ok := d.GetInt("EarlyChange"); ok && ec == 0 {
		p.EarlyChange = -1
	}
	return p
}

// NumPages returns the number of leaf pages.
func (r *PdfFileReader) NumPages() int {
	return len(r.pages)
}

// Page returns the page at a zero-based index.
func (r *PdfFileReader) Page(index int) (*Page, error) {
	if r.NeedsPassword() {
		return nil, ErrEncrypted
	}
	if index < 0 || index >= len(r.pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(r.pages))
	}
	return r.pages[index], nil
}

// Title returns the document information /Title, or "".
func (r *PdfFileReader) Title() string {
	if r.Info == nil {
		return ""
	}
	if s, ok := r.Resolve(r.Info.Get("Title")).(*generic.StringObject); ok {
		return s.Text()
	}
	return ""
}

// Data returns the raw file bytes.
func (r *PdfFileReader) Data() []byte {
	return r.data
}
