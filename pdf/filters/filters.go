// Package filters implements the PDF stream filters needed to read page
// content, object streams and cross-reference streams.
package filters

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// Common errors
var (
	ErrUnsupportedFilter = errors.New("unsupported filter")
	ErrDecodeFailed      = errors.New("decode failed")
)

// Params holds the /DecodeParms entries the decoders understand. Zero
// values mean "use the PDF default".
type Params struct {
	Predictor        int
	Colors           int
	BitsPerComponent int
	Columns          int
	EarlyChange      int // -1 selects EarlyChange 0
}

func (p Params) withDefaults() Params {
	if p.Predictor == 0 {
		p.Predictor = 1
	}
	if p.Colors == 0 {
		p.Colors = 1
	}
	if p.BitsPerComponent == 0 {
		p.BitsPerComponent = 8
	}
	if p.Columns == 0 {
		p.Columns = 1
	}
	return p
}

// Filter decodes one stage of a filter pipeline.
type Filter interface {
	Decode(data []byte, params *Params) ([]byte, error)
	Name() string
}

// FlateDecodeFilter implements FlateDecode (zlib/deflate).
type FlateDecodeFilter struct{}

// Name implements Filter.
func (FlateDecodeFilter) Name() string { return "FlateDecode" }

// Decode implements Filter. A stream that ends early yields what could be
// inflated, which is how most viewers treat truncated content.
func (FlateDecodeFilter) Decode(data []byte, params *Params) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil && (buf.Len() == 0 || !errors.Is(err, io.ErrUnexpectedEOF)) {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return applyPredictor(buf.Bytes(), params)
}

// FlateEncode compresses data for a FlateDecode stream.
func FlateEncode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("flate encode failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flate encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

func applyPredictor(data []byte, params *Params) ([]byte, error) {
	if params == nil {
		return data, nil
	}
	p := params.withDefaults()
	bpp := (p.Colors*p.BitsPerComponent + 7) / 8
	rowLen := (p.Columns*p.Colors*p.BitsPerComponent + 7) / 8

	switch {
	case p.Predictor == 1:
		return data, nil
	case p.Predictor == 2:
		if p.BitsPerComponent != 8 {
			return nil, fmt.Errorf("%w: TIFF predictor with %d bits per component", ErrUnsupportedFilter, p.BitsPerComponent)
		}
		return decodeTIFFPredictor(data, rowLen, bpp), nil
	case p.Predictor >= 10 && p.Predictor <= 15:
		return decodePNGPredictor(data, rowLen, bpp)
	}
	return nil, fmt.Errorf("%w: predictor %d", ErrUnsupportedFilter, p.Predictor)
}

func decodeTIFFPredictor(data []byte, rowLen, bpp int) []byte {
	out := bytes.Clone(data)
	for start := 0; start+rowLen <= len(out); start += rowLen {
		row := out[start : start+rowLen]
		for j := bpp; j < len(row); j++ {
			row[j] += row[j-bpp]
		}
	}
	return out
}

// decodePNGPredictor undoes PNG row filters; each row is prefixed by its
// filter type byte.
func decodePNGPredictor(data []byte, rowLen, bpp int) ([]byte, error) {
	stride := rowLen + 1
	out := make([]byte, 0, len(data)/stride*rowLen)
	prev := make([]byte, rowLen)
	cur := make([]byte, rowLen)

	for i := 0; i+stride <= len(data); i += stride {
		ft, row := data[i], data[i+1:i+stride]
		for j := range row {
			var left, upLeft byte
			if j >= bpp {
				left = cur[j-bpp]
				upLeft = prev[j-bpp]
			}
			up := prev[j]
			switch ft {
			case 0:
				cur[j] = row[j]
			case 1:
				cur[j] = row[j] + left
			case 2:
				cur[j] = row[j] + up
			case 3:
				cur[j] = row[j] + byte((int(left)+int(up))/2)
			case 4:
				cur[j] = row[j] + paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("%w: PNG filter type %d", ErrDecodeFailed, ft)
			}
		}
		out = append(out, cur...)
		prev, cur = cur, prev
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ASCIIHexDecodeFilter implements ASCIIHexDecode.
type ASCIIHexDecodeFilter struct{}

// Name implements Filter.
func (ASCIIHexDecodeFilter) Name() string { return "ASCIIHexDecode" }

// Decode implements Filter.
func (ASCIIHexDecodeFilter) Decode(data []byte, _ *Params) ([]byte, error) {
	digits := make([]byte, 0, len(data))
	for _, b := range data {
		if b == '>' {
			break
		}
		switch b {
		case ' ', '\t', '\n', '\r', '\f', 0:
			continue
		}
		digits = append(digits, b)
	}
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return out, nil
}

// ASCII85DecodeFilter implements ASCII85Decode.
type ASCII85DecodeFilter struct{}

// Name implements Filter.
func (ASCII85DecodeFilter) Name() string { return "ASCII85Decode" }

// Decode implements Filter.
func (ASCII85DecodeFilter) Decode(data []byte, _ *Params) ([]byte, error) {
	if end := bytes.Index(data, []byte("~>")); end != -1 {
		data = data[:end]
	}
	data = bytes.TrimPrefix(bytes.TrimSpace(data), []byte("<~"))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, ascii85.NewDecoder(bytes.NewReader(data))); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return buf.Bytes(), nil
}

// LZWDecodeFilter implements LZWDecode with the PDF EarlyChange variant.
type LZWDecodeFilter struct{}

// Name implements Filter.
func (LZWDecodeFilter) Name() string { return "LZWDecode" }

// Decode implements Filter.
func (LZWDecodeFilter) Decode(data []byte, params *Params) ([]byte, error) {
	early := 1
	if params != nil && params.EarlyChange == -1 {
		early = 0
	}
	out, err := lzwDecode(data, early)
	if err != nil {
		return nil, err
	}
	return applyPredictor(out, params)
}

const (
	lzwClear = 256
	lzwEOD   = 257
)

func lzwDecode(data []byte, early int) ([]byte, error) {
	table := make([][]byte, 258, 4096)
	for i := 0; i < 256; i++ {
		table[i] = []byte{byte(i)}
	}
	width := 9
	var bitBuf uint32
	var bitCount int
	var prev []byte
	var out bytes.Buffer

	for pos := 0; ; {
		for bitCount < width && pos < len(data) {
			bitBuf = bitBuf<<8 | uint32(data[pos])
			bitCount += 8
			pos++
		}
		if bitCount < width {
			break
		}
		code := int(bitBuf>>(bitCount-width)) & (1<<width - 1)
		bitCount -= width

		switch {
		case code == lzwClear:
			table = table[:258]
			width = 9
			prev = nil
			continue
		case code == lzwEOD:
			return out.Bytes(), nil
		}

		var entry []byte
		switch {
		case code < len(table) && table[code] != nil:
			entry = table[code]
		case code == len(table) && prev != nil:
			entry = append(bytes.Clone(prev), prev[0])
		default:
			return nil, fmt.Errorf("%w: invalid LZW code %d", ErrDecodeFailed, code)
		}
		out.Write(entry)

		if prev != nil && len(table) < 4096 {
			table = append(table, append(bytes.Clone(prev), entry[0]))
		}
		prev = entry
		if len(table)+early >= 1<<width && width < 12 {
			width++
		}
	}
	return out.Bytes(), nil
}

// RunLengthDecodeFilter implements RunLengthDecode.
type RunLengthDecodeFilter struct{}

// Name implements Filter.
func (RunLengthDecodeFilter) Name() string { return "RunLengthDecode" }

// Decode implements Filter.
func (RunLengthDecodeFilter) Decode(data []byte, _ *Params) ([]byte, error) {
	var out bytes.Buffer
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == 128:
			return out.Bytes(), nil
		case n < 128:
			if i+n+1 > len(data) {
				return nil, fmt.Errorf("%w: truncated run-length data", ErrDecodeFailed)
			}
			out.Write(data[i : i+n+1])
			i += n + 1
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("%w: truncated run-length data", ErrDecodeFailed)
			}
			out.Write(bytes.Repeat(data[i:i+1], 257-n))
			i++
		}
	}
	return out.Bytes(), nil
}

var registry = map[string]Filter{
	"FlateDecode":     FlateDecodeFilter{},
	"Fl":              FlateDecodeFilter{},
	"ASCIIHexDecode":  ASCIIHexDecodeFilter{},
	"AHx":             ASCIIHexDecodeFilter{},
	"ASCII85Decode":   ASCII85DecodeFilter{},
	"A85":             ASCII85DecodeFilter{},
	"LZWDecode":       LZWDecodeFilter{},
	"LZW":             LZWDecodeFilter{},
	"RunLengthDecode": RunLengthDecodeFilter{},
	"RL":              RunLengthDecodeFilter{},
}

// GetFilter returns a filter by name or abbreviation.
func GetFilter(name string) (Filter, error) {
	if f, ok := registry[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, name)
}

// DecodeStream runs data through a filter pipeline. params[i] applies to
// names[i] and may be nil.
func DecodeStream(data []byte, names []string, params []*Params) ([]byte, error) {
	result := data
	for i, name := range names {
		f, err := GetFilter(name)
		if err != nil {
			return nil, err
		}
		var p *Params
		if i < len(params) {
			p = params[i]
		}
		if result, err = f.Decode(result, p); err != nil {
			return nil, fmt.Errorf("filter %s: %w", name, err)
		}
	}
	return result, nil
}
