package filters

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"errors"
	"testing"
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func TestFlateRoundTrip(t *testing.T) {
	original := []byte("q 1 0 0 1 0 0 cm /P0 Do Q")

	encoded, err := FlateEncode(original)
	if err != nil {
		t.Fatalf("FlateEncode failed: %v", err)
	}
	decoded, err := FlateDecodeFilter{}.Decode(encoded, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Errorf("Round-trip mismatch: got %q", decoded)
	}
}

func TestFlateMissingChecksum(t *testing.T) {
	original := bytes.Repeat([]byte("0123456789"), 200)
	full := deflate(t, original)
	// Drop the adler32 trailer.
	decoded, err := FlateDecodeFilter{}.Decode(full[:len(full)-4], nil)
	if err != nil {
		t.Fatalf("stream without checksum should still decode: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Errorf("Expected %d bytes, got %d", len(original), len(decoded))
	}

	if _, err := (FlateDecodeFilter{}).Decode([]byte("not zlib"), nil); !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("Expected ErrDecodeFailed, got %v", err)
	}
}

func TestPNGPredictor(t *testing.T) {
	rows := []byte{
		2, 1, 2, 3, // Up from zero row
		2, 1, 1, 1, // Up
		1, 5, 1, 1, // Sub
	}
	params := &Params{Predictor: 12, Columns: 3}
	decoded, err := FlateDecodeFilter{}.Decode(deflate(t, rows), params)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []byte{1, 2, 3, 2, 3, 4, 5, 6, 7}
	if !bytes.Equal(decoded, want) {
		t.Errorf("Expected %v, got %v", want, decoded)
	}
}

func TestTIFFPredictor(t *testing.T) {
	decoded, err := FlateDecodeFilter{}.Decode(deflate(t, []byte{1, 1, 1, 10, 2, 2}), &Params{Predictor: 2, Columns: 3})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []byte{1, 2, 3, 10, 12, 14}
	if !bytes.Equal(decoded, want) {
		t.Errorf("Expected %v, got %v", want, decoded)
	}
}

func TestASCIIHexDecode(t *testing.T) {
	tests := []struct {
		input    string
		expected []byte
	}{
		{"48656C6C6F>", []byte("Hello")},
		{"48 65 6C\n6C 6F>", []byte("Hello")},
		{"ABC>", []byte{0xAB, 0xC0}},
	}
	for _, tt := range tests {
		got, err := ASCIIHexDecodeFilter{}.Decode([]byte(tt.input), nil)
		if err != nil {
			t.Fatalf("Decode(%q) failed: %v", tt.input, err)
		}
		if !bytes.Equal(got, tt.expected) {
			t.Errorf("Decode(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestASCII85Decode(t *testing.T) {
	original := []byte("imposition")
	enc := make([]byte, ascii85.MaxEncodedLen(len(original)))
	n := ascii85.Encode(enc, original)
	input := append([]byte("<~"), enc[:n]...)
	input = append(input, "~>"...)

	got, err := ASCII85DecodeFilter{}.Decode(input, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("Expected %q, got %q", original, got)
	}
}

func TestLZWDecode(t *testing.T) {
	// Example from the PDF reference: codes 256 45 258 258 65 259 66 257.
	input := []byte{0x80, 0x0B, 0x60, 0x50, 0x22, 0x0C, 0x0C, 0x85, 0x01}
	got, err := LZWDecodeFilter{}.Decode(input, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if string(got) != "-----A---B" {
		t.Errorf("Expected '-----A---B', got %q", got)
	}
}

func TestRunLengthDecode(t *testing.T) {
	input := []byte{2, 'a', 'b', 'c', 254, 'z', 128, 'x'}
	got, err := RunLengthDecodeFilter{}.Decode(input, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if string(got) != "abczzz" {
		t.Errorf("Expected 'abczzz', got %q", got)
	}

	if _, err := (RunLengthDecodeFilter{}).Decode([]byte{5, 'a'}, nil); !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("Expected ErrDecodeFailed, got %v", err)
	}
}

func TestDecodeStreamPipeline(t *testing.T) {
	original := []byte("BT /F1 12 Tf ET")
	hexed := []byte("")
	for _, b := range deflate(t, original) {
		hexed = append(hexed, "0123456789ABCDEF"[b>>4], "0123456789ABCDEF"[b&15])
	}
	hexed = append(hexed, '>')

	got, err := DecodeStream(hexed, []string{"AHx", "FlateDecode"}, []*Params{nil, nil})
	if err != nil {
		t.Fatalf("DecodeStream failed: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("Expected %q, got %q", original, got)
	}

	if _, err := DecodeStream(nil, []string{"DCTDecode"}, nil); !errors.Is(err, ErrUnsupportedFilter) {
		t.Errorf("Expected ErrUnsupportedFilter, got %v", err)
	}
}
