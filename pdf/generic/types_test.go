package generic

import (
	"bytes"
	"testing"
)

func render(t *testing.T, obj PdfObject) string {
	t.Helper()
	var buf bytes.Buffer
	if err := obj.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return buf.String()
}

func TestScalarObjects(t *testing.T) {
	tests := []struct {
		name     string
		value    PdfObject
		expected string
	}{
		{"null", NullObject{}, "null"},
		{"true", BooleanObject(true), "true"},
		{"false", BooleanObject(false), "false"},
		{"zero", IntegerObject(0), "0"},
		{"negative int", IntegerObject(-123), "-123"},
		{"real", RealObject(3.14159), "3.14159"},
		{"whole real", RealObject(612), "612"},
		{"negative zero", RealObject(-0.000001), "0"},
		{"name", NameObject("Type"), "/Type"},
		{"name with space", NameObject("A B"), "/A#20B"},
		{"reference", NewReference(10, 0), "10 0 R"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.value); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1.5, "1.5"},
		{-2.25, "-2.25"},
		{1224, "1224"},
		{0.123456789, "0.12346"},
		{1e-9, "0"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStringObject(t *testing.T) {
	if got := render(t, NewLiteralString("Hello (World)")); got != `(Hello \(World\))` {
		t.Errorf("Expected escaped literal, got '%s'", got)
	}
	if got := render(t, NewHexString([]byte{0xDE, 0xAD, 0xBE, 0xEF})); got != "<deadbeef>" {
		t.Errorf("Expected '<deadbeef>', got '%s'", got)
	}
	if got := render(t, NewLiteralString("a\x01")); got != `(a\001)` {
		t.Errorf("Expected octal escape, got '%s'", got)
	}
}

func TestTextString(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		unicode bool
	}{
		{"ascii", "Little Book", false},
		{"latin", "Résumé", true},
		{"astral", "book \U0001F4D6", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTextString(tt.text)
			hasBOM := len(s.Value) >= 2 && s.Value[0] == 0xFE && s.Value[1] == 0xFF
			if hasBOM != tt.unicode {
				t.Errorf("BOM present = %v, want %v", hasBOM, tt.unicode)
			}
			if got := s.Text(); got != tt.text {
				t.Errorf("Text() = %q, want %q", got, tt.text)
			}
		})
	}
}

func TestArrayObject(t *testing.T) {
	arr := NewArray(IntegerObject(1), IntegerObject(2), IntegerObject(3))
	if got := render(t, arr); got != "[1 2 3]" {
		t.Errorf("Expected '[1 2 3]', got '%s'", got)
	}
	if got := render(t, NumberArray(0, 0, 612.5, 792)); got != "[0 0 612.5 792]" {
		t.Errorf("Expected '[0 0 612.5 792]', got '%s'", got)
	}
}

func TestDictionaryObject(t *testing.T) {
	dict := NewDictionary()
	dict.Set("Type", NameObject("Page"))
	dict.Set("Count", IntegerObject(5))

	if !dict.Has("Type") {
		t.Error("Should have 'Type' key")
	}
	if dict.GetName("Type") != "Page" {
		t.Errorf("Expected 'Page', got '%s'", dict.GetName("Type"))
	}
	if count, ok := dict.GetInt("Count"); !ok || count != 5 {
		t.Errorf("Expected 5, got %d", count)
	}
	if got := render(t, dict); got != "<< /Type /Page /Count 5 >>" {
		t.Errorf("Unexpected serialization '%s'", got)
	}

	dict.Set("Count", nil)
	if dict.Has("Count") {
		t.Error("Setting nil should delete the key")
	}
	if dict.Len() != 1 {
		t.Errorf("Expected length 1, got %d", dict.Len())
	}

	keys := dict.Keys()
	keys[0] = "Mutated"
	if dict.GetName("Type") != "Page" || dict.Keys()[0] != "Type" {
		t.Error("Keys should return a copy")
	}
}

func TestStreamObjectWriteSetsLength(t *testing.T) {
	dict := NewDictionary()
	dict.Set("Length", IntegerObject(999))
	stream := NewStream(dict, []byte("q Q"))

	got := render(t, stream)
	want := "<< /Length 3 >>\nstream\nq Q\nendstream"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestIndirectObject(t *testing.T) {
	indirect := NewIndirectObject(5, 0, IntegerObject(42))
	if got := render(t, indirect); got != "5 0 obj\n42\nendobj\n" {
		t.Errorf("Unexpected serialization %q", got)
	}
	if ref := indirect.Reference(); ref != NewReference(5, 0) {
		t.Errorf("Reference() = %v", ref)
	}
}

func TestRectangle(t *testing.T) {
	rect, err := NewRectangle(ArrayObject{IntegerObject(612), RealObject(792), IntegerObject(0), IntegerObject(0)})
	if err != nil {
		t.Fatalf("NewRectangle failed: %v", err)
	}
	if rect.LLX != 0 || rect.LLY != 0 {
		t.Errorf("corners not normalized: %+v", rect)
	}
	if rect.Width() != 612 || rect.Height() != 792 {
		t.Errorf("Expected 612x792, got %vx%v", rect.Width(), rect.Height())
	}

	if _, err := NewRectangle(ArrayObject{IntegerObject(1)}); err == nil {
		t.Error("Expected error for short array")
	}
	if _, err := NewRectangle(ArrayObject{IntegerObject(0), IntegerObject(0), NameObject("x"), IntegerObject(1)}); err == nil {
		t.Error("Expected error for non-numeric element")
	}
}

func TestClone(t *testing.T) {
	inner := NewDictionary()
	inner.Set("N", IntegerObject(1))
	dict := NewDictionary()
	dict.Set("Inner", inner)
	dict.Set("Arr", ArrayObject{IntegerObject(1)})

	cloned := dict.Clone().(*DictionaryObject)
	cloned.GetDict("Inner").Set("N", IntegerObject(2))
	cloned.GetArray("Arr")[0] = IntegerObject(100)

	if v, _ := inner.GetInt("N"); v != 1 {
		t.Error("Original nested dict should not be modified")
	}
	if dict.GetArray("Arr")[0].(IntegerObject) != 1 {
		t.Error("Original array should not be modified")
	}

	stream := NewStream(nil, []byte("abc"))
	sc := stream.Clone().(*StreamObject)
	sc.Data[0] = 'x'
	if stream.Data[0] != 'a' {
		t.Error("Stream data should be copied")
	}
}

func TestTrailerDictionary(t *testing.T) {
	trailer := NewTrailer()
	trailer.Set("Root", NewReference(1, 0))
	trailer.Set("Prev", IntegerObject(1234))

	if root, ok := trailer.Root(); !ok || root.ObjectNumber != 1 {
		t.Error("Root lookup failed")
	}
	if _, ok := trailer.Info(); ok {
		t.Error("Info should be absent")
	}
	if prev, ok := trailer.Prev(); !ok || prev != 1234 {
		t.Errorf("Expected prev 1234, got %d", prev)
	}
}
