package reader

import (
	"bytes"
	"crypto/md5"
	"crypto/rc4"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/georgepadayatti/littlebook/pdf/crypt"
	"github.com/georgepadayatti/littlebook/pdf/generic"
)

// pdfBuilder assembles a classic-xref PDF. Object n is objs[n-1]; object 1
// is expected to be the catalog.
type pdfBuilder struct {
	objs []string
}

func (b *pdfBuilder) add(body string) int {
	b.objs = append(b.objs, body)
	return len(b.objs)
}

func (b *pdfBuilder) bytes(trailerExtra string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(b.objs))
	for i, body := range b.objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(b.objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R %s >>\nstartxref\n%d\n%%%%EOF\n", len(b.objs)+1, trailerExtra, xref)
	return buf.Bytes()
}

func streamBody(dict, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

// twoPageDoc exercises inheritance through an intermediate /Pages node and
// content arrays.
func twoPageDoc() []byte {
	b := &pdfBuilder{}
	b.add("<< /Type /Catalog /Pages 2 0 R >>")
	b.add("<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 /MediaBox [0 0 200 300] /Resources << /Font << /F1 9 0 R >> >> >>")
	b.add("<< /Type /Page /Parent 2 0 R /Contents [6 0 R 7 0 R] >>")
	b.add("<< /Type /Pages /Parent 2 0 R /Kids [5 0 R] /Count 1 /MediaBox [110 220 10 20] /Rotate -90 >>")
	b.add("<< /Type /Page /Parent 4 0 R /CropBox [0 0 50 50] /Contents 8 0 R >>")
	b.add(streamBody("", "q"))
	b.add(streamBody("/Filter /ASCIIHexDecode", "51>"))
	b.add(streamBody("", "BT ET"))
	b.add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	b.add("<< /Title (Little Book) >>")
	return b.bytes("/Info 10 0 R")
}

func TestReadPageTree(t *testing.T) {
	r, err := NewPdfFileReaderFromBytes(twoPageDoc())
	if err != nil {
		t.Fatalf("NewPdfFileReaderFromBytes failed: %v", err)
	}
	if r.Version != "1.7" {
		t.Errorf("Expected version 1.7, got %q", r.Version)
	}
	if r.NumPages() != 2 {
		t.Fatalf("Expected 2 pages, got %d", r.NumPages())
	}
	if r.Title() != "Little Book" {
		t.Errorf("Expected title 'Little Book', got %q", r.Title())
	}

	first, _ := r.Page(0)
	if first.Width() != 200 || first.Height() != 300 {
		t.Errorf("Page 0 size = %vx%v, want 200x300", first.Width(), first.Height())
	}
	if first.Resources.GetDict("Font") == nil {
		t.Error("Page 0 should inherit /Resources from the root node")
	}
	content, err := r.PageContent(first)
	if err != nil {
		t.Fatalf("PageContent failed: %v", err)
	}
	if string(content) != "q\nQ" {
		t.Errorf("Expected joined content 'q\\nQ', got %q", content)
	}

	second, _ := r.Page(1)
	if second.MediaBox.LLX != 10 || second.Width() != 100 || second.Height() != 200 {
		t.Errorf("Page 1 MediaBox = %+v, want normalized [10 20 110 220]", second.MediaBox)
	}
	if second.Rotate != 270 {
		t.Errorf("Expected Rotate 270, got %d", second.Rotate)
	}
	if second.CropBox == nil {
		t.Error("Page 1 should carry its CropBox")
	}
	if content, _ := r.PageContent(second); string(content) != "BT ET" {
		t.Errorf("Expected 'BT ET', got %q", content)
	}

	if _, err := r.Page(2); err == nil {
		t.Error("Expected error for page index out of range")
	}
}

func TestReadXRefStreamAndObjectStream(t *testing.T) {
	compressed := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>",
	}
	var header, body strings.Builder
	for i, obj := range compressed {
		fmt.Fprintf(&header, "%d %d ", i+1, body.Len())
		body.WriteString(obj)
		body.WriteByte(' ')
	}
	objStm := header.String() + body.String()

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.5\n")
	off4 := buf.Len()
	fmt.Fprintf(&buf, "4 0 obj\n%s\nendobj\n", streamBody("", "0 0 m"))
	off5 := buf.Len()
	fmt.Fprintf(&buf, "5 0 obj\n%s\nendobj\n", streamBody(fmt.Sprintf("/Type /ObjStm /N 3 /First %d", header.Len()), objStm))
	off6 := buf.Len()

	var rows bytes.Buffer
	row := func(typ byte, f2 uint32, f3 uint16) {
		rows.WriteByte(typ)
		binary.Write(&rows, binary.BigEndian, f2)
		binary.Write(&rows, binary.BigEndian, f3)
	}
	row(0, 0, 65535)
	for i := range compressed {
		row(2, 5, uint16(i))
	}
	row(1, uint32(off4), 0)
	row(1, uint32(off5), 0)
	row(1, uint32(off6), 0)

	fmt.Fprintf(&buf, "6 0 obj\n<< /Type /XRef /Size 7 /W [1 4 2] /Root 1 0 R /Length %d >>\nstream\n", rows.Len())
	buf.Write(rows.Bytes())
	fmt.Fprintf(&buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", off6)

	r, err := NewPdfFileReaderFromBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("NewPdfFileReaderFromBytes failed: %v", err)
	}
	if r.Repaired {
		t.Error("xref stream should not need repair")
	}
	if r.XRef[2].Type != XRefTypeInObjStream {
		t.Errorf("Expected object 2 to be compressed, got %v", r.XRef[2].Type)
	}
	page, err := r.Page(0)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if page.Width() != 612 || page.Height() != 792 {
		t.Errorf("Expected Letter page, got %vx%v", page.Width(), page.Height())
	}
	if content, _ := r.PageContent(page); string(content) != "0 0 m" {
		t.Errorf("Expected '0 0 m', got %q", content)
	}
}

func TestRepair(t *testing.T) {
	doc := twoPageDoc()

	t.Run("bad startxref", func(t *testing.T) {
		pos := bytes.LastIndex(doc, []byte("startxref"))
		broken := append(bytes.Clone(doc[:pos]), "startxref\n999999\n%%EOF\n"...)
		r, err := NewPdfFileReaderFromBytes(broken)
		if err != nil {
			t.Fatalf("repair should recover: %v", err)
		}
		if !r.Repaired || r.NumPages() != 2 {
			t.Errorf("Expected repaired 2-page document, got repaired=%v pages=%d", r.Repaired, r.NumPages())
		}
	})

	t.Run("no trailer", func(t *testing.T) {
		pos := bytes.LastIndex(doc, []byte("\nxref\n"))
		r, err := NewPdfFileReaderFromBytes(bytes.Clone(doc[:pos+1]))
		if err != nil {
			t.Fatalf("repair should locate the catalog: %v", err)
		}
		if r.NumPages() != 2 {
			t.Errorf("Expected 2 pages, got %d", r.NumPages())
		}
	})
}

func TestReadErrors(t *testing.T) {
	cyclic := &pdfBuilder{}
	cyclic.add("<< /Type /Catalog /Pages 2 0 R >>")
	cyclic.add("<< /Type /Pages /Kids [2 0 R] /Count 1 >>")

	noMediaBox := &pdfBuilder{}
	noMediaBox.add("<< /Type /Catalog /Pages 2 0 R >>")
	noMediaBox.add("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	noMediaBox.add("<< /Type /Page /Parent 2 0 R >>")

	tests := []struct {
		name string
		data []byte
	}{
		{"not a PDF", []byte("hello world")},
		{"page tree cycle", cyclic.bytes("")},
		{"missing MediaBox", noMediaBox.bytes("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPdfFileReaderFromBytes(tt.data); !errors.Is(err, ErrInvalidPDF) {
				t.Errorf("Expected ErrInvalidPDF, got %v", err)
			}
		})
	}
}

var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

func rc4Crypt(key, data []byte) []byte {
	c, _ := rc4.NewCipher(key)
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}

// rc4Doc builds a revision 2 (40-bit RC4) encrypted document.
func rc4Doc(userPw, ownerPw string) []byte {
	pad := func(pw string) []byte { return append([]byte(pw), passwordPad...)[:32] }
	id := []byte("littlebook-id-01")

	ownerDigest := md5.Sum(pad(ownerPw))
	o := rc4Crypt(ownerDigest[:5], pad(userPw))
	h := md5.New()
	h.Write(pad(userPw))
	h.Write(o)
	h.Write([]byte{0xFC, 0xFF, 0xFF, 0xFF})
	h.Write(id)
	key := h.Sum(nil)[:5]
	u := rc4Crypt(key, passwordPad)

	objKey := func(num int) []byte {
		h := md5.New()
		h.Write(key)
		h.Write([]byte{byte(num), byte(num >> 8), byte(num >> 16), 0, 0})
		return h.Sum(nil)[:10]
	}

	b := &pdfBuilder{}
	b.add("<< /Type /Catalog /Pages 2 0 R >>")
	b.add("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.add("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 100] /Contents 4 0 R >>")
	b.add(streamBody("", string(rc4Crypt(objKey(4), []byte("0 0 m")))))
	b.add(fmt.Sprintf("<< /Title <%X> >>", rc4Crypt(objKey(5), []byte("Secret Book"))))
	b.add(fmt.Sprintf("<< /Filter /Standard /V 1 /R 2 /P -4 /O <%X> /U <%X> >>", o, u))
	return b.bytes(fmt.Sprintf("/Info 5 0 R /Encrypt 6 0 R /ID [<%X> <%X>]", id, id))
}

func TestEncryptedEmptyUserPassword(t *testing.T) {
	r, err := NewPdfFileReaderFromBytes(rc4Doc("", "owner"))
	if err != nil {
		t.Fatalf("NewPdfFileReaderFromBytes failed: %v", err)
	}
	if !r.Encrypted() || r.NeedsPassword() {
		t.Fatalf("Expected encrypted document opened without a password")
	}
	if r.Title() != "Secret Book" {
		t.Errorf("Expected decrypted title, got %q", r.Title())
	}
	page, _ := r.Page(0)
	if content, _ := r.PageContent(page); string(content) != "0 0 m" {
		t.Errorf("Expected decrypted content '0 0 m', got %q", content)
	}
}

func TestEncryptedWithPassword(t *testing.T) {
	r, err := NewPdfFileReaderFromBytes(rc4Doc("secret", "owner"))
	if err != nil {
		t.Fatalf("NewPdfFileReaderFromBytes failed: %v", err)
	}
	if !r.NeedsPassword() {
		t.Fatal("Expected NeedsPassword before Decrypt")
	}
	if _, err := r.GetObject(generic.NewReference(3, 0)); !errors.Is(err, ErrEncrypted) {
		t.Errorf("Expected ErrEncrypted, got %v", err)
	}
	if err := r.Decrypt("wrong"); !errors.Is(err, crypt.ErrInvalidPassword) {
		t.Errorf("Expected ErrInvalidPassword, got %v", err)
	}

	for _, pw := range []string{"secret", "owner"} {
		r, _ := NewPdfFileReaderFromBytes(rc4Doc("secret", "owner"))
		if err := r.Decrypt(pw); err != nil {
			t.Fatalf("Decrypt(%q) failed: %v", pw, err)
		}
		page, err := r.Page(0)
		if err != nil {
			t.Fatalf("Page failed: %v", err)
		}
		if content, _ := r.PageContent(page); string(content) != "0 0 m" {
			t.Errorf("Decrypt(%q): expected '0 0 m', got %q", pw, content)
		}
	}
}

func TestParseObjectStream(t *testing.T) {
	dict := generic.NewDictionary()
	dict.Set("N", generic.IntegerObject(2))
	dict.Set("First", generic.IntegerObject(9))
	os, err := ParseObjectStream(dict, []byte("10 0 11 3 42 (hi)"))
	if err != nil {
		t.Fatalf("ParseObjectStream failed: %v", err)
	}
	if os.ObjectNumber(1) != 11 {
		t.Errorf("Expected object number 11, got %d", os.ObjectNumber(1))
	}
	obj, err := os.GetObject(0)
	if err != nil || obj != generic.IntegerObject(42) {
		t.Errorf("GetObject(0) = %v, %v; want 42", obj, err)
	}
	if _, err := os.GetObject(2); err == nil {
		t.Error("Expected error for out-of-range index")
	}
}

func TestXRefTypeString(t *testing.T) {
	tests := []struct {
		xrefType XRefType
		expected string
	}{
		{XRefTypeFree, "free"},
		{XRefTypeStandard, "standard"},
		{XRefTypeInObjStream, "in_obj_stream"},
		{XRefType(99), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.xrefType.String(); got != tc.expected {
			t.Errorf("XRefType(%d).String() = %q, want %q", tc.xrefType, got, tc.expected)
		}
	}
}
