package pdftest

import (
	"bytes"
	"crypto/md5"
	"crypto/rc4"
	"fmt"
	"testing"

	"github.com/georgepadayatti/littlebook/pdf/layout"
)

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

// Encrypted returns an n-page document encrypted with 40-bit RC4
// (revision 2). Its title is "Secret Book".
func Encrypted(tb testing.TB, n int, size layout.PageSize, userPw, ownerPw string) []byte {
	tb.Helper()
	pad := func(pw string) []byte { return append([]byte(pw), passwordPad...)[:32] }
	id := []byte("littlebook-test!")

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

	// 1 catalog, 2 pages, 3 info, 4 encrypt, then page/content pairs.
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"",
		fmt.Sprintf("<< /Title <%X> >>", rc4Crypt(objKey(3), []byte("Secret Book"))),
		fmt.Sprintf("<< /Filter /Standard /V 1 /R 2 /P -4 /O <%X> /U <%X> >>", o, u),
	}
	var kids bytes.Buffer
	for i := range n {
		pageNum := len(objs) + 1
		contentNum := pageNum + 1
		fmt.Fprintf(&kids, "%d 0 R ", pageNum)
		objs = append(objs, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Contents %d 0 R >>",
			size.Width, size.Height, contentNum))
		data := rc4Crypt(objKey(contentNum), fmt.Appendf(nil, "0 0 m %d %d l S", i, i))
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(data), data))
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), n)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 3 0 R /Encrypt 4 0 R /ID [<%X> <%X>] >>\nstartxref\n%d\n%%%%EOF\n",
		len(objs)+1, id, id, xref)
	return buf.Bytes()
}
