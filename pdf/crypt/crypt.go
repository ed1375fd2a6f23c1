// Package crypt implements the PDF standard security handler for reading
// encrypted documents (RC4 40-128 bit, AESV2 and AESV3).
package crypt

import (
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/charmap"

	"github.com/georgepadayatti/littlebook/pdf/generic"
)

// Common errors
var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrUnsupportedCrypt = errors.New("unsupported encryption")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrNotAuthenticated = errors.New("security handler not authenticated")
)

// Method is a crypt filter method.
type Method int

const (
	MethodNone Method = iota
	MethodRC4
	MethodAESV2
	MethodAESV3
)

func (m Method) String() string {
	switch m {
	case MethodRC4:
		return "V2"
	case MethodAESV2:
		return "AESV2"
	case MethodAESV3:
		return "AESV3"
	}
	return "None"
}

// StandardSecurityHandler decrypts objects of a document protected with the
// /Standard security handler.
type StandardSecurityHandler struct {
	Version         int
	Revision        int
	KeyLength       int // bytes
	Permissions     int32
	OwnerKey        []byte // O
	UserKey         []byte // U
	OwnerE          []byte // OE (R6)
	UserE           []byte // UE (R6)
	EncryptMetadata bool
	FileID          []byte

	StreamMethod Method
	StringMethod Method

	key []byte
}

// NewStandardSecurityHandler reads an /Encrypt dictionary. fileID is the
// first element of the trailer /ID.
func NewStandardSecurityHandler(enc *generic.DictionaryObject, fileID []byte) (*StandardSecurityHandler, error) {
	if f := enc.GetName("Filter"); f != "Standard" {
		return nil, fmt.Errorf("%w: security handler %q", ErrUnsupportedCrypt, f)
	}

	v, _ := enc.GetInt("V")
	r, _ := enc.GetInt("R")
	p, _ := enc.GetInt("P")
	h := &StandardSecurityHandler{
		Version:         int(v),
		Revision:        int(r),
		Permissions:     int32(p),
		OwnerKey:        stringBytes(enc.Get("O")),
		UserKey:         stringBytes(enc.Get("U")),
		OwnerE:          stringBytes(enc.Get("OE")),
		UserE:           stringBytes(enc.Get("UE")),
		EncryptMetadata: true,
		FileID:          fileID,
	}
	if em, ok := enc.Get("EncryptMetadata").(generic.BooleanObject); ok {
		h.EncryptMetadata = bool(em)
	}

	switch h.Version {
	case 1:
		h.KeyLength = 5
		h.StreamMethod, h.StringMethod = MethodRC4, MethodRC4
	case 2, 3:
		h.KeyLength = 5
		if bits, ok := enc.GetInt("Length"); ok && bits >= 40 && bits <= 128 && bits%8 == 0 {
			h.KeyLength = int(bits / 8)
		}
		h.StreamMethod, h.StringMethod = MethodRC4, MethodRC4
	case 4, 5:
		cf := enc.GetDict("CF")
		var err error
		if h.StreamMethod, err = cryptFilterMethod(cf, enc.GetName("StmF"), &h.KeyLength); err != nil {
			return nil, err
		}
		if h.StringMethod, err = cryptFilterMethod(cf, enc.GetName("StrF"), &h.KeyLength); err != nil {
			return nil, err
		}
		if h.Version == 5 {
			h.KeyLength = 32
		} else if h.KeyLength == 0 {
			h.KeyLength = 16
		}
	default:
		return nil, fmt.Errorf("%w: /V %d", ErrUnsupportedCrypt, h.Version)
	}

	if h.Revision < 2 || h.Revision > 6 {
		return nil, fmt.Errorf("%w: /R %d", ErrUnsupportedCrypt, h.Revision)
	}
	if h.Revision <= 4 && (h.KeyLength < 5 || h.KeyLength > 16) {
		return nil, fmt.Errorf("%w: key length %d", ErrUnsupportedCrypt, h.KeyLength)
	}
	if h.Revision <= 4 && (len(h.OwnerKey) < 32 || len(h.UserKey) < 32) {
		return nil, fmt.Errorf("%w: /O or /U too short", ErrUnsupportedCrypt)
	}
	if h.Revision >= 5 && (len(h.OwnerKey) < 48 || len(h.UserKey) < 48 || len(h.OwnerE) < 32 || len(h.UserE) < 32) {
		return nil, fmt.Errorf("%w: /O, /U, /OE or /UE too short", ErrUnsupportedCrypt)
	}
	return h, nil
}

func stringBytes(obj generic.PdfObject) []byte {
	if s, ok := obj.(*generic.StringObject); ok {
		return s.Value
	}
	return nil
}

func cryptFilterMethod(cf *generic.DictionaryObject, name string, keyLen *int) (Method, error) {
	if name == "" || name == "Identity" {
		return MethodNone, nil
	}
	if cf == nil || cf.GetDict(name) == nil {
		return MethodNone, fmt.Errorf("%w: crypt filter %q not defined", ErrUnsupportedCrypt, name)
	}
	filter := cf.GetDict(name)
	if l, ok := filter.GetInt("Length"); ok {
		// Some writers give bits, some bytes.
		if l > 32 {
			l /= 8
		}
		*keyLen = int(l)
	}
	switch cfm := filter.GetName("CFM"); cfm {
	case "None", "":
		return MethodNone, nil
	case "V2":
		return MethodRC4, nil
	case "AESV2":
		return MethodAESV2, nil
	case "AESV3":
		return MethodAESV3, nil
	default:
		return MethodNone, fmt.Errorf("%w: crypt filter method %q", ErrUnsupportedCrypt, cfm)
	}
}

// Authenticated reports whether a file key has been derived.
func (h *StandardSecurityHandler) Authenticated() bool {
	return h.key != nil
}

// Authenticate derives the file key from a user or owner password.
func (h *StandardSecurityHandler) Authenticate(password string) error {
	if h.Revision >= 5 {
		pw, err := SASLprep(password)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPassword, err)
		}
		b := []byte(pw)
		if len(b) > 127 {
			b = b[:127]
		}
		if h.authenticateUserR6(b) || h.authenticateOwnerR6(b) {
			return nil
		}
		return ErrInvalidPassword
	}

	pw := legacyPasswordBytes(password)
	if h.authenticateUser(pw) || h.authenticateOwner(pw) {
		return nil
	}
	return ErrInvalidPassword
}

// legacyPasswordBytes encodes a password for revisions 2-4, which expect
// PDFDocEncoding. Latin-1 matches it for every printable character.
func legacyPasswordBytes(password string) []byte {
	if b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(password)); err == nil {
		return b
	}
	return []byte(password)
}

// passwordPadding is the 32-byte pad string from the standard security
// handler.
var passwordPadding = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

func padPassword(password []byte) []byte {
	out := make([]byte, 32)
	n := copy(out, password)
	copy(out[n:], passwordPadding)
	return out
}

// fileKey computes the RC4/AESV2 file key for a padded user password.
func (h *StandardSecurityHandler) fileKey(password []byte) []byte {
	md := md5.New()
	md.Write(padPassword(password))
	md.Write(h.OwnerKey[:32])
	var p [4]byte
	binary.LittleEndian.PutUint32(p[:], uint32(h.Permissions))
	md.Write(p[:])
	md.Write(h.FileID)
	if h.Revision >= 4 && !h.EncryptMetadata {
		md.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	}
	key := md.Sum(nil)

	n := h.KeyLength
	if h.Revision == 2 {
		n = 5
	}
	if h.Revision >= 3 {
		for i := 0; i < 50; i++ {
			sum := md5.Sum(key[:n])
			key = sum[:]
		}
	}
	return key[:n]
}

// userCheck computes the value compared against /U.
func (h *StandardSecurityHandler) userCheck(key []byte) []byte {
	if h.Revision == 2 {
		return rc4XOR(key, passwordPadding)
	}
	md := md5.New()
	md.Write(passwordPadding)
	md.Write(h.FileID)
	out := rc4XOR(key, md.Sum(nil))
	for i := 1; i <= 19; i++ {
		out = rc4XOR(xorKey(key, byte(i)), out)
	}
	return out
}

func xorKey(key []byte, b byte) []byte {
	out := make([]byte, len(key))
	for i := range key {
		out[i] = key[i] ^ b
	}
	return out
}

func (h *StandardSecurityHandler) authenticateUser(password []byte) bool {
	key := h.fileKey(password)
	check := h.userCheck(key)
	if h.Revision == 2 {
		if !bytes.Equal(check, h.UserKey[:32]) {
			return false
		}
	} else if !bytes.Equal(check[:16], h.UserKey[:16]) {
		return false
	}
	h.key = key
	return true
}

// authenticateOwner recovers the user password from /O and checks it.
func (h *StandardSecurityHandler) authenticateOwner(password []byte) bool {
	sum := md5.Sum(padPassword(password))
	digest := sum[:]
	n := h.KeyLength
	if h.Revision == 2 {
		n = 5
	} else {
		for i := 0; i < 50; i++ {
			next := md5.Sum(digest)
			digest = next[:]
		}
	}
	key := digest[:n]

	user := bytes.Clone(h.OwnerKey[:32])
	if h.Revision == 2 {
		user = rc4XOR(key, user)
	} else {
		for i := 19; i >= 0; i-- {
			user = rc4XOR(xorKey(key, byte(i)), user)
		}
	}
	return h.authenticateUser(user)
}

// hashR6 is the revision 5/6 password hash. udata is the 48-byte /U prefix
// when checking the owner password, nil otherwise.
func (h *StandardSecurityHandler) hashR6(password, salt, udata []byte) []byte {
	sum := sha256.New()
	sum.Write(password)
	sum.Write(salt)
	sum.Write(udata)
	k := sum.Sum(nil)
	if h.Revision == 5 {
		return k
	}

	for rounds := 1; ; rounds++ {
		seq := make([]byte, 0, len(password)+len(k)+len(udata))
		seq = append(seq, password...)
		seq = append(seq, k...)
		seq = append(seq, udata...)
		e, err := aesCBCEncryptNoPad(k[:16], k[16:32], bytes.Repeat(seq, 64))
		if err != nil {
			return nil
		}

		var mod int
		for _, b := range e[:16] {
			mod += int(b)
		}
		switch mod % 3 {
		case 0:
			s := sha256.Sum256(e)
			k = s[:]
		case 1:
			s := sha512.Sum384(e)
			k = s[:]
		default:
			s := sha512.Sum512(e)
			k = s[:]
		}

		// At least 64 rounds, then until the last byte of E allows stopping.
		if rounds >= 64 && int(e[len(e)-1]) <= rounds-32 {
			break
		}
	}
	return k[:32]
}

func (h *StandardSecurityHandler) authenticateUserR6(password []byte) bool {
	if !bytes.Equal(h.hashR6(password, h.UserKey[32:40], nil), h.UserKey[:32]) {
		return false
	}
	ik := h.hashR6(password, h.UserKey[40:48], nil)
	key, err := aesCBCDecryptNoPad(ik, make([]byte, 16), h.UserE[:32])
	if err != nil {
		return false
	}
	h.key = key
	return true
}

func (h *StandardSecurityHandler) authenticateOwnerR6(password []byte) bool {
	udata := h.UserKey[:48]
	if !bytes.Equal(h.hashR6(password, h.OwnerKey[32:40], udata), h.OwnerKey[:32]) {
		return false
	}
	ik := h.hashR6(password, h.OwnerKey[40:48], udata)
	key, err := aesCBCDecryptNoPad(ik, make([]byte, 16), h.OwnerE[:32])
	if err != nil {
		return false
	}
	h.key = key
	return true
}

// objectKey derives the per-object key for RC4 and AESV2.
func (h *StandardSecurityHandler) objectKey(objNum, genNum int, m Method) []byte {
	if m == MethodAESV3 {
		return h.key
	}
	md := md5.New()
	md.Write(h.key)
	md.Write([]byte{byte(objNum), byte(objNum >> 8), byte(objNum >> 16), byte(genNum), byte(genNum >> 8)})
	if m == MethodAESV2 {
		md.Write([]byte("sAlT"))
	}
	n := min(len(h.key)+5, 16)
	return md.Sum(nil)[:n]
}

func (h *StandardSecurityHandler) decrypt(data []byte, objNum, genNum int, m Method) ([]byte, error) {
	if h.key == nil {
		return nil, ErrNotAuthenticated
	}
	switch m {
	case MethodNone:
		return data, nil
	case MethodRC4:
		return rc4XOR(h.objectKey(objNum, genNum, m), data), nil
	default:
		if len(data) == 0 {
			return data, nil
		}
		return aesCBCDecrypt(h.objectKey(objNum, genNum, m), data)
	}
}

// DecryptString decrypts a string belonging to object objNum.
func (h *StandardSecurityHandler) DecryptString(data []byte, objNum, genNum int) ([]byte, error) {
	return h.decrypt(data, objNum, genNum, h.StringMethod)
}

// DecryptStream decrypts stream data belonging to object objNum.
func (h *StandardSecurityHandler) DecryptStream(data []byte, objNum, genNum int) ([]byte, error) {
	return h.decrypt(data, objNum, genNum, h.StreamMethod)
}
