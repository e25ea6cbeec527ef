// Package serial maps a SQLite serial-type code plus a byte slice to a
// typed value, per the table in the SQLite record format.
//
//	code          type                          length
//	0             null                          0
//	1             int8                          1
//	2             int16 big-endian               2
//	3             int24 big-endian signed         3
//	4             int32 big-endian               4
//	5             int48 big-endian signed         6
//	6             int64 big-endian               8
//	7             float64 big-endian IEEE-754     8
//	8             integer constant 0              0
//	9             integer constant 1              0
//	10, 11        reserved -> null                 0
//	N>=12, even   blob of (N-12)/2 bytes           (N-12)/2
//	N>=13, odd    text of (N-13)/2 bytes           (N-13)/2
//
// Out-of-bounds reads truncate silently: the decoder returns whatever bytes
// are available rather than failing, so a cell clipped by prior corruption
// still yields a best-effort value. Malformed UTF-8 in a text value is
// replaced, never rejected. This package never returns an error for that
// reason; only Len (the number of bytes the value claims) is ever a lie
// about how many bytes were actually available to read.
package serial

import (
	"math"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/forensiq/sqlrecover/core/recover/value"
)

// Encoding identifies the header-declared text encoding used to transcode
// TEXT values. This does not change any length computation or invariant in
// the SQLite record format — it only changes what string a TEXT serial
// type produces.
type Encoding int

const (
	// UTF8 is the default and the only encoding the core decoder
	// describes.
	UTF8 Encoding = 1
	// UTF16LE indicates the database was authored with
	// PRAGMA encoding = 'UTF-16le'.
	UTF16LE Encoding = 2
	// UTF16BE indicates PRAGMA encoding = 'UTF-16be'.
	UTF16BE Encoding = 3
)

// Len returns the number of bytes the body of a value with serial type st
// occupies, per the table above. This is the value's *declared* length; it
// may exceed what is actually available in a truncated payload.
func Len(st uint64) int {
	switch {
	case st == 0, st == 8, st == 9, st == 10, st == 11:
		return 0
	case st == 1:
		return 1
	case st == 2:
		return 2
	case st == 3:
		return 3
	case st == 4:
		return 4
	case st == 5:
		return 6
	case st == 6, st == 7:
		return 8
	case st >= 12 && st%2 == 0:
		return int((st - 12) / 2)
	case st >= 13:
		return int((st - 13) / 2)
	default:
		return 0
	}
}

// Decode reads a value of serial type st from the front of data (already
// sliced to however many bytes are actually available, which may be fewer
// than Len(st) demands). It never fails: a read that runs past the end of
// data is clamped to what's there, and malformed UTF-8 is replaced rather
// than rejected.
//
// enc selects the transcoding applied to TEXT values; UTF8 (the zero value
// behaves as UTF8) is a no-op decode via ReplaceAll-equivalent validation.
func Decode(data []byte, st uint64, enc Encoding) value.Value {
	switch {
	case st == 0, st == 10, st == 11:
		return value.NullValue()
	case st == 8:
		return value.IntValue(0)
	case st == 9:
		return value.IntValue(1)
	case st == 1:
		b := clamp(data, 1)
		if len(b) < 1 {
			return value.IntValue(0)
		}
		return value.IntValue(int64(int8(b[0])))
	case st == 2:
		b := clamp(data, 2)
		return value.IntValue(int64(int16(beUint(b, 2))))
	case st == 3:
		b := clamp(data, 3)
		return value.IntValue(int64(signExtend(beUint(b, 3), 24)))
	case st == 4:
		b := clamp(data, 4)
		return value.IntValue(int64(int32(beUint(b, 4))))
	case st == 5:
		b := clamp(data, 6)
		return value.IntValue(signExtend(beUint(b, 6), 48))
	case st == 6:
		b := clamp(data, 8)
		return value.IntValue(int64(beUint(b, 8)))
	case st == 7:
		b := clamp(data, 8)
		bits := beUint(b, 8)
		return value.FloatValue(math.Float64frombits(bits))
	case st >= 12 && st%2 == 0:
		n := Len(st)
		return value.BlobValue(clamp(data, n))
	case st >= 13:
		n := Len(st)
		raw := clamp(data, n)
		return value.TextValue(decodeText(raw, enc))
	default:
		return value.NullValue()
	}
}

// clamp returns the first n bytes of data, or all of data if it is shorter
// than n. This is the single point where "out-of-bounds reads truncate
// silently" is implemented.
func clamp(data []byte, n int) []byte {
	if n > len(data) {
		return data
	}
	return data[:n]
}

// beUint reads up to width bytes of b as a big-endian unsigned integer,
// zero-extending on the left if b is shorter than width (a truncated read).
func beUint(b []byte, width int) uint64 {
	var v uint64
	for i := 0; i < len(b) && i < width; i++ {
		v = (v << 8) | uint64(b[i])
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// signExtend sign-extends the low `bits` bits of v (already left-aligned at
// bit `bits`) to a full int64, per two's-complement.
func signExtend(v uint64, bits int) int64 {
	shift := uint(64 - bits)
	return int64(v<<shift) >> shift
}

func decodeText(raw []byte, enc Encoding) string {
	switch enc {
	case UTF16LE:
		return decodeUTF16(raw, unicode.LittleEndian)
	case UTF16BE:
		return decodeUTF16(raw, unicode.BigEndian)
	default:
		if utf8.Valid(raw) {
			return string(raw)
		}
		return toValidUTF8(raw)
	}
}

// toValidUTF8 rewrites raw byte-by-byte, substituting U+FFFD for any
// sequence utf8.DecodeRune rejects, instead of failing the whole value.
func toValidUTF8(raw []byte) string {
	out := make([]rune, 0, len(raw))
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size <= 1 {
			out = append(out, utf8.RuneError)
			i++
			continue
		}
		out = append(out, r)
		i += size
	}
	return string(out)
}

// decodeUTF16 transcodes raw (a database authored with
// PRAGMA encoding='UTF-16le'/'UTF-16be') to UTF-8 via x/text's UTF-16
// decoder, which substitutes the Unicode replacement character for an
// unpaired surrogate or a trailing odd byte rather than failing. This is
// the text-encoding re-decode path layered on top of the plain UTF-8 core
// decoder; it never changes Len(st) or any cell/record
// boundary — raw is already clamped to the declared byte length by the
// caller.
func decodeUTF16(raw []byte, endian unicode.Endianness) string {
	dec := unicode.UTF16(endian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(raw)
	if err != nil {
		return toValidUTF8(raw)
	}
	return string(out)
}
