// Package varint decodes SQLite's big-endian 1-to-9-byte variable-length
// unsigned integer encoding.
package varint

import "errors"

// ErrTruncated is returned when the slice ends before the varint does.
var ErrTruncated = errors.New("varint: truncated")

// Decode reads a varint from the front of p.
//
// Each of the first 8 bytes contributes its low 7 bits to the result,
// high bit set meaning "more bytes follow". If an 8th continuation byte is
// reached, a 9th byte contributes all 8 of its bits with no continuation
// bit of its own. Decode stops at the first byte with the high bit clear,
// or unconditionally after 9 bytes.
//
// Decode never interprets sign; that is the serial-type decoder's job.
func Decode(p []byte) (value uint64, consumed int, err error) {
	var v uint64
	for i := 0; i < 8; i++ {
		if i >= len(p) {
			return 0, 0, ErrTruncated
		}
		b := p[i]
		v = (v << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	// Ninth byte: all 8 bits, no continuation semantics.
	if len(p) < 9 {
		return 0, 0, ErrTruncated
	}
	v = (v << 8) | uint64(p[8])
	return v, 9, nil
}

// Len returns the number of bytes Encode would use for v.
func Len(v uint64) int {
	n := 1
	for shifted := v >> 7; shifted != 0 && n < 9; shifted >>= 7 {
		n++
	}
	return n
}

// Encode appends v to buf using SQLite's varint encoding and returns the
// extended slice. Used by tests and by the record fixtures that exercise
// the decoder; the forensic core itself never encodes.
func Encode(buf []byte, v uint64) []byte {
	if v <= 0x7f {
		return append(buf, byte(v))
	}
	// 9-byte case: values needing all 64 bits of the top byte group.
	if v > 0xffffffffffffff {
		var tmp [9]byte
		tmp[8] = byte(v)
		w := v >> 8
		for i := 7; i >= 0; i-- {
			tmp[i] = byte(w&0x7f) | 0x80
			w >>= 7
		}
		return append(buf, tmp[:]...)
	}

	n := Len(v)
	var tmp [8]byte
	for i := n - 1; i >= 0; i-- {
		b := byte(v & 0x7f)
		if i != n-1 {
			b |= 0x80
		}
		tmp[i] = b
		v >>= 7
	}
	return append(buf, tmp[:n]...)
}
