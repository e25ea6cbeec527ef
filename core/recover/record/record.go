// Package record decodes a SQLite record: a header-length varint, a
// sequence of serial-type varints totalling header_length bytes, and the
// body values that follow in the same order.
//
// Decoding is all-or-nothing per record: any fault (a truncated varint, a
// value that needs bytes but finds none left in the payload, header_length
// exceeding payload_length) causes Decode to reject the whole record
// silently. A value that is only partly present is not a fault: it is
// clamped to the bytes that remain (see core/recover/serial). The
// driver is expected to skip that cell and keep going — this package never
// panics and never partially returns a tuple.
package record

import (
	"github.com/forensiq/sqlrecover/core/recover/serial"
	"github.com/forensiq/sqlrecover/core/recover/value"
	"github.com/forensiq/sqlrecover/core/recover/varint"
)

// Decode parses payload (already trimmed to payloadLength bytes, or fewer
// if the cell was itself truncated) into an ordered tuple of values.
//
// Steps, matching the SQLite record format exactly:
//  1. Read header_length varint at offset 0.
//  2. Reject if header_length > len(payload) (payload_length).
//  3. Read serial-type varints until header_length bytes have been consumed.
//  4. Decode one value per serial type starting at payload[header_length].
//
// enc selects the text-encoding transcode applied to TEXT values (see
// core/recover/serial); pass serial.UTF8 for plain UTF-8 behavior.
func Decode(payload []byte, enc serial.Encoding) ([]value.Value, bool) {
	headerLen, n, err := varint.Decode(payload)
	if err != nil {
		return nil, false
	}
	if int(headerLen) > len(payload) {
		return nil, false
	}

	var serialTypes []uint64
	offset := n
	for offset < int(headerLen) {
		st, n, err := varint.Decode(payload[offset:])
		if err != nil {
			return nil, false
		}
		serialTypes = append(serialTypes, st)
		offset += n
	}
	// offset must land exactly on header_length; if the varints overran it
	// the header was lying about its own length.
	if offset != int(headerLen) {
		return nil, false
	}

	values := make([]value.Value, 0, len(serialTypes))
	cursor := int(headerLen)
	for _, st := range serialTypes {
		length := serial.Len(st)
		if cursor > len(payload) {
			return nil, false
		}
		body := payload[cursor:]
		if length > 0 && len(body) == 0 {
			// Nothing at all remains for a value that needs bytes: this is
			// "serial-type body running off the payload",
			// distinct from the partial-value truncation Decode tolerates.
			return nil, false
		}
		values = append(values, serial.Decode(body, st, enc))
		cursor += length
	}

	return values, true
}
