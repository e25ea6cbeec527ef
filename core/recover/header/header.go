// Package header parses the 100-byte SQLite file header. Only the fields
// the recovery driver needs are exposed: page size, the free-list trunk
// page number, the free-list page count, and the declared text encoding.
// Every other header field (schema cookie, application ID, version
// counters, ...) is irrelevant to recovery and is not parsed.
package header

import (
	"encoding/binary"

	sqlerrors "github.com/forensiq/sqlrecover/core/errors"
)

const (
	// Size is the fixed length of the SQLite file header.
	Size = 100

	offsetMagic         = 0
	offsetPageSize      = 16
	offsetFreelistTrunk = 32
	offsetFreelistCount = 36
	offsetTextEncoding  = 56

	magicLen = 16
)

// magic is the 16-byte signature every SQLite 3 file begins with.
var magic = [magicLen]byte{'S', 'Q', 'L', 'i', 't', 'e', ' ', 'f', 'o', 'r', 'm', 'a', 't', ' ', '3', 0}

// Encoding mirrors the header's text_encoding field (offset 56).
type Encoding uint32

const (
	EncodingUTF8    Encoding = 1
	EncodingUTF16LE Encoding = 2
	EncodingUTF16BE Encoding = 3
)

// Header is the subset of the 100-byte SQLite file header the recovery
// driver reads.
type Header struct {
	// PageSize is already resolved: the on-disk special case of 1 meaning
	// 65536 has been applied, so PageSize is always the true byte count.
	PageSize uint32
	// FreelistTrunk is the 1-based page number of the first free-list
	// trunk page; 0 means the free list is empty.
	FreelistTrunk uint32
	// FreelistCount is the total number of pages currently on the free
	// list, across every trunk and leaf.
	FreelistCount uint32
	// TextEncoding is the database's declared text encoding, used to
	// transcode TEXT values (see core/recover/serial).
	TextEncoding Encoding
}

// Parse validates and decodes the file header from the front of data.
//
// A file shorter than Size bytes, one whose magic does not match, or one
// whose page-size field is 0 is a fatal condition: Parse returns a *sqlerrors.HeaderError
// wrapping sqlerrors.ErrFatalHeader and the driver aborts the run without
// emitting any record.
func Parse(data []byte) (Header, error) {
	if len(data) < Size {
		return Header{}, &sqlerrors.HeaderError{Reason: "file shorter than 100 bytes"}
	}
	if [magicLen]byte(data[offsetMagic:offsetMagic+magicLen]) != magic {
		return Header{}, &sqlerrors.HeaderError{Reason: "bad magic"}
	}

	rawPageSize := binary.BigEndian.Uint16(data[offsetPageSize : offsetPageSize+2])
	pageSize := uint32(rawPageSize)
	if rawPageSize == 1 {
		pageSize = 65536
	}
	if pageSize == 0 {
		return Header{}, &sqlerrors.HeaderError{Reason: "invalid page size"}
	}

	return Header{
		PageSize:      pageSize,
		FreelistTrunk: binary.BigEndian.Uint32(data[offsetFreelistTrunk : offsetFreelistTrunk+4]),
		FreelistCount: binary.BigEndian.Uint32(data[offsetFreelistCount : offsetFreelistCount+4]),
		TextEncoding:  Encoding(binary.BigEndian.Uint32(data[offsetTextEncoding : offsetTextEncoding+4])),
	}, nil
}
