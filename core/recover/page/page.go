// Package page classifies a single SQLite page and walks its cell-pointer
// array, handing each cell's payload to the record decoder. Any fault
// decoding a single cell is swallowed; the next cell pointer is still
// attempted. This is the core's "recoverable, silent" tier in full: a
// corrupt pointer or a truncated cell never stops the page from yielding
// whatever else it holds.
package page

import (
	"encoding/binary"

	"github.com/forensiq/sqlrecover/core/recover/record"
	"github.com/forensiq/sqlrecover/core/recover/serial"
	"github.com/forensiq/sqlrecover/core/recover/value"
	"github.com/forensiq/sqlrecover/core/recover/varint"
)

const (
	// TypeTableLeaf is the table b-tree leaf page type byte.
	TypeTableLeaf = 0x0D
	// TypeTableInterior is the table b-tree interior page type byte.
	TypeTableInterior = 0x05

	leafCellPtrStart     = 8
	interiorCellPtrStart = 12
)

// Parser walks table-leaf and table-interior pages. InteriorAsLeafCells
// selects between the two interior-cell readings:
// true (the default, matching original_source/extract.py) reads an
// interior cell with the same varint sequence as a leaf cell
// (payload-length, left-child, rowid, payload); false reads the canonical
// SQLite layout instead (4-byte big-endian left-child, key varint, no
// payload), which never yields a record since interior cells carry no
// payload in that layout.
type Parser struct {
	InteriorAsLeafCells bool
	Encoding            serial.Encoding
}

// NewParser returns a Parser defaulting to the forensic heuristic
// (InteriorAsLeafCells = true) and plain UTF-8 text decoding.
func NewParser() *Parser {
	return &Parser{InteriorAsLeafCells: true, Encoding: serial.UTF8}
}

// Parse reads pageData (already sliced to exactly one page_size-byte
// region) as page index pageIndex (0-based) and calls emit once per
// successfully decoded tuple. It never returns an error: an unreadable or
// non-table page simply yields nothing.
func (p *Parser) Parse(pageData []byte, pageIndex uint32, emit func(value.Tuple)) {
	if len(pageData) == 0 {
		return
	}
	pageType := pageData[0]
	if pageType != TypeTableLeaf && pageType != TypeTableInterior {
		return
	}
	if len(pageData) < 5 {
		return
	}
	cellCount := binary.BigEndian.Uint16(pageData[3:5])

	ptrStart := leafCellPtrStart
	interior := pageType == TypeTableInterior
	if interior {
		ptrStart = interiorCellPtrStart
	}

	for i := uint16(0); i < cellCount; i++ {
		ptrOffset := ptrStart + 2*int(i)
		if ptrOffset+2 > len(pageData) {
			continue
		}
		cellOffset := int(binary.BigEndian.Uint16(pageData[ptrOffset : ptrOffset+2]))
		if cellOffset < 0 || cellOffset >= len(pageData) {
			// Corrupt cell pointer: skip it and keep going.
			continue
		}

		tuple, ok := p.parseCell(pageData[cellOffset:], interior)
		if !ok {
			continue
		}
		tuple.Page = pageIndex
		tuple.CellPointer = uint16(cellOffset)
		emit(tuple)
	}
}

// parseCell reads one cell starting at cell[0] and decodes its record.
// interior selects whether a left-child varint is read before the rowid,
// per InteriorAsLeafCells; non-heuristic interior cells never carry a
// payload and so never produce a tuple.
func (p *Parser) parseCell(cell []byte, interior bool) (value.Tuple, bool) {
	if interior && !p.InteriorAsLeafCells {
		return value.Tuple{}, false
	}

	off := 0
	payloadLen, n, err := varint.Decode(cell[off:])
	if err != nil {
		return value.Tuple{}, false
	}
	off += n

	if interior {
		// Left-child page number, read as a varint per the forensic
		// heuristic rather than the canonical 4-byte field.
		// Its value carries no recovery information and is discarded.
		_, n, err := varint.Decode(cell[off:])
		if err != nil {
			return value.Tuple{}, false
		}
		off += n
	}

	// rowid, discarded.
	_, n, err = varint.Decode(cell[off:])
	if err != nil {
		return value.Tuple{}, false
	}
	off += n

	if off > len(cell) {
		return value.Tuple{}, false
	}
	payload := cell[off:]
	if uint64(len(payload)) > payloadLen {
		payload = payload[:payloadLen]
	}

	values, ok := record.Decode(payload, p.Encoding)
	if !ok {
		return value.Tuple{}, false
	}
	return value.Tuple{Values: values}, true
}
