// Package value defines the typed union recovered tuples are built from.
package value

import "fmt"

// Kind identifies which field of a Value is populated.
type Kind int

const (
	// Null is SQLite serial types 0, 10 and 11 (10/11 are reserved and
	// decode to null per the serial-type table).
	Null Kind = iota
	// Integer covers serial types 1-6, 8 and 9 (the two no-storage
	// constants 0 and 1 included).
	Integer
	// Float is serial type 7, an IEEE-754 big-endian double.
	Float
	// Text is any odd serial type >= 13.
	Text
	// Blob is any even serial type >= 12.
	Blob
)

// Value is one column of a recovered tuple. Exactly one of Int, Float, Text
// or Blob is meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Int  int64
	Float float64
	Text string
	Blob []byte
}

// NullValue returns a null value.
func NullValue() Value { return Value{Kind: Null} }

// IntValue returns an integer value.
func IntValue(i int64) Value { return Value{Kind: Integer, Int: i} }

// FloatValue returns a float value.
func FloatValue(f float64) Value { return Value{Kind: Float, Float: f} }

// TextValue returns a text value. The caller owns a copy, not the original
// page buffer.
func TextValue(s string) Value { return Value{Kind: Text, Text: s} }

// BlobValue returns a blob value. b is copied so the value outlives the
// page buffer it was decoded from.
func BlobValue(b []byte) Value {
	owned := make([]byte, len(b))
	copy(owned, b)
	return Value{Kind: Blob, Blob: owned}
}

// IsNull reports whether v holds a null.
func (v Value) IsNull() bool { return v.Kind == Null }

// String renders v for diagnostics and text-writer output; it is not used
// by the core decoder itself.
func (v Value) String() string {
	switch v.Kind {
	case Null:
		return ""
	case Integer:
		return fmt.Sprintf("%d", v.Int)
	case Float:
		return fmt.Sprintf("%g", v.Float)
	case Text:
		return v.Text
	case Blob:
		return fmt.Sprintf("%x", v.Blob)
	default:
		return ""
	}
}

// Tuple is an ordered, recovered row. Column order matches on-disk column
// order in the record that produced it.
type Tuple struct {
	Values []Value
	// Page is the 0-based page index the tuple was recovered from.
	Page uint32
	// CellPointer is the page-relative byte offset of the cell the tuple
	// was decoded from, used only for dedup keying (see core/recover/dedup).
	CellPointer uint16
}
