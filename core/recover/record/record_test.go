package record

import (
	"testing"

	"github.com/forensiq/sqlrecover/core/recover/serial"
	"github.com/forensiq/sqlrecover/core/recover/value"
	"github.com/forensiq/sqlrecover/core/recover/varint"
)

// buildRecord assembles a raw SQLite record byte sequence from serial types
// and their already-encoded bodies, mirroring exactly what a real SQLite
// writer would produce.
func buildRecord(serialTypes []uint64, bodies [][]byte) []byte {
	var header []byte
	for _, st := range serialTypes {
		header = varint.Encode(header, st)
	}
	headerLen := len(header) + varint.Len(uint64(len(header)+1))
	// header_length varint itself may push the total over a varint size
	// boundary; iterate once to settle (mirrors SQLite's own self-reference).
	for {
		n := varint.Len(uint64(headerLen))
		total := n + len(header)
		if total == headerLen {
			break
		}
		headerLen = total
	}

	var out []byte
	out = varint.Encode(out, uint64(headerLen))
	out = append(out, header...)
	for _, b := range bodies {
		out = append(out, b...)
	}
	return out
}

func TestDecodeMinimalRow(t *testing.T) {
	// (42, "hi") -> serial types: int8(1), text len 2 (13+2*2=17)
	payload := buildRecord([]uint64{1, 17}, [][]byte{{42}, []byte("hi")})

	values, ok := Decode(payload, serial.UTF8)
	if !ok {
		t.Fatal("Decode rejected a well-formed record")
	}
	if len(values) != 2 {
		t.Fatalf("got %d values, want 2", len(values))
	}
	if values[0].Kind != value.Integer || values[0].Int != 42 {
		t.Errorf("column 0 = %+v, want int 42", values[0])
	}
	if values[1].Kind != value.Text || values[1].Text != "hi" {
		t.Errorf("column 1 = %+v, want text \"hi\"", values[1])
	}
}

func TestDecodeHeaderLengthExceedsPayload(t *testing.T) {
	payload := []byte{0x09, 0x01} // claims a 9-byte header but payload is 2 bytes
	if _, ok := Decode(payload, serial.UTF8); ok {
		t.Error("Decode accepted a record whose header_length exceeds payload_length")
	}
}

func TestDecodeTruncatedTextReplacesInvalidUTF8(t *testing.T) {
	// Declare text length 4 (serial type 21) but only supply 4 bytes with
	// an invalid UTF-8 sequence inside.
	payload := buildRecord([]uint64{21}, [][]byte{{'h', 'i', 0xff, 0xfe}})
	values, ok := Decode(payload, serial.UTF8)
	if !ok {
		t.Fatal("Decode rejected a record with invalid UTF-8 body; should best-effort decode")
	}
	if values[0].Kind != value.Text {
		t.Fatalf("got kind %v, want Text", values[0].Kind)
	}
	if values[0].Text[:2] != "hi" {
		t.Errorf("text = %q, want prefix \"hi\"", values[0].Text)
	}
}

func TestDecodeValueRunningOffPayloadRejectsRecord(t *testing.T) {
	// serial type 6 (int64, needs 8 bytes) but payload ends immediately
	// after the header with zero body bytes available.
	var header []byte
	header = varint.Encode(header, 6)
	headerLen := len(header) + 1
	var payload []byte
	payload = varint.Encode(payload, uint64(headerLen))
	payload = append(payload, header...)
	// no body bytes at all

	if _, ok := Decode(payload, serial.UTF8); ok {
		t.Error("Decode accepted a record whose value has zero bytes available")
	}
}

func TestDecodeSerialTypeRoundTrips(t *testing.T) {
	cases := []struct {
		name string
		st   uint64
		body []byte
		want value.Value
	}{
		{"null", 0, nil, value.NullValue()},
		{"zero constant", 8, nil, value.IntValue(0)},
		{"one constant", 9, nil, value.IntValue(1)},
		{"int8", 1, []byte{0xFE}, value.IntValue(-2)},
		{"blob len 3", 18, []byte{1, 2, 3}, value.BlobValue([]byte{1, 2, 3})},
		{"text len 1", 15, []byte("a"), value.TextValue("a")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := buildRecord([]uint64{tc.st}, [][]byte{tc.body})
			values, ok := Decode(payload, serial.UTF8)
			if !ok {
				t.Fatal("Decode rejected a well-formed single-column record")
			}
			got := values[0]
			if got.Kind != tc.want.Kind {
				t.Fatalf("kind = %v, want %v", got.Kind, tc.want.Kind)
			}
			switch tc.want.Kind {
			case value.Integer:
				if got.Int != tc.want.Int {
					t.Errorf("int = %d, want %d", got.Int, tc.want.Int)
				}
			case value.Text:
				if got.Text != tc.want.Text {
					t.Errorf("text = %q, want %q", got.Text, tc.want.Text)
				}
			case value.Blob:
				if string(got.Blob) != string(tc.want.Blob) {
					t.Errorf("blob = %x, want %x", got.Blob, tc.want.Blob)
				}
			}
		})
	}
}
