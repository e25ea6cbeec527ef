package driver

import (
	"encoding/binary"
	"errors"
	"testing"

	sqlerrors "github.com/forensiq/sqlrecover/core/errors"
	"github.com/forensiq/sqlrecover/core/recover/dedup"
	"github.com/forensiq/sqlrecover/core/recover/value"
	"github.com/forensiq/sqlrecover/core/recover/varint"
)

const pageSize = 512

func buildRecordPayload(n int8) []byte {
	var header []byte
	header = varint.Encode(header, 1)
	headerLen := len(header) + 1
	var out []byte
	out = varint.Encode(out, uint64(headerLen))
	out = append(out, header...)
	return append(out, byte(n))
}

func buildLeafCell(rowid uint64, payload []byte) []byte {
	var cell []byte
	cell = varint.Encode(cell, uint64(len(payload)))
	cell = varint.Encode(cell, rowid)
	return append(cell, payload...)
}

func writeLeafPage(data []byte, pageIndex int, cells [][]byte) {
	page := data[pageIndex*pageSize : (pageIndex+1)*pageSize]
	page[0] = 0x0D
	binary.BigEndian.PutUint16(page[3:5], uint16(len(cells)))
	cursor := pageSize
	ptrs := make([]int, len(cells))
	for i, cell := range cells {
		cursor -= len(cell)
		copy(page[cursor:], cell)
		ptrs[i] = cursor
	}
	for i, p := range ptrs {
		binary.BigEndian.PutUint16(page[8+2*i:], uint16(p))
	}
}

func buildImage(numPages int) []byte {
	data := make([]byte, pageSize*numPages)
	copy(data, []byte("SQLite format 3\x00"))
	binary.BigEndian.PutUint16(data[16:18], pageSize)
	return data
}

func TestRunFatalOnBadHeader(t *testing.T) {
	data := make([]byte, 50)
	_, err := Run(data, Options{}, func(value.Tuple) {})
	if !errors.Is(err, sqlerrors.ErrFatalHeader) {
		t.Fatalf("error = %v, want ErrFatalHeader", err)
	}
}

func TestRunEmptyDatabaseSignalsEmptyResult(t *testing.T) {
	data := buildImage(2)
	_, err := Run(data, Options{}, func(value.Tuple) {})
	if !errors.Is(err, sqlerrors.ErrEmptyResult) {
		t.Fatalf("error = %v, want ErrEmptyResult", err)
	}
}

func TestRunRecoversSingleRow(t *testing.T) {
	data := buildImage(2)
	writeLeafPage(data, 1, [][]byte{buildLeafCell(1, buildRecordPayload(42))})

	var got []value.Tuple
	result, err := Run(data, Options{}, func(tp value.Tuple) { got = append(got, tp) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Values[0].Int != 42 {
		t.Fatalf("got %+v, want one tuple with int 42", got)
	}
	if result.TuplesEmitted != 1 {
		t.Errorf("TuplesEmitted = %d, want 1", result.TuplesEmitted)
	}
}

func TestRunDeterministicCountAcrossReRuns(t *testing.T) {
	data := buildImage(3)
	writeLeafPage(data, 1, [][]byte{buildLeafCell(1, buildRecordPayload(1)), buildLeafCell(2, buildRecordPayload(2))})
	writeLeafPage(data, 2, [][]byte{buildLeafCell(3, buildRecordPayload(3))})

	var firstCount, secondCount int
	if _, err := Run(data, Options{}, func(value.Tuple) { firstCount++ }); err != nil {
		t.Fatalf("first run error: %v", err)
	}
	if _, err := Run(data, Options{}, func(value.Tuple) { secondCount++ }); err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if firstCount != secondCount {
		t.Errorf("first run emitted %d, second run emitted %d", firstCount, secondCount)
	}
}

// buildFreelistImage constructs a 4-page image where page index 1 holds
// one recoverable row, and page index 2 is a free-list trunk page (with
// no further trunk and one leaf) whose sole leaf points back at page
// index 1 — exactly the layout that gets parsed twice by design.
func buildFreelistImage() []byte {
	data := buildImage(4)
	writeLeafPage(data, 1, [][]byte{buildLeafCell(1, buildRecordPayload(7))})
	binary.BigEndian.PutUint32(data[32:36], 3) // freelist trunk = page 3 (1-based) = index 2
	binary.BigEndian.PutUint32(data[36:40], 1) // declared total = 1 leaf

	trunk := data[pageSize*2 : pageSize*2+12]
	binary.BigEndian.PutUint32(trunk[0:4], 0) // no further trunk
	binary.BigEndian.PutUint32(trunk[4:8], 1) // one leaf
	binary.BigEndian.PutUint32(trunk[8:12], 2) // leaf = page 2 (1-based) = index 1
	return data
}

func TestRunFreelistPageIsSweptTwiceWithoutDedup(t *testing.T) {
	data := buildFreelistImage()

	var got []value.Tuple
	_, err := Run(data, Options{}, func(tp value.Tuple) { got = append(got, tp) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d tuples, want 2 (page swept once linearly, once via free list)", len(got))
	}
}

func TestRunDedupCollapsesFreelistDoubleParse(t *testing.T) {
	data := buildFreelistImage()

	var got []value.Tuple
	_, err := Run(data, Options{Dedup: dedup.New(16)}, func(tp value.Tuple) { got = append(got, tp) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d tuples, want 1 (deduped)", len(got))
	}
}
