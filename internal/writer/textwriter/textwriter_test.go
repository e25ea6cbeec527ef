package textwriter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/forensiq/sqlrecover/internal/writer"
)

func TestArityPaddingToObservedMaximum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := New(path, ',', writer.ImageExtractor{})

	if err := w.Open(2); err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := w.WriteTuple([]any{int64(1), "a"}); err != nil {
		t.Fatalf("WriteTuple error: %v", err)
	}
	if err := w.WriteTuple([]any{int64(2), "b", "c", "d", "e"}); err != nil {
		t.Fatalf("WriteTuple error: %v", err)
	}
	stats, err := w.Close()
	if err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if stats.MaxArity != 5 {
		t.Fatalf("MaxArity = %d, want 5", stats.MaxArity)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (1 header + 2 data)", len(rows))
	}
	wantHeader := []string{"field1", "field2", "field3", "field4", "field5"}
	for i, want := range wantHeader {
		if rows[0][i] != want {
			t.Errorf("header field %d = %q, want %q", i, rows[0][i], want)
		}
	}
	if len(rows[1]) != 5 {
		t.Fatalf("first data row has %d fields, want 5 (right-padded)", len(rows[1]))
	}
	for i := 2; i < 5; i++ {
		if rows[1][i] != "" {
			t.Errorf("first data row field %d = %q, want empty (NULL padding)", i, rows[1][i])
		}
	}
}
