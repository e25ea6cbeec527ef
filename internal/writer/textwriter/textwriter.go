// Package textwriter implements writer.Sink by emitting recovered tuples
// as delimited text, one row per line, via encoding/csv.
package textwriter

import (
	"encoding/csv"
	"fmt"
	"os"

	sqlerrors "github.com/forensiq/sqlrecover/core/errors"
	"github.com/forensiq/sqlrecover/internal/logging"
	"github.com/forensiq/sqlrecover/internal/writer"
)

// Writer writes recovered tuples as CSV (or any single-byte delimiter).
// BLOBs are rendered as hex text unless image extraction is active, in
// which case a recognized image is replaced with its extracted filename.
type Writer struct {
	path      string
	delimiter rune
	extractor writer.ImageExtractor

	f      *os.File
	cw     *csv.Writer
	rows   [][]string
	arity  int
	images int
}

// New returns a Writer that will create path once Open is called,
// fields separated by delimiter (',' if the zero value is passed).
func New(path string, delimiter rune, extractor writer.ImageExtractor) *Writer {
	if delimiter == 0 {
		delimiter = ','
	}
	return &Writer{path: path, delimiter: delimiter, extractor: extractor}
}

// Open creates the output file. Rows are buffered until Close so the
// final header row can be padded to the true maximum arity.
func (w *Writer) Open(arity int) error {
	f, err := os.Create(w.path)
	if err != nil {
		return &sqlerrors.IOError{Operation: "create", Path: w.path, Err: err}
	}
	w.f = f
	w.cw = csv.NewWriter(f)
	w.cw.Comma = w.delimiter
	w.arity = arity
	logging.Debug("textwriter: opened output file", "path", w.path)
	return nil
}

// WriteTuple renders one row to strings, sniffing and extracting any
// BLOB value that looks like a known image format.
func (w *Writer) WriteTuple(values []any) error {
	if len(values) > w.arity {
		w.arity = len(values)
	}
	row := make([]string, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case nil:
			row[i] = ""
		case []byte:
			if name, ok, err := w.extractor.Extract(val); err != nil {
				return err
			} else if ok {
				row[i] = name
				w.images++
			} else {
				row[i] = fmt.Sprintf("%x", val)
			}
		default:
			row[i] = fmt.Sprintf("%v", val)
		}
	}
	w.rows = append(w.rows, row)
	return nil
}

// Close writes the field1..fieldN header row, then right-pads every
// buffered row to the observed maximum arity, writes them, flushes, and
// closes the file.
func (w *Writer) Close() (writer.Stats, error) {
	defer w.f.Close()

	header := make([]string, w.arity)
	for i := range header {
		header[i] = fmt.Sprintf("field%d", i+1)
	}
	if err := w.cw.Write(header); err != nil {
		return writer.Stats{}, &sqlerrors.IOError{Operation: "write header row", Path: w.path, Err: err}
	}

	for _, row := range w.rows {
		padded := make([]string, w.arity)
		copy(padded, row)
		if err := w.cw.Write(padded); err != nil {
			return writer.Stats{}, &sqlerrors.IOError{Operation: "write row", Path: w.path, Err: err}
		}
	}
	w.cw.Flush()
	if err := w.cw.Error(); err != nil {
		return writer.Stats{}, &sqlerrors.IOError{Operation: "flush", Path: w.path, Err: err}
	}

	return writer.Stats{RowsWritten: len(w.rows), MaxArity: w.arity, ImagesWritten: w.images}, nil
}
