// Package sqlitewriter implements writer.Sink by materializing recovered
// tuples into a brand-new SQLite database file — never the source file —
// via core/sqlite's pure-Go/CGO driver selection.
package sqlitewriter

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	sqlerrors "github.com/forensiq/sqlrecover/core/errors"
	"github.com/forensiq/sqlrecover/core/sqlite"
	"github.com/forensiq/sqlrecover/internal/logging"
	"github.com/forensiq/sqlrecover/internal/writer"
)

// Writer writes recovered tuples into one generic table,
// `recovered_data(field1, field2, ...)`, sized to the maximum arity
// observed, inside a single transaction.
type Writer struct {
	path     string
	db       *sql.DB
	tx       *sql.Tx
	arity    int
	rows     [][]any
	extractor writer.ImageExtractor
	images   int
}

// New returns a Writer that will create path (overwritten if it already
// exists) once Open is called.
func New(path string, extractor writer.ImageExtractor) *Writer {
	return &Writer{path: path, extractor: extractor}
}

// Open starts the run. The table itself isn't created until Close, once
// the true maximum arity across every row is known.
func (w *Writer) Open(arity int) error {
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return &sqlerrors.IOError{Operation: "remove existing", Path: w.path, Err: err}
	}
	db, err := sqlite.Open(w.path)
	if err != nil {
		return &sqlerrors.IOError{Operation: "open", Path: w.path, Err: err}
	}
	w.db = db
	w.arity = arity
	logging.Debug("sqlitewriter: opened output database", "path", w.path, "driver", sqlite.DriverType())
	return nil
}

// WriteTuple buffers one row, substituting extracted-image filenames for
// any BLOB value the extractor recognizes.
func (w *Writer) WriteTuple(values []any) error {
	if len(values) > w.arity {
		w.arity = len(values)
	}
	row := make([]any, len(values))
	for i, v := range values {
		if blob, ok := v.([]byte); ok {
			if name, ok, err := w.extractor.Extract(blob); err != nil {
				return err
			} else if ok {
				row[i] = name
				w.images++
				continue
			}
		}
		row[i] = v
	}
	w.rows = append(w.rows, row)
	return nil
}

// Close creates the generic table at the observed maximum arity, inserts
// every buffered row inside one transaction (right-padding short rows
// with NULL to match), commits, and closes the database.
func (w *Writer) Close() (writer.Stats, error) {
	defer w.db.Close()

	fields := make([]string, w.arity)
	for i := range fields {
		fields[i] = fmt.Sprintf("field%d", i+1)
	}
	createSQL := fmt.Sprintf("CREATE TABLE recovered_data (%s)", strings.Join(fields, ", "))
	if _, err := w.db.Exec(createSQL); err != nil {
		return writer.Stats{}, &sqlerrors.IOError{Operation: "create recovered_data table", Path: w.path, Err: err}
	}

	tx, err := w.db.Begin()
	if err != nil {
		return writer.Stats{}, &sqlerrors.IOError{Operation: "begin transaction", Path: w.path, Err: err}
	}
	w.tx = tx

	placeholders := make([]string, w.arity)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf("INSERT INTO recovered_data VALUES (%s)", strings.Join(placeholders, ", "))
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		tx.Rollback()
		return writer.Stats{}, &sqlerrors.IOError{Operation: "prepare insert", Path: w.path, Err: err}
	}
	defer stmt.Close()

	for _, row := range w.rows {
		padded := make([]any, w.arity)
		copy(padded, row)
		if _, err := stmt.Exec(padded...); err != nil {
			tx.Rollback()
			return writer.Stats{}, &sqlerrors.IOError{Operation: "insert recovered row", Path: w.path, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return writer.Stats{}, &sqlerrors.IOError{Operation: "commit transaction", Path: w.path, Err: err}
	}

	return writer.Stats{RowsWritten: len(w.rows), MaxArity: w.arity, ImagesWritten: w.images}, nil
}
