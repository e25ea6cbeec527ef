// Package writer defines the tuple sink contract both output formats
// (internal/writer/sqlitewriter and internal/writer/textwriter)
// implement, and the shared blob-image-extraction helper they both call.
package writer

import (
	"fmt"
	"os"

	"github.com/forensiq/sqlrecover/core/recover/sniff"
	"github.com/forensiq/sqlrecover/internal/pathsafe"
	"github.com/zeebo/blake3"
)

// Stats summarizes a completed write.
type Stats struct {
	RowsWritten   int
	MaxArity      int
	ImagesWritten int
}

// Sink receives a flat stream of recovered tuples and turns them into an
// output artifact (a new SQLite database or a delimited text file).
// Implementations must tolerate rows of varying arity: Close is
// responsible for having right-padded every short row with NULL up to
// the maximum arity observed.
type Sink interface {
	// Open prepares the sink to receive rows. arity is the caller's best
	// current estimate of column count; it may grow as WriteTuple sees
	// wider rows.
	Open(arity int) error
	WriteTuple(values []any) error
	Close() (Stats, error)
}

// ImageExtractor turns a BLOB value into a standalone file under dir
// when it is sniffed as a known image format, returning the relative
// filename to substitute for the blob in the emitted row.
type ImageExtractor struct {
	Dir     string
	Enabled bool
}

// Extract writes blob to a content-addressed file under e.Dir if it is
// enabled and sniff.Sniff recognizes its format. It returns ok=false
// (and no error) when extraction is disabled or the blob isn't a
// recognized image, so the caller can fall back to its normal blob
// rendering.
func (e ImageExtractor) Extract(blob []byte) (relPath string, ok bool, err error) {
	if !e.Enabled {
		return "", false, nil
	}
	format, matched := sniff.Sniff(blob)
	if !matched {
		return "", false, nil
	}

	sum := blake3.Sum256(blob)
	name := fmt.Sprintf("image_%x.%s", sum[:6], format)

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating image directory: %w", err)
	}
	full, err := pathsafe.ResolveImagePath(e.Dir, name)
	if err != nil {
		return "", false, err
	}

	// A repeated recovery of the same blob (e.g. the free-list
	// double-parse) hashes to the same filename: skip rewriting it.
	if _, statErr := os.Stat(full); statErr == nil {
		return name, true, nil
	}
	if err := os.WriteFile(full, blob, 0o644); err != nil {
		return "", false, fmt.Errorf("writing image %s: %w", full, err)
	}
	return name, true, nil
}
