// Package driver implements the Recovery Driver: it validates the file
// header, walks the free list, sweeps every page in the file linearly,
// then sweeps every free-list page again, handing each recovered tuple to
// a sink. Header validation is the only fatal condition in the whole
// pipeline; every fault below that level is swallowed or downgraded to a
// diagnostic.
package driver

import (
	"log/slog"

	sqlerrors "github.com/forensiq/sqlrecover/core/errors"
	"github.com/forensiq/sqlrecover/core/recover/dedup"
	"github.com/forensiq/sqlrecover/core/recover/freelist"
	"github.com/forensiq/sqlrecover/core/recover/header"
	"github.com/forensiq/sqlrecover/core/recover/page"
	"github.com/forensiq/sqlrecover/core/recover/serial"
	"github.com/forensiq/sqlrecover/core/recover/value"
	"github.com/google/uuid"
)

// Reporter receives best-effort progress notifications as the driver
// advances. A nil Reporter is valid; Options.reporter() always returns a
// usable value so callers never need a nil check.
type Reporter interface {
	PagesScanned(n int)
	FreelistPagesScanned(n int)
	TuplesRecovered(n int)
}

type noopReporter struct{}

func (noopReporter) PagesScanned(int)         {}
func (noopReporter) FreelistPagesScanned(int) {}
func (noopReporter) TuplesRecovered(int)      {}

// Options configures a recovery run. Every field is optional; the zero
// value runs with no dedup, no progress reporting and the forensic
// interior-cell heuristic enabled. TEXT values are always decoded per the
// file header's declared text encoding (UTF-16LE/BE transcoded, anything
// else treated as UTF-8); no option changes that.
type Options struct {
	// InteriorAsLeafCells selects the interior-cell reading; see
	// core/recover/page. Defaults to true.
	InteriorAsLeafCells *bool
	// Dedup, if set, collapses the free-list double-parse by (page,
	// cell-pointer) identity instead of emitting both occurrences.
	Dedup *dedup.Cache
	// Reporter receives progress events. Defaults to a no-op.
	Reporter Reporter
	// Logger receives structured diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
	// Diagnostic, if set, additionally receives every free-list anomaly
	// line verbatim (see core/recover/freelist).
	Diagnostic func(string)
}

func (o Options) interiorAsLeafCells() bool {
	if o.InteriorAsLeafCells == nil {
		return true
	}
	return *o.InteriorAsLeafCells
}

func (o Options) reporter() Reporter {
	if o.Reporter == nil {
		return noopReporter{}
	}
	return o.Reporter
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Result summarizes a completed run.
type Result struct {
	RunID          uuid.UUID
	PagesScanned   int
	FreelistPages  []uint32
	TuplesEmitted  int
}

// Run performs the full recovery pipeline over data, calling emit once
// per recovered tuple in emission order, and returns a Result.
//
// If no tuple was emitted by the time the run completes, Run returns
// sqlerrors.ErrEmptyResult alongside the (zero-tuple) Result — this is
// a distinct "empty-result" condition, not a fault.
// A malformed file header is the one fatal condition: Run returns
// *sqlerrors.HeaderError and nothing is emitted.
func Run(data []byte, opts Options, emit func(value.Tuple)) (Result, error) {
	runID := uuid.New()
	log := opts.logger().With("run_id", runID.String())

	hdr, err := header.Parse(data)
	if err != nil {
		return Result{RunID: runID}, err
	}
	log.Debug("header parsed", "page_size", hdr.PageSize, "freelist_trunk", hdr.FreelistTrunk, "freelist_count", hdr.FreelistCount)

	enc := serial.Encoding(hdr.TextEncoding)
	if enc != serial.UTF16LE && enc != serial.UTF16BE {
		enc = serial.UTF8
	}
	parser := &page.Parser{InteriorAsLeafCells: opts.interiorAsLeafCells(), Encoding: enc}

	var freePages []uint32
	if hdr.FreelistTrunk != 0 {
		diag := opts.Diagnostic
		freePages = freelist.Walk(data, hdr.PageSize, hdr.FreelistTrunk, hdr.FreelistCount, func(msg string) {
			log.Warn(msg)
			if diag != nil {
				diag(msg)
			}
		})
	}

	reporter := opts.reporter()
	tupleCount := 0
	wrap := func(tp value.Tuple) {
		if opts.Dedup != nil && opts.Dedup.Seen(tp.Page, tp.CellPointer) {
			return
		}
		tupleCount++
		reporter.TuplesRecovered(tupleCount)
		emit(tp)
	}

	numPages := int(uint64(len(data)) / uint64(hdr.PageSize))
	for i := 0; i < numPages; i++ {
		start := uint64(i) * uint64(hdr.PageSize)
		end := start + uint64(hdr.PageSize)
		parser.Parse(data[start:end], uint32(i), wrap)
		reporter.PagesScanned(i + 1)
	}

	for idx, pageIndex := range freePages {
		start := uint64(pageIndex) * uint64(hdr.PageSize)
		end := start + uint64(hdr.PageSize)
		if end > uint64(len(data)) {
			continue
		}
		parser.Parse(data[start:end], pageIndex, wrap)
		reporter.FreelistPagesScanned(idx + 1)
	}

	result := Result{
		RunID:         runID,
		PagesScanned:  numPages,
		FreelistPages: freePages,
		TuplesEmitted: tupleCount,
	}
	if tupleCount == 0 {
		log.Warn("recovery run produced no tuples")
		return result, sqlerrors.ErrEmptyResult
	}
	log.Info("recovery run complete", "tuples", tupleCount, "pages_scanned", numPages)
	return result, nil
}
