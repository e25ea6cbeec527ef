// Command sqlrecover is a forensic SQLite 3 data-recovery tool. It walks
// the raw page structure of a possibly-damaged database image —
// including pages on the free list that still hold unlinked residual
// rows — and writes every recoverable tuple to a new SQLite database or
// a delimited text file.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	sqlerrors "github.com/forensiq/sqlrecover/core/errors"
	"github.com/forensiq/sqlrecover/core/recover/dedup"
	"github.com/forensiq/sqlrecover/core/recover/driver"
	"github.com/forensiq/sqlrecover/core/recover/filter"
	"github.com/forensiq/sqlrecover/core/recover/value"
	"github.com/forensiq/sqlrecover/internal/logging"
	"github.com/forensiq/sqlrecover/internal/progress"
	"github.com/forensiq/sqlrecover/internal/writer"
	"github.com/forensiq/sqlrecover/internal/writer/sqlitewriter"
	"github.com/forensiq/sqlrecover/internal/writer/textwriter"
)

const version = "0.1.0"

// CLI defines the command-line interface for sqlrecover.
var CLI struct {
	Recover RecoverCmd `cmd:"" help:"Recover tuples from a SQLite 3 database image"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// RecoverCmd mirrors original_source/extract.py's argparse surface
// (-i/-o/-f/-e/-d), plus the forensic toggles this repository adds.
type RecoverCmd struct {
	In                  string `name:"in" short:"i" required:"" help:"Input SQLite database image" type:"existingfile"`
	Out                 string `name:"out" short:"o" required:"" help:"Output file (SQLite database or delimited text)" type:"path"`
	Format              string `name:"format" short:"f" default:"sqlite" enum:"sqlite,csv" help:"Output format"`
	ExtractImages       bool   `name:"extract-images" short:"e" help:"Sniff recovered BLOB values and extract recognized images"`
	ImageDir            string `name:"image-dir" short:"d" default:"images" help:"Directory to write extracted images into"`
	Filter              string `name:"filter" help:"Keep only tuples matching this expression, e.g. col2 contains \"jpg\""`
	Dedup               bool   `name:"dedup" help:"Collapse the free-list double-parse by (page, cell-pointer) identity"`
	Watch               string `name:"watch" help:"Serve live recovery progress over a WebSocket at this address, e.g. :8787"`
	InteriorAsLeafCells bool   `name:"interior-as-leaf-cells" default:"true" help:"Read interior cells with the same varint layout as leaf cells (the forensic heuristic); false uses the canonical 4-byte left-child layout"`
}

// Run executes the recover subcommand.
func (c *RecoverCmd) Run() error {
	data, err := os.ReadFile(c.In)
	if err != nil {
		return fmt.Errorf("reading input file: %w", err)
	}

	var filterExpr *filter.Expr
	if c.Filter != "" {
		filterExpr, err = filter.Compile(c.Filter)
		if err != nil {
			return fmt.Errorf("compiling --filter: %w", err)
		}
	}

	sink, err := c.newSink()
	if err != nil {
		return err
	}
	if err := sink.Open(0); err != nil {
		return err
	}

	opts := driver.Options{
		InteriorAsLeafCells: &c.InteriorAsLeafCells,
		Diagnostic:          func(msg string) { fmt.Fprintln(os.Stderr, msg) },
	}
	if c.Dedup {
		opts.Dedup = dedup.New(4096)
	}

	var hub *progress.Hub
	if c.Watch != "" {
		hub = progress.NewHub("", int64(len(data)))
		opts.Reporter = hub
		go func() {
			if err := hub.ListenAndServe(c.Watch); err != nil {
				logging.Error("progress server stopped", "error", err)
			}
		}()
	}

	emitted := 0
	result, runErr := driver.Run(data, opts, func(tp value.Tuple) {
		if filterExpr != nil && !filterExpr.Match(tp.Values) {
			return
		}
		if err := sink.WriteTuple(toAny(tp.Values)); err != nil {
			logging.Error("failed to write recovered tuple", "error", err)
			return
		}
		emitted++
	})
	if runErr != nil && !errors.Is(runErr, sqlerrors.ErrEmptyResult) {
		return fmt.Errorf("recovery run: %w", runErr)
	}

	stats, err := sink.Close()
	if err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	fmt.Printf("Recovered %d rows (%d pages scanned, %d free-list pages, %d images extracted) -> %s\n",
		stats.RowsWritten, result.PagesScanned, len(result.FreelistPages), stats.ImagesWritten, c.Out)
	if errors.Is(runErr, sqlerrors.ErrEmptyResult) {
		fmt.Fprintln(os.Stderr, "no records recovered")
	}
	return nil
}

func (c *RecoverCmd) newSink() (writer.Sink, error) {
	extractor := writer.ImageExtractor{Dir: c.ImageDir, Enabled: c.ExtractImages}
	switch c.Format {
	case "csv":
		return textwriter.New(c.Out, ',', extractor), nil
	default:
		return sqlitewriter.New(c.Out, extractor), nil
	}
}

func toAny(values []value.Value) []any {
	out := make([]any, len(values))
	for i, v := range values {
		switch v.Kind {
		case value.Null:
			out[i] = nil
		case value.Integer:
			out[i] = v.Int
		case value.Float:
			out[i] = v.Float
		case value.Text:
			out[i] = v.Text
		case value.Blob:
			out[i] = v.Blob
		}
	}
	return out
}

// VersionCmd prints the build version.
type VersionCmd struct{}

// Run prints the version string.
func (c *VersionCmd) Run() error {
	fmt.Println("sqlrecover", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("sqlrecover"),
		kong.Description("Forensic SQLite 3 data-recovery tool"),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
