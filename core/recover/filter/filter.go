// Package filter compiles and evaluates the tiny --filter expression
// grammar operators use to narrow a recovery dump after decoding, e.g.
// `col2 contains "jpg"`. This never touches the core decoder: a filter
// is evaluated by cmd/sqlrecover against already-recovered tuples, before
// they are handed to the writer.
//
// Grammar:
//
//	filter     = column comparator literal .
//	column     = "col" int .
//	comparator = "=" | "!=" | "contains" | ">" | "<" .
//	literal    = string | number .
package filter

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	sqlerrors "github.com/forensiq/sqlrecover/core/errors"
	"github.com/forensiq/sqlrecover/core/recover/value"
)

// grammar is the participle struct describing one filter expression.
//
//nolint:govet // participle grammar tags are not standard struct tags
type grammar struct {
	Column     int      `"col" @Int`
	Comparator string   `@( "=" | "!=" | "contains" | ">" | "<" )`
	String     *string  `( @String )?`
	Number     *float64 `( @Float | @Int )?`
}

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Float", Pattern: `[0-9]+\.[0-9]+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Op", Pattern: `!=|=|contains|>|<`},
	{Name: "Ident", Pattern: `col`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var parser = participle.MustBuild[grammar](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
)

// Expr is a compiled filter predicate, ready to be evaluated against any
// number of tuples.
type Expr struct {
	column     int
	comparator string
	str        *string
	num        *float64
}

// Compile parses expr (e.g. `col2 contains "jpg"`) into an Expr.
func Compile(expr string) (*Expr, error) {
	g, err := parser.ParseString("", expr)
	if err != nil {
		return nil, &sqlerrors.ParseError{Format: "filter expression", Message: err.Error(), Err: err}
	}
	return &Expr{column: g.Column, comparator: g.Comparator, str: g.String, num: g.Number}, nil
}

// Match reports whether tuple satisfies e. A tuple whose referenced
// column is out of range, or whose value's type doesn't support the
// comparator (e.g. "contains" against an integer), simply fails to
// match — this mirrors the core's stance that malformed input never
// aborts anything, scoped here to filtering instead of decoding.
func (e *Expr) Match(values []value.Value) bool {
	if e.column < 0 || e.column >= len(values) {
		return false
	}
	v := values[e.column]

	switch e.comparator {
	case "contains":
		if e.str == nil || v.Kind != value.Text {
			return false
		}
		return strings.Contains(v.Text, *e.str)
	case "=":
		return e.equals(v)
	case "!=":
		return !e.equals(v)
	case ">", "<":
		return e.compareNumeric(v)
	default:
		return false
	}
}

func (e *Expr) equals(v value.Value) bool {
	if e.str != nil {
		return v.Kind == value.Text && v.Text == *e.str
	}
	if e.num != nil {
		switch v.Kind {
		case value.Integer:
			return float64(v.Int) == *e.num
		case value.Float:
			return v.Float == *e.num
		}
	}
	return false
}

func (e *Expr) compareNumeric(v value.Value) bool {
	if e.num == nil {
		return false
	}
	var got float64
	switch v.Kind {
	case value.Integer:
		got = float64(v.Int)
	case value.Float:
		got = v.Float
	default:
		return false
	}
	if e.comparator == ">" {
		return got > *e.num
	}
	return got < *e.num
}
