package evaluator

import (
	"strconv"
	"strings"

	"github.com/tallygrid/tally/pkg/formula/ast"
	"github.com/tallygrid/tally/pkg/formula/lexer"
)

// ValueType represents the type of runtime values
type ValueType string

const (
	NUMBER_VAL  ValueType = "NUMBER"
	TEXT_VAL    ValueType = "TEXT"
	BOOLEAN_VAL ValueType = "BOOLEAN"
	BLANK_VAL   ValueType = "BLANK"
	ERROR_VAL   ValueType = "ERROR"
	ARRAY_VAL   ValueType = "ARRAY"
	SPILL_VAL   ValueType = "SPILL"
)

// ErrorKind re-exports the spreadsheet error kinds shared with the lexer.
type ErrorKind = lexer.ErrorKind

// Error kind constants
const (
	ErrDiv0  = lexer.ErrDiv0
	ErrValue = lexer.ErrValue
	ErrRef   = lexer.ErrRef
	ErrName  = lexer.ErrName
	ErrNA    = lexer.ErrNA
	ErrNull  = lexer.ErrNull
	ErrSpill = lexer.ErrSpill
	ErrCalc  = lexer.ErrCalc
	ErrNum   = lexer.ErrNum
)

// Value represents all runtime values a formula can produce. Errors are
// in-band data, not Go errors: they propagate through operators and are
// intercepted only by functions like IFERROR.
type Value interface {
	Type() ValueType
	Inspect() string
}

// Number represents numeric values; all spreadsheet numbers are floats.
type Number struct {
	Value float64
}

func (n *Number) Type() ValueType { return NUMBER_VAL }
func (n *Number) Inspect() string { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

// Text represents string values
type Text struct {
	Value string
}

func (t *Text) Type() ValueType { return TEXT_VAL }
func (t *Text) Inspect() string { return t.Value }

// Boolean represents TRUE/FALSE values
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ValueType { return BOOLEAN_VAL }
func (b *Boolean) Inspect() string {
	if b.Value {
		return "TRUE"
	}
	return "FALSE"
}

// Blank represents an empty cell. Blank is not zero, but coerces to the
// other operand's zero-equivalent in comparisons.
type Blank struct{}

func (b *Blank) Type() ValueType { return BLANK_VAL }
func (b *Blank) Inspect() string { return "" }

// Error represents an in-band spreadsheet error value like #DIV/0!.
type Error struct {
	Kind ErrorKind
}

func (e *Error) Type() ValueType { return ERROR_VAL }
func (e *Error) Inspect() string { return e.Kind.Literal() }

// Array represents a 2D block of values in row-major order.
type Array struct {
	Rows [][]Value
}

func (a *Array) Type() ValueType { return ARRAY_VAL }
func (a *Array) Inspect() string {
	var out strings.Builder
	out.WriteString("{")
	for i, row := range a.Rows {
		if i > 0 {
			out.WriteString(";")
		}
		for j, v := range row {
			if j > 0 {
				out.WriteString(",")
			}
			out.WriteString(v.Inspect())
		}
	}
	out.WriteString("}")
	return out.String()
}

// Width returns the column count of the widest row.
func (a *Array) Width() int {
	w := 0
	for _, row := range a.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// Spill marks a cell covered by a dynamic array that has not expanded
// into it. The storage layer produces these; this core only carries
// them through.
type Spill struct{}

func (s *Spill) Type() ValueType { return SPILL_VAL }
func (s *Spill) Inspect() string { return "#SPILL!" }

// Shared immutable values
var (
	TRUE    = &Boolean{Value: true}
	FALSE   = &Boolean{Value: false}
	BLANK   = &Blank{}
	MISSING = BLANK // a Missing argument evaluates to a blank
)

func boolValue(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

func newError(kind ErrorKind) *Error {
	return &Error{Kind: kind}
}

// isError reports whether v is an in-band error value.
func isError(v Value) bool {
	_, ok := v.(*Error)
	return ok
}

// Context supplies what unqualified references and implicit intersection
// need: which sheet and cell the formula lives in.
type Context struct {
	Sheet string
	Cell  ast.Address
}

// Resolver is the read-only capability the storage layer hands the
// evaluator. Implementations must be pure during a single evaluate call
// and must not error: unknown cells resolve to Blank.
type Resolver interface {
	SheetExists(sheet string) bool
	CellValue(sheet string, addr ast.Address) Value
}
