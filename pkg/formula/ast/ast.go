// Package ast defines the parsed, span-tagged formula representation.
// Trees are immutable once built: rebasing produces a new tree.
package ast

import (
	"strconv"
	"strings"

	"github.com/tallygrid/tally/pkg/formula/lexer"
)

// Expression represents any node in the formula tree. Span is the byte
// range of the node in the original source; for composite nodes it is
// the union of the children's spans.
type Expression interface {
	Span() lexer.Span
	String() string
	expressionNode()
}

// Ast is a whole parsed formula.
type Ast struct {
	HasEquals bool // source began with '='
	Root      Expression
}

func (a *Ast) String() string {
	if a == nil || a.Root == nil {
		return ""
	}
	if a.HasEquals {
		return "=" + a.Root.String()
	}
	return a.Root.String()
}

// BinaryOp identifies a binary operator.
type BinaryOp int

const (
	OpRange BinaryOp = iota // :
	OpIntersect
	OpUnion
	OpPow
	OpMul
	OpDiv
	OpAdd
	OpSub
	OpConcat
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
)

func (op BinaryOp) String() string {
	switch op {
	case OpRange:
		return ":"
	case OpIntersect:
		return " "
	case OpUnion:
		return ","
	case OpPow:
		return "^"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpConcat:
		return "&"
	case OpEq:
		return "="
	case OpNeq:
		return "<>"
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	default:
		return "?"
	}
}

// UnaryOp identifies a prefix operator.
type UnaryOp int

const (
	OpPlus UnaryOp = iota
	OpMinus
	OpImplicit // @, implicit intersection
)

func (op UnaryOp) String() string {
	switch op {
	case OpPlus:
		return "+"
	case OpMinus:
		return "-"
	case OpImplicit:
		return "@"
	default:
		return "?"
	}
}

// NumberLiteral is a numeric literal like 3.14 or 1E6.
type NumberLiteral struct {
	Pos   lexer.Span
	Value float64
}

func (n *NumberLiteral) expressionNode()  {}
func (n *NumberLiteral) Span() lexer.Span { return n.Pos }
func (n *NumberLiteral) String() string   { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

// StringLiteral is a text literal. Value is unescaped.
type StringLiteral struct {
	Pos   lexer.Span
	Value string
}

func (s *StringLiteral) expressionNode()  {}
func (s *StringLiteral) Span() lexer.Span { return s.Pos }
func (s *StringLiteral) String() string {
	return `"` + strings.ReplaceAll(s.Value, `"`, `""`) + `"`
}

// BooleanLiteral is TRUE or FALSE.
type BooleanLiteral struct {
	Pos   lexer.Span
	Value bool
}

func (b *BooleanLiteral) expressionNode()  {}
func (b *BooleanLiteral) Span() lexer.Span { return b.Pos }
func (b *BooleanLiteral) String() string {
	if b.Value {
		return "TRUE"
	}
	return "FALSE"
}

// ErrorLiteral is a literal spreadsheet error like #DIV/0!.
type ErrorLiteral struct {
	Pos  lexer.Span
	Kind lexer.ErrorKind
}

func (e *ErrorLiteral) expressionNode()  {}
func (e *ErrorLiteral) Span() lexer.Span { return e.Pos }
func (e *ErrorLiteral) String() string   { return e.Kind.Literal() }

// CellRef is a single cell reference, optionally workbook- and
// sheet-qualified. Col and Row are zero-based.
type CellRef struct {
	Pos      lexer.Span
	Workbook string // external workbook name, "" for none
	Sheet    string // "" for the current sheet
	Col      int
	Row      int
	AbsCol   bool
	AbsRow   bool
}

func (c *CellRef) expressionNode()  {}
func (c *CellRef) Span() lexer.Span { return c.Pos }

func (c *CellRef) String() string {
	var out strings.Builder
	if c.Workbook != "" {
		out.WriteString("[" + c.Workbook + "]")
	}
	if c.Sheet != "" || c.Workbook != "" {
		out.WriteString(quoteSheet(c.Sheet))
		out.WriteString("!")
	}
	if c.AbsCol {
		out.WriteString("$")
	}
	out.WriteString(lexer.ColumnLabel(c.Col))
	if c.AbsRow {
		out.WriteString("$")
	}
	out.WriteString(strconv.Itoa(c.Row + 1))
	return out.String()
}

// Address returns the cell's position.
func (c *CellRef) Address() Address { return Address{Col: c.Col, Row: c.Row} }

// quoteSheet single-quotes a sheet name when it would not lex as a bare
// identifier.
func quoteSheet(name string) string {
	plain := name != ""
	for i := 0; i < len(name); i++ {
		ch := name[i]
		alnum := ch == '_' || ch == '.' ||
			(ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
		if !alnum {
			plain = false
			break
		}
	}
	if plain {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// StructuredRef is a table reference like Table1[[#All],[Price]]. The
// bracket contents are kept as an opaque spec string; interpreting table
// semantics belongs to the collaborator that owns table metadata.
type StructuredRef struct {
	Pos   lexer.Span
	Table string // "" for a bare [...] reference inside a table
	Spec  string
}

func (s *StructuredRef) expressionNode()  {}
func (s *StructuredRef) Span() lexer.Span { return s.Pos }
func (s *StructuredRef) String() string   { return s.Table + "[" + s.Spec + "]" }

// NameRef is a defined name, like a named range, optionally
// sheet-qualified.
type NameRef struct {
	Pos   lexer.Span
	Sheet string // "" for a workbook-scoped name
	Name  string
}

func (n *NameRef) expressionNode()  {}
func (n *NameRef) Span() lexer.Span { return n.Pos }
func (n *NameRef) String() string {
	if n.Sheet != "" {
		return quoteSheet(n.Sheet) + "!" + n.Name
	}
	return n.Name
}

// Group is a parenthesized sub-expression. It is kept in the tree so
// re-serialization preserves the author's grouping.
type Group struct {
	Pos   lexer.Span
	Inner Expression
}

func (g *Group) expressionNode()  {}
func (g *Group) Span() lexer.Span { return g.Pos }
func (g *Group) String() string   { return "(" + g.Inner.String() + ")" }

// Unary is a prefix operation: +x, -x, @x.
type Unary struct {
	Pos     lexer.Span
	Op      UnaryOp
	Operand Expression
}

func (u *Unary) expressionNode()  {}
func (u *Unary) Span() lexer.Span { return u.Pos }
func (u *Unary) String() string   { return u.Op.String() + u.Operand.String() }

// Binary is an infix operation.
type Binary struct {
	Pos   lexer.Span
	Op    BinaryOp
	Left  Expression
	Right Expression
}

func (b *Binary) expressionNode()  {}
func (b *Binary) Span() lexer.Span { return b.Pos }
func (b *Binary) String() string   { return b.Left.String() + b.Op.String() + b.Right.String() }

// Percent is the postfix percent operator.
type Percent struct {
	Pos     lexer.Span
	Operand Expression
}

func (p *Percent) expressionNode()  {}
func (p *Percent) Span() lexer.Span { return p.Pos }
func (p *Percent) String() string   { return p.Operand.String() + "%" }

// ArrayLiteral is {1,2;3,4}: ordered rows of ordered cell expressions.
type ArrayLiteral struct {
	Pos  lexer.Span
	Rows [][]Expression
}

func (a *ArrayLiteral) expressionNode()  {}
func (a *ArrayLiteral) Span() lexer.Span { return a.Pos }
func (a *ArrayLiteral) String() string {
	var out strings.Builder
	out.WriteString("{")
	for i, row := range a.Rows {
		if i > 0 {
			out.WriteString(";")
		}
		for j, cell := range row {
			if j > 0 {
				out.WriteString(",")
			}
			out.WriteString(cell.String())
		}
	}
	out.WriteString("}")
	return out.String()
}

// Call is a function call. Name is uppercased; arguments may be Missing.
type Call struct {
	Pos  lexer.Span
	Name string
	Args []Expression
}

func (c *Call) expressionNode()  {}
func (c *Call) Span() lexer.Span { return c.Pos }
func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Name + "(" + strings.Join(parts, ",") + ")"
}

// Missing is the tolerant-mode placeholder for an absent operand or
// argument. It serializes to nothing.
type Missing struct {
	Pos lexer.Span
}

func (m *Missing) expressionNode()  {}
func (m *Missing) Span() lexer.Span { return m.Pos }
func (m *Missing) String() string   { return "" }
