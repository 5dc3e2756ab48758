package lexer

import "fmt"

// TokenType represents different types of tokens in a formula
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF
	WHITESPACE

	// Literals
	NUMBER    // 3.14, 1E6
	STRING    // "foo""bar"
	BOOLEAN   // TRUE, FALSE
	ERROR     // #DIV/0!, #N/A, ...
	CELL      // A1, $B$2
	IDENT     // SUM, Sheet1, MyName
	QUOTED    // 'My Sheet'
	BRACKETED // [Book1], [#All], [@Price] - balanced bracket block, contents kept raw

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	BANG      // !
	COLON     // :
	ARGSEP    // argument separator (locale, ',' in en)
	UNION     // the separator character outside call parens
	ROWSEP    // array row separator (locale, ';' in en)
	COLSEP    // array column separator (locale, ',' in en)
	INTERSECT // whitespace reclassified as range intersection

	// Operators
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	CARET    // ^
	AMP      // &
	PERCENT  // %
	AT       // @
	EQ       // =
	NEQ      // <>
	LT       // <
	LTE      // <=
	GT       // >
	GTE      // >=
)

// Span is a half-open [Start, End) byte range into the original source.
// Composite AST nodes carry the union of their children's spans; the
// token spans of one lex partition the input exactly, whitespace included.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Union returns the smallest span covering both s and o.
func (s Span) Union(o Span) Span {
	out := s
	if o.Start < out.Start {
		out.Start = o.Start
	}
	if o.End > out.End {
		out.End = o.End
	}
	return out
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// CellData holds the decoded parts of a CELL token. Col and Row are
// zero-based (A1 is col 0, row 0).
type CellData struct {
	Col    int
	Row    int
	AbsCol bool
	AbsRow bool
}

// Token represents a single token
type Token struct {
	Type    TokenType
	Literal string // string/quoted tokens hold the unescaped text
	Span    Span
	Cell    CellData // populated for CELL tokens only
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %q, Span: %s}", t.Type, t.Literal, t.Span)
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case WHITESPACE:
		return "WHITESPACE"
	case NUMBER:
		return "NUMBER"
	case STRING:
		return "STRING"
	case BOOLEAN:
		return "BOOLEAN"
	case ERROR:
		return "ERROR"
	case CELL:
		return "CELL"
	case IDENT:
		return "IDENT"
	case QUOTED:
		return "QUOTED"
	case BRACKETED:
		return "BRACKETED"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case LBRACE:
		return "LBRACE"
	case RBRACE:
		return "RBRACE"
	case BANG:
		return "BANG"
	case COLON:
		return "COLON"
	case ARGSEP:
		return "ARGSEP"
	case UNION:
		return "UNION"
	case ROWSEP:
		return "ROWSEP"
	case COLSEP:
		return "COLSEP"
	case INTERSECT:
		return "INTERSECT"
	case PLUS:
		return "PLUS"
	case MINUS:
		return "MINUS"
	case ASTERISK:
		return "ASTERISK"
	case SLASH:
		return "SLASH"
	case CARET:
		return "CARET"
	case AMP:
		return "AMP"
	case PERCENT:
		return "PERCENT"
	case AT:
		return "AT"
	case EQ:
		return "EQ"
	case NEQ:
		return "NEQ"
	case LT:
		return "LT"
	case LTE:
		return "LTE"
	case GT:
		return "GT"
	case GTE:
		return "GTE"
	default:
		return "UNKNOWN"
	}
}

// ErrorKind enumerates the spreadsheet error values. It is shared by the
// lexer (error literals), the AST, and the evaluator's Error value.
type ErrorKind int

const (
	ErrDiv0 ErrorKind = iota
	ErrValue
	ErrRef
	ErrName
	ErrNA
	ErrNull
	ErrSpill
	ErrCalc
	ErrNum
)

// Literal returns the formula-text spelling of the error kind.
func (k ErrorKind) Literal() string {
	switch k {
	case ErrDiv0:
		return "#DIV/0!"
	case ErrValue:
		return "#VALUE!"
	case ErrRef:
		return "#REF!"
	case ErrName:
		return "#NAME?"
	case ErrNA:
		return "#N/A"
	case ErrNull:
		return "#NULL!"
	case ErrSpill:
		return "#SPILL!"
	case ErrCalc:
		return "#CALC!"
	case ErrNum:
		return "#NUM!"
	default:
		return "#VALUE!"
	}
}

// ErrorKindFromLiteral maps an error literal (case-insensitive) to its
// kind. The second return is false for unrecognized literals.
func ErrorKindFromLiteral(s string) (ErrorKind, bool) {
	switch upperASCII(s) {
	case "#DIV/0!":
		return ErrDiv0, true
	case "#VALUE!":
		return ErrValue, true
	case "#REF!":
		return ErrRef, true
	case "#NAME?":
		return ErrName, true
	case "#N/A":
		return ErrNA, true
	case "#NULL!":
		return ErrNull, true
	case "#SPILL!":
		return ErrSpill, true
	case "#CALC!":
		return ErrCalc, true
	case "#NUM!":
		return ErrNum, true
	}
	return ErrValue, false
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}
