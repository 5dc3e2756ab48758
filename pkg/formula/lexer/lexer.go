// Package lexer converts formula source text into a flat, span-tagged
// token stream. It is locale-aware: the decimal separator and the three
// list separators come from a locale.Config, and the separator character
// is classified contextually (argument separator inside a call, array
// separator inside braces, union operator elsewhere). A post-pass
// reclassifies significant whitespace as the range-intersection operator.
package lexer

import (
	"fmt"

	"github.com/tallygrid/tally/pkg/formula/locale"
)

// maxColumnLetters bounds cell reference columns to A..XFD territory.
const maxColumnLetters = 3

// Error is a lexing failure: an unrecognized character or an
// unterminated string, quoted identifier, or bracket block. Everything
// else degrades to best-effort tokens.
type Error struct {
	Code string // stable code like "LEX-0002"
	Msg  string
	Span Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Msg, e.Span.Start)
}

// Lexer tokenizes a single formula
type Lexer struct {
	input     string
	cfg       locale.Config
	pos       int
	hasEquals bool

	braceDepth int
	parenFunc  []bool // per open paren: true if it opened a function call
	prevType   TokenType
	prevSet    bool
}

// New creates a lexer for the given source text and locale.
func New(input string, cfg locale.Config) *Lexer {
	return &Lexer{input: input, cfg: cfg}
}

// HasLeadingEquals reports whether the source began with '='. The equals
// sign is stripped before tokenizing; spans remain offsets into the
// original string.
func (l *Lexer) HasLeadingEquals() bool { return l.hasEquals }

// Lex tokenizes the whole input. On failure it returns the tokens
// produced so far (EOF-terminated) together with the error, so tolerant
// parsing can keep going with what it has.
func (l *Lexer) Lex() ([]Token, *Error) {
	if l.pos == 0 && len(l.input) > 0 && l.input[0] == '=' {
		l.hasEquals = true
		l.pos = 1
	}

	var tokens []Token
	var lexErr *Error
	for l.pos < len(l.input) {
		tok, err := l.next()
		if err != nil {
			lexErr = err
			break
		}
		tokens = append(tokens, tok)
		if tok.Type != WHITESPACE {
			l.prevType = tok.Type
			l.prevSet = true
		}
	}
	tokens = append(tokens, Token{Type: EOF, Span: Span{Start: l.pos, End: l.pos}})
	reclassifyIntersections(tokens)
	return tokens, lexErr
}

// reclassifyIntersections turns a whitespace token into the implicit
// intersection operator when both its non-whitespace neighbors are
// operand-shaped. This is what tells `A1 A2` apart from formatting space.
func reclassifyIntersections(tokens []Token) {
	operandShaped := func(t TokenType) bool {
		switch t {
		case CELL, IDENT, QUOTED, RPAREN, BRACKETED:
			return true
		}
		return false
	}
	for i := range tokens {
		if tokens[i].Type != WHITESPACE {
			continue
		}
		var left, right TokenType = EOF, EOF
		for j := i - 1; j >= 0; j-- {
			if tokens[j].Type != WHITESPACE {
				left = tokens[j].Type
				break
			}
		}
		for j := i + 1; j < len(tokens); j++ {
			if tokens[j].Type != WHITESPACE {
				right = tokens[j].Type
				break
			}
		}
		if operandShaped(left) && operandShaped(right) {
			tokens[i].Type = INTERSECT
		}
	}
}

func (l *Lexer) next() (Token, *Error) {
	start := l.pos
	ch := l.input[l.pos]

	if isSpace(ch) {
		for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
			l.pos++
		}
		return l.tok(WHITESPACE, l.input[start:l.pos], start), nil
	}

	switch {
	case ch == '"':
		return l.scanString(start)
	case ch == '\'':
		return l.scanQuotedIdent(start)
	case ch == '#':
		return l.scanErrorLiteral(start)
	case ch == '[':
		return l.scanBracketBlock(start)
	case isDigit(ch) || (ch == l.cfg.DecimalSeparator && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		return l.scanNumber(start), nil
	}

	// Locale separators are checked before fixed punctuation: the same
	// character means different things depending on brace and call depth.
	if l.braceDepth > 0 && ch == l.cfg.ArrayRowSeparator {
		l.pos++
		return l.tok(ROWSEP, string(ch), start), nil
	}
	if l.braceDepth > 0 && ch == l.cfg.ArrayColSeparator {
		l.pos++
		return l.tok(COLSEP, string(ch), start), nil
	}
	if ch == l.cfg.ArgSeparator {
		l.pos++
		if l.inFunctionParens() {
			return l.tok(ARGSEP, string(ch), start), nil
		}
		return l.tok(UNION, string(ch), start), nil
	}

	switch ch {
	case '(':
		l.parenFunc = append(l.parenFunc, l.prevSet && l.prevType == IDENT)
		l.pos++
		return l.tok(LPAREN, "(", start), nil
	case ')':
		if len(l.parenFunc) > 0 {
			l.parenFunc = l.parenFunc[:len(l.parenFunc)-1]
		}
		l.pos++
		return l.tok(RPAREN, ")", start), nil
	case '{':
		l.braceDepth++
		l.pos++
		return l.tok(LBRACE, "{", start), nil
	case '}':
		if l.braceDepth > 0 {
			l.braceDepth--
		}
		l.pos++
		return l.tok(RBRACE, "}", start), nil
	case '!':
		l.pos++
		return l.tok(BANG, "!", start), nil
	case ':':
		l.pos++
		return l.tok(COLON, ":", start), nil
	case '+':
		l.pos++
		return l.tok(PLUS, "+", start), nil
	case '-':
		l.pos++
		return l.tok(MINUS, "-", start), nil
	case '*':
		l.pos++
		return l.tok(ASTERISK, "*", start), nil
	case '/':
		l.pos++
		return l.tok(SLASH, "/", start), nil
	case '^':
		l.pos++
		return l.tok(CARET, "^", start), nil
	case '&':
		l.pos++
		return l.tok(AMP, "&", start), nil
	case '%':
		l.pos++
		return l.tok(PERCENT, "%", start), nil
	case '@':
		l.pos++
		return l.tok(AT, "@", start), nil
	case '=':
		l.pos++
		return l.tok(EQ, "=", start), nil
	case '<':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
			return l.tok(LTE, "<=", start), nil
		}
		if l.pos < len(l.input) && l.input[l.pos] == '>' {
			l.pos++
			return l.tok(NEQ, "<>", start), nil
		}
		return l.tok(LT, "<", start), nil
	case '>':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
			return l.tok(GTE, ">=", start), nil
		}
		return l.tok(GT, ">", start), nil
	case '$':
		if tok, ok := l.scanCellRef(start); ok {
			return tok, nil
		}
	}

	if isLetter(ch) || ch == '_' {
		if tok, ok := l.scanCellRef(start); ok {
			return tok, nil
		}
		return l.scanIdent(start), nil
	}

	return Token{}, &Error{
		Code: "LEX-0001",
		Msg:  fmt.Sprintf("unrecognized character %q", ch),
		Span: Span{Start: start, End: start + 1},
	}
}

func (l *Lexer) tok(t TokenType, lit string, start int) Token {
	return Token{Type: t, Literal: lit, Span: Span{Start: start, End: l.pos}}
}

func (l *Lexer) inFunctionParens() bool {
	return len(l.parenFunc) > 0 && l.parenFunc[len(l.parenFunc)-1]
}

// scanCellRef speculatively lexes `$?[A-Z]{1,3}$?[0-9]+`. It backtracks
// and reports false if the shape does not fully match, so identifiers
// like `Sheet1` or `TRUE` fall through to scanIdent.
func (l *Lexer) scanCellRef(start int) (Token, bool) {
	p := l.pos
	var cell CellData

	if p < len(l.input) && l.input[p] == '$' {
		cell.AbsCol = true
		p++
	}
	letterStart := p
	for p < len(l.input) && isLetter(l.input[p]) {
		p++
	}
	letters := p - letterStart
	if letters < 1 || letters > maxColumnLetters {
		return Token{}, false
	}
	if p < len(l.input) && l.input[p] == '$' {
		cell.AbsRow = true
		p++
	}
	digitStart := p
	for p < len(l.input) && isDigit(l.input[p]) {
		p++
	}
	if p == digitStart {
		return Token{}, false
	}
	// A trailing identifier character means this was never a cell
	// reference at all (e.g. A1B, B2_total).
	if p < len(l.input) && isIdentChar(l.input[p]) {
		return Token{}, false
	}

	row := 0
	for _, c := range l.input[digitStart:p] {
		row = row*10 + int(c-'0')
	}
	if row < 1 {
		return Token{}, false
	}
	cell.Row = row - 1
	cell.Col = columnIndex(l.input[letterStart : letterStart+letters])

	l.pos = p
	t := l.tok(CELL, l.input[start:p], start)
	t.Cell = cell
	return t, true
}

func (l *Lexer) scanIdent(start int) Token {
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	lit := l.input[start:l.pos]
	switch upperASCII(lit) {
	case "TRUE":
		return l.tok(BOOLEAN, "TRUE", start)
	case "FALSE":
		return l.tok(BOOLEAN, "FALSE", start)
	}
	return l.tok(IDENT, lit, start)
}

// scanString lexes a double-quoted string with `""` escaping. The token
// literal holds the unescaped text.
func (l *Lexer) scanString(start int) (Token, *Error) {
	l.pos++ // opening quote
	var out []byte
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '"' {
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '"' {
				out = append(out, '"')
				l.pos += 2
				continue
			}
			l.pos++
			return l.tok(STRING, string(out), start), nil
		}
		out = append(out, c)
		l.pos++
	}
	return Token{}, &Error{Code: "LEX-0002", Msg: "unterminated string literal", Span: Span{Start: start, End: l.pos}}
}

// scanQuotedIdent lexes a single-quoted sheet name with `''` escaping.
func (l *Lexer) scanQuotedIdent(start int) (Token, *Error) {
	l.pos++ // opening quote
	var out []byte
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '\'' {
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '\'' {
				out = append(out, '\'')
				l.pos += 2
				continue
			}
			l.pos++
			return l.tok(QUOTED, string(out), start), nil
		}
		out = append(out, c)
		l.pos++
	}
	return Token{}, &Error{Code: "LEX-0003", Msg: "unterminated quoted name", Span: Span{Start: start, End: l.pos}}
}

// scanErrorLiteral lexes #NAME?-style error literals by consuming the
// error name character class after '#', plus one trailing '!' or '?'.
func (l *Lexer) scanErrorLiteral(start int) (Token, *Error) {
	l.pos++ // '#'
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if isLetter(c) || isDigit(c) || c == '/' {
			l.pos++
			continue
		}
		break
	}
	if l.pos < len(l.input) && (l.input[l.pos] == '!' || l.input[l.pos] == '?') {
		l.pos++
	}
	lit := l.input[start:l.pos]
	if _, ok := ErrorKindFromLiteral(lit); !ok {
		return Token{}, &Error{
			Code: "LEX-0004",
			Msg:  fmt.Sprintf("unknown error literal %q", lit),
			Span: Span{Start: start, End: l.pos},
		}
	}
	return l.tok(ERROR, upperASCII(lit), start), nil
}

// scanBracketBlock consumes a balanced [...] block and keeps its contents
// raw. Structured-reference specs are opaque to this core; workbook
// prefixes like [Book1] are told apart later by the parser.
func (l *Lexer) scanBracketBlock(start int) (Token, *Error) {
	l.pos++ // '['
	depth := 1
	var quote byte
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			l.pos++
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				l.pos++
				tok := l.tok(BRACKETED, l.input[start+1:l.pos-1], start)
				return tok, nil
			}
		}
		l.pos++
	}
	return Token{}, &Error{Code: "LEX-0005", Msg: "unterminated bracket block", Span: Span{Start: start, End: l.pos}}
}

// scanNumber lexes a numeric literal with a locale decimal separator and
// an optional exponent. A trailing exponent letter with no digits is not
// consumed, so `1E` lexes as the number 1 followed by the identifier E.
func (l *Lexer) scanNumber(start int) Token {
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == l.cfg.DecimalSeparator &&
		l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]) {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		saved := l.pos
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = saved // not an exponent; leave E for the next token
		}
	}
	return l.tok(NUMBER, l.input[start:l.pos], start)
}

// columnIndex converts column letters to a zero-based index (A=0, Z=25,
// AA=26).
func columnIndex(letters string) int {
	n := 0
	for i := 0; i < len(letters); i++ {
		c := letters[i]
		if c >= 'a' {
			c -= 32
		}
		n = n*26 + int(c-'A') + 1
	}
	return n - 1
}

// ColumnLabel converts a zero-based column index back to letters.
func ColumnLabel(col int) string {
	if col < 0 {
		return ""
	}
	var out []byte
	n := col + 1
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '.'
}
