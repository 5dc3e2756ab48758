// Package parser turns a token stream into an expression tree with a
// precedence-climbing (Pratt) parser. The one grammar runs in two modes:
// strict, where the first structural error aborts, and tolerant, which
// never fails - it substitutes Missing placeholders, records only the
// first error seen, and tracks the enclosing function call so editors
// can surface autocomplete context.
package parser

import (
	"strconv"
	"strings"

	"github.com/tallygrid/tally/pkg/formula/ast"
	ferrors "github.com/tallygrid/tally/pkg/formula/errors"
	"github.com/tallygrid/tally/pkg/formula/lexer"
	"github.com/tallygrid/tally/pkg/formula/locale"
)

// maxDepth caps expression nesting during parsing. Pathological input
// fails with a bounded error instead of riding the Go stack down.
const maxDepth = 256

// Precedence levels for operators
const (
	_ int = iota
	LOWEST
	COMPARISON  // = <> < <= > >=
	CONCAT      // &
	SUM         // + -
	PRODUCT     // * /
	UNARY       // -X +X @X (tighter than * but looser than ^)
	EXPONENT    // ^ (right-associative)
	UNIONPREC   // union separator
	INTERSECT   // significant whitespace between references
	RANGE       // :
	POSTFIX     // X%
	CALL        // NAME(...)
)

// precedences maps tokens to their precedence
var precedences = map[lexer.TokenType]int{
	lexer.EQ:        COMPARISON,
	lexer.NEQ:       COMPARISON,
	lexer.LT:        COMPARISON,
	lexer.LTE:       COMPARISON,
	lexer.GT:        COMPARISON,
	lexer.GTE:       COMPARISON,
	lexer.AMP:       CONCAT,
	lexer.PLUS:      SUM,
	lexer.MINUS:     SUM,
	lexer.ASTERISK:  PRODUCT,
	lexer.SLASH:     PRODUCT,
	lexer.CARET:     EXPONENT,
	lexer.UNION:     UNIONPREC,
	lexer.INTERSECT: INTERSECT,
	lexer.COLON:     RANGE,
	lexer.PERCENT:   POSTFIX,
	lexer.LPAREN:    CALL,
}

// binaryOps maps operator tokens to AST operators.
var binaryOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.EQ:        ast.OpEq,
	lexer.NEQ:       ast.OpNeq,
	lexer.LT:        ast.OpLt,
	lexer.LTE:       ast.OpLte,
	lexer.GT:        ast.OpGt,
	lexer.GTE:       ast.OpGte,
	lexer.AMP:       ast.OpConcat,
	lexer.PLUS:      ast.OpAdd,
	lexer.MINUS:     ast.OpSub,
	lexer.ASTERISK:  ast.OpMul,
	lexer.SLASH:     ast.OpDiv,
	lexer.CARET:     ast.OpPow,
	lexer.UNION:     ast.OpUnion,
	lexer.INTERSECT: ast.OpIntersect,
	lexer.COLON:     ast.OpRange,
}

// FuncContext names the innermost function call enclosing the position
// where tolerant parsing stopped, with the zero-indexed argument slot.
type FuncContext struct {
	Name     string `json:"name"`
	ArgIndex int    `json:"arg_index"`
}

// Context is the editor context captured by a tolerant parse.
type Context struct {
	Function *FuncContext `json:"function,omitempty"`
}

// PartialParse is the result of a tolerant parse. Ast is always
// populated; FirstError holds at most one diagnostic.
type PartialParse struct {
	Ast        *ast.Ast
	FirstError *ferrors.FormulaError
	Context    Context
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type frame struct {
	name string
	arg  int
}

// Parser holds the state for one parse call. Instances are cheap and
// single-use; nothing is shared between calls.
type Parser struct {
	toks      []lexer.Token // whitespace filtered out, EOF-terminated
	pos       int
	cfg       locale.Config
	hasEquals bool

	tolerant bool
	aborted  bool
	firstErr *ferrors.FormulaError
	ctx      Context
	stack    []frame
	depth    int

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

// New creates a parser over the given source text.
func New(input string, cfg locale.Config) *Parser {
	p := &Parser{cfg: cfg}

	l := lexer.New(input, cfg)
	tokens, lexErr := l.Lex()
	p.hasEquals = l.HasLeadingEquals()
	for _, t := range tokens {
		if t.Type != lexer.WHITESPACE {
			p.toks = append(p.toks, t)
		}
	}
	if lexErr != nil {
		p.firstErr = ferrors.FromLexError(lexErr)
	}

	p.prefixParseFns = map[lexer.TokenType]prefixParseFn{
		lexer.NUMBER:    p.parseNumberLiteral,
		lexer.STRING:    p.parseStringLiteral,
		lexer.BOOLEAN:   p.parseBooleanLiteral,
		lexer.ERROR:     p.parseErrorLiteral,
		lexer.CELL:      p.parseCellRef,
		lexer.IDENT:     p.parseIdentifier,
		lexer.QUOTED:    p.parseQuotedIdentifier,
		lexer.BRACKETED: p.parseBracketLed,
		lexer.LPAREN:    p.parseGroup,
		lexer.LBRACE:    p.parseArrayLiteral,
		lexer.PLUS:      p.parsePrefix,
		lexer.MINUS:     p.parsePrefix,
		lexer.AT:        p.parsePrefix,
	}
	p.infixParseFns = map[lexer.TokenType]infixParseFn{
		lexer.EQ:        p.parseInfix,
		lexer.NEQ:       p.parseInfix,
		lexer.LT:        p.parseInfix,
		lexer.LTE:       p.parseInfix,
		lexer.GT:        p.parseInfix,
		lexer.GTE:       p.parseInfix,
		lexer.AMP:       p.parseInfix,
		lexer.PLUS:      p.parseInfix,
		lexer.MINUS:     p.parseInfix,
		lexer.ASTERISK:  p.parseInfix,
		lexer.SLASH:     p.parseInfix,
		lexer.CARET:     p.parseInfix,
		lexer.UNION:     p.parseInfix,
		lexer.INTERSECT: p.parseInfix,
		lexer.COLON:     p.parseInfix,
		lexer.PERCENT:   p.parsePostfixPercent,
		lexer.LPAREN:    p.parseCallOnName,
	}
	return p
}

// Parse parses in strict mode: the first structural error aborts.
func Parse(input string, cfg locale.Config) (*ast.Ast, *ferrors.FormulaError) {
	p := New(input, cfg)
	return p.parseStrict()
}

// ParsePartial parses in tolerant mode. It never fails: malformed input
// yields a best-effort tree with Missing placeholders, at most one
// recorded error, and the enclosing function-call context.
func ParsePartial(input string, cfg locale.Config) *PartialParse {
	p := New(input, cfg)
	p.tolerant = true
	root := p.parseExpression(LOWEST)
	if root == nil {
		root = &ast.Missing{Pos: p.caret()}
	}
	if p.cur().Type != lexer.EOF {
		p.addError("PARSE-0008", p.cur().Span, nil)
	}
	return &PartialParse{
		Ast:        &ast.Ast{HasEquals: p.hasEquals, Root: root},
		FirstError: p.firstErr,
		Context:    p.ctx,
	}
}

func (p *Parser) parseStrict() (*ast.Ast, *ferrors.FormulaError) {
	if p.firstErr != nil {
		return nil, p.firstErr
	}
	root := p.parseExpression(LOWEST)
	if p.firstErr != nil {
		return nil, p.firstErr
	}
	if p.cur().Type != lexer.EOF {
		p.addError("PARSE-0008", p.cur().Span, nil)
		return nil, p.firstErr
	}
	return &ast.Ast{HasEquals: p.hasEquals, Root: root}, nil
}

// cur returns the current token. The cursor always rests on an
// unconsumed non-whitespace token; EOF is sticky.
func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peek() lexer.Token {
	if p.pos+1 >= len(p.toks) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.toks[p.pos+1]
}

func (p *Parser) next() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

func (p *Parser) precedence(t lexer.TokenType) int {
	if prec, ok := precedences[t]; ok {
		return prec
	}
	return LOWEST
}

// caret is an empty span at the current token's start, used for Missing
// placeholders.
func (p *Parser) caret() lexer.Span {
	s := p.cur().Span.Start
	return lexer.Span{Start: s, End: s}
}

// addError records a structured error. Only the first error is kept -
// later errors are usually cascading noise - and the innermost function
// frame is snapshotted for editor context at that moment.
func (p *Parser) addError(code string, sp lexer.Span, data map[string]any) {
	if !p.tolerant {
		p.aborted = true
	}
	if p.firstErr != nil {
		return
	}
	p.firstErr = ferrors.NewWithSpan(code, sp, data)
	if n := len(p.stack); n > 0 {
		f := p.stack[n-1]
		p.ctx.Function = &FuncContext{Name: f.name, ArgIndex: f.arg}
	}
}

// missing records an error and degrades to a Missing placeholder in
// tolerant mode; strict mode propagates nil.
func (p *Parser) missing(code string, sp lexer.Span, data map[string]any) ast.Expression {
	p.addError(code, sp, data)
	if !p.tolerant {
		return nil
	}
	return &ast.Missing{Pos: p.caret()}
}

func (p *Parser) parseExpression(prec int) ast.Expression {
	if p.depth >= maxDepth {
		return p.missing("LIMIT-0001", p.cur().Span, map[string]any{"Max": maxDepth})
	}
	p.depth++
	defer func() { p.depth-- }()

	prefix := p.prefixParseFns[p.cur().Type]
	if prefix == nil {
		expr := p.missing("PARSE-0002", p.cur().Span, map[string]any{"Token": p.tokenText(p.cur())})
		// Resynchronize by consuming the offending token so tolerant
		// parsing always makes progress.
		if p.tolerant && p.cur().Type != lexer.EOF {
			p.next()
		}
		return expr
	}
	left := prefix()
	if left == nil {
		return nil
	}

	for prec < p.precedence(p.cur().Type) {
		infix := p.infixParseFns[p.cur().Type]
		if infix == nil {
			break
		}
		left = infix(left)
		if left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) tokenText(t lexer.Token) string {
	if t.Type == lexer.EOF {
		return "end of formula"
	}
	return t.Literal
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	tok := p.cur()
	p.next()
	lit := tok.Literal
	if p.cfg.DecimalSeparator != '.' {
		lit = strings.ReplaceAll(lit, string(p.cfg.DecimalSeparator), ".")
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return p.missing("PARSE-0003", tok.Span, map[string]any{"Literal": tok.Literal})
	}
	return &ast.NumberLiteral{Pos: tok.Span, Value: v}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	tok := p.cur()
	p.next()
	return &ast.StringLiteral{Pos: tok.Span, Value: tok.Literal}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	tok := p.cur()
	p.next()
	return &ast.BooleanLiteral{Pos: tok.Span, Value: tok.Literal == "TRUE"}
}

func (p *Parser) parseErrorLiteral() ast.Expression {
	tok := p.cur()
	p.next()
	kind, _ := lexer.ErrorKindFromLiteral(tok.Literal)
	return &ast.ErrorLiteral{Pos: tok.Span, Kind: kind}
}

func (p *Parser) parseCellRef() ast.Expression {
	tok := p.cur()
	p.next()
	return &ast.CellRef{
		Pos:    tok.Span,
		Col:    tok.Cell.Col,
		Row:    tok.Cell.Row,
		AbsCol: tok.Cell.AbsCol,
		AbsRow: tok.Cell.AbsRow,
	}
}

// parseIdentifier resolves what a bare identifier is from what follows:
// Sheet!A1, NAME(...), Table[...], or a defined name.
func (p *Parser) parseIdentifier() ast.Expression {
	tok := p.cur()
	switch p.peek().Type {
	case lexer.BANG:
		p.next() // identifier
		return p.parseSheetQualified("", tok)
	case lexer.LPAREN:
		p.next() // identifier; cursor now on '('
		return p.parseCall(tok)
	case lexer.BRACKETED:
		p.next()
		spec := p.cur()
		p.next()
		return &ast.StructuredRef{
			Pos:   tok.Span.Union(spec.Span),
			Table: tok.Literal,
			Spec:  spec.Literal,
		}
	}
	p.next()
	return &ast.NameRef{Pos: tok.Span, Name: tok.Literal}
}

func (p *Parser) parseQuotedIdentifier() ast.Expression {
	tok := p.cur()
	if p.peek().Type != lexer.BANG {
		expr := p.missing("PARSE-0001", p.peek().Span, map[string]any{
			"Expected": "'!'", "Got": p.tokenText(p.peek()),
		})
		p.next()
		return expr
	}
	p.next()
	return p.parseSheetQualified("", tok)
}

// parseSheetQualified parses the `!cell-or-name` tail of a qualified
// reference. The cursor is on the '!'.
func (p *Parser) parseSheetQualified(workbook string, sheet lexer.Token) ast.Expression {
	bang := p.cur()
	p.next() // '!'
	span := sheet.Span.Union(bang.Span)
	switch p.cur().Type {
	case lexer.CELL:
		tok := p.cur()
		p.next()
		return &ast.CellRef{
			Pos:      span.Union(tok.Span),
			Workbook: workbook,
			Sheet:    sheet.Literal,
			Col:      tok.Cell.Col,
			Row:      tok.Cell.Row,
			AbsCol:   tok.Cell.AbsCol,
			AbsRow:   tok.Cell.AbsRow,
		}
	case lexer.IDENT:
		tok := p.cur()
		p.next()
		return &ast.NameRef{Pos: span.Union(tok.Span), Sheet: sheet.Literal, Name: tok.Literal}
	}
	return p.missing("PARSE-0005", p.cur().Span, map[string]any{"Sheet": sheet.Literal})
}

// parseBracketLed handles a leading [...] block: either an external
// workbook prefix ([Book1]Sheet1!A1) or, when no Sheet! pattern follows,
// a bare structured reference.
func (p *Parser) parseBracketLed() ast.Expression {
	block := p.cur()
	if (p.peek().Type == lexer.IDENT || p.peek().Type == lexer.QUOTED) && p.peekAfterType() == lexer.BANG {
		p.next() // block; cursor on sheet name
		sheet := p.cur()
		p.next() // cursor on '!'
		expr := p.parseSheetQualified(block.Literal, sheet)
		if ref, ok := expr.(*ast.CellRef); ok {
			ref.Pos = block.Span.Union(ref.Pos)
		}
		return expr
	}
	if p.peek().Type == lexer.IDENT || p.peek().Type == lexer.QUOTED {
		expr := p.missing("PARSE-0009", p.peek().Span, map[string]any{"Workbook": block.Literal})
		p.next()
		return expr
	}
	p.next()
	return &ast.StructuredRef{Pos: block.Span, Table: "", Spec: block.Literal}
}

func (p *Parser) peekAfterType() lexer.TokenType {
	if p.pos+2 >= len(p.toks) {
		return lexer.EOF
	}
	return p.toks[p.pos+2].Type
}

func (p *Parser) parseGroup() ast.Expression {
	lparen := p.cur()
	p.next()
	inner := p.parseExpression(LOWEST)
	if inner == nil {
		return nil
	}
	span := lparen.Span.Union(inner.Span())
	if p.cur().Type != lexer.RPAREN {
		p.addError("PARSE-0006", lparen.Span, nil)
		if !p.tolerant {
			return nil
		}
		return &ast.Group{Pos: span, Inner: inner}
	}
	span = span.Union(p.cur().Span)
	p.next()
	return &ast.Group{Pos: span, Inner: inner}
}

// parseArrayLiteral parses {a,b;c,d}. Rows are separated by the locale
// row separator, cells by the column separator.
func (p *Parser) parseArrayLiteral() ast.Expression {
	lbrace := p.cur()
	p.next()
	span := lbrace.Span
	rows := [][]ast.Expression{}
	row := []ast.Expression{}

	for {
		switch p.cur().Type {
		case lexer.RBRACE:
			span = span.Union(p.cur().Span)
			p.next()
			rows = append(rows, row)
			return &ast.ArrayLiteral{Pos: span, Rows: rows}
		case lexer.EOF:
			p.addError("PARSE-0007", lbrace.Span, nil)
			if !p.tolerant {
				return nil
			}
			rows = append(rows, row)
			return &ast.ArrayLiteral{Pos: span, Rows: rows}
		case lexer.COLSEP, lexer.ROWSEP:
			// Empty cell slot.
			if !p.tolerant {
				p.addError("PARSE-0002", p.cur().Span, map[string]any{"Token": p.cur().Literal})
				return nil
			}
			row = append(row, &ast.Missing{Pos: p.caret()})
			if p.cur().Type == lexer.ROWSEP {
				rows = append(rows, row)
				row = []ast.Expression{}
			}
			span = span.Union(p.cur().Span)
			p.next()
			continue
		}

		cell := p.parseExpression(LOWEST)
		if cell == nil {
			return nil
		}
		row = append(row, cell)
		span = span.Union(cell.Span())

		switch p.cur().Type {
		case lexer.COLSEP:
			span = span.Union(p.cur().Span)
			p.next()
		case lexer.ROWSEP:
			span = span.Union(p.cur().Span)
			p.next()
			rows = append(rows, row)
			row = []ast.Expression{}
		case lexer.RBRACE, lexer.EOF:
			// handled at the top of the loop
		default:
			p.addError("PARSE-0001", p.cur().Span, map[string]any{
				"Expected": "',', ';' or '}'", "Got": p.tokenText(p.cur()),
			})
			if !p.tolerant {
				return nil
			}
			p.next() // resynchronize
		}
	}
}

func (p *Parser) parsePrefix() ast.Expression {
	tok := p.cur()
	p.next()
	var op ast.UnaryOp
	switch tok.Type {
	case lexer.PLUS:
		op = ast.OpPlus
	case lexer.MINUS:
		op = ast.OpMinus
	case lexer.AT:
		op = ast.OpImplicit
	}
	operand := p.parseExpression(UNARY)
	if operand == nil {
		return nil
	}
	return &ast.Unary{Pos: tok.Span.Union(operand.Span()), Op: op, Operand: operand}
}

func (p *Parser) parseInfix(left ast.Expression) ast.Expression {
	tok := p.cur()
	op := binaryOps[tok.Type]
	prec := p.precedence(tok.Type)
	if tok.Type == lexer.CARET {
		prec-- // right-associative
	}
	p.next()
	right := p.parseExpression(prec)
	if right == nil {
		return nil
	}
	return &ast.Binary{
		Pos:   left.Span().Union(tok.Span).Union(right.Span()),
		Op:    op,
		Left:  left,
		Right: right,
	}
}

func (p *Parser) parsePostfixPercent(left ast.Expression) ast.Expression {
	tok := p.cur()
	p.next()
	return &ast.Percent{Pos: left.Span().Union(tok.Span), Operand: left}
}

// parseCallOnName is the infix '(' handler: it only makes sense when the
// left side is a bare name (the lexer cannot know SUM is a function, the
// grammar decides).
func (p *Parser) parseCallOnName(left ast.Expression) ast.Expression {
	name, ok := left.(*ast.NameRef)
	if !ok || name.Sheet != "" {
		expr := p.missing("PARSE-0002", p.cur().Span, map[string]any{"Token": "("})
		if p.tolerant {
			p.next()
		}
		return expr
	}
	tok := lexer.Token{Type: lexer.IDENT, Literal: name.Name, Span: name.Pos}
	return p.parseCall(tok)
}

// parseCall parses NAME(arg, arg, ...). The cursor is on the '('. A
// frame with the function name and current argument index is kept so
// tolerant parsing can report live autocomplete context.
func (p *Parser) parseCall(name lexer.Token) ast.Expression {
	upper := strings.ToUpper(name.Literal)
	lparen := p.cur()
	p.next()
	span := name.Span.Union(lparen.Span)

	p.stack = append(p.stack, frame{name: upper})
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()

	var args []ast.Expression
	if p.cur().Type == lexer.RPAREN {
		span = span.Union(p.cur().Span)
		p.next()
		return &ast.Call{Pos: span, Name: upper, Args: args}
	}

	for {
		switch p.cur().Type {
		case lexer.ARGSEP:
			// Empty argument slot: IF(A1,,0) is legal.
			args = append(args, &ast.Missing{Pos: p.caret()})
			span = span.Union(p.cur().Span)
			p.stack[len(p.stack)-1].arg++
			p.next()
			continue
		case lexer.RPAREN:
			args = append(args, &ast.Missing{Pos: p.caret()})
			span = span.Union(p.cur().Span)
			p.next()
			return &ast.Call{Pos: span, Name: upper, Args: args}
		}

		arg := p.parseExpression(LOWEST)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		span = span.Union(arg.Span())

		switch p.cur().Type {
		case lexer.ARGSEP:
			span = span.Union(p.cur().Span)
			p.stack[len(p.stack)-1].arg++
			p.next()
		case lexer.RPAREN:
			span = span.Union(p.cur().Span)
			p.next()
			return &ast.Call{Pos: span, Name: upper, Args: args}
		case lexer.EOF:
			p.addError("PARSE-0006", lparen.Span, nil)
			if !p.tolerant {
				return nil
			}
			return &ast.Call{Pos: span, Name: upper, Args: args}
		default:
			p.addError("PARSE-0001", p.cur().Span, map[string]any{
				"Expected": "',' or ')'", "Got": p.tokenText(p.cur()),
			})
			if !p.tolerant {
				return nil
			}
			p.next() // resynchronize
		}
	}
}
