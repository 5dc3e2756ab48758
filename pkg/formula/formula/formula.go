// Package formula provides a public API for embedding the formula
// engine: parse a formula once, then evaluate it against any sheet
// resolver and cell context.
package formula

import (
	"github.com/tallygrid/tally/pkg/formula/ast"
	"github.com/tallygrid/tally/pkg/formula/errors"
	"github.com/tallygrid/tally/pkg/formula/evaluator"
	"github.com/tallygrid/tally/pkg/formula/locale"
	"github.com/tallygrid/tally/pkg/formula/parser"
)

// Convenience aliases so embedders only import this package
type (
	Ast          = ast.Ast
	Address      = ast.Address
	ParseError   = errors.FormulaError
	PartialParse = parser.PartialParse
	Value        = evaluator.Value
	Context      = evaluator.Context
	Resolver     = evaluator.Resolver
	TraceNode    = evaluator.TraceNode
	GridResolver = evaluator.GridResolver
	LocaleConfig = locale.Config
)

// Engine binds a locale to the parse and evaluate entry points. The
// zero-cost way to get one is Default(); New accepts a custom locale.
type Engine struct {
	cfg  locale.Config
	eval *evaluator.Evaluator
}

// Default returns an engine with '.' decimals and ',' separators.
func Default() *Engine {
	return New(locale.Default())
}

func New(cfg locale.Config) *Engine {
	return &Engine{cfg: cfg, eval: evaluator.New(cfg)}
}

// SetLogger directs the evaluator's debug output.
func (e *Engine) SetLogger(l Logger) {
	e.eval.SetLogger(l)
}

// Locale returns the engine's locale configuration.
func (e *Engine) Locale() locale.Config {
	return e.cfg
}

// Parse parses strictly: the first syntax error aborts.
func (e *Engine) Parse(input string) (*Ast, *ParseError) {
	return parser.Parse(input, e.cfg)
}

// ParsePartial parses tolerantly. It never fails; broken input yields a
// tree with Missing placeholders plus the first error and the editor
// context where parsing stopped.
func (e *Engine) ParsePartial(input string) *PartialParse {
	return parser.ParsePartial(input, e.cfg)
}

// Evaluate computes a parsed formula's value.
func (e *Engine) Evaluate(res Resolver, ctx Context, tree *Ast) Value {
	return e.eval.Evaluate(res, ctx, tree)
}

// EvaluateWithTrace also returns the trace tree for "explain this
// formula" consumers.
func (e *Engine) EvaluateWithTrace(res Resolver, ctx Context, tree *Ast) (Value, *TraceNode) {
	return e.eval.EvaluateWithTrace(res, ctx, tree)
}

// Eval is the one-shot helper: strict parse then evaluate.
func (e *Engine) Eval(input string, res Resolver, ctx Context) (Value, *ParseError) {
	tree, err := e.Parse(input)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(res, ctx, tree), nil
}

// Format renders a value for display under the engine's locale.
func (e *Engine) Format(v Value) string {
	return evaluator.FormatValue(v, e.cfg)
}

// Rebase rewrites a parsed formula's relative references from anchor to
// target, as fill and copy operations need.
func Rebase(tree *Ast, anchor, target Address) *Ast {
	return tree.Rebase(anchor, target)
}

// Functions lists the registered worksheet function names.
func Functions() []string {
	return evaluator.Functions()
}

// NewGridResolver builds the in-memory resolver, mostly useful for
// tests and the REPL.
func NewGridResolver(sheets ...string) *GridResolver {
	return evaluator.NewGridResolver(sheets...)
}

// ParseAddress parses a plain A1-style address like "BC23".
func ParseAddress(s string) (Address, error) {
	return ast.ParseAddress(s)
}
