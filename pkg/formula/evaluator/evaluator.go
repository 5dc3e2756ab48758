// Package evaluator walks a parsed formula tree against a cell resolver
// and produces a runtime value, optionally with a trace tree mirroring
// the expression structure. Evaluation never panics and never returns a
// Go error: every failure is an in-band Error value.
package evaluator

import (
	"math"

	"golang.org/x/text/collate"

	"github.com/tallygrid/tally/pkg/formula/ast"
	"github.com/tallygrid/tally/pkg/formula/lexer"
	"github.com/tallygrid/tally/pkg/formula/locale"
)

// maxEvalDepth caps tree recursion so pathological nesting fails closed
// with a #VALUE! instead of exhausting the goroutine stack.
const maxEvalDepth = 256

// NameResolver is an optional Resolver capability for defined names.
// Without it every bare name evaluates to #NAME?.
type NameResolver interface {
	ResolveName(sheet, name string) (ResolvedRange, bool)
}

// TableResolver is an optional Resolver capability for structured
// (table) references. Without it they evaluate to #REF!.
type TableResolver interface {
	ResolveTable(table, spec string) (ResolvedRange, bool)
}

// Evaluator holds the locale-dependent machinery shared across
// evaluations. It carries no per-call state, so one Evaluator may be
// used from multiple goroutines as long as the Resolver tolerates
// concurrent reads.
type Evaluator struct {
	cfg      locale.Config
	collator *collate.Collator
	log      Logger
}

func New(cfg locale.Config) *Evaluator {
	return &Evaluator{
		cfg:      cfg,
		collator: collate.New(cfg.Tag(), collate.IgnoreCase),
		log:      NullLogger(),
	}
}

// SetLogger directs debug output (resolved references, dispatched
// calls) to l.
func (e *Evaluator) SetLogger(l Logger) {
	if l != nil {
		e.log = l
	}
}

// Evaluate computes the formula's value against the resolver and
// context.
func (e *Evaluator) Evaluate(res Resolver, ctx Context, tree *ast.Ast) Value {
	v, _ := e.run(res, ctx, tree, false)
	return v
}

// EvaluateWithTrace computes the formula's value and returns the trace
// tree alongside it. The trace mirrors the expression: one node per
// evaluated sub-expression, reference nodes carrying the resolved range.
func (e *Evaluator) EvaluateWithTrace(res Resolver, ctx Context, tree *ast.Ast) (Value, *TraceNode) {
	return e.run(res, ctx, tree, true)
}

func (e *Evaluator) run(res Resolver, ctx Context, tree *ast.Ast, tracing bool) (Value, *TraceNode) {
	if tree == nil || tree.Root == nil {
		return BLANK, nil
	}
	r := &run{Evaluator: e, res: res, ctx: ctx, tracing: tracing}
	out := r.eval(tree.Root)
	v := r.deref(out)
	return v, out.trace
}

// run is the per-call state: one evaluation, one goroutine.
type run struct {
	*Evaluator
	res     Resolver
	ctx     Context
	tracing bool
	depth   int
}

// result is what evaluating one node yields: either a scalar value or
// an unresolved reference (one or more areas, from the union operator).
// Exactly one of val and areas is set.
type result struct {
	val   Value
	areas []ResolvedRange
	trace *TraceNode
}

func (r *run) node(kind string, span lexer.Span) *TraceNode {
	if !r.tracing {
		return nil
	}
	return &TraceNode{Kind: kind, Span: span}
}

func scalar(v Value, t *TraceNode) result {
	t.setValue(v)
	return result{val: v, trace: t}
}

func reference(areas []ResolvedRange, t *TraceNode) result {
	if t != nil && len(areas) == 1 {
		t.Ref = traceRef(areas[0])
	}
	return result{areas: areas, trace: t}
}

// deref collapses a result to a scalar: a single-cell reference reads
// the resolver, anything wider in scalar position is #SPILL!.
func (r *run) deref(res result) Value {
	if res.val != nil {
		return res.val
	}
	if len(res.areas) == 1 && res.areas[0].IsSingleCell() {
		v := r.res.CellValue(res.areas[0].Sheet, res.areas[0].Start)
		res.trace.setValue(v)
		return v
	}
	err := newError(ErrSpill)
	res.trace.setValue(err)
	return err
}

func (r *run) eval(node ast.Expression) result {
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > maxEvalDepth {
		return scalar(newError(ErrValue), r.node("depth", node.Span()))
	}

	switch n := node.(type) {
	case *ast.NumberLiteral:
		return scalar(&Number{Value: n.Value}, r.node("number", n.Pos))
	case *ast.StringLiteral:
		return scalar(&Text{Value: n.Value}, r.node("string", n.Pos))
	case *ast.BooleanLiteral:
		return scalar(boolValue(n.Value), r.node("boolean", n.Pos))
	case *ast.ErrorLiteral:
		return scalar(newError(n.Kind), r.node("error", n.Pos))
	case *ast.Missing:
		return scalar(MISSING, r.node("missing", n.Pos))
	case *ast.CellRef:
		return r.evalCellRef(n)
	case *ast.NameRef:
		return r.evalNameRef(n)
	case *ast.StructuredRef:
		return r.evalStructuredRef(n)
	case *ast.Group:
		t := r.node("group", n.Pos)
		inner := r.eval(n.Inner)
		t.add(inner.trace)
		if inner.val == nil {
			return reference(inner.areas, t)
		}
		return scalar(inner.val, t)
	case *ast.Unary:
		return r.evalUnary(n)
	case *ast.Binary:
		return r.evalBinary(n)
	case *ast.Percent:
		t := r.node("percent", n.Pos)
		operand := r.eval(n.Operand)
		t.add(operand.trace)
		v := r.toNumber(r.deref(operand))
		if num, ok := v.(*Number); ok {
			v = &Number{Value: num.Value / 100}
		}
		return scalar(v, t)
	case *ast.ArrayLiteral:
		return r.evalArrayLiteral(n)
	case *ast.Call:
		return r.evalCall(n)
	default:
		return scalar(newError(ErrValue), r.node("unknown", node.Span()))
	}
}

func (r *run) evalCellRef(n *ast.CellRef) result {
	t := r.node("cell", n.Pos)
	if n.Workbook != "" {
		// External workbooks are parsed but not resolvable here.
		return scalar(newError(ErrRef), t)
	}
	sheet := n.Sheet
	if sheet == "" {
		sheet = r.ctx.Sheet
	}
	if !r.res.SheetExists(sheet) {
		return scalar(newError(ErrRef), t)
	}
	addr := n.Address()
	if !addr.InBounds() {
		return scalar(newError(ErrRef), t)
	}
	area := ResolvedRange{Sheet: sheet, Start: addr, End: addr}
	r.log.LogLine("ref", n.String(), "->", sheet, addr.String())
	return reference([]ResolvedRange{area}, t)
}

func (r *run) evalNameRef(n *ast.NameRef) result {
	t := r.node("name", n.Pos)
	if nr, ok := r.res.(NameResolver); ok {
		sheet := n.Sheet
		if sheet == "" {
			sheet = r.ctx.Sheet
		}
		if area, ok := nr.ResolveName(sheet, n.Name); ok {
			return reference([]ResolvedRange{area}, t)
		}
	}
	return scalar(newError(ErrName), t)
}

func (r *run) evalStructuredRef(n *ast.StructuredRef) result {
	t := r.node("structured", n.Pos)
	if tr, ok := r.res.(TableResolver); ok {
		if area, ok := tr.ResolveTable(n.Table, n.Spec); ok {
			return reference([]ResolvedRange{area}, t)
		}
	}
	return scalar(newError(ErrRef), t)
}

func (r *run) evalUnary(n *ast.Unary) result {
	t := r.node("unary", n.Pos)
	operand := r.eval(n.Operand)
	t.add(operand.trace)

	if n.Op == ast.OpImplicit {
		return r.implicitIntersect(operand, t)
	}

	v := r.toNumber(r.deref(operand))
	num, ok := v.(*Number)
	if !ok {
		return scalar(v, t)
	}
	if n.Op == ast.OpMinus {
		return scalar(&Number{Value: -num.Value}, t)
	}
	return scalar(num, t)
}

// implicitIntersect reduces a reference to the one cell aligned with
// the evaluation context. Single cells and plain scalars pass through.
// A one-row or one-column reference intersects along its axis, a 2-D
// reference only when the current cell lies inside it.
func (r *run) implicitIntersect(operand result, t *TraceNode) result {
	if operand.val != nil {
		return scalar(operand.val, t)
	}
	if len(operand.areas) != 1 {
		return scalar(newError(ErrValue), t)
	}
	area := operand.areas[0].Normalized()
	if area.IsSingleCell() {
		return reference([]ResolvedRange{area}, t)
	}
	cur := r.ctx.Cell
	if !area.Contains(cur) {
		return scalar(newError(ErrValue), t)
	}
	var hit ast.Address
	switch {
	case area.Width() == 1:
		hit = ast.Address{Col: area.Start.Col, Row: cur.Row}
	case area.Height() == 1:
		hit = ast.Address{Col: cur.Col, Row: area.Start.Row}
	default:
		hit = cur
	}
	return reference([]ResolvedRange{{Sheet: area.Sheet, Start: hit, End: hit}}, t)
}

func (r *run) evalBinary(n *ast.Binary) result {
	t := r.node("binary", n.Pos)

	switch n.Op {
	case ast.OpRange, ast.OpIntersect, ast.OpUnion:
		return r.evalRangeOp(n, t)
	}

	left := r.eval(n.Left)
	t.add(left.trace)
	lv := r.deref(left)
	right := r.eval(n.Right)
	t.add(right.trace)
	rv := r.deref(right)

	switch n.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpPow:
		return scalar(r.arith(n.Op, lv, rv), t)
	case ast.OpConcat:
		return scalar(r.concat(lv, rv), t)
	default:
		return scalar(r.relational(n.Op, lv, rv), t)
	}
}

// evalRangeOp handles the reference-algebra operators. Both operands
// must themselves be references.
func (r *run) evalRangeOp(n *ast.Binary, t *TraceNode) result {
	left := r.eval(n.Left)
	t.add(left.trace)
	right := r.eval(n.Right)
	t.add(right.trace)

	if v, ok := firstError(left.val, right.val); ok {
		return scalar(v, t)
	}
	if left.val != nil || right.val != nil {
		return scalar(newError(ErrValue), t)
	}

	switch n.Op {
	case ast.OpUnion:
		return reference(append(append([]ResolvedRange{}, left.areas...), right.areas...), t)
	case ast.OpRange:
		if len(left.areas) != 1 || len(right.areas) != 1 {
			return scalar(newError(ErrValue), t)
		}
		la, ra := left.areas[0], right.areas[0]
		// The parser attaches a sheet prefix to one endpoint only, so
		// in Data!B1:B2 the right endpoint carries no sheet of its own.
		// An unqualified endpoint inherits the qualified one's sheet.
		if la.Sheet != ra.Sheet {
			switch {
			case unqualifiedRef(n.Right) && !unqualifiedRef(n.Left):
				ra.Sheet = la.Sheet
			case unqualifiedRef(n.Left) && !unqualifiedRef(n.Right):
				la.Sheet = ra.Sheet
			}
		}
		box, ok := boundingBox(la, ra)
		if !ok {
			return scalar(newError(ErrValue), t)
		}
		return reference([]ResolvedRange{box}, t)
	default: // intersect
		var out []ResolvedRange
		for _, a := range left.areas {
			for _, b := range right.areas {
				if ov, ok := intersect(a, b); ok {
					out = append(out, ov)
				}
			}
		}
		if len(out) == 0 {
			return scalar(newError(ErrNull), t)
		}
		return reference(out, t)
	}
}

// unqualifiedRef reports whether a range endpoint names no sheet or
// workbook of its own.
func unqualifiedRef(e ast.Expression) bool {
	if g, ok := e.(*ast.Group); ok {
		return unqualifiedRef(g.Inner)
	}
	ref, ok := e.(*ast.CellRef)
	return ok && ref.Sheet == "" && ref.Workbook == ""
}

func firstError(vals ...Value) (Value, bool) {
	for _, v := range vals {
		if v != nil && isError(v) {
			return v, true
		}
	}
	return nil, false
}

func (r *run) arith(op ast.BinaryOp, lv, rv Value) Value {
	ln := r.toNumber(lv)
	if isError(ln) {
		return ln
	}
	rn := r.toNumber(rv)
	if isError(rn) {
		return rn
	}
	a, b := ln.(*Number).Value, rn.(*Number).Value
	switch op {
	case ast.OpAdd:
		return &Number{Value: a + b}
	case ast.OpSub:
		return &Number{Value: a - b}
	case ast.OpMul:
		return &Number{Value: a * b}
	case ast.OpDiv:
		if b == 0 {
			return newError(ErrDiv0)
		}
		return &Number{Value: a / b}
	default:
		return power(a, b)
	}
}

// power maps floating-point domain errors onto spreadsheet error kinds.
func power(base, exp float64) Value {
	if base == 0 {
		if exp == 0 {
			return newError(ErrNum)
		}
		if exp < 0 {
			return newError(ErrDiv0)
		}
	}
	v := math.Pow(base, exp)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return newError(ErrNum)
	}
	return &Number{Value: v}
}

func (r *run) concat(lv, rv Value) Value {
	lt := r.toText(lv)
	if isError(lt) {
		return lt
	}
	rt := r.toText(rv)
	if isError(rt) {
		return rt
	}
	return &Text{Value: lt.(*Text).Value + rt.(*Text).Value}
}

func (r *run) relational(op ast.BinaryOp, lv, rv Value) Value {
	cmp, errv := r.compare(lv, rv)
	if errv != nil {
		return errv
	}
	switch op {
	case ast.OpEq:
		return boolValue(cmp == 0)
	case ast.OpNeq:
		return boolValue(cmp != 0)
	case ast.OpLt:
		return boolValue(cmp < 0)
	case ast.OpLte:
		return boolValue(cmp <= 0)
	case ast.OpGt:
		return boolValue(cmp > 0)
	default:
		return boolValue(cmp >= 0)
	}
}

func (r *run) evalArrayLiteral(n *ast.ArrayLiteral) result {
	t := r.node("array", n.Pos)
	rows := make([][]Value, len(n.Rows))
	for i, row := range n.Rows {
		rows[i] = make([]Value, len(row))
		for j, cell := range row {
			res := r.eval(cell)
			t.add(res.trace)
			rows[i][j] = r.deref(res)
		}
	}
	return scalar(&Array{Rows: rows}, t)
}
