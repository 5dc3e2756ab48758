package evaluator

import (
	"sort"

	"github.com/tallygrid/tally/pkg/formula/ast"
)

// Builtin describes one worksheet function. MaxArgs of -1 means
// variadic. Fn receives the unevaluated call so it can short-circuit.
type Builtin struct {
	Name    string
	MinArgs int
	MaxArgs int
	Fn      func(c *callCtx) Value
}

var builtins = map[string]*Builtin{}

func register(b *Builtin) {
	builtins[b.Name] = b
}

// Functions returns the registered function names, sorted. The REPL
// uses this for completion.
func Functions() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *run) evalCall(n *ast.Call) result {
	t := r.node("call", n.Pos)
	b, ok := builtins[n.Name]
	if !ok {
		return scalar(newError(ErrName), t)
	}
	if len(n.Args) < b.MinArgs || (b.MaxArgs >= 0 && len(n.Args) > b.MaxArgs) {
		return scalar(newError(ErrValue), t)
	}
	r.log.LogLine("call", n.Name)
	c := &callCtx{r: r, call: n, trace: t}
	return scalar(b.Fn(c), t)
}

// callCtx is what a builtin sees: lazy access to its arguments, each
// evaluated at most once on demand so IF and IFERROR can skip branches.
type callCtx struct {
	r     *run
	call  *ast.Call
	trace *TraceNode
}

func (c *callCtx) argCount() int { return len(c.call.Args) }

func (c *callCtx) argMissing(i int) bool {
	if i >= len(c.call.Args) {
		return true
	}
	_, ok := c.call.Args[i].(*ast.Missing)
	return ok
}

// arg evaluates argument i without dereferencing, so range-shaped
// arguments survive for functions that want them.
func (c *callCtx) arg(i int) result {
	res := c.r.eval(c.call.Args[i])
	c.trace.add(res.trace)
	return res
}

// scalarArg evaluates argument i down to a scalar.
func (c *callCtx) scalarArg(i int) Value {
	return c.r.deref(c.arg(i))
}

// eachValue streams the scalar values of argument i to fn, flagging
// whether each came from inside a range or array rather than being a
// direct scalar argument. Returning false stops the walk. The returned
// value is non-nil when the argument itself failed to evaluate.
func (c *callCtx) eachValue(i int, fn func(v Value, fromRange bool) bool) Value {
	res := c.arg(i)
	if res.val != nil {
		switch v := res.val.(type) {
		case *Error:
			return v
		case *Array:
			for _, row := range v.Rows {
				for _, cell := range row {
					if !fn(cell, true) {
						return nil
					}
				}
			}
			return nil
		default:
			fn(res.val, false)
			return nil
		}
	}
	for _, area := range res.areas {
		done := false
		area.EachCell(func(addr ast.Address) bool {
			if !fn(c.r.res.CellValue(area.Sheet, addr), true) {
				done = true
				return false
			}
			return true
		})
		if done {
			return nil
		}
	}
	return nil
}

// table is a rectangular view over a range or array argument, used by
// the lookup functions.
type table struct {
	rows int
	cols int
	at   func(row, col int) Value
}

// tableArg materializes argument i as a table. A scalar argument
// produces a 1x1 table; an error argument is returned as err.
func (c *callCtx) tableArg(i int) (table, Value) {
	res := c.arg(i)
	if res.val != nil {
		switch v := res.val.(type) {
		case *Error:
			return table{}, v
		case *Array:
			return table{
				rows: len(v.Rows),
				cols: v.Width(),
				at: func(row, col int) Value {
					if row < len(v.Rows) && col < len(v.Rows[row]) {
						return v.Rows[row][col]
					}
					return BLANK
				},
			}, nil
		default:
			return table{rows: 1, cols: 1, at: func(int, int) Value { return res.val }}, nil
		}
	}
	if len(res.areas) != 1 {
		return table{}, newError(ErrValue)
	}
	area := res.areas[0].Normalized()
	return table{
		rows: area.Height(),
		cols: area.Width(),
		at: func(row, col int) Value {
			return c.r.res.CellValue(area.Sheet, ast.Address{
				Col: area.Start.Col + col,
				Row: area.Start.Row + row,
			})
		},
	}, nil
}
