package evaluator

import "math"

func init() {
	register(&Builtin{Name: "SUM", MinArgs: 1, MaxArgs: -1, Fn: fnSum})
	register(&Builtin{Name: "COUNT", MinArgs: 1, MaxArgs: -1, Fn: fnCount})
	register(&Builtin{Name: "COUNTA", MinArgs: 1, MaxArgs: -1, Fn: fnCountA})
	register(&Builtin{Name: "MIN", MinArgs: 1, MaxArgs: -1, Fn: fnMin})
	register(&Builtin{Name: "MAX", MinArgs: 1, MaxArgs: -1, Fn: fnMax})
	register(&Builtin{Name: "AVERAGE", MinArgs: 1, MaxArgs: -1, Fn: fnAverage})
	register(&Builtin{Name: "ABS", MinArgs: 1, MaxArgs: 1, Fn: fnAbs})
	register(&Builtin{Name: "ROUND", MinArgs: 2, MaxArgs: 2, Fn: fnRound})
}

// aggregate folds the numeric values of every argument. Direct scalar
// arguments must coerce to numbers; text, blanks and booleans inside
// ranges are skipped. The first error anywhere stops the fold.
func aggregate(c *callCtx, fn func(n float64)) Value {
	for i := 0; i < c.argCount(); i++ {
		var failed Value
		err := c.eachValue(i, func(v Value, fromRange bool) bool {
			if isError(v) {
				failed = v
				return false
			}
			if fromRange {
				switch v.(type) {
				case *Number:
					fn(v.(*Number).Value)
				}
				return true
			}
			n := c.r.toNumber(v)
			if isError(n) {
				failed = n
				return false
			}
			fn(n.(*Number).Value)
			return true
		})
		if err != nil {
			return err
		}
		if failed != nil {
			return failed
		}
	}
	return nil
}

func fnSum(c *callCtx) Value {
	total := 0.0
	if err := aggregate(c, func(n float64) { total += n }); err != nil {
		return err
	}
	return &Number{Value: total}
}

// fnCount counts numeric values only; errors in ranges are skipped, not
// propagated.
func fnCount(c *callCtx) Value {
	count := 0
	for i := 0; i < c.argCount(); i++ {
		if err := c.eachValue(i, func(v Value, fromRange bool) bool {
			switch v.(type) {
			case *Number:
				count++
			case *Text, *Boolean:
				if !fromRange {
					if n := c.r.toNumber(v); !isError(n) {
						count++
					}
				}
			}
			return true
		}); err != nil {
			return err
		}
	}
	return &Number{Value: float64(count)}
}

// fnCountA counts every non-blank value, errors included.
func fnCountA(c *callCtx) Value {
	count := 0
	for i := 0; i < c.argCount(); i++ {
		if err := c.eachValue(i, func(v Value, fromRange bool) bool {
			if _, blank := v.(*Blank); !blank {
				count++
			}
			return true
		}); err != nil {
			return err
		}
	}
	return &Number{Value: float64(count)}
}

func fnMin(c *callCtx) Value {
	return extremum(c, func(a, b float64) bool { return a < b })
}

func fnMax(c *callCtx) Value {
	return extremum(c, func(a, b float64) bool { return a > b })
}

func extremum(c *callCtx, better func(a, b float64) bool) Value {
	best := 0.0
	seen := false
	if err := aggregate(c, func(n float64) {
		if !seen || better(n, best) {
			best = n
			seen = true
		}
	}); err != nil {
		return err
	}
	return &Number{Value: best}
}

func fnAverage(c *callCtx) Value {
	total := 0.0
	count := 0
	if err := aggregate(c, func(n float64) {
		total += n
		count++
	}); err != nil {
		return err
	}
	if count == 0 {
		return newError(ErrDiv0)
	}
	return &Number{Value: total / float64(count)}
}

func fnAbs(c *callCtx) Value {
	n := c.r.toNumber(c.scalarArg(0))
	if isError(n) {
		return n
	}
	return &Number{Value: math.Abs(n.(*Number).Value)}
}

// fnRound rounds half away from zero, which math.Round already does.
func fnRound(c *callCtx) Value {
	n := c.r.toNumber(c.scalarArg(0))
	if isError(n) {
		return n
	}
	d := c.r.toNumber(c.scalarArg(1))
	if isError(d) {
		return d
	}
	digits := int(d.(*Number).Value)
	shift := math.Pow(10, float64(digits))
	v := n.(*Number).Value * shift
	if math.IsInf(v, 0) {
		return newError(ErrNum)
	}
	return &Number{Value: math.Round(v) / shift}
}
