package evaluator

func init() {
	register(&Builtin{Name: "IF", MinArgs: 1, MaxArgs: 3, Fn: fnIf})
	register(&Builtin{Name: "IFERROR", MinArgs: 2, MaxArgs: 2, Fn: fnIfError})
	register(&Builtin{Name: "ISERROR", MinArgs: 1, MaxArgs: 1, Fn: fnIsError})
	register(&Builtin{Name: "AND", MinArgs: 1, MaxArgs: -1, Fn: fnAnd})
	register(&Builtin{Name: "OR", MinArgs: 1, MaxArgs: -1, Fn: fnOr})
	register(&Builtin{Name: "NOT", MinArgs: 1, MaxArgs: 1, Fn: fnNot})
}

// fnIf coerces the condition to a boolean and evaluates only the taken
// branch. A missing branch yields Blank.
func fnIf(c *callCtx) Value {
	cond := c.r.toBool(c.scalarArg(0))
	if isError(cond) {
		return cond
	}
	branch := 2
	if cond.(*Boolean).Value {
		branch = 1
	}
	if c.argMissing(branch) {
		return BLANK
	}
	return c.scalarArg(branch)
}

// fnIfError evaluates its first argument and substitutes the second
// only when the first is an error.
func fnIfError(c *callCtx) Value {
	v := c.scalarArg(0)
	if isError(v) {
		return c.scalarArg(1)
	}
	return v
}

// fnIsError always returns a boolean; the probed error never
// propagates.
func fnIsError(c *callCtx) Value {
	return boolValue(isError(c.scalarArg(0)))
}

func fnAnd(c *callCtx) Value {
	return fnAndOr(c, true)
}

func fnOr(c *callCtx) Value {
	return fnAndOr(c, false)
}

// fnAndOr folds every boolean-coercible value across all arguments.
// Text and blanks inside ranges are skipped; no usable value at all is
// #VALUE!.
func fnAndOr(c *callCtx, wantAll bool) Value {
	seen := false
	acc := wantAll
	for i := 0; i < c.argCount(); i++ {
		var failed Value
		err := c.eachValue(i, func(v Value, fromRange bool) bool {
			if isError(v) {
				failed = v
				return false
			}
			if fromRange {
				switch v.(type) {
				case *Text, *Blank:
					return true
				}
			}
			b := c.r.toBool(v)
			if isError(b) {
				failed = b
				return false
			}
			seen = true
			if wantAll {
				acc = acc && b.(*Boolean).Value
			} else {
				acc = acc || b.(*Boolean).Value
			}
			return true
		})
		if err != nil {
			return err
		}
		if failed != nil {
			return failed
		}
	}
	if !seen {
		return newError(ErrValue)
	}
	return boolValue(acc)
}

func fnNot(c *callCtx) Value {
	b := c.r.toBool(c.scalarArg(0))
	if isError(b) {
		return b
	}
	return boolValue(!b.(*Boolean).Value)
}
