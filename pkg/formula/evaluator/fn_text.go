package evaluator

import (
	"strings"
	"unicode/utf8"
)

func init() {
	register(&Builtin{Name: "CONCATENATE", MinArgs: 1, MaxArgs: -1, Fn: fnConcatenate})
	register(&Builtin{Name: "LEN", MinArgs: 1, MaxArgs: 1, Fn: fnLen})
	register(&Builtin{Name: "UPPER", MinArgs: 1, MaxArgs: 1, Fn: fnUpper})
	register(&Builtin{Name: "LOWER", MinArgs: 1, MaxArgs: 1, Fn: fnLower})
	register(&Builtin{Name: "TRIM", MinArgs: 1, MaxArgs: 1, Fn: fnTrim})
}

func fnConcatenate(c *callCtx) Value {
	var b strings.Builder
	for i := 0; i < c.argCount(); i++ {
		t := c.r.toText(c.scalarArg(i))
		if isError(t) {
			return t
		}
		b.WriteString(t.(*Text).Value)
	}
	return &Text{Value: b.String()}
}

// fnLen counts characters, not bytes.
func fnLen(c *callCtx) Value {
	t := c.r.toText(c.scalarArg(0))
	if isError(t) {
		return t
	}
	return &Number{Value: float64(utf8.RuneCountInString(t.(*Text).Value))}
}

func fnUpper(c *callCtx) Value {
	return textMap(c, strings.ToUpper)
}

func fnLower(c *callCtx) Value {
	return textMap(c, strings.ToLower)
}

// fnTrim strips leading and trailing spaces and collapses internal runs
// of spaces to one, as the worksheet function does. Only the ASCII
// space counts; tabs and newlines pass through.
func fnTrim(c *callCtx) Value {
	return textMap(c, func(s string) string {
		var out []string
		for _, part := range strings.Split(s, " ") {
			if part != "" {
				out = append(out, part)
			}
		}
		return strings.Join(out, " ")
	})
}

func textMap(c *callCtx, fn func(string) string) Value {
	t := c.r.toText(c.scalarArg(0))
	if isError(t) {
		return t
	}
	return &Text{Value: fn(t.(*Text).Value)}
}
