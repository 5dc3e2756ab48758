package evaluator

import (
	"strconv"
	"strings"
)

// toNumber coerces a scalar to a Number following spreadsheet rules:
// booleans become 0/1, blank becomes 0, text parses as a float (with the
// locale's decimal separator) or yields #VALUE!. Errors pass through
// unchanged; arrays and spill markers are not numbers.
func (e *Evaluator) toNumber(v Value) Value {
	switch val := v.(type) {
	case *Number:
		return val
	case *Boolean:
		if val.Value {
			return &Number{Value: 1}
		}
		return &Number{Value: 0}
	case *Blank:
		return &Number{Value: 0}
	case *Text:
		if n, ok := e.parseNumericText(val.Value); ok {
			return &Number{Value: n}
		}
		return newError(ErrValue)
	case *Error:
		return val
	default:
		return newError(ErrValue)
	}
}

// toBool coerces a scalar to a Boolean: numbers are true when nonzero,
// blank is false, text accepts TRUE/FALSE (any case) or numeric text.
func (e *Evaluator) toBool(v Value) Value {
	switch val := v.(type) {
	case *Boolean:
		return val
	case *Number:
		return boolValue(val.Value != 0)
	case *Blank:
		return FALSE
	case *Text:
		switch strings.ToUpper(strings.TrimSpace(val.Value)) {
		case "TRUE":
			return TRUE
		case "FALSE":
			return FALSE
		}
		if n, ok := e.parseNumericText(val.Value); ok {
			return boolValue(n != 0)
		}
		return newError(ErrValue)
	case *Error:
		return val
	default:
		return newError(ErrValue)
	}
}

// toText coerces a scalar to display text for the concat operator and
// the text functions. Errors pass through.
func (e *Evaluator) toText(v Value) Value {
	switch val := v.(type) {
	case *Text:
		return val
	case *Number, *Boolean:
		return &Text{Value: val.Inspect()}
	case *Blank:
		return &Text{Value: ""}
	case *Error:
		return val
	default:
		return newError(ErrValue)
	}
}

// parseNumericText parses text as a number under the current locale's
// decimal separator.
func (e *Evaluator) parseNumericText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if e.cfg.DecimalSeparator != '.' {
		if strings.ContainsRune(s, '.') {
			return 0, false
		}
		s = strings.ReplaceAll(s, string(e.cfg.DecimalSeparator), ".")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
