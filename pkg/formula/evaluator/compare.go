package evaluator

// Comparison operators order values across types: every number sorts
// below every text, and every text below every boolean. Text compares
// case-insensitively under the configured locale's collation. A blank
// operand adopts the other side's type as its zero value first.

func (e *Evaluator) compare(a, b Value) (int, Value) {
	if err, ok := a.(*Error); ok {
		return 0, err
	}
	if err, ok := b.(*Error); ok {
		return 0, err
	}
	a, b = coerceBlankPair(a, b)

	ra, rb := typeRank(a), typeRank(b)
	if ra < 0 || rb < 0 {
		return 0, newError(ErrValue)
	}
	if ra != rb {
		if ra < rb {
			return -1, nil
		}
		return 1, nil
	}

	switch av := a.(type) {
	case *Number:
		bv := b.(*Number)
		switch {
		case av.Value < bv.Value:
			return -1, nil
		case av.Value > bv.Value:
			return 1, nil
		}
		return 0, nil
	case *Text:
		return e.collator.CompareString(av.Value, b.(*Text).Value), nil
	case *Boolean:
		bv := b.(*Boolean)
		switch {
		case !av.Value && bv.Value:
			return -1, nil
		case av.Value && !bv.Value:
			return 1, nil
		}
		return 0, nil
	}
	return 0, newError(ErrValue)
}

// coerceBlankPair replaces a blank operand with the zero value of the
// other operand's type. Two blanks compare as empty text.
func coerceBlankPair(a, b Value) (Value, Value) {
	_, aBlank := a.(*Blank)
	_, bBlank := b.(*Blank)
	switch {
	case aBlank && bBlank:
		return &Text{Value: ""}, &Text{Value: ""}
	case aBlank:
		return zeroOf(b), b
	case bBlank:
		return a, zeroOf(a)
	}
	return a, b
}

func zeroOf(v Value) Value {
	switch v.(type) {
	case *Number:
		return &Number{Value: 0}
	case *Text:
		return &Text{Value: ""}
	case *Boolean:
		return FALSE
	}
	return BLANK
}

func typeRank(v Value) int {
	switch v.(type) {
	case *Number:
		return 0
	case *Text:
		return 1
	case *Boolean:
		return 2
	}
	return -1
}
