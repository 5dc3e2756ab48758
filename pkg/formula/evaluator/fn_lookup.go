package evaluator

func init() {
	register(&Builtin{Name: "VLOOKUP", MinArgs: 3, MaxArgs: 4, Fn: fnVLookup})
}

// fnVLookup scans the first column of the table for the key. Exact mode
// returns the first matching row; approximate mode (the default) keeps
// the last row whose key is <= the lookup key, assuming the column is
// sorted ascending.
func fnVLookup(c *callCtx) Value {
	key := c.scalarArg(0)
	if isError(key) {
		return key
	}
	tbl, errv := c.tableArg(1)
	if errv != nil {
		return errv
	}
	colv := c.r.toNumber(c.scalarArg(2))
	if isError(colv) {
		return colv
	}
	col := int(colv.(*Number).Value)
	if col < 1 || col > tbl.cols {
		return newError(ErrRef)
	}

	approx := true
	if c.argCount() == 4 && !c.argMissing(3) {
		b := c.r.toBool(c.scalarArg(3))
		if isError(b) {
			return b
		}
		approx = b.(*Boolean).Value
	}

	match := -1
	for row := 0; row < tbl.rows; row++ {
		cmp, errv := c.r.compare(tbl.at(row, 0), key)
		if errv != nil {
			return errv
		}
		if !approx {
			if cmp == 0 {
				return tbl.at(row, col-1)
			}
			continue
		}
		if cmp <= 0 {
			match = row
		}
	}
	if approx && match >= 0 {
		return tbl.at(match, col-1)
	}
	return newError(ErrNA)
}
