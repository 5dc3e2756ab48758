package evaluator

import "github.com/tallygrid/tally/pkg/formula/ast"

// ResolvedRange is a rectangle of cells on one sheet. Start and End are
// as written in the formula; call Normalized before iterating, since
// B5:A1 is legal source text.
type ResolvedRange struct {
	Sheet string
	Start ast.Address
	End   ast.Address
}

// Normalized returns the range with Start <= End on both axes.
func (r ResolvedRange) Normalized() ResolvedRange {
	out := r
	if out.Start.Col > out.End.Col {
		out.Start.Col, out.End.Col = out.End.Col, out.Start.Col
	}
	if out.Start.Row > out.End.Row {
		out.Start.Row, out.End.Row = out.End.Row, out.Start.Row
	}
	return out
}

// IsSingleCell reports whether the range covers exactly one cell.
func (r ResolvedRange) IsSingleCell() bool {
	return r.Start == r.End
}

// Width and Height assume a normalized range.
func (r ResolvedRange) Width() int  { return r.End.Col - r.Start.Col + 1 }
func (r ResolvedRange) Height() int { return r.End.Row - r.Start.Row + 1 }

// Contains reports whether the address lies inside the normalized range.
func (r ResolvedRange) Contains(a ast.Address) bool {
	n := r.Normalized()
	return a.Col >= n.Start.Col && a.Col <= n.End.Col &&
		a.Row >= n.Start.Row && a.Row <= n.End.Row
}

// EachCell visits every address in row-major order. Returning false from
// the callback stops the walk. The receiver is normalized first.
func (r ResolvedRange) EachCell(fn func(ast.Address) bool) {
	n := r.Normalized()
	for row := n.Start.Row; row <= n.End.Row; row++ {
		for col := n.Start.Col; col <= n.End.Col; col++ {
			if !fn(ast.Address{Col: col, Row: row}) {
				return
			}
		}
	}
}

// intersect returns the geometric overlap of two ranges on the same
// sheet. ok is false when they are disjoint or on different sheets.
func intersect(a, b ResolvedRange) (ResolvedRange, bool) {
	if a.Sheet != b.Sheet {
		return ResolvedRange{}, false
	}
	an, bn := a.Normalized(), b.Normalized()
	out := ResolvedRange{
		Sheet: a.Sheet,
		Start: ast.Address{Col: maxInt(an.Start.Col, bn.Start.Col), Row: maxInt(an.Start.Row, bn.Start.Row)},
		End:   ast.Address{Col: minInt(an.End.Col, bn.End.Col), Row: minInt(an.End.Row, bn.End.Row)},
	}
	if out.Start.Col > out.End.Col || out.Start.Row > out.End.Row {
		return ResolvedRange{}, false
	}
	return out, true
}

// boundingBox returns the smallest range covering both ranges, used by
// the binary ':' operator (A1:B2:C3 chains to one rectangle). ok is
// false across sheets.
func boundingBox(a, b ResolvedRange) (ResolvedRange, bool) {
	if a.Sheet != b.Sheet {
		return ResolvedRange{}, false
	}
	an, bn := a.Normalized(), b.Normalized()
	return ResolvedRange{
		Sheet: a.Sheet,
		Start: ast.Address{Col: minInt(an.Start.Col, bn.Start.Col), Row: minInt(an.Start.Row, bn.Start.Row)},
		End:   ast.Address{Col: maxInt(an.End.Col, bn.End.Col), Row: maxInt(an.End.Row, bn.End.Row)},
	}, true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
