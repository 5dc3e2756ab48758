package ast

import "github.com/tallygrid/tally/pkg/formula/lexer"

// Rebase rewrites the formula's relative references as if the formula
// were copied from the anchor cell to the target cell, the way fill and
// copy/paste re-anchor formulas without re-parsing. Absolute coordinates
// are untouched. A relative coordinate pushed off the grid becomes a
// #REF! literal, matching what a pasted formula shows.
//
// The receiver is never mutated; Rebase returns a new tree. Spans are
// carried over from the source tree, so they keep pointing into the text
// the formula was originally parsed from.
func (a *Ast) Rebase(anchor, target Address) *Ast {
	if a == nil || a.Root == nil {
		return a
	}
	dCol := target.Col - anchor.Col
	dRow := target.Row - anchor.Row
	return &Ast{HasEquals: a.HasEquals, Root: rebaseExpr(a.Root, dCol, dRow)}
}

func rebaseExpr(e Expression, dCol, dRow int) Expression {
	switch n := e.(type) {
	case *CellRef:
		out := *n
		if !n.AbsCol {
			out.Col += dCol
		}
		if !n.AbsRow {
			out.Row += dRow
		}
		if !(Address{Col: out.Col, Row: out.Row}).InBounds() {
			return &ErrorLiteral{Pos: n.Pos, Kind: lexer.ErrRef}
		}
		return &out
	case *Group:
		return &Group{Pos: n.Pos, Inner: rebaseExpr(n.Inner, dCol, dRow)}
	case *Unary:
		return &Unary{Pos: n.Pos, Op: n.Op, Operand: rebaseExpr(n.Operand, dCol, dRow)}
	case *Binary:
		return &Binary{
			Pos:   n.Pos,
			Op:    n.Op,
			Left:  rebaseExpr(n.Left, dCol, dRow),
			Right: rebaseExpr(n.Right, dCol, dRow),
		}
	case *Percent:
		return &Percent{Pos: n.Pos, Operand: rebaseExpr(n.Operand, dCol, dRow)}
	case *ArrayLiteral:
		rows := make([][]Expression, len(n.Rows))
		for i, row := range n.Rows {
			rows[i] = make([]Expression, len(row))
			for j, cell := range row {
				rows[i][j] = rebaseExpr(cell, dCol, dRow)
			}
		}
		return &ArrayLiteral{Pos: n.Pos, Rows: rows}
	case *Call:
		args := make([]Expression, len(n.Args))
		for i, arg := range n.Args {
			args[i] = rebaseExpr(arg, dCol, dRow)
		}
		return &Call{Pos: n.Pos, Name: n.Name, Args: args}
	default:
		// Literals, names, structured refs and Missing have no
		// relative coordinates.
		return e
	}
}
