package ast

import (
	"strings"
	"testing"

	"github.com/tallygrid/tally/pkg/formula/lexer"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		input string
		col   int
		row   int
	}{
		{"A1", 0, 0},
		{"a1", 0, 0},
		{"Z9", 25, 8},
		{"AA10", 26, 9},
		{"XFD1048576", 16383, 1048575},
	}
	for _, tt := range tests {
		addr, err := ParseAddress(tt.input)
		if err != nil {
			t.Errorf("ParseAddress(%q): %v", tt.input, err)
			continue
		}
		if addr.Col != tt.col || addr.Row != tt.row {
			t.Errorf("ParseAddress(%q) = %+v, want col %d row %d", tt.input, addr, tt.col, tt.row)
		}
		if got := addr.String(); got != strings.ToUpper(tt.input) {
			t.Errorf("Address(%q).String() = %q", tt.input, got)
		}
	}

	bad := []string{"", "1", "A", "A0", "AAAA1", "A1B", "XFE1", "A1048577"}
	for _, input := range bad {
		if _, err := ParseAddress(input); err == nil {
			t.Errorf("ParseAddress(%q): expected an error", input)
		}
	}
}

func TestStringEscaping(t *testing.T) {
	s := &StringLiteral{Value: `say "hi"`}
	if got := s.String(); got != `"say ""hi"""` {
		t.Errorf("StringLiteral.String() = %q", got)
	}

	ref := &CellRef{Sheet: "My Sheet", Col: 0, Row: 0}
	if got := ref.String(); got != "'My Sheet'!A1" {
		t.Errorf("CellRef.String() = %q", got)
	}
	ref = &CellRef{Sheet: "Data_2", Col: 1, Row: 1}
	if got := ref.String(); got != "Data_2!B2" {
		t.Errorf("CellRef.String() = %q", got)
	}
}

func rebaseOne(t *testing.T, ref *CellRef, anchor, target string) Expression {
	t.Helper()
	a, err := ParseAddress(anchor)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseAddress(target)
	if err != nil {
		t.Fatal(err)
	}
	tree := (&Ast{Root: ref}).Rebase(a, b)
	return tree.Root
}

func TestRebaseRelative(t *testing.T) {
	// copied one right and two down: relative coordinates shift with it
	got := rebaseOne(t, &CellRef{Col: 0, Row: 0}, "C3", "D5")
	ref := got.(*CellRef)
	if ref.Col != 1 || ref.Row != 2 {
		t.Errorf("rebased A1 = %s", ref.String())
	}

	// absolute flags pin their axis
	got = rebaseOne(t, &CellRef{Col: 1, Row: 1, AbsCol: true, AbsRow: true}, "C3", "D5")
	ref = got.(*CellRef)
	if ref.Col != 1 || ref.Row != 1 {
		t.Errorf("rebased $B$2 = %s", ref.String())
	}

	// mixed: $A1 keeps its column, shifts its row
	got = rebaseOne(t, &CellRef{Col: 0, Row: 0, AbsCol: true}, "C3", "D5")
	ref = got.(*CellRef)
	if ref.Col != 0 || ref.Row != 2 {
		t.Errorf("rebased $A1 = %s", ref.String())
	}
}

func TestRebaseOffGrid(t *testing.T) {
	// pushed above row 1: the reference degrades to #REF!
	got := rebaseOne(t, &CellRef{Col: 0, Row: 0}, "A2", "A1")
	errLit, ok := got.(*ErrorLiteral)
	if !ok || errLit.Kind != lexer.ErrRef {
		t.Errorf("off-grid rebase = %#v, want #REF! literal", got)
	}

	got = rebaseOne(t, &CellRef{Col: 0, Row: 5}, "B1", "A1")
	if _, ok := got.(*ErrorLiteral); !ok {
		t.Errorf("off-grid column rebase = %#v, want #REF! literal", got)
	}
}

func TestRebaseDoesNotMutate(t *testing.T) {
	inner := &CellRef{Col: 2, Row: 2}
	orig := &Ast{HasEquals: true, Root: &Binary{
		Op:    OpAdd,
		Left:  inner,
		Right: &NumberLiteral{Value: 1},
	}}
	a, _ := ParseAddress("A1")
	b, _ := ParseAddress("B2")
	moved := orig.Rebase(a, b)

	if inner.Col != 2 || inner.Row != 2 {
		t.Error("rebase mutated the source tree")
	}
	movedRef := moved.Root.(*Binary).Left.(*CellRef)
	if movedRef.Col != 3 || movedRef.Row != 3 {
		t.Errorf("rebased ref = %s, want D4", movedRef.String())
	}
	if !moved.HasEquals {
		t.Error("rebase dropped the leading equals flag")
	}
}

func TestRebaseWalksComposites(t *testing.T) {
	tree := &Ast{Root: &Call{
		Name: "SUM",
		Args: []Expression{
			&Binary{Op: OpRange, Left: &CellRef{Col: 0, Row: 0}, Right: &CellRef{Col: 0, Row: 4}},
			&Unary{Op: OpMinus, Operand: &CellRef{Col: 1, Row: 0}},
			&StringLiteral{Value: "x"},
		},
	}}
	a, _ := ParseAddress("A1")
	b, _ := ParseAddress("C1")
	moved := tree.Rebase(a, b)

	call := moved.Root.(*Call)
	rng := call.Args[0].(*Binary)
	if rng.Left.(*CellRef).Col != 2 || rng.Right.(*CellRef).Col != 2 {
		t.Error("range endpoints did not shift")
	}
	if call.Args[1].(*Unary).Operand.(*CellRef).Col != 3 {
		t.Error("unary operand did not shift")
	}
	if call.Args[2].(*StringLiteral).Value != "x" {
		t.Error("literal argument changed")
	}
}
