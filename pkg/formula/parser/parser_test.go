package parser

import (
	"strings"
	"testing"

	"github.com/tallygrid/tally/pkg/formula/ast"
	"github.com/tallygrid/tally/pkg/formula/locale"
)

func parse(t *testing.T, input string) *ast.Ast {
	t.Helper()
	tree, err := Parse(input, locale.Default())
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return tree
}

func TestCanonicalString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"=1+2*3", "=1+2*3"},
		{"= 1 + 2", "=1+2"},
		{"=(1+2)*3", "=(1+2)*3"},
		{"=2^3^2", "=2^3^2"},
		{"=50%+1", "=50%+1"},
		{`="a""b"`, `="a""b"`},
		{"=#DIV/0!", "=#DIV/0!"},
		{"=$B$2", "=$B$2"},
		{"=Sheet1!A1", "=Sheet1!A1"},
		{"='My Sheet'!A1", "='My Sheet'!A1"},
		{"=[Book1]Sheet1!A1", "=[Book1]Sheet1!A1"},
		{"=Table1[#All]", "=Table1[#All]"},
		{"={1,2;3,4}", "={1,2;3,4}"},
		{"=sum(a1:b2, 3)", "=SUM(A1:B2,3)"},
		{"=-A1%", "=-A1%"},
		{"=@B1:B5", "=@B1:B5"},
		{"=TRUE<>FALSE", "=TRUE<>FALSE"},
		{"1+2", "1+2"}, // no leading equals
	}
	for _, tt := range tests {
		got := parse(t, tt.input).String()
		if got != tt.want {
			t.Errorf("parse(%q).String() = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPrecedenceShapes(t *testing.T) {
	root := parse(t, "=1+2*3").Root
	add, ok := root.(*ast.Binary)
	if !ok || add.Op != ast.OpAdd {
		t.Fatalf("root of =1+2*3 is %T, want + binary", root)
	}
	if mul, ok := add.Right.(*ast.Binary); !ok || mul.Op != ast.OpMul {
		t.Errorf("right of + is %T, want * binary", add.Right)
	}

	// exponent is right-associative
	root = parse(t, "=2^3^2").Root
	pow := root.(*ast.Binary)
	if pow.Op != ast.OpPow {
		t.Fatalf("root op = %v, want ^", pow.Op)
	}
	if inner, ok := pow.Right.(*ast.Binary); !ok || inner.Op != ast.OpPow {
		t.Errorf("^ should nest to the right, right is %T", pow.Right)
	}

	// unary minus binds looser than exponent: -2^2 is -(2^2)
	root = parse(t, "=-2^2").Root
	neg, ok := root.(*ast.Unary)
	if !ok || neg.Op != ast.OpMinus {
		t.Fatalf("root of =-2^2 is %T, want unary minus", root)
	}
	if _, ok := neg.Operand.(*ast.Binary); !ok {
		t.Errorf("operand of unary minus is %T, want ^ binary", neg.Operand)
	}

	// range binds tighter than arithmetic
	root = parse(t, "=A1:A2+1").Root
	sum := root.(*ast.Binary)
	if sum.Op != ast.OpAdd {
		t.Fatalf("root op = %v, want +", sum.Op)
	}
	if rng, ok := sum.Left.(*ast.Binary); !ok || rng.Op != ast.OpRange {
		t.Errorf("left of + is %T, want : binary", sum.Left)
	}

	// intersection via significant whitespace
	root = parse(t, "=B1:B5 A2:C2").Root
	if ix, ok := root.(*ast.Binary); !ok || ix.Op != ast.OpIntersect {
		t.Fatalf("root of intersection formula is %T", root)
	}
}

func TestSpans(t *testing.T) {
	input := "=1+2*3"
	tree := parse(t, input)
	if sp := tree.Root.Span(); sp.Start != 1 || sp.End != len(input) {
		t.Errorf("root span = %s, want [1,%d)", sp, len(input))
	}
	add := tree.Root.(*ast.Binary)
	if sp := add.Left.Span(); input[sp.Start:sp.End] != "1" {
		t.Errorf("left span %s covers %q", sp, input[sp.Start:sp.End])
	}
	if sp := add.Right.Span(); input[sp.Start:sp.End] != "2*3" {
		t.Errorf("right span %s covers %q", sp, input[sp.Start:sp.End])
	}

	input = "=SUM(A1,B2)"
	call := parse(t, input).Root.(*ast.Call)
	if sp := call.Span(); input[sp.Start:sp.End] != "SUM(A1,B2)" {
		t.Errorf("call span %s covers %q", sp, input[sp.Start:sp.End])
	}
}

func TestCellRefParsing(t *testing.T) {
	ref := parse(t, "=$B$2").Root.(*ast.CellRef)
	if ref.Col != 1 || ref.Row != 1 || !ref.AbsCol || !ref.AbsRow {
		t.Errorf("$B$2 parsed as %+v", ref)
	}
	ref = parse(t, "=Sheet2!C3").Root.(*ast.CellRef)
	if ref.Sheet != "Sheet2" || ref.Col != 2 || ref.Row != 2 {
		t.Errorf("Sheet2!C3 parsed as %+v", ref)
	}
	ref = parse(t, "='P&L'!A1").Root.(*ast.CellRef)
	if ref.Sheet != "P&L" {
		t.Errorf("quoted sheet parsed as %q", ref.Sheet)
	}
	ref = parse(t, "=[Book1]Sheet1!A1").Root.(*ast.CellRef)
	if ref.Workbook != "Book1" || ref.Sheet != "Sheet1" {
		t.Errorf("workbook ref parsed as %+v", ref)
	}
}

func TestStructuredRefs(t *testing.T) {
	sr := parse(t, "=Table1[[#All],[Price]]").Root.(*ast.StructuredRef)
	if sr.Table != "Table1" || sr.Spec != "[#All],[Price]" {
		t.Errorf("structured ref parsed as %+v", sr)
	}
	sr = parse(t, "=[@Price]").Root.(*ast.StructuredRef)
	if sr.Table != "" || sr.Spec != "@Price" {
		t.Errorf("bare structured ref parsed as %+v", sr)
	}
}

func TestCallArguments(t *testing.T) {
	call := parse(t, "=IF(A1,,0)").Root.(*ast.Call)
	if call.Name != "IF" || len(call.Args) != 3 {
		t.Fatalf("IF(A1,,0) parsed as %s with %d args", call.Name, len(call.Args))
	}
	if _, ok := call.Args[1].(*ast.Missing); !ok {
		t.Errorf("empty slot is %T, want Missing", call.Args[1])
	}

	call = parse(t, "=TODAY()").Root.(*ast.Call)
	if len(call.Args) != 0 {
		t.Errorf("TODAY() has %d args, want 0", len(call.Args))
	}

	// nested calls keep their own argument lists
	call = parse(t, "=IF(ISERROR(A1),SUM(B1:B2),0)").Root.(*ast.Call)
	if len(call.Args) != 3 {
		t.Fatalf("outer call has %d args", len(call.Args))
	}
	if inner, ok := call.Args[0].(*ast.Call); !ok || inner.Name != "ISERROR" {
		t.Errorf("first arg is %T, want ISERROR call", call.Args[0])
	}
}

func TestStrictErrors(t *testing.T) {
	tests := []struct {
		input string
		code  string
	}{
		{"=1+", "PARSE-0002"},
		{"=)", "PARSE-0002"},
		{"=(1", "PARSE-0006"},
		{"=SUM(1", "PARSE-0006"},
		{"={1,2", "PARSE-0007"},
		{"=1 2", "PARSE-0008"},
		{"='Sheet1'", "PARSE-0001"},
		{"=Sheet1!*", "PARSE-0005"},
		{`="abc`, "LEX-0002"},
	}
	for _, tt := range tests {
		_, err := Parse(tt.input, locale.Default())
		if err == nil {
			t.Errorf("parse %q: expected error %s", tt.input, tt.code)
			continue
		}
		if err.Code != tt.code {
			t.Errorf("parse %q: got %s (%s), want %s", tt.input, err.Code, err.Message, tt.code)
		}
	}
}

func TestTolerantNeverFails(t *testing.T) {
	inputs := []string{
		"", "=", "=1+", "=)", "=(1", "=SUM(", "=SUM(A1,", "={1,2", "=1 2",
		"=+", "=SUM(,,", `="abc`, "=Sheet1!",
	}
	for _, input := range inputs {
		partial := ParsePartial(input, locale.Default())
		if partial == nil || partial.Ast == nil || partial.Ast.Root == nil {
			t.Errorf("ParsePartial(%q) must produce a tree", input)
		}
	}
}

func TestTolerantMissingPlaceholders(t *testing.T) {
	partial := ParsePartial("=1+", locale.Default())
	bin, ok := partial.Ast.Root.(*ast.Binary)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("root is %T, want + binary", partial.Ast.Root)
	}
	if _, ok := bin.Right.(*ast.Missing); !ok {
		t.Errorf("right operand is %T, want Missing", bin.Right)
	}
	if partial.FirstError == nil {
		t.Error("expected a recorded first error")
	}
}

func TestTolerantFunctionContext(t *testing.T) {
	tests := []struct {
		input string
		name  string
		arg   int
	}{
		{"=SUM(A1,", "SUM", 1},
		{"=SUM(", "SUM", 0},
		{"=IF(A1,SUM(B1,", "SUM", 1},
		{"=VLOOKUP(A1,B1:C9,", "VLOOKUP", 2},
	}
	for _, tt := range tests {
		partial := ParsePartial(tt.input, locale.Default())
		fn := partial.Context.Function
		if fn == nil {
			t.Errorf("ParsePartial(%q): no function context", tt.input)
			continue
		}
		if fn.Name != tt.name || fn.ArgIndex != tt.arg {
			t.Errorf("ParsePartial(%q): context %s arg %d, want %s arg %d",
				tt.input, fn.Name, fn.ArgIndex, tt.name, tt.arg)
		}
	}

	// a complete parse leaves no context behind
	partial := ParsePartial("=SUM(A1,B1)", locale.Default())
	if partial.Context.Function != nil || partial.FirstError != nil {
		t.Errorf("clean parse left context %+v error %v", partial.Context.Function, partial.FirstError)
	}
}

func TestTolerantPartialCallShape(t *testing.T) {
	partial := ParsePartial("=SUM(A1,", locale.Default())
	call, ok := partial.Ast.Root.(*ast.Call)
	if !ok {
		t.Fatalf("root is %T, want call", partial.Ast.Root)
	}
	if call.Name != "SUM" || len(call.Args) != 2 {
		t.Fatalf("call is %s with %d args", call.Name, len(call.Args))
	}
	if _, ok := call.Args[0].(*ast.CellRef); !ok {
		t.Errorf("first arg is %T, want cell ref", call.Args[0])
	}
	if _, ok := call.Args[1].(*ast.Missing); !ok {
		t.Errorf("second arg is %T, want Missing", call.Args[1])
	}
}

func TestOnlyFirstErrorRecorded(t *testing.T) {
	partial := ParsePartial("=)+)", locale.Default())
	if partial.FirstError == nil {
		t.Fatal("expected an error")
	}
	if partial.FirstError.Span.Start != 1 {
		t.Errorf("first error at offset %d, want 1", partial.FirstError.Span.Start)
	}
}

func TestDepthCap(t *testing.T) {
	deep := "=" + strings.Repeat("(", maxDepth+10) + "1" + strings.Repeat(")", maxDepth+10)
	_, err := Parse(deep, locale.Default())
	if err == nil {
		t.Fatal("expected a depth limit error")
	}
	if err.Code != "LIMIT-0001" {
		t.Errorf("got %s, want LIMIT-0001", err.Code)
	}

	partial := ParsePartial(deep, locale.Default())
	if partial.Ast == nil || partial.FirstError == nil || partial.FirstError.Code != "LIMIT-0001" {
		t.Error("tolerant parse should survive the depth cap and record it")
	}
}

func TestLocaleSeparators(t *testing.T) {
	cfg := locale.Default()
	cfg.DecimalSeparator = ','
	cfg.ArgSeparator = ';'
	cfg.ArrayColSeparator = '.'

	tree, err := Parse("=SUM(1,5;2){0}", cfg)
	if err == nil {
		_ = tree
		t.Fatal("trailing array literal should not parse")
	}

	tree, err = Parse("=SUM(1,5;2)", cfg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	call := tree.Root.(*ast.Call)
	if len(call.Args) != 2 {
		t.Fatalf("call has %d args, want 2", len(call.Args))
	}
	if n, ok := call.Args[0].(*ast.NumberLiteral); !ok || n.Value != 1.5 {
		t.Errorf("first arg = %#v, want 1.5", call.Args[0])
	}

	tree, err = Parse("={1.2;3.4}", cfg)
	if err != nil {
		t.Fatalf("parse array: %v", err)
	}
	arr := tree.Root.(*ast.ArrayLiteral)
	if len(arr.Rows) != 2 || len(arr.Rows[0]) != 2 {
		t.Errorf("array shape %dx%d, want 2x2", len(arr.Rows), len(arr.Rows[0]))
	}
}
