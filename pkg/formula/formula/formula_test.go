package formula

import (
	"strings"
	"testing"

	"github.com/tallygrid/tally/pkg/formula/locale"
)

func TestEngineEval(t *testing.T) {
	eng := Default()
	res := NewGridResolver("Sheet1")
	v, err := eng.Eval("=1+2*3", res, Context{Sheet: "Sheet1"})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Inspect() != "7" {
		t.Errorf("=1+2*3 = %s, want 7", v.Inspect())
	}
}

func TestEngineParsePartialContext(t *testing.T) {
	eng := Default()
	partial := eng.ParsePartial("=SUM(A1,")
	if partial == nil || partial.Ast == nil {
		t.Fatal("partial parse must always produce a tree")
	}
	if partial.FirstError == nil {
		t.Fatal("expected a recorded error for unterminated call")
	}
	fn := partial.Context.Function
	if fn == nil || fn.Name != "SUM" || fn.ArgIndex != 1 {
		t.Fatalf("expected context SUM arg 1, got %+v", fn)
	}
}

func TestEngineRebase(t *testing.T) {
	eng := Default()
	tree, err := eng.Parse("=A1+$B$2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	anchor, _ := ParseAddress("C3")
	target, _ := ParseAddress("D5")
	moved := Rebase(tree, anchor, target)
	if got := moved.String(); got != "=B3+$B$2" {
		t.Errorf("rebased formula = %q, want %q", got, "=B3+$B$2")
	}
}

func TestEngineLocaleFormat(t *testing.T) {
	cfg := locale.Default()
	cfg.Language = "fr"
	cfg.DecimalSeparator = ','
	cfg.ArgSeparator = ';'
	eng := New(cfg)

	res := NewGridResolver("Sheet1")
	v, err := eng.Eval("=1,5+1", res, Context{Sheet: "Sheet1"})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if got := eng.Format(v); got != "2,5" {
		t.Errorf("formatted value = %q, want %q", got, "2,5")
	}
}

func TestEngineDebugLogging(t *testing.T) {
	eng := Default()
	log := NewBufferedLogger()
	eng.SetLogger(log)

	res := NewGridResolver("Sheet1")
	if _, err := eng.Eval("=SUM(A1:A2)", res, Context{Sheet: "Sheet1"}); err != nil {
		t.Fatalf("eval: %v", err)
	}
	out := log.String()
	if !strings.Contains(out, "call SUM") {
		t.Errorf("expected a call diagnostic, got %q", out)
	}
	if !strings.Contains(out, "ref A1") {
		t.Errorf("expected a ref diagnostic, got %q", out)
	}

	// back to silent
	eng.SetLogger(NullLogger())
	log.Reset()
	if _, err := eng.Eval("=A1", res, Context{Sheet: "Sheet1"}); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if log.String() != "" {
		t.Errorf("expected no diagnostics after NullLogger, got %q", log.String())
	}
}

func TestBufferedLogger(t *testing.T) {
	log := NewBufferedLogger()
	log.Log("a")
	log.LogLine("b")
	log.LogLine("c")
	lines := log.Lines()
	if len(lines) != 2 || lines[0] != "ab" || lines[1] != "c" {
		t.Errorf("unexpected lines: %v", lines)
	}
	log.Reset()
	if log.String() != "" {
		t.Errorf("expected empty after reset, got %q", log.String())
	}
}
