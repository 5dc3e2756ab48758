package errors

import (
	"strings"
	"testing"

	"github.com/tallygrid/tally/pkg/formula/lexer"
)

func TestNewFromCatalog(t *testing.T) {
	err := New("PARSE-0001", map[string]any{"Expected": "')'", "Got": "+"})
	if err.Code != "PARSE-0001" || err.Class != ClassParse {
		t.Errorf("New() = code %q class %q", err.Code, err.Class)
	}
	if err.Message != "expected ')', got '+'" {
		t.Errorf("Message = %q", err.Message)
	}

	err = New("LEX-0002", nil)
	if err.Class != ClassLex {
		t.Errorf("LEX-0002 class = %q", err.Class)
	}
	if len(err.Hints) != 1 || !strings.Contains(err.Hints[0], `""`) {
		t.Errorf("LEX-0002 hints = %v", err.Hints)
	}

	err = New("LIMIT-0001", map[string]any{"Max": 256})
	if err.Message != "formula nests deeper than 256 levels" {
		t.Errorf("LIMIT-0001 message = %q", err.Message)
	}
}

func TestNewUnknownCode(t *testing.T) {
	err := New("NOPE-9999", nil)
	if err.Code != "NOPE-9999" || err.Message != "NOPE-9999" {
		t.Errorf("unknown code = %+v", err)
	}
	err = New("NOPE-9999", map[string]any{"message": "something went sideways"})
	if err.Message != "something went sideways" {
		t.Errorf("unknown code with message = %q", err.Message)
	}
}

func TestSpanHandling(t *testing.T) {
	sp := lexer.Span{Start: 3, End: 7}
	err := NewWithSpan("PARSE-0008", sp, nil)
	if err.Span != sp {
		t.Errorf("NewWithSpan span = %+v", err.Span)
	}
	if got := err.Error(); got != "offset 3: trailing input after formula" {
		t.Errorf("Error() = %q", got)
	}

	moved := err.WithSpan(lexer.Span{Start: 10, End: 11})
	if moved.Span.Start != 10 {
		t.Errorf("WithSpan start = %d", moved.Span.Start)
	}
	if err.Span != sp {
		t.Error("WithSpan mutated the receiver")
	}
	if moved.Code != err.Code || moved.Message != err.Message {
		t.Error("WithSpan dropped fields")
	}
}

func TestToJSON(t *testing.T) {
	err := NewWithSpan("PARSE-0007", lexer.Span{Start: 1, End: 5}, nil)
	raw, jerr := err.ToJSON()
	if jerr != nil {
		t.Fatal(jerr)
	}
	for _, want := range []string{
		`"class":"parse"`,
		`"code":"PARSE-0007"`,
		`"message":"unclosed array literal"`,
		`"hints":["array rows read like {1,2;3,4}"]`,
	} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("ToJSON missing %s in %s", want, raw)
		}
	}

	// hints are omitted when empty
	raw, _ = New("PARSE-0008", nil).ToJSON()
	if strings.Contains(string(raw), "hints") {
		t.Errorf("empty hints serialized: %s", raw)
	}
}

func TestFromLexError(t *testing.T) {
	le := &lexer.Error{
		Code: "LEX-0002",
		Msg:  "unterminated string literal",
		Span: lexer.Span{Start: 2, End: 6},
	}
	fe := FromLexError(le)
	if fe.Class != ClassLex || fe.Code != "LEX-0002" {
		t.Errorf("FromLexError = class %q code %q", fe.Class, fe.Code)
	}
	if fe.Span != le.Span {
		t.Errorf("span = %+v", fe.Span)
	}
	if len(fe.Hints) == 0 {
		t.Error("catalog hints not attached")
	}

	// codes without hints stay hintless
	fe = FromLexError(&lexer.Error{Code: "LEX-0001", Msg: "unrecognized character '~'"})
	if len(fe.Hints) != 0 {
		t.Errorf("unexpected hints: %v", fe.Hints)
	}
}
