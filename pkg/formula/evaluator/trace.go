package evaluator

import (
	"encoding/json"

	"github.com/tallygrid/tally/pkg/formula/lexer"
)

// A TraceNode records the value produced at one AST node during a traced
// evaluation, together with the node's source span and, for references,
// the resolved range. Children appear in evaluation order, so a
// short-circuited branch leaves no child node.
type TraceNode struct {
	Kind     string
	Span     lexer.Span
	Value    Value
	Ref      *TraceRef
	Children []*TraceNode
}

// TraceRef is the resolved form of a reference node: sheet name plus the
// normalized corner addresses in A1 form.
type TraceRef struct {
	Sheet string `json:"sheet,omitempty"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func traceRef(r ResolvedRange) *TraceRef {
	n := r.Normalized()
	return &TraceRef{Sheet: n.Sheet, Start: n.Start.String(), End: n.End.String()}
}

// add appends a child node. Nil receivers are tolerated so evaluation
// code does not branch on whether tracing is enabled.
func (t *TraceNode) add(child *TraceNode) {
	if t == nil || child == nil {
		return
	}
	t.Children = append(t.Children, child)
}

func (t *TraceNode) setValue(v Value) {
	if t != nil {
		t.Value = v
	}
}

type traceValueJSON struct {
	Type string `json:"type"`
	Repr string `json:"repr"`
}

type traceNodeJSON struct {
	Kind     string          `json:"kind"`
	Span     [2]int          `json:"span"`
	Value    *traceValueJSON `json:"value,omitempty"`
	Ref      *TraceRef       `json:"ref,omitempty"`
	Children []*TraceNode    `json:"children,omitempty"`
}

// MarshalJSON renders the node with its value as a {type, repr} pair so
// consumers do not need to know the concrete value structs.
func (t *TraceNode) MarshalJSON() ([]byte, error) {
	out := traceNodeJSON{
		Kind:     t.Kind,
		Span:     [2]int{t.Span.Start, t.Span.End},
		Ref:      t.Ref,
		Children: t.Children,
	}
	if t.Value != nil {
		out.Value = &traceValueJSON{Type: string(t.Value.Type()), Repr: t.Value.Inspect()}
	}
	return json.Marshal(out)
}
