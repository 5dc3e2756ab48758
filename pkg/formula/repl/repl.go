// Package repl provides an interactive shell for trying formulas
// against an in-memory grid.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/tallygrid/tally/pkg/formula/evaluator"
	"github.com/tallygrid/tally/pkg/formula/formula"
	"github.com/tallygrid/tally/pkg/formula/lexer"
)

const PROMPT = "fx> "

const LOGO = `
▀█▀ ▄▀█ █░░ █░░ █▄█
░█░ █▀█ █▄▄ █▄▄ ░█░ `

// Start runs the shell until EOF or an exit command. Formulas evaluate
// against a scratch grid; "A1: 3" sets a cell, ":cell B2" moves the
// current cell, ":trace" toggles trace output.
func Start(out io.Writer, eng *formula.Engine, version string) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completions)

	historyFile := filepath.Join(os.TempDir(), ".tally_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	s := &session{
		out:   out,
		eng:   eng,
		grid:  formula.NewGridResolver("Sheet1"),
		ctx:   formula.Context{Sheet: "Sheet1"},
		sheet: "Sheet1",
	}

	fmt.Fprintf(out, "%s", LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type a formula (=1+2), set a cell (A1: 3), or ':help'")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "")

	for {
		input, err := line.Prompt(PROMPT)
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Fprintln(out, "^C")
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		if trimmed == "exit" || trimmed == "quit" {
			fmt.Fprintln(out, "Goodbye!")
			return
		}
		line.AppendHistory(input)

		if strings.HasPrefix(trimmed, ":") {
			if s.command(trimmed) {
				return
			}
			continue
		}
		if addr, rest, ok := cellAssignment(trimmed); ok {
			s.setCell(addr, rest)
			continue
		}
		s.evalFormula(trimmed)
	}
}

type session struct {
	out   io.Writer
	eng   *formula.Engine
	grid  *formula.GridResolver
	ctx   formula.Context
	sheet string
	trace bool
	debug bool
}

// command handles ':' meta-commands; it reports whether the REPL should
// exit.
func (s *session) command(cmd string) bool {
	name, arg, _ := strings.Cut(cmd, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case ":help", ":h", ":?":
		fmt.Fprintln(s.out, "Commands:")
		fmt.Fprintln(s.out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(s.out, "  :cell B2        Set the current cell (anchors @ and relative refs)")
		fmt.Fprintln(s.out, "  :trace          Toggle trace-tree output")
		fmt.Fprintln(s.out, "  :debug          Toggle evaluator diagnostics (refs, calls)")
		fmt.Fprintln(s.out, "  :funcs          List worksheet functions")
		fmt.Fprintln(s.out, "  :clear          Wipe the grid")
		fmt.Fprintln(s.out, "  exit, quit      Exit")
		fmt.Fprintln(s.out, "")
		fmt.Fprintln(s.out, "  A1: 3           Set a cell value (number, TRUE/FALSE, or text)")
		fmt.Fprintln(s.out, "  =SUM(A1:A3)     Evaluate a formula")
	case ":cell":
		addr, err := formula.ParseAddress(arg)
		if err != nil {
			fmt.Fprintf(s.out, "bad address %q: %v\n", arg, err)
			return false
		}
		s.ctx.Cell = addr
		fmt.Fprintln(s.out, "current cell is", addr.String())
	case ":trace":
		s.trace = !s.trace
		if s.trace {
			fmt.Fprintln(s.out, "Trace output ON")
		} else {
			fmt.Fprintln(s.out, "Trace output OFF")
		}
	case ":debug":
		s.debug = !s.debug
		if s.debug {
			s.eng.SetLogger(formula.WriterLogger(s.out))
			fmt.Fprintln(s.out, "Debug output ON")
		} else {
			s.eng.SetLogger(formula.NullLogger())
			fmt.Fprintln(s.out, "Debug output OFF")
		}
	case ":funcs":
		fmt.Fprintln(s.out, strings.Join(formula.Functions(), " "))
	case ":clear":
		s.grid = formula.NewGridResolver(s.sheet)
		fmt.Fprintln(s.out, "Grid cleared")
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type :help for commands)\n", name)
	}
	return false
}

// cellAssignment recognizes "A1: value" lines.
func cellAssignment(input string) (string, string, bool) {
	head, rest, ok := strings.Cut(input, ":")
	if !ok {
		return "", "", false
	}
	// Require a space after the colon so A1:A2 stays a range formula.
	if rest != "" && rest[0] != ' ' {
		return "", "", false
	}
	head = strings.TrimSpace(head)
	if _, err := formula.ParseAddress(head); err != nil {
		return "", "", false
	}
	return head, strings.TrimSpace(rest), true
}

func (s *session) setCell(a1, raw string) {
	addr, _ := formula.ParseAddress(a1)
	v := literalValue(raw)
	s.grid.Set(s.sheet, addr, v)
	fmt.Fprintf(s.out, "%s = %s\n", addr.String(), v.Inspect())
}

// literalValue interprets a cell assignment the way spreadsheet entry
// does: number, boolean, error literal, blank, else text.
func literalValue(raw string) formula.Value {
	if raw == "" {
		return evaluator.BLANK
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return &evaluator.Number{Value: n}
	}
	switch strings.ToUpper(raw) {
	case "TRUE":
		return evaluator.TRUE
	case "FALSE":
		return evaluator.FALSE
	}
	if strings.HasPrefix(raw, "#") {
		if kind, ok := lexer.ErrorKindFromLiteral(raw); ok {
			return &evaluator.Error{Kind: kind}
		}
	}
	return &evaluator.Text{Value: strings.Trim(raw, `"`)}
}

func (s *session) evalFormula(input string) {
	tree, perr := s.eng.Parse(input)
	if perr != nil {
		s.printParseError(input, perr)
		return
	}
	if s.trace {
		v, trace := s.eng.EvaluateWithTrace(s.grid, s.ctx, tree)
		fmt.Fprintln(s.out, s.eng.Format(v))
		printTrace(s.out, trace, 0)
		return
	}
	v := s.eng.Evaluate(s.grid, s.ctx, tree)
	fmt.Fprintln(s.out, s.eng.Format(v))
}

// printParseError renders the error with a caret under the offending
// span, plus any hints from the catalog.
func (s *session) printParseError(input string, e *formula.ParseError) {
	fmt.Fprintf(s.out, "%s error [%s]: %s\n", e.Class, e.Code, e.Message)
	fmt.Fprintln(s.out, "  "+input)
	if e.Span.Start <= len(input) {
		width := e.Span.End - e.Span.Start
		if width < 1 {
			width = 1
		}
		fmt.Fprintln(s.out, "  "+strings.Repeat(" ", e.Span.Start)+strings.Repeat("^", width))
	}
	for _, hint := range e.Hints {
		fmt.Fprintln(s.out, "  hint:", hint)
	}
}

func printTrace(out io.Writer, t *formula.TraceNode, depth int) {
	if t == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	line := fmt.Sprintf("%s%s [%s]", indent, t.Kind, t.Span.String())
	if t.Ref != nil {
		if t.Ref.Sheet != "" {
			line += fmt.Sprintf(" %s!%s:%s", t.Ref.Sheet, t.Ref.Start, t.Ref.End)
		} else {
			line += fmt.Sprintf(" %s:%s", t.Ref.Start, t.Ref.End)
		}
	}
	if t.Value != nil {
		line += " = " + t.Value.Inspect()
	}
	fmt.Fprintln(out, line)
	for _, child := range t.Children {
		printTrace(out, child, depth+1)
	}
}

// completions offers function names for the word being typed.
func completions(line string) []string {
	if line == "" || line[len(line)-1] == ' ' || line[len(line)-1] == '\t' {
		return nil
	}
	start := len(line)
	for start > 0 {
		c := line[start-1]
		if c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			start--
			continue
		}
		break
	}
	word := strings.ToUpper(line[start:])
	if word == "" {
		return nil
	}
	var matches []string
	for _, name := range formula.Functions() {
		if strings.HasPrefix(name, word) {
			matches = append(matches, line[:start]+name+"(")
		}
	}
	return matches
}
