package formula

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tallygrid/tally/pkg/formula/evaluator"
)

// Logger re-exports the evaluator's logging contract so embedders can
// route evaluation diagnostics (resolved references, dispatched calls)
// without importing the evaluator package.
type Logger = evaluator.Logger

// writerLogger sends each diagnostic line to an io.Writer.
type writerLogger struct {
	w io.Writer
}

func (l *writerLogger) Log(values ...any) {
	fmt.Fprint(l.w, joinLogValues(values...))
}

func (l *writerLogger) LogLine(values ...any) {
	fmt.Fprintln(l.w, joinLogValues(values...))
}

// WriterLogger returns a logger writing to w. The REPL's :debug command
// and the CLI's --verbose flag route evaluation diagnostics through one
// of these.
func WriterLogger(w io.Writer) Logger {
	return &writerLogger{w: w}
}

// BufferedLogger captures diagnostics in memory, for tests and for
// callers that want to show them after the fact. Safe for concurrent
// use, since one Engine may evaluate on several goroutines.
type BufferedLogger struct {
	mu    sync.Mutex
	lines []string
	buf   strings.Builder
}

func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{}
}

func (l *BufferedLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.WriteString(joinLogValues(values...))
}

func (l *BufferedLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, l.buf.String()+joinLogValues(values...))
	l.buf.Reset()
}

// String returns everything captured so far, completed lines first.
func (l *BufferedLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := strings.Join(l.lines, "\n")
	if len(l.lines) > 0 {
		out += "\n"
	}
	return out + l.buf.String()
}

// Lines returns a copy of the completed lines.
func (l *BufferedLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Reset discards everything captured so far.
func (l *BufferedLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = l.lines[:0]
	l.buf.Reset()
}

// NullLogger returns a logger that discards all output.
func NullLogger() Logger {
	return evaluator.NullLogger()
}

func joinLogValues(values ...any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
