package evaluator

// Logger receives diagnostic output from the evaluator, such as the
// resolved target of each reference and the name of each dispatched
// function call.
type Logger interface {
	Log(values ...any)
	LogLine(values ...any)
}

// nullLogger discards everything. It is the evaluator's default so
// evaluation stays silent unless a caller opts in.
type nullLogger struct{}

func (l *nullLogger) Log(values ...any)     {}
func (l *nullLogger) LogLine(values ...any) {}

// NullLogger returns a logger that discards all output.
func NullLogger() Logger {
	return &nullLogger{}
}
