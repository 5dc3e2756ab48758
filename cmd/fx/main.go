package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/tallygrid/tally/pkg/formula/formula"
	"github.com/tallygrid/tally/pkg/formula/locale"
	"github.com/tallygrid/tally/pkg/formula/repl"
)

// Version is set at compile time via -ldflags
var Version = "0.3.0"

var (
	helpFlag        = flag.Bool("h", false, "Show help message")
	helpLongFlag    = flag.Bool("help", false, "Show help message")
	versionFlag     = flag.Bool("V", false, "Show version information")
	versionLongFlag = flag.Bool("version", false, "Show version information")

	evalFlag     = flag.String("e", "", "Evaluate a formula string")
	evalLongFlag = flag.String("eval", "", "Evaluate a formula string")
	checkFlag    = flag.String("check", "", "Parse a formula without evaluating; print diagnostics as JSON")
	traceFlag    = flag.Bool("trace", false, "Print the evaluation trace tree as JSON (with -e)")
	astFlag      = flag.Bool("ast", false, "Print the canonical form of the parsed formula (with -e)")

	localeFlag  = flag.String("locale", "", "Path to a locale config YAML file")
	verboseFlag = flag.Bool("verbose", false, "Log evaluator diagnostics (resolved refs, calls) to stderr")
)

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if *helpFlag || *helpLongFlag {
		printHelp()
		os.Exit(0)
	}
	if *versionFlag || *versionLongFlag {
		fmt.Printf("fx version %s\n", Version)
		os.Exit(0)
	}

	cfg := locale.Default()
	if *localeFlag != "" {
		var err error
		cfg, err = locale.Load(*localeFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading locale: %v\n", err)
			os.Exit(2)
		}
	}
	eng := formula.New(cfg)
	if *verboseFlag {
		eng.SetLogger(formula.WriterLogger(os.Stderr))
	}

	evalCode := *evalFlag
	if evalCode == "" {
		evalCode = *evalLongFlag
	}

	switch {
	case *checkFlag != "":
		os.Exit(check(eng, *checkFlag))
	case evalCode != "":
		os.Exit(evaluate(eng, evalCode))
	default:
		repl.Start(os.Stdout, eng, Version)
	}
}

// check runs a tolerant parse and reports the first diagnostic plus the
// editor context, the same payload an autocomplete frontend consumes.
func check(eng *formula.Engine, input string) int {
	partial := eng.ParsePartial(input)
	report := struct {
		OK      bool                `json:"ok"`
		Error   *formula.ParseError `json:"error,omitempty"`
		Context any                 `json:"context,omitempty"`
	}{OK: partial.FirstError == nil, Error: partial.FirstError}
	if partial.Context.Function != nil {
		report.Context = partial.Context
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	fmt.Println(string(data))
	if partial.FirstError != nil {
		return 1
	}
	return 0
}

func evaluate(eng *formula.Engine, input string) int {
	tree, perr := eng.Parse(input)
	if perr != nil {
		fmt.Fprintf(os.Stderr, "%s error [%s]: %s\n", perr.Class, perr.Code, perr.Message)
		for _, hint := range perr.Hints {
			fmt.Fprintln(os.Stderr, "  hint:", hint)
		}
		return 1
	}
	if *astFlag {
		fmt.Println(tree.String())
		return 0
	}

	res := formula.NewGridResolver("Sheet1")
	ctx := formula.Context{Sheet: "Sheet1"}
	if *traceFlag {
		v, trace := eng.EvaluateWithTrace(res, ctx, tree)
		fmt.Println(eng.Format(v))
		data, err := json.MarshalIndent(trace, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
		fmt.Println(string(data))
		return 0
	}
	fmt.Println(eng.Format(eng.Evaluate(res, ctx, tree)))
	return 0
}

func printHelp() {
	fmt.Printf(`fx - spreadsheet formula engine version %s

Usage:
  fx [options]
  fx -e "=SUM(1,2,3)"
  fx --check "=SUM(A1,"

Display Options:
  -h, --help            Show this help message
  -V, --version         Show version information

Evaluation Options:
  -e, --eval <formula>  Evaluate a formula against an empty grid
  --ast                 Print the canonical form instead of evaluating (with -e)
  --trace               Print the evaluation trace tree as JSON (with -e)
  --check <formula>     Tolerant parse; print first diagnostic and editor context
  --locale <file>       Load separators and language from a YAML file
  --verbose             Log evaluator diagnostics (resolved refs, calls) to stderr

Examples:
  fx                         Start the interactive shell
  fx -e "=1+2*3"             Evaluate a formula (outputs: 7)
  fx -e "=A1+1" --trace      Show how the value was computed
  fx --check "=SUM(A1,"      Report the error and that the cursor sits in SUM arg 2
  fx --locale fr.yaml -e "=1,5*2"
`, Version)
}
