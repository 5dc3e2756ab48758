// Package errors provides structured error types for the formula language.
//
// This package defines FormulaError, a unified error type for parse-time
// structural errors with rich metadata for display and programmatic
// handling. Evaluation-time spreadsheet errors (#DIV/0! and friends) are
// deliberately NOT represented here: those are in-band values owned by
// the evaluator, never Go errors.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/tallygrid/tally/pkg/formula/lexer"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassLex    ErrorClass = "lex"    // Unrecognized characters, unterminated literals
	ClassParse  ErrorClass = "parse"  // Structural syntax errors
	ClassLocale ErrorClass = "locale" // Bad locale configuration
	ClassLimit  ErrorClass = "limit"  // Depth/size limits exceeded
)

// FormulaError represents a parse-time structural error.
type FormulaError struct {
	Class   ErrorClass `json:"class"`           // Error category
	Code    string     `json:"code"`            // Error code (e.g. "PARSE-0001")
	Message string     `json:"message"`         // Human-readable message
	Hints   []string   `json:"hints,omitempty"` // Suggestions for fixing
	Span    lexer.Span `json:"span"`            // Byte range into the source
}

// Error implements the error interface.
func (e *FormulaError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Span.Start, e.Message)
}

// ToJSON returns the error as JSON bytes.
func (e *FormulaError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithSpan returns a copy of the error with the span set.
func (e *FormulaError) WithSpan(sp lexer.Span) *FormulaError {
	copy := *e
	copy.Span = sp
	return &copy
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Lexer errors (LEX-0xxx)
	// ========================================
	"LEX-0001": {
		Class:    ClassLex,
		Template: "unrecognized character {{.Char}}",
	},
	"LEX-0002": {
		Class:    ClassLex,
		Template: "unterminated string literal",
		Hints:    []string{`close the string with ", or write "" for a literal quote`},
	},
	"LEX-0003": {
		Class:    ClassLex,
		Template: "unterminated quoted sheet name",
	},
	"LEX-0004": {
		Class:    ClassLex,
		Template: "unknown error literal {{.Literal}}",
	},
	"LEX-0005": {
		Class:    ClassLex,
		Template: "unterminated bracket block",
	},

	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "expected {{.Expected}}, got '{{.Got}}'",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unexpected token '{{.Token}}'",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "invalid number literal: {{.Literal}}",
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "expected a cell reference after ':'",
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "expected a cell or range after '{{.Sheet}}!'",
	},
	"PARSE-0006": {
		Class:    ClassParse,
		Template: "unclosed parenthesis",
	},
	"PARSE-0007": {
		Class:    ClassParse,
		Template: "unclosed array literal",
		Hints:    []string{"array rows read like {1,2;3,4}"},
	},
	"PARSE-0008": {
		Class:    ClassParse,
		Template: "trailing input after formula",
	},
	"PARSE-0009": {
		Class:    ClassParse,
		Template: "expected a sheet name after workbook [{{.Workbook}}]",
	},

	// ========================================
	// Limit errors (LIMIT-0xxx)
	// ========================================
	"LIMIT-0001": {
		Class:    ClassLimit,
		Template: "formula nests deeper than {{.Max}} levels",
	},
}

// New creates a FormulaError from the catalog.
// If the code is not found, creates a generic error with the message.
func New(code string, data map[string]any) *FormulaError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &FormulaError{Class: ClassParse, Code: code, Message: msg}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &FormulaError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
	}
}

// NewWithSpan creates a FormulaError with its source span set.
func NewWithSpan(code string, sp lexer.Span, data map[string]any) *FormulaError {
	err := New(code, data)
	err.Span = sp
	return err
}

// NewSimple creates a simple error without using the catalog.
func NewSimple(class ErrorClass, message string, sp lexer.Span) *FormulaError {
	return &FormulaError{Class: class, Message: message, Span: sp}
}

// FromLexError wraps a lexer failure as a FormulaError. The lexer
// renders its own messages; the catalog contributes hints.
func FromLexError(err *lexer.Error) *FormulaError {
	fe := &FormulaError{Class: ClassLex, Code: err.Code, Message: err.Msg, Span: err.Span}
	if def, ok := ErrorCatalog[err.Code]; ok {
		fe.Hints = append(fe.Hints, def.Hints...)
	}
	return fe
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}
