package evaluator

import (
	"strings"

	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/tallygrid/tally/pkg/formula/locale"
)

// FormatValue renders a value for display under the given locale, using
// the locale's digit grouping and decimal mark for numbers. Text,
// booleans and errors render as Inspect does; arrays render row by row
// inside braces.
func FormatValue(v Value, cfg locale.Config) string {
	p := message.NewPrinter(cfg.Tag())
	return formatWith(p, v, cfg)
}

func formatWith(p *message.Printer, v Value, cfg locale.Config) string {
	switch val := v.(type) {
	case *Number:
		return p.Sprint(number.Decimal(val.Value, number.MaxFractionDigits(10)))
	case *Array:
		var b strings.Builder
		b.WriteByte('{')
		for i, row := range val.Rows {
			if i > 0 {
				b.WriteByte(cfg.ArrayRowSeparator)
			}
			for j, cell := range row {
				if j > 0 {
					b.WriteByte(cfg.ArrayColSeparator)
				}
				b.WriteString(formatWith(p, cell, cfg))
			}
		}
		b.WriteByte('}')
		return b.String()
	default:
		return v.Inspect()
	}
}
