package evaluator

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"
)

func init() {
	register(&Builtin{Name: "DATEVALUE", MinArgs: 1, MaxArgs: 1, Fn: fnDateValue})
	register(&Builtin{Name: "TODAY", MinArgs: 0, MaxArgs: 0, Fn: fnToday})
}

// serialEpoch is the 1900 date system's day zero. Serial 1 is
// 1900-01-01; the epoch sits two days earlier to absorb the historical
// 1900 leap-year bug.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// fnDateValue parses a date string into its serial number. It first
// tries format detection, then falls back to parsing month and day
// names in the configured locale.
func fnDateValue(c *callCtx) Value {
	tv := c.r.toText(c.scalarArg(0))
	if isError(tv) {
		return tv
	}
	s := tv.(*Text).Value

	if t, err := dateparse.ParseAny(s); err == nil {
		return serialOf(t)
	}
	loc := mondayLocale(c.r.cfg.Language)
	for _, layout := range []string{"2 January 2006", "January 2, 2006", "2 Jan 2006", "2. January 2006"} {
		if t, err := monday.ParseInLocation(layout, s, time.UTC, loc); err == nil {
			return serialOf(t)
		}
	}
	return newError(ErrValue)
}

func fnToday(c *callCtx) Value {
	now := time.Now().UTC()
	return serialOf(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
}

func serialOf(t time.Time) Value {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &Number{Value: day.Sub(serialEpoch).Hours() / 24}
}

// mondayLocale maps a BCP 47 language tag onto the closest locale the
// month-name parser knows.
func mondayLocale(lang string) monday.Locale {
	switch {
	case len(lang) >= 2 && lang[:2] == "fr":
		return monday.LocaleFrFR
	case len(lang) >= 2 && lang[:2] == "de":
		return monday.LocaleDeDE
	case len(lang) >= 2 && lang[:2] == "es":
		return monday.LocaleEsES
	case len(lang) >= 2 && lang[:2] == "it":
		return monday.LocaleItIT
	case len(lang) >= 2 && lang[:2] == "nl":
		return monday.LocaleNlNL
	case len(lang) >= 2 && lang[:2] == "pt":
		return monday.LocalePtPT
	default:
		return monday.LocaleEnUS
	}
}
