// internal/handler/themes.go

package handler

import (
	"github.com/orgoj/logbridge/internal/level"
)

// Theme holds the SGR parameters of each level, indexed by level.
// An empty entry leaves the line uncolored.
type Theme [level.LOWEST + 1]string

var themes = map[string]Theme{
	"none": {},
	"216_dark": {
		level.PANIC:    "1;38;5;201",
		level.ALERT:    "1;38;5;199",
		level.CRITICAL: "1;38;5;197",
		level.ERROR:    "38;5;196",
		level.WARNING:  "38;5;208",
		level.NOTICE:   "38;5;220",
		level.INFO:     "38;5;114",
		level.DEBUG:    "38;5;75",
		level.FINE:     "38;5;69",
		level.TRACE:    "38;5;63",
		level.LOWEST:   "38;5;244",
	},
	"truecolor_dark": {
		level.PANIC:    "1;38;2;255;0;255",
		level.ALERT:    "1;38;2;255;0;128",
		level.CRITICAL: "1;38;2;255;0;64",
		level.ERROR:    "38;2;255;64;64",
		level.WARNING:  "38;2;255;160;0",
		level.NOTICE:   "38;2;255;220;0",
		level.INFO:     "38;2;128;224;128",
		level.DEBUG:    "38;2;96;176;255",
		level.FINE:     "38;2;96;128;255",
		level.TRACE:    "38;2;128;96;255",
		level.LOWEST:   "38;2;144;144;144",
	},
	"truecolor_light": {
		level.PANIC:    "1;38;2;160;0;160",
		level.ALERT:    "1;38;2;176;0;96",
		level.CRITICAL: "1;38;2;192;0;32",
		level.ERROR:    "38;2;192;0;0",
		level.WARNING:  "38;2;176;96;0",
		level.NOTICE:   "38;2;128;112;0",
		level.INFO:     "38;2;0;128;0",
		level.DEBUG:    "38;2;0;80;176",
		level.FINE:     "38;2;0;48;160",
		level.TRACE:    "38;2;64;0;160",
		level.LOWEST:   "38;2;96;96;96",
	},
	"truecolor_darkgray": {
		level.PANIC:    "1;38;2;255;0;255;48;2;48;48;48",
		level.ALERT:    "1;38;2;255;0;128;48;2;48;48;48",
		level.CRITICAL: "1;38;2;255;0;64;48;2;48;48;48",
		level.ERROR:    "38;2;255;64;64;48;2;48;48;48",
		level.WARNING:  "38;2;255;160;0;48;2;48;48;48",
		level.NOTICE:   "38;2;255;220;0;48;2;48;48;48",
		level.OUTPUT:   "38;2;224;224;224;48;2;48;48;48",
		level.INFO:     "38;2;128;224;128;48;2;48;48;48",
		level.DEBUG:    "38;2;96;176;255;48;2;48;48;48",
		level.FINE:     "38;2;96;128;255;48;2;48;48;48",
		level.TRACE:    "38;2;128;96;255;48;2;48;48;48",
		level.LOWEST:   "38;2;144;144;144;48;2;48;48;48",
	},
	"truecolor_lightgray": {
		level.PANIC:    "1;38;2;160;0;160;48;2;224;224;224",
		level.ALERT:    "1;38;2;176;0;96;48;2;224;224;224",
		level.CRITICAL: "1;38;2;192;0;32;48;2;224;224;224",
		level.ERROR:    "38;2;192;0;0;48;2;224;224;224",
		level.WARNING:  "38;2;176;96;0;48;2;224;224;224",
		level.NOTICE:   "38;2;128;112;0;48;2;224;224;224",
		level.OUTPUT:   "38;2;32;32;32;48;2;224;224;224",
		level.INFO:     "38;2;0;128;0;48;2;224;224;224",
		level.DEBUG:    "38;2;0;80;176;48;2;224;224;224",
		level.FINE:     "38;2;0;48;160;48;2;224;224;224",
		level.TRACE:    "38;2;64;0;160;48;2;224;224;224",
		level.LOWEST:   "38;2;96;96;96;48;2;224;224;224",
	},
}

// LookupTheme returns a named theme.
func LookupTheme(name string) (Theme, bool) {
	t, ok := themes[name]
	return t, ok
}

// Paint wraps s in the color of l, or returns it unchanged when the theme has none.
func (t Theme) Paint(l level.Level, s string) string {
	if !l.Valid() || t[l] == "" {
		return s
	}
	return "\033[" + t[l] + "m" + s + "\033[0m"
}
