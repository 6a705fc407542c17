// Package display renders terminal output: ANSI colors and aligned tables.
//
// Colors follow NO_COLOR (https://no-color.org/) and are disabled when stdout
// is not a terminal. FORCE_COLOR turns them on regardless.
package display

import (
	"fmt"
	"os"
)

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	fgGray = "\033[90m"
)

var enabled bool

func init() {
	enabled = shouldEnable()
}

func shouldEnable() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	return isTerminal(os.Stdout)
}

// isTerminal checks for a character device; no cgo needed.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// SetEnabled overrides the detected color state. --json forces it off.
func SetEnabled(b bool) {
	enabled = b
}

func Enabled() bool {
	return enabled
}

func wrap(code, text string) string {
	if !enabled {
		return text
	}
	return code + text + reset
}

func Bold(text string) string   { return wrap(bold, text) }
func Dim(text string) string    { return wrap(dim, text) }
func Green(text string) string  { return wrap(green, text) }
func Yellow(text string) string { return wrap(yellow, text) }
func Cyan(text string) string   { return wrap(cyan, text) }
func Gray(text string) string   { return wrap(fgGray, text) }

// Accent highlights the next prayer (bold cyan).
func Accent(text string) string {
	return wrap(bold+cyan, text)
}

func Boldf(format string, a ...any) string {
	return Bold(fmt.Sprintf(format, a...))
}

// ForState colors text by a phase presentation state: CURRENT green,
// UPCOMING yellow, anything else gray.
func ForState(state, text string) string {
	switch state {
	case "CURRENT":
		return Green(text)
	case "UPCOMING":
		return Yellow(text)
	default:
		return Gray(text)
	}
}

// ForSource colors a schedule source tag. Live data is green, cached data
// yellow, computed data gray.
func ForSource(source string) string {
	switch source {
	case "Remote":
		return Green(source)
	case "Cached":
		return Yellow(source)
	default:
		return Gray(source)
	}
}
