// Package ui renders the non-interactive output: framed panels, progress
// bars and one-line status messages.
package ui

import (
	"fmt"
	"io"
	"os"
)

const (
	reset = "\033[0m"
	bold  = "\033[1m"

	fgGray   = "\033[90m"
	fgGreen  = "\033[32m"
	fgYellow = "\033[33m"
	fgBlue   = "\033[34m"
	fgRed    = "\033[31m"
)

// Dim is the faint style for row numbers and hints.
const Dim = "\033[2m"

var (
	forceColor   bool
	disableColor bool
)

// SetColorForcing overrides terminal detection. disable wins over force.
func SetColorForcing(force, disable bool) {
	forceColor = force
	disableColor = disable
}

func colorOn() bool {
	switch {
	case disableColor || current.Plain:
		return false
	case forceColor:
		return true
	}
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// C wraps s in color when the output supports it.
func C(color, s string) string {
	if color == "" || !colorOn() {
		return s
	}
	return color + s + reset
}

func line(w io.Writer, color, sym, msg string) {
	fmt.Fprintln(w, C(color, sym+" "+msg))
}

func OK(w io.Writer, msg string)   { line(w, current.Success, current.SymDone, msg) }
func Fail(w io.Writer, msg string) { line(w, current.Error, "✖", msg) }
func Warn(w io.Writer, msg string) { line(w, current.Pending, "!", msg) }
