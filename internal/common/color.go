package common

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Stdout is where per-file compile/link status lines go: a colorable wrapper
// on Windows consoles, the raw file elsewhere.
var Stdout io.Writer = colorable.NewColorableStdout()

var colorEnabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

const (
	ansiReset     = "\x1b[0m"
	ansiGreenBold = "\x1b[1;32m"
	ansiRedBold   = "\x1b[1;31m"
	ansiGreen     = "\x1b[92m"
	ansiRed       = "\x1b[91m"
	ansiCyan      = "\x1b[36m"
)

func paint(code, s string) string {
	if !colorEnabled {
		return s
	}
	return code + s + ansiReset
}

func Green(s string) string     { return paint(ansiGreen, s) }
func GreenBold(s string) string { return paint(ansiGreenBold, s) }
func Red(s string) string       { return paint(ansiRed, s) }
func RedBold(s string) string   { return paint(ansiRedBold, s) }
func Cyan(s string) string      { return paint(ansiCyan, s) }

// StatusLine prints one of the spec's "Complete|Fail|Ok '<path>'" lines.
func StatusLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(Stdout, format+"\n", args...)
}
