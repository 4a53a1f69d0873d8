package output

import (
	"io"

	"golang.org/x/term"
)

// ResolveColorMode combines the --color flag with TTY detection.
// "never" and "always" force the result; anything else defers to isTTY.
func ResolveColorMode(colorMode string, isTTY bool) bool {
	switch colorMode {
	case "never":
		return false
	case "always":
		return true
	default:
		return isTTY
	}
}

type fdWriter interface {
	Fd() uintptr
}

// IsTTY reports whether writer is a terminal.
func IsTTY(writer io.Writer) bool {
	f, ok := writer.(fdWriter)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
