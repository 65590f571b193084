package cli

import (
	"io"
	"os"

	"golang.org/x/term"
)

// interactive reports whether w is a terminal a human is reading.
// CI=... and NO_COLOR=... force plain output.
func interactive(w io.Writer) bool {
	if os.Getenv("CI") != "" || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// checkMark decorates success lines on terminals only.
func checkMark(w io.Writer) string {
	if interactive(w) {
		return "✓ "
	}
	return "ok: "
}
