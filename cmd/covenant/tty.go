package main

import (
	"io"
	"os"

	"golang.org/x/term"
)

// errWriter receives log output; stdout stays clean for results and JSON-RPC.
var errWriter io.Writer = os.Stderr

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth is the width of w, or 0 when unknown.
func terminalWidth(w any) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
