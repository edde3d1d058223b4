package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/tomyan/searchflow/internal/report"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// isTerminal checks if the given writer is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// printSummary writes the one-line outcome of a run.
func printSummary(w io.Writer, rec *report.Run, color bool) {
	passed, skipped, failed := rec.Counts()

	label, code := "PASS", ansiGreen
	if !rec.Passed() {
		label, code = "FAIL", ansiRed
	}
	if color {
		label = code + label + ansiReset
	}

	fmt.Fprintf(w, "%s %d steps (%d passed, %d skipped, %d failed) in %s, %d pages visited [run %s]\n",
		label, len(rec.Steps), passed, skipped, failed,
		rec.Duration().Round(time.Millisecond), len(rec.Visits), rec.ID)
}
