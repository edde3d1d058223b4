// Command searchflow walks a search portal in Chrome: it searches, pages
// through the results, visits the image results, searches again and
// returns home, asserting the page titles along the way.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomyan/searchflow/internal/chrome"
	"github.com/tomyan/searchflow/internal/workflow"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitConnFailed = 2
	ExitTimeout    = 3
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Streams are the command's standard streams.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], Streams{Stdout: os.Stdout, Stderr: os.Stderr})
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, s Streams) int {
	root := newRootCmd(s)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(s.Stderr, "error: %v\n", err)
		return exitCode(err)
	}
	return ExitSuccess
}

func newRootCmd(s Streams) *cobra.Command {
	root := &cobra.Command{
		Use:           "searchflow",
		Short:         "Drive a browser through a search portal walkthrough",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(s.Stdout)
	root.SetErr(s.Stderr)

	root.AddCommand(newRunCmd(s), newVersionCmd(s))
	return root
}

// connError marks failures to launch or reach the browser.
type connError struct {
	err error
}

func (e *connError) Error() string { return e.err.Error() }
func (e *connError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var assertErr *workflow.AssertionError
	var connErr *connError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &assertErr):
		return ExitError
	case errors.As(err, &connErr):
		return ExitConnFailed
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, chrome.ErrTimeout):
		return ExitTimeout
	default:
		return ExitError
	}
}
