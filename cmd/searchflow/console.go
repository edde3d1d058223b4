package main

import (
	"context"
	"log/slog"

	"github.com/tomyan/searchflow/internal/chrome"
	"github.com/tomyan/searchflow/internal/report"
)

// consoleLog collects console errors from the tab while a run is in
// progress.
type consoleLog struct {
	stop    func()
	done    chan struct{}
	entries []report.ConsoleEntry
}

func captureConsole(ctx context.Context, page *chrome.Page, logger *slog.Logger) *consoleLog {
	c := &consoleLog{done: make(chan struct{})}

	msgs, stop, err := page.CaptureConsole(ctx)
	if err != nil {
		logger.Debug("console capture unavailable", "error", err)
		close(c.done)
		return c
	}
	c.stop = stop

	go func() {
		defer close(c.done)
		for m := range msgs {
			if !isConsoleError(m) {
				logger.Debug("console", "type", m.Type, "text", m.Text)
				continue
			}
			logger.Debug("console error", "type", m.Type, "text", m.Text)
			c.entries = append(c.entries, report.ConsoleEntry{Type: m.Type, Text: m.Text})
		}
	}()
	return c
}

// Stop ends the capture and returns the errors seen.
func (c *consoleLog) Stop() []report.ConsoleEntry {
	if c.stop != nil {
		c.stop()
	}
	<-c.done
	return c.entries
}

func isConsoleError(m chrome.ConsoleMessage) bool {
	switch m.Type {
	case "error", "assert", "exception":
		return true
	}
	return false
}
