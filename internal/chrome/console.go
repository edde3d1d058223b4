package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// ConsoleMessage is one console API call or uncaught exception on a page.
type ConsoleMessage struct {
	Type string `json:"type"` // "log", "warning", "error", "info", "debug", "exception"
	Text string `json:"text"`
}

// CaptureConsole starts capturing console messages and uncaught exceptions
// from a page. The returned stop function must be called when done; it
// closes the channel. Messages are dropped while the channel is full.
func (c *Client) CaptureConsole(ctx context.Context, targetID string) (<-chan ConsoleMessage, func(), error) {
	sessionID, err := c.attachToTarget(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}

	// Subscribe before enabling so buffered messages replayed by enable
	// are not missed.
	consoleCh := c.subscribeEvent(sessionID, "Runtime.consoleAPICalled")
	exceptionCh := c.subscribeEvent(sessionID, "Runtime.exceptionThrown")

	unsubscribe := func() {
		c.unsubscribeEvent(sessionID, "Runtime.consoleAPICalled", consoleCh)
		c.unsubscribeEvent(sessionID, "Runtime.exceptionThrown", exceptionCh)
	}

	if _, err := c.CallSession(ctx, sessionID, "Runtime.enable", nil); err != nil {
		unsubscribe()
		return nil, nil, fmt.Errorf("enabling Runtime domain: %w", err)
	}

	output := make(chan ConsoleMessage, 100)
	done := make(chan struct{})
	var stopOnce sync.Once
	stop := func() {
		stopOnce.Do(func() {
			close(done)
			unsubscribe()
		})
	}

	send := func(m ConsoleMessage) {
		select {
		case output <- m:
		default:
		}
	}

	go func() {
		defer close(output)
		for {
			select {
			case params, ok := <-consoleCh:
				if !ok {
					return
				}
				if m, ok := parseConsoleAPICalled(params); ok {
					send(m)
				}
			case params, ok := <-exceptionCh:
				if !ok {
					return
				}
				if m, ok := parseExceptionThrown(params); ok {
					send(m)
				}
			case <-done:
				return
			case <-c.closeCh:
				return
			}
		}
	}()

	return output, stop, nil
}

func parseConsoleAPICalled(params json.RawMessage) (ConsoleMessage, bool) {
	var event struct {
		Type string `json:"type"`
		Args []struct {
			Value       interface{} `json:"value"`
			Description string      `json:"description"`
		} `json:"args"`
	}
	if err := json.Unmarshal(params, &event); err != nil {
		return ConsoleMessage{}, false
	}

	parts := make([]string, 0, len(event.Args))
	for _, arg := range event.Args {
		switch {
		case arg.Value != nil:
			parts = append(parts, fmt.Sprintf("%v", arg.Value))
		case arg.Description != "":
			parts = append(parts, arg.Description)
		}
	}
	return ConsoleMessage{Type: event.Type, Text: strings.Join(parts, " ")}, true
}

func parseExceptionThrown(params json.RawMessage) (ConsoleMessage, bool) {
	var event struct {
		ExceptionDetails struct {
			Text      string `json:"text"`
			Exception *struct {
				Description string `json:"description"`
			} `json:"exception"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(params, &event); err != nil {
		return ConsoleMessage{}, false
	}

	text := event.ExceptionDetails.Text
	if e := event.ExceptionDetails.Exception; e != nil && e.Description != "" {
		text = e.Description
	}
	return ConsoleMessage{Type: "exception", Text: text}, true
}
