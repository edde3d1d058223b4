// Package testutil provides a headless Chrome and a local fixture search
// site for tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/tomyan/searchflow/internal/chrome"
	"github.com/tomyan/searchflow/internal/chrome/launcher"
)

// ChromeInstance represents a running Chrome instance for testing.
type ChromeInstance struct {
	*launcher.Instance
}

// StartChrome starts a headless Chrome instance on the specified port.
// Returns a ChromeInstance that must be stopped with Stop(). The error
// wraps launcher.ErrChromeNotFound when no browser is installed.
func StartChrome(port int) (*ChromeInstance, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	inst, err := launcher.Launch(ctx, launcher.LaunchOptions{
		ChromePath: os.Getenv("SEARCHFLOW_CHROME"),
		Port:       port,
		Headless:   true,
		WindowSize: "1366,900",
	})
	if err != nil {
		return nil, err
	}
	return &ChromeInstance{Instance: inst}, nil
}

// StartChromeForMain is StartChrome for TestMain. When the browser is
// missing or fails to start the reason is reported on stderr and nil is
// returned, so the browser tests skip instead of failing the package.
func StartChromeForMain(port int) *ChromeInstance {
	inst, err := StartChrome(port)
	switch {
	case errors.Is(err, launcher.ErrChromeNotFound):
		fmt.Fprintln(os.Stderr, "Chrome not found; browser tests will be skipped")
		return nil
	case err != nil:
		fmt.Fprintf(os.Stderr, "Failed to start Chrome, browser tests will be skipped: %v\n", err)
		return nil
	}
	return inst
}

// Stop terminates the Chrome instance. A nil instance is a no-op.
func (c *ChromeInstance) Stop() error {
	if c == nil || c.Instance == nil {
		return nil
	}
	return c.Instance.Stop()
}

// NewPage connects to the instance and opens an isolated tab. The tab and
// connection are closed when the test ends. The test is skipped when c
// is nil.
func (c *ChromeInstance) NewPage(t testing.TB) *chrome.Page {
	t.Helper()
	if c == nil {
		t.Skip("Chrome not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := chrome.Connect(ctx, "localhost", c.Port)
	if err != nil {
		t.Fatalf("connecting to Chrome: %v", err)
	}

	page, err := client.OpenPage(ctx)
	if err != nil {
		client.Close()
		t.Fatalf("opening tab: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		page.Close(ctx)
		client.Close()
	})
	return page
}
