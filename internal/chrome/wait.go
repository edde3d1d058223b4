package chrome

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PollInterval is how often readiness conditions are re-evaluated.
var PollInterval = 100 * time.Millisecond

// condition reports whether a readiness predicate currently holds.
type condition func(ctx context.Context) (bool, error)

// poll evaluates cond until it holds, the timeout expires or ctx is done.
// Protocol errors are retried: they are expected while a navigation tears
// down the execution context the condition runs in.
func poll(ctx context.Context, timeout time.Duration, what string, cond condition) error {
	deadline := time.Now().Add(timeout)
	var lastErr error

	for {
		attemptCtx, cancel := context.WithDeadline(ctx, deadline)
		ok, err := cond(attemptCtx)
		cancel()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil && ok {
			return nil
		}
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			if !errors.Is(err, ErrProtocolError) {
				return err
			}
			lastErr = err
		}

		if !time.Now().Before(deadline) {
			if lastErr != nil {
				return fmt.Errorf("%w waiting for %s: %v", ErrTimeout, what, lastErr)
			}
			return fmt.Errorf("%w waiting for %s", ErrTimeout, what)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(PollInterval):
		}
	}
}

// WaitPresent waits for the located element to exist in the DOM.
func (c *Client) WaitPresent(ctx context.Context, targetID string, loc Locator, timeout time.Duration) error {
	return poll(ctx, timeout, "presence of "+loc.String(), func(ctx context.Context) (bool, error) {
		err := c.Find(ctx, targetID, loc)
		if errors.Is(err, ErrNoSuchElement) {
			return false, nil
		}
		return err == nil, err
	})
}

// WaitClickable waits for the located element to be rendered, visible and enabled.
func (c *Client) WaitClickable(ctx context.Context, targetID string, loc Locator, timeout time.Duration) error {
	return poll(ctx, timeout, "clickable "+loc.String(), func(ctx context.Context) (bool, error) {
		value, err := c.evalOnElement(ctx, targetID, loc, clickableBody)
		if errors.Is(err, ErrNoSuchElement) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return isTruthy(value), nil
	})
}

// WaitTitleContains waits for the page title to contain substr.
func (c *Client) WaitTitleContains(ctx context.Context, targetID string, substr string, timeout time.Duration) error {
	return poll(ctx, timeout, fmt.Sprintf("title to contain %q", substr), func(ctx context.Context) (bool, error) {
		title, err := c.GetTitle(ctx, targetID)
		if err != nil {
			return false, err
		}
		return strings.Contains(title, substr), nil
	})
}

// WaitTitleContainsFold is WaitTitleContains ignoring case.
func (c *Client) WaitTitleContainsFold(ctx context.Context, targetID string, substr string, timeout time.Duration) error {
	want := strings.ToLower(substr)
	return poll(ctx, timeout, fmt.Sprintf("title to contain %q (any case)", substr), func(ctx context.Context) (bool, error) {
		title, err := c.GetTitle(ctx, targetID)
		if err != nil {
			return false, err
		}
		return strings.Contains(strings.ToLower(title), want), nil
	})
}

// WaitReadyState waits for document.readyState to equal state.
func (c *Client) WaitReadyState(ctx context.Context, targetID string, state string, timeout time.Duration) error {
	return poll(ctx, timeout, fmt.Sprintf("document.readyState %q", state), func(ctx context.Context) (bool, error) {
		got, err := c.evalString(ctx, targetID, "document.readyState")
		if err != nil {
			return false, err
		}
		return got == state, nil
	})
}

// WaitForFunction waits until a JavaScript expression evaluates to a truthy value.
func (c *Client) WaitForFunction(ctx context.Context, targetID string, expression string, timeout time.Duration) error {
	return poll(ctx, timeout, "function", func(ctx context.Context) (bool, error) {
		result, err := c.Eval(ctx, targetID, expression)
		if err != nil {
			return false, err
		}
		return isTruthy(result.Value), nil
	})
}

// WaitURLChange waits for the page URL to differ from from, which is how
// a click that starts a navigation is told apart from one that does not.
func (c *Client) WaitURLChange(ctx context.Context, targetID string, from string, timeout time.Duration) error {
	return poll(ctx, timeout, "navigation away from "+from, func(ctx context.Context) (bool, error) {
		url, err := c.GetURL(ctx, targetID)
		if err != nil {
			return false, err
		}
		return url != from, nil
	})
}
