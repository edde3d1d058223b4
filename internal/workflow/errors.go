package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomyan/searchflow/internal/chrome"
)

// AssertionError reports a check on page state that did not hold.
type AssertionError struct {
	Step string
	Want string
	Got  string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %q", e.Step, e.Want, e.Got)
}

// PaginationError is an error while moving to a results page that is not
// explained by the page being absent.
type PaginationError struct {
	Page int
	Err  error
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("navigating to page %d: %v", e.Page, e.Err)
}

func (e *PaginationError) Unwrap() error {
	return e.Err
}

// isAbsent reports whether err means the element being waited for is not
// on the page: a missing element or an expired wait. Drivers do not always
// preserve error identity, so the message is matched as well. Errors
// caused by ctx ending never count.
func isAbsent(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var assertErr *AssertionError
	if errors.As(err, &assertErr) {
		return false
	}
	if errors.Is(err, chrome.ErrNoSuchElement) || errors.Is(err, chrome.ErrTimeout) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such element") || strings.Contains(msg, "timeout")
}
