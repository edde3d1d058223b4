package chrome

import (
	"context"
	"fmt"
)

// Find checks that the located element exists right now, without waiting.
func (c *Client) Find(ctx context.Context, targetID string, loc Locator) error {
	_, err := c.evalOnElement(ctx, targetID, loc, `return true;`)
	return err
}

// Click clicks the centre of the located element with the left button.
func (c *Client) Click(ctx context.Context, targetID string, loc Locator) error {
	sessionID, err := c.attachToTarget(ctx, targetID)
	if err != nil {
		return err
	}

	x, y, err := c.resolveElementCenter(ctx, targetID, loc)
	if err != nil {
		return err
	}

	if err := c.dispatchMouseClick(ctx, sessionID, x, y, "left", 1); err != nil {
		return fmt.Errorf("clicking %s: %w", loc, err)
	}
	return nil
}

// Clear focuses an input and empties its value, firing an input event so
// page scripts observe the change.
func (c *Client) Clear(ctx context.Context, targetID string, loc Locator) error {
	_, err := c.evalOnElement(ctx, targetID, loc, `el.focus();
	el.value = '';
	el.dispatchEvent(new Event('input', {bubbles: true}));
	return true;`)
	if err != nil {
		return fmt.Errorf("clearing %s: %w", loc, err)
	}
	return nil
}

// SendKeys focuses the located element, moves the caret to the end and
// inserts text as if typed.
func (c *Client) SendKeys(ctx context.Context, targetID string, loc Locator, text string) error {
	sessionID, err := c.attachToTarget(ctx, targetID)
	if err != nil {
		return err
	}

	_, err = c.evalOnElement(ctx, targetID, loc, `el.focus();
	try {
		const n = (el.value || '').length;
		el.setSelectionRange(n, n);
	} catch (e) {}
	return true;`)
	if err != nil {
		return fmt.Errorf("focusing %s: %w", loc, err)
	}

	_, err = c.CallSession(ctx, sessionID, "Input.insertText", map[string]interface{}{
		"text": text,
	})
	if err != nil {
		return fmt.Errorf("inserting text: %w", err)
	}

	return nil
}
