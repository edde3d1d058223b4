package chrome

import (
	"context"
	"fmt"
)

// evalOnElement runs body against the element located by loc and returns
// the evaluated value. A missing element yields an error wrapping
// ErrNoSuchElement.
func (c *Client) evalOnElement(ctx context.Context, targetID string, loc Locator, body string) (interface{}, error) {
	js, err := loc.withElement(`{__missing: true}`, body)
	if err != nil {
		return nil, err
	}

	result, err := c.Eval(ctx, targetID, js)
	if err != nil {
		return nil, err
	}

	if m, ok := result.Value.(map[string]interface{}); ok && m["__missing"] == true {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchElement, loc)
	}
	return result.Value, nil
}

// resolveElementCenter scrolls the located element into view and returns
// its centre in viewport coordinates.
func (c *Client) resolveElementCenter(ctx context.Context, targetID string, loc Locator) (x, y float64, err error) {
	value, err := c.evalOnElement(ctx, targetID, loc, `el.scrollIntoView({block: 'center', inline: 'center'});
	const r = el.getBoundingClientRect();
	return [r.left + r.width / 2, r.top + r.height / 2, r.width, r.height];`)
	if err != nil {
		return 0, 0, err
	}

	box, ok := value.([]interface{})
	if !ok || len(box) != 4 {
		return 0, 0, fmt.Errorf("invalid box for %s", loc)
	}
	coords := make([]float64, len(box))
	for i, v := range box {
		f, ok := v.(float64)
		if !ok {
			return 0, 0, fmt.Errorf("invalid box for %s", loc)
		}
		coords[i] = f
	}
	if coords[2] == 0 && coords[3] == 0 {
		return 0, 0, fmt.Errorf("element not interactable: %s has no size", loc)
	}

	return coords[0], coords[1], nil
}

// dispatchMouseClick dispatches mouseMoved, mousePressed, and mouseReleased events.
func (c *Client) dispatchMouseClick(ctx context.Context, sessionID string, x, y float64, button string, clickCount int) error {
	_, err := c.CallSession(ctx, sessionID, "Input.dispatchMouseEvent", map[string]interface{}{
		"type": "mouseMoved",
		"x":    x,
		"y":    y,
	})
	if err != nil {
		return fmt.Errorf("dispatching mouseMoved: %w", err)
	}

	_, err = c.CallSession(ctx, sessionID, "Input.dispatchMouseEvent", map[string]interface{}{
		"type":       "mousePressed",
		"x":          x,
		"y":          y,
		"button":     button,
		"clickCount": clickCount,
	})
	if err != nil {
		return fmt.Errorf("dispatching mousePressed: %w", err)
	}

	_, err = c.CallSession(ctx, sessionID, "Input.dispatchMouseEvent", map[string]interface{}{
		"type":       "mouseReleased",
		"x":          x,
		"y":          y,
		"button":     button,
		"clickCount": clickCount,
	})
	if err != nil {
		return fmt.Errorf("dispatching mouseReleased: %w", err)
	}

	return nil
}
