package chrome

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Eval evaluates a JavaScript expression in a target's page context.
func (c *Client) Eval(ctx context.Context, targetID string, expression string) (*EvalResult, error) {
	sessionID, err := c.attachToTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}

	_, err = c.CallSession(ctx, sessionID, "Runtime.enable", nil)
	if err != nil {
		return nil, fmt.Errorf("enabling Runtime domain: %w", err)
	}

	evalResult, err := c.CallSession(ctx, sessionID, "Runtime.evaluate", map[string]interface{}{
		"expression":    expression,
		"returnByValue": true,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluating expression: %w", err)
	}

	var evalResp struct {
		Result struct {
			Type  string      `json:"type"`
			Value interface{} `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text      string `json:"text"`
			Exception *struct {
				Description string `json:"description"`
			} `json:"exception"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(evalResult, &evalResp); err != nil {
		return nil, fmt.Errorf("parsing eval response: %w", err)
	}

	if d := evalResp.ExceptionDetails; d != nil {
		if d.Exception != nil && d.Exception.Description != "" {
			return nil, fmt.Errorf("JS exception: %s", d.Exception.Description)
		}
		return nil, fmt.Errorf("JS exception: %s", d.Text)
	}

	return &EvalResult{
		Value: evalResp.Result.Value,
		Type:  evalResp.Result.Type,
	}, nil
}

// ScrollTo scrolls the window to absolute page coordinates.
func (c *Client) ScrollTo(ctx context.Context, targetID string, x, y int) error {
	_, err := c.Eval(ctx, targetID, fmt.Sprintf(`window.scrollTo(%d, %d); true`, x, y))
	if err != nil {
		return fmt.Errorf("scrolling to (%d, %d): %w", x, y, err)
	}
	return nil
}

// Screenshot captures a PNG screenshot of the target's viewport.
func (c *Client) Screenshot(ctx context.Context, targetID string) ([]byte, error) {
	sessionID, err := c.attachToTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}

	result, err := c.CallSession(ctx, sessionID, "Page.captureScreenshot", map[string]interface{}{
		"format": "png",
	})
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}

	var screenshotResp struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(result, &screenshotResp); err != nil {
		return nil, fmt.Errorf("parsing screenshot response: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(screenshotResp.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot data: %w", err)
	}

	return data, nil
}

// GetPageSource returns the full HTML source of the page.
func (c *Client) GetPageSource(ctx context.Context, targetID string) (string, error) {
	sessionID, err := c.attachToTarget(ctx, targetID)
	if err != nil {
		return "", err
	}

	result, err := c.CallSession(ctx, sessionID, "DOM.getDocument", map[string]interface{}{
		"depth": -1,
	})
	if err != nil {
		return "", fmt.Errorf("getting document: %w", err)
	}

	var docResult struct {
		Root struct {
			NodeID int `json:"nodeId"`
		} `json:"root"`
	}
	if err := json.Unmarshal(result, &docResult); err != nil {
		return "", fmt.Errorf("parsing document: %w", err)
	}

	result, err = c.CallSession(ctx, sessionID, "DOM.getOuterHTML", map[string]interface{}{
		"nodeId": docResult.Root.NodeID,
	})
	if err != nil {
		return "", fmt.Errorf("getting outer HTML: %w", err)
	}

	var htmlResult struct {
		OuterHTML string `json:"outerHTML"`
	}
	if err := json.Unmarshal(result, &htmlResult); err != nil {
		return "", fmt.Errorf("parsing outer HTML: %w", err)
	}

	return htmlResult.OuterHTML, nil
}

// SetUserAgent sets a custom user agent for the specified target.
func (c *Client) SetUserAgent(ctx context.Context, targetID string, userAgent string) error {
	sessionID, err := c.attachToTarget(ctx, targetID)
	if err != nil {
		return err
	}

	_, err = c.CallSession(ctx, sessionID, "Emulation.setUserAgentOverride", map[string]interface{}{
		"userAgent": userAgent,
	})
	if err != nil {
		return fmt.Errorf("setting user agent: %w", err)
	}

	return nil
}
