package chrome

import (
	"context"
	"time"
)

// Page is a Client bound to a single tab. It is the session handle the
// workflow drives; every method forwards to the Client with the bound
// target ID.
type Page struct {
	client   *Client
	targetID string
}

// Page binds the client to targetID.
func (c *Client) Page(targetID string) *Page {
	return &Page{client: c, targetID: targetID}
}

// OpenPage opens a fresh about:blank tab and returns it bound to c.
func (c *Client) OpenPage(ctx context.Context) (*Page, error) {
	id, err := c.NewTab(ctx, "")
	if err != nil {
		return nil, err
	}
	return c.Page(id), nil
}

// TargetID returns the bound target ID.
func (p *Page) TargetID() string { return p.targetID }

// Client returns the underlying client.
func (p *Page) Client() *Client { return p.client }

// Close closes the tab.
func (p *Page) Close(ctx context.Context) error {
	return p.client.CloseTab(ctx, p.targetID)
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	_, err := p.client.Navigate(ctx, p.targetID, url)
	return err
}

func (p *Page) Title(ctx context.Context) (string, error) {
	return p.client.GetTitle(ctx, p.targetID)
}

func (p *Page) URL(ctx context.Context) (string, error) {
	return p.client.GetURL(ctx, p.targetID)
}

func (p *Page) Eval(ctx context.Context, expression string) (*EvalResult, error) {
	return p.client.Eval(ctx, p.targetID, expression)
}

func (p *Page) ScrollTo(ctx context.Context, x, y int) error {
	return p.client.ScrollTo(ctx, p.targetID, x, y)
}

func (p *Page) PageSource(ctx context.Context) (string, error) {
	return p.client.GetPageSource(ctx, p.targetID)
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	return p.client.Screenshot(ctx, p.targetID)
}

func (p *Page) SetUserAgent(ctx context.Context, userAgent string) error {
	return p.client.SetUserAgent(ctx, p.targetID, userAgent)
}

func (p *Page) Find(ctx context.Context, loc Locator) error {
	return p.client.Find(ctx, p.targetID, loc)
}

func (p *Page) Click(ctx context.Context, loc Locator) error {
	return p.client.Click(ctx, p.targetID, loc)
}

func (p *Page) Clear(ctx context.Context, loc Locator) error {
	return p.client.Clear(ctx, p.targetID, loc)
}

func (p *Page) SendKeys(ctx context.Context, loc Locator, text string) error {
	return p.client.SendKeys(ctx, p.targetID, loc, text)
}

func (p *Page) WaitPresent(ctx context.Context, loc Locator, timeout time.Duration) error {
	return p.client.WaitPresent(ctx, p.targetID, loc, timeout)
}

func (p *Page) WaitClickable(ctx context.Context, loc Locator, timeout time.Duration) error {
	return p.client.WaitClickable(ctx, p.targetID, loc, timeout)
}

func (p *Page) WaitTitleContains(ctx context.Context, substr string, timeout time.Duration) error {
	return p.client.WaitTitleContains(ctx, p.targetID, substr, timeout)
}

func (p *Page) WaitTitleContainsFold(ctx context.Context, substr string, timeout time.Duration) error {
	return p.client.WaitTitleContainsFold(ctx, p.targetID, substr, timeout)
}

func (p *Page) WaitReadyState(ctx context.Context, state string, timeout time.Duration) error {
	return p.client.WaitReadyState(ctx, p.targetID, state, timeout)
}

func (p *Page) WaitForFunction(ctx context.Context, expression string, timeout time.Duration) error {
	return p.client.WaitForFunction(ctx, p.targetID, expression, timeout)
}

func (p *Page) WaitURLChange(ctx context.Context, from string, timeout time.Duration) error {
	return p.client.WaitURLChange(ctx, p.targetID, from, timeout)
}

func (p *Page) CaptureConsole(ctx context.Context) (<-chan ConsoleMessage, func(), error) {
	return p.client.CaptureConsole(ctx, p.targetID)
}
