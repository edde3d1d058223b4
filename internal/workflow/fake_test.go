package workflow

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomyan/searchflow/internal/chrome"
	"github.com/tomyan/searchflow/internal/config"
)

// fakeBrowser simulates the search site as a small state machine: which
// page is showing, for which query, and which elements that page has.
type fakeBrowser struct {
	sel config.Selectors

	brand      string
	pages      int  // pager length per query
	showMore   bool // image results offer "Show More Images"
	stuckPager bool // clicking a page number leaves the page unchanged

	// titleFor overrides the title of a state when it returns non-empty.
	titleFor func(f *fakeBrowser) string
	// hook runs before every call; a non-nil error is returned from it.
	hook func(ctx context.Context, method string, loc chrome.Locator) error

	view     string // "", home, search, images
	query    string
	page     int
	inputs   map[string]string
	moreOpen bool

	calls    []string
	scrolls  []int
	navigate []string
}

func newFakeBrowser(cfg config.Config) *fakeBrowser {
	return &fakeBrowser{
		sel:    cfg.Selectors,
		brand:  cfg.Brand,
		pages:  5,
		inputs: make(map[string]string),
	}
}

func (f *fakeBrowser) call(ctx context.Context, method string, loc chrome.Locator) error {
	f.calls = append(f.calls, method+" "+loc.String())
	if f.hook != nil {
		if err := f.hook(ctx, method, loc); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (f *fakeBrowser) present(loc chrome.Locator) bool {
	switch loc {
	case chrome.TagName("body"):
		return f.view != ""
	case chrome.ID(f.sel.Logo):
		return f.view != ""
	case chrome.ID(f.sel.SearchInput), chrome.ID(f.sel.SearchButton):
		return f.view == "home"
	case chrome.ID(f.sel.ResultsSearchInput), chrome.ID(f.sel.ResultsSearchButton):
		return f.view == "search"
	case chrome.LinkText(f.sel.ImagesTab), chrome.LinkText(f.sel.AllTab):
		return f.view == "search" || f.view == "images"
	case chrome.XPath(f.sel.ShowMoreImages):
		return f.view == "images" && f.showMore
	}
	if loc.By == chrome.ByLinkText && f.view == "search" {
		n, err := strconv.Atoi(loc.Value)
		return err == nil && n >= 1 && n <= f.pages && n != f.page
	}
	return false
}

func (f *fakeBrowser) title() string {
	if f.titleFor != nil {
		if t := f.titleFor(f); t != "" {
			return t
		}
	}
	switch f.view {
	case "home":
		return f.brand + " - News, Politics, Sports"
	case "search":
		return f.query + " - " + f.brand + " Search Results"
	case "images":
		return f.query + " - " + f.brand + " Image Search Results"
	}
	return ""
}

func (f *fakeBrowser) url() string {
	switch f.view {
	case "home":
		return "https://fake.test/"
	case "search":
		return "https://fake.test/search?" + url.Values{"q": {f.query}, "page": {strconv.Itoa(f.page)}}.Encode()
	case "images":
		return "https://fake.test/images?" + url.Values{"q": {f.query}}.Encode()
	}
	return "about:blank"
}

func (f *fakeBrowser) Navigate(ctx context.Context, u string) error {
	if err := f.call(ctx, "Navigate", chrome.Locator{}); err != nil {
		return err
	}
	f.navigate = append(f.navigate, u)
	f.view = "home"
	return nil
}

func (f *fakeBrowser) Title(ctx context.Context) (string, error) {
	if err := f.call(ctx, "Title", chrome.Locator{}); err != nil {
		return "", err
	}
	return f.title(), nil
}

func (f *fakeBrowser) URL(ctx context.Context) (string, error) {
	if err := f.call(ctx, "URL", chrome.Locator{}); err != nil {
		return "", err
	}
	return f.url(), nil
}

func (f *fakeBrowser) ScrollTo(ctx context.Context, x, y int) error {
	if err := f.call(ctx, "ScrollTo", chrome.Locator{}); err != nil {
		return err
	}
	f.scrolls = append(f.scrolls, y)
	return nil
}

func (f *fakeBrowser) PageSource(ctx context.Context) (string, error) {
	if err := f.call(ctx, "PageSource", chrome.Locator{}); err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s</title></head><body>", html.EscapeString(f.title()))
	if f.view == "search" {
		for i := 1; i <= 3; i++ {
			fmt.Fprintf(&b, `<div class="algo"><h3>%s %d.%d</h3></div>`, html.EscapeString(f.query), f.page, i)
		}
		b.WriteString(`<div class="compPagination">`)
		for n := 1; n <= f.pages; n++ {
			if n == f.page {
				fmt.Fprintf(&b, "<strong>%d</strong>", n)
			} else {
				fmt.Fprintf(&b, `<a href="#">%d</a>`, n)
			}
		}
		b.WriteString("</div>")
	}
	b.WriteString("</body></html>")
	return b.String(), nil
}

func (f *fakeBrowser) Screenshot(ctx context.Context) ([]byte, error) {
	if err := f.call(ctx, "Screenshot", chrome.Locator{}); err != nil {
		return nil, err
	}
	return []byte("png:" + f.view), nil
}

func (f *fakeBrowser) Find(ctx context.Context, loc chrome.Locator) error {
	if err := f.call(ctx, "Find", loc); err != nil {
		return err
	}
	if !f.present(loc) {
		return fmt.Errorf("%w: %s", chrome.ErrNoSuchElement, loc)
	}
	return nil
}

func (f *fakeBrowser) Click(ctx context.Context, loc chrome.Locator) error {
	if err := f.call(ctx, "Click", loc); err != nil {
		return err
	}
	if !f.present(loc) {
		return fmt.Errorf("%w: %s", chrome.ErrNoSuchElement, loc)
	}

	switch loc {
	case chrome.ID(f.sel.SearchButton):
		f.showResults(f.inputs[f.sel.SearchInput], 1)
	case chrome.ID(f.sel.ResultsSearchButton):
		f.showResults(f.inputs[f.sel.ResultsSearchInput], 1)
	case chrome.LinkText(f.sel.ImagesTab):
		f.view = "images"
		f.moreOpen = false
	case chrome.LinkText(f.sel.AllTab):
		f.showResults(f.query, 1)
	case chrome.XPath(f.sel.ShowMoreImages):
		f.moreOpen = true
	case chrome.ID(f.sel.Logo):
		f.view = "home"
	default:
		if n, err := strconv.Atoi(loc.Value); err == nil && !f.stuckPager {
			f.page = n
		}
	}
	return nil
}

func (f *fakeBrowser) showResults(query string, page int) {
	f.view = "search"
	f.query = query
	f.page = page
	f.inputs[f.sel.ResultsSearchInput] = query
}

func (f *fakeBrowser) Clear(ctx context.Context, loc chrome.Locator) error {
	if err := f.call(ctx, "Clear", loc); err != nil {
		return err
	}
	if !f.present(loc) {
		return fmt.Errorf("%w: %s", chrome.ErrNoSuchElement, loc)
	}
	f.inputs[loc.Value] = ""
	return nil
}

func (f *fakeBrowser) SendKeys(ctx context.Context, loc chrome.Locator, text string) error {
	if err := f.call(ctx, "SendKeys", loc); err != nil {
		return err
	}
	if !f.present(loc) {
		return fmt.Errorf("%w: %s", chrome.ErrNoSuchElement, loc)
	}
	f.inputs[loc.Value] += text
	return nil
}

func (f *fakeBrowser) timeout(what string) error {
	return fmt.Errorf("%w waiting for %s", chrome.ErrTimeout, what)
}

func (f *fakeBrowser) WaitPresent(ctx context.Context, loc chrome.Locator, _ time.Duration) error {
	if err := f.call(ctx, "WaitPresent", loc); err != nil {
		return err
	}
	if !f.present(loc) {
		return f.timeout("presence of " + loc.String())
	}
	return nil
}

func (f *fakeBrowser) WaitClickable(ctx context.Context, loc chrome.Locator, _ time.Duration) error {
	if err := f.call(ctx, "WaitClickable", loc); err != nil {
		return err
	}
	if !f.present(loc) {
		return f.timeout("clickable " + loc.String())
	}
	return nil
}

func (f *fakeBrowser) WaitTitleContains(ctx context.Context, substr string, _ time.Duration) error {
	if err := f.call(ctx, "WaitTitleContains", chrome.Locator{}); err != nil {
		return err
	}
	if !strings.Contains(f.title(), substr) {
		return f.timeout(fmt.Sprintf("title to contain %q", substr))
	}
	return nil
}

func (f *fakeBrowser) WaitTitleContainsFold(ctx context.Context, substr string, _ time.Duration) error {
	if err := f.call(ctx, "WaitTitleContainsFold", chrome.Locator{}); err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(f.title()), strings.ToLower(substr)) {
		return f.timeout(fmt.Sprintf("title to contain %q (any case)", substr))
	}
	return nil
}

func (f *fakeBrowser) WaitReadyState(ctx context.Context, state string, _ time.Duration) error {
	return f.call(ctx, "WaitReadyState", chrome.Locator{})
}

func (f *fakeBrowser) WaitURLChange(ctx context.Context, from string, _ time.Duration) error {
	if err := f.call(ctx, "WaitURLChange", chrome.Locator{}); err != nil {
		return err
	}
	if f.url() == from {
		return f.timeout("navigation away from " + from)
	}
	return nil
}
