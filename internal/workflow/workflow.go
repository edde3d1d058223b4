// Package workflow drives a browser through the search walkthrough: load
// the home page, search, page through the results, visit image results
// and come back, search again, page again and return home.
//
// The walkthrough is strictly sequential. Every readiness condition is an
// explicit bounded wait; pagination and the optional "Show More Images"
// button treat a missing element as the natural end of that sub-step
// rather than a failure.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tomyan/searchflow/internal/chrome"
	"github.com/tomyan/searchflow/internal/config"
	"github.com/tomyan/searchflow/internal/logging"
	"github.com/tomyan/searchflow/internal/report"
	"github.com/tomyan/searchflow/internal/serp"
)

// Browser is the session handle the walkthrough drives. *chrome.Page
// implements it.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	ScrollTo(ctx context.Context, x, y int) error
	PageSource(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)

	Find(ctx context.Context, loc chrome.Locator) error
	Click(ctx context.Context, loc chrome.Locator) error
	Clear(ctx context.Context, loc chrome.Locator) error
	SendKeys(ctx context.Context, loc chrome.Locator, text string) error

	WaitPresent(ctx context.Context, loc chrome.Locator, timeout time.Duration) error
	WaitClickable(ctx context.Context, loc chrome.Locator, timeout time.Duration) error
	WaitTitleContains(ctx context.Context, substr string, timeout time.Duration) error
	WaitTitleContainsFold(ctx context.Context, substr string, timeout time.Duration) error
	WaitReadyState(ctx context.Context, state string, timeout time.Duration) error
	WaitURLChange(ctx context.Context, from string, timeout time.Duration) error
}

var _ Browser = (*chrome.Page)(nil)

var body = chrome.TagName("body")

// Run executes the walkthrough against b. Each stage is recorded on rec,
// which is finished before Run returns; a nil rec gets a fresh record.
// On failure a screenshot is attached to rec when one can be taken.
func Run(ctx context.Context, b Browser, cfg config.Config, rec *report.Run, logger *slog.Logger) (err error) {
	if rec == nil {
		rec = report.NewRun(cfg.BaseURL)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.Timeouts.Run > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeouts.Run)
		defer cancel()
	}

	r := &runner{
		b:   b,
		cfg: cfg,
		sel: cfg.Selectors,
		rec: rec,
		log: logger.With("run", rec.ID),
	}

	defer func() {
		if err != nil {
			r.captureFailure(ctx)
		}
		rec.Finish(err)
	}()

	r.log.Info("starting walkthrough", "site", cfg.BaseURL)

	if err := r.step(ctx, "open home page", r.openHome); err != nil {
		return err
	}
	if err := r.step(ctx, "search "+strconv.Quote(cfg.FirstSearch.Query), r.firstSearch); err != nil {
		return err
	}
	if err := r.paginate(ctx, cfg.FirstSearch.Expect); err != nil {
		return err
	}
	if err := r.step(ctx, "open image results", r.openImages); err != nil {
		return err
	}
	if err := r.step(ctx, "show more images", r.showMoreImages); err != nil {
		return err
	}
	if err := r.step(ctx, "back to all results", r.backToAll); err != nil {
		return err
	}
	if err := r.step(ctx, "search "+strconv.Quote(cfg.SecondSearch.Query), r.secondSearch); err != nil {
		return err
	}
	if err := r.paginate(ctx, cfg.SecondSearch.Expect); err != nil {
		return err
	}
	if err := r.step(ctx, "return home", r.returnHome); err != nil {
		return err
	}

	passed, skipped, _ := rec.Counts()
	r.log.Info("walkthrough passed", "steps", passed, "skipped", skipped, "title", rec.FinalTitle)
	return nil
}

type runner struct {
	b   Browser
	cfg config.Config
	sel config.Selectors
	rec *report.Run
	log *slog.Logger
}

// errSkipped lets a stage end as skipped without failing the run.
type errSkipped struct{ reason string }

func (e errSkipped) Error() string { return e.reason }

// step runs fn as one recorded stage.
func (r *runner) step(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	s := r.rec.Begin(name)
	err := fn(ctx)

	var skipped errSkipped
	switch {
	case errors.As(err, &skipped):
		s.Skip(skipped.reason)
		r.log.Info("step skipped", "step", name, "reason", skipped.reason)
		return nil
	case err != nil:
		s.Fail(err)
		r.log.Error("step failed", "step", name, "error", err)
		return err
	}

	if url, uerr := r.b.URL(ctx); uerr == nil {
		s.SetURL(url)
	}
	s.Pass("")
	r.log.Info("step passed", "step", name, "duration", s.Duration)
	return nil
}

func (r *runner) openHome(ctx context.Context) error {
	if err := r.b.Navigate(ctx, r.cfg.BaseURL); err != nil {
		return err
	}
	return r.b.WaitPresent(ctx, body, r.cfg.Timeouts.Default)
}

func (r *runner) firstSearch(ctx context.Context) error {
	search := r.cfg.FirstSearch
	if err := r.submitSearch(ctx, chrome.ID(r.sel.SearchInput), chrome.ID(r.sel.SearchButton), search.Query, true); err != nil {
		return err
	}

	if err := r.b.WaitTitleContains(ctx, search.Expect, r.cfg.Timeouts.Default); err != nil && !errors.Is(err, chrome.ErrTimeout) {
		return err
	}
	title, err := r.b.Title(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(title, search.Expect) {
		return &AssertionError{Step: "keyword search", Want: "title containing " + strconv.Quote(search.Expect), Got: title}
	}

	r.recordVisit(ctx, search.Expect, 1)
	return nil
}

// submitSearch types query into input and clicks submit. The input is
// required to be clickable when clickable is set, otherwise only present.
func (r *runner) submitSearch(ctx context.Context, input, submit chrome.Locator, query string, clickable bool) error {
	wait := r.b.WaitPresent
	if clickable {
		wait = r.b.WaitClickable
	}
	if err := wait(ctx, input, r.cfg.Timeouts.Default); err != nil {
		return err
	}
	if err := r.b.Clear(ctx, input); err != nil {
		return err
	}
	if err := r.b.SendKeys(ctx, input, query); err != nil {
		return err
	}
	if err := r.b.Find(ctx, submit); err != nil {
		return err
	}
	return r.clickAndFollow(ctx, submit)
}

// clickAndFollow clicks loc and waits for the page to move on. A click
// that does not change the URL is logged and tolerated; later waits
// decide whether the page is right.
func (r *runner) clickAndFollow(ctx context.Context, loc chrome.Locator) error {
	before, err := r.b.URL(ctx)
	if err != nil {
		return err
	}
	if err := r.b.Click(ctx, loc); err != nil {
		return err
	}
	err = r.b.WaitURLChange(ctx, before, r.cfg.Timeouts.PageLoad)
	if errors.Is(err, chrome.ErrTimeout) {
		r.log.Debug("click did not navigate", "locator", loc.String(), "url", before)
		return nil
	}
	return err
}

func (r *runner) openImages(ctx context.Context) error {
	tab := chrome.LinkText(r.sel.ImagesTab)
	if err := r.b.WaitClickable(ctx, tab, r.cfg.Timeouts.Default); err != nil {
		return err
	}
	if err := r.clickAndFollow(ctx, tab); err != nil {
		return err
	}
	if err := r.b.WaitPresent(ctx, body, r.cfg.Timeouts.Default); err != nil {
		return err
	}
	return r.b.ScrollTo(ctx, 0, r.cfg.Scroll.Images)
}

// showMoreImages expands the image results when the page offers it. A
// missing element or expired wait anywhere in the sub-step skips it.
func (r *runner) showMoreImages(ctx context.Context) error {
	err := r.expandImages(ctx)
	if isAbsent(ctx, err) {
		return errSkipped{reason: "no \"Show More Images\": " + err.Error()}
	}
	return err
}

func (r *runner) expandImages(ctx context.Context) error {
	button := chrome.XPath(r.sel.ShowMoreImages)
	if err := r.b.WaitClickable(ctx, button, r.cfg.Timeouts.Default); err != nil {
		return err
	}
	if err := r.b.Click(ctx, button); err != nil {
		return err
	}
	if err := r.b.WaitPresent(ctx, body, r.cfg.Timeouts.Default); err != nil {
		return err
	}
	return r.b.ScrollTo(ctx, 0, r.cfg.Scroll.Images)
}

func (r *runner) backToAll(ctx context.Context) error {
	tab := chrome.LinkText(r.sel.AllTab)
	if err := r.b.WaitClickable(ctx, tab, r.cfg.Timeouts.Default); err != nil {
		return err
	}
	if err := r.clickAndFollow(ctx, tab); err != nil {
		return err
	}
	return r.b.WaitPresent(ctx, body, r.cfg.Timeouts.Default)
}

func (r *runner) secondSearch(ctx context.Context) error {
	search := r.cfg.SecondSearch
	if err := r.submitSearch(ctx, chrome.ID(r.sel.ResultsSearchInput), chrome.ID(r.sel.ResultsSearchButton), search.Query, false); err != nil {
		return err
	}
	if err := r.b.WaitPresent(ctx, body, r.cfg.Timeouts.Default); err != nil {
		return err
	}
	if err := r.b.ScrollTo(ctx, 0, r.cfg.Scroll.Results); err != nil {
		return err
	}

	if err := r.b.WaitTitleContainsFold(ctx, search.Expect, r.cfg.Timeouts.Default); err != nil && !errors.Is(err, chrome.ErrTimeout) {
		return err
	}
	title, err := r.b.Title(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(title), strings.ToLower(search.Expect)) {
		return &AssertionError{Step: "second search", Want: "title containing " + strconv.Quote(strings.ToLower(search.Expect)), Got: title}
	}

	r.recordVisit(ctx, search.Expect, 1)
	return nil
}

func (r *runner) returnHome(ctx context.Context) error {
	logo := chrome.ID(r.sel.Logo)
	if err := r.b.WaitClickable(ctx, logo, r.cfg.Timeouts.Default); err != nil {
		return err
	}
	if err := r.clickAndFollow(ctx, logo); err != nil {
		return err
	}
	if err := r.b.WaitPresent(ctx, body, r.cfg.Timeouts.Default); err != nil {
		return err
	}

	brand := r.cfg.Brand
	if err := r.b.WaitTitleContains(ctx, brand, r.cfg.Timeouts.Default); err != nil && !errors.Is(err, chrome.ErrTimeout) {
		return err
	}
	title, err := r.b.Title(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(title, brand) {
		return &AssertionError{Step: "return home", Want: "title containing " + strconv.Quote(brand), Got: title}
	}

	r.rec.FinalTitle = title
	r.log.Info("final page title", "title", title)
	return nil
}

// recordVisit parses the current results page into the run record. It is
// best effort: a page that cannot be read is logged and left out.
func (r *runner) recordVisit(ctx context.Context, query string, page int) *serp.Page {
	url, err := r.b.URL(ctx)
	if err != nil {
		r.log.Debug("reading results URL", "error", err)
		return nil
	}
	parsed, err := r.parseResults(ctx)
	if err != nil {
		r.log.Debug("reading results page", "error", err)
		return nil
	}

	r.rec.Visit(report.PageVisit{
		Query:     query,
		Page:      page,
		URL:       url,
		Title:     parsed.Title,
		Headlines: parsed.Headlines,
	})
	r.log.Info("page visited", "query", query, "page", page, "url", url, "headlines", len(parsed.Headlines))
	return parsed
}

func (r *runner) parseResults(ctx context.Context) (*serp.Page, error) {
	src, err := r.b.PageSource(ctx)
	if err != nil {
		return nil, err
	}
	return serp.Parse(src, serp.Selectors{
		Headline:     r.sel.Headline,
		PagerLink:    r.sel.PagerLink,
		PagerCurrent: r.sel.PagerCurrent,
	})
}

// captureFailure attaches a screenshot of the page the run failed on. The
// run context may already be done, so it gets its own short deadline.
func (r *runner) captureFailure(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	shot, err := r.b.Screenshot(ctx)
	if err != nil {
		r.log.Debug("taking failure screenshot", "error", err)
		return
	}
	r.rec.Screenshot = shot
}
