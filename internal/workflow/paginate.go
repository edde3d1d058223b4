package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tomyan/searchflow/internal/chrome"
)

// paginate visits result pages cfg.Pages.From..To for the current query.
// The first page that cannot be reached ends pagination without failing
// the run; see isAbsent.
func (r *runner) paginate(ctx context.Context, term string) error {
	for n := r.cfg.Pages.From; n <= r.cfg.Pages.To; n++ {
		s := r.rec.Begin(fmt.Sprintf("%s page %d", term, n))

		err := r.visitPage(ctx, term, n)
		switch {
		case err == nil:
			if url, uerr := r.b.URL(ctx); uerr == nil {
				s.SetURL(url)
			}
			s.Pass("")
			r.log.Info("step passed", "step", s.Name, "duration", s.Duration)
			continue
		case isAbsent(ctx, err):
			s.Skip("end of pagination: " + err.Error())
			r.log.Warn("end of pagination", "term", term, "page", n, "error", err)
			return nil
		}

		var assertErr *AssertionError
		if errors.As(err, &assertErr) {
			s.Fail(err)
			return err
		}
		perr := &PaginationError{Page: n, Err: err}
		s.Fail(perr)
		r.log.Error("pagination failed", "term", term, "page", n, "error", err)
		return perr
	}
	return nil
}

// visitPage moves from the current results page to page n.
func (r *runner) visitPage(ctx context.Context, term string, n int) error {
	if err := r.b.ScrollTo(ctx, 0, r.cfg.Scroll.BeforePage); err != nil {
		return err
	}

	link := chrome.LinkText(strconv.Itoa(n))
	if err := r.b.WaitClickable(ctx, link, r.cfg.Timeouts.PageLink); err != nil {
		return err
	}
	if err := r.clickAndFollow(ctx, link); err != nil {
		return err
	}
	if err := r.b.WaitReadyState(ctx, "complete", r.cfg.Timeouts.PageLoad); err != nil {
		return err
	}
	if err := r.b.WaitPresent(ctx, body, r.cfg.Timeouts.Default); err != nil {
		return err
	}
	if err := r.b.ScrollTo(ctx, 0, r.cfg.Scroll.AfterPage); err != nil {
		return err
	}

	url, err := r.b.URL(ctx)
	if err != nil {
		return err
	}
	r.log.Debug("on results page", "term", term, "page", n, "url", url)

	parsed := r.recordVisit(ctx, term, n)
	if r.cfg.StrictPagination {
		if parsed == nil {
			p, err := r.parseResults(ctx)
			if err != nil {
				return err
			}
			parsed = p
		}
		if parsed.Current != n {
			got := strconv.Itoa(parsed.Current)
			if parsed.HasPage(n) {
				got += fmt.Sprintf(" (page %d still linked)", n)
			}
			return &AssertionError{
				Step: fmt.Sprintf("pagination %s", term),
				Want: fmt.Sprintf("current page %d", n),
				Got:  got,
			}
		}
	}

	return sleep(ctx, r.cfg.PageDelay)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
