// Package report records the outcome of a walkthrough run and writes it
// as Markdown, a self-contained HTML page or JSON.
package report

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of a step.
type Status string

const (
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Step is one named stage of the walkthrough.
type Step struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	URL      string        `json:"url,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`

	now func() time.Time
}

// PageVisit is a results page seen during the run.
type PageVisit struct {
	Query     string   `json:"query"`
	Page      int      `json:"page"`
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	Headlines []string `json:"headlines,omitempty"`
}

// ConsoleEntry is a browser console error or uncaught exception seen
// during the run.
type ConsoleEntry struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Run is the record of one walkthrough.
type Run struct {
	ID         string         `json:"id"`
	Site       string         `json:"site"`
	Started    time.Time      `json:"started"`
	Finished   time.Time      `json:"finished"`
	Steps      []*Step        `json:"steps"`
	Visits     []PageVisit    `json:"visits,omitempty"`
	Console    []ConsoleEntry `json:"console,omitempty"`
	FinalTitle string         `json:"final_title,omitempty"`
	Error      string         `json:"error,omitempty"`
	Screenshot []byte         `json:"screenshot,omitempty"` // PNG taken on failure

	now func() time.Time
}

// NewRun starts a record for a walkthrough of site.
func NewRun(site string) *Run {
	return newRunAt(site, time.Now)
}

func newRunAt(site string, now func() time.Time) *Run {
	return &Run{
		ID:      uuid.NewString(),
		Site:    site,
		Started: now(),
		now:     now,
	}
}

// Begin appends a running step and returns it for completion.
func (r *Run) Begin(name string) *Step {
	s := &Step{
		Name:    name,
		Status:  StatusRunning,
		Started: r.now(),
		now:     r.now,
	}
	r.Steps = append(r.Steps, s)
	return s
}

// Visit records a results page.
func (r *Run) Visit(v PageVisit) {
	r.Visits = append(r.Visits, v)
}

// Finish stamps the end time and the error that ended the run, if any.
// Steps still running are marked failed.
func (r *Run) Finish(err error) {
	r.Finished = r.now()
	if err != nil {
		r.Error = err.Error()
	}
	for _, s := range r.Steps {
		if s.Status == StatusRunning {
			s.Fail(err)
		}
	}
}

// Passed reports whether the run ended without error and no step failed.
func (r *Run) Passed() bool {
	if r.Error != "" {
		return false
	}
	_, _, failed := r.Counts()
	return failed == 0
}

// Counts returns the number of passed, skipped and failed steps.
func (r *Run) Counts() (passed, skipped, failed int) {
	for _, s := range r.Steps {
		switch s.Status {
		case StatusPassed:
			passed++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return passed, skipped, failed
}

// Duration is the wall time of a finished run.
func (r *Run) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Pass completes the step successfully.
func (s *Step) Pass(detail string) {
	s.complete(StatusPassed, detail)
}

// Skip completes the step as skipped with the reason.
func (s *Step) Skip(reason string) {
	s.complete(StatusSkipped, reason)
}

// Fail completes the step as failed.
func (s *Step) Fail(err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	s.complete(StatusFailed, detail)
}

// SetURL records the page the step ended on.
func (s *Step) SetURL(url string) {
	s.URL = url
}

func (s *Step) complete(status Status, detail string) {
	s.Status = status
	s.Detail = detail
	s.Duration = s.now().Sub(s.Started)
}
