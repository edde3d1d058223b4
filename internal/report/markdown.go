package report

import (
	"encoding/base64"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs the run as GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

func (w *MarkdownWriter) Write(run *Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeOutcome(md, run)
	w.writeSteps(md, run)
	w.writeVisits(md, run)
	w.writeConsole(md, run)
	w.writeScreenshot(md, run)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Run %s*", run.ID)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *Run) {
	md.H1("Search Walkthrough Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", cell(run.Site)},
			{"Started", run.Started.Format("2006-01-02 15:04:05 MST")},
			{"Duration", run.Duration().Round(time.Millisecond).String()},
			{"Final Title", cell(orDash(run.FinalTitle))},
			{"Status", statusText(run)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeOutcome(md *markdown.Markdown, run *Run) {
	passed, skipped, _ := run.Counts()
	switch {
	case !run.Passed():
		md.Cautionf("Run failed: %s", orDash(run.Error))
	case skipped > 0:
		md.Note(strconv.Itoa(passed) + " steps passed, " + strconv.Itoa(skipped) + " skipped.")
	default:
		md.Tip("All " + strconv.Itoa(passed) + " steps passed.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeSteps(md *markdown.Markdown, run *Run) {
	md.H2("Steps")
	md.PlainText("")

	if len(run.Steps) == 0 {
		md.PlainText("No steps recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(run.Steps))
	for i, s := range run.Steps {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			cell(s.Name),
			statusIcon(s.Status) + " " + string(s.Status),
			s.Duration.Round(time.Millisecond).String(),
			cell(truncate(orDash(s.Detail), 120)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Step", "Status", "Duration", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeVisits(md *markdown.Markdown, run *Run) {
	if len(run.Visits) == 0 {
		return
	}

	md.H2("Results Pages")
	md.PlainText("")

	for _, v := range run.Visits {
		md.PlainTextf("**%s**, page %d: `%s`", v.Query, v.Page, v.URL)
		md.PlainText("")
		if len(v.Headlines) == 0 {
			md.PlainText("No headlines found.")
		} else {
			md.BulletList(v.Headlines...)
		}
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeConsole(md *markdown.Markdown, run *Run) {
	if len(run.Console) == 0 {
		return
	}
	md.H2("Browser Console")
	md.PlainText("")
	items := make([]string, len(run.Console))
	for i, c := range run.Console {
		items[i] = "`" + c.Type + "` " + truncate(strings.ReplaceAll(c.Text, "\n", " "), 200)
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeScreenshot(md *markdown.Markdown, run *Run) {
	if len(run.Screenshot) == 0 {
		return
	}
	md.H2("Screenshot at Failure")
	md.PlainText("")
	md.PlainTextf("![screenshot](data:image/png;base64,%s)", base64.StdEncoding.EncodeToString(run.Screenshot))
	md.PlainText("")
}

func statusText(run *Run) string {
	if run.Finished.IsZero() {
		return "⏳ Incomplete"
	}
	if run.Passed() {
		return "✅ Passed"
	}
	return "❌ Failed"
}

func statusIcon(s Status) string {
	switch s {
	case StatusPassed:
		return "✅"
	case StatusSkipped:
		return "⏭️"
	case StatusFailed:
		return "❌"
	default:
		return "⏳"
	}
}

// cell makes text safe inside a table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
