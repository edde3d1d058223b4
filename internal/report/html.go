package report

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

const pageStyle = `body{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Helvetica,Arial,sans-serif;max-width:1100px;margin:2em auto;padding:0 1em;color:#1f2328;line-height:1.5}
table{border-collapse:collapse;margin:1em 0}
th,td{border:1px solid #d0d7de;padding:4px 10px;text-align:left;vertical-align:top}
th{background:#f6f8fa}
blockquote{border-left:4px solid #d0d7de;margin:1em 0;padding:0 1em;color:#59636e}
code{background:#f6f8fa;padding:1px 4px;border-radius:4px}
img{max-width:100%;border:1px solid #d0d7de}`

// HTMLWriter outputs the run as a single self-contained HTML page. The
// body is the Markdown report rendered by goldmark; the screenshot is
// embedded as a data URL so the file has no external references.
type HTMLWriter struct {
	baseWriter
	md goldmark.Markdown
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer) *HTMLWriter {
	return &HTMLWriter{
		baseWriter: newBaseWriter(output),
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

func (w *HTMLWriter) Write(run *Run) (int, error) {
	var src bytes.Buffer
	if _, err := NewMarkdownWriter(&src).Write(run); err != nil {
		return 0, fmt.Errorf("building markdown: %w", err)
	}

	var body bytes.Buffer
	if err := w.md.Convert(src.Bytes(), &body); err != nil {
		return 0, fmt.Errorf("rendering markdown: %w", err)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
%s
</style>
</head>
<body data-run-id="%s" data-status="%s">
`, html.EscapeString("Search walkthrough: "+run.Site), pageStyle, html.EscapeString(run.ID), runStatus(run))
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")

	return w.output.Write(page.Bytes())
}

func runStatus(run *Run) Status {
	switch {
	case run.Finished.IsZero():
		return StatusRunning
	case run.Passed():
		return StatusPassed
	default:
		return StatusFailed
	}
}
