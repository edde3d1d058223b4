package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Writer outputs a run record in one format.
type Writer interface {
	// Write outputs the run and returns the number of bytes written.
	Write(run *Run) (int, error)
}

// MultiWriter writes the same run through several writers, stopping at
// the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

func (m *MultiWriter) Write(run *Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ForPath returns the writer matching the extension of path: .html/.htm,
// .md/.markdown or .json.
func ForPath(path string, output io.Writer) (Writer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return NewHTMLWriter(output), nil
	case ".md", ".markdown":
		return NewMarkdownWriter(output), nil
	case ".json":
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", filepath.Ext(path))
	}
}

// WriteFile writes run to path in the format chosen by its extension,
// creating parent directories as needed.
func WriteFile(path string, run *Run) error {
	return WriteFiles(run, path)
}

// WriteFiles writes run to every path, each in the format chosen by its
// extension. All reports are rendered before any file is written, so an
// unsupported extension or a rendering error leaves no files behind.
func WriteFiles(run *Run, paths ...string) error {
	bufs := make([]*bytes.Buffer, len(paths))
	writers := make([]Writer, len(paths))
	for i, path := range paths {
		bufs[i] = new(bytes.Buffer)
		w, err := ForPath(path, bufs[i])
		if err != nil {
			return err
		}
		writers[i] = w
	}
	if _, err := NewMultiWriter(writers...).Write(run); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	for i, path := range paths {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating report directory: %w", err)
			}
		}
		if err := os.WriteFile(path, bufs[i].Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing report %s: %w", path, err)
		}
	}
	return nil
}

// baseWriter holds the output shared by the format writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
