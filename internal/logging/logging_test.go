package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, Options{})
	logger.Debug("hidden")
	logger.Info("shown", "step", "home")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "step=home")

	buf.Reset()
	New(&buf, Options{Verbose: true}).Debug("polling", "what", "body")
	assert.Contains(t, buf.String(), "level=DEBUG")
}

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&buf, Options{Format: FormatJSON}).Warn("end of pagination", "page", 4)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "end of pagination", rec["msg"])
	assert.Equal(t, float64(4), rec["page"])
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	logger := Discard()
	logger.Error("nothing")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"text", FormatText},
		{"JSON", FormatJSON},
		{" json ", FormatJSON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("logfmt")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Contains(t, err.Error(), `"logfmt"`)
}
