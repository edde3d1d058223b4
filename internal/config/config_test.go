package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Jungle", cfg.FirstSearch.Query)
	assert.Equal(t, "motivation", cfg.SecondSearch.Expect)
	assert.Equal(t, PageRange{From: 2, To: 5}, cfg.Pages)
	assert.Equal(t, 8*time.Second, cfg.Timeouts.PageLink)
	assert.Equal(t, 15*time.Second, cfg.Timeouts.PageLoad)
	assert.False(t, cfg.StrictPagination)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"relative url", func(c *Config) { c.BaseURL = "/search" }, ErrNoBaseURL},
		{"ftp url", func(c *Config) { c.BaseURL = "ftp://example.com" }, ErrNoBaseURL},
		{"no first query", func(c *Config) { c.FirstSearch.Query = "" }, ErrNoQuery},
		{"page from 1", func(c *Config) { c.Pages.From = 1 }, ErrInvalidPageRange},
		{"reversed range", func(c *Config) { c.Pages = PageRange{From: 5, To: 3} }, ErrInvalidPageRange},
		{"zero timeout", func(c *Config) { c.Timeouts.PageLink = 0 }, ErrInvalidTimeout},
		{"bad port", func(c *Config) { c.Browser.Port = 70000 }, ErrInvalidPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestLoadFile_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := `
base_url: http://127.0.0.1:8080/
brand: Fixture
pages:
  to: 3
page_delay: 250ms
timeouts:
  page_link: 2s
selectors:
  logo: home-logo
browser:
  headless: true
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))

	cfg := Default()
	require.NoError(t, LoadFile(&cfg, path))

	assert.Equal(t, "http://127.0.0.1:8080/", cfg.BaseURL)
	assert.Equal(t, "Fixture", cfg.Brand)
	assert.Equal(t, 2, cfg.Pages.From, "unset field keeps default")
	assert.Equal(t, 3, cfg.Pages.To)
	assert.Equal(t, 250*time.Millisecond, cfg.PageDelay)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.PageLink)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Default)
	assert.Equal(t, "home-logo", cfg.Selectors.Logo)
	assert.Equal(t, "yschsp", cfg.Selectors.ResultsSearchInput)
	assert.True(t, cfg.Browser.Headless)
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pages: [1, 2"), 0o644))

	cfg := Default()
	err := LoadFile(&cfg, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestFindFile_ExplicitMissing(t *testing.T) {
	_, err := FindFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFindFile_Explicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("brand: X\n"), 0o644))

	got, err := FindFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvBaseURL:  "http://localhost:9000/",
		EnvHost:     "chrome.internal",
		EnvPort:     "9333",
		EnvChrome:   "/opt/chrome/chrome",
		EnvHeadless: "true",
		EnvReport:   "out/report.html",
	}
	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, func(k string) string { return env[k] }))

	assert.Equal(t, "http://localhost:9000/", cfg.BaseURL)
	assert.Equal(t, "chrome.internal", cfg.Browser.Host)
	assert.Equal(t, 9333, cfg.Browser.Port)
	assert.Equal(t, "/opt/chrome/chrome", cfg.Browser.ChromePath)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "out/report.html", cfg.Report.HTML)
}

func TestApplyEnv_BadValues(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, func(k string) string {
		if k == EnvPort {
			return "ninety"
		}
		return ""
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvPort)

	err = ApplyEnv(&cfg, func(k string) string {
		if k == EnvHeadless {
			return "maybe"
		}
		return ""
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvHeadless)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SEARCHFLOW_TEST_DOTENV=from-file\n"), 0o644))
	t.Setenv("SEARCHFLOW_TEST_DOTENV", "")
	os.Unsetenv("SEARCHFLOW_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("SEARCHFLOW_TEST_DOTENV"))
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SEARCHFLOW_TEST_KEEP=file\n"), 0o644))
	t.Setenv("SEARCHFLOW_TEST_KEEP", "process")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "process", os.Getenv("SEARCHFLOW_TEST_KEEP"))
}
