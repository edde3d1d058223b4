package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvBaseURL  = "SEARCHFLOW_BASE_URL"
	EnvHost     = "SEARCHFLOW_HOST"
	EnvPort     = "SEARCHFLOW_PORT"
	EnvChrome   = "SEARCHFLOW_CHROME"
	EnvHeadless = "SEARCHFLOW_HEADLESS"
	EnvReport   = "SEARCHFLOW_REPORT"
)

// LocalFile is the per-directory config file name.
const LocalFile = ".searchflow.yaml"

// FindFile returns the config file to use. An explicit path always wins
// and must exist. Otherwise ./.searchflow.yaml is tried, then
// searchflow/config.yaml under the XDG config directories. An empty
// result means no file was found.
func FindFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}

	if _, err := os.Stat(LocalFile); err == nil {
		return LocalFile, nil
	}

	path, err := xdg.SearchConfigFile(filepath.Join(AppName, "config.yaml"))
	if err != nil {
		return "", nil
	}
	return path, nil
}

// LoadFile overlays the YAML file at path onto cfg. Fields absent from the
// file keep their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads variables from the named .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays SEARCHFLOW_* variables read through getenv onto cfg.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := getenv(EnvHost); v != "" {
		cfg.Browser.Host = v
	}
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		cfg.Browser.Port = port
	}
	if v := getenv(EnvChrome); v != "" {
		cfg.Browser.ChromePath = v
	}
	if v := getenv(EnvHeadless); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHeadless, err)
		}
		cfg.Browser.Headless = b
	}
	if v := getenv(EnvReport); v != "" {
		cfg.Report.HTML = v
	}
	return nil
}

// Load builds a configuration from defaults, the config file (see
// FindFile), .env and the process environment. The result is not
// validated; callers apply their own overrides first and then call
// Validate.
func Load(explicitPath string) (Config, error) {
	cfg := Default()

	path, err := FindFile(explicitPath)
	if err != nil {
		return cfg, err
	}
	if path != "" {
		if err := LoadFile(&cfg, path); err != nil {
			return cfg, err
		}
	}

	if err := LoadDotEnv(); err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return cfg, err
	}

	return cfg, nil
}
