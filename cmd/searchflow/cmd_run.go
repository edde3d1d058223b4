package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomyan/searchflow/internal/config"
	"github.com/tomyan/searchflow/internal/logging"
	"github.com/tomyan/searchflow/internal/report"
	"github.com/tomyan/searchflow/internal/workflow"
)

// runFlags stores values parsed from CLI flags. Only flags the user set
// are applied on top of the file and environment configuration.
type runFlags struct {
	configPath string
	baseURL    string
	host       string
	port       int
	chromePath string
	headless   bool
	detach     bool
	connect    bool
	html       string
	json       string
	strict     bool
	timeout    time.Duration
	verbose    bool
	logFormat  string
}

func newRunCmd(s Streams) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the search walkthrough",
		Long: `Run the search walkthrough in Chrome.

Configuration precedence: built-in defaults < config file
(--config, ./.searchflow.yaml or $XDG_CONFIG_HOME/searchflow/config.yaml)
< .env and SEARCHFLOW_* environment variables < flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg, f)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			format, err := logging.ParseFormat(f.logFormat)
			if err != nil {
				return err
			}

			logger := logging.New(s.Stderr, logging.Options{
				Verbose: cfg.Verbose,
				Format:  format,
			})
			return runWalkthrough(cmd.Context(), cfg, logger, s)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "config file (YAML)")
	fl.StringVar(&f.baseURL, "base-url", config.DefaultBaseURL, "home page of the site under test (env: SEARCHFLOW_BASE_URL)")
	fl.StringVar(&f.host, "host", "localhost", "Chrome debug host when connecting (env: SEARCHFLOW_HOST)")
	fl.IntVar(&f.port, "port", 0, "Chrome debug port; 0 picks a free port when launching (env: SEARCHFLOW_PORT)")
	fl.StringVar(&f.chromePath, "chrome", "", "path to the Chrome binary (env: SEARCHFLOW_CHROME)")
	fl.BoolVar(&f.headless, "headless", false, "launch Chrome headless (env: SEARCHFLOW_HEADLESS)")
	fl.BoolVar(&f.detach, "detach", false, "leave the browser and tab open after the run")
	fl.BoolVar(&f.connect, "connect", false, "attach to a running Chrome instead of launching one")
	fl.StringVar(&f.html, "html", "", "write an HTML report to this file (env: SEARCHFLOW_REPORT)")
	fl.StringVar(&f.json, "json", "", "write a JSON report to this file")
	fl.BoolVar(&f.strict, "strict-pagination", false, "require the pager to show the page that was clicked")
	fl.DurationVar(&f.timeout, "timeout", 0, "overall run timeout, must be positive (default from config, 5m)")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log at debug level")
	fl.StringVar(&f.logFormat, "log-format", string(logging.FormatText), "log format: text or json")

	return cmd
}

// applyFlags overlays explicitly set flags onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f runFlags) {
	set := cmd.Flags().Changed

	if set("base-url") {
		cfg.BaseURL = f.baseURL
	}
	if set("host") {
		cfg.Browser.Host = f.host
	}
	if set("port") {
		cfg.Browser.Port = f.port
	}
	if set("chrome") {
		cfg.Browser.ChromePath = f.chromePath
	}
	if set("headless") {
		cfg.Browser.Headless = f.headless
	}
	if set("detach") {
		cfg.Browser.Detach = f.detach
	}
	if set("connect") {
		cfg.Browser.Connect = f.connect
	}
	if set("html") {
		cfg.Report.HTML = f.html
	}
	if set("json") {
		cfg.Report.JSON = f.json
	}
	if set("strict-pagination") {
		cfg.StrictPagination = f.strict
	}
	if set("timeout") {
		cfg.Timeouts.Run = f.timeout
	}
	if set("verbose") {
		cfg.Verbose = f.verbose
	}
}

func runWalkthrough(ctx context.Context, cfg config.Config, logger *slog.Logger, s Streams) error {
	sess, err := openSession(ctx, cfg.Browser, logger)
	if err != nil {
		return &connError{err: err}
	}
	defer sess.Close()

	if ua := cfg.Browser.UserAgent; ua != "" {
		if err := sess.page.SetUserAgent(ctx, ua); err != nil {
			return fmt.Errorf("setting user agent: %w", err)
		}
	}

	console := captureConsole(ctx, sess.page, logger)

	rec := report.NewRun(cfg.BaseURL)
	runErr := workflow.Run(ctx, sess.page, cfg, rec, logger)
	rec.Console = console.Stop()

	reportErr := writeReports(cfg.Report, rec, logger)
	printSummary(s.Stdout, rec, isTerminal(s.Stdout))

	return errors.Join(runErr, reportErr)
}

func writeReports(r config.Report, rec *report.Run, logger *slog.Logger) error {
	var paths []string
	for _, path := range []string{r.HTML, r.JSON} {
		if path != "" {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return nil
	}
	if err := report.WriteFiles(rec, paths...); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	for _, path := range paths {
		logger.Info("report written", "path", path)
	}
	return nil
}
