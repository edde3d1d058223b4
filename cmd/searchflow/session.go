package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tomyan/searchflow/internal/chrome"
	"github.com/tomyan/searchflow/internal/chrome/launcher"
	"github.com/tomyan/searchflow/internal/config"
)

// session is the browser a run drives: an optional launched instance,
// the protocol connection and the tab opened for the run.
type session struct {
	inst   *launcher.Instance // nil when attached to a running browser
	client *chrome.Client
	page   *chrome.Page
	detach bool
	logger *slog.Logger
}

func openSession(ctx context.Context, b config.Browser, logger *slog.Logger) (*session, error) {
	s := &session{detach: b.Detach, logger: logger}

	host, port := b.Host, b.Port
	if b.Connect {
		if port == 0 {
			port = config.DefaultPort
		}
		info, err := launcher.DetectRunning(host, port)
		if err != nil {
			return nil, err
		}
		logger.Info("attaching to browser", "browser", info.Browser, "host", host, "port", port)
	} else {
		if port != 0 && launcher.IsPortOpen("localhost", port) {
			return nil, fmt.Errorf("port %d is already in use; use --connect to attach to it or --port 0 for a free port", port)
		}
		inst, err := launcher.Launch(ctx, launcher.LaunchOptions{
			ChromePath: b.ChromePath,
			Port:       port,
			Headless:   b.Headless,
			Detach:     b.Detach,
			DataDir:    b.DataDir,
			WindowSize: b.WindowSize,
		})
		if err != nil {
			return nil, fmt.Errorf("launching Chrome: %w", err)
		}
		s.inst = inst
		host, port = "localhost", inst.Port
		logger.Info("browser launched", "pid", inst.PID, "port", inst.Port, "headless", b.Headless)
	}

	client, err := chrome.Connect(ctx, host, port)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.client = client

	page, err := client.OpenPage(ctx)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening tab: %w", err)
	}
	s.page = page
	logger.Debug("tab opened", "target", page.TargetID())

	return s, nil
}

// Close releases the session. A detached session leaves the tab and the
// browser open.
func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.page != nil && !s.detach {
		if err := s.page.Close(ctx); err != nil {
			s.logger.Debug("closing tab", "error", err)
		}
	}
	if s.client != nil {
		s.client.Close()
	}
	if s.inst != nil {
		if err := s.inst.Close(); err != nil {
			s.logger.Debug("closing browser", "error", err)
		}
		if s.detach {
			s.logger.Info("browser left running", "port", s.inst.Port, "data_dir", s.inst.DataDir)
		}
	}
}
