// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Launches the Bubble Tea dashboard.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/valetdash/internal/config"
	"github.com/jeranaias/valetdash/internal/poll"
	"github.com/jeranaias/valetdash/internal/store"
	"github.com/jeranaias/valetdash/internal/ui/dashboard"
)

// RunTUI runs the dashboard until the user quits. The status poll and the
// config watcher are both stopped before it returns.
func (a *App) RunTUI(ctx context.Context) error {
	if err := RequiresTTY("open the dashboard (try 'valetdash status')"); err != nil {
		return err
	}

	logger, closeLog := a.openDashboardLog()
	defer closeLog()

	// Requests made from the dashboard log to the file, never the screen.
	a.Logger = logger
	a.Client = a.newClient()

	st := store.New()
	ctrl := a.newController(st)
	model := dashboard.New(ctx, ctrl, a.Client, dashboard.Options{
		Theme:        a.Config.UI.Theme,
		ShowExamples: a.Config.UI.ShowExamples,
		CompactMode:  a.Config.UI.CompactMode,
		WordWrap:     a.Config.UI.WordWrap,
		Poll: poll.Options{
			Interval: a.Config.PollInterval(),
			Logger:   logger,
		},
		Logger: logger,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())

	if watcher := a.watchConfig(p, logger); watcher != nil {
		defer watcher.Close()
	}

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	logger.Printf("TUI_START | api=%s poll_interval=%s", a.Client.BaseURL(), a.Config.PollInterval())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	logger.Printf("TUI_EXIT")
	return nil
}

// openDashboardLog opens the configured log file for appending. Logging is
// discarded when the file cannot be opened.
func (a *App) openDashboardLog() (*log.Logger, func()) {
	discard := log.New(io.Discard, "", 0)

	path := a.Config.Log.File
	if path == "" {
		p, err := config.DefaultLogPath()
		if err != nil {
			return discard, func() {}
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return discard, func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return discard, func() {}
	}
	return log.New(f, "", log.LstdFlags), func() { f.Close() }
}

// watchConfig forwards config file changes to the running dashboard.
func (a *App) watchConfig(p *tea.Program, logger *log.Logger) *config.Watcher {
	path := a.ConfigPath
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	watcher, err := config.Watch(path, config.DefaultWatchDebounce, func(cfg *config.Config, err error) {
		if err != nil {
			logger.Printf("CONFIG_RELOAD_FAILED | path=%s error=%v", path, err)
		} else {
			logger.Printf("CONFIG_RELOADED | path=%s theme=%s", path, cfg.UI.Theme)
		}
		p.Send(dashboard.ConfigReloadedMsg{Config: cfg, Err: err})
	})
	if err != nil {
		logger.Printf("CONFIG_WATCH_FAILED | path=%s error=%v", path, err)
		return nil
	}
	return watcher
}
