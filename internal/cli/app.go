// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Command dispatch and shared wiring.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/config"
	"github.com/jeranaias/valetdash/internal/control"
	"github.com/jeranaias/valetdash/internal/store"
)

// App carries everything a command handler needs.
type App struct {
	Args   Args
	Config *config.Config
	Client *api.Client

	// ConfigPath is the file the config was loaded from, or would be saved to
	ConfigPath string

	Out io.Writer
	Err io.Writer

	// Logger receives request events; stderr with -v, discarded otherwise
	Logger *log.Logger

	// Color enables highlighting and markdown rendering
	Color bool
}

// NewApp loads the configuration and builds the API client.
// A config file that fails to load is reported on stderr and defaults are
// used; an explicit --config that fails is an error.
func NewApp(args Args, out, errOut io.Writer) (*App, error) {
	cfg, path, err := loadConfig(args)
	if err != nil {
		return nil, err
	}
	if args.APIURL != "" {
		cfg.API.URL = args.APIURL
	}

	logger := log.New(io.Discard, "", 0)
	if args.Verbose || cfg.Log.Verbose {
		logger = log.New(errOut, "valetdash ", log.LstdFlags)
	}

	app := &App{
		Args:       args,
		Config:     cfg,
		ConfigPath: path,
		Out:        out,
		Err:        errOut,
		Logger:     logger,
	}
	app.Client = app.newClient()
	return app, nil
}

func loadConfig(args Args) (*config.Config, string, error) {
	if args.ConfigPath != "" {
		cfg, err := config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, "", err
		}
		return cfg, args.ConfigPath, nil
	}

	path, _ := config.ConfigPathTOML()
	cfg, err := config.Load()
	if err != nil {
		if cfg == nil {
			return nil, "", err
		}
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	return cfg, path, nil
}

func (a *App) newClient() *api.Client {
	return api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:     a.Config.API.URL,
		Timeout:     a.Config.Timeout(),
		UserAgent:   "valetdash/" + Version,
		OmitContext: !a.Config.Chat.IncludeContext,
		Logger:      a.Logger,
	})
}

// newController builds a controller over a fresh store.
func (a *App) newController(st *store.Store) *control.Controller {
	return control.New(a.Client, st, control.Options{
		CommandInterval: a.Config.CommandInterval(),
		CommandBurst:    a.Config.Commands.Burst,
		Logger:          a.Logger,
	})
}

// printf writes human output unless --json is set.
func (a *App) printf(format string, args ...interface{}) {
	if a.Args.JSON {
		return
	}
	fmt.Fprintf(a.Out, format, args...)
}

// emit writes data as a JSON envelope in JSON mode, otherwise calls human.
func (a *App) emit(command string, data interface{}, human func()) error {
	if a.Args.JSON {
		return NewJSONResponse(command, data).Write(a.Out)
	}
	human()
	return nil
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes cmd.
func (a *App) Run(ctx context.Context, cmd Command) error {
	switch cmd {
	case CmdTUI:
		return a.RunTUI(ctx)
	case CmdStatus:
		return a.Status(ctx)
	case CmdInfo:
		return a.Info(ctx)
	case CmdCapabilities:
		return a.Capabilities(ctx)
	case CmdRobot:
		return a.Robot(ctx, a.Args.RobotCommand)
	case CmdAsk:
		return a.Ask(ctx, a.Args.Query)
	case CmdChat:
		return a.Chat(ctx)
	case CmdModels:
		return a.Models(ctx)
	case CmdHistory:
		return a.History(ctx)
	case CmdHealth:
		return a.Health(ctx)
	case CmdConfig:
		return a.ConfigCmd()
	case CmdVersion:
		return a.Version()
	case CmdHelp:
		PrintUsage(a.Out)
		return nil
	}
	return &ValidationError{
		Field:   "command",
		Value:   a.Args.Name,
		Reason:  "unknown command",
		Example: "valetdash help",
	}
}

// Main parses nothing itself; it runs cmd with args and returns the exit code.
func Main(cmd Command, args Args) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd == CmdHelp {
		PrintUsage(os.Stdout)
		return ExitSuccess
	}

	app, err := NewApp(args, os.Stdout, os.Stderr)
	if err != nil {
		DisplayError(os.Stdout, os.Stderr, cmd.String(), err, args.JSON)
		return GetExitCode(err)
	}
	app.Color = ColorsEnabled()

	if err := app.Run(ctx, cmd); err != nil {
		DisplayError(app.Out, app.Err, cmd.String(), err, args.JSON)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// Version prints build information.
func (a *App) Version() error {
	data := VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	return a.emit("version", data, func() {
		fmt.Fprintf(a.Out, "valetdash %s\n", data.Version)
		if !a.Args.Quiet {
			fmt.Fprintf(a.Out, "  commit:   %s\n", data.GitCommit)
			fmt.Fprintf(a.Out, "  built:    %s\n", data.BuildDate)
			fmt.Fprintf(a.Out, "  go:       %s\n", data.GoVersion)
			fmt.Fprintf(a.Out, "  platform: %s\n", data.Platform)
		}
	})
}
