// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - The "config" command.
package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/valetdash/internal/config"
)

// ConfigCmd dispatches config subcommands.
func (a *App) ConfigCmd() error {
	switch a.Args.Subcommand {
	case "", "show":
		return a.configShow()
	case "get":
		if len(a.Args.Raw) == 0 {
			return ErrMissingArgument("key", "valetdash config get api.url")
		}
		return a.configGet(a.Args.Raw[0])
	case "set":
		if len(a.Args.Raw) < 2 {
			return ErrMissingArgument("key and value", "valetdash config set ui.theme dark")
		}
		return a.configSet(a.Args.Raw[0], strings.Join(a.Args.Raw[1:], " "))
	case "path":
		return a.emit("config", ConfigData{Key: "path", Value: a.ConfigPath, Path: a.ConfigPath}, func() {
			fmt.Fprintln(a.Out, a.ConfigPath)
		})
	case "init":
		return a.configInit()
	case "keys":
		keys := config.GetAllKeys()
		return a.emit("config", keys, func() {
			fmt.Fprintln(a.Out, strings.Join(keys, "\n"))
		})
	}
	return &ValidationError{
		Field:   "subcommand",
		Value:   a.Args.Subcommand,
		Reason:  "expected show, get, set, path, init or keys",
		Example: "valetdash config get poll.interval_ms",
	}
}

// configShow prints the effective configuration, env overrides included.
func (a *App) configShow() error {
	return a.emit("config", a.Config, func() {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(a.Config); err != nil {
			fmt.Fprintln(a.Out, a.Config.String())
			return
		}
		if !a.Args.Quiet {
			fmt.Fprintln(a.Out, DimStyle.Render("# "+a.ConfigPath))
		}
		fmt.Fprint(a.Out, buf.String())
	})
}

func (a *App) configGet(key string) error {
	value, err := a.Config.Get(key)
	if err != nil {
		return NewValidationError("key", key, err.Error())
	}
	return a.emit("config", ConfigData{Key: key, Value: value}, func() {
		fmt.Fprintln(a.Out, value)
	})
}

// configSet edits the file on disk. The file is read without environment
// overrides so they are never persisted.
func (a *App) configSet(key, value string) error {
	path := a.ConfigPath
	if path == "" {
		return NewCommandError("config", "set", "no config path", nil)
	}

	cfg, err := readConfigFile(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return NewValidationError("key", key, err.Error())
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := writeConfigFile(cfg, path); err != nil {
		return NewCommandError("config", "set", "could not save "+path, err)
	}

	saved, _ := cfg.Get(key)
	return a.emit("config", ConfigData{Key: key, Value: saved, Path: path}, func() {
		fmt.Fprintf(a.Out, "%s %s = %v\n", SuccessStyle.Render("[OK]"), key, saved)
	})
}

// configInit writes a default config file if none exists.
func (a *App) configInit() error {
	path := a.ConfigPath
	if path == "" {
		return NewCommandError("config", "init", "no config path", nil)
	}
	if _, err := os.Stat(path); err == nil {
		return NewCommandError("config", "init", path+" already exists", nil)
	}
	if err := writeConfigFile(config.Default(), path); err != nil {
		return NewCommandError("config", "init", "could not write "+path, err)
	}
	return a.emit("config", ConfigData{Key: "path", Value: path, Path: path}, func() {
		fmt.Fprintln(a.Out, SuccessStyle.Render("[OK]")+" Wrote "+path)
	})
}

func readConfigFile(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	if strings.HasSuffix(path, ".json") {
		return cfg, config.LoadJSON(cfg, path)
	}
	return cfg, config.LoadTOML(cfg, path)
}

func writeConfigFile(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}
