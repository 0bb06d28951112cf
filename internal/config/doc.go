// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for valetdash.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation and hot reload.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Automation API URL and request timeout
//   - PollConfig: Status poll interval
//   - CommandsConfig: Robot command rate limit
//   - Watcher: fsnotify-based reload of the config file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (VALETDASH_*)
//   - ~/.valetdash/config.toml
//   - ~/.valetdash/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	client := api.NewClientWithConfig(&api.ClientConfig{
//	    BaseURL: cfg.API.URL,
//	    Timeout: cfg.Timeout(),
//	})
package config
