// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for valetdash.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.valetdash/config.toml
//   - ~/.valetdash/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/valetdash/internal/util"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete valetdash configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Automation API connection
	API APIConfig `toml:"api" json:"api"`

	// Status polling
	Poll PollConfig `toml:"poll" json:"poll"`

	// Robot command throttling
	Commands CommandsConfig `toml:"commands" json:"commands"`

	// Chat behaviour
	Chat ChatConfig `toml:"chat" json:"chat"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Logging
	Log LogConfig `toml:"log" json:"log"`
}

// APIConfig contains automation API connection settings.
type APIConfig struct {
	// URL is the API root including the version prefix
	URL string `toml:"url" json:"url"`
	// TimeoutSecs bounds every request
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// PollConfig contains status polling settings.
type PollConfig struct {
	// IntervalMs is the status poll period in milliseconds
	IntervalMs int `toml:"interval_ms" json:"interval_ms"`
}

// CommandsConfig limits how fast robot commands can be sent.
type CommandsConfig struct {
	// MinIntervalMs is the spacing between commands once the burst is spent (0 disables)
	MinIntervalMs int `toml:"min_interval_ms" json:"min_interval_ms"`
	// Burst is how many commands may be sent back to back
	Burst int `toml:"burst" json:"burst"`
}

// ChatConfig contains chat settings.
type ChatConfig struct {
	// IncludeContext attaches the robot state to every prompt
	IncludeContext bool `toml:"include_context" json:"include_context"`
	// HistoryFile persists the REPL line history. Empty keeps it in memory.
	HistoryFile string `toml:"history_file" json:"history_file,omitempty"`
}

// UIConfig contains dashboard settings.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// WordWrap is the markdown wrap width for assistant replies
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
	// ShowExamples lists example prompts when the transcript is empty
	ShowExamples bool `toml:"show_examples" json:"show_examples"`
	// CompactMode hides the controls panel
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// File receives dashboard logs (default: ~/.valetdash/valetdash.log)
	File string `toml:"file" json:"file,omitempty"`
	// Verbose enables debug logging on stderr for CLI commands
	Verbose bool `toml:"verbose" json:"verbose"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		API: APIConfig{
			URL:         "http://127.0.0.1:8000/api/v1",
			TimeoutSecs: 30,
		},
		Poll: PollConfig{
			IntervalMs: 5000,
		},
		Commands: CommandsConfig{
			MinIntervalMs: 1000,
			Burst:         3,
		},
		Chat: ChatConfig{
			IncludeContext: true,
		},
		UI: UIConfig{
			Theme:        "auto",
			WordWrap:     80,
			ShowExamples: true,
		},
	}
}

// Timeout returns the API timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// PollInterval returns the poll period as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMs) * time.Millisecond
}

// CommandInterval returns the command spacing. Negative means unlimited.
func (c *Config) CommandInterval() time.Duration {
	if c.Commands.MinIntervalMs == 0 {
		return -1
	}
	return time.Duration(c.Commands.MinIntervalMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the valetdash configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".valetdash"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return configFile("config.toml")
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	return configFile("config.json")
}

// DefaultLogPath returns the dashboard log file path.
func DefaultLogPath() (string, error) {
	return configFile("valetdash.log")
}

func configFile(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
//
// A file that fails to parse is skipped and its error returned alongside
// the config that was built without it.
func Load() (*Config, error) {
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil && fileExists(tomlPath) {
		cfg := Default()
		if err := LoadTOML(cfg, tomlPath); err != nil {
			loadErr = fmt.Errorf("failed to load TOML config: %w", err)
		} else {
			return finish(cfg)
		}
	}

	if jsonPath, err := ConfigPathJSON(); err == nil && fileExists(jsonPath) {
		cfg := Default()
		if err := LoadJSON(cfg, jsonPath); err != nil {
			loadErr = errors.Join(loadErr, fmt.Errorf("failed to load JSON config: %w", err))
		} else {
			return finish(cfg)
		}
	}

	cfg, err := finish(Default())
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON loads configuration from a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

// finish runs the shared post-load pipeline.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Migrate(); err != nil {
		return nil, fmt.Errorf("config migration failed: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# valetdash configuration file\n")
	buf.WriteString("# Generated by valetdash - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// API
	if u, err := url.Parse(c.API.URL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "api.url",
			Message: fmt.Sprintf("invalid URL: %v", err),
		})
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api.url",
			Message: fmt.Sprintf("'%s' must be an absolute http(s) URL", c.API.URL),
		})
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout_secs",
			Message: fmt.Sprintf("%d out of range, must be between 1 and 600", c.API.TimeoutSecs),
		})
	}

	// Poll
	if c.Poll.IntervalMs < 500 || c.Poll.IntervalMs > 3600000 {
		errs = append(errs, ValidationError{
			Field:   "poll.interval_ms",
			Message: fmt.Sprintf("%d out of range, must be between 500 and 3600000", c.Poll.IntervalMs),
		})
	}

	// Commands
	if c.Commands.MinIntervalMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "commands.min_interval_ms",
			Message: "cannot be negative",
		})
	}
	if c.Commands.Burst < 1 {
		errs = append(errs, ValidationError{
			Field:   "commands.burst",
			Message: "must be at least 1",
		})
	}

	// UI
	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	if c.UI.WordWrap < 20 || c.UI.WordWrap > 400 {
		errs = append(errs, ValidationError{
			Field:   "ui.word_wrap",
			Message: fmt.Sprintf("%d out of range, must be between 20 and 400", c.UI.WordWrap),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values with defaults. Booleans are left alone.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.API.URL == "" {
		c.API.URL = defaults.API.URL
	}
	c.API.URL = strings.TrimRight(c.API.URL, "/")
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if c.Poll.IntervalMs == 0 {
		c.Poll.IntervalMs = defaults.Poll.IntervalMs
	}
	if c.Commands.Burst == 0 {
		c.Commands.Burst = defaults.Commands.Burst
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	c.UI.Theme = strings.ToLower(c.UI.Theme)
	if c.UI.WordWrap == 0 {
		c.UI.WordWrap = defaults.UI.WordWrap
	}
}

// Migrate upgrades older config layouts in place.
func (c *Config) Migrate() error {
	switch c.Version {
	case "", "0":
		// Version 0 stored the server root without the API prefix.
		if c.API.URL != "" && !strings.Contains(c.API.URL, "/api/") {
			c.API.URL = strings.TrimRight(c.API.URL, "/") + "/api/v1"
		}
		c.Version = CurrentVersion
	case CurrentVersion:
	default:
		return fmt.Errorf("unsupported config version %q", c.Version)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - VALETDASH_API_URL: overrides api.url
//   - VALETDASH_TIMEOUT: overrides api.timeout_secs (seconds or a duration like "45s")
//   - VALETDASH_POLL_INTERVAL: overrides poll.interval_ms (milliseconds or a duration like "2s")
//   - VALETDASH_LOG_FILE: overrides log.file
//   - VALETDASH_THEME: overrides ui.theme
//
// Unparseable numeric values are ignored.
func (c *Config) ApplyEnvOverrides() {
	if apiURL := os.Getenv("VALETDASH_API_URL"); apiURL != "" {
		c.API.URL = apiURL
	}

	if timeout := os.Getenv("VALETDASH_TIMEOUT"); timeout != "" {
		if d, ok := parseDuration(timeout, time.Second); ok {
			c.API.TimeoutSecs = int(d / time.Second)
		}
	}

	if interval := os.Getenv("VALETDASH_POLL_INTERVAL"); interval != "" {
		if d, ok := parseDuration(interval, time.Millisecond); ok {
			c.Poll.IntervalMs = int(d / time.Millisecond)
		}
	}

	if logFile := os.Getenv("VALETDASH_LOG_FILE"); logFile != "" {
		c.Log.File = logFile
	}

	if theme := os.Getenv("VALETDASH_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// parseDuration accepts a bare integer in unit or a Go duration string.
func parseDuration(s string, unit time.Duration) (time.Duration, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * unit, true
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	return 0, false
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "api.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "poll.interval_ms").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup walks key through nested structs.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("'%s' is a section, not a value", key)
			}
			return field, nil
		}

		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}

	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	// int -> string is a legal Go conversion but never what the caller meant
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String && field.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"api.url",
		"api.timeout_secs",
		"poll.interval_ms",
		"commands.min_interval_ms",
		"commands.burst",
		"chat.include_context",
		"chat.history_file",
		"ui.theme",
		"ui.word_wrap",
		"ui.show_examples",
		"ui.compact_mode",
		"log.file",
		"log.verbose",
	}
}

// String returns the config as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
