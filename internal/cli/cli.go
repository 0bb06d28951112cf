// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command line parsing for valetdash.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/valetdash/internal/api"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdStatus
	CmdInfo
	CmdCapabilities
	CmdRobot
	CmdAsk
	CmdChat
	CmdModels
	CmdHistory
	CmdHealth
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

// String returns the command name used in JSON output.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdStatus:
		return "status"
	case CmdInfo:
		return "info"
	case CmdCapabilities:
		return "capabilities"
	case CmdRobot:
		return "robot"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdModels:
		return "models"
	case CmdHistory:
		return "history"
	case CmdHealth:
		return "health"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed command-line arguments.
type Args struct {
	// Global flags
	JSON       bool
	Quiet      bool
	Verbose    bool
	APIURL     string
	ConfigPath string

	// Subcommand is the first word after the command (models switch, config get)
	Subcommand string

	// Query is the chat message for "ask"
	Query string

	// RobotCommand is set for start/stop/pause/home/locate
	RobotCommand api.RobotCommand

	// Name is the command word as typed, used for unknown commands
	Name string

	// Raw holds the remaining positional arguments
	Raw []string
}

// =============================================================================
// PARSING
// =============================================================================

// Parse turns argv (without the program name) into a command.
// Global flags may appear anywhere.
func Parse(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	name := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Name = name
	parsedArgs.Raw = remaining

	if cmd, ok := api.ParseCommand(name); ok {
		parsedArgs.RobotCommand = cmd
		return CmdRobot, parsedArgs
	}

	switch name {
	case "tui", "dashboard":
		return CmdTUI, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "info":
		return CmdInfo, parsedArgs

	case "capabilities", "caps":
		return CmdCapabilities, parsedArgs

	case "ask":
		parsedArgs.Query = strings.TrimSpace(strings.Join(remaining, " "))
		return CmdAsk, parsedArgs

	case "chat":
		return CmdChat, parsedArgs

	case "models", "model":
		parseSubcommand(&parsedArgs)
		return CmdModels, parsedArgs

	case "history":
		parseSubcommand(&parsedArgs)
		return CmdHistory, parsedArgs

	case "health":
		return CmdHealth, parsedArgs

	case "config":
		parseSubcommand(&parsedArgs)
		return CmdConfig, parsedArgs

	case "version", "--version", "-V":
		return CmdVersion, parsedArgs

	case "help", "--help", "-h":
		return CmdHelp, parsedArgs
	}

	return CmdUnknown, parsedArgs
}

// parseSubcommand moves the first positional argument into Subcommand.
func parseSubcommand(args *Args) {
	if len(args.Raw) == 0 {
		return
	}
	args.Subcommand = strings.ToLower(args.Raw[0])
	args.Raw = args.Raw[1:]
}

// parseGlobalFlags extracts global flags from args and returns the rest.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--api":
			if i+1 < len(args) {
				i++
				parsedArgs.APIURL = args[i]
			}
		case "--config":
			if i+1 < len(args) {
				i++
				parsedArgs.ConfigPath = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--api="):
				parsedArgs.APIURL = strings.TrimPrefix(arg, "--api=")
			case strings.HasPrefix(arg, "--config="):
				parsedArgs.ConfigPath = strings.TrimPrefix(arg, "--config=")
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `valetdash - dashboard for a Valetudo robot vacuum

Usage:
  valetdash [flags] [command]

Commands:
  tui                      Open the dashboard (default)
  status                   Show robot state and battery
  info                     Show robot information
  capabilities             Show robot capabilities
  start|stop|pause         Control cleaning
  home|locate              Return to dock or play the locate sound
  ask "message"            Send one chat message and print the reply
  chat                     Interactive chat with history
  models [switch NAME]     List AI models or switch the active one
  history [clear|export [json]]
                           Show, clear or export the server-side chat history
  health                   Check the automation API
  config [show|get|set|path|init]
                           Inspect or change the configuration
  version                  Show version information
  help                     Show this help

Flags:
  --api URL                Automation API root (default: config api.url)
  --config PATH            Use a specific config file
  --json                   Machine-readable output
  -q, --quiet              Only print results
  -v, --verbose            Log requests to stderr

Examples:
  valetdash status
  valetdash ask "What's the battery level?"
  valetdash models switch openai
  valetdash config set poll.interval_ms 2000
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}
