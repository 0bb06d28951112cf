// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the valetdash command line.
//
// Running valetdash without a command opens the dashboard. The other
// commands talk to the automation API once and exit, which makes them
// usable from scripts:
//
//	valetdash status --json
//	valetdash start
//	valetdash ask "Clean the living room"
//	valetdash models switch openai
//
// # Structure
//
//   - Parse turns argv into a Command and Args; global flags may appear anywhere
//   - App holds the loaded config, the API client and the output writers
//   - Main runs a command and maps its error to an exit code
//
// Handlers return errors and never print them. In --json mode every command,
// successful or not, writes a single JSONResponse envelope to stdout.
package cli
