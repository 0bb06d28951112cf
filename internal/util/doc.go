// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds helpers shared by the CLI, the dashboard and config.
//
// Layout helpers measure display columns with go-runewidth, so panels stay
// aligned when model names or replies contain wide runes:
//
//	cell := util.PadRight(model, 12)
//	title := util.TruncateWidth(util.FirstLine(reply), 40)
//
// AtomicWriteFile replaces the config file and the chat line history
// through a synced temp file and a rename:
//
//	err := util.AtomicWriteFile(path, data, 0600)
package util
