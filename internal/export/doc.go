// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders a chat transcript as Markdown or JSON.
//
// Exports are written to an io.Writer; valetdash itself only ever writes
// them to stdout.
//
//	exp, err := export.ForFormat("markdown", nil)
//	err = export.Write(os.Stdout, transcript, exp)
package export
