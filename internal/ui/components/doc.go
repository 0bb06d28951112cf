// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the panels that make up the valetdash dashboard.

Components are plain render helpers over a *styles.Theme. They read values
handed to them by the dashboard model and never touch the store.

# Panels

Header (header.go) - Title, connection pill and active model.
ErrorBanner (errorbanner.go) - Dismissable banner for the last surfaced error.
StatusPanel (status.go) - Robot state label, battery bar and robot error box.
Controls (controls.go) - Function-key robot commands.
ModelSwitcher (switcher.go) - Selectable model list with Online/Local pills.
Transcript (message.go) - Chat bubbles; assistant replies rendered as markdown.
StatusBar (statusbar.go) - Keyboard shortcuts and poll state.

# Rendering Helpers

Spinner (spinner.go) - Animated spinner built on bubbles/spinner.
MarkdownRenderer (markdown.go) - Glamour renderer cached per width.
HighlightJSON (codeblock.go) - Chroma highlighting for robot descriptors.

# Example

	theme := styles.NewTheme("auto")
	header := components.NewHeader(theme)
	header.SetWidth(80)
	header.SetModel("local")
	header.SetConnected(true)
	view := header.View()
*/
package components
