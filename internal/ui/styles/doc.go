// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the valetdash dashboard.

# Color System (colors.go)

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. Robot state maps onto the palette:

	BatteryColor(level) - Emerald >= 80, Amber >= 50, Orange >= 20, Rose below
	StateColor(state)   - Blue cleaning, Emerald docked, Rose error, grey otherwise

# Theme System (theme.go)

The Theme struct holds every panel style. NewTheme("auto") asks the terminal
for its background through termenv; "dark" and "light" force the palette.

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(msg.Width, msg.Height)
	if theme.GetLayoutMode() == styles.LayoutNarrow {
	    // stack panels vertically
	}
*/
package styles
