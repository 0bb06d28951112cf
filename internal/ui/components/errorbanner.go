// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/valetdash/internal/ui/styles"
	"github.com/jeranaias/valetdash/internal/util"
)

// =============================================================================
// ERROR BANNER
// =============================================================================

// DismissHint is shown at the right of the banner.
const DismissHint = "esc to dismiss"

// ErrorBanner renders the last surfaced error across the full width.
type ErrorBanner struct {
	Width int
	theme *styles.Theme
}

// NewErrorBanner creates an error banner.
func NewErrorBanner(theme *styles.Theme) *ErrorBanner {
	return &ErrorBanner{Width: 80, theme: theme}
}

// SetWidth updates the banner width.
func (b *ErrorBanner) SetWidth(width int) {
	b.Width = width
}

// View renders msg, or "" when msg is empty.
func (b *ErrorBanner) View(msg string) string {
	if msg == "" {
		return ""
	}

	width := b.Width
	if width < 30 {
		width = 30
	}

	hint := b.theme.ErrorHint.Render(DismissHint)
	room := width - 2 - lipgloss.Width(hint) - 6
	text := styles.StatusIndicators.Error + " " + util.TruncateWidth(util.FirstLine(msg), room)

	gap := width - 2 - lipgloss.Width(text) - lipgloss.Width(hint)
	if gap < 1 {
		gap = 1
	}

	return b.theme.ErrorBanner.Width(width).Render(text + strings.Repeat(" ", gap) + hint)
}
