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
// HEADER COMPONENT
// =============================================================================

// DefaultTitle is shown at the left of the header.
const DefaultTitle = "valetdash"

// Header is the title bar: brand, connection pill and active model.
type Header struct {
	Title     string
	Subtitle  string
	ModelName string
	Connected bool
	Width     int
	theme     *styles.Theme
}

// NewHeader creates a new Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title:    DefaultTitle,
		Subtitle: "robot vacuum assistant",
		Width:    80,
		theme:    theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetModel updates the active model name.
func (h *Header) SetModel(model string) {
	h.ModelName = model
}

// SetConnected updates the connection pill.
func (h *Header) SetConnected(connected bool) {
	h.Connected = connected
}

// ConnectionLabel returns the pill text.
func (h *Header) ConnectionLabel() string {
	if h.Connected {
		return "CONNECTED"
	}
	return "DISCONNECTED"
}

// View renders the header as a single line padded to Width.
func (h *Header) View() string {
	width := h.Width
	if width < 40 {
		width = 40
	}

	left := h.theme.HeaderTitle.Render(h.Title)
	if h.Subtitle != "" && width >= 80 {
		left += " " + h.theme.HeaderSubtitle.Render(h.Subtitle)
	}

	var rightParts []string
	if h.ModelName != "" {
		rightParts = append(rightParts, h.theme.Label.Render("model:")+" "+
			h.theme.ModelBadge.Render(util.TruncateWidth(ModelLabel(h.ModelName), 24)))
	}
	if h.Connected {
		rightParts = append(rightParts, h.theme.PillConnected.Render(h.ConnectionLabel()))
	} else {
		rightParts = append(rightParts, h.theme.PillDisconnected.Render(h.ConnectionLabel()))
	}
	right := strings.Join(rightParts, "  ")

	// Header has one column of padding on each side.
	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return h.theme.Header.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
