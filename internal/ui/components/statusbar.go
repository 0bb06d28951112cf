// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/valetdash/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Shortcut is a key hint shown in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// DefaultShortcuts are shown when the bar has room.
var DefaultShortcuts = []Shortcut{
	{"enter", "send"},
	{"F1-F5", "robot"},
	{"^n/^p", "model"},
	{"^s", "switch"},
	{"^r", "refresh"},
	{"^l", "clear"},
	{"^c", "quit"},
}

// StatusBar is the bottom bar: shortcuts on the left, poll info on the right.
type StatusBar struct {
	Width     int
	Shortcuts []Shortcut
	theme     *styles.Theme
}

// NewStatusBar creates a status bar with the default shortcuts.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, Shortcuts: DefaultShortcuts, theme: theme}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the bar. info is right-aligned and takes priority over
// shortcuts when space is short.
func (s *StatusBar) View(info string) string {
	width := s.Width
	if width < 20 {
		width = 20
	}
	right := s.theme.ShortcutDesc.Render(info)
	room := width - 2 - lipgloss.Width(right) - 1

	var parts []string
	used := 0
	for _, sc := range s.Shortcuts {
		part := s.theme.ShortcutKey.Render(sc.Key) + " " + s.theme.ShortcutDesc.Render(sc.Desc)
		w := lipgloss.Width(part) + 2
		if used+w > room {
			break
		}
		parts = append(parts, part)
		used += w
	}
	left := strings.Join(parts, "  ")

	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
