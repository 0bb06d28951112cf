// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/ui/styles"
)

// =============================================================================
// STATE LABELS
// =============================================================================

var stateLabels = map[string]string{
	api.StateCleaning:  "Cleaning",
	api.StateDocked:    "Docked",
	api.StateIdle:      "Idle",
	api.StateReturning: "Returning to dock",
	api.StatePaused:    "Paused",
	api.StateError:     "Error",
}

var titleCaser = cases.Title(language.English)

// StateLabel returns the display label for a robot state. Unknown states are
// shown title-cased with separators turned into spaces.
func StateLabel(state string) string {
	if label, ok := stateLabels[state]; ok {
		return label
	}
	if state == "" {
		return "Unknown"
	}
	return titleCaser.String(strings.NewReplacer("_", " ", "-", " ").Replace(state))
}

// =============================================================================
// BATTERY BAR
// =============================================================================

// BatteryBar renders a filled track of width cells for level percent.
// Levels outside 0..100 are clamped.
func BatteryBar(level, width int) string {
	if width < 1 {
		return ""
	}
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}

	filled := level * width / 100
	fill := lipgloss.NewStyle().Foreground(styles.BatteryColor(level)).
		Render(strings.Repeat("█", filled))
	track := lipgloss.NewStyle().Foreground(styles.Overlay).
		Render(strings.Repeat("░", width-filled))
	return fill + track
}

// =============================================================================
// STATUS PANEL
// =============================================================================

// StatusPanel renders the robot status card.
type StatusPanel struct {
	Width int
	theme *styles.Theme
}

// NewStatusPanel creates a status panel.
func NewStatusPanel(theme *styles.Theme) *StatusPanel {
	return &StatusPanel{Width: 36, theme: theme}
}

// SetWidth updates the panel width.
func (p *StatusPanel) SetWidth(width int) {
	p.Width = width
}

// View renders status. A nil status shows a loading placeholder.
func (p *StatusPanel) View(status *api.RobotStatus) string {
	inner := p.Width - 4
	if inner < 16 {
		inner = 16
	}

	title := p.theme.PanelTitle.Render("Robot Status")

	if status == nil {
		return p.theme.Panel.Width(p.Width - 2).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, p.theme.Muted.Render("Loading...")))
	}

	stateStyle := lipgloss.NewStyle().Foreground(styles.StateColor(status.State)).Bold(true)
	batteryStyle := lipgloss.NewStyle().Foreground(styles.BatteryColor(status.Battery)).Bold(true)

	lines := []string{
		title,
		p.row("State:", stateStyle.Render(StateLabel(status.State)), inner),
		p.row("Battery:", batteryStyle.Render(strconv.Itoa(status.Battery)+"%"), inner),
		BatteryBar(status.Battery, inner),
	}

	if status.HasError() {
		box := p.theme.RobotErrorBox.Width(inner - 2).Render(
			p.theme.RobotErrorHead.Render(styles.StatusIndicators.Warning+" Robot error") + "\n" + status.Error)
		lines = append(lines, "", box)
	}

	return p.theme.Panel.Width(p.Width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// row lays out a label on the left and value on the right.
func (p *StatusPanel) row(label, value string, width int) string {
	l := p.theme.Label.Render(label)
	gap := width - lipgloss.Width(l) - lipgloss.Width(value)
	if gap < 1 {
		gap = 1
	}
	return l + strings.Repeat(" ", gap) + value
}
