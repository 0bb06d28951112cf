// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/ui/styles"
)

// =============================================================================
// ROBOT CONTROLS
// =============================================================================

// ControlBinding pairs a robot command with its key and label.
type ControlBinding struct {
	Key     string
	Label   string
	Command api.RobotCommand
}

// ControlBindings lists the robot controls in display order.
var ControlBindings = []ControlBinding{
	{Key: "F1", Label: "Start cleaning", Command: api.CommandStart},
	{Key: "F2", Label: "Stop", Command: api.CommandStop},
	{Key: "F3", Label: "Pause", Command: api.CommandPause},
	{Key: "F4", Label: "Return to dock", Command: api.CommandHome},
	{Key: "F5", Label: "Locate", Command: api.CommandLocate},
}

// Controls renders the robot command panel.
type Controls struct {
	Width int
	theme *styles.Theme
}

// NewControls creates the controls panel.
func NewControls(theme *styles.Theme) *Controls {
	return &Controls{Width: 36, theme: theme}
}

// SetWidth updates the panel width.
func (c *Controls) SetWidth(width int) {
	c.Width = width
}

// View renders the controls. While busy every binding is shown disabled and
// running (if non-empty) is marked as in flight.
func (c *Controls) View(busy bool, running api.RobotCommand) string {
	lines := []string{c.theme.PanelTitle.Render("Controls")}

	for _, b := range ControlBindings {
		key := c.theme.ControlKey.Render(padKey(b.Key))
		label := c.theme.ControlLabel.Render(b.Label)
		if busy {
			label = c.theme.ControlDisabled.Render(b.Label)
			if b.Command == running {
				label = c.theme.ThinkingText.Render(b.Label + "...")
			}
		}
		lines = append(lines, key+" "+label)
	}

	return c.theme.Panel.Width(c.Width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func padKey(k string) string {
	for len(k) < 3 {
		k += " "
	}
	return k
}
