// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/valetdash/internal/ui/styles"
	"github.com/jeranaias/valetdash/internal/util"
)

// =============================================================================
// MODEL LABELS
// =============================================================================

// LocalModel is the identifier of the on-premise model.
const LocalModel = "local"

var modelLabels = map[string]string{
	LocalModel:  "Local (LM Studio)",
	"openai":    "OpenAI GPT",
	"anthropic": "Anthropic Claude",
	"google":    "Google Gemini",
}

// ModelLabel returns the display name for a model identifier.
func ModelLabel(model string) string {
	if label, ok := modelLabels[model]; ok {
		return label
	}
	return model
}

// IsOnlineModel reports whether model runs at a remote provider.
func IsOnlineModel(model string) bool {
	return model != LocalModel
}

// LocalityLabel returns "Online" or "Local".
func LocalityLabel(model string) string {
	if IsOnlineModel(model) {
		return "Online"
	}
	return "Local"
}

// =============================================================================
// MODEL SWITCHER
// =============================================================================

// ModelSwitcher renders the available models with a movable selection.
type ModelSwitcher struct {
	Width    int
	selected int
	theme    *styles.Theme
}

// NewModelSwitcher creates a model switcher.
func NewModelSwitcher(theme *styles.Theme) *ModelSwitcher {
	return &ModelSwitcher{Width: 36, theme: theme}
}

// SetWidth updates the panel width.
func (s *ModelSwitcher) SetWidth(width int) {
	s.Width = width
}

// Selected returns the selected model from available, or "" if the list is
// empty.
func (s *ModelSwitcher) Selected(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return available[s.clamp(len(available))]
}

// Next moves the selection down, wrapping.
func (s *ModelSwitcher) Next(n int) {
	if n == 0 {
		return
	}
	s.selected = (s.clamp(n) + 1) % n
}

// Prev moves the selection up, wrapping.
func (s *ModelSwitcher) Prev(n int) {
	if n == 0 {
		return
	}
	s.selected = (s.clamp(n) - 1 + n) % n
}

// SelectModel moves the selection onto model if it is listed.
func (s *ModelSwitcher) SelectModel(model string, available []string) {
	for i, m := range available {
		if m == model {
			s.selected = i
			return
		}
	}
}

func (s *ModelSwitcher) clamp(n int) int {
	if s.selected >= n {
		s.selected = n - 1
	}
	if s.selected < 0 {
		s.selected = 0
	}
	return s.selected
}

// View renders the switcher. switching dims the list while a switch is in
// flight.
func (s *ModelSwitcher) View(current string, available []string, switching bool) string {
	inner := s.Width - 4
	lines := []string{s.theme.PanelTitle.Render("AI Model")}

	pill := s.localityPill(current)
	lines = append(lines, s.theme.Value.Render(util.TruncateWidth(ModelLabel(current), inner-10))+" "+pill)

	listed := len(available) == 0
	for _, m := range available {
		if m == current {
			listed = true
		}
	}
	if !listed {
		lines = append(lines, s.theme.SwitcherStale.Render("not in available list"))
	}
	lines = append(lines, "")

	if len(available) == 0 {
		lines = append(lines, s.theme.Muted.Render("No models available"))
	}

	sel := s.clamp(len(available))
	for i, m := range available {
		label := util.TruncateWidth(ModelLabel(m), inner-12)
		var line string
		switch {
		case i == sel && !switching:
			line = s.theme.SwitcherSelected.Render("> " + label)
		default:
			line = s.theme.SwitcherItem.Render(label)
		}
		if m == current {
			line += " " + s.theme.SwitcherActive.Render(styles.StatusIndicators.Active)
		}
		line += " " + s.theme.Muted.Render(LocalityLabel(m))
		lines = append(lines, line)
	}

	if switching {
		lines = append(lines, "", s.theme.ThinkingText.Render("Switching..."))
	}

	return s.theme.Panel.Width(s.Width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (s *ModelSwitcher) localityPill(model string) string {
	color := styles.Emerald
	if IsOnlineModel(model) {
		color = styles.Blue
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render("[" + LocalityLabel(model) + "]")
}
