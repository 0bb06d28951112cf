// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/valetdash/internal/ui/components"
	"github.com/jeranaias/valetdash/internal/ui/styles"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the dashboard from the last snapshot.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.snap.IsLoading && m.snap.RobotStatus == nil {
		return m.renderLoading()
	}

	m.header.SetModel(m.snap.CurrentModel)
	m.header.SetConnected(m.snap.Connected)

	rows := []string{m.header.View()}
	if m.snap.HasError() {
		rows = append(rows, m.banner.View(m.snap.Error))
	}

	if m.theme.GetLayoutMode() == styles.LayoutWide {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderChat()))
	} else {
		rows = append(rows, m.renderNarrowStatus(), m.renderChat())
	}

	rows = append(rows, m.statusBar.View(m.statusInfo()))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderLoading shows the spinner while the first fetch cycle runs.
func (m Model) renderLoading() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		m.theme.HeaderTitle.Render(components.DefaultTitle),
		"",
		m.loadSpinner.View(),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderSidebar() string {
	busy := m.running != ""
	switching := m.switching || m.ctrl.IsSwitching()

	panels := []string{m.status.View(m.snap.RobotStatus)}
	if !m.opts.CompactMode {
		panels = append(panels, m.controls.View(busy, m.running))
	}
	panels = append(panels, m.switcher.View(m.snap.CurrentModel, m.snap.AvailableModels, switching))

	sidebar := lipgloss.JoinVertical(lipgloss.Left, panels...)
	return lipgloss.NewStyle().Width(sidebarWidth).MaxHeight(m.viewport.Height + inputHeight + spinnerHeight).Render(sidebar)
}

// renderNarrowStatus is a one-line robot summary for narrow terminals.
func (m Model) renderNarrowStatus() string {
	status := m.snap.RobotStatus
	if status == nil {
		return m.theme.Muted.Render("Robot: loading...")
	}
	state := lipgloss.NewStyle().Foreground(styles.StateColor(status.State)).Bold(true).
		Render(components.StateLabel(status.State))
	battery := lipgloss.NewStyle().Foreground(styles.BatteryColor(status.Battery)).
		Render(strconv.Itoa(status.Battery) + "%")

	line := m.theme.Label.Render("Robot:") + " " + state + "  " + battery
	if status.HasError() {
		line += "  " + m.theme.RobotErrorHead.Render(styles.StatusIndicators.Warning+" "+status.Error)
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
}

func (m Model) renderChat() string {
	spinnerLine := m.chatSpinner.View()
	if spinnerLine == "" && m.notice != "" {
		spinnerLine = m.theme.InfoStyle.Render(styles.StatusIndicators.Info + " " + m.notice)
	}

	input := m.theme.InputContainer.Width(m.chatWidth()).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		spinnerLine,
		input,
	)
}

// statusInfo summarizes the poll loop for the status bar.
func (m Model) statusInfo() string {
	h := m.life.pollHandle()
	if h == nil {
		return "not polling"
	}

	parts := []string{"poll " + h.Interval().String()}
	stats := h.Stats()
	if stats.Failures > 0 {
		parts = append(parts, strconv.Itoa(stats.Failures)+" failed")
	}
	return strings.Join(parts, " | ")
}
