// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme("dark")
}

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestHeader_ConnectionPill(t *testing.T) {
	h := NewHeader(testTheme())
	h.SetWidth(100)
	h.SetModel("openai")

	view := h.View()
	assert.Contains(t, view, DefaultTitle)
	assert.Contains(t, view, "DISCONNECTED")
	assert.Contains(t, view, "OpenAI GPT")

	h.SetConnected(true)
	view = h.View()
	assert.Contains(t, view, "CONNECTED")
	assert.NotContains(t, view, "DISCONNECTED")
}

func TestHeader_WidthRespected(t *testing.T) {
	h := NewHeader(testTheme())
	for _, width := range []int{40, 80, 120} {
		h.SetWidth(width)
		assert.LessOrEqual(t, lipgloss.Width(h.View()), width, "width %d", width)
	}
}

// =============================================================================
// ERROR BANNER TESTS
// =============================================================================

func TestErrorBanner(t *testing.T) {
	b := NewErrorBanner(testTheme())
	assert.Empty(t, b.View(""))

	view := b.View("Failed to execute command")
	assert.Contains(t, view, "Failed to execute command")
	assert.Contains(t, view, DismissHint)
}

func TestErrorBanner_TruncatesLongMessages(t *testing.T) {
	b := NewErrorBanner(testTheme())
	b.SetWidth(60)
	view := b.View(strings.Repeat("x", 500))
	assert.LessOrEqual(t, lipgloss.Width(view), 60)
	assert.Contains(t, view, "...")
}

// =============================================================================
// STATUS PANEL TESTS
// =============================================================================

func TestStateLabel(t *testing.T) {
	tests := []struct {
		state string
		want  string
	}{
		{"cleaning", "Cleaning"},
		{"docked", "Docked"},
		{"returning", "Returning to dock"},
		{"error", "Error"},
		{"spot_cleaning", "Spot Cleaning"},
		{"", "Unknown"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, StateLabel(tc.state), tc.state)
	}
}

func TestBatteryBar(t *testing.T) {
	tests := []struct {
		level  int
		filled int
	}{
		{100, 10},
		{72, 7},
		{0, 0},
		{150, 10},
		{-5, 0},
	}
	for _, tc := range tests {
		bar := BatteryBar(tc.level, 10)
		assert.Equal(t, 10, lipgloss.Width(bar), "level %d", tc.level)
		assert.Equal(t, tc.filled, strings.Count(bar, "█"), "level %d", tc.level)
	}
	assert.Empty(t, BatteryBar(50, 0))
}

func TestStatusPanel_View(t *testing.T) {
	p := NewStatusPanel(testTheme())

	assert.Contains(t, p.View(nil), "Loading...")

	view := p.View(&api.RobotStatus{State: "cleaning", Battery: 72})
	assert.Contains(t, view, "Cleaning")
	assert.Contains(t, view, "72%")
	assert.NotContains(t, view, "Robot error")

	view = p.View(&api.RobotStatus{State: "error", Battery: 10, Error: "Brush stuck"})
	assert.Contains(t, view, "Robot error")
	assert.Contains(t, view, "Brush stuck")
}

// =============================================================================
// CONTROLS TESTS
// =============================================================================

func TestControls_ListsEveryCommand(t *testing.T) {
	assert.Len(t, ControlBindings, len(api.AllCommands))
	for i, b := range ControlBindings {
		assert.Equal(t, api.AllCommands[i], b.Command)
	}

	view := NewControls(testTheme()).View(true, api.CommandHome)
	assert.Contains(t, view, "Return to dock...")
	assert.Contains(t, view, "F1")
}

// =============================================================================
// MODEL SWITCHER TESTS
// =============================================================================

func TestModelLabel(t *testing.T) {
	assert.Equal(t, "Local (LM Studio)", ModelLabel("local"))
	assert.Equal(t, "Anthropic Claude", ModelLabel("anthropic"))
	assert.Equal(t, "mistral", ModelLabel("mistral"))

	assert.Equal(t, "Local", LocalityLabel("local"))
	assert.Equal(t, "Online", LocalityLabel("google"))
}

func TestModelSwitcher_Selection(t *testing.T) {
	s := NewModelSwitcher(testTheme())
	models := []string{"local", "openai", "anthropic"}

	assert.Equal(t, "local", s.Selected(models))
	s.Next(len(models))
	assert.Equal(t, "openai", s.Selected(models))
	s.Prev(len(models))
	s.Prev(len(models))
	assert.Equal(t, "anthropic", s.Selected(models))
	s.Next(len(models))
	assert.Equal(t, "local", s.Selected(models))

	s.SelectModel("openai", models)
	assert.Equal(t, "openai", s.Selected(models))

	// Shrinking list clamps the selection.
	assert.Equal(t, "local", s.Selected([]string{"local"}))
	assert.Equal(t, "", s.Selected(nil))
}

func TestModelSwitcher_View(t *testing.T) {
	s := NewModelSwitcher(testTheme())

	view := s.View("local", []string{"local", "openai"}, false)
	assert.Contains(t, view, "[Local]")
	assert.Contains(t, view, "OpenAI GPT")
	assert.NotContains(t, view, "not in available list")

	view = s.View("google", []string{"local"}, true)
	assert.Contains(t, view, "[Online]")
	assert.Contains(t, view, "not in available list")
	assert.Contains(t, view, "Switching...")
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestTranscript_EmptyShowsExamples(t *testing.T) {
	tr := NewTranscript(testTheme(), nil)
	tr.Examples = []string{"Clean the living room"}

	assert.Contains(t, tr.View(nil), "Clean the living room")
}

func TestTranscript_RendersInOrder(t *testing.T) {
	tr := NewTranscript(testTheme(), nil)
	view := tr.View([]api.ChatMessage{
		api.NewUserMessage("What's the battery level?"),
		api.NewAssistantMessage("72%"),
	})

	q := strings.Index(view, "battery level")
	a := strings.Index(view, "72%")
	assert.True(t, q >= 0 && a > q, "user message should precede the reply")
}

func TestTranscript_ModelFooterUnderReplies(t *testing.T) {
	tr := NewTranscript(testTheme(), nil)
	tr.Model = "openai"
	view := ansi.Strip(tr.View([]api.ChatMessage{
		api.NewUserMessage("Start cleaning"),
		api.NewAssistantMessage("Cleaning started"),
		api.NewUserMessage("Battery?"),
		api.NewAssistantMessage("72%"),
	}))

	assert.Equal(t, 2, strings.Count(view, "Model: OpenAI GPT"))
	reply := strings.Index(view, "Cleaning started")
	footer := strings.Index(view, "Model: OpenAI GPT")
	assert.True(t, reply >= 0 && footer > reply, "footer follows the reply")

	tr.Model = ""
	assert.NotContains(t, tr.View([]api.ChatMessage{api.NewAssistantMessage("hi")}), "Model:")
}

func TestMarkdownRenderer(t *testing.T) {
	md := NewMarkdownRenderer("notty")
	out := md.Render("**Battery** is at 72%", 40)
	assert.Contains(t, out, "Battery")
	assert.Contains(t, out, "72%")
	assert.False(t, strings.HasSuffix(out, "\n"))
}

// =============================================================================
// MISC
// =============================================================================

func TestHighlightJSON_KeepsContent(t *testing.T) {
	out := HighlightJSON(`{"model": "X40"}`)
	assert.Contains(t, out, "model")
	assert.Contains(t, out, "X40")
}

func TestSpinner_Lifecycle(t *testing.T) {
	s := NewSpinner(testTheme(), "Thinking")
	assert.Empty(t, s.View())

	assert.NotNil(t, s.Start())
	assert.Nil(t, s.Start(), "second Start should not spawn another tick loop")
	assert.Contains(t, s.View(), "Thinking...")

	s.Stop()
	assert.Empty(t, s.View())
}

func TestStatusBar_FitsWidth(t *testing.T) {
	bar := NewStatusBar(testTheme())
	for _, width := range []int{40, 80, 160} {
		bar.SetWidth(width)
		view := bar.View("poll 5s")
		assert.LessOrEqual(t, lipgloss.Width(view), width)
		assert.Contains(t, view, "poll 5s")
	}
}
