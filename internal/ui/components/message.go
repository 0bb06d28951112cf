// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript renders the chat history as message bubbles.
type Transcript struct {
	Width    int
	WrapMax  int // Upper bound for markdown wrapping, 0 for none
	Examples []string
	Model    string // Active AI model, shown under assistant replies
	theme    *styles.Theme
	markdown *MarkdownRenderer
}

// NewTranscript creates a transcript renderer.
func NewTranscript(theme *styles.Theme, markdown *MarkdownRenderer) *Transcript {
	return &Transcript{Width: 80, theme: theme, markdown: markdown}
}

// SetWidth updates the wrap width.
func (t *Transcript) SetWidth(width int) {
	t.Width = width
}

// View renders messages in order. An empty transcript shows the example
// prompts instead.
func (t *Transcript) View(messages []api.ChatMessage) string {
	if len(messages) == 0 {
		return t.emptyView()
	}

	blocks := make([]string, 0, len(messages))
	for _, msg := range messages {
		blocks = append(blocks, t.bubble(msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (t *Transcript) bubble(msg api.ChatMessage) string {
	width := t.Width - 4
	if width < 20 {
		width = 20
	}

	switch msg.Role {
	case api.RoleUser:
		label := t.theme.RoleLabel.Render("You")
		body := t.theme.UserBubble.Width(width).Render(msg.Content)
		return label + "\n" + body
	default:
		label := t.theme.RoleLabel.Render("Assistant")
		content := msg.Content
		if t.markdown != nil {
			wrap := width - 2
			if t.WrapMax > 0 && t.WrapMax < wrap {
				wrap = t.WrapMax
			}
			content = t.markdown.Render(content, wrap)
		}
		body := t.theme.AssistantBubble.Render(content)
		if t.Model == "" {
			return label + "\n" + body
		}
		footer := t.theme.Muted.Render("Model: " + ModelLabel(t.Model))
		return label + "\n" + body + "\n" + footer
	}
}

func (t *Transcript) emptyView() string {
	lines := []string{
		t.theme.Muted.Render("Ask about the robot or tell it what to do."),
	}
	if len(t.Examples) > 0 {
		lines = append(lines, "", t.theme.Label.Render("Try:"))
		for _, ex := range t.Examples {
			lines = append(lines, "  "+t.theme.Example.Render("\""+ex+"\""))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
