// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/control"
	"github.com/jeranaias/valetdash/internal/ui/components"
	"github.com/jeranaias/valetdash/internal/ui/styles"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(m.width, m.height)
		m.layout()
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case storeChangedMsg:
		cmd := m.applySnapshot()
		return m, tea.Batch(cmd, m.life.waitForChange())

	case chatDoneMsg:
		return m.handleChatDone(msg)

	case commandDoneMsg:
		return m.handleCommandDone(msg)

	case switchDoneMsg:
		return m.handleSwitchDone(msg)

	case clearDoneMsg:
		if msg.err == nil {
			m.notice = "History cleared"
		}
		return m, nil

	case refreshDoneMsg:
		if msg.err == nil {
			m.notice = "Status refreshed"
		}
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)
	}

	// Spinner ticks and cursor blinks.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.chatSpinner, cmd = m.chatSpinner.Update(msg)
	cmds = append(cmds, cmd)
	m.loadSpinner, cmd = m.loadSpinner.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// applySnapshot re-reads the store and updates everything derived from it.
func (m *Model) applySnapshot() tea.Cmd {
	prevBanner := m.snap.HasError()
	m.snap = m.store.Snapshot()

	if !m.seeded && len(m.snap.AvailableModels) > 0 {
		m.switcher.SelectModel(m.snap.CurrentModel, m.snap.AvailableModels)
		m.seeded = true
	}

	if prevBanner != m.snap.HasError() {
		m.layout()
	}
	if len(m.snap.Messages) != m.msgCount || m.snap.CurrentModel != m.transcript.Model {
		m.refreshTranscript()
	}
	if m.snap.HasError() {
		m.notice = ""
	}
	return m.syncSpinners()
}

// syncSpinners starts or stops the spinners to match the snapshot.
func (m *Model) syncSpinners() tea.Cmd {
	var cmds []tea.Cmd
	if m.snap.IsChatLoading {
		cmds = append(cmds, m.chatSpinner.Start())
	} else {
		m.chatSpinner.Stop()
	}
	if m.snap.IsLoading {
		cmds = append(cmds, m.loadSpinner.Start())
	} else {
		m.loadSpinner.Stop()
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.quitting = true
		m.life.close()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.DismissError):
		m.store.ClearError()
		m.notice = ""
		return m, nil

	case key.Matches(msg, m.keyMap.Send):
		return m.submitChat()

	case key.Matches(msg, m.keyMap.NextModel):
		m.switcher.Next(len(m.snap.AvailableModels))
		return m, nil

	case key.Matches(msg, m.keyMap.PrevModel):
		m.switcher.Prev(len(m.snap.AvailableModels))
		return m, nil

	case key.Matches(msg, m.keyMap.SwitchModel):
		return m.switchModel()

	case key.Matches(msg, m.keyMap.Refresh):
		ctx, ctrl := m.ctx, m.ctrl
		return m, func() tea.Msg {
			return refreshDoneMsg{err: ctrl.RefreshStatus(ctx)}
		}

	case key.Matches(msg, m.keyMap.ClearHistory):
		ctx, ctrl := m.ctx, m.ctrl
		return m, func() tea.Msg {
			return clearDoneMsg{err: ctrl.ClearHistory(ctx)}
		}

	case key.Matches(msg, m.keyMap.PageUp, m.keyMap.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	for _, b := range m.keyMap.commandBindings() {
		if key.Matches(msg, b.binding) {
			return m.runCommand(b.command)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

// submitChat sends the input text. The input is cleared once the
// submission is accepted.
func (m Model) submitChat() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" || m.store.IsChatLoading() {
		return m, nil
	}
	m.input.Reset()
	m.notice = ""

	ctx, ctrl := m.ctx, m.ctrl
	return m, func() tea.Msg {
		return chatDoneMsg{text: text, err: ctrl.SubmitChat(ctx, text)}
	}
}

func (m Model) handleChatDone(msg chatDoneMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err == nil:
	case errors.Is(msg.err, control.ErrChatBusy):
		// Another submission won the race; give the text back.
		if m.input.Value() == "" {
			m.input.SetValue(msg.text)
		}
	default:
		m.logger.Printf("DASHBOARD_CHAT_FAILED | error=%v", msg.err)
	}
	return m, nil
}

// runCommand sends a robot command unless one is already in flight.
func (m Model) runCommand(cmd api.RobotCommand) (tea.Model, tea.Cmd) {
	if m.running != "" || m.ctrl.IsCommandRunning() {
		return m, nil
	}
	m.running = cmd
	m.notice = ""

	ctx, ctrl := m.ctx, m.ctrl
	return m, func() tea.Msg {
		ack, err := ctrl.RunCommand(ctx, cmd)
		return commandDoneMsg{command: cmd, ack: ack, err: err}
	}
}

func (m Model) handleCommandDone(msg commandDoneMsg) (tea.Model, tea.Cmd) {
	if msg.command == m.running {
		m.running = ""
	}
	if msg.err != nil {
		m.logger.Printf("DASHBOARD_COMMAND_FAILED | command=%s error=%v", msg.command, msg.err)
		return m, nil
	}
	if msg.ack != nil && msg.ack.Message != "" {
		m.notice = msg.ack.Message
	} else {
		m.notice = "Sent " + string(msg.command)
	}
	return m, nil
}

// switchModel switches to the selected model. Selecting the active model
// makes no request.
func (m Model) switchModel() (tea.Model, tea.Cmd) {
	model := m.switcher.Selected(m.snap.AvailableModels)
	if model == "" || m.switching || m.ctrl.IsSwitching() {
		return m, nil
	}
	if model == m.snap.CurrentModel {
		m.notice = "Already using " + components.ModelLabel(model)
		return m, nil
	}
	m.switching = true
	m.notice = ""

	ctx, ctrl := m.ctx, m.ctrl
	return m, func() tea.Msg {
		return switchDoneMsg{model: model, err: ctrl.SwitchModel(ctx, model)}
	}
}

func (m Model) handleSwitchDone(msg switchDoneMsg) (tea.Model, tea.Cmd) {
	m.switching = false
	if msg.err == nil {
		m.notice = "Switched to " + components.ModelLabel(msg.model)
	}
	return m, nil
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Printf("CONFIG_RELOAD_FAILED | error=%v", msg.Err)
		m.notice = "Config reload failed, keeping previous settings"
		return m, nil
	}
	if msg.Config == nil {
		return m, nil
	}

	m.opts.ShowExamples = msg.Config.UI.ShowExamples
	m.opts.CompactMode = msg.Config.UI.CompactMode
	m.opts.WordWrap = msg.Config.UI.WordWrap
	if !strings.EqualFold(msg.Config.UI.Theme, m.theme.Mode) {
		m.applyTheme(msg.Config.UI.Theme)
	} else {
		m.transcript.WrapMax = m.opts.WordWrap
		m.transcript.Examples = nil
		if m.opts.ShowExamples {
			m.transcript.Examples = control.ExamplePrompts
		}
	}
	m.layout()
	m.refreshTranscript()
	m.notice = "Config reloaded"
	m.logger.Printf("CONFIG_RELOADED | theme=%s", m.theme.Mode)
	return m, m.syncSpinners()
}

// =============================================================================
// LAYOUT
// =============================================================================

const (
	sidebarWidth    = 38
	headerHeight    = 1
	bannerHeight    = 1
	statusBarHeight = 1
	inputHeight     = 2 // Separator + input line
	spinnerHeight   = 1
	narrowStatus    = 1 // One-line robot summary in narrow mode
)

// layout sizes the viewport and input to the window.
func (m *Model) layout() {
	chatWidth := m.chatWidth()

	reserved := headerHeight + statusBarHeight + inputHeight + spinnerHeight
	if m.snap.HasError() {
		reserved += bannerHeight
	}
	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		reserved += narrowStatus
	}

	vpHeight := m.height - reserved
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = chatWidth
	m.viewport.Height = vpHeight

	// Container padding (2) plus prompt (2).
	inputWidth := chatWidth - 4 - len(m.input.Prompt)
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.header.SetWidth(m.width)
	m.banner.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.status.SetWidth(sidebarWidth)
	m.controls.SetWidth(sidebarWidth)
	m.switcher.SetWidth(sidebarWidth)
	m.transcript.SetWidth(chatWidth)
}

func (m *Model) chatWidth() int {
	w := m.width
	if m.theme.GetLayoutMode() == styles.LayoutWide {
		w -= sidebarWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// refreshTranscript re-renders the transcript and scrolls to the newest
// message.
func (m *Model) refreshTranscript() {
	m.msgCount = len(m.snap.Messages)
	m.transcript.Model = m.snap.CurrentModel
	m.viewport.SetContent(m.transcript.View(m.snap.Messages))
	m.viewport.GotoBottom()
}
