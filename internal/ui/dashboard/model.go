// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"context"
	"io"
	"log"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/control"
	"github.com/jeranaias/valetdash/internal/poll"
	"github.com/jeranaias/valetdash/internal/store"
	"github.com/jeranaias/valetdash/internal/ui/components"
	"github.com/jeranaias/valetdash/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the dashboard.
type Options struct {
	// Theme is "auto", "dark" or "light".
	Theme string

	// ShowExamples shows example prompts while the transcript is empty.
	ShowExamples bool

	// CompactMode hides the controls panel.
	CompactMode bool

	// WordWrap caps the wrap width of assistant replies. Zero means the
	// transcript width.
	WordWrap int

	// Poll configures the status poll started on mount.
	Poll poll.Options

	// Logger receives dashboard events. Nil discards them.
	Logger *log.Logger
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea root model of the dashboard.
type Model struct {
	ctx    context.Context
	ctrl   *control.Controller
	store  *store.Store
	src    poll.Source
	opts   Options
	logger *log.Logger
	life   *lifecycle

	// Last store snapshot; View reads only this.
	snap     store.Snapshot
	msgCount int
	seeded   bool

	// Local UI state
	running   api.RobotCommand
	switching bool
	notice    string
	quitting  bool

	width  int
	height int

	keyMap KeyMap
	theme  *styles.Theme

	input    textinput.Model
	viewport viewport.Model

	chatSpinner components.Spinner
	loadSpinner components.Spinner

	header     *components.Header
	banner     *components.ErrorBanner
	status     *components.StatusPanel
	controls   *components.Controls
	switcher   *components.ModelSwitcher
	transcript *components.Transcript
	markdown   *components.MarkdownRenderer
	statusBar  *components.StatusBar
}

// New creates the dashboard. Nothing runs until the program calls Init.
func New(ctx context.Context, ctrl *control.Controller, src poll.Source, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Poll.Logger == nil {
		opts.Poll.Logger = opts.Logger
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask the robot something..."
	ti.CharLimit = 2000
	ti.Focus()

	m := Model{
		ctx:      ctx,
		ctrl:     ctrl,
		store:    ctrl.Store(),
		src:      src,
		opts:     opts,
		logger:   opts.Logger,
		life:     newLifecycle(),
		keyMap:   DefaultKeyMap(),
		input:    ti,
		viewport: viewport.New(80, 20),
		width:    80,
		height:   24,
	}
	m.snap = m.store.Snapshot()
	m.applyTheme(opts.Theme)
	m.layout()
	m.refreshTranscript()
	return m
}

// applyTheme (re)builds the theme and every themed component.
func (m *Model) applyTheme(mode string) {
	m.theme = styles.NewTheme(mode)
	m.theme.SetSize(m.width, m.height)

	if m.markdown == nil {
		m.markdown = components.NewMarkdownRenderer(m.theme.GlamourStyle())
	} else {
		m.markdown.SetStyle(m.theme.GlamourStyle())
	}

	prev := m.switcher
	m.header = components.NewHeader(m.theme)
	m.banner = components.NewErrorBanner(m.theme)
	m.status = components.NewStatusPanel(m.theme)
	m.controls = components.NewControls(m.theme)
	m.switcher = components.NewModelSwitcher(m.theme)
	m.transcript = components.NewTranscript(m.theme, m.markdown)
	m.statusBar = components.NewStatusBar(m.theme)

	if prev != nil {
		m.switcher.SelectModel(prev.Selected(m.snap.AvailableModels), m.snap.AvailableModels)
	}
	m.transcript.WrapMax = m.opts.WordWrap
	if m.opts.ShowExamples {
		m.transcript.Examples = control.ExamplePrompts
	}

	// Fresh spinners start inactive; syncSpinners restarts them.
	m.chatSpinner = components.NewSpinner(m.theme, "Thinking")
	m.loadSpinner = components.NewSpinner(m.theme, "Connecting to robot")
	m.loadSpinner.SetShowTimer(false)
}

// Init mounts the dashboard: subscribe to the store, start polling and
// wait for the first change.
func (m Model) Init() tea.Cmd {
	m.life.mount(m.ctx, m.src, m.store, m.opts.Poll)
	return tea.Batch(textinput.Blink, m.life.waitForChange())
}

// Close unmounts the dashboard. It is safe to call after the program exits
// and more than once.
func (m Model) Close() {
	m.life.close()
}

// PollHandle returns the poll handle, or nil before Init.
func (m Model) PollHandle() *poll.Handle {
	return m.life.pollHandle()
}

// Snapshot returns the state the dashboard last rendered from.
func (m Model) Snapshot() store.Snapshot {
	return m.snap
}
