// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/api/apitest"
	"github.com/jeranaias/valetdash/internal/config"
	"github.com/jeranaias/valetdash/internal/control"
	"github.com/jeranaias/valetdash/internal/poll"
	"github.com/jeranaias/valetdash/internal/store"
	"github.com/jeranaias/valetdash/internal/ui/components"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestModel(t *testing.T) (Model, *apitest.Server) {
	t.Helper()

	srv := apitest.NewServer(t)
	client := srv.Client()
	ctrl := control.New(client, store.New(), control.Options{CommandInterval: -1})

	m := New(context.Background(), ctrl, client, Options{
		Theme:        "dark",
		ShowExamples: true,
		Poll:         poll.Options{Interval: time.Hour},
	})
	t.Cleanup(m.Close)

	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40}), srv
}

// mount runs Init and waits for the first fetch cycle to finish.
func mount(t *testing.T, m Model) Model {
	t.Helper()

	m.Init()
	h := m.PollHandle()
	require.NotNil(t, h)

	select {
	case <-h.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("poll never became ready")
	}
	return update(t, m, storeChangedMsg{})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// plainView renders m without escape sequences. Glamour styles every word
// separately, so raw output never contains a reply verbatim.
func plainView(m Model) string {
	return ansi.Strip(m.View())
}

// press sends a key and returns the model with the command it produced.
func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestDashboard_MountRendersInitialState(t *testing.T) {
	m, srv := newTestModel(t)
	m = mount(t, m)

	assert.Equal(t, 1, srv.Calls(apitest.RouteHealth))
	assert.Equal(t, 1, srv.Calls(apitest.RouteStatus))
	assert.Equal(t, 1, srv.Calls(apitest.RouteModels))

	view := plainView(m)
	assert.Contains(t, view, "CONNECTED")
	assert.Contains(t, view, "Docked")
	assert.Contains(t, view, "100%")
	assert.Contains(t, view, "Local (LM Studio)")
	assert.Contains(t, view, control.ExamplePrompts[0])
}

func TestDashboard_InitTwiceStartsOnePoll(t *testing.T) {
	m, srv := newTestModel(t)
	m = mount(t, m)
	first := m.PollHandle()

	m.Init()
	assert.Same(t, first, m.PollHandle())
	assert.Equal(t, 1, srv.Calls(apitest.RouteHealth))
}

func TestDashboard_LoadingScreen(t *testing.T) {
	m, _ := newTestModel(t)

	m.store.SetLoading(true)
	m = update(t, m, storeChangedMsg{})

	assert.Contains(t, plainView(m), "Connecting to robot")
}

func TestDashboard_QuitClosesPoll(t *testing.T) {
	m, _ := newTestModel(t)
	m = mount(t, m)
	h := m.PollHandle()

	m, cmd := press(t, m, tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poll still running after quit")
	}
	assert.Equal(t, poll.PhaseUnmounted, h.Phase())
	assert.Empty(t, plainView(m))

	assert.NotPanics(t, m.Close)
}

func TestDashboard_WaitForChangeEndsOnClose(t *testing.T) {
	m, _ := newTestModel(t)
	wait := m.life.waitForChange()

	m.Close()
	assert.Nil(t, wait())
}

func TestDashboard_ChangesCoalesce(t *testing.T) {
	m, _ := newTestModel(t)
	m = mount(t, m)

	// Drain whatever the init cycle left behind.
	select {
	case <-m.life.changes:
	default:
	}

	for i := 0; i < 10; i++ {
		m.store.SetConnected(i%2 == 0)
	}
	assert.Len(t, m.life.changes, 1)
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestDashboard_SendChat(t *testing.T) {
	m, srv := newTestModel(t)
	m = mount(t, m)
	srv.SetChatReply("Battery is at 72 percent")

	m.input.SetValue("What's the battery level?")
	m, cmd := press(t, m, tea.KeyEnter)
	assert.Empty(t, m.input.Value(), "input should clear once accepted")
	require.NotNil(t, cmd)

	done, ok := cmd().(chatDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)

	m = update(t, m, done)
	m = update(t, m, storeChangedMsg{})

	require.Len(t, m.Snapshot().Messages, 2)
	assert.Equal(t, api.NewUserMessage("What's the battery level?"), m.Snapshot().Messages[0])
	view := plainView(m)
	assert.Contains(t, view, "Battery is at 72 percent")
	assert.Contains(t, view, "Model: "+components.ModelLabel(m.Snapshot().CurrentModel))
}

func TestDashboard_EmptyChatIgnored(t *testing.T) {
	m, srv := newTestModel(t)
	m = mount(t, m)

	m.input.SetValue("   ")
	_, cmd := press(t, m, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Zero(t, srv.Calls(apitest.RouteChat))
}

func TestDashboard_BusyChatRestoresInput(t *testing.T) {
	m, _ := newTestModel(t)

	m = update(t, m, chatDoneMsg{text: "hello", err: control.ErrChatBusy})
	assert.Equal(t, "hello", m.input.Value())
}

func TestDashboard_ClearHistory(t *testing.T) {
	m, _ := newTestModel(t)
	m = mount(t, m)
	m.store.AddMessage(api.NewUserMessage("hi"))

	m, cmd := press(t, m, tea.KeyCtrlL)
	require.NotNil(t, cmd)
	m = update(t, m, cmd())
	m = update(t, m, storeChangedMsg{})

	assert.Empty(t, m.Snapshot().Messages)
	assert.Contains(t, plainView(m), "History cleared")
}

// =============================================================================
// ROBOT TESTS
// =============================================================================

func TestDashboard_RobotCommand(t *testing.T) {
	m, srv := newTestModel(t)
	m = mount(t, m)

	m, cmd := press(t, m, tea.KeyF1)
	require.NotNil(t, cmd)

	// A second command while the first is pending is ignored.
	m, second := press(t, m, tea.KeyF2)
	assert.Nil(t, second)

	m = update(t, m, cmd())
	assert.Equal(t, []string{"start"}, srv.Commands())
	assert.Contains(t, plainView(m), "Cleaning started")

	_, cmd = press(t, m, tea.KeyF4)
	require.NotNil(t, cmd)
}

func TestDashboard_CommandFailureShowsBannerUntilDismissed(t *testing.T) {
	m, srv := newTestModel(t)
	m = mount(t, m)
	srv.Fail(apitest.RouteCommand, 503, "Robot unreachable")

	m, cmd := press(t, m, tea.KeyF5)
	m = update(t, m, cmd())
	m = update(t, m, storeChangedMsg{})
	assert.Contains(t, plainView(m), "Robot unreachable")

	m, _ = press(t, m, tea.KeyEsc)
	m = update(t, m, storeChangedMsg{})
	assert.Empty(t, m.store.ErrorMessage())
	assert.NotContains(t, plainView(m), "Robot unreachable")
}

func TestDashboard_Refresh(t *testing.T) {
	m, srv := newTestModel(t)
	m = mount(t, m)
	srv.SetStatus(api.RobotStatus{State: "cleaning", Battery: 64})

	m, cmd := press(t, m, tea.KeyCtrlR)
	require.NotNil(t, cmd)
	m = update(t, m, cmd())
	m = update(t, m, storeChangedMsg{})

	view := plainView(m)
	assert.Contains(t, view, "Cleaning")
	assert.Contains(t, view, "64%")
}

// =============================================================================
// MODEL SWITCH TESTS
// =============================================================================

func TestDashboard_SwitchToActiveModelMakesNoRequest(t *testing.T) {
	m, srv := newTestModel(t)
	m = mount(t, m)

	m, cmd := press(t, m, tea.KeyCtrlS)
	assert.Nil(t, cmd)
	assert.Zero(t, srv.Calls(apitest.RouteSwitchModel))
	assert.Contains(t, plainView(m), "Already using")
}

func TestDashboard_SwitchModel(t *testing.T) {
	m, srv := newTestModel(t)
	m = mount(t, m)

	m, _ = press(t, m, tea.KeyCtrlN)
	m, cmd := press(t, m, tea.KeyCtrlS)
	require.NotNil(t, cmd)
	assert.True(t, m.switching)

	m = update(t, m, cmd())
	m = update(t, m, storeChangedMsg{})

	assert.False(t, m.switching)
	assert.Equal(t, "openai", srv.CurrentModel())
	assert.Equal(t, "openai", m.Snapshot().CurrentModel)
	assert.Contains(t, plainView(m), "Switched to OpenAI GPT")
}

func TestDashboard_SwitchFailureKeepsModel(t *testing.T) {
	m, srv := newTestModel(t)
	m = mount(t, m)
	srv.Fail(apitest.RouteSwitchModel, 400, "Invalid model type: openai")

	m, _ = press(t, m, tea.KeyCtrlN)
	m, cmd := press(t, m, tea.KeyCtrlS)
	m = update(t, m, cmd())
	m = update(t, m, storeChangedMsg{})

	assert.Equal(t, "local", m.Snapshot().CurrentModel)
	assert.Equal(t, "Invalid model type: openai", m.Snapshot().Error)
}

// =============================================================================
// LAYOUT AND CONFIG TESTS
// =============================================================================

func TestDashboard_NarrowLayout(t *testing.T) {
	m, _ := newTestModel(t)
	m = mount(t, m)
	m = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 30})

	view := plainView(m)
	assert.Contains(t, view, "Robot:")
	assert.NotContains(t, view, "Controls")
}

func TestDashboard_ConfigReload(t *testing.T) {
	m, _ := newTestModel(t)

	cfg := config.Default()
	cfg.UI.Theme = "light"
	cfg.UI.ShowExamples = false
	m = update(t, m, ConfigReloadedMsg{Config: cfg})

	assert.Equal(t, "light", m.theme.Mode)
	assert.NotContains(t, plainView(m), control.ExamplePrompts[0])

	m = update(t, m, ConfigReloadedMsg{Err: errors.New("bad toml")})
	assert.Equal(t, "light", m.theme.Mode)
	assert.Contains(t, plainView(m), "Config reload failed")
}

func TestDashboard_CompactModeHidesControls(t *testing.T) {
	m, _ := newTestModel(t)
	m = mount(t, m)
	assert.Contains(t, plainView(m), "Controls")

	cfg := config.Default()
	cfg.UI.Theme = "dark"
	cfg.UI.CompactMode = true
	m = update(t, m, ConfigReloadedMsg{Config: cfg})

	assert.NotContains(t, plainView(m), "Controls")
	assert.Contains(t, plainView(m), "Robot Status")
}
