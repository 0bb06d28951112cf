// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jeranaias/valetdash/internal/api"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the dashboard.
type KeyMap struct {
	Send         key.Binding
	DismissError key.Binding
	NextModel    key.Binding
	PrevModel    key.Binding
	SwitchModel  key.Binding
	Refresh      key.Binding
	ClearHistory key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	Quit         key.Binding

	Start  key.Binding
	Stop   key.Binding
	Pause  key.Binding
	Home   key.Binding
	Locate key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		DismissError: key.NewBinding(
			key.WithKeys("esc", "ctrl+x"),
			key.WithHelp("esc", "dismiss error"),
		),
		NextModel: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("^n", "next model"),
		),
		PrevModel: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("^p", "previous model"),
		),
		SwitchModel: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("^s", "switch model"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("^r", "refresh status"),
		),
		ClearHistory: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("^l", "clear history"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("^c", "quit"),
		),
		Start: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "start cleaning"),
		),
		Stop: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "stop"),
		),
		Pause: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("F3", "pause"),
		),
		Home: key.NewBinding(
			key.WithKeys("f4"),
			key.WithHelp("F4", "return to dock"),
		),
		Locate: key.NewBinding(
			key.WithKeys("f5"),
			key.WithHelp("F5", "locate"),
		),
	}
}

// commandBindings pairs robot commands with their bindings.
func (k KeyMap) commandBindings() []struct {
	binding key.Binding
	command api.RobotCommand
} {
	return []struct {
		binding key.Binding
		command api.RobotCommand
	}{
		{k.Start, api.CommandStart},
		{k.Stop, api.CommandStop},
		{k.Pause, api.CommandPause},
		{k.Home, api.CommandHome},
		{k.Locate, api.CommandLocate},
	}
}
