// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package dashboard implements the Bubble Tea root model for valetdash.

# Lifecycle

Init mounts the dashboard: it subscribes to the store and starts the poll
controller. Quitting unmounts it by closing the poll handle exactly once.
Close may also be called by the owner after the program exits; it is
idempotent.

# Store Bridge

Store subscribers run on whichever goroutine mutated the store. The bridge
collapses those notifications into a single-slot channel and a tea.Cmd turns
each one into a storeChangedMsg, so Update re-snapshots the store at most
once per pending change. View only reads the last snapshot.

# Actions

User actions (chat, robot commands, model switch, history clear, refresh)
run as tea.Cmds that call the control package. Their results come back as
messages; the store changes they cause arrive through the bridge.

# Key Bindings

	enter        send chat message
	F1-F5        start / stop / pause / return to dock / locate
	ctrl+n/p     select next / previous model
	ctrl+s       switch to the selected model
	ctrl+r       refresh robot status
	ctrl+l       clear chat history
	esc, ctrl+x  dismiss error
	pgup/pgdown  scroll transcript
	ctrl+c       quit
*/
package dashboard
