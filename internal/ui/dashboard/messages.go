// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/config"
)

// =============================================================================
// STORE MESSAGES
// =============================================================================

// storeChangedMsg signals that the store changed since the last snapshot.
type storeChangedMsg struct{}

// =============================================================================
// ACTION RESULTS
// =============================================================================

// chatDoneMsg carries the result of a chat submission.
type chatDoneMsg struct {
	text string
	err  error
}

// commandDoneMsg carries the result of a robot command.
type commandDoneMsg struct {
	command api.RobotCommand
	ack     *api.Ack
	err     error
}

// switchDoneMsg carries the result of a model switch.
type switchDoneMsg struct {
	model string
	err   error
}

// clearDoneMsg carries the result of a history clear.
type clearDoneMsg struct {
	err error
}

// refreshDoneMsg carries the result of a manual status refresh.
type refreshDoneMsg struct {
	err error
}

// =============================================================================
// EXTERNAL MESSAGES
// =============================================================================

// ConfigReloadedMsg is sent by the owner when the config file changed on
// disk. Err is set if the new file could not be loaded.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}
