// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the robot automation REST API.
//
// The automation layer sits between valetdash and the vacuum (Valetudo) and
// also fronts the AI backends. Every endpoint lives under a single base path,
// /api/v1 by default, and speaks JSON.
//
// # Key Types
//
//   - Client: typed wrapper with one method per remote operation
//   - RobotStatus: state, battery and optional robot-reported error
//   - ChatMessage, ChatRequest, ChatResponse: AI chat surface
//   - ModelInfo: current and available AI backends
//   - ClientError: classified transport/HTTP failure
//
// # Usage
//
//	client := api.NewClient()
//	status, err := client.RobotStatus(ctx)
//	if err != nil {
//	    if api.IsTimeout(err) {
//	        // the automation layer did not answer in time
//	    }
//	}
//
// The client owns no state: every call is a one-shot request, and a failed
// call has no effect on anything held by the caller. Robot commands are not
// idempotent against the physical robot even though the HTTP calls are.
package api
