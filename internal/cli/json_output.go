// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - Machine-readable output for --json.
//
// Every command emits the same envelope so scripts can check "success"
// without knowing the command.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/valetdash/internal/api"
)

// JSONResponse is the envelope for all --json output.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is when the response was generated (RFC 3339, UTC)
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates an error response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := errorText(err)
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// =============================================================================
// COMMAND DATA
// =============================================================================

// StatusData is the --json payload of "status".
type StatusData struct {
	State   string `json:"state"`
	Label   string `json:"label"`
	Battery int    `json:"battery"`
	Error   string `json:"error,omitempty"`
}

// NewStatusData converts a robot status.
func NewStatusData(s *api.RobotStatus) StatusData {
	return StatusData{
		State:   s.State,
		Label:   stateLabel(s.State),
		Battery: s.Battery,
		Error:   s.Error,
	}
}

// CommandData is the --json payload of robot commands.
type CommandData struct {
	Command string `json:"command"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}

// AskData is the --json payload of "ask".
type AskData struct {
	Response  string `json:"response"`
	ModelUsed string `json:"model_used"`
	Intent    string `json:"intent,omitempty"`
}

// ModelsData is the --json payload of "models".
type ModelsData struct {
	Current   string   `json:"current"`
	Available []string `json:"available"`
	Listed    bool     `json:"current_listed"`
}

// SwitchData is the --json payload of "models switch".
type SwitchData struct {
	Previous string `json:"previous"`
	Current  string `json:"current"`
	Changed  bool   `json:"changed"`
}

// HistoryData is the --json payload of "history".
type HistoryData struct {
	Count    int               `json:"count"`
	Messages []api.ChatMessage `json:"messages"`
}

// ConfigData is the --json payload of "config get" and "config set".
type ConfigData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
	Path  string      `json:"path,omitempty"`
}

// VersionData is the --json payload of "version".
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}
