// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "encoding/json"

// =============================================================================
// ROBOT TYPES
// =============================================================================

// Robot states reported by the automation layer. Unknown values are passed
// through untouched.
const (
	StateCleaning  = "cleaning"
	StateDocked    = "docked"
	StateIdle      = "idle"
	StateReturning = "returning"
	StatePaused    = "paused"
	StateError     = "error"
)

// RobotStatus is the current robot status from GET /robot/status.
type RobotStatus struct {
	State   string `json:"state"`
	Battery int    `json:"battery"`         // Percentage, 0-100
	Error   string `json:"error,omitempty"` // Robot-reported problem, empty when healthy
}

// HasError reports whether the robot itself reported a problem.
func (s *RobotStatus) HasError() bool {
	return s != nil && s.Error != ""
}

// Descriptor is a free-form JSON document such as /robot/info or
// /robot/capabilities. The shape is owned by the automation layer.
type Descriptor json.RawMessage

// MarshalJSON keeps the raw document intact.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return []byte(d), nil
}

// UnmarshalJSON stores a copy of the raw document.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	*d = append((*d)[:0], data...)
	return nil
}

// Fields decodes the descriptor as a JSON object.
// Returns an error if the document is not an object.
func (d Descriptor) Fields() (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(d, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Indent returns the descriptor pretty-printed with two-space indentation.
func (d Descriptor) Indent() string {
	var v any
	if err := json.Unmarshal(d, &v); err != nil {
		return string(d)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(d)
	}
	return string(out)
}

// RobotCommand is a fire-and-forget robot action.
type RobotCommand string

const (
	CommandStart  RobotCommand = "start"
	CommandStop   RobotCommand = "stop"
	CommandPause  RobotCommand = "pause"
	CommandHome   RobotCommand = "home"
	CommandLocate RobotCommand = "locate"
)

// AllCommands lists the robot commands in display order.
var AllCommands = []RobotCommand{CommandStart, CommandStop, CommandPause, CommandHome, CommandLocate}

// ParseCommand converts user input into a RobotCommand.
func ParseCommand(s string) (RobotCommand, bool) {
	switch s {
	case "start", "clean":
		return CommandStart, true
	case "stop":
		return CommandStop, true
	case "pause":
		return CommandPause, true
	case "home", "dock", "return":
		return CommandHome, true
	case "locate", "find":
		return CommandLocate, true
	}
	return "", false
}

// Valid reports whether c is one of the known commands.
func (c RobotCommand) Valid() bool {
	for _, known := range AllCommands {
		if c == known {
			return true
		}
	}
	return false
}

// path returns the endpoint for the command relative to the API root.
func (c RobotCommand) path() string {
	return "/robot/" + string(c)
}

// =============================================================================
// AI TYPES
// =============================================================================

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single transcript entry.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// ChatRequest is the request body for POST /chat.
type ChatRequest struct {
	Message        string `json:"message"`
	IncludeContext bool   `json:"include_context"` // Attach robot state to the prompt
}

// NewChatRequest creates a chat request with robot context enabled.
func NewChatRequest(message string) ChatRequest {
	return ChatRequest{Message: message, IncludeContext: true}
}

// ChatResponse is the response from POST /chat.
type ChatResponse struct {
	Response  string `json:"response"`
	ModelUsed string `json:"model_used"`
	Intent    string `json:"intent,omitempty"` // Detected robot command, if any
}

// ModelInfo is the response from GET /ai/models.
type ModelInfo struct {
	Current   string   `json:"current"`
	Available []string `json:"available"`
}

// SwitchModelRequest is the request body for POST /ai/switch-model.
type SwitchModelRequest struct {
	Model string `json:"model"`
}

// =============================================================================
// GENERIC RESPONSES
// =============================================================================

// HealthResponse is the response from GET /health.
type HealthResponse struct {
	Status          string   `json:"status"`                     // "healthy" or "degraded"
	Valetudo        string   `json:"valetudo,omitempty"`         // "connected" / "disconnected"
	AI              string   `json:"ai,omitempty"`               // "available" / "unavailable"
	AvailableModels []string `json:"available_models,omitempty"` // Models the AI manager can reach
}

// Healthy reports whether the automation layer considers itself fully up.
func (h *HealthResponse) Healthy() bool {
	return h != nil && h.Status == "healthy"
}

// Ack is the acknowledgement returned by command endpoints. All fields are
// optional; an empty body decodes to a zero Ack.
type Ack struct {
	Status       string `json:"status,omitempty"`
	Message      string `json:"message,omitempty"`
	CurrentModel string `json:"current_model,omitempty"`
}

// errorBody is the FastAPI error envelope.
type errorBody struct {
	Detail any `json:"detail"`
}
