// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// DefaultBaseURL is the automation API root on a default install.
// Uses explicit IPv4 address instead of localhost to avoid IPv6 resolution surprises.
const DefaultBaseURL = "http://127.0.0.1:8000/api/v1"

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 64 * 1024

// ClientConfig holds configuration options for the API client.
type ClientConfig struct {
	// BaseURL is the API root including the version prefix (default: http://127.0.0.1:8000/api/v1)
	BaseURL string

	// Timeout for every request (default: 30s)
	Timeout time.Duration

	// UserAgent sent with every request (default: "valetdash")
	UserAgent string

	// HTTPClient overrides the transport, mostly for tests. Timeout is still applied.
	HTTPClient *http.Client

	// OmitContext stops Chat from asking the server to attach robot state
	OmitContext bool

	// Logger receives one line per request (default: discard)
	Logger *log.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		UserAgent: "valetdash",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client issues typed requests against the automation REST API.
//
// The Client is safe for concurrent use and holds no session state.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = "valetdash"
	}
	if config.Logger == nil {
		config.Logger = log.New(io.Discard, "", 0)
	}

	httpClient := &http.Client{Timeout: config.Timeout}
	if config.HTTPClient != nil {
		clone := *config.HTTPClient
		clone.Timeout = config.Timeout
		httpClient = &clone
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.config.Timeout
}

// =============================================================================
// HEALTH
// =============================================================================

// Health checks liveness of the automation layer and its dependencies.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var result HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// ROBOT
// =============================================================================

// RobotStatus retrieves the current robot status.
func (c *Client) RobotStatus(ctx context.Context) (*RobotStatus, error) {
	var result RobotStatus
	if err := c.do(ctx, http.MethodGet, "/robot/status", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RobotInfo retrieves the static robot descriptor.
func (c *Client) RobotInfo(ctx context.Context) (Descriptor, error) {
	var result Descriptor
	if err := c.do(ctx, http.MethodGet, "/robot/info", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Capabilities retrieves the robot capability descriptor.
func (c *Client) Capabilities(ctx context.Context) (Descriptor, error) {
	var result Descriptor
	if err := c.do(ctx, http.MethodGet, "/robot/capabilities", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Command sends a robot command. The request has no body.
func (c *Client) Command(ctx context.Context, cmd RobotCommand) (*Ack, error) {
	if !cmd.Valid() {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "unknown robot command: " + string(cmd)}
	}
	var ack Ack
	if err := c.do(ctx, http.MethodPost, cmd.path(), nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// Start begins a full cleaning run.
func (c *Client) Start(ctx context.Context) (*Ack, error) {
	return c.Command(ctx, CommandStart)
}

// Stop stops the current run.
func (c *Client) Stop(ctx context.Context) (*Ack, error) {
	return c.Command(ctx, CommandStop)
}

// Pause pauses the current run.
func (c *Client) Pause(ctx context.Context) (*Ack, error) {
	return c.Command(ctx, CommandPause)
}

// ReturnHome sends the robot back to its dock.
func (c *Client) ReturnHome(ctx context.Context) (*Ack, error) {
	return c.Command(ctx, CommandHome)
}

// Locate makes the robot play its locate sound.
func (c *Client) Locate(ctx context.Context) (*Ack, error) {
	return c.Command(ctx, CommandLocate)
}

// =============================================================================
// AI
// =============================================================================

// Chat sends a message to the active AI backend with robot context attached.
func (c *Client) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	req := NewChatRequest(message)
	req.IncludeContext = !c.config.OmitContext
	return c.ChatWithOptions(ctx, req)
}

// ChatWithOptions sends a chat request as given.
func (c *Client) ChatWithOptions(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var result ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Models lists the current and available AI backends.
func (c *Client) Models(ctx context.Context) (*ModelInfo, error) {
	var result ModelInfo
	if err := c.do(ctx, http.MethodGet, "/ai/models", nil, &result); err != nil {
		return nil, err
	}
	if result.Available == nil {
		result.Available = []string{}
	}
	return &result, nil
}

// SwitchModel asks the automation layer to route chat to another backend.
func (c *Client) SwitchModel(ctx context.Context, model string) (*Ack, error) {
	var ack Ack
	if err := c.do(ctx, http.MethodPost, "/ai/switch-model", SwitchModelRequest{Model: model}, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// ClearHistory discards the server-side conversation.
func (c *Client) ClearHistory(ctx context.Context) (*Ack, error) {
	var ack Ack
	if err := c.do(ctx, http.MethodPost, "/ai/clear-history", nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// History returns the server-side conversation in order.
func (c *Client) History(ctx context.Context) ([]ChatMessage, error) {
	var result []ChatMessage
	if err := c.do(ctx, http.MethodGet, "/ai/history", nil, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = []ChatMessage{}
	}
	return result, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs a JSON request and decodes the response into out.
// A nil body sends no payload; an empty response body leaves out untouched.
// An *Ack out accepts any 2xx body, decoding it when it is JSON.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = classifyTransportError(ctx, err)
		c.config.Logger.Printf("API_ERROR | method=%s path=%s request_id=%s duration=%s error=%q",
			method, path, requestID, time.Since(start).Round(time.Millisecond), err)
		return err
	}
	defer drainAndClose(resp.Body)
	c.config.Logger.Printf("API_REQUEST | method=%s path=%s request_id=%s status=%d duration=%s",
		method, path, requestID, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		// Acknowledgement endpoints succeed on any 2xx; the body is informational.
		if ack, ok := out.(*Ack); ok {
			*ack = Ack{}
			c.config.Logger.Printf("API_ACK_UNPARSED | method=%s path=%s request_id=%s error=%q",
				method, path, requestID, err)
			return nil
		}
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// statusError builds a ClientError for a non-2xx response, preferring the
// server-provided detail message.
func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message := fmt.Sprintf("request failed with status code %d", resp.StatusCode)
	var envelope errorBody
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Detail != nil {
		switch detail := envelope.Detail.(type) {
		case string:
			if detail != "" {
				message = detail
			}
		default:
			// Validation errors arrive as a list of objects
			if encoded, err := json.Marshal(detail); err == nil {
				message = message + ": " + string(encoded)
			}
		}
	}

	return &ClientError{
		Type:       ErrTypeHTTPStatus,
		Message:    message,
		StatusCode: resp.StatusCode,
	}
}

// classifyTransportError maps net/http failures onto the client error taxonomy.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return &ClientError{Type: ErrTypeCanceled, Message: "request canceled", Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: "cannot reach automation API", Cause: err}
}

// isTimeout reports whether err carries a net.Error style timeout.
func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// Helper to drain response body so the connection can be reused
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
