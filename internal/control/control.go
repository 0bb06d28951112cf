// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package control implements the user-initiated dashboard actions.
//
// A Controller turns chat submissions, history clears, model switches and
// robot commands into API calls and records their outcome in the store.
// Nothing here is cancelled when the UI goes away; late results land in
// the store and are simply never rendered.
package control

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/store"
)

// User-facing fallbacks used when an error carries no message.
const (
	ChatFailedMessage    = "Failed to get a response"
	ChatFallbackReply    = "Sorry, an error occurred while processing your request."
	ClearFailedMessage   = "Failed to clear history"
	SwitchFailedMessage  = "Failed to switch model"
	CommandFailedMessage = "Failed to execute command"
	StatusFailedMessage  = "Failed to fetch robot status"
)

// Errors returned for rejected actions. None of them touch the store except
// ErrRateLimited, which is also shown to the user.
var (
	ErrEmptyMessage      = errors.New("message is empty")
	ErrChatBusy          = errors.New("a chat request is already in progress")
	ErrSwitchInProgress  = errors.New("a model switch is already in progress")
	ErrCommandInProgress = errors.New("a robot command is already in progress")
	ErrRateLimited       = errors.New("too many robot commands, slow down")
)

// ExamplePrompts are suggested when the transcript is empty.
var ExamplePrompts = []string{
	"Clean the living room",
	"What's the battery level?",
	"Go back to the dock",
}

// =============================================================================
// INTERFACES
// =============================================================================

// API is the subset of the API client the controller calls.
type API interface {
	Chat(ctx context.Context, message string) (*api.ChatResponse, error)
	ClearHistory(ctx context.Context) (*api.Ack, error)
	SwitchModel(ctx context.Context, model string) (*api.Ack, error)
	Command(ctx context.Context, cmd api.RobotCommand) (*api.Ack, error)
	RobotStatus(ctx context.Context) (*api.RobotStatus, error)
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Controller.
type Options struct {
	// CommandInterval is the minimum spacing between robot commands once
	// the burst is spent (default: 1s). Negative disables limiting.
	CommandInterval time.Duration

	// CommandBurst is how many commands may be sent back to back (default: 3)
	CommandBurst int

	// Logger for action events (default: discard)
	Logger *log.Logger
}

// DefaultOptions returns the default controller options.
func DefaultOptions() Options {
	return Options{
		CommandInterval: time.Second,
		CommandBurst:    3,
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs user actions against the API and the store.
type Controller struct {
	api    API
	store  *store.Store
	logger *log.Logger

	chatMu      sync.Mutex
	switching   atomic.Bool
	commandBusy atomic.Bool
	limiter     *rate.Limiter
}

// New creates a controller.
func New(client API, st *store.Store, opts Options) *Controller {
	defaults := DefaultOptions()
	if opts.CommandInterval == 0 {
		opts.CommandInterval = defaults.CommandInterval
	}
	if opts.CommandBurst <= 0 {
		opts.CommandBurst = defaults.CommandBurst
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	limit := rate.Every(opts.CommandInterval)
	if opts.CommandInterval < 0 {
		limit = rate.Inf
	}

	return &Controller{
		api:     client,
		store:   st,
		logger:  opts.Logger,
		limiter: rate.NewLimiter(limit, opts.CommandBurst),
	}
}

// Store returns the store the controller writes to.
func (c *Controller) Store() *store.Store {
	return c.store
}

// =============================================================================
// CHAT
// =============================================================================

// SubmitChat sends text to the assistant. Blank input and submissions made
// while a reply is pending are rejected without touching the store. On
// failure the error is shown and a fallback reply is appended.
func (c *Controller) SubmitChat(ctx context.Context, text string) error {
	message := strings.TrimSpace(text)
	if message == "" {
		return ErrEmptyMessage
	}

	c.chatMu.Lock()
	if c.store.IsChatLoading() {
		c.chatMu.Unlock()
		return ErrChatBusy
	}
	c.store.AddMessage(api.NewUserMessage(message))
	c.store.SetIsChatLoading(true)
	c.store.ClearError()
	c.chatMu.Unlock()

	defer c.store.SetIsChatLoading(false)

	resp, err := c.api.Chat(ctx, message)
	if err != nil {
		c.logger.Printf("CHAT_FAILED | error=%v", err)
		c.store.SetError(api.Message(err, ChatFailedMessage))
		c.store.AddMessage(api.NewAssistantMessage(ChatFallbackReply))
		return err
	}

	c.logger.Printf("CHAT_OK | model=%s intent=%s", resp.ModelUsed, resp.Intent)
	c.store.AddMessage(api.NewAssistantMessage(resp.Response))
	return nil
}

// ClearHistory clears the server-side conversation and, only if that
// succeeds, the local transcript.
func (c *Controller) ClearHistory(ctx context.Context) error {
	if _, err := c.api.ClearHistory(ctx); err != nil {
		c.logger.Printf("CLEAR_HISTORY_FAILED | error=%v", err)
		c.store.SetError(api.Message(err, ClearFailedMessage))
		return err
	}
	c.store.ClearMessages()
	return nil
}

// =============================================================================
// MODELS
// =============================================================================

// SwitchModel routes chat to model. Selecting the active model is a no-op.
// The store only changes after the server accepts the switch.
func (c *Controller) SwitchModel(ctx context.Context, model string) error {
	if model == c.store.CurrentModel() {
		return nil
	}
	if !c.switching.CompareAndSwap(false, true) {
		return ErrSwitchInProgress
	}
	defer c.switching.Store(false)

	c.store.ClearError()
	if _, err := c.api.SwitchModel(ctx, model); err != nil {
		c.logger.Printf("SWITCH_MODEL_FAILED | model=%s error=%v", model, err)
		c.store.SetError(api.Message(err, SwitchFailedMessage))
		return err
	}

	c.logger.Printf("SWITCH_MODEL | model=%s", model)
	c.store.SetCurrentModel(model)
	return nil
}

// IsSwitching reports whether a model switch is in flight.
func (c *Controller) IsSwitching() bool {
	return c.switching.Load()
}

// =============================================================================
// ROBOT
// =============================================================================

// RunCommand sends a robot command. Only one command may be in flight, and
// bursts beyond the configured rate are refused without a request.
func (c *Controller) RunCommand(ctx context.Context, cmd api.RobotCommand) (*api.Ack, error) {
	if !c.commandBusy.CompareAndSwap(false, true) {
		return nil, ErrCommandInProgress
	}
	defer c.commandBusy.Store(false)

	if !c.limiter.Allow() {
		c.logger.Printf("COMMAND_RATE_LIMITED | command=%s", cmd)
		c.store.SetError(ErrRateLimited.Error())
		return nil, ErrRateLimited
	}

	c.store.ClearError()
	ack, err := c.api.Command(ctx, cmd)
	if err != nil {
		c.logger.Printf("COMMAND_FAILED | command=%s error=%v", cmd, err)
		c.store.SetError(api.Message(err, CommandFailedMessage))
		return nil, err
	}

	c.logger.Printf("COMMAND_OK | command=%s", cmd)
	return ack, nil
}

// IsCommandRunning reports whether a robot command is in flight.
func (c *Controller) IsCommandRunning() bool {
	return c.commandBusy.Load()
}

// RefreshStatus fetches the robot status on demand. Unlike the poll tick,
// a failure here is shown to the user.
func (c *Controller) RefreshStatus(ctx context.Context) error {
	status, err := c.api.RobotStatus(ctx)
	if err != nil {
		c.store.SetError(api.Message(err, StatusFailedMessage))
		return err
	}
	c.store.SetRobotStatus(status)
	return nil
}
