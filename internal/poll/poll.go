// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package poll keeps the store's robot status fresh.
//
// Start runs one init cycle (health, status and models fetched concurrently)
// and then fetches the robot status on a fixed interval until the returned
// Handle is closed. Init failures are surfaced through the store's error;
// tick failures are not, they are counted in Stats and logged instead.
package poll

import (
	"context"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/store"
)

// DefaultInterval is the status poll period.
const DefaultInterval = 5000 * time.Millisecond

// InitFailedMessage is shown when the init cycle fails without a message.
const InitFailedMessage = "Failed to connect to server"

// =============================================================================
// INTERFACES
// =============================================================================

// Source is the subset of the API client the poller needs.
type Source interface {
	Health(ctx context.Context) (*api.HealthResponse, error)
	RobotStatus(ctx context.Context) (*api.RobotStatus, error)
	Models(ctx context.Context) (*api.ModelInfo, error)
}

// Clock creates tickers. Tests substitute a manual clock.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realClock struct{}

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a poller. The zero value is usable.
type Options struct {
	// Interval between status fetches (default: 5000ms)
	Interval time.Duration

	// Clock used for the ticker (default: wall clock)
	Clock Clock

	// Logger for poll events (default: discard)
	Logger *log.Logger

	// OnPollFailure is called after every failed tick fetch, from the poll goroutine.
	OnPollFailure func(error)
}

func (o *Options) fillDefaults() {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Clock == nil {
		o.Clock = realClock{}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
}

// =============================================================================
// HANDLE
// =============================================================================

// Phase is the poller lifecycle state.
type Phase int32

const (
	PhaseInitializing Phase = iota
	PhaseReady
	PhaseUnmounted
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseReady:
		return "ready"
	case PhaseUnmounted:
		return "unmounted"
	default:
		return "unknown"
	}
}

// Stats counts tick outcomes. Init fetches are not included.
type Stats struct {
	Ticks     int
	Failures  int
	LastError error
}

// Handle owns a running poller.
type Handle struct {
	src   Source
	store *store.Store
	opts  Options

	cancel context.CancelFunc
	ready  chan struct{}
	done   chan struct{}
	once   sync.Once
	phase  atomic.Int32

	mu    sync.Mutex
	stats Stats
}

// Start launches the init cycle and the poll loop in the background.
// Cancelling ctx has the same effect as Close, except that Close also waits.
func Start(ctx context.Context, src Source, st *store.Store, opts Options) *Handle {
	opts.fillDefaults()
	ctx, cancel := context.WithCancel(ctx)

	h := &Handle{
		src:    src,
		store:  st,
		opts:   opts,
		cancel: cancel,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	h.phase.Store(int32(PhaseInitializing))

	go h.run(ctx)
	return h
}

// Close stops the poller and waits for it to exit. No store mutation
// happens after Close returns. Safe to call more than once.
func (h *Handle) Close() {
	h.once.Do(h.cancel)
	<-h.done
}

// Ready is closed once the init cycle has finished and the ticker runs.
// It is never closed if the poller is stopped during init.
func (h *Handle) Ready() <-chan struct{} {
	return h.ready
}

// Done is closed once the poller has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Phase returns the current lifecycle state.
func (h *Handle) Phase() Phase {
	return Phase(h.phase.Load())
}

// Interval returns the poll period in use.
func (h *Handle) Interval() time.Duration {
	return h.opts.Interval
}

// Stats returns a copy of the tick counters.
func (h *Handle) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// =============================================================================
// LOOP
// =============================================================================

func (h *Handle) run(ctx context.Context) {
	defer func() {
		h.phase.Store(int32(PhaseUnmounted))
		close(h.done)
	}()

	h.initialize(ctx)
	if ctx.Err() != nil {
		return
	}

	ticker := h.opts.Clock.NewTicker(h.opts.Interval)
	defer ticker.Stop()

	h.phase.Store(int32(PhaseReady))
	close(h.ready)
	h.opts.Logger.Printf("POLL_READY | interval=%s", h.opts.Interval)

	for {
		select {
		case <-ctx.Done():
			stats := h.Stats()
			h.opts.Logger.Printf("POLL_STOPPED | ticks=%d failures=%d", stats.Ticks, stats.Failures)
			return
		case <-ticker.C():
			h.tick(ctx)
		}
	}
}

// initialize fetches health, status and models concurrently and applies
// each successful result. The first failure becomes the UI error.
func (h *Handle) initialize(ctx context.Context) {
	h.store.SetLoading(true)
	defer h.store.SetLoading(false)

	var g errgroup.Group

	g.Go(func() error {
		health, err := h.src.Health(ctx)
		if err != nil {
			return err
		}
		if ctx.Err() == nil {
			h.store.SetConnected(health.Healthy())
		}
		return nil
	})

	g.Go(func() error {
		status, err := h.src.RobotStatus(ctx)
		if err != nil {
			return err
		}
		if ctx.Err() == nil {
			h.store.SetRobotStatus(status)
		}
		return nil
	})

	g.Go(func() error {
		models, err := h.src.Models(ctx)
		if err != nil {
			return err
		}
		if ctx.Err() == nil {
			h.store.SetCurrentModel(models.Current)
			h.store.SetAvailableModels(models.Available)
		}
		return nil
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		h.opts.Logger.Printf("POLL_INIT_FAILED | error=%v", err)
		h.store.SetError(api.Message(err, InitFailedMessage))
	}
}

// tick fetches the status once. Failures are recorded but never surfaced
// through the store.
func (h *Handle) tick(ctx context.Context) {
	status, err := h.src.RobotStatus(ctx)
	if ctx.Err() != nil {
		return
	}

	h.mu.Lock()
	h.stats.Ticks++
	if err != nil {
		h.stats.Failures++
		h.stats.LastError = err
	}
	h.mu.Unlock()

	if err != nil {
		h.opts.Logger.Printf("POLL_FAILURE | error=%v", err)
		if h.opts.OnPollFailure != nil {
			h.opts.OnPollFailure(err)
		}
		return
	}
	h.store.SetRobotStatus(status)
}
