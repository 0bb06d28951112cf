// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/api/apitest"
	"github.com/jeranaias/valetdash/internal/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// manualClock hands out tickers that only fire on Advance.
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

type manualTicker struct {
	c       chan time.Time
	period  time.Duration
	elapsed time.Duration
	stopped chan struct{}
	once    sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.c }
func (t *manualTicker) Stop()               { t.once.Do(func() { close(t.stopped) }) }

func (c *manualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{c: make(chan time.Time), period: d, stopped: make(chan struct{})}
	c.tickers = append(c.tickers, t)
	return t
}

// Advance moves time forward, delivering every tick that falls due. Each
// delivery blocks until the poll loop takes it or the ticker is stopped.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	tickers := append([]*manualTicker(nil), c.tickers...)
	c.mu.Unlock()

	for _, t := range tickers {
		t.elapsed += d
		for t.elapsed >= t.period {
			t.elapsed -= t.period
			select {
			case t.c <- time.Time{}:
			case <-t.stopped:
				t.elapsed = 0
			}
		}
	}
}

// fakeSource is a scripted Source.
type fakeSource struct {
	healthErr error
	modelsErr error

	mu        sync.Mutex
	statusErr error
	status    api.RobotStatus

	healthCalls atomic.Int32
	statusCalls atomic.Int32
	modelsCalls atomic.Int32

	block chan struct{} // when set, Health waits on it or ctx
}

func newFakeSource() *fakeSource {
	return &fakeSource{status: api.RobotStatus{State: api.StateDocked, Battery: 90}}
}

func (f *fakeSource) Health(ctx context.Context) (*api.HealthResponse, error) {
	f.healthCalls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return &api.HealthResponse{Status: "healthy"}, nil
}

func (f *fakeSource) RobotStatus(ctx context.Context) (*api.RobotStatus, error) {
	f.statusCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	s := f.status
	return &s, nil
}

func (f *fakeSource) Models(ctx context.Context) (*api.ModelInfo, error) {
	f.modelsCalls.Add(1)
	if f.modelsErr != nil {
		return nil, f.modelsErr
	}
	return &api.ModelInfo{Current: "openai", Available: []string{"local", "openai"}}, nil
}

func (f *fakeSource) setStatus(status api.RobotStatus, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.statusErr = err
}

func waitReady(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not become ready")
	}
}

// =============================================================================
// INIT TESTS
// =============================================================================

func TestStart_InitCycle(t *testing.T) {
	src := newFakeSource()
	st := store.New()
	clock := &manualClock{}

	h := Start(context.Background(), src, st, Options{Clock: clock})
	defer h.Close()
	waitReady(t, h)

	assert.Equal(t, int32(1), src.healthCalls.Load())
	assert.Equal(t, int32(1), src.statusCalls.Load())
	assert.Equal(t, int32(1), src.modelsCalls.Load())

	snap := st.Snapshot()
	assert.True(t, snap.Connected)
	require.NotNil(t, snap.RobotStatus)
	assert.Equal(t, 90, snap.RobotStatus.Battery)
	assert.Equal(t, "openai", snap.CurrentModel)
	assert.Equal(t, []string{"local", "openai"}, snap.AvailableModels)
	assert.False(t, snap.IsLoading)
	assert.False(t, snap.HasError())
	assert.Equal(t, PhaseReady, h.Phase())
}

func TestStart_InitFailureSurfacesOnce(t *testing.T) {
	src := newFakeSource()
	src.modelsErr = &api.ClientError{Type: api.ErrTypeHTTPStatus, Message: "AI manager not ready", StatusCode: 503}
	st := store.New()

	h := Start(context.Background(), src, st, Options{Clock: &manualClock{}})
	defer h.Close()
	waitReady(t, h)

	snap := st.Snapshot()
	assert.Equal(t, "AI manager not ready", snap.Error)
	// The successful fetches are still applied
	require.NotNil(t, snap.RobotStatus)
	assert.True(t, snap.Connected)
	assert.Equal(t, "local", snap.CurrentModel)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, PhaseReady, h.Phase())
}

func TestStart_InitFailureFallbackMessage(t *testing.T) {
	src := newFakeSource()
	src.healthErr = &api.ClientError{Type: api.ErrTypeConnection}
	st := store.New()

	h := Start(context.Background(), src, st, Options{Clock: &manualClock{}})
	defer h.Close()
	waitReady(t, h)

	assert.Equal(t, InitFailedMessage, st.ErrorMessage())
}

func TestStart_DegradedHealth(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.SetHealth(api.HealthResponse{Status: "degraded", Valetudo: "disconnected"})
	st := store.New()

	h := Start(context.Background(), srv.Client(), st, Options{Clock: &manualClock{}})
	defer h.Close()
	waitReady(t, h)

	assert.False(t, st.Connected())
	assert.False(t, st.Snapshot().HasError())
}

// =============================================================================
// TICK TESTS
// =============================================================================

func TestPoll_FifteenSecondsThreeFetches(t *testing.T) {
	srv := apitest.NewServer(t)
	st := store.New()
	clock := &manualClock{}

	h := Start(context.Background(), srv.Client(), st, Options{Clock: clock})
	defer h.Close()
	waitReady(t, h)

	require.Equal(t, 1, srv.Calls(apitest.RouteHealth))
	require.Equal(t, 1, srv.Calls(apitest.RouteStatus))
	require.Equal(t, 1, srv.Calls(apitest.RouteModels))

	clock.Advance(15 * time.Second)

	require.Eventually(t, func() bool { return h.Stats().Ticks == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 4, srv.Calls(apitest.RouteStatus), "one init fetch plus three ticks")
	assert.Equal(t, 1, srv.Calls(apitest.RouteHealth))
	assert.Equal(t, 1, srv.Calls(apitest.RouteModels))
}

func TestPoll_DefaultInterval(t *testing.T) {
	clock := &manualClock{}
	h := Start(context.Background(), newFakeSource(), store.New(), Options{Clock: clock})
	defer h.Close()
	waitReady(t, h)

	assert.Equal(t, 5000*time.Millisecond, h.Interval())

	clock.Advance(4999 * time.Millisecond)
	assert.Equal(t, 0, h.Stats().Ticks)

	clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return h.Stats().Ticks == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestPoll_TickReplacesStatus(t *testing.T) {
	src := newFakeSource()
	src.status = api.RobotStatus{State: api.StateError, Battery: 50, Error: "Wheel stuck"}
	st := store.New()
	clock := &manualClock{}

	h := Start(context.Background(), src, st, Options{Clock: clock})
	defer h.Close()
	waitReady(t, h)
	require.Equal(t, "Wheel stuck", st.RobotStatus().Error)

	src.setStatus(api.RobotStatus{State: api.StateCleaning, Battery: 49}, nil)
	clock.Advance(5 * time.Second)

	require.Eventually(t, func() bool { return h.Stats().Ticks == 1 }, 2*time.Second, 5*time.Millisecond)
	status := st.RobotStatus()
	assert.Equal(t, api.StateCleaning, status.State)
	assert.Empty(t, status.Error)
}

func TestPoll_TickFailureSwallowed(t *testing.T) {
	src := newFakeSource()
	st := store.New()
	clock := &manualClock{}

	var hookErrs atomic.Int32
	h := Start(context.Background(), src, st, Options{
		Clock:         clock,
		OnPollFailure: func(error) { hookErrs.Add(1) },
	})
	defer h.Close()
	waitReady(t, h)

	st.SetError("Failed to switch model")
	before := st.RobotStatus()
	pollErr := errors.New("connection reset")
	src.setStatus(api.RobotStatus{}, pollErr)
	clock.Advance(10 * time.Second)

	require.Eventually(t, func() bool { return h.Stats().Ticks == 2 }, 2*time.Second, 5*time.Millisecond)
	stats := h.Stats()
	assert.Equal(t, 2, stats.Failures)
	assert.Equal(t, pollErr, stats.LastError)
	assert.Equal(t, int32(2), hookErrs.Load())
	assert.Equal(t, "Failed to switch model", st.ErrorMessage(), "tick failures leave the error as it was")
	assert.Equal(t, before, st.RobotStatus(), "status left untouched")

	st.ClearError()
	clock.Advance(5 * time.Second)
	require.Eventually(t, func() bool { return h.Stats().Ticks == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "", st.ErrorMessage(), "an empty error stays empty")
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestClose_StopsFetches(t *testing.T) {
	srv := apitest.NewServer(t)
	clock := &manualClock{}

	h := Start(context.Background(), srv.Client(), store.New(), Options{Clock: clock})
	waitReady(t, h)

	clock.Advance(5 * time.Second)
	require.Eventually(t, func() bool { return h.Stats().Ticks == 1 }, 2*time.Second, 5*time.Millisecond)

	h.Close()
	assert.Equal(t, PhaseUnmounted, h.Phase())

	clock.Advance(10 * time.Second)
	assert.Equal(t, 2, srv.Calls(apitest.RouteStatus), "no fetches after close")
}

func TestClose_Idempotent(t *testing.T) {
	h := Start(context.Background(), newFakeSource(), store.New(), Options{Clock: &manualClock{}})
	waitReady(t, h)

	h.Close()
	h.Close()

	select {
	case <-h.Done():
	default:
		t.Error("Done should be closed after Close")
	}
}

func TestClose_DuringInit(t *testing.T) {
	src := newFakeSource()
	src.block = make(chan struct{})
	st := store.New()

	h := Start(context.Background(), src, st, Options{Clock: &manualClock{}})
	require.Eventually(t, func() bool { return src.healthCalls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, PhaseInitializing, h.Phase())

	h.Close()

	assert.Equal(t, PhaseUnmounted, h.Phase())
	assert.False(t, st.Connected(), "late health result is dropped")
	select {
	case <-h.Ready():
		t.Error("Ready should not close when stopped during init")
	default:
	}
}

func TestClose_NoMutationAfterReturn(t *testing.T) {
	src := newFakeSource()
	st := store.New()
	clock := &manualClock{}

	h := Start(context.Background(), src, st, Options{Clock: clock})
	waitReady(t, h)
	h.Close()

	var mutations atomic.Int32
	st.Subscribe(func() { mutations.Add(1) })
	clock.Advance(30 * time.Second)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int32(0), mutations.Load())
}

func TestStart_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := Start(ctx, newFakeSource(), store.New(), Options{Clock: &manualClock{}})
	waitReady(t, h)

	cancel()

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on parent cancel")
	}
	h.Close()
}

func TestPhase_String(t *testing.T) {
	tests := map[Phase]string{
		PhaseInitializing: "initializing",
		PhaseReady:        "ready",
		PhaseUnmounted:    "unmounted",
		Phase(9):          "unknown",
	}
	for phase, want := range tests {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}
