// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/valetdash/internal/api"
)

func TestNew_Defaults(t *testing.T) {
	s := New()
	snap := s.Snapshot()

	assert.Nil(t, snap.RobotStatus)
	assert.Empty(t, snap.Messages)
	assert.Equal(t, "local", snap.CurrentModel)
	assert.Empty(t, snap.AvailableModels)
	assert.False(t, snap.IsLoading)
	assert.False(t, snap.IsChatLoading)
	assert.False(t, snap.HasError())
	assert.False(t, snap.Connected)
}

func TestNew_Independent(t *testing.T) {
	a, b := New(), New()
	a.SetCurrentModel("openai")

	if b.CurrentModel() != "local" {
		t.Errorf("CurrentModel = %q, want stores to be independent", b.CurrentModel())
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestAddMessage_PreservesOrder(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.AddMessage(api.NewUserMessage(fmt.Sprintf("msg %d", i)))
	}

	msgs := s.Messages()
	require.Len(t, msgs, 5)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("msg %d", i), m.Content)
	}
}

func TestAddMessage_NoDedup(t *testing.T) {
	s := New()
	s.AddMessage(api.NewUserMessage("same"))
	s.AddMessage(api.NewUserMessage("same"))
	s.AddMessage(api.ChatMessage{Role: api.RoleAssistant, Content: ""})

	assert.Len(t, s.Messages(), 3)
}

func TestClearMessages(t *testing.T) {
	s := New()
	s.AddMessage(api.NewUserMessage("a"))
	s.ClearMessages()

	msgs := s.Messages()
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestSetRobotStatus_ReplacesWholesale(t *testing.T) {
	s := New()
	s.SetRobotStatus(&api.RobotStatus{State: api.StateError, Battery: 30, Error: "Brush jammed"})
	s.SetRobotStatus(&api.RobotStatus{State: api.StateCleaning, Battery: 29})

	status := s.RobotStatus()
	require.NotNil(t, status)
	assert.Equal(t, api.StateCleaning, status.State)
	assert.Equal(t, 29, status.Battery)
	assert.Empty(t, status.Error, "previous robot error must not survive")
}

func TestSetRobotStatus_CopiesInput(t *testing.T) {
	s := New()
	in := &api.RobotStatus{State: api.StateDocked, Battery: 100}
	s.SetRobotStatus(in)
	in.Battery = 1

	assert.Equal(t, 100, s.RobotStatus().Battery)

	out := s.RobotStatus()
	out.Battery = 2
	assert.Equal(t, 100, s.RobotStatus().Battery)
}

// =============================================================================
// ERROR / FLAG TESTS
// =============================================================================

func TestSetError_LastWriterWins(t *testing.T) {
	s := New()
	s.SetError("first")
	s.SetError("second")
	assert.Equal(t, "second", s.ErrorMessage())

	s.ClearError()
	assert.Equal(t, "", s.ErrorMessage())
	assert.False(t, s.Snapshot().HasError())
}

func TestLoadingFlagsIndependent(t *testing.T) {
	s := New()
	s.SetLoading(true)
	s.SetIsChatLoading(true)
	s.SetLoading(false)

	assert.False(t, s.IsLoading())
	assert.True(t, s.IsChatLoading())
}

func TestConnected(t *testing.T) {
	s := New()
	s.SetConnected(true)
	assert.True(t, s.Connected())
}

// =============================================================================
// MODEL TESTS
// =============================================================================

func TestCurrentModelListed(t *testing.T) {
	s := New()
	assert.True(t, s.Snapshot().CurrentModelListed(), "empty list is unknown, not stale")

	s.SetAvailableModels([]string{"openai", "anthropic"})
	assert.False(t, s.Snapshot().CurrentModelListed())

	s.SetCurrentModel("anthropic")
	assert.True(t, s.Snapshot().CurrentModelListed())
}

func TestSetAvailableModels_KeepsOrderAndCopies(t *testing.T) {
	s := New()
	models := []string{"local", "openai", "google"}
	s.SetAvailableModels(models)
	models[0] = "changed"

	assert.Equal(t, []string{"local", "openai", "google"}, s.AvailableModels())
}

// =============================================================================
// SUBSCRIPTION TESTS
// =============================================================================

func TestSubscribe_NotifiedInOrder(t *testing.T) {
	s := New()
	var order []string
	s.Subscribe(func() { order = append(order, "a") })
	s.Subscribe(func() { order = append(order, "b") })

	s.SetError("x")

	assert.Equal(t, []string{"a", "b"}, order)
}

func TestSubscribe_SeesCompletedMutation(t *testing.T) {
	s := New()
	var seen string
	s.Subscribe(func() {
		// Reading inside the callback must not deadlock.
		seen = s.ErrorMessage()
	})

	s.SetError("boom")
	assert.Equal(t, "boom", seen)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	s := New()
	count := 0
	unsubscribe := s.Subscribe(func() { count++ })

	s.SetLoading(true)
	unsubscribe()
	unsubscribe()
	s.SetLoading(false)

	assert.Equal(t, 1, count)
}

func TestSubscribe_UnsubscribeFromCallback(t *testing.T) {
	s := New()
	count := 0
	var unsubscribe func()
	unsubscribe = s.Subscribe(func() {
		count++
		unsubscribe()
	})

	s.SetLoading(true)
	s.SetLoading(false)
	assert.Equal(t, 1, count)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := New()
	s.AddMessage(api.NewUserMessage("hi"))
	s.SetAvailableModels([]string{"local"})

	snap := s.Snapshot()
	snap.Messages[0].Content = "changed"
	snap.AvailableModels[0] = "changed"

	assert.Equal(t, "hi", s.Messages()[0].Content)
	assert.Equal(t, "local", s.AvailableModels()[0])
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	s.Subscribe(func() { _ = s.Snapshot() })

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.AddMessage(api.NewUserMessage(fmt.Sprintf("%d", n)))
			s.SetRobotStatus(&api.RobotStatus{State: api.StateIdle, Battery: n})
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Messages(), 20)
}
