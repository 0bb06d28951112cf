// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the dashboard's application state.
//
// A Store owns the robot status, chat transcript, model selection, the
// current UI error and the loading flags. Every mutation is synchronous;
// subscribers are told about it after the lock is released, in the order
// they subscribed, so they may read the store from inside the callback.
//
// Usage:
//
//	s := store.New()
//	unsubscribe := s.Subscribe(func() { render(s.Snapshot()) })
//	defer unsubscribe()
//	s.AddMessage(api.NewUserMessage("hello"))
package store

import (
	"sync"

	"github.com/jeranaias/valetdash/internal/api"
)

// DefaultModel is the model selected before the server reports one.
const DefaultModel = "local"

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is a point-in-time copy of the store. Mutating it has no effect
// on the store.
type Snapshot struct {
	RobotStatus     *api.RobotStatus // nil until the first successful fetch
	Messages        []api.ChatMessage
	CurrentModel    string
	AvailableModels []string
	IsLoading       bool // init cycle in progress
	IsChatLoading   bool
	Error           string // empty when there is no error
	Connected       bool
}

// HasError reports whether a UI error is set.
func (s Snapshot) HasError() bool {
	return s.Error != ""
}

// CurrentModelListed reports whether the current model is one of the
// available models. An empty list is treated as unknown and reports true.
func (s Snapshot) CurrentModelListed() bool {
	if len(s.AvailableModels) == 0 {
		return true
	}
	for _, m := range s.AvailableModels {
		if m == s.CurrentModel {
			return true
		}
	}
	return false
}

// =============================================================================
// STORE
// =============================================================================

// Store is a thread-safe container for dashboard state.
type Store struct {
	mu    sync.RWMutex
	state Snapshot

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func()
}

// New creates an empty store with the default model selected.
func New() *Store {
	return &Store{
		state: Snapshot{
			Messages:        []api.ChatMessage{},
			CurrentModel:    DefaultModel,
			AvailableModels: []string{},
		},
	}
}

// Subscribe registers fn to run after every mutation and returns a function
// that removes it. The returned function is safe to call more than once.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// update applies fn under the write lock and then notifies subscribers.
func (s *Store) update(fn func(st *Snapshot)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn()
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.state
	snap.RobotStatus = copyStatus(s.state.RobotStatus)
	snap.Messages = append([]api.ChatMessage{}, s.state.Messages...)
	snap.AvailableModels = append([]string{}, s.state.AvailableModels...)
	return snap
}

// =============================================================================
// MUTATORS
// =============================================================================

// SetRobotStatus replaces the robot status wholesale. Fields absent from
// status do not survive from the previous value.
func (s *Store) SetRobotStatus(status *api.RobotStatus) {
	s.update(func(st *Snapshot) { st.RobotStatus = copyStatus(status) })
}

// SetCurrentModel sets the active model. Membership in the available list
// is not checked.
func (s *Store) SetCurrentModel(model string) {
	s.update(func(st *Snapshot) { st.CurrentModel = model })
}

// SetAvailableModels replaces the available model list, keeping its order.
func (s *Store) SetAvailableModels(models []string) {
	s.update(func(st *Snapshot) { st.AvailableModels = append([]string{}, models...) })
}

// AddMessage appends msg to the transcript.
func (s *Store) AddMessage(msg api.ChatMessage) {
	s.update(func(st *Snapshot) { st.Messages = append(st.Messages, msg) })
}

// ClearMessages empties the transcript.
func (s *Store) ClearMessages() {
	s.update(func(st *Snapshot) { st.Messages = []api.ChatMessage{} })
}

// SetIsChatLoading sets the chat loading flag.
func (s *Store) SetIsChatLoading(loading bool) {
	s.update(func(st *Snapshot) { st.IsChatLoading = loading })
}

// SetLoading sets the init loading flag.
func (s *Store) SetLoading(loading bool) {
	s.update(func(st *Snapshot) { st.IsLoading = loading })
}

// SetConnected records the result of the last health check.
func (s *Store) SetConnected(connected bool) {
	s.update(func(st *Snapshot) { st.Connected = connected })
}

// SetError replaces the UI error. An empty message clears it.
func (s *Store) SetError(msg string) {
	s.update(func(st *Snapshot) { st.Error = msg })
}

// ClearError dismisses the UI error.
func (s *Store) ClearError() {
	s.SetError("")
}

// =============================================================================
// ACCESSORS
// =============================================================================

// RobotStatus returns a copy of the robot status, or nil before the first fetch.
func (s *Store) RobotStatus() *api.RobotStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyStatus(s.state.RobotStatus)
}

// Messages returns a copy of the transcript.
func (s *Store) Messages() []api.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]api.ChatMessage{}, s.state.Messages...)
}

// CurrentModel returns the active model.
func (s *Store) CurrentModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentModel
}

// AvailableModels returns a copy of the available model list.
func (s *Store) AvailableModels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.state.AvailableModels...)
}

// IsChatLoading reports whether a chat request is in flight.
func (s *Store) IsChatLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsChatLoading
}

// IsLoading reports whether the init cycle is running.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsLoading
}

// ErrorMessage returns the current UI error, or "".
func (s *Store) ErrorMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Error
}

// Connected reports the result of the last health check.
func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Connected
}

func copyStatus(status *api.RobotStatus) *api.RobotStatus {
	if status == nil {
		return nil
	}
	c := *status
	return &c
}
