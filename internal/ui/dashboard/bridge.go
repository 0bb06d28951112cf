// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/valetdash/internal/poll"
	"github.com/jeranaias/valetdash/internal/store"
)

// =============================================================================
// LIFECYCLE
// =============================================================================

// lifecycle owns the resources acquired on mount. It is shared by every copy
// of the Model.
type lifecycle struct {
	mu          sync.Mutex
	mounted     bool
	closed      bool
	handle      *poll.Handle
	unsubscribe func()

	changes chan struct{}
	done    chan struct{}
}

func newLifecycle() *lifecycle {
	return &lifecycle{
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// mount subscribes to st and starts polling. Only the first call has an
// effect, and none after close.
func (l *lifecycle) mount(ctx context.Context, src poll.Source, st *store.Store, opts poll.Options) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mounted || l.closed {
		return
	}
	l.mounted = true

	l.unsubscribe = st.Subscribe(l.notify)
	l.handle = poll.Start(ctx, src, st, opts)
}

// notify coalesces store notifications into the single-slot channel.
func (l *lifecycle) notify() {
	select {
	case l.changes <- struct{}{}:
	default:
	}
}

// close stops polling and detaches from the store. Safe to call repeatedly.
func (l *lifecycle) close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	handle, unsubscribe := l.handle, l.unsubscribe
	close(l.done)
	l.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if handle != nil {
		handle.Close()
	}
}

// pollHandle returns the poll handle, or nil before mount.
func (l *lifecycle) pollHandle() *poll.Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle
}

// waitForChange blocks until the store changes or the dashboard unmounts.
func (l *lifecycle) waitForChange() tea.Cmd {
	changes, done := l.changes, l.done
	return func() tea.Msg {
		select {
		case <-changes:
			return storeChangedMsg{}
		case <-done:
			return nil
		}
	}
}
