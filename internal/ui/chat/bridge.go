// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// sender is the part of *tea.Program the bridge needs.
type sender interface {
	Send(tea.Msg)
}

// Bridge delivers messages from background goroutines to a running
// program. Messages sent before Attach are queued; once attached they are
// delivered first and in order, ahead of anything sent later.
type Bridge struct {
	mu       sync.Mutex
	program  sender
	pending  []tea.Msg
	flushing bool
}

// NewBridge creates an unattached bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach connects the bridge to p. Queued messages are delivered once p runs.
func (b *Bridge) Attach(p *tea.Program) {
	b.attach(p)
}

func (b *Bridge) attach(s sender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.program = s
	if len(b.pending) > 0 && !b.flushing {
		b.flushing = true
		go b.flush(s)
	}
}

// flush drains the queue in order. Sends made meanwhile join the queue.
func (b *Bridge) flush(s sender) {
	for {
		b.mu.Lock()
		if len(b.pending) == 0 {
			b.flushing = false
			b.mu.Unlock()
			return
		}
		msg := b.pending[0]
		b.pending = b.pending[1:]
		b.mu.Unlock()

		s.Send(msg)
	}
}

// Send delivers msg to the program. Once the queue is drained it blocks
// until the program accepts the message, and returns immediately once the
// program has exited.
func (b *Bridge) Send(msg tea.Msg) {
	b.mu.Lock()
	s := b.program
	if s == nil || b.flushing {
		b.pending = append(b.pending, msg)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	s.Send(msg)
}

// Dispatch runs fn inside the program's Update. It has the refresh.Dispatcher
// signature.
func (b *Bridge) Dispatch(fn func()) {
	b.Send(DispatchMsg{Fn: fn})
}
