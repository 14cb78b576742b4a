// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AnuGuin/legalai/internal/notify"
	"github.com/AnuGuin/legalai/internal/session"
)

// ErrNotRunning is returned by Confirm when no program is attached.
var ErrNotRunning = errors.New("chat: interface not running")

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(tea.Msg)

// Send calls f(msg).
func (f SenderFunc) Send(msg tea.Msg) { f(msg) }

// Bridge implements the controller's Notifier, Navigator and Confirmer ports
// on top of a Bubble Tea program.
type Bridge struct {
	mu      sync.Mutex
	program Sender
	toasts  *notify.Manager
}

// NewBridge creates a detached bridge.
func NewBridge() *Bridge {
	b := &Bridge{}
	b.toasts = notify.NewManager(func() {
		// Tick runs inside Update; deliver asynchronously so the event
		// loop never waits on itself.
		go b.send(ToastsChangedMsg{})
	})
	return b
}

// Attach routes messages to p.
func (b *Bridge) Attach(p Sender) {
	b.mu.Lock()
	b.program = p
	b.mu.Unlock()
}

// Detach stops routing messages.
func (b *Bridge) Detach() {
	b.Attach(nil)
}

func (b *Bridge) send(msg tea.Msg) bool {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p == nil {
		return false
	}
	p.Send(msg)
	return true
}

// Toasts returns the notification manager drawn by the interface.
func (b *Bridge) Toasts() *notify.Manager {
	return b.toasts
}

// Notify implements notify.Notifier.
func (b *Bridge) Notify(n notify.Notification) {
	b.toasts.Notify(n)
}

// Navigate implements session.Navigator.
func (b *Bridge) Navigate(path string) {
	b.send(NavigateMsg{Path: path})
}

// Confirm implements session.Confirmer by showing a dialog and waiting for
// the answer.
func (b *Bridge) Confirm(ctx context.Context, prompt string) (bool, error) {
	reply := make(chan bool, 1)
	if !b.send(ConfirmRequestMsg{Prompt: prompt, Reply: reply}) {
		return false, ErrNotRunning
	}
	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Watch forwards every snapshot of ctrl to the program. The returned
// function stops forwarding.
func (b *Bridge) Watch(ctrl Controller) func() {
	return ctrl.Subscribe(func(s session.State) {
		b.send(StateMsg{State: s})
	})
}

var (
	_ notify.Notifier   = (*Bridge)(nil)
	_ session.Navigator = (*Bridge)(nil)
	_ session.Confirmer = (*Bridge)(nil)
)
