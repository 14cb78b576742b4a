// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AnuGuin/legalai/internal/session"
)

// =============================================================================
// MESSAGES
// =============================================================================

// StateMsg delivers a controller snapshot.
type StateMsg struct {
	State session.State
}

// NavigateMsg reports the location of the current view.
type NavigateMsg struct {
	Path string
}

// ToastsChangedMsg signals that the visible notifications changed.
type ToastsChangedMsg struct{}

// ConfirmRequestMsg asks the user to approve a destructive operation. The
// answer is sent on Reply exactly once.
type ConfirmRequestMsg struct {
	Prompt string
	Reply  chan<- bool
}

// OpDoneMsg reports the end of a controller operation started from the UI.
type OpDoneMsg struct {
	Op  string
	Err error
}

// toastTickMsg drives toast expiry.
type toastTickMsg time.Time

// ToastTickInterval is how often expired toasts are dropped.
const ToastTickInterval = 500 * time.Millisecond

func toastTick() tea.Cmd {
	return tea.Tick(ToastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}
