// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notify carries transient user-facing notifications (toasts) from
// the session controller to whichever front-end is showing them.
package notify

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AnuGuin/legalai/internal/api"
)

// =============================================================================
// NOTIFICATION TYPES
// =============================================================================

// Kind is the severity of a notification.
type Kind int

const (
	// KindStatus is informational.
	KindStatus Kind = iota
	// KindError reports a failed operation.
	KindError
	// KindWarning reports a degraded outcome.
	KindWarning
	// KindSuccess confirms a completed operation.
	KindSuccess
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindWarning:
		return "warning"
	case KindSuccess:
		return "success"
	default:
		return "status"
	}
}

// Display durations per kind. Errors stay longer so they can be read.
const (
	DefaultDuration = 4 * time.Second
	ErrorDuration   = 8 * time.Second
	WarningDuration = 6 * time.Second
)

// Notification is one toast.
type Notification struct {
	ID          int
	Title       string
	Description string
	Kind        Kind
	// Status is the HTTP status behind an error, or 0.
	Status    int
	CreatedAt time.Time
	Duration  time.Duration
}

// New builds a notification of kind with the default duration for it.
func New(kind Kind, title, description string) Notification {
	d := DefaultDuration
	switch kind {
	case KindError:
		d = ErrorDuration
	case KindWarning:
		d = WarningDuration
	}
	return Notification{
		Title:       title,
		Description: description,
		Kind:        kind,
		CreatedAt:   time.Now(),
		Duration:    d,
	}
}

// Success builds a success notification.
func Success(title, description string) Notification {
	return New(KindSuccess, title, description)
}

// Status builds an informational notification.
func Status(title, description string) Notification {
	return New(KindStatus, title, description)
}

// FromError builds an error notification. The description is the server's
// message when err is an HTTP error, else err's text; " (status N)" is
// appended when an HTTP status is known.
func FromError(title string, err error) Notification {
	n := New(KindError, title, Describe(err))
	n.Status = api.StatusCode(err)
	if n.Status != 0 {
		n.Description += fmt.Sprintf(" (status %d)", n.Status)
	}
	return n
}

// Describe returns the user-facing text for err.
func Describe(err error) string {
	if err == nil {
		return "Please try again"
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// IsExpired reports whether the notification should be dismissed at now.
func (n Notification) IsExpired(now time.Time) bool {
	return now.Sub(n.CreatedAt) >= n.Duration
}

// =============================================================================
// NOTIFIER
// =============================================================================

// Notifier receives notifications.
type Notifier interface {
	Notify(Notification)
}

// Func adapts a function to Notifier.
type Func func(Notification)

// Notify calls f(n).
func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// =============================================================================
// MANAGER
// =============================================================================

// DefaultMaxVisible caps the number of notifications a Manager holds.
const DefaultMaxVisible = 5

// Manager keeps the visible notifications, newest first. It implements
// Notifier and is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	items    []Notification
	nextID   int
	max      int
	onChange func()
}

// NewManager creates a Manager. onChange, if set, is called after every
// change, outside the lock.
func NewManager(onChange func()) *Manager {
	return &Manager{nextID: 1, max: DefaultMaxVisible, onChange: onChange}
}

// Notify adds n and returns.
func (m *Manager) Notify(n Notification) {
	m.Add(n)
}

// Add stores n and returns its id.
func (m *Manager) Add(n Notification) int {
	m.mu.Lock()
	if n.ID == 0 {
		n.ID = m.nextID
		m.nextID++
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Duration == 0 {
		n.Duration = DefaultDuration
	}
	m.items = append([]Notification{n}, m.items...)
	if len(m.items) > m.max {
		m.items = m.items[:m.max]
	}
	m.mu.Unlock()

	m.changed()
	return n.ID
}

// Remove dismisses the notification with id.
func (m *Manager) Remove(id int) {
	m.mu.Lock()
	removed := false
	for i, n := range m.items {
		if n.ID == id {
			m.items = append(m.items[:i:i], m.items[i+1:]...)
			removed = true
			break
		}
	}
	m.mu.Unlock()

	if removed {
		m.changed()
	}
}

// Tick drops notifications expired at now and returns the rest.
func (m *Manager) Tick(now time.Time) []Notification {
	m.mu.Lock()
	active := make([]Notification, 0, len(m.items))
	for _, n := range m.items {
		if !n.IsExpired(now) {
			active = append(active, n)
		}
	}
	changed := len(active) != len(m.items)
	m.items = active
	out := append([]Notification(nil), active...)
	m.mu.Unlock()

	if changed {
		m.changed()
	}
	return out
}

// List returns a copy of the visible notifications.
func (m *Manager) List() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.items...)
}

// Clear removes every notification.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.items = nil
	m.mu.Unlock()
	m.changed()
}

func (m *Manager) changed() {
	if m.onChange != nil {
		m.onChange()
	}
}
