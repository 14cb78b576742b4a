// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnuGuin/legalai/internal/api"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Legal AI"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// RoleFromBackend maps the backend's USER/ASSISTANT roles; anything else is
// a system message.
func RoleFromBackend(r api.Role) Role {
	switch r {
	case api.RoleUser:
		return RoleUser
	case api.RoleAssistant:
		return RoleAssistant
	default:
		return RoleSystem
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// PendingPrefix marks ids assigned locally before the server confirms a
// message.
const PendingPrefix = "temp-"

// FallbackText is shown in place of a reply when a send fails.
const FallbackText = "I apologize, but I'm having trouble processing your request right now. Please try again."

// Message is a single message in a conversation.
type Message struct {
	// ID is the identity: server-assigned, or PendingPrefix + suffix.
	ID string `json:"id"`
	// DisplayKey stays stable when a pending message is confirmed.
	DisplayKey  string               `json:"displayKey"`
	Content     string               `json:"content"`
	Role        Role                 `json:"role"`
	Attachments []string             `json:"attachments,omitempty"`
	Metadata    *api.MessageMetadata `json:"metadata,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// IsPending reports whether the message still has a local id.
func (m Message) IsPending() bool {
	return strings.HasPrefix(m.ID, PendingPrefix)
}

// Key returns the display key, falling back to the id.
func (m Message) Key() string {
	if m.DisplayKey != "" {
		return m.DisplayKey
	}
	return m.ID
}

// Clone returns a copy that shares no slices with m.
func (m Message) Clone() Message {
	if m.Attachments != nil {
		m.Attachments = append([]string(nil), m.Attachments...)
	}
	return m
}

// NewPendingMessage builds the optimistic user message inserted at send time.
// A short random suffix keeps two sends within one millisecond apart.
func NewPendingMessage(content string, attachments []string, now time.Time) Message {
	id := fmt.Sprintf("%s%d-%s", PendingPrefix, now.UnixMilli(), uuid.NewString()[:8])
	return Message{
		ID:          id,
		DisplayKey:  id,
		Content:     content,
		Role:        RoleUser,
		Attachments: append([]string{}, attachments...),
		CreatedAt:   now,
	}
}

// NewFallbackMessage builds the apology appended after a failed send.
func NewFallbackMessage(now time.Time) Message {
	id := "local-" + uuid.NewString()
	return Message{
		ID:         id,
		DisplayKey: id,
		Content:    FallbackText,
		Role:       RoleAssistant,
		CreatedAt:  now,
	}
}

// =============================================================================
// TRANSFORM
// =============================================================================

// Transform converts a backend message. Content, attachments, metadata and
// timestamp pass through; the display key equals the id.
func Transform(m api.Message) Message {
	var attachments []string
	if m.Attachments != nil {
		attachments = append([]string{}, m.Attachments...)
	}
	return Message{
		ID:          m.ID,
		DisplayKey:  m.ID,
		Content:     m.Content,
		Role:        RoleFromBackend(m.Role),
		Attachments: attachments,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt.Time,
	}
}

// TransformAll converts a list of backend messages. A nil list yields an
// empty, non-nil slice.
func TransformAll(msgs []api.Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, Transform(m))
	}
	return out
}

// =============================================================================
// MERGE
// =============================================================================

// Merge reconciles the current local list with a freshly fetched one.
//
// The result has exactly the incoming messages in incoming order. Each one
// takes its display key from:
//  1. the current message with the same id, if any;
//  2. for user messages, the first not-yet-matched pending user message in
//     current with identical content;
//  3. otherwise its own id.
//
// Messages only present in current are dropped. Neither input is modified.
func Merge(current, incoming []Message) []Message {
	keyByID := make(map[string]string, len(current))
	for _, m := range current {
		if _, seen := keyByID[m.ID]; !seen {
			keyByID[m.ID] = m.Key()
		}
	}
	consumed := make([]bool, len(current))

	out := make([]Message, 0, len(incoming))
	for _, in := range incoming {
		msg := in.Clone()
		msg.DisplayKey = msg.ID

		if key, ok := keyByID[in.ID]; ok {
			msg.DisplayKey = key
		} else if in.Role == RoleUser {
			for i, cur := range current {
				if consumed[i] || !cur.IsPending() || cur.Role != RoleUser || cur.Content != in.Content {
					continue
				}
				consumed[i] = true
				msg.DisplayKey = cur.Key()
				break
			}
		}
		out = append(out, msg)
	}
	return out
}

// Details summarizes the reply metadata on one line, or returns "" when
// there is none.
func (m Message) Details() string {
	md := m.Metadata
	if md == nil {
		return ""
	}
	var parts []string
	if md.Cached {
		parts = append(parts, "cached")
	}
	if len(md.ToolsUsed) > 0 {
		tools := make([]string, 0, len(md.ToolsUsed))
		for _, t := range md.ToolsUsed {
			tools = append(tools, t.Tool)
		}
		parts = append(parts, "tools: "+strings.Join(tools, ", "))
	}
	if md.TotalChunks > 0 {
		parts = append(parts, fmt.Sprintf("%d sources", md.TotalChunks))
	}
	if md.TotalQueryTime > 0 {
		parts = append(parts, fmt.Sprintf("%.1fs", md.TotalQueryTime))
	}
	return strings.Join(parts, " | ")
}
