// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/AnuGuin/legalai/internal/api"
	"github.com/AnuGuin/legalai/internal/util"
)

// =============================================================================
// CHAT MODE
// =============================================================================

// ChatMode selects how the assistant answers.
type ChatMode string

const (
	ModeNormal  ChatMode = "normal"
	ModeAgentic ChatMode = "agentic"
)

// ParseChatMode accepts "normal"/"agentic" in any case, and "chat" as an
// alias for normal.
func ParseChatMode(s string) (ChatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal", "chat":
		return ModeNormal, nil
	case "agentic", "agent":
		return ModeAgentic, nil
	default:
		return "", fmt.Errorf("unknown mode %q (normal, agentic)", s)
	}
}

// Backend returns the backend enumeration for m.
func (m ChatMode) Backend() api.Mode {
	if m == ModeAgentic {
		return api.ModeAgentic
	}
	return api.ModeNormal
}

// ModeFromBackend maps NORMAL/AGENTIC; an unknown or missing mode is normal.
func ModeFromBackend(m api.Mode) ChatMode {
	if strings.EqualFold(string(m), string(api.ModeAgentic)) {
		return ModeAgentic
	}
	return ModeNormal
}

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// TitleLength is the number of characters of the first message used as a
// new conversation's title.
const TitleLength = 50

// TitleFrom derives a conversation title from the first message.
func TitleFrom(content string) string {
	return util.TruncateRunes(content, TitleLength)
}

// Conversation is a conversation as held in session state. Treat it as a
// value: the With* helpers return modified copies.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Mode         ChatMode  `json:"mode"`
	SessionID    string    `json:"sessionId,omitempty"`
	DocumentID   string    `json:"documentId,omitempty"`
	DocumentName string    `json:"documentName,omitempty"`
	Messages     []Message `json:"messages"`
	// LastMessagePreview mirrors the latest assistant message, else the
	// latest message.
	LastMessagePreview string    `json:"lastMessagePreview"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ConversationFromAPI converts a backend conversation, transforming its
// messages and computing the preview.
func ConversationFromAPI(c api.Conversation) Conversation {
	conv := Conversation{
		ID:           c.ID,
		Title:        c.Title,
		Mode:         ModeFromBackend(c.Mode),
		SessionID:    c.SessionID,
		DocumentID:   c.DocumentID,
		DocumentName: c.DocumentName,
		CreatedAt:    c.CreatedAt.Time,
		UpdatedAt:    c.UpdatedAt.Time,
	}
	return conv.WithMessages(TransformAll(c.Messages))
}

// Preview returns the content of the latest assistant message, else of the
// latest message, else "".
func Preview(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleAssistant {
			return msgs[i].Content
		}
	}
	if len(msgs) > 0 {
		return msgs[len(msgs)-1].Content
	}
	return ""
}

// Clone returns a deep copy.
func (c Conversation) Clone() Conversation {
	if c.Messages != nil {
		msgs := make([]Message, len(c.Messages))
		for i, m := range c.Messages {
			msgs[i] = m.Clone()
		}
		c.Messages = msgs
	}
	return c
}

// WithMessages returns a copy holding msgs, with the preview recomputed.
func (c Conversation) WithMessages(msgs []Message) Conversation {
	out := c
	out.Messages = make([]Message, len(msgs))
	for i, m := range msgs {
		out.Messages[i] = m.Clone()
	}
	out.LastMessagePreview = Preview(out.Messages)
	return out
}

// AppendMessage returns a copy with m added at the end.
func (c Conversation) AppendMessage(m Message) Conversation {
	msgs := make([]Message, 0, len(c.Messages)+1)
	msgs = append(msgs, c.Messages...)
	msgs = append(msgs, m)
	return c.WithMessages(msgs)
}

// ReplaceMessageContent returns a copy in which the message with id has the
// given content. The conversation is returned unchanged if id is absent.
func (c Conversation) ReplaceMessageContent(id, content string) Conversation {
	idx := c.indexOf(id)
	if idx < 0 {
		return c
	}
	out := c.WithMessages(c.Messages)
	out.Messages[idx].Content = content
	out.LastMessagePreview = Preview(out.Messages)
	return out
}

// Message returns the message with id.
func (c Conversation) Message(id string) (Message, bool) {
	if idx := c.indexOf(id); idx >= 0 {
		return c.Messages[idx], true
	}
	return Message{}, false
}

// LastAssistant returns the latest assistant message.
func (c Conversation) LastAssistant() (Message, bool) {
	return LastOfRole(c.Messages, RoleAssistant)
}

// LastUser returns the latest user message.
func (c Conversation) LastUser() (Message, bool) {
	return LastOfRole(c.Messages, RoleUser)
}

// LastOfRole returns the latest message with role r.
func LastOfRole(msgs []Message, r Role) (Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == r {
			return msgs[i], true
		}
	}
	return Message{}, false
}

func (c Conversation) indexOf(id string) int {
	for i, m := range c.Messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}
