// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/AnuGuin/legalai/internal/model"
)

// State is an immutable snapshot of the session.
type State struct {
	// Version increases with every change.
	Version uint64
	// Conversations is the sidebar list, newest first.
	Conversations []model.Conversation
	// ActiveID is the open conversation, or "" for a new chat. When set it
	// names a member of Conversations.
	ActiveID string
	// Mode is used for new conversations and messages.
	Mode model.ChatMode

	// Loading is true while a send is in flight.
	Loading bool
	// LoadingConversations is true while the list is being fetched.
	LoadingConversations bool
	// LoadingActive is true while the active conversation is being fetched.
	LoadingActive bool
	// FreshlySelected is true briefly after a selection completes; views
	// scroll to the top when they see it.
	FreshlySelected bool
	// StreamingMessageID is the assistant message being played back.
	StreamingMessageID string
}

// Active returns the active conversation.
func (s State) Active() (model.Conversation, bool) {
	if s.ActiveID == "" {
		return model.Conversation{}, false
	}
	return s.Conversation(s.ActiveID)
}

// Conversation returns the conversation with id.
func (s State) Conversation(id string) (model.Conversation, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.Conversations[i], true
	}
	return model.Conversation{}, false
}

func (s State) indexOf(id string) int {
	for i, c := range s.Conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// withConversations returns s with its own copy of the list.
func (s State) withConversations(list []model.Conversation) State {
	s.Conversations = list
	return s
}

// mapConversation replaces the conversation with id by fn's result. The list
// is copied; a missing id leaves s unchanged.
func (s State) mapConversation(id string, fn func(model.Conversation) model.Conversation) State {
	i := s.indexOf(id)
	if i < 0 {
		return s
	}
	list := append([]model.Conversation(nil), s.Conversations...)
	list[i] = fn(list[i])
	return s.withConversations(list)
}

// upsertFront replaces the conversation with c.ID in place, or inserts c at
// the front when absent.
func (s State) upsertFront(c model.Conversation) State {
	if i := s.indexOf(c.ID); i >= 0 {
		list := append([]model.Conversation(nil), s.Conversations...)
		list[i] = c
		return s.withConversations(list)
	}
	list := make([]model.Conversation, 0, len(s.Conversations)+1)
	list = append(list, c)
	list = append(list, s.Conversations...)
	return s.withConversations(list)
}

// without removes the conversation with id.
func (s State) without(id string) State {
	list := make([]model.Conversation, 0, len(s.Conversations))
	for _, c := range s.Conversations {
		if c.ID != id {
			list = append(list, c)
		}
	}
	return s.withConversations(list)
}
