// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"

	"github.com/AnuGuin/legalai/internal/api"
)

// API is the part of the backend client the controller uses. *api.Client
// satisfies it.
type API interface {
	GetConversations(ctx context.Context) ([]api.Conversation, error)
	GetConversation(ctx context.Context, id string) (*api.Conversation, error)
	CreateConversation(ctx context.Context, req api.CreateConversationRequest) (*api.Conversation, error)
	SendMessage(ctx context.Context, conversationID, content string, mode api.Mode, file *api.Attachment) (*api.SendMessageResult, error)
	DeleteConversation(ctx context.Context, id string) error
	DeleteAllConversations(ctx context.Context) (*api.DeleteAllResult, error)
	ShareConversation(ctx context.Context, id string, share bool) (*api.ShareResult, error)
}

// Streamer plays a reply back in chunks. *stream.Streamer satisfies it.
type Streamer interface {
	Start(text string, onChunk func(string), onComplete func())
	Stop()
}

// Navigator is told the location of the current view: "/ai/{id}" with an
// active conversation, "/ai" without.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) { f(path) }

// Confirmer asks the user to approve a destructive operation.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AutoConfirm approves everything. Used when the caller has already asked.
var AutoConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// Clipboard receives share links. Optional.
type Clipboard interface {
	WriteText(text string) error
}

// ConversationPath returns the view location for id.
func ConversationPath(id string) string {
	if id == "" {
		return "/ai"
	}
	return "/ai/" + id
}

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}
