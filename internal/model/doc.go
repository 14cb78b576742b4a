// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages
// as the terminal front-ends see them, and the reconciliation logic between
// optimistic local state and the server's records.
//
// # Key Types
//
//   - Message: one message with an identity id and a separate display key
//   - Conversation: a conversation with its messages and preview text
//   - ChatMode: normal or agentic, mapped to the backend's NORMAL/AGENTIC
//   - Role: user, assistant or system
//
// # Identity
//
// A message sent by the user is shown at once with a pending id
// ("temp-<unix ms>-<suffix>"). When the conversation is refetched the
// server's copy replaces it; Merge hands the pending message's display key to
// the confirmed one so views keyed by DisplayKey keep their place.
//
// # Usage
//
//	pending := model.NewPendingMessage("Is this clause enforceable?", nil, time.Now())
//	conv = conv.AppendMessage(pending)
//	...
//	refetched := model.TransformAll(full.Messages)
//	conv = conv.WithMessages(model.Merge(conv.Messages, refetched))
//
// All helpers return new values; no function in this package mutates its
// inputs.
package model
