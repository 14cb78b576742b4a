// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the conversation session controller.
//
// The Controller owns the conversation list, the active conversation and the
// chat mode, and runs the user-facing operations against the backend:
// loading, selecting, sending, deleting and sharing. Front-ends never mutate
// state themselves; they call Controller methods and render the State
// snapshots delivered to Subscribe.
//
// # Sending
//
// Send inserts a pending user message before any network call, so it shows
// immediately. After the server accepts the message the conversation is
// refetched, the pending message is reconciled with its confirmed copy by
// model.Merge, and the latest assistant reply is played back through the
// streamer one chunk at a time.
//
// # Snapshots
//
// Every change produces a new State; a State handed out is never modified
// afterwards. Snapshots from concurrent operations may reach subscribers out
// of order, so subscribers that care compare State.Version.
//
// # Usage
//
//	ctrl := session.New(session.Deps{
//	    API:      client,
//	    Streamer: stream.New(stream.Options{}),
//	    Notifier: toasts,
//	}, session.Options{Mode: model.ModeNormal})
//	defer ctrl.Close()
//
//	cancel := ctrl.Subscribe(render)
//	defer cancel()
//
//	ctrl.Load(ctx, "")
//	ctrl.Send(ctx, "Is a verbal lease binding?", nil)
package session
