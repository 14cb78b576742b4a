// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the legalai command tree.
//
// Every command shares one App, which loads the configuration, opens the
// persistence backend and builds the API client before the command runs.
//
// # Commands Overview
//
// Interactive:
//   - chat: line-based chat session with history and slash commands
//   - tui: full-screen chat interface
//
// Scripting:
//   - ask: single question, optionally with a document
//   - conversations: list, show, info, delete, delete-all, share, shared
//   - translate: translate text, detect a language, list history
//   - profile, stats: account details and usage
//   - login, logout: store or clear the bearer token
//   - config: show, get, set, path
//
// All commands accept --json for machine-readable output, --quiet to drop
// progress messages and --verbose for debug logs.
package cli
