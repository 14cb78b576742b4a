// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local persistence port for legalai.
//
// Two records are kept: the bearer token and a supplemental usage counter.
// Both live behind the small Store interface so the API client and tests
// can run against any backend.
//
// # Backends
//
//   - MemoryStore: process-local map, used by tests
//   - FileStore: one JSON document written atomically (default)
//   - SQLiteStore: a kv table in a pure-Go SQLite database
//
// # Usage
//
//	store, err := storage.Open(storage.Options{Backend: "file", Path: path})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	token, _ := storage.AuthToken(store)
package storage
