// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
)

// Record keys. They match the browser client's storage layout.
const (
	KeyAuthToken = "authToken"
	KeyUserStats = "userStats"
)

// =============================================================================
// AUTH TOKEN
// =============================================================================

// AuthToken returns the stored bearer token, or "" when none is stored.
func AuthToken(s Store) (string, error) {
	tok, err := s.Get(KeyAuthToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(tok), nil
}

// SetAuthToken stores token, or clears it when token is blank.
func SetAuthToken(s Store, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Delete(KeyAuthToken)
	}
	return s.Set(KeyAuthToken, token)
}

// =============================================================================
// USAGE COUNTER
// =============================================================================

// Usage is the supplemental usage record counted on this machine. Some usage
// is never reported by the server, so it is added to the server's numbers.
type Usage struct {
	DocumentAnalysisCount int `json:"documentAnalysisCount"`
	TranslationCount      int `json:"translationCount"`
}

// UsageKind selects the counter to increment.
type UsageKind int

const (
	UsageDocument UsageKind = iota
	UsageTranslation
)

// UsageTracker reads and increments the usage record. The mutex makes the
// read-modify-write atomic for callers sharing one tracker.
type UsageTracker struct {
	mu    sync.Mutex
	store Store
}

// NewUsageTracker wraps store.
func NewUsageTracker(store Store) *UsageTracker {
	return &UsageTracker{store: store}
}

// Load returns the current record. A missing or corrupt record reads as zero.
func (t *UsageTracker) Load() Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadLocked()
}

func (t *UsageTracker) loadLocked() Usage {
	var u Usage
	raw, err := t.store.Get(KeyUserStats)
	if err != nil || raw == "" {
		return Usage{}
	}
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return Usage{}
	}
	return u
}

// Increment bumps one counter and persists the record.
func (t *UsageTracker) Increment(kind UsageKind) (Usage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.loadLocked()
	switch kind {
	case UsageDocument:
		u.DocumentAnalysisCount++
	case UsageTranslation:
		u.TranslationCount++
	}

	data, err := json.Marshal(u)
	if err != nil {
		return u, err
	}
	return u, t.store.Set(KeyUserStats, string(data))
}

// Reset clears the record.
func (t *UsageTracker) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Delete(KeyUserStats)
}
