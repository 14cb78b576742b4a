// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream replays a finished reply as a sequence of growing prefixes
// so it reads as if it were being generated.
//
// The backend returns the whole answer at once. Streamer splits it on
// whitespace and, once per tick, emits the first k words joined by single
// spaces, advancing k by WordsPerTick. The last chunk is the original text,
// line breaks included. At most one playback runs per
// Streamer: starting a new one stops the previous one first.
//
// Callbacks run on the Streamer's goroutine. onChunk must not call Start or
// Stop; onComplete may.
package stream

import (
	"strings"
	"sync"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultInterval is the period between chunks.
	DefaultInterval = 60 * time.Millisecond

	// DefaultWordsPerTick is how far each chunk advances.
	DefaultWordsPerTick = 3
)

// Options configures a Streamer. Zero values take the defaults.
type Options struct {
	Interval     time.Duration
	WordsPerTick int
}

// =============================================================================
// STREAMER
// =============================================================================

// Streamer plays back one text at a time. Safe for concurrent use.
type Streamer struct {
	interval     time.Duration
	wordsPerTick int

	mu  sync.Mutex
	run *playback
}

// playback is one Start call. stop is closed exactly once, by whoever
// detaches the playback from the Streamer; done is closed when the goroutine
// has delivered its last callback.
type playback struct {
	stop chan struct{}
	done chan struct{}
	text string
}

// New creates a Streamer.
func New(opts Options) *Streamer {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.WordsPerTick <= 0 {
		opts.WordsPerTick = DefaultWordsPerTick
	}
	return &Streamer{interval: opts.Interval, wordsPerTick: opts.WordsPerTick}
}

// Start plays text, calling onChunk with each prefix and onComplete once
// after the final chunk. A playback already in progress is stopped, and Start
// waits for its goroutine to exit, so none of its callbacks run after Start
// returns. Either callback may be nil.
func (s *Streamer) Start(text string, onChunk func(string), onComplete func()) {
	p := &playback{stop: make(chan struct{}), done: make(chan struct{})}

	s.mu.Lock()
	prev := s.run
	s.run = p
	s.mu.Unlock()

	if prev != nil {
		close(prev.stop)
		<-prev.done
	}

	go s.play(p, text, onChunk, onComplete)
}

// Stop cancels the current playback without calling onComplete and waits for
// it to exit. It is a no-op when nothing is playing.
func (s *Streamer) Stop() {
	s.mu.Lock()
	p := s.run
	s.run = nil
	s.mu.Unlock()

	if p != nil {
		close(p.stop)
		<-p.done
	}
}

// Active reports whether a playback is in progress.
func (s *Streamer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil
}

// Text returns the prefix most recently emitted by the current playback, or
// "" when idle.
func (s *Streamer) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return ""
	}
	return s.run.text
}

func (s *Streamer) play(p *playback, text string, onChunk func(string), onComplete func()) {
	words := strings.Fields(text)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	cursor := 0
	for {
		select {
		case <-p.stop:
			close(p.done)
			return
		case <-ticker.C:
		}

		if cursor < len(words) {
			cursor += s.wordsPerTick
			if cursor > len(words) {
				cursor = len(words)
			}
			chunk := strings.Join(words[:cursor], " ")
			if cursor == len(words) {
				chunk = text
			}

			s.mu.Lock()
			current := s.run == p
			if current {
				p.text = chunk
			}
			s.mu.Unlock()
			if !current {
				close(p.done)
				return
			}

			if onChunk != nil {
				onChunk(chunk)
			}
		}

		if cursor >= len(words) {
			s.finish(p, onComplete)
			return
		}
	}
}

// finish detaches p and runs onComplete, unless p was stopped or superseded
// in the meantime.
func (s *Streamer) finish(p *playback, onComplete func()) {
	s.mu.Lock()
	current := s.run == p
	if current {
		s.run = nil
		p.text = ""
	}
	s.mu.Unlock()

	close(p.done)
	if current && onComplete != nil {
		onComplete()
	}
}
