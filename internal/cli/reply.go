// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"

	"github.com/AnuGuin/legalai/internal/session"
)

// =============================================================================
// REPLY PRINTER
// =============================================================================

// replyPrinter writes the reply being played back to the terminal. Plain
// replies are written word by word with their original spacing; with
// markdown enabled the reply is rendered once it is complete.
type replyPrinter struct {
	w io.Writer

	mu      sync.Mutex
	md      *markdown
	text    string
	printed int
	done    chan struct{}
}

func newReplyPrinter(w io.Writer, md *markdown) *replyPrinter {
	return &replyPrinter{w: w, md: md}
}

func (p *replyPrinter) markdown() *markdown {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.md
}

func (p *replyPrinter) setMarkdown(md *markdown) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.md = md
}

// begin starts a reply, finishing any earlier one first.
func (p *replyPrinter) begin(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishLocked()
	p.text = text
	p.printed = 0
	p.done = make(chan struct{})
}

// chunk writes the part of the reply that chunk has newly revealed.
func (p *replyPrinter) chunk(chunk string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil || p.md.Enabled() {
		return
	}
	end := wordsEnd(p.text, len(strings.Fields(chunk)))
	if end > p.printed {
		io.WriteString(p.w, p.text[p.printed:end])
		p.printed = end
	}
}

// complete writes whatever has not been written yet.
func (p *replyPrinter) complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishLocked()
}

func (p *replyPrinter) finishLocked() {
	if p.done == nil {
		return
	}
	if p.md.Enabled() {
		fmt.Fprintln(p.w, p.md.Render(p.text))
	} else {
		fmt.Fprintln(p.w, p.text[p.printed:])
	}
	close(p.done)
	p.done = nil
}

// wait blocks until the current reply completes. It returns false when ctx
// ends first.
func (p *replyPrinter) wait(ctx context.Context) bool {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// tee wraps s so that playback is also written by p.
func (p *replyPrinter) tee(s session.Streamer) session.Streamer {
	return &teeStreamer{inner: s, printer: p}
}

type teeStreamer struct {
	inner   session.Streamer
	printer *replyPrinter
}

func (t *teeStreamer) Start(text string, onChunk func(string), onComplete func()) {
	t.printer.begin(text)
	t.inner.Start(text,
		func(chunk string) {
			if onChunk != nil {
				onChunk(chunk)
			}
			t.printer.chunk(chunk)
		},
		func() {
			if onComplete != nil {
				onComplete()
			}
			t.printer.complete()
		},
	)
}

func (t *teeStreamer) Stop() {
	t.inner.Stop()
}

// wordsEnd returns the byte offset just past the nth whitespace-separated
// word of text, or len(text) when text has fewer words.
func wordsEnd(text string, n int) int {
	if n <= 0 {
		return 0
	}
	inWord := false
	count := 0
	for i, r := range text {
		space := unicode.IsSpace(r)
		switch {
		case !space && !inWord:
			inWord = true
		case space && inWord:
			inWord = false
			count++
			if count == n {
				return i
			}
		}
	}
	return len(text)
}
