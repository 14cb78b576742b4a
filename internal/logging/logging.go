// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zerolog loggers used across legalai.
//
// Interactive commands print to the terminal, so by default logs go to stderr
// at warn level. Setting a log file moves them out of the way entirely.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a logger.
type Options struct {
	Level  string // trace, debug, info, warn, error; default warn
	Format string // console or json; default console
	File   string // optional path; stderr when empty
}

// ErrUnsupportedFormat is returned for a format other than console or json.
var ErrUnsupportedFormat = errors.New("unsupported log format")

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New constructs a logger from opts. The returned closer releases the log
// file, if one was opened.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level := strings.ToLower(strings.TrimSpace(opts.Level))
	if level == "" {
		level = "warn"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closer = f, f
	}

	logger, err := build(out, lvl, opts.Format, opts.File == "")
	if err != nil {
		closer.Close()
		return zerolog.Logger{}, nil, err
	}
	return logger, closer, nil
}

func build(out io.Writer, lvl zerolog.Level, format string, color bool) (zerolog.Logger, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return zerolog.New(out).With().Timestamp().Logger().Level(lvl), nil
	case "", "console":
		cw := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    !color,
		}
		return zerolog.New(cw).With().Timestamp().Logger().Level(lvl), nil
	default:
		return zerolog.Logger{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// NewWriter returns a JSON logger writing to w. Used by tests that assert on
// log output.
func NewWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
