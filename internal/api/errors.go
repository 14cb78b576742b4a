// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsuccessful matches every *EnvelopeError via errors.Is.
var ErrUnsuccessful = errors.New("api: unsuccessful response")

// ErrInvalidLanguage is returned for a language code that does not parse.
var ErrInvalidLanguage = errors.New("invalid language code")

// Error is a non-2xx HTTP response.
type Error struct {
	// Status is the HTTP status code.
	Status int
	// Message is the best-effort reason taken from the body.
	Message string
	// Body is the decoded JSON body, or the raw text when it was not JSON.
	Body any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// newError builds an Error from a failed response body. The message is the
// body's "message" field, else its "error" field, else the raw text, else a
// generic status line.
func newError(status int, raw []byte) *Error {
	text := strings.TrimSpace(string(raw))
	e := &Error{Status: status, Body: text}

	var decoded any
	if text != "" && json.Unmarshal(raw, &decoded) == nil {
		e.Body = decoded
		if obj, ok := decoded.(map[string]any); ok {
			for _, key := range []string{"message", "error"} {
				if s, ok := obj[key].(string); ok && s != "" {
					e.Message = s
					return e
				}
			}
		}
	}

	if text != "" {
		e.Message = text
	} else {
		e.Message = fmt.Sprintf("HTTP %d", status)
	}
	return e
}

// EnvelopeError is a 2xx response whose envelope reports failure or lacks the
// expected data.
type EnvelopeError struct {
	// Op is the fixed description of the failed operation.
	Op string
	// ServerMessage is the envelope's message field, if any.
	ServerMessage string
}

// Error returns the operation text.
func (e *EnvelopeError) Error() string {
	return e.Op
}

// Is reports whether target is ErrUnsuccessful.
func (e *EnvelopeError) Is(target error) bool {
	return target == ErrUnsuccessful
}

// StatusCode returns the HTTP status carried by err, or 0 when err did not
// come from an HTTP response.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
