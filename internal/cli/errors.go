// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error handling shared by every command.
//
// Commands always return errors; Execute displays them once and maps them to
// an exit code.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/AnuGuin/legalai/internal/api"
	"github.com/AnuGuin/legalai/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates the server rejected the credentials
	ExitAuthError = 4
	// ExitNetworkError indicates the server could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports invalid arguments or flags.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// usageErrorf builds a UsageError.
func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// ErrCancelled is returned when the user declines a confirmation.
var ErrCancelled = errors.New("cancelled")

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	var ttyErr *TTYRequiredError
	var validateErrs config.ValidateErrors
	var netErr net.Error

	switch {
	case errors.As(err, &usageErr), errors.As(err, &ttyErr):
		return ExitUsageError
	case errors.As(err, &validateErrs):
		return ExitConfigError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	}

	switch api.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ExitAuthError
	case http.StatusNotFound:
		return ExitNotFoundError
	case 0:
		if errors.As(err, &netErr) {
			if netErr.Timeout() {
				return ExitTimeoutError
			}
			return ExitNetworkError
		}
	}
	return ExitGeneralError
}

// hint returns a follow-up suggestion for err, or "".
func hint(err error) string {
	switch ExitCode(err) {
	case ExitAuthError:
		return "Run 'legalai login --token TOKEN' to sign in."
	case ExitNetworkError:
		return "Check api.base_url with 'legalai config get api.base_url'."
	case ExitConfigError:
		return "Run 'legalai config path' to find the configuration file."
	}
	return ""
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err in a consistent format. In JSON mode the error is
// written as a JSON response to out; otherwise it goes to errOut.
func DisplayError(out, errOut io.Writer, command string, err error, jsonMode bool) {
	if err == nil || errors.Is(err, ErrCancelled) {
		return
	}
	if jsonMode {
		NewJSONErrorResponse(command, err).Write(out)
		return
	}

	fmt.Fprintf(errOut, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	if h := hint(err); h != "" {
		fmt.Fprintln(errOut, DimStyle.Render(h))
	}
}
