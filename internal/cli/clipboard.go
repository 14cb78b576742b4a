// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"

	"github.com/atotto/clipboard"
)

// errNoClipboard is returned when no clipboard utility is available.
var errNoClipboard = errors.New("no clipboard available")

// systemClipboard writes to the system clipboard. It satisfies
// session.Clipboard.
type systemClipboard struct{}

func (systemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return errNoClipboard
	}
	return clipboard.WriteAll(text)
}
