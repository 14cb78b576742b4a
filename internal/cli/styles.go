// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for command output.
//
// Colors are dropped for non-TTY output and when NO_COLOR is set.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AnuGuin/legalai/internal/notify"
	"github.com/AnuGuin/legalai/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(ColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command headers.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Indigo)

	// LabelStyle is used for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(16)

	// ValueStyle is used for values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	// SuccessStyle is used for success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	// ErrorStyle is used for errors.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	// WarningStyle is used for warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// DimStyle is used for hints and metadata.
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// UserStyle labels the user's messages.
	UserStyle = lipgloss.NewStyle().
			Foreground(styles.Teal).
			Bold(true)

	// AssistantStyle labels the assistant's messages.
	AssistantStyle = lipgloss.NewStyle().
			Foreground(styles.Indigo).
			Bold(true)

	// SeparatorStyle is used for horizontal rules.
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)
)

// RenderSeparator renders a horizontal rule of the given width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	return SeparatorStyle.Render(strings.Repeat("-", width))
}

// RenderField renders "label  value".
func RenderField(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}

// RenderNotification renders a notification as one line, e.g.
// "[X] Failed to send message: Internal error (status 500)".
func RenderNotification(n notify.Notification) string {
	style := lipgloss.NewStyle().Foreground(styles.KindColor(n.Kind)).Bold(true)
	line := style.Render(styles.KindIndicator(n.Kind) + " " + n.Title)
	if n.Description != "" {
		line += DimStyle.Render(": ") + n.Description
	}
	return line
}
