// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Printing conversations and replies.

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/AnuGuin/legalai/internal/model"
)

// =============================================================================
// MARKDOWN
// =============================================================================

// markdown renders assistant replies. A nil renderer prints text as is.
type markdown struct {
	r *glamour.TermRenderer
}

// newMarkdown returns a renderer when enabled and stdout is a terminal.
func (a *App) newMarkdown() *markdown {
	if !a.cfg.UI.Markdown || !a.interactive {
		return &markdown{}
	}
	style := "dark"
	if !lipgloss.HasDarkBackground() || a.cfg.UI.Theme == "light" {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(TerminalWidth()-4),
	)
	if err != nil {
		a.logger.Warn().Err(err).Msg("markdown renderer unavailable")
		return &markdown{}
	}
	return &markdown{r: r}
}

// Enabled reports whether replies are rendered rather than streamed.
func (m *markdown) Enabled() bool {
	return m != nil && m.r != nil
}

// Render returns content rendered for the terminal.
func (m *markdown) Render(content string) string {
	if !m.Enabled() {
		return content
	}
	out, err := m.r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// printMessage writes one message with its role label and details.
func printMessage(w io.Writer, md *markdown, msg model.Message) {
	label := UserStyle.Render(msg.Role.DisplayName())
	if msg.Role == model.RoleAssistant {
		label = AssistantStyle.Render(msg.Role.DisplayName())
	}
	if !msg.CreatedAt.IsZero() {
		label += " " + DimStyle.Render(msg.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w, label)

	body := msg.Content
	if msg.Role == model.RoleAssistant {
		body = md.Render(body)
	}
	fmt.Fprintln(w, body)

	for _, a := range msg.Attachments {
		fmt.Fprintln(w, DimStyle.Render("[file] "+a))
	}
	if details := msg.Details(); details != "" {
		fmt.Fprintln(w, DimStyle.Render(details))
	}
}

// printConversation writes a conversation header and every message.
func printConversation(w io.Writer, md *markdown, conv model.Conversation) {
	title := conv.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintln(w, TitleStyle.Render(title))
	meta := []string{conv.ID, string(conv.Mode)}
	if conv.DocumentName != "" {
		meta = append(meta, "document: "+conv.DocumentName)
	}
	fmt.Fprintln(w, DimStyle.Render(strings.Join(meta, " | ")))
	fmt.Fprintln(w, RenderSeparator(TerminalWidth()))

	if len(conv.Messages) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No messages yet."))
		return
	}
	for i, msg := range conv.Messages {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printMessage(w, md, msg)
	}
}
