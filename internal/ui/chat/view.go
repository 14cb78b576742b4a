// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/AnuGuin/legalai/internal/model"
	"github.com/AnuGuin/legalai/internal/ui/styles"
	"github.com/AnuGuin/legalai/internal/util"
)

// maxToastWidth caps the width of a notification.
const maxToastWidth = 56

// renderedBody caches the markdown rendering of one message body.
type renderedBody struct {
	content string
	out     string
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the interface.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var body string
	switch {
	case m.confirm != nil:
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, m.renderConfirm())
	case m.showHelp:
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, m.renderHelp())
	case m.theme.ShowSidebar():
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(m.viewport.Height), m.viewport.View())
	default:
		body = m.viewport.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

// renderHeader shows the active conversation title and the chat mode.
func (m Model) renderHeader() string {
	title := "New conversation"
	if conv, ok := m.state.Active(); ok && conv.Title != "" {
		title = conv.Title
	}
	brand := m.theme.HeaderTitle.Render("Legal AI")
	right := m.theme.HeaderMeta.Render(m.path) + "  " + m.theme.RenderMode(string(m.state.Mode))

	inner := m.width - m.theme.Header.GetHorizontalFrameSize()
	title = util.TruncateWidth(util.SingleLine(title), inner-lipgloss.Width(brand)-lipgloss.Width(right)-3)
	left := brand + "  " + title
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderSidebar lists the conversations, newest first.
func (m Model) renderSidebar(height int) string {
	inner := styles.SidebarWidth - m.theme.Sidebar.GetHorizontalFrameSize()
	lines := []string{m.theme.SidebarTitle.Render(fmt.Sprintf("Conversations (%d)", len(m.state.Conversations)))}

	switch {
	case m.state.LoadingConversations && len(m.state.Conversations) == 0:
		lines = append(lines, m.spinner.View()+" Loading...")
	case len(m.state.Conversations) == 0:
		lines = append(lines, m.theme.SidebarPreview.Render("No conversations yet"))
	}

	// Two rows per entry; keep the cursor in view.
	rows := (height - 4) / 2
	if rows < 1 {
		rows = 1
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}

	for i := start; i < len(m.state.Conversations) && i < start+rows; i++ {
		conv := m.state.Conversations[i]
		marker := "  "
		if conv.ID == m.state.ActiveID {
			marker = "> "
		}
		title := conv.Title
		if title == "" {
			title = "Untitled"
		}
		line := util.TruncateWidth(fmt.Sprintf("%s%d. %s", marker, i+1, util.SingleLine(title)), inner)

		style := m.theme.SidebarItem
		switch {
		case m.focus == focusSidebar && i == m.cursor:
			style = m.theme.SidebarItemSelected
		case conv.ID == m.state.ActiveID:
			style = m.theme.SidebarItemActive
		}
		lines = append(lines,
			style.Render(util.PadRight(line, inner)),
			m.theme.SidebarPreview.Render(util.TruncateWidth("    "+util.SingleLine(conv.LastMessagePreview), inner)),
		)
	}

	return m.theme.Sidebar.
		Width(styles.SidebarWidth - m.theme.Sidebar.GetHorizontalBorderSize()).
		Height(height - m.theme.Sidebar.GetVerticalBorderSize()).
		Render(strings.Join(lines, "\n"))
}

// renderMessages renders the active conversation for the viewport.
func (m *Model) renderMessages() string {
	conv, ok := m.state.Active()
	if !ok {
		if m.state.LoadingActive {
			return m.spinner.View() + " Loading conversation..."
		}
		return m.renderEmptyState()
	}
	if m.state.LoadingActive && len(conv.Messages) == 0 {
		return m.spinner.View() + " Loading conversation..."
	}

	var b strings.Builder
	for _, msg := range conv.Messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n\n")
	}
	if m.state.Loading && m.state.StreamingMessageID == "" {
		b.WriteString(m.spinner.View() + " " + m.theme.ThinkingText.Render("Legal AI is thinking..."))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderMessage(msg model.Message) string {
	width := m.contentWidth()
	streaming := msg.ID == m.state.StreamingMessageID

	label := m.theme.UserLabel.Render(msg.Role.DisplayName())
	if msg.Role == model.RoleAssistant {
		label = m.theme.AssistantLabel.Render(msg.Role.DisplayName())
	}
	if !msg.CreatedAt.IsZero() {
		label += " " + m.theme.Timestamp.Render(msg.CreatedAt.Local().Format("15:04"))
	}

	var body string
	switch {
	case msg.IsPending():
		body = m.theme.PendingBody.Width(width).Render(msg.Content + "  (sending)")
	case msg.Role == model.RoleUser:
		body = m.theme.UserBubble.Width(width).Render(msg.Content)
	case msg.Content == model.FallbackText:
		body = m.theme.FallbackBody.Width(width).Render(msg.Content)
	case streaming:
		body = m.theme.AssistantBody.Width(width).Render(msg.Content + " " + m.spinner.View())
	default:
		body = m.theme.AssistantBody.Render(m.markdownBody(msg))
	}

	parts := []string{label, body}
	for _, a := range msg.Attachments {
		parts = append(parts, m.theme.Attachment.Render("  [file] "+a))
	}
	if details := msg.Details(); details != "" && !streaming {
		parts = append(parts, m.theme.Timestamp.Render("  "+details))
	}
	return strings.Join(parts, "\n")
}

// markdownBody renders an assistant reply, caching by display key.
func (m *Model) markdownBody(msg model.Message) string {
	if !m.markdown || m.renderer == nil {
		return lipgloss.NewStyle().Width(m.contentWidth()).Render(msg.Content)
	}
	if cached, ok := m.rendered[msg.Key()]; ok && cached.content == msg.Content {
		return cached.out
	}
	out, err := m.renderer.Render(msg.Content)
	if err != nil {
		return msg.Content
	}
	out = strings.Trim(out, "\n")
	m.rendered[msg.Key()] = renderedBody{content: msg.Content, out: out}
	return out
}

func (m Model) renderEmptyState() string {
	lines := []string{
		m.theme.HeaderTitle.Render("Legal AI"),
		"",
		"Ask a question about contracts, leases, employment or any other legal topic.",
		"Attach a document with /attach PATH to have it analysed.",
		"",
		m.theme.Muted.Render("Mode: ") + m.theme.RenderMode(string(m.state.Mode)) +
			m.theme.Muted.Render("  (Ctrl+T to switch)"),
	}
	return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, lines...))
}

// renderFooter stacks the notifications, the input and the status bar.
func (m Model) renderFooter() string {
	parts := make([]string, 0, 3)
	if toasts := m.renderToasts(); toasts != "" {
		parts = append(parts, toasts)
	}
	parts = append(parts,
		m.theme.InputContainer.Width(m.width).Render(m.theme.InputPrompt.Render("> ")+m.input.View()),
		m.renderStatusBar(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderToasts() string {
	items := m.bridge.Toasts().List()
	if len(items) == 0 {
		return ""
	}
	width := maxToastWidth
	if m.width < width {
		width = m.width
	}
	rendered := make([]string, 0, len(items))
	for _, n := range items {
		rendered = append(rendered, m.theme.RenderNotification(n, width))
	}
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, lipgloss.JoinVertical(lipgloss.Right, rendered...))
}

func (m Model) renderStatusBar() string {
	var hints []string
	if m.focus == focusSidebar {
		hints = append(hints, m.theme.ShortcutKey.Render("[list]"))
	}
	avail := m.width - m.theme.StatusBar.GetHorizontalFrameSize()
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hint := m.theme.ShortcutKey.Render(h.Key) + " " + m.theme.ShortcutDesc.Render(h.Desc)
		if lipgloss.Width(strings.Join(append(hints, hint), "  ")) > avail {
			break
		}
		hints = append(hints, hint)
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(hints, "  "))
}

func (m Model) renderConfirm() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.ConfirmTitle.Render("Confirm"),
		"",
		m.confirm.Prompt,
		"",
		m.theme.ShortcutKey.Render("y")+" delete   "+m.theme.ShortcutKey.Render("n")+" cancel",
	)
	return m.theme.ConfirmBox.Render(body)
}

func (m Model) renderHelp() string {
	h := help.New()
	h.ShowAll = true
	keys := h.View(m.keys)

	var cmds []string
	for _, c := range commandHelp {
		cmds = append(cmds, m.theme.ShortcutKey.Render(util.PadRight(c[0], 26))+m.theme.ShortcutDesc.Render(c[1]))
	}
	return m.theme.Sidebar.Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.HeaderTitle.Render("Keys"), "", keys, "",
		m.theme.HeaderTitle.Render("Commands"), "", strings.Join(cmds, "\n"),
	))
}
