// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/AnuGuin/legalai/internal/model"
	"github.com/AnuGuin/legalai/internal/notify"
	"github.com/AnuGuin/legalai/internal/ui/styles"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		m.refresh(false)

	case StateMsg:
		if msg.State.Version < m.state.Version {
			return m, nil
		}
		prev := m.state
		m.state = msg.State
		m.clampCursor()
		m.layout()
		m.refresh(m.state.FreshlySelected && !prev.FreshlySelected)

	case NavigateMsg:
		m.path = msg.Path

	case ToastsChangedMsg:
		m.layout()

	case toastTickMsg:
		m.bridge.Toasts().Tick(time.Time(msg))
		cmds = append(cmds, toastTick())

	case ConfirmRequestMsg:
		if m.confirm != nil {
			msg.Reply <- false
			break
		}
		c := msg
		m.confirm = &c

	case OpDoneMsg:
		if msg.Err != nil {
			m.logger.Debug().Err(msg.Err).Str("op", msg.Op).Msg("operation failed")
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.state.Loading || m.state.LoadingActive {
			m.refresh(false)
		}

	case tea.KeyMsg:
		return m.handleKey(msg)

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey routes a key press by focus and dialog state.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		switch {
		case key.Matches(msg, m.keys.ConfirmYes):
			m.answer(true)
		case key.Matches(msg, m.keys.ConfirmNo), key.Matches(msg, m.keys.Quit):
			m.answer(false)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		m.toggleFocus()
		return m, nil
	case key.Matches(msg, m.keys.NewChat):
		return m, m.newConversationCmd()
	case key.Matches(msg, m.keys.ToggleMode):
		return m, m.setModeCmd(otherMode(m.state.Mode))
	case key.Matches(msg, m.keys.Share):
		return m, m.shareCmd()
	case key.Matches(msg, m.keys.Delete):
		return m, m.deleteCmd()
	case key.Matches(msg, m.keys.StopStream):
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if m.state.StreamingMessageID != "" {
			return m, m.stopStreamingCmd()
		}
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.state.Conversations)
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < n-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Submit):
		if n == 0 {
			return m, nil
		}
		id := m.state.Conversations[m.cursor].ID
		m.toggleFocus()
		return m, m.selectCmd(id)
	}
	return m, nil
}

// submit sends the input line or runs it as a slash command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		return m, nil
	}
	m.input.Reset()

	if strings.HasPrefix(value, "/") {
		return m.handleCommand(value)
	}
	return m, m.sendCmd(value, nil)
}

// answer replies to the open confirmation dialog.
func (m *Model) answer(ok bool) {
	if m.confirm == nil {
		return
	}
	m.confirm.Reply <- ok
	m.confirm = nil
}

func (m *Model) toggleFocus() {
	if m.focus == focusInput {
		m.focus = focusSidebar
		m.input.Blur()
		if i := m.activeIndex(); i >= 0 {
			m.cursor = i
		}
		return
	}
	m.focus = focusInput
	m.input.Focus()
}

func (m *Model) activeIndex() int {
	for i, c := range m.state.Conversations {
		if c.ID == m.state.ActiveID {
			return i
		}
	}
	return -1
}

func (m *Model) clampCursor() {
	if n := len(m.state.Conversations); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// warn shows a warning toast.
func (m *Model) warn(title, description string) {
	m.bridge.Toasts().Add(notify.New(notify.KindWarning, title, description))
}

func otherMode(mode model.ChatMode) model.ChatMode {
	if mode == model.ModeAgentic {
		return model.ModeNormal
	}
	return model.ModeAgentic
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the viewport and input to the window.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	m.theme.SetSize(m.width, m.height)

	height := m.height - lipgloss.Height(m.renderHeader()) - lipgloss.Height(m.renderFooter())
	if height < 3 {
		height = 3
	}
	width := m.width
	if m.theme.ShowSidebar() {
		width -= styles.SidebarWidth
	}
	m.viewport.Width = width
	m.viewport.Height = height
	m.input.Width = m.width - 4

	if wrap := m.contentWidth(); m.markdown && (m.renderer == nil || wrap != m.wrapWidth) {
		m.newRenderer(wrap)
	}
}

// contentWidth is the width available to message bodies.
func (m *Model) contentWidth() int {
	w := m.viewport.Width - 4
	if w < 20 {
		w = 20
	}
	return w
}

// newRenderer rebuilds the markdown renderer for width and drops the
// rendering cache.
func (m *Model) newRenderer(width int) {
	style := "light"
	if m.theme.IsDark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.logger.Warn().Err(err).Msg("markdown renderer unavailable")
		m.markdown = false
		return
	}
	m.renderer = r
	m.wrapWidth = width
	m.rendered = make(map[string]renderedBody)
}

// refresh re-renders the conversation into the viewport. top scrolls to the
// first message; otherwise a viewport that was at the bottom stays there.
func (m *Model) refresh(top bool) {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	switch {
	case top:
		m.viewport.GotoTop()
	case atBottom || m.state.StreamingMessageID != "":
		m.viewport.GotoBottom()
	}
}
