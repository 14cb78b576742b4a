// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AnuGuin/legalai/internal/api"
	"github.com/AnuGuin/legalai/internal/model"
	"github.com/AnuGuin/legalai/internal/notify"
)

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// CommandHandler handles one slash command.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

// commandHandlers maps command names to their handler functions.
var commandHandlers = map[string]CommandHandler{
	"help": handleHelpCommand,
	"h":    handleHelpCommand,
	"?":    handleHelpCommand,
	"quit": handleQuitCommand,
	"q":    handleQuitCommand,
	"exit": handleQuitCommand,

	"new":    handleNewCommand,
	"n":      handleNewCommand,
	"open":   handleOpenCommand,
	"o":      handleOpenCommand,
	"mode":   handleModeCommand,
	"m":      handleModeCommand,
	"attach": handleAttachCommand,
	"a":      handleAttachCommand,
	"retry":  handleRetryCommand,
	"r":      handleRetryCommand,
	"share":  handleShareCommand,
	"delete": handleDeleteCommand,
	"del":    handleDeleteCommand,
}

// handleCommand runs a slash command line.
func (m Model) handleCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return m, nil
	}
	handler, ok := commandHandlers[strings.ToLower(fields[0])]
	if !ok {
		m.warn("Unknown command", fmt.Sprintf("/%s is not a command. Type /help for the list.", fields[0]))
		return m, nil
	}
	return handler(&m, fields[1:])
}

func handleHelpCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	m.showHelp = true
	return *m, nil
}

func handleQuitCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	return *m, tea.Quit
}

func handleNewCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	return *m, m.newConversationCmd()
}

func handleOpenCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) != 1 {
		m.warn("Usage", "/open N opens the Nth conversation in the list")
		return *m, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(m.state.Conversations) {
		m.warn("No such conversation", fmt.Sprintf("Pick a number from 1 to %d.", len(m.state.Conversations)))
		return *m, nil
	}
	m.cursor = n - 1
	return *m, m.selectCmd(m.state.Conversations[n-1].ID)
}

func handleModeCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return *m, m.setModeCmd(otherMode(m.state.Mode))
	}
	mode, err := model.ParseChatMode(args[0])
	if err != nil {
		m.warn("Unknown mode", err.Error())
		return *m, nil
	}
	return *m, m.setModeCmd(mode)
}

func handleAttachCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.warn("Usage", "/attach PATH [message]")
		return *m, nil
	}
	path, content := args[0], strings.Join(args[1:], " ")
	ctrl, ctx, bridge := m.ctrl, m.ctx, m.bridge
	return *m, func() tea.Msg {
		file, err := api.AttachmentFromFile(path)
		if err != nil {
			bridge.Notify(notify.FromError("Failed to attach file", err))
			return OpDoneMsg{Op: "attach", Err: err}
		}
		return OpDoneMsg{Op: "send", Err: ctrl.Send(ctx, content, file)}
	}
}

func handleRetryCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	return *m, m.retryCmd()
}

func handleShareCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	if m.state.ActiveID == "" {
		m.warn("Nothing to share", "Open a conversation first.")
		return *m, nil
	}
	return *m, m.shareCmd()
}

func handleDeleteCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	if m.state.ActiveID == "" {
		m.warn("Nothing to delete", "Open a conversation first.")
		return *m, nil
	}
	return *m, m.deleteCmd()
}

// commandHelp lists the slash commands for the help overlay.
var commandHelp = [][2]string{
	{"/new", "start a new conversation"},
	{"/open N", "open the Nth conversation"},
	{"/mode [normal|agentic]", "set or toggle the chat mode"},
	{"/attach PATH [message]", "send a document"},
	{"/retry", "re-send the last question"},
	{"/share", "create a share link"},
	{"/delete", "delete this conversation"},
	{"/quit", "exit"},
}
