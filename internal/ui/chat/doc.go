// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat interface of legalai.

The interface is a Bubble Tea program drawn from session.State snapshots. It
never changes conversation state itself: key presses and slash commands become
tea.Cmds that call the session controller, and the controller's snapshots come
back as messages through a Bridge.

# Bridge

A Bridge implements the controller's Notifier, Navigator and Confirmer ports
for a running program. Notifications go to a notify.Manager drawn as toasts;
confirmation prompts are shown as a dialog and answered with y or n.

# Layout

	+-------------------------------------------------+
	| Legal AI  Lease question              NORMAL    |
	+-------------+-----------------------------------+
	| sidebar     | messages (viewport)               |
	|             |                                   |
	+-------------+-----------------------------------+
	| toasts                                          |
	| > input                                         |
	| status bar                                      |
	+-------------------------------------------------+

The sidebar is hidden on narrow terminals.

# Commands

	/new            start a new conversation
	/mode MODE      normal or agentic
	/open N         open the Nth conversation in the sidebar
	/attach PATH    send a file, optionally followed by a message
	/retry          re-send the last question
	/share          create a share link
	/delete         delete the open conversation
	/help, /quit
*/
package chat
