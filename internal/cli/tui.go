// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"

	"github.com/AnuGuin/legalai/internal/logging"
	"github.com/AnuGuin/legalai/internal/session"
	"github.com/AnuGuin/legalai/internal/ui/chat"
)

func (a *App) newTUICommand() *cobra.Command {
	var conversationID, modeFlag string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the full-screen chat interface",
		Long: `Open the full-screen chat interface.

The conversation list is on the left when the window is wide enough; Tab
moves between the list and the input. Press F1 for keys and commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := RequiresTTY("tui", a.interactive); err != nil {
				return err
			}
			mode, err := a.chatMode(modeFlag)
			if err != nil {
				return err
			}

			// Console logs would draw over the interface.
			logger := a.logger
			if a.cfg.Log.File == "" {
				logger = logging.Nop()
			}

			bridge := chat.NewBridge()
			ctrl := session.New(session.Deps{
				API:       a.client,
				Streamer:  a.newStreamer(),
				Notifier:  bridge,
				Navigator: bridge,
				Confirmer: bridge,
				Clipboard: systemClipboard{},
				Logger:    logger,
			}, session.Options{Mode: mode})
			defer ctrl.Close()

			return chat.Run(cmd.Context(), ctrl, bridge, chat.Options{
				Theme:     a.cfg.UI.Theme,
				Markdown:  a.cfg.UI.Markdown,
				InitialID: conversationID,
				Logger:    logger,
			})
		},
	}
	cmd.Flags().StringVar(&conversationID, "conversation", "", "open this conversation")
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "chat mode: normal or agentic (default ui.mode)")
	return cmd
}
