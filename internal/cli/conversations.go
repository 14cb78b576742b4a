// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnuGuin/legalai/internal/model"
)

// conversationSummary is one row of `conversations list --json`.
type conversationSummary struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Mode      model.ChatMode `json:"mode"`
	Preview   string         `json:"lastMessagePreview"`
	Document  string         `json:"documentName,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (a *App) newConversationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv", "c"},
		Short:   "List and manage conversations",
	}
	cmd.AddCommand(
		a.newConversationsListCommand(),
		a.newConversationsShowCommand(),
		a.newConversationsInfoCommand(),
		a.newConversationsDeleteCommand(),
		a.newConversationsDeleteAllCommand(),
		a.newConversationsShareCommand(),
		a.newConversationsSharedCommand(),
	)
	return cmd
}

func (a *App) newConversationsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List conversations, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.client.GetConversations(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load conversations: %w", err)
			}

			summaries := make([]conversationSummary, 0, len(list))
			for _, c := range list {
				conv := model.ConversationFromAPI(c)
				summaries = append(summaries, conversationSummary{
					ID:        conv.ID,
					Title:     conv.Title,
					Mode:      conv.Mode,
					Preview:   conv.LastMessagePreview,
					Document:  conv.DocumentName,
					UpdatedAt: conv.UpdatedAt,
				})
			}

			return a.emit(cmd, summaries, func(w io.Writer) {
				if len(summaries) == 0 {
					fmt.Fprintln(w, DimStyle.Render("No conversations yet. Start one with 'legalai chat'."))
					return
				}
				now := time.Now()
				rows := make([][]string, 0, len(summaries))
				for i, s := range summaries {
					rows = append(rows, []string{
						strconv.Itoa(i + 1), s.ID, s.Title, string(s.Mode), formatAge(s.UpdatedAt, now), s.Preview,
					})
				}
				RenderTable(w, []Column{
					{Header: "#"}, {Header: "ID"}, {Header: "TITLE", Max: 40},
					{Header: "MODE"}, {Header: "UPDATED"}, {Header: "LAST MESSAGE", Max: 50},
				}, rows)
			})
		},
	}
}

func (a *App) newConversationsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print a conversation with its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			full, err := a.client.GetConversation(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load conversation: %w", err)
			}
			conv := model.ConversationFromAPI(*full)
			return a.emit(cmd, conv, func(w io.Writer) {
				printConversation(w, a.newMarkdown(), conv)
			})
		},
	}
}

func (a *App) newConversationsInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info ID",
		Short: "Print a conversation's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.client.GetConversationInfo(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load conversation info: %w", err)
			}
			return a.emit(cmd, info, func(w io.Writer) {
				fmt.Fprintln(w, RenderField("ID", info.ID))
				fmt.Fprintln(w, RenderField("Title", info.Title))
				fmt.Fprintln(w, RenderField("Mode", string(model.ModeFromBackend(info.Mode))))
				if info.DocumentName != "" {
					fmt.Fprintln(w, RenderField("Document", info.DocumentName))
				}
				if info.DocumentID != "" {
					fmt.Fprintln(w, RenderField("Document ID", info.DocumentID))
				}
				if info.SessionID != "" {
					fmt.Fprintln(w, RenderField("Session ID", info.SessionID))
				}
				fmt.Fprintln(w, RenderField("Created", formatTime(info.CreatedAt.Time)))
				fmt.Fprintln(w, RenderField("Updated", formatTime(info.UpdatedAt.Time)))
				if len(info.Messages) > 0 {
					fmt.Fprintln(w, RenderField("Messages", strconv.Itoa(len(info.Messages))))
				}
			})
		},
	}
}

func (a *App) newConversationsDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a conversation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := a.confirm(fmt.Sprintf("Delete conversation %s? This cannot be undone.", id), yes); err != nil {
				return err
			}
			if err := a.client.DeleteConversation(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete conversation: %w", err)
			}
			return a.emit(cmd, map[string]string{"deleted": id}, func(io.Writer) {
				a.success("Conversation %s deleted", id)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *App) newConversationsDeleteAllCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.confirm("Delete ALL conversations? This cannot be undone.", yes); err != nil {
				return err
			}
			result, err := a.client.DeleteAllConversations(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to delete conversations: %w", err)
			}
			return a.emit(cmd, result, func(io.Writer) {
				a.success("%d conversation(s) deleted", result.DeletedCount)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *App) newConversationsShareCommand() *cobra.Command {
	var disable, copyLink bool
	cmd := &cobra.Command{
		Use:   "share ID",
		Short: "Create or revoke a public share link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.client.ShareConversation(cmd.Context(), args[0], !disable)
			if err != nil {
				return fmt.Errorf("failed to update sharing: %w", err)
			}
			if copyLink && result.Link != "" {
				if err := (systemClipboard{}).WriteText(result.Link); err != nil {
					a.logger.Warn().Err(err).Msg("failed to copy share link")
					a.progress("%s", WarningStyle.Render("Could not copy the link: "+err.Error()))
				} else {
					a.progress("Link copied to the clipboard.")
				}
			}
			return a.emit(cmd, result, func(w io.Writer) {
				switch {
				case result.Link != "":
					fmt.Fprintln(w, result.Link)
				case result.Message != "":
					a.success("%s", result.Message)
				case disable:
					a.success("Sharing disabled")
				default:
					a.success("Sharing updated")
				}
			})
		},
	}
	cmd.Flags().BoolVar(&disable, "disable", false, "revoke the share link")
	cmd.Flags().BoolVar(&copyLink, "copy", false, "copy the link to the clipboard")
	return cmd
}

func (a *App) newConversationsSharedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shared LINK",
		Short: "Open a conversation someone shared",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shared, err := a.client.GetSharedConversation(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to open shared conversation: %w", err)
			}
			conv := model.ConversationFromAPI(shared.Conversation)
			return a.emit(cmd, shared, func(w io.Writer) {
				if shared.UserName != "" {
					fmt.Fprintln(w, DimStyle.Render("Shared by "+shared.UserName))
				}
				printConversation(w, a.newMarkdown(), conv)
			})
		},
	}
}
