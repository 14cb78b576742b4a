// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AnuGuin/legalai/internal/api"
	"github.com/AnuGuin/legalai/internal/model"
)

// askResult is the --json output of ask.
type askResult struct {
	ConversationID string        `json:"conversationId"`
	Message        model.Message `json:"message"`
}

func (a *App) newAskCommand() *cobra.Command {
	var filePath, modeFlag, conversationID string
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question",
		Long: `Ask a single question and print the reply.

Without --conversation a new conversation is created and titled after the
question. The question is read from stdin when no argument is given.`,
		Example: `  legalai ask "What is a force majeure clause?"
  legalai ask --file contract.pdf --mode agentic "List the termination rights"
  echo "Define estoppel" | legalai ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := a.chatMode(modeFlag)
			if err != nil {
				return err
			}

			var file *api.Attachment
			if filePath != "" {
				if file, err = api.AttachmentFromFile(filePath); err != nil {
					return err
				}
			}

			question := ""
			if len(args) > 0 || file == nil {
				if question, err = a.readText(args); err != nil {
					return err
				}
			}
			if question == "" && file == nil {
				return usageErrorf("a question or --file is required")
			}

			ctx := cmd.Context()
			if conversationID == "" {
				title := model.TitleFrom(question)
				if question == "" {
					title = model.TitleFrom(file.Name)
				}
				req := api.CreateConversationRequest{Mode: mode.Backend(), Title: title}
				if file != nil {
					req.DocumentName = file.Name
				}
				conv, err := a.client.CreateConversation(ctx, req)
				if err != nil {
					return fmt.Errorf("failed to create conversation: %w", err)
				}
				conversationID = conv.ID
				a.logger.Debug().Str("conversation", conv.ID).Msg("conversation created")
			}

			a.progress("%s", DimStyle.Render("Thinking..."))
			result, err := a.client.SendMessage(ctx, conversationID, question, mode.Backend(), file)
			if err != nil {
				return fmt.Errorf("failed to send message: %w", err)
			}
			if result.Conversation.ID != "" {
				conversationID = result.Conversation.ID
			}
			reply := model.Transform(result.Message)

			return a.emit(cmd, askResult{ConversationID: conversationID, Message: reply}, func(w io.Writer) {
				fmt.Fprintln(w, a.newMarkdown().Render(reply.Content))
				if details := reply.Details(); details != "" && !a.quiet {
					fmt.Fprintln(w, DimStyle.Render(details))
				}
				a.progress("%s", DimStyle.Render("Conversation: "+conversationID))
			})
		},
	}
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "attach a document")
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "chat mode: normal or agentic (default ui.mode)")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "continue an existing conversation")
	return cmd
}
