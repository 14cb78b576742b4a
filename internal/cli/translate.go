// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AnuGuin/legalai/internal/api"
)

func (a *App) newTranslateCommand() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "translate [text]",
		Short: "Translate text between languages",
		Long: `Translate text. Languages are BCP 47 codes such as en, fr, de or pt-BR;
--from defaults to auto-detection. The text is read from stdin when no
argument is given.`,
		Example: `  legalai translate --to fr "Notice of termination"
  legalai translate --from de --to en < vertrag.txt
  legalai translate detect "Le bail est résilié"
  legalai translate history`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return usageErrorf("--to is required")
			}
			text, err := a.readText(args)
			if err != nil {
				return err
			}
			if text == "" {
				return usageErrorf("no text to translate")
			}

			result, err := a.client.TranslateText(cmd.Context(), api.TranslateRequest{
				Text:       text,
				SourceLang: from,
				TargetLang: to,
			})
			if err != nil {
				return fmt.Errorf("translation failed: %w", err)
			}
			return a.emit(cmd, result, func(w io.Writer) {
				fmt.Fprintln(w, result.TranslatedText)
				if result.SourceLang != "" && result.TargetLang != "" {
					a.progress("%s", DimStyle.Render(result.SourceLang+" -> "+result.TargetLang))
				}
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "auto", "source language")
	cmd.Flags().StringVar(&to, "to", "", "target language")
	cmd.AddCommand(a.newDetectCommand(), a.newTranslationHistoryCommand())
	return cmd
}

func (a *App) newDetectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [text]",
		Short: "Detect the language of text",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readText(args)
			if err != nil {
				return err
			}
			if text == "" {
				return usageErrorf("no text given")
			}
			detected, err := a.client.DetectLanguage(cmd.Context(), text)
			if err != nil {
				return fmt.Errorf("language detection failed: %w", err)
			}
			return a.emit(cmd, detected, func(w io.Writer) {
				if detected.DisplayName != "" {
					fmt.Fprintf(w, "%s (%s)\n", detected.DisplayName, detected.Language)
					return
				}
				fmt.Fprintln(w, detected.Language)
			})
		},
	}
}

func (a *App) newTranslationHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past translations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			history, err := a.client.GetTranslationHistory(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load translation history: %w", err)
			}
			if limit > 0 && len(history) > limit {
				history = history[:limit]
			}
			return a.emit(cmd, history, func(w io.Writer) {
				if len(history) == 0 {
					fmt.Fprintln(w, DimStyle.Render("No translations yet."))
					return
				}
				rows := make([][]string, 0, len(history))
				for _, t := range history {
					rows = append(rows, []string{
						formatTime(t.CreatedAt.Time), t.SourceLang + " -> " + t.TargetLang, t.SourceText, t.TranslatedText,
					})
				}
				RenderTable(w, []Column{
					{Header: "WHEN"}, {Header: "LANGUAGES"}, {Header: "SOURCE", Max: 36}, {Header: "TRANSLATION", Max: 36},
				}, rows)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most N entries (0 = all)")
	return cmd
}
