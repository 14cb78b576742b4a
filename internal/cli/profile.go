// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AnuGuin/legalai/internal/api"
	"github.com/AnuGuin/legalai/internal/storage"
)

// profileView is the --json output of profile show.
type profileView struct {
	Profile *api.UserProfile `json:"profile"`
	Stats   *api.UserStats   `json:"stats"`
}

func (a *App) newProfileCommand() *cobra.Command {
	show := a.newProfileShowCommand()
	cmd := &cobra.Command{
		Use:     "profile",
		Aliases: []string{"account"},
		Short:   "Show or change your account",
		Args:    cobra.NoArgs,
		RunE:    show.RunE,
	}
	cmd.AddCommand(show, a.newProfileUpdateCommand(), a.newProfileDeleteCommand())
	return cmd
}

func (a *App) newProfileShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile and usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var view profileView
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				p, err := a.client.GetUserProfile(ctx)
				if err != nil {
					return fmt.Errorf("failed to load profile: %w", err)
				}
				view.Profile = p
				return nil
			})
			g.Go(func() error {
				s, err := a.client.GetUserStats(ctx)
				if err != nil {
					return fmt.Errorf("failed to load usage: %w", err)
				}
				view.Stats = s
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			return a.emit(cmd, view, func(w io.Writer) {
				p := view.Profile
				fmt.Fprintln(w, TitleStyle.Render(p.Name))
				fmt.Fprintln(w, RenderField("Email", p.Email))
				if p.Provider != "" {
					fmt.Fprintln(w, RenderField("Signed in with", p.Provider))
				}
				if p.Avatar != "" {
					fmt.Fprintln(w, RenderField("Avatar", p.Avatar))
				}
				fmt.Fprintln(w, RenderField("Member since", formatTime(p.CreatedAt.Time)))
				fmt.Fprintln(w, RenderField("Last login", formatTime(p.LastLoginAt.Time)))
				fmt.Fprintln(w)
				printStats(w, view.Stats)
			})
		},
	}
}

func (a *App) newProfileUpdateCommand() *cobra.Command {
	var name, avatar string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change your display name or avatar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var update api.ProfileUpdate
			if cmd.Flags().Changed("name") {
				update.Name = &name
			}
			if cmd.Flags().Changed("avatar") {
				update.Avatar = &avatar
			}
			if update.Name == nil && update.Avatar == nil {
				return usageErrorf("nothing to update: pass --name or --avatar")
			}

			p, err := a.client.UpdateUserProfile(cmd.Context(), update)
			if err != nil {
				return fmt.Errorf("failed to update profile: %w", err)
			}
			return a.emit(cmd, p, func(io.Writer) {
				a.success("Profile updated")
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL")
	return cmd
}

func (a *App) newProfileDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete your account and all of its data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.confirm("Delete your account and every conversation? This cannot be undone.", yes); err != nil {
				return err
			}
			if err := a.client.DeleteAccount(cmd.Context()); err != nil {
				return fmt.Errorf("failed to delete account: %w", err)
			}
			if err := storage.SetAuthToken(a.store, ""); err != nil {
				a.logger.Warn().Err(err).Msg("failed to clear token")
			}
			return a.emit(cmd, map[string]bool{"deleted": true}, func(io.Writer) {
				a.success("Account deleted")
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *App) newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show document analysis and translation usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.client.GetUserStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load usage: %w", err)
			}
			return a.emit(cmd, stats, func(w io.Writer) {
				printStats(w, stats)
			})
		},
	}
}

func printStats(w io.Writer, s *api.UserStats) {
	fmt.Fprintln(w, RenderField("Documents", strconv.Itoa(s.DocumentAnalysisCount)))
	fmt.Fprintln(w, RenderField("Translations", strconv.Itoa(s.TranslationCount)))
}
