// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/AnuGuin/legalai/internal/api"
	"github.com/AnuGuin/legalai/internal/storage"
)

func (a *App) newLoginCommand() *cobra.Command {
	var token string
	var noVerify bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the bearer token used for API requests",
		Long: `Store the bearer token sent with every request. Without --token the
token is read from a hidden prompt, or from stdin when it is not a terminal.

The token is checked against the profile endpoint unless --no-verify is set;
a rejected token is not kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("token") {
				var err error
				if token, err = a.readToken(); err != nil {
					return err
				}
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return usageErrorf("empty token")
			}

			if err := storage.SetAuthToken(a.store, token); err != nil {
				return fmt.Errorf("failed to store token: %w", err)
			}
			if noVerify {
				return a.emit(cmd, map[string]bool{"stored": true}, func(io.Writer) {
					a.success("Token stored")
				})
			}

			profile, err := a.client.GetUserProfile(cmd.Context())
			if err != nil {
				if s := api.StatusCode(err); s == http.StatusUnauthorized || s == http.StatusForbidden {
					if clearErr := storage.SetAuthToken(a.store, ""); clearErr != nil {
						err = errors.Join(err, clearErr)
					}
				}
				return fmt.Errorf("token check failed: %w", err)
			}
			return a.emit(cmd, profile, func(io.Writer) {
				a.success("Signed in as %s <%s>", profile.Name, profile.Email)
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "store the token without checking it")
	return cmd
}

// readToken prompts for a token without echo, or reads stdin.
func (a *App) readToken() (string, error) {
	if !a.interactive {
		return a.readText(nil)
	}
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	token, err := line.PasswordPrompt("Token: ")
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrCancelled
	}
	return token, err
}

func (a *App) newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := storage.SetAuthToken(a.store, ""); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("failed to clear token: %w", err)
			}
			return a.emit(cmd, map[string]bool{"signedOut": true}, func(io.Writer) {
				a.success("Signed out")
			})
		},
	}
}
