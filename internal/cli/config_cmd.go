// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/AnuGuin/legalai/internal/config"
)

// The config commands run without the API client so that a broken file can
// still be inspected and repaired.
func (a *App) newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Show or change configuration",
		Annotations: map[string]string{annotationNoSetup: "true"},
		Long: `Show or change configuration.

Keys use dot notation, for example api.base_url, stream.interval_ms or
ui.mode. Environment variables (LEGALAI_API_URL, LEGALAI_MODE, ...) override
the file; 'config show' prints the effective values and 'config set' writes
only the file.`,
	}
	cmd.AddCommand(
		a.newConfigShowCommand(),
		a.newConfigGetCommand(),
		a.newConfigSetCommand(),
		a.newConfigPathCommand(),
	)
	return cmd
}

func (a *App) newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if a.jsonOut {
				return NewJSONResponse(cmd.CommandPath(), cfg).Write(a.out)
			}
			return toml.NewEncoder(a.out).Encode(cfg)
		},
	}
}

func (a *App) newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return &UsageError{Err: err}
			}
			return a.emit(cmd, map[string]interface{}{args[0]: value}, func(w io.Writer) {
				fmt.Fprintln(w, value)
			})
		},
	}
}

func (a *App) newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one value in the configuration file",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configFile()
			if err != nil {
				return err
			}
			cfg, err := loadFile(path)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return &UsageError{Err: err}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if err := config.SaveTo(cfg, path); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"key": args[0], "value": args[1], "path": path}, func(io.Writer) {
				a.success("%s = %s", args[0], args[1])
			})
		},
	}
}

func (a *App) newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.configFile()
			if err != nil {
				return err
			}
			_, statErr := os.Stat(path)
			exists := statErr == nil
			return a.emit(cmd, map[string]interface{}{"path": path, "exists": exists}, func(w io.Writer) {
				fmt.Fprintln(w, path)
				if !exists {
					a.progress("%s", DimStyle.Render("(not created yet; defaults are in use)"))
				}
			})
		},
	}
}

// loadFile reads path over the defaults without environment overrides, so
// that saving it back does not capture them. A missing file yields the
// defaults.
func loadFile(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = config.LoadJSON(cfg, path)
	case ".yaml", ".yml":
		err = config.LoadYAML(cfg, path)
	default:
		err = config.LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return cfg, nil
}
