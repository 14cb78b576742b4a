// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for legalai.
//
// TOML, JSON and YAML files are supported, with defaults, environment
// variable overrides and validation.
//
// # Configuration Precedence
//
//   - Environment variables (LEGALAI_*)
//   - ~/.legalai/config.toml
//   - ~/.legalai/config.json
//   - ~/.legalai/config.yaml
//   - Built-in defaults
//
// The directory can be moved with LEGALAI_HOME.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := api.New(api.Config{BaseURL: cfg.API.BaseURL}, store, logger)
//
// Watch reloads a file on change:
//
//	w, err := config.Watch(ctx, path, func(c *config.Config) { ... }, nil)
package config
