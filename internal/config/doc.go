// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatwatch.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Chat page URL and session cookie
//   - RefreshConfig: Polling period, trigger path, near-bottom threshold
//   - FragmentConfig: CSS selectors describing the chat page layout
//   - Watcher: Hot reload of the config file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CHATWATCH_*)
//   - ~/.chatwatch/config.toml
//   - ~/.chatwatch/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	interval := cfg.Refresh.Interval()
//	sel, err := cfg.Fragment.EntrySelectors()
package config
