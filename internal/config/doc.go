// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for slashcmd.
//
// Supports both TOML and JSON configuration formats, with defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - CommandsConfig: Limits for the built-in commands
//   - RunnerConfig: Invocation concurrency, timeout and rate limiting
//   - CacheConfig: Output cache capacity
//   - IndexConfig: Symbol index location and watcher
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SLASHCMD_*), including a .env file
//   - ~/.slashcmd/config.toml
//   - ~/.slashcmd/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal().Err(err).Msg("config")
//	}
//
// Access and change settings:
//
//	timeout := cfg.Runner.Timeout()
//	err = cfg.Set("commands.tree_depth", "4")
package config
