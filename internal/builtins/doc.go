// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package builtins provides the built-in slash commands.
//
// # Key Types
//
//   - FileCommand: /file inserts files, directories and globs as fenced blocks
//   - TreeCommand: /tree inserts a directory tree
//   - GitCommand: /git inserts commits, status and a diff summary
//   - NowCommand: /now inserts the current time
//   - DeltaCommand: /delta re-inserts files changed since their /file section
//   - SymbolsCommand: /symbols searches the workspace symbol index
//   - HelpCommand: /help lists registered commands
//   - LocalWorkspace, LocalDelegate: Host handles backed by the local disk
//
// # Usage
//
//	reg := commands.NewRegistry()
//	err := builtins.Register(reg, builtins.OptionsFromConfig(cfg), idx)
//
// Streaming commands (/file, /git, /delta) emit through an output.Emitter
// from a producer goroutine; the rest build an output.Output and convert it
// with output.ToEventStream.
package builtins
