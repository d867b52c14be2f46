// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command contract, registry and
// completion protocol.
//
// A Command produces an output.EventStream when run and proposes
// ArgumentCompletion values while its arguments are typed. Each completion
// carries an AfterCompletion policy that tells the editor whether to run the
// command, keep composing, or continue to the next argument.
//
// # Key Types
//
//   - Command: Slash command interface
//   - Registry: Concurrency-safe command registry with aliases
//   - Completer: Tab completion for command names and arguments
//   - ArgumentCompletion: One completion proposal with its policy
//   - AfterCompletion: Run, Compose or Continue
//   - Parser: Quote-aware command line tokenizer
//
// # Usage
//
// Register and run a command:
//
//	reg := commands.NewRegistry()
//	reg.MustRegister(builtins.NewFile(cfg))
//	res := reg.Parse("/file main.go")
//	stream, err := commands.Invoke(ctx, res.Command, commands.RunRequest{Arguments: res.Args})
//
// Complete and apply:
//
//	completions, err := completer.Complete(ctx, "/file ma", &cancel)
//	line, run := commands.ApplyCompletion("/file ma", completions[0].ArgumentCompletion)
package commands
