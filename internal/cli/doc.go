// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the slashcmd command line: one-shot runs, completion
// queries, event log replay and an interactive REPL.
//
// Every subcommand works on an App, which wires the command registry, the
// built-in commands, the invocation runner, the snapshot cache and the
// optional symbol index from the loaded configuration.
//
// # Key Types
//
//   - App: Wired components shared by all subcommands
//   - Args: Parsed command-line arguments
//   - ArgParser: Flag and positional splitting
//   - Renderer: Progressive terminal rendering of an event stream
//   - Session: REPL transcript document and its anchored sections
//
// # Usage
//
// Parse and execute:
//
//	cmd, args := cli.Parse(os.Args[1:])
//	app, err := cli.NewApp(ctx, cli.Setup{Config: cfg, Root: args.Root, Logger: logger})
//	if err != nil {
//	    return err
//	}
//	defer app.Close()
//	err = cli.Execute(ctx, app, cmd, args)
//	os.Exit(cli.ExitCode(err))
//
// # Commands Overview
//
//   - list: Registered slash commands
//   - complete: Completions for a partial line
//   - run: Run a line, rendered, as NDJSON events, JSON or Markdown
//   - replay: Rebuild an output from an NDJSON event log
//   - repl: Interactive prompt with tab completion
//   - config: Show, get or set configuration
package cli
