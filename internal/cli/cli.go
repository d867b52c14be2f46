// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the CLI subcommand to execute.
type Command int

const (
	CmdHelp Command = iota
	CmdList
	CmdComplete
	CmdRun
	CmdReplay
	CmdRepl
	CmdConfig
	CmdStatus
	CmdIndex
	CmdVersion
)

// String returns the subcommand name.
func (c Command) String() string {
	switch c {
	case CmdList:
		return "list"
	case CmdComplete:
		return "complete"
	case CmdRun:
		return "run"
	case CmdReplay:
		return "replay"
	case CmdRepl:
		return "repl"
	case CmdConfig:
		return "config"
	case CmdStatus:
		return "status"
	case CmdIndex:
		return "index"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	Root       string
	LogLevel   string
	NoColor    bool
	Verbose    bool

	// Output modes for run and replay
	JSON     bool
	Events   bool
	Markdown bool
	Metadata bool

	// Export writes the finished output to a file in this format
	Export    string
	ExportDir string

	// Line is the slash command line for run and complete
	Line string

	// File is the event log for replay
	File string

	// Subcommand of config and index
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Unknown reports an unrecognized subcommand
	Unknown string
}

// boolFlags never take a value.
var boolFlags = []string{
	"json", "events", "markdown", "md", "metadata",
	"no-color", "verbose", "v", "help", "h", "version",
}

const usageText = `slashcmd - slash commands that stream sectioned output

Usage:
  slashcmd [global flags] <command> [arguments]

Commands:
  list                         List registered slash commands
  complete "<line>"            Show completions for a partially typed line
  run "<line>"                 Run a slash command and print its output
    --events                   Print the event stream as NDJSON
    --json                     Print the finished output as JSON
    --markdown, --md           Render the output as Markdown
    --metadata                 Show section metadata
    --export FORMAT            Also write the output (markdown, html, json, ndjson)
    --export-dir DIR           Directory for --export (default: .)
  replay <events.ndjson>       Rebuild and print an output from an event log
    --json, --markdown         Output mode as for run
  repl                         Interactive prompt with tab completion
  config [show|get|set|path]   Show or change configuration
  status                       Show index, cache and runner state
  index [build|stats]          Build the symbol index or show its stats
  version                      Show version information
  help                         Show this help

Global Flags:
  --config PATH                Config file (default: ~/.slashcmd/config.toml)
  --root DIR                   Workspace root (default: working directory)
  --log-level LEVEL            trace, debug, info, warn, error
  --no-color                   Disable colors
  -v, --verbose                Debug logging

Examples:
  slashcmd run /now
  slashcmd run "/file main.go" --markdown
  slashcmd run "/git" --events > git.ndjson
  slashcmd replay git.ndjson
  slashcmd complete "/fi"
  slashcmd config set commands.max_files 20

Version: %s
`

// Parse maps raw process arguments (without the program name) to a
// subcommand and its arguments. No arguments selects the REPL.
func Parse(argv []string) (Command, Args) {
	p := NewArgParser(argv, boolFlags...)

	args := Args{
		ConfigPath: p.Flag("config"),
		Root:       p.Flag("root"),
		LogLevel:   p.Flag("log-level"),
		NoColor:    p.BoolFlag("no-color"),
		Verbose:    p.BoolFlag("verbose") || p.BoolFlag("v"),
		JSON:       p.BoolFlag("json"),
		Events:     p.BoolFlag("events"),
		Markdown:   p.BoolFlag("markdown") || p.BoolFlag("md"),
		Metadata:   p.BoolFlag("metadata"),
		Export:     p.Flag("export"),
		ExportDir:  p.Flag("export-dir"),
	}

	if p.BoolFlag("help") || p.BoolFlag("h") {
		return CmdHelp, args
	}
	if p.BoolFlag("version") {
		return CmdVersion, args
	}

	switch sub := p.Subcommand(); sub {
	case "":
		return CmdRepl, args
	case "list", "ls":
		return CmdList, args
	case "complete":
		args.Line = JoinPositionalArgs(p, 1)
		return CmdComplete, args
	case "run":
		args.Line = JoinPositionalArgs(p, 1)
		return CmdRun, args
	case "replay":
		args.File = p.Positional(1)
		return CmdReplay, args
	case "repl":
		return CmdRepl, args
	case "config":
		args.Subcommand = p.Positional(1)
		args.ConfigKey = p.Positional(2)
		args.ConfigVal = JoinPositionalArgs(p, 3)
		return CmdConfig, args
	case "status":
		return CmdStatus, args
	case "index":
		args.Subcommand = p.Positional(1)
		return CmdIndex, args
	case "version":
		return CmdVersion, args
	case "help":
		return CmdHelp, args
	default:
		// A bare slash command line runs it: slashcmd /now
		if strings.HasPrefix(sub, "/") {
			args.Line = JoinPositionalArgs(p, 0)
			return CmdRun, args
		}
		args.Unknown = sub
		return CmdHelp, args
	}
}

// Execute runs a parsed subcommand against app.
func Execute(ctx context.Context, app *App, cmd Command, args Args) error {
	switch cmd {
	case CmdList:
		return HandleList(ctx, app)
	case CmdComplete:
		return HandleComplete(ctx, app, args)
	case CmdRun:
		return HandleRun(ctx, app, args)
	case CmdReplay:
		return HandleReplay(ctx, app, args)
	case CmdRepl:
		return HandleRepl(ctx, app, args)
	case CmdConfig:
		return HandleConfig(app, args)
	case CmdStatus:
		return HandleStatus(ctx, app, args)
	case CmdIndex:
		return HandleIndex(ctx, app, args)
	case CmdVersion:
		HandleVersion(app.Out)
		return nil
	default:
		HandleHelp(app.Out)
		if args.Unknown != "" {
			return usagef("unknown command: %s", args.Unknown)
		}
		return nil
	}
}

// HandleHelp prints usage.
func HandleHelp(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// HandleVersion prints version information.
func HandleVersion(w io.Writer) {
	fmt.Fprintf(w, "slashcmd %s\n", Version)
	fmt.Fprintf(w, "  Commit:  %s\n", GitCommit)
	fmt.Fprintf(w, "  Built:   %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
