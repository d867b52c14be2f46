// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/config"
	"github.com/jeranaias/slashcmd/internal/document"
	"github.com/jeranaias/slashcmd/internal/output"
	"github.com/jeranaias/slashcmd/internal/tasks"
)

// =============================================================================
// SESSION
// =============================================================================

// Session is the state of one REPL: the transcript document that every
// output is appended to, and the anchored sections inserted so far. Commands
// such as /delta see both through their RunRequest.
type Session struct {
	app  *App
	doc  *document.Buffer
	secs []output.Section[document.Anchor]
	last *tasks.Invocation
	out  output.Output
}

// NewSession creates a session with an empty transcript.
func NewSession(app *App) *Session {
	return &Session{app: app, doc: document.NewBuffer("")}
}

// Document returns the transcript buffer.
func (s *Session) Document() *document.Buffer {
	return s.doc
}

// Sections returns the sections of the transcript that are still valid.
func (s *Session) Sections() []output.Section[document.Anchor] {
	snap := s.doc.Snapshot()
	valid := s.secs[:0:0]
	for _, sec := range s.secs {
		if output.IsValid(sec, snap) {
			valid = append(valid, sec)
		}
	}
	return valid
}

// Exec runs one slash command line against the transcript and appends its
// output.
func (s *Session) Exec(ctx context.Context, line string) error {
	req := commands.RunRequest{
		Sections: s.Sections(),
		Snapshot: s.doc.Snapshot(),
	}
	inv, out, err := s.app.execute(ctx, line, req, modeRender, false)
	if err != nil {
		return err
	}
	anchors, err := s.doc.InsertOutput(s.doc.Len(), out)
	if err != nil {
		return fmt.Errorf("append output: %w", err)
	}
	s.secs = append(s.secs, anchors...)
	s.last = inv
	s.out = out
	return nil
}

// Meta handles a ":" session command and reports whether the REPL should
// keep going.
func (s *Session) Meta(line string, w io.Writer) (bool, error) {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		return true, nil
	}
	switch fields[0] {
	case "q", "quit", "exit":
		return false, nil
	case "help", "h":
		fmt.Fprintln(w, replHelp)
	case "history":
		for _, inv := range s.app.Runner.History().All() {
			fmt.Fprintf(w, "  %s  %-10s %-8s %s\n",
				inv.ID[:8], inv.Status(), formatDurationShort(inv.Duration()), inv.Line)
		}
	case "doc":
		fmt.Fprintf(w, "%d bytes, %d sections\n", s.doc.Len(), len(s.Sections()))
	case "clear":
		s.doc = document.NewBuffer("")
		s.secs = nil
		fmt.Fprintln(w, RenderConditional(DimStyle, "transcript cleared"))
	case "export":
		if s.last == nil {
			return true, errors.New("nothing to export yet")
		}
		format := "markdown"
		if len(fields) > 1 {
			format = fields[1]
		}
		path, err := s.app.exportOutput(s.last, s.out, format, "")
		if err != nil {
			return true, err
		}
		fmt.Fprintf(w, "%s %s\n", RenderConditional(SuccessStyle, "Exported to"), path)
	default:
		return true, usagef("unknown session command :%s (try :help)", fields[0])
	}
	return true, nil
}

const replHelp = `Type a slash command and press Enter. Tab completes command names and
arguments; press Tab again to cycle.

Session commands:
  :history        Recent invocations
  :doc            Transcript size and section count
  :clear          Start a new transcript
  :export [fmt]   Export the last output (markdown, html, json, ndjson)
  :quit           Leave`

// =============================================================================
// REPL
// =============================================================================

// HandleRepl runs the interactive prompt until EOF, Ctrl+C at the prompt or
// :quit. Ctrl+C while a command runs cancels only that command.
func HandleRepl(ctx context.Context, app *App, args Args) error {
	if app.Config.Index.Watch {
		if err := app.StartWatcher(ctx); err != nil {
			app.Log.Warn().Err(err).Msg("index watcher not started")
		}
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabCircular)
	line.SetCompleter(func(text string) []string {
		return completeLine(ctx, app.Completer, text)
	})

	historyFile := replHistoryFile(app.Config)
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer saveHistory(line, historyFile)

	session := NewSession(app)
	fmt.Fprintf(app.Out, "slashcmd %s - %d commands, :help for help\n", Version, app.Registry.Len())

	for {
		input, err := line.Prompt(RenderConditional(PromptStyle, "> "))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D and closed stdin all end the session
			fmt.Fprintln(app.Out)
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, ":") {
			keepGoing, err := session.Meta(input, app.Out)
			if err != nil {
				printError(app.Err, err)
			}
			if !keepGoing {
				return nil
			}
			continue
		}
		if !commands.IsCommand(input) {
			printError(app.Err, usagef("commands start with /, e.g. /help"))
			continue
		}

		runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		err = session.Exec(runCtx, input)
		stop()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, output.ErrStreamClosed) {
				fmt.Fprintln(app.Err, RenderConditional(WarningStyle, "[Cancelled]"))
				continue
			}
			printError(app.Err, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// replHistoryFile returns ui.history_file or ~/.slashcmd/history.
func replHistoryFile(cfg *config.Config) string {
	if cfg.UI.HistoryFile != "" {
		return cfg.UI.HistoryFile
	}
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "history")
}

// saveHistory writes the prompt history with owner-only permissions.
func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}

// printError writes an error line in the error style.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", RenderConditional(ErrorStyle, "Error:"), err)
}
