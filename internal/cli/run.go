// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/export"
	"github.com/jeranaias/slashcmd/internal/output"
	"github.com/jeranaias/slashcmd/internal/snapshots"
	"github.com/jeranaias/slashcmd/internal/tasks"
)

// =============================================================================
// OUTPUT MODES
// =============================================================================

// outputMode selects how a stream is presented.
type outputMode int

const (
	modeRender outputMode = iota
	modeEvents
	modeJSON
	modeMarkdown
)

func modeOf(args Args) outputMode {
	switch {
	case args.Events:
		return modeEvents
	case args.JSON:
		return modeJSON
	case args.Markdown:
		return modeMarkdown
	default:
		return modeRender
	}
}

// consume drains stream in the given mode and returns the Output. entry
// supplies the identity written by the JSON mode.
func (a *App) consume(ctx context.Context, stream output.EventStream, mode outputMode, showMetadata bool, entry snapshots.Entry) (output.Output, error) {
	switch mode {
	case modeEvents:
		w := export.NewEventWriter(a.Out)
		var writeErr error
		stream = output.Tee(stream, func(ev output.Event) {
			if writeErr == nil {
				writeErr = w.Write(ev)
			}
		})
		out, err := output.FromEventStream(ctx, stream)
		if err != nil {
			return output.Output{}, err
		}
		return out, writeErr

	case modeJSON:
		out, err := output.FromEventStream(ctx, stream)
		if err != nil {
			return output.Output{}, err
		}
		entry.Output = out
		data, err := export.NewJSONExporter(nil).Export(entry)
		if err != nil {
			return output.Output{}, err
		}
		_, err = fmt.Fprintf(a.Out, "%s\n", data)
		return out, err

	case modeMarkdown:
		out, err := output.FromEventStream(ctx, stream)
		if err != nil {
			return output.Output{}, err
		}
		_, err = io.WriteString(a.Out, renderMarkdown(out, a.Config.UI.WordWrap, a.Config.UI.Theme))
		return out, err

	default:
		out, err := RenderStream(ctx, stream, NewRenderer(a.Out, a.renderOptions(showMetadata)))
		if err != nil {
			return output.Output{}, err
		}
		if out.Text == "" {
			fmt.Fprintln(a.Err, RenderConditional(DimStyle, "(no output)"))
		} else if !strings.HasSuffix(out.Text, "\n") {
			fmt.Fprintln(a.Out)
		}
		return out, nil
	}
}

// =============================================================================
// RUN
// =============================================================================

// execute parses line, starts the command on the runner and consumes its
// stream. req supplies document context; its arguments are replaced by
// the parsed ones.
func (a *App) execute(ctx context.Context, line string, req commands.RunRequest, mode outputMode, showMetadata bool) (*tasks.Invocation, output.Output, error) {
	res := a.Registry.Parse(line)
	if !res.IsCommand {
		return nil, output.Output{}, usagef("not a slash command: %q", line)
	}
	if res.Command == nil {
		return nil, output.Output{}, fmt.Errorf("/%s: %w", res.CommandName, commands.ErrUnknownCommand)
	}

	req.Arguments = res.Args
	if req.Workspace == nil {
		req.Workspace = a.Workspace
	}
	if req.Delegate == nil {
		req.Delegate = a.Delegate
	}

	inv, stream, err := a.Runner.Start(ctx, res.Command, line, req)
	if err != nil {
		return inv, output.Output{}, err
	}
	out, err := a.consume(ctx, stream, mode, showMetadata, snapshots.Entry{
		ID:        inv.ID,
		Command:   inv.Command,
		Line:      inv.Line,
		CreatedAt: time.Now(),
	})
	return inv, out, err
}

// HandleRun runs one command line and optionally exports the result.
func HandleRun(ctx context.Context, app *App, args Args) error {
	line := strings.TrimSpace(args.Line)
	if line == "" {
		return usagef("run: missing command line, e.g. slashcmd run /now")
	}

	inv, out, err := app.execute(ctx, line, commands.RunRequest{}, modeOf(args), args.Metadata)
	if err != nil {
		return err
	}
	if args.Export == "" {
		return nil
	}
	path, err := app.exportOutput(inv, out, args.Export, args.ExportDir)
	if err != nil {
		return &CommandError{Command: "run", Action: "export", Err: err}
	}
	fmt.Fprintf(app.Err, "%s %s\n", RenderConditional(SuccessStyle, "Exported to"), path)
	return nil
}

// exportOutput writes a finished invocation in format. The cached entry is
// preferred so the export matches what the runner recorded.
func (a *App) exportOutput(inv *tasks.Invocation, out output.Output, format, dir string) (string, error) {
	opts := export.DefaultOptions()
	if dir != "" {
		opts.OutputDir = dir
	}
	if theme := a.Config.UI.Theme; theme == "light" || theme == "dark" {
		opts.Theme = theme
	}
	if a.Config.UI.ChromaStyle != "" {
		opts.ChromaStyle = a.Config.UI.ChromaStyle
	}

	exporter, err := export.New(format, opts)
	if err != nil {
		return "", err
	}

	entry := snapshots.Entry{ID: inv.ID, Command: inv.Command, Line: inv.Line, Output: out, CreatedAt: time.Now()}
	if a.Cache != nil {
		if cached, err := a.Cache.Get(inv.ID); err == nil {
			entry = cached
		}
	}
	return export.ExportToFile(entry, exporter, opts)
}

// =============================================================================
// REPLAY
// =============================================================================

// HandleReplay rebuilds an output from an NDJSON event log ("-" reads
// stdin) and presents it like run.
func HandleReplay(ctx context.Context, app *App, args Args) error {
	if args.File == "" {
		return usagef("replay: missing event log path")
	}

	var src io.Reader = os.Stdin
	name := "stdin"
	if args.File != "-" {
		f, err := os.Open(args.File)
		if err != nil {
			return &CommandError{Command: "replay", Err: err}
		}
		src = f
		name = strings.TrimSuffix(filepath.Base(args.File), filepath.Ext(args.File))
	}

	stream := export.ReadEvents(src)
	if _, err := app.consume(ctx, stream, modeOf(args), args.Metadata, snapshots.Entry{Command: name, CreatedAt: time.Now()}); err != nil {
		return &CommandError{Command: "replay", Err: err}
	}
	return nil
}
