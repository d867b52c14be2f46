// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/util"
)

// completionTimeout bounds one completion request from the CLI or REPL.
const completionTimeout = 2 * time.Second

// =============================================================================
// LIST
// =============================================================================

// HandleList prints every registered command with its menu text and usage.
func HandleList(ctx context.Context, app *App) error {
	cmds := app.Registry.All()
	width := 0
	for _, cmd := range cmds {
		width = max(width, util.StringWidth(commands.UsageOf(cmd)))
	}

	fmt.Fprintln(app.Out, RenderConditional(TitleStyle, fmt.Sprintf("Commands (%d)", len(cmds))))
	for _, cmd := range cmds {
		usage := util.PadRight(commands.UsageOf(cmd), width)
		line := fmt.Sprintf("  %s  %s", RenderConditional(CommandStyle, usage), cmd.Description())
		if aliases := app.Registry.Aliases(cmd.Name()); len(aliases) > 0 {
			line += RenderConditional(DimStyle, " (alias: /"+strings.Join(aliases, ", /")+")")
		}
		fmt.Fprintln(app.Out, line)
	}
	return nil
}

// =============================================================================
// COMPLETE
// =============================================================================

// completionView is the JSON form of one completion.
type completionView struct {
	Label                    string `json:"label"`
	NewText                  string `json:"new_text"`
	AfterCompletion          string `json:"after_completion"`
	ReplacePreviousArguments bool   `json:"replace_previous_arguments,omitempty"`
	Description              string `json:"description,omitempty"`
	Line                     string `json:"line"`
	Run                      bool   `json:"run"`
}

// HandleComplete prints the completions for args.Line: one per line with
// the line it would produce and its policy, or a JSON array with --json.
func HandleComplete(ctx context.Context, app *App, args Args) error {
	if !commands.IsCommand(args.Line) {
		return usagef("complete: expected a line starting with /, got %q", args.Line)
	}

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	completions, err := app.Completer.Complete(ctx, args.Line, nil)
	if err != nil {
		return &CommandError{Command: "complete", Err: err}
	}

	views := make([]completionView, 0, len(completions))
	for _, c := range completions {
		line, run := commands.ApplyCompletion(args.Line, c.ArgumentCompletion)
		views = append(views, completionView{
			Label:                    c.Label.Text,
			NewText:                  c.NewText,
			AfterCompletion:          c.AfterCompletion.String(),
			ReplacePreviousArguments: c.ReplacePreviousArguments,
			Description:              c.Description,
			Line:                     line,
			Run:                      run,
		})
	}

	if args.JSON {
		return outputJSON(app.Out, views)
	}

	if len(completions) == 0 {
		fmt.Fprintln(app.Err, RenderConditional(DimStyle, "no completions"))
		return nil
	}
	width := GetTerminalWidth()
	for i, c := range completions {
		label := util.TruncateWidth(renderCodeLabel(c.Label), width/2)
		if !ColorsEnabled() {
			label = util.TruncateWidth(c.Label.Text, width/2)
		}
		fmt.Fprintf(app.Out, "%s\t%s\t%q\n", label, views[i].AfterCompletion, views[i].Line)
	}
	return nil
}

// completeLine returns the lines produced by accepting each completion of
// line. The REPL uses it for tab completion. Errors and cancellation give
// no candidates.
func completeLine(ctx context.Context, completer *commands.Completer, line string) []string {
	if !commands.IsCommand(line) {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	// The flag follows ctx so slow argument completion stops on timeout.
	var canceled atomic.Bool
	stop := context.AfterFunc(ctx, func() { canceled.Store(true) })
	defer stop()

	completions, err := completer.Complete(ctx, line, &canceled)
	if err != nil {
		return nil
	}
	seen := make(map[string]bool, len(completions))
	lines := make([]string, 0, len(completions))
	for _, c := range completions {
		next, _ := commands.ApplyCompletion(line, c.ArgumentCompletion)
		if !seen[next] {
			seen[next] = true
			lines = append(lines, next)
		}
	}
	return lines
}
