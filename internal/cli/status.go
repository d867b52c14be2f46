// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status and index commands.
//
// Command: status
// Shows the workspace root, registered commands, symbol index, snapshot
// cache and runner settings.
//
// Command: index [build|stats]
// Builds the symbol index behind /symbols or prints its statistics.
package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/slashcmd/internal/index"
)

var statusLabelStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("245")).
	Width(14)

// statusData is the JSON form of status.
type statusData struct {
	Root     string     `json:"root"`
	Commands int        `json:"commands"`
	Index    *indexData `json:"index,omitempty"`
	Cache    *cacheData `json:"cache,omitempty"`
	Runner   runnerData `json:"runner"`
}

type indexData struct {
	Files       int            `json:"files"`
	Symbols     int            `json:"symbols"`
	Languages   map[string]int `json:"languages"`
	LastIndexed time.Time      `json:"last_indexed"`
}

type cacheData struct {
	Entries   int   `json:"entries"`
	Evictions int64 `json:"evictions"`
}

type runnerData struct {
	MaxConcurrent int    `json:"max_concurrent"`
	Timeout       string `json:"timeout"`
	Invocations   int    `json:"invocations"`
}

// HandleStatus prints a summary of the wired components.
func HandleStatus(ctx context.Context, app *App, args Args) error {
	data := statusData{
		Root:     app.Workspace.Root(),
		Commands: app.Registry.Len(),
		Runner: runnerData{
			MaxConcurrent: app.Config.Runner.MaxConcurrent,
			Timeout:       app.Config.Runner.Timeout().String(),
			Invocations:   app.Runner.History().Count(),
		},
	}
	if app.Index != nil {
		data.Index = indexDataOf(app.Index.Stats())
	}
	if app.Cache != nil {
		data.Cache = &cacheData{Entries: app.Cache.Len(), Evictions: app.Cache.Evictions()}
	}

	if args.JSON {
		return outputJSON(app.Out, data)
	}

	fmt.Fprintln(app.Out, RenderConditional(TitleStyle, "slashcmd status"))
	statusLine(app, "Root", data.Root)
	statusLine(app, "Commands", fmt.Sprintf("%d registered", data.Commands))
	if data.Index == nil {
		statusLine(app, "Index", "disabled")
	} else if data.Index.LastIndexed.IsZero() {
		statusLine(app, "Index", "not built (run: slashcmd index build)")
	} else {
		statusLine(app, "Index", fmt.Sprintf("%d files, %d symbols", data.Index.Files, data.Index.Symbols))
		statusLine(app, "Languages", formatLanguages(data.Index.Languages))
		statusLine(app, "Indexed", data.Index.LastIndexed.Local().Format(time.DateTime))
	}
	if data.Cache == nil {
		statusLine(app, "Cache", "disabled")
	} else {
		statusLine(app, "Cache", fmt.Sprintf("%d entries, %d evicted", data.Cache.Entries, data.Cache.Evictions))
	}
	statusLine(app, "Runner", fmt.Sprintf("%d concurrent, %s timeout", data.Runner.MaxConcurrent, data.Runner.Timeout))
	return nil
}

// HandleIndex builds the symbol index or prints its statistics.
func HandleIndex(ctx context.Context, app *App, args Args) error {
	if app.Index == nil {
		return &CommandError{Command: "index", Err: fmt.Errorf("symbol index is disabled (index.enabled = false)")}
	}

	switch args.Subcommand {
	case "", "build":
		if err := app.Index.Build(ctx); err != nil {
			return &CommandError{Command: "index", Action: "build", Err: err}
		}
	case "stats":
		if !app.Index.IsIndexed() {
			return &CommandError{Command: "index", Action: "stats", Err: index.ErrNotIndexed}
		}
	default:
		return usagef("unknown index subcommand: %s", args.Subcommand)
	}

	stats := app.Index.Stats()
	if args.JSON {
		return outputJSON(app.Out, indexDataOf(stats))
	}
	statusLine(app, "Files", fmt.Sprint(stats.FileCount))
	statusLine(app, "Symbols", fmt.Sprint(stats.SymbolCount))
	statusLine(app, "Languages", formatLanguages(stats.Languages))
	if stats.Duration > 0 {
		statusLine(app, "Duration", formatDurationShort(stats.Duration))
	}
	return nil
}

func indexDataOf(s index.Stats) *indexData {
	return &indexData{
		Files:       s.FileCount,
		Symbols:     s.SymbolCount,
		Languages:   s.Languages,
		LastIndexed: s.LastIndexed,
	}
}

func statusLine(app *App, label, value string) {
	if ColorsEnabled() {
		fmt.Fprintf(app.Out, "  %s %s\n", statusLabelStyle.Render(label), value)
		return
	}
	fmt.Fprintf(app.Out, "  %-14s %s\n", label, value)
}

// formatLanguages lists languages by file count, largest first.
func formatLanguages(langs map[string]int) string {
	if len(langs) == 0 {
		return "none"
	}
	names := make([]string, 0, len(langs))
	for name := range langs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if langs[names[i]] != langs[names[j]] {
			return langs[names[i]] > langs[names[j]]
		}
		return names[i] < names[j]
	})
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s (%d)", name, langs[name])
	}
	return strings.Join(parts, ", ")
}
