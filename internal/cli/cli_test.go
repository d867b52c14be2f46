// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/slashcmd/internal/builtins"
	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/config"
	"github.com/jeranaias/slashcmd/internal/export"
	"github.com/jeranaias/slashcmd/internal/index"
	"github.com/jeranaias/slashcmd/internal/output"
	"github.com/jeranaias/slashcmd/internal/snapshots"
	"github.com/jeranaias/slashcmd/internal/tasks"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

type testApp struct {
	*App
	out  *bytes.Buffer
	err  *bytes.Buffer
	root string
}

// newTestApp wires an App over a temporary workspace holding a.txt and
// src/main.go. The symbol index stays off unless modify enables it.
func newTestApp(t *testing.T, modify ...func(cfg *config.Config)) *testApp {
	t.Helper()
	ForceColorsEnabled(false)

	root := t.TempDir()
	writeFile(t, root, "a.txt", "alpha\n")
	writeFile(t, root, "src/main.go", "package main\n\nfunc main() {}\n")

	cfg := config.Default()
	cfg.Index.Enabled = false
	cfg.UI.HistoryFile = filepath.Join(t.TempDir(), "history")
	for _, m := range modify {
		m(cfg)
	}

	var out, errOut bytes.Buffer
	app, err := NewApp(context.Background(), Setup{
		Config:     cfg,
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		Root:       root,
		Logger:     zerolog.Nop(),
		Out:        &out,
		Err:        &errOut,
		NoColor:    true,
	})
	require.NoError(t, err)
	t.Cleanup(app.Close)

	return &testApp{App: app, out: &out, err: &errOut, root: root}
}

func (a *testApp) reset() {
	a.out.Reset()
	a.err.Reset()
}

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParser(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		bools      []string
		wantSub    string
		wantFlags  map[string]string
		wantBools  []string
		wantPos    []string
		wantAbsent []string
	}{
		{
			name:      "flag with value",
			args:      []string{"run", "--export", "markdown", "/now"},
			wantSub:   "run",
			wantFlags: map[string]string{"export": "markdown"},
			wantPos:   []string{"run", "/now"},
		},
		{
			name:      "equals form",
			args:      []string{"run", "--export=html", "/now"},
			wantSub:   "run",
			wantFlags: map[string]string{"export": "html"},
			wantPos:   []string{"run", "/now"},
		},
		{
			name:      "declared bool keeps positional",
			args:      []string{"run", "--json", "/now"},
			bools:     []string{"json"},
			wantSub:   "run",
			wantBools: []string{"json"},
			wantPos:   []string{"run", "/now"},
		},
		{
			name:       "undeclared flag consumes value",
			args:       []string{"run", "--json", "/now"},
			wantSub:    "run",
			wantFlags:  map[string]string{"json": "/now"},
			wantPos:    []string{"run"},
			wantAbsent: []string{"events"},
		},
		{
			name:      "trailing flag is bool",
			args:      []string{"list", "--verbose"},
			wantSub:   "list",
			wantBools: []string{"verbose"},
			wantPos:   []string{"list"},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"run", "--", "/file", "--weird-name"},
			wantSub: "run",
			wantPos: []string{"run", "/file", "--weird-name"},
		},
		{
			name:    "lone dash is positional",
			args:    []string{"replay", "-"},
			wantSub: "replay",
			wantPos: []string{"replay", "-"},
		},
		{
			name:      "short flag",
			args:      []string{"-v", "list"},
			bools:     []string{"v"},
			wantSub:   "list",
			wantBools: []string{"v"},
			wantPos:   []string{"list"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, tt.bools...)
			if got := p.Subcommand(); got != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", got, tt.wantSub)
			}
			for name, want := range tt.wantFlags {
				if got := p.Flag(name); got != want {
					t.Errorf("Flag(%q) = %q, want %q", name, got, want)
				}
			}
			for _, name := range tt.wantBools {
				if !p.BoolFlag(name) {
					t.Errorf("BoolFlag(%q) = false, want true", name)
				}
			}
			for _, name := range tt.wantAbsent {
				if p.HasFlag(name) {
					t.Errorf("HasFlag(%q) = true, want false", name)
				}
			}
			if got := p.PositionalFrom(0); fmt.Sprint(got) != fmt.Sprint(tt.wantPos) {
				t.Errorf("positionals = %q, want %q", got, tt.wantPos)
			}
			assert.Equal(t, tt.args, p.Raw())
		})
	}
}

func TestArgParserIntFlags(t *testing.T) {
	p := NewArgParser([]string{"--depth", "4", "--bad", "x"})
	n, err := p.FlagInt("depth")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 9, p.FlagIntOrDefault("bad", 9))
	assert.Equal(t, 9, p.FlagIntOrDefault("missing", 9))
	assert.Equal(t, "fallback", p.FlagOrDefault("missing", "fallback"))
	assert.Equal(t, "", p.Positional(3))
	assert.Equal(t, 0, p.PositionalCount())
}

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantCmd Command
		check   func(t *testing.T, a Args)
	}{
		{
			name:    "no arguments opens repl",
			argv:    nil,
			wantCmd: CmdRepl,
		},
		{
			name:    "list alias",
			argv:    []string{"ls"},
			wantCmd: CmdList,
		},
		{
			name:    "run joins the line",
			argv:    []string{"run", "/file", "a.go", "b.go", "--markdown"},
			wantCmd: CmdRun,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "/file a.go b.go", a.Line)
				assert.True(t, a.Markdown)
			},
		},
		{
			name:    "run with export",
			argv:    []string{"run", "/now", "--export", "html", "--export-dir", "/tmp/out"},
			wantCmd: CmdRun,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "/now", a.Line)
				assert.Equal(t, "html", a.Export)
				assert.Equal(t, "/tmp/out", a.ExportDir)
			},
		},
		{
			name:    "bool before line",
			argv:    []string{"run", "--events", "/git"},
			wantCmd: CmdRun,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.Events)
				assert.Equal(t, "/git", a.Line)
			},
		},
		{
			name:    "bare slash command runs",
			argv:    []string{"/file", "main.go"},
			wantCmd: CmdRun,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "/file main.go", a.Line)
			},
		},
		{
			name:    "complete",
			argv:    []string{"complete", "/fi"},
			wantCmd: CmdComplete,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "/fi", a.Line)
			},
		},
		{
			name:    "replay stdin",
			argv:    []string{"replay", "-", "--json"},
			wantCmd: CmdReplay,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "-", a.File)
				assert.True(t, a.JSON)
			},
		},
		{
			name:    "config set list value",
			argv:    []string{"config", "set", "commands.disabled", "git,tree"},
			wantCmd: CmdConfig,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "set", a.Subcommand)
				assert.Equal(t, "commands.disabled", a.ConfigKey)
				assert.Equal(t, "git,tree", a.ConfigVal)
			},
		},
		{
			name:    "status",
			argv:    []string{"status", "--json"},
			wantCmd: CmdStatus,
		},
		{
			name:    "index build",
			argv:    []string{"index", "build"},
			wantCmd: CmdIndex,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "build", a.Subcommand)
			},
		},
		{
			name:    "global flags",
			argv:    []string{"--config", "c.toml", "--root", "/src", "--log-level", "debug", "--no-color", "-v", "list"},
			wantCmd: CmdList,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "c.toml", a.ConfigPath)
				assert.Equal(t, "/src", a.Root)
				assert.Equal(t, "debug", a.LogLevel)
				assert.True(t, a.NoColor)
				assert.True(t, a.Verbose)
			},
		},
		{
			name:    "help flag wins",
			argv:    []string{"run", "/now", "--help"},
			wantCmd: CmdHelp,
		},
		{
			name:    "version flag",
			argv:    []string{"--version"},
			wantCmd: CmdVersion,
		},
		{
			name:    "unknown subcommand",
			argv:    []string{"frobnicate"},
			wantCmd: CmdHelp,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "frobnicate", a.Unknown)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := Parse(tt.argv)
			if cmd != tt.wantCmd {
				t.Fatalf("Parse(%q) = %v, want %v", tt.argv, cmd, tt.wantCmd)
			}
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	names := map[Command]string{
		CmdHelp:     "help",
		CmdList:     "list",
		CmdComplete: "complete",
		CmdRun:      "run",
		CmdReplay:   "replay",
		CmdRepl:     "repl",
		CmdConfig:   "config",
		CmdStatus:   "status",
		CmdIndex:    "index",
		CmdVersion:  "version",
	}
	for cmd, want := range names {
		if got := cmd.String(); got != want {
			t.Errorf("Command(%d).String() = %q, want %q", cmd, got, want)
		}
	}
}

// =============================================================================
// EXIT CODE TESTS
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", usagef("bad"), ExitUsageError},
		{"missing argument", &commands.StartupError{Command: "file", Err: commands.ErrMissingArgument}, ExitUsageError},
		{"unknown format", fmt.Errorf("export: %w", export.ErrUnknownFormat), ExitUsageError},
		{"config", &CommandError{Command: "config", Err: config.ValidateErrors{{Field: "runner.burst", Message: "must be positive"}}}, ExitConfigError},
		{"unknown command", fmt.Errorf("/x: %w", commands.ErrUnknownCommand), ExitNotFound},
		{"file not found", fmt.Errorf("x: %w", builtins.ErrFileNotFound), ExitNotFound},
		{"snapshot", snapshots.ErrNotFound, ExitNotFound},
		{"not indexed", &CommandError{Command: "index", Err: index.ErrNotIndexed}, ExitNotFound},
		{"timeout", fmt.Errorf("run: %w", tasks.ErrTimeout), ExitTimeout},
		{"deadline", context.DeadlineExceeded, ExitTimeout},
		{"canceled", context.Canceled, ExitInterrupted},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	err := &CommandError{Command: "run", Action: "export", Err: export.ErrUnknownFormat}
	assert.True(t, errors.Is(err, export.ErrUnknownFormat))
	assert.Contains(t, err.Error(), "run export:")
}

// =============================================================================
// RENDERER TESTS
// =============================================================================

func TestRendererPlain(t *testing.T) {
	ForceColorsEnabled(false)
	var buf bytes.Buffer
	r := NewRenderer(&buf, RenderOptions{ShowMetadata: true})

	events := []output.Event{
		output.Content{Text: "intro\n"},
		output.StartSection{Icon: output.IconFileCode, Label: "main.go"},
		output.Content{Text: "```main.go\npackage main\n```"},
		output.EndSection{Metadata: output.MustMetadata(map[string]string{"path": "main.go"})},
		output.Content{Text: "\n"},
	}
	out, err := RenderStream(context.Background(), output.StreamOf(events...), r)
	require.NoError(t, err)

	want := "intro\n[file_code] main.go\n```main.go\npackage main\n```" +
		"  metadata: {\"path\":\"main.go\"}\n\n"
	assert.Equal(t, want, buf.String())

	assert.Equal(t, "intro\n```main.go\npackage main\n```\n", out.Text)
	require.Len(t, out.Sections, 1)
	assert.Equal(t, "main.go", out.Sections[0].Label)
}

func TestRendererHighlightBuffersSection(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, RenderOptions{Highlight: true})

	require.NoError(t, r.Render(output.StartSection{Icon: output.IconFileCode, Label: "main.go"}))
	require.NoError(t, r.Render(output.Content{Text: "```main.go\npackage main\n"}))
	assert.Equal(t, "[file_code] main.go\n", buf.String())

	require.NoError(t, r.Render(output.Content{Text: "```"}))
	require.NoError(t, r.Render(output.EndSection{}))
	assert.Contains(t, buf.String(), "package")
	assert.Contains(t, buf.String(), "main")
}

func TestRendererFinishFlushesOpenSection(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, RenderOptions{Highlight: true})
	require.NoError(t, r.Render(output.StartSection{Label: "partial"}))
	require.NoError(t, r.Render(output.Content{Text: "not fenced"}))
	require.NoError(t, r.Finish())
	assert.Equal(t, "partial\nnot fenced", buf.String())
}

func TestRenderStreamError(t *testing.T) {
	boom := errors.New("boom")
	var buf bytes.Buffer
	_, err := RenderStream(context.Background(),
		output.StreamOfErr(boom, output.Content{Text: "a"}),
		NewRenderer(&buf, RenderOptions{}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "a", buf.String())
}

func TestHighlightFencedPassesThrough(t *testing.T) {
	assert.Equal(t, "plain text\n", highlightFenced("plain text\n", "monokai"))
	assert.Equal(t, "```", highlightFenced("```", "monokai"))
}

func TestIconTag(t *testing.T) {
	assert.Equal(t, "", iconTag(output.IconNone))
	assert.Equal(t, "[file_code]", iconTag(output.IconFileCode))
	assert.Equal(t, "main.go", renderSectionHeader(output.IconNone, "main.go"))
}

// =============================================================================
// LIST AND COMPLETE TESTS
// =============================================================================

func TestHandleList(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, HandleList(context.Background(), app.App))

	got := app.out.String()
	assert.Contains(t, got, fmt.Sprintf("Commands (%d)", app.Registry.Len()))
	assert.Contains(t, got, "/file")
	assert.Contains(t, got, "(alias: /f)")
	assert.Contains(t, got, "/now")
	assert.NotContains(t, got, "/symbols")
}

func TestHandleComplete(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, HandleComplete(ctx, app.App, Args{Line: "/fi"}))
	assert.Contains(t, app.out.String(), "continue\t\"/file \"")

	app.reset()
	require.NoError(t, HandleComplete(ctx, app.App, Args{Line: "/fi", JSON: true}))
	var views []completionView
	require.NoError(t, json.Unmarshal(app.out.Bytes(), &views))
	require.NotEmpty(t, views)
	assert.Equal(t, "/file", views[0].NewText)
	assert.Equal(t, "continue", views[0].AfterCompletion)
	assert.Equal(t, "/file ", views[0].Line)
	assert.False(t, views[0].Run)

	app.reset()
	require.NoError(t, HandleComplete(ctx, app.App, Args{Line: "/zzz"}))
	assert.Empty(t, app.out.String())
	assert.Contains(t, app.err.String(), "no completions")

	err := HandleComplete(ctx, app.App, Args{Line: "hello"})
	var usage *UsageError
	assert.True(t, errors.As(err, &usage))
}

func TestHandleCompleteArguments(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, HandleComplete(context.Background(), app.App, Args{Line: "/file a", JSON: true}))

	var views []completionView
	require.NoError(t, json.Unmarshal(app.out.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "a.txt", views[0].NewText)
	assert.Equal(t, "/file a.txt ", views[0].Line)
}

func TestCompleteLine(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	lines := completeLine(ctx, app.Completer, "/fi")
	assert.Equal(t, []string{"/file "}, lines)

	lines = completeLine(ctx, app.Completer, "/n")
	assert.Equal(t, []string{"/now"}, lines)

	assert.Nil(t, completeLine(ctx, app.Completer, "hello"))
}

// =============================================================================
// RUN AND REPLAY TESTS
// =============================================================================

func TestHandleRunRender(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, HandleRun(context.Background(), app.App, Args{Line: "/file a.txt"}))

	got := app.out.String()
	assert.Contains(t, got, "[file_doc] a.txt\n")
	assert.Contains(t, got, "```a.txt\nalpha\n```")
	assert.Equal(t, 1, app.Runner.History().Count())
	assert.Equal(t, 1, app.Cache.Len())
}

func TestHandleRunJSON(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, HandleRun(context.Background(), app.App, Args{Line: "/file a.txt", JSON: true}))

	var doc export.Document
	require.NoError(t, json.Unmarshal(app.out.Bytes(), &doc))
	assert.Equal(t, "file", doc.Command)
	assert.Equal(t, "/file a.txt", doc.Line)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "```a.txt\nalpha\n```\n", doc.Output.Text)
	require.Len(t, doc.Output.Sections, 1)
	assert.Equal(t, output.IconFileDoc, doc.Output.Sections[0].Icon)
}

func TestHandleRunErrors(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	err := HandleRun(ctx, app.App, Args{Line: ""})
	assert.Equal(t, ExitUsageError, ExitCode(err))

	err = HandleRun(ctx, app.App, Args{Line: "/nope"})
	assert.Equal(t, ExitNotFound, ExitCode(err))

	err = HandleRun(ctx, app.App, Args{Line: "/file"})
	assert.Equal(t, ExitUsageError, ExitCode(err))

	err = HandleRun(ctx, app.App, Args{Line: "/file missing.txt"})
	assert.Error(t, err)
}

func TestHandleRunExport(t *testing.T) {
	app := newTestApp(t)
	dir := t.TempDir()
	require.NoError(t, HandleRun(context.Background(), app.App, Args{
		Line:      "/file a.txt",
		Export:    "markdown",
		ExportDir: dir,
	}))
	assert.Contains(t, app.err.String(), "Exported to")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".md"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "### a.txt")
	assert.Contains(t, string(data), "alpha")

	err = HandleRun(context.Background(), app.App, Args{Line: "/now", Export: "pdf", ExportDir: dir})
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestEventsReplayRoundTrip(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, HandleRun(ctx, app.App, Args{Line: "/file a.txt src/main.go", Events: true}))
	logPath := filepath.Join(t.TempDir(), "file.ndjson")
	require.NoError(t, os.WriteFile(logPath, app.out.Bytes(), 0644))

	app.reset()
	require.NoError(t, HandleReplay(ctx, app.App, Args{File: logPath, JSON: true}))

	var doc export.Document
	require.NoError(t, json.Unmarshal(app.out.Bytes(), &doc))
	assert.Equal(t, "file", doc.Command)
	require.Len(t, doc.Output.Sections, 2)
	assert.Equal(t, "a.txt", doc.Output.Sections[0].Label)
	assert.Equal(t, "src/main.go", doc.Output.Sections[1].Label)
	assert.NoError(t, doc.Output.Validate())
}

func TestHandleReplayErrors(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	err := HandleReplay(ctx, app.App, Args{})
	assert.Equal(t, ExitUsageError, ExitCode(err))

	err = HandleReplay(ctx, app.App, Args{File: filepath.Join(t.TempDir(), "missing.ndjson")})
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.ndjson")
	require.NoError(t, os.WriteFile(bad, []byte("{\"type\":\"content\",\"text\":\"a\"}\nnot json\n"), 0644))
	err = HandleReplay(ctx, app.App, Args{File: bad})
	assert.Error(t, err)
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestSessionDelta(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	s := NewSession(app.App)

	require.NoError(t, s.Exec(ctx, "/file a.txt"))
	require.Len(t, s.Sections(), 1)
	assert.Contains(t, s.Document().Text(), "alpha")

	// Nothing changed since the file was inserted.
	app.reset()
	require.NoError(t, s.Exec(ctx, "/delta"))
	assert.Contains(t, app.err.String(), "(no output)")

	later := time.Now().Add(time.Hour)
	path := writeFile(t, app.root, "a.txt", "alpha changed\n")
	require.NoError(t, os.Chtimes(path, later, later))

	app.reset()
	require.NoError(t, s.Exec(ctx, "/delta"))
	assert.Contains(t, app.out.String(), "alpha changed")
	assert.Len(t, s.Sections(), 2)
	assert.Equal(t, 3, app.Runner.History().Count())
}

func TestSessionMeta(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	s := NewSession(app.App)
	var w bytes.Buffer

	_, err := s.Meta(":export", &w)
	assert.Error(t, err)

	require.NoError(t, s.Exec(ctx, "/now"))

	keep, err := s.Meta(":history", &w)
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Contains(t, w.String(), "/now")

	w.Reset()
	_, err = s.Meta(":doc", &w)
	require.NoError(t, err)
	assert.Contains(t, w.String(), "1 sections")

	w.Reset()
	_, err = s.Meta(":clear", &w)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Document().Len())
	assert.Empty(t, s.Sections())

	_, err = s.Meta(":bogus", &w)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	keep, err = s.Meta(":quit", &w)
	require.NoError(t, err)
	assert.False(t, keep)
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestHandleConfigGetSet(t *testing.T) {
	app := newTestApp(t)

	require.NoError(t, HandleConfig(app.App, Args{Subcommand: "get", ConfigKey: "commands.max_files"}))
	assert.Equal(t, "50\n", app.out.String())

	app.reset()
	require.NoError(t, HandleConfig(app.App, Args{Subcommand: "set", ConfigKey: "commands.max_files", ConfigVal: "20"}))
	assert.Contains(t, app.out.String(), "[OK] commands.max_files = 20")
	assert.Equal(t, 20, app.Config.Commands.MaxFiles)

	saved, err := config.LoadFromPath(app.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, 20, saved.Commands.MaxFiles)

	err = HandleConfig(app.App, Args{Subcommand: "get", ConfigKey: "no.such_key"})
	assert.Error(t, err)

	err = HandleConfig(app.App, Args{Subcommand: "set"})
	assert.Equal(t, ExitUsageError, ExitCode(err))

	err = HandleConfig(app.App, Args{Subcommand: "bogus"})
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestHandleConfigSetRejectsInvalid(t *testing.T) {
	app := newTestApp(t)
	err := HandleConfig(app.App, Args{Subcommand: "set", ConfigKey: "runner.max_concurrent", ConfigVal: "0"})
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCode(err))
	assert.Equal(t, 4, app.Config.Runner.MaxConcurrent)

	_, statErr := os.Stat(app.ConfigPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestHandleConfigShowAndPath(t *testing.T) {
	app := newTestApp(t)

	require.NoError(t, HandleConfig(app.App, Args{Subcommand: "show"}))
	got := app.out.String()
	assert.Contains(t, got, "[commands]")
	assert.Contains(t, got, "[runner]")
	assert.Contains(t, got, "Config file: "+app.ConfigPath)

	app.reset()
	require.NoError(t, HandleConfig(app.App, Args{Subcommand: "path"}))
	assert.Equal(t, app.ConfigPath+"\n", app.out.String())

	app.reset()
	require.NoError(t, HandleConfig(app.App, Args{JSON: true}))
	var raw map[string]any
	require.NoError(t, json.Unmarshal(app.out.Bytes(), &raw))
}

func TestFormatConfigValue(t *testing.T) {
	assert.Equal(t, "a,b", formatConfigValue([]string{"a", "b"}))
	assert.Equal(t, `""`, formatConfigValue(""))
	assert.Equal(t, "true", formatConfigValue(true))
	assert.Equal(t, "12", formatConfigValue(12))
}

// =============================================================================
// STATUS AND INDEX TESTS
// =============================================================================

func TestHandleStatus(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, HandleRun(ctx, app.App, Args{Line: "/now"}))
	app.reset()

	require.NoError(t, HandleStatus(ctx, app.App, Args{JSON: true}))
	var data statusData
	require.NoError(t, json.Unmarshal(app.out.Bytes(), &data))
	assert.Equal(t, app.root, data.Root)
	assert.Equal(t, app.Registry.Len(), data.Commands)
	assert.Nil(t, data.Index)
	require.NotNil(t, data.Cache)
	assert.Equal(t, 1, data.Cache.Entries)
	assert.Equal(t, 1, data.Runner.Invocations)

	app.reset()
	require.NoError(t, HandleStatus(ctx, app.App, Args{}))
	assert.Contains(t, app.out.String(), "disabled")
}

func TestHandleIndexDisabled(t *testing.T) {
	app := newTestApp(t)
	err := HandleIndex(context.Background(), app.App, Args{Subcommand: "build"})
	assert.Error(t, err)
}

func TestHandleIndexBuild(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	app := newTestApp(t, func(cfg *config.Config) {
		cfg.Index.Enabled = true
		cfg.Index.DBPath = dbPath
	})
	require.NotNil(t, app.Index)
	ctx := context.Background()

	err := HandleIndex(ctx, app.App, Args{Subcommand: "stats"})
	assert.Equal(t, ExitNotFound, ExitCode(err))

	require.NoError(t, HandleIndex(ctx, app.App, Args{Subcommand: "build"}))
	assert.Contains(t, app.out.String(), "Symbols")

	app.reset()
	require.NoError(t, HandleIndex(ctx, app.App, Args{Subcommand: "stats", JSON: true}))
	var data indexData
	require.NoError(t, json.Unmarshal(app.out.Bytes(), &data))
	assert.GreaterOrEqual(t, data.Files, 1)
	assert.GreaterOrEqual(t, data.Symbols, 1)

	_, ok := app.Registry.Get("symbols")
	assert.True(t, ok)

	err = HandleIndex(ctx, app.App, Args{Subcommand: "drop"})
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestFormatLanguages(t *testing.T) {
	assert.Equal(t, "none", formatLanguages(nil))
	assert.Equal(t, "go (3), python (3), rust (1)",
		formatLanguages(map[string]int{"rust": 1, "python": 3, "go": 3}))
}

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
	}
	for _, tt := range tests {
		if got := formatDurationShort(tt.d); got != tt.want {
			t.Errorf("formatDurationShort(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

// =============================================================================
// EXECUTE TESTS
// =============================================================================

func TestExecuteHelpAndVersion(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, Execute(ctx, app.App, CmdVersion, Args{}))
	assert.Contains(t, app.out.String(), "slashcmd "+Version)

	app.reset()
	require.NoError(t, Execute(ctx, app.App, CmdHelp, Args{}))
	assert.Contains(t, app.out.String(), "Usage:")

	app.reset()
	err := Execute(ctx, app.App, CmdHelp, Args{Unknown: "frob"})
	assert.Equal(t, ExitUsageError, ExitCode(err))
}
