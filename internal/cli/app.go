// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/jeranaias/slashcmd/internal/builtins"
	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/config"
	"github.com/jeranaias/slashcmd/internal/index"
	"github.com/jeranaias/slashcmd/internal/snapshots"
	"github.com/jeranaias/slashcmd/internal/tasks"
)

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// Setup holds what NewApp needs from main.
type Setup struct {
	Config *config.Config

	// ConfigPath is where "config set" saves. Empty means the default
	// ~/.slashcmd/config.toml.
	ConfigPath string

	// Root is the workspace directory. Empty means the working directory.
	Root string

	Logger zerolog.Logger

	// Out and Err default to stdout and stderr.
	Out io.Writer
	Err io.Writer

	// NoColor disables styling regardless of terminal detection.
	NoColor bool
}

// App is the wired set of components behind every subcommand.
type App struct {
	Config     *config.Config
	ConfigPath string
	Registry   *commands.Registry
	Completer  *commands.Completer
	Runner     *tasks.Runner
	Cache      *snapshots.Cache
	Index      *index.Index
	Workspace  commands.Workspace
	Delegate   commands.Delegate
	Log        zerolog.Logger
	Out        io.Writer
	Err        io.Writer

	watcher   *index.Watcher
	closeOnce sync.Once
}

// NewApp builds the registry with the built-in commands, the runner and
// the snapshot cache. The symbol index is opened when enabled; failing to
// open it only disables /symbols.
func NewApp(ctx context.Context, s Setup) (*App, error) {
	cfg := s.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if s.Out == nil {
		s.Out = os.Stdout
	}
	if s.Err == nil {
		s.Err = os.Stderr
	}
	if s.NoColor {
		ForceColorsEnabled(false)
	}
	lipgloss.SetColorProfile(GetColorProfile())

	root := s.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	ws, err := builtins.NewLocalWorkspace(root, cfg.Commands.IgnorePatterns)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:     cfg,
		ConfigPath: s.ConfigPath,
		Registry:   commands.NewRegistry(),
		Workspace:  ws,
		Delegate:   builtins.NewLocalDelegate(root),
		Log:        s.Logger,
		Out:        s.Out,
		Err:        s.Err,
	}

	if cfg.Cache.Enabled {
		app.Cache, err = snapshots.New(cfg.Cache.MaxEntries, cfg.Cache.TTL())
		if err != nil {
			return nil, err
		}
	}

	if cfg.Index.Enabled && cfg.CommandEnabled("symbols") {
		opts := index.OptionsFromConfig(root, cfg.Index, cfg.Commands)
		opts.Logger = s.Logger
		idx, err := index.Open(ctx, opts)
		if err != nil {
			s.Logger.Warn().Err(err).Msg("symbol index unavailable, /symbols disabled")
		} else {
			app.Index = idx
		}
	}

	if err := builtins.Register(app.Registry, builtins.OptionsFromConfig(cfg), app.Index); err != nil {
		app.Close()
		return nil, fmt.Errorf("register builtins: %w", err)
	}

	app.Completer = commands.NewCompleter(app.Registry)
	app.Completer.Workspace = ws
	app.Completer.MaxResults = cfg.Commands.CompletionLimit

	runnerOpts := tasks.OptionsFromConfig(cfg.Runner)
	runnerOpts.Cache = app.Cache
	runnerOpts.Logger = s.Logger
	app.Runner = tasks.NewRunner(runnerOpts)

	s.Logger.Debug().
		Str("root", root).
		Int("commands", app.Registry.Len()).
		Bool("index", app.Index != nil).
		Bool("cache", app.Cache != nil).
		Msg("slashcmd ready")
	return app, nil
}

// StartWatcher keeps the symbol index current until ctx ends. It is a
// no-op without an index.
func (a *App) StartWatcher(ctx context.Context) error {
	if a.Index == nil || a.watcher != nil {
		return nil
	}
	w, err := a.Index.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch workspace: %w", err)
	}
	a.watcher = w
	go func() {
		for c := range w.Changes() {
			if c.Err != nil {
				a.Log.Warn().Err(c.Err).Str("path", c.Path).Msg("reindex failed")
				continue
			}
			a.Log.Debug().Str("path", c.Path).Bool("removed", c.Removed).Msg("reindexed")
		}
	}()
	return nil
}

// Close stops the runner and releases the watcher and index.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.Runner != nil {
			a.Runner.Stop()
		}
		if a.watcher != nil {
			_ = a.watcher.Close()
		}
		if a.Index != nil {
			if err := a.Index.Close(); err != nil {
				a.Log.Warn().Err(err).Msg("close index")
			}
		}
	})
}

// renderOptions maps the ui section of the configuration.
func (a *App) renderOptions(showMetadata bool) RenderOptions {
	return RenderOptions{
		Highlight:    a.Config.UI.Highlight && ColorsEnabled(),
		ChromaStyle:  a.Config.UI.ChromaStyle,
		ShowMetadata: showMetadata,
	}
}
