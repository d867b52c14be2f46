// slashcmd - Slash commands that stream sectioned output into a document.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/jeranaias/slashcmd/internal/cli"
	"github.com/jeranaias/slashcmd/internal/config"
	"github.com/jeranaias/slashcmd/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	// A .env in the working directory may carry SLASHCMD_* overrides
	_ = godotenv.Load()

	cmd, args := cli.Parse(os.Args[1:])

	cfg, err := loadConfig(args.ConfigPath)
	if err != nil {
		printError(err)
		return cli.ExitConfigError
	}

	logger := logging.Configure(logOptions(cfg, args))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cli.Setup{
		Config:     cfg,
		ConfigPath: args.ConfigPath,
		Root:       args.Root,
		Logger:     logger,
		NoColor:    args.NoColor || cfg.Log.NoColor,
	})
	if err != nil {
		printError(err)
		return cli.ExitCode(err)
	}
	defer app.Close()

	if err := cli.Execute(ctx, app, cmd, args); err != nil {
		printError(err)
		return cli.ExitCode(err)
	}
	return cli.ExitSuccess
}

// loadConfig reads --config when given, otherwise the default location
// with environment overrides.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// logOptions resolves the log level: --log-level, then --verbose, then the
// log section of the configuration.
func logOptions(cfg *config.Config, args cli.Args) logging.Options {
	opts := logging.DefaultOptions(logging.ProfileRuntime)
	opts.JSON = cfg.Log.JSON
	opts.NoColor = args.NoColor || cfg.Log.NoColor || !cli.ColorsEnabled()

	if lvl, ok := logging.ParseLevel(cfg.Log.Level); ok {
		opts.Level = lvl
	}
	if args.Verbose {
		opts.Level = zerolog.DebugLevel
	}
	if lvl, ok := logging.ParseLevel(args.LogLevel); ok {
		opts.Level = lvl
	}
	return opts
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", cli.RenderConditional(cli.ErrorStyle, "Error:"), err)
}
