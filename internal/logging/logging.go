// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "SLASHCMD_LOG_LEVEL"
	EnvLogTimestamp = "SLASHCMD_LOG_TIMESTAMP"
	EnvLogNoColor   = "SLASHCMD_LOG_NOCOLOR"
	EnvLogJSON      = "SLASHCMD_LOG_JSON"
)

// Profile selects defaults for runtime or test use.
type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Options configures a logger.
type Options struct {
	Level     zerolog.Level
	JSON      bool
	NoColor   bool
	Timestamp bool
	// Out defaults to stderr so stdout stays free for command output
	Out io.Writer
}

// DefaultOptions returns the options for a profile before env overrides.
func DefaultOptions(profile Profile) Options {
	switch profile {
	case ProfileTest:
		return Options{Level: zerolog.DebugLevel, NoColor: true}
	default:
		return Options{Level: zerolog.InfoLevel, Timestamp: true}
	}
}

// New builds a logger for the given options.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		}
	}

	ctx := zerolog.New(out).Level(opts.Level).With().Str("app", "slashcmd")
	if opts.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

// Configure builds a logger from opts after applying environment
// overrides and installs it as the global log.Logger.
func Configure(opts Options) zerolog.Logger {
	ApplyEnvOverrides(&opts)
	logger := New(opts)
	log.Logger = logger
	return logger
}

// ApplyEnvOverrides applies SLASHCMD_LOG_* environment variables to opts.
func ApplyEnvOverrides(opts *Options) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		opts.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		opts.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		opts.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogJSON)); ok {
		opts.JSON = v
	}
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
