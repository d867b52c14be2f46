// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtins

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/config"
	"github.com/jeranaias/slashcmd/internal/index"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrFileNotFound is returned when a file doesn't exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrFileTooLarge is returned when a file exceeds size limits.
	ErrFileTooLarge = errors.New("file too large")

	// ErrBinaryFile is returned for files that are not valid UTF-8 text.
	ErrBinaryFile = errors.New("binary file")

	// ErrNotGitRepo is returned when not in a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrNoMatches is returned when arguments match nothing.
	ErrNoMatches = errors.New("no matches")

	// ErrNotDirectory is returned when a directory argument names a file.
	ErrNotDirectory = errors.New("not a directory")
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options holds limits shared by the built-in commands.
type Options struct {
	// MaxFileSize is the largest file /file will read, in bytes.
	MaxFileSize int64

	// MaxFileLines truncates longer files.
	MaxFileLines int

	// MaxFiles caps the files one /file invocation inserts.
	MaxFiles int

	// TreeDepth is the deepest level /tree descends to.
	TreeDepth int

	// IgnorePatterns are matched against file and directory names.
	IgnorePatterns []string

	// GitTimeout bounds each git invocation.
	GitTimeout time.Duration

	// GitLogCount is the number of commits /git shows without a range.
	GitLogCount int

	// CompletionLimit caps index-backed completions.
	CompletionLimit int

	// StreamBuffer is the pipe buffer of streaming commands.
	StreamBuffer int

	// Disabled lists command names Register skips.
	Disabled []string

	// Now is the clock of /now. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the options of a default configuration.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig derives Options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	c := cfg.Commands
	return Options{
		MaxFileSize:     c.MaxFileSize,
		MaxFileLines:    c.MaxFileLines,
		MaxFiles:        c.MaxFiles,
		TreeDepth:       c.TreeDepth,
		IgnorePatterns:  append([]string(nil), c.IgnorePatterns...),
		GitTimeout:      time.Duration(c.GitTimeoutSecs) * time.Second,
		GitLogCount:     c.GitLogCount,
		CompletionLimit: c.CompletionLimit,
		StreamBuffer:    cfg.Runner.StreamBuffer,
		Disabled:        append([]string(nil), c.Disabled...),
		Now:             time.Now,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = 512 * 1024
	}
	if o.MaxFileLines <= 0 {
		o.MaxFileLines = 2000
	}
	if o.MaxFiles <= 0 {
		o.MaxFiles = 50
	}
	if o.TreeDepth <= 0 {
		o.TreeDepth = 3
	}
	if o.GitTimeout <= 0 {
		o.GitTimeout = 10 * time.Second
	}
	if o.GitLogCount <= 0 {
		o.GitLogCount = 10
	}
	if o.CompletionLimit <= 0 {
		o.CompletionLimit = 20
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) enabled(name string) bool {
	for _, d := range o.Disabled {
		if strings.EqualFold(strings.TrimPrefix(d, "/"), name) {
			return false
		}
	}
	return true
}

// =============================================================================
// REGISTRATION
// =============================================================================

// Register adds the enabled built-in commands to reg. /symbols is only
// registered when idx is non-nil.
func Register(reg *commands.Registry, opts Options, idx *index.Index) error {
	opts = opts.withDefaults()

	file := NewFile(opts)
	cmds := []commands.Command{
		file,
		NewTree(opts),
		NewGit(opts),
		NewNow(opts),
		NewDelta(file),
		NewHelp(reg),
	}
	if idx != nil {
		cmds = append(cmds, NewSymbols(idx, opts))
	}

	for _, cmd := range cmds {
		if !opts.enabled(cmd.Name()) {
			continue
		}
		if err := reg.Register(cmd); err != nil {
			return fmt.Errorf("register /%s: %w", cmd.Name(), err)
		}
	}

	aliases := map[string]string{"f": "file", "h": "help"}
	for alias, name := range aliases {
		if _, ok := reg.Get(name); !ok {
			continue
		}
		if err := reg.Alias(alias, name); err != nil {
			return fmt.Errorf("alias /%s: %w", alias, err)
		}
	}
	return nil
}
