// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtins

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/output"
)

// maxTreeEntries bounds the lines of one tree.
const maxTreeEntries = 1000

// TreeMetadata is attached to the /tree section.
type TreeMetadata struct {
	Path  string `json:"path"`
	Depth int    `json:"depth"`
}

// TreeCommand renders a directory tree.
type TreeCommand struct {
	opts Options
}

// NewTree creates the /tree command.
func NewTree(opts Options) *TreeCommand {
	return &TreeCommand{opts: opts.withDefaults()}
}

func (c *TreeCommand) Name() string           { return "tree" }
func (c *TreeCommand) Description() string    { return "Insert the directory tree of the workspace or a directory" }
func (c *TreeCommand) MenuText() string       { return "Insert Directory Tree" }
func (c *TreeCommand) RequiresArgument() bool { return false }
func (c *TreeCommand) AcceptsArguments() bool { return true }
func (c *TreeCommand) Usage() string          { return "/tree [dir]" }

// CompleteArgument completes workspace directories; accepting one runs the
// command.
func (c *TreeCommand) CompleteArgument(ctx context.Context, req commands.CompletionRequest) ([]commands.ArgumentCompletion, error) {
	return completePaths(ctx, req, true, commands.Run)
}

// Run builds the tree synchronously and returns it as a single section.
func (c *TreeCommand) Run(ctx context.Context, req commands.RunRequest) (output.EventStream, error) {
	ws, err := workspaceOf(req.Workspace, c.opts.IgnorePatterns)
	if err != nil {
		return nil, err
	}

	arg := "."
	if len(req.Arguments) > 0 {
		arg = req.Arguments[0]
	}
	dir := arg
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(ws.Root(), arg)
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", arg, ErrFileNotFound)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", arg, ErrNotDirectory)
	}

	b := &treeBuilder{ctx: ctx, maxDepth: c.opts.TreeDepth, ignore: c.opts.IgnorePatterns}
	label := relPath(ws.Root(), dir)
	if label == "." {
		label = filepath.Base(ws.Root())
	}
	b.sb.WriteString(strings.TrimSuffix(label, "/") + "/\n")
	if err := b.build(dir, "", 1); err != nil {
		return nil, err
	}

	md, err := output.NewMetadata(TreeMetadata{Path: relPath(ws.Root(), dir), Depth: c.opts.TreeDepth})
	if err != nil {
		return nil, err
	}
	text := b.sb.String()
	return output.ToEventStream(output.Output{
		Text: text,
		Sections: []output.Section[int]{{
			Range:    output.Range[int]{Start: 0, End: len(text)},
			Icon:     output.IconFileTree,
			Label:    label,
			Metadata: md,
		}},
	}), nil
}

// treeBuilder renders entries with ASCII connectors.
type treeBuilder struct {
	ctx      context.Context
	maxDepth int
	ignore   []string
	entries  int
	sb       strings.Builder
}

func (b *treeBuilder) build(dir, prefix string, depth int) error {
	if err := b.ctx.Err(); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	visible := entries[:0]
	for _, e := range entries {
		if !shouldIgnore(e.Name(), b.ignore) {
			visible = append(visible, e)
		}
	}

	for i, entry := range visible {
		if b.entries >= maxTreeEntries {
			b.sb.WriteString(prefix + "... (more files)\n")
			return nil
		}
		b.entries++

		isLast := i == len(visible)-1
		connector := "+-- "
		childPrefix := prefix + "|   "
		if isLast {
			connector = "`-- "
			childPrefix = prefix + "    "
		}

		name := entry.Name()
		if !entry.IsDir() {
			b.sb.WriteString(prefix + connector + name + "\n")
			continue
		}

		b.sb.WriteString(prefix + connector + name + "/\n")
		if depth >= b.maxDepth {
			continue
		}
		// Unreadable subdirectories are shown without children.
		if err := b.build(filepath.Join(dir, name), childPrefix, depth+1); err != nil && b.ctx.Err() != nil {
			return err
		}
	}
	return nil
}
