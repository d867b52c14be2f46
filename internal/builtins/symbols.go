// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtins

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/index"
	"github.com/jeranaias/slashcmd/internal/output"
)

// SymbolsMetadata is attached to each /symbols section.
type SymbolsMetadata struct {
	Path  string `json:"path"`
	Query string `json:"query"`
	Count int    `json:"count"`
}

// SymbolsCommand searches the workspace symbol index.
type SymbolsCommand struct {
	idx   *index.Index
	limit int
}

// NewSymbols creates the /symbols command over idx.
func NewSymbols(idx *index.Index, opts Options) *SymbolsCommand {
	return &SymbolsCommand{idx: idx, limit: opts.withDefaults().CompletionLimit}
}

func (c *SymbolsCommand) Name() string           { return "symbols" }
func (c *SymbolsCommand) Description() string    { return "Insert workspace symbols matching a query" }
func (c *SymbolsCommand) MenuText() string       { return "Search Symbols" }
func (c *SymbolsCommand) RequiresArgument() bool { return true }
func (c *SymbolsCommand) Usage() string          { return "/symbols <query>" }

// CompleteArgument proposes indexed symbol names. Nothing is proposed until
// the workspace has been indexed.
func (c *SymbolsCommand) CompleteArgument(ctx context.Context, req commands.CompletionRequest) ([]commands.ArgumentCompletion, error) {
	if !c.idx.IsIndexed() || len(req.Arguments) == 0 {
		return nil, nil
	}
	partial := req.Arguments[len(req.Arguments)-1]
	names, err := c.idx.Names(ctx, partial, c.limit)
	if err != nil {
		return nil, err
	}
	out := make([]commands.ArgumentCompletion, 0, len(names))
	for _, n := range names {
		if err := commands.CheckCanceled(req.Cancel); err != nil {
			return nil, err
		}
		out = append(out, commands.ArgumentCompletion{
			Label:           commands.PlainLabel(n, partial),
			NewText:         n,
			AfterCompletion: commands.Run,
		})
	}
	return out, nil
}

// Run builds the index on first use, then groups matches by file.
func (c *SymbolsCommand) Run(ctx context.Context, req commands.RunRequest) (output.EventStream, error) {
	if !c.idx.IsIndexed() {
		if err := c.idx.Build(ctx); err != nil {
			return nil, fmt.Errorf("build index: %w", err)
		}
	}

	query := strings.Join(req.Arguments, " ")
	matches, err := c.idx.Search(ctx, query, 100)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%q: %w", query, ErrNoMatches)
	}

	var order []string
	byPath := make(map[string][]index.Match)
	for _, m := range matches {
		if _, ok := byPath[m.Path]; !ok {
			order = append(order, m.Path)
		}
		byPath[m.Path] = append(byPath[m.Path], m)
	}

	var b output.Builder
	for _, path := range order {
		group := byPath[path]
		md, err := output.NewMetadata(SymbolsMetadata{Path: path, Query: query, Count: len(group)})
		if err != nil {
			return nil, err
		}

		var sb strings.Builder
		sb.WriteString(path + "\n")
		for _, m := range group {
			fmt.Fprintf(&sb, "%6d  %-10s %s\n", m.Line, strings.ToLower(m.Kind.String()), m.Signature)
		}

		b.Push(output.StartSection{Icon: output.IconMagnifyingGlass, Label: path})
		b.Push(output.Content{Text: sb.String()})
		b.Push(output.EndSection{Metadata: md})
		b.Push(output.Content{Text: "\n"})
	}
	return output.ToEventStream(b.Finish()), nil
}
