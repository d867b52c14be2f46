// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtins

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/diff"
	"github.com/jeranaias/slashcmd/internal/output"
)

// maxStatWorkers bounds concurrent stats in /delta.
const maxStatWorkers = 8

// deltaDiffMode is the argument selecting unified diffs over full files.
const deltaDiffMode = "diff"

// DeltaMetadata is attached to each section of /delta diff.
type DeltaMetadata struct {
	Path string `json:"path"`
	diff.Stats
}

// DeltaCommand re-inserts files from earlier /file sections that changed on
// disk since they were inserted. With the "diff" argument it inserts a
// unified diff against the inserted text instead.
type DeltaCommand struct {
	file *FileCommand
}

// NewDelta creates the /delta command on top of /file.
func NewDelta(file *FileCommand) *DeltaCommand {
	return &DeltaCommand{file: file}
}

func (c *DeltaCommand) Name() string           { return "delta" }
func (c *DeltaCommand) Description() string    { return "Re-insert files that changed since they were inserted" }
func (c *DeltaCommand) MenuText() string       { return "Insert Changed Files" }
func (c *DeltaCommand) RequiresArgument() bool { return false }
func (c *DeltaCommand) AcceptsArguments() bool { return true }
func (c *DeltaCommand) Usage() string          { return "/delta [diff]" }

// Label shows the optional mode.
func (c *DeltaCommand) Label(ctx context.Context) commands.CodeLabel {
	var l commands.CodeLabel
	l.Push("delta", "")
	l.Push(" ", "")
	l.Push("[diff]", "comment")
	return l
}

func (c *DeltaCommand) CompleteArgument(ctx context.Context, req commands.CompletionRequest) ([]commands.ArgumentCompletion, error) {
	if len(req.Arguments) != 1 {
		return nil, nil
	}
	var out []commands.ArgumentCompletion
	for _, mode := range commands.FilterByPrefix([]string{deltaDiffMode}, req.Arguments[0]) {
		out = append(out, commands.ArgumentCompletion{
			Label:           commands.PlainLabel(mode, ""),
			NewText:         mode,
			AfterCompletion: commands.Run,
		})
	}
	return out, nil
}

// deltaCandidate is a file section that may have changed.
type deltaCandidate struct {
	md  FileMetadata
	sec output.Section[int]
}

// Run considers only sections still valid in the snapshot. Deleted files
// are skipped. With nothing changed the stream is empty.
func (c *DeltaCommand) Run(ctx context.Context, req commands.RunRequest) (output.EventStream, error) {
	diffMode := false
	switch {
	case len(req.Arguments) == 0:
	case len(req.Arguments) == 1 && req.Arguments[0] == deltaDiffMode:
		diffMode = true
	default:
		return nil, fmt.Errorf("/delta takes no argument or %q, got %q", deltaDiffMode, strings.Join(req.Arguments, " "))
	}

	if req.Snapshot == nil || len(req.Sections) == 0 {
		return output.StreamOf(), nil
	}
	ws, err := workspaceOf(req.Workspace, c.file.opts.IgnorePatterns)
	if err != nil {
		return nil, err
	}

	var candidates []deltaCandidate
	seen := make(map[string]bool)
	for _, sec := range output.ValidSections(req.Sections, req.Snapshot) {
		var md FileMetadata
		if err := sec.Metadata.Decode(&md); err != nil || md.Path == "" || md.MTime.IsZero() {
			continue
		}
		if seen[md.Path] {
			continue
		}
		seen[md.Path] = true
		candidates = append(candidates, deltaCandidate{md: md, sec: sec})
	}

	changed := make([]*fileEntry, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxStatWorkers)
	for i, cand := range candidates {
		md := cand.md
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			abs := md.Path
			if !filepath.IsAbs(abs) {
				abs = filepath.Join(ws.Root(), filepath.FromSlash(md.Path))
			}
			info, err := os.Stat(abs)
			if err != nil || info.IsDir() {
				return nil
			}
			if info.ModTime().Equal(md.MTime) && info.Size() == md.Size {
				return nil
			}
			if info.Size() > c.file.opts.MaxFileSize {
				return nil
			}
			changed[i] = &fileEntry{abs: abs, rel: md.Path, info: info}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var entries []fileEntry
	var before []string
	for i, e := range changed {
		if e != nil {
			entries = append(entries, *e)
			sec := candidates[i].sec
			before = append(before, req.Snapshot.Slice(sec.Range.Start, sec.Range.End))
		}
	}
	if len(entries) == 0 {
		return output.StreamOf(), nil
	}
	if diffMode {
		return c.streamDiffs(ctx, req.Delegate, entries, before), nil
	}
	return c.file.stream(ctx, req.Delegate, entries), nil
}

// streamDiffs emits one section per changed file holding the unified diff
// between the inserted code block and the current file.
func (c *DeltaCommand) streamDiffs(ctx context.Context, d commands.Delegate, entries []fileEntry, before []string) output.EventStream {
	em, stream := output.NewPipe(c.file.opts.StreamBuffer)
	go func() {
		defer em.Close()
		for i, e := range entries {
			if err := c.emitDiff(ctx, em, d, e, before[i]); err != nil {
				if !errors.Is(err, output.ErrStreamClosed) {
					em.Fail(ctx, err)
				}
				return
			}
		}
	}()
	return stream
}

func (c *DeltaCommand) emitDiff(ctx context.Context, em *output.Emitter, d commands.Delegate, e fileEntry, inserted string) error {
	content, err := readVia(ctx, d, e.abs)
	if errors.Is(err, ErrBinaryFile) {
		return nil
	}
	if err != nil {
		return err
	}

	// Compare like with like: both sides as fenced blocks with the same
	// line limit, then drop the fence lines from the result.
	after := codeBlock(e.rel, content, c.file.opts.MaxFileLines)
	result := diff.Compute(e.rel, unfence(inserted), unfence(after), diff.DefaultContext)
	if !result.Stats.Changed() {
		return nil
	}

	md, err := output.NewMetadata(DeltaMetadata{Path: e.rel, Stats: result.Stats})
	if err != nil {
		return err
	}
	if err := em.StartSection(ctx, output.IconFileGit, e.rel+" ("+result.Summary()+")", nil); err != nil {
		return err
	}
	if err := em.Content(ctx, "```diff\n"+result.Unified()+"```", false); err != nil {
		return err
	}
	if err := em.EndSection(ctx, md); err != nil {
		return err
	}
	return em.Content(ctx, "\n", false)
}

// unfence returns the body of a fenced code block, or text unchanged when
// it is not one.
func unfence(text string) string {
	trimmed := strings.TrimRight(text, "\n")
	header, body, ok := strings.Cut(trimmed, "\n")
	if !ok || !strings.HasPrefix(header, "```") || !strings.HasSuffix(body, "```") {
		return text
	}
	return strings.TrimSuffix(body, "```")
}
