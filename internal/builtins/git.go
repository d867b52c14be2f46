// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtins

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/output"
)

// GitCommand inserts recent commits, status and a diff summary.
type GitCommand struct {
	opts Options
}

// NewGit creates the /git command.
func NewGit(opts Options) *GitCommand {
	return &GitCommand{opts: opts.withDefaults()}
}

func (c *GitCommand) Name() string           { return "git" }
func (c *GitCommand) Description() string    { return "Insert recent commits, status and changed files" }
func (c *GitCommand) MenuText() string       { return "Insert Git Context" }
func (c *GitCommand) RequiresArgument() bool { return false }
func (c *GitCommand) AcceptsArguments() bool { return true }
func (c *GitCommand) Usage() string          { return "/git [range]" }

// git runs git commands in one directory.
type git struct {
	bin string
	dir string
}

func (g git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.bin, args...)
	cmd.Dir = g.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git %s: %s", args[0], msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *GitCommand) locate(ctx context.Context, d commands.Delegate, ws commands.Workspace) (git, error) {
	bin := "git"
	if d != nil {
		p, err := d.Which(ctx, "git")
		if err != nil {
			return git{}, fmt.Errorf("git not found: %w", err)
		}
		bin = p
	}
	return git{bin: bin, dir: ws.Root()}, nil
}

// CompleteArgument completes local branch names.
func (c *GitCommand) CompleteArgument(ctx context.Context, req commands.CompletionRequest) ([]commands.ArgumentCompletion, error) {
	if req.Workspace == nil || len(req.Arguments) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.opts.GitTimeout)
	defer cancel()

	g := git{bin: "git", dir: req.Workspace.Root()}
	out, err := g.run(ctx, "branch", "--format=%(refname:short)")
	if err != nil {
		// Completion outside a repository just offers nothing.
		return nil, nil
	}

	partial := req.Arguments[len(req.Arguments)-1]
	var completions []commands.ArgumentCompletion
	for _, b := range commands.FilterByPrefix(strings.Fields(out), partial) {
		if err := commands.CheckCanceled(req.Cancel); err != nil {
			return nil, err
		}
		completions = append(completions, commands.ArgumentCompletion{
			Label:                    commands.PlainLabel(b, partial),
			NewText:                  b,
			AfterCompletion:          commands.Run,
			ReplacePreviousArguments: true,
		})
	}
	return completions, nil
}

// Run checks for a repository up front, then streams one section per
// non-empty part.
func (c *GitCommand) Run(ctx context.Context, req commands.RunRequest) (output.EventStream, error) {
	ws, err := workspaceOf(req.Workspace, c.opts.IgnorePatterns)
	if err != nil {
		return nil, err
	}
	g, err := c.locate(ctx, req.Delegate, ws)
	if err != nil {
		return nil, err
	}

	checkCtx, cancel := context.WithTimeout(ctx, c.opts.GitTimeout)
	_, err = g.run(checkCtx, "rev-parse", "--git-dir")
	cancel()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s: %w", ws.Root(), ErrNotGitRepo)
	}

	logArgs := []string{"log", "--oneline"}
	if len(req.Arguments) > 0 {
		logArgs = append(logArgs, req.Arguments...)
	} else {
		logArgs = append(logArgs, "-n", strconv.Itoa(c.opts.GitLogCount))
	}

	parts := []struct {
		label string
		args  []string
	}{
		{"Recent Commits", logArgs},
		{"Status", []string{"status", "--short"}},
		{"Changes", []string{"diff", "--stat"}},
	}

	em, stream := output.NewPipe(c.opts.StreamBuffer)
	go func() {
		defer em.Close()
		emitted := false
		for _, p := range parts {
			partCtx, cancel := context.WithTimeout(ctx, c.opts.GitTimeout)
			out, err := g.run(partCtx, p.args...)
			cancel()
			if err != nil {
				em.Fail(ctx, err)
				return
			}
			if out == "" {
				continue
			}
			if err := emitSection(ctx, em, output.IconFileGit, p.label, p.label+":\n"+out+"\n", nil); err != nil {
				if !errors.Is(err, output.ErrStreamClosed) {
					em.Fail(ctx, err)
				}
				return
			}
			emitted = true
		}
		if !emitted {
			em.Content(ctx, "No git information available\n", false)
		}
	}()
	return stream, nil
}

// emitSection emits one section followed by a blank separator line.
func emitSection(ctx context.Context, em *output.Emitter, icon output.Icon, label, text string, md output.Metadata) error {
	if err := em.StartSection(ctx, icon, label, nil); err != nil {
		return err
	}
	if err := em.Content(ctx, text, false); err != nil {
		return err
	}
	if err := em.EndSection(ctx, md); err != nil {
		return err
	}
	return em.Content(ctx, "\n", false)
}
