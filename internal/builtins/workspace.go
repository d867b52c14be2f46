// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtins

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jeranaias/slashcmd/internal/commands"
)

// =============================================================================
// LOCAL WORKSPACE
// =============================================================================

// LocalWorkspace is a commands.Workspace over a directory on disk.
type LocalWorkspace struct {
	root   string
	ignore []string
}

// NewLocalWorkspace returns a workspace rooted at dir.
func NewLocalWorkspace(dir string, ignore []string) (*LocalWorkspace, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}
	return &LocalWorkspace{root: root, ignore: ignore}, nil
}

// Root returns the absolute workspace directory.
func (w *LocalWorkspace) Root() string { return w.root }

// Files lists every non-ignored file under the root as slash-separated
// relative paths in lexical order.
func (w *LocalWorkspace) Files(ctx context.Context) ([]string, error) {
	return walkFiles(ctx, w.root, w.root, w.ignore)
}

// walkFiles lists the files under dir relative to root.
func walkFiles(ctx context.Context, root, dir string, ignore []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != dir && shouldIgnore(d.Name(), ignore) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, relPath(root, path))
		}
		return nil
	})
	return files, err
}

// shouldIgnore checks if a file/directory should be ignored.
func shouldIgnore(name string, patterns []string) bool {
	// Always ignore hidden files except .gitignore
	if strings.HasPrefix(name, ".") && name != ".gitignore" {
		return true
	}
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// relPath returns path relative to root with forward slashes, or path
// itself when it lies outside root.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// =============================================================================
// LOCAL DELEGATE
// =============================================================================

// LocalDelegate is a commands.Delegate backed by the local machine.
type LocalDelegate struct {
	root string
}

// NewLocalDelegate resolves relative paths against root.
func NewLocalDelegate(root string) *LocalDelegate {
	return &LocalDelegate{root: root}
}

// Which resolves binary on PATH.
func (d *LocalDelegate) Which(ctx context.Context, binary string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return exec.LookPath(binary)
}

// ReadTextFile reads a UTF-8 text file.
func (d *LocalDelegate) ReadTextFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.root, path)
	}
	return readTextFile(path)
}

func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", path, ErrBinaryFile)
	}
	return string(data), nil
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

// workspaceOf returns the request's workspace, falling back to the working
// directory.
func workspaceOf(ws commands.Workspace, ignore []string) (commands.Workspace, error) {
	if ws != nil {
		return ws, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return NewLocalWorkspace(wd, ignore)
}

// readVia reads path through the delegate when one is given.
func readVia(ctx context.Context, d commands.Delegate, path string) (string, error) {
	if d != nil {
		return d.ReadTextFile(ctx, path)
	}
	return readTextFile(path)
}

// completePaths proposes the next path segment for partial from the
// workspace files. Files continue to the next argument, directories keep
// composing. When dirsOnly is set only directories are proposed and they
// take the dirPolicy.
func completePaths(ctx context.Context, req commands.CompletionRequest, dirsOnly bool, dirPolicy commands.AfterCompletion) ([]commands.ArgumentCompletion, error) {
	if req.Workspace == nil || len(req.Arguments) == 0 {
		return nil, nil
	}
	partial := req.Arguments[len(req.Arguments)-1]
	files, err := req.Workspace.Files(ctx)
	if err != nil {
		return nil, err
	}

	dir := ""
	if i := strings.LastIndex(partial, "/"); i >= 0 {
		dir = partial[:i+1]
	}

	seen := make(map[string]bool)
	isDir := make(map[string]bool)
	var candidates []string
	for _, f := range files {
		if err := commands.CheckCanceled(req.Cancel); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(f, dir) {
			continue
		}
		candidate := f
		rest := f[len(dir):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			candidate = dir + rest[:i+1]
			isDir[candidate] = true
		} else if dirsOnly {
			continue
		}
		if !seen[candidate] {
			seen[candidate] = true
			candidates = append(candidates, candidate)
		}
	}

	var out []commands.ArgumentCompletion
	for _, c := range commands.FilterByPrefix(candidates, partial) {
		if err := commands.CheckCanceled(req.Cancel); err != nil {
			return nil, err
		}
		policy := commands.Continue
		if isDir[c] {
			policy = dirPolicy
		}
		out = append(out, commands.ArgumentCompletion{
			Label:           commands.PlainLabel(c, strings.TrimPrefix(c, dir)),
			NewText:         c,
			AfterCompletion: policy,
		})
	}
	return out, nil
}
