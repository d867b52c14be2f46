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
	"time"

	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/output"
)

// FileMetadata is attached to every /file section. /delta reads it back to
// detect changed files.
type FileMetadata struct {
	Path  string    `json:"path"`
	MTime time.Time `json:"mtime"`
	Size  int64     `json:"size"`
}

// fileEntry is a resolved file awaiting emission.
type fileEntry struct {
	abs  string
	rel  string
	info os.FileInfo
}

// FileCommand inserts file contents as fenced code blocks, one section per
// file.
type FileCommand struct {
	opts Options
}

// NewFile creates the /file command.
func NewFile(opts Options) *FileCommand {
	return &FileCommand{opts: opts.withDefaults()}
}

func (c *FileCommand) Name() string           { return "file" }
func (c *FileCommand) Description() string    { return "Insert one or more files, directories or globs" }
func (c *FileCommand) MenuText() string       { return "Insert Files" }
func (c *FileCommand) RequiresArgument() bool { return true }
func (c *FileCommand) Usage() string          { return "/file <path-or-glob>..." }

// Label highlights the argument placeholder.
func (c *FileCommand) Label(ctx context.Context) commands.CodeLabel {
	var l commands.CodeLabel
	l.Push("file", "keyword")
	l.Push(" ", "")
	l.Push("<path>", "comment")
	l.FilterRange = output.Range[int]{Start: 0, End: len("file")}
	return l
}

// CompleteArgument completes workspace paths.
func (c *FileCommand) CompleteArgument(ctx context.Context, req commands.CompletionRequest) ([]commands.ArgumentCompletion, error) {
	return completePaths(ctx, req, false, commands.Compose)
}

// Run resolves every argument before streaming, so missing files fail the
// invocation instead of the stream.
func (c *FileCommand) Run(ctx context.Context, req commands.RunRequest) (output.EventStream, error) {
	ws, err := workspaceOf(req.Workspace, c.opts.IgnorePatterns)
	if err != nil {
		return nil, err
	}
	entries, err := c.resolve(ctx, ws, req.Arguments)
	if err != nil {
		return nil, err
	}
	return c.stream(ctx, req.Delegate, entries), nil
}

// =============================================================================
// RESOLUTION
// =============================================================================

func (c *FileCommand) resolve(ctx context.Context, ws commands.Workspace, args []string) ([]fileEntry, error) {
	root := ws.Root()
	seen := make(map[string]bool)
	var entries []fileEntry

	add := func(abs string, info os.FileInfo) {
		if seen[abs] || len(entries) >= c.opts.MaxFiles {
			return
		}
		seen[abs] = true
		entries = append(entries, fileEntry{abs: abs, rel: relPath(root, abs), info: info})
	}

	for _, arg := range args {
		if strings.ContainsAny(arg, "*?[") {
			matches, err := c.glob(ctx, ws, arg)
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				add(m.abs, m.info)
			}
			continue
		}

		abs := arg
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, arg)
		}
		info, err := os.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%s: %w", arg, ErrFileNotFound)
			}
			return nil, err
		}

		if info.IsDir() {
			files, err := walkFiles(ctx, root, abs, c.opts.IgnorePatterns)
			if err != nil {
				return nil, err
			}
			for _, rel := range files {
				p := filepath.Join(root, filepath.FromSlash(rel))
				if fi, err := os.Stat(p); err == nil && fi.Size() <= c.opts.MaxFileSize {
					add(p, fi)
				}
			}
			continue
		}

		if info.Size() > c.opts.MaxFileSize {
			return nil, fmt.Errorf("%s: %d bytes (limit %d): %w", arg, info.Size(), c.opts.MaxFileSize, ErrFileTooLarge)
		}
		add(abs, info)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(args, " "), ErrNoMatches)
	}
	return entries, nil
}

// glob matches pattern against workspace paths. Patterns without a slash
// also match base names at any depth.
func (c *FileCommand) glob(ctx context.Context, ws commands.Workspace, pattern string) ([]fileEntry, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("%s: %w", pattern, err)
	}
	files, err := ws.Files(ctx)
	if err != nil {
		return nil, err
	}
	var out []fileEntry
	for _, rel := range files {
		ok, _ := filepath.Match(pattern, rel)
		if !ok && !strings.Contains(pattern, "/") {
			ok, _ = filepath.Match(pattern, filepath.Base(rel))
		}
		if !ok {
			continue
		}
		abs := filepath.Join(ws.Root(), filepath.FromSlash(rel))
		info, err := os.Stat(abs)
		if err != nil || info.Size() > c.opts.MaxFileSize {
			continue
		}
		out = append(out, fileEntry{abs: abs, rel: rel, info: info})
	}
	return out, nil
}

// =============================================================================
// EMISSION
// =============================================================================

// stream emits one section per entry from a producer goroutine.
func (c *FileCommand) stream(ctx context.Context, d commands.Delegate, entries []fileEntry) output.EventStream {
	em, stream := output.NewPipe(c.opts.StreamBuffer)
	go func() {
		defer em.Close()
		for _, e := range entries {
			if err := c.emitFile(ctx, em, d, e); err != nil {
				if !errors.Is(err, output.ErrStreamClosed) {
					em.Fail(ctx, err)
				}
				return
			}
		}
	}()
	return stream
}

func (c *FileCommand) emitFile(ctx context.Context, em *output.Emitter, d commands.Delegate, e fileEntry) error {
	content, err := readVia(ctx, d, e.abs)
	if errors.Is(err, ErrBinaryFile) {
		if err := em.StartSection(ctx, output.IconWarning, e.rel, nil); err != nil {
			return err
		}
		if err := em.Content(ctx, e.rel+": binary file skipped\n", false); err != nil {
			return err
		}
		return em.EndSection(ctx, nil)
	}
	if err != nil {
		return err
	}

	md, err := output.NewMetadata(FileMetadata{
		Path:  e.rel,
		MTime: e.info.ModTime().UTC(),
		Size:  e.info.Size(),
	})
	if err != nil {
		return err
	}

	if err := em.StartSection(ctx, iconFor(e.rel), e.rel, nil); err != nil {
		return err
	}
	if err := em.Content(ctx, codeBlock(e.rel, content, c.opts.MaxFileLines), false); err != nil {
		return err
	}
	if err := em.EndSection(ctx, md); err != nil {
		return err
	}
	return em.Content(ctx, "\n", false)
}

// codeBlock fences content with the path as info string, keeping at most
// maxLines lines.
func codeBlock(path, content string, maxLines int) string {
	var sb strings.Builder
	sb.WriteString("```")
	sb.WriteString(path)
	sb.WriteString("\n")

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	truncated := false
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		truncated = true
	}
	if content != "" {
		for _, line := range lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	if truncated {
		sb.WriteString("... (truncated)\n")
	}
	sb.WriteString("```")
	return sb.String()
}

var codeExts = map[string]bool{
	".go": true, ".rs": true, ".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".c": true, ".h": true, ".cc": true, ".cpp": true, ".hpp": true, ".java": true, ".kt": true,
	".rb": true, ".sh": true, ".sql": true, ".proto": true, ".json": true, ".yaml": true, ".yml": true,
	".html": true, ".css": true, ".lua": true, ".zig": true, ".swift": true, ".cs": true,
}

var docExts = map[string]bool{".md": true, ".markdown": true, ".txt": true, ".rst": true, ".adoc": true}

// iconFor picks a section icon from the file extension.
func iconFor(path string) output.Icon {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".toml":
		return output.IconFileToml
	case codeExts[ext]:
		return output.IconFileCode
	case docExts[ext]:
		return output.IconFileDoc
	default:
		return output.IconFile
	}
}
