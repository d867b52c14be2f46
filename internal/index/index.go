// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/slashcmd/internal/config"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotIndexed is returned by queries before the first Build.
	ErrNotIndexed = errors.New("workspace not indexed")

	// ErrIndexing is returned when a Build is already in progress.
	ErrIndexing = errors.New("indexing already in progress")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("index closed")
)

// =============================================================================
// INDEX
// =============================================================================

// Options configures an Index.
type Options struct {
	// Root is the workspace directory to index.
	Root string

	// DBPath is the SQLite file. Defaults to <Root>/.slashcmd/index.db.
	DBPath string

	// MaxFileSize skips larger files (0 = 512KB).
	MaxFileSize int64

	// IgnorePatterns are matched against each path element.
	IgnorePatterns []string

	// Debounce delays watcher updates after the last write event.
	Debounce time.Duration

	Logger zerolog.Logger
}

// OptionsFromConfig builds Options for root from the index and command
// configuration.
func OptionsFromConfig(root string, idx config.IndexConfig, cmds config.CommandsConfig) Options {
	return Options{
		Root:           root,
		DBPath:         idx.DBPath,
		MaxFileSize:    int64(idx.MaxFileSizeKB) * 1024,
		IgnorePatterns: append([]string(nil), cmds.IgnorePatterns...),
		Debounce:       idx.Debounce(),
	}
}

// Stats summarizes the index.
type Stats struct {
	FileCount   int
	SymbolCount int
	Languages   map[string]int
	LastIndexed time.Time
	Duration    time.Duration
}

// Index is a SQLite-backed symbol index of one workspace.
type Index struct {
	db      *sql.DB
	root    string
	dbPath  string
	opts    Options
	parsers map[string]Parser
	log     zerolog.Logger

	indexing atomic.Bool
	closed   atomic.Bool

	mu    sync.RWMutex
	stats Stats
}

// DefaultDBPath returns the index location inside root.
func DefaultDBPath(root string) string {
	return filepath.Join(root, ".slashcmd", "index.db")
}

// Open opens or creates the index for opts.Root.
func Open(ctx context.Context, opts Options) (*Index, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if opts.DBPath == "" {
		opts.DBPath = DefaultDBPath(root)
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 512 * 1024
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}

	if err := os.MkdirAll(filepath.Dir(opts.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serializes writers; one connection keeps pragmas in effect.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("init metadata: %w", err)
	}

	idx := &Index{
		db:      db,
		root:    root,
		dbPath:  opts.DBPath,
		opts:    opts,
		parsers: defaultParsers(),
		log:     opts.Logger.With().Str("component", "index").Logger(),
	}
	if err := idx.loadStats(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// Root returns the indexed workspace directory.
func (idx *Index) Root() string { return idx.root }

// Close closes the database.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return nil
	}
	return idx.db.Close()
}

// =============================================================================
// BUILD
// =============================================================================

// Build re-indexes the whole workspace in one transaction.
func (idx *Index) Build(ctx context.Context) error {
	if idx.closed.Load() {
		return ErrClosed
	}
	if !idx.indexing.CompareAndSwap(false, true) {
		return ErrIndexing
	}
	defer idx.indexing.Store(false)

	start := time.Now()

	var paths []string
	err := filepath.WalkDir(idx.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Unreadable entries are skipped
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == idx.root {
			return nil
		}
		if idx.shouldIgnore(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && idx.Supports(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk workspace: %w", err)
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM symbols"); err != nil {
		return fmt.Errorf("clear symbols: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM files"); err != nil {
		return fmt.Errorf("clear files: %w", err)
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := idx.indexFile(ctx, tx, path); err != nil {
			idx.log.Debug().Err(err).Str("path", path).Msg("skipping file")
		}
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		"UPDATE metadata SET value = ? WHERE key = 'last_full_index'", fmt.Sprint(now.Unix())); err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE metadata SET value = ? WHERE key = 'root_path'", idx.root); err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if err := idx.loadStats(ctx); err != nil {
		return err
	}
	idx.mu.Lock()
	idx.stats.Duration = time.Since(start)
	stats := idx.stats
	idx.mu.Unlock()

	idx.log.Info().
		Int("files", stats.FileCount).
		Int("symbols", stats.SymbolCount).
		Dur("took", stats.Duration).
		Msg("workspace indexed")
	return nil
}

// UpdateFile re-indexes a single file. Paths may be absolute or relative to
// the root.
func (idx *Index) UpdateFile(ctx context.Context, path string) error {
	if idx.closed.Load() {
		return ErrClosed
	}
	abs := idx.abs(path)

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := idx.deleteFile(ctx, tx, idx.rel(abs)); err != nil {
		return err
	}
	if err := idx.indexFile(ctx, tx, abs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return idx.loadStats(ctx)
}

// RemoveFile drops a file and its symbols from the index.
func (idx *Index) RemoveFile(ctx context.Context, path string) error {
	if idx.closed.Load() {
		return ErrClosed
	}
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := idx.deleteFile(ctx, tx, idx.rel(idx.abs(path))); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return idx.loadStats(ctx)
}

func (idx *Index) deleteFile(ctx context.Context, tx *sql.Tx, rel string) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM symbols WHERE file_id IN (SELECT id FROM files WHERE path = ?)", rel); err != nil {
		return fmt.Errorf("delete symbols of %s: %w", rel, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM files WHERE path = ?", rel); err != nil {
		return fmt.Errorf("delete %s: %w", rel, err)
	}
	return nil
}

func (idx *Index) indexFile(ctx context.Context, tx *sql.Tx, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > idx.opts.MaxFileSize {
		return fmt.Errorf("%s: %d bytes exceeds limit", path, info.Size())
	}

	ext := strings.ToLower(filepath.Ext(path))
	p, ok := idx.parsers[ext]
	if !ok {
		return fmt.Errorf("%s: unsupported file type", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	content := string(data)

	symbols, err := p.Parse(content, path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO files (path, mod_time, size, language, line_count, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		idx.rel(path), info.ModTime().UnixNano(), info.Size(), detectLanguage(ext),
		strings.Count(content, "\n")+1, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO symbols (name, kind, file_id, line, end_line, signature, doc, parent, visibility)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range symbols {
		if _, err := stmt.ExecContext(ctx, s.Name, string(s.Kind), fileID, s.Line, s.EndLine,
			s.Signature, s.Doc, s.Parent, string(s.Visibility)); err != nil {
			return fmt.Errorf("insert symbol %s: %w", s.Name, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// Supports reports whether path has a parser.
func (idx *Index) Supports(path string) bool {
	_, ok := idx.parsers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// shouldIgnore matches each element of the path relative to the root
// against the ignore patterns. The index database directory is always
// ignored.
func (idx *Index) shouldIgnore(path string) bool {
	if strings.HasPrefix(path, filepath.Dir(idx.dbPath)+string(filepath.Separator)) || path == filepath.Dir(idx.dbPath) {
		return true
	}
	for _, part := range strings.Split(idx.rel(path), "/") {
		for _, pattern := range idx.opts.IgnorePatterns {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}

func (idx *Index) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(idx.root, path)
}

// rel returns a slash-separated path relative to the root.
func (idx *Index) rel(path string) string {
	r, err := filepath.Rel(idx.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}

func (idx *Index) loadStats(ctx context.Context) error {
	var stats Stats
	if err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&stats.FileCount); err != nil {
		return fmt.Errorf("count files: %w", err)
	}
	if err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM symbols").Scan(&stats.SymbolCount); err != nil {
		return fmt.Errorf("count symbols: %w", err)
	}

	rows, err := idx.db.QueryContext(ctx, "SELECT language, COUNT(*) FROM files GROUP BY language")
	if err != nil {
		return fmt.Errorf("count languages: %w", err)
	}
	defer rows.Close()
	stats.Languages = make(map[string]int)
	for rows.Next() {
		var lang string
		var n int
		if err := rows.Scan(&lang, &n); err != nil {
			return err
		}
		stats.Languages[lang] = n
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var last int64
	var value string
	if err := idx.db.QueryRowContext(ctx,
		"SELECT value FROM metadata WHERE key = 'last_full_index'").Scan(&value); err == nil {
		fmt.Sscan(value, &last)
	}
	if last > 0 {
		stats.LastIndexed = time.Unix(last, 0)
	}

	idx.mu.Lock()
	stats.Duration = idx.stats.Duration
	idx.stats = stats
	idx.mu.Unlock()
	return nil
}

// Stats returns a copy of the current statistics.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	s := idx.stats
	s.Languages = make(map[string]int, len(idx.stats.Languages))
	for k, v := range idx.stats.Languages {
		s.Languages[k] = v
	}
	return s
}

// IsIndexed reports whether a full Build has completed.
func (idx *Index) IsIndexed() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return !idx.stats.LastIndexed.IsZero()
}
