// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"context"
	"fmt"
	"strings"
)

// Match is a symbol found by a query, with its file.
type Match struct {
	Symbol
	Path     string
	Language string
}

const symbolColumns = `s.name, s.kind, s.line, s.end_line, s.signature, s.doc, s.parent, s.visibility, f.path, f.language`

// Search runs a full-text query over symbol names, signatures and doc
// comments. A single term is a name prefix; several terms must all match.
func (idx *Index) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	if err := idx.ready(); err != nil {
		return nil, err
	}
	fts := ftsQuery(query)
	if fts == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT `+symbolColumns+`
		FROM symbols_fts
		JOIN symbols s ON s.id = symbols_fts.rowid
		JOIN files f ON f.id = s.file_id
		WHERE symbols_fts MATCH ?
		ORDER BY symbols_fts.rank, f.path, s.line
		LIMIT ?`, fts, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return scanMatches(rows)
}

// SearchByName returns symbols whose name starts with prefix, ignoring case.
func (idx *Index) SearchByName(ctx context.Context, prefix string, limit int) ([]Match, error) {
	if err := idx.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := idx.db.QueryContext(ctx, `
		SELECT `+symbolColumns+`
		FROM symbols s
		JOIN files f ON f.id = s.file_id
		WHERE s.name LIKE ? ESCAPE '\'
		ORDER BY length(s.name), s.name, f.path, s.line
		LIMIT ?`, likePrefix(prefix), limit)
	if err != nil {
		return nil, fmt.Errorf("search name %q: %w", prefix, err)
	}
	return scanMatches(rows)
}

// Names returns distinct symbol names starting with prefix, shortest first.
func (idx *Index) Names(ctx context.Context, prefix string, limit int) ([]string, error) {
	if err := idx.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := idx.db.QueryContext(ctx, `
		SELECT DISTINCT name FROM symbols
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY length(name), name
		LIMIT ?`, likePrefix(prefix), limit)
	if err != nil {
		return nil, fmt.Errorf("names %q: %w", prefix, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// FileSymbols returns the symbols of one file in line order.
func (idx *Index) FileSymbols(ctx context.Context, path string) ([]Match, error) {
	if err := idx.ready(); err != nil {
		return nil, err
	}
	rows, err := idx.db.QueryContext(ctx, `
		SELECT `+symbolColumns+`
		FROM symbols s
		JOIN files f ON f.id = s.file_id
		WHERE f.path = ?
		ORDER BY s.line`, idx.rel(idx.abs(path)))
	if err != nil {
		return nil, fmt.Errorf("file symbols %s: %w", path, err)
	}
	return scanMatches(rows)
}

// Files returns the indexed paths.
func (idx *Index) Files(ctx context.Context) ([]string, error) {
	if err := idx.ready(); err != nil {
		return nil, err
	}
	rows, err := idx.db.QueryContext(ctx, "SELECT path FROM files ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (idx *Index) ready() error {
	if idx.closed.Load() {
		return ErrClosed
	}
	if !idx.IsIndexed() {
		return ErrNotIndexed
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

func scanMatches(rows rowScanner) ([]Match, error) {
	defer rows.Close()
	var out []Match
	for rows.Next() {
		var m Match
		var kind, vis string
		if err := rows.Scan(&m.Name, &kind, &m.Line, &m.EndLine, &m.Signature, &m.Doc,
			&m.Parent, &vis, &m.Path, &m.Language); err != nil {
			return nil, err
		}
		m.Kind = Kind(kind)
		m.Visibility = Visibility(vis)
		out = append(out, m)
	}
	return out, rows.Err()
}

// ftsQuery turns free text into an FTS5 expression. Each term is quoted so
// operators in user input are literal, then marked as a prefix.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return ""
	}
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted := `"` + strings.ReplaceAll(t, `"`, `""`) + `"*`
		if len(terms) == 1 {
			quoted = "name:" + quoted
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
