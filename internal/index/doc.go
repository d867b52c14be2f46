// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package index provides a workspace symbol index for fast symbol search.
//
// Symbols are stored in SQLite with an FTS5 table kept in sync by triggers,
// so both prefix lookups for completion and ranked full-text queries are
// cheap on large workspaces.
//
// # Key Types
//
//   - Index: SQLite-backed indexer for one workspace root
//   - Symbol: Declaration with kind, location and signature
//   - Match: Query result with its file path
//   - Watcher: fsnotify watcher for incremental updates
//
// # Supported Languages
//
//   - Go: Functions, methods, types, constants and variables (go/parser)
//   - Python: Functions, classes, methods
//   - JavaScript/TypeScript: Functions, classes, interfaces, exported consts
//
// # Usage
//
// Build and query an index:
//
//	idx, err := index.Open(ctx, index.Options{Root: "/path/to/project"})
//	err = idx.Build(ctx)
//	matches, err := idx.Search(ctx, "handleRequest", 20)
//	for _, m := range matches {
//	    fmt.Printf("%s:%d %s\n", m.Path, m.Line, m.Name)
//	}
//
// Keep it current:
//
//	w, err := idx.Watch(ctx)
//	defer w.Close()
package index
