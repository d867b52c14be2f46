// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff computes line diffs between two versions of a file.
//
// /delta uses it to show what changed in a file since its section was
// inserted into the document.
//
// # Key Types
//
//   - Op: Equal, Insert or Delete
//   - Line: One line of an edit script with its old and new line numbers
//   - Hunk: A run of changes with surrounding context
//   - Diff: The hunks and stats for one file
//
// # Usage
//
//	d := diff.Compute("main.go", before, after, diff.DefaultContext)
//	if d.Stats.Changed() {
//		fmt.Print(d.Unified())
//	}
package diff
