// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff computes line diffs between two versions of a file.
package diff

import (
	"fmt"
	"strings"
)

// DefaultContext is the number of unchanged lines kept around each change.
const DefaultContext = 3

// =============================================================================
// LINE TYPES
// =============================================================================

// Op is the kind of a diff line.
type Op int

const (
	// Equal is a line present in both versions
	Equal Op = iota
	// Insert is a line only in the new version
	Insert
	// Delete is a line only in the old version
	Delete
)

// String returns the op name.
func (o Op) String() string {
	switch o {
	case Equal:
		return "equal"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Prefix returns the unified diff marker for the op.
func (o Op) Prefix() string {
	switch o {
	case Insert:
		return "+"
	case Delete:
		return "-"
	default:
		return " "
	}
}

// Line is one line of a diff. Old and New are 1-based line numbers, zero
// when the line does not exist on that side.
type Line struct {
	Op   Op
	Text string
	Old  int
	New  int
}

// Hunk is a run of changes with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// Header returns the "@@ -a,b +c,d @@" line of the hunk.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
}

// Stats counts changed lines.
type Stats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Changed reports whether any line differs.
func (s Stats) Changed() bool {
	return s.Added > 0 || s.Removed > 0
}

// =============================================================================
// DIFF
// =============================================================================

// Diff is the comparison of two versions of one file.
type Diff struct {
	Path  string
	Hunks []Hunk
	Stats Stats

	oldEmpty bool
	newEmpty bool
}

// Compute diffs oldText against newText, keeping context unchanged lines
// around each change.
func Compute(path, oldText, newText string, context int) *Diff {
	lines := Lines(oldText, newText)
	d := &Diff{
		Path:     path,
		Hunks:    Hunks(lines, context),
		oldEmpty: oldText == "",
		newEmpty: newText == "",
	}
	for _, l := range lines {
		switch l.Op {
		case Insert:
			d.Stats.Added++
		case Delete:
			d.Stats.Removed++
		}
	}
	return d
}

// Unified renders the diff in unified format. An unchanged file renders
// as "".
func (d *Diff) Unified() string {
	if len(d.Hunks) == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", d.Path, d.Path)
	for _, h := range d.Hunks {
		sb.WriteString(h.Header())
		sb.WriteByte('\n')
		for _, l := range h.Lines {
			sb.WriteString(l.Op.Prefix())
			sb.WriteString(l.Text)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Summary describes the change in a few words, e.g. "+3 -1".
func (d *Diff) Summary() string {
	if !d.Stats.Changed() {
		return "unchanged"
	}
	var parts []string
	switch {
	case d.oldEmpty:
		parts = append(parts, "new file")
	case d.newEmpty:
		parts = append(parts, "emptied")
	}
	if d.Stats.Added > 0 {
		parts = append(parts, fmt.Sprintf("+%d", d.Stats.Added))
	}
	if d.Stats.Removed > 0 {
		parts = append(parts, fmt.Sprintf("-%d", d.Stats.Removed))
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// LINE DIFF
// =============================================================================

// Lines returns the full line-by-line edit script from oldText to newText.
// Lines common to both ends are matched directly; the middle is aligned on
// a longest common subsequence.
func Lines(oldText, newText string) []Line {
	a := splitLines(oldText)
	b := splitLines(newText)

	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	out := make([]Line, 0, max(len(a), len(b)))
	for i := 0; i < prefix; i++ {
		out = append(out, Line{Op: Equal, Text: a[i], Old: i + 1, New: i + 1})
	}
	out = appendMiddle(out, a[prefix:len(a)-suffix], b[prefix:len(b)-suffix], prefix, prefix)
	for k := suffix; k > 0; k-- {
		i, j := len(a)-k, len(b)-k
		out = append(out, Line{Op: Equal, Text: a[i], Old: i + 1, New: j + 1})
	}
	return out
}

// appendMiddle aligns a and b on their LCS. oldOff and newOff are the
// numbers of lines preceding a and b.
func appendMiddle(out []Line, a, b []string, oldOff, newOff int) []Line {
	m, n := len(a), len(b)

	// lcs[i][j] is the LCS length of a[i:] and b[j:]
	lcs := make([][]int, m+1)
	for i := range lcs {
		lcs[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	i, j := 0, 0
	for i < m && j < n {
		switch {
		case a[i] == b[j]:
			out = append(out, Line{Op: Equal, Text: a[i], Old: oldOff + i + 1, New: newOff + j + 1})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			out = append(out, Line{Op: Delete, Text: a[i], Old: oldOff + i + 1})
			i++
		default:
			out = append(out, Line{Op: Insert, Text: b[j], New: newOff + j + 1})
			j++
		}
	}
	for ; i < m; i++ {
		out = append(out, Line{Op: Delete, Text: a[i], Old: oldOff + i + 1})
	}
	for ; j < n; j++ {
		out = append(out, Line{Op: Insert, Text: b[j], New: newOff + j + 1})
	}
	return out
}

// =============================================================================
// HUNKS
// =============================================================================

// Hunks groups an edit script into hunks. Changes closer than twice the
// context share a hunk.
func Hunks(lines []Line, context int) []Hunk {
	context = max(0, context)

	// Windows [start, end) around each change, merged when they touch
	type window struct{ start, end int }
	var windows []window
	for i, l := range lines {
		if l.Op == Equal {
			continue
		}
		start, end := max(0, i-context), min(len(lines), i+context+1)
		if n := len(windows); n > 0 && start <= windows[n-1].end {
			windows[n-1].end = end
			continue
		}
		windows = append(windows, window{start, end})
	}

	hunks := make([]Hunk, 0, len(windows))
	oldBefore, newBefore, pos := 0, 0, 0
	for _, w := range windows {
		for ; pos < w.start; pos++ {
			if lines[pos].Old > 0 {
				oldBefore++
			}
			if lines[pos].New > 0 {
				newBefore++
			}
		}

		h := Hunk{Lines: append([]Line(nil), lines[w.start:w.end]...)}
		for _, l := range h.Lines {
			if l.Op != Insert {
				h.OldCount++
			}
			if l.Op != Delete {
				h.NewCount++
			}
		}
		// An empty side starts at the line before the hunk
		h.OldStart = oldBefore
		if h.OldCount > 0 {
			h.OldStart++
		}
		h.NewStart = newBefore
		if h.NewCount > 0 {
			h.NewStart++
		}
		hunks = append(hunks, h)
	}
	return hunks
}

// splitLines splits text into lines. A trailing newline does not start an
// extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
