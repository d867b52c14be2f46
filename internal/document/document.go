// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document provides an editable text buffer with stable anchors and
// immutable snapshots.
//
// Command output is inserted into a Buffer and its sections are re-expressed
// as anchor ranges. Later edits move anchors along with the text; anchors
// whose text was deleted become invalid. Commands only ever see a Snapshot,
// an immutable point-in-time view that resolves anchors to byte offsets.
//
// # Key Types
//
//   - Buffer: Mutable text with anchors, safe for concurrent use
//   - Anchor: Opaque position token that survives edits
//   - Snapshot: Immutable view implementing output.Resolver[Anchor]
//
// # Usage
//
//	buf := document.NewBuffer("")
//	sections, err := buf.InsertOutput(buf.Len(), out)
//	snap := buf.Snapshot()
//	for _, s := range sections {
//	    if output.IsValid(s, snap) { ... }
//	}
package document

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jeranaias/slashcmd/internal/output"
)

// ErrOutOfRange is returned for offsets outside the buffer.
var ErrOutOfRange = errors.New("offset out of range")

// Bias selects which neighbouring character an anchor sticks to.
type Bias uint8

const (
	// BiasLeft anchors to the character before the offset. Text inserted at
	// the offset lands after the anchor.
	BiasLeft Bias = iota

	// BiasRight anchors to the character at the offset. Text inserted at
	// the offset lands before the anchor.
	BiasRight
)

// Anchor is an opaque position in one Buffer.
type Anchor struct {
	buffer uint64
	id     uint64
	bias   Bias
}

// Bias returns the anchor's bias.
func (a Anchor) Bias() Bias { return a.bias }

// String implements fmt.Stringer.
func (a Anchor) String() string {
	side := "L"
	if a.bias == BiasRight {
		side = "R"
	}
	return fmt.Sprintf("anchor(%d:%d%s)", a.buffer, a.id, side)
}

type anchorState struct {
	offset int
	valid  bool
}

var bufferIDs atomic.Uint64

// Buffer is editable text with anchors.
type Buffer struct {
	mu      sync.RWMutex
	id      uint64
	text    string
	version uint64
	nextID  uint64
	anchors map[uint64]anchorState
	biases  map[uint64]Bias
}

// NewBuffer creates a buffer holding text.
func NewBuffer(text string) *Buffer {
	return &Buffer{
		id:      bufferIDs.Add(1),
		text:    text,
		anchors: make(map[uint64]anchorState),
		biases:  make(map[uint64]Bias),
	}
}

// Text returns the current text.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Len returns the current length in bytes.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.text)
}

// Version increments on every edit.
func (b *Buffer) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// AnchorAt creates an anchor at offset.
func (b *Buffer) AnchorAt(offset int, bias Bias) (Anchor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.anchorAtLocked(offset, bias)
}

func (b *Buffer) anchorAtLocked(offset int, bias Bias) (Anchor, error) {
	if offset < 0 || offset > len(b.text) {
		return Anchor{}, fmt.Errorf("anchor at %d (length %d): %w", offset, len(b.text), ErrOutOfRange)
	}
	b.nextID++
	id := b.nextID
	b.anchors[id] = anchorState{offset: offset, valid: true}
	b.biases[id] = bias
	return Anchor{buffer: b.id, id: id, bias: bias}, nil
}

// Edit replaces text[start:end] with text.
//
// Anchors before the edit are unchanged and anchors after it shift by the
// length delta. An anchor whose character was removed becomes invalid and
// collapses to the edit position.
func (b *Buffer) Edit(start, end int, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || end < start || end > len(b.text) {
		return fmt.Errorf("edit %d..%d (length %d): %w", start, end, len(b.text), ErrOutOfRange)
	}

	inserted := len(text)
	delta := inserted - (end - start)
	for id, st := range b.anchors {
		st = shiftAnchor(st, b.biases[id], start, end, inserted, delta)
		b.anchors[id] = st
	}

	b.text = b.text[:start] + text + b.text[end:]
	b.version++
	return nil
}

func shiftAnchor(st anchorState, bias Bias, start, end, inserted, delta int) anchorState {
	p := st.offset
	switch {
	case p < start:
		return st
	case p > end:
		st.offset = p + delta
		return st
	}

	// start <= p <= end
	if start == end {
		// Pure insertion at p.
		if bias == BiasRight {
			st.offset = p + inserted
		}
		return st
	}

	switch bias {
	case BiasRight:
		// Sticks to text[p]; removed when start <= p < end.
		if p < end {
			st.valid = false
			st.offset = start
		} else {
			st.offset = p + delta
		}
	case BiasLeft:
		// Sticks to text[p-1]; removed when start < p <= end.
		if p > start {
			st.valid = false
			st.offset = start
		}
	}
	return st
}

// Insert inserts text at offset.
func (b *Buffer) Insert(offset int, text string) error {
	return b.Edit(offset, offset, text)
}

// Delete removes text[start:end].
func (b *Buffer) Delete(start, end int) error {
	return b.Edit(start, end, "")
}

// InsertOutput inserts a command's output at offset and returns its sections
// bound to anchors. Section starts bias right and ends bias left so text
// typed at either boundary stays outside the section.
func (b *Buffer) InsertOutput(offset int, out output.Output) ([]output.Section[Anchor], error) {
	if err := out.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 || offset > len(b.text) {
		return nil, fmt.Errorf("insert at %d (length %d): %w", offset, len(b.text), ErrOutOfRange)
	}

	// Existing anchors see a plain insertion.
	for id, st := range b.anchors {
		b.anchors[id] = shiftAnchor(st, b.biases[id], offset, offset, len(out.Text), len(out.Text))
	}
	b.text = b.text[:offset] + out.Text + b.text[offset:]
	b.version++

	sections := make([]output.Section[Anchor], 0, len(out.Sections))
	for _, s := range out.Sections {
		start, err := b.anchorAtLocked(offset+s.Range.Start, BiasRight)
		if err != nil {
			return nil, err
		}
		end, err := b.anchorAtLocked(offset+s.Range.End, BiasLeft)
		if err != nil {
			return nil, err
		}
		sections = append(sections, output.Section[Anchor]{
			Range:    output.Range[Anchor]{Start: start, End: end},
			Icon:     s.Icon,
			Label:    s.Label,
			Metadata: s.Metadata.Clone(),
		})
	}
	return sections, nil
}

// Snapshot returns an immutable view of the current text and anchors.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	anchors := make(map[uint64]anchorState, len(b.anchors))
	for id, st := range b.anchors {
		anchors[id] = st
	}
	return &Snapshot{buffer: b.id, text: b.text, version: b.version, anchors: anchors}
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is an immutable view of a Buffer. It implements
// output.Resolver[Anchor].
type Snapshot struct {
	buffer  uint64
	text    string
	version uint64
	anchors map[uint64]anchorState
}

// Text returns the snapshot text.
func (s *Snapshot) Text() string { return s.text }

// Len returns the snapshot length in bytes.
func (s *Snapshot) Len() int { return len(s.text) }

// Version returns the buffer version the snapshot was taken at.
func (s *Snapshot) Version() uint64 { return s.version }

// Resolve returns the anchor's offset. Anchors from other buffers or created
// after the snapshot resolve to 0.
func (s *Snapshot) Resolve(a Anchor) int {
	if a.buffer != s.buffer {
		return 0
	}
	return s.anchors[a.id].offset
}

// IsValid reports whether the anchor exists in this snapshot and its text
// has not been deleted.
func (s *Snapshot) IsValid(a Anchor) bool {
	if a.buffer != s.buffer {
		return false
	}
	st, ok := s.anchors[a.id]
	return ok && st.valid
}

// Slice returns text[start:end], clamped to the snapshot.
func (s *Snapshot) Slice(start, end int) string {
	start = max(0, min(start, len(s.text)))
	end = max(start, min(end, len(s.text)))
	return s.text[start:end]
}

// SectionText returns the text an anchor-bound section covers in this
// snapshot, or "" when the section is not valid.
func (s *Snapshot) SectionText(sec output.Section[Anchor]) string {
	if !output.IsValid(sec, s) {
		return ""
	}
	return s.Slice(s.Resolve(sec.Range.Start), s.Resolve(sec.Range.End))
}

var _ output.Resolver[Anchor] = (*Snapshot)(nil)
