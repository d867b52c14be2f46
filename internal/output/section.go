// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

// Range is a half-open span [Start, End). T is int for materialized output
// and an anchor type for sections bound to a live document.
type Range[T any] struct {
	Start T `json:"start"`
	End   T `json:"end"`
}

// Section is a labeled span of output text.
type Section[T any] struct {
	Range    Range[T] `json:"range"`
	Icon     Icon     `json:"icon"`
	Label    string   `json:"label"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// Clone returns a copy of the section with its own metadata.
func (s Section[T]) Clone() Section[T] {
	s.Metadata = s.Metadata.Clone()
	return s
}

// Resolver resolves anchors against one immutable document snapshot.
type Resolver[T any] interface {
	// Resolve returns the byte offset of the anchor in the snapshot.
	Resolve(anchor T) int
	// IsValid reports whether the anchor still refers to surviving text.
	IsValid(anchor T) bool
}

// IsValid reports whether an anchor-bound section is still meaningful in the
// snapshot behind r: its start anchor must be valid and its resolved range
// must be non-empty. The result depends on the snapshot and must not be cached
// across snapshots.
func IsValid[T any](s Section[T], r Resolver[T]) bool {
	if !r.IsValid(s.Range.Start) {
		return false
	}
	return r.Resolve(s.Range.Start) < r.Resolve(s.Range.End)
}

// ResolveSection maps an anchor-bound section onto byte offsets in the
// snapshot behind r.
func ResolveSection[T any](s Section[T], r Resolver[T]) Section[int] {
	return Section[int]{
		Range:    Range[int]{Start: r.Resolve(s.Range.Start), End: r.Resolve(s.Range.End)},
		Icon:     s.Icon,
		Label:    s.Label,
		Metadata: s.Metadata.Clone(),
	}
}

// ValidSections filters sections down to those valid in the snapshot behind r
// and resolves them, preserving order.
func ValidSections[T any](sections []Section[T], r Resolver[T]) []Section[int] {
	var out []Section[int]
	for _, s := range sections {
		if IsValid(s, r) {
			out = append(out, ResolveSection(s, r))
		}
	}
	return out
}
