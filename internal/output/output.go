// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is matched by every *RangeError.
var ErrInvalidRange = errors.New("invalid section range")

// RangeError describes a section whose range cannot be sliced out of the
// output text.
type RangeError struct {
	Index   int
	Range   Range[int]
	TextLen int
	Reason  string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("section %d: range %d..%d (text length %d): %s",
		e.Index, e.Range.Start, e.Range.End, e.TextLen, e.Reason)
}

// Unwrap returns ErrInvalidRange.
func (e *RangeError) Unwrap() error {
	return ErrInvalidRange
}

// Output is the materialized result of a slash command.
type Output struct {
	// Text is the full output text.
	Text string `json:"text"`

	// Sections are byte-offset ranges into Text in emission order. Text
	// between sections is legal and preserved.
	Sections []Section[int] `json:"sections"`

	// RunCommandsInText marks embedded command-like text for re-interpretation.
	RunCommandsInText bool `json:"run_commands_in_text"`
}

// Validate checks that every section lies within Text, that no range is
// inverted and that sections are sorted and non-overlapping.
func (o Output) Validate() error {
	prevEnd := 0
	for i, s := range o.Sections {
		r := s.Range
		fail := func(reason string) error {
			return &RangeError{Index: i, Range: r, TextLen: len(o.Text), Reason: reason}
		}
		switch {
		case r.Start < 0 || r.End < 0:
			return fail("negative offset")
		case r.Start > r.End:
			return fail("start after end")
		case r.End > len(o.Text):
			return fail("end past text")
		case r.Start < prevEnd:
			return fail("overlaps or precedes previous section")
		}
		prevEnd = r.End
	}
	return nil
}

// SectionText returns the text covered by section i, or "" if i or the
// section's range is out of bounds.
func (o Output) SectionText(i int) string {
	if i < 0 || i >= len(o.Sections) {
		return ""
	}
	r := o.Sections[i].Range
	if r.Start < 0 || r.Start > r.End || r.End > len(o.Text) {
		return ""
	}
	return o.Text[r.Start:r.End]
}

// Clone returns a deep copy.
func (o Output) Clone() Output {
	out := Output{Text: o.Text, RunCommandsInText: o.RunCommandsInText}
	if o.Sections != nil {
		out.Sections = make([]Section[int], len(o.Sections))
		for i, s := range o.Sections {
			out.Sections[i] = s.Clone()
		}
	}
	return out
}

// Equal reports structural equality: identical text, the same sections in
// the same order with structurally equal metadata, and the same flag.
// A nil and an empty section list are equal.
func (o Output) Equal(other Output) bool {
	if o.Text != other.Text || o.RunCommandsInText != other.RunCommandsInText {
		return false
	}
	if len(o.Sections) != len(other.Sections) {
		return false
	}
	for i := range o.Sections {
		a, b := o.Sections[i], other.Sections[i]
		if a.Range != b.Range || a.Icon != b.Icon || a.Label != b.Label {
			return false
		}
		if !a.Metadata.Equal(b.Metadata) {
			return false
		}
	}
	return true
}

// Events returns the event sequence for o. It is the eager form of
// ToEventStream.
//
// An invalid Output yields a *RangeError and no events. An Output with
// neither text nor sections but RunCommandsInText set yields a single empty
// Content event so the flag survives reconstruction.
func (o Output) Events() ([]Event, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(o.Sections)*3+1)
	lastEnd := 0
	for _, s := range o.Sections {
		if lastEnd < s.Range.Start {
			events = append(events, Content{
				Text:              o.Text[lastEnd:s.Range.Start],
				RunCommandsInText: o.RunCommandsInText,
			})
		}
		events = append(events,
			StartSection{Icon: s.Icon, Label: s.Label, Metadata: s.Metadata.Clone()},
			Content{Text: o.Text[s.Range.Start:s.Range.End], RunCommandsInText: o.RunCommandsInText},
			EndSection{Metadata: s.Metadata.Clone()},
		)
		lastEnd = s.Range.End
	}
	if lastEnd < len(o.Text) {
		events = append(events, Content{Text: o.Text[lastEnd:], RunCommandsInText: o.RunCommandsInText})
	}
	if len(events) == 0 && o.RunCommandsInText {
		events = append(events, Content{RunCommandsInText: true})
	}
	return events, nil
}
