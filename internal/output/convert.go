// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ToEventStream returns a fresh stream of the events describing o. Every call
// yields an independent stream over the same value.
//
// If o fails Validate, the stream's first and only item is the *RangeError.
func ToEventStream(o Output) EventStream {
	events, err := o.Events()
	if err != nil {
		return StreamOfErr(err)
	}
	return StreamOf(events...)
}

// FromEventStream drains stream into an Output and closes it.
//
// The first stream error aborts reconstruction; the partial output is
// discarded and the error returned.
func FromEventStream(ctx context.Context, stream EventStream) (Output, error) {
	defer stream.Close()

	var b Builder
	for {
		ev, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return b.Finish(), nil
		}
		if err != nil {
			return Output{}, fmt.Errorf("read event stream: %w", err)
		}
		b.Push(ev)
	}
}

// FromEvents reconstructs an Output from an already collected event list.
func FromEvents(events []Event) Output {
	var b Builder
	for _, ev := range events {
		b.Push(ev)
	}
	return b.Finish()
}

// Builder incrementally reconstructs an Output from events. The zero value
// is ready to use.
type Builder struct {
	text     strings.Builder
	sections []Section[int]
	flag     bool
	open     *Section[int]
}

// Push applies one event.
//
// A StartSection while another section is open closes the open one first.
// An EndSection with no open section is ignored.
func (b *Builder) Push(ev Event) {
	switch e := ev.(type) {
	case StartSection:
		b.closeOpen()
		b.open = &Section[int]{
			Range:    Range[int]{Start: b.text.Len(), End: b.text.Len()},
			Icon:     e.Icon,
			Label:    e.Label,
			Metadata: e.Metadata.Clone(),
		}
	case Content:
		b.text.WriteString(e.Text)
		b.flag = e.RunCommandsInText
		if b.open != nil {
			b.open.Range.End = b.text.Len()
		}
	case EndSection:
		if b.open != nil {
			b.open.Metadata = e.Metadata.Clone()
			b.closeOpen()
		}
	}
}

// Open reports whether a section is currently open.
func (b *Builder) Open() bool {
	return b.open != nil
}

// Snapshot returns the output accumulated so far, including the open
// section, without finishing the builder.
func (b *Builder) Snapshot() Output {
	out := Output{Text: b.text.String(), RunCommandsInText: b.flag}
	for _, s := range b.sections {
		out.Sections = append(out.Sections, s.Clone())
	}
	if b.open != nil {
		out.Sections = append(out.Sections, b.open.Clone())
	}
	return out
}

// Finish closes any open section and returns the output.
func (b *Builder) Finish() Output {
	b.closeOpen()
	return Output{Text: b.text.String(), Sections: b.sections, RunCommandsInText: b.flag}
}

func (b *Builder) closeOpen() {
	if b.open == nil {
		return
	}
	b.sections = append(b.sections, *b.open)
	b.open = nil
}
