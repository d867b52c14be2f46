// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"encoding/json"
	"fmt"
)

// Event is one item of a command's output stream. It is one of StartSection,
// Content or EndSection.
type Event interface {
	// Kind returns the wire tag of the event.
	Kind() EventKind

	isEvent()
}

// EventKind is the wire tag of an event.
type EventKind string

// Event kinds.
const (
	KindStartSection EventKind = "start_section"
	KindContent      EventKind = "content"
	KindEndSection   EventKind = "end_section"
)

// StartSection opens a section at the current end of the text. At most one
// section is open at a time.
type StartSection struct {
	Icon     Icon
	Label    string
	Metadata Metadata
}

// Content appends text to the open section, or to free text when no section
// is open.
type Content struct {
	Text              string
	RunCommandsInText bool
}

// EndSection closes the open section. Its metadata replaces whatever the
// matching StartSection carried.
type EndSection struct {
	Metadata Metadata
}

func (StartSection) Kind() EventKind { return KindStartSection }
func (Content) Kind() EventKind      { return KindContent }
func (EndSection) Kind() EventKind   { return KindEndSection }

func (StartSection) isEvent() {}
func (Content) isEvent()      {}
func (EndSection) isEvent()   {}

// EventsEqual compares two events structurally.
func EventsEqual(a, b Event) bool {
	switch x := a.(type) {
	case StartSection:
		y, ok := b.(StartSection)
		return ok && x.Icon == y.Icon && x.Label == y.Label && x.Metadata.Equal(y.Metadata)
	case Content:
		y, ok := b.(Content)
		return ok && x == y
	case EndSection:
		y, ok := b.(EndSection)
		return ok && x.Metadata.Equal(y.Metadata)
	}
	return false
}

// =============================================================================
// JSON WIRE FORM
// =============================================================================

// wireEvent is the flat tagged JSON form of an event. Metadata uses
// omitempty so absent metadata stays distinct from null.
type wireEvent struct {
	Type              EventKind `json:"type"`
	Icon              Icon      `json:"icon,omitempty"`
	Label             string    `json:"label,omitempty"`
	Metadata          Metadata  `json:"metadata,omitempty"`
	Text              string    `json:"text,omitempty"`
	RunCommandsInText bool      `json:"run_commands_in_text,omitempty"`
}

// MarshalEvent encodes an event in its tagged JSON form.
func MarshalEvent(ev Event) ([]byte, error) {
	var w wireEvent
	switch e := ev.(type) {
	case StartSection:
		w = wireEvent{Type: KindStartSection, Icon: e.Icon, Label: e.Label, Metadata: e.Metadata}
	case Content:
		w = wireEvent{Type: KindContent, Text: e.Text, RunCommandsInText: e.RunCommandsInText}
	case EndSection:
		w = wireEvent{Type: KindEndSection, Metadata: e.Metadata}
	default:
		return nil, fmt.Errorf("marshal event: unsupported type %T", ev)
	}
	return json.Marshal(w)
}

// UnmarshalEvent decodes an event from its tagged JSON form.
func UnmarshalEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	switch w.Type {
	case KindStartSection:
		return StartSection{Icon: w.Icon, Label: w.Label, Metadata: w.Metadata}, nil
	case KindContent:
		return Content{Text: w.Text, RunCommandsInText: w.RunCommandsInText}, nil
	case KindEndSection:
		return EndSection{Metadata: w.Metadata}, nil
	default:
		return nil, fmt.Errorf("unmarshal event: unknown type %q", w.Type)
	}
}
