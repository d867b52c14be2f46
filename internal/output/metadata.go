// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
)

// Metadata is an opaque JSON value attached to a section.
//
// A zero-length Metadata is absent. The literal JSON null is present and
// distinct from absent. Equality is structural: {"a":1,"b":2} equals
// {"b":2, "a":1}.
type Metadata json.RawMessage

// NewMetadata encodes v as section metadata.
func NewMetadata(v any) (Metadata, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return Metadata(data), nil
}

// MustMetadata is like NewMetadata but panics on encoding failure.
// Intended for literals in tests and built-in commands.
func MustMetadata(v any) Metadata {
	m, err := NewMetadata(v)
	if err != nil {
		panic(err)
	}
	return m
}

// Present reports whether metadata was supplied (including JSON null).
func (m Metadata) Present() bool {
	return len(m) > 0
}

// IsNull reports whether the metadata is the JSON literal null.
func (m Metadata) IsNull() bool {
	return bytes.Equal(bytes.TrimSpace(m), []byte("null"))
}

// Clone returns an independent copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	copy(out, m)
	return out
}

// Decode unmarshals the metadata into v. Absent metadata leaves v untouched.
func (m Metadata) Decode(v any) error {
	if !m.Present() {
		return nil
	}
	if err := json.Unmarshal(m, v); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	return nil
}

// Equal reports structural equality. Numbers compare by their literal text,
// so integers beyond float64 precision stay distinct. Values that are not
// valid JSON fall back to byte comparison.
func (m Metadata) Equal(other Metadata) bool {
	if m.Present() != other.Present() {
		return false
	}
	if !m.Present() {
		return true
	}
	a, errA := decodeExact(m)
	b, errB := decodeExact(other)
	if errA != nil || errB != nil {
		return bytes.Equal(m, other)
	}
	return reflect.DeepEqual(a, b)
}

// decodeExact decodes a single JSON value keeping numbers as json.Number.
func decodeExact(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after metadata value")
	}
	return v, nil
}

// String returns the raw JSON, or "<none>" when absent.
func (m Metadata) String() string {
	if !m.Present() {
		return "<none>"
	}
	return string(m)
}

// MarshalJSON implements json.Marshaler. Fields that must keep absent
// distinct from null should carry the omitempty tag.
func (m Metadata) MarshalJSON() ([]byte, error) {
	if !m.Present() {
		return []byte("null"), nil
	}
	if !json.Valid(m) {
		return nil, fmt.Errorf("metadata is not valid JSON: %q", string(m))
	}
	return m, nil
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null is kept as present.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	if m == nil {
		return fmt.Errorf("output.Metadata: UnmarshalJSON on nil pointer")
	}
	*m = append((*m)[0:0], data...)
	return nil
}
