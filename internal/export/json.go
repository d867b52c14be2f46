// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/slashcmd/internal/output"
	"github.com/jeranaias/slashcmd/internal/snapshots"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// Document is the JSON export of one command result.
type Document struct {
	ID        string        `json:"id,omitempty"`
	Command   string        `json:"command"`
	Line      string        `json:"line,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Output    output.Output `json:"output"`
}

// JSONExporter exports the complete output, always including metadata, so
// the result can be read back with ReadDocument.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts an entry to indented JSON.
func (e *JSONExporter) Export(entry snapshots.Entry) ([]byte, error) {
	if err := entry.Output.Validate(); err != nil {
		return nil, err
	}
	out := entry.Output
	if out.Sections == nil {
		out.Sections = []output.Section[int]{}
	}
	return json.MarshalIndent(Document{
		ID:        entry.ID,
		Command:   entry.Command,
		Line:      entry.Line,
		CreatedAt: entry.CreatedAt,
		Output:    out,
	}, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}

// ReadDocument decodes a JSON export and validates its output.
func ReadDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	if err := doc.Output.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}
