// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes command outputs to files and reads event logs back.
//
// # Key Types
//
//   - Exporter: Converts a snapshots.Entry to one format
//   - Options: Output directory, metadata and theme settings
//   - EventWriter: Concurrency-safe NDJSON event writer
//
// # Supported Formats
//
//   - Markdown: One heading per section, fenced section text
//   - HTML: Standalone page with chroma-highlighted code
//   - JSON: Complete output, readable with ReadDocument
//   - NDJSON: The event sequence, readable with ReadEvents
//
// # Usage
//
// Export a cached result:
//
//	exp, err := export.New("markdown", export.DefaultOptions())
//	path, err := export.ExportToFile(entry, exp, opts)
//
// Replay an event log:
//
//	f, _ := os.Open("run.ndjson")
//	out, err := output.FromEventStream(ctx, export.ReadEvents(f))
package export
