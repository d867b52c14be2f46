// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jeranaias/slashcmd/internal/output"
	"github.com/jeranaias/slashcmd/internal/snapshots"
)

// maxEventLine bounds one NDJSON line.
const maxEventLine = 16 * 1024 * 1024

// =============================================================================
// EVENT LOG EXPORTER
// =============================================================================

// EventLogExporter exports an output as its event sequence, one JSON event
// per line.
type EventLogExporter struct{}

// NewEventLogExporter creates a new NDJSON event log exporter.
func NewEventLogExporter() *EventLogExporter {
	return &EventLogExporter{}
}

// Export converts an entry to NDJSON events.
func (e *EventLogExporter) Export(entry snapshots.Entry) ([]byte, error) {
	events, err := entry.Output.Events()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := NewEventWriter(&buf)
	for _, ev := range events {
		if err := w.Write(ev); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for NDJSON.
func (e *EventLogExporter) FileExtension() string {
	return ".ndjson"
}

// MimeType returns the MIME type for NDJSON.
func (e *EventLogExporter) MimeType() string {
	return "application/x-ndjson"
}

// =============================================================================
// EVENT WRITER
// =============================================================================

// EventWriter writes events as NDJSON. It is safe for concurrent use.
type EventWriter struct {
	mu sync.Mutex
	w  io.Writer
	n  int
}

// NewEventWriter returns a writer appending to w.
func NewEventWriter(w io.Writer) *EventWriter {
	return &EventWriter{w: w}
}

// Write encodes ev on its own line.
func (w *EventWriter) Write(ev output.Event) error {
	data, err := output.MarshalEvent(ev)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("write event %d: %w", w.n, err)
	}
	w.n++
	return nil
}

// Count returns the number of events written.
func (w *EventWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// =============================================================================
// EVENT READER
// =============================================================================

// eventReader is an EventStream decoding NDJSON lazily.
type eventReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	done    bool
}

// ReadEvents returns a stream over the NDJSON events in r. Blank lines are
// skipped. A malformed line ends the stream with an error naming the line.
// Close closes r when it is an io.Closer.
func ReadEvents(r io.Reader) output.EventStream {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventLine)
	er := &eventReader{scanner: sc}
	if c, ok := r.(io.Closer); ok {
		er.closer = c
	}
	return er
}

func (r *eventReader) Next(ctx context.Context) (output.Event, error) {
	if r.done {
		return nil, io.EOF
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !r.scanner.Scan() {
			r.done = true
			if err := r.scanner.Err(); err != nil {
				return nil, fmt.Errorf("line %d: %w", r.line+1, err)
			}
			return nil, io.EOF
		}
		r.line++
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		ev, err := output.UnmarshalEvent(line)
		if err != nil {
			r.done = true
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		return ev, nil
	}
}

func (r *eventReader) Close() error {
	r.done = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
