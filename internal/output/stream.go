// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"
	"sync/atomic"
)

var (
	// ErrStreamClosed is returned when reading from or emitting into a
	// stream whose consumer has closed it.
	ErrStreamClosed = errors.New("event stream closed")

	// ErrEmitterClosed is returned when emitting after the producer closed.
	ErrEmitterClosed = errors.New("emitter closed")
)

// EventStream is a finite, failable source of events.
//
// Next returns io.EOF once the stream is exhausted. Any other error ends the
// stream. Close releases the producer and may be called more than once.
type EventStream interface {
	Next(ctx context.Context) (Event, error)
	Close() error
}

// =============================================================================
// SLICE STREAMS
// =============================================================================

type sliceStream struct {
	events []Event
	err    error
	pos    int
	closed bool
}

// StreamOf returns a stream over a fixed list of events.
func StreamOf(events ...Event) EventStream {
	return &sliceStream{events: events}
}

// StreamOfErr returns a stream that yields events and then fails with err.
// A nil err behaves like StreamOf.
func StreamOfErr(err error, events ...Event) EventStream {
	return &sliceStream{events: events, err: err}
}

func (s *sliceStream) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.pos < len(s.events) {
		ev := s.events[s.pos]
		s.pos++
		return ev, nil
	}
	if s.err != nil {
		err := s.err
		s.err = nil
		s.closed = true
		return nil, err
	}
	return nil, io.EOF
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

// =============================================================================
// PIPE
// =============================================================================

type pipeItem struct {
	ev  Event
	err error
}

type pipe struct {
	ch        chan pipeItem
	done      chan struct{}
	closeDone sync.Once
}

func (p *pipe) stop() {
	p.closeDone.Do(func() { close(p.done) })
}

// Emitter is the producer side of a pipe. Its methods must be called from a
// single goroutine. Every emit blocks until the consumer has room, the
// consumer closes the stream, or ctx is done.
type Emitter struct {
	p      *pipe
	closed atomic.Bool
}

// NewPipe returns a connected Emitter and EventStream. buffer is the number
// of events that may be queued before Emit blocks.
func NewPipe(buffer int) (*Emitter, EventStream) {
	if buffer < 0 {
		buffer = 0
	}
	p := &pipe{ch: make(chan pipeItem, buffer), done: make(chan struct{})}
	return &Emitter{p: p}, &pipeStream{p: p}
}

// Emit sends one event.
func (e *Emitter) Emit(ctx context.Context, ev Event) error {
	return e.send(ctx, pipeItem{ev: ev})
}

// StartSection emits a StartSection event.
func (e *Emitter) StartSection(ctx context.Context, icon Icon, label string, metadata Metadata) error {
	return e.Emit(ctx, StartSection{Icon: icon, Label: label, Metadata: metadata})
}

// Content emits a Content event.
func (e *Emitter) Content(ctx context.Context, text string, runCommandsInText bool) error {
	return e.Emit(ctx, Content{Text: text, RunCommandsInText: runCommandsInText})
}

// EndSection emits an EndSection event.
func (e *Emitter) EndSection(ctx context.Context, metadata Metadata) error {
	return e.Emit(ctx, EndSection{Metadata: metadata})
}

// Fail delivers err to the consumer as the stream's terminal error and
// closes the emitter.
func (e *Emitter) Fail(ctx context.Context, err error) error {
	if err == nil {
		return e.Close()
	}
	sendErr := e.send(ctx, pipeItem{err: err})
	e.Close()
	return sendErr
}

// Close ends the stream normally. Further emits return ErrEmitterClosed.
func (e *Emitter) Close() error {
	if e.closed.CompareAndSwap(false, true) {
		close(e.p.ch)
	}
	return nil
}

// Done is closed when the consumer closes the stream.
func (e *Emitter) Done() <-chan struct{} {
	return e.p.done
}

func (e *Emitter) send(ctx context.Context, it pipeItem) error {
	if e.closed.Load() {
		return ErrEmitterClosed
	}
	select {
	case <-e.p.done:
		return ErrStreamClosed
	default:
	}
	select {
	case e.p.ch <- it:
		return nil
	case <-e.p.done:
		return ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

type pipeStream struct {
	p        *pipe
	finished bool
}

func (s *pipeStream) Next(ctx context.Context) (Event, error) {
	if s.finished {
		return nil, io.EOF
	}
	select {
	case <-s.p.done:
		return nil, ErrStreamClosed
	default:
	}
	select {
	case it, ok := <-s.p.ch:
		if !ok {
			s.finished = true
			return nil, io.EOF
		}
		if it.err != nil {
			s.finished = true
			return nil, it.err
		}
		return it.ev, nil
	case <-s.p.done:
		return nil, ErrStreamClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *pipeStream) Close() error {
	s.p.stop()
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// Collect drains s and closes it. On error the collected events are
// discarded.
func Collect(ctx context.Context, s EventStream) ([]Event, error) {
	defer s.Close()
	var events []Event
	for {
		ev, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
}

// All adapts s to a range-over-func iterator. A failure is yielded once as
// (nil, err) and ends iteration. The stream is closed when iteration stops.
func All(ctx context.Context, s EventStream) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		defer s.Close()
		for {
			ev, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

type teeStream struct {
	EventStream
	observe func(Event)
}

// Tee returns a stream that passes every event from s to observe before
// handing it to the caller.
func Tee(s EventStream, observe func(Event)) EventStream {
	return &teeStream{EventStream: s, observe: observe}
}

func (t *teeStream) Next(ctx context.Context) (Event, error) {
	ev, err := t.EventStream.Next(ctx)
	if err == nil && t.observe != nil {
		t.observe(ev)
	}
	return ev, err
}
