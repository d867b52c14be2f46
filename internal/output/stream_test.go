// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeDeliversInOrder(t *testing.T) {
	ctx := context.Background()
	em, stream := NewPipe(2)

	go func() {
		defer em.Close()
		_ = em.StartSection(ctx, IconFile, "a.txt", MustMetadata(map[string]string{"path": "a.txt"}))
		_ = em.Content(ctx, "one\n", false)
		_ = em.Content(ctx, "two\n", false)
		_ = em.EndSection(ctx, MustMetadata(map[string]string{"path": "a.txt"}))
		_ = em.Content(ctx, "tail", false)
	}()

	out, err := FromEventStream(ctx, stream)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\ntail", out.Text)
	require.Len(t, out.Sections, 1)
	assert.Equal(t, Range[int]{Start: 0, End: 8}, out.Sections[0].Range)
	assert.Equal(t, "a.txt", out.Sections[0].Label)
}

func TestPipeFailEndsStream(t *testing.T) {
	ctx := context.Background()
	em, stream := NewPipe(0)
	boom := errors.New("disk on fire")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = em.Content(ctx, "partial", false)
		_ = em.Fail(ctx, boom)
	}()

	_, err := FromEventStream(ctx, stream)
	require.ErrorIs(t, err, boom)
	<-done

	// Emitting after Fail reports the closed emitter.
	assert.ErrorIs(t, em.Content(ctx, "late", false), ErrEmitterClosed)
}

func TestPipeConsumerCloseStopsProducer(t *testing.T) {
	ctx := context.Background()
	em, stream := NewPipe(0)

	stopped := make(chan error, 1)
	go func() {
		for {
			if err := em.Content(ctx, "x", false); err != nil {
				stopped <- err
				return
			}
		}
	}()

	_, err := stream.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	select {
	case err := <-stopped:
		assert.ErrorIs(t, err, ErrStreamClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not observe consumer close")
	}

	select {
	case <-em.Done():
	default:
		t.Error("Done() not closed after consumer Close")
	}
}

func TestPipeNextHonorsContext(t *testing.T) {
	_, stream := NewPipe(0)
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := stream.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSliceStreamEOFAndClose(t *testing.T) {
	ctx := context.Background()
	s := StreamOf(Content{Text: "a"})

	ev, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, Content{Text: "a"}, ev)

	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, s.Close())
	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestAllStopsEarlyAndCloses(t *testing.T) {
	ctx := context.Background()
	em, stream := NewPipe(0)
	go func() {
		defer em.Close()
		for i := 0; i < 100; i++ {
			if em.Content(ctx, "x", false) != nil {
				return
			}
		}
	}()

	n := 0
	for ev, err := range All(ctx, stream) {
		require.NoError(t, err)
		require.NotNil(t, ev)
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)

	select {
	case <-em.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("All did not close the stream on early exit")
	}
}

func TestAllYieldsErrorOnce(t *testing.T) {
	boom := errors.New("boom")
	var errs []error
	for _, err := range All(context.Background(), StreamOfErr(boom, Content{Text: "a"})) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
}

func TestTeeObservesEveryEvent(t *testing.T) {
	o := Output{
		Text:     "head body",
		Sections: []Section[int]{{Range: Range[int]{Start: 5, End: 9}, Label: "body"}},
	}

	var seen []EventKind
	got, err := FromEventStream(context.Background(), Tee(ToEventStream(o), func(ev Event) {
		seen = append(seen, ev.Kind())
	}))
	require.NoError(t, err)
	assert.True(t, got.Equal(o))
	assert.Equal(t, []EventKind{KindContent, KindStartSection, KindContent, KindEndSection}, seen)
}
