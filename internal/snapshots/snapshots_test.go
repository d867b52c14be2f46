// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package snapshots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/slashcmd/internal/output"
)

func sampleOutput() output.Output {
	return output.Output{
		Text: "hello world",
		Sections: []output.Section[int]{{
			Range:    output.Range[int]{Start: 0, End: 5},
			Icon:     output.IconFile,
			Label:    "hello",
			Metadata: output.MustMetadata(map[string]any{"path": "hello.txt"}),
		}},
	}
}

func TestPutGet(t *testing.T) {
	cache, err := New(4, 0)
	require.NoError(t, err)

	out := sampleOutput()
	cache.Put(Entry{ID: "a", Command: "file", Output: out})

	got, err := cache.Get("a")
	require.NoError(t, err)
	assert.True(t, got.Output.Equal(out))
	assert.False(t, got.CreatedAt.IsZero())

	// Mutating the returned copy leaves the cache untouched.
	got.Output.Sections[0].Label = "changed"
	again, _ := cache.Get("a")
	assert.Equal(t, "hello", again.Output.Sections[0].Label)

	_, err = cache.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEviction(t *testing.T) {
	cache, err := New(2, 0)
	require.NoError(t, err)

	cache.Put(Entry{ID: "a"})
	cache.Put(Entry{ID: "b"})
	_, _ = cache.Get("a") // a is now most recent
	cache.Put(Entry{ID: "c"})

	_, err = cache.Get("b")
	assert.True(t, errors.Is(err, ErrNotFound), "least recently used entry should be evicted")
	_, err = cache.Get("a")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), cache.Evictions())
	assert.Equal(t, 2, cache.Len())
}

func TestTTL(t *testing.T) {
	cache, err := New(4, time.Minute)
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	cache.Put(Entry{ID: "a"})

	now = now.Add(30 * time.Second)
	_, err = cache.Get("a")
	require.NoError(t, err)
	assert.Len(t, cache.Recent(0), 1)

	now = now.Add(2 * time.Minute)
	assert.Empty(t, cache.Recent(0))
	_, err = cache.Get("a")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 0, cache.Len())
}

func TestRecentNewestFirst(t *testing.T) {
	cache, err := New(8, 0)
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c"} {
		cache.Put(Entry{ID: id})
	}

	var ids []string
	for _, e := range cache.Recent(2) {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"c", "b"}, ids)
}

func TestReplay(t *testing.T) {
	cache, err := New(4, 0)
	require.NoError(t, err)
	out := sampleOutput()
	cache.Put(Entry{ID: "a", Output: out})

	stream, err := cache.Replay("a")
	require.NoError(t, err)
	got, err := output.FromEventStream(context.Background(), stream)
	require.NoError(t, err)
	assert.True(t, got.Equal(out))

	_, err = cache.Replay("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNewRejectsZeroSize(t *testing.T) {
	_, err := New(0, 0)
	assert.Error(t, err)
}
