// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package snapshots

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jeranaias/slashcmd/internal/output"
)

var (
	// ErrNotFound is returned when no snapshot exists for an ID.
	ErrNotFound = errors.New("snapshot not found")
)

// Entry is one finished command output.
type Entry struct {
	ID        string
	Command   string
	Line      string
	Output    output.Output
	CreatedAt time.Time
}

// Cache is a bounded in-memory store of finished outputs, keyed by
// invocation ID. Least recently used entries are evicted first; entries
// older than the TTL are dropped on access.
type Cache struct {
	entries   *lru.Cache[string, Entry]
	ttl       time.Duration
	evictions atomic.Int64
	now       func() time.Time
}

// New creates a cache holding at most size entries. A ttl of zero keeps
// entries until they are evicted.
func New(size int, ttl time.Duration) (*Cache, error) {
	c := &Cache{ttl: ttl, now: time.Now}
	entries, err := lru.NewWithEvict[string, Entry](size, func(string, Entry) {
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache: %w", err)
	}
	c.entries = entries
	return c, nil
}

// Put stores a deep copy of e.Output under e.ID.
func (c *Cache) Put(e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.now()
	}
	e.Output = e.Output.Clone()
	c.entries.Add(e.ID, e)
}

// Get returns the entry for id. The returned Output is a copy.
func (c *Cache) Get(id string) (Entry, error) {
	e, ok := c.entries.Get(id)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if c.expired(e) {
		c.entries.Remove(id)
		return Entry{}, fmt.Errorf("%w: %s (expired)", ErrNotFound, id)
	}
	e.Output = e.Output.Clone()
	return e, nil
}

// Replay returns the stored output for id as an event stream.
func (c *Cache) Replay(id string) (output.EventStream, error) {
	e, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	return output.ToEventStream(e.Output), nil
}

// Recent returns up to n live entries, newest first, without changing
// their recency.
func (c *Cache) Recent(n int) []Entry {
	keys := c.entries.Keys()
	var out []Entry
	for i := len(keys) - 1; i >= 0 && (n <= 0 || len(out) < n); i-- {
		e, ok := c.entries.Peek(keys[i])
		if !ok || c.expired(e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Remove deletes the entry for id and reports whether it existed.
func (c *Cache) Remove(id string) bool {
	return c.entries.Remove(id)
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Evictions returns how many entries were dropped, for capacity or expiry.
func (c *Cache) Evictions() int64 {
	return c.evictions.Load()
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.entries.Purge()
}

func (c *Cache) expired(e Entry) bool {
	return c.ttl > 0 && c.now().Sub(e.CreatedAt) > c.ttl
}
