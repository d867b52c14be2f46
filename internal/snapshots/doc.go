// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package snapshots keeps recently finished command outputs in memory so
// they can be inspected, exported or replayed as event streams.
//
// # Key Types
//
//   - Cache: LRU of finished outputs keyed by invocation ID
//   - Entry: One stored output with the command line that produced it
//
// # Usage
//
//	cache, _ := snapshots.New(256, 0)
//	cache.Put(snapshots.Entry{ID: inv.ID, Command: "file", Output: out})
//	stream, err := cache.Replay(inv.ID)
package snapshots
