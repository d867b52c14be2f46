// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks runs slash command invocations.
//
// Each invocation moves through NotStarted -> Running -> Completed, Failed
// or Cancelled. The Runner bounds concurrency, applies a per-invocation
// timeout and a start rate limit, and stores completed outputs in a
// snapshots.Cache.
//
// # Key Types
//
//   - Invocation: One run of a command with its status
//   - Runner: Starts invocations and tracks their streams
//   - History: Recent invocations in start order
//
// # Usage
//
// Stream an invocation:
//
//	inv, stream, err := runner.Start(ctx, cmd, line, req)
//	defer stream.Close()
//	for ev, err := range output.All(ctx, stream) { ... }
//
// Or drain it:
//
//	inv, out, err := runner.Run(ctx, cmd, line, req)
package tasks
