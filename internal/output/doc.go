// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package output provides the sectioned output model produced by slash
// commands and the event protocol used to deliver it progressively.
//
// A command's result is either a materialized Output (text plus labeled
// sections) or a live EventStream of StartSection, Content and EndSection
// events. ToEventStream and FromEventStream convert between the two forms,
// and the round trip is exact for every well-formed Output.
//
// # Key Types
//
//   - Output: Materialized text with byte-offset sections
//   - Section: Labeled range with icon and opaque JSON metadata
//   - Event: StartSection, Content or EndSection
//   - EventStream: Pull-based, failable, cancellable event source
//   - Emitter: Producer side of a pipe for commands that stream from a goroutine
//   - Resolver: Snapshot-side anchor resolution for anchor-bound sections
//
// # Usage
//
// Replay a stored output:
//
//	stream := output.ToEventStream(out)
//	defer stream.Close()
//	for ev, err := range output.All(ctx, stream) {
//	    ...
//	}
//
// Materialize a command's stream:
//
//	out, err := output.FromEventStream(ctx, stream)
//
// Produce events from a goroutine:
//
//	em, stream := output.NewPipe(8)
//	go func() {
//	    defer em.Close()
//	    em.StartSection(ctx, output.IconFile, "main.go", nil)
//	    em.Content(ctx, body, false)
//	    em.EndSection(ctx, nil)
//	}()
package output
