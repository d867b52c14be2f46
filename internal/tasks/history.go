// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"fmt"
	"sync"
)

// =============================================================================
// INVOCATION HISTORY
// =============================================================================

// History keeps recent invocations in start order.
type History struct {
	invocations []*Invocation

	// maxHistory is the maximum number of finished invocations to keep
	// (0 = unlimited)
	maxHistory int

	mu sync.RWMutex
}

// NewHistory creates a history keeping at most maxHistory finished
// invocations.
func NewHistory(maxHistory int) *History {
	return &History{maxHistory: maxHistory}
}

// Add records an invocation.
func (h *History) Add(inv *Invocation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.invocations = append(h.invocations, inv)
	h.cleanupLocked()
}

// Get retrieves an invocation by ID. Returns nil if it is not found.
func (h *History) Get(id string) *Invocation {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, inv := range h.invocations {
		if inv.ID == id {
			return inv
		}
	}
	return nil
}

// All returns every recorded invocation, oldest first.
func (h *History) All() []*Invocation {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]*Invocation(nil), h.invocations...)
}

// Running returns the invocations that have not finished.
func (h *History) Running() []*Invocation {
	return h.filter(func(s Status) bool { return !s.Terminal() })
}

// Finished returns the invocations in a terminal status.
func (h *History) Finished() []*Invocation {
	return h.filter(Status.Terminal)
}

func (h *History) filter(keep func(Status) bool) []*Invocation {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Invocation
	for _, inv := range h.invocations {
		if keep(inv.Status()) {
			out = append(out, inv)
		}
	}
	return out
}

// Count returns the number of recorded invocations.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.invocations)
}

// cleanupLocked drops the oldest finished invocations beyond maxHistory.
func (h *History) cleanupLocked() {
	if h.maxHistory <= 0 {
		return
	}
	finished := 0
	for _, inv := range h.invocations {
		if inv.Done() {
			finished++
		}
	}
	if finished <= h.maxHistory {
		return
	}

	drop := finished - h.maxHistory
	kept := h.invocations[:0]
	for _, inv := range h.invocations {
		if drop > 0 && inv.Done() {
			drop--
			continue
		}
		kept = append(kept, inv)
	}
	for i := len(kept); i < len(h.invocations); i++ {
		h.invocations[i] = nil
	}
	h.invocations = kept
}

// Summary returns counts by status.
func (h *History) Summary() string {
	counts := map[Status]int{}
	for _, inv := range h.All() {
		counts[inv.Status()]++
	}
	return fmt.Sprintf("%d running, %d completed, %d failed, %d cancelled",
		counts[StatusRunning]+counts[StatusNotStarted],
		counts[StatusCompleted], counts[StatusFailed], counts[StatusCancelled])
}
