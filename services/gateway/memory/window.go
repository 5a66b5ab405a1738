// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package memory implements the bounded conversation window used as
// model context for one live session.
//
// A Window belongs to exactly one session and is only ever touched from
// that session's goroutine. It is deliberately NOT safe for concurrent
// use; cross-session sharing (even for the same principal) is a design
// property the gateway preserves, not an oversight.
package memory

import (
	"time"

	"github.com/AleutianAI/AleutianChat/services/gateway/datatypes"
)

// DefaultPairs is the default window capacity in turn pairs
// (one user turn + one assistant turn per pair).
const DefaultPairs = 5

// Window is an ordered, bounded buffer of conversation turn pairs.
//
// Invariants:
//   - turns are stored chronologically, oldest first
//   - length never exceeds 2 * capacity pairs
//   - insertion beyond capacity evicts the oldest pair (FIFO)
type Window struct {
	capacity int // pairs
	turns    []datatypes.Turn
}

// NewWindow creates a Window holding at most `pairs` turn pairs.
// Non-positive values fall back to DefaultPairs.
func NewWindow(pairs int) *Window {
	if pairs <= 0 {
		pairs = DefaultPairs
	}
	return &Window{
		capacity: pairs,
		turns:    make([]datatypes.Turn, 0, pairs*2),
	}
}

// Capacity returns the window capacity in pairs.
func (w *Window) Capacity() int {
	return w.capacity
}

// Len returns the current number of turns (not pairs).
func (w *Window) Len() int {
	return len(w.turns)
}

// Seed populates the window from durable history.
//
// # Description
//
// Records arrive newest-first, the natural order of a
// "most-recent-N" store query. Seed consumes at most the window
// capacity and reverses them so the context always reads oldest to
// newest, regardless of how the store ordered the query.
//
// Any turns already in the window are discarded; seeding is a session
// construction step, not an append.
//
// # Inputs
//
//   - records: ChatRecords ordered newest-first. May be empty or nil.
func (w *Window) Seed(records []datatypes.ChatRecord) {
	w.turns = w.turns[:0]

	n := len(records)
	if n > w.capacity {
		n = w.capacity
	}

	// Walk backwards over the newest-first slice so turns land oldest-first.
	for i := n - 1; i >= 0; i-- {
		rec := records[i]
		w.turns = append(w.turns,
			datatypes.Turn{
				Speaker:   datatypes.SpeakerUser,
				Text:      rec.UserText,
				Timestamp: rec.CreatedAt,
			},
			datatypes.Turn{
				Speaker:   datatypes.SpeakerAssistant,
				Text:      rec.AssistantText,
				Tokens:    rec.TokenCount,
				Timestamp: rec.CreatedAt,
			},
		)
	}
}

// AppendPair records one completed conversation cycle. Tokens is the
// backend-reported usage for the cycle, 0 when none was reported.
//
// If the window is at capacity the oldest pair is evicted first, so the
// context keeps exactly the most recent `capacity` cycles.
func (w *Window) AppendPair(userText, assistantText string, tokens int) {
	if len(w.turns) >= w.capacity*2 {
		w.turns = w.turns[2:]
	}
	now := time.Now()
	w.turns = append(w.turns,
		datatypes.Turn{Speaker: datatypes.SpeakerUser, Text: userText, Timestamp: now},
		datatypes.Turn{Speaker: datatypes.SpeakerAssistant, Text: assistantText, Tokens: tokens, Timestamp: now},
	)
}

// AsContext returns a read-only snapshot of the turns, oldest first,
// for prompt assembly. The caller must not mutate the returned slice.
func (w *Window) AsContext() []datatypes.Turn {
	snapshot := make([]datatypes.Turn, len(w.turns))
	copy(snapshot, w.turns)
	return snapshot
}

// Clear empties the window. Idempotent; called at session teardown.
func (w *Window) Clear() {
	w.turns = w.turns[:0]
}
