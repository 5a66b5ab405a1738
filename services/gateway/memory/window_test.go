// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianChat/services/gateway/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindow_DefaultCapacity(t *testing.T) {
	tests := []struct {
		name     string
		pairs    int
		expected int
	}{
		{name: "explicit capacity", pairs: 3, expected: 3},
		{name: "zero falls back to default", pairs: 0, expected: DefaultPairs},
		{name: "negative falls back to default", pairs: -1, expected: DefaultPairs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWindow(tt.pairs)
			assert.Equal(t, tt.expected, w.Capacity())
			assert.Zero(t, w.Len())
		})
	}
}

// TestWindow_AppendPair_EvictsOldest verifies the FIFO capacity
// invariant: after N+k appends to a window of capacity N, the context
// holds exactly the N most recent pairs in chronological order.
func TestWindow_AppendPair_EvictsOldest(t *testing.T) {
	const capacity = 3
	w := NewWindow(capacity)

	for i := 1; i <= capacity+2; i++ {
		w.AppendPair(
			fmt.Sprintf("question %d", i),
			fmt.Sprintf("answer %d", i),
			i*10,
		)
	}

	ctx := w.AsContext()
	require.Len(t, ctx, capacity*2)

	// Oldest surviving pair is #3, newest is #5.
	for pair := 0; pair < capacity; pair++ {
		n := pair + 3
		user := ctx[pair*2]
		assistant := ctx[pair*2+1]

		assert.Equal(t, datatypes.SpeakerUser, user.Speaker)
		assert.Equal(t, fmt.Sprintf("question %d", n), user.Text)
		assert.Equal(t, datatypes.SpeakerAssistant, assistant.Speaker)
		assert.Equal(t, fmt.Sprintf("answer %d", n), assistant.Text)
	}
}

// TestWindow_Seed_ReversesNewestFirst verifies that seeding from a
// newest-first store query yields a chronological (oldest-first) context.
func TestWindow_Seed_ReversesNewestFirst(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Newest-first, as QueryRecent returns them.
	records := []datatypes.ChatRecord{
		{UserText: "q3", AssistantText: "a3", CreatedAt: base.Add(2 * time.Minute)},
		{UserText: "q2", AssistantText: "a2", CreatedAt: base.Add(1 * time.Minute)},
		{UserText: "q1", AssistantText: "a1", CreatedAt: base},
	}

	w := NewWindow(5)
	w.Seed(records)

	ctx := w.AsContext()
	require.Len(t, ctx, 6)
	assert.Equal(t, "q1", ctx[0].Text)
	assert.Equal(t, "a1", ctx[1].Text)
	assert.Equal(t, "q2", ctx[2].Text)
	assert.Equal(t, "a2", ctx[3].Text)
	assert.Equal(t, "q3", ctx[4].Text)
	assert.Equal(t, "a3", ctx[5].Text)
}

func TestWindow_Seed_TruncatesToCapacity(t *testing.T) {
	records := make([]datatypes.ChatRecord, 8)
	for i := range records {
		// records[0] is the newest cycle.
		records[i] = datatypes.ChatRecord{
			UserText:      fmt.Sprintf("q%d", 8-i),
			AssistantText: fmt.Sprintf("a%d", 8-i),
		}
	}

	w := NewWindow(5)
	w.Seed(records)

	ctx := w.AsContext()
	require.Len(t, ctx, 10)
	// The 5 newest cycles survive: q4..q8.
	assert.Equal(t, "q4", ctx[0].Text)
	assert.Equal(t, "q8", ctx[8].Text)
}

func TestWindow_Seed_ReplacesExistingTurns(t *testing.T) {
	w := NewWindow(5)
	w.AppendPair("stale question", "stale answer", 0)

	w.Seed([]datatypes.ChatRecord{
		{UserText: "fresh question", AssistantText: "fresh answer"},
	})

	ctx := w.AsContext()
	require.Len(t, ctx, 2)
	assert.Equal(t, "fresh question", ctx[0].Text)
}

func TestWindow_Clear_Idempotent(t *testing.T) {
	w := NewWindow(5)
	w.AppendPair("q", "a", 0)

	w.Clear()
	assert.Zero(t, w.Len())

	// Second clear must not panic or change anything.
	w.Clear()
	assert.Zero(t, w.Len())
}

// TestWindow_AsContext_IsSnapshot verifies the returned slice is
// detached from the window's internal storage.
func TestWindow_AsContext_IsSnapshot(t *testing.T) {
	w := NewWindow(5)
	w.AppendPair("q", "a", 0)

	ctx := w.AsContext()
	ctx[0].Text = "mutated"

	assert.Equal(t, "q", w.AsContext()[0].Text)
}
