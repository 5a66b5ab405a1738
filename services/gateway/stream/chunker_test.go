// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stream

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunker_RejectsInvalidSize(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{name: "zero", size: 0},
		{name: "negative", size: -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker(tt.size, 0)
			assert.ErrorIs(t, err, ErrInvalidChunkSize)
		})
	}
}

// TestChunker_Chunks_Reassembly verifies the two chunking invariants:
// concatenation reproduces the input exactly, and the chunk count is
// ceil(len/size) counted in runes.
func TestChunker_Chunks_Reassembly(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		size  int
		count int
	}{
		{name: "empty text", text: "", size: 5, count: 0},
		{name: "shorter than one chunk", text: "hi", size: 5, count: 1},
		{name: "exact multiple", text: "abcdefghij", size: 5, count: 2},
		{name: "ragged tail", text: "abcdefghijk", size: 5, count: 3},
		{name: "size one", text: "hello", size: 1, count: 5},
		{name: "multibyte runes", text: "héllo wörld 🤔", size: 4, count: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewChunker(tt.size, 0)
			require.NoError(t, err)

			chunks := c.Chunks(tt.text)
			assert.Len(t, chunks, tt.count)
			assert.Equal(t, tt.text, strings.Join(chunks, ""))
			for _, chunk := range chunks {
				assert.LessOrEqual(t, len([]rune(chunk)), tt.size)
			}
		})
	}
}

func TestChunker_Stream_EmitsInOrder(t *testing.T) {
	c, err := NewChunker(3, 0)
	require.NoError(t, err)

	var got []string
	err = c.Stream(context.Background(), "abcdefgh", func(chunk string) error {
		got = append(got, chunk)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "def", "gh"}, got)
}

func TestChunker_Stream_StopsOnEmitError(t *testing.T) {
	c, err := NewChunker(2, 0)
	require.NoError(t, err)

	boom := errors.New("write failed")
	calls := 0
	err = c.Stream(context.Background(), "abcdef", func(string) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

// TestChunker_Stream_CancelMidStream verifies that cancellation between
// chunk emissions aborts the remaining chunks promptly and without
// emitting anything further.
func TestChunker_Stream_CancelMidStream(t *testing.T) {
	c, err := NewChunker(1, 50*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var got []string

	start := time.Now()
	err = c.Stream(ctx, "abcdef", func(chunk string) error {
		got = append(got, chunk)
		if len(got) == 2 {
			cancel()
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a", "b"}, got)
	// Four remaining pace intervals were skipped.
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestChunker_Stream_CancelledBeforeStart(t *testing.T) {
	c, err := NewChunker(2, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = c.Stream(ctx, "abc", func(string) error {
		t.Fatal("emit must not be called after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChunker_Stream_PacingIsMeasurable(t *testing.T) {
	const delay = 20 * time.Millisecond
	c, err := NewChunker(1, delay)
	require.NoError(t, err)

	start := time.Now()
	err = c.Stream(context.Background(), "abcd", func(string) error { return nil })
	require.NoError(t, err)

	// Three gaps between four chunks.
	assert.GreaterOrEqual(t, time.Since(start), 3*delay)
}
