// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package stream splits completed response text into fixed-size chunks
// and emits them with inter-chunk pacing.
//
// The pacing delay is a UX smoothing affordance for web clients, not a
// correctness requirement: tests run with a zero delay and get identical
// output. Chunking is independent of how the text was produced; the
// gateway streams fully-generated backend responses through it.
package stream

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidChunkSize is returned by NewChunker for sizes below 1.
// A zero or negative size is a configuration mistake, never a runtime
// condition to tolerate.
var ErrInvalidChunkSize = errors.New("chunk size must be at least 1")

const (
	// DefaultChunkSize is the default chunk length in characters.
	DefaultChunkSize = 5

	// DefaultDelay is the default pause between chunk emissions.
	DefaultDelay = 30 * time.Millisecond
)

// Chunker splits text into chunks of at most Size characters with a
// fixed Delay between emissions.
//
// A Chunker is immutable after construction and safe for concurrent use
// by any number of sessions.
type Chunker struct {
	size  int
	delay time.Duration
}

// NewChunker creates a Chunker.
//
// size is measured in characters (runes), so multi-byte text is never
// split mid-character. size < 1 returns ErrInvalidChunkSize. A negative
// delay is treated as zero (no pacing).
func NewChunker(size int, delay time.Duration) (*Chunker, error) {
	if size < 1 {
		return nil, ErrInvalidChunkSize
	}
	if delay < 0 {
		delay = 0
	}
	return &Chunker{size: size, delay: delay}, nil
}

// Size returns the configured chunk size in characters.
func (c *Chunker) Size() int {
	return c.size
}

// Delay returns the configured inter-chunk delay.
func (c *Chunker) Delay() time.Duration {
	return c.delay
}

// Chunks splits text into successive pieces of at most Size characters.
//
// It is a pure function of its input: restartable, no pacing, and the
// concatenation of the result always reproduces text exactly. The
// number of pieces is ceil(len(text)/Size) counted in runes. Empty text
// yields no chunks.
func (c *Chunker) Chunks(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+c.size-1)/c.size)
	for i := 0; i < len(runes); i += c.size {
		end := i + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// Stream emits each chunk of text through emit, pausing Delay between
// chunks.
//
// # Description
//
// Stream is the cancellation-aware form of Chunks. Between emissions it
// waits on both the pacing timer and ctx, so a session that loses its
// connection mid-stream stops the instant its context is cancelled
// rather than finishing the pace interval.
//
// # Inputs
//
//   - ctx: Cancelled when the owning session ends. Checked between
//     every chunk, including before the first.
//   - text: The completed response text. May be empty (no emissions).
//   - emit: Called once per chunk, in order. A non-nil return stops
//     the stream immediately.
//
// # Outputs
//
//   - error: nil on full emission; ctx.Err() on cancellation; the
//     emit error if emit failed. Callers treat cancellation as a clean
//     disconnect, not a failure.
func (c *Chunker) Stream(ctx context.Context, text string, emit func(chunk string) error) error {
	for i, chunk := range c.Chunks(text) {
		if i > 0 && c.delay > 0 {
			timer := time.NewTimer(c.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return nil
}
