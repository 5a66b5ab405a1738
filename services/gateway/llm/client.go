// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm wraps language-model backends behind a small client
// interface and provides the fail-soft Responder the session controller
// talks to.
package llm

import (
	"context"

	"github.com/AleutianAI/AleutianChat/services/gateway/datatypes"
)

// GenerationParams carries optional sampling parameters. Nil pointer
// fields mean "use the backend default".
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// TokenUsage is the backend-reported token accounting for one call.
// All fields are zero when the backend does not report usage.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// LLMClient defines the standard interface for any LLM backend.
//
// Implementations must be safe for concurrent use by many sessions,
// must honor ctx cancellation, and must not hold locks shared across
// sessions while awaiting network I/O.
type LLMClient interface {
	// Chat sends an ordered message list and returns the full response
	// text plus token usage. Errors are backend errors (timeout, quota,
	// malformed response); the Responder, not the caller, decides how
	// to degrade.
	Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, TokenUsage, error)
}
