// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianChat/services/gateway/datatypes"
)

// DegradedResponse is returned to the session in place of an error
// whenever the backend fails or times out. Backend instability must
// never crash a session; this string is the fail-soft floor.
const DegradedResponse = "Sorry, I couldn't process your request."

// DefaultSystemInstruction is the persona prepended to every context
// when none is configured.
const DefaultSystemInstruction = "You are a helpful AI assistant. Provide clear and concise answers."

// DefaultCallTimeout bounds a single backend call so a hung provider
// resolves to the degraded response instead of hanging the session.
const DefaultCallTimeout = 45 * time.Second

// TurnResponder produces one assistant reply for one user turn given
// the session's window context. It never returns an error: the
// fail-soft contract lives here, not in the session controller.
type TurnResponder interface {
	// Respond returns the reply text and the backend-reported token
	// count (0 when the backend reported no usage or the call degraded).
	Respond(ctx context.Context, contextTurns []datatypes.Turn, userText string) (string, int)
}

// ResponderConfig configures a Responder. Zero values use the defaults
// above.
type ResponderConfig struct {
	// SystemInstruction is the system message opening every context.
	SystemInstruction string

	// Temperature is the sampling temperature forwarded to the backend.
	// Nil uses the backend default.
	Temperature *float32

	// CallTimeout bounds each backend call.
	CallTimeout time.Duration
}

// Responder assembles the ordered message list
// [system instruction] + window context + [new user turn], issues one
// backend call, and degrades to DegradedResponse on any failure.
type Responder struct {
	client  LLMClient
	system  string
	params  GenerationParams
	timeout time.Duration
}

// NewResponder wraps client with the fail-soft turn contract.
func NewResponder(client LLMClient, cfg ResponderConfig) *Responder {
	if cfg.SystemInstruction == "" {
		cfg.SystemInstruction = DefaultSystemInstruction
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	return &Responder{
		client:  client,
		system:  cfg.SystemInstruction,
		params:  GenerationParams{Temperature: cfg.Temperature},
		timeout: cfg.CallTimeout,
	}
}

// Respond implements TurnResponder.
//
// The single-attempt-with-fallback contract: one call, bounded by the
// configured timeout, and any error (provider failure, quota, timeout,
// empty response) resolves to DegradedResponse with a zero token count.
// Provider error detail is logged server-side and never surfaces in the
// returned text.
func (r *Responder) Respond(ctx context.Context, contextTurns []datatypes.Turn,
	userText string) (string, int) {

	messages := make([]datatypes.Message, 0, len(contextTurns)+2)
	messages = append(messages, datatypes.Message{
		Role:    "system",
		Content: r.system,
	})
	for _, turn := range contextTurns {
		messages = append(messages, datatypes.Message{
			Role:    string(turn.Speaker),
			Content: turn.Text,
		})
	}
	messages = append(messages, datatypes.Message{
		Role:    "user",
		Content: userText,
	})

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	text, usage, err := r.client.Chat(callCtx, messages, r.params)
	if err != nil {
		slog.Warn("backend call failed, returning degraded response", "error", err)
		return DegradedResponse, 0
	}
	return text, usage.TotalTokens
}

var _ TurnResponder = (*Responder)(nil)
