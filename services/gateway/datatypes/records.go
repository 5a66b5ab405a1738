// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// This file contains the conversation data model: turns held in session
// memory, messages sent to the LLM backend, and the durable chat record.
package datatypes

import "time"

// =============================================================================
// Turns
// =============================================================================

// Speaker identifies the author of a Turn.
type Speaker string

const (
	// SpeakerUser is the human side of the conversation.
	SpeakerUser Speaker = "user"

	// SpeakerAssistant is the model side of the conversation.
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one message from either side of the conversation.
// Turns are immutable once created.
type Turn struct {
	// Speaker is who authored the turn.
	Speaker Speaker `json:"speaker"`

	// Text is the message content.
	Text string `json:"text"`

	// Tokens is the token count reported by the backend for the cycle
	// that produced this turn. Zero when the backend reported no usage.
	Tokens int `json:"tokens,omitempty"`

	// Timestamp is when the turn was created.
	Timestamp time.Time `json:"timestamp"`
}

// =============================================================================
// Backend Messages
// =============================================================================

// Message is one entry in the ordered list sent to an LLM backend.
// Role follows the OpenAI convention: "system", "user", "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// =============================================================================
// Durable Records
// =============================================================================

// ChatRecord is one persisted conversation cycle: the user's text and
// the assistant's reply, appended after a successful turn and read back
// at session start to seed the conversation window.
type ChatRecord struct {
	// PrincipalID references the owning principal in the external
	// identity system.
	PrincipalID string `json:"principal_id"`

	// UserText is the user's side of the cycle.
	UserText string `json:"user_text"`

	// AssistantText is the model's reply.
	AssistantText string `json:"assistant_text"`

	// TokenCount is the backend-reported usage for the cycle, 0 if the
	// backend did not report any.
	TokenCount int `json:"token_count"`

	// CreatedAt is when the cycle completed.
	CreatedAt time.Time `json:"created_at"`
}
