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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianChat/services/gateway/datatypes"
)

// MockLLMClient implements LLMClient for Responder testing.
type MockLLMClient struct {
	ChatResponse string
	ChatUsage    TokenUsage
	ChatError    error
	BlockUntil   time.Duration

	GotMessages []datatypes.Message
}

func (m *MockLLMClient) Chat(ctx context.Context, messages []datatypes.Message,
	_ GenerationParams) (string, TokenUsage, error) {

	m.GotMessages = messages
	if m.BlockUntil > 0 {
		select {
		case <-ctx.Done():
			return "", TokenUsage{}, ctx.Err()
		case <-time.After(m.BlockUntil):
		}
	}
	return m.ChatResponse, m.ChatUsage, m.ChatError
}

func TestResponder_AssemblesOrderedContext(t *testing.T) {
	mock := &MockLLMClient{ChatResponse: "fine, thanks"}
	r := NewResponder(mock, ResponderConfig{})

	contextTurns := []datatypes.Turn{
		{Speaker: datatypes.SpeakerUser, Text: "hello"},
		{Speaker: datatypes.SpeakerAssistant, Text: "hi there"},
	}
	text, tokens := r.Respond(context.Background(), contextTurns, "how are you?")

	assert.Equal(t, "fine, thanks", text)
	assert.Zero(t, tokens)

	require.Len(t, mock.GotMessages, 4)
	assert.Equal(t, "system", mock.GotMessages[0].Role)
	assert.Equal(t, DefaultSystemInstruction, mock.GotMessages[0].Content)
	assert.Equal(t, datatypes.Message{Role: "user", Content: "hello"}, mock.GotMessages[1])
	assert.Equal(t, datatypes.Message{Role: "assistant", Content: "hi there"}, mock.GotMessages[2])
	assert.Equal(t, datatypes.Message{Role: "user", Content: "how are you?"}, mock.GotMessages[3])
}

func TestResponder_ReportsTokenUsage(t *testing.T) {
	mock := &MockLLMClient{
		ChatResponse: "answer",
		ChatUsage:    TokenUsage{PromptTokens: 10, CompletionTokens: 32, TotalTokens: 42},
	}
	r := NewResponder(mock, ResponderConfig{})

	_, tokens := r.Respond(context.Background(), nil, "question")
	assert.Equal(t, 42, tokens)
}

// TestResponder_DegradesOnBackendError verifies the fail-soft contract:
// a backend failure becomes the fixed degraded string, never an error.
func TestResponder_DegradesOnBackendError(t *testing.T) {
	mock := &MockLLMClient{ChatError: errors.New("quota exceeded")}
	r := NewResponder(mock, ResponderConfig{})

	text, tokens := r.Respond(context.Background(), nil, "hi")
	assert.Equal(t, DegradedResponse, text)
	assert.Zero(t, tokens)
}

// TestResponder_DegradesOnTimeout verifies a hung backend resolves to
// the degraded response within the configured call timeout.
func TestResponder_DegradesOnTimeout(t *testing.T) {
	mock := &MockLLMClient{
		ChatResponse: "too late",
		BlockUntil:   time.Second,
	}
	r := NewResponder(mock, ResponderConfig{CallTimeout: 20 * time.Millisecond})

	start := time.Now()
	text, tokens := r.Respond(context.Background(), nil, "hi")

	assert.Equal(t, DegradedResponse, text)
	assert.Zero(t, tokens)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestResponder_CustomSystemInstruction(t *testing.T) {
	mock := &MockLLMClient{ChatResponse: "aye"}
	r := NewResponder(mock, ResponderConfig{SystemInstruction: "You are a pirate."})

	r.Respond(context.Background(), nil, "hi")
	require.NotEmpty(t, mock.GotMessages)
	assert.Equal(t, "You are a pirate.", mock.GotMessages[0].Content)
}
