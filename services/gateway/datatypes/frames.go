// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the chat gateway service.
//
// This file contains the websocket wire protocol: inbound and outbound
// frame shapes and the exact frame-type literals existing clients depend
// on. Do not rename the literals; they are wire compatibility contracts,
// not internal identifiers.
package datatypes

// =============================================================================
// Frame Type Literals
// =============================================================================

// Outbound frame types. Exact strings are load-bearing: deployed web
// clients switch on them.
const (
	// FrameConnectionEstablished is sent once, immediately after a
	// successful authentication handshake.
	FrameConnectionEstablished = "connection_established"

	// FrameStatus acknowledges an inbound turn before any model latency
	// is incurred.
	FrameStatus = "status"

	// FrameStartOfTurn marks the beginning of a streamed response.
	FrameStartOfTurn = "<STARTOFTURN>"

	// FrameChatResponseStream carries one chunk of the response text.
	FrameChatResponseStream = "chat_response_stream"

	// FrameEndOfTurn marks the end of a streamed response.
	FrameEndOfTurn = "<ENDOFTURN>"

	// FrameError carries a recoverable error. The connection stays open.
	FrameError = "error"
)

// Fixed frame payloads. Same wire-compatibility rule as the type literals.
const (
	// MsgConnected is the payload of the connection_established frame.
	MsgConnected = "You are now connected to the chat server."

	// MsgThinking is the status payload sent before invoking the backend.
	MsgThinking = "🤔 Thinking..."

	// MsgInvalidJSON is the error payload for unparseable inbound frames.
	MsgInvalidJSON = "Invalid JSON format"

	// MsgLLMNotConfigured is the error payload when no backend is wired.
	MsgLLMNotConfigured = "LLM not configured."
)

// CloseUnauthorized is the websocket close code for both a missing token
// and a failed validation. The reason is never detailed to the client.
const CloseUnauthorized = 4001

// =============================================================================
// Frame Shapes
// =============================================================================

// InboundFrame is the only message shape clients send.
//
// Unknown fields are ignored. A missing "message" key decodes to the
// empty string and is still processed as a turn; no frame is discarded
// for having no message.
type InboundFrame struct {
	Message string `json:"message"`
}

// OutboundFrame is the shape of every frame the gateway sends.
type OutboundFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewFrame builds an outbound frame.
func NewFrame(frameType, message string) OutboundFrame {
	return OutboundFrame{Type: frameType, Message: message}
}
