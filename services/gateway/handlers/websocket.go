// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/AleutianChat/pkg/extensions"
	"github.com/AleutianAI/AleutianChat/services/gateway/datatypes"
	"github.com/AleutianAI/AleutianChat/services/gateway/history"
	"github.com/AleutianAI/AleutianChat/services/gateway/llm"
	"github.com/AleutianAI/AleutianChat/services/gateway/memory"
	"github.com/AleutianAI/AleutianChat/services/gateway/observability"
	"github.com/AleutianAI/AleutianChat/services/gateway/stream"
)

// persistTimeout bounds the background write of a completed turn.
const persistTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

// ChatDeps carries everything a websocket chat session needs.
//
// Responder may be nil: sessions still accept connections and answer
// every turn with an "LLM not configured." error frame. History may be
// nil: sessions then start with an empty window and persist nothing.
type ChatDeps struct {
	Auth      extensions.AuthProvider
	Responder llm.TurnResponder
	History   history.Store
	Chunker   *stream.Chunker

	// WindowPairs is the per-session conversation memory capacity in
	// user/assistant pairs. Non-positive values fall back to the
	// memory package default.
	WindowPairs int

	// Persist enables background durable writes of completed turns.
	Persist bool

	Metrics *observability.GatewayMetrics
}

// sendJSON writes one frame, logging write failures at Warn since they
// normally just mean the client went away.
func sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleChatWebSocket returns the handler for the streaming chat
// endpoint.
//
// # Description
//
// Authenticates the handshake, upgrades to a websocket, seeds the
// session's conversation window from durable history, and then
// processes inbound messages strictly one at a time: each turn runs to
// completion (thinking frame, start marker, paced chunks, end marker)
// before the next inbound frame is read.
//
// The bearer token arrives in the "token" query parameter, with the
// Authorization header honored as a fallback for non-browser clients.
// A missing or invalid token still upgrades, then closes immediately
// with code 4001 and no data frames, so the client sees a clean
// application-level close instead of a failed handshake.
//
// # Inputs
//
//   - deps: session collaborators; see ChatDeps for nil semantics.
//
// # Outputs
//
//   - gin.HandlerFunc for GET /v1/chat/ws
//
// # Limitations
//
//   - Inbound frames sent while a turn is streaming are not read until
//     the turn finishes; they queue in the connection buffer.
func HandleChatWebSocket(deps ChatDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()

		info, err := deps.Auth.Validate(c.Request.Context(), handshakeToken(c))
		if err != nil {
			deps.Metrics.RecordSession(observability.SessionUnauthorized)
			slog.Info("Websocket handshake rejected", "error", err.Error())
			closeMsg := websocket.FormatCloseMessage(datatypes.CloseUnauthorized, "unauthorized")
			_ = ws.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
			return
		}

		deps.Metrics.RecordSession(observability.SessionAccepted)
		deps.Metrics.SessionStarted()
		defer deps.Metrics.SessionEnded()

		sess := &chatSession{
			ws:        ws,
			deps:      deps,
			principal: info,
			sessionID: uuid.New().String(),
			window:    memory.NewWindow(deps.WindowPairs),
		}
		sess.log = slog.With(
			"sessionID", sess.sessionID,
			"principal", info.UserID,
		)

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		sess.run(ctx)
	}
}

// handshakeToken extracts the bearer token from the upgrade request.
// Browsers cannot set headers on a websocket handshake, so the query
// parameter is the primary channel.
func handshakeToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// chatSession is the per-connection state. One goroutine owns it for
// the lifetime of the connection; nothing here needs locking.
type chatSession struct {
	ws        *websocket.Conn
	deps      ChatDeps
	principal *extensions.AuthInfo
	sessionID string
	window    *memory.Window
	log       *slog.Logger
}

// run seeds the window, greets the client, and drives the read loop
// until the client disconnects. The window is cleared on exit; the
// durable store is the only thing that survives the session.
func (s *chatSession) run(ctx context.Context) {
	defer s.window.Clear()

	s.seedWindow(ctx)
	s.log.Info("Websocket session started", "seeded_turns", s.window.Len())

	if err := sendJSON(s.ws, datatypes.NewFrame(
		datatypes.FrameConnectionEstablished, datatypes.MsgConnected)); err != nil {
		return
	}

	for {
		_, payload, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Info("Websocket client disconnected", "error", err.Error())
			}
			return
		}

		var req datatypes.InboundFrame
		if err := json.Unmarshal(payload, &req); err != nil {
			// Stay connected: one malformed frame must not kill the
			// session or lose the window.
			s.deps.Metrics.RecordTurn(observability.TurnInvalidJSON)
			if err := sendJSON(s.ws, datatypes.NewFrame(
				datatypes.FrameError, datatypes.MsgInvalidJSON)); err != nil {
				return
			}
			continue
		}

		if err := s.processTurn(ctx, req.Message); err != nil {
			s.deps.Metrics.RecordClientDisconnect()
			s.log.Info("Websocket session ended mid-turn", "error", err.Error())
			return
		}
	}
}

// seedWindow loads the most recent completed turns for this principal
// into the conversation window. Failure is fail-soft: the session
// starts cold instead of refusing the connection.
func (s *chatSession) seedWindow(ctx context.Context) {
	if s.deps.History == nil {
		return
	}
	records, err := s.deps.History.QueryRecent(ctx, s.principal.UserID, s.window.Capacity())
	if err != nil {
		s.log.Warn("Failed to seed conversation window", "error", err)
		return
	}
	s.window.Seed(records)
}

// processTurn runs one full request/response cycle. A non-nil error
// means the connection is unusable and the session must end; every
// application-level failure (backend down, no responder) is reported
// to the client in-band instead.
func (s *chatSession) processTurn(ctx context.Context, userText string) error {
	if err := sendJSON(s.ws, datatypes.NewFrame(
		datatypes.FrameStatus, datatypes.MsgThinking)); err != nil {
		return err
	}

	if s.deps.Responder == nil {
		s.deps.Metrics.RecordTurn(observability.TurnNotConfigured)
		return sendJSON(s.ws, datatypes.NewFrame(
			datatypes.FrameError, datatypes.MsgLLMNotConfigured))
	}

	backendStart := time.Now()
	reply, tokens := s.deps.Responder.Respond(ctx, s.window.AsContext(), userText)
	s.deps.Metrics.RecordBackendLatency(time.Since(backendStart).Seconds())
	s.deps.Metrics.RecordTokens(tokens)

	if err := s.streamReply(ctx, reply); err != nil {
		return err
	}

	s.window.AppendPair(userText, reply, tokens)
	s.deps.Metrics.RecordTurn(observability.TurnSuccess)

	if s.deps.Persist && s.deps.History != nil {
		s.persistTurn(userText, reply, tokens)
	}
	return nil
}

// streamReply emits the start marker, the paced response chunks, and
// the end marker for one turn.
func (s *chatSession) streamReply(ctx context.Context, reply string) error {
	if err := sendJSON(s.ws, datatypes.NewFrame(
		datatypes.FrameStartOfTurn, "")); err != nil {
		return err
	}

	streamStart := time.Now()
	chunks := 0
	err := s.deps.Chunker.Stream(ctx, reply, func(chunk string) error {
		chunks++
		return sendJSON(s.ws, datatypes.NewFrame(
			datatypes.FrameChatResponseStream, chunk))
	})
	s.deps.Metrics.RecordChunks(chunks)
	s.deps.Metrics.RecordStreamDuration(time.Since(streamStart).Seconds())
	if err != nil {
		return err
	}

	return sendJSON(s.ws, datatypes.NewFrame(datatypes.FrameEndOfTurn, ""))
}

// persistTurn writes the completed turn in the background. The session
// never waits on the store; a failed write costs durable history, not
// the conversation.
func (s *chatSession) persistTurn(userText, reply string, tokens int) {
	record := datatypes.ChatRecord{
		PrincipalID:   s.principal.UserID,
		UserText:      userText,
		AssistantText: reply,
		TokenCount:    tokens,
		CreatedAt:     time.Now().UTC(),
	}
	log := s.log
	store := s.deps.History
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := store.Append(ctx, record); err != nil {
			log.Warn("Failed to persist conversation turn", "error", err)
		}
	}()
}
