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
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianChat/services/gateway/history"
	"github.com/AleutianAI/AleutianChat/services/gateway/middleware"
)

// History query limits. The default matches a few screens of scrollback;
// the cap keeps one request from walking an entire principal's history.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// historyEntry is the REST projection of one stored turn.
type historyEntry struct {
	UserText      string    `json:"user_text"`
	AssistantText string    `json:"assistant_text"`
	TokenCount    int       `json:"token_count,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// GetHistory returns the authenticated principal's most recent turns,
// newest first.
//
// # Description
//
// Reads the principal from the request context (set by AuthMiddleware)
// and queries the durable store. The optional "limit" query parameter
// bounds the result; invalid or out-of-range values fall back to the
// default rather than erroring, since a bad limit is not worth failing
// a read over.
//
// # Outputs
//
//   - 200 with {"history": [...], "count": n}
//   - 401 if the request context has no principal
//   - 503 if the gateway runs without a history store
func GetHistory(store history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		info := middleware.GetAuthInfo(c)
		if info == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history not configured"})
			return
		}

		limit := defaultHistoryLimit
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= maxHistoryLimit {
				limit = n
			}
		}

		records, err := store.QueryRecent(c.Request.Context(), info.UserID, limit)
		if err != nil {
			slog.Error("failed to query conversation history", "error", err, "principal", info.UserID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query history"})
			return
		}

		entries := make([]historyEntry, 0, len(records))
		for _, r := range records {
			entries = append(entries, historyEntry{
				UserText:      r.UserText,
				AssistantText: r.AssistantText,
				TokenCount:    r.TokenCount,
				CreatedAt:     r.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"history": entries, "count": len(entries)})
	}
}

// DeleteHistory removes every stored turn for the authenticated
// principal. Only the caller's own history is reachable; the principal
// comes from the validated token, never from the request.
func DeleteHistory(store history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		info := middleware.GetAuthInfo(c)
		if info == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history not configured"})
			return
		}

		if err := store.DeleteAll(c.Request.Context(), info.UserID); err != nil {
			slog.Error("failed to delete conversation history", "error", err, "principal", info.UserID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete history"})
			return
		}
		slog.Info("Deleted conversation history", "principal", info.UserID)
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}
