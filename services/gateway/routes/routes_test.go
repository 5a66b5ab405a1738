// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianChat/pkg/extensions"
	"github.com/AleutianAI/AleutianChat/services/gateway/handlers"
	"github.com/AleutianAI/AleutianChat/services/gateway/stream"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// rejectAllProvider fails every token; the route tests only care that
// the auth middleware sits in front of the history group.
type rejectAllProvider struct{}

func (p *rejectAllProvider) Validate(_ context.Context, _ string) (*extensions.AuthInfo, error) {
	return nil, fmt.Errorf("rejected: %w", extensions.ErrUnauthorized)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	chunker, err := stream.NewChunker(5, 0)
	require.NoError(t, err)

	router := gin.New()
	SetupRoutes(router, handlers.ChatDeps{
		Auth:    &rejectAllProvider{},
		Chunker: chunker,
	})
	return router
}

func TestSetupRoutes_RegistersExpectedEndpoints(t *testing.T) {
	router := newTestRouter(t)

	expected := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"GET", "/v1/chat/ws"},
		{"GET", "/v1/history"},
		{"DELETE", "/v1/history"},
	}

	registered := router.Routes()
	for _, want := range expected {
		found := false
		for _, route := range registered {
			if route.Method == want.method && route.Path == want.path {
				found = true
				break
			}
		}
		assert.True(t, found, "route %s %s not registered", want.method, want.path)
	}
}

func TestSetupRoutes_HealthIsPublic(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRoutes_MetricsIsPublic(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRoutes_HistoryRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	for _, method := range []string{"GET", "DELETE"} {
		t.Run(method, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(method, "/v1/history", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
