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
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianChat/services/gateway/handlers"
	"github.com/AleutianAI/AleutianChat/services/gateway/middleware"
)

// SetupRoutes registers the gateway's endpoints.
//
// The websocket endpoint authenticates its own handshake (token query
// parameter), so it sits outside the auth middleware. The history
// group requires a bearer header on every request.
func SetupRoutes(router *gin.Engine, deps handlers.ChatDeps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/chat/ws", handlers.HandleChatWebSocket(deps))

		hist := v1.Group("/history")
		hist.Use(middleware.AuthMiddleware(deps.Auth))
		{
			hist.GET("", handlers.GetHistory(deps.History))
			hist.DELETE("", handlers.DeleteHistory(deps.History))
		}
	}
}
