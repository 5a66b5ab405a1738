// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command gateway starts the AleutianChat streaming chat gateway.
//
// This is the main entry point for the containerized gateway service.
// It reads configuration from environment variables and starts the
// server.
//
// # Environment Variables
//
//   - GATEWAY_PORT: HTTP server port (default: 12230)
//   - GIN_MODE: Gin framework mode - debug, release, test
//   - ALEUTIAN_JWT_SECRET: HS256 signing secret; empty disables auth
//   - OPENAI_API_KEY: LLM backend key; empty runs without a backend
//   - OPENAI_MODEL: backend model (default: gpt-4o-mini)
//   - OPENAI_BASE_URL: OpenAI-compatible endpoint override (optional)
//   - CHAT_SYSTEM_INSTRUCTION: system prompt override (optional)
//   - CHAT_BACKEND_TIMEOUT: per-call timeout, e.g. "45s"
//   - CHAT_WINDOW_PAIRS: conversation memory capacity (default: 5)
//   - CHAT_CHUNK_SIZE: streaming chunk size in runes (default: 5)
//   - CHAT_CHUNK_DELAY: pause between chunks, e.g. "30ms"
//   - CHAT_HISTORY_PATH: durable history location; empty disables it
//   - CHAT_PERSIST_HISTORY: "true" enables background turn writes
//   - CHAT_LOG_LEVEL: minimum log level - debug, info, warn, error (default: info)
//   - CHAT_LOG_DIR: additional per-day log file location (optional)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: aleutian-otel-collector:4317)
//
// # Usage
//
//	# Build
//	go build -o gateway ./cmd/gateway
//
//	# Run
//	./gateway
//
//	# Or via container
//	podman-compose up gateway
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/AleutianAI/AleutianChat/pkg/logging"
	"github.com/AleutianAI/AleutianChat/services/gateway"
)

func main() {
	// Setup structured logging (JSON to stdout, optional daily file)
	logger := logging.New(logging.Config{
		Level:   logLevelFromEnv("CHAT_LOG_LEVEL"),
		Service: "chat-gateway",
		LogDir:  os.Getenv("CHAT_LOG_DIR"),
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	// Build configuration from environment variables
	cfg := gateway.Config{
		Port:              getEnvInt("GATEWAY_PORT", 12230),
		GinMode:           os.Getenv("GIN_MODE"),
		JWTSecret:         os.Getenv("ALEUTIAN_JWT_SECRET"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       os.Getenv("OPENAI_MODEL"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		SystemInstruction: os.Getenv("CHAT_SYSTEM_INSTRUCTION"),
		BackendTimeout:    getEnvDuration("CHAT_BACKEND_TIMEOUT", 0),
		WindowPairs:       getEnvInt("CHAT_WINDOW_PAIRS", 0),
		ChunkSize:         getEnvInt("CHAT_CHUNK_SIZE", 0),
		ChunkDelay:        getEnvDuration("CHAT_CHUNK_DELAY", 0),
		HistoryPath:       os.Getenv("CHAT_HISTORY_PATH"),
		PersistHistory:    getEnvBool("CHAT_PERSIST_HISTORY", false),
		OTelEndpoint:      getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "aleutian-otel-collector:4317"),
	}

	slog.Info("Starting chat gateway",
		"port", cfg.Port,
		"auth_enabled", cfg.JWTSecret != "",
		"llm_configured", cfg.OpenAIAPIKey != "",
		"history_path", cfg.HistoryPath,
		"persist_history", cfg.PersistHistory,
	)

	// Create gateway with default (no-op) extension options
	// Enterprise builds will pass custom ServiceOptions here
	svc, err := gateway.New(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to create gateway: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Gateway error: %v", err)
	}
}

// logLevelFromEnv maps the level environment variable to a logging
// Level, defaulting to info for unset or unrecognized values.
func logLevelFromEnv(key string) logging.Level {
	switch os.Getenv(key) {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a
// default. Values use Go duration syntax, e.g. "30ms", "45s".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
