// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gateway provides the streaming chat gateway service for
// AleutianChat.
//
// This package contains the main service type that coordinates all
// components: HTTP/websocket routing, token validation, the LLM
// backend, durable conversation history, and observability
// infrastructure.
//
// # Enterprise Integration
//
// The gateway supports dependency injection via
// extensions.ServiceOptions, enabling downstream distributions to
// provide a custom AuthProvider (SSO, API keys) in place of the
// bundled JWT validator.
//
// # Usage
//
// Open source (bundled JWT validation):
//
//	cfg := gateway.Config{Port: 12230, JWTSecret: secret}
//	svc, err := gateway.New(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
//
// Enterprise (with a custom token validator):
//
//	opts := &extensions.ServiceOptions{AuthProvider: ssoAuth}
//	svc, err := gateway.New(cfg, opts)
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/AleutianChat/pkg/extensions"
	"github.com/AleutianAI/AleutianChat/services/gateway/auth"
	"github.com/AleutianAI/AleutianChat/services/gateway/handlers"
	"github.com/AleutianAI/AleutianChat/services/gateway/history"
	"github.com/AleutianAI/AleutianChat/services/gateway/llm"
	"github.com/AleutianAI/AleutianChat/services/gateway/memory"
	"github.com/AleutianAI/AleutianChat/services/gateway/observability"
	"github.com/AleutianAI/AleutianChat/services/gateway/routes"
	"github.com/AleutianAI/AleutianChat/services/gateway/stream"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the chat gateway service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and
// should only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing. Callers
	// must not modify routes after construction.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds gateway configuration options.
//
// # Description
//
// Config centralizes all configuration for the gateway. Values can be
// populated from environment variables (see cmd/gateway), config
// files, or programmatically for testing. Zero values use defaults;
// New() validates the result.
//
// # Examples
//
//	// Minimal config (no auth, no LLM; every turn degrades in-band)
//	cfg := Config{}
//
//	// Typical production configuration
//	cfg := Config{
//	    Port:           12230,
//	    JWTSecret:      os.Getenv("ALEUTIAN_JWT_SECRET"),
//	    OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
//	    HistoryPath:    "/var/lib/aleutian/chat",
//	    PersistHistory: true,
//	}
type Config struct {
	// Port is the HTTP server port. Default: 12230
	Port int `validate:"gte=0,lte=65535"`

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string `validate:"omitempty,oneof=debug release test"`

	// JWTSecret is the shared HS256 signing secret for bearer tokens.
	// If empty (and no AuthProvider is injected), authentication is
	// disabled and every connection is accepted as a local user.
	JWTSecret string

	// OpenAIAPIKey authenticates against the LLM backend. If empty,
	// the gateway runs without a backend: connections are accepted and
	// every turn answers with an in-band configuration error.
	OpenAIAPIKey string

	// OpenAIModel selects the backend model. Default: llm.DefaultOpenAIModel
	OpenAIModel string

	// OpenAIBaseURL overrides the backend endpoint, for OpenAI-compatible
	// local servers. If empty the provider default is used.
	OpenAIBaseURL string

	// SystemInstruction is the system prompt prepended to every
	// backend call. Default: llm.DefaultSystemInstruction
	SystemInstruction string

	// Temperature is the backend sampling temperature.
	Temperature float32 `validate:"gte=0,lte=2"`

	// BackendTimeout bounds one backend call. A turn exceeding it
	// degrades in-band. Default: llm.DefaultCallTimeout
	BackendTimeout time.Duration

	// WindowPairs is the per-session conversation memory capacity in
	// user/assistant pairs. Default: memory.DefaultPairs
	WindowPairs int `validate:"gte=0"`

	// ChunkSize is the streaming chunk size in runes.
	// Default: stream.DefaultChunkSize
	ChunkSize int `validate:"gte=0"`

	// ChunkDelay is the pause between consecutive chunks.
	// Default: stream.DefaultDelay
	ChunkDelay time.Duration

	// HistoryPath is the on-disk location of the durable history
	// store. If empty (and HistoryInMemory is false), the gateway runs
	// without durable history: sessions start cold and persist nothing.
	HistoryPath string

	// HistoryInMemory runs the history store in memory, for tests and
	// ephemeral deployments.
	HistoryInMemory bool

	// PersistHistory enables background writes of completed turns.
	// Reads (window seeding, the history API) work regardless; this
	// only gates new writes. Default: false
	PersistHistory bool

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "aleutian-otel-collector:4317"
	OTelEndpoint string
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// Thread-safe after construction; all fields are read-only after New()
// returns.
type service struct {
	config        Config
	opts          extensions.ServiceOptions
	router        *gin.Engine
	authProvider  extensions.AuthProvider
	responder     llm.TurnResponder
	store         history.Store
	chunker       *stream.Chunker
	storeClose    func() error
	tracerCleanup func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new gateway Service with the given configuration.
//
// # Description
//
// New initializes all gateway components:
//  1. Applies default configuration and validates the result
//  2. Initializes OpenTelemetry tracing and Prometheus metrics
//  3. Selects the token validator (injected, JWT, or no-op)
//  4. Opens the durable history store if configured
//  5. Creates the LLM responder if an API key is configured
//  6. Sets up HTTP routes
//
// A missing LLM backend or history store is not fatal; the service
// runs degraded and reports it per-turn or per-request. A malformed
// configuration is fatal.
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//   - opts: Extension options for enterprise features. May be nil.
//
// # Outputs
//
//   - Service: Ready-to-run gateway service
//   - error: Non-nil if initialization fails
func New(cfg Config, opts *extensions.ServiceOptions) (Service, error) {
	cfg = applyConfigDefaults(cfg)
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid gateway config: %w", err)
	}

	s := &service{config: cfg}
	if opts != nil {
		s.opts = *opts
	} else {
		s.opts = extensions.DefaultOptions()
	}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	observability.InitMetrics()

	if err := s.initAuth(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize auth provider: %w", err)
	}

	if err := s.initHistory(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}

	s.initResponder()

	s.chunker, err = stream.NewChunker(cfg.ChunkSize, cfg.ChunkDelay)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize chunker: %w", err)
	}

	s.initRouter()
	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting chat gateway server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12230
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = llm.DefaultOpenAIModel
	}
	if cfg.SystemInstruction == "" {
		cfg.SystemInstruction = llm.DefaultSystemInstruction
	}
	if cfg.BackendTimeout == 0 {
		cfg.BackendTimeout = llm.DefaultCallTimeout
	}
	if cfg.WindowPairs == 0 {
		cfg.WindowPairs = memory.DefaultPairs
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = stream.DefaultChunkSize
	}
	if cfg.ChunkDelay == 0 {
		cfg.ChunkDelay = stream.DefaultDelay
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "aleutian-otel-collector:4317"
	}
	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// The gRPC connection is lazy, so an unreachable collector does not
// block startup; spans are dropped until it appears.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("chat-gateway")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initAuth selects the token validator. An injected provider wins;
// otherwise a configured JWT secret selects the bundled validator, and
// an empty one disables authentication entirely.
func (s *service) initAuth() error {
	if s.opts.AuthProvider != nil {
		if _, isNop := s.opts.AuthProvider.(*extensions.NopAuthProvider); !isNop {
			s.authProvider = s.opts.AuthProvider
			slog.Info("Using injected auth provider")
			return nil
		}
	}

	if s.config.JWTSecret != "" {
		provider, err := auth.NewJWTProvider([]byte(s.config.JWTSecret))
		if err != nil {
			return err
		}
		s.authProvider = provider
		slog.Info("Using bundled JWT token validation")
		return nil
	}

	s.authProvider = &extensions.NopAuthProvider{}
	slog.Warn("No JWT secret configured; authentication is DISABLED and all connections are accepted")
	return nil
}

// initHistory opens the durable history store if one is configured.
// Running without a store is supported: sessions start cold and the
// history API reports 503.
func (s *service) initHistory() error {
	if s.config.HistoryPath == "" && !s.config.HistoryInMemory {
		slog.Info("History store not configured, sessions will not persist")
		return nil
	}

	store, err := history.NewBadgerStore(history.Config{
		Path:     s.config.HistoryPath,
		InMemory: s.config.HistoryInMemory,
	})
	if err != nil {
		return err
	}
	s.store = store
	s.storeClose = store.Close
	slog.Info("History store initialized",
		"path", s.config.HistoryPath, "in_memory", s.config.HistoryInMemory)
	return nil
}

// initResponder creates the LLM responder if a backend is configured.
// Without one the responder stays nil and the session loop reports
// "LLM not configured." per turn.
func (s *service) initResponder() {
	if s.config.OpenAIAPIKey == "" {
		slog.Warn("No LLM API key configured; chat turns will answer with a configuration error")
		return
	}

	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  s.config.OpenAIAPIKey,
		Model:   s.config.OpenAIModel,
		BaseURL: s.config.OpenAIBaseURL,
	})
	if err != nil {
		slog.Warn("LLM client initialization failed; running without a backend", "error", err)
		return
	}

	var temp *float32
	if s.config.Temperature > 0 {
		t := s.config.Temperature
		temp = &t
	}
	s.responder = llm.NewResponder(client, llm.ResponderConfig{
		SystemInstruction: s.config.SystemInstruction,
		Temperature:       temp,
		CallTimeout:       s.config.BackendTimeout,
	})
	slog.Info("Using OpenAI-compatible LLM backend", "model", s.config.OpenAIModel)
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("chat-gateway"))

	routes.SetupRoutes(s.router, handlers.ChatDeps{
		Auth:        s.authProvider,
		Responder:   s.responder,
		History:     s.store,
		Chunker:     s.chunker,
		WindowPairs: s.config.WindowPairs,
		Persist:     s.config.PersistHistory,
		Metrics:     observability.DefaultMetrics,
	})
}

// cleanup releases all resources held by the service.
func (s *service) cleanup() {
	if s.storeClose != nil {
		if err := s.storeClose(); err != nil {
			slog.Warn("History store close error", "error", err)
		}
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
