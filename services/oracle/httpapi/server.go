// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/sonar/pkg/telemetry"
	"github.com/AleutianAI/sonar/services/oracle"
	"github.com/AleutianAI/sonar/services/solver/events"
)

// Config holds oracle server configuration options.
//
// Description:
//
//	Config centralizes configuration for the oracle HTTP server. Zero
//	values use defaults applied by NewServer, so Config{} is a valid
//	configuration for local development.
type Config struct {
	// Port is the HTTP server port. Default: 12280
	Port int

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string

	// EnableMetrics mounts the Prometheus /metrics endpoint when the
	// telemetry stack has a Prometheus exporter configured.
	// Default: true (disable via DisableMetrics)
	EnableMetrics bool

	// DisableMetrics turns off the /metrics endpoint. Split from
	// EnableMetrics so the zero-value Config keeps metrics on.
	DisableMetrics bool

	// EventBufferSize is the solver event replay buffer size.
	// Default: 1000
	EventBufferSize int
}

// Server hosts the oracle and solver HTTP API.
//
// Description:
//
//	Server composes a local oracle, a solver event emitter, and the
//	Gin router into a runnable service. The emitter backs both the
//	POST /v1/solve progress stream and the /v1/solve/watch WebSocket.
//
// Thread Safety: Safe for concurrent use after NewServer returns.
type Server struct {
	config  Config
	oracle  *oracle.Local
	emitter *events.Emitter
	router  *gin.Engine
}

// NewServer creates an oracle API server around an existing oracle.
//
// Description:
//
//	Applies configuration defaults, builds the event emitter and the
//	Gin router, and registers all routes under /v1. The oracle is
//	injected rather than constructed so callers control secret
//	provisioning and cleanup.
//
// Inputs:
//   - cfg: Server configuration. Zero values use defaults.
//   - o: The oracle to expose. Must not be nil.
//
// Outputs:
//   - *Server: Ready-to-run server
//   - error: Non-nil if cfg or o is invalid
func NewServer(cfg Config, o *oracle.Local) (*Server, error) {
	if o == nil {
		return nil, fmt.Errorf("%w: oracle must not be nil", ErrBadResponse)
	}

	cfg = applyConfigDefaults(cfg)
	s := &Server{
		config:  cfg,
		oracle:  o,
		emitter: events.NewEmitter(events.WithBufferSize(cfg.EventBufferSize)),
	}
	s.initRouter()

	return s, nil
}

// Run starts the HTTP server and blocks until it stops.
//
// Description:
//
//	Starts the Gin HTTP server on the configured port. Blocks until
//	the server stops due to error or process shutdown.
//
// Outputs:
//   - error: Non-nil if the server fails to start or dies
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting oracle server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
//
// Description:
//
//	Provides access to the configured router for integration tests
//	that drive it through httptest. Callers must not modify routes.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Emitter returns the solver event emitter backing the watch stream.
func (s *Server) Emitter() *events.Emitter {
	return s.emitter
}

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12280
	}
	if cfg.EventBufferSize == 0 {
		cfg.EventBufferSize = 1000
	}
	cfg.EnableMetrics = !cfg.DisableMetrics
	return cfg
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *Server) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(otelgin.Middleware("sonar-oracle"))

	handlers := NewHandlers(s.oracle).WithEmitter(s.emitter)
	RegisterRoutes(s.router.Group("/v1"), handlers)

	if s.config.EnableMetrics {
		// resolved per request so telemetry.Init may run after NewServer
		s.router.GET("/metrics", func(c *gin.Context) {
			mh := telemetry.MetricsHandler()
			if mh == nil {
				c.Status(http.StatusNotFound)
				return
			}
			mh.ServeHTTP(c.Writer, c.Request)
		})
	}
}
