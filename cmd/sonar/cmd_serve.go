// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AleutianAI/sonar/cmd/sonar/config"
	"github.com/AleutianAI/sonar/pkg/telemetry"
	"github.com/AleutianAI/sonar/services/oracle"
	"github.com/AleutianAI/sonar/services/oracle/httpapi"
	"github.com/spf13/cobra"
)

func runServeCommand(cmd *cobra.Command, args []string) {
	cfg := config.Global

	port := servePort
	if port == 0 {
		port = cfg.Oracle.Port
	}
	alpha := effectiveAlphabet()

	secret, err := resolveSecret()
	generated := false
	if err != nil {
		// No secret anywhere: arm a random one so the server is
		// crackable out of the box.
		secret = randomSecret(alpha, 1+rand.IntN(oracle.MaxSecretLength))
		generated = true
	}

	o, err := oracle.NewLocal(secret, oracle.WithAlphabet(alpha))
	if err != nil {
		log.Fatalf("Cannot arm the oracle: %v", err)
	}

	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceName = "sonar-oracle"
	if cfg.Telemetry.TraceExporter != "" {
		tcfg.TraceExporter = cfg.Telemetry.TraceExporter
	}
	if cfg.Telemetry.MetricExporter != "" {
		tcfg.MetricExporter = cfg.Telemetry.MetricExporter
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		tcfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	}
	shutdownTelemetry, err := telemetry.Init(context.Background(), tcfg)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	// Reload the secret whenever the watched file changes
	watchPath := secretFile
	if watchPath == "" {
		watchPath = cfg.Oracle.SecretFile
	}
	var watcher *oracle.SecretWatcher
	if watchPath != "" {
		watcher, err = oracle.NewSecretWatcher(o, watchPath)
		if err != nil {
			logger.Warn("Secret file watching disabled", "path", watchPath, "error", err)
		} else {
			logger.Info("Watching secret file for rotations", "path", watchPath)
		}
	}

	srv, err := httpapi.NewServer(httpapi.Config{
		Port:           port,
		GinMode:        serveGinMode,
		DisableMetrics: serveNoMetrics,
	}, o)
	if err != nil {
		log.Fatalf("Failed to build the oracle server: %v", err)
	}

	printServeBanner(port, alpha, o.Length(), generated, watchPath)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Shutting down oracle server")
		if watcher != nil {
			watcher.Close()
		}
		o.Close()
		oracle.PurgeSecrets()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", "error", err)
		}
		os.Exit(0)
	}()

	if err := srv.Run(); err != nil {
		log.Fatalf("Oracle server failed: %v", err)
	}
}

func printServeBanner(port int, alpha string, secretLen int, generated bool, watchPath string) {
	if machineOutput() {
		logger.Info("Oracle armed",
			"port", port, "alphabet", alpha, "secret_length", secretLen, "generated", generated)
		return
	}

	secretNote := fmt.Sprintf("armed, length %d", secretLen)
	if generated {
		secretNote = fmt.Sprintf("random, length %d (set SONAR_SECRET to choose)", secretLen)
	}
	watchNote := "off"
	if watchPath != "" {
		watchNote = watchPath
	}

	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                        SONAR ORACLE SERVER                        ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Counting oracle for exact-position guess scoring.                ║
║  Alphabet: %-54s ║
║  Secret:   %-54s ║
║  Watch:    %-54s ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost:%d/v1/oracle/health                │  ║
║  │                                                             │  ║
║  │ # Score a guess                                             │  ║
║  │ curl -X POST http://localhost:%d/v1/oracle/evaluate \    │  ║
║  │   -H "Content-Type: application/json" \                     │  ║
║  │   -d '{"guess": "BACXIU"}'                                  │  ║
║  │                                                             │  ║
║  │ # Run the solver server-side                                │  ║
║  │ curl -X POST http://localhost:%d/v1/solve                │  ║
║  │                                                             │  ║
║  │ # Or crack it from another terminal                         │  ║
║  │ sonar crack http://localhost:%d                           │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── Oracle: /v1/oracle/evaluate, /rotate, /health                ║
║  └── Solver: /v1/solve, /v1/solve/watch (WebSocket)               ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, alpha, secretNote, watchNote, port, port, port, port)
}
