// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package httpapi exposes a hosted oracle and server-side solve runs
// over HTTP, plus a WebSocket stream of solver events.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/sonar/services/oracle"
	"github.com/AleutianAI/sonar/services/solver"
	"github.com/AleutianAI/sonar/services/solver/events"
)

// Handlers contains the HTTP handlers for the oracle service.
type Handlers struct {
	oracle  *oracle.Local
	emitter *events.Emitter
}

// NewHandlers creates handlers serving the given oracle.
func NewHandlers(o *oracle.Local) *Handlers {
	return &Handlers{oracle: o}
}

// WithEmitter sets the event emitter used by solve runs and the watch
// stream.
func (h *Handlers) WithEmitter(e *events.Emitter) *Handlers {
	h.emitter = e
	return h
}

// handlerLog returns a logger carrying the request id and handler name.
// The id is echoed in the X-Request-ID response header, minted fresh
// when the client sent none.
func handlerLog(c *gin.Context, handler string) *slog.Logger {
	id := c.GetHeader("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	c.Header("X-Request-ID", id)
	return slog.With("request_id", id, "handler", handler)
}

// bindJSON decodes the body into dst. On failure it logs, writes the
// 400 response, and reports false.
func bindJSON(c *gin.Context, logger *slog.Logger, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	logger.Warn("Invalid request body", "error", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: "Invalid request body",
		Code:  "INVALID_REQUEST",
	})
	return false
}

// HandleEvaluate handles POST /v1/oracle/evaluate.
//
// Description:
//
//	Scores one guess against the hosted secret. Sentinel answers (-1
//	off-alphabet, -2 wrong length) come back as 200 responses; they
//	are answers, not errors.
//
// Request Body:
//
//	EvaluateRequest
//
// Response:
//
//	200 OK: EvaluateResponse
//	400 Bad Request: Missing guess
//	503 Service Unavailable: Oracle closed
func (h *Handlers) HandleEvaluate(c *gin.Context) {
	logger := handlerLog(c, "HandleEvaluate")

	var req EvaluateRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	matches, err := h.oracle.Evaluate(c.Request.Context(), req.Guess)
	if err != nil {
		status := http.StatusInternalServerError
		code := "EVALUATE_FAILED"
		if errors.Is(err, oracle.ErrOracleClosed) {
			status = http.StatusServiceUnavailable
			code = "ORACLE_CLOSED"
		}
		logger.Error("Evaluate failed", "error", err)
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	c.JSON(http.StatusOK, EvaluateResponse{
		Matches: matches,
		Queries: h.oracle.Queries(),
	})
}

// HandleRotate handles POST /v1/oracle/rotate.
//
// Description:
//
//	Replaces the hosted secret and resets the query counter. The old
//	secret stays in place when the replacement fails validation.
//
// Request Body:
//
//	RotateRequest
//
// Response:
//
//	200 OK: RotateResponse
//	400 Bad Request: Invalid secret
//	503 Service Unavailable: Oracle closed
func (h *Handlers) HandleRotate(c *gin.Context) {
	logger := handlerLog(c, "HandleRotate")

	var req RotateRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	if err := h.oracle.Rotate(req.Secret); err != nil {
		status := http.StatusInternalServerError
		code := "ROTATE_FAILED"
		switch {
		case errors.Is(err, oracle.ErrEmptySecret),
			errors.Is(err, oracle.ErrSecretTooLong),
			errors.Is(err, oracle.ErrInvalidSecret):
			status = http.StatusBadRequest
			code = "INVALID_SECRET"
		case errors.Is(err, oracle.ErrOracleClosed):
			status = http.StatusServiceUnavailable
			code = "ORACLE_CLOSED"
		}
		logger.Error("Rotate failed", "error", err)
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	logger.Info("Secret rotated", "length", h.oracle.Length())
	c.JSON(http.StatusOK, RotateResponse{
		Status: "rotated",
		Length: h.oracle.Length(),
	})
}

// HandleSolve handles POST /v1/solve.
//
// Description:
//
//	Runs a full solve against the hosted oracle and returns the
//	result. Solver events go to the configured emitter, so a watch
//	stream opened before this call observes the run live.
//
// Request Body:
//
//	SolveRequest (all fields optional)
//
// Response:
//
//	200 OK: solver.Result
//	400 Bad Request: Invalid solver configuration
//	500 Internal Server Error: Solve failure
func (h *Handlers) HandleSolve(c *gin.Context) {
	logger := handlerLog(c, "HandleSolve")

	// An empty body means a solve with server defaults.
	var req SolveRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, logger, &req) {
		return
	}

	cfg := solver.Config{
		Alphabet:      req.Alphabet,
		MaxLength:     req.MaxLength,
		RedetectLimit: req.RedetectLimit,
	}
	if h.emitter != nil {
		h.emitter.SetRunID(uuid.NewString())
		cfg.Events = h.emitter
	}

	s, err := solver.New(h.oracle, cfg)
	if err != nil {
		logger.Warn("Invalid solver configuration", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	res, err := s.Run(c.Request.Context())
	if err != nil {
		code := "SOLVE_FAILED"
		if errors.Is(err, solver.ErrLengthConflict) {
			code = "LENGTH_CONFLICT"
		}
		logger.Error("Solve failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  code,
		})
		return
	}

	logger.Info("Solve complete",
		"length", res.Length,
		"queries", res.Queries,
		"duration", res.Duration)
	c.JSON(http.StatusOK, res)
}

// HandleHealth handles GET /v1/oracle/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		Service:      "sonar-oracle",
		Version:      ServiceVersion,
		SecretLength: h.oracle.Length(),
		Queries:      h.oracle.Queries(),
	})
}
