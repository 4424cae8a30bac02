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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the oracle API on rg, expected to be the /v1
// group with shared middleware already applied. The oracle endpoints
// expose the match primitive and hosting concerns; the solve endpoints
// run the inference engine server-side and stream its progress.
//
// Endpoints:
//
//	POST /v1/oracle/evaluate - Score a guess against the hosted secret
//	POST /v1/oracle/rotate   - Install a new secret and reset counters
//	GET  /v1/oracle/health   - Health check with query statistics
//	POST /v1/solve           - Run the solver against the hosted oracle
//	GET  /v1/solve/watch     - WebSocket stream of solver events
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	oracleGroup := rg.Group("/oracle")
	{
		oracleGroup.POST("/evaluate", handlers.HandleEvaluate)
		oracleGroup.POST("/rotate", handlers.HandleRotate)
		oracleGroup.GET("/health", handlers.HandleHealth)
	}

	solveGroup := rg.Group("/solve")
	{
		solveGroup.POST("", handlers.HandleSolve)
		solveGroup.GET("/watch", handlers.HandleWatch)
	}
}
