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
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/sonar/services/solver/events"
)

// watchChannelSize bounds how far a live stream can fall behind before
// events are dropped for that client.
const watchChannelSize = 256

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// HandleWatch handles GET /v1/solve/watch.
//
// Description:
//
//	Upgrades to a WebSocket and streams solver events as JSON. The
//	emitter's ring buffer is replayed first so a client connecting
//	mid-run sees the probes it missed; the optional "since" query
//	parameter (RFC 3339) narrows the replay. Live events follow until
//	the client disconnects. A slow client drops live events rather
//	than stalling the solve; reconnecting replays the buffer.
//
// Response:
//
//	101 Switching Protocols, then a stream of events.Event JSON
//	503 Service Unavailable: No emitter configured
func (h *Handlers) HandleWatch(c *gin.Context) {
	if h.emitter == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "Event streaming requires an emitter",
			Code:  "WATCH_NOT_CONFIGURED",
		})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()
	slog.Info("Watch client connected")

	replay := h.emitter.GetBuffer()
	if raw := c.Query("since"); raw != "" {
		if t, perr := time.Parse(time.RFC3339Nano, raw); perr == nil {
			replay = h.emitter.GetBufferSince(t)
		}
	}
	for i := range replay {
		if sendEvent(ws, &replay[i]) != nil {
			return
		}
	}

	live := make(chan events.Event, watchChannelSize)
	subID := h.emitter.Subscribe(func(e *events.Event) {
		select {
		case live <- *e:
		default:
		}
	})
	defer h.emitter.Unsubscribe(subID)

	// the read pump only exists to notice the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, rerr := ws.ReadMessage(); rerr != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			slog.Info("Watch client disconnected")
			return
		case <-c.Request.Context().Done():
			return
		case e := <-live:
			if sendEvent(ws, &e) != nil {
				return
			}
		}
	}
}

func sendEvent(ws *websocket.Conn, e *events.Event) error {
	if err := ws.WriteJSON(e); err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
		return err
	}
	return nil
}
