// Copyright 2026 FoodBlock Protocol
//
// Server-sent events streaming endpoint
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/foodxdevelopment/foodblock/internal/eventbus"
	"github.com/foodxdevelopment/foodblock/internal/fberr"
)

// maxStreamConnections bounds concurrent SSE subscribers per process
// (§4.6 "Connections are capped per-process").
const maxStreamConnections = 1000

// handleStream implements GET /stream (§4.6): a Server-Sent Events feed
// of new_block events, optionally narrowed by ?type=, ?author=, ?ref=.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.broker.Count() >= maxStreamConnections {
		writeErrorMsg(w, fberr.KindUnavailable, "too many active stream connections")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorMsg(w, fberr.KindInternal, "streaming unsupported")
		return
	}

	q := r.URL.Query()
	filter := eventbus.Filter{
		Type:   q.Get("type"),
		Author: q.Get("author"),
		Ref:    q.Get("ref"),
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, unsubscribe := s.broker.Subscribe(filter)
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: new_block\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
