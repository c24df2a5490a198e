package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/agentstation/comicmap/internal/server/response"
)

// HandleHealth handles GET /health (liveness).
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "comicmap-api",
		"version": "v1",
	})
}

// HandleReady handles GET /api/v1/ready. The server is ready once the local
// collection can be read.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	c, err := h.client.Collection(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Collection not readable")
		response.ServiceUnavailable(w, "Collection not available")
		return
	}

	response.OK(w, map[string]any{
		"status":            "ready",
		"comics":            len(c),
		"websocket_clients": h.wsHub.ClientCount(),
		"sse_clients":       h.sseBroadcaster.ClientCount(),
	})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	c, err := h.client.Collection(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	chapters := 0
	for _, rec := range c {
		chapters += rec.ChapterCount
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	response.OK(w, map[string]any{
		"runtime": map[string]any{
			"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"memory_mb":      mem.Alloc / 1024 / 1024,
		},
		"collection": map[string]any{
			"comics":   len(c),
			"chapters": chapters,
		},
		"events": h.broker.Stats(),
		"realtime": map[string]any{
			"websocket_clients": h.wsHub.ClientCount(),
			"sse_clients":       h.sseBroadcaster.ClientCount(),
		},
		"cache":      h.cache.Stats(),
		"extractors": h.client.Extractors(),
	})
}
